package model

import (
	"path/filepath"
	"testing"

	"tuneful/backend/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	originalSQLitePath, originalDSN := common.SQLitePath, common.SQLDSN
	common.SQLitePath = filepath.Join(t.TempDir(), "model_test.db")
	common.SQLDSN = ""

	db, err := InitDB()
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = CloseDB(db)
		common.SQLitePath, common.SQLDSN = originalSQLitePath, originalDSN
	})
	return db
}

func insertSong(t *testing.T, db *gorm.DB, name string) *Song {
	t.Helper()
	file := &File{Name: name}
	require.NoError(t, file.Insert(db))
	song := &Song{FileID: file.ID, File: file}
	require.NoError(t, song.Insert(db))
	return song
}

func TestSongAsDictionary(t *testing.T) {
	song := &Song{ID: 3, FileID: 5, File: &File{ID: 5, Name: "Song A"}}
	view := song.AsDictionary()

	assert.Equal(t, SongView{ID: 3, File: SongFileView{FileID: 5, FileName: "Song A"}}, view)
}

func TestSongAsDictionaryNeedsFile(t *testing.T) {
	song := &Song{ID: 3, FileID: 5}
	assert.Panics(t, func() { song.AsDictionary() })
}

func TestFileAsDictionaryBuildsDownloadURL(t *testing.T) {
	file := &File{ID: 2, Name: "my song #1.mp3"}
	view := file.AsDictionary("http://localhost:8084/")

	assert.Equal(t, int64(2), view.ID)
	assert.Equal(t, "my song #1.mp3", view.Name)
	assert.Equal(t, "http://localhost:8084/uploads/my%20song%20%231.mp3", view.Path)
}

func TestFilePathFollowsBlobKey(t *testing.T) {
	file := &File{ID: 2, Name: "Renamed song", BlobKey: "track.mp3"}

	assert.Equal(t, "track.mp3", file.StorageKey())
	assert.Equal(t, "http://localhost:8084/uploads/track.mp3", file.AsDictionary("http://localhost:8084").Path)
	assert.Equal(t, "Renamed song", file.AsDictionary("http://localhost:8084").Name)
}

func TestGetAllSongsOrderedByID(t *testing.T) {
	db := setupTestDB(t)
	first := insertSong(t, db, "Song A")
	second := insertSong(t, db, "Song B")

	songs, err := GetAllSongs(db)
	require.NoError(t, err)
	require.Len(t, songs, 2)
	assert.Equal(t, first.ID, songs[0].ID)
	assert.Equal(t, second.ID, songs[1].ID)
	assert.Less(t, songs[0].ID, songs[1].ID)
	assert.Equal(t, "Song A", songs[0].File.Name)
	assert.Equal(t, "Song B", songs[1].File.Name)
}

func TestGetSongByIDNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := GetSongByID(db, 42)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFileBelongsToOneSong(t *testing.T) {
	db := setupTestDB(t)
	song := insertSong(t, db, "Song A")

	duplicate := &Song{FileID: song.FileID}
	assert.Error(t, duplicate.Insert(db))
}

func TestSongRequiresExistingFile(t *testing.T) {
	db := setupTestDB(t)

	orphan := &Song{FileID: 999}
	assert.Error(t, orphan.Insert(db))
}

func TestRelinkAndDelete(t *testing.T) {
	db := setupTestDB(t)
	song := insertSong(t, db, "Song A")
	other := &File{Name: "Song B"}
	require.NoError(t, other.Insert(db))

	require.NoError(t, song.Relink(db, other))
	reloaded, err := GetSongByID(db, song.ID)
	require.NoError(t, err)
	assert.Equal(t, "Song B", reloaded.File.Name)

	owner, err := GetSongByFileID(db, other.ID)
	require.NoError(t, err)
	assert.Equal(t, song.ID, owner.ID)

	require.NoError(t, reloaded.Delete(db))
	require.NoError(t, reloaded.File.Delete(db))
	_, err = GetSongByID(db, song.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = GetFileByID(db, other.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCountFilesByBlobKey(t *testing.T) {
	db := setupTestDB(t)
	insertSong(t, db, "dup.mp3")
	require.NoError(t, (&File{Name: "first", BlobKey: "dup.mp3"}).Insert(db))
	require.NoError(t, (&File{Name: "second", BlobKey: "dup.mp3"}).Insert(db))

	count, err := CountFilesByBlobKey(db, "dup.mp3")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	files, err := GetAllFiles(db)
	require.NoError(t, err)
	assert.Len(t, files, 3)
}
