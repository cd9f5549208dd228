// Package service holds the catalog operations behind the API handlers.
// Every write runs inside a transaction on the request's session.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tuneful/backend/cache"
	"tuneful/backend/common"
	apierrors "tuneful/backend/common/errors"
	"tuneful/backend/model"
	"tuneful/backend/storage"
	"tuneful/backend/validation"

	"gorm.io/gorm"
)

type Catalog struct {
	blobs storage.BlobStore
	songs cache.SongCache
}

func NewCatalog(blobs storage.BlobStore, songs cache.SongCache) *Catalog {
	return &Catalog{blobs: blobs, songs: songs}
}

// ListSongs returns every song ascending by id.
func (s *Catalog) ListSongs(db *gorm.DB) ([]model.SongView, error) {
	songs, err := model.GetAllSongs(db)
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	views := make([]model.SongView, 0, len(songs))
	for _, song := range songs {
		views = append(views, song.AsDictionary())
	}
	return views, nil
}

// ListSongFiles returns the file of every song, in song order.
func (s *Catalog) ListSongFiles(db *gorm.DB) ([]*model.File, error) {
	songs, err := model.GetAllSongs(db)
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	files := make([]*model.File, 0, len(songs))
	for _, song := range songs {
		files = append(files, song.File)
	}
	return files, nil
}

// GetSong returns the encoded projection of song id, served from the cache
// when possible. The cache generation is read before the row so a write
// that commits in between keeps this fill out of the cache.
func (s *Catalog) GetSong(ctx context.Context, db *gorm.DB, id int64) ([]byte, error) {
	if data, err := s.songs.Get(ctx, id); err == nil {
		return data, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		common.SysErrorContext(ctx, fmt.Sprintf("song cache get %d: %s", id, err.Error()))
	}
	gen, genErr := s.songs.Generation(ctx, id)
	if genErr != nil {
		common.SysErrorContext(ctx, fmt.Sprintf("song cache generation %d: %s", id, genErr.Error()))
	}

	song, err := findSong(db, id)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(song.AsDictionary())
	if err != nil {
		return nil, fmt.Errorf("encode song %d: %w", id, err)
	}
	if genErr != nil {
		return data, nil
	}
	if err := s.songs.SetIfGeneration(ctx, id, gen, data); err != nil {
		common.SysErrorContext(ctx, fmt.Sprintf("song cache set %d: %s", id, err.Error()))
	}
	return data, nil
}

// CreateSong links the song to the file named by payload.File.ID, or
// creates that file from payload.File.Name when it does not exist yet.
func (s *Catalog) CreateSong(db *gorm.DB, payload *validation.SongPayload) (*model.Song, error) {
	var created *model.Song
	err := db.Transaction(func(tx *gorm.DB) error {
		file, err := model.GetFileByID(tx, *payload.File.ID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			name, err := payload.File.RequireName()
			if err != nil {
				return err
			}
			file = &model.File{Name: name}
			if err := file.Insert(tx); err != nil {
				return fmt.Errorf("insert file: %w", err)
			}
		case err != nil:
			return fmt.Errorf("load file %d: %w", *payload.File.ID, err)
		default:
			if err := ensureUnlinked(tx, file.ID, 0); err != nil {
				return err
			}
			if err := renameFile(tx, file, payload.File); err != nil {
				return err
			}
		}

		song := &model.Song{FileID: file.ID, File: file}
		if err := song.Insert(tx); err != nil {
			return fmt.Errorf("insert song: %w", err)
		}
		created = song
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateSong points song id at payload.File.ID and applies the file name.
// The song's own id never changes.
func (s *Catalog) UpdateSong(ctx context.Context, db *gorm.DB, id int64, payload *validation.SongPayload) (*model.Song, error) {
	var updated *model.Song
	err := db.Transaction(func(tx *gorm.DB) error {
		song, err := findSong(tx, id)
		if err != nil {
			return err
		}
		if payload.ID != nil && *payload.ID != id {
			return apierrors.SchemaValidation("'id' must match the song id %d", id)
		}

		fileID := *payload.File.ID
		if fileID != song.FileID {
			file, err := model.GetFileByID(tx, fileID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierrors.SchemaValidation("Could not find file with id %d", fileID)
			}
			if err != nil {
				return fmt.Errorf("load file %d: %w", fileID, err)
			}
			if err := ensureUnlinked(tx, fileID, song.ID); err != nil {
				return err
			}
			if err := song.Relink(tx, file); err != nil {
				return fmt.Errorf("relink song %d: %w", id, err)
			}
		}
		if err := renameFile(tx, song.File, payload.File); err != nil {
			return err
		}
		updated = song
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return updated, nil
}

// DeleteSong removes the song and its file row together. The uploaded blob
// goes afterwards unless another file row still points at it.
func (s *Catalog) DeleteSong(ctx context.Context, db *gorm.DB, id int64) error {
	var blobKey string
	err := db.Transaction(func(tx *gorm.DB) error {
		song, err := findSong(tx, id)
		if err != nil {
			return err
		}
		file := song.File
		if err := song.Delete(tx); err != nil {
			return fmt.Errorf("delete song %d: %w", id, err)
		}
		if err := file.Delete(tx); err != nil {
			return fmt.Errorf("delete file %d: %w", file.ID, err)
		}
		if file.BlobKey == "" {
			return nil
		}
		remaining, err := model.CountFilesByBlobKey(tx, file.BlobKey)
		if err != nil {
			return fmt.Errorf("count files for blob %s: %w", file.BlobKey, err)
		}
		if remaining == 0 {
			blobKey = file.BlobKey
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, id)

	if blobKey == "" {
		return nil
	}
	if err := s.blobs.Delete(ctx, blobKey); err != nil && !errors.Is(err, storage.ErrBlobNotFound) {
		common.SysErrorContext(ctx, fmt.Sprintf("delete blob %s for song %d: %s", blobKey, id, err.Error()))
	}
	return nil
}

func (s *Catalog) invalidate(ctx context.Context, id int64) {
	if err := s.songs.Invalidate(ctx, id); err != nil {
		common.SysErrorContext(ctx, fmt.Sprintf("song cache invalidate %d: %s", id, err.Error()))
	}
}

func findSong(db *gorm.DB, id int64) (*model.Song, error) {
	song, err := model.GetSongByID(db, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierrors.SongNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("load song %d: %w", id, err)
	}
	return song, nil
}

// ensureUnlinked fails when fileID already belongs to a song other than
// exceptSongID.
func ensureUnlinked(db *gorm.DB, fileID int64, exceptSongID int64) error {
	owner, err := model.GetSongByFileID(db, fileID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load song for file %d: %w", fileID, err)
	}
	if owner.ID == exceptSongID {
		return nil
	}
	return apierrors.Conflict("File with id %d already belongs to song %d", fileID, owner.ID)
}

func renameFile(db *gorm.DB, file *model.File, ref *validation.FileRef) error {
	if ref.Name == nil {
		return nil
	}
	name, err := ref.RequireName()
	if err != nil {
		return err
	}
	if name == file.Name {
		return nil
	}
	file.Name = name
	if err := file.Update(db); err != nil {
		return fmt.Errorf("rename file %d: %w", file.ID, err)
	}
	return nil
}
