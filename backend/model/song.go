package model

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Song is a catalog track. It owns the reference to its File; the unique
// index keeps a File attached to at most one Song.
type Song struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	FileID    int64     `json:"file_id" gorm:"not null;uniqueIndex"`
	File      *File     `json:"file,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`
	CreatedAt time.Time `json:"-"`
}

func (Song) TableName() string {
	return "songs"
}

type SongFileView struct {
	FileID   int64  `json:"file_id"`
	FileName string `json:"file_name"`
}

// SongView is the API projection of a Song.
type SongView struct {
	ID   int64        `json:"id"`
	File SongFileView `json:"file"`
}

// AsDictionary requires File to be loaded.
func (s *Song) AsDictionary() SongView {
	return SongView{
		ID: s.ID,
		File: SongFileView{
			FileID:   s.File.ID,
			FileName: s.File.Name,
		},
	}
}

func (s *Song) Insert(db *gorm.DB) error {
	return db.Omit(clause.Associations).Create(s).Error
}

// Relink points the song at file.
func (s *Song) Relink(db *gorm.DB, file *File) error {
	if err := db.Model(s).Update("file_id", file.ID).Error; err != nil {
		return err
	}
	s.FileID = file.ID
	s.File = file
	return nil
}

func (s *Song) Delete(db *gorm.DB) error {
	return db.Delete(s).Error
}

func GetSongByID(db *gorm.DB, id int64) (*Song, error) {
	var song Song
	if err := db.Preload("File").First(&song, id).Error; err != nil {
		return nil, err
	}
	return &song, nil
}

func GetSongByFileID(db *gorm.DB, fileID int64) (*Song, error) {
	var song Song
	if err := db.Where("file_id = ?", fileID).First(&song).Error; err != nil {
		return nil, err
	}
	return &song, nil
}

// GetAllSongs lists songs ascending by id with their files loaded.
func GetAllSongs(db *gorm.DB) ([]*Song, error) {
	var songs []*Song
	err := db.Preload("File").Order("id asc").Find(&songs).Error
	return songs, err
}
