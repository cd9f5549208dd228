package model

import (
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"
)

// File is the catalog record of an audio file. Uploaded bytes live in the
// blob store under BlobKey, which renames leave alone. Files created from a
// song payload have no blob and an empty BlobKey.
type File struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	BlobKey   string    `json:"-" gorm:"size:128;not null;default:'';index"`
	CreatedAt time.Time `json:"-"`
}

func (File) TableName() string {
	return "files"
}

// FileView is the API projection of a File.
type FileView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// StorageKey is the name the download route serves the file under.
func (f *File) StorageKey() string {
	if f.BlobKey != "" {
		return f.BlobKey
	}
	return f.Name
}

// Path is the absolute download URL of the file under baseURL.
func (f *File) Path(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/uploads/" + url.PathEscape(f.StorageKey())
}

func (f *File) AsDictionary(baseURL string) FileView {
	return FileView{
		ID:   f.ID,
		Name: f.Name,
		Path: f.Path(baseURL),
	}
}

func (f *File) Insert(db *gorm.DB) error {
	return db.Create(f).Error
}

func (f *File) Update(db *gorm.DB) error {
	return db.Model(f).Update("name", f.Name).Error
}

func (f *File) Delete(db *gorm.DB) error {
	return db.Delete(f).Error
}

func GetFileByID(db *gorm.DB, id int64) (*File, error) {
	var file File
	if err := db.First(&file, id).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

func GetAllFiles(db *gorm.DB) ([]*File, error) {
	var files []*File
	err := db.Order("id asc").Find(&files).Error
	return files, err
}

func CountFilesByBlobKey(db *gorm.DB, key string) (int64, error) {
	var count int64
	err := db.Model(&File{}).Where("blob_key = ?", key).Count(&count).Error
	return count, err
}
