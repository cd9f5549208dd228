package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"tuneful/backend/common"
	apierrors "tuneful/backend/common/errors"
	"tuneful/backend/model"
	"tuneful/backend/storage"

	"gorm.io/gorm"
)

// maxNameAttempts bounds the search for a free blob name.
const maxNameAttempts = 100

// UploadFile stores r under a sanitized, unused version of filename and
// records it. When another upload claims the name first, r is rewound and
// the next free name is tried. The blob is removed again if the record
// cannot be written.
func (s *Catalog) UploadFile(ctx context.Context, db *gorm.DB, filename string, r io.ReadSeeker) (*model.File, error) {
	safeName := common.TruncateFilename(common.SecureFilename(filename), common.MaxFileNameLength)
	if safeName == "" {
		return nil, apierrors.SchemaValidation("File name %q is not usable", filename)
	}

	name, err := s.saveUnderFreeName(ctx, safeName, r)
	if err != nil {
		return nil, err
	}

	file := &model.File{Name: name, BlobKey: name}
	err = db.Transaction(func(tx *gorm.DB) error {
		return file.Insert(tx)
	})
	if err != nil {
		if delErr := s.blobs.Delete(ctx, name); delErr != nil {
			common.SysErrorContext(ctx, fmt.Sprintf("remove blob %s after failed insert: %s", name, delErr.Error()))
		}
		return nil, fmt.Errorf("insert file %s: %w", name, err)
	}
	return file, nil
}

func (s *Catalog) saveUnderFreeName(ctx context.Context, safeName string, r io.ReadSeeker) (string, error) {
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name, err := s.freeName(ctx, safeName)
		if err != nil {
			return "", err
		}
		err = s.blobs.Save(ctx, name, r)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, storage.ErrBlobExists) {
			return "", fmt.Errorf("save blob %s: %w", name, err)
		}
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return "", fmt.Errorf("rewind upload %s: %w", safeName, err)
		}
	}
	return "", apierrors.Conflict("Could not find a free name for %s", safeName)
}

// freeName appends -1, -2, ... before the extension until the blob store
// has no entry with that name.
func (s *Catalog) freeName(ctx context.Context, name string) (string, error) {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for i := 1; i <= maxNameAttempts; i++ {
		exists, err := s.blobs.Exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check blob %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
		suffix := fmt.Sprintf("-%d", i)
		base := stem
		if room := common.MaxFileNameLength - len(ext) - len(suffix); room > 0 && len(base) > room {
			base = base[:room]
		}
		candidate = common.TruncateFilename(base+suffix+ext, common.MaxFileNameLength)
	}
	return "", apierrors.Conflict("Could not find a free name for %s", name)
}

// OpenUpload opens the stored bytes of the blob key name.
func (s *Catalog) OpenUpload(ctx context.Context, name string) (*storage.Blob, error) {
	blob, err := s.blobs.Open(ctx, name)
	if errors.Is(err, storage.ErrBlobNotFound) {
		return nil, apierrors.FileNotFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("open blob %s: %w", name, err)
	}
	return blob, nil
}

func (s *Catalog) ListFiles(db *gorm.DB) ([]*model.File, error) {
	files, err := model.GetAllFiles(db)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}
