// Package storage holds the bytes of uploaded files, keyed by their
// sanitized file name.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"
)

var (
	ErrBlobNotFound = errors.New("blob not found")
	ErrBlobExists   = errors.New("blob already exists")
)

// Blob is an open stored file. Callers close Body.
type Blob struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
	ModTime     time.Time
}

type BlobStore interface {
	// Save fails with ErrBlobExists instead of replacing a stored blob.
	Save(ctx context.Context, name string, r io.Reader) error
	Open(ctx context.Context, name string) (*Blob, error)
	Exists(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, name string) error
}

// Options configures New.
type Options struct {
	Backend     string
	UploadPath  string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

func New(ctx context.Context, opts Options) (BlobStore, error) {
	switch opts.Backend {
	case "", "local":
		return NewLocalStore(opts.UploadPath)
	case "s3":
		return NewS3Store(ctx, opts)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", opts.Backend)
	}
}

var audioTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".opus": "audio/opus",
	".webm": "audio/webm",
}

// contentTypeFor prefers the audio table since mime's system tables vary
// between hosts.
func contentTypeFor(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ct, ok := audioTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
