// Package storage keeps uploaded photos on local disk.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

var allowedExtensions = map[string]string{
	".jpg":  ".jpg",
	".jpeg": ".jpg",
	".png":  ".png",
	".webp": ".webp",
	".heic": ".heic",
}

// Upload is an incoming file.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// FileStore saves uploads and returns their public URL.
type FileStore interface {
	Save(ctx context.Context, folder string, upload Upload) (string, error)
	Remove(ctx context.Context, url string) error
}

// LocalStore writes files under a root directory served statically at publicPrefix.
type LocalStore struct {
	root         string
	publicPrefix string
	maxBytes     int64
}

// NewLocalStore creates the root directory when missing.
func NewLocalStore(root, publicPrefix string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{root: root, publicPrefix: strings.TrimRight(publicPrefix, "/"), maxBytes: maxBytes}, nil
}

// Save stores the upload under folder with a random name.
func (s *LocalStore) Save(ctx context.Context, folder string, upload Upload) (string, error) {
	ext, ok := allowedExtensions[strings.ToLower(filepath.Ext(upload.Filename))]
	if !ok {
		return "", apperrors.NewFieldValidationError(apperrors.FieldError{Field: "photo", Message: "must be a jpg, png, webp or heic image"})
	}
	if s.maxBytes > 0 && upload.Size > s.maxBytes {
		return "", apperrors.NewFieldValidationError(apperrors.FieldError{Field: "photo", Message: fmt.Sprintf("must not exceed %d bytes", s.maxBytes)})
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	folder = filepath.Base(folder)
	dir := filepath.Join(s.root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}

	reader := upload.Content
	if s.maxBytes > 0 {
		reader = io.LimitReader(upload.Content, s.maxBytes+1)
	}
	written, err := io.Copy(dst, reader)
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && s.maxBytes > 0 && written > s.maxBytes {
		err = apperrors.NewFieldValidationError(apperrors.FieldError{Field: "photo", Message: fmt.Sprintf("must not exceed %d bytes", s.maxBytes)})
	}
	if err != nil {
		_ = os.Remove(filepath.Join(dir, name))
		return "", err
	}

	return path.Join(s.publicPrefix, folder, name), nil
}

// Remove deletes a file previously returned by Save. Missing files are not an error.
func (s *LocalStore) Remove(_ context.Context, url string) error {
	if !strings.HasPrefix(url, s.publicPrefix) {
		return fmt.Errorf("url %q is outside %s", url, s.publicPrefix)
	}
	rel := strings.TrimPrefix(strings.TrimPrefix(url, s.publicPrefix), "/")
	rel = filepath.Clean(filepath.FromSlash(rel))
	if rel == "." || !filepath.IsLocal(rel) {
		return fmt.Errorf("url %q is outside %s", url, s.publicPrefix)
	}
	if err := os.Remove(filepath.Join(s.root, rel)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
