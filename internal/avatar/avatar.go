// Package avatar stores profile pictures.
package avatar

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ldi/daybook/internal/apperr"
)

// MaxSize is the largest accepted upload, 5 MiB.
const MaxSize = 5 << 20

// Store persists an image and returns an opaque reference to it.
type Store interface {
	Put(ctx context.Context, contentType string, data []byte) (string, error)
}

// DirStore writes avatars as files under a directory. References are file
// names relative to that directory.
type DirStore struct {
	dir string
}

func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

func (s *DirStore) Dir() string { return s.dir }

// Validate checks an upload without storing it.
func Validate(contentType string, size int) error {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return apperr.Validation("avatar", "please upload an image file")
	}
	if size == 0 {
		return apperr.Validation("avatar", "file is empty")
	}
	if size > MaxSize {
		return apperr.Validation("avatar", "file size must be less than 5MB")
	}
	return nil
}

func (s *DirStore) Put(ctx context.Context, contentType string, data []byte) (string, error) {
	if err := Validate(contentType, len(data)); err != nil {
		return "", err
	}

	ext := ".img"
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
		ext = exts[0]
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", apperr.External("avatar", fmt.Errorf("failed to create avatar directory: %w", err))
	}
	name := uuid.New().String() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0644); err != nil {
		return "", apperr.External("avatar", fmt.Errorf("failed to write avatar: %w", err))
	}
	return name, nil
}
