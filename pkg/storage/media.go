// Package storage keeps uploaded media files under a single root.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var (
	ErrNotImage = errors.New("uploaded file is not an image")
	ErrTooLarge = errors.New("uploaded file is too large")
)

type MediaStorage struct {
	fs        afero.Fs
	root      string
	urlPrefix string
	maxSize   int64
}

func NewMediaStorage(fs afero.Fs, root, urlPrefix string, maxSize int64) *MediaStorage {
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &MediaStorage{fs: fs, root: root, urlPrefix: urlPrefix, maxSize: maxSize}
}

// NewOsMediaStorage stores files on the local disk.
func NewOsMediaStorage(root, urlPrefix string, maxSize int64) *MediaStorage {
	return NewMediaStorage(afero.NewOsFs(), root, urlPrefix, maxSize)
}

// SaveImage sniffs r, refuses anything that is not an image and writes it
// as dir/<uuid><ext>. The returned name is relative to the media root.
func (s *MediaStorage) SaveImage(ctx context.Context, dir string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return "", ErrTooLarge
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", ErrNotImage
	}

	name := path.Join(dir, uuid.NewString()+mtype.Extension())
	full := path.Join(s.root, name)

	if err := s.fs.MkdirAll(path.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := afero.WriteReader(s.fs, full, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	return name, nil
}

func (s *MediaStorage) Open(name string) (afero.File, error) {
	return s.fs.Open(path.Join(s.root, path.Clean("/"+name)))
}

func (s *MediaStorage) Remove(name string) error {
	return s.fs.Remove(path.Join(s.root, path.Clean("/"+name)))
}

// URL is the public address of a stored file; empty names stay empty.
func (s *MediaStorage) URL(name string) string {
	if name == "" {
		return ""
	}
	return s.urlPrefix + strings.TrimPrefix(name, "/")
}

// HTTPFs exposes the media root for static serving.
func (s *MediaStorage) HTTPFs() *afero.HttpFs {
	return afero.NewHttpFs(afero.NewBasePathFs(s.fs, s.root))
}
