package storage

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallGIF is a 1x1 transparent GIF.
var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00,
	0x01, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x44,
	0x01, 0x00, 0x3b,
}

func newStorage(maxSize int64) (*MediaStorage, afero.Fs) {
	fs := afero.NewMemMapFs()
	return NewMediaStorage(fs, "uploads", "/media", maxSize), fs
}

func TestSaveImage(t *testing.T) {
	s, fs := newStorage(1 << 20)

	name, err := s.SaveImage(context.Background(), "posts", bytes.NewReader(smallGIF))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "posts/"))
	assert.True(t, strings.HasSuffix(name, ".gif"))

	stored, err := afero.ReadFile(fs, "uploads/"+name)
	require.NoError(t, err)
	assert.Equal(t, smallGIF, stored)

	assert.Equal(t, "/media/"+name, s.URL(name))
	assert.Equal(t, "", s.URL(""))
}

func TestSaveImageRejectsNonImages(t *testing.T) {
	s, _ := newStorage(1 << 20)
	_, err := s.SaveImage(context.Background(), "posts", strings.NewReader("just some text"))
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestSaveImageRejectsLargeFiles(t *testing.T) {
	s, _ := newStorage(10)
	_, err := s.SaveImage(context.Background(), "posts", bytes.NewReader(smallGIF))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestOpenStaysInsideRoot(t *testing.T) {
	s, fs := newStorage(1 << 20)
	require.NoError(t, afero.WriteFile(fs, "secret.txt", []byte("x"), 0o644))

	_, err := s.Open("../secret.txt")
	assert.Error(t, err)
}
