package storage

import (
	"bytes"
	"context"
	"testing"

	"github.com/adnan-tnd/flow-core/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestReadImage(t *testing.T) {
	t.Run("accepts png", func(t *testing.T) {
		img, err := ReadImage(bytes.NewReader(pngHeader), 1024)
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.ContentType)
		assert.Equal(t, ".png", img.Ext)
		assert.Equal(t, int64(len(pngHeader)), img.Size())
	})

	t.Run("rejects text", func(t *testing.T) {
		_, err := ReadImage(bytes.NewReader([]byte("hello, plain text")), 1024)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "only image files")
	})

	t.Run("rejects oversized", func(t *testing.T) {
		_, err := ReadImage(bytes.NewReader(pngHeader), 4)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds")
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := ReadImage(bytes.NewReader(nil), 4)
		assert.Error(t, err)
	})
}

func TestURLScheme(t *testing.T) {
	u := urlScheme{base: "https://cdn.example.com/att"}

	url := u.url("cards/1/a.png")
	assert.Equal(t, "https://cdn.example.com/att/cards/1/a.png", url)

	key, err := u.key(url)
	require.NoError(t, err)
	assert.Equal(t, "cards/1/a.png", key)

	_, err = u.key("https://elsewhere.example.com/cards/1/a.png")
	assert.Error(t, err)
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Driver: "ftp"})
	assert.Error(t, err)
}
