package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/driveease/service-rental/internal/application"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	key := objectKey("/cars/image/", "Front View.JPEG", "image/png")
	assert.True(t, strings.HasPrefix(key, "cars/image/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	key = objectKey("cars/logo", "logo.SVG", "image/svg+xml")
	assert.True(t, strings.HasSuffix(key, ".svg"))
}

func TestKeyFromURL(t *testing.T) {
	tests := []struct {
		base, ref string
		want      string
		ok        bool
	}{
		{"/uploads", "/uploads/cars/image/a.png", "cars/image/a.png", true},
		{"/uploads/", "/uploads/cars/image/a.png", "cars/image/a.png", true},
		{"https://bucket.s3.ap-south-1.amazonaws.com", "https://bucket.s3.ap-south-1.amazonaws.com/cars/a.png", "cars/a.png", true},
		{"/uploads", "/static/a.png", "", false},
		{"/uploads", "/uploads/", "", false},
		{"/uploads", "/uploads/../etc/passwd", "", false},
	}
	for _, tt := range tests {
		key, ok := keyFromURL(tt.base, tt.ref)
		assert.Equal(t, tt.ok, ok, tt.ref)
		assert.Equal(t, tt.want, key, tt.ref)
	}
}

func TestLocalStore_PutAndRemove(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "/uploads")
	require.NoError(t, err)

	ref, err := store.Put(ctx, "cars/image", application.ImageUpload{
		Filename:    "axio.png",
		ContentType: "image/png",
		Size:        3,
		Reader:      strings.NewReader("png"),
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ref, "/uploads/cars/image/"))

	path := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(ref, "/uploads/")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	require.NoError(t, store.Remove(ctx, ref))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Remove(ctx, ref))
	assert.NoError(t, store.Remove(ctx, "https://elsewhere.example.com/a.png"))
}
