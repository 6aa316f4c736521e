// Package storage keeps uploaded car images on local disk or in S3.
package storage

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// objectKey builds a collision-free key under folder, keeping a known extension.
func objectKey(folder, filename, contentType string) string {
	ext, ok := extensions[contentType]
	if !ok {
		ext = strings.ToLower(filepath.Ext(filename))
	}
	return path.Join(strings.Trim(folder, "/"), uuid.NewString()+ext)
}

// publicURL joins a base URL and a key.
func publicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}

// keyFromURL strips base from ref. The second result is false when ref does not
// belong to this store.
func keyFromURL(base, ref string) (string, bool) {
	prefix := strings.TrimRight(base, "/") + "/"
	if !strings.HasPrefix(ref, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(ref, prefix)
	if key == "" || strings.Contains(key, "..") {
		return "", false
	}
	return key, true
}
