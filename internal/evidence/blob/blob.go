// Package blob stores evidence file bytes under generated keys.
package blob

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Store persists and retrieves blobs. Open and Delete return
// sentinel.ErrNotFound (wrapped) for unknown keys.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// NewKey returns a collision-resistant object key carrying ext (".png").
// The uploader's file name never reaches the key.
func NewKey(ext string) string {
	return uuid.NewString() + strings.ToLower(ext)
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
