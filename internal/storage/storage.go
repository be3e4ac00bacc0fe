// Package storage uploads card attachments to an object store and hands back
// stable public URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/adnan-tnd/flow-core/pkg/config"
)

// ObjectStore is an attachment backend.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	// Delete removes the object behind a URL previously returned by Put.
	Delete(ctx context.Context, url string) error
}

// New builds the backend named by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Store(ctx, cfg)
	case "gcs":
		return NewGCSStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// urlScheme maps keys to public URLs and back.
type urlScheme struct {
	base string
}

func (u urlScheme) url(key string) string {
	return u.base + "/" + key
}

func (u urlScheme) key(url string) (string, error) {
	prefix := u.base + "/"
	if !strings.HasPrefix(url, prefix) || len(url) == len(prefix) {
		return "", fmt.Errorf("url %q is not served by this store", url)
	}
	return strings.TrimPrefix(url, prefix), nil
}
