// Package storage abstracts the object store holding uploaded blobs
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrObjectExists is returned by Put when the key is already taken.
	ErrObjectExists = errors.New("object already exists")

	// ErrObjectMissing is returned by Get when no blob lives under the
	// key.
	ErrObjectMissing = errors.New("object not found")
)

// ObjectStore is a key-addressed blob store. Put has create-if-absent
// semantics: writing to a taken key fails instead of overwriting.
// Delete is idempotent: removing an absent key is not an error, same
// as S3's DeleteObject.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error

	// SignedURL mints a time-bounded read-only URL for the key. The
	// store enforces the expiry embedded in the token
	SignedURL(ctx context.Context, key string, expires time.Duration) (string, error)

	// URL returns the canonical, non-expiring location of the key
	URL(key string) string

	// Container and Account identify the namespace holding the blobs
	Container() string
	Account() string
}
