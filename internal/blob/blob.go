// Package blob stores uploaded abstract documents. Records keep only the
// object key.
package blob

import (
	"context"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
)

type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Store is implemented by memory.Store and s3.Store. Get returns
// sentinel.ErrNotFound for an unknown key; Delete of an unknown key succeeds.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) (Object, error)
	Delete(ctx context.Context, key string) error
}

// Presigner is implemented by stores that can hand out time-limited direct
// download URLs.
type Presigner interface {
	PresignURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// AbstractKey is the object key of an abstract document stored under dir.
func AbstractKey(dir, filename string) string {
	return path.Join("abstracts", dir, path.Base("/"+filename))
}

// NewAbstractKey places filename under a fresh random directory, so the key
// can be chosen before the abstract has an id.
func NewAbstractKey(filename string) string {
	return AbstractKey(uuid.NewString(), filename)
}
