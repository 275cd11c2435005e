package core

import (
	"context"
	"io"
)

// BlobObject describes a file to be written to a BlobStore.
type BlobObject struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
}

// BlobStore stores uploaded files and returns the public URL they can be fetched from.
type BlobStore interface {
	Put(ctx context.Context, obj BlobObject) (url string, err error)
	Delete(ctx context.Context, key string) error
}
