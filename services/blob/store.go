// Package blobsvc implements core.BlobStore on the local filesystem and on S3 compatible storages.
package blobsvc

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/napthedev/edura/core"
)

// NewStore returns the BlobStore configured by conf.Storage.Backend.
func NewStore(ctx context.Context, conf *core.Config, logger core.Logger) (core.BlobStore, error) {
	switch conf.Storage.Backend {
	case "", "local":
		dir := conf.Storage.LocalDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(conf.WorkDir, dir)
		}
		return NewLocalStore(dir, conf.Storage.PublicBaseURL)
	case "s3":
		store, err := NewS3Store(ctx, conf)
		if err != nil {
			return nil, err
		}
		return NewBreakerStore(store, DefaultBreakerSettings("blob-s3"), logger), nil
	default:
		return nil, errors.Errorf("unknown storage backend %q", conf.Storage.Backend)
	}
}
