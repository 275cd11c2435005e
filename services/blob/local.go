package blobsvc

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/services/metrics"
)

// localStore keeps blobs on the local filesystem; meant for DEV & tests.
type localStore struct {
	dir     string
	baseURL string
}

var _ core.BlobStore = (*localStore)(nil)

func NewLocalStore(dir, baseURL string) (core.BlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating blob directory")
	}
	return &localStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (s *localStore) path(key string) (string, error) {
	p := filepath.Join(s.dir, filepath.FromSlash(key))
	if !strings.HasPrefix(p, filepath.Clean(s.dir)+string(os.PathSeparator)) {
		return "", errors.Errorf("invalid blob key %q", key)
	}
	return p, nil
}

func (s *localStore) Put(ctx context.Context, obj core.BlobObject) (url string, err error) {
	defer func() { metrics.BlobOperations.WithLabelValues("local", "put", metrics.Outcome(err)).Inc() }()

	p, err := s.path(obj.Key)
	if err != nil {
		return "", err
	}
	if err = os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", errors.Wrap(err, "creating blob directory")
	}

	f, err := os.Create(p)
	if err != nil {
		return "", errors.Wrap(err, "creating blob file")
	}
	if _, err = io.Copy(f, obj.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return "", errors.Wrap(err, "writing blob file")
	}
	if err = f.Close(); err != nil {
		return "", errors.Wrap(err, "closing blob file")
	}
	return s.baseURL + "/" + obj.Key, ctx.Err()
}

func (s *localStore) Delete(ctx context.Context, key string) (err error) {
	defer func() { metrics.BlobOperations.WithLabelValues("local", "delete", metrics.Outcome(err)).Inc() }()

	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err = os.Remove(p); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "deleting blob file")
	}
	return nil
}
