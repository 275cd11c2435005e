package blobsvc

import (
	"context"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/services/metrics"
)

// s3Store keeps blobs in an S3 compatible bucket.
type s3Store struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

var _ core.BlobStore = (*s3Store)(nil)

func NewS3Store(ctx context.Context, conf *core.Config) (core.BlobStore, error) {
	client, err := minio.New(conf.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(conf.Storage.AccessKey, conf.Storage.SecretKey, ""),
		Secure: conf.Storage.UseSSL,
		Region: conf.Storage.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating s3 client")
	}

	exists, err := client.BucketExists(ctx, conf.Storage.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, "checking bucket")
	}
	if !exists {
		err = client.MakeBucket(ctx, conf.Storage.Bucket, minio.MakeBucketOptions{Region: conf.Storage.Region})
		if err != nil {
			return nil, errors.Wrap(err, "creating bucket")
		}
	}

	baseURL := strings.TrimSuffix(conf.Storage.PublicBaseURL, "/")
	if baseURL == "" {
		scheme := "http"
		if conf.Storage.UseSSL {
			scheme = "https"
		}
		baseURL = scheme + "://" + conf.Storage.Endpoint + "/" + conf.Storage.Bucket
	}
	return &s3Store{client: client, bucket: conf.Storage.Bucket, baseURL: baseURL}, nil
}

func (s *s3Store) Put(ctx context.Context, obj core.BlobObject) (url string, err error) {
	defer func() { metrics.BlobOperations.WithLabelValues("s3", "put", metrics.Outcome(err)).Inc() }()

	_, err = s.client.PutObject(ctx, s.bucket, obj.Key, obj.Body, obj.Size, minio.PutObjectOptions{
		ContentType: obj.ContentType,
	})
	if err != nil {
		return "", errors.Wrap(err, "putting object")
	}
	return s.baseURL + "/" + obj.Key, nil
}

func (s *s3Store) Delete(ctx context.Context, key string) (err error) {
	defer func() { metrics.BlobOperations.WithLabelValues("s3", "delete", metrics.Outcome(err)).Inc() }()

	if err = s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, "removing object")
	}
	return nil
}
