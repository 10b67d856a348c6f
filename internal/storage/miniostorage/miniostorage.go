// Package miniostorage provides structure to work with minio-storage
package miniostorage

import (
	"context"
	"errors"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/zlog"
)

const defaultBucket = "damage-results"

type MinioResultStorage struct {
	bucket string
	client *minio.Client
}

func NewMinioClient(ctx context.Context, cfg *config.Config) (*MinioResultStorage, error) {
	bucket := cfg.GetString("BUCKET_NAME")
	if bucket == "" {
		bucket = defaultBucket
		zlog.Logger.Info().Str("bucket", bucket).Msg("Bucket name is empty, using default")
	}

	user := cfg.GetString("MINIO_USER")
	pass := cfg.GetString("MINIO_PASS")
	endpoint := cfg.GetString("MINIO_ENDPOINT")

	// подключаемся к минио - создаем клиента
	strg, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(user, pass, ""),
		Secure: cfg.GetString("MINIO_SECURE") == "true",
	})
	if err != nil {
		return nil, err
	}

	// создаем бакет если его нет
	if err := ensureBucket(ctx, strg, bucket); err != nil {
		return nil, err
	}

	return &MinioResultStorage{bucket: bucket, client: strg}, nil
}

func (s *MinioResultStorage) Bucket() string {
	return s.bucket
}

func (s *MinioResultStorage) Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error {
	if r == nil {
		return errors.New("nil reader passed to storage.Put")
	}

	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return err
	}

	return nil
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	return client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
}
