package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"gatedfm/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioBackend fetches objects from a MinIO (or any S3-compatible) bucket.
type MinioBackend struct {
	client *minio.Client
	bucket string
}

// NewMinioBackend creates the client and checks that the bucket exists.
func NewMinioBackend(ctx context.Context, endpoint, accessKey, secretKey, region, bucket string, useSSL bool) (*MinioBackend, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("MINIO_ENDPOINT is required for the minio provider")
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", bucket)
	}

	logger.Info("MinIO backend ready",
		logger.String("endpoint", endpoint),
		logger.String("bucket", bucket))
	return &MinioBackend{client: client, bucket: bucket}, nil
}

func (m *MinioBackend) Name() string { return "minio" }

func (m *MinioBackend) Fetch(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, m.translate(objectKey, err)
	}
	// GetObject is lazy; Stat surfaces missing keys before any bytes are copied.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, m.translate(objectKey, err)
	}
	return obj, nil
}

func (m *MinioBackend) Stat(ctx context.Context, objectKey string) (*ObjectInfo, error) {
	info, err := m.client.StatObject(ctx, m.bucket, objectKey, minio.StatObjectOptions{})
	if err != nil {
		return nil, m.translate(objectKey, err)
	}
	return &ObjectInfo{
		Key:          info.Key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}, nil
}

func (m *MinioBackend) translate(objectKey string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("minio %s/%s: %w", m.bucket, objectKey, ErrObjectNotFound)
	}
	return fmt.Errorf("minio %s/%s: %w", m.bucket, objectKey, err)
}
