package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gatedfm/config"
)

// ErrObjectNotFound is returned by backends when the key does not exist.
// Fetching it again will not help, so callers should not retry.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo is the provider-agnostic description of a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Backend is the object storage collaborator. Credentials live inside the
// concrete implementation; the delivery engine only sees keys and bytes.
type Backend interface {
	Name() string
	// Fetch opens the whole object for reading. The caller closes the reader.
	Fetch(ctx context.Context, objectKey string) (io.ReadCloser, error)
	Stat(ctx context.Context, objectKey string) (*ObjectInfo, error)
}

// Available reports whether a backend was configured at startup.
func Available(b Backend) bool {
	return b != nil
}

// New builds the backend selected by cfg.StorageProvider. It returns (nil, nil)
// for "none" so the engine can serve local assets only.
func New(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.StorageProvider {
	case "", "none":
		return nil, nil
	case "minio":
		b, err := NewMinioBackend(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioRegion, cfg.StorageBucket, cfg.MinioUseSSL)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "s3":
		b, err := NewS3Backend(cfg.S3Endpoint, cfg.S3Region, cfg.S3KeyID, cfg.S3AppKey, cfg.StorageBucket)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "local":
		b, err := NewLocalBackend(cfg.LocalStorageRoot, cfg.StorageBucket)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.StorageProvider)
	}
}
