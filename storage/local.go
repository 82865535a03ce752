package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// LocalBackend simulates a bucket with a directory, for development and tests.
type LocalBackend struct {
	root string
}

func NewLocalBackend(root, bucket string) (*LocalBackend, error) {
	dir := filepath.Join(root, bucket)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create local storage root %s: %w", dir, err)
	}
	return &LocalBackend{root: dir}, nil
}

func (l *LocalBackend) Name() string { return "local" }

// path maps an object key to a file below root, rejecting keys that escape it.
func (l *LocalBackend) path(objectKey string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(objectKey))
	if clean == string(filepath.Separator) || strings.Contains(objectKey, "\x00") {
		return "", fmt.Errorf("invalid object key %q", objectKey)
	}
	return filepath.Join(l.root, clean), nil
}

func (l *LocalBackend) Fetch(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := l.path(objectKey)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("local %s: %w", objectKey, ErrObjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("local %s: %w", objectKey, err)
	}
	return f, nil
}

func (l *LocalBackend) Stat(ctx context.Context, objectKey string) (*ObjectInfo, error) {
	p, err := l.path(objectKey)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(p)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("local %s: %w", objectKey, ErrObjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("local %s: %w", objectKey, err)
	}
	return &ObjectInfo{
		Key:          objectKey,
		Size:         fi.Size(),
		ContentType:  mime.TypeByExtension(filepath.Ext(p)),
		LastModified: fi.ModTime(),
	}, nil
}
