// Package storage keeps uploaded recipe images in an object store:
// MinIO/S3, Google Cloud Storage or process memory.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/recipebox/apiserver/config"
)

// ErrObjectNotFound is returned by Get when the key does not exist.
var ErrObjectNotFound = errors.New("storage: object not found")

// Object is an open object body with its metadata.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (Object, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Storage wraps an ObjectStorage backend with key validation and
// not-found handling shared by all backends.
type Storage struct {
	backend ObjectStorage
}

// NewStorage constructs a Storage wrapper for the provided backend.
func NewStorage(backend ObjectStorage) *Storage {
	return &Storage{backend: backend}
}

// Open builds the backend selected by cfg and makes sure its bucket
// exists. It returns nil when uploads are disabled.
func Open(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	var backend ObjectStorage
	switch cfg.Backend {
	case "", config.StorageBackendNone:
		return nil, nil
	case config.StorageBackendMemory:
		backend = NewMemory("recipe-images")
	case config.StorageBackendMinio:
		client, err := NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		backend = client
	case config.StorageBackendGCS:
		client, err := NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		backend = client
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	s := NewStorage(backend)
	if err := s.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", backend.Bucket(), err)
	}
	return s, nil
}

// EnsureBucket ensures the configured bucket exists.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Put uploads an object to the configured bucket.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.backend.Put(ctx, key, r, size, contentType); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Get opens an object. The caller closes Object.Body.
func (s *Storage) Get(ctx context.Context, key string) (Object, error) {
	key, err := cleanKey(key)
	if err != nil {
		return Object{}, err
	}
	return s.backend.Get(ctx, key)
}

// Delete removes an object. Deleting a missing key is not an error.
func (s *Storage) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.backend.Delete(ctx, key); err != nil && !errors.Is(err, ErrObjectNotFound) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Bucket returns the configured bucket name.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}

func cleanKey(key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	return key, nil
}
