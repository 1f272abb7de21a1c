// Package storage provides the object storage backends used to mirror and
// serve class binaries.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/classkit/pkg/config"
	apperrors "github.com/classkit/pkg/errors"
)

// Storage defines the interface for object storage operations.
type Storage interface {
	// Put writes data from reader to the specified key.
	Put(ctx context.Context, key string, reader io.Reader) error

	// Get opens the object at key. A missing object yields an error matching
	// apperrors.ErrNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete deletes the object at the specified key. Deleting a missing
	// object is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists at the specified key.
	Exists(ctx context.Context, key string) (bool, error)

	// List returns every key beginning with prefix, in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)

	// URL returns a locator for the specified key.
	URL(key string) string
}

// StorageType represents the type of storage backend.
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeCOS   StorageType = "cos"
)

// NewStorage creates a new Storage instance based on the configuration.
func NewStorage(cfg *config.StorageConfig) (Storage, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	switch StorageType(cfg.Type) {
	case StorageTypeCOS:
		return NewCOSStorage(&COSConfig{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
			Domain:    cfg.Domain,
			Scheme:    cfg.Scheme,
		})
	default:
		return NewLocalStorage(cfg.LocalPath)
	}
}

// ValidateConfig validates the storage configuration.
func ValidateConfig(cfg *config.StorageConfig) error {
	if cfg == nil {
		return apperrors.New(apperrors.CodeConfigError, "storage config is nil")
	}

	storageType := StorageType(cfg.Type)
	if storageType == "" {
		storageType = StorageTypeLocal
	}

	switch storageType {
	case StorageTypeCOS:
		if cfg.Bucket == "" {
			return apperrors.New(apperrors.CodeConfigError, "COS bucket is required")
		}
		if cfg.Region == "" {
			return apperrors.New(apperrors.CodeConfigError, "COS region is required")
		}
		if cfg.SecretID == "" || cfg.SecretKey == "" {
			return apperrors.New(apperrors.CodeConfigError, "COS credentials are required")
		}
	case StorageTypeLocal:
		if cfg.LocalPath == "" {
			return apperrors.New(apperrors.CodeConfigError, "local storage path is required")
		}
	default:
		return apperrors.Newf(apperrors.CodeConfigError, "unsupported storage type: %s", cfg.Type)
	}

	return nil
}

func notFound(key string, err error) error {
	return apperrors.Wrap(apperrors.CodeNotFound, fmt.Sprintf("object not found: %s", key), err)
}

// ReadAll fetches the whole object at key.
func ReadAll(ctx context.Context, s Storage, key string) ([]byte, error) {
	rc, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageError, "failed to read object "+key, err)
	}
	return data, nil
}
