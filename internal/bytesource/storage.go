package bytesource

import (
	"context"
	"fmt"
	"strings"

	"github.com/classkit/internal/storage"
	"github.com/classkit/pkg/compression"
	apperrors "github.com/classkit/pkg/errors"
)

// storedExtensions are the object suffixes tried for a class, in order of
// preference.
var storedExtensions = []compression.Type{compression.TypeNone, compression.TypeZstd, compression.TypeGzip}

// StorageSource serves classes mirrored to object storage under a key
// prefix, as <prefix>a/b/C.class with an optional .zst or .gz suffix.
type StorageSource struct {
	store  storage.Storage
	prefix string
}

// NewStorageSource creates a StorageSource over store.
func NewStorageSource(store storage.Storage, prefix string) *StorageSource {
	return &StorageSource{store: store, prefix: prefix}
}

// Key returns the object key of name stored with codec t.
func (s *StorageSource) Key(name string, t compression.Type) string {
	return s.prefix + ResourcePath(name) + t.Extension()
}

// Get fetches and decompresses the object of name.
func (s *StorageSource) Get(name string) ([]byte, error) {
	return s.GetContext(context.Background(), name)
}

// GetContext is Get bound to ctx.
func (s *StorageSource) GetContext(ctx context.Context, name string) ([]byte, error) {
	for _, t := range storedExtensions {
		data, err := s.fetch(ctx, s.Key(name, t))
		if apperrors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return data, nil
	}
	return nil, notFound(name, fmt.Errorf("no object under %s", s.Key(name, compression.TypeNone)))
}

func (s *StorageSource) fetch(ctx context.Context, key string) ([]byte, error) {
	raw, err := storage.ReadAll(ctx, s.store, key)
	if err != nil {
		return nil, err
	}
	data, err := compression.AutoDecompress(raw)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageError, fmt.Sprintf("decompress %s", key), err)
	}
	return data, nil
}

// Enumerate lists every class object under the prefix. When a class is
// stored under several codecs the uncompressed object wins.
func (s *StorageSource) Enumerate() (map[string]Supplier, error) {
	ctx := context.Background()
	keys, err := s.store.List(ctx, s.prefix)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageError, fmt.Sprintf("list %s", s.prefix), err)
	}

	chosen := make(map[string]string)
	rank := make(map[string]int)
	for _, key := range keys {
		name, r, ok := s.parseKey(key)
		if !ok {
			continue
		}
		if prev, seen := rank[name]; seen && prev <= r {
			continue
		}
		chosen[name] = key
		rank[name] = r
	}

	out := make(map[string]Supplier, len(chosen))
	for name, key := range chosen {
		out[name] = func() ([]byte, error) { return s.fetch(ctx, key) }
	}
	return out, nil
}

// parseKey maps an object key back to its class name and codec preference.
func (s *StorageSource) parseKey(key string) (string, int, bool) {
	rel := strings.TrimPrefix(key, s.prefix)
	for r, t := range storedExtensions {
		if base, ok := strings.CutSuffix(rel, ".class"+t.Extension()); ok {
			return InternalName(base), r, true
		}
	}
	return "", 0, false
}
