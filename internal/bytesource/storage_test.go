package bytesource_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classkit/internal/bytesource"
	"github.com/classkit/internal/mock"
	"github.com/classkit/internal/storage"
	"github.com/classkit/pkg/compression"
	apperrors "github.com/classkit/pkg/errors"
)

func putObject(t *testing.T, store storage.Storage, key string, data []byte, typ compression.Type) {
	t.Helper()
	comp, err := compression.New(typ, compression.LevelFastest)
	require.NoError(t, err)
	defer compression.Close(comp)

	encoded, err := comp.Compress(data)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), key, bytes.NewReader(encoded)))
}

func TestStorageSource(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	classes := fixtureClasses()
	putObject(t, store, "classes/a/b/C.class", classes["a/b/C"], compression.TypeNone)
	putObject(t, store, "classes/a/b/C$Inner.class.zst", classes["a/b/C$Inner"], compression.TypeZstd)
	putObject(t, store, "classes/D.class.gz", classes["D"], compression.TypeGzip)
	putObject(t, store, "classes/D.class.zst", []byte("stale"), compression.TypeZstd)
	putObject(t, store, "classes/notes.txt", []byte("ignored"), compression.TypeNone)
	putObject(t, store, "other/E.class", []byte("E"), compression.TypeNone)

	src := bytesource.NewStorageSource(store, "classes/")

	t.Run("Get", func(t *testing.T) {
		for name, want := range classes {
			data, err := src.Get(name)
			require.NoError(t, err, name)
			if name == "D" {
				want = []byte("stale")
			}
			assert.Equal(t, want, data, name)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := src.Get("E")
		require.Error(t, err)
		assert.ErrorIs(t, err, bytesource.ErrNotFound)
	})

	t.Run("Enumerate", func(t *testing.T) {
		entries, err := src.Enumerate()
		require.NoError(t, err)
		got := readAll(t, entries)
		assert.Len(t, got, 3)
		assert.Equal(t, []byte("stale"), got["D"], "zstd is preferred over gzip")
		assert.Equal(t, classes["a/b/C$Inner"], got["a/b/C$Inner"])
	})

	t.Run("Key", func(t *testing.T) {
		assert.Equal(t, "classes/a/b/C.class.zst", src.Key("a.b.C", compression.TypeZstd))
	})
}

func TestStorageSource_BackendError(t *testing.T) {
	store := &mock.MockStorage{}
	backendErr := apperrors.Wrap(apperrors.CodeStorageError, "cos unavailable", errors.New("503"))
	store.ExpectGet("classes/a/B.class", nil, backendErr)

	_, err := bytesource.NewStorageSource(store, "classes/").Get("a/B")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStorageError)
	assert.False(t, apperrors.IsNotFound(err))
	store.AssertExpectations(t)
}
