package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classkit/pkg/config"
	apperrors "github.com/classkit/pkg/errors"
)

func setupTestRepos(t *testing.T) *Repositories {
	t.Helper()
	repos, err := Open(&config.DatabaseConfig{Type: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

func TestGormClassRepository_SaveGet(t *testing.T) {
	repos := setupTestRepos(t)
	repo := repos.Classes
	ctx := context.Background()

	class := []byte{0xCA, 0xFE, 0xBA, 0xBE, 0x00, 0x00, 0x00, 0x34}
	require.NoError(t, repo.Save(ctx, &ClassBlob{
		Name:     "a/b/C",
		Data:     class,
		Size:     int64(len(class)),
		Checksum: Checksum(class),
	}))

	t.Run("Get", func(t *testing.T) {
		blob, err := repo.Get(ctx, "a/b/C")
		require.NoError(t, err)
		assert.Equal(t, "a/b/C", blob.Name)
		assert.Equal(t, class, blob.Data)
		assert.Equal(t, "none", blob.Compression)
		assert.Equal(t, int64(8), blob.Size)
		assert.Equal(t, Checksum(class), blob.Checksum)
		assert.False(t, blob.UpdatedAt.IsZero())
	})

	t.Run("Upsert", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, &ClassBlob{
			Name:        "a/b/C",
			Data:        []byte("zz"),
			Compression: "zstd",
			Size:        8,
		}))
		blob, err := repo.Get(ctx, "a/b/C")
		require.NoError(t, err)
		assert.Equal(t, []byte("zz"), blob.Data)
		assert.Equal(t, "zstd", blob.Compression)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := repo.Get(ctx, "a/b/Missing")
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestGormClassRepository_ListNames(t *testing.T) {
	repo := setupTestRepos(t).Classes
	ctx := context.Background()

	for _, name := range []string{"a/b_c/D", "a/bXc/E", "a/b/C", "x/Y"} {
		require.NoError(t, repo.Save(ctx, &ClassBlob{Name: name, Data: []byte(name)}))
	}

	tests := []struct {
		name   string
		prefix string
		want   []string
	}{
		{name: "All", prefix: "", want: []string{"a/b/C", "a/bXc/E", "a/b_c/D", "x/Y"}},
		{name: "Package", prefix: "a/b/", want: []string{"a/b/C"}},
		{name: "UnderscoreIsLiteral", prefix: "a/b_", want: []string{"a/b_c/D"}},
		{name: "NoMatch", prefix: "z/", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			names, err := repo.ListNames(ctx, tt.prefix)
			require.NoError(t, err)
			if len(tt.want) == 0 {
				assert.Empty(t, names)
				return
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestGormClassRepository_Delete(t *testing.T) {
	repo := setupTestRepos(t).Classes
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &ClassBlob{Name: "a/B", Data: []byte{1}}))
	require.NoError(t, repo.Delete(ctx, "a/B"))
	require.NoError(t, repo.Delete(ctx, "a/B"), "deleting a missing blob is not an error")

	_, err := repo.Get(ctx, "a/B")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRepositories_HealthCheck(t *testing.T) {
	repos := setupTestRepos(t)
	assert.NoError(t, repos.HealthCheck(context.Background()))
	assert.NotNil(t, repos.DB())
	assert.NotNil(t, repos.GormDB())
}
