package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/classkit/pkg/errors"
)

func newMockRepo(t *testing.T, dialect string) (*SQLClassRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLClassRepository(db, dialect), mock
}

func TestSQLClassRepository_Get(t *testing.T) {
	repo, mock := newMockRepo(t, DialectMySQL)
	ctx := context.Background()
	now := time.Now()

	t.Run("Found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"name", "data", "compression", "size", "checksum", "updated_at"}).
			AddRow("a/B", []byte{0xCA, 0xFE}, "none", 2, "abc", now)
		mock.ExpectQuery("SELECT name, data, compression, size").
			WithArgs("a/B").
			WillReturnRows(rows)

		blob, err := repo.Get(ctx, "a/B")
		require.NoError(t, err)
		assert.Equal(t, "a/B", blob.Name)
		assert.Equal(t, []byte{0xCA, 0xFE}, blob.Data)
		assert.Equal(t, int64(2), blob.Size)
		assert.Equal(t, "abc", blob.Checksum)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT name, data, compression, size").
			WithArgs("a/Missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(ctx, "a/Missing")
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("QueryError", func(t *testing.T) {
		mock.ExpectQuery("SELECT name, data, compression, size").
			WithArgs("a/B").
			WillReturnError(errors.New("connection reset"))

		_, err := repo.Get(ctx, "a/B")
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrDatabaseError)
		assert.False(t, apperrors.IsNotFound(err))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLClassRepository_Save(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		upsert  string
	}{
		{name: "MySQL", dialect: DialectMySQL, upsert: "ON DUPLICATE KEY UPDATE"},
		{name: "Postgres", dialect: DialectPostgres, upsert: `ON CONFLICT \(name\) DO UPDATE`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t, tt.dialect)

			mock.ExpectExec("INSERT INTO class_blobs .* "+tt.upsert).
				WithArgs("a/B", []byte{1, 2}, "zstd", int64(10), "", sqlmock.AnyArg(), sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(1, 1))

			err := repo.Save(context.Background(), &ClassBlob{
				Name:        "a/B",
				Data:        []byte{1, 2},
				Compression: "zstd",
				Size:        10,
			})
			require.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLClassRepository_Bind(t *testing.T) {
	pg := NewSQLClassRepository(nil, DialectPostgres)
	assert.Equal(t, "a = $1 AND b = $2", pg.bind("a = ? AND b = ?"))

	my := NewSQLClassRepository(nil, "")
	assert.Equal(t, "a = ? AND b = ?", my.bind("a = ? AND b = ?"))
}

func TestSQLClassRepository_ListNames(t *testing.T) {
	repo, mock := newMockRepo(t, DialectPostgres)

	rows := sqlmock.NewRows([]string{"name"}).
		AddRow("a/B").
		AddRow("a/c/D").
		AddRow("b/E")
	mock.ExpectQuery("SELECT name FROM class_blobs ORDER BY name ASC").WillReturnRows(rows)

	names, err := repo.ListNames(context.Background(), "a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/B", "a/c/D"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLClassRepository_DeleteCount(t *testing.T) {
	repo, mock := newMockRepo(t, DialectPostgres)
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM class_blobs WHERE name = \$1`).
		WithArgs("a/B").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM class_blobs`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	require.NoError(t, repo.Delete(ctx, "a/B"))
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
