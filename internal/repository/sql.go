package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/classkit/pkg/errors"
)

// Placeholder styles of the supported SQL dialects.
const (
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
)

// SQLClassRepository implements ClassBlobRepository with hand-written SQL
// over a database/sql handle. It serves deployments that manage their own
// connection pool instead of going through GORM.
type SQLClassRepository struct {
	db      *sql.DB
	dialect string
}

// NewSQLClassRepository creates a new SQLClassRepository. Any dialect other
// than postgres uses MySQL syntax.
func NewSQLClassRepository(db *sql.DB, dialect string) *SQLClassRepository {
	if dialect != DialectPostgres {
		dialect = DialectMySQL
	}
	return &SQLClassRepository{db: db, dialect: dialect}
}

// bind rewrites '?' placeholders to $n for postgres.
func (r *SQLClassRepository) bind(query string) string {
	if r.dialect != DialectPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			fmt.Fprintf(&sb, "$%d", n)
			continue
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

// Get retrieves a blob by class name.
func (r *SQLClassRepository) Get(ctx context.Context, name string) (*ClassBlob, error) {
	query := r.bind(`
		SELECT name, data, compression, size, COALESCE(checksum, ''), updated_at
		FROM class_blobs
		WHERE name = ?
	`)

	blob := &ClassBlob{}
	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&blob.Name, &blob.Data, &blob.Compression, &blob.Size, &blob.Checksum, &blob.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "class blob not found: %s", name)
		}
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to get class blob", err)
	}
	return blob, nil
}

// Save upserts a blob keyed by its name.
func (r *SQLClassRepository) Save(ctx context.Context, blob *ClassBlob) error {
	var query string
	if r.dialect == DialectPostgres {
		query = r.bind(`
			INSERT INTO class_blobs (name, data, compression, size, checksum, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (name) DO UPDATE SET
				data = EXCLUDED.data, compression = EXCLUDED.compression,
				size = EXCLUDED.size, checksum = EXCLUDED.checksum, updated_at = EXCLUDED.updated_at
		`)
	} else {
		query = `
			INSERT INTO class_blobs (name, data, compression, size, checksum, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE
				data = VALUES(data), compression = VALUES(compression),
				size = VALUES(size), checksum = VALUES(checksum), updated_at = VALUES(updated_at)
		`
	}

	record := FromBlob(blob)
	now := time.Now()
	_, err := r.db.ExecContext(ctx, query,
		record.Name, record.Data, record.Compression, record.Size, record.Checksum, now, now,
	)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, fmt.Sprintf("failed to save class blob %s", blob.Name), err)
	}
	return nil
}

// Delete removes a blob by class name.
func (r *SQLClassRepository) Delete(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, r.bind(`DELETE FROM class_blobs WHERE name = ?`), name); err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "failed to delete class blob", err)
	}
	return nil
}

// ListNames returns the sorted class names beginning with prefix.
func (r *SQLClassRepository) ListNames(ctx context.Context, prefix string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, r.bind(`SELECT name FROM class_blobs ORDER BY name ASC`))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to list class blobs", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to scan class name", err)
		}
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to list class blobs", err)
	}
	return names, nil
}

// Count returns the number of stored blobs.
func (r *SQLClassRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM class_blobs`).Scan(&count); err != nil {
		return 0, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to count class blobs", err)
	}
	return count, nil
}
