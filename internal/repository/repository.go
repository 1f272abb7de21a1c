// Package repository persists class binaries in a relational database.
package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ClassBlob is a stored class binary. Data holds the bytes as stored, which
// may be compressed; Size is the length of the uncompressed class.
type ClassBlob struct {
	Name        string
	Data        []byte
	Compression string
	Size        int64
	Checksum    string
	UpdatedAt   time.Time
}

// Checksum returns the hex SHA-256 of an uncompressed class.
func Checksum(class []byte) string {
	sum := sha256.Sum256(class)
	return hex.EncodeToString(sum[:])
}

// ClassBlobRepository defines the interface for class binary persistence.
// Names are slash-delimited internal class names.
type ClassBlobRepository interface {
	// Get returns the blob stored under name, or an apperrors NotFound error.
	Get(ctx context.Context, name string) (*ClassBlob, error)

	// Save inserts or replaces the blob stored under blob.Name.
	Save(ctx context.Context, blob *ClassBlob) error

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// ListNames returns the sorted names beginning with prefix.
	ListNames(ctx context.Context, prefix string) ([]string, error)

	// Count returns the number of stored blobs.
	Count(ctx context.Context) (int64, error)
}
