package repository

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/classkit/pkg/errors"
)

// GormClassRepository implements ClassBlobRepository using GORM.
type GormClassRepository struct {
	db *gorm.DB
}

// NewGormClassRepository creates a new GormClassRepository.
func NewGormClassRepository(db *gorm.DB) *GormClassRepository {
	return &GormClassRepository{db: db}
}

// Get retrieves a blob by class name.
func (r *GormClassRepository) Get(ctx context.Context, name string) (*ClassBlob, error) {
	var record ClassRecord
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "class blob not found: %s", name)
		}
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to get class blob", err)
	}
	return record.ToBlob(), nil
}

// Save upserts a blob keyed by its name.
func (r *GormClassRepository) Save(ctx context.Context, blob *ClassBlob) error {
	record := FromBlob(blob)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "compression", "size", "checksum", "updated_at"}),
	}).Create(record).Error
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, fmt.Sprintf("failed to save class blob %s", blob.Name), err)
	}
	return nil
}

// Delete removes a blob by class name.
func (r *GormClassRepository) Delete(ctx context.Context, name string) error {
	err := r.db.WithContext(ctx).Where("name = ?", name).Delete(&ClassRecord{}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "failed to delete class blob", err)
	}
	return nil
}

// ListNames returns the sorted class names beginning with prefix.
func (r *GormClassRepository) ListNames(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	query := r.db.WithContext(ctx).Model(&ClassRecord{})
	if prefix != "" {
		query = query.Where("SUBSTR(name, 1, ?) = ?", utf8.RuneCountInString(prefix), prefix)
	}
	if err := query.Order("name ASC").Pluck("name", &names).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to list class blobs", err)
	}
	return names, nil
}

// Count returns the number of stored blobs.
func (r *GormClassRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&ClassRecord{}).Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to count class blobs", err)
	}
	return count, nil
}
