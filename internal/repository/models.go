package repository

import "time"

// ClassRecord represents the class_blobs table.
type ClassRecord struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string    `gorm:"column:name;type:varchar(512);uniqueIndex;not null"`
	Data        []byte    `gorm:"column:data;not null"`
	Compression string    `gorm:"column:compression;type:varchar(16);not null;default:none"`
	Size        int64     `gorm:"column:size;not null"`
	Checksum    string    `gorm:"column:checksum;type:char(64)"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for ClassRecord.
func (ClassRecord) TableName() string {
	return "class_blobs"
}

// ToBlob converts the record to a ClassBlob.
func (r *ClassRecord) ToBlob() *ClassBlob {
	return &ClassBlob{
		Name:        r.Name,
		Data:        r.Data,
		Compression: r.Compression,
		Size:        r.Size,
		Checksum:    r.Checksum,
		UpdatedAt:   r.UpdatedAt,
	}
}

// FromBlob creates a record from a ClassBlob.
func FromBlob(b *ClassBlob) *ClassRecord {
	compression := b.Compression
	if compression == "" {
		compression = "none"
	}
	return &ClassRecord{
		Name:        b.Name,
		Data:        b.Data,
		Compression: compression,
		Size:        b.Size,
		Checksum:    b.Checksum,
	}
}
