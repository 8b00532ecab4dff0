package gorm

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marmos91/shelf/pkg/catalog"
)

// InsertMultipart registers an in-flight upload, replacing any row with the
// same upload ID.
func (s *Store) InsertMultipart(ctx context.Context, upload catalog.MultipartRecord) error {
	row := multipartUpload{
		UploadID:     upload.UploadID,
		Bucket:       upload.Bucket,
		Key:          upload.Key,
		LastModified: now(),
		Metadata:     upload.Metadata,
		AccessKey:    upload.AccessKey,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "upload_id"}, {Name: "bucket"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_modified", "metadata", "access_key"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to insert multipart upload %s: %w", upload.UploadID, err)
	}
	return nil
}

// GetMultipart returns the upload row, or catalog.ErrNotFound.
func (s *Store) GetMultipart(ctx context.Context, uploadID string) (*catalog.MultipartRecord, error) {
	var row multipartUpload
	err := s.db.WithContext(ctx).
		Where("upload_id = ?", uploadID).
		First(&row).Error
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("multipart upload %s", uploadID))
	}

	record := row.record()
	return &record, nil
}

// ListMultipartUploads returns every in-flight upload, ordered by
// last_modified ascending.
func (s *Store) ListMultipartUploads(ctx context.Context) ([]catalog.MultipartRecord, error) {
	var rows []multipartUpload
	err := s.db.WithContext(ctx).
		Order("last_modified ASC, upload_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list multipart uploads: %w", err)
	}

	out := make([]catalog.MultipartRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.record())
	}
	return out, nil
}

// DeleteMultipart removes the upload row and its part rows in one
// transaction. Deleting an unknown upload is not an error.
func (s *Store) DeleteMultipart(ctx context.Context, uploadID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("upload_id = ?", uploadID).Delete(&multipartUploadPart{}).Error; err != nil {
			return err
		}
		return tx.Where("upload_id = ?", uploadID).Delete(&multipartUpload{}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete multipart upload %s: %w", uploadID, err)
	}
	return nil
}

// GetAccessKey returns the access key the upload is bound to, or
// catalog.ErrNotFound when the upload row is gone.
func (s *Store) GetAccessKey(ctx context.Context, uploadID string) (string, error) {
	var row multipartUpload
	err := s.db.WithContext(ctx).
		Select("access_key").
		Where("upload_id = ?", uploadID).
		First(&row).Error
	if err != nil {
		return "", notFound(err, fmt.Sprintf("multipart upload %s", uploadID))
	}
	return row.AccessKey, nil
}

// UpsertPart inserts the part row or replaces the row with the same
// (upload ID, part number).
func (s *Store) UpsertPart(ctx context.Context, part catalog.PartRecord) error {
	row := multipartUploadPart{
		UploadID:     part.UploadID,
		PartNumber:   part.PartNumber,
		LastModified: now(),
		MD5:          part.MD5,
		DataLocation: part.DataLocation,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "upload_id"}, {Name: "part_number"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_modified", "md5", "data_location"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert part %d of upload %s: %w", part.PartNumber, part.UploadID, err)
	}
	return nil
}

// ListParts returns the parts of an upload ordered by part number ascending.
func (s *Store) ListParts(ctx context.Context, uploadID string) ([]catalog.PartRecord, error) {
	var rows []multipartUploadPart
	err := s.db.WithContext(ctx).
		Where("upload_id = ?", uploadID).
		Order("part_number ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list parts of upload %s: %w", uploadID, err)
	}

	out := make([]catalog.PartRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.record())
	}
	return out, nil
}
