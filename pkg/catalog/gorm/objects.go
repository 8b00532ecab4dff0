package gorm

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/marmos91/shelf/pkg/catalog"
)

// UpsertObject inserts the object row or replaces all mutable fields of an
// existing (bucket, key) row.
func (s *Store) UpsertObject(ctx context.Context, obj catalog.ObjectRecord) error {
	row := itemDetail{
		Bucket:       obj.Bucket,
		Key:          obj.Key,
		Metadata:     obj.Metadata,
		InternalInfo: obj.InternalInfo,
		LastModified: now(),
		MD5:          obj.ETag,
		DataLocation: obj.DataLocation,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "bucket"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"metadata", "internal_info", "last_modified", "md5", "data_location"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert object %s/%s: %w", obj.Bucket, obj.Key, err)
	}
	return nil
}

// GetObject returns the row for (bucket, key), or catalog.ErrNotFound.
func (s *Store) GetObject(ctx context.Context, bucket, key string) (*catalog.ObjectRecord, error) {
	var row itemDetail
	err := s.db.WithContext(ctx).
		Where("bucket = ? AND key = ?", bucket, key).
		First(&row).Error
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("object %s/%s", bucket, key))
	}

	record := row.record()
	return &record, nil
}

// ListObjects returns the rows in bucket whose key starts with keyPrefix,
// ordered by key ascending and capped at catalog.MaxListKeys.
func (s *Store) ListObjects(ctx context.Context, bucket, keyPrefix string) ([]catalog.ObjectRecord, error) {
	var rows []itemDetail
	err := s.db.WithContext(ctx).
		Where("bucket = ? AND key LIKE ?", bucket, keyPrefix+"%").
		Order("key ASC").
		Limit(catalog.MaxListKeys).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list objects in %s: %w", bucket, err)
	}

	out := make([]catalog.ObjectRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.record())
	}
	return out, nil
}

// ListBuckets returns the distinct bucket names in the object table, ordered
// ascending.
func (s *Store) ListBuckets(ctx context.Context) ([]string, error) {
	var buckets []string
	err := s.db.WithContext(ctx).
		Model(&itemDetail{}).
		Distinct("bucket").
		Order("bucket ASC").
		Pluck("bucket", &buckets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}
	return buckets, nil
}
