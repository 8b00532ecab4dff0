package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/marmos91/shelf/pkg/catalog"
)

// UpsertObject inserts the object row or replaces all mutable fields of an
// existing (bucket, key) row. last_modified is stamped with the database
// server clock so concurrent writers agree on a single source of time.
func (s *Store) UpsertObject(ctx context.Context, obj catalog.ObjectRecord) error {
	query := `
		INSERT INTO s3_item_detail (bucket, key, metadata, internal_info, last_modified, md5, data_location)
		VALUES ($1, $2, $3, $4, now(), $5, $6)
		ON CONFLICT (bucket, key) DO UPDATE SET
			metadata = EXCLUDED.metadata,
			internal_info = EXCLUDED.internal_info,
			last_modified = EXCLUDED.last_modified,
			md5 = EXCLUDED.md5,
			data_location = EXCLUDED.data_location
	`

	_, err := s.exec(ctx, query,
		obj.Bucket,
		obj.Key,
		obj.Metadata,
		obj.InternalInfo,
		obj.ETag,
		obj.DataLocation,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert object %s/%s: %w", obj.Bucket, obj.Key, err)
	}
	return nil
}

// GetObject returns the row for (bucket, key), or catalog.ErrNotFound.
func (s *Store) GetObject(ctx context.Context, bucket, key string) (*catalog.ObjectRecord, error) {
	query := `
		SELECT bucket, key, metadata, internal_info, last_modified, md5, data_location
		FROM s3_item_detail
		WHERE bucket = $1 AND key = $2
	`

	var obj catalog.ObjectRecord
	err := s.queryRow(ctx, query, bucket, key).Scan(
		&obj.Bucket,
		&obj.Key,
		&obj.Metadata,
		&obj.InternalInfo,
		&obj.LastModified,
		&obj.ETag,
		&obj.DataLocation,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("object %s/%s: %w", bucket, key, catalog.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get object %s/%s: %w", bucket, key, err)
	}
	return &obj, nil
}

// ListObjects returns the rows in bucket whose key starts with keyPrefix,
// ordered by key ascending and capped at catalog.MaxListKeys.
func (s *Store) ListObjects(ctx context.Context, bucket, keyPrefix string) ([]catalog.ObjectRecord, error) {
	query := `
		SELECT bucket, key, metadata, internal_info, last_modified, md5, data_location
		FROM s3_item_detail
		WHERE bucket = $1 AND key LIKE $2 || '%'
		ORDER BY key ASC
		LIMIT $3
	`

	rows, err := s.query(ctx, query, bucket, keyPrefix, catalog.MaxListKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects in %s: %w", bucket, err)
	}
	defer rows.Close()

	var out []catalog.ObjectRecord
	for rows.Next() {
		var obj catalog.ObjectRecord
		if err := rows.Scan(
			&obj.Bucket,
			&obj.Key,
			&obj.Metadata,
			&obj.InternalInfo,
			&obj.LastModified,
			&obj.ETag,
			&obj.DataLocation,
		); err != nil {
			return nil, fmt.Errorf("failed to scan object row: %w", err)
		}
		out = append(out, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list objects in %s: %w", bucket, err)
	}
	return out, nil
}

// ListBuckets returns the distinct bucket names in the object table, ordered
// ascending.
func (s *Store) ListBuckets(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT bucket FROM s3_item_detail ORDER BY bucket ASC`

	rows, err := s.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}
	defer rows.Close()

	var buckets []string
	for rows.Next() {
		var bucket string
		if err := rows.Scan(&bucket); err != nil {
			return nil, fmt.Errorf("failed to scan bucket row: %w", err)
		}
		buckets = append(buckets, bucket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}
	return buckets, nil
}
