package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/marmos91/shelf/pkg/catalog"
)

// InsertMultipart registers an in-flight upload, replacing any row with the
// same upload ID.
func (s *Store) InsertMultipart(ctx context.Context, upload catalog.MultipartRecord) error {
	query := `
		INSERT INTO multipart_upload (upload_id, bucket, key, last_modified, metadata, access_key)
		VALUES ($1, $2, $3, now(), $4, $5)
		ON CONFLICT (upload_id, bucket, key) DO UPDATE SET
			last_modified = EXCLUDED.last_modified,
			metadata = EXCLUDED.metadata,
			access_key = EXCLUDED.access_key
	`

	_, err := s.exec(ctx, query,
		upload.UploadID,
		upload.Bucket,
		upload.Key,
		upload.Metadata,
		upload.AccessKey,
	)
	if err != nil {
		return fmt.Errorf("failed to insert multipart upload %s: %w", upload.UploadID, err)
	}
	return nil
}

// GetMultipart returns the upload row, or catalog.ErrNotFound.
func (s *Store) GetMultipart(ctx context.Context, uploadID string) (*catalog.MultipartRecord, error) {
	query := `
		SELECT upload_id, bucket, key, last_modified, metadata, access_key
		FROM multipart_upload
		WHERE upload_id = $1
	`

	var upload catalog.MultipartRecord
	err := s.queryRow(ctx, query, uploadID).Scan(
		&upload.UploadID,
		&upload.Bucket,
		&upload.Key,
		&upload.LastModified,
		&upload.Metadata,
		&upload.AccessKey,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("multipart upload %s: %w", uploadID, catalog.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get multipart upload %s: %w", uploadID, err)
	}
	return &upload, nil
}

// ListMultipartUploads returns every in-flight upload, ordered by
// last_modified ascending.
func (s *Store) ListMultipartUploads(ctx context.Context) ([]catalog.MultipartRecord, error) {
	query := `
		SELECT upload_id, bucket, key, last_modified, metadata, access_key
		FROM multipart_upload
		ORDER BY last_modified ASC, upload_id ASC
	`

	rows, err := s.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list multipart uploads: %w", err)
	}
	defer rows.Close()

	var out []catalog.MultipartRecord
	for rows.Next() {
		var upload catalog.MultipartRecord
		if err := rows.Scan(
			&upload.UploadID,
			&upload.Bucket,
			&upload.Key,
			&upload.LastModified,
			&upload.Metadata,
			&upload.AccessKey,
		); err != nil {
			return nil, fmt.Errorf("failed to scan multipart upload row: %w", err)
		}
		out = append(out, upload)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list multipart uploads: %w", err)
	}
	return out, nil
}

// DeleteMultipart removes the upload row and its part rows in one
// transaction. Deleting an unknown upload is not an error.
func (s *Store) DeleteMultipart(ctx context.Context, uploadID string) error {
	conn, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM multipart_upload_part WHERE upload_id = $1`, uploadID); err != nil {
		return fmt.Errorf("failed to delete parts of upload %s: %w", uploadID, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM multipart_upload WHERE upload_id = $1`, uploadID); err != nil {
		return fmt.Errorf("failed to delete multipart upload %s: %w", uploadID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit delete of upload %s: %w", uploadID, err)
	}
	return nil
}

// GetAccessKey returns the access key the upload is bound to, or
// catalog.ErrNotFound when the upload row is gone.
func (s *Store) GetAccessKey(ctx context.Context, uploadID string) (string, error) {
	query := `SELECT access_key FROM multipart_upload WHERE upload_id = $1`

	var accessKey string
	err := s.queryRow(ctx, query, uploadID).Scan(&accessKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("multipart upload %s: %w", uploadID, catalog.ErrNotFound)
		}
		return "", fmt.Errorf("failed to get access key for upload %s: %w", uploadID, err)
	}
	return accessKey, nil
}

// UpsertPart inserts the part row or replaces the row with the same
// (upload ID, part number); clients may re-send a part.
func (s *Store) UpsertPart(ctx context.Context, part catalog.PartRecord) error {
	query := `
		INSERT INTO multipart_upload_part (upload_id, part_number, last_modified, md5, data_location)
		VALUES ($1, $2, now(), $3, $4)
		ON CONFLICT (upload_id, part_number) DO UPDATE SET
			last_modified = EXCLUDED.last_modified,
			md5 = EXCLUDED.md5,
			data_location = EXCLUDED.data_location
	`

	_, err := s.exec(ctx, query,
		part.UploadID,
		part.PartNumber,
		part.MD5,
		part.DataLocation,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert part %d of upload %s: %w", part.PartNumber, part.UploadID, err)
	}
	return nil
}

// ListParts returns the parts of an upload ordered by part number ascending.
func (s *Store) ListParts(ctx context.Context, uploadID string) ([]catalog.PartRecord, error) {
	query := `
		SELECT upload_id, part_number, last_modified, md5, data_location
		FROM multipart_upload_part
		WHERE upload_id = $1
		ORDER BY part_number ASC
	`

	rows, err := s.query(ctx, query, uploadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list parts of upload %s: %w", uploadID, err)
	}
	defer rows.Close()

	out := []catalog.PartRecord{}
	for rows.Next() {
		var part catalog.PartRecord
		if err := rows.Scan(
			&part.UploadID,
			&part.PartNumber,
			&part.LastModified,
			&part.MD5,
			&part.DataLocation,
		); err != nil {
			return nil, fmt.Errorf("failed to scan part row: %w", err)
		}
		out = append(out, part)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list parts of upload %s: %w", uploadID, err)
	}
	return out, nil
}
