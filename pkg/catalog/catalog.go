// Package catalog defines the metadata catalog behind the gateway: one row
// per live object plus the registry of in-flight multipart uploads and their
// parts.
//
// The catalog is deliberately narrow. Object bytes never pass through it and
// rows are written only after the corresponding file has been committed to
// disk, so no operation needs multi-statement atomicity (the multipart
// cascade delete is the one exception drivers may implement transactionally).
//
// Four drivers implement the interface: postgres (pgx), gorm (SQLite or
// PostgreSQL through GORM), badger (embedded key-value) and memory. All of
// them must pass the conformance suite in catalogtest.
package catalog

import (
	"context"
	"time"
)

// MaxListKeys caps the number of rows returned by ListObjects. The gateway
// reports it as the maximum MaxKeys on list responses.
const MaxListKeys = 1000

// ObjectRecord is one live object, the s3_item_detail row.
type ObjectRecord struct {
	Bucket string
	Key    string

	// Metadata is the JSON-serialized user metadata map. Never empty:
	// objects without metadata store "{}".
	Metadata string

	// InternalInfo is the JSON-serialized checksum set computed at write
	// time (see pkg/checksum). "{}" when no checksums were requested.
	InternalInfo string

	LastModified time.Time

	// ETag is the lowercase hex MD5 of the object bytes. Stored in the
	// md5 column.
	ETag string

	// DataLocation is the "{bucket}/{key}" path of the object file,
	// relative to the storage root.
	DataLocation string
}

// MultipartRecord is one in-flight multipart upload. The row exists from
// CreateMultipartUpload until the upload completes or aborts.
type MultipartRecord struct {
	// UploadID is the string form of a v4 UUID. The gateway validates the
	// format; the catalog treats it as an opaque identifier.
	UploadID string

	Bucket string
	Key    string

	LastModified time.Time

	// Metadata is the JSON-serialized user metadata map captured at
	// initiate time and applied to the object row on completion.
	Metadata string

	// AccessKey is the caller identity the upload is bound to. Empty when
	// the server runs without credentials.
	AccessKey string
}

// PartRecord is one uploaded part of a multipart upload.
type PartRecord struct {
	UploadID     string
	PartNumber   int
	LastModified time.Time

	// MD5 is the lowercase hex MD5 of the part bytes.
	MD5 string

	// DataLocation is the absolute path of the part file on disk.
	DataLocation string
}

// Catalog is the operation set the gateway programs against.
//
// Write operations (UpsertObject, InsertMultipart, UpsertPart) stamp
// LastModified with the current server time; the value carried in the record
// argument is ignored. Lookups return ErrNotFound (possibly wrapped) when no
// row matches.
type Catalog interface {
	// UpsertObject inserts the object row or replaces all mutable fields
	// of an existing row with the same (bucket, key).
	UpsertObject(ctx context.Context, obj ObjectRecord) error

	// GetObject returns the row for (bucket, key).
	GetObject(ctx context.Context, bucket, key string) (*ObjectRecord, error)

	// ListObjects returns rows in bucket whose key starts with keyPrefix,
	// ordered by key ascending, capped at MaxListKeys. An empty prefix
	// matches every key in the bucket.
	ListObjects(ctx context.Context, bucket, keyPrefix string) ([]ObjectRecord, error)

	// ListBuckets returns the distinct bucket names present in the object
	// table, ordered ascending.
	ListBuckets(ctx context.Context) ([]string, error)

	// InsertMultipart registers an upload, replacing any row with the same
	// upload ID.
	InsertMultipart(ctx context.Context, upload MultipartRecord) error

	// GetMultipart returns the upload row.
	GetMultipart(ctx context.Context, uploadID string) (*MultipartRecord, error)

	// ListMultipartUploads returns every in-flight upload, ordered by
	// last_modified ascending. Used by operator tooling; abandoned uploads
	// are reclaimed only through an explicit abort.
	ListMultipartUploads(ctx context.Context) ([]MultipartRecord, error)

	// DeleteMultipart removes the upload row and cascades to its parts.
	DeleteMultipart(ctx context.Context, uploadID string) error

	// GetAccessKey returns the access key the upload is bound to.
	GetAccessKey(ctx context.Context, uploadID string) (string, error)

	// UpsertPart inserts the part row or replaces the row with the same
	// (upload ID, part number).
	UpsertPart(ctx context.Context, part PartRecord) error

	// ListParts returns the parts of an upload ordered by part number
	// ascending. An upload with no parts yields an empty slice, not
	// ErrNotFound.
	ListParts(ctx context.Context, uploadID string) ([]PartRecord, error)

	// Ping verifies the catalog is reachable.
	Ping(ctx context.Context) error

	// Close releases the connection pool or database handle.
	Close() error
}
