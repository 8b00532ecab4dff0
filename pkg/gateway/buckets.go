package gateway

import (
	"context"
	"errors"
	"os"
	"time"
)

// BucketInfo is one entry in a ListBuckets response.
type BucketInfo struct {
	Name string

	// CreationDate is the bucket directory's modification time; the
	// filesystem does not keep a portable creation timestamp.
	CreationDate time.Time
}

// HeadBucket verifies the bucket exists, meaning its directory is present
// under the storage root. Buckets are created implicitly by the first object
// write, so existence is purely a filesystem fact.
func (g *Gateway) HeadBucket(ctx context.Context, bucket string) error {
	path, err := g.resolver.BucketPath(bucket)
	if err != nil {
		return newError(CodeInvalidRequest, "invalid bucket name %q", bucket)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return newError(CodeNoSuchBucket, "bucket %q does not exist", bucket)
		}
		return internalError("HeadBucket", err)
	}
	if !info.IsDir() {
		return newError(CodeNoSuchBucket, "bucket %q does not exist", bucket)
	}
	return nil
}

// ListBuckets returns the buckets known to the catalog whose directory still
// exists on disk, ordered by name. Catalog entries without a directory are
// skipped silently; the directory may have been removed out of band.
func (g *Gateway) ListBuckets(ctx context.Context) ([]BucketInfo, error) {
	names, err := g.catalog.ListBuckets(ctx)
	if err != nil {
		return nil, internalError("ListBuckets", err)
	}

	out := make([]BucketInfo, 0, len(names))
	for _, name := range names {
		path, err := g.resolver.BucketPath(name)
		if err != nil {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			continue
		}
		out = append(out, BucketInfo{Name: name, CreationDate: info.ModTime()})
	}
	return out, nil
}
