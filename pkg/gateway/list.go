package gateway

import (
	"context"
	"os"
	"time"

	"github.com/marmos91/shelf/pkg/catalog"
)

// ObjectInfo is one entry in a ListObjects response. Size comes from a stat
// of the data file, not from the catalog.
type ObjectInfo struct {
	Key          string
	LastModified time.Time
	ETag         string
	Size         int64
}

// ListObjectsOutput carries one page of listing results.
type ListObjectsOutput struct {
	Objects []ObjectInfo

	// MaxKeys is the listing cap applied, always catalog.MaxListKeys.
	MaxKeys int
}

// ListObjects returns the bucket's objects under the given key prefix,
// ordered by key. An unknown bucket simply lists empty. Rows whose data
// file is missing are skipped: listings only report objects that can
// actually be read.
func (g *Gateway) ListObjects(ctx context.Context, bucket, prefix string) (*ListObjectsOutput, error) {
	records, err := g.catalog.ListObjects(ctx, bucket, prefix)
	if err != nil {
		return nil, internalError("ListObjects", err)
	}

	objects := make([]ObjectInfo, 0, len(records))
	for _, record := range records {
		path, err := g.resolver.Resolve(record.DataLocation)
		if err != nil {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		objects = append(objects, ObjectInfo{
			Key:          record.Key,
			LastModified: record.LastModified,
			ETag:         record.ETag,
			Size:         info.Size(),
		})
	}

	return &ListObjectsOutput{
		Objects: objects,
		MaxKeys: catalog.MaxListKeys,
	}, nil
}
