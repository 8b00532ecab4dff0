package gateway

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/marmos91/shelf/pkg/checksum"
)

// GetObjectInput addresses one object read, optionally restricted to a
// byte range.
type GetObjectInput struct {
	Bucket string
	Key    string

	// Range restricts the read when non-nil.
	Range *Range
}

// GetObjectOutput carries the payload stream and the response metadata.
// Callers own Body and must close it.
type GetObjectOutput struct {
	Body io.ReadCloser

	// ContentLength is the number of bytes Body will yield: the full object
	// size, or the resolved range length.
	ContentLength int64

	// ContentRange is the Content-Range header value for range reads, empty
	// otherwise.
	ContentRange string

	LastModified time.Time
	ETag         string
	Metadata     map[string]string
	Checksums    checksum.Set
}

type rangeReader struct {
	io.Reader
	file *os.File
}

func (r *rangeReader) Close() error {
	return r.file.Close()
}

// GetObject streams an object. The catalog row is authoritative for
// existence: a missing row is NoSuchKey regardless of what is on disk, and a
// row whose file has vanished is also NoSuchKey.
func (g *Gateway) GetObject(ctx context.Context, in GetObjectInput) (*GetObjectOutput, error) {
	record, err := g.catalog.GetObject(ctx, in.Bucket, in.Key)
	if err != nil {
		if isCatalogNotFound(err) {
			return nil, newError(CodeNoSuchKey, "object %s/%s does not exist", in.Bucket, in.Key)
		}
		return nil, internalError("GetObject", err)
	}

	path, err := g.resolver.Resolve(record.DataLocation)
	if err != nil {
		return nil, internalError("GetObject", err)
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, newError(CodeNoSuchKey, "object %s/%s does not exist", in.Bucket, in.Key)
		}
		return nil, internalError("GetObject", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, internalError("GetObject", err)
	}

	checksums, err := checksum.DecodeInternalInfo(record.InternalInfo)
	if err != nil {
		_ = file.Close()
		return nil, internalError("GetObject", err)
	}

	out := &GetObjectOutput{
		Body:          file,
		ContentLength: info.Size(),
		LastModified:  record.LastModified,
		ETag:          record.ETag,
		Metadata:      decodeMetadata(record.Metadata),
		Checksums:     checksums,
	}

	if in.Range != nil {
		offset, length, contentRange, err := in.Range.Resolve(info.Size())
		if err != nil {
			_ = file.Close()
			return nil, newError(CodeInvalidRange, "%v", err)
		}
		if _, err := file.Seek(offset, io.SeekStart); err != nil {
			_ = file.Close()
			return nil, internalError("GetObject", err)
		}
		out.Body = &rangeReader{Reader: io.LimitReader(file, length), file: file}
		out.ContentLength = length
		out.ContentRange = contentRange
	}

	return out, nil
}

// HeadObjectOutput carries the metadata of one object.
type HeadObjectOutput struct {
	ContentLength int64
	LastModified  time.Time
	ETag          string
	Metadata      map[string]string
	Checksums     checksum.Set
}

// HeadObject returns object metadata without the payload. A row whose data
// file is missing reports NoSuchBucket, matching the long-standing behavior
// clients have come to probe for.
func (g *Gateway) HeadObject(ctx context.Context, bucket, key string) (*HeadObjectOutput, error) {
	record, err := g.catalog.GetObject(ctx, bucket, key)
	if err != nil {
		if isCatalogNotFound(err) {
			return nil, newError(CodeNoSuchKey, "object %s/%s does not exist", bucket, key)
		}
		return nil, internalError("HeadObject", err)
	}

	path, err := g.resolver.Resolve(record.DataLocation)
	if err != nil {
		return nil, internalError("HeadObject", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, newError(CodeNoSuchBucket, "no data for object %s/%s", bucket, key)
		}
		return nil, internalError("HeadObject", err)
	}

	checksums, err := checksum.DecodeInternalInfo(record.InternalInfo)
	if err != nil {
		return nil, internalError("HeadObject", err)
	}

	return &HeadObjectOutput{
		ContentLength: info.Size(),
		LastModified:  record.LastModified,
		ETag:          record.ETag,
		Metadata:      decodeMetadata(record.Metadata),
		Checksums:     checksums,
	}, nil
}
