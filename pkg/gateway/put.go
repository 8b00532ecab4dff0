package gateway

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/marmos91/shelf/internal/logger"
	"github.com/marmos91/shelf/pkg/bufpool"
	"github.com/marmos91/shelf/pkg/catalog"
	"github.com/marmos91/shelf/pkg/checksum"
	"github.com/marmos91/shelf/pkg/storage"
)

// PutObjectInput carries one object write.
type PutObjectInput struct {
	Bucket string
	Key    string

	// Body is the object payload. May be nil only for directory keys.
	Body io.Reader

	// ContentLength is the declared payload size, or -1 when unknown.
	// Only consulted for directory keys, where any payload is rejected.
	ContentLength int64

	// Metadata is the user metadata map (x-amz-meta-*), keys lowercased by
	// the protocol layer.
	Metadata map[string]string

	// Checksums are the client-supplied expected digests. Each present
	// algorithm is computed over the payload and compared after the copy.
	Checksums checksum.Set
}

// PutObjectOutput reports the stored object's digests.
type PutObjectOutput struct {
	// ETag is the lowercase hex MD5 of the stored bytes. Empty for
	// directory keys, which carry no payload.
	ETag string

	Checksums checksum.Set
}

// PutObject stores an object: payload to a temp file, checksums verified,
// file published with a rename, then the catalog row upserted. A failure at
// any stage leaves no temp file and no new row; the previous object, if any,
// survives untouched.
//
// A key ending in "/" is a directory marker: the payload must be empty, the
// directory is created, and no catalog row is written.
func (g *Gateway) PutObject(ctx context.Context, in PutObjectInput) (*PutObjectOutput, error) {
	if err := storage.ValidateKey(in.Key); err != nil {
		return nil, newError(CodeInvalidRequest, "invalid object key: %v", err)
	}

	if strings.HasSuffix(in.Key, "/") {
		return g.putDirectory(in)
	}

	if in.Body == nil {
		return nil, newError(CodeIncompleteBody, "request body is required")
	}

	destPath, err := g.resolveObject(in.Bucket, in.Key)
	if err != nil {
		return nil, err
	}

	tmpPath, err := g.nextTempPath()
	if err != nil {
		return nil, internalError("PutObject", err)
	}
	writer, err := storage.NewFileWriter(tmpPath, destPath)
	if err != nil {
		return nil, internalError("PutObject", err)
	}
	defer writer.Discard()

	hasher := checksum.NewHasher(in.Checksums.Enabled()...)

	buf := bufpool.Get(bufpool.LargeSize)
	written, err := io.CopyBuffer(io.MultiWriter(writer, hasher), in.Body, buf)
	bufpool.Put(buf)
	if err != nil {
		return nil, newError(CodeIncompleteBody, "failed to read request body: %v", err)
	}

	etag, computed := hasher.Sum()
	if err := checksum.Validate(computed, in.Checksums); err != nil {
		return nil, &Error{Code: CodeBadDigest, Message: err.Error()}
	}

	if err := writer.Commit(); err != nil {
		return nil, internalError("PutObject", err)
	}

	metadata, err := encodeMetadata(in.Metadata)
	if err != nil {
		return nil, internalError("PutObject", err)
	}
	internalInfo, err := checksum.EncodeInternalInfo(computed)
	if err != nil {
		return nil, internalError("PutObject", err)
	}

	err = g.catalog.UpsertObject(ctx, catalog.ObjectRecord{
		Bucket:       in.Bucket,
		Key:          in.Key,
		Metadata:     metadata,
		InternalInfo: internalInfo,
		ETag:         etag,
		DataLocation: in.Bucket + "/" + in.Key,
	})
	if err != nil {
		return nil, internalError("PutObject", err)
	}

	logger.DebugCtx(ctx, "Stored object",
		logger.Bucket(in.Bucket), logger.Key(in.Key),
		logger.ETag(etag), logger.Size(written))

	return &PutObjectOutput{ETag: etag, Checksums: computed}, nil
}

// putDirectory handles a key with a trailing slash: create the directory,
// reject any payload.
func (g *Gateway) putDirectory(in PutObjectInput) (*PutObjectOutput, error) {
	if in.ContentLength > 0 {
		return nil, newError(CodeUnexpectedContent,
			"Unexpected request body when creating a directory object.")
	}
	if in.Body != nil {
		// ContentLength may be -1 with a chunked body; peek one byte.
		var probe [1]byte
		if n, err := in.Body.Read(probe[:]); n > 0 || (err != nil && !errors.Is(err, io.EOF)) {
			return nil, newError(CodeUnexpectedContent,
				"Unexpected request body when creating a directory object.")
		}
	}

	dirPath, err := g.resolveObject(in.Bucket, in.Key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return nil, internalError("PutObject", err)
	}
	return &PutObjectOutput{}, nil
}
