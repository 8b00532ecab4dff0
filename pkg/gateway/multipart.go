package gateway

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/shelf/internal/logger"
	"github.com/marmos91/shelf/pkg/bufpool"
	"github.com/marmos91/shelf/pkg/catalog"
	"github.com/marmos91/shelf/pkg/checksum"
	"github.com/marmos91/shelf/pkg/storage"
)

// CreateMultipartUploadInput starts an upload. AccessKey is the caller
// identity the upload will be bound to; empty when the server runs without
// credentials.
type CreateMultipartUploadInput struct {
	Bucket    string
	Key       string
	Metadata  map[string]string
	AccessKey string
}

// CreateMultipartUpload registers a new upload and returns its ID. The
// bucket directory must already exist: multipart never creates buckets.
func (g *Gateway) CreateMultipartUpload(ctx context.Context, in CreateMultipartUploadInput) (string, error) {
	if err := storage.ValidateKey(in.Key); err != nil {
		return "", newError(CodeInvalidRequest, "invalid object key: %v", err)
	}
	if err := g.HeadBucket(ctx, in.Bucket); err != nil {
		return "", err
	}

	metadata, err := encodeMetadata(in.Metadata)
	if err != nil {
		return "", internalError("CreateMultipartUpload", err)
	}

	uploadID := uuid.NewString()
	err = g.catalog.InsertMultipart(ctx, catalog.MultipartRecord{
		UploadID:  uploadID,
		Bucket:    in.Bucket,
		Key:       in.Key,
		Metadata:  metadata,
		AccessKey: in.AccessKey,
	})
	if err != nil {
		return "", internalError("CreateMultipartUpload", err)
	}

	logger.DebugCtx(ctx, "Initiated multipart upload",
		logger.Bucket(in.Bucket), logger.Key(in.Key), logger.UploadID(uploadID))
	return uploadID, nil
}

// parseUploadID validates the upload ID format before it reaches the
// catalog or the filesystem namespace.
func parseUploadID(uploadID string) error {
	if _, err := uuid.Parse(uploadID); err != nil {
		return newError(CodeInvalidRequest, "invalid upload id %q", uploadID)
	}
	return nil
}

// verifyUploadOwner checks that the upload exists and is bound to the
// caller's access key. A vanished upload reports AccessDenied, same as a
// key mismatch: callers cannot distinguish "not yours" from "gone".
func (g *Gateway) verifyUploadOwner(ctx context.Context, uploadID, accessKey string) error {
	owner, err := g.catalog.GetAccessKey(ctx, uploadID)
	if err != nil {
		if isCatalogNotFound(err) {
			return newError(CodeAccessDenied, "upload %s is not accessible", uploadID)
		}
		return internalError("verifyUploadOwner", err)
	}
	if owner != accessKey {
		return newError(CodeAccessDenied, "upload %s is not accessible", uploadID)
	}
	return nil
}

// UploadPartInput carries one part write.
type UploadPartInput struct {
	UploadID   string
	PartNumber int
	Body       io.Reader
	AccessKey  string
}

// UploadPart stores one part: payload streamed through MD5 into an atomic
// writer at the part stage path, then the part row upserted. Re-uploading a
// part number replaces both the file and the row. Returns the part's ETag.
func (g *Gateway) UploadPart(ctx context.Context, in UploadPartInput) (string, error) {
	if err := parseUploadID(in.UploadID); err != nil {
		return "", err
	}
	if in.PartNumber < 1 {
		return "", newError(CodeInvalidRequest, "part number must be positive, got %d", in.PartNumber)
	}
	if err := g.verifyUploadOwner(ctx, in.UploadID, in.AccessKey); err != nil {
		return "", err
	}
	if in.Body == nil {
		return "", newError(CodeIncompleteBody, "request body is required")
	}

	partPath, err := g.resolver.PartPath(in.UploadID, in.PartNumber)
	if err != nil {
		return "", internalError("UploadPart", err)
	}
	tmpPath, err := g.nextTempPath()
	if err != nil {
		return "", internalError("UploadPart", err)
	}
	writer, err := storage.NewFileWriter(tmpPath, partPath)
	if err != nil {
		return "", internalError("UploadPart", err)
	}
	defer writer.Discard()

	hasher := checksum.NewHasher()
	buf := bufpool.Get(bufpool.LargeSize)
	_, err = io.CopyBuffer(io.MultiWriter(writer, hasher), in.Body, buf)
	bufpool.Put(buf)
	if err != nil {
		return "", newError(CodeIncompleteBody, "failed to read request body: %v", err)
	}

	if err := writer.Commit(); err != nil {
		return "", internalError("UploadPart", err)
	}

	etag, _ := hasher.Sum()
	err = g.catalog.UpsertPart(ctx, catalog.PartRecord{
		UploadID:     in.UploadID,
		PartNumber:   in.PartNumber,
		MD5:          etag,
		DataLocation: partPath,
	})
	if err != nil {
		return "", internalError("UploadPart", err)
	}

	logger.DebugCtx(ctx, "Stored part",
		logger.UploadID(in.UploadID), logger.PartNumber(in.PartNumber), logger.ETag(etag))
	return etag, nil
}

// PartInfo is one entry in a ListParts response.
type PartInfo struct {
	PartNumber   int
	LastModified time.Time
	ETag         string
	Size         int64
}

// ListParts returns the registered parts of an upload ordered by part
// number, with sizes from a stat of each part file. No ownership check:
// only the mutating operations are bound to the initiating access key.
func (g *Gateway) ListParts(ctx context.Context, uploadID string) ([]PartInfo, error) {
	if err := parseUploadID(uploadID); err != nil {
		return nil, err
	}
	if _, err := g.catalog.GetMultipart(ctx, uploadID); err != nil {
		if isCatalogNotFound(err) {
			return nil, newError(CodeNoSuchUpload, "upload %s does not exist", uploadID)
		}
		return nil, internalError("ListParts", err)
	}

	records, err := g.catalog.ListParts(ctx, uploadID)
	if err != nil {
		return nil, internalError("ListParts", err)
	}

	out := make([]PartInfo, 0, len(records))
	for _, record := range records {
		info, err := os.Stat(record.DataLocation)
		if err != nil {
			return nil, internalError("ListParts", err)
		}
		out = append(out, PartInfo{
			PartNumber:   record.PartNumber,
			LastModified: record.LastModified,
			ETag:         record.MD5,
			Size:         info.Size(),
		})
	}
	return out, nil
}

// CompleteMultipartUploadInput finishes an upload. PartNumbers is the
// client's completion list; it must be non-empty but the catalog's part
// registry is what actually gets assembled, in part-number order.
type CompleteMultipartUploadInput struct {
	Bucket      string
	Key         string
	UploadID    string
	PartNumbers []int
	AccessKey   string
}

// CompleteMultipartUploadOutput reports the assembled object's ETag.
type CompleteMultipartUploadOutput struct {
	ETag string
}

// CompleteMultipartUpload concatenates the registered part files in part
// number order into the object path through an atomic writer, consuming
// each part file as it goes, then upserts the object row with the metadata
// captured at initiate time and destroys the upload registration.
//
// The ETag is the plain MD5 of the assembled bytes, computed by re-reading
// the published file. This differs from the AWS multipart ETag format;
// clients that validate the -N suffix convention will notice.
func (g *Gateway) CompleteMultipartUpload(ctx context.Context, in CompleteMultipartUploadInput) (*CompleteMultipartUploadOutput, error) {
	if len(in.PartNumbers) == 0 {
		return nil, newError(CodeInvalidPart, "completion requires at least one part")
	}
	if err := parseUploadID(in.UploadID); err != nil {
		return nil, err
	}
	if err := g.verifyUploadOwner(ctx, in.UploadID, in.AccessKey); err != nil {
		return nil, err
	}

	upload, err := g.catalog.GetMultipart(ctx, in.UploadID)
	if err != nil {
		if isCatalogNotFound(err) {
			return nil, newError(CodeAccessDenied, "upload %s is not accessible", in.UploadID)
		}
		return nil, internalError("CompleteMultipartUpload", err)
	}

	parts, err := g.catalog.ListParts(ctx, in.UploadID)
	if err != nil {
		return nil, internalError("CompleteMultipartUpload", err)
	}

	destPath, err := g.resolveObject(in.Bucket, in.Key)
	if err != nil {
		return nil, err
	}
	tmpPath, err := g.nextTempPath()
	if err != nil {
		return nil, internalError("CompleteMultipartUpload", err)
	}
	writer, err := storage.NewFileWriter(tmpPath, destPath)
	if err != nil {
		return nil, internalError("CompleteMultipartUpload", err)
	}
	defer writer.Discard()

	buf := bufpool.Get(bufpool.LargeSize)
	defer bufpool.Put(buf)
	for _, part := range parts {
		if err := appendPartFile(writer, part.DataLocation, buf); err != nil {
			return nil, internalError("CompleteMultipartUpload", err)
		}
	}

	if err := writer.Commit(); err != nil {
		return nil, internalError("CompleteMultipartUpload", err)
	}

	etag, err := fileMD5(destPath)
	if err != nil {
		return nil, internalError("CompleteMultipartUpload", err)
	}

	internalInfo, err := checksum.EncodeInternalInfo(checksum.Set{})
	if err != nil {
		return nil, internalError("CompleteMultipartUpload", err)
	}
	err = g.catalog.UpsertObject(ctx, catalog.ObjectRecord{
		Bucket:       in.Bucket,
		Key:          in.Key,
		Metadata:     upload.Metadata,
		InternalInfo: internalInfo,
		ETag:         etag,
		DataLocation: in.Bucket + "/" + in.Key,
	})
	if err != nil {
		return nil, internalError("CompleteMultipartUpload", err)
	}

	if err := g.catalog.DeleteMultipart(ctx, in.UploadID); err != nil {
		return nil, internalError("CompleteMultipartUpload", err)
	}

	logger.InfoCtx(ctx, "Completed multipart upload",
		logger.Bucket(in.Bucket), logger.Key(in.Key),
		logger.UploadID(in.UploadID), logger.ETag(etag), logger.KeyCount, len(parts))
	return &CompleteMultipartUploadOutput{ETag: etag}, nil
}

// appendPartFile copies one part file into the writer and removes it. The
// part file is gone once consumed, so a crash mid-assembly loses the upload;
// the temp-file guard still keeps the destination consistent.
func appendPartFile(writer *storage.FileWriter, path string, buf []byte) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	_, err = io.CopyBuffer(writer, file, buf)
	_ = file.Close()
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// fileMD5 re-reads a published file and returns its hex MD5.
func fileMD5(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := checksum.NewHasher()
	buf := bufpool.Get(bufpool.MediumSize)
	defer bufpool.Put(buf)
	if _, err := io.CopyBuffer(hasher, file, buf); err != nil {
		return "", err
	}
	etag, _ := hasher.Sum()
	return etag, nil
}

// AbortMultipartUploadInput cancels an upload.
type AbortMultipartUploadInput struct {
	Bucket    string
	UploadID  string
	AccessKey string
}

// AbortMultipartUpload deletes the upload's part files and its catalog
// registration. An upload with no registered parts reports NoSuchUpload and
// leaves the upload row, if any, in place.
func (g *Gateway) AbortMultipartUpload(ctx context.Context, in AbortMultipartUploadInput) error {
	if err := g.HeadBucket(ctx, in.Bucket); err != nil {
		return err
	}
	if err := parseUploadID(in.UploadID); err != nil {
		return err
	}
	if err := g.verifyUploadOwner(ctx, in.UploadID, in.AccessKey); err != nil {
		return err
	}

	parts, err := g.catalog.ListParts(ctx, in.UploadID)
	if err != nil {
		return internalError("AbortMultipartUpload", err)
	}
	if len(parts) == 0 {
		return newError(CodeNoSuchUpload, "upload %s has no parts", in.UploadID)
	}

	for _, part := range parts {
		if err := os.Remove(part.DataLocation); err != nil && !os.IsNotExist(err) {
			return internalError("AbortMultipartUpload", err)
		}
	}

	if err := g.catalog.DeleteMultipart(ctx, in.UploadID); err != nil {
		return internalError("AbortMultipartUpload", err)
	}

	logger.DebugCtx(ctx, "Aborted multipart upload",
		logger.Bucket(in.Bucket), logger.UploadID(in.UploadID), logger.KeyCount, len(parts))
	return nil
}

// ListMultipartUploads returns every in-flight upload, oldest first. Used
// by operator tooling rather than the S3 surface.
func (g *Gateway) ListMultipartUploads(ctx context.Context) ([]catalog.MultipartRecord, error) {
	uploads, err := g.catalog.ListMultipartUploads(ctx)
	if err != nil {
		return nil, internalError("ListMultipartUploads", err)
	}
	return uploads, nil
}
