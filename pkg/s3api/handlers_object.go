package s3api

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/marmos91/shelf/internal/logger"
	"github.com/marmos91/shelf/pkg/bufpool"
	"github.com/marmos91/shelf/pkg/checksum"
	"github.com/marmos91/shelf/pkg/gateway"
)

const metadataHeaderPrefix = "x-amz-meta-"

// userMetadata collects x-amz-meta-* headers into the metadata map, names
// lowercased without the prefix.
func userMetadata(r *http.Request) map[string]string {
	var out map[string]string
	for name, values := range r.Header {
		lower := strings.ToLower(name)
		if !strings.HasPrefix(lower, metadataHeaderPrefix) || len(values) == 0 {
			continue
		}
		if out == nil {
			out = map[string]string{}
		}
		out[strings.TrimPrefix(lower, metadataHeaderPrefix)] = values[0]
	}
	return out
}

// requestChecksums collects the client-supplied x-amz-checksum-* values.
func requestChecksums(r *http.Request) checksum.Set {
	var set checksum.Set
	for _, pick := range []struct {
		header string
		field  **string
	}{
		{"X-Amz-Checksum-Crc32", &set.CRC32},
		{"X-Amz-Checksum-Crc32c", &set.CRC32C},
		{"X-Amz-Checksum-Sha1", &set.SHA1},
		{"X-Amz-Checksum-Sha256", &set.SHA256},
	} {
		if value := r.Header.Get(pick.header); value != "" {
			v := value
			*pick.field = &v
		}
	}
	return set
}

// writeChecksumHeaders emits the stored checksum values.
func writeChecksumHeaders(w http.ResponseWriter, set checksum.Set) {
	if set.CRC32 != nil {
		w.Header().Set("X-Amz-Checksum-Crc32", *set.CRC32)
	}
	if set.CRC32C != nil {
		w.Header().Set("X-Amz-Checksum-Crc32c", *set.CRC32C)
	}
	if set.SHA1 != nil {
		w.Header().Set("X-Amz-Checksum-Sha1", *set.SHA1)
	}
	if set.SHA256 != nil {
		w.Header().Set("X-Amz-Checksum-Sha256", *set.SHA256)
	}
}

func writeMetadataHeaders(w http.ResponseWriter, metadata map[string]string) {
	for name, value := range metadata {
		w.Header().Set(metadataHeaderPrefix+name, value)
	}
}

func (h *handler) putObject(w http.ResponseWriter, r *http.Request) {
	out, err := h.gateway.PutObject(r.Context(), gateway.PutObjectInput{
		Bucket:        bucketName(r),
		Key:           objectKey(r),
		Body:          r.Body,
		ContentLength: r.ContentLength,
		Metadata:      userMetadata(r),
		Checksums:     requestChecksums(r),
	})
	if err != nil {
		writeGatewayError(w, r, err)
		return
	}

	h.metrics.RecordBytes("PutObject", r.ContentLength)
	if out.ETag != "" {
		w.Header().Set("ETag", quoteETag(out.ETag))
	}
	writeChecksumHeaders(w, out.Checksums)
	w.WriteHeader(http.StatusOK)
}

func (h *handler) getObject(w http.ResponseWriter, r *http.Request) {
	byteRange, err := gateway.ParseRange(r.Header.Get("Range"))
	if err != nil {
		writeError(w, r, string(gateway.CodeInvalidRange), err.Error())
		return
	}

	out, err := h.gateway.GetObject(r.Context(), gateway.GetObjectInput{
		Bucket: bucketName(r),
		Key:    objectKey(r),
		Range:  byteRange,
	})
	if err != nil {
		writeGatewayError(w, r, err)
		return
	}
	defer out.Body.Close()

	header := w.Header()
	header.Set("Accept-Ranges", "bytes")
	header.Set("Content-Type", "application/octet-stream")
	header.Set("Content-Length", strconv.FormatInt(out.ContentLength, 10))
	header.Set("ETag", quoteETag(out.ETag))
	header.Set("Last-Modified", out.LastModified.UTC().Format(http.TimeFormat))
	writeMetadataHeaders(w, out.Metadata)
	writeChecksumHeaders(w, out.Checksums)

	status := http.StatusOK
	if out.ContentRange != "" {
		header.Set("Content-Range", out.ContentRange)
		status = http.StatusPartialContent
	}
	w.WriteHeader(status)

	buf := bufpool.Get(bufpool.LargeSize)
	written, err := io.CopyBuffer(w, out.Body, buf)
	bufpool.Put(buf)
	if err != nil {
		// Headers are long gone; nothing to do but note the broken stream.
		logger.DebugCtx(r.Context(), "Object stream interrupted",
			logger.KeyBytesWritten, written, logger.Err(err))
		return
	}
	h.metrics.RecordBytes("GetObject", written)
}

func (h *handler) headObject(w http.ResponseWriter, r *http.Request) {
	out, err := h.gateway.HeadObject(r.Context(), bucketName(r), objectKey(r))
	if err != nil {
		w.WriteHeader(statusOf[string(gateway.CodeOf(err))])
		return
	}

	header := w.Header()
	header.Set("Accept-Ranges", "bytes")
	header.Set("Content-Type", "application/octet-stream")
	header.Set("Content-Length", strconv.FormatInt(out.ContentLength, 10))
	header.Set("ETag", quoteETag(out.ETag))
	header.Set("Last-Modified", out.LastModified.UTC().Format(http.TimeFormat))
	writeMetadataHeaders(w, out.Metadata)
	writeChecksumHeaders(w, out.Checksums)
	w.WriteHeader(http.StatusOK)
}
