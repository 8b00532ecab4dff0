package s3api

import (
	"encoding/xml"
	"net/http"
	"strconv"

	"github.com/marmos91/shelf/pkg/gateway"
)

func (h *handler) createMultipartUpload(w http.ResponseWriter, r *http.Request) {
	bucket := bucketName(r)
	key := objectKey(r)

	uploadID, err := h.gateway.CreateMultipartUpload(r.Context(), gateway.CreateMultipartUploadInput{
		Bucket:    bucket,
		Key:       key,
		Metadata:  userMetadata(r),
		AccessKey: AccessKeyFrom(r.Context()),
	})
	if err != nil {
		writeGatewayError(w, r, err)
		return
	}

	h.metrics.RecordUploadStarted()
	writeXML(w, r, http.StatusOK, initiateMultipartUploadResult{
		Xmlns:    s3Namespace,
		Bucket:   bucket,
		Key:      key,
		UploadID: uploadID,
	})
}

func (h *handler) uploadPart(w http.ResponseWriter, r *http.Request) {
	partNumber, err := strconv.Atoi(r.URL.Query().Get("partNumber"))
	if err != nil {
		writeError(w, r, string(gateway.CodeInvalidRequest), "partNumber must be an integer.")
		return
	}

	etag, err := h.gateway.UploadPart(r.Context(), gateway.UploadPartInput{
		UploadID:   r.URL.Query().Get("uploadId"),
		PartNumber: partNumber,
		Body:       r.Body,
		AccessKey:  AccessKeyFrom(r.Context()),
	})
	if err != nil {
		writeGatewayError(w, r, err)
		return
	}

	h.metrics.RecordBytes("UploadPart", r.ContentLength)
	w.Header().Set("ETag", quoteETag(etag))
	w.WriteHeader(http.StatusOK)
}

func (h *handler) listParts(w http.ResponseWriter, r *http.Request) {
	uploadID := r.URL.Query().Get("uploadId")

	parts, err := h.gateway.ListParts(r.Context(), uploadID)
	if err != nil {
		writeGatewayError(w, r, err)
		return
	}

	result := listPartsResult{
		Xmlns:    s3Namespace,
		Bucket:   bucketName(r),
		Key:      objectKey(r),
		UploadID: uploadID,
	}
	for _, part := range parts {
		result.Parts = append(result.Parts, partEntry{
			PartNumber:   part.PartNumber,
			LastModified: amzTime(part.LastModified),
			ETag:         quoteETag(part.ETag),
			Size:         part.Size,
		})
	}
	writeXML(w, r, http.StatusOK, result)
}

func (h *handler) completeMultipartUpload(w http.ResponseWriter, r *http.Request) {
	var request completeMultipartUpload
	if err := xml.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, r, string(gateway.CodeInvalidRequest), "The completion body is not well-formed XML.")
		return
	}

	partNumbers := make([]int, 0, len(request.Parts))
	for _, part := range request.Parts {
		partNumbers = append(partNumbers, part.PartNumber)
	}

	bucket := bucketName(r)
	key := objectKey(r)
	out, err := h.gateway.CompleteMultipartUpload(r.Context(), gateway.CompleteMultipartUploadInput{
		Bucket:      bucket,
		Key:         key,
		UploadID:    r.URL.Query().Get("uploadId"),
		PartNumbers: partNumbers,
		AccessKey:   AccessKeyFrom(r.Context()),
	})
	if err != nil {
		writeGatewayError(w, r, err)
		return
	}

	h.metrics.RecordUploadFinished()
	writeXML(w, r, http.StatusOK, completeMultipartUploadResult{
		Xmlns:    s3Namespace,
		Location: "/" + bucket + "/" + key,
		Bucket:   bucket,
		Key:      key,
		ETag:     quoteETag(out.ETag),
	})
}

func (h *handler) abortMultipartUpload(w http.ResponseWriter, r *http.Request) {
	err := h.gateway.AbortMultipartUpload(r.Context(), gateway.AbortMultipartUploadInput{
		Bucket:    bucketName(r),
		UploadID:  r.URL.Query().Get("uploadId"),
		AccessKey: AccessKeyFrom(r.Context()),
	})
	if err != nil {
		writeGatewayError(w, r, err)
		return
	}

	h.metrics.RecordUploadFinished()
	w.WriteHeader(http.StatusNoContent)
}
