package s3api

import (
	"net/http"

	"github.com/marmos91/shelf/pkg/gateway"
)

func (h *handler) listBuckets(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.gateway.ListBuckets(r.Context())
	if err != nil {
		writeGatewayError(w, r, err)
		return
	}

	result := listAllMyBucketsResult{
		Xmlns: s3Namespace,
		Owner: owner{ID: "shelf", DisplayName: "shelf"},
	}
	for _, bucket := range buckets {
		result.Buckets = append(result.Buckets, bucketEntry{
			Name:         bucket.Name,
			CreationDate: amzTime(bucket.CreationDate),
		})
	}
	writeXML(w, r, http.StatusOK, result)
}

func (h *handler) getBucketLocation(w http.ResponseWriter, r *http.Request) {
	if err := h.gateway.HeadBucket(r.Context(), bucketName(r)); err != nil {
		writeGatewayError(w, r, err)
		return
	}
	// The empty constraint is the wire spelling of the default region.
	writeXML(w, r, http.StatusOK, locationConstraint{Xmlns: s3Namespace})
}

func (h *handler) headBucket(w http.ResponseWriter, r *http.Request) {
	if err := h.gateway.HeadBucket(r.Context(), bucketName(r)); err != nil {
		// HEAD responses carry no body; the status alone answers.
		w.WriteHeader(statusOf[string(gateway.CodeOf(err))])
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *handler) listObjectsV2(w http.ResponseWriter, r *http.Request) {
	h.listObjects(w, r, true)
}

func (h *handler) listObjectsV1(w http.ResponseWriter, r *http.Request) {
	h.listObjects(w, r, false)
}

func (h *handler) listObjects(w http.ResponseWriter, r *http.Request, v2 bool) {
	query := r.URL.Query()
	bucket := bucketName(r)
	prefix := query.Get("prefix")

	out, err := h.gateway.ListObjects(r.Context(), bucket, prefix)
	if err != nil {
		writeGatewayError(w, r, err)
		return
	}

	result := listBucketResult{
		Xmlns:        s3Namespace,
		Name:         bucket,
		Prefix:       prefix,
		Delimiter:    query.Get("delimiter"),
		EncodingType: query.Get("encoding-type"),
		// MaxKeys mirrors the returned count rather than the requested
		// page size; with no pagination there is only ever one page.
		MaxKeys:     len(out.Objects),
		IsTruncated: false,
	}
	for _, object := range out.Objects {
		result.Contents = append(result.Contents, objectEntry{
			Key:          object.Key,
			LastModified: amzTime(object.LastModified),
			ETag:         quoteETag(object.ETag),
			Size:         object.Size,
			StorageClass: "STANDARD",
		})
	}

	if v2 {
		count := len(out.Objects)
		result.KeyCount = &count
	} else {
		marker := query.Get("marker")
		result.Marker = &marker
	}
	writeXML(w, r, http.StatusOK, result)
}
