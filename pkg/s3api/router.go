package s3api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/shelf/pkg/gateway"
	"github.com/marmos91/shelf/pkg/metrics"
)

// handler holds the protocol layer's collaborators. All state lives in the
// gateway; handlers are stateless translators.
type handler struct {
	gateway *gateway.Gateway
	metrics *metrics.S3Metrics
}

// NewRouter builds the S3 routing tree.
//
// Dispatch is method + query-marker based, the way the S3 API is shaped:
// the path only distinguishes service, bucket and object level, while
// `?location`, `?list-type=2`, `?uploads`, `?uploadId` and `?partNumber`
// select the operation. Anything outside the supported surface answers
// NotImplemented.
func NewRouter(gw *gateway.Gateway, cfg Config, m *metrics.S3Metrics) http.Handler {
	h := &handler{gateway: gw, metrics: m}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hostRewrite(cfg.Domains))
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(authenticate(cfg))

	r.HandleFunc("/", h.service)
	r.HandleFunc("/{bucket}", h.bucket)
	r.HandleFunc("/{bucket}/*", h.object)

	return r
}

func (h *handler) service(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, codeMethodNotAllowed, "The specified method is not allowed against this resource.")
		return
	}
	h.instrument(w, r, "ListBuckets", h.listBuckets)
}

func (h *handler) bucket(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	switch r.Method {
	case http.MethodGet:
		switch {
		case query.Has("location"):
			h.instrument(w, r, "GetBucketLocation", h.getBucketLocation)
		case query.Get("list-type") == "2":
			h.instrument(w, r, "ListObjectsV2", h.listObjectsV2)
		case query.Has("uploads"):
			writeError(w, r, codeNotImplemented, "ListMultipartUploads is not implemented.")
		default:
			h.instrument(w, r, "ListObjects", h.listObjectsV1)
		}
	case http.MethodHead:
		h.instrument(w, r, "HeadBucket", h.headBucket)
	default:
		writeError(w, r, codeNotImplemented, "This bucket operation is not implemented.")
	}
}

func (h *handler) object(w http.ResponseWriter, r *http.Request) {
	if objectKey(r) == "" {
		// Virtual-host rewrites of "/" land here with an empty remainder.
		h.bucket(w, r)
		return
	}

	query := r.URL.Query()

	switch r.Method {
	case http.MethodGet:
		if query.Has("uploadId") {
			h.instrument(w, r, "ListParts", h.listParts)
			return
		}
		h.instrument(w, r, "GetObject", h.getObject)
	case http.MethodHead:
		h.instrument(w, r, "HeadObject", h.headObject)
	case http.MethodPut:
		if query.Has("partNumber") && query.Has("uploadId") {
			h.instrument(w, r, "UploadPart", h.uploadPart)
			return
		}
		if r.Header.Get("X-Amz-Copy-Source") != "" {
			writeError(w, r, codeNotImplemented, "CopyObject is not implemented.")
			return
		}
		h.instrument(w, r, "PutObject", h.putObject)
	case http.MethodPost:
		switch {
		case query.Has("uploads"):
			h.instrument(w, r, "CreateMultipartUpload", h.createMultipartUpload)
		case query.Has("uploadId"):
			h.instrument(w, r, "CompleteMultipartUpload", h.completeMultipartUpload)
		default:
			writeError(w, r, codeNotImplemented, "This object operation is not implemented.")
		}
	case http.MethodDelete:
		if query.Has("uploadId") {
			h.instrument(w, r, "AbortMultipartUpload", h.abortMultipartUpload)
			return
		}
		writeError(w, r, codeNotImplemented, "DeleteObject is not implemented.")
	default:
		writeError(w, r, codeNotImplemented, "This object operation is not implemented.")
	}
}

// bucketName extracts the bucket path parameter, decoded.
func bucketName(r *http.Request) string {
	return chi.URLParam(r, "bucket")
}

// objectKey extracts the key from the raw escaped path remainder. Going
// through the escaped form keeps encoded separators intact until the single
// decode here; chi's wildcard value would have been path-cleaned.
func objectKey(r *http.Request) string {
	escaped := r.URL.EscapedPath()
	escaped = strings.TrimPrefix(escaped, "/")
	_, rawKey, _ := strings.Cut(escaped, "/")
	key, err := url.PathUnescape(rawKey)
	if err != nil {
		return rawKey
	}
	return key
}
