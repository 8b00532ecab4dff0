package s3api

import (
	"encoding/xml"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/shelf/internal/logger"
	"github.com/marmos91/shelf/pkg/gateway"
)

// errorResponse is the S3 error body.
type errorResponse struct {
	XMLName   xml.Name `xml:"Error"`
	Code      string   `xml:"Code"`
	Message   string   `xml:"Message"`
	Resource  string   `xml:"Resource"`
	RequestID string   `xml:"RequestId"`
}

// Wire-only error codes produced by the protocol layer itself, never by the
// gateway.
const (
	codeAuthorizationHeaderMalformed = "AuthorizationHeaderMalformed"
	codeInvalidAccessKeyID           = "InvalidAccessKeyId"
	codeSignatureDoesNotMatch        = "SignatureDoesNotMatch"
	codeMethodNotAllowed             = "MethodNotAllowed"
	codeNotImplemented               = "NotImplemented"
)

// statusOf maps every error code on the wire to its HTTP status.
var statusOf = map[string]int{
	string(gateway.CodeNoSuchBucket):      http.StatusNotFound,
	string(gateway.CodeNoSuchKey):         http.StatusNotFound,
	string(gateway.CodeNoSuchUpload):      http.StatusNotFound,
	string(gateway.CodeInvalidRequest):    http.StatusBadRequest,
	string(gateway.CodeInvalidPart):       http.StatusBadRequest,
	string(gateway.CodeUnexpectedContent): http.StatusBadRequest,
	string(gateway.CodeBadDigest):         http.StatusBadRequest,
	string(gateway.CodeIncompleteBody):    http.StatusBadRequest,
	string(gateway.CodeAccessDenied):      http.StatusForbidden,
	string(gateway.CodeInvalidRange):      http.StatusRequestedRangeNotSatisfiable,
	string(gateway.CodeInternalError):     http.StatusInternalServerError,
	codeAuthorizationHeaderMalformed:      http.StatusBadRequest,
	codeInvalidAccessKeyID:                http.StatusForbidden,
	codeSignatureDoesNotMatch:             http.StatusForbidden,
	codeMethodNotAllowed:                  http.StatusMethodNotAllowed,
	codeNotImplemented:                    http.StatusNotImplemented,
}

// writeError serializes one S3 error body. The message of internal errors is
// already opaque; gateway messages for client errors go out as-is.
func writeError(w http.ResponseWriter, r *http.Request, code, message string) {
	status, ok := statusOf[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	writeXML(w, r, status, errorResponse{
		Code:      code,
		Message:   message,
		Resource:  r.URL.Path,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// writeGatewayError translates a gateway error into its wire form.
func writeGatewayError(w http.ResponseWriter, r *http.Request, err error) {
	code := gateway.CodeOf(err)
	message := err.Error()
	if code == gateway.CodeInternalError {
		// The cause was logged at the failing call site; the client gets
		// the opaque form.
		message = "We encountered an internal error. Please try again."
	}

	logger.DebugCtx(r.Context(), "Request failed",
		logger.KeyErrorCode, string(code), logger.Err(err))
	writeError(w, r, string(code), message)
}
