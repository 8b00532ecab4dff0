package gateway

import (
	"errors"
	"fmt"

	"github.com/marmos91/shelf/pkg/catalog"
)

// Code identifies a domain error. The protocol layer maps codes onto S3
// wire errors and HTTP status codes.
type Code string

const (
	CodeNoSuchBucket      Code = "NoSuchBucket"
	CodeNoSuchKey         Code = "NoSuchKey"
	CodeNoSuchUpload      Code = "NoSuchUpload"
	CodeInvalidRequest    Code = "InvalidRequest"
	CodeInvalidPart       Code = "InvalidPart"
	CodeInvalidRange      Code = "InvalidRange"
	CodeUnexpectedContent Code = "UnexpectedContent"
	CodeBadDigest         Code = "BadDigest"
	CodeAccessDenied      Code = "AccessDenied"
	CodeIncompleteBody    Code = "IncompleteBody"
	CodeInternalError     Code = "InternalError"
)

// Error is a domain error carrying the wire code the protocol layer should
// answer with. The wrapped cause, when present, is for server-side logs
// only and never reaches the client.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError builds a client-attributable domain error.
func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the domain code from an error chain. Errors that are not
// gateway errors count as internal.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternalError
}

// isCatalogNotFound reports whether err is the catalog's row-missing error.
func isCatalogNotFound(err error) bool {
	return errors.Is(err, catalog.ErrNotFound)
}
