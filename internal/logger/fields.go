package logger

import "log/slog"

// Standard field keys for structured logging. Use these consistently across
// all log statements so aggregated logs stay queryable.
const (
	// Distributed tracing
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// Request
	KeyRequestID = "request_id" // per-request identifier
	KeyOperation = "operation"  // S3 operation name: PutObject, GetObject, ...
	KeyMethod    = "method"     // HTTP method
	KeyHTTPPath  = "http_path"  // raw request path
	KeyStatus    = "status"     // HTTP status code
	KeyErrorCode = "error_code" // S3 error code: NoSuchKey, AccessDenied, ...
	KeyClientIP  = "client_ip"  // client IP address
	KeyUserAgent = "user_agent" // client user agent
	KeyAccessKey = "access_key" // authenticated access key ID

	// Object addressing
	KeyBucket     = "bucket"      // bucket name
	KeyKey        = "key"         // object key
	KeyPrefix     = "prefix"      // listing prefix
	KeyUploadID   = "upload_id"   // multipart upload identifier
	KeyPartNumber = "part_number" // multipart part number
	KeyETag       = "etag"        // object entity tag
	KeyRange      = "range"       // requested byte range

	// I/O
	KeySize         = "size"          // payload size in bytes
	KeyBytesWritten = "bytes_written" // actual bytes written
	KeyBytesRead    = "bytes_read"    // actual bytes read
	KeyPath         = "path"          // filesystem path
	KeyTempPath     = "temp_path"     // staging file path
	KeyRemoved      = "removed"       // entries removed by a sweep

	// Catalog
	KeyDriver   = "driver"   // catalog driver: postgres, sqlite, badger, memory
	KeyHost     = "host"     // database or listen host
	KeyPort     = "port"     // database or listen port
	KeyDatabase = "database" // database name
	KeySchema   = "schema"   // database schema

	// Operation metadata
	KeyDurationMs = "duration_ms" // operation duration in milliseconds
	KeyError      = "error"       // error message
	KeyCount      = "count"       // generic item count
	KeyAttempt    = "attempt"     // retry attempt number
)

// Typed attr constructors for the hot fields.

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// RequestID returns a slog.Attr for the per-request identifier
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// Operation returns a slog.Attr for the S3 operation name
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Bucket returns a slog.Attr for the bucket name
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// Key returns a slog.Attr for the object key
func Key(key string) slog.Attr {
	return slog.String(KeyKey, key)
}

// UploadID returns a slog.Attr for a multipart upload identifier
func UploadID(id string) slog.Attr {
	return slog.String(KeyUploadID, id)
}

// PartNumber returns a slog.Attr for a multipart part number
func PartNumber(n int) slog.Attr {
	return slog.Int(KeyPartNumber, n)
}

// ETag returns a slog.Attr for an object entity tag
func ETag(etag string) slog.Attr {
	return slog.String(KeyETag, etag)
}

// Size returns a slog.Attr for a payload size
func Size(n int64) slog.Attr {
	return slog.Int64(KeySize, n)
}

// Path returns a slog.Attr for a filesystem path
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Status returns a slog.Attr for an HTTP status code
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// Driver returns a slog.Attr for the catalog driver name
func Driver(name string) slog.Attr {
	return slog.String(KeyDriver, name)
}

// DurationMs returns a slog.Attr for a duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error, tolerating nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
