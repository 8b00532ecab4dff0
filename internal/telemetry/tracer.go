package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for gateway operations.
// HTTP and client keys follow OpenTelemetry semantic conventions; S3 and
// storage keys use their own prefixes.
const (
	// Client attributes
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"

	// HTTP attributes
	AttrHTTPMethod = "http.request.method"
	AttrHTTPStatus = "http.response.status_code"
	AttrHTTPPath   = "url.path"
	AttrRequestID  = "request.id"

	// S3 attributes
	AttrS3Operation  = "s3.operation"
	AttrS3Bucket     = "s3.bucket"
	AttrS3Key        = "s3.key"
	AttrS3Prefix     = "s3.prefix"
	AttrS3UploadID   = "s3.upload_id"
	AttrS3PartNumber = "s3.part_number"
	AttrS3ETag       = "s3.etag"
	AttrS3ErrorCode  = "s3.error_code"
	AttrAccessKey    = "auth.access_key"

	// Storage attributes
	AttrStoragePath  = "storage.path"
	AttrStorageSize  = "storage.size"
	AttrBytesRead    = "storage.bytes_read"
	AttrBytesWritten = "storage.bytes_written"

	// Catalog attributes
	AttrCatalogDriver = "catalog.driver"
	AttrCatalogOp     = "catalog.operation"
)

// Span names.
// Format: <component>.<operation>
const (
	// Root span for S3 request processing
	SpanS3Request = "s3.request"

	// Gateway pipeline spans
	SpanGatewayPut      = "gateway.put_object"
	SpanGatewayGet      = "gateway.get_object"
	SpanGatewayHead     = "gateway.head_object"
	SpanGatewayList     = "gateway.list_objects"
	SpanGatewayInitiate = "gateway.initiate_multipart"
	SpanGatewayPart     = "gateway.upload_part"
	SpanGatewayComplete = "gateway.complete_multipart"
	SpanGatewayAbort    = "gateway.abort_multipart"

	// Catalog span prefix, suffixed with the catalog operation
	SpanCatalogPrefix = "catalog."

	// Storage spans
	SpanStorageWrite = "storage.write"
	SpanStorageRead  = "storage.read"
	SpanStorageSweep = "storage.sweep"
)

// ClientIP returns a client IP attribute
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// ClientAddr returns a client address (ip:port) attribute
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// HTTPMethod returns an HTTP method attribute
func HTTPMethod(method string) attribute.KeyValue {
	return attribute.String(AttrHTTPMethod, method)
}

// HTTPStatus returns an HTTP status code attribute
func HTTPStatus(code int) attribute.KeyValue {
	return attribute.Int(AttrHTTPStatus, code)
}

// RequestID returns a request ID attribute
func RequestID(id string) attribute.KeyValue {
	return attribute.String(AttrRequestID, id)
}

// S3Operation returns an S3 operation name attribute
func S3Operation(op string) attribute.KeyValue {
	return attribute.String(AttrS3Operation, op)
}

// Bucket returns a bucket name attribute
func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrS3Bucket, name)
}

// Key returns an object key attribute
func Key(key string) attribute.KeyValue {
	return attribute.String(AttrS3Key, key)
}

// Prefix returns a listing prefix attribute
func Prefix(prefix string) attribute.KeyValue {
	return attribute.String(AttrS3Prefix, prefix)
}

// UploadID returns a multipart upload ID attribute
func UploadID(id string) attribute.KeyValue {
	return attribute.String(AttrS3UploadID, id)
}

// PartNumber returns a multipart part number attribute
func PartNumber(n int) attribute.KeyValue {
	return attribute.Int(AttrS3PartNumber, n)
}

// ETag returns an entity tag attribute
func ETag(etag string) attribute.KeyValue {
	return attribute.String(AttrS3ETag, etag)
}

// ErrorCode returns an S3 error code attribute
func ErrorCode(code string) attribute.KeyValue {
	return attribute.String(AttrS3ErrorCode, code)
}

// AccessKeyID returns an access key attribute
func AccessKeyID(id string) attribute.KeyValue {
	return attribute.String(AttrAccessKey, id)
}

// StoragePath returns a filesystem path attribute
func StoragePath(p string) attribute.KeyValue {
	return attribute.String(AttrStoragePath, p)
}

// StorageSize returns a size attribute
func StorageSize(n int64) attribute.KeyValue {
	return attribute.Int64(AttrStorageSize, n)
}

// BytesRead returns a bytes-read attribute
func BytesRead(n int64) attribute.KeyValue {
	return attribute.Int64(AttrBytesRead, n)
}

// BytesWritten returns a bytes-written attribute
func BytesWritten(n int64) attribute.KeyValue {
	return attribute.Int64(AttrBytesWritten, n)
}

// CatalogDriver returns a catalog driver attribute
func CatalogDriver(name string) attribute.KeyValue {
	return attribute.String(AttrCatalogDriver, name)
}

// StartRequestSpan starts the root span for an S3 request.
func StartRequestSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{S3Operation(operation)}, attrs...)
	return StartSpan(ctx, SpanS3Request,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(all...),
	)
}

// StartGatewaySpan starts a span for a gateway pipeline stage.
func StartGatewaySpan(ctx context.Context, name, bucket, key string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{Bucket(bucket), Key(key)}, attrs...)
	return StartSpan(ctx, name, trace.WithAttributes(all...))
}

// StartCatalogSpan starts a span for a catalog operation, e.g. "upsert_object".
func StartCatalogSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{attribute.String(AttrCatalogOp, operation)}, attrs...)
	return StartSpan(ctx, fmt.Sprintf("%s%s", SpanCatalogPrefix, operation), trace.WithAttributes(all...))
}
