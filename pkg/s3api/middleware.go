package s3api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/codes"

	"github.com/marmos91/shelf/internal/logger"
	"github.com/marmos91/shelf/internal/telemetry"
)

// requestLogger logs request completion with the standard fields and stamps
// the request id onto the response.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())
		w.Header().Set("X-Amz-Request-Id", requestID)

		logger.Debug("Request started",
			logger.RequestID(requestID),
			logger.KeyMethod, r.Method,
			logger.KeyHTTPPath, r.URL.Path,
			logger.KeyClientIP, r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Info("Request completed",
			logger.RequestID(requestID),
			logger.KeyMethod, r.Method,
			logger.KeyHTTPPath, r.URL.Path,
			logger.Status(ww.Status()),
			logger.KeyBytesWritten, ww.BytesWritten(),
			logger.DurationMs(logger.Duration(start)),
		)
	})
}

// instrument runs one operation handler under a span and a metrics
// observation. It relies on requestLogger having wrapped the response
// writer; a bare writer gets wrapped again.
func (h *handler) instrument(w http.ResponseWriter, r *http.Request, operation string, fn http.HandlerFunc) {
	start := time.Now()

	ww, ok := w.(middleware.WrapResponseWriter)
	if !ok {
		ww = middleware.NewWrapResponseWriter(w, r.ProtoMajor)
	}

	ctx, span := telemetry.StartSpan(r.Context(), "s3."+operation)
	span.SetAttributes(
		telemetry.S3Operation(operation),
		telemetry.HTTPMethod(r.Method),
	)
	defer span.End()

	fn(ww, r.WithContext(ctx))

	status := ww.Status()
	if status == 0 {
		status = http.StatusOK
	}
	span.SetAttributes(telemetry.HTTPStatus(status))
	if status >= 500 {
		span.SetStatus(codes.Error, http.StatusText(status))
	}

	h.metrics.ObserveOperation(operation, time.Since(start), status)
}
