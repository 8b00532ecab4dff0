package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// S3Metrics records per-operation counters, latencies and transfer volumes
// for the S3 surface. A nil *S3Metrics is valid and records nothing.
type S3Metrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTransferred  *prometheus.CounterVec
	activeUploads     prometheus.Gauge
}

// NewS3Metrics creates the S3 operation metrics on the shared registry.
// Returns nil when metrics are disabled.
func NewS3Metrics() *S3Metrics {
	reg := GetRegistry()
	if reg == nil {
		return nil
	}

	return &S3Metrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelf_s3_operations_total",
				Help: "Total number of S3 operations by operation type and status",
			},
			[]string{"operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "shelf_s3_operation_duration_milliseconds",
				Help: "Duration of S3 operations in milliseconds",
				Buckets: []float64{
					10,    // fast metadata operations
					50,    // small object transfers
					100,   // typical puts
					500,   // large objects
					1000,  // very large objects
					5000,  // multipart completes
					30000, // worst-case assemblies
				},
			},
			[]string{"operation"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelf_s3_bytes_transferred_total",
				Help: "Total bytes transferred by operation type",
			},
			[]string{"operation"},
		),
		activeUploads: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "shelf_s3_multipart_uploads_active",
				Help: "Multipart uploads currently in flight",
			},
		),
	}
}

// ObserveOperation records one S3 operation with its duration and outcome.
func (m *S3Metrics) ObserveOperation(operation string, duration time.Duration, status int) {
	if m == nil {
		return
	}

	outcome := "success"
	if status >= 400 {
		outcome = "error"
	}
	m.operationsTotal.WithLabelValues(operation, outcome).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(float64(duration.Milliseconds()))
}

// RecordBytes adds transferred payload bytes for one operation.
func (m *S3Metrics) RecordBytes(operation string, bytes int64) {
	if m == nil || bytes <= 0 {
		return
	}
	m.bytesTransferred.WithLabelValues(operation).Add(float64(bytes))
}

// RecordUploadStarted notes a multipart upload entering flight.
func (m *S3Metrics) RecordUploadStarted() {
	if m == nil {
		return
	}
	m.activeUploads.Inc()
}

// RecordUploadFinished notes a multipart upload completing or aborting.
func (m *S3Metrics) RecordUploadFinished() {
	if m == nil {
		return
	}
	m.activeUploads.Dec()
}
