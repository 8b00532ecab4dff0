package catalogtest

import (
	"testing"

	"github.com/marmos91/shelf/pkg/catalog"
)

// Factory creates a fresh Catalog instance for each test. The factory
// receives *testing.T so it can use t.TempDir() for drivers that need
// filesystem paths and t.Cleanup() for teardown.
type Factory func(t *testing.T) catalog.Catalog

// RunConformanceSuite runs the full conformance test suite against the
// provided driver factory. Each test gets a fresh catalog to ensure
// isolation.
//
// The suite covers two categories:
//   - ObjectOps: object row upsert/get, prefix listing, bucket listing
//   - MultipartOps: upload registry, access-key binding, part rows,
//     cascade delete
func RunConformanceSuite(t *testing.T, factory Factory) {
	t.Helper()

	t.Run("ObjectOps", func(t *testing.T) {
		runObjectOpsTests(t, factory)
	})

	t.Run("MultipartOps", func(t *testing.T) {
		runMultipartOpsTests(t, factory)
	})

	t.Run("Ping", func(t *testing.T) {
		cat := factory(t)
		if err := cat.Ping(t.Context()); err != nil {
			t.Fatalf("Ping() failed: %v", err)
		}
	})
}

// objectRecord builds a plausible object row for tests.
func objectRecord(bucket, key, etag string) catalog.ObjectRecord {
	return catalog.ObjectRecord{
		Bucket:       bucket,
		Key:          key,
		Metadata:     `{"author":"conformance"}`,
		InternalInfo: "{}",
		ETag:         etag,
		DataLocation: bucket + "/" + key,
	}
}
