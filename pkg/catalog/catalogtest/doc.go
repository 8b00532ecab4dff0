// Package catalogtest provides a conformance test suite for catalog drivers.
//
// All catalog drivers (memory, badger, gorm, postgres) should pass these
// tests. The suite verifies that every driver satisfies the Catalog
// behavioral contract, catching regressions when driver code changes.
//
// Usage:
//
//	func TestConformance(t *testing.T) {
//	    catalogtest.RunConformanceSuite(t, func(t *testing.T) catalog.Catalog {
//	        return memory.New()
//	    })
//	}
//
// The factory function receives *testing.T so it can call t.TempDir() for
// drivers that need filesystem paths (e.g., BadgerDB) and t.Cleanup for
// teardown.
package catalogtest
