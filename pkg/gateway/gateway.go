// Package gateway implements the object store core behind the S3 surface:
// the write and read pipelines, bucket and listing semantics, and the
// multipart upload state machine. It owns the pairing between catalog rows
// and data files under the storage root; the protocol layer above it only
// translates HTTP, and the catalog below it only stores rows.
package gateway

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/marmos91/shelf/internal/logger"
	"github.com/marmos91/shelf/pkg/catalog"
	"github.com/marmos91/shelf/pkg/storage"
)

// Gateway coordinates the metadata catalog and the filesystem under one
// storage root. Safe for concurrent use; the temp-file counter is the only
// mutable state.
type Gateway struct {
	catalog  catalog.Catalog
	resolver *storage.Resolver

	// tempCounter numbers atomic-write stage files. Restarts at zero each
	// process; the startup sweep removes strays from previous runs first.
	tempCounter atomic.Uint64
}

// New builds a gateway over an existing storage root. The root directory
// must exist; leftover temp files from a previous run are swept before the
// gateway accepts writes.
func New(root string, cat catalog.Catalog) (*Gateway, error) {
	resolver, err := storage.NewResolver(root)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(resolver.Root())
	if err != nil {
		return nil, fmt.Errorf("storage root %q is not accessible: %w", resolver.Root(), err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage root %q is not a directory", resolver.Root())
	}

	removed, err := storage.RemoveStaleTempFiles(resolver.Root())
	if err != nil {
		logger.Warn("Temp file sweep finished with errors", logger.Err(err), logger.KeyRemoved, removed)
	} else if removed > 0 {
		logger.Info("Removed stale temp files", logger.KeyRemoved, removed)
	}

	return &Gateway{
		catalog:  cat,
		resolver: resolver,
	}, nil
}

// Root returns the absolute storage root.
func (g *Gateway) Root() string {
	return g.resolver.Root()
}

// nextTempPath reserves a fresh atomic-write stage path.
func (g *Gateway) nextTempPath() (string, error) {
	return g.resolver.TempPath(g.tempCounter.Add(1) - 1)
}

// resolveObject maps (bucket, key) to the data file path, translating a
// path escape into a client error.
func (g *Gateway) resolveObject(bucket, key string) (string, error) {
	path, err := g.resolver.ObjectPath(bucket, key)
	if err != nil {
		return "", newError(CodeInvalidRequest, "invalid object path %s/%s", bucket, key)
	}
	return path, nil
}

// internalError logs the cause and returns the opaque wire error.
func internalError(op string, err error) *Error {
	logger.Error("Operation failed", logger.Operation(op), logger.Err(err))
	return &Error{Code: CodeInternalError, Message: "internal error", Err: err}
}
