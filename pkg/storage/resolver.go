// Package storage owns the on-disk side of the gateway: resolving catalog
// locations to absolute paths under a single root, validating object keys,
// the atomic temp-file writer, and the startup sweep that removes leftover
// temp files.
//
// Naming conventions under the root:
//
//	{bucket}/{key}                     object data files
//	.tmp.{counter}.internal.part       atomic-write stage files (transient)
//	.upload_id-{uuid}.part-{n}         multipart part stage files
package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrPathEscapes is returned (wrapped) when a resolved path would land
// outside the storage root. The protocol layer reports it as InvalidRequest.
var ErrPathEscapes = errors.New("path escapes storage root")

// Resolver maps relative locations to absolute paths under one root
// directory. Resolution is purely lexical: no symlinks are followed and no
// filesystem access happens here.
type Resolver struct {
	root string
}

// NewResolver returns a resolver rooted at the given directory. The root is
// made absolute but is not required to exist yet.
func NewResolver(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to absolutize root %q: %w", root, err)
	}
	return &Resolver{root: abs}, nil
}

// Root returns the absolute root directory.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve joins a relative location onto the root. It fails with
// ErrPathEscapes when the input is absolute, empty, or would traverse
// outside the root.
func (r *Resolver) Resolve(relative string) (string, error) {
	if relative == "" || filepath.IsAbs(relative) {
		return "", fmt.Errorf("%w: %q", ErrPathEscapes, relative)
	}

	joined := filepath.Join(r.root, relative)

	rel, err := filepath.Rel(r.root, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrPathEscapes, relative)
	}
	return joined, nil
}

// ObjectPath resolves the data file for (bucket, key).
func (r *Resolver) ObjectPath(bucket, key string) (string, error) {
	return r.Resolve(bucket + "/" + key)
}

// BucketPath resolves the bucket directory.
func (r *Resolver) BucketPath(bucket string) (string, error) {
	return r.Resolve(bucket)
}

// PartPath resolves the stage file for one part of a multipart upload.
func (r *Resolver) PartPath(uploadID string, partNumber int) (string, error) {
	return r.Resolve(fmt.Sprintf(".upload_id-%s.part-%d", uploadID, partNumber))
}

// TempPath resolves an atomic-write stage file for the given counter value.
func (r *Resolver) TempPath(counter uint64) (string, error) {
	return r.Resolve(fmt.Sprintf(".tmp.%d.internal.part", counter))
}
