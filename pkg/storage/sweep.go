package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	tempPrefix = ".tmp."
	tempSuffix = ".internal.part"
)

// RemoveStaleTempFiles deletes leftover atomic-write stage files directly
// under root. A crashed process can strand temp files; the counter restarts
// at zero, so the sweep must run before the first write. Multipart part
// files are intentionally left alone: they stay valid across restarts until
// their upload completes or aborts.
//
// Returns the number of files removed. Removal failures are collected, not
// fatal: the sweep keeps going.
func RemoveStaleTempFiles(root string) (int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return 0, fmt.Errorf("failed to read storage root: %w", err)
	}

	removed := 0
	var errs []error
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, tempPrefix) || !strings.HasSuffix(name, tempSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(root, name)); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
