package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileWriter streams bytes into a uniquely-named temp file and publishes
// them with a rename on Commit. Readers never observe a partial object: the
// destination either holds its previous content or the complete new one.
//
// Callers must finish every writer, normally with
//
//	w, err := storage.NewFileWriter(tmpPath, destPath)
//	...
//	defer w.Discard()
//	...
//	return w.Commit()
//
// Discard after a successful Commit is a no-op, so the deferred call acts as
// the failure guard: any early return leaves no temp file behind.
type FileWriter struct {
	file     *os.File
	tmpPath  string
	destPath string
	done     bool
}

// NewFileWriter creates the temp file. It fails if the temp path already
// exists; temp names come from a process-local counter and never repeat
// within one process lifetime.
func NewFileWriter(tmpPath, destPath string) (*FileWriter, error) {
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file %q: %w", tmpPath, err)
	}
	return &FileWriter{
		file:     f,
		tmpPath:  tmpPath,
		destPath: destPath,
	}, nil
}

// Write appends to the temp file.
func (w *FileWriter) Write(p []byte) (int, error) {
	return w.file.Write(p)
}

// Commit flushes the temp file, creates the destination's parents, and
// renames the temp file over the destination.
//
// When the destination already exists as a directory the rename is skipped
// and the temp file is removed; the filesystem layer treats a PUT over a
// directory as a no-op.
func (w *FileWriter) Commit() error {
	if w.done {
		return fmt.Errorf("writer for %q already finished", w.destPath)
	}

	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(w.destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directories for %q: %w", w.destPath, err)
	}

	if info, err := os.Stat(w.destPath); err == nil && info.IsDir() {
		w.done = true
		_ = os.Remove(w.tmpPath)
		return nil
	}

	if err := os.Rename(w.tmpPath, w.destPath); err != nil {
		return fmt.Errorf("failed to publish %q: %w", w.destPath, err)
	}
	w.done = true
	return nil
}

// Discard closes and removes the temp file unless Commit already ran.
// Best-effort and safe to call more than once.
func (w *FileWriter) Discard() {
	if w.done {
		return
	}
	w.done = true
	_ = w.file.Close()
	_ = os.Remove(w.tmpPath)
}
