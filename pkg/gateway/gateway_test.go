package gateway

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marmos91/shelf/pkg/catalog/memory"
)

// newTestGateway returns a gateway over a fresh temp root and an in-memory
// catalog.
func newTestGateway(t *testing.T) (*Gateway, string) {
	t.Helper()
	root := t.TempDir()
	g, err := New(root, memory.New())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return g, root
}

// mustPut stores content and returns its ETag.
func mustPut(t *testing.T, g *Gateway, bucket, key, content string) string {
	t.Helper()
	out, err := g.PutObject(t.Context(), PutObjectInput{
		Bucket:        bucket,
		Key:           key,
		Body:          strings.NewReader(content),
		ContentLength: int64(len(content)),
	})
	if err != nil {
		t.Fatalf("PutObject(%s/%s) failed: %v", bucket, key, err)
	}
	return out.ETag
}

// wantCode fails unless err carries the given domain code.
func wantCode(t *testing.T, err error, code Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	var domainErr *Error
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected %s error, got %v", code, err)
	}
	if domainErr.Code != code {
		t.Fatalf("error code = %s, want %s (err: %v)", domainErr.Code, code, err)
	}
}

// tempFiles lists atomic-write stage files directly under root.
func tempFiles(t *testing.T, root string) []string {
	t.Helper()
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("ReadDir(%s) failed: %v", root, err)
	}
	var out []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".tmp.") {
			out = append(out, entry.Name())
		}
	}
	return out
}

func TestNewRequiresExistingRoot(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing"), memory.New()); err == nil {
		t.Fatal("New() accepted a nonexistent root")
	}
}

func TestNewRejectsFileRoot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path, memory.New()); err == nil {
		t.Fatal("New() accepted a plain file as root")
	}
}

func TestNewSweepsStaleTempFiles(t *testing.T) {
	root := t.TempDir()
	stale := filepath.Join(root, ".tmp.7.internal.part")
	partFile := filepath.Join(root, ".upload_id-abc.part-1")
	for _, path := range []string{stale, partFile} {
		if err := os.WriteFile(path, []byte("leftover"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := New(root, memory.New()); err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if _, err := os.Stat(stale); !errors.Is(err, os.ErrNotExist) {
		t.Error("stale temp file survived startup")
	}
	if _, err := os.Stat(partFile); err != nil {
		t.Error("multipart part file was removed by the sweep")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(newError(CodeNoSuchKey, "gone")); got != CodeNoSuchKey {
		t.Errorf("CodeOf = %s, want %s", got, CodeNoSuchKey)
	}
	if got := CodeOf(context.DeadlineExceeded); got != CodeInternalError {
		t.Errorf("CodeOf(plain error) = %s, want %s", got, CodeInternalError)
	}
}
