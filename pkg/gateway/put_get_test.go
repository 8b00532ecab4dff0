package gateway

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marmos91/shelf/pkg/checksum"
)

const (
	helloMD5       = "5d41402abc4b2a76b9719d911017c592"
	helloSHA256B64 = "LPJNul+wow4m6DsqxbninhsWHlwfp0JecwQzYpOLmCQ="
)

func TestPutObjectStoresBytesAndRow(t *testing.T) {
	g, root := newTestGateway(t)

	etag := mustPut(t, g, "photos", "albums/cat.jpg", "hello")
	if etag != helloMD5 {
		t.Errorf("ETag = %q, want %q", etag, helloMD5)
	}

	data, err := os.ReadFile(filepath.Join(root, "photos", "albums", "cat.jpg"))
	if err != nil {
		t.Fatalf("data file missing: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("data file = %q, want %q", data, "hello")
	}

	out, err := g.GetObject(t.Context(), GetObjectInput{Bucket: "photos", Key: "albums/cat.jpg"})
	if err != nil {
		t.Fatalf("GetObject() failed: %v", err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		t.Fatalf("reading body failed: %v", err)
	}
	if string(body) != "hello" {
		t.Errorf("body = %q, want %q", body, "hello")
	}
	if out.ContentLength != 5 {
		t.Errorf("ContentLength = %d, want 5", out.ContentLength)
	}
	if out.ETag != helloMD5 {
		t.Errorf("ETag = %q, want %q", out.ETag, helloMD5)
	}
	if out.LastModified.IsZero() {
		t.Error("LastModified was not set")
	}
}

func TestPutObjectRoundTripsMetadata(t *testing.T) {
	g, _ := newTestGateway(t)

	_, err := g.PutObject(t.Context(), PutObjectInput{
		Bucket:        "docs",
		Key:           "readme.txt",
		Body:          strings.NewReader("content"),
		ContentLength: 7,
		Metadata:      map[string]string{"author": "ops", "revision": "4"},
	})
	if err != nil {
		t.Fatalf("PutObject() failed: %v", err)
	}

	out, err := g.HeadObject(t.Context(), "docs", "readme.txt")
	if err != nil {
		t.Fatalf("HeadObject() failed: %v", err)
	}
	if out.Metadata["author"] != "ops" || out.Metadata["revision"] != "4" {
		t.Errorf("Metadata = %v, want author=ops revision=4", out.Metadata)
	}
}

func TestPutObjectVerifiesChecksums(t *testing.T) {
	g, _ := newTestGateway(t)
	want := helloSHA256B64

	out, err := g.PutObject(t.Context(), PutObjectInput{
		Bucket:        "docs",
		Key:           "hello.txt",
		Body:          strings.NewReader("hello"),
		ContentLength: 5,
		Checksums:     checksum.Set{SHA256: &want},
	})
	if err != nil {
		t.Fatalf("PutObject() with matching checksum failed: %v", err)
	}
	if out.Checksums.SHA256 == nil || *out.Checksums.SHA256 != want {
		t.Errorf("returned SHA256 = %v, want %q", out.Checksums.SHA256, want)
	}

	get, err := g.GetObject(t.Context(), GetObjectInput{Bucket: "docs", Key: "hello.txt"})
	if err != nil {
		t.Fatalf("GetObject() failed: %v", err)
	}
	defer get.Body.Close()
	if get.Checksums.SHA256 == nil || *get.Checksums.SHA256 != want {
		t.Errorf("stored SHA256 = %v, want %q", get.Checksums.SHA256, want)
	}
}

func TestPutObjectBadDigestLeavesNothing(t *testing.T) {
	g, root := newTestGateway(t)
	wrong := "AAAAAA=="

	_, err := g.PutObject(t.Context(), PutObjectInput{
		Bucket:        "docs",
		Key:           "hello.txt",
		Body:          strings.NewReader("hello"),
		ContentLength: 5,
		Checksums:     checksum.Set{CRC32: &wrong},
	})
	wantCode(t, err, CodeBadDigest)
	if !strings.Contains(err.Error(), "checksum_crc32 mismatch") {
		t.Errorf("error = %v, want checksum_crc32 mismatch", err)
	}

	if _, err := os.Stat(filepath.Join(root, "docs", "hello.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Error("data file exists after digest mismatch")
	}
	_, err = g.GetObject(t.Context(), GetObjectInput{Bucket: "docs", Key: "hello.txt"})
	wantCode(t, err, CodeNoSuchKey)
	if stray := tempFiles(t, root); len(stray) != 0 {
		t.Errorf("temp files left behind: %v", stray)
	}
}

func TestPutObjectOverwriteReplaces(t *testing.T) {
	g, _ := newTestGateway(t)

	mustPut(t, g, "docs", "note.txt", "first")
	mustPut(t, g, "docs", "note.txt", "second version")

	out, err := g.GetObject(t.Context(), GetObjectInput{Bucket: "docs", Key: "note.txt"})
	if err != nil {
		t.Fatalf("GetObject() failed: %v", err)
	}
	defer out.Body.Close()
	body, _ := io.ReadAll(out.Body)
	if string(body) != "second version" {
		t.Errorf("body = %q, want %q", body, "second version")
	}
}

func TestPutObjectDirectoryKey(t *testing.T) {
	g, root := newTestGateway(t)

	out, err := g.PutObject(t.Context(), PutObjectInput{
		Bucket: "docs",
		Key:    "archive/",
	})
	if err != nil {
		t.Fatalf("PutObject(dir key) failed: %v", err)
	}
	if out.ETag != "" {
		t.Errorf("directory key produced ETag %q", out.ETag)
	}

	info, err := os.Stat(filepath.Join(root, "docs", "archive"))
	if err != nil || !info.IsDir() {
		t.Fatalf("directory was not created: %v", err)
	}

	_, err = g.PutObject(t.Context(), PutObjectInput{
		Bucket:        "docs",
		Key:           "archive/",
		Body:          strings.NewReader("payload"),
		ContentLength: 7,
	})
	wantCode(t, err, CodeUnexpectedContent)
}

func TestPutObjectRejectsInvalidKeys(t *testing.T) {
	g, _ := newTestGateway(t)

	for _, key := range []string{"", "a/../b", "a//b", strings.Repeat("k", 1025)} {
		_, err := g.PutObject(t.Context(), PutObjectInput{
			Bucket:        "docs",
			Key:           key,
			Body:          strings.NewReader("x"),
			ContentLength: 1,
		})
		wantCode(t, err, CodeInvalidRequest)
	}
}

func TestGetObjectMissingRow(t *testing.T) {
	g, _ := newTestGateway(t)
	_, err := g.GetObject(t.Context(), GetObjectInput{Bucket: "docs", Key: "nope"})
	wantCode(t, err, CodeNoSuchKey)
}

func TestGetObjectRowWithoutFile(t *testing.T) {
	g, root := newTestGateway(t)
	mustPut(t, g, "docs", "gone.txt", "bytes")

	if err := os.Remove(filepath.Join(root, "docs", "gone.txt")); err != nil {
		t.Fatal(err)
	}

	_, err := g.GetObject(t.Context(), GetObjectInput{Bucket: "docs", Key: "gone.txt"})
	wantCode(t, err, CodeNoSuchKey)
}

func TestHeadObjectRowWithoutFile(t *testing.T) {
	g, root := newTestGateway(t)
	mustPut(t, g, "docs", "gone.txt", "bytes")

	if err := os.Remove(filepath.Join(root, "docs", "gone.txt")); err != nil {
		t.Fatal(err)
	}

	// Head reports the bucket missing when only the file is gone. Clients
	// probe for exactly this answer, so it stays.
	_, err := g.HeadObject(t.Context(), "docs", "gone.txt")
	wantCode(t, err, CodeNoSuchBucket)
}

func TestHeadObjectReportsSize(t *testing.T) {
	g, _ := newTestGateway(t)
	mustPut(t, g, "docs", "note.txt", "0123456789")

	out, err := g.HeadObject(t.Context(), "docs", "note.txt")
	if err != nil {
		t.Fatalf("HeadObject() failed: %v", err)
	}
	if out.ContentLength != 10 {
		t.Errorf("ContentLength = %d, want 10", out.ContentLength)
	}
	if out.ETag == "" {
		t.Error("ETag missing")
	}

	_, err = g.HeadObject(t.Context(), "docs", "missing")
	wantCode(t, err, CodeNoSuchKey)
}

func TestHeadBucket(t *testing.T) {
	g, _ := newTestGateway(t)
	mustPut(t, g, "docs", "note.txt", "x")

	if err := g.HeadBucket(t.Context(), "docs"); err != nil {
		t.Fatalf("HeadBucket() failed: %v", err)
	}
	wantCode(t, g.HeadBucket(t.Context(), "absent"), CodeNoSuchBucket)
}

func TestListBucketsSkipsRemovedDirectories(t *testing.T) {
	g, root := newTestGateway(t)
	mustPut(t, g, "alpha", "a.txt", "a")
	mustPut(t, g, "beta", "b.txt", "b")

	if err := os.RemoveAll(filepath.Join(root, "beta")); err != nil {
		t.Fatal(err)
	}

	buckets, err := g.ListBuckets(t.Context())
	if err != nil {
		t.Fatalf("ListBuckets() failed: %v", err)
	}
	if len(buckets) != 1 || buckets[0].Name != "alpha" {
		t.Fatalf("buckets = %v, want [alpha]", buckets)
	}
	if buckets[0].CreationDate.IsZero() {
		t.Error("CreationDate missing")
	}
}

func TestListObjects(t *testing.T) {
	g, root := newTestGateway(t)
	mustPut(t, g, "docs", "logs/app.log", "12345")
	mustPut(t, g, "docs", "logs/db.log", "123")
	mustPut(t, g, "docs", "readme.txt", "1")
	mustPut(t, g, "other", "logs/app.log", "x")

	out, err := g.ListObjects(t.Context(), "docs", "logs/")
	if err != nil {
		t.Fatalf("ListObjects() failed: %v", err)
	}
	if len(out.Objects) != 2 {
		t.Fatalf("got %d objects, want 2", len(out.Objects))
	}
	if out.Objects[0].Key != "logs/app.log" || out.Objects[1].Key != "logs/db.log" {
		t.Errorf("keys = %v, want ordered logs/app.log, logs/db.log", out.Objects)
	}
	if out.Objects[0].Size != 5 || out.Objects[1].Size != 3 {
		t.Errorf("sizes = %d,%d want 5,3", out.Objects[0].Size, out.Objects[1].Size)
	}

	// Rows whose data file vanished are dropped from the listing.
	if err := os.Remove(filepath.Join(root, "docs", "logs", "db.log")); err != nil {
		t.Fatal(err)
	}
	out, err = g.ListObjects(t.Context(), "docs", "logs/")
	if err != nil {
		t.Fatalf("ListObjects() failed: %v", err)
	}
	if len(out.Objects) != 1 || out.Objects[0].Key != "logs/app.log" {
		t.Fatalf("objects after removal = %v, want only logs/app.log", out.Objects)
	}

	empty, err := g.ListObjects(t.Context(), "unknown", "")
	if err != nil {
		t.Fatalf("ListObjects(unknown bucket) failed: %v", err)
	}
	if len(empty.Objects) != 0 {
		t.Errorf("unknown bucket listed %d objects", len(empty.Objects))
	}
}
