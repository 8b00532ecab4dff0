package gateway

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// helloWorldMD5 is md5("hello world").
const helloWorldMD5 = "5eb63bbbe01eeed093cb22bb8f5acdc3"

// newUpload creates the bucket directory and initiates an upload bound to
// accessKey.
func newUpload(t *testing.T, g *Gateway, bucket, key, accessKey string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(g.Root(), bucket), 0o755); err != nil {
		t.Fatal(err)
	}
	uploadID, err := g.CreateMultipartUpload(t.Context(), CreateMultipartUploadInput{
		Bucket:    bucket,
		Key:       key,
		AccessKey: accessKey,
	})
	if err != nil {
		t.Fatalf("CreateMultipartUpload() failed: %v", err)
	}
	return uploadID
}

func mustUploadPart(t *testing.T, g *Gateway, uploadID string, partNumber int, content, accessKey string) string {
	t.Helper()
	etag, err := g.UploadPart(t.Context(), UploadPartInput{
		UploadID:   uploadID,
		PartNumber: partNumber,
		Body:       strings.NewReader(content),
		AccessKey:  accessKey,
	})
	if err != nil {
		t.Fatalf("UploadPart(%d) failed: %v", partNumber, err)
	}
	return etag
}

func TestMultipartLifecycle(t *testing.T) {
	g, root := newTestGateway(t)
	uploadID := newUpload(t, g, "videos", "movie.mp4", "AKID")

	mustUploadPart(t, g, uploadID, 1, "hello ", "AKID")
	mustUploadPart(t, g, uploadID, 2, "world", "AKID")

	parts, err := g.ListParts(t.Context(), uploadID)
	if err != nil {
		t.Fatalf("ListParts() failed: %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("got %d parts, want 2", len(parts))
	}
	if parts[0].PartNumber != 1 || parts[1].PartNumber != 2 {
		t.Errorf("part order = %d,%d want 1,2", parts[0].PartNumber, parts[1].PartNumber)
	}
	if parts[0].Size != 6 || parts[1].Size != 5 {
		t.Errorf("part sizes = %d,%d want 6,5", parts[0].Size, parts[1].Size)
	}

	out, err := g.CompleteMultipartUpload(t.Context(), CompleteMultipartUploadInput{
		Bucket:      "videos",
		Key:         "movie.mp4",
		UploadID:    uploadID,
		PartNumbers: []int{1, 2},
		AccessKey:   "AKID",
	})
	if err != nil {
		t.Fatalf("CompleteMultipartUpload() failed: %v", err)
	}
	if out.ETag != helloWorldMD5 {
		t.Errorf("ETag = %q, want %q", out.ETag, helloWorldMD5)
	}

	get, err := g.GetObject(t.Context(), GetObjectInput{Bucket: "videos", Key: "movie.mp4"})
	if err != nil {
		t.Fatalf("GetObject() after complete failed: %v", err)
	}
	body, _ := io.ReadAll(get.Body)
	get.Body.Close()
	if string(body) != "hello world" {
		t.Errorf("assembled body = %q, want %q", body, "hello world")
	}

	// Part stage files are consumed, the upload registration is gone.
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".upload_id-") {
			t.Errorf("part stage file %q survived completion", entry.Name())
		}
	}
	_, err = g.ListParts(t.Context(), uploadID)
	wantCode(t, err, CodeNoSuchUpload)
}

func TestCompleteUsesPartNumberOrder(t *testing.T) {
	g, _ := newTestGateway(t)
	uploadID := newUpload(t, g, "videos", "clip.mp4", "")

	// Uploaded out of order; assembly still follows part numbers.
	mustUploadPart(t, g, uploadID, 2, "world", "")
	mustUploadPart(t, g, uploadID, 1, "hello ", "")

	out, err := g.CompleteMultipartUpload(t.Context(), CompleteMultipartUploadInput{
		Bucket:      "videos",
		Key:         "clip.mp4",
		UploadID:    uploadID,
		PartNumbers: []int{2, 1},
		AccessKey:   "",
	})
	if err != nil {
		t.Fatalf("CompleteMultipartUpload() failed: %v", err)
	}
	if out.ETag != helloWorldMD5 {
		t.Errorf("ETag = %q, want %q", out.ETag, helloWorldMD5)
	}
}

func TestUploadPartReplacesPart(t *testing.T) {
	g, _ := newTestGateway(t)
	uploadID := newUpload(t, g, "videos", "clip.mp4", "")

	mustUploadPart(t, g, uploadID, 1, "old bytes", "")
	mustUploadPart(t, g, uploadID, 1, "hello ", "")
	mustUploadPart(t, g, uploadID, 2, "world", "")

	parts, err := g.ListParts(t.Context(), uploadID)
	if err != nil {
		t.Fatalf("ListParts() failed: %v", err)
	}
	if len(parts) != 2 || parts[0].Size != 6 {
		t.Fatalf("parts = %v, want re-uploaded part 1 of size 6", parts)
	}
}

func TestCreateMultipartUploadRequiresBucket(t *testing.T) {
	g, _ := newTestGateway(t)
	_, err := g.CreateMultipartUpload(t.Context(), CreateMultipartUploadInput{
		Bucket: "absent",
		Key:    "movie.mp4",
	})
	wantCode(t, err, CodeNoSuchBucket)
}

func TestUploadPartAccessControl(t *testing.T) {
	g, _ := newTestGateway(t)
	uploadID := newUpload(t, g, "videos", "movie.mp4", "OWNER")

	_, err := g.UploadPart(t.Context(), UploadPartInput{
		UploadID:   uploadID,
		PartNumber: 1,
		Body:       strings.NewReader("x"),
		AccessKey:  "INTRUDER",
	})
	wantCode(t, err, CodeAccessDenied)

	// Unknown but well-formed upload ID is indistinguishable from a
	// foreign one.
	_, err = g.UploadPart(t.Context(), UploadPartInput{
		UploadID:   "a2f5c270-90c8-4c7e-9a4c-6f9d4c7c8e21",
		PartNumber: 1,
		Body:       strings.NewReader("x"),
		AccessKey:  "OWNER",
	})
	wantCode(t, err, CodeAccessDenied)

	_, err = g.UploadPart(t.Context(), UploadPartInput{
		UploadID:   "not-a-uuid",
		PartNumber: 1,
		Body:       strings.NewReader("x"),
		AccessKey:  "OWNER",
	})
	wantCode(t, err, CodeInvalidRequest)

	_, err = g.UploadPart(t.Context(), UploadPartInput{
		UploadID:   uploadID,
		PartNumber: 0,
		Body:       strings.NewReader("x"),
		AccessKey:  "OWNER",
	})
	wantCode(t, err, CodeInvalidRequest)
}

func TestCompleteRequiresParts(t *testing.T) {
	g, _ := newTestGateway(t)
	uploadID := newUpload(t, g, "videos", "movie.mp4", "")

	_, err := g.CompleteMultipartUpload(t.Context(), CompleteMultipartUploadInput{
		Bucket:   "videos",
		Key:      "movie.mp4",
		UploadID: uploadID,
	})
	wantCode(t, err, CodeInvalidPart)
}

func TestCompleteAccessControl(t *testing.T) {
	g, _ := newTestGateway(t)
	uploadID := newUpload(t, g, "videos", "movie.mp4", "OWNER")
	mustUploadPart(t, g, uploadID, 1, "bytes", "OWNER")

	_, err := g.CompleteMultipartUpload(t.Context(), CompleteMultipartUploadInput{
		Bucket:      "videos",
		Key:         "movie.mp4",
		UploadID:    uploadID,
		PartNumbers: []int{1},
		AccessKey:   "INTRUDER",
	})
	wantCode(t, err, CodeAccessDenied)
}

func TestAbortMultipartUpload(t *testing.T) {
	g, root := newTestGateway(t)
	uploadID := newUpload(t, g, "videos", "movie.mp4", "AKID")
	mustUploadPart(t, g, uploadID, 1, "bytes", "AKID")

	err := g.AbortMultipartUpload(t.Context(), AbortMultipartUploadInput{
		Bucket:    "videos",
		UploadID:  uploadID,
		AccessKey: "AKID",
	})
	if err != nil {
		t.Fatalf("AbortMultipartUpload() failed: %v", err)
	}

	partPath := filepath.Join(root, ".upload_id-"+uploadID+".part-1")
	if _, err := os.Stat(partPath); !errors.Is(err, os.ErrNotExist) {
		t.Error("part file survived abort")
	}

	// The registration is destroyed, so further part uploads are refused.
	_, err = g.UploadPart(t.Context(), UploadPartInput{
		UploadID:   uploadID,
		PartNumber: 2,
		Body:       strings.NewReader("x"),
		AccessKey:  "AKID",
	})
	wantCode(t, err, CodeAccessDenied)
}

func TestAbortWithoutPartsIsNoSuchUpload(t *testing.T) {
	g, _ := newTestGateway(t)
	uploadID := newUpload(t, g, "videos", "movie.mp4", "AKID")

	err := g.AbortMultipartUpload(t.Context(), AbortMultipartUploadInput{
		Bucket:    "videos",
		UploadID:  uploadID,
		AccessKey: "AKID",
	})
	wantCode(t, err, CodeNoSuchUpload)

	// The upload row survives; parts can still arrive afterwards.
	mustUploadPart(t, g, uploadID, 1, "late", "AKID")
}

func TestAbortRequiresBucket(t *testing.T) {
	g, _ := newTestGateway(t)
	uploadID := newUpload(t, g, "videos", "movie.mp4", "AKID")

	err := g.AbortMultipartUpload(t.Context(), AbortMultipartUploadInput{
		Bucket:    "absent",
		UploadID:  uploadID,
		AccessKey: "AKID",
	})
	wantCode(t, err, CodeNoSuchBucket)
}

func TestListMultipartUploads(t *testing.T) {
	g, _ := newTestGateway(t)
	first := newUpload(t, g, "videos", "a.mp4", "")
	second := newUpload(t, g, "videos", "b.mp4", "")

	uploads, err := g.ListMultipartUploads(t.Context())
	if err != nil {
		t.Fatalf("ListMultipartUploads() failed: %v", err)
	}
	if len(uploads) != 2 {
		t.Fatalf("got %d uploads, want 2", len(uploads))
	}
	seen := map[string]bool{uploads[0].UploadID: true, uploads[1].UploadID: true}
	if !seen[first] || !seen[second] {
		t.Errorf("uploads = %v, want %s and %s", uploads, first, second)
	}
}
