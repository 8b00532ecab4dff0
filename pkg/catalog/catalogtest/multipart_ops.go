package catalogtest

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/shelf/pkg/catalog"
)

// runMultipartOpsTests runs all multipart registry conformance tests.
func runMultipartOpsTests(t *testing.T, factory Factory) {
	t.Run("InsertAndGetUpload", func(t *testing.T) { testInsertAndGetUpload(t, factory) })
	t.Run("GetMissingUpload", func(t *testing.T) { testGetMissingUpload(t, factory) })
	t.Run("AccessKeyBinding", func(t *testing.T) { testAccessKeyBinding(t, factory) })
	t.Run("AnonymousAccessKey", func(t *testing.T) { testAnonymousAccessKey(t, factory) })
	t.Run("PartOrdering", func(t *testing.T) { testPartOrdering(t, factory) })
	t.Run("PartReplacement", func(t *testing.T) { testPartReplacement(t, factory) })
	t.Run("ListPartsEmpty", func(t *testing.T) { testListPartsEmpty(t, factory) })
	t.Run("DeleteCascades", func(t *testing.T) { testDeleteCascades(t, factory) })
	t.Run("DeleteMissingUpload", func(t *testing.T) { testDeleteMissingUpload(t, factory) })
	t.Run("ListUploads", func(t *testing.T) { testListUploads(t, factory) })
}

func multipartRecord(bucket, key, accessKey string) catalog.MultipartRecord {
	return catalog.MultipartRecord{
		UploadID:  uuid.NewString(),
		Bucket:    bucket,
		Key:       key,
		Metadata:  "{}",
		AccessKey: accessKey,
	}
}

func partRecord(uploadID string, number int, md5 string) catalog.PartRecord {
	return catalog.PartRecord{
		UploadID:     uploadID,
		PartNumber:   number,
		MD5:          md5,
		DataLocation: fmt.Sprintf("/data/.upload_id-%s.part-%d", uploadID, number),
	}
}

func testInsertAndGetUpload(t *testing.T, factory Factory) {
	cat := factory(t)
	ctx := t.Context()

	upload := multipartRecord("photos", "big.bin", "AKIDEXAMPLE")
	upload.Metadata = `{"kind":"archive"}`
	if err := cat.InsertMultipart(ctx, upload); err != nil {
		t.Fatalf("InsertMultipart() failed: %v", err)
	}

	got, err := cat.GetMultipart(ctx, upload.UploadID)
	if err != nil {
		t.Fatalf("GetMultipart() failed: %v", err)
	}
	if got.UploadID != upload.UploadID {
		t.Errorf("UploadID = %q, want %q", got.UploadID, upload.UploadID)
	}
	if got.Bucket != "photos" || got.Key != "big.bin" {
		t.Errorf("target = (%q, %q), want (photos, big.bin)", got.Bucket, got.Key)
	}
	if got.Metadata != upload.Metadata {
		t.Errorf("Metadata = %q, want %q", got.Metadata, upload.Metadata)
	}
	if got.AccessKey != "AKIDEXAMPLE" {
		t.Errorf("AccessKey = %q, want AKIDEXAMPLE", got.AccessKey)
	}
	if got.LastModified.IsZero() {
		t.Error("LastModified was not stamped")
	}
}

func testGetMissingUpload(t *testing.T, factory Factory) {
	cat := factory(t)
	ctx := t.Context()

	_, err := cat.GetMultipart(ctx, uuid.NewString())
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("GetMultipart() error = %v, want ErrNotFound", err)
	}
}

func testAccessKeyBinding(t *testing.T, factory Factory) {
	cat := factory(t)
	ctx := t.Context()

	upload := multipartRecord("photos", "big.bin", "AKIDEXAMPLE")
	if err := cat.InsertMultipart(ctx, upload); err != nil {
		t.Fatalf("InsertMultipart() failed: %v", err)
	}

	key, err := cat.GetAccessKey(ctx, upload.UploadID)
	if err != nil {
		t.Fatalf("GetAccessKey() failed: %v", err)
	}
	if key != "AKIDEXAMPLE" {
		t.Errorf("GetAccessKey() = %q, want AKIDEXAMPLE", key)
	}

	_, err = cat.GetAccessKey(ctx, uuid.NewString())
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("GetAccessKey() for missing upload = %v, want ErrNotFound", err)
	}
}

func testAnonymousAccessKey(t *testing.T, factory Factory) {
	cat := factory(t)
	ctx := t.Context()

	upload := multipartRecord("photos", "big.bin", "")
	if err := cat.InsertMultipart(ctx, upload); err != nil {
		t.Fatalf("InsertMultipart() failed: %v", err)
	}

	key, err := cat.GetAccessKey(ctx, upload.UploadID)
	if err != nil {
		t.Fatalf("GetAccessKey() failed: %v", err)
	}
	if key != "" {
		t.Errorf("GetAccessKey() = %q, want empty string", key)
	}
}

func testPartOrdering(t *testing.T, factory Factory) {
	cat := factory(t)
	ctx := t.Context()

	upload := multipartRecord("photos", "big.bin", "ak")
	if err := cat.InsertMultipart(ctx, upload); err != nil {
		t.Fatalf("InsertMultipart() failed: %v", err)
	}

	// Insert out of order; listing must come back sorted by part number
	for _, n := range []int{3, 1, 2} {
		if err := cat.UpsertPart(ctx, partRecord(upload.UploadID, n, "md5")); err != nil {
			t.Fatalf("UpsertPart(%d) failed: %v", n, err)
		}
	}

	parts, err := cat.ListParts(ctx, upload.UploadID)
	if err != nil {
		t.Fatalf("ListParts() failed: %v", err)
	}
	if len(parts) != 3 {
		t.Fatalf("ListParts() returned %d parts, want 3", len(parts))
	}
	for i, part := range parts {
		if part.PartNumber != i+1 {
			t.Errorf("parts[%d].PartNumber = %d, want %d", i, part.PartNumber, i+1)
		}
		if part.UploadID != upload.UploadID {
			t.Errorf("parts[%d].UploadID = %q, want %q", i, part.UploadID, upload.UploadID)
		}
	}
}

func testPartReplacement(t *testing.T, factory Factory) {
	cat := factory(t)
	ctx := t.Context()

	upload := multipartRecord("photos", "big.bin", "ak")
	if err := cat.InsertMultipart(ctx, upload); err != nil {
		t.Fatalf("InsertMultipart() failed: %v", err)
	}

	if err := cat.UpsertPart(ctx, partRecord(upload.UploadID, 1, "first")); err != nil {
		t.Fatalf("UpsertPart() failed: %v", err)
	}
	if err := cat.UpsertPart(ctx, partRecord(upload.UploadID, 1, "second")); err != nil {
		t.Fatalf("UpsertPart() replacement failed: %v", err)
	}

	parts, err := cat.ListParts(ctx, upload.UploadID)
	if err != nil {
		t.Fatalf("ListParts() failed: %v", err)
	}
	if len(parts) != 1 {
		t.Fatalf("ListParts() returned %d parts, want 1", len(parts))
	}
	if parts[0].MD5 != "second" {
		t.Errorf("parts[0].MD5 = %q, want replacement value", parts[0].MD5)
	}
}

func testListPartsEmpty(t *testing.T, factory Factory) {
	cat := factory(t)
	ctx := t.Context()

	upload := multipartRecord("photos", "big.bin", "ak")
	if err := cat.InsertMultipart(ctx, upload); err != nil {
		t.Fatalf("InsertMultipart() failed: %v", err)
	}

	parts, err := cat.ListParts(ctx, upload.UploadID)
	if err != nil {
		t.Fatalf("ListParts() failed: %v", err)
	}
	if len(parts) != 0 {
		t.Errorf("ListParts() returned %d parts for fresh upload, want 0", len(parts))
	}
}

func testDeleteCascades(t *testing.T, factory Factory) {
	cat := factory(t)
	ctx := t.Context()

	upload := multipartRecord("photos", "big.bin", "ak")
	if err := cat.InsertMultipart(ctx, upload); err != nil {
		t.Fatalf("InsertMultipart() failed: %v", err)
	}
	for n := 1; n <= 2; n++ {
		if err := cat.UpsertPart(ctx, partRecord(upload.UploadID, n, "md5")); err != nil {
			t.Fatalf("UpsertPart(%d) failed: %v", n, err)
		}
	}

	if err := cat.DeleteMultipart(ctx, upload.UploadID); err != nil {
		t.Fatalf("DeleteMultipart() failed: %v", err)
	}

	if _, err := cat.GetMultipart(ctx, upload.UploadID); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("GetMultipart() after delete = %v, want ErrNotFound", err)
	}
	if _, err := cat.GetAccessKey(ctx, upload.UploadID); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("GetAccessKey() after delete = %v, want ErrNotFound", err)
	}
	parts, err := cat.ListParts(ctx, upload.UploadID)
	if err != nil {
		t.Fatalf("ListParts() after delete failed: %v", err)
	}
	if len(parts) != 0 {
		t.Errorf("ListParts() after delete returned %d parts, want 0", len(parts))
	}
}

func testDeleteMissingUpload(t *testing.T, factory Factory) {
	cat := factory(t)
	ctx := t.Context()

	if err := cat.DeleteMultipart(ctx, uuid.NewString()); err != nil {
		t.Fatalf("DeleteMultipart() of missing upload failed: %v", err)
	}
}

func testListUploads(t *testing.T, factory Factory) {
	cat := factory(t)
	ctx := t.Context()

	uploads, err := cat.ListMultipartUploads(ctx)
	if err != nil {
		t.Fatalf("ListMultipartUploads() failed: %v", err)
	}
	if len(uploads) != 0 {
		t.Fatalf("ListMultipartUploads() on empty catalog returned %d rows", len(uploads))
	}

	first := multipartRecord("photos", "first.bin", "ak")
	if err := cat.InsertMultipart(ctx, first); err != nil {
		t.Fatalf("InsertMultipart() failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond) // distinct last_modified stamps
	second := multipartRecord("docs", "second.bin", "ak")
	if err := cat.InsertMultipart(ctx, second); err != nil {
		t.Fatalf("InsertMultipart() failed: %v", err)
	}

	uploads, err = cat.ListMultipartUploads(ctx)
	if err != nil {
		t.Fatalf("ListMultipartUploads() failed: %v", err)
	}
	if len(uploads) != 2 {
		t.Fatalf("ListMultipartUploads() returned %d rows, want 2", len(uploads))
	}
	if uploads[0].UploadID != first.UploadID {
		t.Errorf("uploads[0] = %q, want oldest upload %q", uploads[0].UploadID, first.UploadID)
	}
	if uploads[1].UploadID != second.UploadID {
		t.Errorf("uploads[1] = %q, want newest upload %q", uploads[1].UploadID, second.UploadID)
	}
}
