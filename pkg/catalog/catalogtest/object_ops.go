package catalogtest

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/marmos91/shelf/pkg/catalog"
)

// runObjectOpsTests runs all object row conformance tests.
func runObjectOpsTests(t *testing.T, factory Factory) {
	t.Run("UpsertAndGet", func(t *testing.T) { testUpsertAndGet(t, factory) })
	t.Run("UpsertOverwrites", func(t *testing.T) { testUpsertOverwrites(t, factory) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, factory) })
	t.Run("ListByPrefix", func(t *testing.T) { testListByPrefix(t, factory) })
	t.Run("ListWholeBucket", func(t *testing.T) { testListWholeBucket(t, factory) })
	t.Run("ListUnknownBucket", func(t *testing.T) { testListUnknownBucket(t, factory) })
	t.Run("ListCap", func(t *testing.T) { testListCap(t, factory) })
	t.Run("ListBuckets", func(t *testing.T) { testListBuckets(t, factory) })
}

func testUpsertAndGet(t *testing.T, factory Factory) {
	cat := factory(t)
	ctx := t.Context()

	obj := objectRecord("photos", "albums/cat.jpg", "5d41402abc4b2a76b9719d911017c592")
	obj.InternalInfo = `{"checksum_crc32":"NhCmhg=="}`
	if err := cat.UpsertObject(ctx, obj); err != nil {
		t.Fatalf("UpsertObject() failed: %v", err)
	}

	got, err := cat.GetObject(ctx, "photos", "albums/cat.jpg")
	if err != nil {
		t.Fatalf("GetObject() failed: %v", err)
	}

	if got.Bucket != obj.Bucket || got.Key != obj.Key {
		t.Errorf("identity = (%q, %q), want (%q, %q)", got.Bucket, got.Key, obj.Bucket, obj.Key)
	}
	if got.ETag != obj.ETag {
		t.Errorf("ETag = %q, want %q", got.ETag, obj.ETag)
	}
	if got.Metadata != obj.Metadata {
		t.Errorf("Metadata = %q, want %q", got.Metadata, obj.Metadata)
	}
	if got.InternalInfo != obj.InternalInfo {
		t.Errorf("InternalInfo = %q, want %q", got.InternalInfo, obj.InternalInfo)
	}
	if got.DataLocation != obj.DataLocation {
		t.Errorf("DataLocation = %q, want %q", got.DataLocation, obj.DataLocation)
	}
	if got.LastModified.IsZero() {
		t.Error("LastModified was not stamped")
	}
	if age := time.Since(got.LastModified); age > time.Minute || age < -time.Minute {
		t.Errorf("LastModified %v is not recent", got.LastModified)
	}
}

func testUpsertOverwrites(t *testing.T, factory Factory) {
	cat := factory(t)
	ctx := t.Context()

	first := objectRecord("photos", "cat.jpg", "0cc175b9c0f1b6a831c399e269772661")
	if err := cat.UpsertObject(ctx, first); err != nil {
		t.Fatalf("UpsertObject() failed: %v", err)
	}

	second := objectRecord("photos", "cat.jpg", "92eb5ffee6ae2fec3ad71c777531578f")
	second.Metadata = `{"author":"second"}`
	second.InternalInfo = `{"checksum_sha1":"qvTGHdzF6KLavt4PO0gs2a6pQ00="}`
	if err := cat.UpsertObject(ctx, second); err != nil {
		t.Fatalf("UpsertObject() overwrite failed: %v", err)
	}

	got, err := cat.GetObject(ctx, "photos", "cat.jpg")
	if err != nil {
		t.Fatalf("GetObject() failed: %v", err)
	}
	if got.ETag != second.ETag {
		t.Errorf("ETag = %q, want overwritten %q", got.ETag, second.ETag)
	}
	if got.Metadata != second.Metadata {
		t.Errorf("Metadata = %q, want overwritten %q", got.Metadata, second.Metadata)
	}
	if got.InternalInfo != second.InternalInfo {
		t.Errorf("InternalInfo = %q, want overwritten %q", got.InternalInfo, second.InternalInfo)
	}

	// Still exactly one row for the key
	rows, err := cat.ListObjects(ctx, "photos", "cat.jpg")
	if err != nil {
		t.Fatalf("ListObjects() failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("ListObjects() returned %d rows, want 1", len(rows))
	}
}

func testGetMissing(t *testing.T, factory Factory) {
	cat := factory(t)
	ctx := t.Context()

	_, err := cat.GetObject(ctx, "photos", "nope.jpg")
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("GetObject() error = %v, want ErrNotFound", err)
	}
}

func testListByPrefix(t *testing.T, factory Factory) {
	cat := factory(t)
	ctx := t.Context()

	keys := []string{"albums/dog.jpg", "albums/cat.jpg", "albums/bird.jpg", "inbox/new.jpg"}
	for _, key := range keys {
		if err := cat.UpsertObject(ctx, objectRecord("photos", key, "etag")); err != nil {
			t.Fatalf("UpsertObject(%q) failed: %v", key, err)
		}
	}
	// Same key in another bucket must not leak into the listing
	if err := cat.UpsertObject(ctx, objectRecord("backup", "albums/cat.jpg", "etag")); err != nil {
		t.Fatalf("UpsertObject() failed: %v", err)
	}

	rows, err := cat.ListObjects(ctx, "photos", "albums/")
	if err != nil {
		t.Fatalf("ListObjects() failed: %v", err)
	}

	want := []string{"albums/bird.jpg", "albums/cat.jpg", "albums/dog.jpg"}
	if len(rows) != len(want) {
		t.Fatalf("ListObjects() returned %d rows, want %d", len(rows), len(want))
	}
	for i, row := range rows {
		if row.Key != want[i] {
			t.Errorf("rows[%d].Key = %q, want %q", i, row.Key, want[i])
		}
		if row.Bucket != "photos" {
			t.Errorf("rows[%d].Bucket = %q, want photos", i, row.Bucket)
		}
	}
}

func testListWholeBucket(t *testing.T, factory Factory) {
	cat := factory(t)
	ctx := t.Context()

	keys := []string{"c.txt", "a.txt", "b.txt"}
	for _, key := range keys {
		if err := cat.UpsertObject(ctx, objectRecord("docs", key, "etag")); err != nil {
			t.Fatalf("UpsertObject(%q) failed: %v", key, err)
		}
	}

	rows, err := cat.ListObjects(ctx, "docs", "")
	if err != nil {
		t.Fatalf("ListObjects() failed: %v", err)
	}

	want := []string{"a.txt", "b.txt", "c.txt"}
	if len(rows) != len(want) {
		t.Fatalf("ListObjects() returned %d rows, want %d", len(rows), len(want))
	}
	for i, row := range rows {
		if row.Key != want[i] {
			t.Errorf("rows[%d].Key = %q, want %q", i, row.Key, want[i])
		}
	}
}

func testListUnknownBucket(t *testing.T, factory Factory) {
	cat := factory(t)
	ctx := t.Context()

	rows, err := cat.ListObjects(ctx, "ghost", "")
	if err != nil {
		t.Fatalf("ListObjects() failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("ListObjects() returned %d rows for unknown bucket, want 0", len(rows))
	}
}

func testListCap(t *testing.T, factory Factory) {
	cat := factory(t)
	ctx := t.Context()

	total := catalog.MaxListKeys + 5
	for i := 0; i < total; i++ {
		key := fmt.Sprintf("bulk/%06d", i)
		if err := cat.UpsertObject(ctx, objectRecord("big", key, "etag")); err != nil {
			t.Fatalf("UpsertObject(%q) failed: %v", key, err)
		}
	}

	rows, err := cat.ListObjects(ctx, "big", "bulk/")
	if err != nil {
		t.Fatalf("ListObjects() failed: %v", err)
	}
	if len(rows) != catalog.MaxListKeys {
		t.Fatalf("ListObjects() returned %d rows, want cap %d", len(rows), catalog.MaxListKeys)
	}
	// The cap keeps the first keys in order
	if rows[0].Key != "bulk/000000" {
		t.Errorf("rows[0].Key = %q, want bulk/000000", rows[0].Key)
	}
	last := fmt.Sprintf("bulk/%06d", catalog.MaxListKeys-1)
	if rows[len(rows)-1].Key != last {
		t.Errorf("rows[last].Key = %q, want %q", rows[len(rows)-1].Key, last)
	}
}

func testListBuckets(t *testing.T, factory Factory) {
	cat := factory(t)
	ctx := t.Context()

	buckets, err := cat.ListBuckets(ctx)
	if err != nil {
		t.Fatalf("ListBuckets() failed: %v", err)
	}
	if len(buckets) != 0 {
		t.Fatalf("ListBuckets() on empty catalog returned %v", buckets)
	}

	for _, seed := range []struct{ bucket, key string }{
		{"zulu", "one"},
		{"alpha", "one"},
		{"alpha", "two"},
		{"mike", "one"},
	} {
		if err := cat.UpsertObject(ctx, objectRecord(seed.bucket, seed.key, "etag")); err != nil {
			t.Fatalf("UpsertObject() failed: %v", err)
		}
	}

	buckets, err = cat.ListBuckets(ctx)
	if err != nil {
		t.Fatalf("ListBuckets() failed: %v", err)
	}

	want := []string{"alpha", "mike", "zulu"}
	if len(buckets) != len(want) {
		t.Fatalf("ListBuckets() = %v, want %v", buckets, want)
	}
	for i := range want {
		if buckets[i] != want[i] {
			t.Errorf("buckets[%d] = %q, want %q", i, buckets[i], want[i])
		}
	}
}
