// Package memory provides a non-persistent catalog driver. It backs tests
// and single-process setups where losing the catalog on restart is
// acceptable; everything else should use one of the durable drivers.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/marmos91/shelf/pkg/catalog"
)

type objectKey struct {
	bucket string
	key    string
}

// Store is an in-memory catalog. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	objects map[objectKey]catalog.ObjectRecord
	uploads map[string]catalog.MultipartRecord
	parts   map[string]map[int]catalog.PartRecord
}

// New creates an empty in-memory catalog.
func New() *Store {
	return &Store{
		objects: make(map[objectKey]catalog.ObjectRecord),
		uploads: make(map[string]catalog.MultipartRecord),
		parts:   make(map[string]map[int]catalog.PartRecord),
	}
}

func (s *Store) UpsertObject(ctx context.Context, obj catalog.ObjectRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	obj.LastModified = time.Now().UTC()
	s.objects[objectKey{obj.Bucket, obj.Key}] = obj
	return nil
}

func (s *Store) GetObject(ctx context.Context, bucket, key string) (*catalog.ObjectRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[objectKey{bucket, key}]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &obj, nil
}

func (s *Store) ListObjects(ctx context.Context, bucket, keyPrefix string) ([]catalog.ObjectRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []catalog.ObjectRecord
	for k, obj := range s.objects {
		if k.bucket != bucket || !strings.HasPrefix(k.key, keyPrefix) {
			continue
		}
		out = append(out, obj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	if len(out) > catalog.MaxListKeys {
		out = out[:catalog.MaxListKeys]
	}
	return out, nil
}

func (s *Store) ListBuckets(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for k := range s.objects {
		seen[k.bucket] = struct{}{}
	}
	buckets := make([]string, 0, len(seen))
	for b := range seen {
		buckets = append(buckets, b)
	}
	sort.Strings(buckets)
	return buckets, nil
}

func (s *Store) InsertMultipart(ctx context.Context, upload catalog.MultipartRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	upload.LastModified = time.Now().UTC()
	s.uploads[upload.UploadID] = upload
	return nil
}

func (s *Store) GetMultipart(ctx context.Context, uploadID string) (*catalog.MultipartRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	upload, ok := s.uploads[uploadID]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &upload, nil
}

func (s *Store) ListMultipartUploads(ctx context.Context) ([]catalog.MultipartRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]catalog.MultipartRecord, 0, len(s.uploads))
	for _, upload := range s.uploads {
		out = append(out, upload)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastModified.Equal(out[j].LastModified) {
			return out[i].LastModified.Before(out[j].LastModified)
		}
		return out[i].UploadID < out[j].UploadID
	})
	return out, nil
}

func (s *Store) DeleteMultipart(ctx context.Context, uploadID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.uploads, uploadID)
	delete(s.parts, uploadID)
	return nil
}

func (s *Store) GetAccessKey(ctx context.Context, uploadID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	upload, ok := s.uploads[uploadID]
	if !ok {
		return "", catalog.ErrNotFound
	}
	return upload.AccessKey, nil
}

func (s *Store) UpsertPart(ctx context.Context, part catalog.PartRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	part.LastModified = time.Now().UTC()
	byNumber, ok := s.parts[part.UploadID]
	if !ok {
		byNumber = make(map[int]catalog.PartRecord)
		s.parts[part.UploadID] = byNumber
	}
	byNumber[part.PartNumber] = part
	return nil
}

func (s *Store) ListParts(ctx context.Context, uploadID string) ([]catalog.PartRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	byNumber := s.parts[uploadID]
	out := make([]catalog.PartRecord, 0, len(byNumber))
	for _, part := range byNumber {
		out = append(out, part)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PartNumber < out[j].PartNumber })
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}
