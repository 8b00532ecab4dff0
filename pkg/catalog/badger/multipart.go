package badger

import (
	"context"
	"sort"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/shelf/pkg/catalog"
)

func (s *Store) InsertMultipart(ctx context.Context, upload catalog.MultipartRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	upload.LastModified = time.Now().UTC()
	data, err := encodeUpload(&upload)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(keyUpload(upload.UploadID), data)
	})
}

func (s *Store) GetMultipart(ctx context.Context, uploadID string) (*catalog.MultipartRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var upload *catalog.MultipartRecord
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(keyUpload(uploadID))
		if err == badgerdb.ErrKeyNotFound {
			return catalog.ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			var decErr error
			upload, decErr = decodeUpload(val)
			return decErr
		})
	})
	if err != nil {
		return nil, err
	}
	return upload, nil
}

func (s *Store) ListMultipartUploads(ctx context.Context) ([]catalog.MultipartRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := []catalog.MultipartRecord{}
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(prefixUpload)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				upload, err := decodeUpload(val)
				if err != nil {
					return err
				}
				out = append(out, *upload)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Keys iterate by upload ID; the contract orders by age instead
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

	return s.db.Update(func(txn *badgerdb.Txn) error {
		if err := txn.Delete(keyUpload(uploadID)); err != nil {
			return err
		}

		// Cascade to part rows
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = keyPartPrefix(uploadID)

		it := txn.NewIterator(opts)
		defer it.Close()

		var keysToDelete [][]byte
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			keysToDelete = append(keysToDelete, append([]byte{}, it.Item().Key()...))
		}
		for _, key := range keysToDelete {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetAccessKey(ctx context.Context, uploadID string) (string, error) {
	upload, err := s.GetMultipart(ctx, uploadID)
	if err != nil {
		return "", err
	}
	return upload.AccessKey, nil
}

func (s *Store) UpsertPart(ctx context.Context, part catalog.PartRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	part.LastModified = time.Now().UTC()
	data, err := encodePart(&part)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(keyPart(part.UploadID, part.PartNumber), data)
	})
}

func (s *Store) ListParts(ctx context.Context, uploadID string) ([]catalog.PartRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := []catalog.PartRecord{}
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = keyPartPrefix(uploadID)

		it := txn.NewIterator(opts)
		defer it.Close()

		// Zero-padded key suffix keeps iteration in part-number order
		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				part, err := decodePart(val)
				if err != nil {
					return err
				}
				out = append(out, *part)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
