package badger

import (
	"context"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/shelf/pkg/catalog"
)

func (s *Store) UpsertObject(ctx context.Context, obj catalog.ObjectRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	obj.LastModified = time.Now().UTC()
	data, err := encodeObject(&obj)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(keyObject(obj.Bucket, obj.Key), data)
	})
}

func (s *Store) GetObject(ctx context.Context, bucket, key string) (*catalog.ObjectRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var obj *catalog.ObjectRecord
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(keyObject(bucket, key))
		if err == badgerdb.ErrKeyNotFound {
			return catalog.ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			var decErr error
			obj, decErr = decodeObject(val)
			return decErr
		})
	})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (s *Store) ListObjects(ctx context.Context, bucket, keyPrefix string) ([]catalog.ObjectRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []catalog.ObjectRecord
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = keyObjectPrefix(bucket, keyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if len(out) >= catalog.MaxListKeys {
				break
			}
			err := it.Item().Value(func(val []byte) error {
				obj, err := decodeObject(val)
				if err != nil {
					return err
				}
				out = append(out, *obj)
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

func (s *Store) ListBuckets(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buckets []string
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false // key-only scan
		opts.Prefix = []byte(prefixObject)

		it := txn.NewIterator(opts)
		defer it.Close()

		// Object keys iterate in (bucket, key) order, so each new bucket
		// shows up exactly once as the name changes.
		var last string
		for it.Rewind(); it.Valid(); it.Next() {
			bucket, _, err := splitObjectKey(it.Item().Key())
			if err != nil {
				return err
			}
			if len(buckets) == 0 || bucket != last {
				buckets = append(buckets, bucket)
				last = bucket
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return buckets, nil
}
