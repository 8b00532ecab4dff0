// Package badger provides an embedded catalog driver backed by BadgerDB.
// It needs no external database process, which makes it a good fit for
// single-node deployments and development setups that still want the
// catalog to survive restarts.
package badger

import (
	"context"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"
)

// Store is a catalog backed by an embedded BadgerDB at a filesystem path.
type Store struct {
	db *badgerdb.DB
}

// Open opens (creating if necessary) a BadgerDB catalog at path.
func Open(path string) (*Store, error) {
	opts := badgerdb.DefaultOptions(path)
	opts.Logger = nil // badger's default logger is too chatty for a library

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger catalog at %s: %w", path, err)
	}

	return &Store{db: db}, nil
}

// Ping verifies the database is usable by running an empty read transaction.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(txn *badgerdb.Txn) error { return nil })
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
