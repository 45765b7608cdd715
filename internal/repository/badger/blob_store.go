package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"myGreenMarketPersonalization/business/personalization"
)

const maxMergeAttempts = 5

// BlobStore keeps personalization blobs in an embedded BadgerDB.
type BlobStore struct {
	db *badger.DB
}

var _ personalization.BlobStore = (*BlobStore)(nil)

func NewBlobStore(db *badger.DB) *BlobStore {
	return &BlobStore{db: db}
}

func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = readValue(txn, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BlobStore) Set(ctx context.Context, key string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(key), blob); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		return nil
	})
}

// Merge runs fn inside one transaction. Badger's optimistic concurrency
// reports a concurrent write as ErrConflict; the merge is then replayed.
func (s *BlobStore) Merge(ctx context.Context, key string, fn personalization.MergeFunc) error {
	var err error
	for attempt := 0; attempt < maxMergeAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context error: %w", err)
		}

		err = s.db.Update(func(txn *badger.Txn) error {
			current, err := readValue(txn, key)
			if err != nil {
				return err
			}
			next, err := fn(current)
			if err != nil {
				return fmt.Errorf("merge %s: %w", key, err)
			}
			if err := txn.Set([]byte(key), next); err != nil {
				return fmt.Errorf("set %s: %w", key, err)
			}
			return nil
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("merge %s: %w", key, err)
}

func (s *BlobStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(key)); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
		return nil
	})
}

// readValue copies the value out of the transaction; nil when absent.
func readValue(txn *badger.Txn, key string) ([]byte, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	out, err := item.ValueCopy(nil)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return out, nil
}
