package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"myGreenMarketPersonalization/business/personalization"
)

const maxMergeAttempts = 5

// BlobStore keeps personalization blobs as plain Redis strings.
type BlobStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ personalization.BlobStore = (*BlobStore)(nil)

// NewBlobStore returns a store whose keys expire after ttl; 0 keeps them.
func NewBlobStore(client *redis.Client, ttl time.Duration) *BlobStore {
	return &BlobStore{
		client: client,
		ttl:    ttl,
	}
}

func (r *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get %s from Redis: %w", key, err)
	}

	return val, nil
}

func (r *BlobStore) Set(ctx context.Context, key string, blob []byte) error {
	if err := r.client.Set(ctx, key, blob, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store %s in Redis: %w", key, err)
	}

	return nil
}

// Merge is an optimistic WATCH/MULTI transaction, replayed when another
// client touches the key in between.
func (r *BlobStore) Merge(ctx context.Context, key string, fn personalization.MergeFunc) error {
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			current = nil
		} else if err != nil {
			return fmt.Errorf("failed to get %s from Redis: %w", key, err)
		}

		next, err := fn(current)
		if err != nil {
			return fmt.Errorf("merge %s: %w", key, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, r.ttl)
			return nil
		})
		return err
	}

	var err error
	for attempt := 0; attempt < maxMergeAttempts; attempt++ {
		err = r.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}

	return fmt.Errorf("merge %s: %w", key, err)
}

func (r *BlobStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s from Redis: %w", key, err)
	}

	return nil
}
