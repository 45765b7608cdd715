package personalization

import (
	"context"
	"fmt"
)

// MergeFunc receives the current blob (nil when the key is absent) and
// returns the blob to write back.
type MergeFunc func(current []byte) ([]byte, error)

// BlobStore is the opaque key-value persistence the engine writes to.
// Get returns nil, nil for a missing key. Merge performs a read-merge-write;
// implementations may retry fn under contention, so fn must be pure.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, blob []byte) error
	Merge(ctx context.Context, key string, fn MergeFunc) error
	Delete(ctx context.Context, key string) error
}

func eventsKey(userID uint) string {
	return fmt.Sprintf("personalization|events|user=%d", userID)
}

func settingsKey(userID uint) string {
	return fmt.Sprintf("personalization|settings|user=%d", userID)
}

func metricsKey(userID uint) string {
	return fmt.Sprintf("personalization|metrics|user=%d", userID)
}
