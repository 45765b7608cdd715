//go:build !integration

package personalization

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"myGreenMarketPersonalization/domain"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func daysAgo(d float64) time.Time {
	return testNow.Add(-time.Duration(d * float64(24*time.Hour)))
}

// memBlobStore is an in-memory BlobStore; failWrites simulates a store that
// rejects writes (quota exceeded, connection lost).
type memBlobStore struct {
	mu         sync.Mutex
	data       map[string][]byte
	failWrites bool
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{data: make(map[string][]byte)}
}

var errWriteRejected = errors.New("write rejected")

func (m *memBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *memBlobStore) Set(_ context.Context, key string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return errWriteRejected
	}
	m.data[key] = append([]byte(nil), blob...)
	return nil
}

func (m *memBlobStore) Merge(_ context.Context, key string, fn MergeFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return errWriteRejected
	}
	var current []byte
	if v, ok := m.data[key]; ok {
		current = append([]byte(nil), v...)
	}
	next, err := fn(current)
	if err != nil {
		return fmt.Errorf("merge %s: %w", key, err)
	}
	m.data[key] = next
	return nil
}

func (m *memBlobStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return errWriteRejected
	}
	delete(m.data, key)
	return nil
}

func (m *memBlobStore) setFailWrites(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrites = fail
}

// mockBlobStore is a testify mock of BlobStore.
type mockBlobStore struct {
	mock.Mock
}

func (m *mockBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	raw, _ := args.Get(0).([]byte)
	return raw, args.Error(1)
}

func (m *mockBlobStore) Set(ctx context.Context, key string, blob []byte) error {
	args := m.Called(ctx, key, blob)
	return args.Error(0)
}

func (m *mockBlobStore) Merge(ctx context.Context, key string, fn MergeFunc) error {
	args := m.Called(ctx, key, fn)
	return args.Error(0)
}

func (m *mockBlobStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type fakeCatalog struct {
	products []domain.Product
	err      error
}

func (f *fakeCatalog) FindAll(context.Context) ([]domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

type fakePurchases struct {
	items []domain.PurchaseLineItem
	err   error
}

func (f *fakePurchases) FindByUser(context.Context, uint) ([]domain.PurchaseLineItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func product(id uint64, category string, rating float64, featured bool) domain.Product {
	return domain.Product{
		ID:              id,
		ProductName:     fmt.Sprintf("product-%d", id),
		ProductCategory: category,
		NormalPrice:     10,
		Rating:          rating,
		IsFeatured:      featured,
	}
}

func viewEvents(productID uint64, category string, n int, at time.Time) []domain.BehaviorEvent {
	out := make([]domain.BehaviorEvent, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.NewViewEvent(productID, category, at))
	}
	return out
}
