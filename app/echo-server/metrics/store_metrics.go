package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"myGreenMarketPersonalization/business/personalization"
)

var (
	StoreDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "personalization_store_operation_seconds",
		Help:    "Latency of blob store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"driver", "op"})

	StoreErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "personalization_store_errors_total",
		Help: "Blob store operations that returned an error",
	}, []string{"driver", "op"})
)

func Init() {
	prometheus.MustRegister(StoreDuration, StoreErrors)
}

// InstrumentedBlobStore times every call of the wrapped store.
type InstrumentedBlobStore struct {
	next   personalization.BlobStore
	driver string
}

var _ personalization.BlobStore = (*InstrumentedBlobStore)(nil)

func InstrumentBlobStore(next personalization.BlobStore, driver string) *InstrumentedBlobStore {
	return &InstrumentedBlobStore{next: next, driver: driver}
}

func (s *InstrumentedBlobStore) observe(op string, start time.Time, err error) {
	StoreDuration.WithLabelValues(s.driver, op).Observe(time.Since(start).Seconds())
	if err != nil {
		StoreErrors.WithLabelValues(s.driver, op).Inc()
	}
}

func (s *InstrumentedBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	raw, err := s.next.Get(ctx, key)
	s.observe("get", start, err)
	return raw, err
}

func (s *InstrumentedBlobStore) Set(ctx context.Context, key string, blob []byte) error {
	start := time.Now()
	err := s.next.Set(ctx, key, blob)
	s.observe("set", start, err)
	return err
}

func (s *InstrumentedBlobStore) Merge(ctx context.Context, key string, fn personalization.MergeFunc) error {
	start := time.Now()
	err := s.next.Merge(ctx, key, fn)
	s.observe("merge", start, err)
	return err
}

func (s *InstrumentedBlobStore) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.next.Delete(ctx, key)
	s.observe("delete", start, err)
	return err
}
