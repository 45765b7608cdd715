//go:build !integration

package personalization

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myGreenMarketPersonalization/domain"
)

func newTestSink() (*MetricsSink, *EventStore, *memBlobStore) {
	blobs := newMemBlobStore()
	events := NewEventStore(blobs, 50)
	return NewMetricsSink(blobs, events), events, blobs
}

func TestMetricsSink_CountsImpressionsAndClicks(t *testing.T) {
	ctx := context.Background()
	sink, events, _ := newTestSink()

	target := MetricTarget{SectionID: SectionRecommended, ProductID: 4, Category: "Spices"}
	require.NoError(t, sink.Update(ctx, 1, domain.EventTypeImpression, target, testNow))
	require.NoError(t, sink.Update(ctx, 1, domain.EventTypeImpression, target, testNow))
	require.NoError(t, sink.Update(ctx, 1, domain.EventTypeClick, target, testNow))

	assert.Equal(t, domain.PersonalizationMetrics{Impressions: 2, Clicks: 1}, sink.Metrics(ctx, 1))

	clicks, err := events.QueryByType(ctx, 1, domain.EventTypeClick, 0)
	require.NoError(t, err)
	require.Len(t, clicks, 1)
	assert.Equal(t, "Spices", clicks[0].Category())
	assert.Equal(t, SectionRecommended, clicks[0].Click.SectionID)
}

func TestMetricsSink_RejectsUnsupportedKind(t *testing.T) {
	sink, _, _ := newTestSink()

	err := sink.Update(context.Background(), 1, domain.EventTypeView, MetricTarget{ProductID: 1}, testNow)
	assert.ErrorIs(t, err, domain.ErrInvalidEventType)
}

func TestMetricsSink_RejectsIncompleteTarget(t *testing.T) {
	sink, _, _ := newTestSink()

	err := sink.Update(context.Background(), 1, domain.EventTypeImpression, MetricTarget{ProductID: 1}, testNow)
	assert.ErrorIs(t, err, domain.ErrInvalidEvent)

	err = sink.RecordFeedback(context.Background(), 1, MetricTarget{SectionID: SectionFeatured}, true, testNow)
	assert.ErrorIs(t, err, domain.ErrInvalidEvent)
}

func TestMetricsSink_StorageFailureIsNotAnError(t *testing.T) {
	sink, _, blobs := newTestSink()
	blobs.setFailWrites(true)

	err := sink.Update(context.Background(), 1, domain.EventTypeClick,
		MetricTarget{SectionID: SectionFeatured, ProductID: 2}, testNow)
	assert.NoError(t, err)
	assert.Equal(t, domain.PersonalizationMetrics{}, sink.Metrics(context.Background(), 1))
}

func TestMetricsSink_FeedbackIsRecorded(t *testing.T) {
	ctx := context.Background()
	sink, events, _ := newTestSink()

	require.NoError(t, sink.RecordFeedback(ctx, 1, MetricTarget{SectionID: SectionRecommended, ProductID: 9}, false, testNow))

	feedback, err := events.QueryByType(ctx, 1, domain.EventTypeFeedback, 0)
	require.NoError(t, err)
	require.Len(t, feedback, 1)
	assert.False(t, feedback[0].Feedback.Positive)
}

func TestMetricsSink_MalformedCountersReadAsZero(t *testing.T) {
	ctx := context.Background()
	sink, _, blobs := newTestSink()
	require.NoError(t, blobs.Set(ctx, metricsKey(1), []byte(`{"impressions":-3}`)))

	assert.Equal(t, domain.PersonalizationMetrics{}, sink.Metrics(ctx, 1))

	require.NoError(t, sink.Update(ctx, 1, domain.EventTypeImpression, MetricTarget{SectionID: SectionFeatured}, testNow))
	assert.Equal(t, int64(1), sink.Metrics(ctx, 1).Impressions)
}

func TestMetricsSink_Reset(t *testing.T) {
	ctx := context.Background()
	sink, _, _ := newTestSink()

	require.NoError(t, sink.Update(ctx, 1, domain.EventTypeImpression, MetricTarget{SectionID: SectionFeatured}, testNow))
	require.NoError(t, sink.Reset(ctx, 1))

	assert.Equal(t, domain.PersonalizationMetrics{}, sink.Metrics(ctx, 1))
}
