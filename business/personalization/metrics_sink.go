package personalization

import (
	"context"
	"fmt"
	"time"

	"myGreenMarketPersonalization/domain"
	"myGreenMarketPersonalization/pkg/logger"
)

// MetricTarget identifies what was shown or interacted with.
type MetricTarget struct {
	SectionID string
	ProductID uint64
	Category  string
}

// MetricsSink records impressions, clicks and explicit feedback. Everything
// it writes is read by the next profile build; nothing is rescored in place.
type MetricsSink struct {
	blobs  BlobStore
	events *EventStore
}

func NewMetricsSink(blobs BlobStore, events *EventStore) *MetricsSink {
	return &MetricsSink{
		blobs:  blobs,
		events: events,
	}
}

// Update bumps the counter for kind and appends the matching event. Duplicate
// calls are counted again. Only an unsupported kind or an incomplete target is
// reported; storage failures are logged.
func (m *MetricsSink) Update(ctx context.Context, userID uint, kind domain.EventType, target MetricTarget, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	var event domain.BehaviorEvent
	switch kind {
	case domain.EventTypeImpression:
		event = domain.NewImpressionEvent(target.SectionID, target.ProductID, at)
	case domain.EventTypeClick:
		event = domain.NewClickEvent(target.ProductID, target.Category, target.SectionID, at)
	default:
		return fmt.Errorf("%w: metrics accept impression or click, got %q", domain.ErrInvalidEventType, kind)
	}
	if err := event.Validate(); err != nil {
		return err
	}

	err := m.blobs.Merge(ctx, metricsKey(userID), func(current []byte) ([]byte, error) {
		counters, err := decodeMetrics(current)
		if err != nil {
			counters = domain.PersonalizationMetrics{}
		}
		if kind == domain.EventTypeImpression {
			counters.Impressions++
		} else {
			counters.Clicks++
		}
		return encodeMetrics(counters)
	})
	if err != nil {
		logger.Warn("personalization_metrics_update_failed",
			"trace_id", TraceIDFromContext(ctx),
			"user_id", userID,
			"kind", kind,
			"error", err,
		)
	}

	m.events.Record(ctx, userID, event)
	return nil
}

// RecordFeedback appends an explicit thumbs up or down for a product.
func (m *MetricsSink) RecordFeedback(ctx context.Context, userID uint, target MetricTarget, positive bool, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	event := domain.NewFeedbackEvent(target.SectionID, target.ProductID, target.Category, positive, at)
	if err := event.Validate(); err != nil {
		return err
	}

	m.events.Record(ctx, userID, event)
	return nil
}

// Metrics returns the running counters; unreadable counters read as zero.
func (m *MetricsSink) Metrics(ctx context.Context, userID uint) domain.PersonalizationMetrics {
	raw, err := m.blobs.Get(ctx, metricsKey(userID))
	if err == nil {
		var counters domain.PersonalizationMetrics
		if counters, err = decodeMetrics(raw); err == nil {
			return counters
		}
	}

	logger.Warn("personalization_metrics_load_failed",
		"trace_id", TraceIDFromContext(ctx),
		"user_id", userID,
		"error", err,
	)
	return domain.PersonalizationMetrics{}
}

// Reset zeroes the counters. It is the only way they go down.
func (m *MetricsSink) Reset(ctx context.Context, userID uint) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if err := m.blobs.Delete(ctx, metricsKey(userID)); err != nil {
		return fmt.Errorf("reset metrics: %w", err)
	}
	return nil
}
