package personalization

import (
	"context"
	"fmt"

	"myGreenMarketPersonalization/domain"
	"myGreenMarketPersonalization/pkg/logger"
)

// EventStore is a capped, append-only behavior log per user.
type EventStore struct {
	blobs    BlobStore
	capacity int
}

func NewEventStore(blobs BlobStore, capacity int) *EventStore {
	if capacity <= 0 {
		capacity = defaultEventCapacity
	}
	return &EventStore{
		blobs:    blobs,
		capacity: capacity,
	}
}

// Record appends one event, evicting the oldest ones beyond capacity.
// Failures are logged and swallowed: telemetry must never break a request.
func (s *EventStore) Record(ctx context.Context, userID uint, event domain.BehaviorEvent) {
	tid := TraceIDFromContext(ctx)

	if err := s.append(ctx, userID, event); err != nil {
		reason := "store"
		if err := event.Validate(); err != nil {
			reason = "invalid"
		}
		EventsDroppedTotal.WithLabelValues(reason).Inc()
		logger.Warn("personalization_record_failed",
			"trace_id", tid,
			"user_id", userID,
			"event_type", event.Type,
			"error", err,
		)
		return
	}

	EventsRecordedTotal.WithLabelValues(string(event.Type)).Inc()
	logger.Debug("personalization_record",
		"trace_id", tid,
		"user_id", userID,
		"event_type", event.Type,
		"product_id", event.ProductID(),
	)
}

func (s *EventStore) append(ctx context.Context, userID uint, event domain.BehaviorEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if err := event.Validate(); err != nil {
		return err
	}

	return s.blobs.Merge(ctx, eventsKey(userID), func(current []byte) ([]byte, error) {
		events, err := decodeEvents(current)
		if err != nil {
			logger.Warn("personalization_event_log_malformed",
				"user_id", userID,
				"error", err,
			)
		}
		events = append(events, event)
		return encodeEvents(capEvents(events, s.capacity))
	})
}

// capEvents keeps the newest capacity events.
func capEvents(events []domain.BehaviorEvent, capacity int) []domain.BehaviorEvent {
	if capacity <= 0 || len(events) <= capacity {
		return events
	}
	kept := make([]domain.BehaviorEvent, capacity)
	copy(kept, events[len(events)-capacity:])
	return kept
}

// All returns the whole log in append order. A malformed log reads as empty.
func (s *EventStore) All(ctx context.Context, userID uint) ([]domain.BehaviorEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	raw, err := s.blobs.Get(ctx, eventsKey(userID))
	if err != nil {
		return nil, fmt.Errorf("load event log: %w", err)
	}

	events, err := decodeEvents(raw)
	if err != nil {
		logger.Warn("personalization_event_log_malformed",
			"trace_id", TraceIDFromContext(ctx),
			"user_id", userID,
			"error", err,
		)
	}

	return events, nil
}

// QueryByType returns the limit most recent events of one type, most recent
// first. limit <= 0 returns all of them.
func (s *EventStore) QueryByType(ctx context.Context, userID uint, eventType domain.EventType, limit int) ([]domain.BehaviorEvent, error) {
	events, err := s.All(ctx, userID)
	if err != nil {
		return nil, err
	}
	return filterByType(events, eventType, limit), nil
}

func filterByType(events []domain.BehaviorEvent, eventType domain.EventType, limit int) []domain.BehaviorEvent {
	out := make([]domain.BehaviorEvent, 0)
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type != eventType {
			continue
		}
		out = append(out, events[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Clear empties the user's log.
func (s *EventStore) Clear(ctx context.Context, userID uint) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if err := s.blobs.Delete(ctx, eventsKey(userID)); err != nil {
		return fmt.Errorf("clear event log: %w", err)
	}
	return nil
}
