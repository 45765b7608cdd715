package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypeView       EventType = "view"
	EventTypeClick      EventType = "click"
	EventTypeImpression EventType = "impression"
	EventTypeFeedback   EventType = "feedback"
)

var (
	ErrInvalidEventType = errors.New("invalid event type")
	ErrInvalidEvent     = errors.New("invalid behavior event")
)

// ParseEventType maps a raw string onto a known EventType.
func ParseEventType(raw string) (EventType, error) {
	switch t := EventType(raw); t {
	case EventTypeView, EventTypeClick, EventTypeImpression, EventTypeFeedback:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidEventType, raw)
	}
}

type ViewPayload struct {
	ProductID uint64 `json:"product_id,omitempty"`
	Category  string `json:"category,omitempty"`
}

type ClickPayload struct {
	ProductID uint64 `json:"product_id,omitempty"`
	Category  string `json:"category,omitempty"`
	SectionID string `json:"section_id,omitempty"`
}

type ImpressionPayload struct {
	SectionID string `json:"section_id"`
	ProductID uint64 `json:"product_id,omitempty"`
}

type FeedbackPayload struct {
	SectionID string `json:"section_id,omitempty"`
	ProductID uint64 `json:"product_id"`
	Category  string `json:"category,omitempty"`
	Positive  bool   `json:"positive"`
}

// BehaviorEvent is one entry of a user's behavior log. Exactly one payload is
// set and it always matches Type.
type BehaviorEvent struct {
	ID         string             `json:"id"`
	Type       EventType          `json:"type"`
	Timestamp  time.Time          `json:"timestamp"`
	View       *ViewPayload       `json:"view,omitempty"`
	Click      *ClickPayload      `json:"click,omitempty"`
	Impression *ImpressionPayload `json:"impression,omitempty"`
	Feedback   *FeedbackPayload   `json:"feedback,omitempty"`
}

func NewViewEvent(productID uint64, category string, at time.Time) BehaviorEvent {
	return BehaviorEvent{
		ID:        uuid.NewString(),
		Type:      EventTypeView,
		Timestamp: at,
		View:      &ViewPayload{ProductID: productID, Category: category},
	}
}

func NewClickEvent(productID uint64, category, sectionID string, at time.Time) BehaviorEvent {
	return BehaviorEvent{
		ID:        uuid.NewString(),
		Type:      EventTypeClick,
		Timestamp: at,
		Click:     &ClickPayload{ProductID: productID, Category: category, SectionID: sectionID},
	}
}

func NewImpressionEvent(sectionID string, productID uint64, at time.Time) BehaviorEvent {
	return BehaviorEvent{
		ID:         uuid.NewString(),
		Type:       EventTypeImpression,
		Timestamp:  at,
		Impression: &ImpressionPayload{SectionID: sectionID, ProductID: productID},
	}
}

func NewFeedbackEvent(sectionID string, productID uint64, category string, positive bool, at time.Time) BehaviorEvent {
	return BehaviorEvent{
		ID:        uuid.NewString(),
		Type:      EventTypeFeedback,
		Timestamp: at,
		Feedback: &FeedbackPayload{
			SectionID: sectionID,
			ProductID: productID,
			Category:  category,
			Positive:  positive,
		},
	}
}

// Validate checks that the payload matches the event type and carries the
// fields that type requires.
func (e BehaviorEvent) Validate() error {
	if e.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidEvent)
	}

	set := 0
	for _, present := range []bool{e.View != nil, e.Click != nil, e.Impression != nil, e.Feedback != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: expected exactly one payload, got %d", ErrInvalidEvent, set)
	}

	switch e.Type {
	case EventTypeView:
		if e.View == nil {
			return fmt.Errorf("%w: view event without view payload", ErrInvalidEvent)
		}
		if e.View.ProductID == 0 && e.View.Category == "" {
			return fmt.Errorf("%w: view needs product_id or category", ErrInvalidEvent)
		}
	case EventTypeClick:
		if e.Click == nil {
			return fmt.Errorf("%w: click event without click payload", ErrInvalidEvent)
		}
		if e.Click.ProductID == 0 && e.Click.Category == "" {
			return fmt.Errorf("%w: click needs product_id or category", ErrInvalidEvent)
		}
	case EventTypeImpression:
		if e.Impression == nil {
			return fmt.Errorf("%w: impression event without impression payload", ErrInvalidEvent)
		}
		if e.Impression.SectionID == "" {
			return fmt.Errorf("%w: impression needs section_id", ErrInvalidEvent)
		}
	case EventTypeFeedback:
		if e.Feedback == nil {
			return fmt.Errorf("%w: feedback event without feedback payload", ErrInvalidEvent)
		}
		if e.Feedback.ProductID == 0 {
			return fmt.Errorf("%w: feedback needs product_id", ErrInvalidEvent)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidEventType, e.Type)
	}

	return nil
}

// ProductID returns the product the event refers to, 0 when none.
func (e BehaviorEvent) ProductID() uint64 {
	switch {
	case e.View != nil:
		return e.View.ProductID
	case e.Click != nil:
		return e.Click.ProductID
	case e.Impression != nil:
		return e.Impression.ProductID
	case e.Feedback != nil:
		return e.Feedback.ProductID
	}
	return 0
}

// Category returns the category the event refers to, "" when none.
func (e BehaviorEvent) Category() string {
	switch {
	case e.View != nil:
		return e.View.Category
	case e.Click != nil:
		return e.Click.Category
	case e.Feedback != nil:
		return e.Feedback.Category
	}
	return ""
}
