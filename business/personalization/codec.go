package personalization

import (
	"fmt"

	"github.com/goccy/go-json"

	"myGreenMarketPersonalization/domain"
)

const eventLogVersion = 1

// eventLog is the persisted shape of a user's behavior log.
type eventLog struct {
	Version int                    `json:"version"`
	Events  []domain.BehaviorEvent `json:"events"`
}

func encodeEvents(events []domain.BehaviorEvent) ([]byte, error) {
	raw, err := json.Marshal(eventLog{Version: eventLogVersion, Events: events})
	if err != nil {
		return nil, fmt.Errorf("marshal event log: %w", err)
	}
	return raw, nil
}

// decodeEvents never fails the caller: a nil blob is an empty log, and a
// malformed blob or one written under another version is reported through the
// error while still yielding an empty log. Entries that no longer validate are
// skipped.
func decodeEvents(raw []byte) ([]domain.BehaviorEvent, error) {
	if len(raw) == 0 {
		return []domain.BehaviorEvent{}, nil
	}

	var log eventLog
	if err := json.Unmarshal(raw, &log); err != nil {
		return []domain.BehaviorEvent{}, fmt.Errorf("unmarshal event log: %w", err)
	}
	if log.Version != eventLogVersion {
		return []domain.BehaviorEvent{}, fmt.Errorf("unsupported event log version %d", log.Version)
	}

	events := make([]domain.BehaviorEvent, 0, len(log.Events))
	skipped := 0
	for _, ev := range log.Events {
		if err := ev.Validate(); err != nil {
			skipped++
			continue
		}
		events = append(events, ev)
	}
	if skipped > 0 {
		return events, fmt.Errorf("skipped %d malformed events", skipped)
	}

	return events, nil
}

func encodeMetrics(m domain.PersonalizationMetrics) ([]byte, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metrics: %w", err)
	}
	return raw, nil
}

func decodeMetrics(raw []byte) (domain.PersonalizationMetrics, error) {
	var m domain.PersonalizationMetrics
	if len(raw) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return domain.PersonalizationMetrics{}, fmt.Errorf("unmarshal metrics: %w", err)
	}
	if m.Impressions < 0 || m.Clicks < 0 {
		return domain.PersonalizationMetrics{}, fmt.Errorf("negative metrics counters")
	}
	return m, nil
}

func encodeSettings(s domain.PersonalizationSettings) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal settings: %w", err)
	}
	return raw, nil
}

// decodeSettings overlays the stored settings on defaults so fields added
// later keep sane values.
func decodeSettings(raw []byte, defaults domain.PersonalizationSettings) (domain.PersonalizationSettings, error) {
	if len(raw) == 0 {
		return defaults, nil
	}
	s := defaults
	if err := json.Unmarshal(raw, &s); err != nil {
		return defaults, fmt.Errorf("unmarshal settings: %w", err)
	}
	return s, nil
}
