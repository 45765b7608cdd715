package personalization

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"myGreenMarketPersonalization/domain"
	"myGreenMarketPersonalization/pkg/logger"
)

var ErrInvalidSettings = errors.New("invalid personalization settings")

// SettingsStore persists PersonalizationSettings per user.
type SettingsStore struct {
	blobs    BlobStore
	defaults domain.PersonalizationSettings
	validate *validator.Validate
}

func NewSettingsStore(blobs BlobStore, defaults domain.PersonalizationSettings) *SettingsStore {
	return &SettingsStore{
		blobs:    blobs,
		defaults: defaults,
		validate: validator.New(),
	}
}

// Get returns the stored settings, or the defaults when nothing usable is
// stored.
func (s *SettingsStore) Get(ctx context.Context, userID uint) (domain.PersonalizationSettings, error) {
	if err := ctx.Err(); err != nil {
		return domain.PersonalizationSettings{}, fmt.Errorf("context error: %w", err)
	}

	raw, err := s.blobs.Get(ctx, settingsKey(userID))
	if err != nil {
		logger.Warn("personalization_settings_load_failed",
			"trace_id", TraceIDFromContext(ctx),
			"user_id", userID,
			"error", err,
		)
		return s.defaults, nil
	}

	settings, err := decodeSettings(raw, s.defaults)
	if err == nil {
		err = s.validate.Struct(settings)
	}
	if err != nil {
		logger.Warn("personalization_settings_malformed",
			"trace_id", TraceIDFromContext(ctx),
			"user_id", userID,
			"error", err,
		)
		return s.defaults, nil
	}

	return settings, nil
}

// Update applies a partial update and persists it immediately.
func (s *SettingsStore) Update(
	ctx context.Context,
	userID uint,
	patch domain.PersonalizationSettingsPatch,
	now time.Time,
) (domain.PersonalizationSettings, error) {
	if err := ctx.Err(); err != nil {
		return domain.PersonalizationSettings{}, fmt.Errorf("context error: %w", err)
	}
	if err := s.validate.Struct(patch); err != nil {
		return domain.PersonalizationSettings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	var updated domain.PersonalizationSettings
	err := s.blobs.Merge(ctx, settingsKey(userID), func(current []byte) ([]byte, error) {
		base, err := decodeSettings(current, s.defaults)
		if err != nil {
			base = s.defaults
		}
		next := patch.Apply(base)
		next.UpdatedAt = now
		if err := s.validate.Struct(next); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
		}
		updated = next
		return encodeSettings(next)
	})
	if err != nil {
		return domain.PersonalizationSettings{}, fmt.Errorf("save settings: %w", err)
	}

	return updated, nil
}
