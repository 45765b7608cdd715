package personalization

import (
	"context"
	"fmt"
	"time"

	"myGreenMarketPersonalization/domain"
	"myGreenMarketPersonalization/pkg/logger"
)

// ---- Repository interfaces ----

type CatalogRepository interface {
	FindAll(ctx context.Context) ([]domain.Product, error)
}

type PurchaseHistoryRepository interface {
	FindByUser(ctx context.Context, userID uint) ([]domain.PurchaseLineItem, error)
}

// ---- Usecase / Service ----

type PersonalizationService struct {
	events       *EventStore
	settings     *SettingsStore
	sink         *MetricsSink
	catalogRepo  CatalogRepository
	purchaseRepo PurchaseHistoryRepository
	cfg          Config
	now          func() time.Time
}

func NewPersonalizationService(
	blobs BlobStore,
	catalogRepo CatalogRepository,
	purchaseRepo PurchaseHistoryRepository,
	cfg Config,
) *PersonalizationService {
	cfg = cfg.withFallbacks()
	events := NewEventStore(blobs, cfg.EventCapacity)

	return &PersonalizationService{
		events:       events,
		settings:     NewSettingsStore(blobs, cfg.DefaultSettings),
		sink:         NewMetricsSink(blobs, events),
		catalogRepo:  catalogRepo,
		purchaseRepo: purchaseRepo,
		cfg:          cfg,
		now:          time.Now,
	}
}

// ---- Settings ----

func (s *PersonalizationService) GetPersonalizationSettings(ctx context.Context, userID uint) (domain.PersonalizationSettings, error) {
	return s.settings.Get(ctx, userID)
}

func (s *PersonalizationService) UpdatePersonalizationSettings(
	ctx context.Context,
	userID uint,
	patch domain.PersonalizationSettingsPatch,
) (domain.PersonalizationSettings, error) {
	updated, err := s.settings.Update(ctx, userID, patch, s.now())
	if err != nil {
		return domain.PersonalizationSettings{}, err
	}

	logger.Info("personalization_settings_updated",
		"trace_id", TraceIDFromContext(ctx),
		"user_id", userID,
		"max_sections", updated.MaxSections,
		"max_items_per_section", updated.MaxItemsPerSection,
		"enabled", updated.Enabled,
	)
	return updated, nil
}

// ---- Profile ----

// loadSnapshot degrades every unreadable input to "no signal".
func (s *PersonalizationService) loadSnapshot(ctx context.Context, userID uint) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("context error: %w", err)
	}
	tid := TraceIDFromContext(ctx)

	events, err := s.events.All(ctx, userID)
	if err != nil {
		logger.Warn("personalization_events_unavailable",
			"trace_id", tid,
			"user_id", userID,
			"error", err,
		)
		events = []domain.BehaviorEvent{}
	}

	purchases := []domain.PurchaseLineItem{}
	if s.purchaseRepo != nil {
		items, err := s.purchaseRepo.FindByUser(ctx, userID)
		if err != nil {
			logger.Warn("personalization_purchases_unavailable",
				"trace_id", tid,
				"user_id", userID,
				"error", err,
			)
		} else {
			purchases = items
		}
	}

	return Snapshot{
		Events:    events,
		Purchases: purchases,
		Metrics:   s.sink.Metrics(ctx, userID),
	}, nil
}

func (s *PersonalizationService) GetPersonalizationProfile(ctx context.Context, userID uint) (domain.PersonalizationProfile, error) {
	snap, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return domain.PersonalizationProfile{}, err
	}
	return BuildProfile(snap, s.now(), s.cfg), nil
}

func (s *PersonalizationService) GetPreferredCategories(ctx context.Context, userID uint, topN int) ([]string, error) {
	snap, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	affinities := PreferredCategories(snap.Events, snap.Purchases, s.now(), topN)
	out := make([]string, 0, len(affinities))
	for _, a := range affinities {
		out = append(out, a.Category)
	}
	return out, nil
}

func (s *PersonalizationService) GetMostViewedProducts(ctx context.Context, userID uint, limit int) ([]domain.ProductViewCount, error) {
	snap, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return MostViewedProducts(snap.Events, limit), nil
}

func (s *PersonalizationService) GetRecentProductViews(ctx context.Context, userID uint, limit int) ([]domain.BehaviorEvent, error) {
	snap, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return RecentProductViews(snap.Events, limit), nil
}

// ---- Scoring / sections ----

// GetPersonalizedRecommendations scores candidates against the user's
// profile. A nil candidate list means the whole catalog.
func (s *PersonalizationService) GetPersonalizedRecommendations(
	ctx context.Context,
	userID uint,
	candidates []domain.Product,
	count int,
	excludeIDs []uint64,
) ([]domain.RecommendationResult, error) {
	profile, err := s.GetPersonalizationProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if candidates == nil {
		if candidates, err = s.catalogRepo.FindAll(ctx); err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
	}

	results := Score(profile, candidates, count, excludeIDs, s.cfg)

	logger.Debug("personalization_recommend",
		"trace_id", TraceIDFromContext(ctx),
		"user_id", userID,
		"candidate_count", len(candidates),
		"excluded", len(excludeIDs),
		"result_count", len(results),
	)
	return results, nil
}

// GetSections assembles the display sections for the user's page.
func (s *PersonalizationService) GetSections(ctx context.Context, userID uint) (AssemblyResult, error) {
	settings, err := s.settings.Get(ctx, userID)
	if err != nil {
		return AssemblyResult{}, err
	}

	catalog, err := s.catalogRepo.FindAll(ctx)
	if err != nil {
		return AssemblyResult{}, fmt.Errorf("load catalog: %w", err)
	}

	profile, err := s.GetPersonalizationProfile(ctx, userID)
	if err != nil {
		return AssemblyResult{}, err
	}

	result := AssembleSections(AssemblyInput{
		Profile:  profile,
		Catalog:  catalog,
		Settings: settings,
	}, s.cfg)

	tid := TraceIDFromContext(ctx)
	if result.Err != nil {
		logger.Warn("personalization_sections_degraded",
			"trace_id", tid,
			"user_id", userID,
			"error", result.Err,
		)
	}

	outcome := result.Outcome()
	SectionsAssembledTotal.WithLabelValues(outcome).Inc()
	logger.Debug("personalization_sections",
		"trace_id", tid,
		"user_id", userID,
		"outcome", outcome,
		"has_signal", profile.HasSignal(),
		"section_count", len(result.Sections),
	)

	return result, nil
}

// ---- Recording ----

func (s *PersonalizationService) RecordView(ctx context.Context, userID uint, productID uint64, category string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	event := domain.NewViewEvent(productID, category, s.now())
	if err := event.Validate(); err != nil {
		return err
	}

	s.events.Record(ctx, userID, event)
	return nil
}

func (s *PersonalizationService) UpdatePersonalizationMetrics(
	ctx context.Context,
	userID uint,
	kind domain.EventType,
	target MetricTarget,
) error {
	return s.sink.Update(ctx, userID, kind, target, s.now())
}

func (s *PersonalizationService) RecordFeedback(ctx context.Context, userID uint, target MetricTarget, positive bool) error {
	return s.sink.RecordFeedback(ctx, userID, target, positive, s.now())
}

// ClearPersonalizationData drops the behavior log and counters.
func (s *PersonalizationService) ClearPersonalizationData(ctx context.Context, userID uint) error {
	if err := s.events.Clear(ctx, userID); err != nil {
		return err
	}
	if err := s.sink.Reset(ctx, userID); err != nil {
		return err
	}

	logger.Info("personalization_data_cleared",
		"trace_id", TraceIDFromContext(ctx),
		"user_id", userID,
	)
	return nil
}
