package personalization

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"myGreenMarketPersonalization/domain"
	"myGreenMarketPersonalization/pkg/logger"
)

var errInvalidCandidate = errors.New("invalid candidate")

// scorer holds the profile lookups shared by every candidate of one run.
type scorer struct {
	cfg Config

	categoryRank map[string]float64

	viewCounts   map[uint64]int
	maxViewCount int
	recentRank   map[uint64]float64

	productFeedback  map[uint64]int
	categoryFeedback map[string]int
}

func newScorer(profile domain.PersonalizationProfile, catalog []domain.Product, cfg Config) *scorer {
	cfg = cfg.withFallbacks()

	s := &scorer{
		cfg:              cfg,
		categoryRank:     make(map[string]float64),
		viewCounts:       make(map[uint64]int),
		recentRank:       make(map[uint64]float64),
		productFeedback:  make(map[uint64]int),
		categoryFeedback: make(map[string]int),
	}

	// linear rank decay: first = 1, last = 1/n, absent = 0
	ranked := profile.Preferences.Affinities
	if cfg.CategoryRankDepth > 0 && len(ranked) > cfg.CategoryRankDepth {
		ranked = ranked[:cfg.CategoryRankDepth]
	}
	n := len(ranked)
	for i, a := range ranked {
		s.categoryRank[a.Category] = float64(n-i) / float64(n)
	}

	for _, mv := range profile.MostViewed {
		s.viewCounts[mv.ProductID] = mv.Count
		if mv.Count > s.maxViewCount {
			s.maxViewCount = mv.Count
		}
	}

	window := cfg.RecentViewWindow
	if len(profile.RecentViews) > window {
		window = len(profile.RecentViews)
	}
	for i, ev := range profile.RecentViews {
		s.recentRank[ev.ProductID()] = float64(window-i) / float64(window)
	}

	categoryOf := make(map[uint64]string, len(catalog))
	for _, p := range catalog {
		categoryOf[p.ID] = p.ProductCategory
	}
	for _, fb := range profile.Feedback {
		s.productFeedback[fb.ProductID] += fb.Net
		category := fb.Category
		if category == "" {
			category = categoryOf[fb.ProductID]
		}
		if category != "" {
			s.categoryFeedback[category] += fb.Net
		}
	}

	return s
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (s *scorer) categorySignal(p domain.Product) float64 {
	return s.categoryRank[p.ProductCategory]
}

// viewSignal blends view frequency with recency rank, each in [0,1].
func (s *scorer) viewSignal(p domain.Product) float64 {
	freq := 0.0
	if s.maxViewCount > 0 {
		freq = float64(s.viewCounts[p.ID]) / float64(s.maxViewCount)
	}
	return 0.5*freq + 0.5*s.recentRank[p.ID]
}

// squash maps a net vote count onto (-1,1) and stays strictly increasing, so
// every extra vote moves the signal.
func squash(net float64) float64 {
	return net / (1 + math.Abs(net))
}

// feedbackSignal is in (-1,1): the product's own net feedback plus a damped
// share of its category's net feedback from other products.
func (s *scorer) feedbackSignal(p domain.Product) float64 {
	own := s.productFeedback[p.ID]
	net := float64(own)

	if p.ProductCategory != "" {
		others := s.categoryFeedback[p.ProductCategory] - own
		net += s.cfg.FeedbackPropagation * float64(others)
	}

	return squash(net)
}

func (s *scorer) score(p domain.Product) (domain.RecommendationResult, error) {
	if p.ID == 0 {
		return domain.RecommendationResult{}, fmt.Errorf("%w: missing product id", errInvalidCandidate)
	}

	signals := domain.SignalBreakdown{
		Category: s.categorySignal(p),
		View:     s.viewSignal(p),
		Feedback: s.feedbackSignal(p),
	}

	w := s.cfg.Weights
	total := w.Category*signals.Category + w.View*signals.View + w.Feedback*signals.Feedback

	return domain.RecommendationResult{
		Product:        p,
		RelevanceScore: clamp(total, 0, 1),
		IsPersonalized: signals.Category != 0 || signals.View != 0 || signals.Feedback != 0,
		Signals:        signals,
	}, nil
}

// lessByCatalogOrder is the deterministic tie-break: featured first, then id.
func lessByCatalogOrder(a, b domain.Product) bool {
	if a.IsFeatured != b.IsFeatured {
		return a.IsFeatured
	}
	return a.ID < b.ID
}

func sortResults(results []domain.RecommendationResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].RelevanceScore != results[j].RelevanceScore {
			return results[i].RelevanceScore > results[j].RelevanceScore
		}
		return lessByCatalogOrder(results[i].Product, results[j].Product)
	})
}

// Score ranks candidates against the profile and returns up to count results.
// Malformed candidates are logged and left out; they never fail the batch.
func Score(
	profile domain.PersonalizationProfile,
	candidates []domain.Product,
	count int,
	excludeIDs []uint64,
	cfg Config,
) []domain.RecommendationResult {
	cfg = cfg.withFallbacks()
	if count <= 0 {
		count = cfg.DefaultRecommendationCount
	}

	excluded := make(map[uint64]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}

	s := newScorer(profile, candidates, cfg)

	results := make([]domain.RecommendationResult, 0, len(candidates))
	seen := make(map[uint64]struct{}, len(candidates))
	for _, p := range candidates {
		if _, skip := excluded[p.ID]; skip {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}

		res, err := s.score(p)
		if err != nil {
			logger.Warn("personalization_score_candidate_failed",
				"product_name", p.ProductName,
				"error", err,
			)
			continue
		}
		seen[p.ID] = struct{}{}
		results = append(results, res)
	}

	sortResults(results)

	if len(results) > count {
		results = results[:count]
	}
	return results
}

// AboveThreshold keeps the results the engine is confident about.
func AboveThreshold(results []domain.RecommendationResult, threshold float64) []domain.RecommendationResult {
	out := make([]domain.RecommendationResult, 0, len(results))
	for _, r := range results {
		if r.IsPersonalized && r.RelevanceScore > threshold {
			out = append(out, r)
		}
	}
	return out
}
