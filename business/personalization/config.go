package personalization

import (
	"myGreenMarketPersonalization/domain"
)

// Weights are the relative contributions of the three scoring signals.
type Weights struct {
	Category float64
	View     float64
	Feedback float64
}

// Normalize returns a copy whose weights sum to 1. All-zero weights fall back
// to the defaults.
func (w Weights) Normalize() Weights {
	sum := w.Category + w.View + w.Feedback
	if sum <= 0 {
		return DefaultConfig().Weights
	}
	return Weights{
		Category: w.Category / sum,
		View:     w.View / sum,
		Feedback: w.Feedback / sum,
	}
}

type Config struct {
	// max events kept per user; the oldest are evicted first
	EventCapacity int

	// number of distinct recent views kept in a profile
	RecentViewWindow int

	// how many ranked categories contribute to category affinity
	CategoryRankDepth int

	Weights Weights

	// share of a category's net feedback applied to its other products
	FeedbackPropagation float64

	// scores above this count as confidently personalized
	ConfidenceThreshold float64

	DefaultRecommendationCount int

	DefaultSettings domain.PersonalizationSettings
}

const (
	defaultEventCapacity       = 500
	defaultRecentViewWindow    = 10
	defaultCategoryRankDepth   = 5
	defaultWeightCategory      = 0.5
	defaultWeightView          = 0.35
	defaultWeightFeedback      = 0.15
	defaultFeedbackPropagation = 0.3
	defaultConfidenceThreshold = 0.3
	defaultRecommendationCount = 8
	defaultMaxSections         = 3
	defaultMaxItemsPerSection  = 8
)

func DefaultConfig() Config {
	return Config{
		EventCapacity:     defaultEventCapacity,
		RecentViewWindow:  defaultRecentViewWindow,
		CategoryRankDepth: defaultCategoryRankDepth,
		Weights: Weights{
			Category: defaultWeightCategory,
			View:     defaultWeightView,
			Feedback: defaultWeightFeedback,
		},
		FeedbackPropagation:        defaultFeedbackPropagation,
		ConfidenceThreshold:        defaultConfidenceThreshold,
		DefaultRecommendationCount: defaultRecommendationCount,
		DefaultSettings:            DefaultSettings(),
	}
}

func DefaultSettings() domain.PersonalizationSettings {
	return domain.PersonalizationSettings{
		MaxSections:            defaultMaxSections,
		MaxItemsPerSection:     defaultMaxItemsPerSection,
		Enabled:                true,
		ShowRecommended:        true,
		ShowRecentlyViewed:     true,
		ShowMostViewed:         true,
		ShowCategoryCollection: true,
	}
}

// withFallbacks fills zero values from the defaults.
func (c Config) withFallbacks() Config {
	def := DefaultConfig()
	if c.EventCapacity <= 0 {
		c.EventCapacity = def.EventCapacity
	}
	if c.RecentViewWindow <= 0 {
		c.RecentViewWindow = def.RecentViewWindow
	}
	if c.DefaultRecommendationCount <= 0 {
		c.DefaultRecommendationCount = def.DefaultRecommendationCount
	}
	if c.FeedbackPropagation < 0 {
		c.FeedbackPropagation = 0
	}
	c.Weights = c.Weights.Normalize()
	return c
}
