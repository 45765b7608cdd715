package domain

import "time"

type CategoryAffinity struct {
	Category        string    `json:"category"`
	Weight          float64   `json:"weight"`
	Count           int       `json:"count"`
	LastInteraction time.Time `json:"last_interaction"`
}

type ProductViewCount struct {
	ProductID  uint64    `json:"product_id"`
	Count      int       `json:"count"`
	LastViewed time.Time `json:"last_viewed"`
}

// FeedbackSignal is the net thumbs-up minus thumbs-down for one product.
type FeedbackSignal struct {
	ProductID uint64 `json:"product_id"`
	Category  string `json:"category,omitempty"`
	Net       int    `json:"net"`
}

type PersonalizationMetrics struct {
	Impressions int64 `json:"impressions"`
	Clicks      int64 `json:"clicks"`
}

type PersonalizationPreferences struct {
	TopCategories []string           `json:"top_categories"`
	Affinities    []CategoryAffinity `json:"affinities"`
}

// PersonalizationProfile is derived from the behavior log, purchase history
// and metrics. It is never persisted.
type PersonalizationProfile struct {
	Preferences      PersonalizationPreferences `json:"preferences"`
	MostViewed       []ProductViewCount         `json:"most_viewed"`
	MostViewedCounts map[uint64]int             `json:"most_viewed_counts"`
	RecentViews      []BehaviorEvent            `json:"recent_views"`
	Feedback         []FeedbackSignal           `json:"feedback"`
	Metrics          PersonalizationMetrics     `json:"metrics"`
	GeneratedAt      time.Time                  `json:"generated_at"`
}

// HasSignal reports whether any behavior at all has been aggregated.
func (p PersonalizationProfile) HasSignal() bool {
	return len(p.Preferences.Affinities) > 0 || len(p.MostViewed) > 0 ||
		len(p.RecentViews) > 0 || len(p.Feedback) > 0
}

type PersonalizationSettings struct {
	MaxSections            int       `json:"max_sections" validate:"gte=0,lte=20"`
	MaxItemsPerSection     int       `json:"max_items_per_section" validate:"gte=0,lte=100"`
	Enabled                bool      `json:"enabled"`
	ShowRecommended        bool      `json:"show_recommended"`
	ShowRecentlyViewed     bool      `json:"show_recently_viewed"`
	ShowMostViewed         bool      `json:"show_most_viewed"`
	ShowCategoryCollection bool      `json:"show_category_collection"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// PersonalizationSettingsPatch is a partial settings update; nil fields are
// left untouched.
type PersonalizationSettingsPatch struct {
	MaxSections            *int  `json:"max_sections" validate:"omitempty,gte=0,lte=20"`
	MaxItemsPerSection     *int  `json:"max_items_per_section" validate:"omitempty,gte=0,lte=100"`
	Enabled                *bool `json:"enabled"`
	ShowRecommended        *bool `json:"show_recommended"`
	ShowRecentlyViewed     *bool `json:"show_recently_viewed"`
	ShowMostViewed         *bool `json:"show_most_viewed"`
	ShowCategoryCollection *bool `json:"show_category_collection"`
}

// Apply returns a copy of s with the non-nil patch fields applied.
func (p PersonalizationSettingsPatch) Apply(s PersonalizationSettings) PersonalizationSettings {
	if p.MaxSections != nil {
		s.MaxSections = *p.MaxSections
	}
	if p.MaxItemsPerSection != nil {
		s.MaxItemsPerSection = *p.MaxItemsPerSection
	}
	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	if p.ShowRecommended != nil {
		s.ShowRecommended = *p.ShowRecommended
	}
	if p.ShowRecentlyViewed != nil {
		s.ShowRecentlyViewed = *p.ShowRecentlyViewed
	}
	if p.ShowMostViewed != nil {
		s.ShowMostViewed = *p.ShowMostViewed
	}
	if p.ShowCategoryCollection != nil {
		s.ShowCategoryCollection = *p.ShowCategoryCollection
	}
	return s
}

type SignalBreakdown struct {
	Category float64 `json:"category"`
	View     float64 `json:"view"`
	Feedback float64 `json:"feedback"`
}

type RecommendationResult struct {
	Product        Product         `json:"product"`
	RelevanceScore float64         `json:"relevance_score"`
	IsPersonalized bool            `json:"is_personalized"`
	Signals        SignalBreakdown `json:"signals"`
}

type Section struct {
	ID             string                 `json:"id"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	IconKey        string                 `json:"icon_key"`
	Products       []RecommendationResult `json:"products"`
	IsPersonalized bool                   `json:"is_personalized"`
}
