//go:build !integration

package personalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myGreenMarketPersonalization/domain"
)

func TestPreferredCategories_RecentFrequentCategoryWins(t *testing.T) {
	var events []domain.BehaviorEvent
	// ten Spices views spread over the last three days
	for i := 0; i < 10; i++ {
		events = append(events, domain.NewViewEvent(0, "Spices", daysAgo(float64(i%3))))
	}
	events = append(events, domain.NewViewEvent(0, "Tea", daysAgo(1)))
	events = append(events, domain.NewViewEvent(0, "Coffee", daysAgo(40)))

	top := PreferredCategories(events, nil, testNow, 1)

	require.Len(t, top, 1)
	assert.Equal(t, "Spices", top[0].Category)
	assert.Equal(t, 10, top[0].Count)
}

func TestPreferredCategories_RecencyBeatsStaleFrequency(t *testing.T) {
	events := append(
		viewEvents(0, "Tea", 3, daysAgo(60)),
		domain.NewViewEvent(0, "Coffee", testNow),
	)

	top := PreferredCategories(events, nil, testNow, 0)

	require.Len(t, top, 2)
	assert.Equal(t, "Coffee", top[0].Category)
	assert.Equal(t, "Tea", top[1].Category)
}

func TestPreferredCategories_EqualWeightPrefersMoreInteractions(t *testing.T) {
	// 1 view now weighs 1.0; 2 views a day ago weigh 0.5 each
	events := []domain.BehaviorEvent{domain.NewViewEvent(0, "Honey", testNow)}
	events = append(events, viewEvents(0, "Nuts", 2, daysAgo(1))...)

	top := PreferredCategories(events, nil, testNow, 0)

	require.Len(t, top, 2)
	assert.Equal(t, "Nuts", top[0].Category)
}

func TestPreferredCategories_CountsClicksAndPurchases(t *testing.T) {
	events := []domain.BehaviorEvent{
		domain.NewClickEvent(1, "Tea", SectionFeatured, testNow),
		domain.NewImpressionEvent(SectionFeatured, 2, testNow),
		domain.NewFeedbackEvent(SectionFeatured, 3, "Coffee", true, testNow),
	}
	purchases := []domain.PurchaseLineItem{
		{ProductID: 4, Category: "Rice", PurchasedAt: testNow},
		{ProductID: 5, Category: "Rice", PurchasedAt: daysAgo(1)},
	}

	top := PreferredCategories(events, purchases, testNow, 0)

	require.Len(t, top, 2)
	assert.Equal(t, "Rice", top[0].Category)
	assert.Equal(t, 2, top[0].Count)
	assert.Equal(t, "Tea", top[1].Category)
}

func TestPreferredCategories_IgnoresEventsWithoutCategory(t *testing.T) {
	top := PreferredCategories(viewEvents(9, "", 4, testNow), nil, testNow, 0)
	assert.Empty(t, top)
}

func TestMostViewedProducts(t *testing.T) {
	var events []domain.BehaviorEvent
	events = append(events, viewEvents(1, "Tea", 2, daysAgo(2))...)
	events = append(events, viewEvents(2, "Tea", 5, daysAgo(1))...)
	events = append(events, viewEvents(3, "Tea", 2, testNow)...)
	events = append(events, domain.NewClickEvent(1, "Tea", SectionRecommended, testNow))

	t.Run("counts every view", func(t *testing.T) {
		top := MostViewedProducts(events, 0)
		require.Len(t, top, 3)
		assert.Equal(t, uint64(2), top[0].ProductID)
		assert.Equal(t, 5, top[0].Count)
	})

	t.Run("ties go to the latest viewed", func(t *testing.T) {
		top := MostViewedProducts(events, 0)
		assert.Equal(t, uint64(3), top[1].ProductID)
		assert.Equal(t, uint64(1), top[2].ProductID)
		assert.Equal(t, 2, top[2].Count)
	})

	t.Run("limit", func(t *testing.T) {
		assert.Len(t, MostViewedProducts(events, 1), 1)
	})
}

func TestRecentProductViews_DedupesMostRecentFirst(t *testing.T) {
	events := []domain.BehaviorEvent{
		domain.NewViewEvent(1, "Tea", daysAgo(3)),
		domain.NewViewEvent(2, "Tea", daysAgo(2)),
		domain.NewViewEvent(1, "Tea", daysAgo(1)),
		domain.NewViewEvent(0, "Tea", daysAgo(1)),
		domain.NewViewEvent(3, "Tea", testNow),
	}

	recent := RecentProductViews(events, 0)

	require.Len(t, recent, 3)
	assert.Equal(t, uint64(3), recent[0].ProductID())
	assert.Equal(t, uint64(1), recent[1].ProductID())
	assert.Equal(t, daysAgo(1), recent[1].Timestamp)
	assert.Equal(t, uint64(2), recent[2].ProductID())

	assert.Len(t, RecentProductViews(events, 2), 2)
}

func TestFeedbackSignals_NetPerProduct(t *testing.T) {
	events := []domain.BehaviorEvent{
		domain.NewFeedbackEvent(SectionRecommended, 2, "Tea", true, testNow),
		domain.NewFeedbackEvent(SectionRecommended, 1, "", false, testNow),
		domain.NewFeedbackEvent(SectionRecommended, 2, "Tea", true, testNow),
		domain.NewFeedbackEvent(SectionRecommended, 1, "Coffee", false, testNow),
		domain.NewFeedbackEvent(SectionRecommended, 2, "", false, testNow),
	}

	signals := FeedbackSignals(events)

	assert.Equal(t, []domain.FeedbackSignal{
		{ProductID: 1, Category: "Coffee", Net: -2},
		{ProductID: 2, Category: "Tea", Net: 1},
	}, signals)
}

func TestBuildProfile_Empty(t *testing.T) {
	profile := BuildProfile(Snapshot{}, testNow, DefaultConfig())

	assert.False(t, profile.HasSignal())
	assert.Empty(t, profile.Preferences.TopCategories)
	assert.Empty(t, profile.MostViewed)
	assert.Empty(t, profile.RecentViews)
	assert.Empty(t, profile.Feedback)
	assert.Equal(t, testNow, profile.GeneratedAt)
}

func TestBuildProfile_IsDeterministic(t *testing.T) {
	snap := Snapshot{
		Events: []domain.BehaviorEvent{
			domain.NewViewEvent(1, "Tea", daysAgo(1)),
			domain.NewViewEvent(2, "Coffee", daysAgo(1)),
			domain.NewFeedbackEvent(SectionRecommended, 2, "Coffee", true, testNow),
		},
		Purchases: []domain.PurchaseLineItem{{ProductID: 3, Category: "Rice", PurchasedAt: daysAgo(1)}},
		Metrics:   domain.PersonalizationMetrics{Impressions: 4, Clicks: 1},
	}

	first := BuildProfile(snap, testNow, DefaultConfig())
	second := BuildProfile(snap, testNow, DefaultConfig())

	assert.Equal(t, first, second)
	assert.True(t, first.HasSignal())
	assert.Equal(t, []string{"Coffee", "Rice", "Tea"}, first.Preferences.TopCategories)
	assert.Equal(t, 1, first.MostViewedCounts[1])
	assert.Equal(t, int64(4), first.Metrics.Impressions)
}

func TestBuildProfile_RecentViewWindow(t *testing.T) {
	var events []domain.BehaviorEvent
	for pid := uint64(1); pid <= 6; pid++ {
		events = append(events, domain.NewViewEvent(pid, "Tea", testNow))
	}
	cfg := DefaultConfig()
	cfg.RecentViewWindow = 4

	profile := BuildProfile(Snapshot{Events: events}, testNow, cfg)

	require.Len(t, profile.RecentViews, 4)
	assert.Equal(t, uint64(6), profile.RecentViews[0].ProductID())
	assert.Len(t, profile.MostViewed, 6)
}
