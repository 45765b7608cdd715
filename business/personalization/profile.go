package personalization

import (
	"sort"
	"time"

	"myGreenMarketPersonalization/domain"
)

// Snapshot is everything a profile is derived from, loaded once per request.
type Snapshot struct {
	Events    []domain.BehaviorEvent
	Purchases []domain.PurchaseLineItem
	Metrics   domain.PersonalizationMetrics
}

// BuildProfile is a pure function of the snapshot and now.
func BuildProfile(snap Snapshot, now time.Time, cfg Config) domain.PersonalizationProfile {
	cfg = cfg.withFallbacks()

	affinities := PreferredCategories(snap.Events, snap.Purchases, now, 0)
	top := make([]string, 0, len(affinities))
	for _, a := range affinities {
		top = append(top, a.Category)
	}

	mostViewed := MostViewedProducts(snap.Events, 0)
	counts := make(map[uint64]int, len(mostViewed))
	for _, mv := range mostViewed {
		counts[mv.ProductID] = mv.Count
	}

	return domain.PersonalizationProfile{
		Preferences: domain.PersonalizationPreferences{
			TopCategories: top,
			Affinities:    affinities,
		},
		MostViewed:       mostViewed,
		MostViewedCounts: counts,
		RecentViews:      RecentProductViews(snap.Events, cfg.RecentViewWindow),
		Feedback:         FeedbackSignals(snap.Events),
		Metrics:          snap.Metrics,
		GeneratedAt:      now,
	}
}

// recencyWeight is 1/(1+ageInDays); future timestamps count as now.
func recencyWeight(at, now time.Time) float64 {
	ageDays := now.Sub(at).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return 1 / (1 + ageDays)
}

// PreferredCategories accumulates recency-weighted frequency per category over
// view and click events and purchased line items. topN <= 0 returns all.
func PreferredCategories(events []domain.BehaviorEvent, purchases []domain.PurchaseLineItem, now time.Time, topN int) []domain.CategoryAffinity {
	byCategory := make(map[string]*domain.CategoryAffinity)

	add := func(category string, at time.Time) {
		if category == "" {
			return
		}
		a, ok := byCategory[category]
		if !ok {
			a = &domain.CategoryAffinity{Category: category}
			byCategory[category] = a
		}
		a.Weight += recencyWeight(at, now)
		a.Count++
		if at.After(a.LastInteraction) {
			a.LastInteraction = at
		}
	}

	for _, ev := range events {
		if ev.Type != domain.EventTypeView && ev.Type != domain.EventTypeClick {
			continue
		}
		add(ev.Category(), ev.Timestamp)
	}
	for _, item := range purchases {
		add(item.Category, item.PurchasedAt)
	}

	out := make([]domain.CategoryAffinity, 0, len(byCategory))
	for _, a := range byCategory {
		out = append(out, *a)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if !out[i].LastInteraction.Equal(out[j].LastInteraction) {
			return out[i].LastInteraction.After(out[j].LastInteraction)
		}
		return out[i].Category < out[j].Category
	})

	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// MostViewedProducts counts view events per product. Ties go to the product
// viewed last. limit <= 0 returns all.
func MostViewedProducts(events []domain.BehaviorEvent, limit int) []domain.ProductViewCount {
	type tally struct {
		domain.ProductViewCount
		lastIdx int
	}

	byProduct := make(map[uint64]*tally)
	for i, ev := range events {
		if ev.Type != domain.EventTypeView {
			continue
		}
		pid := ev.ProductID()
		if pid == 0 {
			continue
		}
		t, ok := byProduct[pid]
		if !ok {
			t = &tally{ProductViewCount: domain.ProductViewCount{ProductID: pid}}
			byProduct[pid] = t
		}
		t.Count++
		t.LastViewed = ev.Timestamp
		t.lastIdx = i
	}

	tallies := make([]*tally, 0, len(byProduct))
	for _, t := range byProduct {
		tallies = append(tallies, t)
	}
	sort.Slice(tallies, func(i, j int) bool {
		if tallies[i].Count != tallies[j].Count {
			return tallies[i].Count > tallies[j].Count
		}
		if tallies[i].lastIdx != tallies[j].lastIdx {
			return tallies[i].lastIdx > tallies[j].lastIdx
		}
		return tallies[i].ProductID < tallies[j].ProductID
	})

	if limit > 0 && len(tallies) > limit {
		tallies = tallies[:limit]
	}

	out := make([]domain.ProductViewCount, 0, len(tallies))
	for _, t := range tallies {
		out = append(out, t.ProductViewCount)
	}
	return out
}

// RecentProductViews returns the most recent view per product, most recent
// first. limit <= 0 returns all.
func RecentProductViews(events []domain.BehaviorEvent, limit int) []domain.BehaviorEvent {
	seen := make(map[uint64]struct{})
	out := make([]domain.BehaviorEvent, 0)

	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		if ev.Type != domain.EventTypeView {
			continue
		}
		pid := ev.ProductID()
		if pid == 0 {
			continue
		}
		if _, dup := seen[pid]; dup {
			continue
		}
		seen[pid] = struct{}{}
		out = append(out, ev)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// FeedbackSignals nets thumbs up (+1) against thumbs down (-1) per product,
// ordered by product id. The latest non-empty category wins.
func FeedbackSignals(events []domain.BehaviorEvent) []domain.FeedbackSignal {
	byProduct := make(map[uint64]*domain.FeedbackSignal)
	for _, ev := range events {
		if ev.Type != domain.EventTypeFeedback || ev.Feedback == nil {
			continue
		}
		fb := ev.Feedback
		s, ok := byProduct[fb.ProductID]
		if !ok {
			s = &domain.FeedbackSignal{ProductID: fb.ProductID}
			byProduct[fb.ProductID] = s
		}
		if fb.Positive {
			s.Net++
		} else {
			s.Net--
		}
		if fb.Category != "" {
			s.Category = fb.Category
		}
	}

	out := make([]domain.FeedbackSignal, 0, len(byProduct))
	for _, s := range byProduct {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProductID < out[j].ProductID
	})
	return out
}
