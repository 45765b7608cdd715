//go:build !integration

package personalization

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myGreenMarketPersonalization/domain"
)

// scenario params
const (
	stressNumUsers       = 200
	stressNumCategories  = 6
	stressNumProducts    = 300
	stressEventsPerUser  = 120
	stressEventCapacity  = 50
	stressRecentViewSize = 10
)

var stressCategories = []string{"Tea", "Coffee", "Spices", "Rice", "Honey", "Nuts"}

func TestEventLogGrowth_StaysCappedPerUser(t *testing.T) {
	ctx := context.Background()
	blobs := newMemBlobStore()
	store := NewEventStore(blobs, stressEventCapacity)
	rng := rand.New(rand.NewSource(42))

	for u := 1; u <= stressNumUsers; u++ {
		userID := uint(u)
		for i := 0; i < stressEventsPerUser; i++ {
			pid := uint64(rng.Intn(stressNumProducts) + 1)
			category := stressCategories[int(pid)%stressNumCategories]
			at := daysAgo(float64(stressEventsPerUser-i) / 10)

			switch rng.Intn(4) {
			case 0:
				store.Record(ctx, userID, domain.NewClickEvent(pid, category, SectionRecommended, at))
			case 1:
				store.Record(ctx, userID, domain.NewImpressionEvent(SectionFeatured, pid, at))
			default:
				store.Record(ctx, userID, domain.NewViewEvent(pid, category, at))
			}
		}
	}

	totalEvents := 0
	totalBytes := 0
	for u := 1; u <= stressNumUsers; u++ {
		events, err := store.All(ctx, uint(u))
		require.NoError(t, err)
		require.Len(t, events, stressEventCapacity)
		totalEvents += len(events)

		raw, err := blobs.Get(ctx, eventsKey(uint(u)))
		require.NoError(t, err)
		totalBytes += len(raw)

		cfg := DefaultConfig()
		cfg.RecentViewWindow = stressRecentViewSize
		profile := BuildProfile(Snapshot{Events: events}, testNow, cfg)
		assert.LessOrEqual(t, len(profile.RecentViews), stressRecentViewSize)
		assert.LessOrEqual(t, len(profile.Preferences.TopCategories), stressNumCategories)
	}

	t.Logf("[EVENT LOG] users=%d events=%d bytes=%d avgBytesPerUser=%d",
		stressNumUsers, totalEvents, totalBytes, totalBytes/stressNumUsers)
}
