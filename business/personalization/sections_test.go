//go:build !integration

package personalization

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myGreenMarketPersonalization/domain"
)

func sectionIDs(sections []domain.Section) []string {
	ids := make([]string, 0, len(sections))
	for _, s := range sections {
		ids = append(ids, s.ID)
	}
	return ids
}

func settingsWith(maxSections, maxItems int) domain.PersonalizationSettings {
	s := DefaultSettings()
	s.MaxSections = maxSections
	s.MaxItemsPerSection = maxItems
	return s
}

func TestAssembleSections_FallbackForNewUser(t *testing.T) {
	catalog := []domain.Product{
		product(1, "Tea", 4.0, true),
		product(2, "Tea", 4.9, true),
		product(3, "Coffee", 3.5, true),
		product(4, "Coffee", 4.4, true),
		product(5, "Spices", 4.7, true),
	}

	result := AssembleSections(AssemblyInput{
		Profile:  profileFrom(),
		Catalog:  catalog,
		Settings: settingsWith(3, 4),
	}, DefaultConfig())

	require.NoError(t, result.Err)
	assert.False(t, result.Degraded)
	assert.Equal(t, "fallback", result.Outcome())
	require.Equal(t, []string{SectionFeatured, SectionBestsellers}, sectionIDs(result.Sections))

	featured := result.Sections[0]
	assert.Equal(t, "Featured", featured.Title)
	assert.False(t, featured.IsPersonalized)
	assert.Equal(t, []uint64{1, 2, 3, 4}, resultIDs(featured.Products))

	bestsellers := result.Sections[1]
	assert.Equal(t, []uint64{2, 5, 4, 1}, resultIDs(bestsellers.Products))
}

func TestAssembleSections_TopCategoryCollection(t *testing.T) {
	catalog := []domain.Product{
		product(1, "Tea", 4.0, false),
		product(2, "Tea", 4.3, false),
		product(3, "Coffee", 4.6, true),
		product(10, "Spices", 4.2, false),
		product(11, "Spices", 4.9, false),
	}
	// category browsing only, so no recently viewed or favorites sections
	var events []domain.BehaviorEvent
	for i := 0; i < 10; i++ {
		events = append(events, domain.NewViewEvent(0, "Spices", daysAgo(float64(i%3))))
	}

	result := AssembleSections(AssemblyInput{
		Profile:  profileFrom(events...),
		Catalog:  catalog,
		Settings: DefaultSettings(),
	}, DefaultConfig())

	require.NoError(t, result.Err)
	require.Equal(t, []string{SectionRecommended, "category-spices"}, sectionIDs(result.Sections))

	collection := result.Sections[1]
	assert.Equal(t, "Spices Collection", collection.Title)
	assert.True(t, collection.IsPersonalized)
	assert.Equal(t, []uint64{11, 10}, resultIDs(collection.Products))

	assert.ElementsMatch(t, []uint64{10, 11}, resultIDs(result.Sections[0].Products))
	assert.Equal(t, "personalized", result.Outcome())
}

func TestAssembleSections_BrowsingHistory(t *testing.T) {
	events := viewEvents(1, "Tea", 3, daysAgo(1))
	events = append(events, domain.NewViewEvent(2, "Tea", testNow))

	result := AssembleSections(AssemblyInput{
		Profile:  profileFrom(events...),
		Catalog:  testCatalog(),
		Settings: DefaultSettings(),
	}, DefaultConfig())

	require.NoError(t, result.Err)
	require.Equal(t, []string{SectionRecommended, SectionRecentlyViewed, SectionMostViewed}, sectionIDs(result.Sections))
	assert.Equal(t, []uint64{1, 2}, resultIDs(result.Sections[0].Products))
	assert.Equal(t, []uint64{2, 1}, resultIDs(result.Sections[1].Products))
	assert.Equal(t, []uint64{1, 2}, resultIDs(result.Sections[2].Products))
	assert.Equal(t, "Your Favorites", result.Sections[2].Title)
}

func TestAssembleSections_Toggles(t *testing.T) {
	settings := DefaultSettings()
	settings.ShowRecommended = false
	settings.ShowRecentlyViewed = false
	settings.ShowMostViewed = false

	result := AssembleSections(AssemblyInput{
		Profile:  profileFrom(viewEvents(1, "Tea", 2, testNow)...),
		Catalog:  testCatalog(),
		Settings: settings,
	}, DefaultConfig())

	assert.Equal(t, []string{"category-tea", SectionFeatured, SectionBestsellers}, sectionIDs(result.Sections))
}

func TestAssembleSections_DisabledShowsFallbackOnly(t *testing.T) {
	settings := DefaultSettings()
	settings.Enabled = false

	result := AssembleSections(AssemblyInput{
		Profile:  profileFrom(viewEvents(1, "Tea", 2, testNow)...),
		Catalog:  testCatalog(),
		Settings: settings,
	}, DefaultConfig())

	assert.False(t, result.Degraded)
	assert.Equal(t, []string{SectionFeatured, SectionBestsellers}, sectionIDs(result.Sections))
}

func TestAssembleSections_RespectsBounds(t *testing.T) {
	events := viewEvents(1, "Tea", 3, daysAgo(1))
	events = append(events, viewEvents(4, "Spices", 2, testNow)...)
	events = append(events, domain.NewFeedbackEvent(SectionRecommended, 3, "Coffee", true, testNow))
	profile := profileFrom(events...)

	for maxSections := 0; maxSections <= 5; maxSections++ {
		for maxItems := 0; maxItems <= 4; maxItems++ {
			t.Run(fmt.Sprintf("sections=%d items=%d", maxSections, maxItems), func(t *testing.T) {
				result := AssembleSections(AssemblyInput{
					Profile:  profile,
					Catalog:  testCatalog(),
					Settings: settingsWith(maxSections, maxItems),
				}, DefaultConfig())

				assert.LessOrEqual(t, len(result.Sections), maxSections)
				for _, s := range result.Sections {
					assert.LessOrEqual(t, len(s.Products), maxItems, s.ID)
				}
			})
		}
	}
}

func TestAssembleSections_DegradesOnBuilderError(t *testing.T) {
	failing := func(AssemblyInput, Config) ([]domain.Section, error) {
		return nil, errors.New("profile unavailable")
	}

	result := assemble(AssemblyInput{
		Profile:  profileFrom(viewEvents(1, "Tea", 2, testNow)...),
		Catalog:  testCatalog(),
		Settings: DefaultSettings(),
	}, DefaultConfig(), failing)

	assert.True(t, result.Degraded)
	assert.EqualError(t, result.Err, "profile unavailable")
	assert.Equal(t, "degraded", result.Outcome())
	assert.Equal(t, []string{SectionFeatured, SectionBestsellers}, sectionIDs(result.Sections))
}

func TestAssembleSections_RecoversBuilderPanic(t *testing.T) {
	panicking := func(AssemblyInput, Config) ([]domain.Section, error) {
		panic("nil profile map")
	}

	var result AssemblyResult
	require.NotPanics(t, func() {
		result = assemble(AssemblyInput{
			Catalog:  testCatalog(),
			Settings: DefaultSettings(),
		}, DefaultConfig(), panicking)
	})

	var buildErr *BuildError
	require.ErrorAs(t, result.Err, &buildErr)
	assert.Equal(t, "personalized", buildErr.Step)
	assert.True(t, result.Degraded)
	assert.Equal(t, []string{SectionFeatured, SectionBestsellers}, sectionIDs(result.Sections))
}

func TestAssembleSections_DuplicateCatalogIDDegrades(t *testing.T) {
	catalog := append(testCatalog(), product(2, "Tea", 1.0, false))

	result := AssembleSections(AssemblyInput{
		Profile:  profileFrom(viewEvents(1, "Tea", 2, testNow)...),
		Catalog:  catalog,
		Settings: DefaultSettings(),
	}, DefaultConfig())

	var buildErr *BuildError
	require.ErrorAs(t, result.Err, &buildErr)
	assert.Equal(t, "catalog", buildErr.Step)
	assert.True(t, result.Degraded)
	assert.NotEmpty(t, result.Sections)
}

func TestAssembleSections_EmptyCatalog(t *testing.T) {
	result := AssembleSections(AssemblyInput{
		Profile:  profileFrom(viewEvents(1, "Tea", 2, testNow)...),
		Settings: DefaultSettings(),
	}, DefaultConfig())

	assert.NoError(t, result.Err)
	assert.Empty(t, result.Sections)
}

func TestFallbackSections_SkipsFeaturedWhenNoneFlagged(t *testing.T) {
	catalog := []domain.Product{product(1, "Tea", 4.0, false), product(2, "Tea", 4.5, false)}

	sections := FallbackSections(catalog)

	require.Equal(t, []string{SectionBestsellers}, sectionIDs(sections))
	assert.Equal(t, []uint64{2, 1}, resultIDs(sections[0].Products))
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Spices":         "spices",
		"Herbs & Spices": "herbs-spices",
		"  Green Tea ":   "green-tea",
		"Kopi 100%":      "kopi-100",
	}
	for in, want := range tests {
		assert.Equal(t, want, slugify(in), in)
	}
}
