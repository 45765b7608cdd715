package personalization

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"myGreenMarketPersonalization/domain"
)

const (
	SectionRecommended    = "recommended"
	SectionRecentlyViewed = "recently-viewed"
	SectionMostViewed     = "most-viewed"
	SectionFeatured       = "featured"
	SectionBestsellers    = "bestsellers"

	categorySectionPrefix = "category-"

	// below this many sections the page is padded with fallbacks
	minSectionsBeforeFallback = 2
)

// BuildError reports a failure while building the personalized sections.
type BuildError struct {
	Step string
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build %s sections: %v", e.Step, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

type AssemblyInput struct {
	Profile  domain.PersonalizationProfile
	Catalog  []domain.Product
	Settings domain.PersonalizationSettings
}

// AssemblyResult carries the sections plus how they were produced. Err is set
// when the personalized steps failed and the result degraded to fallbacks.
type AssemblyResult struct {
	Sections []domain.Section `json:"sections"`
	Degraded bool             `json:"degraded"`
	Err      error            `json:"-"`
}

// Outcome labels the result for metrics and logs.
func (r AssemblyResult) Outcome() string {
	if r.Degraded {
		return "degraded"
	}
	for _, s := range r.Sections {
		if s.IsPersonalized {
			return "personalized"
		}
	}
	return "fallback"
}

type sectionBuilder func(in AssemblyInput, cfg Config) ([]domain.Section, error)

// AssembleSections produces the ordered display sections for one page.
func AssembleSections(in AssemblyInput, cfg Config) AssemblyResult {
	return assemble(in, cfg, buildPersonalized)
}

func assemble(in AssemblyInput, cfg Config, build sectionBuilder) AssemblyResult {
	cfg = cfg.withFallbacks()

	var (
		sections []domain.Section
		buildErr error
	)
	if in.Settings.Enabled {
		sections, buildErr = safeBuild(build, in, cfg)
	}

	degraded := buildErr != nil
	if degraded {
		sections = nil
	}

	if len(sections) < minSectionsBeforeFallback {
		sections = appendFallbacks(sections, in.Catalog)
	}

	return AssemblyResult{
		Sections: truncateSections(sections, in.Settings),
		Degraded: degraded,
		Err:      buildErr,
	}
}

// safeBuild turns a panic inside the builder into a BuildError so a profile
// bug can only ever degrade the page.
func safeBuild(build sectionBuilder, in AssemblyInput, cfg Config) (sections []domain.Section, err error) {
	defer func() {
		if r := recover(); r != nil {
			sections = nil
			err = &BuildError{Step: "personalized", Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return build(in, cfg)
}

func buildPersonalized(in AssemblyInput, cfg Config) ([]domain.Section, error) {
	settings := in.Settings
	byID := make(map[uint64]domain.Product, len(in.Catalog))
	for _, p := range in.Catalog {
		if p.ID == 0 {
			continue
		}
		if _, dup := byID[p.ID]; dup {
			return nil, &BuildError{Step: "catalog", Err: fmt.Errorf("duplicate product id %d", p.ID)}
		}
		byID[p.ID] = p
	}

	s := newScorer(in.Profile, in.Catalog, cfg)
	itemLimit := settings.MaxItemsPerSection
	sections := make([]domain.Section, 0, settings.MaxSections)
	hasRoom := func() bool { return len(sections) < settings.MaxSections }

	// 1) recommended for you
	if settings.ShowRecommended {
		results := Score(in.Profile, in.Catalog, itemLimit, nil, cfg)
		confident := AboveThreshold(results, cfg.ConfidenceThreshold)
		if len(confident) > 0 {
			sections = append(sections, domain.Section{
				ID:             SectionRecommended,
				Title:          "Recommended For You",
				Description:    "Picked for you based on what you browse",
				IconKey:        "sparkles",
				Products:       confident,
				IsPersonalized: true,
			})
		}
	}

	// 2) recently viewed
	if settings.ShowRecentlyViewed && len(in.Profile.RecentViews) > 0 {
		products := make([]domain.Product, 0, len(in.Profile.RecentViews))
		for _, ev := range in.Profile.RecentViews {
			if p, ok := byID[ev.ProductID()]; ok {
				products = append(products, p)
			}
		}
		if len(products) > 0 {
			results, err := scoreAll(s, products)
			if err != nil {
				return nil, &BuildError{Step: SectionRecentlyViewed, Err: err}
			}
			sections = append(sections, domain.Section{
				ID:             SectionRecentlyViewed,
				Title:          "Recently Viewed",
				Description:    "Pick up where you left off",
				IconKey:        "clock",
				Products:       results,
				IsPersonalized: true,
			})
		}
	}

	// 3) most viewed
	if settings.ShowMostViewed && hasRoom() && len(in.Profile.MostViewed) > 0 {
		products := make([]domain.Product, 0, len(in.Profile.MostViewed))
		for _, mv := range in.Profile.MostViewed {
			if p, ok := byID[mv.ProductID]; ok {
				products = append(products, p)
			}
		}
		if len(products) > 0 {
			results, err := scoreAll(s, products)
			if err != nil {
				return nil, &BuildError{Step: SectionMostViewed, Err: err}
			}
			sections = append(sections, domain.Section{
				ID:             SectionMostViewed,
				Title:          "Your Favorites",
				Description:    "The products you keep coming back to",
				IconKey:        "heart",
				Products:       results,
				IsPersonalized: true,
			})
		}
	}

	// 4) top category collection
	if settings.ShowCategoryCollection && hasRoom() {
		for _, category := range in.Profile.Preferences.TopCategories {
			products := productsInCategory(in.Catalog, category)
			if len(products) == 0 {
				continue
			}
			results, err := scoreAll(s, products)
			if err != nil {
				return nil, &BuildError{Step: "category", Err: err}
			}
			sections = append(sections, domain.Section{
				ID:             categorySectionPrefix + slugify(category),
				Title:          category + " Collection",
				Description:    "Handpicked " + category + " products for you",
				IconKey:        "tag",
				Products:       results,
				IsPersonalized: true,
			})
			break
		}
	}

	return sections, nil
}

// scoreAll keeps the given order; it is used for sections whose order comes
// from the profile rather than from the score.
func scoreAll(s *scorer, products []domain.Product) ([]domain.RecommendationResult, error) {
	out := make([]domain.RecommendationResult, 0, len(products))
	for _, p := range products {
		res, err := s.score(p)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// productsInCategory sorts by rating desc then id.
func productsInCategory(catalog []domain.Product, category string) []domain.Product {
	out := make([]domain.Product, 0)
	for _, p := range catalog {
		if p.ID != 0 && p.ProductCategory == category {
			out = append(out, p)
		}
	}
	sortByRating(out)
	return out
}

func sortByRating(products []domain.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].Rating != products[j].Rating {
			return products[i].Rating > products[j].Rating
		}
		return products[i].ID < products[j].ID
	})
}

// FallbackSections are the deterministic, non-personalized sections: featured
// products in catalog order, then bestsellers by rating.
func FallbackSections(catalog []domain.Product) []domain.Section {
	featured := make([]domain.RecommendationResult, 0)
	for _, p := range catalog {
		if p.ID != 0 && p.IsFeatured {
			featured = append(featured, domain.RecommendationResult{Product: p})
		}
	}

	rated := make([]domain.Product, 0, len(catalog))
	for _, p := range catalog {
		if p.ID != 0 {
			rated = append(rated, p)
		}
	}
	sortByRating(rated)
	bestsellers := make([]domain.RecommendationResult, 0, len(rated))
	for _, p := range rated {
		bestsellers = append(bestsellers, domain.RecommendationResult{Product: p})
	}

	sections := make([]domain.Section, 0, 2)
	if len(featured) > 0 {
		sections = append(sections, domain.Section{
			ID:          SectionFeatured,
			Title:       "Featured",
			Description: "Hand-selected products from our green market",
			IconKey:     "star",
			Products:    featured,
		})
	}
	if len(bestsellers) > 0 {
		sections = append(sections, domain.Section{
			ID:          SectionBestsellers,
			Title:       "Bestsellers",
			Description: "Top rated by our shoppers",
			IconKey:     "trending-up",
			Products:    bestsellers,
		})
	}
	return sections
}

func appendFallbacks(sections []domain.Section, catalog []domain.Product) []domain.Section {
	present := make(map[string]struct{}, len(sections))
	for _, s := range sections {
		present[s.ID] = struct{}{}
	}
	for _, fb := range FallbackSections(catalog) {
		if _, ok := present[fb.ID]; ok {
			continue
		}
		sections = append(sections, fb)
	}
	return sections
}

func truncateSections(sections []domain.Section, settings domain.PersonalizationSettings) []domain.Section {
	maxSections := settings.MaxSections
	if maxSections < 0 {
		maxSections = 0
	}
	maxItems := settings.MaxItemsPerSection
	if maxItems < 0 {
		maxItems = 0
	}

	if len(sections) > maxSections {
		sections = sections[:maxSections]
	}

	out := make([]domain.Section, 0, len(sections))
	for _, s := range sections {
		if len(s.Products) > maxItems {
			s.Products = s.Products[:maxItems]
		}
		out = append(out, s)
	}
	return out
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
