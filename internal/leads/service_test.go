package leads

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "leadgenius/internal/common/errors"
	"leadgenius/internal/common/logger"
	"leadgenius/internal/models"
	"leadgenius/internal/services/leadindex"
	"leadgenius/internal/services/places"
)

// ==========================
// Test Doubles
// ==========================

type memoryCache struct {
	mu     sync.Mutex
	values map[string][]byte
	ttls   map[string]time.Duration
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.values[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, _ := json.Marshal(value)
	m.values[key] = raw
	m.ttls[key] = ttl
}

type fakeUsage struct {
	calls []string
	err   error
}

func (f *fakeUsage) Track(_ context.Context, service string) error {
	f.calls = append(f.calls, service)
	return f.err
}

type fakePlaces struct {
	results     []models.PlaceSearchResult
	details     *models.PlaceDetails
	err         error
	gotOpts     places.SearchOptions
	searchCalls int
	detailCalls int
}

func (f *fakePlaces) SearchPlaces(_ context.Context, _, _ string, opts places.SearchOptions) ([]models.PlaceSearchResult, error) {
	f.searchCalls++
	f.gotOpts = opts
	return f.results, f.err
}

func (f *fakePlaces) GetPlaceDetails(_ context.Context, _ string) (*models.PlaceDetails, error) {
	f.detailCalls++
	return f.details, f.err
}

type fakeScraper struct {
	html string
	ok   bool
}

func (f *fakeScraper) FetchWebsite(_ context.Context, _ string) (string, bool) {
	return f.html, f.ok
}

type fakeSearch struct {
	results []models.SearchResult
}

func (f *fakeSearch) SearchBusinessReviews(_ context.Context, _, _ string) []models.SearchResult {
	return f.results
}

type fakeScorer struct {
	got      models.BusinessContext
	analysis *models.LeadAnalysis
	err      error
	calls    int
}

func (f *fakeScorer) AnalyzeBusinessOpportunity(_ context.Context, bc models.BusinessContext) (*models.LeadAnalysis, error) {
	f.calls++
	f.got = bc
	return f.analysis, f.err
}

type fakeArchive struct {
	indexed []models.AnalyzedLead
	err     error
}

func (f *fakeArchive) Index(_ context.Context, lead models.AnalyzedLead) error {
	f.indexed = append(f.indexed, lead)
	return f.err
}

func (f *fakeArchive) Search(_ context.Context, _, _ string, _ int) (*leadindex.SearchResult, error) {
	return &leadindex.SearchResult{Leads: f.indexed, Total: len(f.indexed)}, nil
}

type fakeEvents struct {
	events []models.LeadEvent
}

func (f *fakeEvents) Publish(_ context.Context, event models.LeadEvent) (string, bool, error) {
	f.events = append(f.events, event)
	return "msg-1", true, nil
}

type recordedAnalysis struct {
	status    string
	analyzers map[string]int
	mu        sync.Mutex
}

func (r *recordedAnalysis) RecordAnalysis(_ context.Context, _ time.Duration, status string) {
	r.status = status
}

func (r *recordedAnalysis) RecordAnalyzer(_ context.Context, analyzer string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analyzers[analyzer]++
}

type harness struct {
	svc      *Service
	cache    *memoryCache
	usage    *fakeUsage
	places   *fakePlaces
	scraper  *fakeScraper
	scorer   *fakeScorer
	archive  *fakeArchive
	events   *fakeEvents
	recorder *recordedAnalysis
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		cache:   newMemoryCache(),
		usage:   &fakeUsage{},
		places:  &fakePlaces{},
		scraper: &fakeScraper{},
		scorer: &fakeScorer{analysis: &models.LeadAnalysis{
			DigitalPresenceSummary: "Weak site",
			OpportunityScore:       models.OpportunityHigh,
			KeyGaps:                []string{"No chatbot"},
			AIAuditPitch:           "Let's talk",
			RecommendedTools:       []string{},
		}},
		archive:  &fakeArchive{},
		events:   &fakeEvents{},
		recorder: &recordedAnalysis{analyzers: map[string]int{}},
	}
	h.svc = NewService(Dependencies{
		Places:   h.places,
		Scraper:  h.scraper,
		Search:   &fakeSearch{results: []models.SearchResult{{Title: "Yelp", Snippet: "4 stars"}}},
		Scorer:   h.scorer,
		Cache:    h.cache,
		Usage:    h.usage,
		Archive:  h.archive,
		Events:   h.events,
		Recorder: h.recorder,
	}, TTLs{}, logger.NewTestLogger(t))
	return h
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

// ==========================
// Search Tests
// ==========================

func TestSearch_MapsPlacesToLeads(t *testing.T) {
	h := newHarness(t)
	h.places.results = []models.PlaceSearchResult{
		{PlaceID: "p1", Name: "Joe's", FormattedAddress: "1 Main St", Rating: 4.1, UserRatingsTotal: 37, Types: []string{"plumber", "store"}},
		{PlaceID: "p2", Name: "Ann's", FormattedAddress: "2 Main St"},
	}

	resp, err := h.svc.Search(context.Background(), models.SearchParams{Industry: "plumbers", City: "Austin"})

	require.NoError(t, err)
	assert.False(t, resp.Cached)
	assert.Equal(t, 2, resp.Total)

	first := resp.Leads[0]
	assert.Equal(t, "p1", first.ID)
	require.NotNil(t, first.Category)
	assert.Equal(t, "plumber", *first.Category)
	assert.Equal(t, 4.1, *first.Rating)
	assert.Equal(t, 37, *first.ReviewCount)
	assert.Equal(t, "https://www.google.com/maps/place/?q=place_id:p1", first.MapsURL)
	assert.False(t, first.Analyzed)

	second := resp.Leads[1]
	assert.Nil(t, second.Category)
	assert.Nil(t, second.Rating)
	assert.Nil(t, second.ReviewCount)
	assert.Nil(t, second.WebsiteURL)
	assert.Nil(t, second.Phone)

	assert.Equal(t, []string{"placesSearch"}, h.usage.calls)
	assert.Equal(t, 20, h.places.gotOpts.MaxResults)
	assert.Equal(t, time.Hour, h.cache.ttls["leads:plumbers:Austin:{}"])
}

func TestSearch_CacheHit(t *testing.T) {
	h := newHarness(t)
	h.places.results = []models.PlaceSearchResult{{PlaceID: "p1", Name: "Joe's"}}
	params := models.SearchParams{Industry: "plumbers", City: "Austin"}

	_, err := h.svc.Search(context.Background(), params)
	require.NoError(t, err)
	resp, err := h.svc.Search(context.Background(), params)
	require.NoError(t, err)

	assert.True(t, resp.Cached)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, 1, h.places.searchCalls)
}

func TestSearch_FiltersApplied(t *testing.T) {
	h := newHarness(t)
	h.places.results = []models.PlaceSearchResult{
		{PlaceID: "few", UserRatingsTotal: 10},
		{PlaceID: "edge", UserRatingsTotal: 20},
		{PlaceID: "many", UserRatingsTotal: 50},
	}

	resp, err := h.svc.Search(context.Background(), models.SearchParams{
		Industry: "dentists",
		City:     "Boise",
		Filters:  &models.SearchFilters{MinRating: floatPtr(3), MaxRating: floatPtr(4), MaxReviews: intPtr(20)},
	})

	require.NoError(t, err)
	assert.Equal(t, 3.0, h.places.gotOpts.MinRating)
	assert.Equal(t, 4.0, h.places.gotOpts.MaxRating)
	require.Len(t, resp.Leads, 2)
	assert.Equal(t, "edge", resp.Leads[1].ID)
}

func TestSearch_Validation(t *testing.T) {
	tests := []struct {
		name   string
		params models.SearchParams
	}{
		{"short industry", models.SearchParams{Industry: "a", City: "Austin"}},
		{"missing city", models.SearchParams{Industry: "plumbers"}},
		{"rating out of range", models.SearchParams{Industry: "plumbers", City: "Austin", Filters: &models.SearchFilters{MinRating: floatPtr(6)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			_, err := h.svc.Search(context.Background(), tt.params)

			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, 0, h.places.searchCalls)
		})
	}
}

func TestSearch_PlacesError(t *testing.T) {
	h := newHarness(t)
	h.places.err = apperrors.NewExternalAPIError("Google Places", "Search failed: OVER_QUERY_LIMIT")

	_, err := h.svc.Search(context.Background(), models.SearchParams{Industry: "plumbers", City: "Austin"})

	assert.Equal(t, 502, apperrors.HTTPStatus(err))
	assert.Empty(t, h.cache.values)
}

func TestSearchCacheKey(t *testing.T) {
	assert.Equal(t, "leads:plumbers:Austin:{}", SearchCacheKey(models.SearchParams{Industry: "plumbers", City: "Austin"}))
	assert.Equal(t,
		`leads:plumbers:Austin:{"minRating":4,"radiusMiles":10}`,
		SearchCacheKey(models.SearchParams{Industry: "plumbers", City: "Austin", Filters: &models.SearchFilters{
			MinRating:   floatPtr(4),
			RadiusMiles: floatPtr(10),
		}}))
}

// ==========================
// Analyze Tests
// ==========================

func placeWithWebsite() *models.PlaceDetails {
	return &models.PlaceDetails{
		PlaceSearchResult: models.PlaceSearchResult{
			PlaceID:          "p1",
			Name:             "Joe's Plumbing",
			FormattedAddress: "1 Main St, Austin, TX",
			Rating:           4.2,
			UserRatingsTotal: 37,
			Types:            []string{"plumber"},
		},
		Website: "joesplumbing.com",
		Reviews: []models.PlaceReview{
			{Rating: 5, Text: "Great work, very friendly."},
			{Rating: 4, Text: "Good."},
			{Rating: 2, Text: "Slow to respond."},
			{Rating: 5, Text: "Fourth."},
		},
	}
}

func TestAnalyze_FullPipeline(t *testing.T) {
	h := newHarness(t)
	h.places.details = placeWithWebsite()
	h.scraper.html = `<html><head><title>Joe's</title></head><body><script src="https://widget.intercom.io/x.js"></script></body></html>`
	h.scraper.ok = true

	resp, err := h.svc.Analyze(context.Background(), "p1")

	require.NoError(t, err)
	assert.Equal(t, "p1", resp.PlaceID)
	assert.False(t, resp.Cached)
	assert.Equal(t, models.OpportunityHigh, resp.Analysis.OpportunityScore)
	assert.True(t, resp.TechnicalDetails.Chatbot.HasChatbot)
	assert.False(t, resp.TechnicalDetails.Booking.HasBooking)
	require.NotNil(t, resp.TechnicalDetails.SEO)

	bc := h.scorer.got
	assert.Equal(t, "plumber", bc.Industry)
	assert.Equal(t, "1 Main St, Austin, TX", bc.City)
	assert.Equal(t, 4.2, bc.Rating)
	assert.Equal(t, []string{"Great work, very friendly.", "Good.", "Slow to respond."}, bc.RecentReviews)
	require.NotNil(t, bc.WebsiteHTML)
	assert.Equal(t, []string{
		"No online booking system",
		"Missing meta description",
		"Missing H1 heading",
	}, bc.UXGaps)
	assert.Len(t, bc.GoogleSearchResults, 1)

	assert.Equal(t, []string{"placeDetails", "gemini"}, h.usage.calls)
	assert.Equal(t, 24*time.Hour, h.cache.ttls["analysis:p1"])
	assert.Equal(t, time.Hour, h.cache.ttls["place:p1"])

	require.Len(t, h.archive.indexed, 1)
	assert.Equal(t, "Joe's Plumbing", h.archive.indexed[0].Name)
	assert.Equal(t, "plumber", h.archive.indexed[0].Category)
	require.Len(t, h.events.events, 1)
	assert.Equal(t, "lead.analyzed", h.events.events[0].Type)

	assert.Equal(t, "success", h.recorder.status)
	assert.Equal(t, map[string]int{"chatbot": 1, "booking": 1, "sentiment": 1, "seo": 1}, h.recorder.analyzers)
}

func TestAnalyze_WithoutEventsSkipsPublishing(t *testing.T) {
	h := newHarness(t)
	h.places.details = placeWithWebsite()

	resp, err := h.svc.WithoutEvents().Analyze(context.Background(), "p1")

	require.NoError(t, err)
	assert.Equal(t, models.OpportunityHigh, resp.Analysis.OpportunityScore)
	assert.Len(t, h.archive.indexed, 1)
	assert.Empty(t, h.events.events)
	assert.NotNil(t, h.svc.deps.Events)
}

func TestAnalyze_CacheHit(t *testing.T) {
	h := newHarness(t)
	h.places.details = placeWithWebsite()

	_, err := h.svc.Analyze(context.Background(), "p1")
	require.NoError(t, err)
	resp, err := h.svc.Analyze(context.Background(), "p1")
	require.NoError(t, err)

	assert.True(t, resp.Cached)
	assert.Equal(t, 1, h.scorer.calls)
	assert.Equal(t, "cached", h.recorder.status)
}

func TestAnalyze_NoWebsiteDefaults(t *testing.T) {
	h := newHarness(t)
	h.places.details = &models.PlaceDetails{PlaceSearchResult: models.PlaceSearchResult{PlaceID: "p2", Name: "Ann's"}}

	resp, err := h.svc.Analyze(context.Background(), "p2")

	require.NoError(t, err)
	bc := h.scorer.got
	assert.Equal(t, "business", bc.Industry)
	assert.Equal(t, 3.5, bc.Rating)
	assert.Equal(t, 0, bc.ReviewCount)
	assert.Nil(t, bc.WebsiteHTML)
	assert.Equal(t, []string{}, bc.RecentReviews)
	assert.Equal(t, []string{
		"No AI chatbot for customer support",
		"No online booking system",
		"No website available for analysis",
	}, bc.UXGaps)
	assert.Equal(t, []string{"No website HTML available"}, resp.TechnicalDetails.Chatbot.Evidence)
	assert.Equal(t, models.SentimentMixed, resp.TechnicalDetails.Sentiment.Overall)
}

func TestAnalyze_Errors(t *testing.T) {
	t.Run("empty id", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.Analyze(context.Background(), "  ")
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("place not found", func(t *testing.T) {
		h := newHarness(t)
		h.places.err = apperrors.NewNotFoundError("Place not found: bad")

		_, err := h.svc.Analyze(context.Background(), "bad")

		assert.True(t, apperrors.IsNotFound(err))
		assert.Equal(t, 0, h.scorer.calls)
		assert.Equal(t, "error", h.recorder.status)
	})

	t.Run("llm failure not cached", func(t *testing.T) {
		h := newHarness(t)
		h.places.details = placeWithWebsite()
		h.scorer.err = apperrors.NewLLMAnalysisFailedError("Analysis failed", errors.New("boom"))

		_, err := h.svc.Analyze(context.Background(), "p1")

		assert.Equal(t, 502, apperrors.HTTPStatus(err))
		_, cached := h.cache.values["analysis:p1"]
		assert.False(t, cached)
		assert.Empty(t, h.events.events)
	})

	t.Run("usage limit enforced", func(t *testing.T) {
		h := newHarness(t)
		h.places.details = placeWithWebsite()
		h.usage.err = apperrors.NewRateLimitError("Daily placeDetails limit reached")

		_, err := h.svc.Analyze(context.Background(), "p1")

		assert.Equal(t, 429, apperrors.HTTPStatus(err))
		assert.Equal(t, 0, h.places.detailCalls)
	})

	t.Run("archive failure is logged only", func(t *testing.T) {
		h := newHarness(t)
		h.places.details = placeWithWebsite()
		h.archive.err = errors.New("es down")

		_, err := h.svc.Analyze(context.Background(), "p1")

		assert.NoError(t, err)
	})
}

// ==========================
// Archive Tests
// ==========================

func TestArchive(t *testing.T) {
	h := newHarness(t)
	h.archive.indexed = []models.AnalyzedLead{{PlaceID: "p1"}}

	res, err := h.svc.Archive(context.Background(), "plumber", "high", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)

	_, err = h.svc.Archive(context.Background(), "", "URGENT", 10)
	assert.True(t, apperrors.IsValidation(err))
}

func TestUXGaps_TakesFirstTwoSEOGaps(t *testing.T) {
	gaps := UXGaps(models.TechnicalDetails{
		Chatbot: models.ChatbotDetection{HasChatbot: true},
		Booking: models.BookingDetection{HasBooking: true},
		SEO:     &models.SEOAnalysis{Gaps: []string{"a", "b", "c"}},
	})
	assert.Equal(t, []string{"a", "b"}, gaps)
	assert.False(t, strings.Contains(strings.Join(gaps, ","), "c"))
}
