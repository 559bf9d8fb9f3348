// internal/leads/service.go
package leads

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"leadgenius/internal/analyzers"
	"leadgenius/internal/common/errors"
	"leadgenius/internal/common/logger"
	"leadgenius/internal/common/validation"
	"leadgenius/internal/models"
	"leadgenius/internal/services/leadindex"
	"leadgenius/internal/services/places"
	"leadgenius/internal/services/usage"

	"golang.org/x/sync/errgroup"
)

const (
	maxSearchResults = 20
	defaultRating    = 3.5
	defaultIndustry  = "business"
	recentReviews    = 3
	uxSEOGaps        = 2
)

// PlacesClient looks up businesses.
type PlacesClient interface {
	SearchPlaces(ctx context.Context, industry, city string, opts places.SearchOptions) ([]models.PlaceSearchResult, error)
	GetPlaceDetails(ctx context.Context, placeID string) (*models.PlaceDetails, error)
}

// WebsiteFetcher downloads a business website.
type WebsiteFetcher interface {
	FetchWebsite(ctx context.Context, url string) (string, bool)
}

// ReviewSearcher finds third-party coverage of a business.
type ReviewSearcher interface {
	SearchBusinessReviews(ctx context.Context, businessName, location string) []models.SearchResult
}

// OpportunityScorer asks the LLM for a lead assessment.
type OpportunityScorer interface {
	AnalyzeBusinessOpportunity(ctx context.Context, bc models.BusinessContext) (*models.LeadAnalysis, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
}

type UsageTracker interface {
	Track(ctx context.Context, service string) error
}

// Archive stores analyzed leads for later search.
type Archive interface {
	Index(ctx context.Context, lead models.AnalyzedLead) error
	Search(ctx context.Context, text, opportunity string, limit int) (*leadindex.SearchResult, error)
}

// EventPublisher announces analyzed leads.
type EventPublisher interface {
	Publish(ctx context.Context, event models.LeadEvent) (string, bool, error)
}

// Recorder receives analysis timings.
type Recorder interface {
	RecordAnalysis(ctx context.Context, duration time.Duration, status string)
	RecordAnalyzer(ctx context.Context, analyzer string, duration time.Duration)
}

// TTLs are the cache lifetimes of each entry kind.
type TTLs struct {
	LeadSearch   time.Duration
	LeadAnalysis time.Duration
	PlaceDetails time.Duration
}

// Dependencies groups the collaborators of Service. Archive, Events and
// Recorder are optional.
type Dependencies struct {
	Places   PlacesClient
	Scraper  WebsiteFetcher
	Search   ReviewSearcher
	Scorer   OpportunityScorer
	Cache    Cache
	Usage    UsageTracker
	Archive  Archive
	Events   EventPublisher
	Recorder Recorder
}

// Service runs lead searches and deep analyses.
type Service struct {
	deps   Dependencies
	ttl    TTLs
	logger logger.Logger
	now    func() time.Time
}

func NewService(deps Dependencies, ttl TTLs, log logger.Logger) *Service {
	if ttl.LeadSearch <= 0 {
		ttl.LeadSearch = time.Hour
	}
	if ttl.LeadAnalysis <= 0 {
		ttl.LeadAnalysis = 24 * time.Hour
	}
	if ttl.PlaceDetails <= 0 {
		ttl.PlaceDetails = time.Hour
	}
	return &Service{deps: deps, ttl: ttl, logger: log.With(map[string]interface{}{"component": "leads"}), now: time.Now}
}

// WithoutEvents returns a copy of s that never publishes lead events. Workflow
// workers use it where a later step owns the notification.
func (s *Service) WithoutEvents() *Service {
	quiet := *s
	quiet.deps.Events = nil
	return &quiet
}

// ==========================
// Search
// ==========================

// SearchCacheKey is leads:{industry}:{city}:{filters as JSON}.
func SearchCacheKey(params models.SearchParams) string {
	filters := "{}"
	if params.Filters != nil {
		if b, err := json.Marshal(params.Filters); err == nil {
			filters = string(b)
		}
	}
	return fmt.Sprintf("leads:%s:%s:%s", params.Industry, params.City, filters)
}

// ValidateSearchParams checks params against the search schema.
func ValidateSearchParams(params models.SearchParams) error {
	result, err := validation.SearchParamsSchema.Validate(params)
	if err != nil {
		return errors.NewInvalidSearchParamsError(err.Error())
	}
	if !result.Valid {
		return errors.NewInvalidSearchParamsError(result.Error())
	}
	return nil
}

// Search finds small local businesses for an industry in a city.
func (s *Service) Search(ctx context.Context, params models.SearchParams) (*models.LeadsResponse, error) {
	if err := ValidateSearchParams(params); err != nil {
		return nil, err
	}

	s.logger.Info("search request", map[string]interface{}{"industry": params.Industry, "city": params.City})

	key := SearchCacheKey(params)
	var cached []models.Lead
	if s.deps.Cache.Get(ctx, key, &cached) {
		s.logger.Info("search cache hit", map[string]interface{}{"key": key})
		return &models.LeadsResponse{Leads: cached, Total: len(cached), Cached: true}, nil
	}

	if err := s.deps.Usage.Track(ctx, usage.PlacesSearch); err != nil {
		return nil, err
	}

	opts := places.SearchOptions{MaxResults: maxSearchResults}
	var maxReviews *int
	if f := params.Filters; f != nil {
		if f.MinRating != nil {
			opts.MinRating = *f.MinRating
		}
		if f.MaxRating != nil {
			opts.MaxRating = *f.MaxRating
		}
		maxReviews = f.MaxReviews
	}

	results, err := s.deps.Places.SearchPlaces(ctx, params.Industry, params.City, opts)
	if err != nil {
		return nil, err
	}

	leads := make([]models.Lead, 0, len(results))
	for _, place := range results {
		if maxReviews != nil && place.UserRatingsTotal > *maxReviews {
			continue
		}
		leads = append(leads, ToLead(place))
	}

	s.deps.Cache.Set(ctx, key, leads, s.ttl.LeadSearch)
	return &models.LeadsResponse{Leads: leads, Total: len(leads), Cached: false}, nil
}

// ToLead maps a search hit to an unanalyzed lead.
func ToLead(place models.PlaceSearchResult) models.Lead {
	lead := models.Lead{
		ID:       place.PlaceID,
		Name:     place.Name,
		Address:  place.FormattedAddress,
		Location: place.Geometry.Location,
		MapsURL:  "https://www.google.com/maps/place/?q=place_id:" + place.PlaceID,
	}
	if len(place.Types) > 0 && place.Types[0] != "" {
		category := place.Types[0]
		lead.Category = &category
	}
	if place.Rating != 0 {
		rating := place.Rating
		lead.Rating = &rating
	}
	if place.UserRatingsTotal != 0 {
		count := place.UserRatingsTotal
		lead.ReviewCount = &count
	}
	return lead
}

// ==========================
// Analyze
// ==========================

// Analyze runs the full enrichment pipeline for one place.
func (s *Service) Analyze(ctx context.Context, placeID string) (resp *models.AnalysisResponse, err error) {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return nil, errors.NewValidationError("Place ID is required")
	}

	start := time.Now()
	defer func() {
		status := "success"
		switch {
		case err != nil:
			status = "error"
		case resp != nil && resp.Cached:
			status = "cached"
		}
		if s.deps.Recorder != nil {
			s.deps.Recorder.RecordAnalysis(ctx, time.Since(start), status)
		}
	}()

	s.logger.Info("analysis request", map[string]interface{}{"placeId": placeID})

	key := "analysis:" + placeID
	var cached models.AnalysisResponse
	if s.deps.Cache.Get(ctx, key, &cached) {
		s.logger.Info("analysis cache hit", map[string]interface{}{"placeId": placeID})
		cached.Cached = true
		return &cached, nil
	}

	place, err := s.placeDetails(ctx, placeID)
	if err != nil {
		return nil, err
	}

	var websiteHTML *string
	if place.Website != "" {
		if html, ok := s.deps.Scraper.FetchWebsite(ctx, place.Website); ok {
			websiteHTML = &html
		}
	}

	details := s.runAnalyzers(ctx, websiteHTML, place.Reviews)
	searchResults := s.deps.Search.SearchBusinessReviews(ctx, place.Name, place.FormattedAddress)

	bc := BuildBusinessContext(place, websiteHTML, details, searchResults)

	if err := s.deps.Usage.Track(ctx, usage.Gemini); err != nil {
		return nil, err
	}
	analysis, err := s.deps.Scorer.AnalyzeBusinessOpportunity(ctx, bc)
	if err != nil {
		return nil, err
	}

	resp = &models.AnalysisResponse{
		PlaceID:          placeID,
		Analysis:         *analysis,
		TechnicalDetails: details,
	}
	s.deps.Cache.Set(ctx, key, resp, s.ttl.LeadAnalysis)

	s.archive(ctx, place, resp)
	s.publish(ctx, place, resp)

	return resp, nil
}

func (s *Service) placeDetails(ctx context.Context, placeID string) (*models.PlaceDetails, error) {
	key := "place:" + placeID
	var cached models.PlaceDetails
	if s.deps.Cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	if err := s.deps.Usage.Track(ctx, usage.PlaceDetails); err != nil {
		return nil, err
	}
	place, err := s.deps.Places.GetPlaceDetails(ctx, placeID)
	if err != nil {
		return nil, err
	}
	s.deps.Cache.Set(ctx, key, place, s.ttl.PlaceDetails)
	return place, nil
}

// runAnalyzers runs the four heuristic analyzers concurrently. None of them fail.
func (s *Service) runAnalyzers(ctx context.Context, websiteHTML *string, reviews []models.PlaceReview) models.TechnicalDetails {
	html := ""
	if websiteHTML != nil {
		html = *websiteHTML
	}

	var details models.TechnicalDetails
	var seo models.SEOAnalysis

	g, gctx := errgroup.WithContext(ctx)
	timed := func(name string, fn func()) {
		g.Go(func() error {
			start := time.Now()
			fn()
			if s.deps.Recorder != nil {
				s.deps.Recorder.RecordAnalyzer(gctx, name, time.Since(start))
			}
			return nil
		})
	}

	timed("chatbot", func() { details.Chatbot = analyzers.DetectChatbot(html) })
	timed("booking", func() { details.Booking = analyzers.DetectBooking(html) })
	timed("sentiment", func() { details.Sentiment = analyzers.AnalyzeSentiment(reviews) })
	timed("seo", func() { seo = analyzers.AnalyzeSEO(html) })

	_ = g.Wait()
	details.SEO = &seo
	return details
}

// UXGaps lists the missing features surfaced to the LLM.
func UXGaps(details models.TechnicalDetails) []string {
	gaps := []string{}
	if !details.Chatbot.HasChatbot {
		gaps = append(gaps, "No AI chatbot for customer support")
	}
	if !details.Booking.HasBooking {
		gaps = append(gaps, "No online booking system")
	}
	if details.SEO != nil {
		n := len(details.SEO.Gaps)
		if n > uxSEOGaps {
			n = uxSEOGaps
		}
		gaps = append(gaps, details.SEO.Gaps[:n]...)
	}
	return gaps
}

// BuildBusinessContext assembles what the LLM sees about a place.
func BuildBusinessContext(place *models.PlaceDetails, websiteHTML *string, details models.TechnicalDetails, searchResults []models.SearchResult) models.BusinessContext {
	industry := defaultIndustry
	if len(place.Types) > 0 && place.Types[0] != "" {
		industry = place.Types[0]
	}
	rating := place.Rating
	if rating == 0 {
		rating = defaultRating
	}

	reviews := []string{}
	for i, r := range place.Reviews {
		if i == recentReviews {
			break
		}
		reviews = append(reviews, r.Text)
	}

	if searchResults == nil {
		searchResults = []models.SearchResult{}
	}

	hasChatbot := details.Chatbot.HasChatbot
	hasBooking := details.Booking.HasBooking

	return models.BusinessContext{
		Name:                place.Name,
		Industry:            industry,
		City:                place.FormattedAddress,
		Rating:              rating,
		ReviewCount:         place.UserRatingsTotal,
		RecentReviews:       reviews,
		WebsiteHTML:         websiteHTML,
		HasChatbot:          &hasChatbot,
		HasOnlineBooking:    &hasBooking,
		UXGaps:              UXGaps(details),
		GoogleSearchResults: searchResults,
	}
}

func (s *Service) archive(ctx context.Context, place *models.PlaceDetails, resp *models.AnalysisResponse) {
	if s.deps.Archive == nil {
		return
	}

	doc := models.AnalyzedLead{
		PlaceID:          resp.PlaceID,
		Name:             place.Name,
		Address:          place.FormattedAddress,
		Rating:           place.Rating,
		ReviewCount:      place.UserRatingsTotal,
		Website:          place.Website,
		Phone:            place.FormattedPhoneNumber,
		Location:         models.GeoPointOf(place.Geometry.Location),
		Summary:          resp.Analysis.DigitalPresenceSummary,
		OpportunityScore: resp.Analysis.OpportunityScore,
		KeyGaps:          resp.Analysis.KeyGaps,
		AIAuditPitch:     resp.Analysis.AIAuditPitch,
		RecommendedTools: resp.Analysis.RecommendedTools,
		TechnicalDetails: resp.TechnicalDetails,
		AnalyzedAt:       s.now().UTC(),
	}
	if len(place.Types) > 0 {
		doc.Category = place.Types[0]
	}

	if err := s.deps.Archive.Index(ctx, doc); err != nil {
		s.logger.Error("failed to archive analyzed lead", map[string]interface{}{"placeId": resp.PlaceID, "error": err.Error()})
	}
}

func (s *Service) publish(ctx context.Context, place *models.PlaceDetails, resp *models.AnalysisResponse) {
	if s.deps.Events == nil {
		return
	}

	_, _, err := s.deps.Events.Publish(ctx, models.LeadEvent{
		Type:             "lead.analyzed",
		PlaceID:          resp.PlaceID,
		Name:             place.Name,
		OpportunityScore: resp.Analysis.OpportunityScore,
		AIAuditPitch:     resp.Analysis.AIAuditPitch,
		OccurredAt:       s.now().UTC(),
	})
	if err != nil {
		s.logger.Error("failed to publish lead event", map[string]interface{}{"placeId": resp.PlaceID, "error": err.Error()})
	}
}

// ==========================
// Archive
// ==========================

// Archive searches previously analyzed leads.
func (s *Service) Archive(ctx context.Context, text, opportunity string, limit int) (*leadindex.SearchResult, error) {
	if s.deps.Archive == nil {
		return &leadindex.SearchResult{Leads: []models.AnalyzedLead{}}, nil
	}
	if opportunity != "" {
		switch strings.ToUpper(opportunity) {
		case models.OpportunityHigh, models.OpportunityMedium, models.OpportunityLow:
		default:
			return nil, errors.NewValidationError("opportunity must be HIGH, MEDIUM or LOW")
		}
	}
	return s.deps.Archive.Search(ctx, text, opportunity, limit)
}
