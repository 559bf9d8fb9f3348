// internal/services/places/places.go
package places

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"leadgenius/internal/common/errors"
	"leadgenius/internal/common/logger"
	"leadgenius/internal/common/metrics"
	"leadgenius/internal/common/retry"
	"leadgenius/internal/models"

	"googlemaps.github.io/maps"
)

const serviceName = "Google Places"

// maxReviewCount is the small-business heuristic: places with this many reviews or more are dropped.
const maxReviewCount = 100

var detailFields = []string{
	"place_id",
	"name",
	"formatted_address",
	"geometry",
	"rating",
	"user_ratings_total",
	"website",
	"formatted_phone_number",
	"opening_hours",
	"reviews",
	"photos",
	"types",
	"business_status",
}

// maps returns non-OK statuses as "maps: STATUS - message".
var statusPattern = regexp.MustCompile(`^maps: ([A-Z_]+)`)

type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// SearchOptions narrows a text search. Zero values take the defaults.
type SearchOptions struct {
	MinRating  float64
	MaxRating  float64
	MaxResults int
}

type Service struct {
	client *maps.Client
	config Config
	logger logger.Logger
}

// New builds the Places client. Without an API key every call fails with an
// external API error and HealthCheck reports false.
func New(cfg Config, log logger.Logger) (*Service, error) {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	s := &Service{config: cfg, logger: log.With(map[string]interface{}{"service": "places"})}
	if cfg.APIKey == "" {
		s.logger.Warn("Google Places API key not configured", nil)
		return s, nil
	}

	opts := []maps.ClientOption{maps.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(cfg.BaseURL))
	}

	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	s.client = client
	return s, nil
}

// SearchPlaces runs "{industry} in {city}" and keeps small businesses inside the rating band.
func (s *Service) SearchPlaces(ctx context.Context, industry, city string, opts SearchOptions) ([]models.PlaceSearchResult, error) {
	if opts.MinRating == 0 {
		opts.MinRating = 3.5
	}
	if opts.MaxRating == 0 {
		opts.MaxRating = 4.5
	}
	if opts.MaxResults == 0 {
		opts.MaxResults = 20
	}
	if s.client == nil {
		return nil, errors.NewExternalAPIError(serviceName, "Search failed")
	}

	query := fmt.Sprintf("%s in %s", industry, city)
	s.logger.Info("searching places", map[string]interface{}{"query": query})

	resp, err := retry.DoValue(ctx, s.retryConfig("textSearch"), func(ctx context.Context) (maps.PlacesSearchResponse, error) {
		callCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
		return s.client.TextSearch(callCtx, &maps.TextSearchRequest{Query: query})
	})
	metrics.ObserveExternalCall("places", err)
	if err != nil {
		s.logger.Error("places search failed", map[string]interface{}{"query": query, "error": err.Error()})
		if status := upstreamStatus(err); status != "" {
			return nil, errors.NewExternalAPIError(serviceName, "Search failed: "+status)
		}
		return nil, errors.NewExternalAPIError(serviceName, "Search failed")
	}

	results := make([]models.PlaceSearchResult, 0, len(resp.Results))
	for _, place := range resp.Results {
		rating := float64(place.Rating)
		if rating < opts.MinRating || rating > opts.MaxRating {
			continue
		}
		if place.UserRatingsTotal >= maxReviewCount {
			continue
		}
		results = append(results, models.PlaceSearchResult{
			PlaceID:          place.PlaceID,
			Name:             place.Name,
			FormattedAddress: place.FormattedAddress,
			Geometry: models.Geometry{Location: models.LatLng{
				Lat: place.Geometry.Location.Lat,
				Lng: place.Geometry.Location.Lng,
			}},
			Rating:           rating,
			UserRatingsTotal: place.UserRatingsTotal,
			Types:            place.Types,
			BusinessStatus:   place.BusinessStatus,
		})
		if len(results) == opts.MaxResults {
			break
		}
	}

	s.logger.Info("places matching criteria", map[string]interface{}{"query": query, "count": len(results)})
	return results, nil
}

// detailFieldMasks parses names into request field masks. Names the client
// library does not know are logged and left out of the request.
func (s *Service) detailFieldMasks(names []string) []maps.PlaceDetailsFieldMask {
	masks := make([]maps.PlaceDetailsFieldMask, 0, len(names))
	for _, name := range names {
		mask, err := maps.ParsePlaceDetailsFieldMask(name)
		if err != nil {
			s.logger.Warn("unknown place details field", map[string]interface{}{"field": name, "error": err.Error()})
			continue
		}
		masks = append(masks, mask)
	}
	return masks
}

// GetPlaceDetails fetches one place with contact details, reviews and photos.
func (s *Service) GetPlaceDetails(ctx context.Context, placeID string) (*models.PlaceDetails, error) {
	if s.client == nil {
		return nil, errors.NewExternalAPIError(serviceName, "Place details failed")
	}

	req := &maps.PlaceDetailsRequest{PlaceID: placeID}
	req.Fields = s.detailFieldMasks(detailFields)

	place, err := retry.DoValue(ctx, s.retryConfig("placeDetails"), func(ctx context.Context) (maps.PlaceDetailsResult, error) {
		callCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
		res, err := s.client.PlaceDetails(callCtx, req)
		if err != nil {
			switch upstreamStatus(err) {
			case "NOT_FOUND", "INVALID_REQUEST", "REQUEST_DENIED":
				return res, retry.Permanent(err)
			}
		}
		return res, err
	})
	metrics.ObserveExternalCall("places", err)
	if err != nil {
		s.logger.Error("place details failed", map[string]interface{}{"placeId": placeID, "error": err.Error()})
		switch status := upstreamStatus(err); status {
		case "NOT_FOUND", "INVALID_REQUEST":
			return nil, errors.NewNotFoundError(fmt.Sprintf("Place not found: %s", placeID))
		case "":
			return nil, errors.NewExternalAPIError(serviceName, "Place details failed")
		default:
			return nil, errors.NewExternalAPIError(serviceName, "Place details failed: "+status)
		}
	}

	return toPlaceDetails(place), nil
}

// HealthCheck geocodes a known address.
func (s *Service) HealthCheck(ctx context.Context) bool {
	if s.client == nil {
		return false
	}
	results, err := s.client.Geocode(ctx, &maps.GeocodingRequest{Address: "San Francisco, CA"})
	if err != nil {
		s.logger.Error("places health check failed", map[string]interface{}{"error": err.Error()})
		return false
	}
	return len(results) > 0
}

func (s *Service) retryConfig(operation string) retry.Config {
	return retry.Config{
		MaxAttempts: s.config.MaxRetries,
		Delay:       s.config.RetryDelay,
		Backoff:     true,
		Logger:      s.logger,
		Operation:   operation,
	}
}

func upstreamStatus(err error) string {
	if m := statusPattern.FindStringSubmatch(err.Error()); m != nil {
		return m[1]
	}
	return ""
}

func toPlaceDetails(place maps.PlaceDetailsResult) *models.PlaceDetails {
	details := &models.PlaceDetails{
		PlaceSearchResult: models.PlaceSearchResult{
			PlaceID:          place.PlaceID,
			Name:             place.Name,
			FormattedAddress: place.FormattedAddress,
			Geometry: models.Geometry{Location: models.LatLng{
				Lat: place.Geometry.Location.Lat,
				Lng: place.Geometry.Location.Lng,
			}},
			Rating:           float64(place.Rating),
			UserRatingsTotal: place.UserRatingsTotal,
			Types:            place.Types,
			BusinessStatus:   place.BusinessStatus,
		},
		Website:              place.Website,
		FormattedPhoneNumber: place.FormattedPhoneNumber,
	}

	if place.OpeningHours != nil {
		hours := &models.OpeningHours{WeekdayText: place.OpeningHours.WeekdayText}
		if place.OpeningHours.OpenNow != nil {
			hours.OpenNow = *place.OpeningHours.OpenNow
		}
		details.OpeningHours = hours
	}

	for _, r := range place.Reviews {
		details.Reviews = append(details.Reviews, models.PlaceReview{
			AuthorName: r.AuthorName,
			Rating:     int(r.Rating),
			Text:       r.Text,
			Time:       int64(r.Time),
		})
	}

	for _, p := range place.Photos {
		details.Photos = append(details.Photos, models.PlacePhoto{
			PhotoReference: p.PhotoReference,
			Height:         int(p.Height),
			Width:          int(p.Width),
		})
	}

	return details
}
