// internal/models/places.go
package models

// PlaceSearchResult mirrors a Places text search result.
type PlaceSearchResult struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Geometry         Geometry `json:"geometry"`
	Rating           float64  `json:"rating,omitempty"`
	UserRatingsTotal int      `json:"user_ratings_total,omitempty"`
	Types            []string `json:"types,omitempty"`
	BusinessStatus   string   `json:"business_status,omitempty"`
}

type Geometry struct {
	Location LatLng `json:"location"`
}

// PlaceDetails is a search result plus contact details, reviews and photos.
type PlaceDetails struct {
	PlaceSearchResult
	Website              string        `json:"website,omitempty"`
	FormattedPhoneNumber string        `json:"formatted_phone_number,omitempty"`
	OpeningHours         *OpeningHours `json:"opening_hours,omitempty"`
	Reviews              []PlaceReview `json:"reviews,omitempty"`
	Photos               []PlacePhoto  `json:"photos,omitempty"`
}

type OpeningHours struct {
	OpenNow     bool     `json:"open_now"`
	WeekdayText []string `json:"weekday_text"`
}

type PlaceReview struct {
	AuthorName              string `json:"author_name"`
	Rating                  int    `json:"rating"`
	Text                    string `json:"text"`
	Time                    int64  `json:"time"`
	RelativeTimeDescription string `json:"relative_time_description,omitempty"`
}

type PlacePhoto struct {
	PhotoReference string `json:"photo_reference"`
	Height         int    `json:"height"`
	Width          int    `json:"width"`
}

// SearchResult is one web search hit.
type SearchResult struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"displayLink"`
}
