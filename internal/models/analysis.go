// internal/models/analysis.go
package models

// Sentiment labels.
const (
	SentimentPositive = "POSITIVE"
	SentimentMixed    = "MIXED"
	SentimentNegative = "NEGATIVE"

	TrendImproving = "IMPROVING"
	TrendStable    = "STABLE"
	TrendDeclining = "DECLINING"
)

type ChatbotDetection struct {
	HasChatbot       bool     `json:"hasChatbot"`
	Confidence       float64  `json:"confidence"`
	DetectedProvider *string  `json:"detectedProvider"`
	Evidence         []string `json:"evidence"`
}

type BookingDetection struct {
	HasBooking     bool     `json:"hasBooking"`
	Confidence     float64  `json:"confidence"`
	DetectedSystem *string  `json:"detectedSystem"`
	Evidence       []string `json:"evidence"`
}

type SentimentAnalysis struct {
	Overall      string                `json:"overall"`
	Score        float64               `json:"score"`
	Distribution SentimentDistribution `json:"distribution"`
	RecentTrend  string                `json:"recentTrend"`
	KeyPhrases   KeyPhrases            `json:"keyPhrases"`
	// ReviewScores holds the lexicon score of each review's text, in input order.
	ReviewScores []float64             `json:"reviewScores,omitempty"`
}

type SentimentDistribution struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

type KeyPhrases struct {
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
}

type SEOAnalysis struct {
	HasMetaDescription bool     `json:"hasMetaDescription"`
	HasTitle           bool     `json:"hasTitle"`
	HasH1              bool     `json:"hasH1"`
	HasStructuredData  bool     `json:"hasStructuredData"`
	HasMobileViewport  bool     `json:"hasMobileViewport"`
	Gaps               []string `json:"gaps"`
}

// BusinessContext is everything the LLM sees about a lead.
type BusinessContext struct {
	Name                string         `json:"name"`
	Industry            string         `json:"industry"`
	City                string         `json:"city"`
	Rating              float64        `json:"rating"`
	ReviewCount         int            `json:"reviewCount"`
	RecentReviews       []string       `json:"recentReviews"`
	WebsiteHTML         *string        `json:"websiteHtml"`
	HasChatbot          *bool          `json:"hasChatbot"`
	HasOnlineBooking    *bool          `json:"hasOnlineBooking"`
	UXGaps              []string       `json:"uxGaps"`
	GoogleSearchResults []SearchResult `json:"googleSearchResults"`
}
