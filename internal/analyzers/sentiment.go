// internal/analyzers/sentiment.go
package analyzers

import (
	"regexp"
	"sort"
	"strings"

	"leadgenius/internal/models"
)

var positiveWords = []string{
	"great", "excellent", "amazing", "wonderful", "fantastic",
	"love", "best", "perfect", "awesome", "outstanding",
	"highly recommend", "professional", "friendly", "clean", "helpful",
}

var negativeWords = []string{
	"bad", "terrible", "awful", "horrible", "worst",
	"disappointing", "rude", "unprofessional", "dirty", "slow",
	"overpriced", "never again", "waste", "poor", "unacceptable",
}

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

const (
	maxKeyPhrases   = 3
	maxPhraseLength = 100
	trendWindow     = 5
	trendThreshold  = 0.3
)

// AnalyzeSentiment summarizes review ratings and pulls out representative phrases.
func AnalyzeSentiment(reviews []models.PlaceReview) (result models.SentimentAnalysis) {
	if len(reviews) == 0 {
		return emptySentiment()
	}
	defer func() {
		if r := recover(); r != nil {
			result = emptySentiment()
		}
	}()

	var dist models.SentimentDistribution
	var total float64
	textScores := make([]float64, 0, len(reviews))
	for _, r := range reviews {
		textScores = append(textScores, textScore(r.Text))
		switch {
		case r.Rating >= 4:
			dist.Positive++
		case r.Rating <= 2:
			dist.Negative++
		default:
			dist.Neutral++
		}
		total += float64(r.Rating)
	}

	avg := total / float64(len(reviews))
	overall := models.SentimentNegative
	switch {
	case avg >= 4.0:
		overall = models.SentimentPositive
	case avg >= 3.0:
		overall = models.SentimentMixed
	}

	return models.SentimentAnalysis{
		Overall:      overall,
		Score:        (avg - 3) / 2,
		Distribution: dist,
		RecentTrend:  recentTrend(reviews),
		KeyPhrases:   extractKeyPhrases(reviews),
		ReviewScores: textScores,
	}
}

// textScore scores a single review text against the lexicons, clamped to [-1, 1].
func textScore(text string) float64 {
	lower := strings.ToLower(text)
	score := 0.0
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			score += 0.2
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			score -= 0.2
		}
	}
	if score > 1 {
		return 1
	}
	if score < -1 {
		return -1
	}
	return score
}

func emptySentiment() models.SentimentAnalysis {
	return models.SentimentAnalysis{
		Overall:     models.SentimentMixed,
		RecentTrend: models.TrendStable,
		KeyPhrases:  models.KeyPhrases{Positive: []string{}, Negative: []string{}},
	}
}

// recentTrend compares the newest five ratings with the five before them.
func recentTrend(reviews []models.PlaceReview) string {
	if len(reviews) < trendWindow+1 {
		return models.TrendStable
	}

	sorted := make([]models.PlaceReview, len(reviews))
	copy(sorted, reviews)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time > sorted[j].Time })

	var recent, previous float64
	for i, r := range sorted {
		switch {
		case i < trendWindow:
			recent += float64(r.Rating)
		case i < 2*trendWindow:
			previous += float64(r.Rating)
		}
	}

	diff := recent/trendWindow - previous/trendWindow
	switch {
	case diff > trendThreshold:
		return models.TrendImproving
	case diff < -trendThreshold:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

func extractKeyPhrases(reviews []models.PlaceReview) models.KeyPhrases {
	positive := []string{}
	negative := []string{}

	for _, r := range reviews {
		for _, sentence := range sentenceSplit.Split(r.Text, -1) {
			trimmed := strings.TrimSpace(sentence)
			if len([]rune(trimmed)) <= 10 {
				continue
			}
			lower := strings.ToLower(sentence)
			if len(positive) < maxKeyPhrases && containsAny(lower, positiveWords) {
				positive = append(positive, truncate(trimmed, maxPhraseLength))
			}
			if len(negative) < maxKeyPhrases && containsAny(lower, negativeWords) {
				negative = append(negative, truncate(trimmed, maxPhraseLength))
			}
		}
	}

	return models.KeyPhrases{Positive: dedupe(positive), Negative: dedupe(negative)}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
