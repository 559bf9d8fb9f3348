// internal/services/gemini/prompt.go
package gemini

import (
	"fmt"
	"strconv"
	"strings"

	"leadgenius/internal/models"
)

const analysisTask = `TASK:
Analyze this business and generate a JSON response with NO additional text, markdown, or explanation:

{
  "digitalPresenceSummary": "2-4 sentences describing current digital presence strengths and weaknesses",
  "opportunityScore": "HIGH|MEDIUM|LOW",
  "keyGaps": ["specific gap 1", "specific gap 2", "specific gap 3"],
  "aiAuditPitch": "Personalized 3-4 sentence pitch for an AI/marketing audit that references their specific situation, strengths, and opportunities. Use their business name and be specific.",
  "recommendedTools": ["tool 1", "tool 2", "tool 3"]
}

SCORING CRITERIA:
- HIGH: 3+ significant gaps, rating 3.5-4.0, negative/mixed sentiment, no chatbot, manual booking
- MEDIUM: 2 gaps, rating 4.0-4.5, mixed sentiment, missing 1-2 key features
- LOW: 0-1 gaps, rating 4.5+, positive sentiment, strong digital presence

PITCH GUIDELINES:
- Start with their strength (e.g., "Your 4.2-star rating shows customers appreciate...")
- Identify specific opportunity (e.g., "However, without an AI chatbot...")
- Quantify benefit (e.g., "Adding automated booking could save 10+ hours/week")
- End with clear next step (e.g., "I'd love to show you how...")

Return ONLY the JSON object. No markdown formatting, no explanation, no additional text.`

// BuildAnalysisPrompt renders the scoring prompt for one business.
func BuildAnalysisPrompt(bc models.BusinessContext) string {
	var b strings.Builder

	b.WriteString("You are a senior marketing and AI consultant for small local businesses.\n\n")

	b.WriteString("BUSINESS CONTEXT:\n")
	fmt.Fprintf(&b, "- Name: %s\n", bc.Name)
	fmt.Fprintf(&b, "- Industry: %s\n", bc.Industry)
	fmt.Fprintf(&b, "- Location: %s\n", bc.City)
	fmt.Fprintf(&b, "- Google Rating: %s/5 (%d reviews)\n", strconv.FormatFloat(bc.Rating, 'f', -1, 64), bc.ReviewCount)
	fmt.Fprintf(&b, "- Has Website: %s\n", websiteStatus(bc))
	fmt.Fprintf(&b, "- Has AI Chatbot: %s\n", tristate(bc.HasChatbot))
	fmt.Fprintf(&b, "- Has Online Booking: %s\n\n", tristate(bc.HasOnlineBooking))

	b.WriteString("RECENT REVIEWS (last 3):\n")
	reviews := bc.RecentReviews
	if len(reviews) > 3 {
		reviews = reviews[:3]
	}
	if joined := strings.Join(reviews, "\n\n---\n\n"); joined != "" {
		b.WriteString(joined)
	} else {
		b.WriteString("No reviews available")
	}
	b.WriteString("\n\n")

	b.WriteString("DETECTED UX GAPS:\n")
	if len(bc.UXGaps) > 0 {
		b.WriteString(strings.Join(bc.UXGaps, "\n"))
	} else {
		b.WriteString("None detected")
	}
	b.WriteString("\n\n")

	b.WriteString("GOOGLE SEARCH INSIGHTS:\n")
	if len(bc.GoogleSearchResults) > 0 {
		lines := make([]string, 0, len(bc.GoogleSearchResults))
		for _, r := range bc.GoogleSearchResults {
			lines = append(lines, fmt.Sprintf("- %s: %s", r.Title, r.Snippet))
		}
		b.WriteString(strings.Join(lines, "\n"))
	} else {
		b.WriteString("No additional search insights")
	}
	b.WriteString("\n\n")

	b.WriteString(analysisTask)
	return b.String()
}

func websiteStatus(bc models.BusinessContext) string {
	switch {
	case bc.WebsiteHTML != nil && *bc.WebsiteHTML != "":
		return "Yes"
	case bc.HasOnlineBooking != nil:
		return "Unknown (could not fetch)"
	default:
		return "No"
	}
}

func tristate(v *bool) string {
	if v == nil {
		return "Unknown"
	}
	return strconv.FormatBool(*v)
}
