// internal/analyzers/seo.go
package analyzers

import (
	"fmt"
	"strings"

	"leadgenius/internal/models"
)

// AnalyzeSEO runs an on-page checklist and lists every missing item.
func AnalyzeSEO(html string) (result models.SEOAnalysis) {
	if html == "" {
		return models.SEOAnalysis{Gaps: []string{"No website available for analysis"}}
	}

	failed := models.SEOAnalysis{Gaps: []string{"SEO analysis failed"}}
	defer func() {
		if r := recover(); r != nil {
			result = failed
		}
	}()

	doc, err := parse(html)
	if err != nil {
		return failed
	}

	gaps := []string{}

	hasTitle := strings.TrimSpace(doc.Find("title").Text()) != ""
	if !hasTitle {
		gaps = append(gaps, "Missing or empty <title> tag")
	}

	description, _ := doc.Find(`meta[name="description"]`).Attr("content")
	hasMetaDescription := strings.TrimSpace(description) != ""
	if !hasMetaDescription {
		gaps = append(gaps, "Missing meta description")
	}

	hasH1 := doc.Find("h1").Length() > 0
	if !hasH1 {
		gaps = append(gaps, "Missing H1 heading")
	}

	hasViewport := doc.Find(`meta[name="viewport"]`).Length() > 0
	if !hasViewport {
		gaps = append(gaps, "Missing mobile viewport meta tag")
	}

	hasStructuredData := doc.Find(`script[type="application/ld+json"]`).Length() > 0
	if !hasStructuredData {
		gaps = append(gaps, "Missing structured data (Schema.org)")
	}

	if n := doc.Find("img:not([alt])").Length(); n > 0 {
		gaps = append(gaps, fmt.Sprintf("%d images missing alt text", n))
	}

	if doc.Find(`link[rel="canonical"]`).Length() == 0 {
		gaps = append(gaps, "Missing canonical URL")
	}

	if doc.Find(`meta[property^="og:"]`).Length() == 0 {
		gaps = append(gaps, "Missing Open Graph tags for social sharing")
	}

	return models.SEOAnalysis{
		HasMetaDescription: hasMetaDescription,
		HasTitle:           hasTitle,
		HasH1:              hasH1,
		HasStructuredData:  hasStructuredData,
		HasMobileViewport:  hasViewport,
		Gaps:               gaps,
	}
}
