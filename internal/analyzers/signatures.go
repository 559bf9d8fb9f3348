// internal/analyzers/signatures.go
package analyzers

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type signature struct {
	pattern  *regexp.Regexp
	provider string
}

func sig(pattern, provider string) signature {
	return signature{pattern: regexp.MustCompile(`(?i)` + pattern), provider: provider}
}

// detector accumulates evidence and remembers the first provider seen.
type detector struct {
	signatures []signature
	evidence   []string
	provider   *string
}

func (d *detector) add(evidence string) {
	d.evidence = append(d.evidence, evidence)
}

// scan records every signature matching any of texts.
func (d *detector) scan(format string, texts ...string) {
	for _, s := range d.signatures {
		for _, text := range texts {
			if text != "" && s.pattern.MatchString(text) {
				d.add(strings.Replace(format, "{provider}", s.provider, 1))
				if d.provider == nil {
					p := s.provider
					d.provider = &p
				}
				break
			}
		}
	}
}

// scanScripts checks every script's src and inline body.
func (d *detector) scanScripts(doc *goquery.Document, format string) {
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		d.scan(format, src, s.Text())
	})
}

// scanIframes checks every iframe src.
func (d *detector) scanIframes(doc *goquery.Document) {
	doc.Find("iframe").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		d.scan("Found {provider} in iframe", src)
	})
}

func confidence(evidence int, weight float64) float64 {
	c := float64(evidence) * weight
	if c > 1 {
		return 1
	}
	return c
}

func parse(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}
