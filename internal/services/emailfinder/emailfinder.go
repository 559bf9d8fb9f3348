// internal/services/emailfinder/emailfinder.go
package emailfinder

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"leadgenius/internal/common/logger"
	"leadgenius/internal/models"

	"github.com/PuerkitoBio/goquery"
)

const (
	SourceWebScrape = "web_scrape"

	mailtoConfidence = 90
	textConfidence   = 80
)

var emailPattern = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)

// Fetcher returns page HTML, or false when the page is unavailable.
type Fetcher interface {
	FetchWebsite(ctx context.Context, url string) (string, bool)
}

// Finder discovers a contact address from a company's own website.
type Finder struct {
	fetcher Fetcher
	logger  logger.Logger
}

func New(fetcher Fetcher, log logger.Logger) *Finder {
	return &Finder{fetcher: fetcher, logger: log.With(map[string]interface{}{"service": "emailfinder"})}
}

// NormalizeDomain strips scheme, www., path and port.
func NormalizeDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	if strings.Contains(d, "://") {
		if u, err := url.Parse(d); err == nil {
			d = u.Host
		}
	}
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.LastIndexByte(d, ':'); i >= 0 {
		d = d[:i]
	}
	return strings.TrimPrefix(d, "www.")
}

// FindEmail scans the home and contact pages. A mailto link wins over an
// address found in page text. Nil means nothing was found.
func (f *Finder) FindEmail(ctx context.Context, domain, companyName string) (*models.EmailResult, error) {
	domain = NormalizeDomain(domain)
	f.logger.Info("searching for email", map[string]interface{}{"companyName": companyName, "domain": domain})
	if domain == "" {
		return nil, nil
	}

	var pages []string
	for _, path := range []string{"", "/contact"} {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if html, ok := f.fetcher.FetchWebsite(ctx, "https://"+domain+path); ok {
			pages = append(pages, html)
		}
	}

	for _, html := range pages {
		if email := mailtoAddress(html, domain); email != "" {
			return &models.EmailResult{Email: email, Source: SourceWebScrape, Confidence: mailtoConfidence}, nil
		}
	}
	for _, html := range pages {
		if email := textAddress(html, domain); email != "" {
			return &models.EmailResult{Email: email, Source: SourceWebScrape, Confidence: textConfidence}, nil
		}
	}

	f.logger.Info("no email found", map[string]interface{}{"domain": domain})
	return nil, nil
}

// mailtoAddress returns the first mailto link on the page. Links on the
// company's own domain are preferred.
func mailtoAddress(html, domain string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	var first, own string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if !strings.HasPrefix(strings.ToLower(href), "mailto:") {
			return true
		}
		addr := strings.TrimSpace(href[len("mailto:"):])
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		addr = strings.ToLower(addr)
		if !emailPattern.MatchString(addr) {
			return true
		}
		if first == "" {
			first = addr
		}
		if sameDomain(addr, domain) {
			own = addr
			return false
		}
		return true
	})

	if own != "" {
		return own
	}
	return first
}

// textAddress returns the first address in the page text on domain.
func textAddress(html, domain string) string {
	text := html
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		text = doc.Find("body").Text()
	}
	for _, m := range emailPattern.FindAllString(text, -1) {
		addr := strings.ToLower(m)
		if sameDomain(addr, domain) {
			return addr
		}
	}
	return ""
}

func sameDomain(email, domain string) bool {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return false
	}
	host := strings.TrimPrefix(email[at+1:], "www.")
	return host == domain || strings.HasSuffix(host, "."+domain)
}
