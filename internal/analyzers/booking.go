// internal/analyzers/booking.go
package analyzers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"leadgenius/internal/models"
)

var bookingSignatures = []signature{
	sig(`calendly`, "Calendly"),
	sig(`acuityscheduling`, "Acuity Scheduling"),
	sig(`square.*appointments`, "Square Appointments"),
	sig(`setmore`, "Setmore"),
	sig(`appointlet`, "Appointlet"),
	sig(`booksy`, "Booksy"),
	sig(`mindbodyonline`, "MINDBODY"),
	sig(`opentable`, "OpenTable"),
	sig(`resy`, "Resy"),
	sig(`yelp.*reservations`, "Yelp Reservations"),
	sig(`booking\.com`, "Booking.com"),

	sig(`book.*appointment`, "Generic Booking System"),
	sig(`schedule.*online`, "Generic Scheduling"),
	sig(`online.*booking`, "Generic Online Booking"),
	sig(`reserve.*online`, "Generic Reservation"),
}

var bookingSelectors = []string{
	`a[href*="book"]`,
	`a[href*="appointment"]`,
	`a[href*="schedule"]`,
	`button:contains("Book")`,
	`button:contains("Schedule")`,
	`button:contains("Reserve")`,
	".book-button",
	".booking-button",
	"#book-now",
	".schedule-appointment",
}

var bookingFormPattern = regexp.MustCompile(`(?i)book|appointment|schedule|reservation`)

// DetectBooking looks for online booking systems in scripts, links, forms and iframes.
func DetectBooking(html string) (result models.BookingDetection) {
	if html == "" {
		return models.BookingDetection{
			HasBooking: false,
			Confidence: 1.0,
			Evidence:   []string{"No website HTML available"},
		}
	}

	failed := models.BookingDetection{Evidence: []string{"Analysis failed"}}
	defer func() {
		if r := recover(); r != nil {
			result = failed
		}
	}()

	doc, err := parse(html)
	if err != nil {
		return failed
	}

	d := &detector{signatures: bookingSignatures, evidence: []string{}}
	d.scanScripts(doc, "Found {provider} in script")

	for _, sel := range bookingSelectors {
		if n := countSafe(doc, sel); n > 0 {
			d.add(fmt.Sprintf("Found booking element: %s (%d instances)", sel, n))
		}
	}

	doc.Find("form").Each(func(_ int, s *goquery.Selection) {
		inner, _ := s.Html()
		if bookingFormPattern.MatchString(inner) && strings.Contains(inner, "input") {
			d.add("Found booking-related form")
		}
	})

	d.scanIframes(doc)

	return models.BookingDetection{
		HasBooking:     len(d.evidence) > 0,
		Confidence:     confidence(len(d.evidence), 0.35),
		DetectedSystem: d.provider,
		Evidence:       d.evidence,
	}
}

// countSafe skips selectors the matcher cannot compile.
func countSafe(doc *goquery.Document, sel string) (n int) {
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()
	return doc.Find(sel).Length()
}
