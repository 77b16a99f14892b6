// Package extract pulls show candidates out of parsed HTML: a row-oriented
// extractor for gigography listings keyed on time anchors, and a generic
// date-anchor scan for arbitrary pages.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/showoracle/last-show-oracle/internal/dates"
	"github.com/showoracle/last-show-oracle/internal/metro"
	"github.com/showoracle/last-show-oracle/internal/oracle"
	"github.com/showoracle/last-show-oracle/internal/venues"
)

const (
	// maxAncestorDepth bounds the upward row search from a date anchor.
	maxAncestorDepth = 6

	snippetLimit = 500

	venuePathMarker = "/venues/"
)

var locationClassRe = regexp.MustCompile(`(?i)\blocation\b`)

var canceledWords = []string{"canceled", "cancelled", "postponed", "rescheduled"}

// NearestRow ascends from a date anchor to the closest ancestor that looks
// like a listing row: it must contain a time descendant plus a hyperlink or a
// location-tagged element. Falls back to the immediate parent, then the
// anchor itself.
func NearestRow(anchor *goquery.Selection) *goquery.Selection {
	p := anchor
	for depth := 0; depth < maxAncestorDepth; depth++ {
		if p.Length() == 0 {
			break
		}
		if p.Find("time").Length() > 0 && (p.Find("a").Length() > 0 || hasLocationClass(p)) {
			return p
		}
		p = p.Parent()
	}
	if parent := anchor.Parent(); parent.Length() > 0 {
		return parent
	}
	return anchor
}

func hasLocationClass(sel *goquery.Selection) bool {
	found := false
	sel.Find("[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if cls, ok := s.Attr("class"); ok && locationClassRe.MatchString(cls) {
			found = true
			return false
		}
		return true
	})
	return found
}

// VenueWindow slices a window of row text around the venue's first
// occurrence (100 chars each side), widening to cover a "City, ST" span when
// one shows up near the edge. Empty when the venue is absent from the text.
func VenueWindow(rowText, venue string) string {
	if venue == "" {
		return ""
	}
	idx := strings.Index(strings.ToLower(rowText), strings.ToLower(venue))
	if idx < 0 {
		return ""
	}

	start := max(0, idx-100)
	end := min(len(rowText), idx+len(venue)+100)
	window := rowText[start:end]

	if span := metro.CityStateIndex(window); span != nil {
		start = max(0, start+span[0]-50)
		end = min(len(rowText), start+span[1]+50)
		window = rowText[start:end]
	}
	return strings.TrimSpace(window)
}

// RowCandidate extracts one candidate from the row enclosing a time anchor.
// The boolean is false when the anchor has no usable date or when neither
// city nor venue could be resolved.
func RowCandidate(timeSel *goquery.Selection, pageURL string, lists venues.Lists, logger *zap.Logger) (oracle.Candidate, bool) {
	iso, ok := anchorDate(timeSel)
	if !ok {
		return oracle.Candidate{}, false
	}
	if !dates.ValidateSanity(iso) {
		logger.Debug("date outside sanity bounds, dropping row", zap.String("date", iso), zap.String("page", pageURL))
		return oracle.Candidate{}, false
	}

	row := NearestRow(timeSel)
	rowText := normalizeText(row.Text())

	venue := ""
	links := make([]metro.Link, 0, 4)
	row.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		links = append(links, metro.Link{Href: href, Text: normalizeText(a.Text())})
		if venue == "" && strings.Contains(href, venuePathMarker) {
			venue = normalizeText(a.Text())
		}
	})

	window := VenueWindow(rowText, venue)
	m, city := metro.Classify(links, window, venue, lists)

	if m != oracle.MetroNYC {
		txt := window
		if txt == "" {
			txt = rowText
		}
		if metro.MissedNYCSignal(txt) {
			logger.Debug("ny tokens seen but metro not nyc",
				zap.String("txt", truncate(txt, 300)),
				zap.String("venue", venue),
				zap.String("page", pageURL),
				zap.String("metro", string(m)),
			)
		}
	}

	if city == "" {
		city = metro.DefaultCity(m)
	}
	if city == "" && venue == "" {
		return oracle.Candidate{}, false
	}

	snippet := window
	if snippet == "" {
		snippet = rowText
	}

	return oracle.Candidate{
		Date:       iso,
		Metro:      m,
		City:       city,
		Venue:      venue,
		Snippet:    truncate(snippet, snippetLimit),
		SourceType: "songkick",
		SourceHost: oracle.Host(pageURL),
		URL:        pageURL,
	}, true
}

// anchorDate reads the anchor's datetime attribute, keeping the calendar
// date of an ISO 8601 timestamp.
func anchorDate(timeSel *goquery.Selection) (string, bool) {
	attr, ok := timeSel.Attr("datetime")
	if !ok || attr == "" {
		return "", false
	}
	if i := strings.Index(attr, "T"); i >= 0 {
		attr = attr[:i]
	}
	return dates.Parse(attr)
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

func containsAnyFold(s string, words []string) bool {
	lower := strings.ToLower(s)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
