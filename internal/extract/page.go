package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/showoracle/last-show-oracle/internal/dates"
	"github.com/showoracle/last-show-oracle/internal/metro"
	"github.com/showoracle/last-show-oracle/internal/oracle"
)

const (
	maxDateAnchors  = 200
	maxTextAnchors  = 100
	maxClassAnchors = 50
)

var (
	yearishRe = regexp.MustCompile(`\d{4}`)

	// Venue extraction patterns over snippet text, tried in order.
	venuePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)at\s+([^,\n]+?)(?:\s+in|\s*[,]|\s*$)`),
		regexp.MustCompile(`(?i)—\s*([^,\n]+?)(?:\s*[,]|\s*$)`),
		regexp.MustCompile(`(?i)@\s+([^,\n]+?)(?:\s*[,]|\s*$)`),
		regexp.MustCompile(`(?i)venue[:\s]+([^,\n]+?)(?:\s*[,]|\s*$)`),
	}

	upcomingWords = []string{"upcoming", "on sale", "presale", "tickets available"}
)

// Page runs the generic date-anchor scan over arbitrary HTML: time elements
// with datetime attributes, elements whose text carries a 4-digit run, and
// date/time/event-classed elements, capped at 200 anchors total. Each anchor
// is parsed independently; a malformed one is skipped, never fatal.
func Page(htmlText, sourceURL string, logger *zap.Logger) ([]oracle.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	anchors := collectAnchors(doc)
	sourceType := oracle.SourceTypeForURL(sourceURL)
	host := oracle.Host(sourceURL)

	var out []oracle.Candidate
	for _, sel := range anchors {
		c, ok := pageCandidate(sel, sourceURL, sourceType, host, logger)
		if !ok {
			continue
		}
		out = append(out, c)
	}
	return dedupeByShow(out), nil
}

// collectAnchors gathers candidate date-bearing elements in document order
// per strategy, de-duplicated by node.
func collectAnchors(doc *goquery.Document) []*goquery.Selection {
	seen := make(map[*html.Node]bool)
	var anchors []*goquery.Selection

	add := func(s *goquery.Selection, limit int) {
		count := 0
		s.Each(func(_ int, el *goquery.Selection) {
			if limit > 0 && count >= limit {
				return
			}
			node := el.Get(0)
			if seen[node] {
				return
			}
			seen[node] = true
			anchors = append(anchors, el)
			count++
		})
	}

	add(doc.Find("time[datetime]"), 0)
	add(doc.Find("span, div, p, li").FilterFunction(func(_ int, el *goquery.Selection) bool {
		return yearishRe.MatchString(el.Text())
	}), maxTextAnchors)
	add(doc.Find(`[class*="date"], [class*="time"], [class*="event"]`), maxClassAnchors)

	if len(anchors) > maxDateAnchors {
		anchors = anchors[:maxDateAnchors]
	}
	return anchors
}

func pageCandidate(sel *goquery.Selection, sourceURL, sourceType, host string, logger *zap.Logger) (oracle.Candidate, bool) {
	iso, ok := elementDate(sel)
	if !ok {
		return oracle.Candidate{}, false
	}
	if !dates.ValidateSanity(iso) {
		logger.Debug("date outside sanity bounds, skipping anchor", zap.String("date", iso), zap.String("page", sourceURL))
		return oracle.Candidate{}, false
	}

	parentText := normalizeText(sel.Parent().Text())
	grandText := normalizeText(sel.Parent().Parent().Text())

	city := cityFromTokens(parentText, grandText)
	venue := VenueFromSnippet(parentText)
	if venue == "" {
		venue = VenueFromSnippet(grandText)
	}

	combined := parentText + " " + grandText
	if containsAnyFold(combined, upcomingWords) {
		return oracle.Candidate{}, false
	}
	if city == "" && venue == "" {
		return oracle.Candidate{}, false
	}

	snippet := parentText
	if snippet == "" {
		snippet = normalizeText(sel.Text())
	}

	return oracle.Candidate{
		Date:       iso,
		City:       city,
		Venue:      venue,
		URL:        sourceURL,
		SourceType: sourceType,
		SourceHost: host,
		Snippet:    truncate(snippet, snippetLimit),
		Canceled:   containsAnyFold(combined, canceledWords),
	}, true
}

func elementDate(sel *goquery.Selection) (string, bool) {
	if goquery.NodeName(sel) == "time" {
		if attr, ok := sel.Attr("datetime"); ok && attr != "" {
			if i := strings.Index(attr, "T"); i >= 0 {
				attr = attr[:i]
			}
			if iso, ok := dates.Parse(attr); ok {
				return iso, true
			}
		}
	}
	return dates.Parse(normalizeText(sel.Text()))
}

// cityFromTokens scans nearby text for metro locality tokens, SF first.
func cityFromTokens(parentText, grandText string) string {
	parentLower := strings.ToLower(parentText)
	grandLower := strings.ToLower(grandText)
	for _, m := range []oracle.Metro{oracle.MetroSF, oracle.MetroNYC} {
		for _, token := range metro.Tokens(m) {
			lower := strings.ToLower(token)
			if strings.Contains(parentLower, lower) || strings.Contains(grandLower, lower) {
				return token
			}
		}
	}
	return ""
}

// VenueFromSnippet pulls a plausible venue name out of free text using the
// "at X" / "— X" / "@ X" / "venue: X" patterns. Matches outside a sane name
// length are discarded.
func VenueFromSnippet(snippet string) string {
	for _, re := range venuePatterns {
		match := re.FindStringSubmatch(snippet)
		if match == nil {
			continue
		}
		venue := strings.TrimSpace(match[1])
		if len(venue) > 3 && len(venue) < 100 {
			return venue
		}
	}
	return ""
}

// dedupeByShow collapses exact (date, city, venue) repeats from overlapping
// anchor strategies, keeping first occurrences in order.
func dedupeByShow(in []oracle.Candidate) []oracle.Candidate {
	type key struct{ date, city, venue string }
	seen := make(map[key]bool, len(in))
	out := make([]oracle.Candidate, 0, len(in))
	for _, c := range in {
		k := key{c.Date, c.City, c.Venue}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}
