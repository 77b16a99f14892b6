// Package metro classifies row text and links into one of the two supported
// metropolitan areas. The classifier is an ordered chain of independent
// strategies with early exit on first success: metro slug match, "City, ST"
// parsing, token fallback, venue allow-list rescue.
package metro

import (
	"regexp"
	"strings"

	"github.com/showoracle/last-show-oracle/internal/oracle"
	"github.com/showoracle/last-show-oracle/internal/venues"
)

// Link is one hyperlink found in a row: its target path and visible text.
type Link struct {
	Href string
	Text string
}

// Metro slugs (anchor/most-reliable signal).
var (
	nycSlugRe = regexp.MustCompile(`(?i)/metro-areas/\d+-(?:us-)?new-york-ny\b`)
	sfSlugRe  = regexp.MustCompile(`(?i)/metro-areas/\d+-(?:us-)?san-francisco-bay-area\b`)
)

// "City, ST" fallback, covering exactly the two supported state codes.
var cityStateRe = regexp.MustCompile(`(?i)\b(?P<city>[A-Za-z][A-Za-z .'\-]+?),\s*(?P<state>NY|CA)\b(?:,\s*(?:US|USA))?`)

// Borough and city membership sets for "City, ST" classification.
var nycBoroughs = map[string]struct{}{
	"new york":      {},
	"manhattan":     {},
	"brooklyn":      {},
	"bklyn":         {},
	"queens":        {},
	"bronx":         {},
	"staten island": {},
}

var sfCities = map[string]struct{}{
	"san francisco": {},
	"oakland":       {},
	"berkeley":      {},
	"san jose":      {},
	"palo alto":     {},
	"mountain view": {},
	"santa clara":   {},
	"daly city":     {},
}

// Selection-time membership tokens, distinct from the classifier sets above.
// Display-cased; callers lower-case for matching.
var metroTokens = map[oracle.Metro][]string{
	oracle.MetroSF: {
		"San Francisco", "SF", "Oakland", "Berkeley", "San Jose",
		"Palo Alto", "Mountain View", "Santa Clara", "Daly City",
	},
	oracle.MetroNYC: {
		"New York", "NYC", "Manhattan", "Brooklyn", "Queens", "Bronx",
		"Staten Island",
	},
}

// Classify runs the ordered strategy chain over a row's links, the
// venue-scoped window text, and the venue name. The returned city text may be
// populated even when no metro resolves ("Albany, NY" keeps its display text).
func Classify(links []Link, windowText, venue string, lists venues.Lists) (oracle.Metro, string) {
	m, city := ResolveSlug(links)
	if m == "" && windowText != "" {
		m, city = ClassifyCityState(windowText)
	}
	if m == "" && windowText != "" {
		m = FallbackTokens(windowText)
	}
	if m == "" && venue != "" {
		m = RescueVenue(venue, lists)
	}
	return m, city
}

// ResolveSlug scans row links for a metro-area slug, the most reliable
// signal. The matching link's text becomes the city.
func ResolveSlug(links []Link) (oracle.Metro, string) {
	for _, l := range links {
		if nycSlugRe.MatchString(l.Href) {
			return oracle.MetroNYC, l.Text
		}
		if sfSlugRe.MatchString(l.Href) {
			return oracle.MetroSF, l.Text
		}
	}
	return "", ""
}

// ClassifyCityState matches a "City, ST" pattern in text. A recognized state
// with a non-member city (Albany, Los Angeles) yields no metro but preserves
// the parsed city text for display.
func ClassifyCityState(txt string) (oracle.Metro, string) {
	match := cityStateRe.FindStringSubmatch(txt)
	if match == nil {
		return "", ""
	}
	city := strings.TrimSpace(match[1])
	state := strings.ToUpper(match[2])
	display := city + ", " + state

	switch state {
	case "NY":
		if _, ok := nycBoroughs[strings.ToLower(city)]; ok {
			return oracle.MetroNYC, display
		}
		return "", display
	case "CA":
		if _, ok := sfCities[strings.ToLower(city)]; ok {
			return oracle.MetroSF, display
		}
		return "", display
	}
	return "", ""
}

// CityStateIndex exposes the byte span of a "City, ST" match so the extractor
// can widen its text window around it. Returns nil when absent.
func CityStateIndex(txt string) []int {
	return cityStateRe.FindStringIndex(txt)
}

// FallbackTokens scans lower-cased text for borough/city name tokens. "nyc"
// is a soft alias: trusted outright when a space-padded " ny " appears
// nearby, but still accepted as a weaker positive on its own at this last
// text tier. That asymmetry is longstanding observed behavior; do not tighten
// it without re-validating the corpus it was tuned on.
func FallbackTokens(txt string) oracle.Metro {
	lower := strings.ToLower(txt)

	for boro := range nycBoroughs {
		if strings.Contains(lower, boro) {
			return oracle.MetroNYC
		}
	}
	if strings.Contains(lower, "nyc") && strings.Contains(lower, " ny ") {
		return oracle.MetroNYC
	}
	if strings.Contains(lower, "nyc") {
		return oracle.MetroNYC
	}

	for city := range sfCities {
		if strings.Contains(lower, city) {
			return oracle.MetroSF
		}
	}
	if strings.Contains(lower, "bay area") && strings.Contains(lower, "san francisco") {
		return oracle.MetroSF
	}
	return ""
}

// RescueVenue assigns a metro from the allow-lists when text-based
// classification came up empty. NYC is checked first.
func RescueVenue(venue string, lists venues.Lists) oracle.Metro {
	if lists.Contains(oracle.MetroNYC, venue) {
		return oracle.MetroNYC
	}
	if lists.Contains(oracle.MetroSF, venue) {
		return oracle.MetroSF
	}
	return ""
}

// DefaultCity synthesizes the canonical "<city>, <state>" display text for a
// metro when no explicit city text was captured.
func DefaultCity(m oracle.Metro) string {
	switch m {
	case oracle.MetroNYC:
		return "New York, NY"
	case oracle.MetroSF:
		return "San Francisco, CA"
	default:
		return ""
	}
}

// Member re-derives metro membership from raw candidate text: any metro
// token appearing case-insensitively inside city, or the venue matching the
// metro's allow-list verbatim.
func Member(city, venue string, m oracle.Metro, lists venues.Lists) bool {
	if city == "" && venue == "" {
		return false
	}
	if city != "" {
		lower := strings.ToLower(city)
		for _, token := range metroTokens[m] {
			if strings.Contains(lower, strings.ToLower(token)) {
				return true
			}
		}
	}
	return lists.Contains(m, venue)
}

// Tokens returns the selection-time membership tokens for a metro.
func Tokens(m oracle.Metro) []string {
	return metroTokens[m]
}

var nySignalTokens = []string{"ny", "new york", "brooklyn", "manhattan", "queens", "bronx"}

// MissedNYCSignal reports whether text carries NY-ish tokens. The extractor
// logs a diagnostic when this fires on a row that did not classify as NYC, to
// catch heuristic regressions.
func MissedNYCSignal(txt string) bool {
	lower := strings.ToLower(txt)
	for _, token := range nySignalTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}
