// Package oracle defines core types shared across the extraction and
// selection pipeline.
package oracle

import (
	"net/url"
	"strings"
	"time"
)

// Metro identifies one of the two supported metropolitan areas.
type Metro string

// Supported metro identifiers.
const (
	MetroSF  Metro = "SF"
	MetroNYC Metro = "NYC"
)

// ParseMetro validates a caller-supplied metro identifier.
func ParseMetro(s string) (Metro, bool) {
	switch Metro(s) {
	case MetroSF:
		return MetroSF, true
	case MetroNYC:
		return MetroNYC, true
	default:
		return "", false
	}
}

// Candidate is one extracted show: a calendar date plus whatever location
// evidence the page offered. City and Venue use empty-string sentinels; a
// candidate is only emitted once Date parsed and at least one of the two is
// populated.
type Candidate struct {
	Date       string `json:"date_iso"`
	City       string `json:"city"`
	Venue      string `json:"venue"`
	URL        string `json:"url"`
	SourceType string `json:"source_type"`
	Snippet    string `json:"snippet"`
	Canceled   bool   `json:"canceled"`
	SourceHost string `json:"source_host,omitempty"`
	Metro      Metro  `json:"metro,omitempty"`
}

// DecisionPath is the ordered audit trail of rule tags applied during
// selection.
type DecisionPath []string

// Last returns the terminal rule tag, or "" for an empty path.
func (p DecisionPath) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// ArchivePrefix marks candidates recovered from web-archive snapshots.
const ArchivePrefix = "wayback_"

// sourcePrecedence ranks source categories by trust; higher wins date ties.
var sourcePrecedence = map[string]int{
	"venue":       7,
	"ticketing":   6,
	"artist":      5,
	"setlist":     4,
	"songkick":    3,
	"bandsintown": 2,
	"press":       1,
}

// Precedence returns the trust rank for a source type. Unrecognized
// categories, including archive-prefixed variants, rank 0.
func Precedence(sourceType string) int {
	return sourcePrecedence[sourceType]
}

var ticketingHosts = []string{"ticketmaster.com", "axs.com", "eventbrite.com", "dice.fm"}

var venueHosts = []string{"theindependent.com", "thefillmore.com", "greatamericanmusichall.com"}

// SourceTypeForURL infers a source category from the URL's hostname,
// defaulting to "press".
func SourceTypeForURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "press"
	}
	host := strings.ToLower(u.Host)
	switch {
	case strings.Contains(host, "songkick.com"):
		return "songkick"
	case strings.Contains(host, "bandsintown.com"):
		return "bandsintown"
	case containsAny(host, ticketingHosts):
		return "ticketing"
	case strings.Contains(host, "setlist.fm"):
		return "setlist"
	case containsAny(host, venueHosts):
		return "venue"
	default:
		return "press"
	}
}

// Host extracts the hostname of a URL, or "" when it does not parse.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
