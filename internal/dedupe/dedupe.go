// Package dedupe collapses candidates that describe the same show observed
// through different pages or snapshots.
package dedupe

import (
	"strings"

	"github.com/showoracle/last-show-oracle/internal/oracle"
)

type key struct {
	date  string
	venue string
	city  string
	host  string
}

func keyFor(c oracle.Candidate) key {
	return key{
		date:  c.Date,
		venue: strings.ToLower(strings.TrimSpace(c.Venue)),
		city:  strings.ToLower(strings.TrimSpace(c.City)),
		host:  oracle.Host(c.URL),
	}
}

// Candidates removes duplicates by the composite identity
// (date, venue, city, source host), keeping the first occurrence and
// preserving input order. Applying it twice is a no-op.
func Candidates(in []oracle.Candidate) []oracle.Candidate {
	seen := make(map[key]bool, len(in))
	out := make([]oracle.Candidate, 0, len(in))
	for _, c := range in {
		k := keyFor(c)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}
