// Package venues loads the per-metro venue allow-lists used to rescue metro
// classification and to validate candidates at selection time.
package venues

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/showoracle/last-show-oracle/internal/oracle"
)

// Lists holds the lower-cased venue names for each supported metro. Loaded
// once at startup and read-only thereafter.
type Lists struct {
	sf  map[string]struct{}
	nyc map[string]struct{}
}

// Load reads an allow-list document of shape
// {"SF": [venueName...], "NYC": [venueName...]}.
func Load(path string) (Lists, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Lists{}, fmt.Errorf("read venue allow-lists: %w", err)
	}
	var byMetro map[string][]string
	if err := json.Unmarshal(raw, &byMetro); err != nil {
		return Lists{}, fmt.Errorf("parse venue allow-lists: %w", err)
	}
	return New(byMetro), nil
}

// New builds Lists from a metro-to-venue-names mapping. Names are lower-cased
// and trimmed; unknown metro keys are ignored.
func New(byMetro map[string][]string) Lists {
	l := Lists{
		sf:  make(map[string]struct{}),
		nyc: make(map[string]struct{}),
	}
	for metro, names := range byMetro {
		var dst map[string]struct{}
		switch oracle.Metro(metro) {
		case oracle.MetroSF:
			dst = l.sf
		case oracle.MetroNYC:
			dst = l.nyc
		default:
			continue
		}
		for _, name := range names {
			dst[normalize(name)] = struct{}{}
		}
	}
	return l
}

// Contains reports whether venue is allow-listed for the metro,
// case-insensitively.
func (l Lists) Contains(m oracle.Metro, venue string) bool {
	if venue == "" {
		return false
	}
	key := normalize(venue)
	switch m {
	case oracle.MetroSF:
		_, ok := l.sf[key]
		return ok
	case oracle.MetroNYC:
		_, ok := l.nyc[key]
		return ok
	default:
		return false
	}
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
