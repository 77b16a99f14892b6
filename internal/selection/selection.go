// Package selection deterministically picks the single most recent valid
// show for a metro and records how the decision was reached.
package selection

import (
	"sort"
	"strings"
	"time"

	"github.com/showoracle/last-show-oracle/internal/metro"
	"github.com/showoracle/last-show-oracle/internal/oracle"
	"github.com/showoracle/last-show-oracle/internal/venues"
)

const (
	// Candidates within this many days of the latest date compete on
	// source precedence instead of losing outright.
	nearTieWindowDays = 3

	// Alternates are capped before the winner is excluded, so callers see
	// 3 or 4 depending on where the winner sat in the date ordering.
	alternatesCap = 4
)

// Engine selects winners against the configured venue allow-lists and an
// injected clock. It is stateless per call and safe for concurrent use.
type Engine struct {
	lists venues.Lists
	clock oracle.Clock
}

// New returns an Engine using the given allow-lists and clock.
func New(lists venues.Lists, clock oracle.Clock) *Engine {
	return &Engine{lists: lists, clock: clock}
}

// Result is the outcome of one selection: the winning candidate (nil when
// nothing valid survived), up to four alternates in date-descending order,
// and the ordered rule names that produced the decision.
type Result struct {
	Winner     *oracle.Candidate
	Alternates []oracle.Candidate
	Path       oracle.DecisionPath
}

// Select filters candidates down to those valid for the target metro and
// applies the tie-break chain. The metro identifier must be pre-validated by
// the caller.
func (e *Engine) Select(cands []oracle.Candidate, m oracle.Metro) Result {
	today := e.clock.Now().UTC().Format("2006-01-02")

	valid := make([]oracle.Candidate, 0, len(cands))
	for _, c := range cands {
		if e.valid(c, m, today) {
			valid = append(valid, c)
		}
	}
	if len(valid) == 0 {
		return Result{Path: oracle.DecisionPath{"no_valid_candidates"}}
	}

	// Zero-padded ISO dates sort correctly as strings.
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].Date > valid[j].Date })

	latestDate := valid[0].Date
	latest := indicesWithDate(valid, latestDate)

	var winnerIdx int
	var path oracle.DecisionPath
	if len(latest) == 1 {
		nearTie := nearTieIndices(valid, latestDate)
		if len(nearTie) > 1 {
			winnerIdx = sortedByPrecedence(valid, nearTie)[0]
			path = oracle.DecisionPath{"latest_date", "near_tie_precedence"}
		} else {
			winnerIdx = latest[0]
			path = oracle.DecisionPath{"latest_date"}
		}
	} else {
		byPrec := sortedByPrecedence(valid, latest)
		winnerIdx = byPrec[0]
		path = oracle.DecisionPath{"latest_date", "precedence"}
		for _, i := range byPrec {
			if venueInSnippet(valid[i]) {
				winnerIdx = i
				path = append(path, "venue_tiebreaker")
				break
			}
		}
	}

	cut := len(valid)
	if cut > alternatesCap {
		cut = alternatesCap
	}
	alternates := make([]oracle.Candidate, 0, cut)
	for i := 0; i < cut; i++ {
		if i == winnerIdx {
			continue
		}
		alternates = append(alternates, valid[i])
	}

	winner := valid[winnerIdx]
	return Result{Winner: &winner, Alternates: alternates, Path: path}
}

// valid re-derives metro membership from the raw city/venue text; any
// precomputed metro field on the candidate is deliberately ignored.
func (e *Engine) valid(c oracle.Candidate, m oracle.Metro, today string) bool {
	if _, err := time.Parse("2006-01-02", c.Date); err != nil {
		return false
	}
	if c.Date > today {
		return false
	}
	if c.Canceled {
		return false
	}
	return metro.Member(c.City, c.Venue, m, e.lists)
}

func indicesWithDate(valid []oracle.Candidate, date string) []int {
	var out []int
	for i, c := range valid {
		if c.Date == date {
			out = append(out, i)
		}
	}
	return out
}

// nearTieIndices returns every valid index within the inclusive near-tie
// window of latestDate, the latest candidate itself included.
func nearTieIndices(valid []oracle.Candidate, latestDate string) []int {
	latest, err := time.Parse("2006-01-02", latestDate)
	if err != nil {
		return nil
	}
	var out []int
	for i, c := range valid {
		d, err := time.Parse("2006-01-02", c.Date)
		if err != nil {
			continue
		}
		days := int(latest.Sub(d).Hours() / 24)
		if days < 0 {
			days = -days
		}
		if days <= nearTieWindowDays {
			out = append(out, i)
		}
	}
	return out
}

// sortedByPrecedence orders indices by source precedence descending,
// preserving date order among equals.
func sortedByPrecedence(valid []oracle.Candidate, idx []int) []int {
	out := append([]int(nil), idx...)
	sort.SliceStable(out, func(i, j int) bool {
		return oracle.Precedence(valid[out[i]].SourceType) > oracle.Precedence(valid[out[j]].SourceType)
	})
	return out
}

// venueInSnippet reports whether the candidate's own venue text appears in
// its own evidence snippet, a signal the venue attribution is trustworthy.
func venueInSnippet(c oracle.Candidate) bool {
	if c.Venue == "" || c.Snippet == "" {
		return false
	}
	return strings.Contains(strings.ToLower(c.Snippet), strings.ToLower(c.Venue))
}
