package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/showoracle/last-show-oracle/internal/oracle"
	"github.com/showoracle/last-show-oracle/internal/telemetry"
)

// Evidence snippets in responses are bounded to keep payloads small.
const evidenceSnippetLimit = 200

// Snapshot listings past this count add latency without adding signal.
const waybackLimitCap = 5

type songkickRequest struct {
	Artist   string `json:"artist"`
	Slug     string `json:"slug,omitempty"`
	MaxPages int    `json:"max_pages,omitempty"`
}

type parseRequest struct {
	URL  string `json:"url"`
	HTML string `json:"html,omitempty"`
}

type selectRequest struct {
	Metro      string             `json:"metro"`
	Candidates []oracle.Candidate `json:"candidates"`
}

type evidence struct {
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type notes struct {
	Canceled         bool `json:"canceled"`
	MultiNightSeries bool `json:"multi_night_series"`
}

type audit struct {
	DecisionPath         []string `json:"decision_path"`
	CandidatesConsidered int      `json:"candidates_considered"`
}

type selectionResponse struct {
	Metro      string     `json:"metro"`
	DateISO    string     `json:"date_iso"`
	Venue      string     `json:"venue"`
	City       string     `json:"city"`
	Evidence   []evidence `json:"evidence"`
	Alternates []evidence `json:"alternates"`
	Notes      notes      `json:"notes"`
	Audit      audit      `json:"audit"`
}

type unknownResponse struct {
	Status     string     `json:"status"`
	Alternates []evidence `json:"alternates"`
	Audit      audit      `json:"audit"`
}

func (s *Server) scrapeSongkick(w http.ResponseWriter, r *http.Request) {
	var req songkickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Artist == "" {
		writeError(w, http.StatusBadRequest, "artist required")
		return
	}

	cands := s.orch.ScrapeSongkick(r.Context(), req.Artist, req.Slug, req.MaxPages)
	s.logger.Info("gigography scrape complete",
		zap.String("artist", req.Artist), zap.Int("candidates", len(cands)))
	writeJSON(w, http.StatusOK, candidateList(cands))
}

func (s *Server) parsePage(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url required")
		return
	}

	cands := s.orch.ParsePage(r.Context(), req.URL, req.HTML)
	writeJSON(w, http.StatusOK, candidateList(cands))
}

func (s *Server) wayback(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		writeError(w, http.StatusBadRequest, "url required")
		return
	}
	fromYear, ok := intParam(r, "from_year", s.cfg.Wayback.FromYear)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid from_year")
		return
	}
	toYear, ok := intParam(r, "to_year", 0)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid to_year")
		return
	}
	limit, ok := intParam(r, "limit", s.cfg.Wayback.Limit)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if limit > waybackLimitCap {
		limit = waybackLimitCap
	}

	cands := s.orch.Wayback(r.Context(), target, fromYear, toYear, limit)
	writeJSON(w, http.StatusOK, candidateList(cands))
}

func (s *Server) selectLatest(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	metro, ok := oracle.ParseMetro(req.Metro)
	if !ok {
		writeError(w, http.StatusBadRequest, "metro must be 'SF' or 'NYC'")
		return
	}

	result := s.engine.Select(req.Candidates, metro)
	telemetry.ObserveSelection(string(metro), result.Path.Last())

	aud := audit{
		DecisionPath:         result.Path,
		CandidatesConsidered: len(req.Candidates),
	}

	if result.Winner == nil {
		alternates := make([]evidence, 0, 3)
		for _, c := range req.Candidates {
			if len(alternates) == 3 {
				break
			}
			alternates = append(alternates, evidenceFor(c))
		}
		writeJSON(w, http.StatusOK, unknownResponse{
			Status:     "unknown",
			Alternates: alternates,
			Audit:      aud,
		})
		return
	}

	winner := *result.Winner
	alternates := make([]evidence, 0, len(result.Alternates))
	for _, c := range result.Alternates {
		alternates = append(alternates, evidenceFor(c))
	}

	s.logger.Info("selection complete",
		zap.String("metro", string(metro)),
		zap.String("date", winner.Date),
		zap.String("venue", winner.Venue),
		zap.Strings("decision_path", result.Path))

	writeJSON(w, http.StatusOK, selectionResponse{
		Metro:      string(metro),
		DateISO:    winner.Date,
		Venue:      winner.Venue,
		City:       winner.City,
		Evidence:   []evidence{evidenceFor(winner)},
		Alternates: alternates,
		Notes: notes{
			Canceled:         winner.Canceled,
			MultiNightSeries: multiNightSeries(winner, result.Alternates),
		},
		Audit: aud,
	})
}

func evidenceFor(c oracle.Candidate) evidence {
	snippet := c.Snippet
	if len(snippet) > evidenceSnippetLimit {
		snippet = snippet[:evidenceSnippetLimit]
	}
	return evidence{URL: c.URL, Snippet: snippet}
}

// multiNightSeries reports whether an alternate shows the same venue within
// a day of the winner, the signature of a residency or multi-night run.
func multiNightSeries(winner oracle.Candidate, alternates []oracle.Candidate) bool {
	if winner.Venue == "" {
		return false
	}
	wd, err := time.Parse("2006-01-02", winner.Date)
	if err != nil {
		return false
	}
	for _, alt := range alternates {
		if !strings.EqualFold(alt.Venue, winner.Venue) {
			continue
		}
		ad, err := time.Parse("2006-01-02", alt.Date)
		if err != nil {
			continue
		}
		diff := wd.Sub(ad)
		if diff < 0 {
			diff = -diff
		}
		if diff <= 24*time.Hour {
			return true
		}
	}
	return false
}

// candidateList keeps empty results as [] rather than null in JSON.
func candidateList(cands []oracle.Candidate) []oracle.Candidate {
	if cands == nil {
		return []oracle.Candidate{}
	}
	return cands
}

func intParam(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
