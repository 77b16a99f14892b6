package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/showoracle/last-show-oracle/internal/config"
	"github.com/showoracle/last-show-oracle/internal/fetch"
	"github.com/showoracle/last-show-oracle/internal/oracle"
	"github.com/showoracle/last-show-oracle/internal/selection"
	"github.com/showoracle/last-show-oracle/internal/venues"
)

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

func testServer(t *testing.T, cfg config.Config) *Server {
	t.Helper()
	lists := venues.New(map[string][]string{
		"SF":  {"the independent"},
		"NYC": {"brooklyn steel"},
	})
	clk := fixedClock{t: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	client := fetch.NewClient(fetch.Config{}, zap.NewNop())
	orch := fetch.NewOrchestrator(client, fetch.OrchestratorConfig{}, lists, clk, zap.NewNop())
	engine := selection.New(lists, clk)
	return NewServer(orch, engine, cfg, zap.NewNop())
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	s := testServer(t, config.Config{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, s, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := doJSON(t, s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRequestIDHeader(t *testing.T) {
	s := testServer(t, config.Config{})
	rec := doJSON(t, s, http.MethodGet, "/healthz", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSelectEndpointWinner(t *testing.T) {
	s := testServer(t, config.Config{})
	longSnippet := strings.Repeat("March 15 Brooklyn Steel show notes ", 10)
	req := selectRequest{
		Metro: "NYC",
		Candidates: []oracle.Candidate{
			{Date: "2024-03-15", City: "Brooklyn, NY", Venue: "Brooklyn Steel", URL: "https://a", SourceType: "songkick", Snippet: longSnippet},
			{Date: "2024-01-10", City: "New York, NY", Venue: "Terminal 5", URL: "https://b", SourceType: "press"},
		},
	}

	rec := doJSON(t, s, http.MethodPost, "/v1/select", req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp selectionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "NYC", resp.Metro)
	assert.Equal(t, "2024-03-15", resp.DateISO)
	assert.Equal(t, "Brooklyn Steel", resp.Venue)
	assert.Equal(t, []string{"latest_date"}, resp.Audit.DecisionPath)
	assert.Equal(t, 2, resp.Audit.CandidatesConsidered)
	require.Len(t, resp.Evidence, 1)
	assert.LessOrEqual(t, len(resp.Evidence[0].Snippet), evidenceSnippetLimit)
	require.Len(t, resp.Alternates, 1)
	assert.Equal(t, "https://b", resp.Alternates[0].URL)
	assert.False(t, resp.Notes.MultiNightSeries)
}

func TestSelectEndpointMultiNightSeries(t *testing.T) {
	s := testServer(t, config.Config{})
	req := selectRequest{
		Metro: "NYC",
		Candidates: []oracle.Candidate{
			{Date: "2024-03-15", City: "Brooklyn, NY", Venue: "Brooklyn Steel", URL: "https://a", SourceType: "songkick"},
			{Date: "2024-03-10", City: "Brooklyn, NY", Venue: "Brooklyn Steel", URL: "https://b", SourceType: "songkick"},
			{Date: "2024-03-16", City: "Brooklyn, NY", Venue: "Brooklyn Steel", URL: "https://c", SourceType: "songkick"},
		},
	}

	rec := doJSON(t, s, http.MethodPost, "/v1/select", req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp selectionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2024-03-16", resp.DateISO)
	assert.True(t, resp.Notes.MultiNightSeries, "back-to-back nights at one venue")
}

func TestSelectEndpointUnknown(t *testing.T) {
	s := testServer(t, config.Config{})
	req := selectRequest{
		Metro: "SF",
		Candidates: []oracle.Candidate{
			{Date: "2030-01-01", City: "San Francisco, CA", URL: "https://a", Snippet: "future"},
			{Date: "2024-01-01", City: "Portland, OR", URL: "https://b", Snippet: "wrong metro"},
			{Date: "2024-01-02", City: "Seattle, WA", URL: "https://c"},
			{Date: "2024-01-03", City: "Austin, TX", URL: "https://d"},
		},
	}

	rec := doJSON(t, s, http.MethodPost, "/v1/select", req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp unknownResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unknown", resp.Status)
	assert.Equal(t, []string{"no_valid_candidates"}, resp.Audit.DecisionPath)
	assert.Equal(t, 4, resp.Audit.CandidatesConsidered)
	assert.Len(t, resp.Alternates, 3, "unknown responses carry at most 3 alternates")
}

func TestSelectEndpointBadMetro(t *testing.T) {
	s := testServer(t, config.Config{})
	rec := doJSON(t, s, http.MethodPost, "/v1/select", selectRequest{Metro: "LA"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseEndpointSuppliedHTML(t *testing.T) {
	s := testServer(t, config.Config{})
	html := `<html><body><p>Played at Brooklyn Steel in New York, NY on <time datetime="2024-03-15T20:00:00">March 15</time></p></body></html>`
	rec := doJSON(t, s, http.MethodPost, "/v1/parse", parseRequest{URL: "https://example.com/past", HTML: html})
	require.Equal(t, http.StatusOK, rec.Code)

	var cands []oracle.Candidate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cands))
	require.Len(t, cands, 1)
	assert.Equal(t, "2024-03-15", cands[0].Date)
	assert.Equal(t, "Brooklyn Steel", cands[0].Venue)
}

func TestParseEndpointRequiresURL(t *testing.T) {
	s := testServer(t, config.Config{})
	rec := doJSON(t, s, http.MethodPost, "/v1/parse", parseRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScrapeEndpointRequiresArtist(t *testing.T) {
	s := testServer(t, config.Config{})
	rec := doJSON(t, s, http.MethodPost, "/v1/scrape-songkick", songkickRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWaybackEndpointRequiresURL(t *testing.T) {
	s := testServer(t, config.Config{})
	rec := doJSON(t, s, http.MethodGet, "/v1/wayback", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/v1/wayback?url=https://example.com&limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIKeyMiddleware(t *testing.T) {
	cfg := config.Config{}
	cfg.Auth.Enabled = true
	cfg.Auth.APIKey = "secret"
	s := testServer(t, cfg)

	rec := doJSON(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-API-Key", "secret")
	authed := httptest.NewRecorder()
	s.Handler().ServeHTTP(authed, req)
	assert.Equal(t, http.StatusOK, authed.Code)
}
