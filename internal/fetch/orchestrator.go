package fetch

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/showoracle/last-show-oracle/internal/dedupe"
	"github.com/showoracle/last-show-oracle/internal/extract"
	"github.com/showoracle/last-show-oracle/internal/oracle"
	"github.com/showoracle/last-show-oracle/internal/telemetry"
	"github.com/showoracle/last-show-oracle/internal/venues"
)

// Songkick paginates gigographies; pages past this index are noise.
const maxGigographyPages = 8

var slugCleanRe = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Slugify turns an artist name into a Songkick URL slug.
func Slugify(artist string) string {
	return strings.Trim(slugCleanRe.ReplaceAllString(strings.ToLower(artist), "-"), "-")
}

// OrchestratorConfig controls the scrape and fallback behavior.
type OrchestratorConfig struct {
	MaxRetries      int
	MaxPages        int
	WaybackBase     string
	WaybackFromYear int
	WaybackLimit    int
}

// Orchestrator drives page fetching, per-page extraction, archive fallback,
// and cross-page dedup. Per-page failures are logged and skipped so one bad
// page never aborts a batch.
type Orchestrator struct {
	client *Client
	cfg    OrchestratorConfig
	lists  venues.Lists
	clock  oracle.Clock
	logger *zap.Logger
}

// NewOrchestrator wires an Orchestrator.
func NewOrchestrator(client *Client, cfg OrchestratorConfig, lists venues.Lists, clock oracle.Clock, logger *zap.Logger) *Orchestrator {
	if cfg.WaybackBase == "" {
		cfg.WaybackBase = "https://web.archive.org"
	}
	if cfg.MaxPages <= 0 || cfg.MaxPages > maxGigographyPages {
		cfg.MaxPages = maxGigographyPages
	}
	return &Orchestrator{client: client, cfg: cfg, lists: lists, clock: clock, logger: logger}
}

// ScrapeSongkick walks an artist's gigography pages and returns the deduped
// candidate set. An empty slug is derived from the artist name.
func (o *Orchestrator) ScrapeSongkick(ctx context.Context, artist, slug string, maxPages int) []oracle.Candidate {
	if slug == "" {
		slug = Slugify(artist)
	}
	if maxPages <= 0 || maxPages > o.cfg.MaxPages {
		maxPages = o.cfg.MaxPages
	}

	var all []oracle.Candidate
	for page := 1; page <= maxPages; page++ {
		pageURL := fmt.Sprintf("https://www.songkick.com/artists/%s/gigography?page=%d", slug, page)
		all = append(all, o.CandidatesFor(ctx, pageURL, o.songkickExtract)...)
	}
	return dedupe.Candidates(all)
}

// ParsePage extracts candidates from supplied HTML, or fetches the page
// first when no HTML is given.
func (o *Orchestrator) ParsePage(ctx context.Context, pageURL, htmlText string) []oracle.Candidate {
	if htmlText != "" {
		cands := o.genericExtract(htmlText, pageURL)
		telemetry.ObserveCandidates("live", len(cands))
		return dedupe.Candidates(cands)
	}
	return dedupe.Candidates(o.CandidatesFor(ctx, pageURL, o.genericExtract))
}

type extractor func(htmlText, pageURL string) []oracle.Candidate

// CandidatesFor fetches one URL and extracts candidates. Blocking (403/429)
// and server-error responses escalate to the archive fallback; other
// non-success responses yield nothing.
func (o *Orchestrator) CandidatesFor(ctx context.Context, pageURL string, ex extractor) []oracle.Candidate {
	resp, err := o.client.Get(ctx, pageURL, o.cfg.MaxRetries)
	if err != nil {
		o.logger.Warn("fetch failed, trying archive fallback", zap.String("url", pageURL), zap.Error(err))
		return o.Fallback(ctx, pageURL)
	}
	telemetry.ObservePageFetch(pageURL, resp.StatusCode)
	if resp.Blocking() || resp.ServerError() {
		o.logger.Warn("host blocked or failing, trying archive fallback",
			zap.String("url", pageURL), zap.Int("status", resp.StatusCode))
		return o.Fallback(ctx, pageURL)
	}
	if !resp.OK() {
		o.logger.Warn("non-success response", zap.String("url", pageURL), zap.Int("status", resp.StatusCode))
		return nil
	}
	cands := ex(string(resp.Body), pageURL)
	telemetry.ObserveCandidates("live", len(cands))
	return cands
}

// Fallback runs the archive pipeline with configured bounds.
func (o *Orchestrator) Fallback(ctx context.Context, pageURL string) []oracle.Candidate {
	telemetry.ObserveWaybackFallback()
	return o.Wayback(ctx, pageURL, o.cfg.WaybackFromYear, 0, o.cfg.WaybackLimit)
}

func (o *Orchestrator) songkickExtract(htmlText, pageURL string) []oracle.Candidate {
	cands, err := extract.Songkick(htmlText, pageURL, o.lists, o.logger)
	if err != nil {
		o.logger.Warn("gigography extraction failed", zap.String("url", pageURL), zap.Error(err))
		return nil
	}
	return cands
}

func (o *Orchestrator) genericExtract(htmlText, pageURL string) []oracle.Candidate {
	cands, err := extract.Page(htmlText, pageURL, o.logger)
	if err != nil {
		o.logger.Warn("page extraction failed", zap.String("url", pageURL), zap.Error(err))
		return nil
	}
	return cands
}
