package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/showoracle/last-show-oracle/internal/oracle"
	"github.com/showoracle/last-show-oracle/internal/telemetry"
)

// Wayback queries the archive's CDX index for snapshots of target between
// the bounding years and runs the generic extraction pipeline over each one.
// Resulting candidates get an archive-origin source-type prefix. The whole
// path is best-effort: any failure yields an empty set, never an error.
func (o *Orchestrator) Wayback(ctx context.Context, target string, fromYear, toYear, limit int) []oracle.Candidate {
	if toYear <= 0 {
		toYear = o.clock.Now().Year()
	}
	if limit <= 0 {
		limit = o.cfg.WaybackLimit
	}
	if limit <= 0 {
		limit = 2
	}

	rows, ok := o.cdxSnapshots(ctx, target, fromYear, toYear, limit)
	if !ok {
		return nil
	}

	var out []oracle.Candidate
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		timestamp := row[1] // YYYYMMDDHHMMSS
		snapURL := fmt.Sprintf("%s/web/%s/%s", o.cfg.WaybackBase, timestamp, target)

		snap, err := o.client.Get(ctx, snapURL, o.cfg.MaxRetries)
		if err != nil || !snap.OK() {
			o.logger.Warn("snapshot fetch failed", zap.String("url", snapURL), zap.Error(err))
			continue
		}

		cands := o.genericExtract(string(snap.Body), snapURL)
		for i := range cands {
			cands[i].SourceType = oracle.ArchivePrefix + cands[i].SourceType
			cands[i].URL = snapURL
		}
		out = append(out, cands...)
	}

	telemetry.ObserveCandidates("wayback", len(out))
	o.logger.Info("archive fallback complete",
		zap.String("target", target), zap.Int("candidates", len(out)))
	return out
}

// cdxSnapshots fetches and decodes the CDX index listing. The first row is
// a header and is skipped.
func (o *Orchestrator) cdxSnapshots(ctx context.Context, target string, fromYear, toYear, limit int) ([][]string, bool) {
	q := url.Values{}
	q.Set("url", target)
	q.Set("from", strconv.Itoa(fromYear))
	q.Set("to", strconv.Itoa(toYear))
	q.Set("output", "json")
	q.Set("limit", strconv.Itoa(limit))
	cdxURL := o.cfg.WaybackBase + "/cdx/search/cdx?" + q.Encode()

	resp, err := o.client.Get(ctx, cdxURL, o.cfg.MaxRetries)
	if err != nil {
		o.logger.Warn("cdx query failed", zap.String("target", target), zap.Error(err))
		return nil, false
	}
	if !resp.OK() {
		o.logger.Warn("cdx query rejected", zap.String("target", target), zap.Int("status", resp.StatusCode))
		return nil, false
	}

	var rows [][]string
	if err := json.Unmarshal(resp.Body, &rows); err != nil {
		o.logger.Warn("cdx response malformed", zap.String("target", target), zap.Error(err))
		return nil, false
	}
	if len(rows) <= 1 {
		return nil, false
	}
	rows = rows[1:]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, true
}
