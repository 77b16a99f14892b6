// Package main hosts the last-show oracle service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes health, metrics, scrape, parse,
//     wayback, and select endpoints. Requests are validated and handed to the
//     fetch orchestrator or the selection engine; nothing is persisted across
//     calls.
//   - Fetch pipeline: the Colly-based client fetches gigography and artist
//     pages with bounded retries on server errors; blocked or failing hosts
//     escalate to the Internet Archive CDX fallback, and successful pages are
//     kept in an in-memory TTL cache.
//   - Extraction & classification: each date anchor on a page is expanded into
//     a candidate via the row locator, city/venue heuristics, and the ordered
//     metro-classification chain. Per-row failures are skipped so one bad row
//     never aborts a page.
//   - Selection: the engine filters candidates by validity and metro
//     membership, then applies the latest-date / near-tie / precedence /
//     venue-evidence tie-break chain, returning a winner, alternates, and the
//     decision path for auditing.
//   - Configuration & plumbing: Viper populates config from env/files; zap
//     provides structured logging; Prometheus metrics are exported via the
//     telemetry middleware and /metrics handler. The per-metro venue
//     allow-lists load once at startup and are read-only afterwards.
//
// Operational notes:
//   - Concurrency model: all pipeline stages are pure and stateless per call;
//     outbound fetches are bounded by a per-host parallelism cap and a
//     per-request timeout. Shutdown is coordinated via context cancellation.
//   - Observability: zap logs carry URLs and decision paths at key
//     transitions; Prometheus counters/histograms track fetches, candidates,
//     fallbacks, and selections.
//
// Quick checklist:
//   - Configure env vars: ORACLE_SERVER_PORT, ORACLE_HTTP_TIMEOUT_SECONDS,
//     ORACLE_WAYBACK_FROM_YEAR, ORACLE_VENUES_PATH, and ORACLE_AUTH_* when API
//     keys are required.
//   - Run locally: go run ./cmd/showoracle -config config.yaml (or rely
//     solely on env overrides).
package main
