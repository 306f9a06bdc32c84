// Package main hosts the sitecrawler service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes health, metrics, crawl, snapshot,
//     and search endpoints. Crawl requests are normalized into crawler.Options
//     with config defaults filling any omitted fields.
//   - Crawl pipeline: internal/crawler.Scheduler runs a breadth-first,
//     same-origin crawl with a shared frontier and visited set. Each page is
//     fetched through the Colly-based fetcher, parsed with goquery, and
//     optionally re-rendered with Chromedp when the static HTML carries too
//     little text. robots.txt rules are loaded once per crawl and enforced
//     fail-open.
//   - Indexing & persistence: finished crawls are tokenized into an inverted
//     index and written as a single snapshot blob per site to the configured
//     store (memory/local/Postgres/GCS). Writes merge with any prior snapshot
//     so the first-crawl timestamp survives re-crawls.
//   - Fanout: when Pub/Sub is configured, a compact crawl-completed message is
//     published after each successful snapshot write.
//   - Re-crawling: an optional background loop re-crawls any site whose
//     snapshot is older than the configured staleness window.
//   - Configuration & plumbing: Viper populates config from env/files with
//     the SITECRAWLER prefix; zap provides structured logging; Prometheus
//     counters are exported on /metrics.
//
// Operational notes:
//   - Concurrency model: per-crawl worker batches bounded by
//     crawler.concurrency; Chromedp renders have their own semaphore. Pacing
//     between batches honors robots.txt crawl-delay with a floor.
//   - The HTTP server listens on the configured port and reacts to
//     SIGINT/SIGTERM with a graceful drain.
//
// Run locally: go run ./cmd/sitecrawler -config config.yaml (or rely solely
// on SITECRAWLER_* env overrides).
package main
