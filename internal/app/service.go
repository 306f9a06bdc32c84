// Package app composes the crawl pipeline: scheduler, indexer, snapshot
// store, and crawl-completion publishing.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shopsage/crawler/internal/crawler"
	"github.com/shopsage/crawler/internal/index"
	"github.com/shopsage/crawler/internal/publish"
	"github.com/shopsage/crawler/internal/search"
	"github.com/shopsage/crawler/internal/snapshot"
)

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// Crawler runs one bounded crawl of a start URL.
type Crawler interface {
	Crawl(ctx context.Context, startURL string, opts crawler.Options) (crawler.CrawlResult, error)
}

// Service is the pipeline entry point consumed by the HTTP layer and the
// re-crawl scheduler.
type Service struct {
	crawler   Crawler
	store     snapshot.Store
	searcher  *search.Service
	publisher publish.Publisher
	clock     Clock
	logger    *zap.Logger
	topic     string
}

// New constructs a Service. publisher may be nil when no completion events
// are wanted.
func New(
	crawlerImpl Crawler,
	store snapshot.Store,
	publisher publish.Publisher,
	clock Clock,
	logger *zap.Logger,
	topic string,
) *Service {
	return &Service{
		crawler:   crawlerImpl,
		store:     store,
		searcher:  search.New(store),
		publisher: publisher,
		clock:     clock,
		logger:    logger,
		topic:     topic,
	}
}

// RunCrawl crawls the start URL, rebuilds the site's inverted index, and
// persists the merged snapshot. An empty page list is a valid, if
// unhelpful, outcome. Only an invalid start URL fails before any work.
func (s *Service) RunCrawl(ctx context.Context, startURL string, opts crawler.Options) (crawler.CrawlResult, error) {
	result, err := s.crawler.Crawl(ctx, startURL, opts)
	if err != nil {
		return crawler.CrawlResult{}, err
	}

	siteKey := snapshot.SiteKey(startURL)
	next := snapshot.Snapshot{
		StartURL:   startURL,
		Pages:      result.Pages,
		Aggregated: result.Aggregated,
		Index:      index.Build(result.Pages),
	}

	if err := s.persist(ctx, siteKey, next); err != nil {
		// Losing a snapshot write is recoverable by re-crawling; the
		// crawl result itself is still returned.
		s.logger.Error("snapshot write failed", zap.String("site_key", siteKey), zap.Error(err))
		return result, nil
	}

	s.publishCompletion(ctx, siteKey, result)
	return result, nil
}

// Snapshot returns the stored snapshot for a site, or nil when absent.
func (s *Service) Snapshot(ctx context.Context, siteKey string) (*snapshot.Snapshot, error) {
	return s.store.Get(ctx, snapshot.SiteKey(siteKey))
}

// SiteKeys lists all sites with a stored snapshot.
func (s *Service) SiteKeys(ctx context.Context) ([]string, error) {
	return s.store.Keys(ctx)
}

// Search answers a single-term query against a site's stored index.
func (s *Service) Search(ctx context.Context, siteKey, term string) ([]index.Posting, error) {
	return s.searcher.Search(ctx, siteKey, term)
}

// RunRecrawler blocks, re-crawling any site whose snapshot is older than
// staleness every interval, until the context finishes.
func (s *Service) RunRecrawler(ctx context.Context, interval, staleness time.Duration, opts crawler.Options) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.recrawlStale(ctx, staleness, opts)
		}
	}
}

func (s *Service) recrawlStale(ctx context.Context, staleness time.Duration, opts crawler.Options) {
	keys, err := s.store.Keys(ctx)
	if err != nil {
		s.logger.Error("list site keys failed", zap.Error(err))
		return
	}
	cutoff := s.clock.Now().Add(-staleness)

	for _, key := range keys {
		snap, err := s.store.Get(ctx, key)
		if err != nil {
			s.logger.Error("load snapshot failed", zap.String("site_key", key), zap.Error(err))
			continue
		}
		if snap == nil || snap.StartURL == "" {
			continue
		}
		last := snap.LastCrawledAt
		if last.IsZero() {
			last = snap.InstalledAt
		}
		if last.After(cutoff) {
			continue
		}

		s.logger.Info("re-crawling stale site",
			zap.String("site_key", key),
			zap.Time("last_crawled_at", last),
		)
		if _, err := s.RunCrawl(ctx, snap.StartURL, opts); err != nil {
			s.logger.Warn("re-crawl failed", zap.String("site_key", key), zap.Error(err))
		}
	}
}

// persist implements merge-on-write: read any existing snapshot, overlay
// the new crawl's fields, stamp lastCrawledAt, and replace the whole blob.
func (s *Service) persist(ctx context.Context, siteKey string, next snapshot.Snapshot) error {
	prev, err := s.store.Get(ctx, siteKey)
	if err != nil {
		return fmt.Errorf("read prior snapshot: %w", err)
	}
	merged := snapshot.Merge(prev, next, s.clock.Now())
	if err := s.store.Put(ctx, siteKey, merged); err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	return nil
}

func (s *Service) publishCompletion(ctx context.Context, siteKey string, result crawler.CrawlResult) {
	if s.publisher == nil || s.topic == "" {
		return
	}
	failed := 0
	for _, p := range result.Pages {
		if p.Failed() {
			failed++
		}
	}
	payload := map[string]any{
		"site_key":   siteKey,
		"pages":      len(result.Pages),
		"failed":     failed,
		"crawled_at": s.clock.Now().Format(time.RFC3339),
	}
	if _, err := s.publisher.Publish(ctx, s.topic, payload); err != nil {
		s.logger.Warn("crawl completion publish failed", zap.String("site_key", siteKey), zap.Error(err))
	}
}
