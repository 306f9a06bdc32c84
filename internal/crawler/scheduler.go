package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ExtractOptions is passed to the Extractor per visit.
type ExtractOptions struct {
	MaxTextLen     int
	RenderFallback bool
	RenderTimeout  time.Duration
	CollectLinks   bool
}

// Extractor turns one URL into page content, plus the outbound links found
// in the same document when CollectLinks is set. Failures are reported
// inside the PageResult, never as a panic or a crawl abort.
type Extractor interface {
	Extract(ctx context.Context, rawURL string, opts ExtractOptions) (PageResult, []string)
}

// Scheduler performs bounded-concurrency breadth-first crawls of a single
// origin. Frontier, seen-set, and results are allocated per Crawl call and
// discarded at completion; a Scheduler is safe for concurrent crawls.
type Scheduler struct {
	extractor Extractor
	logger    *zap.Logger
}

// NewScheduler constructs a Scheduler around the given extractor.
func NewScheduler(extractor Extractor, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		extractor: extractor,
		logger:    logger,
	}
}

type frontierItem struct {
	url   string
	depth int
}

type visitOutcome struct {
	result PageResult
	links  []string
	denied bool
}

// Crawl walks the start URL's origin breadth-first and returns the ordered
// page results plus the aggregated text blob. The only fatal failure is an
// invalid start URL; everything else degrades per page.
func (s *Scheduler) Crawl(ctx context.Context, startURL string, opts Options) (CrawlResult, error) {
	opts = opts.withDefaults()

	start, startParsed, err := CanonicalizeURL(startURL)
	if err != nil {
		return CrawlResult{}, fmt.Errorf("invalid start url: %w", err)
	}
	TotalCrawls.Inc()

	rules := PermissiveRules()
	if *opts.RespectRobots {
		rules = LoadRules(ctx, Origin(startParsed), opts.UserAgent, s.logger)
	}

	pacing := minPacing
	if d := rules.Delay(); d > pacing {
		pacing = d
	}
	// Burst 1: the first round dispatches immediately, later rounds are
	// spaced by at least the pacing floor.
	limiter := rate.NewLimiter(rate.Every(pacing), 1)

	frontier := []frontierItem{{url: start, depth: 0}}
	seen := map[string]struct{}{start: {}}

	var pages []PageResult
	var agg strings.Builder
	aggFull := false

	s.logger.Info("crawl started",
		zap.String("start_url", start),
		zap.Int("max_pages", opts.MaxPages),
		zap.Int("max_depth", opts.MaxDepth),
		zap.Int("concurrency", opts.Concurrency),
		zap.Duration("pacing", pacing),
	)

	for len(frontier) > 0 {
		if err := limiter.Wait(ctx); err != nil {
			s.logger.Warn("crawl interrupted", zap.Error(err))
			break
		}

		n := opts.Concurrency
		if n > len(frontier) {
			n = len(frontier)
		}
		batch := frontier[:n]
		frontier = frontier[n:]

		// Indexed results keep dispatch order regardless of completion order.
		outcomes := make([]visitOutcome, len(batch))
		var wg sync.WaitGroup
		for i, item := range batch {
			wg.Add(1)
			go func(i int, item frontierItem) {
				defer wg.Done()
				outcomes[i] = s.visit(ctx, item, rules, opts)
			}(i, item)
		}
		wg.Wait()

		for i, out := range outcomes {
			if out.denied {
				continue
			}
			res := out.result
			if res.Failed() {
				TotalPageErrors.Inc()
			} else {
				TotalPagesCrawled.Inc()
				appendAggregate(&agg, res.PageRecord, opts.AggregateMaxLen, &aggFull)
			}
			pages = append(pages, res)

			if res.Failed() || batch[i].depth >= opts.MaxDepth {
				continue
			}
			for _, link := range out.links {
				canon, parsedLink, cerr := CanonicalizeURL(link)
				if cerr != nil {
					continue
				}
				if !SameOrigin(startParsed, parsedLink) {
					continue
				}
				if _, ok := seen[canon]; ok {
					continue
				}
				// Processed plus queued URLs stay under the page cap.
				if len(seen) >= opts.MaxPages {
					continue
				}
				seen[canon] = struct{}{}
				frontier = append(frontier, frontierItem{url: canon, depth: batch[i].depth + 1})
			}
		}
	}

	s.logger.Info("crawl finished",
		zap.String("start_url", start),
		zap.Int("pages", len(pages)),
		zap.Int("aggregated_len", agg.Len()),
	)
	return CrawlResult{Pages: pages, Aggregated: agg.String()}, nil
}

func (s *Scheduler) visit(ctx context.Context, item frontierItem, rules *Rules, opts Options) visitOutcome {
	parsed, err := url.Parse(item.url)
	if err != nil {
		return visitOutcome{denied: true}
	}
	if !rules.Allowed(parsed.Path) {
		TotalRobotsDenied.Inc()
		s.logger.Debug("robots denied", zap.String("url", item.url))
		return visitOutcome{denied: true}
	}

	res, links := s.extractor.Extract(ctx, item.url, ExtractOptions{
		MaxTextLen:     opts.PerPageMaxLen,
		RenderFallback: *opts.RenderFallback,
		RenderTimeout:  opts.RenderTimeout,
		CollectLinks:   item.depth < opts.MaxDepth,
	})
	if res.Failed() {
		s.logger.Warn("page extraction failed", zap.String("url", item.url), zap.String("reason", res.Err))
	}
	return visitOutcome{result: res, links: links}
}

// appendAggregate adds one page's header, title, heading, and text to the
// running aggregate. Once any addition would push past the cap the
// aggregate is closed; the boundary page is dropped rather than truncated
// mid-sentence.
func appendAggregate(agg *strings.Builder, rec PageRecord, maxLen int, full *bool) {
	if *full {
		return
	}
	var chunk strings.Builder
	chunk.WriteString("# " + rec.URL + "\n")
	if rec.Title != "" {
		chunk.WriteString(rec.Title + "\n")
	}
	if rec.Heading != "" && rec.Heading != rec.Title {
		chunk.WriteString(rec.Heading + "\n")
	}
	if rec.Text != "" {
		chunk.WriteString(rec.Text + "\n")
	}
	chunk.WriteString("\n")

	if agg.Len()+chunk.Len() > maxLen {
		*full = true
		return
	}
	agg.WriteString(chunk.String())
}
