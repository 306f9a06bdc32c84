// Package crawler implements the bounded breadth-first crawl engine and the
// politeness rules it operates under.
package crawler

import (
	"net/http"
	"time"
)

// PageRecord holds the extracted content of one successfully fetched page.
// Immutable once produced; the scheduler owns the result collection.
type PageRecord struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Heading     string `json:"heading"`
	Description string `json:"description"`
	Text        string `json:"text"`
}

// PageResult is the tagged per-page outcome: either a populated PageRecord
// or a failure with the offending URL and reason. A failed page never
// aborts the surrounding crawl.
type PageResult struct {
	PageRecord
	Err string `json:"error,omitempty"`
}

// Failed reports whether this result records an extraction failure.
func (r PageResult) Failed() bool {
	return r.Err != ""
}

// CrawlResult is produced once per crawl invocation. Pages are ordered by
// dispatch, not completion, so re-runs over the same frontier expansion are
// deterministic. Aggregated is the bounded concatenation of page content.
type CrawlResult struct {
	Pages      []PageResult `json:"pages"`
	Aggregated string       `json:"aggregated"`
}

// Options captures the per-crawl knobs. Zero values are replaced by
// defaults in withDefaults, so callers only set what they care about.
type Options struct {
	MaxPages        int
	MaxDepth        int
	Concurrency     int
	UserAgent       string
	RespectRobots   *bool
	PerPageMaxLen   int
	AggregateMaxLen int
	RenderFallback  *bool
	RenderTimeout   time.Duration
	FetchTimeout    time.Duration
}

// Crawl defaults, matching the behavior callers get when they pass a zero
// Options value.
const (
	DefaultMaxPages        = 100
	DefaultMaxDepth        = 4
	DefaultConcurrency     = 5
	DefaultPerPageMaxLen   = 4000
	DefaultAggregateMaxLen = 100000
	DefaultRenderTimeout   = 20 * time.Second
	DefaultFetchTimeout    = 15 * time.Second
	DefaultUserAgent       = "shopsage-bot/1.0 (+https://github.com/shopsage/crawler)"
)

// minPacing is the floor between dispatch rounds. A deliberate trade-off of
// throughput for site friendliness; tunable upward via robots crawl-delay
// but never removed.
const minPacing = 50 * time.Millisecond

func (o Options) withDefaults() Options {
	if o.MaxPages <= 0 {
		o.MaxPages = DefaultMaxPages
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.RespectRobots == nil {
		o.RespectRobots = boolPtr(true)
	}
	if o.PerPageMaxLen <= 0 {
		o.PerPageMaxLen = DefaultPerPageMaxLen
	}
	if o.AggregateMaxLen <= 0 {
		o.AggregateMaxLen = DefaultAggregateMaxLen
	}
	if o.RenderFallback == nil {
		o.RenderFallback = boolPtr(true)
	}
	if o.RenderTimeout <= 0 {
		o.RenderTimeout = DefaultRenderTimeout
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = DefaultFetchTimeout
	}
	return o
}

func boolPtr(b bool) *bool { return &b }

// Page is the raw outcome of fetching one URL.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
}
