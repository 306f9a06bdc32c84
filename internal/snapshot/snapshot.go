// Package snapshot defines the persisted per-site crawl state and the
// Store contract its backends implement.
package snapshot

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/shopsage/crawler/internal/crawler"
	"github.com/shopsage/crawler/internal/index"
)

// Snapshot is the full persisted state for one site key. Writes replace
// the whole blob; there are no partial-field updates.
type Snapshot struct {
	StartURL      string               `json:"start_url,omitempty"`
	Pages         []crawler.PageResult `json:"pages"`
	Aggregated    string               `json:"aggregated"`
	Index         index.Index          `json:"index"`
	InstalledAt   time.Time            `json:"installed_at"`
	LastCrawledAt time.Time            `json:"last_crawled_at"`
}

// Store persists snapshots keyed by site key. Get returns (nil, nil) when
// no snapshot exists: absence is a normal state, not an error. Concurrent
// writes to the same key are last-write-wins.
type Store interface {
	Put(ctx context.Context, siteKey string, snap Snapshot) error
	Get(ctx context.Context, siteKey string) (*Snapshot, error)
	Keys(ctx context.Context) ([]string, error)
}

var unsafeKeyChars = regexp.MustCompile(`[^a-z0-9.-]`)

// SiteKey derives the storage key for a site. Full URLs reduce to their
// host; bare domains pass through. The result is sanitized to [a-z0-9.-].
func SiteKey(input string) string {
	key := strings.ToLower(strings.TrimSpace(input))
	if u, err := url.Parse(key); err == nil && u.Hostname() != "" {
		key = u.Hostname()
	}
	key = strings.TrimPrefix(key, "www.")
	if i := strings.IndexAny(key, "/?#"); i >= 0 {
		key = key[:i]
	}
	return unsafeKeyChars.ReplaceAllString(key, "-")
}

// Merge overlays next on top of prev: fields produced by the new crawl
// replace the old ones, fields only the old snapshot had survive. Notably
// InstalledAt is preserved across re-crawls and LastCrawledAt is stamped
// with now.
func Merge(prev *Snapshot, next Snapshot, now time.Time) Snapshot {
	merged := next
	merged.LastCrawledAt = now
	merged.InstalledAt = now
	if prev != nil {
		if !prev.InstalledAt.IsZero() {
			merged.InstalledAt = prev.InstalledAt
		}
		if merged.StartURL == "" {
			merged.StartURL = prev.StartURL
		}
	}
	return merged
}
