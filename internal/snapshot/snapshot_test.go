package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shopsage/crawler/internal/crawler"
)

func TestSiteKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"https://www.example.com/shop", "example.com"},
		{"https://Example.COM", "example.com"},
		{"http://shop.example.com:8080/path", "shop.example.com"},
		{"example.com", "example.com"},
		{"www.example.com/page?q=1", "example.com"},
		{"my shop!.com", "my-shop-.com"},
		{"  https://example.com  ", "example.com"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, SiteKey(tc.in), "input %q", tc.in)
	}
}

func TestSiteKey_Idempotent(t *testing.T) {
	t.Parallel()

	key := SiteKey("https://www.shop.example.com/products")
	require.Equal(t, key, SiteKey(key))
}

func TestMerge_FirstCrawlSetsBothTimestamps(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	next := Snapshot{
		StartURL: "https://shop.test",
		Pages:    []crawler.PageResult{{PageRecord: crawler.PageRecord{URL: "https://shop.test/"}}},
	}

	merged := Merge(nil, next, now)
	require.Equal(t, now, merged.InstalledAt)
	require.Equal(t, now, merged.LastCrawledAt)
	require.Equal(t, "https://shop.test", merged.StartURL)
}

func TestMerge_RecrawlPreservesInstalledAt(t *testing.T) {
	t.Parallel()

	installed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	prev := &Snapshot{
		StartURL:      "https://shop.test",
		InstalledAt:   installed,
		LastCrawledAt: installed,
		Aggregated:    "old content",
	}
	next := Snapshot{Aggregated: "new content"}

	merged := Merge(prev, next, now)
	require.Equal(t, installed, merged.InstalledAt)
	require.Equal(t, now, merged.LastCrawledAt)
	require.Equal(t, "new content", merged.Aggregated)
	require.Equal(t, "https://shop.test", merged.StartURL)
}
