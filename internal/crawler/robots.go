package crawler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

const robotsFetchTimeout = 5 * time.Second

// Rules is the politeness gate for one site: the parsed robots.txt group
// for our user agent plus the advertised crawl delay. A nil group means
// everything is allowed.
type Rules struct {
	group *robotstxt.Group
	delay time.Duration
}

// PermissiveRules allows every path with zero delay. Used when robots
// enforcement is off or the robots.txt could not be loaded.
func PermissiveRules() *Rules {
	return &Rules{}
}

// Allowed reports whether the given path may be fetched. Internal errors
// and missing groups fail open so a malformed robots file cannot stall a
// crawl.
func (r *Rules) Allowed(path string) bool {
	if r == nil || r.group == nil {
		return true
	}
	if path == "" {
		path = "/"
	}
	return r.group.Test(path)
}

// Delay returns the crawl-delay advertised for our user agent, or zero.
func (r *Rules) Delay() time.Duration {
	if r == nil {
		return 0
	}
	return r.delay
}

// LoadRules fetches and parses <origin>/robots.txt once for the crawl.
// Every failure mode degrades to permissive rules; politeness loading is
// never fatal.
func LoadRules(ctx context.Context, origin, userAgent string, logger *zap.Logger) *Rules {
	ctx, cancel := context.WithTimeout(ctx, robotsFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		logger.Warn("robots request build failed; allowing all", zap.String("origin", origin), zap.Error(err))
		return PermissiveRules()
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		logger.Warn("robots fetch failed; allowing all", zap.String("origin", origin), zap.Error(err))
		return PermissiveRules()
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Debug("close robots body", zap.Error(cerr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return PermissiveRules()
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		logger.Warn("robots read failed; allowing all", zap.String("origin", origin), zap.Error(err))
		return PermissiveRules()
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		logger.Warn("robots parse failed; allowing all", zap.String("origin", origin), zap.Error(err))
		return PermissiveRules()
	}

	group := data.FindGroup(userAgent)
	if group == nil {
		return PermissiveRules()
	}
	return &Rules{
		group: group,
		delay: group.CrawlDelay,
	}
}
