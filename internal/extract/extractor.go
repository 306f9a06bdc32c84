// Package extract turns fetched HTML into the visible text and metadata of
// a page. Static goquery extraction is the primary path; a headless render
// is a bounded best-effort fallback for script-heavy pages.
package extract

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/shopsage/crawler/internal/crawler"
)

// Non-content elements are removed before any text collection so their
// contents never leak into extracted text.
const nonContentSelector = "script, style, noscript, iframe, svg, meta, link"

// DefaultMaxTextLen bounds extracted text when the caller does not set a
// limit. A hard cap, not a guideline: it bounds memory and downstream
// prompt size.
const DefaultMaxTextLen = 2000

// minStaticTextLen is the threshold below which static extraction is
// considered near-empty and a render fallback is worth attempting.
const minStaticTextLen = 20

// Extractor fetches and extracts single pages. The renderer is an optional
// capability; when absent the fallback is silently skipped.
type Extractor struct {
	fetcher  crawler.Fetcher
	renderer Renderer
	logger   *zap.Logger
}

// New constructs an Extractor. renderer may be nil.
func New(fetcher crawler.Fetcher, renderer Renderer, logger *zap.Logger) *Extractor {
	return &Extractor{
		fetcher:  fetcher,
		renderer: renderer,
		logger:   logger,
	}
}

// Extract fetches rawURL once and produces its PageRecord, plus the
// document's outbound links when opts.CollectLinks is set. Every fetch or
// parse failure is converted into an error-shaped result; nothing here
// aborts the surrounding crawl.
func (e *Extractor) Extract(ctx context.Context, rawURL string, opts crawler.ExtractOptions) (crawler.PageResult, []string) {
	if opts.MaxTextLen <= 0 {
		opts.MaxTextLen = DefaultMaxTextLen
	}

	page, err := e.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return failure(rawURL, err.Error()), nil
	}
	if page.StatusCode >= 400 {
		return failure(rawURL, fmt.Sprintf("status %d", page.StatusCode)), nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(page.Body)))
	if err != nil {
		return failure(rawURL, fmt.Sprintf("parse html: %v", err)), nil
	}

	var links []string
	if opts.CollectLinks {
		links = outboundLinks(doc, resolveBase(rawURL, page.FinalURL))
	}

	doc.Find(nonContentSelector).Remove()

	rec := crawler.PageRecord{
		URL:         rawURL,
		Title:       strings.TrimSpace(doc.Find("title").First().Text()),
		Heading:     strings.TrimSpace(doc.Find("h1").First().Text()),
		Description: strings.TrimSpace(doc.Find("meta[name='description']").AttrOr("content", "")),
		Text:        visibleText(doc),
	}

	if len(rec.Text) < minStaticTextLen && opts.RenderFallback {
		e.renderFallback(ctx, rawURL, opts, &rec)
	}

	rec.Text = truncate(rec.Text, opts.MaxTextLen)
	return crawler.PageResult{PageRecord: rec}, links
}

// renderFallback re-fetches the page through the headless renderer and
// replaces the near-empty static text with the rendered body text.
// Rendered title and heading only fill values the static pass left empty.
// All failures are swallowed; the static result stands.
func (e *Extractor) renderFallback(ctx context.Context, rawURL string, opts crawler.ExtractOptions, rec *crawler.PageRecord) {
	if e.renderer == nil {
		return
	}
	renderCtx := ctx
	if opts.RenderTimeout > 0 {
		var cancel context.CancelFunc
		renderCtx, cancel = context.WithTimeout(ctx, opts.RenderTimeout)
		defer cancel()
	}

	rendered, err := e.renderer.Render(renderCtx, rawURL)
	if err != nil {
		e.logger.Debug("render fallback skipped", zap.String("url", rawURL), zap.Error(err))
		return
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		e.logger.Debug("render parse failed", zap.String("url", rawURL), zap.Error(err))
		return
	}
	doc.Find(nonContentSelector).Remove()

	if text := collapseWhitespace(doc.Find("body").Text()); text != "" {
		rec.Text = text
		TotalRenderFallbacks.Inc()
	}
	if rec.Title == "" {
		rec.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if rec.Heading == "" {
		rec.Heading = strings.TrimSpace(doc.Find("h1").First().Text())
	}
}

func failure(rawURL, reason string) crawler.PageResult {
	return crawler.PageResult{
		PageRecord: crawler.PageRecord{URL: rawURL},
		Err:        reason,
	}
}

// visibleText collects the direct text-node content of every element under
// body, without recursively duplicating text through ancestors, joined by
// single spaces with whitespace runs collapsed.
func visibleText(doc *goquery.Document) string {
	body := doc.Find("body")
	if body.Length() == 0 {
		return ""
	}

	var parts []string
	collect := func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.TextNode {
				continue
			}
			if t := strings.TrimSpace(c.Data); t != "" {
				parts = append(parts, t)
			}
		}
	}
	for _, n := range body.Nodes {
		collect(n)
	}
	body.Find("*").Each(func(_ int, sel *goquery.Selection) {
		for _, n := range sel.Nodes {
			collect(n)
		}
	})
	return collapseWhitespace(strings.Join(parts, " "))
}

// outboundLinks returns the document's hyperlinks resolved against base,
// fragments stripped, deduplicated, in document order. Origin filtering is
// the scheduler's concern.
func outboundLinks(doc *goquery.Document, base *url.URL) []string {
	if base == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		lower := strings.ToLower(href)
		if strings.HasPrefix(lower, "javascript:") ||
			strings.HasPrefix(lower, "mailto:") ||
			strings.HasPrefix(lower, "tel:") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		resolved.Fragment = ""
		link := resolved.String()
		if _, ok := seen[link]; ok {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})
	return links
}

func resolveBase(rawURL, finalURL string) *url.URL {
	if finalURL != "" {
		if u, err := url.Parse(finalURL); err == nil && u.IsAbs() {
			return u
		}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	return u
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen])
}
