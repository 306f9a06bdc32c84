package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

// Renderer executes a page with JavaScript enabled and returns the rendered
// DOM as HTML. It is an optional capability: when no renderer is injected
// the extractor skips the fallback silently.
type Renderer interface {
	Render(ctx context.Context, rawURL string) (string, error)
}

// ChromedpConfig controls the headless rendering subsystem.
type ChromedpConfig struct {
	MaxParallel int
	UserAgent   string
	NavTimeout  time.Duration
}

// ChromedpRenderer renders pages using headless Chrome via chromedp. One
// exec allocator is shared; each Render gets its own tab context.
type ChromedpRenderer struct {
	cfg         ChromedpConfig
	limiter     chan struct{}
	allocator   context.Context
	allocCancel context.CancelFunc
}

// NewChromedpRenderer creates a renderer backed by a headless Chrome
// allocator. Fails when Chrome cannot be set up, which callers treat as
// "capability absent".
func NewChromedpRenderer(cfg ChromedpConfig) (*ChromedpRenderer, error) {
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 1
	}
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 20 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &ChromedpRenderer{
		cfg:         cfg,
		limiter:     make(chan struct{}, cfg.MaxParallel),
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// Close cancels the allocator context.
func (r *ChromedpRenderer) Close() {
	r.allocCancel()
}

// Render navigates with a headless browser and returns the rendered DOM.
func (r *ChromedpRenderer) Render(ctx context.Context, rawURL string) (string, error) {
	if err := r.acquire(ctx); err != nil {
		return "", err
	}
	defer r.release()

	tabCtx, cancelTab := chromedp.NewContext(r.allocator)
	defer cancelTab()

	taskCtx, cancelTask := context.WithTimeout(tabCtx, r.cfg.NavTimeout)
	defer cancelTask()

	stopForward := forwardCancel(ctx, cancelTask)
	defer stopForward()

	var rendered string
	actions := []chromedp.Action{
		chromedp.ActionFunc(func(ctx context.Context) error {
			if r.cfg.UserAgent == "" {
				return nil
			}
			if err := emulation.SetUserAgentOverride(r.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
			return nil
		}),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.OuterHTML("html", &rendered, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return "", fmt.Errorf("chromedp run: %w", err)
	}
	return rendered, nil
}

func (r *ChromedpRenderer) acquire(ctx context.Context) error {
	select {
	case r.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("render slot wait canceled: %w", ctx.Err())
	}
}

func (r *ChromedpRenderer) release() {
	select {
	case <-r.limiter:
	default:
	}
}

// forwardCancel propagates cancellation from the caller's context into the
// chromedp task context, which is derived from the allocator rather than
// the caller.
func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
