package extract

import (
	"context"
	"errors"
)

// ErrRendererUnavailable indicates the rendering engine is not present in
// this runtime. The extractor treats it as "skip the fallback".
var ErrRendererUnavailable = errors.New("headless renderer not available")

// NoopRenderer implements Renderer but always reports the capability as
// absent. Useful for builds and tests without Chrome.
type NoopRenderer struct{}

// NewNoopRenderer creates a NoopRenderer.
func NewNoopRenderer() *NoopRenderer {
	return &NoopRenderer{}
}

// Render always returns ErrRendererUnavailable.
func (NoopRenderer) Render(context.Context, string) (string, error) {
	return "", ErrRendererUnavailable
}
