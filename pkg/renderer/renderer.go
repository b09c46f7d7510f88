// Package renderer abstracts the browser-automation layer that fetches a
// URL and returns its rendered content.
//
// The crawl pipeline only depends on the Renderer interface; the rod-backed
// implementation lives alongside it. Each render uses an isolated page so
// content from one posting can never bleed into another.
package renderer

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for render operations.
var (
	// ErrRenderTimeout indicates the page did not load within the deadline.
	ErrRenderTimeout = errors.New("render timeout")

	// ErrEmptyContent indicates the page loaded but produced no usable content.
	ErrEmptyContent = errors.New("empty page content")
)

// RenderError wraps renderer failures with context.
type RenderError struct {
	// Op is the operation that failed ("RenderHTML", "RenderText").
	Op string

	// URL is the page being rendered.
	URL string

	// Err is the underlying error.
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// IsTimeout returns true if the error indicates a render deadline was exceeded.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrRenderTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// IsEmptyContent returns true if the error indicates an empty page.
func IsEmptyContent(err error) bool {
	return errors.Is(err, ErrEmptyContent)
}

// Renderer fetches and renders pages.
//
// Implementations must be safe for concurrent use; each call renders in
// its own isolated context.
type Renderer interface {
	// RenderHTML returns the rendered DOM as HTML. waitSelector, when
	// non-empty, is a CSS selector the renderer waits for before
	// snapshotting.
	RenderHTML(ctx context.Context, url, waitSelector string) (string, error)

	// RenderText returns the page's visible text content.
	RenderText(ctx context.Context, url, waitSelector string) (string, error)

	// Close releases browser resources.
	Close() error
}
