package renderer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Browser drives a headless Chromium instance via go-rod. Every render
// runs in a fresh page so content from one posting can never bleed into
// the next.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher

	// selectorWait bounds how long a render waits for the
	// platform-specific marker before falling back to whatever the page
	// has loaded.
	selectorWait time.Duration

	// scrollPasses is the number of scroll-to-bottom passes used on
	// listing pages to trigger lazy loading.
	scrollPasses int
}

// BrowserOptions configures the headless browser.
type BrowserOptions struct {
	// SelectorWait bounds the wait for the platform marker element.
	// Defaults to 10s.
	SelectorWait time.Duration
	// ScrollPasses for lazy listing pages. Defaults to 3.
	ScrollPasses int
	// NoSandbox disables the Chromium sandbox, required in most
	// containers.
	NoSandbox bool
}

// NewBrowser launches a headless browser and connects to it.
func NewBrowser(opts BrowserOptions) (*Browser, error) {
	if opts.SelectorWait <= 0 {
		opts.SelectorWait = 10 * time.Second
	}
	if opts.ScrollPasses <= 0 {
		opts.ScrollPasses = 3
	}

	l := launcher.New().Headless(true)
	if opts.NoSandbox {
		l = l.NoSandbox(true)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	return &Browser{
		browser:      browser,
		launcher:     l,
		selectorWait: opts.SelectorWait,
		scrollPasses: opts.ScrollPasses,
	}, nil
}

// RenderHTML loads url, waits for waitSelector, scrolls through the page
// to trigger lazy loading, and returns the full rendered HTML. Meant for
// listing pages where links load incrementally.
func (b *Browser) RenderHTML(ctx context.Context, url, waitSelector string) (string, error) {
	page, err := b.openPage(ctx, url, waitSelector)
	if err != nil {
		return "", err
	}
	defer page.Close()

	b.scrollThrough(page)

	html, err := page.HTML()
	if err != nil {
		return "", b.wrapErr(ctx, "html", url, err)
	}
	return html, nil
}

// RenderText loads url, waits for waitSelector, and returns the visible
// text of the page body. Meant for posting pages fed to extraction.
func (b *Browser) RenderText(ctx context.Context, url, waitSelector string) (string, error) {
	page, err := b.openPage(ctx, url, waitSelector)
	if err != nil {
		return "", err
	}
	defer page.Close()

	body, err := page.Element("body")
	if err != nil {
		return "", b.wrapErr(ctx, "body", url, err)
	}
	text, err := body.Text()
	if err != nil {
		return "", b.wrapErr(ctx, "text", url, err)
	}
	return text, nil
}

// Close shuts down the browser and cleans up the launched Chromium.
func (b *Browser) Close() error {
	err := b.browser.Close()
	b.launcher.Cleanup()
	return err
}

func (b *Browser) openPage(ctx context.Context, url, waitSelector string) (*rod.Page, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, b.wrapErr(ctx, "page", url, err)
	}
	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		page.Close()
		return nil, b.wrapErr(ctx, "navigate", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		page.Close()
		return nil, b.wrapErr(ctx, "load", url, err)
	}

	if waitSelector != "" {
		// A missing marker is not fatal; some tenants customize their
		// templates. The page body is still worth extracting.
		waitCtx, cancel := context.WithTimeout(ctx, b.selectorWait)
		_, err := page.Context(waitCtx).Element(waitSelector)
		cancel()
		if err != nil && ctx.Err() != nil {
			page.Close()
			return nil, b.wrapErr(ctx, "wait", url, err)
		}
	}

	return page, nil
}

// scrollThrough performs a bounded number of scroll-to-bottom passes.
// Errors are ignored: a failed scroll just means less lazy content.
func (b *Browser) scrollThrough(page *rod.Page) {
	for i := 0; i < b.scrollPasses; i++ {
		if _, err := page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
			return
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func (b *Browser) wrapErr(ctx context.Context, op, url string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = ErrRenderTimeout
	}
	return &RenderError{Op: op, URL: url, Err: err}
}
