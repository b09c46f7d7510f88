// Package collector discovers job posting URLs from employer listing
// pages. It renders each listing page in a headless browser, extracts
// anchors matching the platform's link selector, and returns a
// normalized, deduplicated set of posting URLs in discovery order.
package collector

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/atlasjobs/harvester/pkg/jobs"
	"github.com/atlasjobs/harvester/pkg/manifest"
	"github.com/atlasjobs/harvester/pkg/platform"
	"github.com/atlasjobs/harvester/pkg/renderer"
)

// ErrNoJobLinks indicates a listing page rendered fine but contained no
// recognizable posting links. Usually a wrong platform tag or a board
// that moved.
var ErrNoJobLinks = errors.New("no job links recognized")

// CollectionError reports a listing page that could not be collected.
// It is non-fatal to the employer: other listing pages still contribute
// their URLs.
type CollectionError struct {
	ListingURL string
	Err        error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("collecting %s: %v", e.ListingURL, e.Err)
}

func (e *CollectionError) Unwrap() error {
	return e.Err
}

// Result holds the URLs discovered for one employer plus any per-page
// failures encountered along the way.
type Result struct {
	URLs   []string
	Errors []*CollectionError
}

// Collector extracts posting URLs from rendered listing pages.
type Collector struct {
	renderer renderer.Renderer
	logger   *zap.Logger
}

// New returns a Collector that renders pages with r.
func New(r renderer.Renderer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{renderer: r, logger: logger}
}

// Collect renders every listing page for the employer and returns the
// normalized posting URLs. A page that fails to render or parse is
// recorded in Result.Errors and skipped; Collect itself only fails when
// the context is cancelled.
func (c *Collector) Collect(ctx context.Context, emp manifest.Employer) (*Result, error) {
	variant := variantFor(emp)

	result := &Result{}
	seen := make(map[string]struct{})

	pages := append([]string{emp.ListingURL}, emp.ExtraListingURLs...)
	for _, listingURL := range pages {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		urls, err := c.collectPage(ctx, listingURL, variant)
		if err != nil {
			cerr := &CollectionError{ListingURL: listingURL, Err: err}
			result.Errors = append(result.Errors, cerr)
			c.logger.Warn("listing page failed",
				zap.String("employer", emp.Name),
				zap.String("listing_url", listingURL),
				zap.Error(err))
			continue
		}

		for _, u := range urls {
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			result.URLs = append(result.URLs, u)
		}
	}

	c.logger.Info("collected posting urls",
		zap.String("employer", emp.Name),
		zap.String("platform", string(variant.Tag())),
		zap.Int("urls", len(result.URLs)),
		zap.Int("failed_pages", len(result.Errors)))

	return result, nil
}

// variantFor honors an explicit platform override from the manifest and
// otherwise detects the platform from the listing URL.
func variantFor(emp manifest.Employer) platform.Variant {
	if emp.Platform != "" {
		if p, ok := platform.Parse(emp.Platform); ok {
			return platform.For(p)
		}
	}
	return platform.ForURL(emp.ListingURL)
}

func (c *Collector) collectPage(ctx context.Context, listingURL string, variant platform.Variant) ([]string, error) {
	html, err := c.renderer.RenderHTML(ctx, listingURL, variant.WaitSelector())
	if err != nil {
		return nil, err
	}
	urls, err := ExtractLinks(html, listingURL, variant)
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, ErrNoJobLinks
	}
	return urls, nil
}

// ExtractLinks parses rendered listing HTML and returns the normalized
// posting URLs it links to, in document order. Relative hrefs are
// resolved against baseURL.
func ExtractLinks(html, baseURL string, variant platform.Variant) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing listing html: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}

	var out []string
	seen := make(map[string]struct{})

	doc.Find(variant.LinkSelector()).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref).String()
		if !variant.AcceptJobURL(abs) {
			return
		}
		normalized, err := jobs.NormalizeURL(abs)
		if err != nil {
			return
		}
		if _, dup := seen[normalized]; dup {
			return
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	})

	return out, nil
}
