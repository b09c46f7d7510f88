package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atlasjobs/harvester/pkg/manifest"
	"github.com/atlasjobs/harvester/pkg/platform"
)

type stubRenderer struct {
	pages map[string]string
	errs  map[string]error
}

func (s *stubRenderer) RenderHTML(_ context.Context, url, _ string) (string, error) {
	if err, ok := s.errs[url]; ok {
		return "", err
	}
	html, ok := s.pages[url]
	if !ok {
		return "", errors.New("unexpected url: " + url)
	}
	return html, nil
}

func (s *stubRenderer) RenderText(_ context.Context, url, _ string) (string, error) {
	return s.RenderHTML(context.Background(), url, "")
}

func (s *stubRenderer) Close() error { return nil }

const greenhouseListing = `<html><body>
<div class="opening">
  <a href="https://boards.greenhouse.io/acme/jobs/100?gh_src=abc123&utm_source=linkedin">Backend Engineer</a>
</div>
<div class="opening">
  <a href="https://boards.greenhouse.io/acme/jobs/200/">Data Scientist</a>
</div>
<div class="opening">
  <a href="https://boards.greenhouse.io/acme/jobs/100?gh_src=other">Backend Engineer (dup)</a>
</div>
<a href="https://boards.greenhouse.io/acme">Board home</a>
<a href="https://twitter.com/acme">Twitter</a>
</body></html>`

func TestCollectExtractsAndNormalizes(t *testing.T) {
	r := &stubRenderer{pages: map[string]string{
		"https://boards.greenhouse.io/acme": greenhouseListing,
	}}
	c := New(r, zap.NewNop())

	result, err := c.Collect(context.Background(), manifest.Employer{
		Name:       "Acme",
		ListingURL: "https://boards.greenhouse.io/acme",
	})
	require.NoError(t, err)
	require.Empty(t, result.Errors)

	// Tracking params are stripped, the trailing slash is trimmed, and
	// the two gh_src variants collapse to one URL.
	assert.Equal(t, []string{
		"https://boards.greenhouse.io/acme/jobs/100",
		"https://boards.greenhouse.io/acme/jobs/200",
	}, result.URLs)
}

func TestCollectResolvesRelativeLinks(t *testing.T) {
	html := `<html><body>
<a href="/acme/jobs/300?utm_campaign=launch">Role</a>
</body></html>`
	r := &stubRenderer{pages: map[string]string{
		"https://boards.greenhouse.io/acme": html,
	}}
	c := New(r, zap.NewNop())

	result, err := c.Collect(context.Background(), manifest.Employer{
		Name:       "Acme",
		ListingURL: "https://boards.greenhouse.io/acme",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://boards.greenhouse.io/acme/jobs/300"}, result.URLs)
}

func TestCollectMergesExtraListingPages(t *testing.T) {
	r := &stubRenderer{pages: map[string]string{
		"https://boards.greenhouse.io/acme": `<a href="https://boards.greenhouse.io/acme/jobs/1">a</a>`,
		"https://boards.greenhouse.io/acme?department=eng": `<a href="https://boards.greenhouse.io/acme/jobs/1">a</a>
<a href="https://boards.greenhouse.io/acme/jobs/2">b</a>`,
	}}
	c := New(r, zap.NewNop())

	result, err := c.Collect(context.Background(), manifest.Employer{
		Name:             "Acme",
		ListingURL:       "https://boards.greenhouse.io/acme",
		ExtraListingURLs: []string{"https://boards.greenhouse.io/acme?department=eng"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://boards.greenhouse.io/acme/jobs/1",
		"https://boards.greenhouse.io/acme/jobs/2",
	}, result.URLs)
}

func TestCollectRecordsPageFailuresAndContinues(t *testing.T) {
	r := &stubRenderer{
		pages: map[string]string{
			"https://boards.greenhouse.io/acme?page=2": `<a href="https://boards.greenhouse.io/acme/jobs/9">x</a>`,
		},
		errs: map[string]error{
			"https://boards.greenhouse.io/acme": errors.New("render failed"),
		},
	}
	c := New(r, zap.NewNop())

	result, err := c.Collect(context.Background(), manifest.Employer{
		Name:             "Acme",
		ListingURL:       "https://boards.greenhouse.io/acme",
		ExtraListingURLs: []string{"https://boards.greenhouse.io/acme?page=2"},
	})
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "https://boards.greenhouse.io/acme", result.Errors[0].ListingURL)
	assert.Equal(t, []string{"https://boards.greenhouse.io/acme/jobs/9"}, result.URLs)
}

func TestCollectFlagsPagesWithNoJobLinks(t *testing.T) {
	r := &stubRenderer{pages: map[string]string{
		"https://boards.greenhouse.io/acme": `<html><body><p>We are not hiring.</p></body></html>`,
	}}
	c := New(r, zap.NewNop())

	result, err := c.Collect(context.Background(), manifest.Employer{
		Name:       "Acme",
		ListingURL: "https://boards.greenhouse.io/acme",
	})
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.ErrorIs(t, result.Errors[0], ErrNoJobLinks)
	assert.Empty(t, result.URLs)
}

func TestCollectStopsOnCancelledContext(t *testing.T) {
	r := &stubRenderer{pages: map[string]string{}}
	c := New(r, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Collect(ctx, manifest.Employer{
		Name:       "Acme",
		ListingURL: "https://boards.greenhouse.io/acme",
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestCollectHonorsPlatformOverride(t *testing.T) {
	// A custom careers domain with lever-shaped posting links.
	html := `<a href="https://jobs.lever.co/acme/0fa95e23-4b71-4a38-9462-18acb4f100b7">Role</a>`
	r := &stubRenderer{pages: map[string]string{
		"https://careers.acme.example": html,
	}}
	c := New(r, zap.NewNop())

	result, err := c.Collect(context.Background(), manifest.Employer{
		Name:       "Acme",
		ListingURL: "https://careers.acme.example",
		Platform:   "lever",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://jobs.lever.co/acme/0fa95e23-4b71-4a38-9462-18acb4f100b7"}, result.URLs)
}

func TestExtractLinksSkipsMalformedHrefs(t *testing.T) {
	html := `<a href="">empty</a>
<a href="https://boards.greenhouse.io/acme/jobs/5">ok</a>`
	urls, err := ExtractLinks(html, "https://boards.greenhouse.io/acme", platform.For(platform.Greenhouse))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://boards.greenhouse.io/acme/jobs/5"}, urls)
}
