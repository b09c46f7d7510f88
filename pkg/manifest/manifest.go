// Package manifest provides loading and validation of harvester crawl
// manifests.
//
// A crawl manifest is a YAML file that configures a pipeline run: the fixed
// employer roster, crawl behavior, and the downstream submission endpoint.
//
// Example manifest (YAML):
//
//	version: "1.0"
//	employers:
//	  - name: acme
//	    listing_url: https://boards.greenhouse.io/acme
//	  - name: globex
//	    listing_url: https://jobs.lever.co/globex
//	crawl:
//	  concurrency: 4
//	  batch_size: 20
//	submit:
//	  endpoint: https://pipeline.example.com
//	  batch_size: 10
package manifest

import "time"

// Manifest represents a validated crawl manifest.
type Manifest struct {
	// Version is the manifest schema version. Must be "1.0".
	Version string `yaml:"version"`

	// Employers is the fixed set of employer job boards to crawl,
	// in processing order. At least one is required.
	Employers []Employer `yaml:"employers"`

	// Crawl configures crawl behavior (optional).
	Crawl CrawlConfig `yaml:"crawl,omitempty"`

	// Submit configures the downstream ingestion endpoint (optional;
	// when the endpoint is empty, delivery is disabled and the record
	// store remains the only output).
	Submit SubmitConfig `yaml:"submit,omitempty"`
}

// Employer is one job board in the roster.
type Employer struct {
	// Name is the stable employer key used by the record store and the
	// resume pointer. Required, unique within the manifest.
	Name string `yaml:"name"`

	// ListingURL is the employer's job listing page. Required.
	ListingURL string `yaml:"listing_url"`

	// ExtraListingURLs are additional listing pages for employers that
	// split postings across boards. Optional.
	ExtraListingURLs []string `yaml:"extra_listing_urls,omitempty"`

	// Platform overrides ATS detection from the listing URL. Optional;
	// one of greenhouse, lever, ashby, workday, smartrecruiters,
	// workable, generic.
	Platform string `yaml:"platform,omitempty"`
}

// CrawlConfig configures crawl behavior.
type CrawlConfig struct {
	// Concurrency is the number of postings extracted in parallel per
	// employer. Default: 4.
	Concurrency int `yaml:"concurrency,omitempty"`

	// BatchSize is the maximum number of employers processed per
	// invocation; reaching it is a normal exit, the next invocation
	// resumes from the checkpoint. Default: 20.
	BatchSize int `yaml:"batch_size,omitempty"`

	// RenderTimeout bounds a single page render. Default: 30s.
	RenderTimeout time.Duration `yaml:"render_timeout,omitempty"`

	// RateLimit is the maximum renders per second. Zero means unlimited.
	RateLimit float64 `yaml:"rate_limit,omitempty"`
}

// SubmitConfig configures delivery to the downstream ingestion API.
type SubmitConfig struct {
	// Endpoint is the ingestion API base URL, e.g. "https://pipeline.example.com".
	Endpoint string `yaml:"endpoint,omitempty"`

	// APIKey is sent as the X-API-Key header. Prefer supplying it via
	// the HARVESTER_SUBMIT_API_KEY environment variable instead of
	// committing it to the manifest.
	APIKey string `yaml:"api_key,omitempty"`

	// Source labels submitted batches (the "source" field of the batch
	// payload). Default: "harvester".
	Source string `yaml:"source,omitempty"`

	// BatchSize is the number of forwarded records per batch call.
	// Default: 10.
	BatchSize int `yaml:"batch_size,omitempty"`

	// Timeout bounds one batch call. Default: 30s.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// RateLimit is the maximum batch calls per second. Zero means
	// unlimited.
	RateLimit float64 `yaml:"rate_limit,omitempty"`
}

// applyDefaults fills optional fields with their documented defaults.
func (m *Manifest) applyDefaults() {
	if m.Crawl.Concurrency <= 0 {
		m.Crawl.Concurrency = 4
	}
	if m.Crawl.BatchSize <= 0 {
		m.Crawl.BatchSize = 20
	}
	if m.Crawl.RenderTimeout <= 0 {
		m.Crawl.RenderTimeout = 30 * time.Second
	}
	if m.Submit.BatchSize <= 0 {
		m.Submit.BatchSize = 10
	}
	if m.Submit.Timeout <= 0 {
		m.Submit.Timeout = 30 * time.Second
	}
	if m.Submit.Source == "" {
		m.Submit.Source = "harvester"
	}
}
