// Package extractor turns posting URLs into structured job records. It
// renders the posting, asks an AI model for a structured parse, repairs
// gaps with rule-based extraction, and applies the board's acceptance
// filters.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/atlasjobs/harvester/pkg/jobs"
	"github.com/atlasjobs/harvester/pkg/platform"
	"github.com/atlasjobs/harvester/pkg/renderer"
)

// ErrRejected is the base error for postings that render and parse but
// fail an acceptance filter. Rejections are expected outcomes, not
// faults.
var ErrRejected = errors.New("posting rejected")

// Rejection carries the URL and the filter that rejected it.
type Rejection struct {
	URL    string
	Reason string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("rejected %s: %s", r.URL, r.Reason)
}

func (r *Rejection) Unwrap() error {
	return ErrRejected
}

// IsRejection reports whether err is an acceptance-filter rejection.
func IsRejection(err error) bool {
	return errors.Is(err, ErrRejected)
}

// Metrics is a snapshot of extraction activity.
type Metrics struct {
	AICalls    int64
	AIFailures int64
	RuleOnly   int64
}

// Extractor builds job records from posting pages.
type Extractor struct {
	renderer renderer.Renderer
	parser   Parser
	logger   *zap.Logger
	now      func() time.Time

	aiCalls    atomic.Int64
	aiFailures atomic.Int64
	ruleOnly   atomic.Int64
}

// New returns an Extractor. parser may be nil, in which case only
// rule-based extraction runs.
func New(r renderer.Renderer, parser Parser, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{renderer: r, parser: parser, logger: logger, now: time.Now}
}

// Extract renders the posting at url and produces a record attributed
// to employerName. It returns a Rejection (IsRejection) when the
// posting fails a filter, and the underlying error when rendering or
// parsing fails outright.
func (e *Extractor) Extract(ctx context.Context, url, employerName string) (*jobs.Record, error) {
	variant := platform.ForURL(url)

	text, err := e.renderer.RenderText(ctx, url, variant.WaitSelector())
	if err != nil {
		return nil, err
	}
	cleaned := platform.CleanText(text)
	if strings.TrimSpace(cleaned) == "" {
		return nil, &Rejection{URL: url, Reason: "no extractable content"}
	}

	rec := &jobs.Record{
		SourceURL:      url,
		Employer:       employerName,
		SourcePlatform: string(variant.Tag()),
		ScrapedAt:      e.now().UTC(),
	}

	if e.parser != nil {
		e.aiCalls.Add(1)
		parsed, err := e.parser.Parse(ctx, cleaned, url)
		if err != nil {
			e.aiFailures.Add(1)
			e.logger.Warn("ai parse failed, using rule-based extraction",
				zap.String("url", url),
				zap.Error(err))
		} else {
			applyParsed(rec, parsed)
		}
	} else {
		e.ruleOnly.Add(1)
	}

	// Rule-based extraction fills whatever the model left blank.
	variant.FallbackExtract(cleaned, rec)

	if rec.Company == "" {
		rec.Company = variant.CompanyFromURL(url)
	}
	if rec.Company == "" {
		rec.Company = employerName
	}

	if rec.Title == "" {
		return nil, &Rejection{URL: url, Reason: "no title extracted"}
	}

	if !IsUSLocation(rec.Location, rec.AlternateLocations) {
		return nil, &Rejection{URL: url, Reason: fmt.Sprintf("location %q not confirmed US", rec.Location)}
	}
	if !AcceptEmploymentType(rec.EmploymentType) {
		return nil, &Rejection{URL: url, Reason: fmt.Sprintf("employment type %q not full time", rec.EmploymentType)}
	}

	if err := normalizeSalary(rec); err != nil {
		return nil, &Rejection{URL: url, Reason: err.Error()}
	}
	rec.EmploymentType = CanonicalEmploymentType

	return rec, nil
}

// Metrics returns a snapshot of extraction counters. Safe to call while
// extractions are in flight.
func (e *Extractor) Metrics() Metrics {
	return Metrics{
		AICalls:    e.aiCalls.Load(),
		AIFailures: e.aiFailures.Load(),
		RuleOnly:   e.ruleOnly.Load(),
	}
}

// applyParsed maps the model output onto the record. Description and
// responsibilities merge into the single aboutJob field the board
// serves.
func applyParsed(rec *jobs.Record, parsed *Parsed) {
	rec.Title = strings.TrimSpace(parsed.Title)
	rec.Company = strings.TrimSpace(parsed.Company)
	rec.AboutCompany = strings.TrimSpace(parsed.AboutCompany)
	rec.Location = strings.TrimSpace(parsed.Location)
	rec.AlternateLocations = strings.TrimSpace(parsed.AlternateLocations)
	rec.EmploymentType = strings.TrimSpace(parsed.EmploymentType)
	rec.Qualifications = strings.TrimSpace(parsed.Requirements)
	rec.Benefits = strings.TrimSpace(parsed.Benefits)
	rec.Salary = strings.TrimSpace(parsed.SalaryRange)
	rec.WorkEnvironment = strings.TrimSpace(parsed.WorkEnvironment)

	about := strings.TrimSpace(parsed.Description)
	if resp := strings.TrimSpace(parsed.Responsibilities); resp != "" {
		if about != "" {
			about += "\n\n"
		}
		about += resp
	}
	rec.AboutJob = about
}

// normalizeSalary standardizes the salary text and rejects hourly-only
// figures.
func normalizeSalary(rec *jobs.Record) error {
	if strings.TrimSpace(rec.Salary) == "" {
		return nil
	}
	parsed := ParseSalary(rec.Salary)
	if parsed.Min == 0 {
		rec.Salary = ""
		return nil
	}
	if parsed.Period == PeriodHourly {
		return errors.New("hourly-only salary")
	}
	rec.Salary = parsed.String()
	return nil
}
