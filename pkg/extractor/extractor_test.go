package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubRenderer struct {
	text string
	err  error
}

func (s *stubRenderer) RenderHTML(context.Context, string, string) (string, error) {
	return s.text, s.err
}

func (s *stubRenderer) RenderText(context.Context, string, string) (string, error) {
	return s.text, s.err
}

func (s *stubRenderer) Close() error { return nil }

type stubParser struct {
	parsed *Parsed
	err    error
}

func (s *stubParser) Parse(context.Context, string, string) (*Parsed, error) {
	return s.parsed, s.err
}

const postingText = `Senior Backend Engineer

San Francisco, CA

About the role
We build the data plane that powers our customers' analytics workloads. You will own
services end to end, from design through production operation, working closely with
product and infrastructure teams to ship reliable systems at scale. Our stack runs on
Go and Postgres behind a globally distributed edge.

Requirements
5+ years building distributed systems in production.
`

func TestExtractUsesAIResult(t *testing.T) {
	r := &stubRenderer{text: postingText}
	p := &stubParser{parsed: &Parsed{
		Title:            "Senior Backend Engineer",
		Company:          "Acme",
		Location:         "San Francisco, CA",
		EmploymentType:   "Full-time",
		Description:      "We build the data plane that powers analytics workloads.",
		Responsibilities: "Own services end to end.",
		Requirements:     "5+ years building distributed systems.",
		SalaryRange:      "$140,000 - $180,000 per year",
		WorkEnvironment:  "Hybrid",
	}}
	e := New(r, p, zap.NewNop())

	rec, err := e.Extract(context.Background(), "https://boards.greenhouse.io/acme/jobs/1", "Acme")
	require.NoError(t, err)

	assert.Equal(t, "Senior Backend Engineer", rec.Title)
	assert.Equal(t, "Acme", rec.Company)
	assert.Equal(t, "San Francisco, CA", rec.Location)
	assert.Equal(t, "Full time", rec.EmploymentType)
	assert.Equal(t, "We build the data plane that powers analytics workloads.\n\nOwn services end to end.", rec.AboutJob)
	assert.Equal(t, "5+ years building distributed systems.", rec.Qualifications)
	assert.Equal(t, "$140,000 - $180,000", rec.Salary)
	assert.Equal(t, "greenhouse", rec.SourcePlatform)
	assert.Equal(t, "Acme", rec.Employer)
	assert.False(t, rec.ScrapedAt.IsZero())
}

func TestExtractFallsBackWhenAIFails(t *testing.T) {
	r := &stubRenderer{text: postingText}
	p := &stubParser{err: errors.New("model unavailable")}
	e := New(r, p, zap.NewNop())

	rec, err := e.Extract(context.Background(), "https://boards.greenhouse.io/acme/jobs/1", "Acme")
	require.NoError(t, err)

	assert.Equal(t, "Senior Backend Engineer", rec.Title)
	assert.Equal(t, "San Francisco, CA", rec.Location)
	assert.NotEmpty(t, rec.AboutJob)

	m := e.Metrics()
	assert.Equal(t, int64(1), m.AICalls)
	assert.Equal(t, int64(1), m.AIFailures)
}

func TestExtractWithoutParser(t *testing.T) {
	r := &stubRenderer{text: postingText}
	e := New(r, nil, zap.NewNop())

	rec, err := e.Extract(context.Background(), "https://boards.greenhouse.io/acme/jobs/1", "Acme")
	require.NoError(t, err)
	assert.Equal(t, "Senior Backend Engineer", rec.Title)

	m := e.Metrics()
	assert.Equal(t, int64(0), m.AICalls)
	assert.Equal(t, int64(1), m.RuleOnly)
}

func TestExtractRejectsNonUSLocation(t *testing.T) {
	r := &stubRenderer{text: postingText}
	p := &stubParser{parsed: &Parsed{
		Title:    "Senior Backend Engineer",
		Company:  "Acme",
		Location: "London, UK",
	}}
	e := New(r, p, zap.NewNop())

	_, err := e.Extract(context.Background(), "https://boards.greenhouse.io/acme/jobs/1", "Acme")
	require.Error(t, err)
	assert.True(t, IsRejection(err))
	assert.Contains(t, err.Error(), "London, UK")
}

func TestExtractAcceptsUSAlternateLocation(t *testing.T) {
	r := &stubRenderer{text: postingText}
	p := &stubParser{parsed: &Parsed{
		Title:              "Senior Backend Engineer",
		Company:            "Acme",
		Location:           "London, UK",
		AlternateLocations: "New York, NY; Dublin, Ireland",
	}}
	e := New(r, p, zap.NewNop())

	rec, err := e.Extract(context.Background(), "https://boards.greenhouse.io/acme/jobs/1", "Acme")
	require.NoError(t, err)
	assert.Equal(t, "London, UK", rec.Location)
}

func TestExtractRejectsContractRole(t *testing.T) {
	r := &stubRenderer{text: postingText}
	p := &stubParser{parsed: &Parsed{
		Title:          "Backend Engineer",
		Company:        "Acme",
		Location:       "Austin, TX",
		EmploymentType: "Contract / 6 months",
	}}
	e := New(r, p, zap.NewNop())

	_, err := e.Extract(context.Background(), "https://boards.greenhouse.io/acme/jobs/1", "Acme")
	require.Error(t, err)
	assert.True(t, IsRejection(err))
}

func TestExtractRejectsHourlyOnlySalary(t *testing.T) {
	r := &stubRenderer{text: postingText}
	p := &stubParser{parsed: &Parsed{
		Title:          "Warehouse Associate",
		Company:        "Acme",
		Location:       "Dallas, TX",
		EmploymentType: "Full-time",
		SalaryRange:    "$22 per hour",
	}}
	e := New(r, p, zap.NewNop())

	_, err := e.Extract(context.Background(), "https://boards.greenhouse.io/acme/jobs/1", "Acme")
	require.Error(t, err)
	assert.True(t, IsRejection(err))
}

func TestExtractPropagatesRenderFailure(t *testing.T) {
	renderErr := errors.New("render failed")
	r := &stubRenderer{err: renderErr}
	e := New(r, nil, zap.NewNop())

	_, err := e.Extract(context.Background(), "https://boards.greenhouse.io/acme/jobs/1", "Acme")
	require.ErrorIs(t, err, renderErr)
	assert.False(t, IsRejection(err))
}

func TestExtractCompanyFromURLWhenMissing(t *testing.T) {
	r := &stubRenderer{text: postingText}
	p := &stubParser{parsed: &Parsed{
		Title:    "Senior Backend Engineer",
		Location: "Seattle, WA",
	}}
	e := New(r, p, zap.NewNop())

	rec, err := e.Extract(context.Background(), "https://boards.greenhouse.io/stripe-payments/jobs/1", "Stripe")
	require.NoError(t, err)
	assert.Equal(t, "Stripe Payments", rec.Company)
}
