package jobs

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplete(t *testing.T) {
	longAbout := strings.Repeat("responsible for distributed systems. ", 10)

	tests := []struct {
		name string
		rec  Record
		want bool
	}{
		{
			name: "all required fields present",
			rec: Record{
				Title:          "Software Engineer",
				Location:       "San Francisco, CA",
				EmploymentType: "Full time",
				AboutJob:       longAbout,
			},
			want: true,
		},
		{
			name: "missing location",
			rec: Record{
				Title:          "Software Engineer",
				EmploymentType: "Full time",
				AboutJob:       longAbout,
			},
			want: false,
		},
		{
			name: "missing employment type",
			rec: Record{
				Title:    "Software Engineer",
				Location: "San Francisco, CA",
				AboutJob: longAbout,
			},
			want: false,
		},
		{
			name: "about job too short",
			rec: Record{
				Title:          "Software Engineer",
				Location:       "San Francisco, CA",
				EmploymentType: "Full time",
				AboutJob:       "short",
			},
			want: false,
		},
		{
			name: "whitespace-only title",
			rec: Record{
				Title:          "   ",
				Location:       "San Francisco, CA",
				EmploymentType: "Full time",
				AboutJob:       longAbout,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.Complete())
		})
	}
}

func TestCompletenessScore(t *testing.T) {
	empty := Record{}
	assert.Equal(t, 0, empty.CompletenessScore())

	partial := Record{Title: "Engineer", AboutJob: "things"}
	full := Record{
		Title:          "Engineer",
		Location:       "NYC",
		EmploymentType: "Full time",
		AboutJob:       "things",
		Qualifications: "Go",
		Benefits:       "401k",
		Salary:         "$180,000 - $231,000",
	}

	assert.Equal(t, 2, partial.CompletenessScore())
	assert.Equal(t, 7, full.CompletenessScore())
	assert.Greater(t, full.CompletenessScore(), partial.CompletenessScore())
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips utm params",
			in:   "https://boards.greenhouse.io/acme/jobs/123?utm_source=a16z&utm_medium=board",
			want: "https://boards.greenhouse.io/acme/jobs/123",
		},
		{
			name: "keeps posting id params",
			in:   "https://jobs.example.com/posting?gh_jid=456&utm_campaign=x",
			want: "https://jobs.example.com/posting?gh_jid=456",
		},
		{
			name: "lowercases host and strips fragment",
			in:   "https://Jobs.Lever.CO/acme/abc-def#apply",
			want: "https://jobs.lever.co/acme/abc-def",
		},
		{
			name: "strips trailing slash",
			in:   "https://jobs.ashbyhq.com/acme/xyz/",
			want: "https://jobs.ashbyhq.com/acme/xyz",
		},
		{
			name: "strips ref and source",
			in:   "https://boards.greenhouse.io/acme/jobs/123?ref=landing&source=feed",
			want: "https://boards.greenhouse.io/acme/jobs/123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeURLRejectsInvalid(t *testing.T) {
	for _, in := range []string{"", "   ", "/jobs/relative", "not a url at all ::"} {
		_, err := NormalizeURL(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestNormalizeURLIdempotent(t *testing.T) {
	in := "https://Boards.Greenhouse.io/acme/jobs/123/?utm_source=x&gh_jid=9"
	once, err := NormalizeURL(in)
	require.NoError(t, err)
	twice, err := NormalizeURL(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestPayloadFieldNames(t *testing.T) {
	rec := Record{
		Title:          "Engineer",
		Company:        "Acme",
		Location:       "Denver, CO",
		EmploymentType: "Full time",
		AboutJob:       "Build things.",
		SourceURL:      "https://boards.greenhouse.io/acme/jobs/1",
		ScrapedAt:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	p := rec.Payload("A16Z Jobs")
	assert.Equal(t, "https://boards.greenhouse.io/acme/jobs/1", p.SourceURL)
	assert.Equal(t, "Full time", p.EmploymentType)
	assert.Equal(t, "Build things.", p.AboutJob)
	assert.Equal(t, "A16Z Jobs", p.Source)
	assert.Equal(t, "2024-03-01T12:00:00Z", p.PostedDate)
}
