package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsUSLocation(t *testing.T) {
	tests := []struct {
		name       string
		primary    string
		alternates string
		want       bool
	}{
		{"city and state abbrev", "San Francisco, CA", "", true},
		{"full state name", "Austin, Texas", "", true},
		{"known city", "Brooklyn", "", true},
		{"bare remote rejected", "Remote", "", false},
		{"remote us", "Remote - US", "", true},
		{"remote us parenthesized", "Remote (US)", "", true},
		{"us remote", "US Remote", "", true},
		{"united states", "United States", "", true},
		{"state abbrev only segment", "Milwaukee, WI", "", true},
		{"london rejected", "London, UK", "", false},
		{"canada rejected", "Toronto, Canada", "", false},
		{"remote europe rejected", "Remote - Europe", "", false},
		{"remote worldwide rejected", "Remote (Worldwide)", "", false},
		{"empty rejected", "", "", false},
		{"unknown city rejected", "Springfieldia", "", false},
		{"alternate rescues", "London, UK", "New York, NY", true},
		{"alternate list with separator", "Dublin, Ireland", "Bangalore / Denver, CO", true},
		{"milwaukee not tripped by uk code", "Milwaukee, Wisconsin", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUSLocation(tt.primary, tt.alternates))
		})
	}
}

func TestAcceptEmploymentType(t *testing.T) {
	accept := []string{"", "Full-time", "Full time", "FULL TIME", "Regular"}
	for _, et := range accept {
		assert.True(t, AcceptEmploymentType(et), et)
	}

	reject := []string{
		"Contract",
		"Contract /",
		"Part Time /",
		"Part - Time /",
		"Intern /",
		"Internship",
		"Temporary /",
		"Fixed Term /",
		"Freelance",
	}
	for _, et := range reject {
		assert.False(t, AcceptEmploymentType(et), et)
	}
}

func TestParseSalary(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		period SalaryPeriod
	}{
		{"k notation range", "$140K - $180K", "$140,000 - $180,000", PeriodYearly},
		{"comma range", "$140,000 - $180,000 per year", "$140,000 - $180,000", PeriodYearly},
		{"plain range", "$90000 - $120000", "$90,000 - $120,000", PeriodYearly},
		{"to range", "$100,000 to $150,000", "$100,000 - $150,000", PeriodYearly},
		{"single k", "$150K annually", "$150,000", PeriodYearly},
		{"single with commas", "base of $185,000", "$185,000", PeriodYearly},
		{"hourly", "$22 per hour", "$22", PeriodHourly},
		{"no figure", "competitive compensation", "", PeriodYearly},
		{"empty", "", "", PeriodYearly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSalary(tt.text)
			assert.Equal(t, tt.want, got.String())
			assert.Equal(t, tt.period, got.Period)
		})
	}
}

func TestStripCodeFences(t *testing.T) {
	fenced := "```json\n{\"title\": \"Engineer\"}\n```"
	assert.Equal(t, `{"title": "Engineer"}`, stripCodeFences(fenced))

	prose := "Here is the result: {\"title\": \"Engineer\"} Hope that helps."
	assert.Equal(t, `{"title": "Engineer"}`, stripCodeFences(prose))
}
