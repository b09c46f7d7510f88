// Package jobs defines the job posting record model shared by the crawl
// pipeline, the record store, and the downstream submitter.
//
// A Record's identity is its normalized source URL. Content fields carry
// verbatim text extracted from the posting; completeness is always derived
// from current field values and never persisted.
package jobs

import (
	"strings"
	"time"
)

// MinAboutJobLen is the minimum aboutJob length for a record to count
// as complete. Shorter descriptions are treated as extraction fragments
// worth re-crawling.
const MinAboutJobLen = 200

// Record is one job posting.
type Record struct {
	// SourceURL is the normalized posting URL and the sole stable
	// identity key. No two records may share it.
	SourceURL string `json:"source_url"`

	Title              string `json:"title"`
	Company            string `json:"company"`
	AboutCompany       string `json:"about_company,omitempty"`
	Location           string `json:"location"`
	AlternateLocations string `json:"alternate_locations,omitempty"`
	EmploymentType     string `json:"employment_type"`
	AboutJob           string `json:"about_job"`
	Qualifications     string `json:"qualifications,omitempty"`
	Benefits           string `json:"benefits,omitempty"`
	Salary             string `json:"salary,omitempty"`
	WorkEnvironment    string `json:"work_environment,omitempty"`

	// ScrapedAt is the UTC time of the extraction that produced this
	// record's current content.
	ScrapedAt time.Time `json:"scraped_at"`

	// SourcePlatform identifies the ATS hosting the posting
	// (e.g. "greenhouse", "lever").
	SourcePlatform string `json:"source_platform,omitempty"`

	// Employer is the portfolio employer this posting was crawled under.
	Employer string `json:"employer"`
}

// Complete reports whether the record has enough content that re-crawling
// it would yield no new information. Recomputed from current field values
// on every call; there is no stored completeness flag to drift.
func (r *Record) Complete() bool {
	return strings.TrimSpace(r.Title) != "" &&
		strings.TrimSpace(r.Location) != "" &&
		strings.TrimSpace(r.EmploymentType) != "" &&
		len(strings.TrimSpace(r.AboutJob)) > MinAboutJobLen
}

// CompletenessScore counts the non-empty required fields. Used by the
// merge engine to decide whether a candidate improves on a stored record;
// ties are broken on AboutJob length by the caller.
func (r *Record) CompletenessScore() int {
	score := 0
	for _, f := range []string{r.Title, r.Location, r.EmploymentType, r.AboutJob, r.Qualifications, r.Benefits, r.Salary} {
		if strings.TrimSpace(f) != "" {
			score++
		}
	}
	return score
}

// Payload is the downstream ingestion representation of a record.
// Field names follow the ingestion API contract, not the internal model.
type Payload struct {
	Title              string `json:"title"`
	Company            string `json:"company"`
	AboutCompany       string `json:"aboutCompany,omitempty"`
	Location           string `json:"location"`
	AlternateLocations string `json:"alternateLocations,omitempty"`
	EmploymentType     string `json:"employmentType"`
	AboutJob           string `json:"aboutJob"`
	Qualifications     string `json:"qualifications,omitempty"`
	Benefits           string `json:"benefits,omitempty"`
	SalaryRange        string `json:"salaryRange,omitempty"`
	WorkEnvironment    string `json:"workEnvironment,omitempty"`
	SourceURL          string `json:"sourceUrl"`
	PostedDate         string `json:"postedDate,omitempty"`
	Source             string `json:"source"`
}

// Payload converts the record to its downstream form.
func (r *Record) Payload(source string) Payload {
	return Payload{
		Title:              r.Title,
		Company:            r.Company,
		AboutCompany:       r.AboutCompany,
		Location:           r.Location,
		AlternateLocations: r.AlternateLocations,
		EmploymentType:     r.EmploymentType,
		AboutJob:           r.AboutJob,
		Qualifications:     r.Qualifications,
		Benefits:           r.Benefits,
		SalaryRange:        r.Salary,
		WorkEnvironment:    r.WorkEnvironment,
		SourceURL:          r.SourceURL,
		PostedDate:         r.ScrapedAt.UTC().Format(time.RFC3339),
		Source:             source,
	}
}
