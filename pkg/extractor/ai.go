package extractor

import "context"

// Parsed is the structured result of AI extraction over a rendered
// posting. Field names mirror the JSON contract given to the model;
// nulls unmarshal to empty strings.
type Parsed struct {
	Title              string `json:"title"`
	Company            string `json:"company"`
	AboutCompany       string `json:"about_company"`
	Location           string `json:"location"`
	AlternateLocations string `json:"alternate_locations"`
	EmploymentType     string `json:"employment_type"`
	Description        string `json:"description"`
	Requirements       string `json:"requirements"`
	Responsibilities   string `json:"responsibilities"`
	Benefits           string `json:"benefits"`
	SalaryRange        string `json:"salary_range"`
	ExperienceLevel    string `json:"experience_level"`
	WorkEnvironment    string `json:"work_environment"`
}

// Parser turns raw posting text into a Parsed record. Implementations
// must return an error rather than a half-filled result when the model
// output cannot be trusted; the caller falls back to rule-based
// extraction.
type Parser interface {
	Parse(ctx context.Context, content, jobURL string) (*Parsed, error)
}
