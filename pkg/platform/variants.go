package platform

import (
	"regexp"
	"strings"

	"github.com/atlasjobs/harvester/pkg/jobs"
)

// greenhouseVariant covers boards.greenhouse.io and job-boards.greenhouse.io.
// Posting URLs look like https://boards.greenhouse.io/COMPANY/jobs/ID.
type greenhouseVariant struct{}

func (greenhouseVariant) Tag() Platform { return Greenhouse }

func (greenhouseVariant) LinkSelector() string {
	return `a[href*="greenhouse"]`
}

func (greenhouseVariant) AcceptJobURL(url string) bool {
	lower := strings.ToLower(url)
	return strings.Contains(lower, "greenhouse") && strings.Contains(lower, "/jobs/")
}

func (greenhouseVariant) WaitSelector() string {
	return "h1.app-title, #content, h1"
}

func (greenhouseVariant) CompanyFromURL(url string) string {
	return slugToName(segmentAfterHost(url, "greenhouse"))
}

func (greenhouseVariant) FallbackExtract(content string, rec *jobs.Record) {
	fallbackFromText(content, rec)
}

// leverVariant covers jobs.lever.co. Posting URLs look like
// https://jobs.lever.co/COMPANY/POSTING-UUID.
type leverVariant struct{}

func (leverVariant) Tag() Platform { return Lever }

func (leverVariant) LinkSelector() string {
	return `a[href*="lever.co"], a.posting-title`
}

var leverPostingURL = regexp.MustCompile(`(?i)lever\.co/[^/]+/[0-9a-f-]{8,}`)

func (leverVariant) AcceptJobURL(url string) bool {
	return leverPostingURL.MatchString(url)
}

func (leverVariant) WaitSelector() string {
	return ".posting-headline, .posting-content"
}

func (leverVariant) CompanyFromURL(url string) string {
	return slugToName(segmentAfterHost(url, "lever.co"))
}

func (leverVariant) FallbackExtract(content string, rec *jobs.Record) {
	fallbackFromText(content, rec)
}

// ashbyVariant covers jobs.ashbyhq.com. Ashby templates often delimit
// sections with emoji markers; CleanText strips them before parsing.
type ashbyVariant struct{}

func (ashbyVariant) Tag() Platform { return Ashby }

func (ashbyVariant) LinkSelector() string {
	return `a[href*="ashby"]`
}

func (ashbyVariant) AcceptJobURL(url string) bool {
	lower := strings.ToLower(url)
	return strings.Contains(lower, "ashbyhq.com/") && strings.Count(lower, "/") >= 4
}

func (ashbyVariant) WaitSelector() string {
	return "h1, .job-description"
}

func (ashbyVariant) CompanyFromURL(url string) string {
	return slugToName(segmentAfterHost(url, "ashbyhq.com"))
}

func (ashbyVariant) FallbackExtract(content string, rec *jobs.Record) {
	fallbackFromText(content, rec)
}

// workdayVariant covers COMPANY.wdN.myworkdayjobs.com.
type workdayVariant struct{}

func (workdayVariant) Tag() Platform { return Workday }

func (workdayVariant) LinkSelector() string {
	return `a[href*="myworkdayjobs"], a[data-automation-id="jobTitle"]`
}

func (workdayVariant) AcceptJobURL(url string) bool {
	lower := strings.ToLower(url)
	return strings.Contains(lower, "myworkdayjobs.com") && strings.Contains(lower, "/job/")
}

func (workdayVariant) WaitSelector() string {
	return `[data-automation-id="jobPostingHeader"], h1`
}

func (workdayVariant) CompanyFromURL(url string) string {
	// Company is the subdomain: https://COMPANY.wd12.myworkdayjobs.com/...
	lower := strings.ToLower(url)
	if !strings.Contains(lower, ".wd") || !strings.Contains(lower, ".myworkdayjobs.com") {
		return ""
	}
	rest := url
	if i := strings.Index(rest, "//"); i >= 0 {
		rest = rest[i+2:]
	}
	if i := strings.Index(rest, "."); i > 0 {
		return slugToName(rest[:i])
	}
	return ""
}

func (workdayVariant) FallbackExtract(content string, rec *jobs.Record) {
	fallbackFromText(content, rec)
}

// smartRecruitersVariant covers jobs.smartrecruiters.com.
type smartRecruitersVariant struct{}

func (smartRecruitersVariant) Tag() Platform { return SmartRecruiter }

func (smartRecruitersVariant) LinkSelector() string {
	return `a[href*="smartrecruiters"]`
}

func (smartRecruitersVariant) AcceptJobURL(url string) bool {
	return strings.Contains(strings.ToLower(url), "smartrecruiters.com/")
}

func (smartRecruitersVariant) WaitSelector() string {
	return "h1, .job-title"
}

func (smartRecruitersVariant) CompanyFromURL(url string) string {
	return slugToName(segmentAfterHost(url, "smartrecruiters.com"))
}

func (smartRecruitersVariant) FallbackExtract(content string, rec *jobs.Record) {
	fallbackFromText(content, rec)
}

// workableVariant covers apply.workable.com.
type workableVariant struct{}

func (workableVariant) Tag() Platform { return Workable }

func (workableVariant) LinkSelector() string {
	return `a[href*="workable"]`
}

func (workableVariant) AcceptJobURL(url string) bool {
	lower := strings.ToLower(url)
	return strings.Contains(lower, "workable.com/") && strings.Contains(lower, "/j/")
}

func (workableVariant) WaitSelector() string {
	return "h1, .job-title"
}

func (workableVariant) CompanyFromURL(url string) string {
	return slugToName(segmentAfterHost(url, "workable.com"))
}

func (workableVariant) FallbackExtract(content string, rec *jobs.Record) {
	fallbackFromText(content, rec)
}

// genericVariant handles internal career pages and unknown hosts.
type genericVariant struct{}

func (genericVariant) Tag() Platform { return Generic }

func (genericVariant) LinkSelector() string {
	return `a[href*="/jobs/"], a[href*="/careers/"]`
}

func (genericVariant) AcceptJobURL(url string) bool {
	lower := strings.ToLower(url)
	return strings.Contains(lower, "/jobs/") || strings.Contains(lower, "/careers/")
}

func (genericVariant) WaitSelector() string {
	return "h1, h2"
}

func (genericVariant) CompanyFromURL(string) string {
	return ""
}

func (genericVariant) FallbackExtract(content string, rec *jobs.Record) {
	fallbackFromText(content, rec)
}
