package platform

import (
	"regexp"
	"strings"

	"github.com/atlasjobs/harvester/pkg/jobs"
)

// Rule-based content parsing shared by the ATS variants. This is the
// fallback path when AI extraction fails or is disabled; it favors
// precision over recall and leaves fields empty rather than guessing.

const (
	maxAboutJobLen = 10000
	maxSectionLen  = 2000
)

// sectionHeaders maps a record field to the listing-copy headings that
// introduce it. Matching is case-insensitive substring on a heading line.
var sectionHeaders = map[string][]string{
	"responsibilities": {
		"what you'll do", "what you will do", "you will", "responsibilities",
		"duties", "key responsibilities", "role description", "about the job",
		"the opportunity", "about this role", "what you'll be doing",
		"role overview", "position overview", "your role",
	},
	"requirements": {
		"required qualifications", "requirements", "you should have",
		"qualifications", "required skills", "minimum qualifications",
		"preferred qualifications", "what we're looking for",
		"ideal candidate", "must have", "required experience",
	},
	"benefits": {
		"benefits", "what we offer", "perks", "compensation", "package",
		"pay transparency disclosure", "annual base salary range",
		"comprehensive benefits", "total rewards", "in addition to salary",
	},
	"about_company": {
		"about us", "about the company", "who we are", "our mission",
		"about the team",
	},
}

// skipIndicators are application-form and footer boilerplate lines that
// must never leak into section content.
var skipIndicators = []string{
	"create a job alert", "apply for this job", "indicates a required field",
	"first name", "last name", "email", "phone", "resume", "cover letter",
	"submit application", "privacy policy", "candidate data privacy",
	"voluntary self-identification", "equal employment opportunity",
	"by applying for this job", "back to jobs", "powered by",
	"read our privacy policy",
}

var workEnvironmentPatterns = []struct {
	env      string
	patterns []string
}{
	{"Remote", []string{"100% remote", "fully remote", "remote-first", "work from anywhere", "remote"}},
	{"Hybrid", []string{"hybrid", "partially remote", "office optional"}},
	{"Onsite", []string{"on-site", "onsite", "in-office", "office-based"}},
}

var salaryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\$[\d,]+K?\s*[-–—]\s*\$[\d,]+K?(\s*USD)?`),
	regexp.MustCompile(`(?i)\$[\d,]+K?\s+to\s+\$[\d,]+K?`),
	regexp.MustCompile(`(?i)(salary|pay|compensation)\s+range[:\s]*\$[\d,]+\s*[-–—]\s*\$[\d,]+`),
	regexp.MustCompile(`(?i)\$[\d,]+(K|,000)`),
}

// decorativeSymbols strips emoji-style section markers and bullets some
// ATS templates use, leaving the verbatim text intact.
var decorativeSymbols = regexp.MustCompile(`[\x{1F300}-\x{1FAFF}\x{2600}-\x{27BF}\x{2B00}-\x{2BFF}•▪●◦→✔✓★☆]+`)

// CleanText collapses whitespace runs and strips decorative symbols.
func CleanText(s string) string {
	s = decorativeSymbols.ReplaceAllString(s, " ")
	s = regexp.MustCompile(`[ \t]+`).ReplaceAllString(s, " ")
	s = regexp.MustCompile(`\n{3,}`).ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// parseSections splits raw posting text into the known sections. Lines
// before the first recognized heading belong to no section; boilerplate
// lines are dropped.
func parseSections(content string) map[string]string {
	sections := make(map[string]string)
	var current string
	var buf []string

	flush := func() {
		if current == "" || len(buf) == 0 {
			return
		}
		text := strings.Join(buf, "\n")
		if len(text) > maxSectionLen {
			text = text[:maxSectionLen]
		}
		// First heading wins when a section repeats.
		if _, exists := sections[current]; !exists {
			sections[current] = text
		}
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)

		matched := ""
		// Heading lines are short; a matching keyword inside a long
		// paragraph is prose, not a heading.
		if len(line) <= 80 {
			for field, keywords := range sectionHeaders {
				for _, kw := range keywords {
					if strings.Contains(lower, kw) {
						matched = field
						break
					}
				}
				if matched != "" {
					break
				}
			}
		}
		if matched != "" {
			flush()
			current = matched
			buf = nil
			continue
		}

		if current == "" {
			continue
		}
		if isBoilerplate(lower) {
			continue
		}
		buf = append(buf, line)
	}
	flush()

	return sections
}

func isBoilerplate(lowerLine string) bool {
	for _, ind := range skipIndicators {
		if strings.Contains(lowerLine, ind) {
			return true
		}
	}
	return false
}

func detectWorkEnvironment(content string) string {
	lower := strings.ToLower(content)
	for _, we := range workEnvironmentPatterns {
		for _, p := range we.patterns {
			if strings.Contains(lower, p) {
				return we.env
			}
		}
	}
	return ""
}

func detectSalary(content string) string {
	for _, re := range salaryPatterns {
		if m := re.FindString(content); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

// fallbackFromText applies the shared rule-based extraction to a record.
// Used by every variant; platform-specific variants adjust fields
// afterwards.
func fallbackFromText(content string, rec *jobs.Record) {
	content = CleanText(content)
	if content == "" {
		return
	}

	lines := strings.Split(content, "\n")
	if rec.Title == "" {
		for _, line := range lines {
			line = strings.TrimSpace(line)
			// A plausible title line: short, not boilerplate.
			if line != "" && len(line) <= 120 && !isBoilerplate(strings.ToLower(line)) {
				rec.Title = line
				break
			}
		}
	}

	sections := parseSections(content)

	about := sections["responsibilities"]
	if about == "" {
		// No recognizable sections: keep the whole cleaned text so the
		// posting still carries its description.
		about = content
	}
	if len(about) > maxAboutJobLen {
		about = about[:maxAboutJobLen]
	}
	if rec.AboutJob == "" {
		rec.AboutJob = about
	}
	if rec.Qualifications == "" {
		rec.Qualifications = sections["requirements"]
	}
	if rec.Benefits == "" {
		rec.Benefits = sections["benefits"]
	}
	if rec.AboutCompany == "" {
		rec.AboutCompany = sections["about_company"]
	}
	if rec.Salary == "" {
		rec.Salary = detectSalary(content)
	}
	if rec.WorkEnvironment == "" {
		rec.WorkEnvironment = detectWorkEnvironment(content)
	}
	if rec.Location == "" {
		rec.Location = detectLocationLine(lines)
	}
}

// usLocationLine matches "City, ST" and "City, State" shapes that ATS
// templates render as a standalone location line near the title.
var usLocationLine = regexp.MustCompile(`^[A-Z][A-Za-z .'-]+,\s*(?:[A-Z]{2}|[A-Z][a-z]+(?: [A-Z][a-z]+)?)$`)

func detectLocationLine(lines []string) string {
	// Location lines sit in the posting header; don't scan the body.
	limit := len(lines)
	if limit > 15 {
		limit = 15
	}
	for _, line := range lines[:limit] {
		line = strings.TrimSpace(line)
		if strings.EqualFold(line, "remote") {
			return "Remote"
		}
		if usLocationLine.MatchString(line) {
			return line
		}
	}
	return ""
}
