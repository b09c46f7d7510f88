package extractor

import "strings"

// CanonicalEmploymentType is the single value accepted records carry.
const CanonicalEmploymentType = "Full time"

// nonFullTimePatterns disqualify a posting outright. The board lists
// full-time salaried roles only.
var nonFullTimePatterns = []string{
	"contract",
	"part time",
	"part-time",
	"part - time",
	"intern",
	"internship",
	"temporary",
	"fixed term",
	"fixed-term",
	"seasonal",
	"freelance",
	"apprentice",
}

// AcceptEmploymentType reports whether the raw employment type is
// compatible with a full-time posting. An empty value is acceptable;
// upstream normalization fills the canonical value.
func AcceptEmploymentType(raw string) bool {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" {
		return true
	}
	for _, pattern := range nonFullTimePatterns {
		if strings.Contains(lower, pattern) {
			return false
		}
	}
	return true
}
