// Package platform models the closed set of ATS (applicant tracking
// system) variants the crawler understands.
//
// Each variant implements a small capability surface: how to find posting
// links on a listing page, what to wait for when rendering, how to derive
// the company name from a posting URL, and how to extract fields when AI
// extraction is unavailable. Dispatch is by a platform tag detected from
// the URL, keeping per-ATS branching in one place.
package platform

import (
	"strings"

	"github.com/atlasjobs/harvester/pkg/jobs"
)

// Platform identifies an ATS variant.
type Platform string

const (
	Greenhouse     Platform = "greenhouse"
	Lever          Platform = "lever"
	Ashby          Platform = "ashby"
	Workday        Platform = "workday"
	SmartRecruiter Platform = "smartrecruiters"
	Workable       Platform = "workable"
	Generic        Platform = "generic"
)

// String returns the string representation of the platform tag.
func (p Platform) String() string {
	return string(p)
}

// Variant is the per-ATS capability interface.
type Variant interface {
	// Tag returns the platform identifier.
	Tag() Platform

	// LinkSelector is the CSS selector matching posting links on a
	// listing page.
	LinkSelector() string

	// AcceptJobURL reports whether a collected href points at an
	// individual posting on this platform.
	AcceptJobURL(url string) bool

	// WaitSelector is the CSS selector the renderer waits for before
	// treating a posting page as loaded.
	WaitSelector() string

	// CompanyFromURL derives a readable company name from a posting
	// URL's board slug. Returns "" when the URL shape is unrecognized.
	CompanyFromURL(url string) string

	// FallbackExtract fills record fields from raw page content using
	// rule-based parsing. Only fields it can determine are set.
	FallbackExtract(content string, rec *jobs.Record)
}

var variants = map[Platform]Variant{
	Greenhouse:     greenhouseVariant{},
	Lever:          leverVariant{},
	Ashby:          ashbyVariant{},
	Workday:        workdayVariant{},
	SmartRecruiter: smartRecruitersVariant{},
	Workable:       workableVariant{},
	Generic:        genericVariant{},
}

// Detect returns the platform tag for a URL. Unknown hosts map to Generic.
func Detect(url string) Platform {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "greenhouse"):
		return Greenhouse
	case strings.Contains(lower, "lever.co"):
		return Lever
	case strings.Contains(lower, "ashby"):
		return Ashby
	case strings.Contains(lower, "workday"):
		return Workday
	case strings.Contains(lower, "smartrecruiters"):
		return SmartRecruiter
	case strings.Contains(lower, "workable"):
		return Workable
	default:
		return Generic
	}
}

// For returns the variant for a platform tag, falling back to Generic.
func For(p Platform) Variant {
	if v, ok := variants[p]; ok {
		return v
	}
	return variants[Generic]
}

// ForURL is Detect followed by For.
func ForURL(url string) Variant {
	return For(Detect(url))
}

// Parse maps a manifest platform override to a tag. Empty or unknown
// values return ok=false.
func Parse(s string) (Platform, bool) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	_, ok := variants[p]
	return p, ok
}

// slugToName converts a board slug ("stripe-payments") to a readable
// company name ("Stripe Payments").
func slugToName(slug string) string {
	slug = strings.ReplaceAll(slug, "-", " ")
	slug = strings.ReplaceAll(slug, "_", " ")
	words := strings.Fields(slug)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// segmentAfterHost returns the path segment immediately following the
// host containing `hostPart`, e.g. the company slug in
// https://boards.greenhouse.io/COMPANY/jobs/123.
func segmentAfterHost(url, hostPart string) string {
	parts := strings.Split(url, "/")
	for i, part := range parts {
		if strings.Contains(strings.ToLower(part), hostPart) && i+1 < len(parts) {
			seg := parts[i+1]
			if seg != "" {
				return seg
			}
		}
	}
	return ""
}
