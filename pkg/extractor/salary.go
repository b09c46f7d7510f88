package extractor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// SalaryPeriod classifies how a salary figure is quoted.
type SalaryPeriod string

const (
	PeriodYearly  SalaryPeriod = "yearly"
	PeriodHourly  SalaryPeriod = "hourly"
	PeriodMonthly SalaryPeriod = "monthly"
)

// SalaryRange is a parsed salary. Min is zero when nothing numeric was
// found.
type SalaryRange struct {
	Min     int
	Max     int
	Period  SalaryPeriod
	IsRange bool
	Raw     string
}

// String renders the standardized form, e.g. "$140,000 - $180,000".
func (s SalaryRange) String() string {
	if s.Min == 0 {
		return ""
	}
	if s.IsRange && s.Max > 0 {
		return fmt.Sprintf("$%s - $%s", groupThousands(s.Min), groupThousands(s.Max))
	}
	return "$" + groupThousands(s.Min)
}

// Ordered by specificity: K-notation ranges first, bare singles last.
var (
	salaryRangeK      = regexp.MustCompile(`(?i)\$(\d{1,3})K\s*-\s*\$(\d{1,3})K`)
	salaryRangeCommas = regexp.MustCompile(`\$(\d{1,3}(?:,\d{3})+)\s*-\s*\$(\d{1,3}(?:,\d{3})+)`)
	salaryRangePlain  = regexp.MustCompile(`\$(\d{3,7})\s*-\s*\$(\d{3,7})`)
	salaryRangeTo     = regexp.MustCompile(`(?i)\$(\d{1,3}(?:,\d{3})*)\s+to\s+\$(\d{1,3}(?:,\d{3})*)`)
	salarySingleK     = regexp.MustCompile(`(?i)\$(\d{1,3})K`)
	salarySingle      = regexp.MustCompile(`\$(\d{1,3}(?:,\d{3})*)`)
)

var periodIndicators = map[SalaryPeriod][]string{
	PeriodYearly:  {"per year", "annually", "yearly", "/year", "/yr", "per annum"},
	PeriodHourly:  {"per hour", "hourly", "/hour", "/hr", "an hour"},
	PeriodMonthly: {"per month", "monthly", "/month"},
}

// ParseSalary extracts a salary range from free text. The zero-value
// result (Min == 0) means no figure was found.
func ParseSalary(text string) SalaryRange {
	result := SalaryRange{Period: PeriodYearly, Raw: strings.TrimSpace(text)}
	if result.Raw == "" || strings.EqualFold(result.Raw, "null") || strings.EqualFold(result.Raw, "none") {
		return result
	}

	lower := strings.ToLower(text)
	for period, indicators := range periodIndicators {
		for _, ind := range indicators {
			if strings.Contains(lower, ind) {
				result.Period = period
			}
		}
	}

	if m := salaryRangeK.FindStringSubmatch(text); m != nil {
		result.Min = parseSalaryNumber(m[1]) * 1000
		result.Max = parseSalaryNumber(m[2]) * 1000
		result.IsRange = true
		return result
	}
	if m := salaryRangeCommas.FindStringSubmatch(text); m != nil {
		result.Min = parseSalaryNumber(m[1])
		result.Max = parseSalaryNumber(m[2])
		result.IsRange = true
		return result
	}
	if m := salaryRangePlain.FindStringSubmatch(text); m != nil {
		result.Min = parseSalaryNumber(m[1])
		result.Max = parseSalaryNumber(m[2])
		result.IsRange = true
		return result
	}
	if m := salaryRangeTo.FindStringSubmatch(text); m != nil {
		result.Min = parseSalaryNumber(m[1])
		result.Max = parseSalaryNumber(m[2])
		result.IsRange = true
		return result
	}
	if m := salarySingleK.FindStringSubmatch(text); m != nil {
		result.Min = parseSalaryNumber(m[1]) * 1000
		return result
	}
	if m := salarySingle.FindStringSubmatch(text); m != nil {
		result.Min = parseSalaryNumber(m[1])
		return result
	}
	return result
}

func parseSalaryNumber(s string) int {
	n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0
	}
	return n
}

func groupThousands(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
