package extractor

import "strings"

// The board only carries United States roles. A location passes when
// any of its segments mentions a US state, abbreviation, known city, or
// an explicit US term. Anything unrecognized is rejected rather than
// waved through.

var usStates = []string{
	"alabama", "alaska", "arizona", "arkansas", "california", "colorado",
	"connecticut", "delaware", "florida", "georgia", "hawaii", "idaho",
	"illinois", "indiana", "iowa", "kansas", "kentucky", "louisiana",
	"maine", "maryland", "massachusetts", "michigan", "minnesota",
	"mississippi", "missouri", "montana", "nebraska", "nevada",
	"new hampshire", "new jersey", "new mexico", "new york",
	"north carolina", "north dakota", "ohio", "oklahoma", "oregon",
	"pennsylvania", "rhode island", "south carolina", "south dakota",
	"tennessee", "texas", "utah", "vermont", "virginia", "washington",
	"west virginia", "wisconsin", "wyoming", "district of columbia",
}

var usStateAbbrevs = map[string]struct{}{
	"al": {}, "ak": {}, "az": {}, "ar": {}, "ca": {}, "co": {}, "ct": {},
	"de": {}, "fl": {}, "ga": {}, "hi": {}, "id": {}, "il": {}, "in": {},
	"ia": {}, "ks": {}, "ky": {}, "la": {}, "me": {}, "md": {}, "ma": {},
	"mi": {}, "mn": {}, "ms": {}, "mo": {}, "mt": {}, "ne": {}, "nv": {},
	"nh": {}, "nj": {}, "nm": {}, "ny": {}, "nc": {}, "nd": {}, "oh": {},
	"ok": {}, "or": {}, "pa": {}, "ri": {}, "sc": {}, "sd": {}, "tn": {},
	"tx": {}, "ut": {}, "vt": {}, "va": {}, "wa": {}, "wv": {}, "wi": {},
	"wy": {}, "dc": {},
}

var usCities = []string{
	"new york city", "san francisco", "los angeles", "san diego",
	"san jose", "seattle", "austin", "boston", "chicago", "denver",
	"atlanta", "miami", "dallas", "houston", "phoenix", "philadelphia",
	"portland", "salt lake city", "nashville", "charlotte", "raleigh",
	"minneapolis", "pittsburgh", "detroit", "baltimore", "washington dc",
	"mountain view", "palo alto", "menlo park", "sunnyvale", "cupertino",
	"redmond", "bellevue", "brooklyn", "oakland", "boulder", "irvine",
	"santa monica", "cambridge", "somerville", "arlington", "reston",
}

// A bare "remote" is ambiguous and does not confirm anything; only
// remote terms carrying a US qualifier count.
var usTerms = []string{
	"united states", "usa", "u.s.", "us only", "us-based", "us based",
	"remote (us)", "remote - us", "remote, us", "us remote",
	"remote in the us", "anywhere in the us", "nationwide",
}

// nonUSMarkers disqualify a segment even when a loose term like
// "remote" also appears in it.
var nonUSMarkers = []string{
	"united kingdom", "uk", "london", "canada", "toronto", "vancouver",
	"montreal", "india", "bangalore", "bengaluru", "mumbai", "germany",
	"berlin", "munich", "france", "paris", "ireland", "dublin",
	"australia", "sydney", "melbourne", "singapore", "netherlands",
	"amsterdam", "poland", "warsaw", "brazil", "sao paulo", "japan",
	"tokyo", "spain", "madrid", "barcelona", "israel", "tel aviv",
	"emea", "apac", "latam", "europe", "worldwide", "global",
}

// IsUSLocation reports whether the primary location or any alternate is
// confirmed as a United States location. Empty or unrecognized input is
// not confirmed.
func IsUSLocation(primary, alternates string) bool {
	for _, candidate := range splitLocations(primary) {
		if matchesUS(candidate) {
			return true
		}
	}
	for _, candidate := range splitLocations(alternates) {
		if matchesUS(candidate) {
			return true
		}
	}
	return false
}

func splitLocations(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == '|' || r == '/'
	}) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func matchesUS(location string) bool {
	lower := strings.ToLower(strings.TrimSpace(location))
	if lower == "" {
		return false
	}

	if hasNonUSMarker(lower) {
		return false
	}

	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z')
	})
	for _, term := range usTerms {
		if len(term) <= 3 {
			for _, w := range words {
				if w == term {
					return true
				}
			}
			continue
		}
		if strings.Contains(lower, term) {
			return true
		}
	}
	for _, state := range usStates {
		if strings.Contains(lower, state) {
			return true
		}
	}
	for _, city := range usCities {
		if strings.Contains(lower, city) {
			return true
		}
	}

	// "San Francisco, CA" style: the last comma-separated segment is a
	// two-letter state code.
	segments := strings.Split(lower, ",")
	last := strings.TrimSpace(segments[len(segments)-1])
	if _, ok := usStateAbbrevs[last]; ok {
		return true
	}

	return false
}

func hasNonUSMarker(lower string) bool {
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z')
	})
	for _, marker := range nonUSMarkers {
		if len(marker) <= 3 {
			// Short codes like "uk" match whole words only, otherwise
			// "Milwaukee" would trip them.
			for _, w := range words {
				if w == marker {
					return true
				}
			}
			continue
		}
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
