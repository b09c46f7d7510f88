package jobs

import (
	"fmt"
	"net/url"
	"strings"
)

// trackingParams are query parameters stripped during URL normalization.
// They vary per click path and would otherwise split one posting into
// several identities.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_content":  {},
	"utm_term":     {},
	"ref":          {},
	"source":       {},
	"campaign":     {},
	"gh_src":       {},
	"lever-origin": {},
}

// NormalizeURL canonicalizes a posting URL for use as the identity key:
// lowercased host, no fragment, no trailing slash, tracking query
// parameters removed. Remaining query parameters are kept because some
// ATS platforms encode the posting ID in them.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty url")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url %q is not absolute", raw)
	}

	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")

	q := u.Query()
	for key := range q {
		if _, tracked := trackingParams[strings.ToLower(key)]; tracked {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}
