package capture

import (
	"net/url"
	"strings"
)

// NormalizeURL canonicalizes a URL for dedup and blacklist comparison by
// stripping the fragment component. Parse failures return the input
// unchanged: the normalized form is only a comparison key, so failing open
// is safe here. Idempotent.
func NormalizeURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	parsed.Fragment = ""
	parsed.RawFragment = ""
	return parsed.String()
}

// CleanSnippet collapses whitespace runs and bounds the snippet length.
// The upstream extractor already produces short excerpts; this guards
// against misbehaving producers feeding the export format directly.
func CleanSnippet(s string, maxChars int) string {
	s = strings.Join(strings.Fields(s), " ")
	if maxChars > 0 && len(s) > maxChars {
		s = s[:maxChars]
	}
	return s
}
