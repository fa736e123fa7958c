package capture

import (
	"net/url"
	"strings"
)

type ruleKind int

const (
	// ruleSuffix matches hostnames ending with the pattern ("*.bank.com").
	ruleSuffix ruleKind = iota
	// ruleSubstring matches hostnames containing the pattern. Substring
	// matching subsumes exact host equality, so plain rules land here; users
	// writing fragments like "bank" expect broad coverage, and over-blocking
	// is the safe direction for a privacy filter.
	ruleSubstring
)

type rule struct {
	kind    ruleKind
	pattern string
}

// Blacklist decides whether a host is disallowed for capture. Rules are
// classified once at construction instead of re-sniffing the raw strings on
// every match.
type Blacklist struct {
	rules []rule
}

// ParseRules splits a user-editable newline- or comma-separated rule list
// into trimmed, non-empty rule strings.
func ParseRules(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == ','
	})
	rules := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			rules = append(rules, f)
		}
	}
	return rules
}

// NewBlacklist compiles rule strings. Empty rules are dropped; a leading '*'
// marks a suffix-wildcard rule, anything else matches by substring.
func NewBlacklist(rules []string) *Blacklist {
	b := &Blacklist{}
	for _, raw := range rules {
		raw = strings.ToLower(strings.TrimSpace(raw))
		if raw == "" {
			continue
		}
		if strings.HasPrefix(raw, "*") {
			suffix := strings.TrimPrefix(raw, "*")
			if suffix == "" {
				continue
			}
			b.rules = append(b.rules, rule{kind: ruleSuffix, pattern: suffix})
			continue
		}
		b.rules = append(b.rules, rule{kind: ruleSubstring, pattern: raw})
	}
	return b
}

// Blocks reports whether the URL's host matches any rule. URLs that fail to
// parse are not blocked: capture of data is the risky direction, and a
// malformed URL carries no hostname to leak.
func (b *Blacklist) Blocks(rawURL string) bool {
	if b == nil || len(b.rules) == 0 {
		return false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return false
	}
	for _, r := range b.rules {
		switch r.kind {
		case ruleSuffix:
			if strings.HasSuffix(host, r.pattern) {
				return true
			}
		case ruleSubstring:
			if strings.Contains(host, r.pattern) {
				return true
			}
		}
	}
	return false
}

// Len returns the number of compiled rules.
func (b *Blacklist) Len() int {
	if b == nil {
		return 0
	}
	return len(b.rules)
}
