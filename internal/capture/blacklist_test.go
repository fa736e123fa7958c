package capture

import "testing"

func TestBlacklistWildcardSuffix(t *testing.T) {
	b := NewBlacklist([]string{"*.bank.com"})

	blocked := []string{
		"https://secure.bank.com/login",
		"https://pay.bank.com",
	}
	for _, u := range blocked {
		if !b.Blocks(u) {
			t.Errorf("expected %q blocked by *.bank.com", u)
		}
	}

	// The bare apex has no subdomain; the wildcard alone must not cover it.
	if b.Blocks("https://bank.com") {
		t.Error("*.bank.com should not block https://bank.com")
	}

	withExact := NewBlacklist([]string{"*.bank.com", "bank.com"})
	if !withExact.Blocks("https://bank.com") {
		t.Error("separate exact rule should block https://bank.com")
	}
}

func TestBlacklistExactHost(t *testing.T) {
	b := NewBlacklist([]string{"gmail.com"})
	if !b.Blocks("https://gmail.com/inbox") {
		t.Error("exact rule should block its host")
	}
	if b.Blocks("https://example.com") {
		t.Error("unrelated host should pass")
	}
}

func TestBlacklistSubstringFragment(t *testing.T) {
	// Users write partial fragments expecting broad coverage.
	b := NewBlacklist([]string{"bank"})
	if !b.Blocks("https://mybankonline.example/") {
		t.Error("substring fragment should match inside the hostname")
	}
	if b.Blocks("https://example.com/bank") {
		t.Error("substring matching applies to the host, not the path")
	}
}

func TestBlacklistCaseAndWhitespace(t *testing.T) {
	b := NewBlacklist([]string{"  GMail.COM  ", "", "   "})
	if b.Len() != 1 {
		t.Fatalf("expected 1 compiled rule, got %d", b.Len())
	}
	if !b.Blocks("https://GMAIL.com/") {
		t.Error("matching should be case-insensitive")
	}
}

func TestBlacklistFailsOpen(t *testing.T) {
	b := NewBlacklist([]string{"bank"})
	if b.Blocks("http://bad\x00url") {
		t.Error("unparseable URL must not be blocked")
	}
	if b.Blocks("/relative/path/bank") {
		t.Error("URL without a host must not be blocked")
	}
}

func TestParseRules(t *testing.T) {
	rules := ParseRules("gmail.com, *.bank.com\n health \n\n,")
	want := []string{"gmail.com", "*.bank.com", "health"}
	if len(rules) != len(want) {
		t.Fatalf("ParseRules = %v, want %v", rules, want)
	}
	for i := range want {
		if rules[i] != want[i] {
			t.Errorf("rule %d = %q, want %q", i, rules[i], want[i])
		}
	}
}
