package content

import (
	"testing"

	"github.com/iiicsti/scaaudit/internal/rule"
)

func TestMatch_LiteralFound(t *testing.T) {
	m := New()
	body := "Protocol 1\nPort 22\n"
	rules := []rule.ContentRule{{Pattern: "Port 22"}}
	if !m.Match(body, rules, false) {
		t.Error("expected literal match on existing line")
	}
}

func TestMatch_LiteralNotFound(t *testing.T) {
	m := New()
	body := "Protocol 1\n"
	rules := []rule.ContentRule{{Pattern: "Port 22"}}
	if m.Match(body, rules, false) {
		t.Error("expected no match for absent literal")
	}
}

func TestMatch_RegexNegatedPredicate(t *testing.T) {
	m := New()
	body := "PermitRootLogin no\n"
	rules := []rule.ContentRule{{Pattern: `^#`, IsRegex: true, Negated: true}}
	if !m.Match(body, rules, false) {
		t.Error("expected !r:^# to match an uncommented line")
	}
}

func TestMatch_RuleLevelNegationInvolution(t *testing.T) {
	m := New()
	body := "Port 22\n"
	rules := []rule.ContentRule{{Pattern: "Port 22"}}
	plain := m.Match(body, rules, false)
	negated := m.Match(body, rules, true)
	if plain == negated {
		t.Errorf("rule-level negation should flip the result: plain=%v negated=%v", plain, negated)
	}
	doubleNegated := !negated
	if doubleNegated != plain {
		t.Error("double negation should return to the original result")
	}
}

func TestMatch_ConjunctionRequiresSameLine(t *testing.T) {
	m := New()
	body := "MaxAuthTries 3\nPermitRootLogin no\n"
	rules := []rule.ContentRule{
		{Pattern: "MaxAuthTries"},
		{Pattern: "PermitRootLogin"},
	}
	if m.Match(body, rules, false) {
		t.Error("conjunction across different lines should not match")
	}
}

func TestMatch_ConjunctionSameLine(t *testing.T) {
	m := New()
	body := "MaxAuthTries 3 PermitRootLogin no\n"
	rules := []rule.ContentRule{
		{Pattern: "MaxAuthTries"},
		{Pattern: "PermitRootLogin"},
	}
	if !m.Match(body, rules, false) {
		t.Error("expected both predicates to match the same line")
	}
}

func TestMatch_NumericComparePass(t *testing.T) {
	m := New()
	body := "MaxAuthTries 3\n"
	rules := []rule.ContentRule{{
		Pattern:    `MaxAuthTries\s+(\d+)`,
		IsRegex:    true,
		IsNumeric:  true,
		CompareOp:  "<=",
		CompareVal: 4,
	}}
	if !m.Match(body, rules, false) {
		t.Error("expected 3 <= 4 to pass")
	}
}

func TestMatch_NumericCompareFail(t *testing.T) {
	m := New()
	body := "MaxAuthTries 6\n"
	rules := []rule.ContentRule{{
		Pattern:    `MaxAuthTries\s+(\d+)`,
		IsRegex:    true,
		IsNumeric:  true,
		CompareOp:  "<=",
		CompareVal: 4,
	}}
	if m.Match(body, rules, false) {
		t.Error("expected 6 <= 4 to fail")
	}
}

func TestMatch_EmptyBodyNoRulesSatisfiesExistence(t *testing.T) {
	m := New()
	if !m.Match("", nil, false) {
		t.Error("empty body with no rules should satisfy existence")
	}
}

func TestMatch_EmptyBodyWithRulesFails(t *testing.T) {
	m := New()
	rules := []rule.ContentRule{{Pattern: "anything"}}
	if m.Match("", rules, false) {
		t.Error("empty body with a rule present should not match")
	}
}

func TestMatch_UncompilablePatternNeverMatches(t *testing.T) {
	m := New()
	body := "some line\n"
	rules := []rule.ContentRule{{Pattern: "(unclosed", IsRegex: true}}
	if m.Match(body, rules, false) {
		t.Error("an uncompilable regex should never match, not panic")
	}
}

func TestMatch_RegexCacheReused(t *testing.T) {
	m := New()
	pattern := `^Port \d+$`
	m.regexFor(pattern)
	if len(m.cache) != 1 {
		t.Fatalf("expected 1 cached regex, got %d", len(m.cache))
	}
	m.regexFor(pattern)
	if len(m.cache) != 1 {
		t.Errorf("expected cache reuse, got %d entries", len(m.cache))
	}
}
