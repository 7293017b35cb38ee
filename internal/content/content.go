// Package content evaluates ContentRule predicates — literal, regex, and
// numeric — against a line-oriented text body, with the two independent
// negation layers the rule DSL requires.
package content

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/iiicsti/scaaudit/internal/rule"
)

// Matcher compiles and caches regexes for the lifetime of a run. Rules are
// immutable once parsed, so a single Matcher may be reused across every
// check in a policy.
type Matcher struct {
	cache map[string]*regexp.Regexp
}

// New returns a Matcher with an empty regex cache.
func New() *Matcher {
	return &Matcher{cache: make(map[string]*regexp.Regexp)}
}

// Match evaluates rules against body, a text blob split on newlines, and
// returns the final boolean after the rule-level negation (negated) has
// been applied. An empty body with no rules matches true (existence
// satisfied); an empty body with any rule matches false, before negation.
func (m *Matcher) Match(body string, rules []rule.ContentRule, negated bool) bool {
	lines := splitLines(body)

	var result bool
	if len(lines) == 0 {
		result = len(rules) == 0
	} else {
		result = m.anyLineMatches(lines, rules)
	}

	if negated {
		return !result
	}
	return result
}

// anyLineMatches implements the existential-over-lines reduction: the body
// matches as soon as one line satisfies every rule, and no further lines
// are inspected after that.
func (m *Matcher) anyLineMatches(lines []string, rules []rule.ContentRule) bool {
	for _, line := range lines {
		if m.lineMatchesAll(line, rules) {
			return true
		}
	}
	return false
}

func (m *Matcher) lineMatchesAll(line string, rules []rule.ContentRule) bool {
	for _, r := range rules {
		if !m.predicateMatches(line, r) {
			return false
		}
	}
	return true
}

func (m *Matcher) predicateMatches(line string, r rule.ContentRule) bool {
	var matched bool
	switch {
	case r.IsNumeric:
		matched = m.numericMatches(line, r)
	case r.IsRegex:
		matched = m.regexFor(r.Pattern).MatchString(line)
	default:
		matched = strings.Contains(line, r.Pattern)
	}
	if r.Negated {
		return !matched
	}
	return matched
}

// numericMatches runs the capture-group regex against line, parses group 1
// as a decimal integer, and compares it to CompareVal under CompareOp. Any
// failure along the way — no match, unparsable capture — yields false
// rather than propagating an error.
func (m *Matcher) numericMatches(line string, r rule.ContentRule) bool {
	re := m.regexFor(r.Pattern)
	groups := re.FindStringSubmatch(line)
	if len(groups) < 2 {
		return false
	}
	captured, err := strconv.Atoi(groups[1])
	if err != nil {
		return false
	}
	return compare(captured, r.CompareOp, r.CompareVal)
}

func compare(a int, op string, b int) bool {
	switch op {
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	case ">=":
		return a >= b
	case "==":
		return a == b
	case "!=":
		return a != b
	default:
		return false
	}
}

// regexFor returns the compiled regex for pattern, compiling and caching it
// on first use. Callers (the parser) are expected to have already rejected
// uncompilable patterns at parse time, so a compile failure here is a
// programming-error fallback: it compiles to a never-matching regex rather
// than panicking mid-run.
func (m *Matcher) regexFor(pattern string) *regexp.Regexp {
	if re, ok := m.cache[pattern]; ok {
		return re
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		re = regexp.MustCompile(`$.^`) // matches nothing
	}
	m.cache[pattern] = re
	return re
}

func splitLines(body string) []string {
	if body == "" {
		return nil
	}
	return strings.Split(body, "\n")
}
