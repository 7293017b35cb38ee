// Package policy decodes the on-disk YAML form of a compliance policy into
// the raw input the parser consumes: an OS family tag and an ordered list
// of checks, each a bag of raw DSL rule strings.
package policy

// Check is one raw, undecoded check: an id, a combination condition, and
// the rule strings that feed it. ID is left untyped so a malformed policy
// (e.g. a quoted id in YAML) surfaces as a parser diagnostic rather than a
// decode-time panic.
type Check struct {
	ID        any      `yaml:"id"`
	Condition string   `yaml:"condition"`
	Rules     []string `yaml:"rules"`
}

// Policy is the decoded form of a policy document.
type Policy struct {
	// OSFamily is the family the rules were authored against: "linux" or
	// "windows". The executor refuses to run a policy against a
	// mismatched target.
	OSFamily string  `yaml:"os"`
	Checks   []Check `yaml:"checks"`
}
