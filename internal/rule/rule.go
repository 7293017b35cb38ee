// Package rule defines the semantic tree's data model: the typed rule kinds
// a TreeBuilder produces and a TreeExecutor consumes. Nothing in this
// package touches parsing or execution — it is pure structure.
package rule

// Kind identifies which of the five rule families a parsed rule belongs to.
type Kind string

const (
	KindFile      Kind = "f"
	KindDirectory Kind = "d"
	KindCommand   Kind = "c"
	KindProcess   Kind = "p"
	KindRegistry  Kind = "r"
)

// Condition is how a check's rule results combine into a single boolean.
type Condition string

const (
	ConditionAll  Condition = "all"
	ConditionAny  Condition = "any"
	ConditionNone Condition = "none"
)

// ContentRule is one predicate applied to a line of output or file content.
// The parser sets exactly one of IsRegex/IsNumeric when the predicate was
// written with the corresponding prefix (`r:`/`n:`); otherwise it is a literal
// substring test, or — inside a registry rule — a bare sub-target value.
type ContentRule struct {
	// Raw is the content rule exactly as written, kept for diagnostics.
	Raw string

	// Negated is the `!` prefix on this individual predicate, applied
	// before the per-line conjunction — distinct from a rule's own
	// Negated field, which flips the final existential result.
	Negated bool

	IsRegex   bool
	IsNumeric bool

	// Pattern is the literal or regex text to match, with any `r:`/`n:`
	// prefix stripped.
	Pattern string

	// Numeric comparison, only populated when IsNumeric.
	CompareOp  string // one of <, <=, >, >=, ==, !=
	CompareVal int
}

// Canonical re-renders a ContentRule to its normalized textual form,
// independent of incidental whitespace in the source. Parsing Canonical()
// again yields an equal ContentRule.
func (c ContentRule) Canonical() string {
	s := c.Pattern
	switch {
	case c.IsNumeric:
		s = "n:" + s + " compare " + c.CompareOp + " " + itoa(c.CompareVal)
	case c.IsRegex:
		s = "r:" + s
	}
	if c.Negated {
		s = "!" + s
	}
	return s
}

// ExecutionNode is the common probe descriptor every rule kind embeds.
type ExecutionNode struct {
	Kind Kind

	// MainTarget is the rule's primary argument: a path, a command string,
	// a process name, or a registry key, depending on Kind. Empty when
	// TargetPattern is used instead (a directory's inner file pattern, or
	// a process rule's `r:` pattern).
	MainTarget string

	// SubTarget is the registry value name following a key's first " -> "
	// segment. Only meaningful for KindRegistry.
	SubTarget string

	// TargetPattern is a regex substituted for MainTarget when the rule
	// used an `r:` prefix instead of a literal target.
	TargetPattern string
}

// FileRule checks for the existence, and optionally the content, of a file.
type FileRule struct {
	Node         ExecutionNode
	ContentRules []ContentRule
	Negated      bool
}

// DirectoryRule checks a directory, optionally scoped to an inner file rule
// (the `!pattern` / `r:pattern` clause, with its own content rules, between
// the first and second ` -> `).
type DirectoryRule struct {
	Node      ExecutionNode
	FileRules []FileRule
	Negated   bool
}

// CommandRule runs a shell command remotely and inspects its combined
// stdout+stderr against content rules.
type CommandRule struct {
	Node         ExecutionNode
	ContentRules []ContentRule
	Negated      bool
}

// ProcessRule checks whether a process matching a name or pattern is
// currently running.
type ProcessRule struct {
	Node    ExecutionNode
	Negated bool
}

// RegistryRule checks a Windows registry key, and optionally a named value
// beneath it, against content rules.
type RegistryRule struct {
	Node         ExecutionNode
	ContentRules []ContentRule
	Negated      bool
}

// RuleRef locates one rule within its ConditionNode's kind-specific slice,
// preserving the original source ordering across kinds.
type RuleRef struct {
	Kind  Kind
	Index int
}

// ConditionNode is one check: an id, a combination condition, and the rules
// that feed it. It is the unit a TreeBuilder emits and a TreeExecutor
// consumes.
type ConditionNode struct {
	ID        int
	Condition Condition

	FileRules      []FileRule
	DirectoryRules []DirectoryRule
	CommandRules   []CommandRule
	ProcessRules   []ProcessRule
	RegistryRules  []RegistryRule

	RuleOrder []RuleRef
}

// Tree is the parsed output for an entire policy: one ConditionNode per
// check that parsed cleanly, plus the OS family the rules were written for.
type Tree struct {
	OSFamily string
	Checks   []ConditionNode
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
