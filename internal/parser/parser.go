// Package parser builds the typed semantic tree from raw policy checks. It
// never throws: structural problems become diagnostics keyed by
// (check_id, rule_index), and a check with any diagnostic is dropped from
// the tree while the rest of the policy is still built.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/iiicsti/scaaudit/internal/diagnostic"
	"github.com/iiicsti/scaaudit/internal/policy"
	"github.com/iiicsti/scaaudit/internal/rule"
)

const arrow = " -> "

// Builder parses a Policy's raw checks into a Tree, accumulating
// diagnostics across the whole run.
type Builder struct {
	diags []diagnostic.Diagnostic
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// Diagnostics returns every diagnostic accumulated across all Build calls
// so far.
func (b *Builder) Diagnostics() []diagnostic.Diagnostic {
	return b.diags
}

// Build parses every check in pol, returning a Tree holding only the
// checks that parsed cleanly. Diagnostics for dropped checks are retrieved
// via Diagnostics.
func (b *Builder) Build(pol policy.Policy) rule.Tree {
	tree := rule.Tree{OSFamily: pol.OSFamily}
	for _, ch := range pol.Checks {
		if node, ok := b.buildCheck(ch); ok {
			tree.Checks = append(tree.Checks, node)
		}
	}
	return tree
}

func (b *Builder) addError(code diagnostic.Code, detail string, checkID, ruleIndex int) {
	b.diags = append(b.diags, diagnostic.New(code, detail, checkID, ruleIndex))
}

func (b *Builder) buildCheck(ch policy.Check) (rule.ConditionNode, bool) {
	id, ok := toInt(ch.ID)
	if !ok {
		b.addError(diagnostic.InvalidID, fmt.Sprintf("invalid id type: %v", ch.ID), 0, 0)
		return rule.ConditionNode{}, false
	}

	cond := rule.Condition(ch.Condition)
	if cond != rule.ConditionAll && cond != rule.ConditionAny && cond != rule.ConditionNone {
		b.addError(diagnostic.InvalidCondition, fmt.Sprintf("invalid condition: %q", ch.Condition), id, 0)
		return rule.ConditionNode{}, false
	}

	before := len(b.diags)
	node := rule.ConditionNode{ID: id, Condition: cond}

	for i, raw := range ch.Rules {
		b.parseRule(&node, raw, id, i+1)
	}

	if hasErrorFor(b.diags[before:], id) {
		return rule.ConditionNode{}, false
	}
	return node, true
}

func hasErrorFor(diags []diagnostic.Diagnostic, id int) bool {
	for _, d := range diags {
		if d.CheckID == id {
			return true
		}
	}
	return false
}

// parseRule dispatches a single raw rule string onto the matching typed
// rule slice of node, appending diagnostics on failure.
func (b *Builder) parseRule(node *rule.ConditionNode, raw string, id, idx int) {
	negated := strings.HasPrefix(raw, "not ")
	if negated {
		raw = raw[len("not "):]
	}

	switch {
	case strings.HasPrefix(raw, "f:"):
		b.parseFileRule(node, raw[2:], negated, id, idx)
	case strings.HasPrefix(raw, "d:"):
		b.parseDirectoryRule(node, raw[2:], negated, id, idx)
	case strings.HasPrefix(raw, "c:"):
		b.parseCommandRule(node, raw[2:], negated, id, idx)
	case strings.HasPrefix(raw, "p:"):
		b.parseProcessRule(node, raw[2:], negated, id, idx)
	case strings.HasPrefix(raw, "r:"):
		b.parseRegistryRule(node, raw[2:], negated, id, idx)
	default:
		b.addError(diagnostic.UnknownRuleType, raw, id, idx)
	}
}

func (b *Builder) parseFileRule(node *rule.ConditionNode, body string, negated bool, id, idx int) {
	parts := strings.Split(body, arrow)
	if len(parts) == 0 || len(parts) > 2 || strings.TrimSpace(parts[0]) == "" {
		b.addError(diagnostic.InvalidFileRule, fmt.Sprintf("invalid rule format: %s", body), id, idx)
		return
	}

	var contentRules []rule.ContentRule
	if len(parts) == 2 {
		cr, ok := b.parseContentConjunction(parts[1], "file", id, idx)
		if !ok {
			b.addError(diagnostic.InvalidFileRule, fmt.Sprintf("failed to parse content rules: %s", parts[1]), id, idx)
			return
		}
		contentRules = cr
	}

	for _, target := range strings.Split(parts[0], ",") {
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		fr := rule.FileRule{
			Node:         rule.ExecutionNode{Kind: rule.KindFile, MainTarget: target},
			ContentRules: contentRules,
			Negated:      negated,
		}
		node.FileRules = append(node.FileRules, fr)
		node.RuleOrder = append(node.RuleOrder, rule.RuleRef{Kind: rule.KindFile, Index: len(node.FileRules) - 1})
	}
}

func (b *Builder) parseDirectoryRule(node *rule.ConditionNode, body string, negated bool, id, idx int) {
	parts := strings.Split(body, arrow)
	if len(parts) == 0 || strings.TrimSpace(parts[0]) == "" {
		b.addError(diagnostic.InvalidDirectoryRule, fmt.Sprintf("invalid rule format: %s", body), id, idx)
		return
	}

	for _, dir := range strings.Split(parts[0], ",") {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}

		dr := rule.DirectoryRule{
			Node:    rule.ExecutionNode{Kind: rule.KindDirectory, MainTarget: dir},
			Negated: negated,
		}

		if len(parts) > 1 {
			filePart := strings.TrimSpace(parts[1])
			innerNegated := strings.HasPrefix(filePart, "!")
			if innerNegated {
				filePart = filePart[1:]
			}

			var innerNode rule.ExecutionNode
			if strings.HasPrefix(filePart, "r:") {
				innerNode = rule.ExecutionNode{Kind: rule.KindFile, TargetPattern: strings.TrimSpace(filePart[2:])}
			} else {
				innerNode = rule.ExecutionNode{Kind: rule.KindFile, MainTarget: filePart}
			}

			var contentRules []rule.ContentRule
			if len(parts) > 2 {
				cr, ok := b.parseContentConjunction(strings.Join(parts[2:], arrow), "directory", id, idx)
				if !ok {
					b.addError(diagnostic.InvalidDirectoryRule, fmt.Sprintf("failed to parse content rules: %s", parts[2]), id, idx)
					return
				}
				contentRules = cr
			}

			dr.FileRules = append(dr.FileRules, rule.FileRule{
				Node:         innerNode,
				ContentRules: contentRules,
				Negated:      innerNegated,
			})
		}

		node.DirectoryRules = append(node.DirectoryRules, dr)
		node.RuleOrder = append(node.RuleOrder, rule.RuleRef{Kind: rule.KindDirectory, Index: len(node.DirectoryRules) - 1})
	}
}

func (b *Builder) parseCommandRule(node *rule.ConditionNode, body string, negated bool, id, idx int) {
	body = strings.ReplaceAll(body, " -> -> ", arrow)
	parts := strings.Split(body, arrow)
	if len(parts) < 2 {
		b.addError(diagnostic.InvalidCommandRule, body, id, idx)
		return
	}

	if err := validateShellSyntax(parts[0]); err != nil {
		b.addError(diagnostic.InvalidCommandRule, fmt.Sprintf("command is not valid shell syntax: %v", err), id, idx)
		return
	}

	execNode := rule.ExecutionNode{Kind: rule.KindCommand, MainTarget: strings.TrimSpace(parts[0])}

	var contentRules []rule.ContentRule
	first, ok := b.parseContentConjunction(strings.TrimSpace(parts[1]), "command", id, idx)
	if !ok {
		return
	}
	contentRules = append(contentRules, first...)

	if len(parts) > 2 {
		second, ok := b.parseContentConjunction(strings.TrimSpace(strings.Join(parts[2:], arrow)), "command", id, idx)
		if !ok {
			b.addError(diagnostic.InvalidCommandRule, fmt.Sprintf("failed to parse second level content rules: %s", parts[2]), id, idx)
			return
		}
		contentRules = append(contentRules, second...)
	}

	node.CommandRules = append(node.CommandRules, rule.CommandRule{
		Node:         execNode,
		ContentRules: contentRules,
		Negated:      negated,
	})
	node.RuleOrder = append(node.RuleOrder, rule.RuleRef{Kind: rule.KindCommand, Index: len(node.CommandRules) - 1})
}

// validateShellSyntax rejects a command target that would never parse as
// POSIX shell, surfacing the break at parse time instead of mid-run on the
// target host.
func validateShellSyntax(cmd string) error {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return fmt.Errorf("empty command")
	}
	p := syntax.NewParser(syntax.Variant(syntax.LangPOSIX))
	_, err := p.Parse(strings.NewReader(cmd), "")
	return err
}

func (b *Builder) parseProcessRule(node *rule.ConditionNode, body string, negated bool, id, idx int) {
	var execNode rule.ExecutionNode
	if strings.HasPrefix(body, "r:") {
		execNode = rule.ExecutionNode{Kind: rule.KindProcess, TargetPattern: body[2:]}
	} else {
		execNode = rule.ExecutionNode{Kind: rule.KindProcess, MainTarget: body}
	}
	node.ProcessRules = append(node.ProcessRules, rule.ProcessRule{Node: execNode, Negated: negated})
	node.RuleOrder = append(node.RuleOrder, rule.RuleRef{Kind: rule.KindProcess, Index: len(node.ProcessRules) - 1})
}

func (b *Builder) parseRegistryRule(node *rule.ConditionNode, body string, negated bool, id, idx int) {
	parts := strings.Split(body, arrow)
	if len(parts) < 1 || strings.TrimSpace(parts[0]) == "" {
		b.addError(diagnostic.InvalidRegistryRule, body, id, idx)
		return
	}

	execNode := rule.ExecutionNode{Kind: rule.KindRegistry, MainTarget: strings.TrimSpace(parts[0])}
	if len(parts) > 1 {
		execNode.SubTarget = strings.TrimSpace(parts[1])
	}

	var contentRules []rule.ContentRule
	if len(parts) > 2 {
		cr, ok := b.parseContentConjunction(strings.Join(parts[2:], arrow), "registry", id, idx)
		if !ok {
			b.addError(diagnostic.InvalidRegistryRule, body, id, idx)
			return
		}
		contentRules = cr
	}

	node.RegistryRules = append(node.RegistryRules, rule.RegistryRule{
		Node:         execNode,
		ContentRules: contentRules,
		Negated:      negated,
	})
	node.RuleOrder = append(node.RuleOrder, rule.RuleRef{Kind: rule.KindRegistry, Index: len(node.RegistryRules) - 1})
}

// parseContentConjunction splits a content-rule expression on " && " and
// parses each predicate. caller selects registry's bare-literal exception.
func (b *Builder) parseContentConjunction(expr, caller string, id, idx int) ([]rule.ContentRule, bool) {
	var out []rule.ContentRule
	for _, part := range strings.Split(expr, " && ") {
		part = strings.TrimSpace(part)
		negated := strings.HasPrefix(part, "!")
		if negated {
			part = part[1:]
		}

		if caller == "registry" && part != "" && !strings.HasPrefix(part, "r:") && !strings.HasPrefix(part, "n:") {
			out = append(out, rule.ContentRule{Raw: part, Negated: negated, Pattern: part})
			continue
		}

		switch {
		case strings.HasPrefix(part, "r:"):
			pattern := strings.TrimSpace(part[2:])
			if !isValidRegex(pattern) {
				b.addError(diagnostic.InvalidContentOperatorP, fmt.Sprintf("invalid regex in rule: %s", part), id, idx)
				return nil, false
			}
			out = append(out, rule.ContentRule{Raw: part, Negated: negated, IsRegex: true, Pattern: pattern})

		case strings.HasPrefix(part, "n:"):
			cr, ok := b.parseNumericRule(part[2:], negated, id, idx)
			if !ok {
				return nil, false
			}
			out = append(out, cr)

		default:
			b.addError(diagnostic.InvalidContentOperatorP, fmt.Sprintf("rule must start with 'r:' or 'n:': %s", part), id, idx)
			return nil, false
		}
	}
	return out, true
}

var numericRulePattern = regexp.MustCompile(`^(.*?)\s+compare\s+([<>]=?|==|!=)\s*(\d+)$`)

func (b *Builder) parseNumericRule(body string, negated bool, id, idx int) (rule.ContentRule, bool) {
	body = strings.TrimSpace(body)
	m := numericRulePattern.FindStringSubmatch(body)
	if m == nil {
		b.addError(diagnostic.InvalidCompareExpression, fmt.Sprintf("numeric rule format error: %s", body), id, idx)
		return rule.ContentRule{}, false
	}

	regex, op, numStr := m[1], m[2], m[3]
	if !isValidRegex(regex) {
		b.addError(diagnostic.InvalidCompareExpression, fmt.Sprintf("invalid regex in numeric rule: %s", regex), id, idx)
		return rule.ContentRule{}, false
	}
	val, err := strconv.Atoi(numStr)
	if err != nil {
		b.addError(diagnostic.InvalidCompareExpression, fmt.Sprintf("invalid integer in numeric rule: %s", numStr), id, idx)
		return rule.ContentRule{}, false
	}

	return rule.ContentRule{
		Raw:        "n:" + body,
		Negated:    negated,
		IsNumeric:  true,
		Pattern:    regex,
		CompareOp:  op,
		CompareVal: val,
	}, true
}

func isValidRegex(pattern string) bool {
	_, err := regexp.Compile(pattern)
	return err == nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
		return 0, false
	default:
		return 0, false
	}
}
