package executor

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/iiicsti/scaaudit/internal/content"
	"github.com/iiicsti/scaaudit/internal/oscmd"
	"github.com/iiicsti/scaaudit/internal/rule"
	"github.com/iiicsti/scaaudit/internal/shell"
)

// CheckResult is one check's outcome: pass/fail, its combination
// condition, and the per-rule booleans that fed it, in source order.
type CheckResult struct {
	Result      string
	Condition   rule.Condition
	RuleResults []bool
}

// Results is the produced report: a mapping of check id to its outcome.
type Results struct {
	Success bool
	Checks  map[int]CheckResult
	Error   string
}

// TreeExecutor is the top-level driver: it owns one connected shell for
// the lifetime of a run and walks every check in a Tree sequentially.
type TreeExecutor struct {
	node    *NodeExecutor
	matcher *content.Matcher
}

// NewTreeExecutor returns a TreeExecutor bound to an already-connected
// shell and the OS family its probe commands are built for. Execute
// detects the target's actual family separately.
func NewTreeExecutor(cl *shell.Client, family oscmd.Family) *TreeExecutor {
	return &TreeExecutor{
		node:    NewNodeExecutor(cl, family),
		matcher: content.New(),
	}
}

// Execute walks every check in tree in order. A mismatch between the
// tree's declared OS family and the detected target family aborts the
// whole run; any other per-rule failure is recorded as false and the walk
// continues.
func (e *TreeExecutor) Execute(ctx context.Context, tree rule.Tree) Results {
	actual, err := e.node.DetectFamily(ctx)
	if err != nil {
		return Results{Success: false, Error: err.Error()}
	}
	if string(actual) != tree.OSFamily {
		return Results{Success: false, Error: fmt.Sprintf("%s: declared %s, detected %s", "mismatch in OS types", tree.OSFamily, actual)}
	}

	checks := make(map[int]CheckResult, len(tree.Checks))
	for _, node := range tree.Checks {
		ruleResults := e.executeCheck(ctx, node)
		checks[node.ID] = CheckResult{
			Result:      passFail(reduce(node.Condition, ruleResults)),
			Condition:   node.Condition,
			RuleResults: ruleResults,
		}
	}
	return Results{Success: true, Checks: checks}
}

func (e *TreeExecutor) executeCheck(ctx context.Context, node rule.ConditionNode) []bool {
	results := make([]bool, 0, len(node.RuleOrder))
	for _, ref := range node.RuleOrder {
		switch ref.Kind {
		case rule.KindFile:
			results = append(results, e.executeFileRule(ctx, node.FileRules[ref.Index]))
		case rule.KindDirectory:
			results = append(results, e.executeDirectoryRule(ctx, node.DirectoryRules[ref.Index])...)
		case rule.KindCommand:
			results = append(results, e.executeCommandRule(ctx, node.CommandRules[ref.Index]))
		case rule.KindProcess:
			results = append(results, e.executeProcessRule(ctx, node.ProcessRules[ref.Index]))
		case rule.KindRegistry:
			results = append(results, e.executeRegistryRule(ctx, node.RegistryRules[ref.Index]))
		}
	}
	return results
}

func (e *TreeExecutor) executeFileRule(ctx context.Context, fr rule.FileRule) bool {
	outcome, _ := e.node.Execute(ctx, fr.Node)
	if !outcome.Success {
		return negate(fr.Negated, outcome.Success)
	}
	if len(fr.ContentRules) == 0 {
		return negate(fr.Negated, true)
	}
	body := e.node.ReadFile(ctx, fr.Node.MainTarget)
	if !body.Success {
		return negate(fr.Negated, false)
	}
	return e.matcher.Match(body.Output, fr.ContentRules, fr.Negated)
}

// executeDirectoryRule implements §4.6 step 2: an existence probe on the
// directory, then — when an inner FileRule is present — delegation to it
// either over a discovered file set (pattern) or a single literal path
// joined under the directory.
func (e *TreeExecutor) executeDirectoryRule(ctx context.Context, dr rule.DirectoryRule) []bool {
	dirOutcome, _ := e.node.Execute(ctx, dr.Node)
	if len(dr.FileRules) == 0 {
		return []bool{negate(dr.Negated, dirOutcome.Success)}
	}

	inner := dr.FileRules[0]
	if !dirOutcome.Success {
		return []bool{negate(dr.Negated, false)}
	}

	innerBool := e.executeDirectoryInnerFileRule(ctx, dr.Node.MainTarget, inner)
	return []bool{negate(dr.Negated, innerBool)}
}

func (e *TreeExecutor) executeDirectoryInnerFileRule(ctx context.Context, dir string, inner rule.FileRule) bool {
	if inner.Node.TargetPattern != "" {
		outcome, files := e.node.Execute(ctx, rule.ExecutionNode{
			Kind:          rule.KindFile,
			MainTarget:    dir,
			TargetPattern: inner.Node.TargetPattern,
		})
		if !outcome.Success {
			return negate(inner.Negated, false)
		}
		return e.anyFileMatches(ctx, files, inner)
	}

	target := inner.Node.MainTarget
	if !strings.HasPrefix(target, "/") {
		target = path.Join(dir, target)
	}
	fr := inner
	fr.Node.MainTarget = target
	return e.executeFileRule(ctx, fr)
}

// anyFileMatches is the existential-over-files reduction: the FileRule
// matches as soon as one discovered file's content matches.
func (e *TreeExecutor) anyFileMatches(ctx context.Context, files []string, inner rule.FileRule) bool {
	if len(inner.ContentRules) == 0 {
		return negate(inner.Negated, len(files) > 0)
	}
	for _, f := range files {
		body := e.node.ReadFile(ctx, f)
		if !body.Success {
			continue
		}
		if e.matcher.Match(body.Output, inner.ContentRules, false) {
			return negate(inner.Negated, true)
		}
	}
	return negate(inner.Negated, false)
}

func (e *TreeExecutor) executeCommandRule(ctx context.Context, cr rule.CommandRule) bool {
	outcome, _ := e.node.Execute(ctx, cr.Node)
	if !outcome.Success {
		return negate(cr.Negated, outcome.Success)
	}
	return e.matcher.Match(outcome.Output, cr.ContentRules, cr.Negated)
}

func (e *TreeExecutor) executeProcessRule(ctx context.Context, pr rule.ProcessRule) bool {
	outcome, _ := e.node.Execute(ctx, pr.Node)
	return negate(pr.Negated, outcome.Success)
}

func (e *TreeExecutor) executeRegistryRule(ctx context.Context, rr rule.RegistryRule) bool {
	outcome, _ := e.node.Execute(ctx, rr.Node)
	if !outcome.Success {
		return negate(rr.Negated, outcome.Success)
	}
	return e.matcher.Match(outcome.Output, rr.ContentRules, rr.Negated)
}

func negate(negated, value bool) bool {
	if negated {
		return !value
	}
	return value
}

func reduce(cond rule.Condition, results []bool) bool {
	switch cond {
	case rule.ConditionAll:
		for _, r := range results {
			if !r {
				return false
			}
		}
		return true
	case rule.ConditionAny:
		for _, r := range results {
			if r {
				return true
			}
		}
		return false
	case rule.ConditionNone:
		for _, r := range results {
			if r {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func passFail(ok bool) string {
	if ok {
		return "pass"
	}
	return "fail"
}
