// Package executor walks a parsed semantic tree against a connected
// shell, issuing OS-specific probes and reducing their outcomes under
// each check's condition.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/iiicsti/scaaudit/internal/diagnostic"
	"github.com/iiicsti/scaaudit/internal/oscmd"
	"github.com/iiicsti/scaaudit/internal/pathexpand"
	"github.com/iiicsti/scaaudit/internal/rule"
	"github.com/iiicsti/scaaudit/internal/shell"
)

// Outcome is the result of probing one ExecutionNode: whether the probe
// itself succeeded, and the text a ContentMatcher should evaluate.
type Outcome struct {
	Success bool
	Output  string
	Err     error
}

// NodeExecutor runs a single ExecutionNode against a connected shell
// session, dispatching to the OS-specific probe command for its kind.
type NodeExecutor struct {
	shell   *shell.Client
	builder oscmd.Builder
	family  oscmd.Family

	// Elevate requests sudo -S escalation on every Linux probe, matching
	// the source's uniform elevation policy.
	Elevate bool
}

// NewNodeExecutor returns a NodeExecutor bound to an already-connected
// shell and a target OS family.
func NewNodeExecutor(cl *shell.Client, family oscmd.Family) *NodeExecutor {
	return &NodeExecutor{
		shell:   cl,
		builder: oscmd.New(family),
		family:  family,
		Elevate: true,
	}
}

// DetectFamily runs uname once and classifies the target as linux or
// windows, per the probe table's single detection point.
func (e *NodeExecutor) DetectFamily(ctx context.Context) (oscmd.Family, error) {
	res, err := e.shell.Exec(ctx, "uname")
	if err != nil {
		return "", fmt.Errorf("%s: %w", diagnostic.OSDetectionFailed.Message(), err)
	}
	if strings.Contains(res.Stdout, "Linux") {
		return oscmd.Linux, nil
	}
	return oscmd.Windows, nil
}

// Execute runs node and returns its Outcome plus any discovered file list
// (populated only for a file node carrying a target pattern).
func (e *NodeExecutor) Execute(ctx context.Context, node rule.ExecutionNode) (Outcome, []string) {
	switch node.Kind {
	case rule.KindFile, rule.KindDirectory:
		node.MainTarget = pathexpand.Expand(node.MainTarget, e.shell.HomeDir)
	}

	switch node.Kind {
	case rule.KindFile:
		if node.TargetPattern != "" {
			return e.listFilesWithPattern(ctx, node)
		}
		return e.checkFileExists(ctx, node), nil
	case rule.KindDirectory:
		return e.checkDirectoryExists(ctx, node), nil
	case rule.KindCommand:
		return e.runCommand(ctx, node), nil
	case rule.KindProcess:
		return e.checkProcessExists(ctx, node), nil
	case rule.KindRegistry:
		return e.checkRegistry(ctx, node), nil
	default:
		return Outcome{Err: diagnostic.New(diagnostic.InvalidNodeType, string(node.Kind), 0, 0)}, nil
	}
}

// ReadFile dumps a file's full contents, for content-rule evaluation.
func (e *NodeExecutor) ReadFile(ctx context.Context, path string) Outcome {
	path = pathexpand.Expand(path, e.shell.HomeDir)
	cmd, err := e.builder.ReadFile(path)
	if err != nil {
		return Outcome{Err: err}
	}
	res, err := e.exec(ctx, cmd)
	if err != nil {
		return Outcome{Err: fmt.Errorf("%s: %w", diagnostic.FileReadFailed.Message(), err)}
	}
	return Outcome{Success: true, Output: combinedOutput(res)}
}

func (e *NodeExecutor) checkFileExists(ctx context.Context, node rule.ExecutionNode) Outcome {
	if node.SubTarget != "" {
		return Outcome{Err: diagnostic.New(diagnostic.InvalidConfiguration, "sub_target set on file node", 0, 0)}
	}
	cmd, err := e.builder.FileExists(node.MainTarget)
	if err != nil {
		return Outcome{Err: err}
	}
	res, err := e.exec(ctx, cmd)
	if err != nil {
		return Outcome{Err: fmt.Errorf("%s: %w", diagnostic.ShellExecFailed.Message(), err)}
	}
	out := res.Stdout
	switch {
	case strings.Contains(out, "not exists"):
		return Outcome{Success: false, Output: node.MainTarget}
	case strings.Contains(out, "exists"):
		return Outcome{Success: true, Output: node.MainTarget}
	default:
		return Outcome{Err: fmt.Errorf("unexpected output from file existence probe: %q", out)}
	}
}

func (e *NodeExecutor) checkDirectoryExists(ctx context.Context, node rule.ExecutionNode) Outcome {
	if node.SubTarget != "" || node.TargetPattern != "" {
		return Outcome{Err: diagnostic.New(diagnostic.InvalidConfiguration, "sub_target/target_pattern set on directory node", 0, 0)}
	}
	cmd, err := e.builder.DirectoryExists(node.MainTarget)
	if err != nil {
		return Outcome{Err: err}
	}
	res, err := e.exec(ctx, cmd)
	if err != nil {
		return Outcome{Err: fmt.Errorf("%s: %w", diagnostic.ShellExecFailed.Message(), err)}
	}
	if res.Stdout != "" {
		return Outcome{Success: true, Output: node.MainTarget}
	}
	return Outcome{Success: false, Output: node.MainTarget}
}

func (e *NodeExecutor) listFilesWithPattern(ctx context.Context, node rule.ExecutionNode) (Outcome, []string) {
	if node.SubTarget != "" {
		return Outcome{Err: diagnostic.New(diagnostic.InvalidConfiguration, "sub_target set alongside target_pattern", 0, 0)}, nil
	}
	cmd, err := e.builder.RecursiveList(node.MainTarget)
	if err != nil {
		return Outcome{Err: err}, nil
	}
	res, err := e.exec(ctx, cmd)
	if err != nil {
		return Outcome{Err: fmt.Errorf("%s: %w", diagnostic.ShellExecFailed.Message(), err)}, nil
	}
	if res.Stdout == "" {
		return Outcome{Success: false, Err: fmt.Errorf("no output from directory listing")}, nil
	}

	re, err := regexp.Compile(node.TargetPattern)
	if err != nil {
		return Outcome{Err: fmt.Errorf("%s: %w", diagnostic.PatternMatchFailed.Message(), err)}, nil
	}

	var matched []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && re.MatchString(line) {
			matched = append(matched, line)
		}
	}
	if len(matched) == 0 {
		return Outcome{Success: false, Err: fmt.Errorf("no files matched the pattern")}, nil
	}
	payload, _ := json.Marshal(matched)
	return Outcome{Success: true, Output: string(payload)}, matched
}

func (e *NodeExecutor) runCommand(ctx context.Context, node rule.ExecutionNode) Outcome {
	if node.SubTarget != "" || node.TargetPattern != "" {
		return Outcome{Err: diagnostic.New(diagnostic.InvalidConfiguration, "sub_target/target_pattern set on command node", 0, 0)}
	}
	res, err := e.exec(ctx, node.MainTarget)
	if err != nil {
		return Outcome{Err: fmt.Errorf("%s: %w", diagnostic.CommandFailed.Message(), err)}
	}
	out := combinedOutput(res)
	if out == "" {
		return Outcome{Err: fmt.Errorf("command failed with no result")}
	}
	return Outcome{Success: true, Output: out}
}

func (e *NodeExecutor) checkProcessExists(ctx context.Context, node rule.ExecutionNode) Outcome {
	if node.SubTarget != "" {
		return Outcome{Err: diagnostic.New(diagnostic.InvalidConfiguration, "sub_target set on process node", 0, 0)}
	}
	target := node.MainTarget
	if node.TargetPattern != "" {
		target = node.TargetPattern
	}
	cmd, err := e.builder.ProcessExists(target)
	if err != nil {
		return Outcome{Err: err}
	}
	res, err := e.exec(ctx, cmd)
	if err != nil {
		return Outcome{Err: fmt.Errorf("%s: %w", diagnostic.ShellExecFailed.Message(), err)}
	}
	if res.Stdout != "" {
		return Outcome{Success: true, Output: node.MainTarget}
	}
	return Outcome{Success: false, Output: node.MainTarget}
}

func (e *NodeExecutor) checkRegistry(ctx context.Context, node rule.ExecutionNode) Outcome {
	var cmd string
	var err error
	if node.SubTarget == "" {
		cmd, err = e.builder.RegistryKeyExists(node.MainTarget)
	} else {
		cmd, err = e.builder.RegistryValue(node.MainTarget, node.SubTarget)
	}
	if err != nil {
		return Outcome{Err: err}
	}
	res, err := e.exec(ctx, cmd)
	if err != nil {
		return Outcome{Err: fmt.Errorf("%s: %w", diagnostic.RegistryAccessFailed.Message(), err)}
	}
	out := strings.TrimSpace(res.Stdout)
	if out != "" {
		return Outcome{Success: true, Output: out}
	}
	return Outcome{Success: false, Output: out, Err: diagnostic.New(diagnostic.RegistryKeyNotFound, node.MainTarget, 0, 0)}
}

func (e *NodeExecutor) exec(ctx context.Context, cmd string) (shell.Result, error) {
	return e.shell.ExecElevated(ctx, e.family, cmd, e.Elevate)
}

// combinedOutput joins stdout and stderr the way the source does for
// command execution: both present are newline-joined; either alone passes
// through unchanged.
func combinedOutput(res shell.Result) string {
	switch {
	case res.Stdout != "" && res.Stderr != "":
		return res.Stdout + "\n" + res.Stderr
	case res.Stdout != "":
		return res.Stdout
	default:
		return res.Stderr
	}
}
