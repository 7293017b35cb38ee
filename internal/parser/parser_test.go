package parser

import (
	"testing"

	"github.com/iiicsti/scaaudit/internal/policy"
	"github.com/iiicsti/scaaudit/internal/rule"
)

func buildOne(t *testing.T, ch policy.Check) (rule.ConditionNode, *Builder) {
	t.Helper()
	b := New()
	tree := b.Build(policy.Policy{OSFamily: "linux", Checks: []policy.Check{ch}})
	if len(tree.Checks) != 1 {
		return rule.ConditionNode{}, b
	}
	return tree.Checks[0], b
}

func TestBuild_SimpleFileRule(t *testing.T) {
	node, b := buildOne(t, policy.Check{
		ID:        1,
		Condition: "all",
		Rules:     []string{"f:/etc/ssh/sshd_config"},
	})
	if len(b.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", b.Diagnostics())
	}
	if len(node.FileRules) != 1 {
		t.Fatalf("expected 1 file rule, got %d", len(node.FileRules))
	}
	if node.FileRules[0].Node.MainTarget != "/etc/ssh/sshd_config" {
		t.Errorf("unexpected target: %q", node.FileRules[0].Node.MainTarget)
	}
	if len(node.RuleOrder) != 1 {
		t.Errorf("RuleOrder len = %d, want 1", len(node.RuleOrder))
	}
}

func TestBuild_NotPrefixSetsRuleLevelNegation(t *testing.T) {
	node, b := buildOne(t, policy.Check{
		ID:        1,
		Condition: "all",
		Rules:     []string{"not p:telnetd"},
	})
	if len(b.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", b.Diagnostics())
	}
	if len(node.ProcessRules) != 1 || !node.ProcessRules[0].Negated {
		t.Fatalf("expected one negated process rule, got %+v", node.ProcessRules)
	}
}

func TestBuild_CommaExpandsMultipleTargets(t *testing.T) {
	node, b := buildOne(t, policy.Check{
		ID:        1,
		Condition: "any",
		Rules:     []string{"f:/etc/passwd, /etc/shadow"},
	})
	if len(b.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", b.Diagnostics())
	}
	if len(node.FileRules) != 2 {
		t.Fatalf("expected 2 expanded file rules, got %d", len(node.FileRules))
	}
	if node.FileRules[0].Node.MainTarget != "/etc/passwd" || node.FileRules[1].Node.MainTarget != "/etc/shadow" {
		t.Errorf("unexpected expanded targets: %+v", node.FileRules)
	}
}

func TestBuild_FileRuleWithContentConjunction(t *testing.T) {
	node, b := buildOne(t, policy.Check{
		ID:        1,
		Condition: "all",
		Rules:     []string{`f:/etc/ssh/sshd_config -> r:^PermitRootLogin && !r:^#`},
	})
	if len(b.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", b.Diagnostics())
	}
	if len(node.FileRules) != 1 {
		t.Fatalf("expected 1 file rule, got %d", len(node.FileRules))
	}
	cr := node.FileRules[0].ContentRules
	if len(cr) != 2 {
		t.Fatalf("expected 2 conjoined content rules, got %d", len(cr))
	}
	if !cr[0].IsRegex || cr[0].Negated {
		t.Errorf("first predicate unexpected: %+v", cr[0])
	}
	if !cr[1].IsRegex || !cr[1].Negated {
		t.Errorf("second predicate unexpected: %+v", cr[1])
	}
}

func TestBuild_NumericContentRule(t *testing.T) {
	node, b := buildOne(t, policy.Check{
		ID:        1,
		Condition: "all",
		Rules:     []string{`f:/etc/ssh/sshd_config -> n:^MaxAuthTries\s+(\d+) compare <= 4`},
	})
	if len(b.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", b.Diagnostics())
	}
	cr := node.FileRules[0].ContentRules
	if len(cr) != 1 || !cr[0].IsNumeric || cr[0].CompareOp != "<=" || cr[0].CompareVal != 4 {
		t.Errorf("unexpected numeric content rule: %+v", cr)
	}
}

func TestBuild_DirectoryRuleWithInnerFilePattern(t *testing.T) {
	node, b := buildOne(t, policy.Check{
		ID:        1,
		Condition: "all",
		Rules:     []string{`d:/etc/cron.d -> r:.*\.conf$`},
	})
	if len(b.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", b.Diagnostics())
	}
	if len(node.DirectoryRules) != 1 {
		t.Fatalf("expected 1 directory rule, got %d", len(node.DirectoryRules))
	}
	dr := node.DirectoryRules[0]
	if len(dr.FileRules) != 1 || dr.FileRules[0].Node.TargetPattern == "" {
		t.Errorf("expected inner file rule with target pattern, got %+v", dr)
	}
}

func TestBuild_UnknownRuleTypeProducesDiagnostic(t *testing.T) {
	_, b := buildOne(t, policy.Check{
		ID:        1,
		Condition: "all",
		Rules:     []string{"x:bogus"},
	})
	diags := b.Diagnostics()
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}
	if diags[0].Code != "E003" {
		t.Errorf("expected E003, got %s", diags[0].Code)
	}
}

func TestBuild_InvalidConditionProducesDiagnostic(t *testing.T) {
	_, b := buildOne(t, policy.Check{
		ID:        1,
		Condition: "bogus",
		Rules:     []string{"f:/etc/passwd"},
	})
	diags := b.Diagnostics()
	if len(diags) != 1 || diags[0].Code != "E002" {
		t.Fatalf("expected single E002 diagnostic, got %+v", diags)
	}
}

func TestBuild_BadCheckDroppedButOthersKept(t *testing.T) {
	b := New()
	tree := b.Build(policy.Policy{
		OSFamily: "linux",
		Checks: []policy.Check{
			{ID: 1, Condition: "bogus", Rules: []string{"f:/etc/passwd"}},
			{ID: 2, Condition: "all", Rules: []string{"f:/etc/shadow"}},
		},
	})
	if len(tree.Checks) != 1 {
		t.Fatalf("expected 1 surviving check, got %d", len(tree.Checks))
	}
	if tree.Checks[0].ID != 2 {
		t.Errorf("expected check 2 to survive, got %d", tree.Checks[0].ID)
	}
}

func TestBuild_InvalidRegexInContentRule(t *testing.T) {
	_, b := buildOne(t, policy.Check{
		ID:        1,
		Condition: "all",
		Rules:     []string{"f:/etc/passwd -> r:(unclosed"},
	})
	diags := b.Diagnostics()
	if len(diags) == 0 {
		t.Fatal("expected a diagnostic for the invalid regex")
	}
}

func TestBuild_InvalidCommandSyntaxRejected(t *testing.T) {
	_, b := buildOne(t, policy.Check{
		ID:        1,
		Condition: "all",
		Rules:     []string{`c:echo "unterminated -> r:ok`},
	})
	diags := b.Diagnostics()
	if len(diags) == 0 {
		t.Fatal("expected a diagnostic for invalid shell syntax")
	}
}

func TestBuild_RegistryRuleWithValue(t *testing.T) {
	node, b := buildOne(t, policy.Check{
		ID:        1,
		Condition: "all",
		Rules:     []string{`r:HKLM\Software\Policies\Foo -> Enabled`},
	})
	if len(b.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", b.Diagnostics())
	}
	if len(node.RegistryRules) != 1 || node.RegistryRules[0].Node.SubTarget != "Enabled" {
		t.Errorf("unexpected registry rule: %+v", node.RegistryRules)
	}
}
