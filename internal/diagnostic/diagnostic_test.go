package diagnostic

import (
	"strings"
	"testing"
)

func TestCode_MessageKnown(t *testing.T) {
	if got := InvalidCondition.Message(); got != "invalid condition" {
		t.Errorf("Message() = %q, want %q", got, "invalid condition")
	}
}

func TestCode_MessageUnknown(t *testing.T) {
	var c Code = "E999"
	if got := c.Message(); got != "unrecognized diagnostic code" {
		t.Errorf("Message() = %q, want %q", got, "unrecognized diagnostic code")
	}
}

func TestNew_CarriesLocation(t *testing.T) {
	d := New(InvalidFileRule, "missing pattern", 42, 3)
	if d.CheckID != 42 || d.RuleIndex != 3 || d.Code != InvalidFileRule {
		t.Errorf("New() = %+v, unexpected fields", d)
	}
}

func TestDiagnostic_ErrorContainsCodeAndDetail(t *testing.T) {
	d := New(UnknownRuleType, "bogus kind 'x'", 1, 2)
	msg := d.Error()
	if !strings.Contains(msg, "E003") {
		t.Errorf("Error() = %q, want to contain code E003", msg)
	}
	if !strings.Contains(msg, "bogus kind 'x'") {
		t.Errorf("Error() = %q, want to contain detail", msg)
	}
}

// TestAllCodesHaveMessages guards against adding a new Code constant
// without a matching entry in the messages table.
func TestAllCodesHaveMessages(t *testing.T) {
	all := []Code{
		InvalidID, InvalidCondition, UnknownRuleType, InvalidFileRule,
		InvalidDirectoryRule, InvalidCommandRule, InvalidProcessRule,
		InvalidRegistryRule, InvalidContentOperatorP, InvalidCompareExpression,
		UnknownParseError,
		MismatchOSType, InvalidNodeType, InvalidConfiguration, ShellExecFailed,
		OSDetectionFailed, CommandFailed, FileNotFound, DirectoryNotFound,
		ProcessNotFound, RegistryKeyNotFound, RegistryAccessFailed,
		FileReadFailed, InvalidContentOperatorE, NumericCompareFailed,
		PatternMatchFailed, InvalidFileList, UnknownExecuteError,
	}
	for _, c := range all {
		if c.Message() == "unrecognized diagnostic code" {
			t.Errorf("code %s has no message registered", c)
		}
	}
}
