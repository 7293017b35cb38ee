package shell

import (
	"testing"
	"time"
)

func TestStripSudoPrompt(t *testing.T) {
	in := "[sudo] password for deploy: some real error text\n"
	got := stripSudoPrompt(in)
	want := "some real error text\n"
	if got != want {
		t.Errorf("stripSudoPrompt() = %q, want %q", got, want)
	}
}

func TestStripSudoPrompt_NoPromptUnchanged(t *testing.T) {
	in := "permission denied"
	if got := stripSudoPrompt(in); got != in {
		t.Errorf("stripSudoPrompt() = %q, want unchanged %q", got, in)
	}
}

func TestPortOrDefault_Zero(t *testing.T) {
	if got := portOrDefault(0); got != "22" {
		t.Errorf("portOrDefault(0) = %q, want %q", got, "22")
	}
}

func TestPortOrDefault_Explicit(t *testing.T) {
	if got := portOrDefault(2222); got != "2222" {
		t.Errorf("portOrDefault(2222) = %q, want %q", got, "2222")
	}
}

func TestClient_DialTimeoutDefault(t *testing.T) {
	c := New(Config{})
	if got := c.dialTimeout(); got != 15*time.Second {
		t.Errorf("dialTimeout() = %v, want 15s default", got)
	}
}

func TestClient_DialTimeoutConfigured(t *testing.T) {
	c := New(Config{DialTimeout: 5 * time.Second})
	if got := c.dialTimeout(); got != 5*time.Second {
		t.Errorf("dialTimeout() = %v, want 5s", got)
	}
}

func TestClient_AuthMethodsRequiresPasswordOrKey(t *testing.T) {
	c := New(Config{})
	if _, err := c.authMethods(); err == nil {
		t.Error("expected error when neither password nor key path is configured")
	}
}

func TestClient_AuthMethodsRejectsMissingKeyFile(t *testing.T) {
	c := New(Config{KeyPath: "/nonexistent/path/to/key"})
	if _, err := c.authMethods(); err == nil {
		t.Error("expected error reading a nonexistent private key file")
	}
}

func TestClient_CloseIdempotentWhenNeverConnected(t *testing.T) {
	c := New(Config{})
	if err := c.Close(); err != nil {
		t.Errorf("Close() on an unconnected client returned %v, want nil", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() returned %v, want nil", err)
	}
}

func TestClient_ExecRequiresConnect(t *testing.T) {
	c := New(Config{})
	if _, err := c.Exec(nil, "echo hi"); err == nil { //nolint:staticcheck
		t.Error("expected error calling Exec before Connect")
	}
}
