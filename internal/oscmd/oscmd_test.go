package oscmd

import "testing"

func TestBuilder_FileExistsLinux(t *testing.T) {
	b := New(Linux)
	cmd, err := b.FileExists("/etc/ssh/sshd_config")
	if err != nil {
		t.Fatal(err)
	}
	want := "test -f /etc/ssh/sshd_config && echo 'exists' || echo 'not exists'"
	if cmd != want {
		t.Errorf("FileExists() = %q, want %q", cmd, want)
	}
}

func TestBuilder_FileExistsWindows(t *testing.T) {
	b := New(Windows)
	cmd, err := b.FileExists(`C:\Windows\system.ini`)
	if err != nil {
		t.Fatal(err)
	}
	want := `if exist C:\Windows\system.ini (echo exists) else (echo not exists)`
	if cmd != want {
		t.Errorf("FileExists() = %q, want %q", cmd, want)
	}
}

func TestBuilder_DirectoryExistsUnsupportedFamily(t *testing.T) {
	b := New(Family("plan9"))
	if _, err := b.DirectoryExists("/tmp"); err == nil {
		t.Error("expected error for unsupported family")
	}
}

func TestBuilder_RecursiveListLinux(t *testing.T) {
	b := New(Linux)
	cmd, err := b.RecursiveList("/etc/cron.d")
	if err != nil {
		t.Fatal(err)
	}
	want := "find /etc/cron.d -maxdepth 3 -type f"
	if cmd != want {
		t.Errorf("RecursiveList() = %q, want %q", cmd, want)
	}
}

func TestBuilder_ProcessExistsLinux(t *testing.T) {
	b := New(Linux)
	cmd, err := b.ProcessExists("sshd")
	if err != nil {
		t.Fatal(err)
	}
	want := "ps aux | grep 'sshd' | grep -v grep"
	if cmd != want {
		t.Errorf("ProcessExists() = %q, want %q", cmd, want)
	}
}

func TestBuilder_RegistryKeyExistsRejectsNonWindows(t *testing.T) {
	b := New(Linux)
	if _, err := b.RegistryKeyExists(`HKLM\Software\Foo`); err == nil {
		t.Error("expected error requesting registry check on non-windows family")
	}
}

func TestBuilder_RegistryValueWindows(t *testing.T) {
	b := New(Windows)
	cmd, err := b.RegistryValue(`HKLM\Software\Foo`, "Enabled")
	if err != nil {
		t.Fatal(err)
	}
	want := `reg query "HKLM\Software\Foo" /v Enabled`
	if cmd != want {
		t.Errorf("RegistryValue() = %q, want %q", cmd, want)
	}
}

func TestBuilder_ReadFileLinux(t *testing.T) {
	b := New(Linux)
	cmd, err := b.ReadFile("/etc/passwd")
	if err != nil {
		t.Fatal(err)
	}
	if cmd != "cat /etc/passwd" {
		t.Errorf("ReadFile() = %q, want %q", cmd, "cat /etc/passwd")
	}
}

func TestElevate_LinuxWrapsWithSudo(t *testing.T) {
	got := Elevate(Linux, "cat /etc/shadow", "hunter2")
	want := "export LC_ALL=C && echo hunter2 | sudo -S cat /etc/shadow"
	if got != want {
		t.Errorf("Elevate() = %q, want %q", got, want)
	}
}

func TestElevate_WindowsNoOp(t *testing.T) {
	got := Elevate(Windows, "type C:\\foo.ini", "hunter2")
	if got != "type C:\\foo.ini" {
		t.Errorf("Elevate() should be a no-op on windows, got %q", got)
	}
}
