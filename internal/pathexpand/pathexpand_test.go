package pathexpand

import "testing"

func TestExpand_Tilde(t *testing.T) {
	tests := []struct {
		path    string
		homeDir string
		want    string
	}{
		{"~/.ssh/authorized_keys", "/home/admin", "/home/admin/.ssh/authorized_keys"},
		{"~", "/home/admin", "/home/admin"},
		{"/etc/ssh/sshd_config", "/home/admin", "/etc/ssh/sshd_config"},
		{"~/.ssh/authorized_keys", "", "~/.ssh/authorized_keys"},
		{"~admin/.ssh", "/home/admin", "~admin/.ssh"},
	}

	for _, tt := range tests {
		got := Expand(tt.path, tt.homeDir)
		if got != tt.want {
			t.Errorf("Expand(%q, %q) = %q, want %q", tt.path, tt.homeDir, got, tt.want)
		}
	}
}
