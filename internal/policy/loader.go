package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load decodes the YAML policy document at path. A missing file is not an
// error: it yields DefaultPolicy, the same way a fresh checkout with no
// local policy still has something to validate against.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultPolicy(), nil
		}
		return nil, fmt.Errorf("policy: reading %s: %w", path, err)
	}

	var pol Policy
	if err := yaml.Unmarshal(data, &pol); err != nil {
		return nil, fmt.Errorf("policy: parsing %s: %w", path, err)
	}
	if pol.OSFamily == "" {
		pol.OSFamily = "linux"
	}
	return &pol, nil
}

// DefaultPolicy is the baseline shipped with the auditor: a handful of
// well-known Linux SSH-hardening checks, using the file, process and
// directory rule kinds.
func DefaultPolicy() *Policy {
	return &Policy{
		OSFamily: "linux",
		Checks: []Check{
			{
				ID:        1,
				Condition: "all",
				Rules: []string{
					"f:/etc/ssh/sshd_config -> n:^\\s*MaxAuthTries\\s+(\\d+) compare <= 4",
				},
			},
			{
				ID:        2,
				Condition: "all",
				Rules: []string{
					"not p:telnetd",
				},
			},
			{
				ID:        3,
				Condition: "all",
				Rules: []string{
					"d:/etc/ssh -> r:^sshd_config$ -> !r:^# && r:Protocol && r:2",
				},
			},
		},
	}
}
