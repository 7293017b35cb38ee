// Package config resolves the auditor's runtime configuration: where the
// policy and packs live, how to reach the target, and where results go.
package config

import (
	"os"
	"path/filepath"
)

const (
	DefaultConfigDir  = ".scaaudit"
	DefaultPolicyFile = "policy.yaml"
	DefaultLogFile    = "audit.jsonl"
	DefaultPacksDir   = "packs"
)

// TargetConfig describes the remote host a run audits.
type TargetConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	KeyPath        string
	KnownHostsPath string
	Elevate        bool
}

// ReportConfig controls how a run's results are presented.
type ReportConfig struct {
	ComplianceDir string // optional directory of compliance catalog YAML files
	JSON          bool   // not set or read by any command; run prints text output only
}

type Config struct {
	PolicyPath string
	PacksDir   string
	LogPath    string
	ConfigDir  string
	Target     TargetConfig
	Report     ReportConfig
}

// Load resolves a Config from explicit flag values, defaulting unset paths
// into ~/.scaaudit/.
func Load(policyPath, packsDir, logPath string) (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	configDir := filepath.Join(homeDir, DefaultConfigDir)
	if err := ensureDir(configDir); err != nil {
		return nil, err
	}

	cfg := &Config{ConfigDir: configDir}

	if policyPath != "" {
		cfg.PolicyPath = policyPath
	} else {
		cfg.PolicyPath = filepath.Join(configDir, DefaultPolicyFile)
	}

	if packsDir != "" {
		cfg.PacksDir = packsDir
	} else {
		cfg.PacksDir = filepath.Join(configDir, DefaultPacksDir)
	}

	if logPath != "" {
		cfg.LogPath = logPath
	} else {
		cfg.LogPath = filepath.Join(configDir, DefaultLogFile)
	}

	return cfg, nil
}

func ensureDir(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, 0700)
	}
	return nil
}
