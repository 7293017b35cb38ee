package cli

import (
	"github.com/spf13/cobra"
)

var (
	policyPath    string
	packsDirFlag  string
	logPath       string
	complianceDir string
)

var rootCmd = &cobra.Command{
	Use:   "scaaudit",
	Short: "scaaudit - remote security configuration assessment",
	Long: `scaaudit connects to a remote host over SSH and evaluates a declarative
policy of file, directory, command, process, and registry checks against
it, the way a security configuration assessment scanner audits a fleet
for drift from a hardening baseline.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&policyPath, "policy", "", "Path to policy YAML file (default: ~/.scaaudit/policy.yaml)")
	rootCmd.PersistentFlags().StringVar(&packsDirFlag, "packs-dir", "", "Path to policy packs directory (default: ~/.scaaudit/packs)")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "Path to audit log file (default: ~/.scaaudit/audit.jsonl)")
	rootCmd.PersistentFlags().StringVar(&complianceDir, "compliance", "", "Path to a compliance catalog directory (optional)")
}

func Execute() error {
	return rootCmd.Execute()
}
