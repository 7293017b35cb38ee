package cli

import (
	"fmt"
	"os"

	"github.com/iiicsti/scaaudit/internal/config"
	"github.com/iiicsti/scaaudit/internal/parser"
	"github.com/iiicsti/scaaudit/internal/policy"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse a policy and report diagnostics without connecting to a target",
	Long: `Runs just the rule parser over the configured policy (merged with any
enabled packs) and prints its diagnostics. Useful for catching a malformed
rule before a run ever reaches out to a target host.`,
	RunE: validateCommand,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(policyPath, packsDirFlag, logPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pol, err := policy.Load(cfg.PolicyPath)
	if err != nil {
		return fmt.Errorf("failed to load policy: %w", err)
	}

	merged, infos, err := policy.LoadPacks(cfg.PacksDir, pol)
	if err != nil {
		return fmt.Errorf("failed to load packs: %w", err)
	}
	if len(infos) > 0 {
		fmt.Printf("merged %d pack(s) from %s\n", len(infos), cfg.PacksDir)
	}

	b := parser.New()
	tree := b.Build(*merged)

	diags := b.Diagnostics()
	if len(diags) == 0 {
		fmt.Printf("%d checks parsed cleanly (os: %s)\n", len(tree.Checks), tree.OSFamily)
		return nil
	}

	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "check %d, rule %d: %s\n", d.CheckID, d.RuleIndex, d.Error())
	}
	fmt.Printf("%d checks parsed cleanly, %d diagnostic(s) raised\n", len(tree.Checks), len(diags))
	return fmt.Errorf("policy has %d diagnostic(s)", len(diags))
}
