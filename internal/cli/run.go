package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/iiicsti/scaaudit/internal/compliance"
	"github.com/iiicsti/scaaudit/internal/config"
	"github.com/iiicsti/scaaudit/internal/executor"
	"github.com/iiicsti/scaaudit/internal/logger"
	"github.com/iiicsti/scaaudit/internal/oscmd"
	"github.com/iiicsti/scaaudit/internal/parser"
	"github.com/iiicsti/scaaudit/internal/policy"
	"github.com/iiicsti/scaaudit/internal/prompt"
	"github.com/iiicsti/scaaudit/internal/shell"
	"github.com/spf13/cobra"
)

var (
	runHost        string
	runPort        int
	runUser        string
	runPassword    string
	runPromptPass  bool
	runKeyPath     string
	runKnownHosts  string
	runNoElevate   bool
	runDialTimeout time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to a target and evaluate the configured policy against it",
	RunE:  runCommand,
}

func init() {
	runCmd.Flags().StringVar(&runHost, "host", "", "Target host (required)")
	runCmd.Flags().IntVar(&runPort, "port", 22, "Target SSH port")
	runCmd.Flags().StringVar(&runUser, "user", "", "SSH user (required)")
	runCmd.Flags().StringVar(&runPassword, "password", "", "SSH/sudo password")
	runCmd.Flags().BoolVarP(&runPromptPass, "prompt-password", "P", false, "Prompt for the password interactively instead of passing it on the command line")
	runCmd.Flags().StringVar(&runKeyPath, "key", "", "Path to an SSH private key (used instead of password auth)")
	runCmd.Flags().StringVar(&runKnownHosts, "known-hosts", "", "Path to a known_hosts file (host key checking skipped if omitted)")
	runCmd.Flags().BoolVar(&runNoElevate, "no-elevate", false, "Do not escalate privileges (sudo) for probes")
	runCmd.Flags().DurationVar(&runDialTimeout, "dial-timeout", 15*time.Second, "SSH connection timeout")
	_ = runCmd.MarkFlagRequired("host")
	_ = runCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(runCmd)
}

func runCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(policyPath, packsDirFlag, logPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Target = config.TargetConfig{
		Host:           runHost,
		Port:           runPort,
		User:           runUser,
		Password:       runPassword,
		KeyPath:        runKeyPath,
		KnownHostsPath: runKnownHosts,
		Elevate:        !runNoElevate,
	}
	cfg.Report.ComplianceDir = complianceDir

	if cfg.Target.Password == "" && cfg.Target.KeyPath == "" {
		if runPromptPass || prompt.IsInteractive() {
			pw, err := prompt.Password(fmt.Sprintf("%s@%s", cfg.Target.User, cfg.Target.Host))
			if err != nil {
				return err
			}
			cfg.Target.Password = pw
		} else {
			return fmt.Errorf("no password or key configured and stdin is not interactive")
		}
	}

	if cfg.Target.Elevate && prompt.IsInteractive() {
		if !prompt.ConfirmElevation(cfg.Target.Host) {
			return fmt.Errorf("elevation not confirmed, aborting")
		}
	}

	pol, err := policy.Load(cfg.PolicyPath)
	if err != nil {
		return fmt.Errorf("failed to load policy: %w", err)
	}
	merged, _, err := policy.LoadPacks(cfg.PacksDir, pol)
	if err != nil {
		return fmt.Errorf("failed to load packs: %w", err)
	}

	b := parser.New()
	tree := b.Build(*merged)
	for _, d := range b.Diagnostics() {
		fmt.Fprintf(os.Stderr, "warning: check %d, rule %d: %s\n", d.CheckID, d.RuleIndex, d.Error())
	}

	var cat *compliance.Catalog
	if cfg.Report.ComplianceDir != "" {
		cat, err = compliance.LoadCatalog(cfg.Report.ComplianceDir)
		if err != nil {
			return fmt.Errorf("failed to load compliance catalog: %w", err)
		}
	}

	cl := shell.New(shell.Config{
		Host:           cfg.Target.Host,
		Port:           cfg.Target.Port,
		User:           cfg.Target.User,
		Password:       cfg.Target.Password,
		KeyPath:        cfg.Target.KeyPath,
		KnownHostsPath: cfg.Target.KnownHostsPath,
		DialTimeout:    runDialTimeout,
	})

	ctx := context.Background()
	if err := cl.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.Target.Host, err)
	}
	defer cl.Close()

	var family oscmd.Family
	switch tree.OSFamily {
	case "windows":
		family = oscmd.Windows
	default:
		family = oscmd.Linux
	}

	exec := executor.NewTreeExecutor(cl, family)
	start := time.Now()
	results := exec.Execute(ctx, tree)

	var auditLogger *logger.AuditLogger
	if lg, err := logger.New(cfg.LogPath); err == nil {
		auditLogger = lg
		defer auditLogger.Close()
	}

	if !results.Success {
		fmt.Fprintf(os.Stderr, "run aborted: %s\n", results.Error)
		return fmt.Errorf("run aborted: %s", results.Error)
	}

	printResults(cfg.Target.Host, results, cat, auditLogger, cfg.Target.Elevate, time.Since(start))
	return nil
}

func printResults(target string, results executor.Results, cat *compliance.Catalog, lg *logger.AuditLogger, elevated bool, elapsed time.Duration) {
	ids := make([]int, 0, len(results.Checks))
	for id := range results.Checks {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	passCount, failCount := 0, 0
	for _, id := range ids {
		cr := results.Checks[id]
		refs := cat.References(id)

		if cr.Result == "pass" {
			passCount++
		} else {
			failCount++
		}

		line := fmt.Sprintf("[%s] check %d (%s)", cr.Result, id, cr.Condition)
		if len(refs) > 0 {
			labels := make([]string, len(refs))
			for i, r := range refs {
				labels[i] = r.Standard + " " + r.Item
			}
			line += " - " + strings.Join(labels, ", ")
		}
		fmt.Println(line)

		if lg != nil {
			complianceLabels := make([]string, len(refs))
			for i, r := range refs {
				complianceLabels[i] = r.Standard + " " + r.Item
			}
			lg.Log(logger.AuditEvent{
				Timestamp:   time.Now().UTC().Format(time.RFC3339),
				Target:      target,
				CheckID:     id,
				Result:      cr.Result,
				Condition:   string(cr.Condition),
				RuleResults: cr.RuleResults,
				Compliance:  complianceLabels,
				Elevated:    elevated,
				ElapsedMS:   elapsed.Milliseconds(),
			})
		}
	}

	fmt.Printf("\n%d passed, %d failed (%s)\n", passCount, failCount, elapsed.Round(time.Millisecond))
}
