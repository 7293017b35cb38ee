package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iiicsti/scaaudit/internal/config"
	"github.com/iiicsti/scaaudit/internal/policy"
	"github.com/iiicsti/scaaudit/internal/shell"
	"github.com/spf13/cobra"
)

var packCmd = &cobra.Command{
	Use:   "packs",
	Short: "Manage policy packs",
	Long: `Manage scaaudit policy packs.

Policy packs are curated YAML files of checks that target a specific
baseline or platform. Packs are stored in ~/.scaaudit/packs/ (or
--packs-dir) and merged into the base policy at run time, later packs
overriding earlier ones by check id.

Examples:
  scaaudit packs list                  # List installed packs
  scaaudit packs enable ssh-hardening  # Enable a pack
  scaaudit packs disable pci-dss       # Disable a pack
  scaaudit packs show ssh-hardening    # Show pack contents`,
}

var packListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed policy packs",
	RunE:  packList,
}

var packEnableCmd = &cobra.Command{
	Use:   "enable <pack-name>",
	Short: "Enable a disabled policy pack",
	Args:  cobra.ExactArgs(1),
	RunE:  packEnable,
}

var packDisableCmd = &cobra.Command{
	Use:   "disable <pack-name>",
	Short: "Disable a policy pack (prefix with underscore)",
	Args:  cobra.ExactArgs(1),
	RunE:  packDisable,
}

var packShowCmd = &cobra.Command{
	Use:   "show <pack-name>",
	Short: "Show the contents of a policy pack",
	Args:  cobra.ExactArgs(1),
	RunE:  packShow,
}

var (
	stageHost     string
	stagePort     int
	stageUser     string
	stagePassword string
	stageRemote   string
)

var packStageCmd = &cobra.Command{
	Use:   "stage <local-file>",
	Short: "Push a golden reference file onto a target ahead of a run",
	Long: `Uploads a local file (e.g. an approved sshd_config) to a target host
over SCP, for a check that compares a live file against a golden copy
staged alongside it rather than against a hardcoded expectation.`,
	Args: cobra.ExactArgs(1),
	RunE: packStage,
}

var (
	fetchHost     string
	fetchPort     int
	fetchUser     string
	fetchPassword string
	fetchRemote   string
)

var packFetchCmd = &cobra.Command{
	Use:   "fetch <local-file>",
	Short: "Pull a remote file down for offline inspection",
	Long: `Downloads a file from a target host over SCP to a local path, for
inspecting a check's live configuration file outside the auditor run
that flagged it.`,
	Args: cobra.ExactArgs(1),
	RunE: packFetch,
}

func init() {
	packCmd.AddCommand(packListCmd)
	packCmd.AddCommand(packEnableCmd)
	packCmd.AddCommand(packDisableCmd)
	packCmd.AddCommand(packShowCmd)
	packCmd.AddCommand(packStageCmd)
	packCmd.AddCommand(packFetchCmd)
	rootCmd.AddCommand(packCmd)

	packStageCmd.Flags().StringVar(&stageHost, "host", "", "Target host (required)")
	packStageCmd.Flags().IntVar(&stagePort, "port", 22, "Target SSH port")
	packStageCmd.Flags().StringVar(&stageUser, "user", "", "SSH user (required)")
	packStageCmd.Flags().StringVar(&stagePassword, "password", "", "SSH password")
	packStageCmd.Flags().StringVar(&stageRemote, "remote-path", "", "Destination path on the target (required)")
	_ = packStageCmd.MarkFlagRequired("host")
	_ = packStageCmd.MarkFlagRequired("user")
	_ = packStageCmd.MarkFlagRequired("remote-path")

	packFetchCmd.Flags().StringVar(&fetchHost, "host", "", "Target host (required)")
	packFetchCmd.Flags().IntVar(&fetchPort, "port", 22, "Target SSH port")
	packFetchCmd.Flags().StringVar(&fetchUser, "user", "", "SSH user (required)")
	packFetchCmd.Flags().StringVar(&fetchPassword, "password", "", "SSH password")
	packFetchCmd.Flags().StringVar(&fetchRemote, "remote-path", "", "Source path on the target (required)")
	_ = packFetchCmd.MarkFlagRequired("host")
	_ = packFetchCmd.MarkFlagRequired("user")
	_ = packFetchCmd.MarkFlagRequired("remote-path")
}

func packStage(cmd *cobra.Command, args []string) error {
	localPath := args[0]

	cl := shell.New(shell.Config{
		Host:        stageHost,
		Port:        stagePort,
		User:        stageUser,
		Password:    stagePassword,
		DialTimeout: 15 * time.Second,
	})

	ctx := context.Background()
	if err := cl.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", stageHost, err)
	}
	defer cl.Close()

	if err := cl.PushFile(ctx, localPath, stageRemote); err != nil {
		return fmt.Errorf("failed to stage %s: %w", localPath, err)
	}
	fmt.Printf("staged %s to %s:%s\n", localPath, stageHost, stageRemote)
	return nil
}

func packFetch(cmd *cobra.Command, args []string) error {
	localPath := args[0]

	cl := shell.New(shell.Config{
		Host:        fetchHost,
		Port:        fetchPort,
		User:        fetchUser,
		Password:    fetchPassword,
		DialTimeout: 15 * time.Second,
	})

	ctx := context.Background()
	if err := cl.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", fetchHost, err)
	}
	defer cl.Close()

	if err := cl.FetchFile(ctx, fetchRemote, localPath); err != nil {
		return fmt.Errorf("failed to fetch %s: %w", fetchRemote, err)
	}
	fmt.Printf("fetched %s:%s to %s\n", fetchHost, fetchRemote, localPath)
	return nil
}

func resolvedPacksDir() (string, error) {
	cfg, err := config.Load(policyPath, packsDirFlag, logPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(cfg.PacksDir, 0700); err != nil {
		return "", err
	}
	return cfg.PacksDir, nil
}

func packList(cmd *cobra.Command, args []string) error {
	dir, err := resolvedPacksDir()
	if err != nil {
		return err
	}

	base := policy.DefaultPolicy()
	_, infos, err := policy.LoadPacks(dir, base)
	if err != nil {
		return fmt.Errorf("failed to load packs: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No policy packs installed.")
		fmt.Printf("\nTo install packs, copy YAML files to: %s\n", dir)
		return nil
	}

	fmt.Println("Installed Policy Packs:")
	fmt.Println(strings.Repeat("-", 60))
	for _, info := range infos {
		status := "[enabled] "
		if !info.Enabled {
			status = "[disabled]"
		}
		fmt.Printf("  %s  %-25s %s\n", status, info.Name, info.Description)
		if info.Version != "" {
			fmt.Printf("             v%s by %s  (%d checks)\n", info.Version, info.Author, info.CheckCount)
		}
	}
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("\nPacks directory: %s\n", dir)
	return nil
}

func packEnable(cmd *cobra.Command, args []string) error {
	dir, err := resolvedPacksDir()
	if err != nil {
		return err
	}

	name := args[0]
	disabledPath := filepath.Join(dir, "_"+name+".yaml")
	enabledPath := filepath.Join(dir, name+".yaml")

	if _, err := os.Stat(disabledPath); err == nil {
		if err := os.Rename(disabledPath, enabledPath); err != nil {
			return fmt.Errorf("failed to enable pack: %w", err)
		}
		fmt.Printf("Pack %q enabled.\n", name)
		return nil
	}

	if _, err := os.Stat(enabledPath); err == nil {
		fmt.Printf("Pack %q is already enabled.\n", name)
		return nil
	}

	return fmt.Errorf("pack %q not found in %s", name, dir)
}

func packDisable(cmd *cobra.Command, args []string) error {
	dir, err := resolvedPacksDir()
	if err != nil {
		return err
	}

	name := args[0]
	enabledPath := filepath.Join(dir, name+".yaml")
	disabledPath := filepath.Join(dir, "_"+name+".yaml")

	if _, err := os.Stat(enabledPath); err == nil {
		if err := os.Rename(enabledPath, disabledPath); err != nil {
			return fmt.Errorf("failed to disable pack: %w", err)
		}
		fmt.Printf("Pack %q disabled.\n", name)
		return nil
	}

	if _, err := os.Stat(disabledPath); err == nil {
		fmt.Printf("Pack %q is already disabled.\n", name)
		return nil
	}

	return fmt.Errorf("pack %q not found in %s", name, dir)
}

func packShow(cmd *cobra.Command, args []string) error {
	dir, err := resolvedPacksDir()
	if err != nil {
		return err
	}

	name := args[0]

	path := filepath.Join(dir, name+".yaml")
	if _, err := os.Stat(path); err != nil {
		path = filepath.Join(dir, "_"+name+".yaml")
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("pack %q not found in %s", name, dir)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	fmt.Println(string(data))
	return nil
}
