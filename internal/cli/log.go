package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/iiicsti/scaaudit/internal/config"
	"github.com/iiicsti/scaaudit/internal/logger"
	"github.com/spf13/cobra"
)

var (
	logFilterResult string
	logLast         int
	logSummary      bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View and filter the audit log",
	Long: `View the scaaudit audit log with filtering and summary options.

Examples:
  scaaudit log                    # Show all entries
  scaaudit log --last 20          # Show last 20 entries
  scaaudit log --result fail      # Show only failing checks
  scaaudit log --summary          # Show session summary stats`,
	RunE: logCommand,
}

func init() {
	logCmd.Flags().StringVar(&logFilterResult, "result", "", "Filter by result (pass, fail)")
	logCmd.Flags().IntVar(&logLast, "last", 0, "Show last N entries")
	logCmd.Flags().BoolVar(&logSummary, "summary", false, "Show summary statistics")
	rootCmd.AddCommand(logCmd)
}

func logCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(policyPath, packsDirFlag, logPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	events, err := readAuditLog(cfg.LogPath)
	if err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}

	if len(events) == 0 {
		fmt.Println("No audit log entries found.")
		return nil
	}

	filtered := filterEvents(events)

	if logLast > 0 && logLast < len(filtered) {
		filtered = filtered[len(filtered)-logLast:]
	}

	if logSummary {
		printSummary(events)
		return nil
	}

	printEvents(filtered)
	return nil
}

func readAuditLog(path string) ([]logger.AuditEvent, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var events []logger.AuditEvent
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		var event logger.AuditEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue // skip malformed lines
		}
		events = append(events, event)
	}
	return events, scanner.Err()
}

func filterEvents(events []logger.AuditEvent) []logger.AuditEvent {
	if logFilterResult == "" {
		return events
	}

	var filtered []logger.AuditEvent
	for _, e := range events {
		if !strings.EqualFold(e.Result, logFilterResult) {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}

func printEvents(events []logger.AuditEvent) {
	for _, e := range events {
		ts := formatTimestamp(e.Timestamp)
		icon := resultIcon(e.Result)

		fmt.Printf("%s %s check %d on %s (%s)\n", icon, ts, e.CheckID, e.Target, e.Condition)
		if e.Error != "" {
			fmt.Printf("     Error: %s\n", e.Error)
		}
		if len(e.Compliance) > 0 {
			fmt.Printf("     Compliance: %s\n", strings.Join(e.Compliance, ", "))
		}
		fmt.Println()
	}
}

func printSummary(all []logger.AuditEvent) {
	counts := map[string]int{}
	errorCount := 0

	for _, e := range all {
		counts[e.Result]++
		if e.Error != "" {
			errorCount++
		}
	}

	fmt.Println("===============================================")
	fmt.Println("  scaaudit Audit Summary")
	fmt.Println("===============================================")
	fmt.Printf("  Total events: %d\n", len(all))
	fmt.Printf("  pass:         %d\n", counts["pass"])
	fmt.Printf("  fail:         %d\n", counts["fail"])
	fmt.Printf("  Errors:       %d\n", errorCount)
	fmt.Println("===============================================")

	if len(all) > 0 {
		fmt.Printf("  First event:  %s\n", formatTimestamp(all[0].Timestamp))
		fmt.Printf("  Last event:   %s\n", formatTimestamp(all[len(all)-1].Timestamp))
	}
}

func resultIcon(result string) string {
	switch result {
	case "pass":
		return "[PASS]"
	case "fail":
		return "[FAIL]"
	default:
		return "[?]"
	}
}

func formatTimestamp(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
