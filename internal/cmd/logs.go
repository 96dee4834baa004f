package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/batonhq/baton/internal/config"
	"github.com/batonhq/baton/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View and filter run logs",
	Long: `Logs aggregates the structured run log, applies the requested filters,
and prints matching entries. With --export the filtered entries are
written to a file in json, text, or csv format instead.

Examples:
  # Warnings and errors from the fix movement
  baton logs --level warn --movement fix

  # Export one run's entries as csv
  baton logs --run <run-id> --export run.csv --format csv`,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().String("run-dir", "", "run directory (default from config)")
	logsCmd.Flags().String("level", "", "minimum level (debug, info, warn, error)")
	logsCmd.Flags().String("run", "", "filter by run id")
	logsCmd.Flags().String("movement", "", "filter by movement name")
	logsCmd.Flags().String("subtask", "", "filter by subtask id")
	logsCmd.Flags().String("contains", "", "filter by message substring")
	logsCmd.Flags().String("export", "", "write filtered entries to this file")
	logsCmd.Flags().String("format", "text", "export format (json, text, csv)")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	runDir, _ := cmd.Flags().GetString("run-dir")
	if runDir == "" {
		runDir = cfg.Paths.RunDir
	}
	if !filepath.IsAbs(runDir) {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		runDir = filepath.Join(cwd, runDir)
	}

	entries, err := logging.AggregateLogs(runDir)
	if err != nil {
		return err
	}

	level, _ := cmd.Flags().GetString("level")
	runID, _ := cmd.Flags().GetString("run")
	movement, _ := cmd.Flags().GetString("movement")
	subtask, _ := cmd.Flags().GetString("subtask")
	contains, _ := cmd.Flags().GetString("contains")

	if level != "" {
		level = logging.ParseLevel(level)
	}
	entries = logging.FilterLogs(entries, logging.LogFilter{
		Level:           level,
		RunID:           runID,
		Movement:        movement,
		Subtask:         subtask,
		MessageContains: contains,
	})

	if export, _ := cmd.Flags().GetString("export"); export != "" {
		format, _ := cmd.Flags().GetString("format")
		if err := logging.ExportLogEntries(entries, export, format); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "exported %d entries to %s\n", len(entries), export)
		return nil
	}

	for _, e := range entries {
		line := fmt.Sprintf("%s %-5s %s", e.Timestamp.Format("15:04:05.000"), e.Level, e.Message)
		if e.Movement != "" {
			line += " movement=" + e.Movement
		}
		if e.Subtask != "" {
			line += " subtask=" + e.Subtask
		}
		fmt.Fprintln(os.Stdout, line)
	}
	return nil
}
