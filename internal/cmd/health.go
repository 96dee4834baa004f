package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/batonhq/baton/internal/config"
	"github.com/batonhq/baton/internal/health"
)

var healthCmd = &cobra.Command{
	Use:   "health <review-output>...",
	Short: "Replay reviewer outputs through the loop health monitor",
	Long: `Health feeds one or more saved reviewer outputs through the finding
tracker in order, one file per iteration, and prints the resulting
snapshot: per-finding lifecycle, trends, and the overall verdict.

Useful for inspecting why a finished run classified the way it did, or
for tuning thresholds against recorded transcripts.

Examples:
  # Replay three review iterations
  baton health review-1.md review-2.md review-3.md`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	tracker := health.NewTracker(health.Thresholds{
		Stagnation: cfg.Health.StagnationThreshold,
		Loop:       cfg.Health.LoopThreshold,
		Recurrence: cfg.Health.RecurrenceThreshold,
	})

	var snapshot health.Snapshot
	previousActive := 0
	for i, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		findings, err := health.ExtractFindings(string(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %s: %v\n", path, err)
		}

		// A file with no usable findings block keeps the tracker state,
		// matching how the engine treats such an iteration.
		if err != nil || !health.HasFindingsBlock(string(data)) {
			snapshot = health.CheckWithoutUpdate(tracker, previousActive, true,
				"replay", i+1, len(args))
		} else {
			snapshot = health.RunHealthCheck(tracker, findings, previousActive, false,
				"replay", i+1, len(args))
		}
		previousActive = snapshot.ActiveCount
	}

	fmt.Fprintln(os.Stdout, health.Render(snapshot))
	return nil
}
