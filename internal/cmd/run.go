package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/batonhq/baton/internal/agent"
	"github.com/batonhq/baton/internal/conduct"
	"github.com/batonhq/baton/internal/config"
	"github.com/batonhq/baton/internal/event"
	"github.com/batonhq/baton/internal/health"
	"github.com/batonhq/baton/internal/logging"
	"github.com/batonhq/baton/internal/report"
	"github.com/batonhq/baton/internal/score"
	"github.com/batonhq/baton/internal/tui"
)

var runCmd = &cobra.Command{
	Use:   "run <piece.yaml>",
	Short: "Conduct a piece from its definition file",
	Long: `Run loads a piece definition, validates it, and conducts its movements
until COMPLETE, ABORT, or the iteration ceiling.

The agent command, health thresholds, and report directory come from the
baton config file; flags override per run.

Examples:
  # Conduct a piece with defaults
  baton run piece.yaml

  # Cap the run and force plain progress output
  baton run piece.yaml --max-iterations 10 --plain`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().Int("max-iterations", 0, "override the iteration ceiling")
	runCmd.Flags().String("report-dir", "", "override the report directory")
	runCmd.Flags().Bool("plain", false, "line-based progress output instead of the TUI")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	piece, err := score.Load(args[0])
	if err != nil {
		return fmt.Errorf("loading piece: %w", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	reportDir := cfg.Report.Dir
	if flag, _ := cmd.Flags().GetString("report-dir"); flag != "" {
		reportDir = flag
	}
	if reportDir != "" && !filepath.IsAbs(reportDir) {
		reportDir = filepath.Join(cwd, reportDir)
	}

	maxIterations := cfg.Engine.MaxIterations
	if flag, _ := cmd.Flags().GetInt("max-iterations"); flag > 0 {
		maxIterations = flag
	}

	runDir := cfg.Paths.RunDir
	if !filepath.IsAbs(runDir) {
		runDir = filepath.Join(cwd, runDir)
	}
	logger, err := logging.NewRotatingLogger(runDir, cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer logger.Close()

	invoker, err := agent.NewCLIInvoker(agent.CLIConfig{
		Command:     cfg.Agent.Command,
		Args:        cfg.Agent.Args,
		PersonaFlag: cfg.Agent.PersonaFlag,
		SessionFlag: cfg.Agent.SessionFlag,
		ResumeFlag:  cfg.Agent.ResumeFlag,
		Dir:         cwd,
	})
	if err != nil {
		return err
	}

	bus := event.NewBus()

	if reportDir != "" {
		watcher, werr := report.NewWatcher(reportDir)
		if werr != nil {
			return werr
		}
		watcher.OnBatch(func(relPaths []string) {
			bus.Publish(event.NewReportArtifactEvent(relPaths))
		})
		if werr := watcher.Start(); werr != nil {
			return werr
		}
		defer watcher.Stop()
	}

	plain, _ := cmd.Flags().GetBool("plain")
	interactive := !plain && !cfg.TUI.Plain && term.IsTerminal(int(os.Stdout.Fd()))
	display := tui.Attach(bus, os.Stdout, interactive)
	defer display.Stop()

	engine, err := conduct.NewEngine(conduct.EngineConfig{
		Piece:   piece,
		Invoker: invoker,
		Bus:     bus,
		Logger:  logger,
		Thresholds: health.Thresholds{
			Stagnation: cfg.Health.StagnationThreshold,
			Loop:       cfg.Health.LoopThreshold,
			Recurrence: cfg.Health.RecurrenceThreshold,
		},
		ReportDir:     reportDir,
		Cwd:           cwd,
		MaxIterations: maxIterations,
		AgentTimeout:  cfg.Agent.Timeout(),
	})
	if err != nil {
		return err
	}

	result, err := engine.Run(cmd.Context())
	display.Stop()

	if result != nil && result.LastHealth != nil {
		fmt.Fprintln(os.Stdout)
		fmt.Fprintln(os.Stdout, health.Render(*result.LastHealth))
	}

	if err != nil {
		return err
	}
	if !result.Completed() {
		return fmt.Errorf("piece aborted: %s", result.Reason)
	}

	fmt.Fprintf(os.Stdout, "piece %q completed in %d iteration(s)\n", piece.Name, result.Iterations)
	return nil
}
