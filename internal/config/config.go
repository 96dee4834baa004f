// Package config holds baton's application configuration: the agent command
// that backs invocations, engine limits, health thresholds, report and
// logging settings, and TUI behavior. Values load through viper from a YAML
// file plus BATON_-prefixed environment overrides.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete baton configuration.
type Config struct {
	Agent   AgentConfig   `mapstructure:"agent"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Health  HealthConfig  `mapstructure:"health"`
	Report  ReportConfig  `mapstructure:"report"`
	Logging LoggingConfig `mapstructure:"logging"`
	TUI     TUIConfig     `mapstructure:"tui"`
	Paths   PathsConfig   `mapstructure:"paths"`
}

// AgentConfig describes the command-line program that backs agent calls.
type AgentConfig struct {
	// Command is the program invoked for every agent call.
	Command string `mapstructure:"command"`
	// Args are base arguments passed on every invocation.
	Args []string `mapstructure:"args"`
	// PersonaFlag passes the persona reference, e.g. "--persona".
	// Empty omits the argument.
	PersonaFlag string `mapstructure:"persona_flag"`
	// SessionFlag mints and passes a fresh session id for new invocations.
	SessionFlag string `mapstructure:"session_flag"`
	// ResumeFlag passes an existing session id to resume.
	ResumeFlag string `mapstructure:"resume_flag"`
	// TimeoutMinutes caps a single agent call (0 = no cap).
	TimeoutMinutes int `mapstructure:"timeout_minutes"`
}

// Timeout returns the per-call timeout as a duration (0 = none).
func (a AgentConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutMinutes) * time.Minute
}

// EngineConfig controls the piece engine.
type EngineConfig struct {
	// MaxIterations caps total movement executions for pieces that do not
	// set their own ceiling.
	MaxIterations int `mapstructure:"max_iterations"`
}

// HealthConfig holds the loop-health trend thresholds.
type HealthConfig struct {
	// StagnationThreshold is the consecutive-persist count at which a
	// finding trends stagnating.
	StagnationThreshold int `mapstructure:"stagnation_threshold"`
	// LoopThreshold is the consecutive-persist count at which a finding
	// trends looping.
	LoopThreshold int `mapstructure:"loop_threshold"`
	// RecurrenceThreshold is the recurrence count at which a finding
	// trends looping.
	RecurrenceThreshold int `mapstructure:"recurrence_threshold"`
	// ConsultOnStuck enables the misalignment consult when a run trends
	// stagnating or looping.
	ConsultOnStuck bool `mapstructure:"consult_on_stuck"`
}

// ReportConfig controls where report-phase artifacts live.
type ReportConfig struct {
	// Dir is the report directory, relative to the working directory when
	// not absolute. Empty disables report-based judgment.
	Dir string `mapstructure:"dir"`
	// WatchDebounceMs is the debounce window for the report watcher.
	WatchDebounceMs int `mapstructure:"watch_debounce_ms"`
}

// LoggingConfig controls run logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
	// MaxSizeMB rotates the run log when it exceeds this size (0 = never).
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is how many rotated logs to keep.
	MaxBackups int `mapstructure:"max_backups"`
	// Compress gzips rotated logs.
	Compress bool `mapstructure:"compress"`
}

// TUIConfig controls the progress display.
type TUIConfig struct {
	// Plain forces the line-writer fallback even on a TTY.
	Plain bool `mapstructure:"plain"`
	// MaxLineWidth truncates progress lines (0 = terminal width).
	MaxLineWidth int `mapstructure:"max_line_width"`
}

// PathsConfig overrides where baton keeps run state.
type PathsConfig struct {
	// RunDir is where run logs are written. Empty means ".baton" under
	// the working directory.
	RunDir string `mapstructure:"run_dir"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Agent: AgentConfig{
			Command:        "agent",
			TimeoutMinutes: 30,
		},
		Engine: EngineConfig{
			MaxIterations: 50,
		},
		Health: HealthConfig{
			StagnationThreshold: 3,
			LoopThreshold:       5,
			RecurrenceThreshold: 2,
			ConsultOnStuck:      true,
		},
		Report: ReportConfig{
			Dir:             "reports",
			WatchDebounceMs: 100,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		TUI: TUIConfig{},
		Paths: PathsConfig{
			RunDir: ".baton",
		},
	}
}

// SetDefaults registers every default with viper so values resolve even
// without a config file.
func SetDefaults() {
	d := Default()

	viper.SetDefault("agent.command", d.Agent.Command)
	viper.SetDefault("agent.args", d.Agent.Args)
	viper.SetDefault("agent.persona_flag", d.Agent.PersonaFlag)
	viper.SetDefault("agent.session_flag", d.Agent.SessionFlag)
	viper.SetDefault("agent.resume_flag", d.Agent.ResumeFlag)
	viper.SetDefault("agent.timeout_minutes", d.Agent.TimeoutMinutes)

	viper.SetDefault("engine.max_iterations", d.Engine.MaxIterations)

	viper.SetDefault("health.stagnation_threshold", d.Health.StagnationThreshold)
	viper.SetDefault("health.loop_threshold", d.Health.LoopThreshold)
	viper.SetDefault("health.recurrence_threshold", d.Health.RecurrenceThreshold)
	viper.SetDefault("health.consult_on_stuck", d.Health.ConsultOnStuck)

	viper.SetDefault("report.dir", d.Report.Dir)
	viper.SetDefault("report.watch_debounce_ms", d.Report.WatchDebounceMs)

	viper.SetDefault("logging.level", d.Logging.Level)
	viper.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	viper.SetDefault("logging.compress", d.Logging.Compress)

	viper.SetDefault("tui.plain", d.TUI.Plain)
	viper.SetDefault("tui.max_line_width", d.TUI.MaxLineWidth)

	viper.SetDefault("paths.run_dir", d.Paths.RunDir)
}

// Load unmarshals the current viper state into a Config and validates it.
func Load() (*Config, error) {
	cfg := Default()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return cfg, nil
}

// ConfigDir returns the directory baton looks in for its config file:
// $XDG_CONFIG_HOME/baton, falling back to ~/.config/baton.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "baton")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".baton"
	}
	return filepath.Join(home, ".config", "baton")
}

// ConfigFile returns the path to the config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
