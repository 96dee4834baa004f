// Package logging provides structured logging for baton piece runs.
//
// The package is a thin wrapper over log/slog emitting JSON lines. Piece
// runs interleave output from concurrent subtask invocations, so every log
// entry carries enough context (run, movement, persona, subtask) to be
// separated out after the fact.
//
// All types here are safe for concurrent use: [Logger] delegates to
// slog, [RotatingWriter] serializes file operations with a mutex, and
// child loggers share the underlying writer.
//
// # Basic Usage
//
// Create a logger for a run directory:
//
//	logger, err := logging.NewLogger("/path/to/run", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Debug("detailed info", "key", "value")
//	logger.Info("movement completed", "duration_ms", 150)
//	logger.Warn("verdict degraded", "verdict", "stagnating")
//	logger.Error("movement failed", "error", err.Error())
//
// # Context Propagation
//
// Create child loggers with persistent context attributes:
//
//	runLogger := logger.WithRun("run-abc123")
//	movementLogger := runLogger.WithMovement("review")
//	subtaskLogger := movementLogger.WithSubtask("subtask-2")
//
//	// All logs from subtaskLogger include run_id, movement, and subtask
//	subtaskLogger.Info("invocation complete", "status", "done")
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"invocation complete","run_id":"run-abc123","movement":"review","subtask":"subtask-2","status":"done"}
//
// # Log Rotation
//
// For long improvement loops, use log rotation to prevent unbounded growth:
//
//	config := logging.RotationConfig{
//	    MaxSizeMB:  10,
//	    MaxBackups: 3,
//	    Compress:   true,
//	}
//
//	logger, err := logging.NewRotatingLogger("/path/to/run", "INFO", config)
//
// Rotated files are named baton.log.1, baton.log.2, and so on, where .1 is
// the most recent backup. When compression is enabled, rotated files become
// baton.log.1.gz.
//
// # Testing
//
// [NopLogger] discards everything, so tests never create log files:
//
//	logger := logging.NopLogger()
//
// # Log Aggregation and Filtering
//
// Read and analyze logs after a run:
//
//	entries, err := logging.AggregateLogs("/path/to/run")
//	if err != nil {
//	    return err
//	}
//
//	filter := logging.LogFilter{
//	    Level:     "WARN",
//	    Movement:  "review",
//	    StartTime: time.Now().Add(-1 * time.Hour),
//	}
//	filtered := logging.FilterLogs(entries, filter)
//
//	logging.ExportLogEntries(filtered, "errors.json", "json")
//
// # Log Levels
//
// Four levels exist: [LevelDebug], [LevelInfo] (the default),
// [LevelWarn], and [LevelError]. [ValidLevels] lists them and
// [ParseLevel] normalizes user-provided names.
package logging
