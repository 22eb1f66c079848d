package cmdlog

import (
	"time"

	"bizcal/internal/logging"
	"bizcal/internal/metrics"
)

// Run executes one CLI command, counting it and logging its outcome and duration.
func Run(cmd string, f func() error) error {
	metrics.IncCommandRun(cmd)
	start := time.Now()
	err := f()
	fields := map[string]any{"command": cmd, "duration_ms": time.Since(start).Milliseconds()}
	if err != nil {
		metrics.IncCommandError(cmd)
		fields["error"] = err.Error()
		logging.Error("command_error", fields)
		return err
	}
	logging.Info("command_ok", fields)
	return nil
}
