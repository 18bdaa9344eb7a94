package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/gnames/hktransit/internal/iometrics"
)

// stageTimes keeps durations of stages run by one command.
type stageTimes map[string]time.Duration

// writeMetrics refreshes metrics.prom with the current artifacts and
// the stages of this run. Failures are logged and do not fail the run.
func writeMetrics(ctx context.Context, st stageTimes) {
	m := iometrics.New()
	if err := m.Collect(ctx, cfg); err != nil {
		slog.Warn("Cannot collect metrics", "error", err)
		return
	}
	for stage, d := range st {
		m.ObserveStage(stage, d)
	}
	if _, err := m.Write(cfg.OutputDir); err != nil {
		slog.Warn("Cannot write metrics", "error", err)
	}
}
