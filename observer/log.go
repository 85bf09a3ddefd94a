package observer

import (
	"context"
	"log/slog"
	"time"

	"github.com/dcshock/servicepipe/pipeline"
)

// LogObserver writes one structured record per hook. Run boundaries and
// failures are logged at Info/Error, stage boundaries at Debug.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver returns a LogObserver writing to logger, or to slog.Default()
// when logger is nil.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default().With(slog.String("component", "pipeline"))
	}
	return &LogObserver{logger: logger}
}

// BeforeRun implements pipeline.Observer. Logs "run started" at Info.
func (o *LogObserver) BeforeRun(ctx context.Context, runID, name string, input any) error {
	o.logger.InfoContext(ctx, "run started", "run_id", runID, "pipeline", name)
	return nil
}

// AfterRun implements pipeline.Observer. Logs "run finished" at Info or "run failed" at Error.
func (o *LogObserver) AfterRun(ctx context.Context, runID string, output any, err error) error {
	if err != nil {
		o.logger.ErrorContext(ctx, "run failed", "run_id", runID, "error", err)
		return nil
	}
	o.logger.InfoContext(ctx, "run finished", "run_id", runID)
	return nil
}

// BeforeStage implements pipeline.Observer. Logs "stage started" at Debug.
func (o *LogObserver) BeforeStage(ctx context.Context, runID string, stage int, service string, input any) error {
	o.logger.DebugContext(ctx, "stage started", "run_id", runID, "stage", stage, "service", service)
	return nil
}

// AfterStage implements pipeline.Observer. Logs "stage finished" at Debug or "stage failed" at Warn.
func (o *LogObserver) AfterStage(ctx context.Context, runID string, stage int, service string, input, output any, stageErr error, d time.Duration) error {
	if stageErr != nil {
		o.logger.WarnContext(ctx, "stage failed", "run_id", runID, "stage", stage, "service", service,
			"duration", d, "error", stageErr)
		return nil
	}
	o.logger.DebugContext(ctx, "stage finished", "run_id", runID, "stage", stage, "service", service, "duration", d)
	return nil
}

var _ pipeline.Observer = (*LogObserver)(nil)
