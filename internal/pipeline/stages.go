package pipeline

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/deepdoc/internal/errors"
	"git.home.luguber.info/inful/deepdoc/internal/logfields"
)

// StageDef is one ordered pipeline stage. A stage returning an error aborts
// the run; warnings go on the Run instead.
type StageDef struct {
	Name string
	Fn   func(ctx context.Context, run *Run) error
}

// runStages executes the stages strictly in order, recording per-stage wall
// time and stopping on the first fatal error. Context cancellation is checked
// before each stage so a canceled run never starts new work.
func runStages(ctx context.Context, run *Run, stages []StageDef) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			slog.Warn("Run canceled",
				logfields.RunID(run.ID),
				logfields.Stage(st.Name))
			return errors.Wrap(ctx.Err(), errors.CategoryInternal, errors.SeverityFatal, "run canceled")
		default:
		}

		t0 := time.Now()
		err := st.Fn(ctx, run)
		dur := time.Since(t0)
		run.StageDurations[st.Name] = dur

		if err != nil {
			slog.Error("Stage failed",
				logfields.RunID(run.ID),
				logfields.Stage(st.Name),
				logfields.DurationMS(float64(dur.Milliseconds())),
				logfields.Error(err))
			return err
		}
		slog.Debug("Stage complete",
			logfields.RunID(run.ID),
			logfields.Stage(st.Name),
			logfields.DurationMS(float64(dur.Milliseconds())))
	}
	return nil
}
