package pipeline

import (
	"time"

	"git.home.luguber.info/inful/deepdoc/internal/config"
	"git.home.luguber.info/inful/deepdoc/internal/document"
	"git.home.luguber.info/inful/deepdoc/internal/errors"
	"git.home.luguber.info/inful/deepdoc/internal/invoker"
	"git.home.luguber.info/inful/deepdoc/internal/project"
	"git.home.luguber.info/inful/deepdoc/internal/quality"
)

// Status is the final verdict of a run.
type Status string

const (
	// StatusSucceeded means every stage completed with no warnings.
	StatusSucceeded Status = "succeeded"
	// StatusDegraded means the documents were produced but warnings were
	// recorded (shortfall, git, storage, cleanup).
	StatusDegraded Status = "degraded"
	// StatusFailed means a fatal stage error aborted the run.
	StatusFailed Status = "failed"
)

// Run is the mutable state of one pipeline execution. Stages fill it in
// order; once Finish has been called it is immutable.
type Run struct {
	ID        string
	Config    *config.PipelineConfig
	Digest    *project.Digest
	Artifacts map[config.Focus]invoker.Artifact
	Documents []document.Generated
	Quality   quality.Report
	Status    Status
	Warnings  []*errors.PipelineError

	StartedAt      time.Time
	FinishedAt     time.Time
	StageDurations map[string]time.Duration

	// outputPrepared flips once the generate stage has replaced the output
	// directory; after that an abort must remove the partial output.
	outputPrepared bool
}

func newRun(id string, cfg *config.PipelineConfig) *Run {
	return &Run{
		ID:             id,
		Config:         cfg,
		StartedAt:      time.Now(),
		StageDurations: make(map[string]time.Duration),
	}
}

// Warn records a non-fatal problem on the run.
func (r *Run) Warn(w *errors.PipelineError) {
	if w != nil {
		r.Warnings = append(r.Warnings, w)
	}
}

// Finish stamps the end time and derives the final status.
func (r *Run) Finish(fatal error) {
	r.FinishedAt = time.Now()
	switch {
	case fatal != nil:
		r.Status = StatusFailed
	case len(r.Warnings) > 0:
		r.Status = StatusDegraded
	default:
		r.Status = StatusSucceeded
	}
}

// Duration is the wall time of the whole run.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
