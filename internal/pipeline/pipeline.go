// Package pipeline orchestrates one analysis run as a strictly ordered stage
// sequence: dependency check, pre-flight, project analysis, capability
// invocation, document generation, scoring, publishing, reporting. Cleanup
// always runs, even when a stage aborts the run.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/deepdoc/internal/capability"
	"git.home.luguber.info/inful/deepdoc/internal/config"
	"git.home.luguber.info/inful/deepdoc/internal/errors"
	"git.home.luguber.info/inful/deepdoc/internal/generator"
	"git.home.luguber.info/inful/deepdoc/internal/history"
	"git.home.luguber.info/inful/deepdoc/internal/invoker"
	"git.home.luguber.info/inful/deepdoc/internal/logfields"
	"git.home.luguber.info/inful/deepdoc/internal/project"
	"git.home.luguber.info/inful/deepdoc/internal/publisher"
	"git.home.luguber.info/inful/deepdoc/internal/quality"
	"git.home.luguber.info/inful/deepdoc/internal/report"
	"git.home.luguber.info/inful/deepdoc/internal/workspace"
)

// Pipeline executes analysis runs for one resolved configuration.
type Pipeline struct {
	cfg           *config.PipelineConfig
	cap           capability.Capability
	history       *history.Store
	workspaceBase string
}

// Option configures optional pipeline collaborators.
type Option func(*Pipeline)

// WithHistory attaches a run store; finalized runs are recorded there.
func WithHistory(store *history.Store) Option {
	return func(p *Pipeline) { p.history = store }
}

// WithWorkspaceBase overrides where scratch directories are created.
func WithWorkspaceBase(dir string) Option {
	return func(p *Pipeline) { p.workspaceBase = dir }
}

// New creates a pipeline. The capability is probed during the dependency
// check stage, not here.
func New(cfg *config.PipelineConfig, cap capability.Capability, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, cap: cap}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Execute runs the full pipeline once. The returned Run is always non-nil
// and finalized; the error is the fatal stage error, if any. No mutation of
// the output directory happens before every pre-flight check has passed.
func (p *Pipeline) Execute(ctx context.Context) (*Run, error) {
	run := newRun(uuid.NewString(), p.cfg)
	gen := generator.New(p.cfg)
	ws := workspace.NewManager(p.workspaceBase, run.ID)

	slog.Info("Starting analysis run",
		logfields.RunID(run.ID),
		logfields.Project(p.cfg.ProjectName),
		logfields.Path(p.cfg.ProjectPath),
		slog.Int("depth", p.cfg.Depth),
		slog.Bool("parallel", p.cfg.Parallel),
		slog.Bool("force", p.cfg.ForceOverwrite))

	var fatal error
	cleanedUp := false
	cleanup := func() {
		if cleanedUp {
			return
		}
		cleanedUp = true
		if err := ws.Cleanup(); err != nil {
			run.Warn(errors.CleanupFailed(err))
			slog.Warn("Workspace cleanup failed", logfields.RunID(run.ID), logfields.Error(err))
		}
		if fatal != nil && run.outputPrepared {
			if err := os.RemoveAll(p.cfg.OutputPath); err != nil {
				slog.Warn("Failed to remove partial output", logfields.Path(p.cfg.OutputPath), logfields.Error(err))
			} else {
				slog.Info("Removed partial output", logfields.Path(p.cfg.OutputPath))
			}
		}
	}
	defer cleanup()

	fatal = runStages(ctx, run, p.stages(gen, ws))
	cleanup()
	run.Finish(fatal)

	slog.Info("Analysis run finished",
		logfields.RunID(run.ID),
		logfields.Status(string(run.Status)),
		logfields.DurationMS(float64(run.Duration().Milliseconds())),
		slog.Int("documents", len(run.Documents)),
		slog.Int("warnings", len(run.Warnings)))
	return run, fatal
}

func (p *Pipeline) stages(gen *generator.Generator, ws *workspace.Manager) []StageDef {
	return []StageDef{
		{Name: "dependency-check", Fn: func(ctx context.Context, run *Run) error {
			return capability.CheckDependencies(ctx, p.cap, gen)
		}},
		{Name: "preflight", Fn: func(ctx context.Context, run *Run) error {
			return generator.PreflightOutputCheck(p.cfg.OutputPath, p.cfg.ForceOverwrite)
		}},
		{Name: "analyze-project", Fn: func(ctx context.Context, run *Run) error {
			digest, err := project.NewAnalyzer(p.cfg.ProjectPath).Analyze(p.cfg)
			if err != nil {
				return err
			}
			run.Digest = digest
			slog.Info("Project analyzed",
				logfields.RunID(run.ID),
				logfields.Project(digest.Name),
				slog.String("project_type", digest.ProjectType),
				slog.String("complexity", string(digest.Complexity)),
				slog.Int("files", digest.TotalFiles))
			return nil
		}},
		{Name: "invoke", Fn: func(ctx context.Context, run *Run) error {
			if err := ws.Create(); err != nil {
				return errors.Internal("create workspace", err)
			}
			inv := invoker.New(p.cap)
			inv.SetScratch(ws)
			artifacts, err := inv.Run(ctx, p.cfg)
			if err != nil {
				return err
			}
			run.Artifacts = artifacts
			return nil
		}},
		{Name: "generate", Fn: func(ctx context.Context, run *Run) error {
			run.outputPrepared = true
			res, err := gen.Generate(run.Digest, run.Artifacts)
			if err != nil {
				return err
			}
			run.Documents = res.Documents
			for _, w := range res.Warnings {
				run.Warn(w)
			}
			return nil
		}},
		{Name: "score", Fn: func(ctx context.Context, run *Run) error {
			run.Quality = quality.Score(p.cfg.Depth, run.Documents)
			slog.Info("Quality scored",
				logfields.RunID(run.ID),
				slog.Float64("overall", run.Quality.Overall),
				slog.Int("issues", len(run.Quality.Issues)))
			return nil
		}},
		{Name: "publish", Fn: func(ctx context.Context, run *Run) error {
			if !p.cfg.Git.Enabled {
				slog.Debug("Git publishing disabled, skipping", logfields.RunID(run.ID))
				return nil
			}
			run.Warn(publisher.New(p.cfg).Publish(ctx, run.Documents))
			return nil
		}},
		{Name: "report", Fn: func(ctx context.Context, run *Run) error {
			summary := Summarize(run)
			if err := summary.Write(p.cfg.OutputPath); err != nil {
				run.Warn(errors.StorageOperation("write report", err))
				return nil
			}
			if p.history != nil {
				if err := p.history.Record(ctx, summary); err != nil {
					run.Warn(errors.StorageOperation("record run", err))
				}
			}
			return nil
		}},
	}
}

// Summarize builds the run summary for reporting, history and event
// publishing. For a run still in flight the status is derived from the
// warnings recorded so far.
func Summarize(run *Run) report.Summary {
	status := run.Status
	finished := run.FinishedAt
	if status == "" {
		status = StatusSucceeded
		if len(run.Warnings) > 0 {
			status = StatusDegraded
		}
	}
	if finished.IsZero() {
		finished = time.Now()
	}
	return report.Build(report.Input{
		RunID:      run.ID,
		Config:     run.Config,
		Digest:     run.Digest,
		Artifacts:  run.Artifacts,
		Documents:  run.Documents,
		Quality:    run.Quality,
		Status:     string(status),
		StartedAt:  run.StartedAt,
		FinishedAt: finished,
		Warnings:   run.Warnings,
	})
}
