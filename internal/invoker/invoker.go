// Package invoker drives the external analysis capability once per configured
// focus area, sequentially or through a bounded worker pool, and collects the
// resulting artifacts keyed by focus.
package invoker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/deepdoc/internal/capability"
	"git.home.luguber.info/inful/deepdoc/internal/config"
	"git.home.luguber.info/inful/deepdoc/internal/errors"
	"git.home.luguber.info/inful/deepdoc/internal/logfields"
)

// ArtifactStatus marks how one analysis call concluded.
type ArtifactStatus string

const (
	StatusSucceeded ArtifactStatus = "succeeded"
	StatusFailed    ArtifactStatus = "failed"
)

// Artifact is the raw output of one capability invocation for one focus
// area. Produced exactly once per configured focus per run; immutable once
// stored.
type Artifact struct {
	Focus      config.Focus   `json:"focus"`
	Output     string         `json:"-"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Status     ArtifactStatus `json:"status"`
}

// Duration is the wall time of the underlying capability call.
func (a Artifact) Duration() time.Duration {
	return a.FinishedAt.Sub(a.StartedAt)
}

// Scratch hands out named scratch directories, one per focus area.
type Scratch interface {
	CreateSubdir(name string) (string, error)
}

// Invoker fans analysis calls out to the capability.
type Invoker struct {
	cap     capability.Capability
	scratch Scratch
}

// New creates an invoker backed by the given capability.
func New(cap capability.Capability) *Invoker {
	return &Invoker{cap: cap}
}

// SetScratch provides the run's workspace; each focus then gets its own
// scratch subdirectory as working directory, so capability intermediates
// never land in the target project and concurrent calls never collide.
func (inv *Invoker) SetScratch(s Scratch) {
	inv.scratch = s
}

// Run invokes the capability once per configured focus area. The returned map
// is keyed by focus so that completion order never leaks into later stages.
// Any focus failure aborts the run with an aggregate error naming every
// focus that actually failed; focuses not yet dispatched at that point are
// never issued. There is deliberately no retry, an expensive external call
// must not be silently repeated.
func (inv *Invoker) Run(ctx context.Context, cfg *config.PipelineConfig) (map[config.Focus]Artifact, error) {
	if cfg.Parallel {
		return inv.runParallel(ctx, cfg)
	}
	return inv.runSequential(ctx, cfg)
}

// runSequential invokes focus areas one at a time in configured order,
// failing fast: no partial artifact set is carried forward.
func (inv *Invoker) runSequential(ctx context.Context, cfg *config.PipelineConfig) (map[config.Focus]Artifact, error) {
	artifacts := make(map[config.Focus]Artifact, len(cfg.FocusAreas))
	for _, focus := range cfg.FocusAreas {
		artifact, err := inv.invokeOne(ctx, cfg, focus)
		if err != nil {
			return nil, errors.AnalysisFailed([]string{string(focus)}, err)
		}
		artifacts[focus] = artifact
	}
	return artifacts, nil
}

// runParallel fans out over a bounded worker pool. The first failure stops
// dispatch of not-yet-started focuses while in-flight workers drain, so a
// doomed run does not keep issuing expensive capability calls and never
// leaves an orphaned external process behind; the aggregate error then names
// every focus that actually failed.
func (inv *Invoker) runParallel(ctx context.Context, cfg *config.PipelineConfig) (map[config.Focus]Artifact, error) {
	results := runOrdered(cfg.FocusAreas, cfg.PoolSize, func(focus config.Focus) (Artifact, error) {
		return inv.invokeOne(ctx, cfg, focus)
	})

	artifacts := make(map[config.Focus]Artifact, len(cfg.FocusAreas))
	var failed []string
	var causes []string
	var skipped []string
	for i, res := range results {
		focus := cfg.FocusAreas[i]
		if res.Skipped {
			skipped = append(skipped, string(focus))
			continue
		}
		if res.Err != nil {
			failed = append(failed, string(focus))
			causes = append(causes, res.Err.Error())
			continue
		}
		artifacts[focus] = res.Value
	}

	if len(failed) > 0 {
		sort.Strings(failed)
		if len(skipped) > 0 {
			sort.Strings(skipped)
			slog.Warn("Focuses not dispatched after failure", slog.Any("skipped", skipped))
		}
		return nil, errors.AnalysisFailed(failed,
			fmt.Errorf("focuses [%s] failed: %s", strings.Join(failed, ", "), strings.Join(causes, "; ")))
	}
	return artifacts, nil
}

func (inv *Invoker) invokeOne(ctx context.Context, cfg *config.PipelineConfig, focus config.Focus) (Artifact, error) {
	spec := cfg.Focus[focus]

	var workDir string
	if inv.scratch != nil {
		dir, err := inv.scratch.CreateSubdir(string(focus))
		if err != nil {
			return Artifact{}, err
		}
		workDir = dir
	}

	slog.Info("Invoking analysis", logfields.Focus(string(focus)), logfields.Project(cfg.ProjectName))
	res, err := inv.cap.Invoke(ctx, capability.Request{
		TargetPath: cfg.ProjectPath,
		Focus:      focus,
		Prompt:     spec.Prompt,
		Timeout:    spec.Timeout(),
		WorkDir:    workDir,
	})
	if err != nil {
		slog.Warn("Analysis failed", logfields.Focus(string(focus)), logfields.Error(err))
		return Artifact{}, err
	}

	artifact := Artifact{
		Focus:      focus,
		Output:     res.Output,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Status:     StatusSucceeded,
	}
	slog.Info("Analysis complete",
		logfields.Focus(string(focus)),
		logfields.DurationMS(float64(artifact.Duration().Milliseconds())))
	return artifact, nil
}
