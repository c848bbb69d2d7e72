// Package report assembles the machine-readable summary of one run and
// writes it next to the generated documents. The summary carries timings and
// run identity; the documents themselves stay timestamp-free.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/deepdoc/internal/config"
	"git.home.luguber.info/inful/deepdoc/internal/document"
	"git.home.luguber.info/inful/deepdoc/internal/errors"
	"git.home.luguber.info/inful/deepdoc/internal/invoker"
	"git.home.luguber.info/inful/deepdoc/internal/project"
	"git.home.luguber.info/inful/deepdoc/internal/quality"
)

// Filename of the run summary inside the output directory.
const Filename = "analysis-report.json"

// FocusTiming is the wall time of one capability invocation.
type FocusTiming struct {
	Focus      config.Focus `json:"focus"`
	Status     string       `json:"status"`
	DurationMS int64        `json:"duration_ms"`
}

// Summary is the finalized record of one run. It is what the history store
// persists and what the daemon publishes.
type Summary struct {
	RunID         string               `json:"run_id"`
	Project       string               `json:"project"`
	ProjectType   string               `json:"project_type"`
	Path          string               `json:"path"`
	Depth         int                  `json:"depth"`
	Status        string               `json:"status"`
	StartedAt     time.Time            `json:"started_at"`
	FinishedAt    time.Time            `json:"finished_at"`
	DurationMS    int64                `json:"duration_ms"`
	Complexity    project.Complexity   `json:"complexity"`
	DocumentCount int                  `json:"document_count"`
	TotalLines    int                  `json:"total_lines"`
	Documents     []document.Generated `json:"documents,omitempty"`
	Focuses       []FocusTiming        `json:"focuses,omitempty"`
	Quality       quality.Report       `json:"quality"`
	Warnings      []string             `json:"warnings,omitempty"`
}

// Input is everything the aggregator needs from a finished run.
type Input struct {
	RunID      string
	Config     *config.PipelineConfig
	Digest     *project.Digest
	Artifacts  map[config.Focus]invoker.Artifact
	Documents  []document.Generated
	Quality    quality.Report
	Status     string
	StartedAt  time.Time
	FinishedAt time.Time
	Warnings   []*errors.PipelineError
}

// Build assembles the summary. Focus timings follow the configured focus
// order, not map order.
func Build(in Input) Summary {
	s := Summary{
		RunID:         in.RunID,
		Project:       in.Config.ProjectName,
		ProjectType:   in.Config.ProjectType,
		Path:          in.Config.ProjectPath,
		Depth:         in.Config.Depth,
		Status:        in.Status,
		StartedAt:     in.StartedAt,
		FinishedAt:    in.FinishedAt,
		DurationMS:    in.FinishedAt.Sub(in.StartedAt).Milliseconds(),
		DocumentCount: len(in.Documents),
		Documents:     in.Documents,
		Quality:       in.Quality,
	}
	if in.Digest != nil {
		s.Complexity = in.Digest.Complexity
	}
	for _, doc := range in.Documents {
		s.TotalLines += doc.LineCount
	}
	for _, focus := range in.Config.FocusAreas {
		artifact, ok := in.Artifacts[focus]
		if !ok {
			continue
		}
		s.Focuses = append(s.Focuses, FocusTiming{
			Focus:      focus,
			Status:     string(artifact.Status),
			DurationMS: artifact.Duration().Milliseconds(),
		})
	}
	for _, w := range in.Warnings {
		s.Warnings = append(s.Warnings, w.Error())
	}
	return s
}

// Write emits the summary as indented JSON into the output directory.
func (s Summary) Write(outputPath string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Internal("marshal run summary", err)
	}
	if err := os.WriteFile(filepath.Join(outputPath, Filename), append(data, '\n'), 0o644); err != nil {
		return errors.Internal("write run summary", err)
	}
	return nil
}
