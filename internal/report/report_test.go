package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/deepdoc/internal/config"
	"git.home.luguber.info/inful/deepdoc/internal/document"
	"git.home.luguber.info/inful/deepdoc/internal/errors"
	"git.home.luguber.info/inful/deepdoc/internal/invoker"
	"git.home.luguber.info/inful/deepdoc/internal/project"
	"git.home.luguber.info/inful/deepdoc/internal/quality"
)

func sampleInput(t *testing.T) Input {
	t.Helper()
	started := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	return Input{
		RunID: "0c5a8a1e-run",
		Config: &config.PipelineConfig{
			ProjectName: "demo",
			ProjectType: "application",
			ProjectPath: "/src/demo",
			Depth:       2,
			FocusAreas:  []config.Focus{config.FocusArchitecture, config.FocusQuality},
		},
		Digest: &project.Digest{Complexity: project.ComplexityModerate},
		Artifacts: map[config.Focus]invoker.Artifact{
			config.FocusQuality: {
				Focus:      config.FocusQuality,
				Status:     invoker.StatusSucceeded,
				StartedAt:  started,
				FinishedAt: started.Add(2 * time.Second),
			},
			config.FocusArchitecture: {
				Focus:      config.FocusArchitecture,
				Status:     invoker.StatusSucceeded,
				StartedAt:  started,
				FinishedAt: started.Add(3 * time.Second),
			},
		},
		Documents: []document.Generated{
			{LevelID: 1, Filename: "L1-overview.md", LineCount: 50},
			{LevelID: 2, Filename: "L2-infrastructure.md", LineCount: 70},
		},
		Quality:    quality.Report{Overall: 1.0, Completeness: 1.0, Depth: 1.0, Consistency: 1.0},
		Status:     "succeeded",
		StartedAt:  started,
		FinishedAt: started.Add(10 * time.Second),
		Warnings:   []*errors.PipelineError{errors.CleanupFailed(os.ErrPermission)},
	}
}

func TestBuild(t *testing.T) {
	s := Build(sampleInput(t))

	assert.Equal(t, "demo", s.Project)
	assert.Equal(t, 2, s.DocumentCount)
	assert.Equal(t, 120, s.TotalLines)
	assert.Equal(t, int64(10000), s.DurationMS)
	assert.Equal(t, project.ComplexityModerate, s.Complexity)
	require.Len(t, s.Warnings, 1)
	assert.Contains(t, s.Warnings[0], "cleanup failed")

	// Timings follow the configured focus order.
	require.Len(t, s.Focuses, 2)
	assert.Equal(t, config.FocusArchitecture, s.Focuses[0].Focus)
	assert.Equal(t, int64(3000), s.Focuses[0].DurationMS)
	assert.Equal(t, config.FocusQuality, s.Focuses[1].Focus)
	assert.Equal(t, int64(2000), s.Focuses[1].DurationMS)
}

func TestBuildSkipsMissingArtifacts(t *testing.T) {
	in := sampleInput(t)
	delete(in.Artifacts, config.FocusQuality)
	s := Build(in)
	require.Len(t, s.Focuses, 1)
	assert.Equal(t, config.FocusArchitecture, s.Focuses[0].Focus)
}

func TestWriteRoundtrip(t *testing.T) {
	dir := t.TempDir()
	s := Build(sampleInput(t))
	require.NoError(t, s.Write(dir))

	data, err := os.ReadFile(filepath.Join(dir, Filename))
	require.NoError(t, err)

	var loaded Summary
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, s.RunID, loaded.RunID)
	assert.Equal(t, s.TotalLines, loaded.TotalLines)
	assert.Equal(t, s.Quality.Overall, loaded.Quality.Overall)
	// Document bodies never land in the report.
	for _, doc := range loaded.Documents {
		assert.Empty(t, doc.Content)
	}
}
