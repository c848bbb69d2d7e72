package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/deepdoc/internal/capability"
	"git.home.luguber.info/inful/deepdoc/internal/config"
	"git.home.luguber.info/inful/deepdoc/internal/errors"
	"git.home.luguber.info/inful/deepdoc/internal/history"
	"git.home.luguber.info/inful/deepdoc/internal/report"
)

type mockCapability struct {
	mu       sync.Mutex
	probeErr error
	failing  map[config.Focus]error
	invoked  []config.Focus
}

func (m *mockCapability) Probe(ctx context.Context) error {
	return m.probeErr
}

func (m *mockCapability) Invoke(ctx context.Context, req capability.Request) (capability.Result, error) {
	m.mu.Lock()
	m.invoked = append(m.invoked, req.Focus)
	m.mu.Unlock()
	if err := m.failing[req.Focus]; err != nil {
		return capability.Result{}, err
	}
	return capability.Result{
		Output: strings.Repeat(fmt.Sprintf("Finding for %s in %s.\n", req.Focus, req.TargetPath), 120),
	}, nil
}

func (m *mockCapability) invocations() []config.Focus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]config.Focus(nil), m.invoked...)
}

func fixtureProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"go.mod":         "module example.com/demo\n\ngo 1.24\n",
		"main.go":        "package main\n\nfunc main() {}\n",
		"internal/a.go":  "package internal\n\nvar A = 1\n",
		"README.md":      "# demo\n",
		"docs/notes.txt": "notes\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func testConfig(t *testing.T, projectDir string, depth int, force bool) *config.PipelineConfig {
	t.Helper()
	cfg, err := config.Resolve(&config.File{
		Defaults: config.Settings{
			Depth:      &depth,
			FocusAreas: []config.Focus{config.FocusArchitecture, config.FocusQuality},
		},
	}, projectDir, config.Overrides{Force: force})
	require.NoError(t, err)
	return cfg
}

func TestExecuteSuccessfulRun(t *testing.T) {
	cfg := testConfig(t, fixtureProject(t), 2, false)
	cap := &mockCapability{}
	wsBase := t.TempDir()

	run, err := New(cfg, cap, WithWorkspaceBase(wsBase)).Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, run.Status)
	assert.NotEmpty(t, run.ID)
	require.Len(t, run.Documents, 2)
	assert.Equal(t, []config.Focus{config.FocusArchitecture, config.FocusQuality}, cap.invocations())

	// One file per level, the metadata digest, and the run report.
	entries, err := os.ReadDir(cfg.OutputPath)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"L1-overview.md", "L2-infrastructure.md", "project-metadata.yaml", report.Filename}, names)

	assert.InDelta(t, 1.0, run.Quality.Overall, 1e-9)
	for _, st := range []string{"dependency-check", "preflight", "analyze-project", "invoke", "generate", "score", "publish", "report"} {
		assert.Contains(t, run.StageDurations, st, "missing stage %s", st)
	}

	// Scratch directory is gone.
	leftovers, err := os.ReadDir(wsBase)
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestExecuteProbeFailureBeforeAnyMutation(t *testing.T) {
	cfg := testConfig(t, fixtureProject(t), 2, false)
	cap := &mockCapability{probeErr: fmt.Errorf("code-analyzer not on PATH")}

	run, err := New(cfg, cap).Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusFailed, run.Status)
	assert.True(t, errors.IsPreFlight(err))
	assert.Empty(t, cap.invocations(), "failed pre-flight must not invoke the capability")
	assert.NoDirExists(t, cfg.OutputPath)
}

func TestExecuteExistingOutputWithoutForce(t *testing.T) {
	cfg := testConfig(t, fixtureProject(t), 2, false)
	require.NoError(t, os.MkdirAll(cfg.OutputPath, 0o750))
	stale := filepath.Join(cfg.OutputPath, "old.md")
	require.NoError(t, os.WriteFile(stale, []byte("previous run"), 0o644))
	cap := &mockCapability{}

	run, err := New(cfg, cap).Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusFailed, run.Status)
	assert.True(t, errors.IsCategory(err, errors.CategoryOutput))
	assert.Empty(t, cap.invocations())

	// Existing output untouched.
	data, err := os.ReadFile(stale)
	require.NoError(t, err)
	assert.Equal(t, "previous run", string(data))
}

func TestExecuteInvokeFailureLeavesNoOutput(t *testing.T) {
	cfg := testConfig(t, fixtureProject(t), 2, false)
	cap := &mockCapability{failing: map[config.Focus]error{config.FocusArchitecture: fmt.Errorf("boom")}}
	wsBase := t.TempDir()

	run, err := New(cfg, cap, WithWorkspaceBase(wsBase)).Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusFailed, run.Status)
	assert.True(t, errors.IsCategory(err, errors.CategoryAnalysis))
	assert.NoDirExists(t, cfg.OutputPath)

	// Cleanup ran despite the abort.
	leftovers, err := os.ReadDir(wsBase)
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestExecuteForceRerunIsIdempotent(t *testing.T) {
	project := fixtureProject(t)
	cfg := testConfig(t, project, 3, true)
	cap := &mockCapability{}

	_, err := New(cfg, cap).Execute(context.Background())
	require.NoError(t, err)
	first := readDocs(t, cfg.OutputPath)

	_, err = New(cfg, cap).Execute(context.Background())
	require.NoError(t, err)
	second := readDocs(t, cfg.OutputPath)

	assert.Equal(t, first, second, "documents and metadata must be byte-identical across force re-runs")
}

// readDocs reads everything except the run report, which carries timings.
func readDocs(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		if e.Name() == report.Filename {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		out[e.Name()] = string(data)
	}
	return out
}

func TestExecuteCanceledContext(t *testing.T) {
	cfg := testConfig(t, fixtureProject(t), 2, false)
	cap := &mockCapability{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := New(cfg, cap).Execute(ctx)
	require.Error(t, err)
	assert.Equal(t, StatusFailed, run.Status)
	assert.Empty(t, cap.invocations())
}

func TestExecuteRecordsHistory(t *testing.T) {
	store, err := history.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	cfg := testConfig(t, fixtureProject(t), 1, false)
	run, err := New(cfg, &mockCapability{}, WithHistory(store)).Execute(context.Background())
	require.NoError(t, err)

	records, err := store.Recent(context.Background(), "", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, run.ID, records[0].RunID)
	assert.Equal(t, cfg.ProjectName, records[0].Project)
	assert.Equal(t, "succeeded", records[0].Status)
}

func TestSummarizeProvisionalStatus(t *testing.T) {
	cfg := testConfig(t, fixtureProject(t), 1, false)
	run := newRun("r1", cfg)
	assert.Equal(t, string(StatusSucceeded), Summarize(run).Status)

	run.Warn(errors.CleanupFailed(fmt.Errorf("x")))
	assert.Equal(t, string(StatusDegraded), Summarize(run).Status)

	run.Finish(fmt.Errorf("fatal"))
	assert.Equal(t, string(StatusFailed), Summarize(run).Status)
}
