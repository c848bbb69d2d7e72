package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pipeerr "git.home.luguber.info/inful/deepdoc/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deepdoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, pipeerr.IsCategory(err, pipeerr.CategoryConfig))
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("DEEPDOC_TEST_OUTPUT", "/tmp/deepdoc-env-out")
	path := writeConfig(t, "defaults:\n  output: ${DEEPDOC_TEST_OUTPUT}\n")

	file, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, file.Defaults.Output)
	assert.Equal(t, "/tmp/deepdoc-env-out", *file.Defaults.Output)
}

func TestLoadOrDefaultWithoutConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())

	file, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, &File{}, file)
}

func TestLoadOrDefaultPicksUpDefaultFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigName), []byte("defaults:\n  depth: 4\n"), 0o644))
	t.Chdir(dir)

	file, err := LoadOrDefault("")
	require.NoError(t, err)
	require.NotNil(t, file.Defaults.Depth)
	assert.Equal(t, 4, *file.Defaults.Depth)
}

func TestLoadOrDefaultExplicitPathMustExist(t *testing.T) {
	_, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, pipeerr.IsCategory(err, pipeerr.CategoryConfig))
}

func TestResolveDefaults(t *testing.T) {
	project := t.TempDir()

	cfg, err := Resolve(&File{}, project, Overrides{})
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Depth)
	assert.Equal(t, ProjectTypeAuto, cfg.ProjectType)
	assert.Equal(t, []Focus{FocusArchitecture, FocusQuality}, cfg.FocusAreas)
	assert.False(t, cfg.Parallel)
	assert.Equal(t, 2, cfg.PoolSize)
	assert.Equal(t, filepath.Join(project, "docs", "analysis"), cfg.OutputPath)
	assert.Equal(t, filepath.Base(project), cfg.ProjectName)
	assert.Equal(t, "origin", cfg.Git.Remote)
	assert.Equal(t, 1, cfg.ExpandRetries)

	// Every configured focus gets a spec with prompt and timeout filled in.
	for _, f := range cfg.FocusAreas {
		spec, ok := cfg.Focus[f]
		require.True(t, ok, "missing spec for %s", f)
		assert.NotEmpty(t, spec.Prompt)
		assert.Positive(t, spec.TimeoutSeconds)
	}
}

func TestResolvePrecedence(t *testing.T) {
	project := t.TempDir()
	depth5, depth2 := 5, 2
	file := &File{
		Defaults: Settings{Depth: &depth2, FocusAreas: []Focus{FocusQuality}},
		ProjectTypes: map[string]Settings{
			"framework": {Depth: &depth5, FocusAreas: []Focus{FocusArchitecture, FocusSecurity}},
		},
	}

	// Project-type block overrides defaults.
	cfg, err := Resolve(file, project, Overrides{ProjectType: "framework"})
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Depth)
	assert.Equal(t, []Focus{FocusArchitecture, FocusSecurity}, cfg.FocusAreas)

	// CLI depth overrides the project-type block.
	cfg, err = Resolve(file, project, Overrides{ProjectType: "framework", Depth: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Depth)

	// Without a concrete type hint the block does not participate.
	cfg, err = Resolve(file, project, Overrides{})
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Depth)
	assert.Equal(t, []Focus{FocusQuality}, cfg.FocusAreas)
}

func TestResolveDeterministic(t *testing.T) {
	project := t.TempDir()
	depth4 := 4
	file := &File{Defaults: Settings{
		Depth:      &depth4,
		FocusAreas: []Focus{FocusSecurity, FocusArchitecture, FocusQuality},
	}}

	a, err := Resolve(file, project, Overrides{Force: true})
	require.NoError(t, err)
	b, err := Resolve(file, project, Overrides{Force: true})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestResolveValidation(t *testing.T) {
	project := t.TempDir()

	cases := []struct {
		name string
		file *File
		ov   Overrides
	}{
		{"depth too high", &File{}, Overrides{Depth: 6}},
		{"depth too low", &File{}, Overrides{Depth: -1}},
		{"unknown focus", &File{Defaults: Settings{FocusAreas: []Focus{"astrology"}}}, Overrides{}},
		{"duplicate focus", &File{Defaults: Settings{FocusAreas: []Focus{FocusQuality, FocusQuality}}}, Overrides{}},
		{"unknown project type", &File{}, Overrides{ProjectType: "cathedral"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Resolve(tc.file, project, tc.ov)
			require.Error(t, err)
			assert.True(t, pipeerr.IsCategory(err, pipeerr.CategoryConfig), "got %v", err)
		})
	}

	_, err := Resolve(&File{}, "", Overrides{})
	require.Error(t, err)

	_, err = Resolve(&File{}, filepath.Join(project, "missing"), Overrides{})
	require.Error(t, err)
}

func TestGitFlagOverride(t *testing.T) {
	project := t.TempDir()
	on := true
	cfg, err := Resolve(&File{}, project, Overrides{Git: &on})
	require.NoError(t, err)
	assert.True(t, cfg.Git.Enabled)
}

func TestDaemonInterval(t *testing.T) {
	f := &File{}
	d, err := f.DaemonInterval()
	require.NoError(t, err)
	assert.Equal(t, "24h0m0s", d.String())

	f.Daemon.Interval = "90m"
	d, err = f.DaemonInterval()
	require.NoError(t, err)
	assert.Equal(t, "1h30m0s", d.String())

	f.Daemon.Interval = "not-a-duration"
	_, err = f.DaemonInterval()
	require.Error(t, err)
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deepdoc.yaml")
	require.NoError(t, Init(path, false))

	// Generated example must itself parse and resolve.
	file, err := Load(path)
	require.NoError(t, err)
	_, err = Resolve(file, t.TempDir(), Overrides{})
	require.NoError(t, err)

	// Second init without force refuses to overwrite.
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))
}
