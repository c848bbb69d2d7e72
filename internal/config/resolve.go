package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/deepdoc/internal/errors"
)

// Depth bounds for document tiers. Each level requires all lower levels.
const (
	MinDepth = 1
	MaxDepth = 5
)

// ProjectTypeAuto defers project-type detection to the pre-analysis stage.
const ProjectTypeAuto = "auto"

// KnownProjectTypes enumerates the project-type tags a configuration may
// name, mirroring the per-type override blocks.
var KnownProjectTypes = []string{"framework", "library", "application", "plugin"}

const (
	defaultDepth          = 3
	defaultPoolSize       = 2
	defaultExpandRetries  = 1
	defaultFocusTimeout   = 300 // seconds
	defaultAnalyzerBinary = "code-analyzer"
)

var defaultFocusAreas = []Focus{FocusArchitecture, FocusQuality}

// Overrides carries CLI-level settings. Zero values mean "not set" except for
// Force, which is a plain flag.
type Overrides struct {
	Depth       int
	ProjectType string
	Output      string
	Parallel    *bool
	Git         *bool
	Force       bool
}

// PipelineConfig is the immutable, fully resolved run configuration. Build it
// once through Resolve; stages only ever read it.
type PipelineConfig struct {
	ProjectPath    string
	ProjectName    string
	Depth          int
	ProjectType    string
	FocusAreas     []Focus
	Focus          map[Focus]FocusSpec
	Parallel       bool
	PoolSize       int
	ForceOverwrite bool
	OutputPath     string
	ExpandRetries  int
	Analyzer       AnalyzerConfig
	Git            GitConfig
	History        HistoryConfig
}

// Resolve merges the configuration layers for one run in strict precedence:
// CLI overrides > project-type block > file defaults > built-in defaults.
// The result is deterministic: identical inputs yield identical configs.
func Resolve(file *File, projectPath string, ov Overrides) (*PipelineConfig, error) {
	if file == nil {
		file = &File{}
	}
	if projectPath == "" {
		return nil, errors.ConfigValidation("project", "project path is required")
	}

	absProject, err := filepath.Abs(projectPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "failed to resolve project path")
	}
	info, err := os.Stat(absProject)
	if err != nil {
		return nil, errors.ConfigValidation("project", fmt.Sprintf("project path not accessible: %v", err))
	}
	if !info.IsDir() {
		return nil, errors.ConfigValidation("project", "project path is not a directory")
	}

	// Project type hint decides which override block participates in the merge.
	projectType := stringOr(file.Defaults.ProjectType, ProjectTypeAuto)
	if ov.ProjectType != "" {
		projectType = ov.ProjectType
	}
	if projectType != ProjectTypeAuto && !isKnownProjectType(projectType) {
		return nil, errors.ConfigValidation("project_type", fmt.Sprintf("unknown project type %q", projectType))
	}

	merged := file.Defaults
	if projectType != ProjectTypeAuto {
		if block, ok := file.ProjectTypes[projectType]; ok {
			merged = overlay(merged, block)
		}
	}

	cfg := &PipelineConfig{
		ProjectPath:    absProject,
		ProjectName:    filepath.Base(absProject),
		Depth:          intOr(merged.Depth, defaultDepth),
		ProjectType:    projectType,
		FocusAreas:     append([]Focus(nil), focusesOr(merged.FocusAreas, defaultFocusAreas)...),
		Parallel:       boolOr(merged.Parallel, false),
		PoolSize:       intOr(merged.PoolSize, defaultPoolSize),
		ForceOverwrite: ov.Force,
		ExpandRetries:  intOr(merged.ExpandRetries, defaultExpandRetries),
		Analyzer:       file.Analyzer,
		Git:            file.Git,
		History:        file.History,
	}

	// CLI overrides win over every file layer.
	if ov.Depth != 0 {
		cfg.Depth = ov.Depth
	}
	if ov.Parallel != nil {
		cfg.Parallel = *ov.Parallel
	}
	if ov.Git != nil {
		cfg.Git.Enabled = *ov.Git
	}

	output := stringOr(merged.Output, "")
	if ov.Output != "" {
		output = ov.Output
	}
	if output == "" {
		// Derived from the project itself: documents live next to the code
		// they describe, which is also what makes git publishing work.
		output = filepath.Join(absProject, "docs", "analysis")
	}
	cfg.OutputPath, err = filepath.Abs(output)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "failed to resolve output path")
	}

	applyFixedDefaults(cfg)

	cfg.Focus = resolveFocusSpecs(file.Focus, cfg.FocusAreas)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFixedDefaults(cfg *PipelineConfig) {
	if cfg.Analyzer.Command == "" {
		cfg.Analyzer.Command = defaultAnalyzerBinary
	}
	if cfg.Git.Remote == "" {
		cfg.Git.Remote = "origin"
	}
	if cfg.Git.AuthorName == "" {
		cfg.Git.AuthorName = "deepdoc"
	}
	if cfg.Git.AuthorEmail == "" {
		cfg.Git.AuthorEmail = "deepdoc@localhost"
	}
	if cfg.PoolSize < 1 {
		cfg.PoolSize = 1
	}
}

// resolveFocusSpecs fills in defaults for focus areas the file does not
// declare explicitly.
func resolveFocusSpecs(declared map[Focus]FocusSpec, areas []Focus) map[Focus]FocusSpec {
	specs := make(map[Focus]FocusSpec, len(areas))
	for _, f := range areas {
		spec := declared[f]
		if spec.Prompt == "" {
			spec.Prompt = fmt.Sprintf("Analyze the %s of this project in depth.", f)
		}
		if spec.TimeoutSeconds <= 0 {
			spec.TimeoutSeconds = defaultFocusTimeout
		}
		specs[f] = spec
	}
	return specs
}

func validate(cfg *PipelineConfig) error {
	if cfg.Depth < MinDepth || cfg.Depth > MaxDepth {
		return errors.ConfigValidation("depth",
			fmt.Sprintf("depth %d out of range %d..%d", cfg.Depth, MinDepth, MaxDepth))
	}
	if len(cfg.FocusAreas) == 0 {
		return errors.ConfigValidation("focus_areas", "at least one focus area is required")
	}
	seen := make(map[Focus]bool, len(cfg.FocusAreas))
	for _, f := range cfg.FocusAreas {
		if !IsSupportedFocus(f) {
			return errors.ConfigValidation("focus_areas", fmt.Sprintf("unknown focus area %q", f))
		}
		if seen[f] {
			return errors.ConfigValidation("focus_areas", fmt.Sprintf("duplicate focus area %q", f))
		}
		seen[f] = true
	}
	if cfg.OutputPath == "" {
		return errors.ConfigValidation("output", "output path is unset and cannot be derived")
	}
	if cfg.ExpandRetries < 0 {
		return errors.ConfigValidation("expand_retries", "must not be negative")
	}
	return nil
}

// DaemonInterval parses the daemon re-analysis interval, defaulting to 24h.
func (f *File) DaemonInterval() (time.Duration, error) {
	if f.Daemon.Interval == "" {
		return 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(f.Daemon.Interval)
	if err != nil {
		return 0, errors.ConfigValidation("daemon.interval", err.Error())
	}
	if d <= 0 {
		return 0, errors.ConfigValidation("daemon.interval", "must be positive")
	}
	return d, nil
}

func isKnownProjectType(t string) bool {
	for _, k := range KnownProjectTypes {
		if k == t {
			return true
		}
	}
	return false
}

// overlay applies the non-nil fields of top over base.
func overlay(base, top Settings) Settings {
	out := base
	if top.Depth != nil {
		out.Depth = top.Depth
	}
	if top.ProjectType != nil {
		out.ProjectType = top.ProjectType
	}
	if len(top.FocusAreas) > 0 {
		out.FocusAreas = top.FocusAreas
	}
	if top.Parallel != nil {
		out.Parallel = top.Parallel
	}
	if top.PoolSize != nil {
		out.PoolSize = top.PoolSize
	}
	if top.Output != nil {
		out.Output = top.Output
	}
	if top.ExpandRetries != nil {
		out.ExpandRetries = top.ExpandRetries
	}
	return out
}

func intOr(v *int, def int) int {
	if v != nil {
		return *v
	}
	return def
}

func boolOr(v *bool, def bool) bool {
	if v != nil {
		return *v
	}
	return def
}

func stringOr(v *string, def string) string {
	if v != nil && *v != "" {
		return *v
	}
	return def
}

func focusesOr(v []Focus, def []Focus) []Focus {
	if len(v) > 0 {
		return v
	}
	return def
}
