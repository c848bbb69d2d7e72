// Package config loads the layered deepdoc configuration document and
// resolves it, together with CLI overrides, into one immutable PipelineConfig.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/deepdoc/internal/errors"
)

// File is the on-disk configuration document. Settings are layered: global
// defaults, then a per-project-type block, then CLI overrides, in strictly
// increasing precedence.
type File struct {
	Defaults     Settings            `yaml:"defaults"`
	ProjectTypes map[string]Settings `yaml:"project_types,omitempty"`
	Focus        map[Focus]FocusSpec `yaml:"focus,omitempty"`
	Analyzer     AnalyzerConfig      `yaml:"analyzer,omitempty"`
	Git          GitConfig           `yaml:"git,omitempty"`
	History      HistoryConfig       `yaml:"history,omitempty"`
	Daemon       DaemonConfig        `yaml:"daemon,omitempty"`
}

// Settings is one configuration layer. All fields are optional; nil means the
// layer does not touch that knob.
type Settings struct {
	Depth         *int    `yaml:"depth,omitempty"`
	ProjectType   *string `yaml:"project_type,omitempty"`
	FocusAreas    []Focus `yaml:"focus_areas,omitempty"`
	Parallel      *bool   `yaml:"parallel,omitempty"`
	PoolSize      *int    `yaml:"pool_size,omitempty"`
	Output        *string `yaml:"output,omitempty"`
	ExpandRetries *int    `yaml:"expand_retries,omitempty"`
}

// AnalyzerConfig names the external analysis command. The command is invoked
// once per focus area with explicit path arguments; it never inherits a
// mutated working directory.
type AnalyzerConfig struct {
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
}

// GitConfig controls publishing generated documents to version control.
type GitConfig struct {
	Enabled     bool   `yaml:"enabled,omitempty"`
	Remote      string `yaml:"remote,omitempty"`
	Push        bool   `yaml:"push,omitempty"`
	AuthorName  string `yaml:"author_name,omitempty"`
	AuthorEmail string `yaml:"author_email,omitempty"`
}

// HistoryConfig points at the sqlite run store. An empty path disables
// history recording.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// DaemonConfig configures scheduled re-analysis mode.
type DaemonConfig struct {
	Interval    string `yaml:"interval,omitempty"`
	NATSURL     string `yaml:"nats_url,omitempty"`
	Subject     string `yaml:"subject,omitempty"`
	MetricsAddr string `yaml:"metrics_addr,omitempty"`
}

// Load reads and parses a configuration document. Environment variables in
// the document are expanded, and a .env file alongside the process is loaded
// first when present.
func Load(configPath string) (*File, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Note: .env file couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.ConfigNotFound(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "failed to read config file")
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var file File
	if err := yaml.Unmarshal([]byte(expandedData), &file); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "failed to unmarshal config")
	}

	return &file, nil
}

// DefaultConfigName is the configuration file picked up from the working
// directory when no explicit path is given.
const DefaultConfigName = "deepdoc.yaml"

// LoadOrDefault behaves like Load but tolerates a missing configuration:
// given an empty path it loads DefaultConfigName when present and otherwise
// returns an empty document, so `deepdoc run` works without a config file.
// An explicitly given path must still exist.
func LoadOrDefault(configPath string) (*File, error) {
	if configPath == "" {
		if _, err := os.Stat(DefaultConfigName); err != nil {
			return &File{}, nil
		}
		configPath = DefaultConfigName
	}
	return Load(configPath)
}
