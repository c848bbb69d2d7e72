package config

import (
	"fmt"
	"os"
)

const exampleConfig = `# deepdoc configuration
#
# Settings merge in strict precedence:
#   CLI flags > project_types.<type> block > defaults

defaults:
  depth: 3
  project_type: auto
  focus_areas: [architecture, quality]
  parallel: false
  pool_size: 2
  expand_retries: 1
  # output: /absolute/path   # defaults to <project>/docs/analysis

project_types:
  framework:
    depth: 5
    focus_areas: [architecture, security, quality]
  library:
    depth: 2

focus:
  architecture:
    prompt: "Analyze the architecture of this project: layering, key components, dependency flow."
    timeout_seconds: 300
  security:
    prompt: "Review this project for security-relevant design: trust boundaries, input handling, secrets."
    timeout_seconds: 300
  quality:
    prompt: "Assess code quality: structure, naming, test coverage, maintainability."
    timeout_seconds: 300

analyzer:
  command: code-analyzer
  # args: [--json]

git:
  enabled: false
  remote: origin
  push: false

history:
  path: ""   # e.g. ~/.deepdoc/runs.db to record run history

daemon:
  interval: 24h
  metrics_addr: ""   # e.g. :9190
  nats_url: ""       # e.g. nats://localhost:4222
  subject: deepdoc.runs
`

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
