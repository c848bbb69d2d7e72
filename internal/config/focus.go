package config

import "time"

// Focus is a named analytical dimension the external capability is asked to
// evaluate for the target project.
type Focus string

const (
	FocusArchitecture  Focus = "architecture"
	FocusSecurity      Focus = "security"
	FocusQuality       Focus = "quality"
	FocusPerformance   Focus = "performance"
	FocusDocumentation Focus = "documentation"
)

// SupportedFocuses is the fixed set of focus areas the pipeline understands.
// Tags outside this set are a configuration error.
var SupportedFocuses = []Focus{
	FocusArchitecture,
	FocusSecurity,
	FocusQuality,
	FocusPerformance,
	FocusDocumentation,
}

// IsSupportedFocus reports whether the tag is part of the known enumeration.
func IsSupportedFocus(f Focus) bool {
	for _, s := range SupportedFocuses {
		if s == f {
			return true
		}
	}
	return false
}

// FocusSpec declares how one focus area is submitted to the external
// capability: the prompt template handed over verbatim and the per-call
// timeout.
type FocusSpec struct {
	Prompt         string `yaml:"prompt,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
}

// Timeout returns the per-call timeout as a duration.
func (s FocusSpec) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}
