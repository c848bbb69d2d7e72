// Package project performs the single pre-analysis walk over the target
// codebase, producing a structural digest consumed by later pipeline stages.
package project

// Complexity is a coarse classification of project size.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// Digest is the structural summary of one project tree. It is read-only
// input to the invocation, generation and report stages.
type Digest struct {
	Name         string         `json:"name" yaml:"name"`
	Path         string         `json:"path" yaml:"path"`
	ProjectType  string         `json:"project_type" yaml:"project_type"`
	Technologies []string       `json:"technologies" yaml:"technologies"`
	TotalFiles   int            `json:"total_files" yaml:"total_files"`
	TotalLines   int            `json:"total_lines" yaml:"total_lines"`
	Directories  int            `json:"directories" yaml:"directories"`
	Skipped      int            `json:"skipped" yaml:"skipped"`
	FilesByExt   map[string]int `json:"files_by_ext" yaml:"files_by_ext"`
	KeyFiles     []string       `json:"key_files" yaml:"key_files"`
	Complexity   Complexity     `json:"complexity" yaml:"complexity"`
}

// classifyComplexity derives the coarse bucket from file/dir/line counts.
// Each dimension saturates at 1.0; the average decides the bucket.
func classifyComplexity(files, dirs, lines int) Complexity {
	score := (saturate(float64(files)/100) +
		saturate(float64(dirs)/20) +
		saturate(float64(lines)/10000)) / 3

	switch {
	case score < 0.2:
		return ComplexitySimple
	case score < 0.5:
		return ComplexityModerate
	default:
		return ComplexityComplex
	}
}

func saturate(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}
