// Package document declares the static shape contracts of the tiered
// analysis documents: one descriptor per level, cumulative from L1 up.
package document

import (
	"fmt"

	"git.home.luguber.info/inful/deepdoc/internal/config"
)

// Level is the static shape contract one generated document must satisfy.
type Level struct {
	ID               int
	Name             string
	Title            string
	MinLines         int
	RequiredSections []string
	// Focuses lists the analysis dimensions this level draws on. Levels are
	// cumulative: a level may reference any artifact used by lower levels.
	Focuses []config.Focus
}

// Filename returns the output file name for this level.
func (l Level) Filename() string {
	return fmt.Sprintf("L%d-%s.md", l.ID, l.Name)
}

// baseSections are emitted by every level template unconditionally, so
// completeness failures always point at real generation defects rather than
// unconfigured focus areas.
var baseSections = []string{"Overview", "Structure", "Findings"}

// Levels is the fixed tier ladder. Depth k produces exactly Levels[:k].
var Levels = []Level{
	{
		ID:               1,
		Name:             "overview",
		Title:            "Architecture Overview",
		MinLines:         40,
		RequiredSections: baseSections,
		Focuses:          []config.Focus{config.FocusArchitecture},
	},
	{
		ID:               2,
		Name:             "infrastructure",
		Title:            "Infrastructure and Tooling",
		MinLines:         60,
		RequiredSections: baseSections,
		Focuses:          []config.Focus{config.FocusArchitecture, config.FocusQuality},
	},
	{
		ID:               3,
		Name:             "core-systems",
		Title:            "Core Systems",
		MinLines:         80,
		RequiredSections: baseSections,
		Focuses:          []config.Focus{config.FocusArchitecture, config.FocusSecurity, config.FocusQuality},
	},
	{
		ID:               4,
		Name:             "quality-systems",
		Title:            "Quality and Performance",
		MinLines:         60,
		RequiredSections: baseSections,
		Focuses:          []config.Focus{config.FocusQuality, config.FocusPerformance},
	},
	{
		ID:               5,
		Name:             "synthesis",
		Title:            "Design Synthesis",
		MinLines:         40,
		RequiredSections: baseSections,
		Focuses: []config.Focus{
			config.FocusArchitecture, config.FocusSecurity, config.FocusQuality,
			config.FocusPerformance, config.FocusDocumentation,
		},
	},
}

// UpTo returns the levels produced for the given depth.
func UpTo(depth int) []Level {
	if depth < 0 {
		depth = 0
	}
	if depth > len(Levels) {
		depth = len(Levels)
	}
	return Levels[:depth]
}

// Generated is one rendered document on disk.
type Generated struct {
	LevelID   int    `json:"level"`
	Filename  string `json:"filename"`
	Path      string `json:"path"`
	Content   string `json:"-"`
	LineCount int    `json:"line_count"`
	// Shortfall records that the document stayed below MinLines even after
	// the expand retry. Non-fatal; surfaced through the quality report.
	Shortfall bool `json:"shortfall,omitempty"`
}
