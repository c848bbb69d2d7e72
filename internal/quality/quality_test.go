package quality

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/deepdoc/internal/document"
)

// wellFormed builds a document that satisfies every scorer component for the
// given level.
func wellFormed(levelID int) document.Generated {
	level := document.Levels[levelID-1]
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", level.Title)
	for _, s := range level.RequiredSections {
		fmt.Fprintf(&b, "## %s\n\nContent for %s.\n\n### Detail\n\nMore.\n\n", s, s)
	}
	return document.Generated{
		LevelID:   levelID,
		Filename:  level.Filename(),
		Content:   b.String(),
		LineCount: level.MinLines + 10,
	}
}

func wellFormedSet(depth int) []document.Generated {
	docs := make([]document.Generated, 0, depth)
	for i := 1; i <= depth; i++ {
		docs = append(docs, wellFormed(i))
	}
	return docs
}

func TestScoreEmptySetIsZero(t *testing.T) {
	report := Score(3, nil)
	assert.Zero(t, report.Overall)
	assert.Zero(t, report.Completeness)
	assert.Zero(t, report.Depth)
	assert.Zero(t, report.Consistency)
}

func TestScorePerfectSet(t *testing.T) {
	report := Score(3, wellFormedSet(3))
	assert.Empty(t, report.Issues)
	assert.InDelta(t, 1.0, report.Completeness, 1e-9)
	assert.InDelta(t, 1.0, report.Depth, 1e-9)
	assert.InDelta(t, 1.0, report.Consistency, 1e-9)
	assert.InDelta(t, 1.0, report.Overall, 1e-9)
}

func TestScoreWeights(t *testing.T) {
	// Three documents expected, one missing: completeness 2/3, the other two
	// components stay perfect over the present documents.
	docs := wellFormedSet(3)[:2]
	report := Score(3, docs)

	assert.InDelta(t, 2.0/3.0, report.Completeness, 1e-9)
	assert.InDelta(t, 1.0, report.Depth, 1e-9)
	assert.InDelta(t, 1.0, report.Consistency, 1e-9)
	assert.InDelta(t, 0.40*(2.0/3.0)+0.35+0.25, report.Overall, 1e-9)
	require.Len(t, report.Issues, 1)
	assert.Contains(t, report.Issues[0], "L3-")
}

func TestScoreShortfallLowersDepth(t *testing.T) {
	docs := wellFormedSet(2)
	docs[1].Shortfall = true
	report := Score(2, docs)

	assert.InDelta(t, 0.5, report.Depth, 1e-9)
	assert.InDelta(t, 1.0, report.Completeness, 1e-9, "shortfall does not affect completeness")
	assert.Contains(t, strings.Join(report.Issues, "; "), "below minimum length")
}

func TestScoreMissingSectionLowersCompleteness(t *testing.T) {
	docs := wellFormedSet(2)
	docs[0].Content = strings.Replace(docs[0].Content, "\n## Findings\n", "\n## Observations\n", 1)
	report := Score(2, docs)

	assert.InDelta(t, 0.5, report.Completeness, 1e-9)
	assert.Contains(t, strings.Join(report.Issues, "; "), "missing sections Findings")
}

func TestHeadingIssues(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "clean",
			body: "# Title\n\n## Section\n\n### Sub\n",
			want: nil,
		},
		{
			name: "no title",
			body: "Intro paragraph.\n\n## Section\n",
			want: []string{"does not start with a title"},
		},
		{
			name: "starts with h2",
			body: "## Section\n\ntext\n",
			want: []string{"does not start with a title"},
		},
		{
			name: "level skip",
			body: "# Title\n\n### Sub\n",
			want: []string{"jumps from H1 to H3"},
		},
		{
			name: "double title",
			body: "# One\n\n# Two\n",
			want: []string{"2 H1 headings"},
		},
		{
			name: "empty",
			body: "",
			want: []string{"does not start with a title"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := headingIssues([]byte(tt.body))
			require.Len(t, issues, len(tt.want))
			for i, want := range tt.want {
				assert.Contains(t, issues[i], want)
			}
		})
	}
}

func TestScoreConsistencyDefect(t *testing.T) {
	docs := wellFormedSet(2)
	docs[1].Content = "# Title\n\n#### Deep dive\n\n## Overview\n\n## Structure\n\n## Findings\n"
	report := Score(2, docs)

	assert.InDelta(t, 0.5, report.Consistency, 1e-9)
	assert.Contains(t, strings.Join(report.Issues, "; "), "jumps from H1 to H4")
}
