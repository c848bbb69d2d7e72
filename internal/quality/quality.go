// Package quality scores a generated document set. Scoring is pure: it reads
// the in-memory documents and never touches the filesystem, so a re-run over
// identical documents yields the identical report.
package quality

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/deepdoc/internal/document"
)

// Component weights. They sum to 1.0 so Overall stays in [0,1].
const (
	weightCompleteness = 0.40
	weightDepth        = 0.35
	weightConsistency  = 0.25
)

// Report is the scored quality of one document set.
type Report struct {
	Overall      float64  `json:"overall" yaml:"overall"`
	Completeness float64  `json:"completeness" yaml:"completeness"`
	Depth        float64  `json:"depth" yaml:"depth"`
	Consistency  float64  `json:"consistency" yaml:"consistency"`
	Issues       []string `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// Score rates the documents of a run against the level ladder up to depth.
// An empty document set scores zero across the board.
func Score(depth int, docs []document.Generated) Report {
	if len(docs) == 0 {
		return Report{}
	}

	byLevel := make(map[int]document.Generated, len(docs))
	for _, doc := range docs {
		byLevel[doc.LevelID] = doc
	}

	var report Report
	report.Completeness = scoreCompleteness(depth, byLevel, &report)
	report.Depth = scoreDepth(docs, &report)
	report.Consistency = scoreConsistency(docs, &report)
	report.Overall = weightCompleteness*report.Completeness +
		weightDepth*report.Depth +
		weightConsistency*report.Consistency
	return report
}

// scoreCompleteness is the fraction of expected levels that are present and
// carry every required section.
func scoreCompleteness(depth int, byLevel map[int]document.Generated, report *Report) float64 {
	expected := document.UpTo(depth)
	if len(expected) == 0 {
		return 0
	}
	complete := 0
	for _, level := range expected {
		doc, ok := byLevel[level.ID]
		if !ok {
			report.Issues = append(report.Issues, fmt.Sprintf("%s: missing", level.Filename()))
			continue
		}
		missing := missingSections(doc.Content, level.RequiredSections)
		if len(missing) > 0 {
			report.Issues = append(report.Issues,
				fmt.Sprintf("%s: missing sections %s", doc.Filename, strings.Join(missing, ", ")))
			continue
		}
		complete++
	}
	return float64(complete) / float64(len(expected))
}

// scoreDepth is the fraction of documents that met their minimum length
// without an expand shortfall.
func scoreDepth(docs []document.Generated, report *Report) float64 {
	met := 0
	for _, doc := range docs {
		if doc.Shortfall {
			report.Issues = append(report.Issues, fmt.Sprintf("%s: below minimum length", doc.Filename))
			continue
		}
		met++
	}
	return float64(met) / float64(len(docs))
}

// scoreConsistency is the fraction of documents with a well-formed heading
// structure: exactly one H1, sitting at the top, and no skipped levels below
// it.
func scoreConsistency(docs []document.Generated, report *Report) float64 {
	ok := 0
	for _, doc := range docs {
		issues := headingIssues([]byte(doc.Content))
		if len(issues) == 0 {
			ok++
			continue
		}
		for _, issue := range issues {
			report.Issues = append(report.Issues, fmt.Sprintf("%s: %s", doc.Filename, issue))
		}
	}
	return float64(ok) / float64(len(docs))
}

// headingIssues walks the Markdown AST and reports heading structure defects.
func headingIssues(body []byte) []string {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))

	var headings []*gmast.Heading
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if heading, ok := n.(*gmast.Heading); ok {
			headings = append(headings, heading)
		}
		return gmast.WalkContinue, nil
	})

	var issues []string
	if first := root.FirstChild(); first == nil || first.Kind() != gmast.KindHeading || headings[0].Level != 1 {
		issues = append(issues, "document does not start with a title heading")
	}
	titles := 0
	for i, h := range headings {
		if h.Level == 1 {
			titles++
		}
		if i > 0 && h.Level > headings[i-1].Level+1 {
			issues = append(issues, fmt.Sprintf("heading level jumps from H%d to H%d", headings[i-1].Level, h.Level))
		}
	}
	if titles > 1 {
		issues = append(issues, fmt.Sprintf("%d H1 headings, expected one", titles))
	}
	return issues
}

// missingSections returns the required H2 sections absent from the content.
func missingSections(content string, sections []string) []string {
	var missing []string
	for _, s := range sections {
		if !strings.Contains(content, "\n## "+s) {
			missing = append(missing, s)
		}
	}
	return missing
}
