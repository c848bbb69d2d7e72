package generator

import (
	"fmt"
	"strings"
	"text/template"
)

// levelTemplate is the shared document skeleton. Every level renders through
// it; RequiredSections of each level correspond to the unconditional headings
// below. Focus sections appear only for artifacts present in the run.
const levelTemplate = `# {{ .Level.Title }}: {{ .Project.Name }}

## Overview

Level {{ .Level.ID }} analysis of **{{ .Project.Name }}** ({{ .Project.ProjectType }} project, {{ .Project.Complexity }} complexity).

This document covers the following analysis dimensions:
{{- range .Level.Focuses }}
- {{ capitalize . }}
{{- end }}

Analysis depth for this run: L1..L{{ .Depth }}.

## Structure

| Metric | Value |
|---|---|
| Files | {{ .Project.TotalFiles }} |
| Lines of code | {{ .Project.TotalLines }} |
| Directories | {{ .Project.Directories }} |
| Skipped entries | {{ .Project.Skipped }} |
| Detected type | {{ .Project.ProjectType }} |
| Complexity | {{ .Project.Complexity }} |

Technologies: {{ join .Project.Technologies ", " }}
{{- range .Artifacts }}

## {{ .Title }} Analysis

{{ .Output }}
{{- end }}
{{- if .Expand }}

### File Type Breakdown

| Extension | Files |
|---|---|
{{- range .Extensions }}
| {{ .Ext }} | {{ .Count }} |
{{- end }}

### Key Files
{{- range .Project.KeyFiles }}
- ` + "`{{ . }}`" + `
{{- end }}
{{- end }}

## Findings

- The project comprises {{ .Project.TotalFiles }} files across {{ .Project.Directories }} directories.
- Structural complexity is classified as {{ .Project.Complexity }}.
{{- range .Artifacts }}
- {{ .Title }} analysis completed; see the corresponding section above.
{{- end }}
{{- range .MissingFocuses }}
- No {{ . }} analysis was configured for this run.
{{- end }}
`

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"capitalize": func(v any) string {
			s := toString(v)
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
		"join": strings.Join,
	}
}

func toString(v any) string {
	return fmt.Sprint(v)
}

// parseLevelTemplate compiles the shared skeleton. missingkey=error keeps
// schema drift between template and data a hard failure.
func parseLevelTemplate() (*template.Template, error) {
	return template.New("level").Funcs(templateFuncs()).Option("missingkey=error").Parse(levelTemplate)
}
