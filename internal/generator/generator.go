// Package generator renders the tiered analysis documents from templates,
// artifacts and the structural digest, and owns the output directory layout.
package generator

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/deepdoc/internal/config"
	"git.home.luguber.info/inful/deepdoc/internal/document"
	"git.home.luguber.info/inful/deepdoc/internal/errors"
	"git.home.luguber.info/inful/deepdoc/internal/invoker"
	"git.home.luguber.info/inful/deepdoc/internal/logfields"
	"git.home.luguber.info/inful/deepdoc/internal/project"
)

// MetadataFilename is the structural digest emitted next to the documents.
const MetadataFilename = "project-metadata.yaml"

// Generator renders documents for one run.
type Generator struct {
	cfg *config.PipelineConfig
	tpl *template.Template
}

// New creates a generator for the resolved run configuration.
func New(cfg *config.PipelineConfig) *Generator {
	return &Generator{cfg: cfg}
}

// CheckTemplates compiles the document templates. Part of the pre-flight
// dependency gate; no filesystem access.
func (g *Generator) CheckTemplates() error {
	tpl, err := parseLevelTemplate()
	if err != nil {
		return fmt.Errorf("level template does not parse: %w", err)
	}
	g.tpl = tpl
	return nil
}

// PreflightOutputCheck fails when the output directory is non-empty and the
// run is not allowed to overwrite it. Runs before any capability call so a
// second run against the same path never interleaves writes.
func PreflightOutputCheck(outputPath string, force bool) error {
	entries, err := os.ReadDir(outputPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, errors.CategoryOutput, errors.SeverityFatal, "output path not readable")
	}
	if len(entries) > 0 && !force {
		return errors.OutputExists(outputPath)
	}
	return nil
}

// Result carries the generated documents plus any shortfall warnings.
type Result struct {
	Documents []document.Generated
	Warnings  []*errors.PipelineError
}

// Generate renders one document per level up to the configured depth, plus
// the project metadata file. The pre-existing directory is replaced wholesale
// (ForceOverwrite was verified pre-flight).
func (g *Generator) Generate(digest *project.Digest, artifacts map[config.Focus]invoker.Artifact) (*Result, error) {
	if g.tpl == nil {
		if err := g.CheckTemplates(); err != nil {
			return nil, errors.Internal("templates unavailable at generation time", err)
		}
	}

	if err := g.prepareOutputDir(); err != nil {
		return nil, err
	}

	res := &Result{}
	for _, level := range document.UpTo(g.cfg.Depth) {
		doc, warnings, err := g.generateLevel(level, digest, artifacts)
		if err != nil {
			return nil, err
		}
		res.Warnings = append(res.Warnings, warnings...)
		res.Documents = append(res.Documents, doc)
	}

	if err := g.writeMetadata(digest); err != nil {
		return nil, err
	}

	slog.Info("Documents generated",
		slog.Int("documents", len(res.Documents)),
		slog.Int("warnings", len(res.Warnings)),
		logfields.Path(g.cfg.OutputPath))
	return res, nil
}

// generateLevel renders one level, retrying with the expand hint when the
// first pass stays below the level's minimum length.
func (g *Generator) generateLevel(level document.Level, digest *project.Digest, artifacts map[config.Focus]invoker.Artifact) (document.Generated, []*errors.PipelineError, error) {
	content, err := g.render(level, digest, artifacts, false)
	if err != nil {
		return document.Generated{}, nil, errors.GenerationFailed(level.Filename(), err)
	}

	for retry := 0; retry < g.cfg.ExpandRetries && countLines(content) < level.MinLines; retry++ {
		slog.Debug("Document below minimum, retrying with expand hint",
			logfields.Document(level.Filename()),
			logfields.Level(level.ID),
			slog.Int("lines", countLines(content)),
			slog.Int("min_lines", level.MinLines))
		content, err = g.render(level, digest, artifacts, true)
		if err != nil {
			return document.Generated{}, nil, errors.GenerationFailed(level.Filename(), err)
		}
	}

	doc := document.Generated{
		LevelID:   level.ID,
		Filename:  level.Filename(),
		Path:      filepath.Join(g.cfg.OutputPath, level.Filename()),
		Content:   content,
		LineCount: countLines(content),
	}

	// Defects degrade the run rather than failing it; the document still
	// ships and quality scoring surfaces the gap.
	var warnings []*errors.PipelineError
	if missing := missingSections(content, level.RequiredSections); len(missing) > 0 {
		warnings = append(warnings, errors.SectionsMissing(doc.Filename, missing))
		slog.Warn("Document missing required sections",
			logfields.Document(doc.Filename),
			logfields.Level(level.ID),
			slog.Any("sections", missing))
	}
	if doc.LineCount < level.MinLines {
		doc.Shortfall = true
		warnings = append(warnings, errors.DocumentShortfall(doc.Filename, doc.LineCount, level.MinLines))
		slog.Warn("Document emitted below minimum length",
			logfields.Document(doc.Filename),
			logfields.Level(level.ID),
			slog.Int("lines", doc.LineCount),
			slog.Int("min_lines", level.MinLines))
	}

	if err := os.WriteFile(doc.Path, []byte(doc.Content), 0o644); err != nil {
		return document.Generated{}, nil, errors.GenerationFailed(doc.Filename, err)
	}
	return doc, warnings, nil
}

type extCount struct {
	Ext   string
	Count int
}

type levelData struct {
	Level          document.Level
	Project        *project.Digest
	Depth          int
	Artifacts      []artifactView
	MissingFocuses []config.Focus
	Extensions     []extCount
	Expand         bool
}

type artifactView struct {
	Title  string
	Output string
}

func (g *Generator) render(level document.Level, digest *project.Digest, artifacts map[config.Focus]invoker.Artifact, expand bool) (string, error) {
	data := levelData{
		Level:   level,
		Project: digest,
		Depth:   g.cfg.Depth,
		Expand:  expand,
	}

	// Artifact order follows the level's focus declaration, never the
	// completion order of the invocation stage.
	for _, f := range level.Focuses {
		if a, ok := artifacts[f]; ok {
			data.Artifacts = append(data.Artifacts, artifactView{
				Title:  strings.ToUpper(string(f)[:1]) + string(f)[1:],
				Output: strings.TrimSpace(a.Output),
			})
		} else {
			data.MissingFocuses = append(data.MissingFocuses, f)
		}
	}

	if expand {
		for ext, count := range digest.FilesByExt {
			if ext == "" {
				ext = "(none)"
			}
			data.Extensions = append(data.Extensions, extCount{Ext: ext, Count: count})
		}
		sort.Slice(data.Extensions, func(i, j int) bool { return data.Extensions[i].Ext < data.Extensions[j].Ext })
	}

	var buf bytes.Buffer
	if err := g.tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// prepareOutputDir replaces the output directory wholesale. The non-empty
// check already ran pre-flight; anything still present belongs to this run.
func (g *Generator) prepareOutputDir() error {
	if g.cfg.ForceOverwrite {
		if err := os.RemoveAll(g.cfg.OutputPath); err != nil {
			return errors.Wrap(err, errors.CategoryOutput, errors.SeverityFatal, "failed to clear output directory")
		}
	}
	if err := os.MkdirAll(g.cfg.OutputPath, 0o750); err != nil {
		return errors.Wrap(err, errors.CategoryOutput, errors.SeverityFatal, "failed to create output directory")
	}
	return nil
}

type metadata struct {
	Project    *project.Digest `yaml:"project"`
	Depth      int             `yaml:"depth"`
	FocusAreas []config.Focus  `yaml:"focus_areas"`
}

func (g *Generator) writeMetadata(digest *project.Digest) error {
	data, err := yaml.Marshal(metadata{
		Project:    digest,
		Depth:      g.cfg.Depth,
		FocusAreas: g.cfg.FocusAreas,
	})
	if err != nil {
		return errors.GenerationFailed(MetadataFilename, err)
	}
	path := filepath.Join(g.cfg.OutputPath, MetadataFilename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.GenerationFailed(MetadataFilename, err)
	}
	return nil
}

func missingSections(content string, sections []string) []string {
	var missing []string
	for _, s := range sections {
		if !strings.Contains(content, "\n## "+s) {
			missing = append(missing, s)
		}
	}
	return missing
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
