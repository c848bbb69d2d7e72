package project

import (
	"bytes"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/deepdoc/internal/config"
	"git.home.luguber.info/inful/deepdoc/internal/logfields"
)

// Directories never descended into during the walk.
var ignoredDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
	"venv":         true,
	"env":          true,
	"target":       true,
	"dist":         true,
}

var codeExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".ts": true, ".jsx": true,
	".tsx": true, ".rs": true, ".java": true, ".c": true, ".cpp": true,
	".h": true, ".hpp": true, ".rb": true, ".php": true, ".kt": true,
	".scala": true, ".sh": true,
}

var keyFileNames = map[string]bool{
	"readme.md": true, "license": true, "changelog.md": true,
	"go.mod": true, "package.json": true, "setup.py": true,
	"pyproject.toml": true, "cargo.toml": true, "makefile": true,
	"dockerfile": true, "main.go": true, "main.py": true, "app.py": true,
}

// Indicator files scored per project type when detection runs in auto mode.
var typeIndicators = map[string][]string{
	"framework":   {"setup.py", "pyproject.toml", "core", "lib", "framework"},
	"library":     {"go.mod", "setup.py", "pyproject.toml", "cargo.toml", "package.json"},
	"application": {"main.go", "main.py", "app.py", "index.js", "dockerfile", "cmd"},
	"plugin":      {"plugin", "extension", "addon", "manifest.json"},
}

// Analyzer walks a project tree once and produces its Digest.
type Analyzer struct {
	root string
}

// NewAnalyzer creates an analyzer rooted at the project path.
func NewAnalyzer(root string) *Analyzer {
	return &Analyzer{root: root}
}

// Analyze performs the walk. Unreadable files and directories are skipped and
// tallied, never fatal: pre-analysis must not abort the run over a permission
// hole somewhere in the tree.
func (a *Analyzer) Analyze(cfg *config.PipelineConfig) (*Digest, error) {
	d := &Digest{
		Name:        cfg.ProjectName,
		Path:        a.root,
		ProjectType: cfg.ProjectType,
		FilesByExt:  make(map[string]int),
	}

	names := make(map[string]bool)

	err := filepath.WalkDir(a.root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			d.Skipped++
			slog.Debug("Skipping unreadable entry", logfields.Path(path), logfields.Error(walkErr))
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		name := entry.Name()
		if entry.IsDir() {
			if path != a.root && (strings.HasPrefix(name, ".") || ignoredDirs[name]) {
				return filepath.SkipDir
			}
			// Output from a previous run must not feed back into the digest,
			// or force re-runs would never be idempotent.
			if cfg.OutputPath != "" && path == cfg.OutputPath {
				return filepath.SkipDir
			}
			if path != a.root {
				d.Directories++
				names[strings.ToLower(name)] = true
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		lower := strings.ToLower(name)
		names[lower] = true
		ext := strings.ToLower(filepath.Ext(name))
		d.FilesByExt[ext]++
		d.TotalFiles++

		if keyFileNames[lower] {
			if rel, relErr := filepath.Rel(a.root, path); relErr == nil {
				d.KeyFiles = append(d.KeyFiles, rel)
			}
		}

		if codeExtensions[ext] {
			lines, readErr := countLines(path)
			if readErr != nil {
				d.Skipped++
				slog.Debug("Skipping unreadable file", logfields.Path(path), logfields.Error(readErr))
				return nil
			}
			d.TotalLines += lines
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(d.KeyFiles)
	d.Technologies = detectTechnologies(d.FilesByExt, names)
	if d.ProjectType == config.ProjectTypeAuto {
		d.ProjectType = detectProjectType(names)
	}
	d.Complexity = classifyComplexity(d.TotalFiles, d.Directories, d.TotalLines)

	slog.Info("Pre-analysis complete",
		logfields.Project(d.Name),
		slog.Int("files", d.TotalFiles),
		slog.Int("lines", d.TotalLines),
		slog.Int("skipped", d.Skipped),
		slog.String("type", d.ProjectType),
		slog.String("complexity", string(d.Complexity)))

	return d, nil
}

// detectProjectType scores indicator names seen during the walk. Ties break
// toward the declaration order in KnownProjectTypes for determinism.
func detectProjectType(names map[string]bool) string {
	best := "application"
	bestScore := 0
	for _, t := range config.KnownProjectTypes {
		score := 0
		for _, indicator := range typeIndicators[t] {
			if names[indicator] {
				score++
			}
		}
		if score > bestScore {
			best = t
			bestScore = score
		}
	}
	return best
}

func detectTechnologies(byExt map[string]int, names map[string]bool) []string {
	techs := make(map[string]bool)
	extTech := map[string]string{
		".go": "Go", ".py": "Python", ".js": "JavaScript", ".ts": "TypeScript",
		".rs": "Rust", ".java": "Java", ".rb": "Ruby", ".php": "PHP",
		".kt": "Kotlin", ".scala": "Scala",
	}
	for ext, count := range byExt {
		if count > 0 {
			if tech, ok := extTech[ext]; ok {
				techs[tech] = true
			}
		}
	}
	if names["dockerfile"] {
		techs["Docker"] = true
	}
	if names["package.json"] {
		techs["Node.js"] = true
	}

	out := make([]string, 0, len(techs))
	for t := range techs {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func countLines(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, nil
	}
	lines := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		lines++
	}
	return lines, nil
}
