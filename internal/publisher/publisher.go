// Package publisher commits generated analysis documents to the enclosing
// git repository. Publishing is best-effort: every failure is reported as a
// warning on the run, never as a pipeline failure.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	ggit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/deepdoc/internal/config"
	"git.home.luguber.info/inful/deepdoc/internal/document"
	"git.home.luguber.info/inful/deepdoc/internal/errors"
	"git.home.luguber.info/inful/deepdoc/internal/logfields"
)

const (
	defaultAuthorName  = "deepdoc"
	defaultAuthorEmail = "deepdoc@localhost"
)

// Publisher stages and commits the output directory of one run.
type Publisher struct {
	cfg *config.PipelineConfig
}

func New(cfg *config.PipelineConfig) *Publisher {
	return &Publisher{cfg: cfg}
}

// Publish stages everything under the output path, commits with a
// deterministic message, and pushes when configured. A clean worktree after
// staging means a force re-run produced identical documents; that is success,
// not an error. The returned error is always warning severity.
func (p *Publisher) Publish(ctx context.Context, docs []document.Generated) *errors.PipelineError {
	repoRoot, err := findRepoRoot(p.cfg.OutputPath)
	if err != nil {
		return errors.GitOperation("discover", err)
	}

	repo, err := ggit.PlainOpen(repoRoot)
	if err != nil {
		return errors.GitOperation("open", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return errors.GitOperation("worktree", err)
	}

	rel, err := filepath.Rel(repoRoot, p.cfg.OutputPath)
	if err != nil {
		return errors.GitOperation("stage", err)
	}
	if _, err := wt.Add(rel); err != nil {
		return errors.GitOperation("stage", err)
	}

	status, err := wt.Status()
	if err != nil {
		return errors.GitOperation("status", err)
	}
	if status.IsClean() {
		slog.Info("Nothing to commit, documents unchanged",
			logfields.Project(p.cfg.ProjectName))
		return nil
	}

	message := CommitMessage(p.cfg.ProjectName, len(docs), p.cfg.Depth)
	hash, err := wt.Commit(message, &ggit.CommitOptions{
		Author: &object.Signature{
			Name:  p.authorName(),
			Email: p.authorEmail(),
			When:  time.Now(),
		},
	})
	if err != nil {
		return errors.GitOperation("commit", err)
	}
	slog.Info("Committed analysis documents",
		logfields.Project(p.cfg.ProjectName),
		slog.String("commit", hash.String()[:8]))

	if !p.cfg.Git.Push {
		return nil
	}
	remote := p.cfg.Git.Remote
	if remote == "" {
		remote = "origin"
	}
	if err := repo.PushContext(ctx, &ggit.PushOptions{RemoteName: remote}); err != nil {
		if err == ggit.NoErrAlreadyUpToDate {
			return nil
		}
		return errors.GitOperation("push", err)
	}
	slog.Info("Pushed analysis documents", slog.String("remote", remote))
	return nil
}

// CommitMessage is deterministic for a given run shape so repeated force
// re-runs produce comparable history.
func CommitMessage(project string, docCount, depth int) string {
	return fmt.Sprintf("docs: deepdoc analysis of %s (%d documents, depth L%d)", project, docCount, depth)
}

func (p *Publisher) authorName() string {
	if p.cfg.Git.AuthorName != "" {
		return p.cfg.Git.AuthorName
	}
	return defaultAuthorName
}

func (p *Publisher) authorEmail() string {
	if p.cfg.Git.AuthorEmail != "" {
		return p.cfg.Git.AuthorEmail
	}
	return defaultAuthorEmail
}

// findRepoRoot walks up from path looking for a .git entry.
func findRepoRoot(path string) (string, error) {
	dir := path
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no git repository encloses %s", path)
		}
		dir = parent
	}
}
