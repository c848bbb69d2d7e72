package capability

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"git.home.luguber.info/inful/deepdoc/internal/config"
	"git.home.luguber.info/inful/deepdoc/internal/logfields"
)

// CommandCapability invokes the configured analysis command once per call.
// The target path, focus tag and prompt travel as arguments; the working
// directory of the orchestrator is never touched.
type CommandCapability struct {
	command string
	args    []string
}

// NewCommandCapability builds the command-backed capability from config.
func NewCommandCapability(cfg config.AnalyzerConfig) *CommandCapability {
	return &CommandCapability{
		command: cfg.Command,
		args:    append([]string(nil), cfg.Args...),
	}
}

// Probe checks that the analysis command is resolvable on PATH. It performs
// no analysis work and mutates nothing.
func (c *CommandCapability) Probe(ctx context.Context) error {
	if c.command == "" {
		return fmt.Errorf("no analysis command configured")
	}
	if _, err := exec.LookPath(c.command); err != nil {
		return fmt.Errorf("analysis command %q not found: %w", c.command, err)
	}
	return nil
}

// Invoke runs one analysis call with a hard per-call timeout.
func (c *CommandCapability) Invoke(ctx context.Context, req Request) (Result, error) {
	callCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	args := append(append([]string(nil), c.args...),
		"--focus", string(req.Focus),
		"--target", req.TargetPath,
		"--prompt", req.Prompt,
	)

	cmd := exec.CommandContext(callCtx, c.command, args...)
	if req.WorkDir != "" {
		cmd.Dir = req.WorkDir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	slog.Debug("Invoking analysis command",
		logfields.Focus(string(req.Focus)),
		logfields.Path(req.TargetPath),
		slog.String("command", c.command))

	err := cmd.Run()
	finished := time.Now()

	if callCtx.Err() == context.DeadlineExceeded {
		return Result{}, fmt.Errorf("analysis of focus %q timed out after %s", req.Focus, req.Timeout)
	}
	if err != nil {
		return Result{}, fmt.Errorf("analysis command failed for focus %q: %w (stderr: %s)",
			req.Focus, err, truncate(stderr.String(), 512))
	}

	return Result{
		Output:     stdout.String(),
		StartedAt:  started,
		FinishedAt: finished,
	}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
