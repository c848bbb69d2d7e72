package errors

import (
	"fmt"
	"log/slog"
)

// Exit codes distinguish validation failures from execution failures so
// scripted callers can branch on them.
const (
	ExitOK         = 0
	ExitExecution  = 1
	ExitValidation = 2
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
// Pre-flight failures (config, dependency, output-exists) exit 2, everything
// else that aborts the run exits 1.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	if IsPreFlight(err) {
		return ExitValidation
	}
	return ExitExecution
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if pe, ok := err.(*PipelineError); ok {
		return a.formatPipeline(pe)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatPipeline formats a PipelineError for display.
func (a *CLIErrorAdapter) formatPipeline(err *PipelineError) string {
	if a.verbose {
		return err.Error()
	}

	switch err.Category {
	case CategoryConfig, CategoryDependency, CategoryOutput:
		return err.Message
	default:
		return fmt.Sprintf("%s: %s", err.Category, err.Message)
	}
}

// LogError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) LogError(err error) {
	if err == nil {
		return
	}

	pe, ok := err.(*PipelineError)
	if !ok {
		a.logger.Error("run failed", "error", err)
		return
	}

	attrs := []any{"category", string(pe.Category)}
	for k, v := range pe.Context {
		attrs = append(attrs, k, v)
	}
	if pe.Cause != nil {
		attrs = append(attrs, "cause", pe.Cause.Error())
	}

	switch pe.Severity {
	case SeverityWarning:
		a.logger.Warn(pe.Message, attrs...)
	default:
		a.logger.Error(pe.Message, attrs...)
	}
}
