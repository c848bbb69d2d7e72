package errors

// Convenience functions for common error patterns

// Pre-flight errors

func ConfigNotFound(path string) *PipelineError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigValidation(field, reason string) *PipelineError {
	return New(CategoryConfig, SeverityFatal, "configuration validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

func DependencyMissing(name string, cause error) *PipelineError {
	return Wrap(cause, CategoryDependency, SeverityFatal, "required dependency unavailable").
		WithContext("dependency", name)
}

func OutputExists(path string) *PipelineError {
	return New(CategoryOutput, SeverityFatal, "output directory already exists (use --force to overwrite)").
		WithContext("path", path)
}

// Execution errors

func AnalysisFailed(focuses []string, cause error) *PipelineError {
	return Wrap(cause, CategoryAnalysis, SeverityFatal, "analysis invocation failed").
		WithContext("focuses", focuses)
}

func GenerationFailed(document string, cause error) *PipelineError {
	return Wrap(cause, CategoryDocument, SeverityFatal, "document generation failed").
		WithContext("document", document)
}

// Degraded-path errors

func DocumentShortfall(document string, lines, minLines int) *PipelineError {
	return New(CategoryDocument, SeverityWarning, "document below minimum length").
		WithContext("document", document).
		WithContext("lines", lines).
		WithContext("min_lines", minLines)
}

func SectionsMissing(document string, sections []string) *PipelineError {
	return New(CategoryDocument, SeverityWarning, "document missing required sections").
		WithContext("document", document).
		WithContext("sections", sections)
}

func GitOperation(operation string, cause error) *PipelineError {
	return Wrap(cause, CategoryGit, SeverityWarning, "git operation failed").
		WithContext("operation", operation)
}

func StorageOperation(operation string, cause error) *PipelineError {
	return Wrap(cause, CategoryStorage, SeverityWarning, "run store operation failed").
		WithContext("operation", operation)
}

func CleanupFailed(cause error) *PipelineError {
	return Wrap(cause, CategoryCleanup, SeverityWarning, "cleanup failed")
}

// Internal errors

func Internal(message string, cause error) *PipelineError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
