// Package capability defines the narrow contract to the external analysis
// engine and its command-line implementation. The engine is an opaque
// synchronous capability: one request in, one payload or error out, within a
// per-call timeout. Swapping the implementation (real process, mock) is the
// seam the invoker and all tests rely on.
package capability

import (
	"context"
	"time"

	"git.home.luguber.info/inful/deepdoc/internal/config"
)

// Request describes one analysis call. The target path is passed explicitly;
// implementations must never change the orchestrator's working directory.
// WorkDir, when set, is a scratch directory for the call's intermediates.
type Request struct {
	TargetPath string
	Focus      config.Focus
	Prompt     string
	Timeout    time.Duration
	WorkDir    string
}

// Result is the raw payload of one successful analysis call.
type Result struct {
	Output     string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Capability is the external analysis engine contract.
type Capability interface {
	// Probe verifies the capability is invocable without performing analysis.
	Probe(ctx context.Context) error
	// Invoke performs one analysis call. Timeout exceeded is an error, not a
	// retry condition.
	Invoke(ctx context.Context, req Request) (Result, error)
}
