package capability

import (
	"context"

	"git.home.luguber.info/inful/deepdoc/internal/errors"
)

// Renderer is anything that can verify its templates parse. The document
// generator satisfies it; the checker stays decoupled from its package.
type Renderer interface {
	CheckTemplates() error
}

// CheckDependencies is the single pre-flight gate: it verifies the external
// analysis capability and the report rendering machinery before any stage
// mutates the filesystem.
func CheckDependencies(ctx context.Context, cap Capability, renderer Renderer) error {
	if err := cap.Probe(ctx); err != nil {
		return errors.DependencyMissing("analysis capability", err)
	}
	if renderer != nil {
		if err := renderer.CheckTemplates(); err != nil {
			return errors.DependencyMissing("document templates", err)
		}
	}
	return nil
}
