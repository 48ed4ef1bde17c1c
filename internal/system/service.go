// Package system collects the lifecycle interface every long-running
// orchestrator component implements, plus helpers for wiring them together
// at process startup.
package system

import (
	"context"

	"github.com/oraclenet/orchestrator/internal/core"
)

// Service represents a lifecycle-managed component that runs for the life of
// the process, so the process entrypoint can start and stop it
// deterministically. indexer.Manager implements it; the registry and the
// stores do not.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// DescriptorProvider optionally advertises service metadata (layer, capabilities).
type DescriptorProvider interface {
	Descriptor() core.Descriptor
}
