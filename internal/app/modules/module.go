// Package modules contains the dependency modules wired by the composition root.
package modules

import (
	"context"

	"ingestq.io/ingestq/internal/api/handlers"
	"ingestq.io/ingestq/internal/domain"
)

// Module represents a dependency unit in the composition root.
type Module interface {
	// Name returns a stable module identifier for logging/debugging.
	Name() string

	// RegisterEventHandlers subscribes module handlers to domain events.
	RegisterEventHandlers(*domain.EventDispatcher)

	// Start launches module background work. It must not block.
	Start(context.Context) error

	// Shutdown performs module-local graceful cleanup.
	Shutdown(context.Context) error
}

// ServerDepsContributor is implemented by modules that inject dependencies
// into the HTTP server.
type ServerDepsContributor interface {
	ContributeServerDeps(*handlers.ServerDeps)
}
