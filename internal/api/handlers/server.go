// Package handlers implements the HTTP handlers of the ingestion API.
//
// Route registration is handled by the app router; handlers do NOT
// register their own routes.
package handlers

import (
	"context"

	"ingestq.io/ingestq/internal/service"
)

// Pinger is an optional dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PoolReporter reports worker pool occupancy for the readiness probe.
type PoolReporter interface {
	Metrics() map[string]interface{}
}

// Server implements all API handlers.
type Server struct {
	ingestion *service.IngestionService
	journal   Pinger
	pools     PoolReporter
	minID     int64
	maxID     int64
}

// ServerDeps holds all dependencies for creating a Server.
// Manual DI, no Wire/Dig.
type ServerDeps struct {
	IngestionService *service.IngestionService
	Journal          Pinger       // Optional: nil when the journal is disabled
	Pools            PoolReporter // Optional
	MinID            int64
	MaxID            int64
}

// NewServer creates a new Server with all dependencies.
func NewServer(deps ServerDeps) *Server {
	return &Server{
		ingestion: deps.IngestionService,
		journal:   deps.Journal,
		pools:     deps.Pools,
		minID:     deps.MinID,
		maxID:     deps.MaxID,
	}
}
