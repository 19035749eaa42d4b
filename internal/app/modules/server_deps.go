package modules

import (
	"ingestq.io/ingestq/internal/api/handlers"
	"ingestq.io/ingestq/internal/config"
)

// NewServerDeps builds base server deps then lets each module contribute explicit wiring.
func NewServerDeps(cfg *config.Config, mods []Module) handlers.ServerDeps {
	deps := handlers.ServerDeps{
		MinID: cfg.Ingest.MinID,
		MaxID: cfg.Ingest.MaxID,
	}
	for _, mod := range mods {
		if mod == nil {
			continue
		}
		contributor, ok := mod.(ServerDepsContributor)
		if !ok {
			continue
		}
		contributor.ContributeServerDeps(&deps)
	}
	return deps
}
