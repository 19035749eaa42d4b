// Package app is the composition root. Bootstrap stays orchestration-only.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"ingestq.io/ingestq/internal/api/handlers"
	"ingestq.io/ingestq/internal/app/modules"
	"ingestq.io/ingestq/internal/config"
)

// Application holds composed application dependencies.
type Application struct {
	Config  *config.Config
	Router  *gin.Engine
	Infra   *modules.Infrastructure
	Modules []modules.Module
}

// Bootstrap initializes all dependencies using module-oriented manual DI.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	infra, err := modules.NewInfrastructure(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init infrastructure: %w", err)
	}

	allModules := []modules.Module{
		modules.NewIngestionModule(infra),
		modules.NewDrainModule(infra),
	}
	if cfg.Journal.Enabled() {
		journalModule, err := modules.NewJournalModule(ctx, infra)
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("init journal module: %w", err)
		}
		allModules = append(allModules, journalModule)
	}

	for _, mod := range allModules {
		mod.RegisterEventHandlers(infra.Dispatcher)
	}

	server := handlers.NewServer(modules.NewServerDeps(cfg, allModules))

	return &Application{
		Config:  cfg,
		Router:  newRouter(cfg, server),
		Infra:   infra,
		Modules: allModules,
	}, nil
}
