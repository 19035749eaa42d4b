package app

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"ingestq.io/ingestq/internal/pkg/logger"
)

// Start starts all background services (the drain loop).
func (a *Application) Start(ctx context.Context) error {
	for _, mod := range a.Modules {
		if mod == nil {
			continue
		}
		if err := mod.Start(ctx); err != nil {
			return fmt.Errorf("start module %s: %w", mod.Name(), err)
		}
	}
	logger.Info("Background services started", zap.Int("modules", len(a.Modules)))
	return nil
}

// Shutdown gracefully shuts down all application components.
// Worker pools stop first so the drain loop no longer publishes events
// to modules that are closing.
func (a *Application) Shutdown() error {
	shutdownCtx := context.Background()

	if a.Infra != nil {
		a.Infra.Close()
	}

	var result *multierror.Error
	for _, mod := range a.Modules {
		if mod == nil {
			continue
		}
		if err := mod.Shutdown(shutdownCtx); err != nil {
			logger.Warn("module shutdown returned error",
				zap.String("module", mod.Name()),
				zap.Error(err),
			)
			result = multierror.Append(result, fmt.Errorf("module %s: %w", mod.Name(), err))
		}
	}
	return result.ErrorOrNil()
}
