package modules

import (
	"context"
	"fmt"

	"ingestq.io/ingestq/internal/config"
	"ingestq.io/ingestq/internal/domain"
	"ingestq.io/ingestq/internal/pkg/worker"
	"ingestq.io/ingestq/internal/store"
)

// Infrastructure holds shared cross-cutting dependencies for all modules.
// It is a provider, not a Module.
type Infrastructure struct {
	Config     *config.Config
	Pools      *worker.Pools
	Store      *store.Store
	Dispatcher *domain.EventDispatcher
}

// NewInfrastructure initializes the worker pools, the store and the event dispatcher.
func NewInfrastructure(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	st, err := store.New(cfg.Ingest.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	pools, err := worker.NewPools(ctx, worker.PoolConfig{
		GeneralPoolSize: cfg.Worker.GeneralPoolSize,
		DrainPoolSize:   cfg.Worker.DrainPoolSize,
	})
	if err != nil {
		return nil, fmt.Errorf("init worker pools: %w", err)
	}

	return &Infrastructure{
		Config:     cfg,
		Pools:      pools,
		Store:      st,
		Dispatcher: domain.NewEventDispatcher(),
	}, nil
}

// Close releases infra resources.
func (i *Infrastructure) Close() {
	if i == nil {
		return
	}
	if i.Pools != nil {
		i.Pools.Shutdown()
	}
}
