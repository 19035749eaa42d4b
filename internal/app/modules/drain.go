package modules

import (
	"context"

	"ingestq.io/ingestq/internal/api/handlers"
	"ingestq.io/ingestq/internal/config"
	"ingestq.io/ingestq/internal/domain"
	"ingestq.io/ingestq/internal/jobs"
)

// DrainModule wires the rate-limited drain loop.
type DrainModule struct {
	infra   *Infrastructure
	drainer *jobs.Drainer
}

// NewDrainModule creates a drain module. Batch processing fans out on the
// general pool; the loop itself runs on the drain pool.
func NewDrainModule(infra *Infrastructure) *DrainModule {
	processor := jobs.NewBatchProcessor(infra.Pools.General,
		jobs.SimulatedFetcher{Delay: infra.Config.Drain.PerIDDelay})
	return &DrainModule{
		infra:   infra,
		drainer: jobs.NewDrainer(infra.Store, processor, infra.Dispatcher, DrainConfig(infra.Config.Drain)),
	}
}

// DrainConfig converts the drain configuration section.
func DrainConfig(c config.DrainConfig) jobs.DrainConfig {
	return jobs.DrainConfig{
		Interval:       c.Interval,
		BatchesPerTick: c.BatchesPerTick,
		RunOnStart:     c.RunOnStart,
		ProcessTimeout: c.ProcessTimeout,
		MaxAttempts:    c.MaxAttempts,
		RetryDelay:     c.RetryDelay,
	}
}

func (m *DrainModule) Name() string { return "drain" }

// ContributeServerDeps exposes pool occupancy on the readiness probe.
func (m *DrainModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	deps.Pools = m.infra.Pools
}

func (m *DrainModule) RegisterEventHandlers(*domain.EventDispatcher) {}

// Start submits the drain loop to the drain pool. It stops when the pools shut down.
func (m *DrainModule) Start(context.Context) error {
	return m.drainer.Start(m.infra.Pools)
}

func (m *DrainModule) Shutdown(context.Context) error { return nil }
