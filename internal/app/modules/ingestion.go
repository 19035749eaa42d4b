package modules

import (
	"context"

	"ingestq.io/ingestq/internal/api/handlers"
	"ingestq.io/ingestq/internal/domain"
	"ingestq.io/ingestq/internal/pkg/metrics"
	"ingestq.io/ingestq/internal/service"
)

// IngestionModule wires the submission and status query service.
type IngestionModule struct {
	infra   *Infrastructure
	service *service.IngestionService
}

// NewIngestionModule creates an ingestion module with explicit constructor wiring.
func NewIngestionModule(infra *Infrastructure) *IngestionModule {
	return &IngestionModule{
		infra:   infra,
		service: service.NewIngestionService(infra.Store, infra.Dispatcher),
	}
}

func (m *IngestionModule) Name() string { return "ingestion" }

func (m *IngestionModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	if deps == nil {
		return
	}
	deps.IngestionService = m.service
	deps.MinID = m.infra.Config.Ingest.MinID
	deps.MaxID = m.infra.Config.Ingest.MaxID
}

func (m *IngestionModule) RegisterEventHandlers(d *domain.EventDispatcher) {
	d.Register(metrics.ObserveEvent,
		domain.EventIngestionCreated,
		domain.EventBatchTriggered,
		domain.EventBatchCompleted,
		domain.EventBatchFailed,
	)
}

func (m *IngestionModule) Start(context.Context) error { return nil }

func (m *IngestionModule) Shutdown(context.Context) error { return nil }
