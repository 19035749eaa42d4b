package modules

import (
	"context"
	"fmt"

	"ingestq.io/ingestq/internal/api/handlers"
	"ingestq.io/ingestq/internal/domain"
	"ingestq.io/ingestq/internal/infrastructure"
)

// JournalModule mirrors status changes into the SQLite journal.
type JournalModule struct {
	journal *infrastructure.Journal
}

// NewJournalModule opens the journal configured in infra.
func NewJournalModule(ctx context.Context, infra *Infrastructure) (*JournalModule, error) {
	if infra == nil || infra.Config == nil {
		return nil, fmt.Errorf("infrastructure is not initialized")
	}
	j, err := infrastructure.OpenJournal(ctx, infra.Config.Journal.Path)
	if err != nil {
		return nil, err
	}
	return &JournalModule{journal: j}, nil
}

func (m *JournalModule) Name() string { return "journal" }

func (m *JournalModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	if deps == nil {
		return
	}
	deps.Journal = m.journal
}

func (m *JournalModule) RegisterEventHandlers(d *domain.EventDispatcher) {
	d.Register(m.journal.HandleEvent,
		domain.EventIngestionCreated,
		domain.EventBatchTriggered,
		domain.EventBatchCompleted,
		domain.EventBatchFailed,
	)
}

func (m *JournalModule) Start(context.Context) error { return nil }

func (m *JournalModule) Shutdown(context.Context) error {
	return m.journal.Close()
}
