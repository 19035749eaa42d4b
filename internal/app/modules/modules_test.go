package modules

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ingestq.io/ingestq/internal/config"
	"ingestq.io/ingestq/internal/domain"
	"ingestq.io/ingestq/internal/jobs"
	"ingestq.io/ingestq/internal/pkg/logger"
)

func init() {
	_ = logger.Init("error", "json")
}

func testConfig() *config.Config {
	return &config.Config{
		Worker: config.WorkerConfig{GeneralPoolSize: 4, DrainPoolSize: 1},
		Ingest: config.IngestConfig{BatchSize: 3, MinID: 1, MaxID: 100},
		Drain: config.DrainConfig{
			Interval:       time.Hour,
			BatchesPerTick: 2,
			RunOnStart:     true,
			ProcessTimeout: time.Second,
			MaxAttempts:    4,
			RetryDelay:     time.Millisecond,
		},
		Journal: config.JournalConfig{Path: ":memory:"},
	}
}

func TestDrainConfig(t *testing.T) {
	got := DrainConfig(testConfig().Drain)
	assert.Equal(t, time.Hour, got.Interval)
	assert.Equal(t, 2, got.BatchesPerTick)
	assert.True(t, got.RunOnStart)
	assert.Equal(t, 4, got.MaxAttempts)
	assert.Equal(t, time.Millisecond, got.RetryDelay)
}

func TestNewServerDeps_ModulesContribute(t *testing.T) {
	ctx := context.Background()
	infra, err := NewInfrastructure(ctx, testConfig())
	require.NoError(t, err)
	defer infra.Close()

	journal, err := NewJournalModule(ctx, infra)
	require.NoError(t, err)
	defer func() { _ = journal.Shutdown(ctx) }()

	mods := []Module{NewIngestionModule(infra), NewDrainModule(infra), journal, nil}
	deps := NewServerDeps(infra.Config, mods)

	assert.NotNil(t, deps.IngestionService)
	assert.NotNil(t, deps.Journal)
	assert.Same(t, infra.Pools, deps.Pools)
	assert.Equal(t, int64(1), deps.MinID)
	assert.Equal(t, int64(100), deps.MaxID)
}

func TestJournalModule_RecordsEvents(t *testing.T) {
	ctx := context.Background()
	infra, err := NewInfrastructure(ctx, testConfig())
	require.NoError(t, err)
	defer infra.Close()

	jm, err := NewJournalModule(ctx, infra)
	require.NoError(t, err)
	defer func() { _ = jm.Shutdown(ctx) }()

	ingestion := NewIngestionModule(infra)
	for _, m := range []Module{ingestion, jm} {
		m.RegisterEventHandlers(infra.Dispatcher)
	}

	id, err := ingestion.service.Submit(ctx, []int64{1, 2, 3, 4}, "HIGH")
	require.NoError(t, err)

	row, batches, err := jm.journal.LoadIngestion(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusYetToStart), row.Status)
	assert.Len(t, batches, 2)
}

type nopProcessor struct{}

func (nopProcessor) Process(context.Context, *domain.Batch) error { return nil }

func newJournaledInfra(t *testing.T) (*Infrastructure, *IngestionModule, *JournalModule) {
	t.Helper()
	ctx := context.Background()
	infra, err := NewInfrastructure(ctx, testConfig())
	require.NoError(t, err)
	t.Cleanup(infra.Close)

	jm, err := NewJournalModule(ctx, infra)
	require.NoError(t, err)
	t.Cleanup(func() { _ = jm.Shutdown(ctx) })

	ingestion := NewIngestionModule(infra)
	for _, m := range []Module{ingestion, jm} {
		m.RegisterEventHandlers(infra.Dispatcher)
	}
	return infra, ingestion, jm
}

func TestJournalModule_SubmitWithCancelledRequest(t *testing.T) {
	_, ingestion, jm := newJournaledInfra(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	id, err := ingestion.service.Submit(ctx, []int64{1, 2, 3, 4}, "MEDIUM")
	require.NoError(t, err)

	row, batches, err := jm.journal.LoadIngestion(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusYetToStart), row.Status)
	assert.Equal(t, "MEDIUM", row.Priority)
	assert.Len(t, batches, 2)
}

func TestJournalModule_TickBeforeCreatedEvent(t *testing.T) {
	infra, _, jm := newJournaledInfra(t)
	ctx := context.Background()

	// Store commit, then a drain tick, then the created event.
	ing, err := infra.Store.CreateIngestion([]int64{1, 2}, domain.PriorityHigh)
	require.NoError(t, err)

	drainer := jobs.NewDrainer(infra.Store, nopProcessor{}, infra.Dispatcher, jobs.DrainConfig{
		Interval:       time.Hour,
		BatchesPerTick: 1,
		ProcessTimeout: time.Second,
		MaxAttempts:    1,
	})
	require.Equal(t, 1, drainer.Tick(ctx))
	require.NoError(t, infra.Dispatcher.Dispatch(ctx, domain.NewIngestionCreatedEvent(ing)))

	stored, err := infra.Store.GetIngestion(ing.IngestionID)
	require.NoError(t, err)
	require.Equal(t, domain.BatchStatusCompleted, stored.Status())

	row, batches, err := jm.journal.LoadIngestion(ctx, ing.IngestionID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), row.Status)
	require.Len(t, batches, 1)
	assert.Equal(t, string(domain.StatusCompleted), batches[0].Status)
	assert.Equal(t, "[1,2]", batches[0].IDs)
}

func TestNewJournalModule_NilInfra(t *testing.T) {
	_, err := NewJournalModule(context.Background(), nil)
	require.Error(t, err)
}
