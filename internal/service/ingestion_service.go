package service

import (
	"context"

	"go.uber.org/zap"

	"ingestq.io/ingestq/internal/domain"
	apperrors "ingestq.io/ingestq/internal/pkg/errors"
	"ingestq.io/ingestq/internal/pkg/logger"
	"ingestq.io/ingestq/internal/store"
)

// IngestionService accepts submissions and answers status queries.
// It is the only entry point the transport layer uses into the store.
type IngestionService struct {
	store      *store.Store
	dispatcher *domain.EventDispatcher
}

// NewIngestionService creates a new IngestionService. dispatcher may be nil.
func NewIngestionService(st *store.Store, dispatcher *domain.EventDispatcher) *IngestionService {
	return &IngestionService{store: st, dispatcher: dispatcher}
}

// Submit validates and stores a submission and returns its ingestion id.
// Nothing is created when validation fails.
func (s *IngestionService) Submit(ctx context.Context, ids []int64, priority string) (string, error) {
	if len(ids) == 0 {
		return "", apperrors.EmptyIDs()
	}
	p, err := domain.ParsePriority(priority)
	if err != nil {
		return "", err
	}

	ing, err := s.store.CreateIngestion(ids, p)
	if err != nil {
		return "", err
	}

	logger.Info("Ingestion accepted",
		logger.Ingestion(ing.IngestionID),
		zap.String("priority", p.String()),
		zap.Int("ids", len(ids)),
		zap.Int("batches", ing.BatchCount),
	)

	// The ingestion is committed; a caller going away must not stop the
	// journal from seeing it. Handler failures are logged by the dispatcher.
	_ = s.dispatcher.Dispatch(context.WithoutCancel(ctx), domain.NewIngestionCreatedEvent(ing))

	return ing.IngestionID, nil
}

// GetStatus renders the current status of an ingestion from one consistent snapshot.
func (s *IngestionService) GetStatus(_ context.Context, ingestionID string) (domain.IngestionView, error) {
	ing, err := s.store.GetIngestion(ingestionID)
	if err != nil {
		return domain.IngestionView{}, err
	}
	return domain.NewIngestionView(ing), nil
}

// Stats returns store counters for readiness and diagnostics.
func (s *IngestionService) Stats(_ context.Context) (store.Stats, error) {
	return s.store.Stats()
}
