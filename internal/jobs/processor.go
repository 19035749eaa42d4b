package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"ingestq.io/ingestq/internal/domain"
	"ingestq.io/ingestq/internal/pkg/logger"
	"ingestq.io/ingestq/internal/pkg/worker"
)

// Fetcher retrieves the data behind a single id.
type Fetcher interface {
	Fetch(ctx context.Context, id int64) error
}

// SimulatedFetcher stands in for an external API: every fetch takes Delay.
type SimulatedFetcher struct {
	Delay time.Duration
}

// Fetch waits for Delay or until ctx is done.
func (f SimulatedFetcher) Fetch(ctx context.Context, id int64) error {
	if f.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(f.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch id %d: %w", id, ctx.Err())
	case <-timer.C:
		logger.Debug("Fetched id", zap.Int64("id", id))
		return nil
	}
}

// BatchProcessor fetches every id of a batch concurrently on a worker pool.
type BatchProcessor struct {
	pool    *worker.Pool
	fetcher Fetcher
}

// NewBatchProcessor creates a BatchProcessor. A nil pool fetches ids sequentially.
func NewBatchProcessor(pool *worker.Pool, fetcher Fetcher) *BatchProcessor {
	return &BatchProcessor{pool: pool, fetcher: fetcher}
}

// Process fetches all ids of b and returns the combined fetch errors.
func (p *BatchProcessor) Process(ctx context.Context, b *domain.Batch) error {
	if p.pool == nil {
		var result *multierror.Error
		for _, id := range b.IDs {
			if err := p.fetcher.Fetch(ctx, id); err != nil {
				result = multierror.Append(result, err)
			}
		}
		return result.ErrorOrNil()
	}

	// Buffered so workers never block if we stop waiting early.
	results := make(chan error, len(b.IDs))
	for _, id := range b.IDs {
		if err := p.pool.Submit(ctx, func(ctx context.Context) {
			results <- p.fetcher.Fetch(ctx, id)
		}); err != nil {
			return fmt.Errorf("submit fetch for id %d: %w", id, err)
		}
	}

	var result *multierror.Error
	for range b.IDs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-results:
			if err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	return result.ErrorOrNil()
}
