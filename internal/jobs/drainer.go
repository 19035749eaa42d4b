// Package jobs runs the rate-limited drain loop that moves queued batches
// through processing.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"go.uber.org/zap"

	"ingestq.io/ingestq/internal/domain"
	apperrors "ingestq.io/ingestq/internal/pkg/errors"
	"ingestq.io/ingestq/internal/pkg/logger"
	"ingestq.io/ingestq/internal/pkg/metrics"
	"ingestq.io/ingestq/internal/pkg/worker"
	"ingestq.io/ingestq/internal/store"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// DrainConfig controls the drain cadence and per-batch failure policy.
type DrainConfig struct {
	// Interval is the fixed time between ticks.
	Interval time.Duration
	// BatchesPerTick caps how many batches one tick may drain.
	BatchesPerTick int
	// RunOnStart drains one tick as soon as Run starts.
	RunOnStart bool
	// ProcessTimeout bounds one batch's processing, retries included.
	ProcessTimeout time.Duration
	// MaxAttempts is the number of processing attempts before a batch FAILS.
	MaxAttempts int
	// RetryDelay is the fixed wait between attempts.
	RetryDelay time.Duration
}

// DefaultDrainConfig returns the production cadence: one batch every five seconds.
func DefaultDrainConfig() DrainConfig {
	return DrainConfig{
		Interval:       5 * time.Second,
		BatchesPerTick: 1,
		ProcessTimeout: 30 * time.Second,
		MaxAttempts:    3,
		RetryDelay:     100 * time.Millisecond,
	}
}

// ---------------------------------------------------------------------------
// Drainer
// ---------------------------------------------------------------------------

// Processor does the work a batch stands for.
type Processor interface {
	Process(ctx context.Context, b *domain.Batch) error
}

// Drainer pops eligible batches from the store at a fixed rate.
//
// Per batch (one iteration of Tick):
//  1. Peek the next eligible batch in global order
//  2. Advance it to TRIGGERED and publish the transition
//  3. Process it with bounded retries under ProcessTimeout
//  4. Advance it to COMPLETED, or FAILED once attempts are exhausted
//
// Errors never leave the Drainer; they are logged and the next tick proceeds.
type Drainer struct {
	store      *store.Store
	processor  Processor
	dispatcher *domain.EventDispatcher
	cfg        DrainConfig
}

// NewDrainer creates a Drainer (manual DI). dispatcher may be nil.
func NewDrainer(st *store.Store, processor Processor, dispatcher *domain.EventDispatcher, cfg DrainConfig) *Drainer {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultDrainConfig().Interval
	}
	if cfg.BatchesPerTick <= 0 {
		cfg.BatchesPerTick = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &Drainer{store: st, processor: processor, dispatcher: dispatcher, cfg: cfg}
}

// Start runs the loop as a detached task on the drain pool.
func (d *Drainer) Start(pools *worker.Pools) error {
	if err := pools.SubmitDetached(worker.PoolDrain, d.Run); err != nil {
		return fmt.Errorf("start drain loop: %w", err)
	}
	return nil
}

// Run ticks every Interval until ctx is cancelled.
func (d *Drainer) Run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	logger.Info("Drain loop started",
		zap.Duration("interval", d.cfg.Interval),
		zap.Int("batches_per_tick", d.cfg.BatchesPerTick),
	)

	if d.cfg.RunOnStart {
		d.Tick(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			logger.Info("Drain loop stopped")
			return
		case <-ticker.C:
			d.Tick(ctx)
		}
	}
}

// Tick drains up to BatchesPerTick batches and returns how many it took off
// the queue. It never returns early on a processing failure.
func (d *Drainer) Tick(ctx context.Context) int {
	metrics.DrainTicksTotal.Inc()
	defer d.publishStats()

	drained := 0
	for drained < d.cfg.BatchesPerTick {
		if ctx.Err() != nil {
			break
		}
		b, ok, err := d.store.PeekNextEligible()
		if err != nil {
			logger.Error("Peek next eligible batch failed", zap.Error(err))
			break
		}
		if !ok {
			break
		}
		if d.drainOne(ctx, b) {
			drained++
		} else {
			break
		}
	}
	return drained
}

// drainOne reports whether b was taken off the queue.
func (d *Drainer) drainOne(ctx context.Context, b *domain.Batch) bool {
	fields := logger.Batch(b.BatchID, b.IngestionID)

	triggered, changed, err := d.store.AdvanceBatchStatus(b.BatchID, domain.BatchStatusTriggered)
	if err != nil {
		logger.Error("Trigger batch failed", append(fields, zap.Error(err))...)
		return false
	}
	if !changed {
		// Another drainer got here first.
		logger.Debug("Batch already triggered", fields...)
		return false
	}
	logger.Debug("Batch triggered", fields...)
	d.publish(ctx, triggered)

	start := time.Now()
	procErr := d.process(ctx, triggered)
	metrics.ObserveProcessing(time.Since(start))

	next := domain.BatchStatusCompleted
	if procErr != nil {
		if ctx.Err() != nil {
			// Shutting down: the batch stays TRIGGERED.
			logger.Warn("Batch processing interrupted", append(fields, zap.Error(procErr))...)
			return true
		}
		next = domain.BatchStatusFailed
		logger.Error("Batch processing failed",
			append(fields, zap.Error(apperrors.ProcessingFailedf(b.BatchID, procErr)))...)
	}

	final, _, err := d.store.AdvanceBatchStatus(b.BatchID, next)
	if err != nil {
		logger.Error("Finish batch failed", append(fields, zap.Error(err))...)
		return true
	}
	logger.Debug("Batch finished", append(fields, zap.String("status", final.Status.String()))...)
	d.publish(ctx, final)
	return true
}

func (d *Drainer) process(ctx context.Context, b *domain.Batch) error {
	pctx := ctx
	if d.cfg.ProcessTimeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, d.cfg.ProcessTimeout)
		defer cancel()
	}

	return retry.Do(
		func() error { return d.safeProcess(pctx, b) },
		retry.Context(pctx),
		retry.Attempts(uint(d.cfg.MaxAttempts)),
		retry.Delay(d.cfg.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
		retry.OnRetry(func(n uint, err error) {
			metrics.BatchProcessingFailedAttemptsTotal.Inc()
			logger.Warn("Batch processing attempt failed",
				append(logger.Batch(b.BatchID, b.IngestionID),
					zap.Uint("attempt", n+1),
					zap.Error(err),
				)...)
		}),
	)
}

// safeProcess turns a processor panic into an error so the loop survives it.
func (d *Drainer) safeProcess(ctx context.Context, b *domain.Batch) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processor panic: %v", r)
		}
	}()
	return d.processor.Process(ctx, b)
}

func (d *Drainer) publish(ctx context.Context, b *domain.Batch) {
	event, ok := domain.NewBatchEvent(b)
	if !ok {
		return
	}
	// The transition is already committed, so shutdown must not drop it.
	// Best effort; the dispatcher logs handler failures.
	_ = d.dispatcher.Dispatch(context.WithoutCancel(ctx), event)
}

func (d *Drainer) publishStats() {
	st, err := d.store.Stats()
	if err != nil {
		logger.Warn("Collect store stats failed", zap.Error(err))
		return
	}
	metrics.SetBatchCounts(st.NotStarted, st.Triggered, st.Completed, st.Failed)
}
