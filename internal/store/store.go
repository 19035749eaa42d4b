// Package store holds ingestions and their batches and derives the global
// drain order from them.
//
// Store is implemented on top of https://github.com/hashicorp/go-memdb, an
// in-memory database built on immutable radix trees. Readers work on
// consistent snapshots without locking; memdb admits a single write
// transaction at a time, which is the store's only mutation boundary.
// Objects stored in the database are never modified in place.
package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"

	"ingestq.io/ingestq/internal/domain"
	apperrors "ingestq.io/ingestq/internal/pkg/errors"
)

// Store is the ingestion record store and global priority queue.
type Store struct {
	db        *memdb.MemDB
	batchSize int
	now       func() time.Time

	// submitted is the logical submission counter. It is only read and
	// written while holding the memdb write transaction.
	submitted uint64
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the wall clock used for CreatedAt and UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store partitioning submissions into batches of batchSize ids.
func New(batchSize int, opts ...Option) (*Store, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("store: batch size must be positive, got %d", batchSize)
	}
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("store: create memdb: %w", err)
	}
	s := &Store{
		db:        db,
		batchSize: batchSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateIngestion validates the submission, partitions ids and stores the
// ingestion together with all of its batches in one transaction. No reader
// can observe the ingestion before every batch is queued.
//
// The returned snapshot is owned by the caller.
func (s *Store) CreateIngestion(ids []int64, priority domain.Priority) (*domain.Ingestion, error) {
	if len(ids) == 0 {
		return nil, apperrors.EmptyIDs()
	}
	if !priority.IsValid() {
		return nil, apperrors.InvalidPriorityf(priority.String())
	}
	groups, err := domain.Partition(ids, s.batchSize)
	if err != nil {
		return nil, err
	}

	txn := s.db.Txn(true)
	defer txn.Abort()

	s.submitted++
	now := s.now()
	ing := &domain.Ingestion{
		IngestionID: uuid.NewString(),
		Priority:    priority,
		Submitted:   s.submitted,
		CreatedAt:   now,
		BatchCount:  len(groups),
	}
	if err := txn.Insert(ingestionsTable, ing); err != nil {
		return nil, fmt.Errorf("store: insert ingestion: %w", err)
	}

	batches := make([]*domain.Batch, 0, len(groups))
	for seq, group := range groups {
		b := &domain.Batch{
			BatchID:     uuid.NewString(),
			IngestionID: ing.IngestionID,
			Sequence:    uint32(seq),
			IDs:         group,
			Status:      domain.BatchStatusNotStarted,
			Priority:    priority,
			Submitted:   ing.Submitted,
			UpdatedAt:   now,
		}
		if err := txn.Insert(batchesTable, b); err != nil {
			return nil, fmt.Errorf("store: insert batch %d: %w", seq, err)
		}
		batches = append(batches, b)
	}
	txn.Commit()

	return snapshot(ing, batches), nil
}

// GetIngestion returns a snapshot of the ingestion and its batches taken from
// a single read transaction, so the aggregate status and the batch list agree.
func (s *Store) GetIngestion(ingestionID string) (*domain.Ingestion, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(ingestionsTable, idIndex, ingestionID)
	if err != nil {
		return nil, fmt.Errorf("store: lookup ingestion: %w", err)
	}
	if raw == nil {
		return nil, apperrors.IngestionNotFoundf(ingestionID)
	}
	ing := raw.(*domain.Ingestion)

	batches, err := batchesOf(txn, ingestionID)
	if err != nil {
		return nil, err
	}
	return snapshot(ing, batches), nil
}

// AdvanceBatchStatus moves a batch forward in its lifecycle and returns the
// updated copy. Advancing to the current status is a no-op and reports
// changed=false. Any other move that is not the immediate successor fails
// with an invalid transition error and leaves the store untouched.
func (s *Store) AdvanceBatchStatus(batchID string, next domain.BatchStatus) (batch *domain.Batch, changed bool, err error) {
	txn := s.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(batchesTable, idIndex, batchID)
	if err != nil {
		return nil, false, fmt.Errorf("store: lookup batch: %w", err)
	}
	if raw == nil {
		return nil, false, fmt.Errorf("store: batch %s: %w", batchID, memdb.ErrNotFound)
	}
	current := raw.(*domain.Batch)

	if current.Status == next {
		return current.Clone(), false, nil
	}
	if !current.Status.CanAdvanceTo(next) {
		return nil, false, apperrors.InvalidTransitionf(batchID, current.Status.String(), next.String())
	}

	updated := current.Clone()
	updated.Status = next
	updated.UpdatedAt = s.now()
	if err := txn.Insert(batchesTable, updated); err != nil {
		return nil, false, fmt.Errorf("store: update batch: %w", err)
	}
	txn.Commit()

	return updated.Clone(), true, nil
}

// PeekNextEligible returns the NOT_STARTED batch that drains next: highest
// priority first, then earliest submission, then lowest sequence index.
// ok is false when nothing is eligible.
func (s *Store) PeekNextEligible() (batch *domain.Batch, ok bool, err error) {
	batches, err := s.eligibleBatches(1)
	if err != nil || len(batches) == 0 {
		return nil, false, err
	}
	return batches[0], true, nil
}

// eligibleBatches returns up to limit eligible batches in drain order from
// one snapshot. A limit of zero or less returns all of them.
func (s *Store) eligibleBatches(limit int) ([]*domain.Batch, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	it, err := newEligibleIterator(txn)
	if err != nil {
		return nil, err
	}
	var out []*domain.Batch
	for b := it.NextBatch(); b != nil; b = it.NextBatch() {
		out = append(out, b.Clone())
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Stats is a point-in-time count of stored entities.
type Stats struct {
	Ingestions int `json:"ingestions"`
	NotStarted int `json:"not_started"`
	Triggered  int `json:"triggered"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// Batches returns the total number of batches.
func (st Stats) Batches() int {
	return st.NotStarted + st.Triggered + st.Completed + st.Failed
}

// Stats counts ingestions and batches per status from one snapshot.
func (s *Store) Stats() (Stats, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	var st Stats
	it, err := txn.Get(ingestionsTable, idIndex)
	if err != nil {
		return st, fmt.Errorf("store: scan ingestions: %w", err)
	}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		st.Ingestions++
	}

	counters := map[domain.BatchStatus]*int{
		domain.BatchStatusNotStarted: &st.NotStarted,
		domain.BatchStatusTriggered:  &st.Triggered,
		domain.BatchStatusCompleted:  &st.Completed,
		domain.BatchStatusFailed:     &st.Failed,
	}
	for status, counter := range counters {
		bit, err := txn.Get(batchesTable, statusIndex, status)
		if err != nil {
			return st, fmt.Errorf("store: scan batches: %w", err)
		}
		for obj := bit.Next(); obj != nil; obj = bit.Next() {
			*counter++
		}
	}
	return st, nil
}

func batchesOf(txn *memdb.Txn, ingestionID string) ([]*domain.Batch, error) {
	it, err := txn.LowerBound(batchesTable, ingestionIndex, ingestionID, uint32(0))
	if err != nil {
		return nil, fmt.Errorf("store: scan batches: %w", err)
	}
	var out []*domain.Batch
	for obj := it.Next(); obj != nil; obj = it.Next() {
		b := obj.(*domain.Batch)
		if b.IngestionID != ingestionID {
			// The index is sorted by ingestion first, so every batch of
			// this ingestion has been seen.
			break
		}
		out = append(out, b)
	}
	return out, nil
}

func snapshot(ing *domain.Ingestion, batches []*domain.Batch) *domain.Ingestion {
	c := *ing
	c.Batches = make([]*domain.Batch, len(batches))
	for i, b := range batches {
		c.Batches[i] = b.Clone()
	}
	return &c
}
