package store

import (
	"fmt"

	"github.com/hashicorp/go-memdb"

	"ingestq.io/ingestq/internal/domain"
)

// eligibleIterator walks NOT_STARTED batches in drain order.
// The order index is sorted by status first, so iteration stops at the
// first batch that has left NOT_STARTED.
type eligibleIterator struct {
	it memdb.ResultIterator
}

func newEligibleIterator(txn *memdb.Txn) (*eligibleIterator, error) {
	it, err := txn.LowerBound(batchesTable, orderIndex,
		domain.BatchStatusNotStarted, domain.Priority(0), uint64(0), uint32(0))
	if err != nil {
		return nil, fmt.Errorf("store: scan order index: %w", err)
	}
	return &eligibleIterator{it: it}, nil
}

// NextBatch returns the next eligible batch or nil once exhausted.
// The batch belongs to the database and must not be modified.
func (e *eligibleIterator) NextBatch() *domain.Batch {
	obj := e.it.Next()
	if obj == nil {
		return nil
	}
	b, ok := obj.(*domain.Batch)
	if !ok {
		panic(fmt.Sprintf("expected *domain.Batch, but got %T", obj))
	}
	if b.Status != domain.BatchStatusNotStarted {
		return nil
	}
	return b
}
