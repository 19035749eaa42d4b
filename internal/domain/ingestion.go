// Package domain provides the ingestion and batch models shared by the store,
// the drain loop and the HTTP layer.
package domain

import (
	"time"

	apperrors "ingestq.io/ingestq/internal/pkg/errors"
)

// DefaultBatchSize is the number of ids grouped into one batch.
const DefaultBatchSize = 3

// Priority is the scheduling class of an ingestion. Lower values drain first.
type Priority uint8

const (
	PriorityHigh Priority = iota + 1
	PriorityMedium
	PriorityLow
)

// ParsePriority maps the wire representation ("HIGH", "MEDIUM", "LOW") to a
// Priority. The match is exact: no case folding, no trimming.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "HIGH":
		return PriorityHigh, nil
	case "MEDIUM":
		return PriorityMedium, nil
	case "LOW":
		return PriorityLow, nil
	default:
		return 0, apperrors.InvalidPriorityf(s)
	}
}

// IsValid reports whether p is one of the three recognized levels.
func (p Priority) IsValid() bool {
	return p >= PriorityHigh && p <= PriorityLow
}

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "HIGH"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityLow:
		return "LOW"
	default:
		return "UNKNOWN"
	}
}

// BatchStatus is the lifecycle state of a batch.
// NOT_STARTED -> TRIGGERED -> COMPLETED, or TRIGGERED -> FAILED once
// processing is abandoned. The numeric order is the index order.
type BatchStatus uint8

const (
	BatchStatusNotStarted BatchStatus = iota
	BatchStatusTriggered
	BatchStatusCompleted
	BatchStatusFailed
)

func (s BatchStatus) String() string {
	switch s {
	case BatchStatusNotStarted:
		return "NOT_STARTED"
	case BatchStatusTriggered:
		return "TRIGGERED"
	case BatchStatusCompleted:
		return "COMPLETED"
	case BatchStatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Label returns the externally visible status value.
func (s BatchStatus) Label() StatusLabel {
	switch s {
	case BatchStatusNotStarted:
		return StatusYetToStart
	case BatchStatusTriggered:
		return StatusTriggered
	case BatchStatusCompleted:
		return StatusCompleted
	case BatchStatusFailed:
		return StatusFailed
	default:
		return StatusUnknown
	}
}

// IsTerminal reports whether no further transition is possible.
func (s BatchStatus) IsTerminal() bool {
	return s == BatchStatusCompleted || s == BatchStatusFailed
}

// CanAdvanceTo reports whether next is the immediate successor of s.
func (s BatchStatus) CanAdvanceTo(next BatchStatus) bool {
	switch s {
	case BatchStatusNotStarted:
		return next == BatchStatusTriggered
	case BatchStatusTriggered:
		return next == BatchStatusCompleted || next == BatchStatusFailed
	default:
		return false
	}
}

// StatusLabel is the status string exposed in status views.
type StatusLabel string

const (
	StatusYetToStart StatusLabel = "yet_to_start"
	StatusTriggered  StatusLabel = "triggered"
	StatusCompleted  StatusLabel = "completed"
	StatusFailed     StatusLabel = "failed"
	StatusUnknown    StatusLabel = "unknown"
)

// ParseStatusLabel maps an externally visible status back to a BatchStatus.
func ParseStatusLabel(l StatusLabel) (BatchStatus, bool) {
	switch l {
	case StatusYetToStart:
		return BatchStatusNotStarted, true
	case StatusTriggered:
		return BatchStatusTriggered, true
	case StatusCompleted:
		return BatchStatusCompleted, true
	case StatusFailed:
		return BatchStatusFailed, true
	default:
		return 0, false
	}
}

// Batch is one chunk of an ingestion's ids.
//
// Priority and Submitted are immutable copies of the owning ingestion's
// values; they exist so the scheduling index can be computed from the batch
// record alone. Stored batches are never modified in place.
type Batch struct {
	BatchID     string
	IngestionID string
	Sequence    uint32
	IDs         []int64
	Status      BatchStatus
	Priority    Priority
	Submitted   uint64
	UpdatedAt   time.Time
}

// Clone returns a copy whose IDs slice is not shared with b.
func (b *Batch) Clone() *Batch {
	if b == nil {
		return nil
	}
	c := *b
	c.IDs = append([]int64(nil), b.IDs...)
	return &c
}

// Ingestion is one client submission.
//
// Batches is populated only on snapshots returned by the store; the stored
// record itself holds no batch state.
type Ingestion struct {
	IngestionID string
	Priority    Priority
	Submitted   uint64
	CreatedAt   time.Time
	BatchCount  int
	Batches     []*Batch
}

// Status derives the ingestion-level status from its batches.
func (i *Ingestion) Status() BatchStatus {
	statuses := make([]BatchStatus, 0, len(i.Batches))
	for _, b := range i.Batches {
		statuses = append(statuses, b.Status)
	}
	return AggregateStatus(statuses)
}

// AggregateStatus applies the ingestion aggregation rule: NOT_STARTED when
// every batch is NOT_STARTED, COMPLETED when every batch is COMPLETED, and
// TRIGGERED otherwise. A FAILED batch therefore keeps its ingestion TRIGGERED.
func AggregateStatus(statuses []BatchStatus) BatchStatus {
	if len(statuses) == 0 {
		return BatchStatusNotStarted
	}
	allNotStarted, allCompleted := true, true
	for _, s := range statuses {
		if s != BatchStatusNotStarted {
			allNotStarted = false
		}
		if s != BatchStatusCompleted {
			allCompleted = false
		}
	}
	switch {
	case allNotStarted:
		return BatchStatusNotStarted
	case allCompleted:
		return BatchStatusCompleted
	default:
		return BatchStatusTriggered
	}
}

// IngestionView is the externally visible status of an ingestion.
type IngestionView struct {
	IngestionID string      `json:"ingestion_id"`
	Status      StatusLabel `json:"status"`
	Batches     []BatchView `json:"batches"`
}

// BatchView is the externally visible status of a batch.
type BatchView struct {
	BatchID string      `json:"batch_id"`
	IDs     []int64     `json:"ids"`
	Status  StatusLabel `json:"status"`
}

// NewIngestionView renders a snapshot. The aggregate and the per-batch
// statuses come from the same batches, so they always agree.
func NewIngestionView(ing *Ingestion) IngestionView {
	view := IngestionView{
		IngestionID: ing.IngestionID,
		Status:      ing.Status().Label(),
		Batches:     make([]BatchView, 0, len(ing.Batches)),
	}
	for _, b := range ing.Batches {
		view.Batches = append(view.Batches, BatchView{
			BatchID: b.BatchID,
			IDs:     append([]int64(nil), b.IDs...),
			Status:  b.Status.Label(),
		})
	}
	return view
}
