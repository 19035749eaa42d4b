// Package infrastructure provides the SQLite status journal.
//
// The journal mirrors ingestion and batch status into two tables so the
// history can be inspected with any SQLite client. It is written through
// after every committed change and is never read back by the scheduler: the
// in-memory store stays the only source of truth. Writes are upserts, so
// creation and transition events converge whatever order they arrive in.
package infrastructure

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"ingestq.io/ingestq/internal/domain"
	"ingestq.io/ingestq/internal/pkg/logger"
)

// JournalSchema creates the journal tables.
var JournalSchema = `
	CREATE TABLE IF NOT EXISTS ingestions (
		ingestion_id TEXT PRIMARY KEY,
		status       TEXT NOT NULL,
		priority     TEXT NOT NULL DEFAULT '',
		created_time INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS batches (
		batch_id     TEXT PRIMARY KEY,
		ingestion_id TEXT NOT NULL,
		sequence     INTEGER NOT NULL DEFAULT 0,
		ids          TEXT NOT NULL,
		status       TEXT NOT NULL,
		FOREIGN KEY (ingestion_id) REFERENCES ingestions(ingestion_id)
	);
	CREATE INDEX IF NOT EXISTS idx_batches_ingestion ON batches(ingestion_id, sequence);
	`

// IngestionRow is a row of the ingestions table.
type IngestionRow struct {
	IngestionID string `db:"ingestion_id"`
	Status      string `db:"status"`
	Priority    string `db:"priority"`
	CreatedTime int64  `db:"created_time"`
}

// BatchRow is a row of the batches table. IDs holds a JSON array.
type BatchRow struct {
	BatchID     string `db:"batch_id"`
	IngestionID string `db:"ingestion_id"`
	Sequence    int    `db:"sequence"`
	IDs         string `db:"ids"`
	Status      string `db:"status"`
}

// Journal writes status history to SQLite.
type Journal struct {
	db *sqlx.DB
}

// OpenJournal connects to the SQLite file at path and creates the schema.
// ":memory:" gives a private in-memory journal.
func OpenJournal(ctx context.Context, path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path cannot be empty")
	}
	db, err := sqlx.ConnectContext(ctx, "sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("connect journal %s: %w", path, err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:"
	// databases from being split across connections.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, JournalSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	logger.Info("Status journal opened", zap.String("path", path))
	return &Journal{db: db}, nil
}

// RecordIngestion writes the ingestion and all of its batches in one
// transaction. Batch rows already written by an earlier transition keep
// their status, so the created event may arrive after batch events.
func (j *Journal) RecordIngestion(ctx context.Context, ing *domain.Ingestion) error {
	tx, err := j.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin journal tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO ingestions (ingestion_id, status, priority, created_time)
		 VALUES (:ingestion_id, :status, :priority, :created_time)
		 ON CONFLICT (ingestion_id) DO UPDATE SET
		   priority = excluded.priority,
		   created_time = excluded.created_time`,
		IngestionRow{
			IngestionID: ing.IngestionID,
			Status:      string(ing.Status().Label()),
			Priority:    ing.Priority.String(),
			CreatedTime: ing.CreatedAt.Unix(),
		}); err != nil {
		return fmt.Errorf("insert ingestion %s: %w", ing.IngestionID, err)
	}

	for _, b := range ing.Batches {
		row, err := newBatchRow(b)
		if err != nil {
			return err
		}
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO batches (batch_id, ingestion_id, sequence, ids, status)
			 VALUES (:batch_id, :ingestion_id, :sequence, :ids, :status)
			 ON CONFLICT (batch_id) DO NOTHING`,
			row); err != nil {
			return fmt.Errorf("insert batch %s: %w", b.BatchID, err)
		}
	}

	if err := refreshIngestionStatus(ctx, tx, ing.IngestionID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit journal tx: %w", err)
	}
	return nil
}

// RecordBatchStatus writes a batch transition and recomputes its ingestion's
// status from the journaled batch rows. Missing rows are created from the
// batch itself. A terminal status is never overwritten.
func (j *Journal) RecordBatchStatus(ctx context.Context, b *domain.Batch) error {
	tx, err := j.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin journal tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO ingestions (ingestion_id, status, priority, created_time)
		 VALUES (:ingestion_id, :status, :priority, :created_time)
		 ON CONFLICT (ingestion_id) DO NOTHING`,
		IngestionRow{
			IngestionID: b.IngestionID,
			Status:      string(b.Status.Label()),
			Priority:    b.Priority.String(),
			CreatedTime: b.UpdatedAt.Unix(),
		}); err != nil {
		return fmt.Errorf("insert ingestion %s: %w", b.IngestionID, err)
	}

	row, err := newBatchRow(b)
	if err != nil {
		return err
	}
	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO batches (batch_id, ingestion_id, sequence, ids, status)
		 VALUES (:batch_id, :ingestion_id, :sequence, :ids, :status)
		 ON CONFLICT (batch_id) DO UPDATE SET status = excluded.status
		 WHERE batches.status NOT IN ('completed', 'failed')`,
		row); err != nil {
		return fmt.Errorf("upsert batch %s: %w", b.BatchID, err)
	}

	if err := refreshIngestionStatus(ctx, tx, b.IngestionID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit journal tx: %w", err)
	}
	return nil
}

func newBatchRow(b *domain.Batch) (BatchRow, error) {
	ids, err := json.Marshal(append([]int64{}, b.IDs...))
	if err != nil {
		return BatchRow{}, fmt.Errorf("encode batch ids: %w", err)
	}
	return BatchRow{
		BatchID:     b.BatchID,
		IngestionID: b.IngestionID,
		Sequence:    int(b.Sequence),
		IDs:         string(ids),
		Status:      string(b.Status.Label()),
	}, nil
}

// refreshIngestionStatus stores the aggregate of the journaled batch statuses.
func refreshIngestionStatus(ctx context.Context, tx *sqlx.Tx, ingestionID string) error {
	var labels []string
	if err := tx.SelectContext(ctx, &labels,
		`SELECT status FROM batches WHERE ingestion_id = ?`, ingestionID); err != nil {
		return fmt.Errorf("load batch statuses: %w", err)
	}
	statuses := make([]domain.BatchStatus, 0, len(labels))
	for _, l := range labels {
		s, ok := domain.ParseStatusLabel(domain.StatusLabel(l))
		if !ok {
			return fmt.Errorf("unknown journaled status %q", l)
		}
		statuses = append(statuses, s)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE ingestions SET status = ? WHERE ingestion_id = ?`,
		string(domain.AggregateStatus(statuses).Label()), ingestionID)
	if err != nil {
		return fmt.Errorf("update ingestion %s: %w", ingestionID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update ingestion %s: %w", ingestionID, sql.ErrNoRows)
	}
	return nil
}

// HandleEvent is a domain.EventHandler that writes events through to the journal.
func (j *Journal) HandleEvent(ctx context.Context, event *domain.DomainEvent) error {
	switch {
	case event.EventType == domain.EventIngestionCreated && event.Ingestion != nil:
		return j.RecordIngestion(ctx, event.Ingestion)
	case event.Batch != nil:
		return j.RecordBatchStatus(ctx, event.Batch)
	default:
		return nil
	}
}

// LoadIngestion reads back the journaled rows of one ingestion, batches in sequence order.
func (j *Journal) LoadIngestion(ctx context.Context, ingestionID string) (IngestionRow, []BatchRow, error) {
	var ing IngestionRow
	if err := j.db.GetContext(ctx, &ing,
		`SELECT ingestion_id, status, priority, created_time FROM ingestions WHERE ingestion_id = ?`,
		ingestionID); err != nil {
		return ing, nil, fmt.Errorf("load ingestion %s: %w", ingestionID, err)
	}
	batches := []BatchRow{}
	if err := j.db.SelectContext(ctx, &batches,
		`SELECT batch_id, ingestion_id, sequence, ids, status FROM batches
		 WHERE ingestion_id = ? ORDER BY sequence`, ingestionID); err != nil {
		return ing, nil, fmt.Errorf("load batches of %s: %w", ingestionID, err)
	}
	return ing, batches, nil
}

// Ping checks the journal connection.
func (j *Journal) Ping(ctx context.Context) error {
	return j.db.PingContext(ctx)
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}
