package store

import (
	"github.com/hashicorp/go-memdb"
)

const (
	ingestionsTable = "ingestions"
	batchesTable    = "batches"

	idIndex        = "id"        // primary key lookup
	ingestionIndex = "ingestion" // batches of one ingestion in sequence order
	orderIndex     = "order"     // global drain order: status, priority, submission, sequence
	statusIndex    = "status"    // batch counts per status
)

// schema creates the database schema.
// Ingestions hold no status; every batch carries the scheduling keys of its
// owner so the order index can be maintained from the batch record alone.
func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			ingestionsTable: {
				Name: ingestionsTable,
				Indexes: map[string]*memdb.IndexSchema{
					idIndex: {
						Name:    idIndex,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "IngestionID"},
					},
				},
			},
			batchesTable: {
				Name: batchesTable,
				Indexes: map[string]*memdb.IndexSchema{
					idIndex: {
						Name:    idIndex,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "BatchID"},
					},
					ingestionIndex: {
						Name:   ingestionIndex,
						Unique: true,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.StringFieldIndex{Field: "IngestionID"},
								&memdb.UintFieldIndex{Field: "Sequence"},
							},
						},
					},
					orderIndex: {
						Name:   orderIndex,
						Unique: false,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.UintFieldIndex{Field: "Status"},
								&memdb.UintFieldIndex{Field: "Priority"},
								&memdb.UintFieldIndex{Field: "Submitted"},
								&memdb.UintFieldIndex{Field: "Sequence"},
							},
						},
					},
					statusIndex: {
						Name:    statusIndex,
						Unique:  false,
						Indexer: &memdb.UintFieldIndex{Field: "Status"},
					},
				},
			},
		},
	}
}
