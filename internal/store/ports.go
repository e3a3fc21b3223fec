// Package store defines the record store port shared by every backend.
package store

import (
	"context"

	"tracker/internal/core"
)

// Ports for outbound adapters.
type (
	// RecordReader lists the records of one collection in store order.
	RecordReader interface {
		List(ctx context.Context, collection string) ([]core.Record, error)
	}

	// RecordWriter mutates one collection. Create and Update return the
	// record as persisted, including its id.
	RecordWriter interface {
		Create(ctx context.Context, collection string, payload core.Record) (core.Record, error)
		Update(ctx context.Context, collection, id string, payload core.Record) (core.Record, error)
		Delete(ctx context.Context, collection, id string) error
	}

	// RecordStore is the full CRUD surface over collection paths.
	RecordStore interface {
		RecordReader
		RecordWriter
	}
)

// Known reports whether collection is one the stores understand.
func Known(collection string) bool {
	return core.IsEventCollection(collection) ||
		collection == core.CollectionTransactions ||
		collection == core.CollectionSeries
}
