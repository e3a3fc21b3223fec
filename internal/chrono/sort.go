// Package chrono orders records by a date field.
package chrono

import (
	"sort"
	"time"

	"tracker/internal/core"
)

// DateFunc extracts the sort key of a record. ok is false when the record
// has no usable date.
type DateFunc[T any] func(T) (t time.Time, ok bool)

// Sort returns a new slice ordered by date, ascending or descending.
// Records with equal dates keep their input order, and records without a
// date go last in both directions, also in input order.
func Sort[T any](records []T, dateOf DateFunc[T], ascending bool) []T {
	type keyed struct {
		rec   T
		at    time.Time
		dated bool
	}
	items := make([]keyed, len(records))
	for i, r := range records {
		at, ok := dateOf(r)
		items[i] = keyed{rec: r, at: at, dated: ok && !at.IsZero()}
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.dated != b.dated {
			return a.dated
		}
		if !a.dated {
			return false
		}
		if ascending {
			return a.at.Before(b.at)
		}
		return a.at.After(b.at)
	})
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = it.rec
	}
	return out
}

// SortRecords sorts raw store records by the timestamp held in field.
func SortRecords(records []core.Record, field string, ascending bool) []core.Record {
	return Sort(records, func(r core.Record) (time.Time, bool) {
		return r.Time(field)
	}, ascending)
}

// EventDate is the sort key of an event.
func EventDate(e core.Event) (time.Time, bool) {
	return e.SetDate, e.HasDate()
}

// TransactionDate is the sort key of a transaction.
func TransactionDate(t core.Transaction) (time.Time, bool) {
	return t.Date, !t.Date.IsZero()
}

// Events sorts events by set_date.
func Events(events []core.Event, ascending bool) []core.Event {
	return Sort(events, EventDate, ascending)
}

// Transactions sorts transactions by transaction_date.
func Transactions(txs []core.Transaction, ascending bool) []core.Transaction {
	return Sort(txs, TransactionDate, ascending)
}
