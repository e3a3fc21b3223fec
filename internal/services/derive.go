package services

import (
	"fmt"
	"time"

	"tracker/internal/calendar"
	"tracker/internal/chrono"
	"tracker/internal/classify"
	"tracker/internal/core"
	"tracker/internal/series"
)

// Snapshot is the raw result of one LoadAll, each slice in fetch order.
type Snapshot struct {
	Events       []core.Record
	Transactions []core.Record
	Series       []core.Record
}

// Options control how views are derived.
type Options struct {
	EventsAscending       bool
	TransactionsAscending bool
	Location              *time.Location // calendar day boundaries; nil means time.Local
}

// DefaultOptions lists events oldest first and transactions newest first.
func DefaultOptions() Options {
	return Options{EventsAscending: true, TransactionsAscending: false}
}

// EventView is one row of the event list.
type EventView struct {
	Event          core.Event
	Classification classify.Classification
	Display        series.Display
}

// Views are everything the UI reads. A Views value is never mutated after
// Derive returns it.
type Views struct {
	Version      uint64
	LoadedAt     time.Time
	Events       []EventView // sorted per Options, series precedence applied
	Transactions []core.Transaction
	Calendar     map[calendar.Date]calendar.DayCell
	Undated      []string
	Series       *series.Registry
	Totals       core.LedgerTotals
}

// Derive rebuilds every view from a snapshot. It is pure: the same snapshot
// and options always produce the same views. Records that cannot be decoded
// are dropped and reported in warnings along with ambiguous classifications.
func Derive(snap Snapshot, opts Options) (Views, []error) {
	var warnings []error
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	list := make([]core.Series, 0, len(snap.Series))
	for _, rec := range snap.Series {
		s, err := core.SeriesFromRecord(rec)
		if err != nil {
			warnings = append(warnings, err)
			continue
		}
		list = append(list, s)
	}
	reg := series.NewRegistry(list)

	events := make([]core.Event, 0, len(snap.Events))
	classes := make(map[string]classify.Classification, len(snap.Events))
	for _, rec := range snap.Events {
		ev, c := classify.DecodeIn(rec, loc)
		if err := c.Err(); err != nil {
			warnings = append(warnings, fmt.Errorf("event %s: %w", ev.ID, err))
		}
		events = append(events, ev)
		classes[ev.ID] = c
	}

	txs := make([]core.Transaction, 0, len(snap.Transactions))
	for _, rec := range snap.Transactions {
		tx, err := core.TransactionFromRecordIn(rec, loc)
		if err != nil {
			warnings = append(warnings, err)
			continue
		}
		txs = append(txs, tx)
	}

	// Calendar colours depend on fetch order, so bucket before sorting.
	v := Views{
		Calendar:     calendar.BucketByDay(events, loc),
		Undated:      calendar.Undated(events),
		Series:       reg,
		Transactions: chrono.Transactions(txs, opts.TransactionsAscending),
		Totals:       core.Summarize(txs),
	}

	sorted := chrono.Events(events, opts.EventsAscending)
	v.Events = make([]EventView, len(sorted))
	for i, ev := range sorted {
		v.Events[i] = EventView{
			Event:          ev,
			Classification: classes[ev.ID],
			Display:        reg.Decorate(ev),
		}
	}
	return v, warnings
}

// Event returns the view of the event with id.
func (v Views) Event(id string) (EventView, bool) {
	for _, ev := range v.Events {
		if ev.Event.ID == id {
			return ev, true
		}
	}
	return EventView{}, false
}

// Transaction returns the transaction with id.
func (v Views) Transaction(id string) (core.Transaction, bool) {
	for _, tx := range v.Transactions {
		if tx.ID == id {
			return tx, true
		}
	}
	return core.Transaction{}, false
}
