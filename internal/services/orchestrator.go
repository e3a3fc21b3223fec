// Package services coordinates record store writes with the derived views.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"tracker/internal/core"
	"tracker/internal/endpoint"
	"tracker/internal/log"
	"tracker/internal/series"
	"tracker/internal/store"
)

// Confirm asks the user to confirm deleting the record of kind with id.
type Confirm func(kind, id string) bool

// Always confirms every delete. For non-interactive callers that already
// obtained consent.
func Always(string, string) bool { return true }

// RefreshError reports that a write was committed but reloading the views
// afterwards failed. The views are stale until the next successful LoadAll.
type RefreshError struct {
	Op  string
	ID  string
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("%s %s committed, refresh failed: %v", e.Op, e.ID, e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// Orchestrator owns the current views and funnels every mutation through the
// record store, re-deriving all views after each successful write.
type Orchestrator struct {
	store  store.RecordStore
	logger *log.Logger
	now    func() time.Time

	mu        sync.RWMutex
	opts      Options
	views     Views
	snapshot  Snapshot
	loaded    bool
	loadSeq   uint64 // last load started
	committed uint64 // load sequence of the current views

	slots *slotTable
}

type Option func(*Orchestrator)

func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) { o.logger = l.WithComponent(log.ComponentOrchestrator) }
}

func WithOptions(opts Options) Option {
	return func(o *Orchestrator) { o.opts = opts }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func New(st store.RecordStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:  st,
		logger: log.Discard(),
		now:    time.Now,
		opts:   DefaultOptions(),
		slots:  newSlotTable(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// LoadAll fetches events, transactions and series concurrently and replaces
// the views only when all three succeed. A load that finishes after a newer
// one has committed is discarded.
func (o *Orchestrator) LoadAll(ctx context.Context) (Views, error) {
	o.mu.Lock()
	o.loadSeq++
	seq := o.loadSeq
	o.mu.Unlock()

	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Events, err = o.store.List(gctx, core.CollectionEvents)
		return err
	})
	g.Go(func() (err error) {
		snap.Transactions, err = o.store.List(gctx, core.CollectionTransactions)
		return err
	})
	g.Go(func() (err error) {
		snap.Series, err = o.store.List(gctx, core.CollectionSeries)
		return err
	})
	if err := g.Wait(); err != nil {
		o.logger.ErrorContext(ctx, "Load failed, keeping current views", log.FieldOperation, log.OpLoad, log.FieldError, err)
		return o.Views(), fmt.Errorf("load all: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if seq < o.committed {
		o.logger.DebugContext(ctx, "Discarding stale load", "seq", seq, "committed", o.committed)
		return o.views, nil
	}
	o.commit(ctx, snap, seq)
	return o.views, nil
}

// commit derives and installs views. Callers hold o.mu.
func (o *Orchestrator) commit(ctx context.Context, snap Snapshot, seq uint64) {
	v, warnings := Derive(snap, o.opts)
	for _, w := range warnings {
		o.logger.WarnContext(ctx, "Record needs attention", log.FieldOperation, log.OpDerive, log.FieldError, w)
	}
	v.Version = o.views.Version + 1
	v.LoadedAt = o.now()
	o.views = v
	o.snapshot = snap
	o.loaded = true
	o.committed = seq
	o.logger.InfoContext(ctx, "Views derived",
		log.FieldVersion, v.Version,
		"events", len(v.Events),
		"transactions", len(v.Transactions),
		"series", v.Series.Len())
}

// Views returns the current views. Before the first successful load it is
// the zero value.
func (o *Orchestrator) Views() Views {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.views
}

// Loaded reports whether a load has ever succeeded.
func (o *Orchestrator) Loaded() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.loaded
}

// Registry returns the current series registry.
func (o *Orchestrator) Registry() *series.Registry {
	return o.Views().Series
}

// Options returns the current derivation options.
func (o *Orchestrator) Options() Options {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.opts
}

// SetEventOrder changes the event list direction and re-derives from the
// last snapshot without fetching.
func (o *Orchestrator) SetEventOrder(ctx context.Context, ascending bool) Views {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opts.EventsAscending = ascending
	if o.loaded {
		o.commit(ctx, o.snapshot, o.committed)
	}
	return o.views
}

// Slot returns the state of one edit slot.
func (o *Orchestrator) Slot(key string) SlotState { return o.slots.get(key) }

// Slots returns every slot that is not Idle.
func (o *Orchestrator) Slots() []SlotState { return o.slots.all() }

// Edit opens a slot for editing with draft.
func (o *Orchestrator) Edit(key string, draft any) error { return o.slots.edit(key, draft) }

// Cancel closes an editing slot and discards its draft.
func (o *Orchestrator) Cancel(key string) error { return o.slots.cancel(key) }

// CreateEvent validates form against the variant's route and creates it.
func (o *Orchestrator) CreateEvent(ctx context.Context, variant core.Variant, form core.EventForm) (string, error) {
	key := EventSlot("")
	if err := o.slots.begin(key, Saving, form); err != nil {
		return "", err
	}
	route, err := endpoint.Resolve(variant)
	if err != nil {
		return "", o.abort(key, err)
	}
	rec, err := o.write(ctx, key, log.OpCreate, route.Collection, "", func() (core.Record, error) {
		payload, err := route.Payload(form)
		if err != nil {
			return nil, err
		}
		return o.store.Create(ctx, route.Collection, payload)
	})
	if rec == nil {
		return "", err
	}
	return rec.ID(), err
}

// UpdateEvent saves form over event id. The route comes from the event's
// classified variant; a non-empty requested variant must match it.
func (o *Orchestrator) UpdateEvent(ctx context.Context, id string, requested core.Variant, form core.EventForm) error {
	key := EventSlot(id)
	if err := o.slots.begin(key, Saving, form); err != nil {
		return err
	}
	current, ok := o.Views().Event(id)
	if !ok {
		return o.abort(key, &core.NotFoundError{Collection: core.CollectionEvents, ID: id})
	}
	route, err := endpoint.ResolveUpdate(id, current.Event.Variant, requested)
	if err != nil {
		return o.abort(key, err)
	}
	_, err = o.write(ctx, key, log.OpUpdate, route.Collection, id, func() (core.Record, error) {
		payload, err := route.Payload(form)
		if err != nil {
			return nil, err
		}
		return o.store.Update(ctx, route.Collection, id, payload)
	})
	return err
}

// DeleteEvent removes event id after confirm agrees.
func (o *Orchestrator) DeleteEvent(ctx context.Context, id string, confirm Confirm) error {
	collection := core.CollectionEvents
	if current, ok := o.Views().Event(id); ok {
		if route, err := endpoint.Resolve(current.Event.Variant); err == nil {
			collection = route.Collection
		}
	}
	return o.remove(ctx, EventSlot(id), "event", collection, id, confirm)
}

func (o *Orchestrator) CreateTransaction(ctx context.Context, form core.TransactionForm) (string, error) {
	key := TransactionSlot("")
	if err := o.slots.begin(key, Saving, form); err != nil {
		return "", err
	}
	rec, err := o.write(ctx, key, log.OpCreate, core.CollectionTransactions, "", func() (core.Record, error) {
		payload, err := endpoint.TransactionPayload(form)
		if err != nil {
			return nil, err
		}
		return o.store.Create(ctx, core.CollectionTransactions, payload)
	})
	if rec == nil {
		return "", err
	}
	return rec.ID(), err
}

func (o *Orchestrator) UpdateTransaction(ctx context.Context, id string, form core.TransactionForm) error {
	key := TransactionSlot(id)
	if err := o.slots.begin(key, Saving, form); err != nil {
		return err
	}
	_, err := o.write(ctx, key, log.OpUpdate, core.CollectionTransactions, id, func() (core.Record, error) {
		payload, err := endpoint.TransactionPayload(form)
		if err != nil {
			return nil, err
		}
		return o.store.Update(ctx, core.CollectionTransactions, id, payload)
	})
	return err
}

func (o *Orchestrator) DeleteTransaction(ctx context.Context, id string, confirm Confirm) error {
	return o.remove(ctx, TransactionSlot(id), "transaction", core.CollectionTransactions, id, confirm)
}

// CreateSeries creates a named series. Series cannot be edited or deleted.
func (o *Orchestrator) CreateSeries(ctx context.Context, name string) (string, error) {
	key := SeriesSlot()
	if err := o.slots.begin(key, Saving, name); err != nil {
		return "", err
	}
	rec, err := o.write(ctx, key, log.OpCreate, core.CollectionSeries, "", func() (core.Record, error) {
		payload, err := endpoint.SeriesPayload(name)
		if err != nil {
			return nil, err
		}
		return o.store.Create(ctx, core.CollectionSeries, payload)
	})
	if rec == nil {
		return "", err
	}
	return rec.ID(), err
}

// write runs one store mutation for a claimed slot, then reloads. On failure
// the slot goes back to Editing with its draft and the views are untouched.
// When the write succeeds but the reload fails the returned record is
// non-nil and the error is a *RefreshError.
func (o *Orchestrator) write(ctx context.Context, key, op, collection, id string, fn func() (core.Record, error)) (core.Record, error) {
	rec, err := fn()
	if err != nil {
		o.logger.WarnContext(ctx, "Write failed",
			log.NewFields().WithOperation(op).WithRecord(collection, id).WithError(err, errorType(err)).ToSlice()...)
		return nil, o.abort(key, err)
	}
	if rec == nil {
		rec = core.Record{"id": id}
	}
	o.slots.done(key)
	o.logger.InfoContext(ctx, "Write committed", log.NewFields().WithOperation(op).WithRecord(collection, rec.ID()).ToSlice()...)

	if _, err := o.LoadAll(ctx); err != nil {
		return rec, &RefreshError{Op: op, ID: rec.ID(), Err: err}
	}
	return rec, nil
}

func (o *Orchestrator) remove(ctx context.Context, key, kind, collection, id string, confirm Confirm) error {
	if o.slots.get(key).Phase.InFlight() {
		return core.ErrBusy
	}
	if confirm == nil || !confirm(kind, id) {
		return core.ErrNotConfirmed
	}
	if err := o.slots.begin(key, Deleting, nil); err != nil {
		return err
	}
	if err := o.store.Delete(ctx, collection, id); err != nil {
		o.logger.WarnContext(ctx, "Delete failed",
			log.NewFields().WithOperation(log.OpDelete).WithRecord(collection, id).WithError(err, errorType(err)).ToSlice()...)
		return o.abort(key, err)
	}
	o.slots.done(key)
	o.logger.InfoContext(ctx, "Delete committed", log.NewFields().WithOperation(log.OpDelete).WithRecord(collection, id).ToSlice()...)

	if _, err := o.LoadAll(ctx); err != nil {
		return &RefreshError{Op: log.OpDelete, ID: id, Err: err}
	}
	return nil
}

func (o *Orchestrator) abort(key string, err error) error {
	o.slots.fail(key, err)
	return err
}

func errorType(err error) string {
	switch {
	case errors.Is(err, core.ErrValidation):
		return log.ErrorTypeValidation
	case errors.Is(err, core.ErrNotFound):
		return log.ErrorTypeNotFound
	case errors.Is(err, core.ErrTransport):
		return log.ErrorTypeTransport
	}
	return log.ErrorTypeInternal
}
