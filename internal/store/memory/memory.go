// Package memory is a process-local record store used for development and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"tracker/internal/classify"
	"tracker/internal/core"
	"tracker/internal/store"
)

// Store keeps every collection in memory. The four event collections share
// one table: "events" lists every variant, the variant collections filter by
// kind. Ids are sequential per table.
type Store struct {
	mu     sync.Mutex
	tables map[string]*table
}

type table struct {
	next int
	rows []core.Record
}

var _ store.RecordStore = (*Store)(nil)

func New() *Store {
	return &Store{tables: map[string]*table{
		core.CollectionEvents:       {next: 1},
		core.CollectionTransactions: {next: 1},
		core.CollectionSeries:       {next: 1},
	}}
}

// NewFromFiles seeds a store from events.json, transactions.json and
// event-series.json in base. Missing files are skipped.
func NewFromFiles(base string) (*Store, error) {
	s := New()
	for _, coll := range []string{core.CollectionSeries, core.CollectionEvents, core.CollectionTransactions} {
		recs, err := readSeed(filepath.Join(base, coll+".json"))
		if err != nil {
			return nil, err
		}
		if err := s.Seed(coll, recs...); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Seed inserts records, keeping their ids when present. Event records without
// a valid kind tag are stamped with the collection's variant, or for the base
// collection with the variant their fields classify as.
func (s *Store) Seed(collection string, recs ...core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, kind, err := s.table(collection)
	if err != nil {
		return err
	}
	for _, r := range recs {
		r = r.Clone()
		if id := r.ID(); id != "" {
			r["id"] = id
			if n, err := strconv.Atoi(id); err == nil && n >= t.next {
				t.next = n + 1
			}
		} else {
			r["id"] = t.nextID()
		}
		if core.IsEventCollection(collection) {
			if _, ok := core.ParseVariant(r.String("kind")); !ok {
				v := kind
				if v == "" {
					v = kindOf(r)
				}
				r["kind"] = string(v)
			}
		}
		t.rows = append(t.rows, r)
	}
	return nil
}

func (s *Store) List(ctx context.Context, collection string) ([]core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, kind, err := s.table(collection)
	if err != nil {
		return nil, err
	}
	out := make([]core.Record, 0, len(t.rows))
	for _, r := range t.rows {
		if matches(r, kind) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, collection string, payload core.Record) (core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, _, err := s.table(collection)
	if err != nil {
		return nil, err
	}
	r := payload.Clone()
	r["id"] = t.nextID()
	if core.IsEventCollection(collection) {
		r["kind"] = string(createKind(collection, r))
	}
	t.rows = append(t.rows, r)
	return r.Clone(), nil
}

// Update replaces the stored fields with payload. The id and kind are kept.
// Through the base "events" collection only Generic rows can be updated,
// since its payload carries no variant fields.
func (s *Store) Update(ctx context.Context, collection, id string, payload core.Record) (core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if collection == core.CollectionSeries {
		return nil, fmt.Errorf("update %s: %w", collection, core.ErrUnsupported)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, kind, err := s.table(collection)
	if err != nil {
		return nil, err
	}
	if collection == core.CollectionEvents {
		kind = core.Generic
	}
	i := t.index(id, kind)
	if i < 0 {
		return nil, &core.NotFoundError{Collection: collection, ID: id}
	}
	r := payload.Clone()
	r["id"] = id
	if core.IsEventCollection(collection) {
		r["kind"] = string(kindOf(t.rows[i]))
	}
	t.rows[i] = r
	return r.Clone(), nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if collection == core.CollectionSeries {
		return fmt.Errorf("delete %s: %w", collection, core.ErrUnsupported)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, kind, err := s.table(collection)
	if err != nil {
		return err
	}
	i := t.index(id, kind)
	if i < 0 {
		return &core.NotFoundError{Collection: collection, ID: id}
	}
	t.rows = append(t.rows[:i], t.rows[i+1:]...)
	return nil
}

// table resolves a collection to its backing table and, for the variant
// event collections, the kind it is restricted to.
func (s *Store) table(collection string) (*table, core.Variant, error) {
	if core.IsEventCollection(collection) {
		var kind core.Variant
		if collection != core.CollectionEvents {
			kind, _ = core.VariantForCollection(collection)
		}
		return s.tables[core.CollectionEvents], kind, nil
	}
	if t, ok := s.tables[collection]; ok {
		return t, "", nil
	}
	return nil, "", fmt.Errorf("collection %q: %w", collection, core.ErrUnsupported)
}

func (t *table) nextID() string {
	id := strconv.Itoa(t.next)
	t.next++
	return id
}

func (t *table) index(id string, kind core.Variant) int {
	for i, r := range t.rows {
		if r.ID() == id && matches(r, kind) {
			return i
		}
	}
	return -1
}

func matches(r core.Record, kind core.Variant) bool {
	return kind == "" || kindOf(r) == kind
}

// kindOf is the row's kind tag, or for rows stored without one the variant
// their fields classify as.
func kindOf(r core.Record) core.Variant {
	return classify.Classify(r).Variant
}

// createKind is the variant a new row is tagged with. Variant collections
// force their own; the base collection keeps a valid tag from the payload and
// defaults to Generic.
func createKind(collection string, payload core.Record) core.Variant {
	if collection == core.CollectionEvents {
		if v, ok := core.ParseVariant(payload.String("kind")); ok {
			return v
		}
	}
	v, _ := core.VariantForCollection(collection)
	return v
}

func readSeed(path string) ([]core.Record, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed %s: %w", path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()
	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode seed %s: %w", path, err)
	}
	out := make([]core.Record, len(raw))
	for i, m := range raw {
		out[i] = core.Record(m)
	}
	return out, nil
}
