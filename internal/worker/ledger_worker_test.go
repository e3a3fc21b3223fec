package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/store/memory"
)

type fakeSink struct {
	mu      sync.Mutex
	writes  int
	ledger  []core.Transaction
	readErr error
}

func (f *fakeSink) ReplaceLedger(_ context.Context, txs []core.Transaction) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	f.ledger = append([]core.Transaction(nil), txs...)
	return len(txs), nil
}

func (f *fakeSink) ReadLedger(context.Context) ([]core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ledger, f.readErr
}

// gatedReader holds the first List until release is closed.
type gatedReader struct {
	*memory.Store
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedReader) List(ctx context.Context, coll string) ([]core.Record, error) {
	recs, err := g.Store.List(ctx, coll)
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return recs, err
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	st := memory.New()
	err := st.Seed(core.CollectionTransactions,
		core.Record{"title": "Salary", "amount": "2000.00", "transaction_type": "income", "transaction_date": "2024-03-01T00:00:00Z"},
		core.Record{"title": "Rent", "amount": "950.00", "transaction_type": "expense", "transaction_date": "2024-03-02T00:00:00Z"},
	)
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func TestSyncWritesNewestFirstAndSkipsUnchanged(t *testing.T) {
	sink := &fakeSink{}
	w := NewLedgerWorker(seededStore(t), sink, nil)

	wrote, err := w.Sync(context.Background())
	if err != nil || !wrote {
		t.Fatalf("first sync: wrote=%v err=%v", wrote, err)
	}
	if len(sink.ledger) != 2 || sink.ledger[0].Title != "Rent" {
		t.Fatalf("expected newest first, got %+v", sink.ledger)
	}
	wrote, err = w.Sync(context.Background())
	if err != nil || wrote || sink.writes != 1 {
		t.Fatalf("unchanged ledger should not be rewritten: wrote=%v writes=%d", wrote, sink.writes)
	}
}

func TestHandleChangeOnlyForTransactions(t *testing.T) {
	sink := &fakeSink{}
	st := seededStore(t)
	w := NewLedgerWorker(st, sink, nil)
	ctx := context.Background()

	if err := w.HandleChange(ctx, amqp.NewChangeMessage(core.CollectionWorkEvents, amqp.ActionCreated, "1")); err != nil {
		t.Fatal(err)
	}
	if sink.writes != 0 {
		t.Fatalf("event changes must not touch the ledger")
	}

	rec, _ := st.Create(ctx, core.CollectionTransactions, core.Record{
		"title": "Coffee", "amount": "3.20", "transaction_type": "expense", "transaction_date": "2024-03-03T00:00:00Z",
	})
	if err := w.HandleChange(ctx, amqp.NewChangeMessage(core.CollectionTransactions, amqp.ActionCreated, rec.ID())); err != nil {
		t.Fatal(err)
	}
	if sink.writes != 1 || len(sink.ledger) != 3 {
		t.Fatalf("expected ledger of 3 after change, got writes=%d len=%d", sink.writes, len(sink.ledger))
	}
}

func TestStartupSyncCheck(t *testing.T) {
	st := seededStore(t)
	sink := &fakeSink{}
	w := NewLedgerWorker(st, sink, nil)
	ctx := context.Background()

	if err := w.StartupSyncCheck(ctx); err != nil || sink.writes != 1 {
		t.Fatalf("stale sheet should be rewritten: writes=%d err=%v", sink.writes, err)
	}

	// A fresh worker over an up-to-date sheet does not rewrite it.
	w2 := NewLedgerWorker(st, sink, nil)
	if err := w2.StartupSyncCheck(ctx); err != nil || sink.writes != 1 {
		t.Fatalf("up-to-date sheet rewritten: writes=%d err=%v", sink.writes, err)
	}

	sink.readErr = errors.New("quota exceeded")
	w3 := NewLedgerWorker(st, sink, nil)
	if err := w3.StartupSyncCheck(ctx); err != nil || sink.writes != 2 {
		t.Fatalf("unreadable sheet should be rewritten: writes=%d err=%v", sink.writes, err)
	}
}

func TestOverlappingSyncsExportNewestLedger(t *testing.T) {
	st := seededStore(t)
	reader := &gatedReader{Store: st, entered: make(chan struct{}), release: make(chan struct{})}
	sink := &fakeSink{}
	w := NewLedgerWorker(reader, sink, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := w.Sync(ctx); err != nil {
			t.Errorf("first sync: %v", err)
		}
	}()
	<-reader.entered

	// The first sync has read the two-row ledger; a change lands meanwhile.
	if _, err := st.Create(ctx, core.CollectionTransactions, core.Record{
		"title": "Coffee", "amount": "3.20", "transaction_type": "expense", "transaction_date": "2024-03-03T00:00:00Z",
	}); err != nil {
		t.Fatal(err)
	}
	go func() {
		defer wg.Done()
		if _, err := w.Sync(ctx); err != nil {
			t.Errorf("second sync: %v", err)
		}
	}()
	close(reader.release)
	wg.Wait()

	got, _ := sink.ReadLedger(ctx)
	if len(got) != 3 || got[0].Title != "Coffee" {
		t.Fatalf("sheet should hold the newest ledger, got %+v", got)
	}
}
