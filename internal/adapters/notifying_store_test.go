package adapters

import (
	"context"
	"errors"
	"testing"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/store/memory"
)

type recordingPublisher struct {
	msgs []*amqp.ChangeMessage
	err  error
}

func (p *recordingPublisher) PublishChange(_ context.Context, msg *amqp.ChangeMessage) error {
	p.msgs = append(p.msgs, msg)
	return p.err
}

func TestNotifyingStorePublishesWrites(t *testing.T) {
	pub := &recordingPublisher{}
	st := NewNotifyingStore(memory.New(), pub, nil)
	ctx := context.Background()

	rec, err := st.Create(ctx, core.CollectionWorkEvents, core.Record{"title": "shift"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.Update(ctx, core.CollectionWorkEvents, rec.ID(), core.Record{"title": "late"}); err != nil {
		t.Fatal(err)
	}
	if err := st.Delete(ctx, core.CollectionWorkEvents, rec.ID()); err != nil {
		t.Fatal(err)
	}
	if _, err := st.List(ctx, core.CollectionEvents); err != nil {
		t.Fatal(err)
	}

	want := []string{amqp.ActionCreated, amqp.ActionUpdated, amqp.ActionDeleted}
	if len(pub.msgs) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(pub.msgs))
	}
	for i, a := range want {
		m := pub.msgs[i]
		if m.Action != a || m.Kind != "event" || m.ID != rec.ID() {
			t.Fatalf("message %d = %+v", i, m)
		}
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &recordingPublisher{err: amqp.ErrCircuitOpen}
	st := NewNotifyingStore(memory.New(), pub, nil)
	if _, err := st.Create(context.Background(), core.CollectionTransactions, core.Record{"title": "rent"}); err != nil {
		t.Fatalf("write failed because of publish: %v", err)
	}
}

func TestFailedWriteIsNotPublished(t *testing.T) {
	pub := &recordingPublisher{}
	st := NewNotifyingStore(memory.New(), pub, nil)
	err := st.Delete(context.Background(), core.CollectionTransactions, "9")
	if !errors.Is(err, core.ErrNotFound) || len(pub.msgs) != 0 {
		t.Fatalf("err=%v msgs=%d", err, len(pub.msgs))
	}
}

func TestNilPublisherReturnsStore(t *testing.T) {
	base := memory.New()
	if got := NewNotifyingStore(base, nil, nil); got != base {
		t.Fatalf("expected the wrapped store unchanged")
	}
}
