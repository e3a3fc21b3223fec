package adapters

import (
	"context"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/store"
)

// Publisher sends change notifications.
type Publisher interface {
	PublishChange(ctx context.Context, msg *amqp.ChangeMessage) error
}

// NotifyingStore wraps a record store and announces every successful write.
// A failed publish is logged and never fails the write.
type NotifyingStore struct {
	store.RecordStore
	pub    Publisher
	logger *log.Logger
}

var _ store.RecordStore = (*NotifyingStore)(nil)

// NewNotifyingStore returns st unchanged when pub is nil.
func NewNotifyingStore(st store.RecordStore, pub Publisher, logger *log.Logger) store.RecordStore {
	if pub == nil {
		return st
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &NotifyingStore{RecordStore: st, pub: pub, logger: logger.WithComponent(log.ComponentAMQP)}
}

func (s *NotifyingStore) Create(ctx context.Context, collection string, payload core.Record) (core.Record, error) {
	rec, err := s.RecordStore.Create(ctx, collection, payload)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, collection, amqp.ActionCreated, rec.ID())
	return rec, nil
}

func (s *NotifyingStore) Update(ctx context.Context, collection, id string, payload core.Record) (core.Record, error) {
	rec, err := s.RecordStore.Update(ctx, collection, id, payload)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, collection, amqp.ActionUpdated, id)
	return rec, nil
}

func (s *NotifyingStore) Delete(ctx context.Context, collection, id string) error {
	if err := s.RecordStore.Delete(ctx, collection, id); err != nil {
		return err
	}
	s.notify(ctx, collection, amqp.ActionDeleted, id)
	return nil
}

func (s *NotifyingStore) notify(ctx context.Context, collection, action, id string) {
	if err := s.pub.PublishChange(ctx, amqp.NewChangeMessage(collection, action, id)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish change message",
			log.NewFields().WithOperation(log.OpPublish).WithRecord(collection, id).WithError(err, log.ErrorTypeTransport).ToSlice()...)
	}
}
