package services

import (
	"sync"

	"tracker/internal/core"
)

// Phase is the state of one edit slot.
type Phase int

const (
	Idle Phase = iota
	Editing
	Saving
	Deleting
)

func (p Phase) String() string {
	switch p {
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	case Deleting:
		return "deleting"
	}
	return "idle"
}

// InFlight reports whether a write is outstanding.
func (p Phase) InFlight() bool { return p == Saving || p == Deleting }

// SlotState is a copy of one slot. Draft holds the last submitted form while
// the slot is Editing after a failed save.
type SlotState struct {
	Key   string
	Phase Phase
	Draft any
	Err   error
}

// Slot keys. A slot is one record being edited, or the "new" form of a kind.
func EventSlot(id string) string       { return slotKey("event", id) }
func TransactionSlot(id string) string { return slotKey("transaction", id) }
func SeriesSlot() string               { return "series:new" }

func slotKey(kind, id string) string {
	if id == "" {
		id = "new"
	}
	return kind + ":" + id
}

type slotTable struct {
	mu    sync.Mutex
	slots map[string]SlotState
}

func newSlotTable() *slotTable {
	return &slotTable{slots: make(map[string]SlotState)}
}

func (t *slotTable) get(key string) SlotState {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.slots[key]
	if !ok {
		return SlotState{Key: key, Phase: Idle}
	}
	return s
}

// edit moves an idle or editing slot to Editing with draft.
func (t *slotTable) edit(key string, draft any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.slots[key].Phase.InFlight() {
		return core.ErrBusy
	}
	t.slots[key] = SlotState{Key: key, Phase: Editing, Draft: draft}
	return nil
}

// begin claims the slot for a write. A slot already in flight is busy.
func (t *slotTable) begin(key string, phase Phase, draft any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.slots[key].Phase.InFlight() {
		return core.ErrBusy
	}
	t.slots[key] = SlotState{Key: key, Phase: phase, Draft: draft}
	return nil
}

// fail ends a write. A failed save returns to Editing keeping its draft; a
// failed delete returns to Idle.
func (t *slotTable) fail(key string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.slots[key]
	s.Key = key
	s.Err = err
	if s.Phase == Saving {
		s.Phase = Editing
	} else {
		s.Phase = Idle
		s.Draft = nil
	}
	t.slots[key] = s
}

// done ends a successful write and forgets the slot.
func (t *slotTable) done(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.slots, key)
}

// cancel drops an Editing slot. In-flight slots are busy.
func (t *slotTable) cancel(key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.slots[key].Phase.InFlight() {
		return core.ErrBusy
	}
	delete(t.slots, key)
	return nil
}

func (t *slotTable) all() []SlotState {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]SlotState, 0, len(t.slots))
	for _, s := range t.slots {
		out = append(out, s)
	}
	return out
}
