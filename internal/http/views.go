package http

import (
	"time"

	"tracker/internal/calendar"
	"tracker/internal/core"
	"tracker/internal/services"
)

type eventDTO struct {
	ID         string         `json:"id"`
	Variant    core.Variant   `json:"variant"`
	Title      string         `json:"title"`
	Notes      string         `json:"notes,omitempty"`
	SetDate    *string        `json:"set_date"`
	SeriesID   string         `json:"series_id,omitempty"`
	SeriesName string         `json:"series_name,omitempty"`
	Label      string         `json:"label"`
	Icon       string         `json:"icon"`
	Color      core.Color     `json:"color"`
	Tooltip    string         `json:"tooltip"`
	Ambiguous  bool           `json:"ambiguous,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

func toEventDTO(v services.EventView) eventDTO {
	ev := v.Event
	d := eventDTO{
		ID:         ev.ID,
		Variant:    ev.Variant,
		Title:      ev.Title,
		Notes:      ev.Notes,
		SetDate:    timePtr(ev.SetDate),
		SeriesID:   ev.SeriesID,
		SeriesName: v.Display.SeriesName,
		Label:      v.Display.Label,
		Icon:       v.Display.Icon,
		Color:      v.Display.Color,
		Tooltip:    v.Display.Tooltip,
		Ambiguous:  v.Classification.Ambiguous,
	}
	switch {
	case ev.Medical != nil:
		d.Details = map[string]any{
			"reason":     ev.Medical.Reason,
			"provider":   ev.Medical.Provider,
			"medication": ev.Medical.Medication,
		}
	case ev.Work != nil:
		d.Details = map[string]any{
			"occurrence": ev.Work.Occurrence,
			"location":   ev.Work.Location,
		}
	case ev.Financial != nil:
		d.Details = map[string]any{
			"occurrence":   ev.Financial.Occurrence,
			"is_recurring": ev.Financial.IsRecurring,
		}
		if ev.Financial.ExpectedAmount != nil {
			d.Details["expected_amount"] = core.FormatAmount(*ev.Financial.ExpectedAmount)
		}
	}
	return d
}

type transactionDTO struct {
	ID     string               `json:"id"`
	Title  string               `json:"title"`
	Notes  string               `json:"notes,omitempty"`
	Amount string               `json:"amount"`
	Type   core.TransactionType `json:"transaction_type"`
	Date   *string              `json:"transaction_date"`
}

func toTransactionDTO(tx core.Transaction) transactionDTO {
	return transactionDTO{
		ID:     tx.ID,
		Title:  tx.Title,
		Notes:  tx.Notes,
		Amount: core.FormatAmount(tx.Amount),
		Type:   tx.Type,
		Date:   timePtr(tx.Date),
	}
}

type totalsDTO struct {
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Net     string `json:"net"`
}

type seriesDTO struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Color core.Color `json:"color"`
}

type dayCellDTO struct {
	Date     string               `json:"date"`
	Count    int                  `json:"count"`
	Color    core.Color           `json:"color"`
	Source   calendar.ColorSource `json:"source"`
	SeriesID string               `json:"series_id,omitempty"`
	EventIDs []string             `json:"event_ids"`
}

type eventsBody struct {
	Version  uint64     `json:"version"`
	LoadedAt *string    `json:"loaded_at"`
	Order    string     `json:"order"`
	Events   []eventDTO `json:"events"`
	Undated  []string   `json:"undated"`
}

type transactionsBody struct {
	Version      uint64           `json:"version"`
	Transactions []transactionDTO `json:"transactions"`
	Totals       totalsDTO        `json:"totals"`
}

type calendarBody struct {
	Version uint64       `json:"version"`
	Year    int          `json:"year"`
	Month   int          `json:"month"`
	Days    []dayCellDTO `json:"days"`
}

type slotDTO struct {
	Key   string `json:"key"`
	Phase string `json:"phase"`
	Error string `json:"error,omitempty"`
	Draft any    `json:"draft,omitempty"`
}

func toSlotDTO(s services.SlotState) slotDTO {
	d := slotDTO{Key: s.Key, Phase: s.Phase.String()}
	if s.Err != nil {
		d.Error = s.Err.Error()
	}
	switch draft := s.Draft.(type) {
	case core.EventForm:
		d.Draft = eventDraft(draft)
	case core.TransactionForm:
		d.Draft = transactionDraft(draft)
	case string:
		d.Draft = map[string]string{"name": draft}
	}
	return d
}

// eventDraft echoes a retained form back in request shape so the UI can
// repopulate its inputs.
func eventDraft(f core.EventForm) eventRequest {
	r := eventRequest{
		Title:       f.Title,
		Notes:       f.Notes,
		SeriesID:    flexString(f.SeriesID),
		Reason:      f.Reason,
		Provider:    f.Provider,
		Medication:  f.Medication,
		Occurrence:  f.Occurrence,
		Location:    f.Location,
		IsRecurring: f.IsRecurring,
	}
	if !f.SetDate.IsZero() {
		r.SetDate = core.FormatTimestamp(f.SetDate)
	}
	if f.ExpectedAmount != nil {
		r.ExpectedAmount = flexString(core.FormatAmount(*f.ExpectedAmount))
	}
	return r
}

func transactionDraft(f core.TransactionForm) transactionRequest {
	r := transactionRequest{
		Title:           f.Title,
		Notes:           f.Notes,
		TransactionType: string(f.Type),
	}
	if !f.Amount.IsZero() {
		r.Amount = flexString(core.FormatAmount(f.Amount))
	}
	if !f.Date.IsZero() {
		r.TransactionDate = core.FormatTimestamp(f.Date)
	}
	return r
}

func timePtr(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := core.FormatTimestamp(t)
	return &s
}

func orderName(ascending bool) string {
	if ascending {
		return "asc"
	}
	return "desc"
}
