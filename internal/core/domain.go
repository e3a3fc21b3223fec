package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Variant is the closed set of event subtypes.
type Variant string

const (
	Generic   Variant = "generic"
	Medical   Variant = "medical"
	Work      Variant = "work"
	Financial Variant = "financial"
)

// Collection paths understood by the record store.
const (
	CollectionEvents          = "events"
	CollectionMedicalEvents   = "medical-events"
	CollectionWorkEvents      = "work-events"
	CollectionFinancialEvents = "financial-events"
	CollectionTransactions    = "transactions"
	CollectionSeries          = "event-series"
)

// Variants lists every variant in classification precedence order.
func Variants() []Variant {
	return []Variant{Medical, Financial, Work, Generic}
}

// ParseVariant accepts the persisted tag (case-insensitive).
func ParseVariant(s string) (Variant, bool) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	switch v {
	case Generic, Medical, Work, Financial:
		return v, true
	}
	return "", false
}

func (v Variant) String() string { return string(v) }

// IsEventCollection reports whether path names one of the event collections.
func IsEventCollection(path string) bool {
	switch path {
	case CollectionEvents, CollectionMedicalEvents, CollectionWorkEvents, CollectionFinancialEvents:
		return true
	}
	return false
}

// VariantForCollection maps an event collection to the variant it stores.
// The base "events" collection creates Generic events.
func VariantForCollection(path string) (Variant, bool) {
	switch path {
	case CollectionEvents:
		return Generic, true
	case CollectionMedicalEvents:
		return Medical, true
	case CollectionWorkEvents:
		return Work, true
	case CollectionFinancialEvents:
		return Financial, true
	}
	return "", false
}

type (
	// Color is a named palette entry understood by the UI.
	Color string

	MedicalDetails struct {
		Reason     string
		Provider   string
		Medication string
	}

	WorkDetails struct {
		Occurrence string
		Location   string
	}

	FinancialDetails struct {
		Occurrence     string
		ExpectedAmount *decimal.Decimal
		IsRecurring    bool
	}

	// Event is a dated record with at most one variant payload populated.
	Event struct {
		ID        string
		Variant   Variant
		Title     string
		Notes     string
		SetDate   time.Time // zero when missing or unparseable
		SeriesID  string    // empty when not part of a series
		Medical   *MedicalDetails
		Work      *WorkDetails
		Financial *FinancialDetails
	}

	TransactionType string

	Transaction struct {
		ID     string
		Title  string
		Notes  string
		Amount decimal.Decimal
		Type   TransactionType
		Date   time.Time
	}

	Series struct {
		ID   string
		Name string
	}

	// EventForm is the generic form model edited by the UI. It carries the
	// fields of every variant; the endpoint resolver picks the relevant ones.
	EventForm struct {
		Title          string
		Notes          string
		SetDate        time.Time
		SeriesID       string
		Reason         string
		Provider       string
		Medication     string
		Occurrence     string
		Location       string
		ExpectedAmount *decimal.Decimal
		IsRecurring    bool
	}

	TransactionForm struct {
		Title  string
		Notes  string
		Amount decimal.Decimal
		Type   TransactionType
		Date   time.Time
	}
)

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

// HasDate reports whether the event carries a usable set_date.
func (e Event) HasDate() bool {
	return !e.SetDate.IsZero()
}

// InSeries reports whether the event references a series.
func (e Event) InSeries() bool {
	return e.SeriesID != ""
}

// Validate checks the common event fields.
func (f EventForm) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if len(f.Title) > 255 {
		return &ValidationError{Field: "title", Message: "title too long (max 255 characters)"}
	}
	if f.SetDate.IsZero() {
		return &ValidationError{Field: "set_date", Message: "set_date is required"}
	}
	return nil
}

func (t TransactionType) IsValid() bool {
	return t == Expense || t == Income
}

// Validate checks the transaction form before any write is attempted.
func (f TransactionForm) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if len(f.Title) > 255 {
		return &ValidationError{Field: "title", Message: "title too long (max 255 characters)"}
	}
	if !f.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Message: ErrInvalidAmount.Error()}
	}
	if !f.Type.IsValid() {
		return &ValidationError{Field: "transaction_type", Message: "must be expense or income"}
	}
	if f.Date.IsZero() {
		return &ValidationError{Field: "transaction_date", Message: "transaction_date is required"}
	}
	return nil
}

// Validate checks the series name.
func (s Series) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return &ValidationError{Field: "name", Message: "series name is required"}
	}
	return nil
}
