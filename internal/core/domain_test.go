package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseVariant(t *testing.T) {
	for _, in := range []string{"medical", "Medical", " WORK ", "financial", "generic"} {
		if _, ok := ParseVariant(in); !ok {
			t.Fatalf("expected %q to parse", in)
		}
	}
	if _, ok := ParseVariant("holiday"); ok {
		t.Fatalf("unknown variant should not parse")
	}
}

func TestVariantForCollection(t *testing.T) {
	cases := map[string]Variant{
		CollectionEvents:          Generic,
		CollectionMedicalEvents:   Medical,
		CollectionWorkEvents:      Work,
		CollectionFinancialEvents: Financial,
	}
	for path, want := range cases {
		got, ok := VariantForCollection(path)
		if !ok || got != want {
			t.Fatalf("%s: expected %s, got %s (ok=%v)", path, want, got, ok)
		}
	}
	if _, ok := VariantForCollection(CollectionTransactions); ok {
		t.Fatalf("transactions is not an event collection")
	}
}

func TestEventFormValidate(t *testing.T) {
	good := EventForm{Title: "Checkup", SetDate: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []EventForm{
		{Title: " ", SetDate: good.SetDate},
		{Title: "x"},
	}
	for i, f := range bads {
		err := f.Validate()
		var verr *ValidationError
		if !errors.As(err, &verr) || !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d expected ValidationError, got %v", i, err)
		}
	}
}

func TestTransactionFormValidate(t *testing.T) {
	good := TransactionForm{
		Title:  "Rent",
		Amount: decimal.RequireFromString("950.00"),
		Type:   Expense,
		Date:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	fields := []string{"title", "amount", "transaction_type", "transaction_date"}
	bads := []TransactionForm{
		{Amount: good.Amount, Type: Expense, Date: good.Date},
		{Title: "a", Amount: decimal.Zero, Type: Expense, Date: good.Date},
		{Title: "a", Amount: good.Amount, Type: "refund", Date: good.Date},
		{Title: "a", Amount: good.Amount, Type: Income},
	}
	for i, f := range bads {
		var verr *ValidationError
		if err := f.Validate(); !errors.As(err, &verr) || verr.Field != fields[i] {
			t.Fatalf("case %d expected %s validation error, got %v", i, fields[i], err)
		}
	}
}

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("connection refused")
	terr := &TransportError{Op: "list", Collection: CollectionEvents, Err: cause}
	if !errors.Is(terr, ErrTransport) || !errors.Is(terr, cause) {
		t.Fatalf("transport error should match sentinel and cause")
	}
	nf := &NotFoundError{Collection: CollectionEvents, ID: "9"}
	if !errors.Is(nf, ErrNotFound) {
		t.Fatalf("not found error should match sentinel")
	}
	mm := &VariantMismatchError{ID: "5", Current: Work, Requested: Medical}
	if !errors.Is(mm, ErrVariantMismatch) || !errors.Is(mm, ErrValidation) {
		t.Fatalf("mismatch should be a validation failure")
	}
}

func TestSummarize(t *testing.T) {
	txs := []Transaction{
		{Amount: decimal.RequireFromString("1000"), Type: Income},
		{Amount: decimal.RequireFromString("250.50"), Type: Expense},
		{Amount: decimal.RequireFromString("49.50"), Type: Expense},
	}
	got := Summarize(txs)
	if got.Income.StringFixed(2) != "1000.00" || got.Expense.StringFixed(2) != "300.00" || got.Net.StringFixed(2) != "700.00" {
		t.Fatalf("unexpected totals: %+v", got)
	}
}
