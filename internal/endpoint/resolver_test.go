package endpoint

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tracker/internal/classify"
	"tracker/internal/core"
)

// variantKeys lists the keys only one variant may write.
var variantKeys = map[core.Variant][]string{
	core.Medical:   {"reason", "provider", "medication"},
	core.Work:      {"occurrence", "location"},
	core.Financial: {"occurrence", "expected_amount", "is_recurring"},
}

func fullForm() core.EventForm {
	amt := decimal.RequireFromString("12.5")
	return core.EventForm{
		Title:          "Everything",
		Notes:          "n",
		SetDate:        time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		Reason:         "Annual",
		Provider:       "Dr. Who",
		Medication:     "None",
		Occurrence:     "weekly",
		Location:       "Office",
		ExpectedAmount: &amt,
		IsRecurring:    true,
	}
}

func TestResolveCollections(t *testing.T) {
	want := map[core.Variant]string{
		core.Generic:   "events",
		core.Medical:   "medical-events",
		core.Work:      "work-events",
		core.Financial: "financial-events",
	}
	for v, coll := range want {
		r, err := Resolve(v)
		if err != nil || r.Collection != coll {
			t.Fatalf("%s: expected %s, got %s (err=%v)", v, coll, r.Collection, err)
		}
	}
	if _, err := Resolve("holiday"); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("unknown variant should be a validation error, got %v", err)
	}
}

func TestPayloadHasNoLeakage(t *testing.T) {
	form := fullForm()
	for _, v := range core.Variants() {
		r, _ := Resolve(v)
		payload, err := r.Payload(form)
		if err != nil {
			t.Fatalf("%s: %v", v, err)
		}
		own := map[string]bool{}
		for _, k := range variantKeys[v] {
			own[k] = true
			if _, ok := payload[k]; !ok {
				t.Fatalf("%s payload missing own field %s", v, k)
			}
		}
		for other, keys := range variantKeys {
			if other == v {
				continue
			}
			for _, k := range keys {
				if _, ok := payload[k]; ok && !own[k] {
					t.Fatalf("%s payload leaked %s field %s", v, other, k)
				}
			}
		}
		if payload["kind"] != string(v) {
			t.Fatalf("%s payload should carry its kind tag, got %v", v, payload["kind"])
		}
		if got := classify.Classify(payload).Variant; got != v {
			t.Fatalf("%s payload classifies back as %s", v, got)
		}
	}
}

func TestMedicalPayloadCarriesOnlyMedicalFields(t *testing.T) {
	form := core.EventForm{Title: "Checkup", Reason: "Annual", SetDate: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	r, _ := Resolve(core.Medical)
	if r.Collection != "medical-events" {
		t.Fatalf("expected medical-events, got %s", r.Collection)
	}
	payload, err := r.Payload(form)
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload["reason"] != "Annual" {
		t.Fatalf("payload should contain reason, got %v", payload)
	}
	for _, k := range []string{"location", "expected_amount"} {
		if _, ok := payload[k]; ok {
			t.Fatalf("payload must not contain %s", k)
		}
	}
}

func TestPayloadRequiredFields(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		variant core.Variant
		form    core.EventForm
		field   string
	}{
		{core.Medical, core.EventForm{Title: "x", SetDate: date}, "reason"},
		{core.Work, core.EventForm{Title: "x", SetDate: date, Location: "Office"}, "occurrence"},
		{core.Financial, core.EventForm{Title: "x", SetDate: date, Occurrence: "  "}, "occurrence"},
		{core.Generic, core.EventForm{SetDate: date}, "title"},
		{core.Generic, core.EventForm{Title: "x"}, "set_date"},
	}
	for _, tc := range cases {
		r, _ := Resolve(tc.variant)
		_, err := r.Payload(tc.form)
		var verr *core.ValidationError
		if !errors.As(err, &verr) || verr.Field != tc.field {
			t.Fatalf("%s: expected %s validation error, got %v", tc.variant, tc.field, err)
		}
	}
}

func TestFinancialOptionalAmount(t *testing.T) {
	r, _ := Resolve(core.Financial)
	payload, err := r.Payload(core.EventForm{Title: "x", SetDate: time.Now(), Occurrence: "monthly"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := payload["expected_amount"]; ok {
		t.Fatalf("nil expected amount should be omitted")
	}
	if payload["is_recurring"] != false {
		t.Fatalf("is_recurring defaults to false")
	}
}

func TestResolveUpdateRejectsVariantChange(t *testing.T) {
	if _, err := ResolveUpdate("5", core.Work, core.Medical); !errors.Is(err, core.ErrVariantMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	r, err := ResolveUpdate("5", core.Work, "")
	if err != nil || r.Collection != core.CollectionWorkEvents {
		t.Fatalf("empty requested variant keeps current, got %v %v", r.Collection, err)
	}
}

func TestTransactionAndSeriesPayloads(t *testing.T) {
	p, err := TransactionPayload(core.TransactionForm{
		Title:  " Rent ",
		Amount: decimal.RequireFromString("950"),
		Type:   core.Expense,
		Date:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
	if p["amount"] != "950.00" || p["title"] != "Rent" || p["transaction_type"] != "expense" {
		t.Fatalf("unexpected payload %v", p)
	}
	if _, err := SeriesPayload("  "); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("blank series name should fail, got %v", err)
	}
}
