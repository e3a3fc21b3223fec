package classify

import (
	"errors"
	"testing"

	"tracker/internal/core"
)

func TestClassifyPrecedence(t *testing.T) {
	cases := []struct {
		name      string
		rec       core.Record
		variant   core.Variant
		source    Source
		ambiguous bool
	}{
		{"tag wins over shape", core.Record{"kind": "work", "reason": "x"}, core.Work, SourceTag, false},
		{"nested medical", core.Record{"medical_data": map[string]any{"reason": "Annual"}}, core.Medical, SourceNested, false},
		{"flat medical", core.Record{"reason": "Annual"}, core.Medical, SourceFlat, false},
		{"nested financial", core.Record{"financial_data": map[string]any{"occurrence": "monthly"}}, core.Financial, SourceNested, false},
		{"flat financial", core.Record{"expected_amount": "12.00"}, core.Financial, SourceFlat, false},
		{"nested work", core.Record{"work_data": map[string]any{"occurrence": "weekly"}}, core.Work, SourceNested, false},
		{"flat work", core.Record{"location": "Office"}, core.Work, SourceFlat, false},
		{"plain generic", core.Record{"title": "Lunch"}, core.Generic, SourceDefault, false},
		{"medical beats work", core.Record{"reason": "x", "location": "Clinic"}, core.Medical, SourceFlat, true},
		{"financial beats work", core.Record{"expected_amount": 10.0, "location": "Bank"}, core.Financial, SourceFlat, true},
		{"null signal ignored", core.Record{"reason": nil}, core.Generic, SourceDefault, false},
		{"stray occurrence", core.Record{"occurrence": "weekly"}, core.Generic, SourceDefault, true},
		{"unknown tag falls back", core.Record{"kind": "holiday", "location": "Beach"}, core.Work, SourceFlat, true},
		{"unknown tag no shape", core.Record{"kind": "holiday"}, core.Generic, SourceDefault, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.rec)
			if got.Variant != tc.variant || got.Source != tc.source || got.Ambiguous != tc.ambiguous {
				t.Fatalf("got %+v, want variant=%s source=%s ambiguous=%v", got, tc.variant, tc.source, tc.ambiguous)
			}
			if tc.ambiguous && !errors.Is(got.Err(), core.ErrClassificationAmbiguity) {
				t.Fatalf("expected ambiguity error, got %v", got.Err())
			}
			if !tc.ambiguous && got.Err() != nil {
				t.Fatalf("unexpected error %v", got.Err())
			}
		})
	}
}

func TestPresentationTable(t *testing.T) {
	want := map[core.Variant]core.Color{
		core.Medical:   "red",
		core.Financial: "teal",
		core.Work:      "blue",
		core.Generic:   "gray",
	}
	for v, color := range want {
		p := For(v)
		if p.Color != color || p.Icon == "" || p.Label == "" {
			t.Fatalf("%s: unexpected presentation %+v", v, p)
		}
	}
	if For("unknown").Variant != core.Generic {
		t.Fatalf("unknown variants should present as generic")
	}
	for _, v := range core.Variants() {
		if For(v).Variant != v {
			t.Fatalf("missing table row for %s", v)
		}
	}
}

func TestClassifyReasonIsMedical(t *testing.T) {
	rec := core.Record{"id": 1.0, "title": "Checkup", "reason": "Annual", "set_date": "2024-03-01T09:00"}
	ev, c := Decode(rec)
	if c.Variant != core.Medical {
		t.Fatalf("expected medical, got %s", c.Variant)
	}
	if ev.ID != "1" || ev.Medical == nil || ev.Medical.Reason != "Annual" || !ev.HasDate() {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Work != nil || ev.Financial != nil {
		t.Fatalf("only the medical payload may be populated")
	}
}

func TestDecodeNestedEnvelope(t *testing.T) {
	rec := core.Record{
		"id":        "9",
		"title":     "Rent due",
		"set_date":  "2024-03-05",
		"series_id": 7.0,
		"financial_data": map[string]any{
			"occurrence":      "monthly",
			"expected_amount": "950.00",
			"is_recurring":    true,
		},
	}
	ev, c := Decode(rec)
	if c.Variant != core.Financial || c.Source != SourceNested {
		t.Fatalf("unexpected classification %+v", c)
	}
	if ev.SeriesID != "7" {
		t.Fatalf("expected series 7, got %q", ev.SeriesID)
	}
	fin := ev.Financial
	if fin == nil || fin.Occurrence != "monthly" || !fin.IsRecurring || fin.ExpectedAmount == nil || fin.ExpectedAmount.StringFixed(2) != "950.00" {
		t.Fatalf("unexpected financial details %+v", fin)
	}
}

func TestDecodeLegacySeriesKey(t *testing.T) {
	ev, _ := Decode(core.Record{"id": "3", "title": "Standup", "series": 4.0, "kind": "work", "occurrence": "daily"})
	if ev.SeriesID != "4" || ev.Work == nil || ev.Work.Occurrence != "daily" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestDecodeMissingDate(t *testing.T) {
	ev, _ := Decode(core.Record{"id": "1", "title": "x", "set_date": "not a date"})
	if ev.HasDate() {
		t.Fatalf("unparseable date should leave SetDate zero")
	}
}
