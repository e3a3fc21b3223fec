package classify

import (
	"time"

	"tracker/internal/core"
)

// Decode classifies rec and decodes it into a typed event. Variant fields are
// read from the nested envelope when present and from the top level otherwise.
func Decode(rec core.Record) (core.Event, Classification) {
	return DecodeIn(rec, time.Local)
}

// DecodeIn is Decode with a zone-less set_date read in loc, so the event
// lands on the calendar day it was entered for.
func DecodeIn(rec core.Record, loc *time.Location) (core.Event, Classification) {
	c := Classify(rec)
	ev := core.Event{
		ID:       rec.ID(),
		Variant:  c.Variant,
		Title:    rec.String("title"),
		Notes:    rec.String("notes"),
		SeriesID: seriesID(rec),
	}
	if t, ok := rec.TimeIn("set_date", loc); ok {
		ev.SetDate = t
	}

	src := rec
	if env := For(c.Variant).Envelope; env != "" {
		if nested := rec.Map(env); nested != nil {
			src = nested
		}
	}

	switch c.Variant {
	case core.Medical:
		ev.Medical = &core.MedicalDetails{
			Reason:     src.String("reason"),
			Provider:   src.String("provider"),
			Medication: src.String("medication"),
		}
	case core.Work:
		ev.Work = &core.WorkDetails{
			Occurrence: src.String("occurrence"),
			Location:   src.String("location"),
		}
	case core.Financial:
		fin := &core.FinancialDetails{
			Occurrence:  src.String("occurrence"),
			IsRecurring: src.Bool("is_recurring"),
		}
		if amt, ok := src.Decimal("expected_amount"); ok {
			fin.ExpectedAmount = &amt
		}
		ev.Financial = fin
	}
	return ev, c
}

// seriesID accepts both "series_id" and the "series" foreign key used by
// older payloads.
func seriesID(rec core.Record) string {
	if rec.Has("series_id") {
		return core.IDString(rec["series_id"])
	}
	if rec.Has("series") {
		if nested := rec.Map("series"); nested != nil {
			return nested.ID()
		}
		return core.IDString(rec["series"])
	}
	return ""
}
