// Package classify tags raw event records with their variant.
//
// A persisted "kind" tag is authoritative. Records written before the tag
// existed fall back to a structural match on the fields they carry, checked
// in precedence order: nested variant payloads first, then the legacy flat
// field that only one variant writes.
package classify

import (
	"fmt"

	"tracker/internal/core"
)

// Source records which signal decided a classification.
type Source string

const (
	SourceTag     Source = "tag"
	SourceNested  Source = "nested"
	SourceFlat    Source = "flat"
	SourceDefault Source = "default"
)

// Presentation holds the display constants of one variant.
type Presentation struct {
	Variant  core.Variant
	Label    string
	Icon     string
	Color    core.Color
	Envelope string   // nested payload key, e.g. "medical_data"
	Signal   string   // legacy flat field that implies the variant
	Fields   []string // variant-only fields, used to detect ambiguous shapes
}

// table is ordered by classification precedence. Adding a variant is one row.
var table = []Presentation{
	{Variant: core.Medical, Label: "Medical", Icon: "stethoscope", Color: "red", Envelope: "medical_data", Signal: "reason", Fields: []string{"reason", "provider", "medication"}},
	{Variant: core.Financial, Label: "Financial", Icon: "coin", Color: "teal", Envelope: "financial_data", Signal: "expected_amount", Fields: []string{"expected_amount", "is_recurring"}},
	{Variant: core.Work, Label: "Work", Icon: "briefcase", Color: "blue", Envelope: "work_data", Signal: "location", Fields: []string{"location"}},
	{Variant: core.Generic, Label: "Event", Icon: "calendar", Color: "gray"},
}

// sharedFields belong to more than one variant and never decide on their own.
var sharedFields = []string{"occurrence"}

// Classification is the result of classifying one record.
type Classification struct {
	Variant   core.Variant
	Label     string
	Icon      string
	Color     core.Color
	Source    Source
	Ambiguous bool
	Reason    string
}

// Err returns an error wrapping core.ErrClassificationAmbiguity when the
// record did not match cleanly, nil otherwise.
func (c Classification) Err() error {
	if !c.Ambiguous {
		return nil
	}
	return fmt.Errorf("%w: %s", core.ErrClassificationAmbiguity, c.Reason)
}

// For returns the presentation row of v. Unknown variants get the Generic row.
func For(v core.Variant) Presentation {
	for _, p := range table {
		if p.Variant == v {
			return p
		}
	}
	return table[len(table)-1]
}

// Classify determines the variant of rec. It always returns exactly one variant.
func Classify(rec core.Record) Classification {
	var unknownTag string
	if rec.Has("kind") {
		if v, ok := core.ParseVariant(rec.String("kind")); ok {
			return result(For(v), SourceTag, "")
		}
		unknownTag = rec.String("kind")
	}

	var matched []Presentation
	var sources []Source
	for _, p := range table {
		if p.Envelope == "" {
			continue
		}
		switch {
		case rec.Map(p.Envelope) != nil:
			matched = append(matched, p)
			sources = append(sources, SourceNested)
		case rec.Has(p.Signal):
			matched = append(matched, p)
			sources = append(sources, SourceFlat)
		}
	}

	switch {
	case len(matched) == 1 && unknownTag == "":
		return result(matched[0], sources[0], "")
	case len(matched) > 1:
		return result(matched[0], sources[0], fmt.Sprintf("record carries %s and %s signals", matched[0].Variant, matched[1].Variant))
	case len(matched) == 1:
		return result(matched[0], sources[0], fmt.Sprintf("unknown kind tag %q", unknownTag))
	}

	generic := For(core.Generic)
	if unknownTag != "" {
		return result(generic, SourceDefault, fmt.Sprintf("unknown kind tag %q", unknownTag))
	}
	if key := strayField(rec); key != "" {
		return result(generic, SourceDefault, fmt.Sprintf("field %q present without a variant signal", key))
	}
	return result(generic, SourceDefault, "")
}

func result(p Presentation, src Source, ambiguity string) Classification {
	return Classification{
		Variant:   p.Variant,
		Label:     p.Label,
		Icon:      p.Icon,
		Color:     p.Color,
		Source:    src,
		Ambiguous: ambiguity != "",
		Reason:    ambiguity,
	}
}

// strayField returns the first variant-only field present on rec.
func strayField(rec core.Record) string {
	for _, p := range table {
		for _, f := range p.Fields {
			if rec.Has(f) {
				return f
			}
		}
	}
	for _, f := range sharedFields {
		if rec.Has(f) {
			return f
		}
	}
	return ""
}
