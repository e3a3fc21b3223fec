// Package endpoint resolves the store collection and write payload for each
// event variant.
package endpoint

import (
	"fmt"
	"strings"

	"tracker/internal/core"
)

// Route is where and how a variant is written.
type Route struct {
	Variant    core.Variant
	Collection string
	build      func(core.EventForm) (core.Record, error)
}

// Payload validates form and returns the write payload: the common fields
// plus exactly this variant's fields.
func (r Route) Payload(form core.EventForm) (core.Record, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	payload := core.Record{
		"kind":      string(r.Variant),
		"title":     strings.TrimSpace(form.Title),
		"notes":     form.Notes,
		"set_date":  core.FormatTimestamp(form.SetDate),
		"series_id": nil,
	}
	if id := strings.TrimSpace(form.SeriesID); id != "" {
		payload["series_id"] = id
	}
	extra, err := r.build(form)
	if err != nil {
		return nil, err
	}
	for k, v := range extra {
		payload[k] = v
	}
	return payload, nil
}

var routes = map[core.Variant]Route{
	core.Generic: {
		Variant:    core.Generic,
		Collection: core.CollectionEvents,
		build:      func(core.EventForm) (core.Record, error) { return nil, nil },
	},
	core.Medical: {
		Variant:    core.Medical,
		Collection: core.CollectionMedicalEvents,
		build: func(f core.EventForm) (core.Record, error) {
			if err := required("reason", f.Reason); err != nil {
				return nil, err
			}
			return core.Record{
				"reason":     strings.TrimSpace(f.Reason),
				"provider":   f.Provider,
				"medication": f.Medication,
			}, nil
		},
	},
	core.Work: {
		Variant:    core.Work,
		Collection: core.CollectionWorkEvents,
		build: func(f core.EventForm) (core.Record, error) {
			if err := required("occurrence", f.Occurrence); err != nil {
				return nil, err
			}
			return core.Record{
				"occurrence": strings.TrimSpace(f.Occurrence),
				"location":   f.Location,
			}, nil
		},
	},
	core.Financial: {
		Variant:    core.Financial,
		Collection: core.CollectionFinancialEvents,
		build: func(f core.EventForm) (core.Record, error) {
			if err := required("occurrence", f.Occurrence); err != nil {
				return nil, err
			}
			rec := core.Record{
				"occurrence":   strings.TrimSpace(f.Occurrence),
				"is_recurring": f.IsRecurring,
			}
			if f.ExpectedAmount != nil {
				if f.ExpectedAmount.IsNegative() {
					return nil, &core.ValidationError{Field: "expected_amount", Message: "must not be negative"}
				}
				rec["expected_amount"] = core.FormatAmount(*f.ExpectedAmount)
			}
			return rec, nil
		},
	},
}

// Resolve returns the route of variant v.
func Resolve(v core.Variant) (Route, error) {
	r, ok := routes[v]
	if !ok {
		return Route{}, &core.ValidationError{Field: "variant", Message: fmt.Sprintf("unknown variant %q", v)}
	}
	return r, nil
}

// ResolveUpdate returns the route for updating an event already classified
// as current. An empty requested variant means "keep current"; any other
// value must equal current because each variant lives in its own collection.
func ResolveUpdate(id string, current, requested core.Variant) (Route, error) {
	if requested != "" && requested != current {
		return Route{}, &core.VariantMismatchError{ID: id, Current: current, Requested: requested}
	}
	return Resolve(current)
}

// TransactionPayload validates form and returns the transaction write payload.
func TransactionPayload(form core.TransactionForm) (core.Record, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	return core.Record{
		"title":            strings.TrimSpace(form.Title),
		"notes":            form.Notes,
		"amount":           core.FormatAmount(form.Amount),
		"transaction_type": string(form.Type),
		"transaction_date": core.FormatTimestamp(form.Date),
	}, nil
}

// SeriesPayload validates name and returns the series write payload.
func SeriesPayload(name string) (core.Record, error) {
	s := core.Series{Name: strings.TrimSpace(name)}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return core.Record{"name": s.Name}, nil
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &core.ValidationError{Field: field, Message: field + " is required"}
	}
	return nil
}
