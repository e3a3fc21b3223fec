// Package http exposes the orchestrator as a JSON API.
//
// This file turns request bodies and query strings into domain forms.
package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tracker/internal/core"
)

const maxBodyBytes = 1 << 20

// errBadRequest marks malformed input that never reached validation.
var errBadRequest = errors.New("bad request")

// flexString accepts a JSON string, number or null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("expected string or number: %w", err)
		}
		*f = flexString(n.String())
	}
	return nil
}

func (f flexString) String() string { return sanitizeInput(string(f)) }

// eventRequest is the body of event create and update calls. The fields of
// every variant are accepted; the route keeps only the relevant ones.
type eventRequest struct {
	Variant        string     `json:"variant"`
	Title          string     `json:"title"`
	Notes          string     `json:"notes"`
	SetDate        string     `json:"set_date"`
	SeriesID       flexString `json:"series_id"`
	Reason         string     `json:"reason"`
	Provider       string     `json:"provider"`
	Medication     string     `json:"medication"`
	Occurrence     string     `json:"occurrence"`
	Location       string     `json:"location"`
	ExpectedAmount flexString `json:"expected_amount"`
	IsRecurring    bool       `json:"is_recurring"`
}

func (r eventRequest) form(loc *time.Location) (core.EventForm, error) {
	f := core.EventForm{
		Title:       sanitizeInput(r.Title),
		Notes:       sanitizeInput(r.Notes),
		SeriesID:    r.SeriesID.String(),
		Reason:      sanitizeInput(r.Reason),
		Provider:    sanitizeInput(r.Provider),
		Medication:  sanitizeInput(r.Medication),
		Occurrence:  sanitizeInput(r.Occurrence),
		Location:    sanitizeInput(r.Location),
		IsRecurring: r.IsRecurring,
	}
	var err error
	if f.SetDate, err = parseOptionalTime("set_date", r.SetDate, loc); err != nil {
		return f, err
	}
	if s := r.ExpectedAmount.String(); s != "" {
		d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
		if err != nil {
			return f, &core.ValidationError{Field: "expected_amount", Message: "must be a decimal number"}
		}
		f.ExpectedAmount = &d
	}
	return f, nil
}

type transactionRequest struct {
	Title           string     `json:"title"`
	Notes           string     `json:"notes"`
	Amount          flexString `json:"amount"`
	TransactionType string     `json:"transaction_type"`
	TransactionDate string     `json:"transaction_date"`
}

func (r transactionRequest) form(loc *time.Location) (core.TransactionForm, error) {
	f := core.TransactionForm{
		Title: sanitizeInput(r.Title),
		Notes: sanitizeInput(r.Notes),
		Type:  core.TransactionType(strings.ToLower(sanitizeInput(r.TransactionType))),
	}
	amount, err := core.ParseAmount(r.Amount.String())
	if err != nil {
		return f, &core.ValidationError{Field: "amount", Message: err.Error()}
	}
	f.Amount = amount
	if f.Date, err = parseOptionalTime("transaction_date", r.TransactionDate, loc); err != nil {
		return f, err
	}
	return f, nil
}

type seriesRequest struct {
	Name string `json:"name"`
}

// decodeJSON reads one JSON object from the request body.
func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", errBadRequest, err)
	}
	if len(body) > maxBodyBytes {
		return fmt.Errorf("%w: body too large", errBadRequest)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("%w: empty body", errBadRequest)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// parseOptionalTime leaves an empty value as the zero time so the form's
// own validation reports it as missing. Zone-less input is read in loc.
func parseOptionalTime(field, s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, ok := core.ParseTimestampIn(s, loc)
	if !ok {
		return time.Time{}, &core.ValidationError{Field: field, Message: "unrecognised date"}
	}
	return t, nil
}

// MonthParams holds a calendar month selected by query parameters.
type MonthParams struct {
	Year  int
	Month time.Month
}

// ParseMonthParams reads year and month, defaulting to the month of now.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	p := MonthParams{Year: now.Year(), Month: now.Month()}
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			return p, fmt.Errorf("%w: invalid year %q", errBadRequest, v)
		}
		p.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return p, fmt.Errorf("%w: invalid month %q", errBadRequest, v)
		}
		p.Month = time.Month(m)
	}
	return p, nil
}

// ParseOrder reads ?order=asc|desc. set is false when the parameter is absent.
func ParseOrder(query url.Values) (ascending, set bool, err error) {
	switch strings.ToLower(strings.TrimSpace(query.Get("order"))) {
	case "":
		return false, false, nil
	case "asc":
		return true, true, nil
	case "desc":
		return false, true, nil
	}
	return false, false, fmt.Errorf("%w: order must be asc or desc", errBadRequest)
}

// confirmed reports whether a delete request carries explicit confirmation,
// as ?confirm=true or an X-Confirm: true header.
func confirmed(r *http.Request) bool {
	for _, v := range []string{r.URL.Query().Get("confirm"), r.Header.Get("X-Confirm")} {
		if ok, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil && ok {
			return true
		}
	}
	return false
}

// sanitizeInput removes control characters except tab and newlines and trims
// whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
