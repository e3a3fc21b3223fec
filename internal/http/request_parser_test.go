package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"tracker/internal/core"
)

func TestParseMonthParams(t *testing.T) {
	now := time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		query     url.Values
		wantYear  int
		wantMonth time.Month
		wantErr   bool
	}{
		{name: "defaults to now", query: url.Values{}, wantYear: 2024, wantMonth: time.June},
		{name: "explicit", query: url.Values{"year": {"2023"}, "month": {"2"}}, wantYear: 2023, wantMonth: time.February},
		{name: "month only", query: url.Values{"month": {"12"}}, wantYear: 2024, wantMonth: time.December},
		{name: "month out of range", query: url.Values{"month": {"13"}}, wantErr: true},
		{name: "non-numeric year", query: url.Values{"year": {"abc"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonthParams(tt.query, now)
			if tt.wantErr {
				if !errors.Is(err, errBadRequest) {
					t.Fatalf("err = %v, want bad request", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got.Year != tt.wantYear || got.Month != tt.wantMonth {
				t.Fatalf("got %d-%d, want %d-%d", got.Year, got.Month, tt.wantYear, tt.wantMonth)
			}
		})
	}
}

func TestParseOrder(t *testing.T) {
	tests := []struct {
		raw          string
		asc, set, ok bool
	}{
		{"", false, false, true},
		{"asc", true, true, true},
		{"DESC", false, true, true},
		{"newest", false, false, false},
	}
	for _, tt := range tests {
		asc, set, err := ParseOrder(url.Values{"order": {tt.raw}})
		if (err == nil) != tt.ok || asc != tt.asc || set != tt.set {
			t.Errorf("ParseOrder(%q) = %v, %v, %v", tt.raw, asc, set, err)
		}
	}
}

func TestEventRequestForm(t *testing.T) {
	req := eventRequest{
		Title:          "  Checkup\x00 ",
		SetDate:        "2024-03-05T09:00:00Z",
		SeriesID:       "7",
		Reason:         "annual",
		ExpectedAmount: "12,5",
	}
	f, err := req.form(time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if f.Title != "Checkup" {
		t.Errorf("Title = %q", f.Title)
	}
	if f.SetDate.IsZero() || f.SeriesID != "7" || f.Reason != "annual" {
		t.Errorf("unexpected form %+v", f)
	}
	if f.ExpectedAmount == nil || f.ExpectedAmount.String() != "12.5" {
		t.Errorf("ExpectedAmount = %v", f.ExpectedAmount)
	}

	_, err = eventRequest{Title: "x", SetDate: "next tuesday"}.form(time.UTC)
	var ve *core.ValidationError
	if !errors.As(err, &ve) || ve.Field != "set_date" {
		t.Fatalf("bad date error = %v", err)
	}
}

func TestZonelessDatesReadInCalendarZone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	f, err := eventRequest{Title: "Dentist", SetDate: "2024-03-05"}.form(ny)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, time.March, 5, 5, 0, 0, 0, time.UTC)
	if !f.SetDate.Equal(want) {
		t.Fatalf("SetDate = %v, want %v", f.SetDate.UTC(), want)
	}

	// An explicit offset is kept as given.
	f, err = eventRequest{Title: "Dentist", SetDate: "2024-03-05T00:00:00Z"}.form(ny)
	if err != nil {
		t.Fatal(err)
	}
	if !f.SetDate.Equal(time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("explicit offset changed: %v", f.SetDate)
	}
}

func TestTransactionRequestForm(t *testing.T) {
	f, err := transactionRequest{
		Title: "Rent", Amount: "950", TransactionType: "Expense", TransactionDate: "2024-03-01",
	}.form(time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if f.Type != core.Expense || core.FormatAmount(f.Amount) != "950.00" {
		t.Fatalf("unexpected form %+v", f)
	}

	_, err = transactionRequest{Title: "Rent", Amount: "-3"}.form(time.UTC)
	var ve *core.ValidationError
	if !errors.As(err, &ve) || ve.Field != "amount" {
		t.Fatalf("negative amount error = %v", err)
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "object with numeric series id", body: `{"title":"a","series_id":3}`},
		{name: "empty body", body: ``, wantErr: true},
		{name: "malformed", body: `{"title":`, wantErr: true},
		{name: "series id of wrong type", body: `{"series_id":{}}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var req eventRequest
			err := decodeJSON(r, &req)
			if tt.wantErr {
				if !errors.Is(err, errBadRequest) {
					t.Fatalf("err = %v, want bad request", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if req.SeriesID != "3" {
				t.Fatalf("SeriesID = %q", req.SeriesID)
			}
		})
	}
}

func TestConfirmed(t *testing.T) {
	r := httptest.NewRequest(http.MethodDelete, "/api/events/1?confirm=true", nil)
	if !confirmed(r) {
		t.Error("query confirmation ignored")
	}
	r = httptest.NewRequest(http.MethodDelete, "/api/events/1", nil)
	if confirmed(r) {
		t.Error("unconfirmed request accepted")
	}
	r.Header.Set("X-Confirm", "1")
	if !confirmed(r) {
		t.Error("header confirmation ignored")
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  a\x07b\tc\n "); got != "ab\tc" {
		t.Fatalf("sanitizeInput = %q", got)
	}
}
