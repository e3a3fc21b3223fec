package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"tracker/internal/core"
	"tracker/internal/series"
)

func TestWriteICS(t *testing.T) {
	reg := series.NewRegistry([]core.Series{{ID: "7", Name: "Physio"}})
	events := []core.Event{
		{
			ID: "3", Variant: core.Medical, Title: "Checkup, annual", SeriesID: "7",
			SetDate: time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC),
			Medical: &core.MedicalDetails{Reason: "annual"},
		},
		{ID: "4", Variant: core.Generic, Title: "no date"},
	}

	var buf bytes.Buffer
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := WriteICS(&buf, "Tracker", events, reg, time.UTC, now); err != nil {
		t.Fatalf("WriteICS: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"BEGIN:VCALENDAR\r\n",
		"UID:medical-3@tracker\r\n",
		"DTSTART;VALUE=DATE:20240305\r\n",
		"DTEND;VALUE=DATE:20240306\r\n",
		`SUMMARY:Checkup\, annual`,
		"Part of series Physio",
		"CATEGORIES:Medical\r\n",
		"END:VCALENDAR\r\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "BEGIN:VEVENT"); n != 1 {
		t.Fatalf("expected 1 VEVENT, got %d", n)
	}
}

func TestFoldLongLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"short", "SUMMARY:Dentist"},
		{"exactly 75", "DESCRIPTION:" + strings.Repeat("a", 63)},
		{"ascii", "DESCRIPTION:" + strings.Repeat("note ", 40)},
		{"multibyte", "SUMMARY:" + strings.Repeat("è", 90)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := fold(tt.in)
			if !strings.HasSuffix(out, "\r\n") {
				t.Fatalf("missing CRLF terminator: %q", out)
			}
			lines := strings.Split(strings.TrimSuffix(out, "\r\n"), "\r\n")
			var joined strings.Builder
			for i, l := range lines {
				if len(l) > icsLineOctets {
					t.Fatalf("line %d has %d octets", i, len(l))
				}
				if !utf8.ValidString(l) {
					t.Fatalf("line %d splits a UTF-8 sequence: %q", i, l)
				}
				if i > 0 {
					if !strings.HasPrefix(l, " ") {
						t.Fatalf("continuation %d lacks leading space: %q", i, l)
					}
					l = l[1:]
				}
				joined.WriteString(l)
			}
			if joined.String() != tt.in {
				t.Fatalf("unfolded text differs:\n got %q\nwant %q", joined.String(), tt.in)
			}
			if len(tt.in) <= icsLineOctets && len(lines) != 1 {
				t.Fatalf("short line was folded: %q", out)
			}
		})
	}
}

func TestWriteICSFoldsLongNotes(t *testing.T) {
	events := []core.Event{{
		ID: "1", Variant: core.Generic, Title: "Trip",
		Notes:   strings.Repeat("pack the bags and water the plants ", 6),
		SetDate: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	}}
	var buf bytes.Buffer
	if err := WriteICS(&buf, "", events, nil, time.UTC, time.Now()); err != nil {
		t.Fatal(err)
	}
	for _, l := range strings.Split(buf.String(), "\r\n") {
		if len(l) > icsLineOctets {
			t.Fatalf("unfolded line of %d octets: %q", len(l), l)
		}
	}
	if !strings.Contains(buf.String(), "\r\n ") {
		t.Fatalf("expected a folded DESCRIPTION:\n%s", buf.String())
	}
}
