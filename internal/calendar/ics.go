package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"tracker/internal/classify"
	"tracker/internal/core"
	"tracker/internal/series"
)

const icsProductID = "-//tracker//events//EN"

var icsEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`, "\r", "")

// WriteICS renders dated events as all-day VEVENTs. The description names the
// variant and, for series members, the series. reg may be nil.
func WriteICS(w io.Writer, calName string, events []core.Event, reg *series.Registry, loc *time.Location, now time.Time) error {
	ew := &errWriter{w: w}
	ew.line("BEGIN:VCALENDAR")
	ew.line("VERSION:2.0")
	ew.line("PRODID:" + icsProductID)
	ew.line("CALSCALE:GREGORIAN")
	ew.line("METHOD:PUBLISH")
	if calName != "" {
		ew.line("X-WR-CALNAME:" + icsEscaper.Replace(calName))
	}
	if loc != nil {
		ew.line("X-WR-TIMEZONE:" + loc.String())
	}

	stamp := now.UTC().Format("20060102T150405Z")
	for _, ev := range events {
		if !ev.HasDate() {
			continue
		}
		day := DateOf(ev.SetDate, loc)
		start := time.Date(day.Year, day.Month, day.Day, 0, 0, 0, 0, time.UTC)

		ew.line("BEGIN:VEVENT")
		ew.line(fmt.Sprintf("UID:%s-%s@tracker", strings.ToLower(ev.Variant.String()), ev.ID))
		ew.line("DTSTAMP:" + stamp)
		ew.line("DTSTART;VALUE=DATE:" + start.Format("20060102"))
		ew.line("DTEND;VALUE=DATE:" + start.AddDate(0, 0, 1).Format("20060102"))
		ew.line("SUMMARY:" + icsEscaper.Replace(ev.Title))
		ew.line("DESCRIPTION:" + icsEscaper.Replace(describe(ev, reg)))
		ew.line("CATEGORIES:" + classify.For(ev.Variant).Label)
		if ev.Work != nil && ev.Work.Location != "" {
			ew.line("LOCATION:" + icsEscaper.Replace(ev.Work.Location))
		}
		ew.line("END:VEVENT")
	}
	ew.line("END:VCALENDAR")
	return ew.err
}

func describe(ev core.Event, reg *series.Registry) string {
	d := reg.Decorate(ev)
	parts := []string{d.Tooltip}
	switch {
	case ev.Medical != nil:
		parts = append(parts, "Reason: "+ev.Medical.Reason)
	case ev.Work != nil:
		parts = append(parts, "Occurrence: "+ev.Work.Occurrence)
	case ev.Financial != nil:
		parts = append(parts, "Occurrence: "+ev.Financial.Occurrence)
		if ev.Financial.ExpectedAmount != nil {
			parts = append(parts, "Expected: "+core.FormatAmount(*ev.Financial.ExpectedAmount))
		}
	}
	if ev.Notes != "" {
		parts = append(parts, ev.Notes)
	}
	return strings.Join(parts, "\n")
}

// errWriter keeps the first write error and skips the rest.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) line(s string) {
	if e.err != nil {
		return
	}
	_, e.err = io.WriteString(e.w, fold(s))
}

// icsLineOctets is the longest content line allowed before folding.
const icsLineOctets = 75

// fold splits s into CRLF-terminated lines of at most 75 octets, each
// continuation starting with a space. UTF-8 sequences are never split.
func fold(s string) string {
	var b strings.Builder
	limit := icsLineOctets
	for len(s) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		b.WriteString(s[:cut])
		b.WriteString("\r\n ")
		s = s[cut:]
		limit = icsLineOctets - 1
	}
	b.WriteString(s)
	b.WriteString("\r\n")
	return b.String()
}
