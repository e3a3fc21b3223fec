// Package calendar buckets events by local calendar day.
package calendar

import (
	"fmt"
	"sort"
	"time"

	"tracker/internal/classify"
	"tracker/internal/core"
	"tracker/internal/series"
)

// Date is a time-zone-naive calendar day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in loc, discarding time of day.
// A nil loc means time.Local.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Before orders dates chronologically.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// ColorSource says where a day cell's colour came from.
type ColorSource string

const (
	FromSeries  ColorSource = "series"
	FromVariant ColorSource = "variant"
)

// DayCell is the aggregate of one calendar day.
type DayCell struct {
	Date     Date
	Count    int
	Color    core.Color
	Source   ColorSource
	SeriesID string   // set when Source is FromSeries
	EventIDs []string // in input order
}

// BucketByDay groups events by the local calendar day of their set_date.
// events must be in fetch order: the representative colour of a day is the
// series colour of the first series member that day, or the variant colour of
// the first event when none belongs to a series. Undated events are skipped.
func BucketByDay(events []core.Event, loc *time.Location) map[Date]DayCell {
	cells := make(map[Date]DayCell)
	for _, ev := range events {
		if !ev.HasDate() {
			continue
		}
		key := DateOf(ev.SetDate, loc)
		cell, seen := cells[key]
		if !seen {
			cell = DayCell{
				Date:   key,
				Color:  classify.For(ev.Variant).Color,
				Source: FromVariant,
			}
		}
		cell.Count++
		cell.EventIDs = append(cell.EventIDs, ev.ID)
		if ev.InSeries() && cell.Source != FromSeries {
			cell.Color = series.ColorFor(ev.SeriesID)
			cell.Source = FromSeries
			cell.SeriesID = ev.SeriesID
		}
		cells[key] = cell
	}
	return cells
}

// Undated returns the ids of events BucketByDay skips.
func Undated(events []core.Event) []string {
	var out []string
	for _, ev := range events {
		if !ev.HasDate() {
			out = append(out, ev.ID)
		}
	}
	return out
}

// MonthCells returns the cells of one month in date order.
func MonthCells(cells map[Date]DayCell, year int, month time.Month) []DayCell {
	var out []DayCell
	for d, c := range cells {
		if d.Year == year && d.Month == month {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
