// Package series maps event series to display colours and applies the
// series-over-variant display precedence.
package series

import (
	"fmt"
	"hash/fnv"
	"strings"

	"tracker/internal/classify"
	"tracker/internal/core"
)

// Palette is the fixed set of series colours. Ids k and k+len(Palette)
// share a colour; that aliasing is accepted.
var Palette = [...]core.Color{
	"grape", "violet", "indigo", "cyan", "green", "lime", "yellow", "orange",
}

// ColorFor returns the palette colour of a series id. Numeric ids of any
// length index the palette modulo its size; other ids are hashed first.
func ColorFor(id string) core.Color {
	n := uint64(len(Palette))
	id = strings.TrimSpace(id)
	if m, ok := decimalMod(id, n); ok {
		return Palette[m]
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return Palette[uint64(h.Sum32())%n]
}

// decimalMod reduces a base-10 integer string modulo n digit by digit, so ids
// beyond int64 keep the same residue as their small neighbours. The result is
// in [0, n) for negative ids too.
func decimalMod(s string, n uint64) (uint64, bool) {
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg, s = true, s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if s == "" {
		return 0, false
	}
	var m uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		m = (m*10 + uint64(c-'0')) % n
	}
	if neg && m != 0 {
		m = n - m
	}
	return m, true
}

// Registry is an in-memory index of series by id.
type Registry struct {
	names map[string]string
	order []core.Series
}

// NewRegistry indexes the given series. Later duplicates of an id are ignored.
func NewRegistry(all []core.Series) *Registry {
	r := &Registry{names: make(map[string]string, len(all))}
	for _, s := range all {
		if _, dup := r.names[s.ID]; dup {
			continue
		}
		r.names[s.ID] = s.Name
		r.order = append(r.order, s)
	}
	return r
}

// Name returns the series name for id.
func (r *Registry) Name(id string) (string, bool) {
	if r == nil {
		return "", false
	}
	name, ok := r.names[id]
	return name, ok
}

// ColorFor is ColorFor; the registry contents do not affect colours.
func (r *Registry) ColorFor(id string) core.Color {
	return ColorFor(id)
}

// All returns the series in registration order.
func (r *Registry) All() []core.Series {
	if r == nil {
		return nil
	}
	return append([]core.Series(nil), r.order...)
}

// Len returns the number of registered series.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Display is how one event is shown in the event list.
type Display struct {
	Icon       string
	Color      core.Color
	Label      string // variant label, always kept
	Tooltip    string
	InSeries   bool
	SeriesName string
}

// Decorate applies the list precedence: a series colour overrides the
// variant colour, the variant icon and label are kept, and the tooltip
// names which one is shown.
func (r *Registry) Decorate(ev core.Event) Display {
	p := classify.For(ev.Variant)
	d := Display{
		Icon:    p.Icon,
		Color:   p.Color,
		Label:   p.Label,
		Tooltip: fmt.Sprintf("%s event", p.Label),
	}
	if !ev.InSeries() {
		return d
	}
	name, ok := r.Name(ev.SeriesID)
	if !ok {
		name = "#" + ev.SeriesID
	}
	d.InSeries = true
	d.SeriesName = name
	d.Color = ColorFor(ev.SeriesID)
	d.Tooltip = fmt.Sprintf("Part of series %s (%s event)", name, p.Label)
	return d
}
