package http

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"tracker/internal/calendar"
	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/series"
)

func (s *Server) handleListSeries(w http.ResponseWriter, r *http.Request) {
	v, err := s.views(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	reg := v.Series
	if reg == nil {
		reg = series.NewRegistry(nil)
	}
	all := reg.All()
	out := make([]seriesDTO, len(all))
	for i, sr := range all {
		out[i] = seriesDTO{ID: sr.ID, Name: sr.Name, Color: reg.ColorFor(sr.ID)}
	}
	NewJSONResponse().Body(map[string]any{"version": v.Version, "series": out}).Write(w)
}

func (s *Server) handleCreateSeries(w http.ResponseWriter, r *http.Request) {
	var req seriesRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := s.orch.CreateSeries(r.Context(), sanitizeInput(req.Name))
	s.mutated(w, r, http.StatusCreated, id, err)
}

// handleSeriesReadOnly rejects edits and deletes; series are create-only.
func (s *Server) handleSeriesReadOnly(w http.ResponseWriter, r *http.Request) {
	s.fail(w, r, fmt.Errorf("series %s: %w", r.PathValue("id"), core.ErrUnsupported))
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.now().In(s.location()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	v, err := s.views(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	key := fmt.Sprintf("%d:%04d-%02d", v.Version, p.Year, p.Month)
	if body, ok := s.monthCache.Get(key); ok {
		s.logger.DebugContext(r.Context(), "Calendar cache hit", log.FieldYear, p.Year, log.FieldMonth, int(p.Month))
		NewJSONResponse().Header("X-Cache", "hit").Body(body).Write(w)
		return
	}

	cells := calendar.MonthCells(v.Calendar, p.Year, p.Month)
	body := calendarBody{Version: v.Version, Year: p.Year, Month: int(p.Month), Days: make([]dayCellDTO, len(cells))}
	for i, c := range cells {
		body.Days[i] = dayCellDTO{
			Date:     c.Date.String(),
			Count:    c.Count,
			Color:    c.Color,
			Source:   c.Source,
			SeriesID: c.SeriesID,
			EventIDs: c.EventIDs,
		}
	}
	s.monthCache.Set(key, body)
	NewJSONResponse().Header("X-Cache", "miss").Body(body).Write(w)
}

func (s *Server) handleCalendarICS(w http.ResponseWriter, r *http.Request) {
	v, err := s.views(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	events := make([]core.Event, len(v.Events))
	for i, ev := range v.Events {
		events[i] = ev.Event
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="tracker.ics"`)
	if err := calendar.WriteICS(w, s.calendarName, events, v.Series, s.location(), s.now()); err != nil {
		s.logger.ErrorContext(r.Context(), "Calendar export failed", log.FieldError, err)
	}
}

func (s *Server) handleListSlots(w http.ResponseWriter, r *http.Request) {
	slots := s.orch.Slots()
	sort.Slice(slots, func(i, j int) bool { return slots[i].Key < slots[j].Key })
	out := make([]slotDTO, len(slots))
	for i, sl := range slots {
		out[i] = toSlotDTO(sl)
	}
	NewJSONResponse().Body(map[string]any{"slots": out}).Write(w)
}

func (s *Server) handleGetSlot(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(toSlotDTO(s.orch.Slot(r.PathValue("slot")))).Write(w)
}

// handleCancelSlot discards a retained draft.
func (s *Server) handleCancelSlot(w http.ResponseWriter, r *http.Request) {
	if err := s.orch.Cancel(r.PathValue("slot")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) location() *time.Location {
	if loc := s.orch.Options().Location; loc != nil {
		return loc
	}
	return time.Local
}
