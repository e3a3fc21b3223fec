package http

import (
	"net/http"

	"tracker/internal/core"
	"tracker/internal/services"
)

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	asc, set, err := ParseOrder(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	v, err := s.views(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if set && asc != s.orch.Options().EventsAscending {
		v = s.orch.SetEventOrder(r.Context(), asc)
	}

	body := eventsBody{
		Version: v.Version,
		Order:   orderName(s.orch.Options().EventsAscending),
		Events:  make([]eventDTO, len(v.Events)),
		Undated: v.Undated,
	}
	if !v.LoadedAt.IsZero() {
		body.LoadedAt = timePtr(v.LoadedAt)
	}
	if body.Undated == nil {
		body.Undated = []string{}
	}
	for i, ev := range v.Events {
		body.Events[i] = toEventDTO(ev)
	}
	NewJSONResponse().Body(body).Write(w)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	v, err := s.views(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ev, ok := v.Event(id)
	if !ok {
		s.fail(w, r, &core.NotFoundError{Collection: core.CollectionEvents, ID: id})
		return
	}
	NewJSONResponse().Body(toEventDTO(ev)).Write(w)
}

// handleCreateEvent routes by the {variant} path segment; unknown variants
// are rejected by the resolver before any write.
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	variant := core.Variant(r.PathValue("variant"))
	if v, ok := core.ParseVariant(string(variant)); ok {
		variant = v
	}
	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	form, err := req.form(s.location())
	if err != nil {
		_ = s.orch.Edit(services.EventSlot(""), form)
		s.fail(w, r, err)
		return
	}
	id, err := s.orch.CreateEvent(r.Context(), variant, form)
	s.mutated(w, r, http.StatusCreated, id, err)
}

// handleUpdateEvent saves over an existing event. An optional "variant" in
// the body must match the stored one.
func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.views(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	var requested core.Variant
	if req.Variant != "" {
		v, ok := core.ParseVariant(req.Variant)
		if !ok {
			s.fail(w, r, &core.ValidationError{Field: "variant", Message: "unknown variant " + req.Variant})
			return
		}
		requested = v
	}
	form, err := req.form(s.location())
	if err != nil {
		_ = s.orch.Edit(services.EventSlot(id), form)
		s.fail(w, r, err)
		return
	}
	err = s.orch.UpdateEvent(r.Context(), id, requested, form)
	s.mutated(w, r, http.StatusOK, id, err)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.views(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	ok := confirmed(r)
	err := s.orch.DeleteEvent(r.Context(), id, func(string, string) bool { return ok })
	s.mutated(w, r, http.StatusOK, id, err)
}
