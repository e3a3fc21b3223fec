package http

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"tracker/internal/cache"
	"tracker/internal/log"
	"tracker/internal/middleware/security"
	"tracker/internal/middleware/trace"
	"tracker/internal/services"
)

// Server serves the JSON API over one orchestrator.
type Server struct {
	http.Server
	orch   *services.Orchestrator
	logger *log.Logger
	tracer *trace.Middleware
	ready  func(context.Context) error
	now    func() time.Time

	// Month views keyed by views version, so entries from older views never
	// match and only need evicting.
	monthCache *cache.LRU[calendarBody]
	janitor    *cache.Janitor

	calendarName string
	shutdownOnce sync.Once
}

type ServerOption func(*Server)

// WithLogger sets the base logger for request and handler logs.
func WithLogger(l *log.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// WithReadiness adds a backend probe to /readyz.
func WithReadiness(fn func(context.Context) error) ServerOption {
	return func(s *Server) { s.ready = fn }
}

// WithClock replaces time.Now for month defaults and calendar stamps.
func WithClock(now func() time.Time) ServerOption {
	return func(s *Server) { s.now = now }
}

// WithCalendarName sets the X-WR-CALNAME of the iCalendar export.
func WithCalendarName(name string) ServerOption {
	return func(s *Server) { s.calendarName = name }
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, orch *services.Orchestrator, opts ...ServerOption) *Server {
	s := &Server{
		orch:         orch,
		logger:       log.Discard(),
		tracer:       trace.NewMiddleware(),
		now:          time.Now,
		monthCache:   cache.NewLRU[calendarBody](64, 10*time.Minute),
		calendarName: "Tracker",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentHTTP)
	s.janitor = cache.NewJanitor(s.logger, s.monthCache)
	s.janitor.Start(context.Background(), 10*time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/events", s.handleListEvents)
	mux.HandleFunc("GET /api/events/{id}", s.handleGetEvent)
	mux.HandleFunc("POST /api/events/{variant}", s.handleCreateEvent)
	mux.HandleFunc("PUT /api/events/{id}", s.handleUpdateEvent)
	mux.HandleFunc("DELETE /api/events/{id}", s.handleDeleteEvent)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/series", s.handleListSeries)
	mux.HandleFunc("POST /api/series", s.handleCreateSeries)
	mux.HandleFunc("/api/series/{id}", s.handleSeriesReadOnly)

	mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	mux.HandleFunc("GET /api/calendar.ics", s.handleCalendarICS)

	mux.HandleFunc("GET /api/slots", s.handleListSlots)
	mux.HandleFunc("GET /api/slots/{slot}", s.handleGetSlot)
	mux.HandleFunc("DELETE /api/slots/{slot}", s.handleCancelSlot)

	mux.HandleFunc("POST /api/reload", s.handleReload)

	var h http.Handler = mux
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = log.AccessLog(clientIP)(h)
	h = log.RequestIDMiddleware(trace.RequestID)(h)
	h = log.Middleware(s.logger)(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops background cache cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.janitor.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// views returns the current views, loading them first when no load has
// succeeded yet.
func (s *Server) views(ctx context.Context) (services.Views, error) {
	if s.orch.Loaded() {
		return s.orch.Views(), nil
	}
	return s.orch.LoadAll(ctx)
}

// fail logs err and writes the mapped error response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse(err)
	fields := log.NewFields().WithError(err, errorTypeOf(err)).ToSlice()
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentHTTP)
	if resp.statusCode >= 500 {
		logger.ErrorContext(r.Context(), "Request failed", fields...)
	} else {
		logger.WarnContext(r.Context(), "Request rejected", fields...)
	}
	resp.Write(w)
}

// mutated answers a write. A *services.RefreshError means the write
// committed, so it is reported as success with stale views.
func (s *Server) mutated(w http.ResponseWriter, r *http.Request, status int, id string, err error) {
	stale, err := splitRefresh(err)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if stale {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Write committed but views are stale", log.FieldRecordID, id)
	}
	NewJSONResponse().
		Status(status).
		Stale(stale).
		Body(mutationBody{ID: id, Version: s.orch.Views().Version, Stale: stale}).
		Write(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":   "ok",
		"requests": s.tracer.Metrics(),
	}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.orch.Loaded() {
		http.Error(w, "views not loaded", http.StatusServiceUnavailable)
		return
	}
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness probe failed", log.FieldError, err)
			http.Error(w, "backend unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	v, err := s.orch.LoadAll(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Body(mutationBody{Version: v.Version}).Write(w)
}

// clientIP prefers proxy headers over the socket address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
