package stats

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abelbrown/docwatch/internal/logging"
	"github.com/abelbrown/docwatch/internal/otel"
)

// Source produces a fresh report.
type Source func(detailed bool) (Report, error)

// Server exposes reports over HTTP.
type Server struct {
	router *chi.Mux
	source Source
	events *otel.Logger
}

// NewServer wires the stats routes. events may be nil.
func NewServer(source Source, events *otel.Logger) *Server {
	s := &Server{router: chi.NewRouter(), source: source, events: events}
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.logRequests)

	s.router.Get("/api/stats", s.handleStats)
	s.router.Get("/api/stats/missing", s.handleMissing)
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logging.Info("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"dur", time.Since(start),
			"req", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	detailed, _ := strconv.ParseBool(r.URL.Query().Get("detailed"))
	rep, err := s.source(detailed)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindStatsFetch, Comp: "stats", Count: rep.Totals.Raw, Total: rep.Totals.Analyzed})
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleMissing(w http.ResponseWriter, r *http.Request) {
	rep, err := s.source(true)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep.MissingAnalysis())
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	logging.Error("stats unavailable", "err", err)
	s.events.Error(otel.KindStatsError, "stats", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("write response", "err", err)
	}
}
