// Package server exposes the price pipeline, stored history and metrics over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"SpotSentinel/internal/calendar"
	"SpotSentinel/internal/collector"
	"SpotSentinel/internal/metrics"
	"SpotSentinel/internal/model"
	"SpotSentinel/internal/recorder"
)

// Server is the read-only HTTP API.
type Server struct {
	Collector *collector.Collector
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics
	Logger    *zap.Logger

	router *mux.Router
	srv    *http.Server
}

// New creates a Server listening on addr. rec and m may be nil.
func New(addr string, col *collector.Collector, rec recorder.Recorder, m *metrics.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	s := &Server{
		Collector: col,
		Recorder:  rec,
		Metrics:   m,
		Logger:    logger,
		router:    mux.NewRouter(),
	}
	s.routes()
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
	}
	return s
}

func (s *Server) routes() {
	s.router.Use(s.instrument)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.Metrics.Handler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/prices", s.handlePrices).Methods(http.MethodGet)
	api.HandleFunc("/history/{date}", s.handleHistory).Methods(http.MethodGet)
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.Logger.Info("http server listening", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the listener and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"region":   s.Collector.Region,
		"timezone": s.Collector.Location.String(),
	})
}

// handlePrices runs the pipeline for ?date=YYYY-MM-DD, or today when absent.
func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	day, ok := s.parseDay(w, r.URL.Query().Get("date"))
	if !ok {
		return
	}

	report, err := s.Collector.CollectDay(r.Context(), day)
	if err != nil {
		s.Logger.Warn("collect for api", zap.Stringer("day", day), zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newReportResponse(report))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	day, ok := s.parseDay(w, mux.Vars(r)["date"])
	if !ok {
		return
	}

	report, err := s.Recorder.LoadDay(s.Collector.Region, day.String())
	if errors.Is(err, recorder.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no stored report for "+day.String())
		return
	}
	if err != nil {
		s.Logger.Error("load history", zap.Stringer("day", day), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, newReportResponse(report))
}

func (s *Server) parseDay(w http.ResponseWriter, date string) (model.CalendarDay, bool) {
	if date == "" {
		return s.Collector.Today(), true
	}
	day, _, err := calendar.ResolveDate(date, s.Collector.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return model.CalendarDay{}, false
	}
	return day, true
}

// statusFor maps pipeline errors to HTTP statuses. Upstream failures are 502.
func statusFor(err error) int {
	var te *model.TransportError
	var de *model.DecodeError
	switch {
	case errors.As(err, &te), errors.As(err, &de):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
