// Package server is the browser-facing helper API for date pickers and
// venue listings.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"holidaze/internal/api"
	"holidaze/internal/availability"
	"holidaze/internal/config"
	"holidaze/internal/metrics"
	"holidaze/internal/models"
	"holidaze/internal/service"
	"holidaze/internal/validation"
)

const requestIDHeader = "X-Request-ID"

// VenueReader is the read side of the venue service used by the handlers.
type VenueReader interface {
	List(ctx context.Context, q api.VenueQuery) (*models.VenuePage, error)
	Get(ctx context.Context, id string) (*models.Venue, error)
	BlockedDates(ctx context.Context, venue *models.Venue) availability.BlockedDateSet
	Quote(ctx context.Context, venue *models.Venue, form validation.BookingForm) service.Quote
}

var _ VenueReader = (*service.VenueService)(nil)

// ReadyCheck is one dependency probed by /readyz.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type HTTPServer struct {
	server *http.Server
	venues VenueReader
	checks []ReadyCheck
	loc    *time.Location
	logger *zerolog.Logger
}

func NewHTTPServer(cfg config.ServerConfig, venues VenueReader, checks []ReadyCheck, loc *time.Location, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if loc == nil {
		loc = time.UTC
	}
	srv := &HTTPServer{venues: venues, checks: checks, loc: loc, logger: logger}

	port := cfg.Port
	if port == 0 {
		port = 8080
	}
	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           srv.routes(cfg),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return srv
}

func (s *HTTPServer) routes(cfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(requestID)
	r.Use(s.loggingMiddleware)
	r.Use(chimw.Recoverer)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader, headerName(cfg)},
			ExposedHeaders: []string{requestIDHeader},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	auth := NewHTTPAuth(cfg)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Wrap)
		r.Get("/venues", s.handleVenues)
		r.Route("/venues/{id}", func(r chi.Router) {
			r.Get("/", s.handleVenue)
			r.Get("/blocked-dates", s.handleBlockedDates)
			r.Post("/quote", s.handleQuote)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func headerName(cfg config.ServerConfig) string {
	if h := strings.TrimSpace(cfg.Auth.HeaderAPIKey); h != "" {
		return h
	}
	return defaultAPIKeyHeader
}

func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP helper listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for _, c := range s.checks {
		if err := c.Check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[c.Name] = err.Error()
			continue
		}
		results[c.Name] = "ok"
	}
	writeJSON(w, status, map[string]any{"checks": results})
}

func (s *HTTPServer) handleVenues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := optionalInt(q.Get("page"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page")
		return
	}
	limit, err := optionalInt(q.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	result, err := s.venues.List(r.Context(), api.VenueQuery{
		Page:   page,
		Limit:  limit,
		Sort:   q.Get("sort"),
		Search: q.Get("q"),
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": result.Venues, "meta": result.Meta})
}

func (s *HTTPServer) handleVenue(w http.ResponseWriter, r *http.Request) {
	venue, ok := s.loadVenue(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": venue})
}

func (s *HTTPServer) handleBlockedDates(w http.ResponseWriter, r *http.Request) {
	venue, ok := s.loadVenue(w, r)
	if !ok {
		return
	}
	set := s.venues.BlockedDates(r.Context(), venue)
	writeJSON(w, http.StatusOK, map[string]any{"dates": set.Strings()})
}

type quoteRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Guests    int    `json:"guests"`
}

func (s *HTTPServer) handleQuote(w http.ResponseWriter, r *http.Request) {
	var body quoteRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	start, err := parseDay(body.StartDate, s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid startDate; expected YYYY-MM-DD")
		return
	}
	end, err := parseDay(body.EndDate, s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid endDate; expected YYYY-MM-DD")
		return
	}

	venue, ok := s.loadVenue(w, r)
	if !ok {
		return
	}
	quote := s.venues.Quote(r.Context(), venue, validation.BookingForm{StartDate: start, EndDate: end, Guests: body.Guests})
	writeJSON(w, http.StatusOK, quote)
}

func (s *HTTPServer) loadVenue(w http.ResponseWriter, r *http.Request) (*models.Venue, bool) {
	venue, err := s.venues.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return nil, false
	}
	return venue, true
}

// writeServiceError maps validation and upstream failures to JSON errors.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if fe, ok := validation.AsFieldErrors(err); ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": fe.Error(), "fields": fe})
		return
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		status := http.StatusBadGateway
		switch {
		case apiErr.StatusCode == http.StatusNotFound:
			status = http.StatusNotFound
		case apiErr.StatusCode == 0:
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, apiErr.Message)
		return
	}

	s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func optionalInt(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid integer %q", raw)
	}
	return n, nil
}

// parseDay accepts YYYY-MM-DD or RFC 3339. Empty means not selected.
func parseDay(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(models.DateLayout, raw, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		metrics.IncHTTP(route)

		s.logger.Info().
			Str("method", r.Method).
			Str("route", route).
			Int("status", recorder.status).
			Dur("dur", time.Since(start)).
			Str("request_id", r.Header.Get(requestIDHeader)).
			Str("client", clientName(r.Context())).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
