package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"butterfly/internal/config"
	"butterfly/internal/domain"
	"butterfly/internal/metrics"
	"butterfly/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	msgInternalError  = "Internal server error"
	msgInvalidJSON    = "Invalid JSON body"
	maxBodyBytes      = 1 << 20
	requestIDHeader   = "X-Request-ID"
	unmatchedRouteTag = "unmatched"
)

type ctxKey int

const requestIDKey ctxKey = iota

// HTTPServer exposes the booking and menu JSON API.
type HTTPServer struct {
	cfg      config.APIConfig
	bookings domain.BookingService
	menu     domain.MenuService
	auth     *HTTPAuth
	server   *http.Server
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewHTTPServer(cfg config.APIConfig, bookings domain.BookingService, menu domain.MenuService, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	srv := &HTTPServer{
		cfg:      cfg,
		bookings: bookings,
		menu:     menu,
		auth:     NewHTTPAuth(cfg),
		logger:   logger,
		now:      time.Now,
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/bookings", s.handleCreateBooking)
	mux.Handle("GET /api/bookings", s.auth.Require(PermAdminBookings, s.handleListBookings))
	mux.Handle("PUT /api/bookings/status", s.auth.Require(PermAdminBookings, s.handleUpdateStatus))
	mux.Handle("GET /api/bookings/export", s.auth.Require(PermAdminBookings, s.handleExportBookings))
	mux.HandleFunc("GET /api/bookings/{reference}", s.handleFindBooking)

	mux.HandleFunc("GET /api/menu", s.handleListMenu)
	mux.HandleFunc("GET /api/menu/{id}", s.handleGetMenuItem)
	mux.Handle("POST /api/menu", s.auth.Require(PermAdminMenu, s.handleCreateMenuItem))
	mux.Handle("PUT /api/menu/{id}", s.auth.Require(PermAdminMenu, s.handleUpdateMenuItem))
	mux.Handle("DELETE /api/menu/{id}", s.auth.Require(PermAdminMenu, s.handleDeleteMenuItem))
	mux.Handle("PUT /api/menu/{id}/toggle", s.auth.Require(PermAdminMenu, s.handleToggleMenuItem))

	mux.HandleFunc("GET /api/ping", s.handlePing)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	// порядок: внешние обертки видят уже готовый ответ
	var h http.Handler = mux
	h = s.auth.RateLimit(h)
	h = s.observe(mux, h)
	h = corsMiddleware(s.cfg.CORS, h)
	h = requestIDMiddleware(h)
	h = s.recoverMiddleware(h)
	return h
}

// Handler returns the fully wrapped router.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return errors.New("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
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

// observe logs and counts every request, including the ones the rate
// limiter rejected before they reached the mux.
func (s *HTTPServer) observe(mux *http.ServeMux, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		route := r.Pattern
		if route == "" {
			_, route = mux.Handler(r)
		}
		if route == "" {
			route = unmatchedRouteTag
		}
		metrics.IncHTTP(route, r.Method, recorder.status)

		s.logger.Info().
			Str("request_id", requestID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", route).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func (s *HTTPServer) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error().
					Str("request_id", requestID(r.Context())).
					Str("path", r.URL.Path).
					Interface("panic", rec).
					Msg("panic in http handler")
				writeError(w, http.StatusInternalServerError, msgInternalError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func corsMiddleware(cfg config.APICORSConfig, next http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case allowAll:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[origin]:
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.Header().Set("Access-Control-Allow-Methods", "GET,HEAD,PUT,PATCH,POST,DELETE")
			if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
				w.Header().Set("Access-Control-Allow-Headers", reqHeaders)
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// writeServiceError maps the error taxonomy onto HTTP statuses. Unknown
// errors are logged and hidden behind a generic message.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var statusCode int
	switch {
	case errors.Is(err, domain.ErrValidation):
		statusCode = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		statusCode = http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		statusCode = http.StatusTooManyRequests
	default:
		s.logger.Error().
			Err(err).
			Str("request_id", requestID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, msgInternalError)
		return
	}
	writeError(w, statusCode, domain.Message(err, err.Error()))
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, models.ErrorResponse{Success: false, Message: message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
