package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"weatherhub/server/internal/config"
	"weatherhub/server/internal/model"
	"weatherhub/server/internal/repository"
)

type Server struct {
	cfg    config.Config
	store  *repository.Store
	logger zerolog.Logger
}

func NewServer(cfg config.Config, store *repository.Store, logger zerolog.Logger) *Server {
	return &Server{
		cfg:    cfg,
		store:  store,
		logger: logger,
	}
}

// Router mounts every route with its declared role set. Routes without a
// role set (the /auth group) skip the gate entirely; that asymmetry is part
// of the API contract.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
	})

	r.Route("/users", func(r chi.Router) {
		teacher := s.requireRole(model.RoleTeacher)
		r.With(teacher).Post("/", s.handleCreateUser)
		r.With(teacher).Get("/", s.handleGetAllUsers)
		r.With(teacher).Get("/key/{authenticationKey}", s.handleGetUserByKey)
		r.With(teacher).Delete("/last-login", s.handleDeleteUsersByLastLogin)
		r.With(teacher).Get("/{id}", s.handleGetUserByID)
		r.With(teacher).Put("/{id}", s.handleUpdateUser)
		r.With(teacher).Delete("/{id}", s.handleDeleteUser)
		r.With(teacher).Patch("/", s.handlePromoteUsersByCreatedAt)
	})

	r.Route("/weather", func(r chi.Router) {
		teacher := s.requireRole(model.RoleTeacher)
		ingest := s.requireRole(model.RoleTeacher, model.RoleSensor)
		reader := s.requireRole(model.RoleTeacher, model.RoleUser, model.RoleSensor)

		r.With(ingest).Post("/", s.handleCreateReading)
		r.With(teacher).Get("/", s.handleGetAllReadings)
		r.With(reader).Get("/page/{page}", s.handleGetReadingsByPage)
		r.With(reader).Get("/device/{deviceName}", s.handleGetByDeviceAndHour)
		r.With(reader).Get("/max-prep/{deviceName}/{lastDay}", s.handleMaxPrecipitation)
		r.With(reader).Get("/max-temp/{startDate}/{endDate}", s.handleMaxTemperaturePerDevice)
		r.With(ingest).Post("/readings/{deviceName}", s.handleInsertReadingsBatch)
		r.With(teacher).Patch("/{id}/precipitation", s.handleUpdatePrecipitation)
		r.With(teacher).Patch("/", s.handleUpdateMultipleReadings)
		r.With(teacher).Delete("/", s.handleDeleteMultipleReadings)
		r.With(reader).Get("/{id}", s.handleGetReadingByID)
		r.With(teacher).Put("/{id}", s.handleUpdateReading)
		r.With(teacher).Delete("/{id}", s.handleDeleteReadingWithLog)
	})

	return r
}

// authHeader carries the opaque authentication key on every gated request.
const authHeader = "X-AUTH-KEY"

// requireRole is the authorization gate: it resolves the caller through the
// identity store and admits only the listed roles. The resolved account is
// placed on the request context for handlers that attribute actions.
func (s *Server) requireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(authHeader)
			if key == "" {
				writeMessage(w, http.StatusUnauthorized, "Authentication key missing.")
				return
			}

			account, err := s.store.GetAccountByKey(r.Context(), key)
			if err != nil {
				if errors.Is(err, model.ErrNotFound) {
					writeMessage(w, http.StatusUnauthorized, "Invalid authentication key.")
					return
				}
				s.serverError(w, r, err, "Error processing request")
				return
			}

			if !contains(roles, account.Role) {
				writeMessage(w, http.StatusForbidden, "You are not authorized to perform the operation.")
				return
			}

			ctx := context.WithValue(r.Context(), accountKey{}, &account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type accountKey struct{}

func accountFromContext(ctx context.Context) *model.Account {
	value := ctx.Value(accountKey{})
	account, _ := value.(*model.Account)
	return account
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request handled")
	})
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error, message string) {
	s.logger.Error().Err(err).Str("path", r.URL.Path).Msg(message)
	writeMessage(w, http.StatusInternalServerError, message)
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type envelope map[string]interface{}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{"status": status, "message": message})
}

// parseDay validates an 8-digit YYYYMMDD literal and returns midnight UTC of
// that day.
func parseDay(literal string) (time.Time, error) {
	if len(literal) != 8 {
		return time.Time{}, model.ErrInvalidArgument
	}
	day, err := time.ParseInLocation("20060102", literal, time.UTC)
	if err != nil {
		return time.Time{}, model.ErrInvalidArgument
	}
	return day, nil
}

// parseDayRange expands two YYYYMMDD literals into the inclusive range
// [start 00:00:00.000Z, end 23:59:59.999Z].
func parseDayRange(startLiteral, endLiteral string) (time.Time, time.Time, error) {
	start, err := parseDay(startLiteral)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDay(endLiteral)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end.Add(24*time.Hour - time.Millisecond), nil
}

// parseDateTime accepts the timestamp shapes crossing the boundary: RFC 3339
// or a space/T-separated date-time treated as UTC.
func parseDateTime(value string) (time.Time, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if ts, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, model.ErrInvalidArgument
}
