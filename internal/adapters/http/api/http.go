// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/okian/cremling/internal/domain/catalog"
	"github.com/okian/cremling/internal/domain/scoring"
	"github.com/okian/cremling/internal/domain/session"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Catalog is the catalog new sessions start from.
	Catalog() *catalog.Catalog

	// Score rates an ad-hoc encounter.
	Score(ctx context.Context, party scoring.Party, enemies []scoring.Enemy) (scoring.Result, error)

	// Session lifecycle and actions.
	CreateSession(ctx context.Context) (session.State, error)
	Session(ctx context.Context, id string) (session.State, error)
	DeleteSession(ctx context.Context, id string) error
	SetParty(ctx context.Context, id string, party scoring.Party) (session.State, error)
	AddEnemy(ctx context.Context, id, entryID string) (session.State, error)
	RemoveEnemy(ctx context.Context, id, entryID string, one bool) (session.State, error)
	ClearSelection(ctx context.Context, id string) (session.State, error)
	UploadCatalog(ctx context.Context, id, name string, r io.Reader) (session.State, error)
	Evaluate(ctx context.Context, id string) (session.State, scoring.Result, error)

	// Feedback counter.
	Like(ctx context.Context) (int64, error)
	Likes(ctx context.Context) (int64, error)
}

// Default upload cap for catalog bodies.
const defaultMaxUploadBytes = 1 << 20

// Server wires HTTP routes for the business API.
type Server struct {
	deps           Dependencies
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	maxUploadBytes int64
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithMaxUploadBytes caps the size of an uploaded catalog.
func WithMaxUploadBytes(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		deps:           deps,
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		maxUploadBytes: defaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.Handle("/", s.Routes())
}

// Routes returns the business API router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, RouteMetrics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})

	r.Post("/score", s.handleScore)

	r.Route("/catalog", func(r chi.Router) {
		r.Get("/", s.handleQueryDefaultCatalog)
		r.Get("/facets", s.handleDefaultFacets)
		r.Get("/default.csv", s.handleDownloadDefault)
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Put("/party", s.handleSetParty)
			r.Post("/enemies", s.handleAddEnemy)
			r.Delete("/enemies", s.handleClearSelection)
			r.Delete("/enemies/{entryID}", s.handleRemoveEnemy)
			r.Get("/catalog", s.handleQuerySessionCatalog)
			r.Put("/catalog", s.handleUploadCatalog)
			r.Get("/catalog/facets", s.handleSessionFacets)
			r.Get("/catalog.csv", s.handleDownloadSessionCatalog)
		})
	})

	r.Route("/likes", func(r chi.Router) {
		r.Get("/", s.handleGetLikes)
		r.Post("/", s.handlePostLike)
	})

	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v before touching the response, so a value that cannot
// be encoded becomes a 500 envelope instead of a bodiless status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Code: "internal_error", Message: http.StatusText(status)})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil && status < http.StatusInternalServerError {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps upstream error kinds to a status and code.
func writeDomainError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, ErrTooLarge), errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", err)
	case errors.Is(err, scoring.ErrInvalidArgument),
		errors.Is(err, catalog.ErrInvalidCatalog),
		errors.Is(err, catalog.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, "invalid_argument", err)
	case errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, session.ErrNotSelected),
		errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

func decodeJSON(r *http.Request, op string, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}
