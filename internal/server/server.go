// Package server exposes the solve pipeline over REST and JSON-RPC 2.0.
// Reports are stored by fingerprint, so solving the same problem twice is
// served from the store.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/copyleftdev/lplab/internal/cache"
	"github.com/copyleftdev/lplab/internal/config"
	apperrors "github.com/copyleftdev/lplab/internal/errors"
	"github.com/copyleftdev/lplab/internal/logging"
	"github.com/copyleftdev/lplab/internal/lp"
	"github.com/copyleftdev/lplab/internal/metrics"
	"github.com/copyleftdev/lplab/internal/solve"
)

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes = 1 << 20

// Logger defines the logging interface used by the server.
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// Server implements the HTTP and JSON-RPC endpoints. It holds no per-request
// state beyond the report store.
type Server struct {
	cfg     *config.Config
	logger  Logger
	service *solve.Service
	store   cache.Store
	metrics *metrics.Metrics
	limiter *rate.Limiter
}

// NewServer creates a server. A RateLimit.RPS of zero disables limiting;
// m may be nil.
func NewServer(cfg *config.Config, logger Logger, service *solve.Service, store cache.Store, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:     cfg,
		logger:  logger,
		service: service,
		store:   store,
		metrics: m,
	}
	if cfg.RateLimit.RPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
	}
	return s
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(RateLimit(s.limiter, s.metrics))

		r.Route("/api/v1", func(r chi.Router) {
			r.Post("/solve", s.handleSolve)
			r.Get("/solve/{id}", s.handleGet)
			r.Delete("/solve/{id}", s.handleDelete)
		})

		// JSON-RPC 2.0 endpoint
		r.Post("/rpc", s.handleJSONRPC)
	})
}

// RateLimit rejects requests beyond l's budget with 429. A nil limiter
// admits everything.
func RateLimit(l *rate.Limiter, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				m.ObserveRateLimited()
				w.Header().Set("Retry-After", "1")
				writeJSON(w, http.StatusTooManyRequests, errorBody{
					Error: http.StatusText(http.StatusTooManyRequests),
					Kind:  "rate_limited",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// solve returns the encoded document for def, from the store when an equal
// problem has been solved before.
func (s *Server) solve(ctx context.Context, def lp.Definition) ([]byte, bool, error) {
	p, err := lp.NewProblem(def)
	if err != nil {
		return nil, false, err
	}
	id, err := solve.Fingerprint(p)
	if err != nil {
		return nil, false, apperrors.Wrap(err, "fingerprint problem")
	}

	if body, err := s.lookup(ctx, id); err == nil {
		return body, true, nil
	}

	report, err := s.service.Solve(ctx, p)
	if err != nil {
		return nil, false, apperrors.Wrap(err, "solve problem").WithOperation("solve")
	}
	body, err := json.Marshal(report.Document())
	if err != nil {
		return nil, false, apperrors.Wrap(err, "encode report")
	}

	if err := s.store.Put(ctx, id, body); err != nil {
		s.logger.Warn("failed to store report", map[string]interface{}{
			"id":    id,
			"error": err.Error(),
		})
	}
	return body, false, nil
}

// lookup reads a stored report and records the outcome.
func (s *Server) lookup(ctx context.Context, id string) ([]byte, error) {
	body, err := s.store.Get(ctx, id)
	switch {
	case err == nil:
		s.metrics.ObserveLookup("hit")
	case cache.IsNotFound(err):
		s.metrics.ObserveLookup("miss")
	default:
		s.metrics.ObserveLookup("error")
		s.logger.Warn("report store lookup failed", map[string]interface{}{
			"id":    id,
			"error": err.Error(),
		})
	}
	return body, err
}

func (s *Server) get(ctx context.Context, id string) ([]byte, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.Invalid("report id is required")
	}
	body, err := s.lookup(ctx, id)
	if err != nil {
		return nil, apperrors.Wrapf(err, "report %s", id)
	}
	return body, nil
}

func (s *Server) delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperrors.Invalid("report id is required")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return apperrors.Wrapf(err, "report %s", id)
	}
	s.logger.Info("report deleted", map[string]interface{}{"id": id})
	return nil
}

// handleSolve handles POST /api/v1/solve. The body is a problem definition.
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var def lp.Definition
	if err := decodeBody(w, r, &def); err != nil {
		s.writeError(w, r, err)
		return
	}

	body, cached, err := s.solve(r.Context(), def)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if cached {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	writeRaw(w, http.StatusOK, body)
}

// handleGet handles GET /api/v1/solve/{id}.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	body, err := s.get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, body)
}

// handleDelete handles DELETE /api/v1/solve/{id}.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Close releases the report store.
func (s *Server) Close() error {
	return s.store.Close()
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return apperrors.Invalid("request body is empty")
		}
		return apperrors.Invalid("invalid request body: %v", err)
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	fields := map[string]interface{}{
		"status": status,
		"method": r.Method,
		"path":   r.URL.Path,
		"error":  err.Error(),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", fields)
	} else {
		s.logger.Debug("request rejected", fields)
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Kind: string(apperrors.KindOf(err))})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("encode response: %v", err), http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, body)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
