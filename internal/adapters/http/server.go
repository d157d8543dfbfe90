// Package http exposes proposals and synchronous generation as a JSON API.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/proposer/internal/logging"
	"github.com/aretw0/proposer/pkg/candidates"
	"github.com/aretw0/proposer/pkg/domain"
	"github.com/aretw0/proposer/pkg/lifecycle"
	"github.com/aretw0/proposer/pkg/observability"
	"github.com/aretw0/proposer/pkg/strategy"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// MaxBodyBytes bounds the size of request bodies.
const MaxBodyBytes = 4 << 20

// Server holds the handlers' dependencies.
type Server struct {
	manager  *lifecycle.Manager
	registry *strategy.Registry
	metrics  *observability.Metrics
	logger   *slog.Logger
	version  string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request and error logs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records validation failures and serves GET /metrics.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = metrics
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// NewHandler creates the HTTP handler for the manager and registry.
func NewHandler(manager *lifecycle.Manager, registry *strategy.Registry, opts ...Option) http.Handler {
	s := &Server{
		manager:  manager,
		registry: registry,
		logger:   logging.NewNop(),
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.Health)
	r.Get("/info", s.Info)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Post("/candidates", s.Generate)
	r.Route("/proposals", func(r chi.Router) {
		r.Post("/", s.Submit)
		r.Get("/", s.List)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.Get)
			r.Delete("/", s.Delete)
			r.Post("/claim", s.Claim)
			r.Post("/finish", s.Finish)
			r.Post("/fail", s.Fail)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(started),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// ProposalResponse is the representation of a stored proposal.
type ProposalResponse struct {
	ID       string               `json:"id"`
	Proposal *candidates.Proposal `json:"proposal"`
}

// ListResponse lists proposal IDs in ascending order.
type ListResponse struct {
	IDs []string `json:"ids"`
}

// CandidatesResponse carries synchronously generated candidates.
type CandidatesResponse struct {
	Candidates domain.Candidates `json:"candidates"`
}

// FinishRequest is the body of POST /proposals/{id}/finish.
type FinishRequest struct {
	Candidates *domain.Candidates `json:"candidates"`
}

// FailRequest is the body of POST /proposals/{id}/fail.
type FailRequest struct {
	ErrorMessage string `json:"error_message"`
}

// ErrorResponse is returned for every failed call.
type ErrorResponse struct {
	Error   string        `json:"error"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail is one field error.
type ErrorDetail struct {
	Kind   string `json:"kind"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
	Value  any    `json:"value,omitempty"`
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Info handles GET /info.
func (s *Server) Info(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":        "proposer",
		"version":    s.version,
		"strategies": s.registry.Names(),
	})
}

// Generate handles POST /candidates.
func (s *Server) Generate(w http.ResponseWriter, r *http.Request) {
	var req candidates.Request
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.registry.Generate(r.Context(), &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, CandidatesResponse{Candidates: result})
}

// Submit handles POST /proposals.
func (s *Server) Submit(w http.ResponseWriter, r *http.Request) {
	var p candidates.Proposal
	if !s.decode(w, r, &p) {
		return
	}

	id, err := s.manager.Submit(r.Context(), &p)
	if err != nil {
		s.writeError(w, err)
		return
	}

	stored, err := s.manager.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Location", "/proposals/"+id)
	s.writeJSON(w, http.StatusCreated, ProposalResponse{ID: id, Proposal: stored})
}

// List handles GET /proposals, optionally filtered by ?state=.
func (s *Server) List(w http.ResponseWriter, r *http.Request) {
	var (
		ids []string
		err error
	)
	if raw := r.URL.Query().Get("state"); raw != "" {
		state, perr := candidates.ParseProposalState(raw)
		if perr != nil {
			s.writeError(w, domain.NewValidationError([]*domain.FieldError{
				domain.Structural("state", candidates.ReasonInvalidState, raw),
			}))
			return
		}
		ids, err = s.manager.ListByState(r.Context(), state)
	} else {
		ids, err = s.manager.List(r.Context())
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ListResponse{IDs: ids})
}

// Get handles GET /proposals/{id}.
func (s *Server) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := s.manager.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ProposalResponse{ID: id, Proposal: p})
}

// Delete handles DELETE /proposals/{id}.
func (s *Server) Delete(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Claim handles POST /proposals/{id}/claim.
func (s *Server) Claim(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := s.manager.Claim(r.Context(), id)
	s.writeProposal(w, id, p, err)
}

// Finish handles POST /proposals/{id}/finish.
func (s *Server) Finish(w http.ResponseWriter, r *http.Request) {
	var body FinishRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.Candidates == nil {
		s.writeError(w, domain.NewValidationError([]*domain.FieldError{
			domain.Structural("candidates", domain.ReasonRequired, nil),
		}))
		return
	}

	id := chi.URLParam(r, "id")
	p, err := s.manager.Finish(r.Context(), id, *body.Candidates)
	s.writeProposal(w, id, p, err)
}

// Fail handles POST /proposals/{id}/fail.
func (s *Server) Fail(w http.ResponseWriter, r *http.Request) {
	var body FailRequest
	if !s.decode(w, r, &body) {
		return
	}

	id := chi.URLParam(r, "id")
	p, err := s.manager.Fail(r.Context(), id, body.ErrorMessage)
	s.writeProposal(w, id, p, err)
}

func (s *Server) writeProposal(w http.ResponseWriter, id string, p *candidates.Proposal, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ProposalResponse{ID: id, Proposal: p})
}

// decode reads a JSON body into v. Validation errors raised while decoding
// are reported as 422, malformed JSON as 400.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if len(domain.FieldErrors(err)) > 0 {
			s.writeError(w, err)
			return false
		}
		s.logger.Warn("invalid request body", "path", r.URL.Path, "error", err)
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: fmt.Sprintf("invalid request body: %v", err),
		})
		return false
	}
	return true
}

// writeError maps err to a status code and writes an ErrorResponse.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	resp := ErrorResponse{Error: err.Error()}

	if status == http.StatusUnprocessableEntity {
		s.metrics.ObserveValidation(err)
		for _, fe := range domain.FieldErrors(err) {
			resp.Details = append(resp.Details, ErrorDetail{
				Kind:   observability.KindLabel(fe.Kind),
				Field:  fe.Field,
				Reason: fe.Reason,
				Value:  fe.Value,
			})
		}
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, resp)
}

// StatusFor maps an error to its HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, strategy.ErrInvalidResult):
		return http.StatusInternalServerError
	case errors.Is(err, domain.ErrProposalNotFound):
		return http.StatusNotFound
	case errors.Is(err, candidates.ErrIllegalTransition),
		errors.Is(err, candidates.ErrStaleTimestamp),
		errors.Is(err, strategy.ErrNotClaimed):
		return http.StatusConflict
	case len(domain.FieldErrors(err)) > 0,
		errors.Is(err, lifecycle.ErrNotCreated),
		errors.Is(err, strategy.ErrUnknownStrategy),
		errors.Is(err, strategy.ErrInvalidParams):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}
