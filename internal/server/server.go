// Package server exposes the diagram parser over HTTP. It provides a
// stateless parse endpoint plus CRUD for stored diagrams, with parse
// results cached by source hash.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/mermaid/pkg/cache"
	"github.com/matzehuels/mermaid/pkg/diag"
	"github.com/matzehuels/mermaid/pkg/flow"
	"github.com/matzehuels/mermaid/pkg/mermaid"
	"github.com/matzehuels/mermaid/pkg/store"
)

// DefaultCacheTTL bounds how long parse results stay cached.
const DefaultCacheTTL = 24 * time.Hour

// maxBodyBytes caps request bodies; diagram sources are small text.
const maxBodyBytes = 1 << 20

// Server wires the parse pipeline, cache and store into an HTTP handler.
type Server struct {
	store  store.Store
	cache  cache.Cache
	keyer  cache.Keyer
	logger *log.Logger
}

// Option configures a server.
type Option func(*Server)

// WithCacheScope namespaces cache keys under prefix so deployments sharing
// one cache backend never serve each other's entries.
func WithCacheScope(prefix string) Option {
	return func(s *Server) {
		s.keyer = cache.NewScopedKeyer(s.keyer, prefix)
	}
}

// New creates a server. A nil cache disables caching; a nil logger
// discards logs.
func New(st store.Store, c cache.Cache, logger *log.Logger, opts ...Option) *Server {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	s := &Server{
		store:  st,
		cache:  c,
		keyer:  cache.NewDefaultKeyer(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the chi router with all routes and middleware attached.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Post("/parse", s.handleParse)

	r.Route("/diagrams", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGet)
		r.Delete("/{id}", s.handleDelete)
	})

	return r
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseRequest is the body of POST /parse and POST /diagrams.
type parseRequest struct {
	Name    string `json:"name,omitempty"`
	Source  string `json:"source"`
	Lenient bool   `json:"lenient,omitempty"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeParseRequest(w, r)
	if !ok {
		return
	}

	key := s.keyer.ParseKey(req.Source, req.Lenient)
	if data, hit, err := s.cache.Get(r.Context(), key); err == nil && hit {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "hit")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	res, err := s.parse(req)
	if err != nil {
		s.writeParseError(w, err)
		return
	}

	data, err := json.Marshal(res)
	if err != nil {
		writeError(w, http.StatusInternalServerError, string(diag.ErrCodeInternal), err.Error())
		return
	}
	if err := s.cache.Set(r.Context(), key, data, DefaultCacheTTL); err != nil {
		s.logger.Warn("cache set failed", "err", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeParseRequest(w, r)
	if !ok {
		return
	}

	res, err := s.parse(req)
	if err != nil {
		s.writeParseError(w, err)
		return
	}

	rec := &store.Record{Name: req.Name, Source: req.Source, Result: res}
	if err := s.store.Put(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, string(diag.ErrCodeInternal), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.List(r.Context(), 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, string(diag.ErrCodeInternal), err.Error())
		return
	}
	if recs == nil {
		recs = []*store.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "diagram not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, string(diag.ErrCodeInternal), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	err := s.store.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "diagram not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, string(diag.ErrCodeInternal), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Helpers
// =============================================================================

func (s *Server) parse(req parseRequest) (*mermaid.Result, error) {
	var opts []flow.Option
	if req.Lenient {
		opts = append(opts, flow.WithLenientReferences())
	}
	return mermaid.Parse(req.Source, opts...)
}

func (s *Server) decodeParseRequest(w http.ResponseWriter, r *http.Request) (parseRequest, bool) {
	var req parseRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return req, false
	}
	if req.Source == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "source is required")
		return req, false
	}
	return req, true
}

// writeParseError maps diagnostic codes onto HTTP statuses. All parse
// failures are client errors; anything else is internal.
func (s *Server) writeParseError(w http.ResponseWriter, err error) {
	code := diag.GetCode(err)
	if code == "" {
		writeError(w, http.StatusInternalServerError, string(diag.ErrCodeInternal), err.Error())
		return
	}
	status := http.StatusBadRequest
	if code == diag.ErrCodeUnsupportedDiagram {
		status = http.StatusUnprocessableEntity
	}
	writeError(w, status, string(code), diag.UserMessage(err))
}

// errorResponse is the JSON body for all error statuses.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
