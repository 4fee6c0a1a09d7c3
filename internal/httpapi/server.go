// Package httpapi exposes the diagnostic engine and the simulation proxy
// over JSON HTTP.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/axisgrid/concentra/api/scenario"
	"github.com/axisgrid/concentra/internal/dataset"
	"github.com/axisgrid/concentra/internal/diagnostic/engine"
	"github.com/axisgrid/concentra/internal/scenario/payload"
	"github.com/axisgrid/concentra/internal/scenario/schema"
	"github.com/axisgrid/concentra/internal/scenario/transport"
)

const maxScenarioBodyBytes = 64 << 10

// Config wires the HTTP server.
type Config struct {
	Source    *dataset.Source
	Transport transport.Client
	Validator *schema.Validator
	Logger    *zap.Logger
}

// Server serves the dashboard API.
type Server struct {
	cfg Config
}

// New builds a server.
func New(cfg Config) (*Server, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("dataset source is required")
	}
	if cfg.Transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if cfg.Validator == nil {
		return nil, fmt.Errorf("validator is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Server{cfg: cfg}, nil
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/entities", s.handleEntities)
	r.Get("/api/compare", s.handleCompare)
	r.Post("/api/entities/{code}/scenario", s.handleScenario)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	cohort, err := s.cfg.Source.Snapshot(r.Context())
	if err != nil {
		s.cfg.Logger.Error("cohort snapshot failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "dataset unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entities": cohort})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	codeA := r.URL.Query().Get("a")
	codeB := r.URL.Query().Get("b")
	if codeA == "" || codeB == "" {
		writeError(w, http.StatusBadRequest, "query parameters a and b are required")
		return
	}

	cohort, err := s.cfg.Source.Snapshot(r.Context())
	if err != nil {
		s.cfg.Logger.Error("cohort snapshot failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "dataset unavailable")
		return
	}
	profileA, ok := cohort.Find(codeA)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown entity %q", codeA))
		return
	}
	profileB, ok := cohort.Find(codeB)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown entity %q", codeB))
		return
	}

	diagnostic, err := engine.Compute(profileA, profileB, cohort)
	if err != nil {
		s.cfg.Logger.Error("diagnostic compute failed",
			zap.String("a", codeA), zap.String("b", codeB), zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, diagnostic)
}

type scenarioBody struct {
	Adjustments map[string]float64 `json:"adjustments"`
}

func (s *Server) handleScenario(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var body scenarioBody
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxScenarioBodyBytes))
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be JSON with an adjustments object")
		return
	}

	cohort, err := s.cfg.Source.Snapshot(r.Context())
	if err != nil {
		s.cfg.Logger.Error("cohort snapshot failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "dataset unavailable")
		return
	}

	req, err := payload.Validate(code, body.Adjustments, payload.CodeSet(cohort.Codes()), payload.ModeServer)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	raw, err := s.cfg.Transport.Simulate(r.Context(), req)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	result, err := s.cfg.Validator.ValidateResult(raw)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	f, ok := scenario.AsFailure(err)
	if !ok {
		s.cfg.Logger.Error("unclassified simulation error", zap.Error(err))
		writeError(w, http.StatusBadGateway, "simulation failed")
		return
	}
	s.cfg.Logger.Warn("simulation failure", zap.String("kind", string(f.Kind)), zap.String("reason", f.Reason))
	status := http.StatusBadGateway
	switch f.Kind {
	case scenario.FailureBadInput:
		status = http.StatusBadRequest
	case scenario.FailureTransportBlocked, scenario.FailureServiceError:
		status = http.StatusServiceUnavailable
	case scenario.FailureRouteMissing, scenario.FailureValidation:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]any{"failure": f})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
