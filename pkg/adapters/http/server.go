package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/isaid22/agentloop"
	"github.com/isaid22/agentloop/internal/logging"
	"github.com/isaid22/agentloop/pkg/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine defines the subset of *agentloop.Engine served over HTTP.
type Engine interface {
	Invoke(ctx context.Context, prompt string, opts ...agentloop.RunOption) (*domain.State, error)
	Stream(ctx context.Context, prompt string, opts ...agentloop.RunOption) iter.Seq2[domain.StepEvent, error]
	Describe() domain.GraphInfo
}

// InvokeRequest is the body of POST /invoke and POST /stream.
// Durations use time.ParseDuration syntax ("30s", "1m").
type InvokeRequest struct {
	Prompt         string `json:"prompt"`
	RunID          string `json:"run_id,omitempty"`
	StepLimit      int    `json:"step_limit,omitempty"`
	ActionTimeout  string `json:"action_timeout,omitempty"`
	RunTimeout     string `json:"run_timeout,omitempty"`
	MaxConcurrency int    `json:"max_concurrency,omitempty"`
}

// InvokeResponse is the body returned by POST /invoke.
type InvokeResponse struct {
	RunID    string           `json:"run_id"`
	Answer   string           `json:"answer"`
	Steps    int              `json:"steps"`
	Messages []domain.Message `json:"messages"`
}

// Server holds the HTTP handlers of an engine.
type Server struct {
	Engine  Engine
	Logger  *slog.Logger
	Metrics http.Handler
}

// Option configures the handler built by NewHandler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// WithMetricsHandler replaces the handler mounted at /metrics.
// By default the global Prometheus registry is exposed.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	server := &Server{
		Engine:  engine,
		Logger:  logging.NewNop(),
		Metrics: promhttp.Handler(),
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/invoke", server.Invoke)
	r.Post("/stream", server.Stream)
	r.Get("/graph", server.GetGraph)
	r.Get("/healthz", server.GetHealth)
	r.Handle("/metrics", server.Metrics)

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Invoke handles the POST /invoke request.
func (s *Server) Invoke(w http.ResponseWriter, r *http.Request) {
	body, opts, ok := s.decode(w, r)
	if !ok {
		return
	}

	state, err := s.Engine.Invoke(r.Context(), body.Prompt, opts...)
	if err != nil {
		status := statusFor(err)
		http.Error(w, fmt.Sprintf("Run failed: %v", err), status)
		s.Logger.Error("Invoke failed", "run_id", body.RunID, "status", status, "err", err)
		return
	}

	answer, _ := agentloop.Answer(state)
	resp := InvokeResponse{
		RunID:    state.RunID,
		Answer:   answer,
		Steps:    state.Step,
		Messages: state.Messages(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.Logger.Error("Invoke response encode failed", "err", err)
	}
}

// Stream handles the POST /stream request. Every node execution is sent as a
// "step" event; the stream closes with a single "done" or "error" event.
func (s *Server) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("Stream: Streaming not supported")
		return
	}

	body, opts, ok := s.decode(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var last domain.StepEvent
	for ev, err := range s.Engine.Stream(r.Context(), body.Prompt, opts...) {
		if err != nil {
			s.Logger.Warn("Stream: run failed", "run_id", body.RunID, "err", err)
			writeEvent(w, "error", map[string]any{"error": err.Error(), "status": statusFor(err)})
			flusher.Flush()
			return
		}
		last = ev
		if err := writeEvent(w, "step", ev); err != nil {
			s.Logger.Error("Stream: encode failed", "node", ev.Node, "step", ev.Step, "err", err)
			writeEvent(w, "error", map[string]any{
				"error":  fmt.Sprintf("step %d (%s): %v", ev.Step, ev.Node, err),
				"status": http.StatusInternalServerError,
			})
			flusher.Flush()
			return
		}
		flusher.Flush()
	}

	done := map[string]any{"steps": last.Step}
	if last.State != nil {
		done["run_id"] = last.State.RunID
		done["answer"], _ = agentloop.Answer(last.State)
	}
	writeEvent(w, "done", done)
	flusher.Flush()
}

// GetGraph handles the GET /graph request.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Engine.Describe()); err != nil {
		s.Logger.Error("GetGraph response encode failed", "err", err)
	}
}

// GetHealth handles the GET /healthz request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{
		"status":  "ok",
		"version": strings.TrimSpace(agentloop.Version),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (InvokeRequest, []agentloop.RunOption, bool) {
	var body InvokeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("Invalid request body", "err", err)
		return body, nil, false
	}
	opts, err := body.options()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return body, nil, false
	}
	return body, opts, true
}

func (req InvokeRequest) options() ([]agentloop.RunOption, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, errors.New("prompt is required")
	}
	if req.StepLimit < 0 || req.MaxConcurrency < 0 {
		return nil, errors.New("step_limit and max_concurrency must not be negative")
	}

	var opts []agentloop.RunOption
	if req.RunID != "" {
		opts = append(opts, agentloop.WithRunID(req.RunID))
	}
	if req.StepLimit > 0 {
		opts = append(opts, agentloop.WithStepLimit(req.StepLimit))
	}
	if req.MaxConcurrency > 0 {
		opts = append(opts, agentloop.WithMaxConcurrency(req.MaxConcurrency))
	}
	if req.ActionTimeout != "" {
		d, err := parsePositive("action_timeout", req.ActionTimeout)
		if err != nil {
			return nil, err
		}
		opts = append(opts, agentloop.WithActionTimeout(d))
	}
	if req.RunTimeout != "" {
		d, err := parsePositive("run_timeout", req.RunTimeout)
		if err != nil {
			return nil, err
		}
		opts = append(opts, agentloop.WithRunTimeout(d))
	}
	return opts, nil
}

func parsePositive(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", field)
	}
	return d, nil
}

// statusFor maps a run error to the HTTP status reported to the client.
func statusFor(err error) int {
	var reasonErr *domain.ReasonerError
	switch {
	case errors.Is(err, domain.ErrStepLimitExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.As(err, &reasonErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeEvent(w http.ResponseWriter, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}
