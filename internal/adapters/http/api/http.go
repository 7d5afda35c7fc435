// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/okian/resumatch/internal/domain/model"
	"github.com/okian/resumatch/pkg/logger"
)

const (
	defaultMaxUploadBytes  = 10 << 20
	defaultMaxResultsLimit = 100
	defaultShortlistLimit  = 10
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	// Analyze scores a submission and persists the result.
	Analyze(ctx context.Context, sub model.Submission) (model.Analysis, error)

	// Results returns a job's analyses in submission order.
	Results(ctx context.Context, jobID string) ([]model.Analysis, error)

	// Shortlist returns the n best analyses for a job.
	Shortlist(ctx context.Context, jobID string, n int) ([]model.Analysis, error)
}

// Option configures a Server.
type Option func(*Server)

// WithMaxUploadBytes caps request bodies on POST /analyze.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithMaxResultsLimit caps the shortlist limit parameter.
func WithMaxResultsLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxResultsLimit = n
		}
	}
}

// WithLogger sets the logger used for failed requests.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	maxUploadBytes  int64
	maxResultsLimit int
	log             logger.Logger
	validate        *validator.Validate

	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	analyzeHandler   *AnalyzeHandler
	resultsHandler   *ResultsHandler
	shortlistHandler *ShortlistHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		maxUploadBytes:  defaultMaxUploadBytes,
		maxResultsLimit: defaultMaxResultsLimit,
		log:             logger.Nop(),
		validate:        validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider, s.log)
	s.analyzeHandler = NewAnalyzeHandler(deps, s.validate, s.maxUploadBytes, s.log)
	s.resultsHandler = NewResultsHandler(deps, s.log)
	s.shortlistHandler = NewShortlistHandler(deps, s.maxResultsLimit, s.log)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/analyze", MetricsMiddleware(s.analyzeHandler.HandleAnalyze, "analyze"))
	mux.HandleFunc("/results/", MetricsMiddleware(s.resultsHandler.HandleGetResults, "results"))
	mux.HandleFunc("/shortlist/", MetricsMiddleware(s.shortlistHandler.HandleGetShortlist, "shortlist"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail maps err to a status, logs server-side failures and writes the error body.
func fail(ctx context.Context, w http.ResponseWriter, log logger.Logger, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", logger.String("code", code), logger.Error(err))
	}
	writeError(w, status, code, err)
}

// pathID extracts the single path segment following prefix.
func pathID(r *http.Request, prefix string) (string, bool) {
	id := strings.TrimPrefix(r.URL.Path, prefix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
