package api

import (
	"context"
	"net/http"

	"github.com/okian/resumatch/internal/domain/model"
	"github.com/okian/resumatch/pkg/logger"
)

// ResultsDependencies defines the interface for listing stored analyses.
type ResultsDependencies interface {
	Results(ctx context.Context, jobID string) ([]model.Analysis, error)
}

// ResultsHandler handles result listing requests.
type ResultsHandler struct {
	deps ResultsDependencies
	log  logger.Logger
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps ResultsDependencies, log logger.Logger) *ResultsHandler {
	return &ResultsHandler{deps: deps, log: log}
}

// HandleGetResults handles GET /results/{job_id} requests.
func (h *ResultsHandler) HandleGetResults(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_results"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	jobID, ok := pathID(r, "/results/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	list, err := h.deps.Results(r.Context(), jobID)
	if err != nil {
		fail(r.Context(), w, h.log, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, list)
}
