package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/resumatch/internal/domain/model"
	"github.com/okian/resumatch/pkg/logger"
)

// ShortlistDependencies defines the interface for ranked result queries.
type ShortlistDependencies interface {
	Shortlist(ctx context.Context, jobID string, n int) ([]model.Analysis, error)
}

// ShortlistHandler handles shortlist requests.
type ShortlistHandler struct {
	deps     ShortlistDependencies
	maxLimit int
	log      logger.Logger
}

// NewShortlistHandler creates a new shortlist handler.
func NewShortlistHandler(deps ShortlistDependencies, maxLimit int, log logger.Logger) *ShortlistHandler {
	return &ShortlistHandler{
		deps:     deps,
		maxLimit: maxLimit,
		log:      log,
	}
}

// HandleGetShortlist handles GET /shortlist/{job_id}?limit=N requests.
// limit defaults to 10 and may not exceed the configured maximum.
func (h *ShortlistHandler) HandleGetShortlist(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_shortlist"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	jobID, ok := pathID(r, "/shortlist/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	n := min(defaultShortlistLimit, h.maxLimit)
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		n, err = strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrLimitExceeded))
		return
	}

	list, err := h.deps.Shortlist(r.Context(), jobID, n)
	if err != nil {
		fail(r.Context(), w, h.log, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, list)
}
