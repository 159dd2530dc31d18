// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/pollbox/db"
	"github.com/danielhkuo/pollbox/middleware"
	"github.com/danielhkuo/pollbox/tally"
)

type ResultsHandler struct {
	store *db.Store
}

func NewResultsHandler(store *db.Store) *ResultsHandler {
	return &ResultsHandler{store: store}
}

// GetResults handles GET /api/polls/{id}/results
// Results are open to everyone and computed from the live tallies.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request, _ middleware.Caller) {
	pollID := r.PathValue("id")
	if pollID == "" {
		validationError(w, "poll_id is required")
		return
	}

	results, err := tally.Compute(r.Context(), h.store.DB(), pollID)
	if errors.Is(err, db.ErrNotFound) {
		notFound(w, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to compute results", "poll_id", pollID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to compute results")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, results)
}
