// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/pollbox/admission"
	"github.com/danielhkuo/pollbox/cliparse"
	"github.com/danielhkuo/pollbox/middleware"
	"github.com/danielhkuo/pollbox/models"
)

type VotingHandler struct {
	engine *admission.Engine
	cfg    cliparse.Config
}

func NewVotingHandler(engine *admission.Engine, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{engine: engine, cfg: cfg}
}

// CastVote handles POST /api/polls/{id}/vote
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request, c middleware.Caller) {
	pollID := r.PathValue("id")
	if pollID == "" {
		validationError(w, "poll_id is required")
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		validationError(w, "Invalid JSON")
		return
	}

	optionID := strings.TrimSpace(req.OptionID)
	if optionID == "" {
		validationError(w, "option_id is required")
		return
	}

	receipt, err := h.engine.CastVote(r.Context(), admission.Ballot{
		PollID:   pollID,
		OptionID: optionID,
		Voter:    c.VoterKey(h.cfg.VoterIdentity),
	})

	var rejection *admission.Rejection
	if errors.As(err, &rejection) {
		status := http.StatusBadRequest
		if rejection.Code == models.CodeNotFound {
			status = http.StatusNotFound
		}
		slog.Info("vote rejected", "poll_id", pollID, "code", rejection.Code)
		middleware.ErrorWithCode(w, status, rejection.Code, rejection.Message)
		return
	}
	if err != nil {
		slog.Error("failed to cast vote", "poll_id", pollID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, receipt)
}
