// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/pollbox/db"
	"github.com/danielhkuo/pollbox/middleware"
	"github.com/danielhkuo/pollbox/models"
	"github.com/danielhkuo/pollbox/tally"
)

// ProfileHandler serves the authenticated caller's own account and polls.
// Routes using it must run middleware.RequireAuth first.
type ProfileHandler struct {
	store *db.Store
	now   func() time.Time
}

func NewProfileHandler(store *db.Store) *ProfileHandler {
	return &ProfileHandler{store: store, now: time.Now}
}

// GetMe handles GET /api/auth/me
func (h *ProfileHandler) GetMe(w http.ResponseWriter, r *http.Request, c middleware.Caller) {
	user, err := db.UserByID(r.Context(), h.store.DB(), c.Principal.UserID)
	if errors.Is(err, db.ErrNotFound) {
		// Token outlived its account
		notFound(w, "User not found")
		return
	}
	if err != nil {
		slog.Error("failed to query user", "user_id", c.Principal.UserID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ProfileResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}

// GetMyPolls handles GET /api/auth/me/polls
// Lists every poll the caller created, including closed and expired ones.
func (h *ProfileHandler) GetMyPolls(w http.ResponseWriter, r *http.Request, c middleware.Caller) {
	ctx := r.Context()

	polls, err := db.PollsByCreator(ctx, h.store.DB(), c.Principal.UserID)
	if err != nil {
		slog.Error("failed to query polls", "user_id", c.Principal.UserID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	now := h.now()
	summaries := make([]models.MyPollSummary, 0, len(polls))
	for _, p := range polls {
		options, err := db.OptionsByPoll(ctx, h.store.DB(), p.ID)
		if err != nil {
			slog.Error("failed to query options", "poll_id", p.ID, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}

		summaries = append(summaries, models.MyPollSummary{
			PollID:     p.ID,
			Title:      p.Title,
			IsActive:   p.IsActive,
			IsExpired:  p.IsExpired(now),
			TotalVotes: tally.TotalVotes(options),
			CreatedAt:  p.CreatedAt,
			ExpiresAt:  p.ExpiresAt,
		})
	}

	middleware.JSONResponse(w, http.StatusOK, models.MyPollsResponse{Polls: summaries})
}
