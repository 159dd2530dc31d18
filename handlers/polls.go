// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/pollbox/auth"
	"github.com/danielhkuo/pollbox/db"
	"github.com/danielhkuo/pollbox/middleware"
	"github.com/danielhkuo/pollbox/models"
)

type PollHandler struct {
	store *db.Store
	now   func() time.Time
}

func NewPollHandler(store *db.Store) *PollHandler {
	return &PollHandler{store: store, now: time.Now}
}

// ListPolls handles GET /api/polls
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request, _ middleware.Caller) {
	ctx := r.Context()

	polls, err := db.ListActivePolls(ctx, h.store.DB())
	if err != nil {
		slog.Error("failed to list polls", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	now := h.now()
	views := make([]models.PollView, 0, len(polls))
	for _, p := range polls {
		options, err := db.OptionsByPoll(ctx, h.store.DB(), p.ID)
		if err != nil {
			slog.Error("failed to query options", "poll_id", p.ID, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		views = append(views, pollView(p, options, now))
	}

	middleware.JSONResponse(w, http.StatusOK, views)
}

// CreatePoll handles POST /api/polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request, c middleware.Caller) {
	if err := auth.Authorize(c.Principal, models.Poll{}, auth.ActionCreate); err != nil {
		denyAuth(w, err)
		return
	}

	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		validationError(w, "Invalid JSON")
		return
	}

	now := h.now().UTC()

	// Validate input
	title := strings.TrimSpace(req.Title)
	if title == "" {
		validationError(w, "Title cannot be empty.")
		return
	}
	if req.ExpiresAt == nil {
		validationError(w, "expires_at is required")
		return
	}
	if !req.ExpiresAt.After(now) {
		validationError(w, "Expiry date must be in the future.")
		return
	}
	if len(req.Options) == 0 {
		validationError(w, "At least one option is required.")
		return
	}

	poll := models.Poll{
		ID:              uuid.NewString(),
		Title:           title,
		Description:     req.Description,
		CreatorID:       c.Principal.UserID,
		CreatorUsername: c.Principal.Username,
		CreatedAt:       now,
		ExpiresAt:       req.ExpiresAt.UTC(),
		IsActive:        true,
	}

	options := make([]models.PollOption, len(req.Options))
	for i, in := range req.Options {
		text := strings.TrimSpace(in.Text)
		if text == "" {
			validationError(w, "Option text cannot be empty.")
			return
		}
		options[i] = models.PollOption{
			ID:       uuid.NewString(),
			PollID:   poll.ID,
			Text:     text,
			Position: i,
		}
	}

	if err := h.store.CreatePollWithOptions(r.Context(), poll, options); err != nil {
		slog.Error("failed to create poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	slog.Info("poll created", "poll_id", poll.ID, "creator", c.Principal.Username, "options", len(options))

	middleware.JSONResponse(w, http.StatusCreated, pollView(poll, options, now))
}

// GetPoll handles GET /api/polls/{id}
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request, _ middleware.Caller) {
	ctx := r.Context()

	poll, ok := loadPoll(w, r, h.store)
	if !ok {
		return
	}

	options, err := db.OptionsByPoll(ctx, h.store.DB(), poll.ID)
	if err != nil {
		slog.Error("failed to query options", "poll_id", poll.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, pollView(poll, options, h.now()))
}

// UpdatePoll handles PUT /api/polls/{id}. Title and expires_at are required;
// a missing description clears it.
func (h *PollHandler) UpdatePoll(w http.ResponseWriter, r *http.Request, c middleware.Caller) {
	var req models.UpdatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		validationError(w, "Invalid JSON")
		return
	}
	if req.Title == nil || req.ExpiresAt == nil {
		validationError(w, "title and expires_at are required")
		return
	}
	if req.Description == nil {
		empty := ""
		req.Description = &empty
	}

	h.applyUpdate(w, r, c, req, auth.ActionUpdate)
}

// PatchPoll handles PATCH /api/polls/{id}. Only the fields present change.
func (h *PollHandler) PatchPoll(w http.ResponseWriter, r *http.Request, c middleware.Caller) {
	var req models.UpdatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		validationError(w, "Invalid JSON")
		return
	}

	h.applyUpdate(w, r, c, req, auth.ActionPartialUpdate)
}

// applyUpdate loads, checks and writes the poll in one transaction so
// concurrent updates each see the other's committed fields.
func (h *PollHandler) applyUpdate(w http.ResponseWriter, r *http.Request, c middleware.Caller, req models.UpdatePollRequest, action auth.Action) {
	ctx := r.Context()
	now := h.now().UTC()

	pollID := r.PathValue("id")
	if pollID == "" {
		validationError(w, "poll_id is required")
		return
	}

	var (
		poll    models.Poll
		options []models.PollOption
		denied  error
		invalid string
	)
	err := h.store.InTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		poll, err = h.store.LockPoll(ctx, tx, pollID)
		if err != nil {
			return err
		}
		if denied = auth.Authorize(c.Principal, poll, action); denied != nil {
			return denied
		}
		if invalid = applyFields(&poll, req, now); invalid != "" {
			return errRejected
		}

		if err := db.UpdatePoll(ctx, tx, poll); err != nil {
			return err
		}
		options, err = db.OptionsByPoll(ctx, tx, poll.ID)
		return err
	})
	switch {
	case denied != nil:
		denyAuth(w, denied)
		return
	case invalid != "":
		validationError(w, invalid)
		return
	case errors.Is(err, db.ErrNotFound):
		notFound(w, "Poll not found")
		return
	case err != nil:
		slog.Error("failed to update poll", "poll_id", pollID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update poll")
		return
	}

	slog.Info("poll updated", "poll_id", poll.ID, "action", string(action))

	middleware.JSONResponse(w, http.StatusOK, pollView(poll, options, now))
}

// errRejected rolls back a transaction whose input failed validation.
var errRejected = errors.New("update rejected")

// applyFields copies the fields present in req onto p and returns a
// validation message, or "" when the update is acceptable.
func applyFields(p *models.Poll, req models.UpdatePollRequest, now time.Time) string {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return "Title cannot be empty."
		}
		p.Title = title
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.ExpiresAt != nil {
		if !req.ExpiresAt.After(now) {
			return "Expiry date must be in the future."
		}
		p.ExpiresAt = req.ExpiresAt.UTC()
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	return ""
}

// DeletePoll handles DELETE /api/polls/{id}. Options and votes go with it.
func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request, c middleware.Caller) {
	poll, ok := loadPoll(w, r, h.store)
	if !ok {
		return
	}
	if err := auth.Authorize(c.Principal, poll, auth.ActionDestroy); err != nil {
		denyAuth(w, err)
		return
	}

	err := db.DeletePoll(r.Context(), h.store.DB(), poll.ID)
	if errors.Is(err, db.ErrNotFound) {
		notFound(w, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to delete poll", "poll_id", poll.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete poll")
		return
	}

	slog.Info("poll deleted", "poll_id", poll.ID)

	w.WriteHeader(http.StatusNoContent)
}

// loadPoll fetches the poll named by the {id} path value, writing a 404 or
// 500 when it cannot.
func loadPoll(w http.ResponseWriter, r *http.Request, store *db.Store) (models.Poll, bool) {
	pollID := r.PathValue("id")
	if pollID == "" {
		validationError(w, "poll_id is required")
		return models.Poll{}, false
	}

	poll, err := db.PollByID(r.Context(), store.DB(), pollID)
	if errors.Is(err, db.ErrNotFound) {
		notFound(w, "Poll not found")
		return models.Poll{}, false
	}
	if err != nil {
		slog.Error("failed to query poll", "poll_id", pollID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return models.Poll{}, false
	}

	return poll, true
}
