// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/pollbox/auth"
	"github.com/danielhkuo/pollbox/db"
	"github.com/danielhkuo/pollbox/middleware"
	"github.com/danielhkuo/pollbox/models"
)

// OptionHandler manages the options of existing polls. Only a poll's creator
// may change them.
type OptionHandler struct {
	store *db.Store
}

func NewOptionHandler(store *db.Store) *OptionHandler {
	return &OptionHandler{store: store}
}

// ListOptions handles GET /api/polls/{id}/options
func (h *OptionHandler) ListOptions(w http.ResponseWriter, r *http.Request, _ middleware.Caller) {
	poll, ok := loadPoll(w, r, h.store)
	if !ok {
		return
	}

	options, err := db.OptionsByPoll(r.Context(), h.store.DB(), poll.ID)
	if err != nil {
		slog.Error("failed to query options", "poll_id", poll.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	views := make([]models.OptionView, len(options))
	for i, o := range options {
		views[i] = optionView(o)
	}

	middleware.JSONResponse(w, http.StatusOK, views)
}

// AddOption handles POST /api/polls/{id}/options
func (h *OptionHandler) AddOption(w http.ResponseWriter, r *http.Request, c middleware.Caller) {
	ctx := r.Context()

	poll, ok := loadPoll(w, r, h.store)
	if !ok {
		return
	}
	if err := auth.Authorize(c.Principal, poll, auth.ActionUpdate); err != nil {
		denyAuth(w, err)
		return
	}

	text, ok := parseOptionText(w, r)
	if !ok {
		return
	}

	option := models.PollOption{ID: uuid.NewString(), PollID: poll.ID, Text: text}
	err := h.store.InTx(ctx, func(tx *sqlx.Tx) error {
		pos, err := db.NextOptionPosition(ctx, tx, poll.ID)
		if err != nil {
			return err
		}
		option.Position = pos
		return db.InsertOption(ctx, tx, option)
	})
	if errors.Is(err, db.ErrReference) {
		// Poll was deleted between the load and the insert
		notFound(w, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to insert option", "poll_id", poll.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create option")
		return
	}

	slog.Info("option added", "poll_id", poll.ID, "option_id", option.ID)

	middleware.JSONResponse(w, http.StatusCreated, optionView(option))
}

// RenameOption handles PATCH /api/options/{id}. The tally is kept.
func (h *OptionHandler) RenameOption(w http.ResponseWriter, r *http.Request, c middleware.Caller) {
	option, ok := h.authorizeOption(w, r, c, auth.ActionPartialUpdate)
	if !ok {
		return
	}

	text, ok := parseOptionText(w, r)
	if !ok {
		return
	}

	err := db.UpdateOptionText(r.Context(), h.store.DB(), option.ID, text)
	if errors.Is(err, db.ErrNotFound) {
		notFound(w, "Option not found")
		return
	}
	if err != nil {
		slog.Error("failed to rename option", "option_id", option.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update option")
		return
	}

	option.Text = text
	middleware.JSONResponse(w, http.StatusOK, optionView(option))
}

// DeleteOption handles DELETE /api/options/{id}. Votes for the option are
// removed with it.
func (h *OptionHandler) DeleteOption(w http.ResponseWriter, r *http.Request, c middleware.Caller) {
	option, ok := h.authorizeOption(w, r, c, auth.ActionUpdate)
	if !ok {
		return
	}

	err := db.DeleteOption(r.Context(), h.store.DB(), option.ID)
	if errors.Is(err, db.ErrNotFound) {
		notFound(w, "Option not found")
		return
	}
	if err != nil {
		slog.Error("failed to delete option", "option_id", option.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete option")
		return
	}

	slog.Info("option deleted", "poll_id", option.PollID, "option_id", option.ID, "votes", option.Tally)

	w.WriteHeader(http.StatusNoContent)
}

// authorizeOption loads the option named by {id} and checks the caller owns
// its poll.
func (h *OptionHandler) authorizeOption(w http.ResponseWriter, r *http.Request, c middleware.Caller, action auth.Action) (models.PollOption, bool) {
	ctx := r.Context()

	option, err := db.OptionByID(ctx, h.store.DB(), r.PathValue("id"))
	if errors.Is(err, db.ErrNotFound) {
		notFound(w, "Option not found")
		return option, false
	}
	if err != nil {
		slog.Error("failed to query option", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return option, false
	}

	poll, err := db.PollByID(ctx, h.store.DB(), option.PollID)
	if errors.Is(err, db.ErrNotFound) {
		notFound(w, "Option not found")
		return option, false
	}
	if err != nil {
		slog.Error("failed to query poll", "poll_id", option.PollID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return option, false
	}

	if err := auth.Authorize(c.Principal, poll, action); err != nil {
		denyAuth(w, err)
		return option, false
	}

	return option, true
}

func parseOptionText(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req models.OptionTextRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		validationError(w, "Invalid JSON")
		return "", false
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		validationError(w, "text is required")
		return "", false
	}

	return text, true
}
