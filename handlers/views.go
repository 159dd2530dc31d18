// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/danielhkuo/pollbox/auth"
	"github.com/danielhkuo/pollbox/middleware"
	"github.com/danielhkuo/pollbox/models"
	"github.com/danielhkuo/pollbox/tally"
)

// pollView builds the detail shape shared by list, retrieve, create and
// update. total_votes and is_expired are derived here and never stored.
func pollView(p models.Poll, options []models.PollOption, now time.Time) models.PollView {
	views := make([]models.OptionView, len(options))
	for i, o := range options {
		views[i] = optionView(o)
	}

	return models.PollView{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		CreatedBy:   models.UserSummary{ID: p.CreatorID, Username: p.CreatorUsername},
		CreatedAt:   p.CreatedAt,
		ExpiresAt:   p.ExpiresAt,
		IsActive:    p.IsActive,
		Options:     views,
		TotalVotes:  tally.TotalVotes(options),
		IsExpired:   p.IsExpired(now),
	}
}

func optionView(o models.PollOption) models.OptionView {
	return models.OptionView{ID: o.ID, Text: o.Text, Tally: o.Tally}
}

func validationError(w http.ResponseWriter, message string) {
	middleware.ErrorWithCode(w, http.StatusBadRequest, models.CodeValidation, message)
}

func notFound(w http.ResponseWriter, message string) {
	middleware.ErrorWithCode(w, http.StatusNotFound, models.CodeNotFound, message)
}

// denyAuth reports an auth.Authorize refusal.
func denyAuth(w http.ResponseWriter, err error) {
	if errors.Is(err, auth.ErrUnauthenticated) {
		middleware.ErrorWithCode(w, http.StatusUnauthorized, models.CodeUnauthorized, err.Error())
		return
	}
	middleware.ErrorWithCode(w, http.StatusForbidden, models.CodeForbidden, "You can only modify polls you created.")
}
