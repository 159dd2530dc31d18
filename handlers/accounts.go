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

	"github.com/danielhkuo/pollbox/auth"
	"github.com/danielhkuo/pollbox/db"
	"github.com/danielhkuo/pollbox/middleware"
	"github.com/danielhkuo/pollbox/models"
)

// AccountHandler registers users and exchanges credentials for tokens.
type AccountHandler struct {
	store  *db.Store
	issuer *auth.Issuer
}

func NewAccountHandler(store *db.Store, issuer *auth.Issuer) *AccountHandler {
	return &AccountHandler{store: store, issuer: issuer}
}

// Register handles POST /api/auth/register
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.RegisterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		validationError(w, "Invalid JSON")
		return
	}

	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" || req.Password == "" {
		validationError(w, "Username, email, and password are required")
		return
	}

	if msg, err := h.taken(r, username, email); err != nil {
		slog.Error("failed to check account", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	} else if msg != "" {
		validationError(w, msg)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		validationError(w, "Password must be at most 72 bytes")
		return
	}
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	err = db.InsertUser(ctx, h.store.DB(), user)
	if errors.Is(err, db.ErrConflict) {
		// Lost a race with a concurrent registration
		msg, _ := h.taken(r, username, email)
		if msg == "" {
			msg = "Username already exists"
		}
		validationError(w, msg)
		return
	}
	if err != nil {
		slog.Error("failed to insert user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	pair, err := h.issuer.IssuePair(auth.Principal{UserID: user.ID, Username: user.Username})
	if err != nil {
		slog.Error("failed to issue tokens", "user_id", user.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to issue tokens")
		return
	}

	slog.Info("user registered", "user_id", user.ID, "username", user.Username)

	middleware.JSONResponse(w, http.StatusCreated, models.RegisterResponse{
		Message:   "User created successfully",
		UserID:    user.ID,
		Username:  user.Username,
		TokenPair: pair,
	})
}

// taken returns the message for an already used username or email, or "".
func (h *AccountHandler) taken(r *http.Request, username, email string) (string, error) {
	ctx := r.Context()

	taken, err := db.UsernameTaken(ctx, h.store.DB(), username)
	if err != nil {
		return "", err
	}
	if taken {
		return "Username already exists", nil
	}

	taken, err = db.EmailTaken(ctx, h.store.DB(), email)
	if err != nil {
		return "", err
	}
	if taken {
		return "Email already exists", nil
	}

	return "", nil
}

// Token handles POST /api/auth/token
func (h *AccountHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req models.TokenRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		validationError(w, "Invalid JSON")
		return
	}
	if req.Username == "" || req.Password == "" {
		validationError(w, "username and password are required")
		return
	}

	user, err := db.UserByUsername(r.Context(), h.store.DB(), req.Username)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		middleware.ErrorWithCode(w, http.StatusUnauthorized, models.CodeInvalidAccount, auth.ErrInvalidCredentials.Error())
		return
	}

	pair, err := h.issuer.IssuePair(auth.Principal{UserID: user.ID, Username: user.Username})
	if err != nil {
		slog.Error("failed to issue tokens", "user_id", user.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to issue tokens")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, pair)
}

// RefreshToken handles POST /api/auth/token/refresh
func (h *AccountHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		validationError(w, "Invalid JSON")
		return
	}
	if req.Refresh == "" {
		validationError(w, "refresh is required")
		return
	}

	pair, err := h.issuer.Refresh(req.Refresh)
	if err != nil {
		middleware.ErrorWithCode(w, http.StatusUnauthorized, models.CodeInvalidToken, auth.ErrInvalidToken.Error())
		return
	}

	middleware.JSONResponse(w, http.StatusOK, pair)
}

// VerifyToken handles POST /api/auth/token/verify
func (h *AccountHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		validationError(w, "Invalid JSON")
		return
	}
	if req.Token == "" {
		validationError(w, "token is required")
		return
	}

	if err := h.issuer.Verify(req.Token); err != nil {
		middleware.ErrorWithCode(w, http.StatusUnauthorized, models.CodeInvalidToken, auth.ErrInvalidToken.Error())
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.VerifyResponse{Valid: true})
}
