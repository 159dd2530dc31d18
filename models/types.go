// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"time"

	"github.com/goccy/go-json"
)

// Rejection codes reported to clients
const (
	CodeNotFound       = "NOT_FOUND"
	CodePollInactive   = "POLL_INACTIVE"
	CodeDuplicateVote  = "DUPLICATE_VOTE"
	CodeInvalidOption  = "INVALID_OPTION"
	CodeValidation     = "VALIDATION_ERROR"
	CodeRateLimited    = "RATE_LIMITED"
	CodeForbidden      = "FORBIDDEN"
	CodeUnauthorized   = "NOT_AUTHENTICATED"
	CodeInvalidToken   = "INVALID_TOKEN"
	CodeInvalidAccount = "INVALID_CREDENTIALS"
)

// Request types

// OptionInput accepts either a bare string or an object with a text field,
// so both ["A","B"] and [{"text":"A"}] are valid option lists.
type OptionInput struct {
	Text string `json:"text"`
}

func (o *OptionInput) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		o.Text = s
		return nil
	}
	var obj struct {
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.Text == nil {
		return errors.New("option must be a string or an object with text")
	}
	o.Text = *obj.Text
	return nil
}

type CreatePollRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	ExpiresAt   *time.Time    `json:"expires_at"`
	Options     []OptionInput `json:"options"`
}

// Nil fields are left untouched by a partial update.
type UpdatePollRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	ExpiresAt   *time.Time `json:"expires_at"`
	IsActive    *bool      `json:"is_active"`
}

type CastVoteRequest struct {
	OptionID string `json:"option_id"`
}

type OptionTextRequest struct {
	Text string `json:"text"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type VerifyRequest struct {
	Token string `json:"token"`
}

// Domain types

type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type Poll struct {
	ID              string    `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Description     string    `json:"description" db:"description"`
	CreatorID       string    `json:"creator_id" db:"creator_id"`
	CreatorUsername string    `json:"-" db:"creator_username"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	ExpiresAt       time.Time `json:"expires_at" db:"expires_at"`
	IsActive        bool      `json:"is_active" db:"is_active"`
}

// IsExpired reports whether now is past the expiry timestamp.
func (p Poll) IsExpired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// AcceptsVotes reports whether the poll is active and not expired.
func (p Poll) AcceptsVotes(now time.Time) bool {
	return p.IsActive && !p.IsExpired(now)
}

type PollOption struct {
	ID       string `json:"id" db:"id"`
	PollID   string `json:"poll_id" db:"poll_id"`
	Text     string `json:"text" db:"text"`
	Tally    int64  `json:"tally" db:"tally"`
	Position int    `json:"-" db:"position"`
}

type Vote struct {
	ID       string    `json:"id" db:"id"`
	PollID   string    `json:"poll_id" db:"poll_id"`
	OptionID string    `json:"option_id" db:"option_id"`
	Voter    string    `json:"-" db:"voter"` // Never expose in JSON
	VotedAt  time.Time `json:"voted_at" db:"voted_at"`
}

// Response types. Each operation has its own shape.

type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type OptionView struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Tally int64  `json:"tally"`
}

// PollView is returned by list, retrieve, create and update.
type PollView struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	CreatedBy   UserSummary  `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
	ExpiresAt   time.Time    `json:"expires_at"`
	IsActive    bool         `json:"is_active"`
	Options     []OptionView `json:"options"`
	TotalVotes  int64        `json:"total_votes"`
	IsExpired   bool         `json:"is_expired"`
}

type OptionResult struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Tally      int64   `json:"tally"`
	Percentage float64 `json:"percentage"`
}

// ResultsView is returned by the results operation.
// Percentages are rounded individually and may not sum to exactly 100.
type ResultsView struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Total       int64          `json:"total"`
	Options     []OptionResult `json:"options"`
	CreatedAt   time.Time      `json:"created_at"`
	ExpiresAt   time.Time      `json:"expires_at"`
}

// VoteReceipt is returned when a vote is admitted.
type VoteReceipt struct {
	Message  string    `json:"message"`
	VoteID   string    `json:"vote_id"`
	PollID   string    `json:"poll_id"`
	OptionID string    `json:"option_id"`
	Option   string    `json:"option"`
	Poll     string    `json:"poll"`
	VotedAt  time.Time `json:"voted_at"`
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type RegisterResponse struct {
	Message  string `json:"message"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	TokenPair
}

type VerifyResponse struct {
	Valid bool `json:"valid"`
}

// ProfileResponse describes the authenticated user.
type ProfileResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// MyPollSummary is one poll in the creator's own listing, closed ones included.
type MyPollSummary struct {
	PollID     string    `json:"poll_id"`
	Title      string    `json:"title"`
	IsActive   bool      `json:"is_active"`
	IsExpired  bool      `json:"is_expired"`
	TotalVotes int64     `json:"total_votes"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type MyPollsResponse struct {
	Polls []MyPollSummary `json:"polls"`
}

// Error response

type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"`
}
