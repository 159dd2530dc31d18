// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package admission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/pollbox/db"
	"github.com/danielhkuo/pollbox/models"
)

// Ballot is one vote attempt.
type Ballot struct {
	PollID   string
	OptionID string
	Voter    string
}

// Rejection is a business-rule refusal. It carries the code reported to
// clients and is never an internal failure.
type Rejection struct {
	Code    string
	Message string
}

func (r *Rejection) Error() string {
	return r.Message
}

var (
	ErrPollNotFound  = &Rejection{Code: models.CodeNotFound, Message: "Poll not found"}
	ErrPollInactive  = &Rejection{Code: models.CodePollInactive, Message: "This poll is no longer accepting votes"}
	ErrDuplicateVote = &Rejection{Code: models.CodeDuplicateVote, Message: "You have already voted on this poll"}
	ErrInvalidOption = &Rejection{Code: models.CodeInvalidOption, Message: "Invalid option for this poll"}
)

var errNoVoter = errors.New("admission: voter identity is required")

// Engine decides whether a vote is admitted and records admitted votes.
type Engine struct {
	store *db.Store
	now   func() time.Time
	locks *pollLocks

	// beforeInsert runs after the pre-checks pass, inside the transaction.
	beforeInsert func(ctx context.Context, tx *sqlx.Tx, b Ballot) error
}

type Option func(*Engine)

// WithClock replaces time.Now for expiry checks and vote timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithPollLocks serializes admissions per poll inside this process. Use it
// when the store cannot isolate concurrent check-and-write sequences itself.
func WithPollLocks() Option {
	return func(e *Engine) {
		e.locks = newPollLocks()
	}
}

func NewEngine(store *db.Store, opts ...Option) *Engine {
	e := &Engine{store: store, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CastVote admits or rejects a ballot. Checks run in this order, and the
// first failure ends the attempt with no effect:
//
//  1. the poll exists (ErrPollNotFound)
//  2. it is active and not expired (ErrPollInactive)
//  3. the voter has not voted on it (ErrDuplicateVote)
//  4. the option belongs to it (ErrInvalidOption)
//
// An admitted vote and its tally increment commit in one transaction. A
// voter who loses a race against their own concurrent vote is rejected with
// ErrDuplicateVote, the same as the pre-check.
func (e *Engine) CastVote(ctx context.Context, b Ballot) (models.VoteReceipt, error) {
	if b.Voter == "" {
		return models.VoteReceipt{}, errNoVoter
	}

	if e.locks != nil {
		unlock := e.locks.lock(b.PollID)
		defer unlock()
	}

	var receipt models.VoteReceipt
	err := e.store.InTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		receipt, err = e.admit(ctx, tx, b)
		return err
	})
	if errors.Is(err, db.ErrConflict) {
		err = ErrDuplicateVote
	}
	if err != nil {
		return models.VoteReceipt{}, err
	}

	slog.Info("vote recorded",
		"poll_id", receipt.PollID,
		"option_id", receipt.OptionID,
		"vote_id", receipt.VoteID,
	)

	return receipt, nil
}

func (e *Engine) admit(ctx context.Context, tx *sqlx.Tx, b Ballot) (models.VoteReceipt, error) {
	poll, err := db.PollByID(ctx, tx, b.PollID)
	if errors.Is(err, db.ErrNotFound) {
		return models.VoteReceipt{}, ErrPollNotFound
	}
	if err != nil {
		return models.VoteReceipt{}, fmt.Errorf("load poll: %w", err)
	}

	now := e.now().UTC()
	if !poll.AcceptsVotes(now) {
		return models.VoteReceipt{}, ErrPollInactive
	}

	voted, err := db.VoteExists(ctx, tx, poll.ID, b.Voter)
	if err != nil {
		return models.VoteReceipt{}, err
	}
	if voted {
		return models.VoteReceipt{}, ErrDuplicateVote
	}

	option, err := db.OptionByID(ctx, tx, b.OptionID)
	if errors.Is(err, db.ErrNotFound) || (err == nil && option.PollID != poll.ID) {
		return models.VoteReceipt{}, ErrInvalidOption
	}
	if err != nil {
		return models.VoteReceipt{}, fmt.Errorf("load option: %w", err)
	}

	if e.beforeInsert != nil {
		if err := e.beforeInsert(ctx, tx, b); err != nil {
			return models.VoteReceipt{}, err
		}
	}

	vote := models.Vote{
		ID:       uuid.NewString(),
		PollID:   poll.ID,
		OptionID: option.ID,
		Voter:    b.Voter,
		VotedAt:  now,
	}
	err = db.InsertVote(ctx, tx, vote)
	switch {
	case errors.Is(err, db.ErrConflict):
		return models.VoteReceipt{}, ErrDuplicateVote
	case errors.Is(err, db.ErrReference):
		return models.VoteReceipt{}, ErrInvalidOption
	case err != nil:
		return models.VoteReceipt{}, fmt.Errorf("insert vote: %w", err)
	}

	n, err := db.IncrementTally(ctx, tx, poll.ID, option.ID)
	if err != nil {
		return models.VoteReceipt{}, err
	}
	if n != 1 {
		return models.VoteReceipt{}, fmt.Errorf("tally increment touched %d rows", n)
	}

	return models.VoteReceipt{
		Message:  "Vote recorded successfully",
		VoteID:   vote.ID,
		PollID:   poll.ID,
		OptionID: option.ID,
		Option:   option.Text,
		Poll:     poll.Title,
		VotedAt:  vote.VotedAt,
	}, nil
}
