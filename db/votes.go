// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/pollbox/models"
)

// VoteExists reports whether voter already has a vote on the poll.
func VoteExists(ctx context.Context, q sqlx.QueryerContext, pollID, voter string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, q, &n,
		`SELECT COUNT(*) FROM vote WHERE poll_id = $1 AND voter = $2`, pollID, voter)
	if err != nil {
		return false, fmt.Errorf("check vote: %w", err)
	}
	return n > 0, nil
}

// InsertVote records a vote. A second vote by the same voter on the same poll
// fails with ErrConflict; an option outside the poll fails with ErrReference.
func InsertVote(ctx context.Context, e sqlx.ExecerContext, v models.Vote) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO vote (id, poll_id, option_id, voter, voted_at)
		VALUES ($1, $2, $3, $4, $5)
	`, v.ID, v.PollID, v.OptionID, v.Voter, v.VotedAt.UTC())
	if err != nil {
		return CastErr(err)
	}
	return nil
}

// IncrementTally adds one to the option's stored tally and returns the number
// of rows changed. The increment is relative so concurrent votes never
// overwrite each other.
func IncrementTally(ctx context.Context, e sqlx.ExecerContext, pollID, optionID string) (int64, error) {
	res, err := e.ExecContext(ctx,
		`UPDATE poll_option SET tally = tally + 1 WHERE id = $1 AND poll_id = $2`, optionID, pollID)
	if err != nil {
		return 0, fmt.Errorf("increment tally: %w", err)
	}
	return res.RowsAffected()
}

// CountVotes counts vote rows for an option. The stored tally must always
// agree with it.
func CountVotes(ctx context.Context, q sqlx.QueryerContext, optionID string) (int64, error) {
	var n int64
	err := sqlx.GetContext(ctx, q, &n, `SELECT COUNT(*) FROM vote WHERE option_id = $1`, optionID)
	if err != nil {
		return 0, fmt.Errorf("count votes: %w", err)
	}
	return n, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
