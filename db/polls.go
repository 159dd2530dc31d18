// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/pollbox/models"
)

const selectPoll = `
	SELECT p.id, p.title, p.description, p.creator_id, u.username AS creator_username,
	       p.created_at, p.expires_at, p.is_active
	FROM poll p
	JOIN users u ON u.id = p.creator_id`

const selectOption = `SELECT id, poll_id, text, tally, position FROM poll_option`

// CreatePollWithOptions inserts a poll together with its options. Either all
// rows are written or none are.
func (s *Store) CreatePollWithOptions(ctx context.Context, p models.Poll, options []models.PollOption) error {
	return s.InTx(ctx, func(tx *sqlx.Tx) error {
		if err := InsertPoll(ctx, tx, p); err != nil {
			return err
		}
		for _, o := range options {
			if err := InsertOption(ctx, tx, o); err != nil {
				return err
			}
		}
		return nil
	})
}

func InsertPoll(ctx context.Context, e sqlx.ExecerContext, p models.Poll) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO poll (id, title, description, creator_id, created_at, expires_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.Title, p.Description, p.CreatorID, p.CreatedAt.UTC(), p.ExpiresAt.UTC(), p.IsActive)
	if err != nil {
		return fmt.Errorf("insert poll: %w", CastErr(err))
	}
	return nil
}

// PollByID returns ErrNotFound when no poll has the given id.
func PollByID(ctx context.Context, q sqlx.QueryerContext, id string) (models.Poll, error) {
	var p models.Poll
	if err := sqlx.GetContext(ctx, q, &p, selectPoll+` WHERE p.id = $1`, id); err != nil {
		return p, CastErr(err)
	}
	return p, nil
}

// LockPoll loads a poll inside tx and holds it until tx ends, so a
// read-modify-write of the row cannot interleave with another. SQLite
// transactions already take the write lock when they begin.
func (s *Store) LockPoll(ctx context.Context, tx *sqlx.Tx, id string) (models.Poll, error) {
	if s.SerializesWrites() {
		return PollByID(ctx, tx, id)
	}

	var p models.Poll
	if err := sqlx.GetContext(ctx, tx, &p, selectPoll+` WHERE p.id = $1 FOR UPDATE OF p`, id); err != nil {
		return p, CastErr(err)
	}
	return p, nil
}

// ListActivePolls returns polls flagged active, newest first. Expired polls
// are still listed; callers report expiry through the view.
func ListActivePolls(ctx context.Context, q sqlx.QueryerContext) ([]models.Poll, error) {
	var polls []models.Poll
	err := sqlx.SelectContext(ctx, q, &polls, selectPoll+`
		WHERE p.is_active = $1
		ORDER BY p.created_at DESC, p.id`, true)
	if err != nil {
		return nil, fmt.Errorf("list polls: %w", err)
	}
	return polls, nil
}

// PollsByCreator returns every poll a user created, active or not, newest
// first.
func PollsByCreator(ctx context.Context, q sqlx.QueryerContext, creatorID string) ([]models.Poll, error) {
	polls := []models.Poll{}
	err := sqlx.SelectContext(ctx, q, &polls, selectPoll+`
		WHERE p.creator_id = $1
		ORDER BY p.created_at DESC, p.id`, creatorID)
	if err != nil {
		return nil, fmt.Errorf("list polls by creator: %w", err)
	}
	return polls, nil
}

// UpdatePoll overwrites the mutable fields of an existing poll.
func UpdatePoll(ctx context.Context, e sqlx.ExecerContext, p models.Poll) error {
	res, err := e.ExecContext(ctx, `
		UPDATE poll SET title = $1, description = $2, expires_at = $3, is_active = $4
		WHERE id = $5
	`, p.Title, p.Description, p.ExpiresAt.UTC(), p.IsActive, p.ID)
	if err != nil {
		return fmt.Errorf("update poll: %w", CastErr(err))
	}
	return expectOne(res)
}

// DeletePoll removes a poll. Options and votes go with it.
func DeletePoll(ctx context.Context, e sqlx.ExecerContext, id string) error {
	res, err := e.ExecContext(ctx, `DELETE FROM poll WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete poll: %w", err)
	}
	return expectOne(res)
}

func InsertOption(ctx context.Context, e sqlx.ExecerContext, o models.PollOption) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO poll_option (id, poll_id, text, tally, position)
		VALUES ($1, $2, $3, $4, $5)
	`, o.ID, o.PollID, o.Text, o.Tally, o.Position)
	if err != nil {
		return fmt.Errorf("insert option: %w", CastErr(err))
	}
	return nil
}

// OptionsByPoll returns a poll's options in creation order.
func OptionsByPoll(ctx context.Context, q sqlx.QueryerContext, pollID string) ([]models.PollOption, error) {
	options := []models.PollOption{}
	err := sqlx.SelectContext(ctx, q, &options, selectOption+`
		WHERE poll_id = $1
		ORDER BY position, id`, pollID)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	return options, nil
}

func OptionByID(ctx context.Context, q sqlx.QueryerContext, id string) (models.PollOption, error) {
	var o models.PollOption
	if err := sqlx.GetContext(ctx, q, &o, selectOption+` WHERE id = $1`, id); err != nil {
		return o, CastErr(err)
	}
	return o, nil
}

// NextOptionPosition returns the position for an option appended to the poll.
func NextOptionPosition(ctx context.Context, q sqlx.QueryerContext, pollID string) (int, error) {
	var pos int
	err := sqlx.GetContext(ctx, q, &pos,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM poll_option WHERE poll_id = $1`, pollID)
	if err != nil {
		return 0, fmt.Errorf("option position: %w", err)
	}
	return pos, nil
}

func UpdateOptionText(ctx context.Context, e sqlx.ExecerContext, id, text string) error {
	res, err := e.ExecContext(ctx, `UPDATE poll_option SET text = $1 WHERE id = $2`, text, id)
	if err != nil {
		return fmt.Errorf("update option: %w", CastErr(err))
	}
	return expectOne(res)
}

// DeleteOption removes an option and every vote cast for it.
func DeleteOption(ctx context.Context, e sqlx.ExecerContext, id string) error {
	res, err := e.ExecContext(ctx, `DELETE FROM poll_option WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete option: %w", err)
	}
	return expectOne(res)
}
