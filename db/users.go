// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/pollbox/models"
)

const selectUser = `SELECT id, username, email, password_hash, created_at FROM users`

// InsertUser fails with ErrConflict when the username or email is taken.
func InsertUser(ctx context.Context, e sqlx.ExecerContext, u models.User) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.CreatedAt.UTC())
	if err != nil {
		return CastErr(err)
	}
	return nil
}

func UserByUsername(ctx context.Context, q sqlx.QueryerContext, username string) (models.User, error) {
	var u models.User
	if err := sqlx.GetContext(ctx, q, &u, selectUser+` WHERE username = $1`, username); err != nil {
		return u, CastErr(err)
	}
	return u, nil
}

func UserByID(ctx context.Context, q sqlx.QueryerContext, id string) (models.User, error) {
	var u models.User
	if err := sqlx.GetContext(ctx, q, &u, selectUser+` WHERE id = $1`, id); err != nil {
		return u, CastErr(err)
	}
	return u, nil
}

func UsernameTaken(ctx context.Context, q sqlx.QueryerContext, username string) (bool, error) {
	return exists(ctx, q, `SELECT COUNT(*) FROM users WHERE username = $1`, username)
}

func EmailTaken(ctx context.Context, q sqlx.QueryerContext, email string) (bool, error) {
	return exists(ctx, q, `SELECT COUNT(*) FROM users WHERE email = $1`, email)
}

func exists(ctx context.Context, q sqlx.QueryerContext, query string, args ...interface{}) (bool, error) {
	var n int
	if err := sqlx.GetContext(ctx, q, &n, query, args...); err != nil {
		return false, fmt.Errorf("lookup: %w", err)
	}
	return n > 0, nil
}
