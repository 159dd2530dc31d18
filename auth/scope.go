// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"

	"github.com/danielhkuo/pollbox/models"
)

var (
	ErrUnauthenticated    = errors.New("authentication credentials were not provided")
	ErrForbidden          = errors.New("you do not have permission to perform this action")
	ErrInvalidToken       = errors.New("token is invalid or expired")
	ErrInvalidCredentials = errors.New("no active account found with the given credentials")
)

// Principal is an authenticated user.
type Principal struct {
	UserID   string
	Username string
}

// Action is something a caller may try to do with a poll.
type Action string

const (
	ActionList          Action = "list"
	ActionRetrieve      Action = "retrieve"
	ActionResults       Action = "results"
	ActionCreate        Action = "create"
	ActionUpdate        Action = "update"
	ActionPartialUpdate Action = "partial_update"
	ActionDestroy       Action = "destroy"
)

// Authorize decides whether p may perform a on poll. p is nil for anonymous
// callers. Reads are open to everyone, creation needs any principal, and
// mutation is reserved for the poll's creator. poll is ignored for reads and
// creation.
func Authorize(p *Principal, poll models.Poll, a Action) error {
	switch a {
	case ActionList, ActionRetrieve, ActionResults:
		return nil
	case ActionCreate:
		if p == nil {
			return ErrUnauthenticated
		}
		return nil
	case ActionUpdate, ActionPartialUpdate, ActionDestroy:
		if p == nil {
			return ErrUnauthenticated
		}
		if p.UserID != poll.CreatorID {
			return ErrForbidden
		}
		return nil
	}
	return ErrForbidden
}
