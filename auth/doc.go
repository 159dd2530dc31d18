// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides principals, credentials and poll authorization.

# Authorization

Authorize decides whether a principal may perform an action on a poll:

	if err := auth.Authorize(caller.Principal, poll, auth.ActionDestroy); err != nil {
		// ErrUnauthenticated -> 401, ErrForbidden -> 403
	}

  - list, retrieve, results: anyone, including anonymous callers
  - create: any authenticated principal
  - update, partial_update, destroy: the poll's creator only

A forbidden caller can still see the poll; the action is what is refused.

# Passwords

Passwords are stored as bcrypt hashes:

	hash, err := auth.HashPassword(password)
	ok := auth.CheckPassword(hash, password)

# Tokens

An Issuer signs HS256 JWT pairs. Both tokens carry the user id as subject,
the username, a token_type of "access" or "refresh", and a random jti:

	issuer := auth.NewIssuer([]byte(cfg.JWTSecret), cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	pair, err := issuer.IssuePair(auth.Principal{UserID: u.ID, Username: u.Username})
	p, err := issuer.ParseAccess(pair.Access)
	next, err := issuer.Refresh(pair.Refresh)

Only access tokens authenticate requests; only refresh tokens can be
exchanged. Every failure is reported as ErrInvalidToken.
*/
package auth
