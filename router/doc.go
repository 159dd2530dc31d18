// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the pollbox API.

# Route Registration

NewRouter wires handlers to an http.ServeMux and wraps it with CORS:

	handler := router.NewRouter(store, gate, issuer, engine, cfg)

Every API route goes through a middleware.Pipeline, which resolves the
caller from the Authorization header and runs the route's checks in order.
An invalid bearer token is rejected with 401 on every route.

# Endpoints

Health:

	GET /health
	GET /

Polls (reads throttled per caller, creation per client address):

	GET    /api/polls      - List active polls
	POST   /api/polls      - Create poll (auth)
	GET    /api/polls/{id} - Poll detail
	PUT    /api/polls/{id} - Full update (owner)
	PATCH  /api/polls/{id} - Partial update, including is_active (owner)
	DELETE /api/polls/{id} - Delete poll and its votes (owner)

Voting and results:

	POST /api/polls/{id}/vote    - Cast a vote (throttled per voter)
	GET  /api/polls/{id}/results - Tallies and percentages

Options:

	GET    /api/polls/{id}/options - List options
	POST   /api/polls/{id}/options - Add option (owner)
	PATCH  /api/options/{id}       - Rename option (owner)
	DELETE /api/options/{id}       - Delete option (owner)

Accounts:

	POST /api/auth/register      - Create account, returns a token pair
	POST /api/auth/token         - Exchange credentials for a token pair
	POST /api/auth/token/refresh - Exchange a refresh token
	POST /api/auth/token/verify  - Check a token
	GET  /api/auth/me            - Caller's account (auth)
	GET  /api/auth/me/polls      - Caller's polls (auth)
*/
package router
