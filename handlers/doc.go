// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the pollbox API.

# Handler Types

Each handler is a struct holding its dependencies:

  - PollHandler: Poll list, detail, create, update, delete
  - OptionHandler: Option list, add, rename, delete
  - VotingHandler: Vote casting through the admission engine
  - ResultsHandler: Tallies and percentages
  - AccountHandler: Registration and token exchange
  - ProfileHandler: The caller's account and polls

Handlers are created via constructor functions:

	pollHandler := handlers.NewPollHandler(store)
	votingHandler := handlers.NewVotingHandler(engine, cfg)

# Callers

Most handlers take a middleware.Caller as a third argument. The router's
pipeline resolves it from the bearer token and client address before the
handler runs, so handlers never read the Authorization header themselves.
Throttling and the authentication requirement also happen in the pipeline.

Ownership is checked here, after the poll is loaded, with auth.Authorize:
an unknown poll is 404 and a poll owned by someone else is 403.

# Voting

	POST /api/polls/{id}/vote → CastVote

The vote is recorded under Caller.VoterKey for the configured voter
identity mode. Admission rejections map to 404 for an unknown poll and 400
for the rest (POLL_INACTIVE, DUPLICATE_VOTE, INVALID_OPTION).

# Results

Results are computed from stored tallies on every request, for open and
closed polls alike. Each percentage is rounded to two places on its own.
*/
package handlers
