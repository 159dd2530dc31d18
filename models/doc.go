// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreatePollRequest: title, description, expires_at, options
  - UpdatePollRequest: title, description, expires_at, is_active (all optional)
  - CastVoteRequest: option_id
  - OptionTextRequest: text
  - RegisterRequest, TokenRequest, RefreshRequest, VerifyRequest

Options in CreatePollRequest may be given as plain strings or as objects:

	{"options": ["A", "B"]}
	{"options": [{"text": "A"}, {"text": "B"}]}

# Response Types

Every operation returns its own shape rather than one type that changes with
the action:

  - PollView: list, retrieve, create, update
  - ResultsView: per-option tally and percentage plus total
  - VoteReceipt: admitted vote
  - TokenPair, RegisterResponse, VerifyResponse
  - ErrorResponse: error, message, code, retry_after

# Domain Types

Rows as stored:

  - User
  - Poll: IsExpired and AcceptsVotes are computed, never stored
  - PollOption: Tally is the single source of truth for counts
  - Vote: Voter is never exposed in JSON

# Codes

Machine-readable rejection codes:

	NOT_FOUND, POLL_INACTIVE, DUPLICATE_VOTE, INVALID_OPTION,
	VALIDATION_ERROR, RATE_LIMITED, FORBIDDEN, NOT_AUTHENTICATED,
	INVALID_TOKEN, INVALID_CREDENTIALS
*/
package models
