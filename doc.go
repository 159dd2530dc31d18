// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the pollbox API server.

pollbox is a single-choice polling service. Registered users create polls
with a fixed expiry; anyone may vote once per poll, and results are
reported as tallies with percentages.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=pollbox.db JWT_SECRET=... go run .

Or against PostgreSQL with flags:

	go run . -p 3318 -t postgres -d "postgres://..." --jwt-secret ...

A .env file in the working directory is read when present.

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite file or PostgreSQL connection string
  - JWT_SECRET (--jwt-secret): Token signing secret

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - REDIS_URL (--redis): Keep throttle budgets in Redis
  - POLL_CREATE_RATE, VOTE_RATE, READ_RATE: Budgets (default: 5/h, 10/m, 120/m)
  - VOTER_IDENTITY: address or principal (default: address)
  - TRUST_PROXY: Honor X-Forwarded-For and X-Real-IP
  - LOG_FILE, LOG_LEVEL: Rotating log file and level

# Architecture

  - handlers: HTTP request handlers (polls, options, voting, results, accounts)
  - router: Route definitions using Go 1.22+ routing
  - middleware: Request pipeline, CORS, logging, JSON helpers
  - admission: Vote admission engine
  - tally: Result aggregation
  - throttle: Per-operation request budgets
  - auth: Tokens, passwords, authorization scoping
  - models: Request/response types
  - db: Schema and queries
  - logging: Default logger setup
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
