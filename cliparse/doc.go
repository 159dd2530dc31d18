// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

A .env file in the working directory is loaded before anything else, so its
values behave exactly like exported environment variables.

# CLI Flags and Environment Variables

	-p              PORT               Server port (default 3318)
	-d              DATABASE_URL       Database URL (required)
	-t              DATABASE_TYPE      sqlite (default) or postgres
	-jwt-secret     JWT_SECRET         Token signing secret (required)
	-access-ttl     ACCESS_TOKEN_TTL   Access token lifetime (default 15m)
	-refresh-ttl    REFRESH_TOKEN_TTL  Refresh token lifetime (default 24h)
	-redis          REDIS_URL          Keep throttle budgets in Redis
	-create-rate    POLL_CREATE_RATE   Poll creation budget (default 5/h)
	-vote-rate      VOTE_RATE          Vote budget (default 10/m)
	-read-rate      READ_RATE          Read budget (default 120/m)
	-voter-identity VOTER_IDENTITY     address (default) or principal
	-trust-proxy    TRUST_PROXY        Honor X-Forwarded-For / X-Real-IP
	-log-file       LOG_FILE           Rotating log file
	-log-level      LOG_LEVEL          debug, info (default), warn, error

CLI flags take precedence over environment variables.

# Voter Identity

With VOTER_IDENTITY=address every vote is keyed by the client network
address. With principal, authenticated voters are keyed by their user id and
anonymous voters still fall back to their address.
*/
package cliparse
