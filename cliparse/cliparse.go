// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Database types
const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
)

// Voter identity modes
const (
	VoterByAddress   = "address"
	VoterByPrincipal = "principal"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	RedisURL       string
	PollCreateRate string
	VoteRate       string
	ReadRate       string

	VoterIdentity string
	TrustProxy    bool

	LogFile  string
	LogLevel string
}

// ParseFlags validates flags and fills the rest from the environment.
// A .env file in the working directory is loaded first when present.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	fset := flag.NewFlagSet("pollbox", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fset.IntVar(&cfg.Port, "p", 0, "Server port")
	fset.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fset.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fset.StringVar(&cfg.RedisURL, "redis", "", "Redis URL for throttle budgets")

	// Secrets (prefer env variables, but allow CLI for dev)
	fset.StringVar(&cfg.JWTSecret, "jwt-secret", "", "JWT signing secret (prefer env)")
	fset.DurationVar(&cfg.AccessTokenTTL, "access-ttl", 0, "Access token lifetime")
	fset.DurationVar(&cfg.RefreshTokenTTL, "refresh-ttl", 0, "Refresh token lifetime")

	// Budgets
	fset.StringVar(&cfg.PollCreateRate, "create-rate", "", "Poll creation budget, e.g. 5/h")
	fset.StringVar(&cfg.VoteRate, "vote-rate", "", "Vote budget, e.g. 10/m")
	fset.StringVar(&cfg.ReadRate, "read-rate", "", "Read budget, e.g. 120/m")

	fset.StringVar(&cfg.VoterIdentity, "voter-identity", "", "Voter identity key (address or principal)")
	fset.BoolVar(&cfg.TrustProxy, "trust-proxy", false, "Honor X-Forwarded-For and X-Real-IP")

	fset.StringVar(&cfg.LogFile, "log-file", "", "Rotating log file path")
	fset.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")

	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = envOr("DATABASE_TYPE", DatabaseSQLite)
	}
	if cfg.DatabaseType != DatabaseSQLite && cfg.DatabaseType != DatabasePostgres {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	// Secrets - MUST be provided
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = os.Getenv("JWT_SECRET")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET required")
	}

	var err error
	if cfg.AccessTokenTTL == 0 {
		if cfg.AccessTokenTTL, err = envDuration("ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
			return Config{}, err
		}
	}
	if cfg.RefreshTokenTTL == 0 {
		if cfg.RefreshTokenTTL, err = envDuration("REFRESH_TOKEN_TTL", 24*time.Hour); err != nil {
			return Config{}, err
		}
	}

	if cfg.RedisURL == "" {
		cfg.RedisURL = os.Getenv("REDIS_URL")
	}
	if cfg.PollCreateRate == "" {
		cfg.PollCreateRate = envOr("POLL_CREATE_RATE", "5/h")
	}
	if cfg.VoteRate == "" {
		cfg.VoteRate = envOr("VOTE_RATE", "10/m")
	}
	if cfg.ReadRate == "" {
		cfg.ReadRate = envOr("READ_RATE", "120/m")
	}

	if cfg.VoterIdentity == "" {
		cfg.VoterIdentity = envOr("VOTER_IDENTITY", VoterByAddress)
	}
	if cfg.VoterIdentity != VoterByAddress && cfg.VoterIdentity != VoterByPrincipal {
		return Config{}, fmt.Errorf("unsupported voter identity %q", cfg.VoterIdentity)
	}

	if !cfg.TrustProxy {
		if v := os.Getenv("TRUST_PROXY"); v != "" {
			trust, err := strconv.ParseBool(v)
			if err != nil {
				return Config{}, errors.New("invalid TRUST_PROXY env variable")
			}
			cfg.TrustProxy = trust
		}
	}

	if cfg.LogFile == "" {
		cfg.LogFile = os.Getenv("LOG_FILE")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = envOr("LOG_LEVEL", "info")
	}

	return cfg, nil
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func envDuration(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable: %w", name, err)
	}
	return d, nil
}
