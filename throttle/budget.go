// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package throttle

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/danielhkuo/pollbox/cliparse"
)

// Operation names a separately budgeted kind of request.
type Operation string

const (
	OpPollCreation Operation = "poll_creation"
	OpVoting       Operation = "voting"
	OpRead         Operation = "read"
)

// Budget allows Limit requests in any rolling Window.
type Budget struct {
	Limit  int
	Window time.Duration
}

func (b Budget) String() string {
	return fmt.Sprintf("%d/%s", b.Limit, b.Window)
}

// Decision is the outcome of spending one request against a budget.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Store keeps request history per key. Take records a hit when the budget
// allows it and records nothing when it does not.
type Store interface {
	Take(ctx context.Context, key string, b Budget, now time.Time) (Decision, error)
}

var units = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
}

// ParseBudget reads "N/unit" or "N/<k>unit", e.g. "5/h", "10/m", "100/15m".
func ParseBudget(s string) (Budget, error) {
	count, period, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || period == "" {
		return Budget{}, fmt.Errorf("invalid budget %q: expected N/unit", s)
	}

	limit, err := strconv.Atoi(count)
	if err != nil || limit <= 0 {
		return Budget{}, fmt.Errorf("invalid budget %q: limit must be a positive integer", s)
	}

	unit, ok := units[period[len(period)-1]]
	if !ok {
		return Budget{}, fmt.Errorf("invalid budget %q: unit must be one of s, m, h, d", s)
	}

	mult := 1
	if n := period[:len(period)-1]; n != "" {
		mult, err = strconv.Atoi(n)
		if err != nil || mult <= 0 {
			return Budget{}, fmt.Errorf("invalid budget %q: bad window multiplier", s)
		}
	}

	return Budget{Limit: limit, Window: time.Duration(mult) * unit}, nil
}

// BudgetsFromConfig parses the configured budget for every operation.
func BudgetsFromConfig(cfg cliparse.Config) (map[Operation]Budget, error) {
	raw := map[Operation]string{
		OpPollCreation: cfg.PollCreateRate,
		OpVoting:       cfg.VoteRate,
		OpRead:         cfg.ReadRate,
	}

	budgets := make(map[Operation]Budget, len(raw))
	var errs []error
	for op, s := range raw {
		if s == "" {
			continue
		}
		b, err := ParseBudget(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", op, err))
			continue
		}
		budgets[op] = b
	}

	return budgets, errors.Join(errs...)
}
