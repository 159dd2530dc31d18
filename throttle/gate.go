// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package throttle

import (
	"context"
	"log/slog"
	"time"
)

// Gate applies per-operation budgets to request identities.
type Gate struct {
	store   Store
	budgets map[Operation]Budget
	now     func() time.Time
}

type GateOption func(*Gate)

func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		g.now = now
	}
}

func NewGate(store Store, budgets map[Operation]Budget, opts ...GateOption) *Gate {
	g := &Gate{store: store, budgets: budgets, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Budget returns the budget configured for op, if any.
func (g *Gate) Budget(op Operation) (Budget, bool) {
	b, ok := g.budgets[op]
	return b, ok
}

// Check spends one request of identity's budget for op. Operations without a
// budget are always allowed. If the store fails the request is allowed and
// the store error is returned alongside the decision.
func (g *Gate) Check(ctx context.Context, op Operation, identity string) (Decision, error) {
	b, ok := g.budgets[op]
	if !ok {
		return Decision{Allowed: true}, nil
	}

	d, err := g.store.Take(ctx, string(op)+":"+identity, b, g.now())
	if err != nil {
		slog.Warn("throttle store unavailable, allowing request",
			"operation", op,
			"error", err,
		)
		return Decision{Allowed: true}, err
	}

	if !d.Allowed {
		slog.Info("request throttled",
			"operation", op,
			"identity", identity,
			"retry_after_ms", d.RetryAfter.Milliseconds(),
		)
	}

	return d, nil
}
