// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package throttle enforces per-identity request budgets for each kind of
operation.

# Budgets

A Budget allows Limit requests in any rolling Window. Budgets are written as
"N/unit" with unit one of s, m, h, d, optionally with a multiplier:

	5/h      five per hour
	10/m     ten per minute
	100/15m  a hundred per fifteen minutes

Only requests the gate admits count against the budget, so a client that
backs off is never locked out.

# Stores

  - MemoryStore: per-process sliding log; Run sweeps idle keys
  - RedisStore: sliding log in a Redis sorted set, shared by all instances

# Gate

	gate := throttle.NewGate(store, budgets)
	d, err := gate.Check(ctx, throttle.OpVoting, voterKey)
	if !d.Allowed {
		// 429, retry after d.RetryAfter
	}

When the store fails, Check allows the request and returns the error.
*/
package throttle
