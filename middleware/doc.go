// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware, the request pipeline and JSON
helpers.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start at debug level and completion (status, duration_ms).

# CORS Middleware

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows GET, POST, PUT, PATCH, DELETE and OPTIONS with the Content-Type and
Authorization headers, and exposes Retry-After.

# Pipeline

A Pipeline resolves the caller (bearer token and client address) once per
request, then runs checks in order. The first denial is written and the
handler never runs:

	p := middleware.NewPipeline(issuer, cfg.TrustProxy)
	mux.HandleFunc("POST /api/polls", middleware.WithLogging(p.Handle(h.CreatePoll,
		middleware.RequireAuth,
		middleware.Throttle(gate, throttle.OpPollCreation, middleware.ByAddress),
	)))

A malformed or invalid bearer token is always a 401, even on routes that
allow anonymous callers. Throttle denials are 429 with a Retry-After header
and a retry_after field in seconds.

# Client IP Extraction

	ip := middleware.GetClientIP(r, trustProxy)

X-Forwarded-For and X-Real-IP are only read when trustProxy is set.
*/
package middleware
