// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/pollbox/admission"
	"github.com/danielhkuo/pollbox/auth"
	"github.com/danielhkuo/pollbox/cliparse"
	"github.com/danielhkuo/pollbox/db"
	"github.com/danielhkuo/pollbox/handlers"
	"github.com/danielhkuo/pollbox/middleware"
	"github.com/danielhkuo/pollbox/throttle"
)

func NewRouter(store *db.Store, gate *throttle.Gate, issuer *auth.Issuer, engine *admission.Engine, cfg cliparse.Config) http.Handler {
	mux := http.NewServeMux()
	p := middleware.NewPipeline(issuer, cfg.TrustProxy)

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(store)
	optionHandler := handlers.NewOptionHandler(store)
	votingHandler := handlers.NewVotingHandler(engine, cfg)
	resultsHandler := handlers.NewResultsHandler(store)
	accountHandler := handlers.NewAccountHandler(store, issuer)
	profileHandler := handlers.NewProfileHandler(store)

	// Checks shared by several routes
	read := middleware.Throttle(gate, throttle.OpRead, middleware.ByCaller)
	create := middleware.Throttle(gate, throttle.OpPollCreation, middleware.ByAddress)
	voting := middleware.Throttle(gate, throttle.OpVoting, middleware.ByVoter(cfg.VoterIdentity))
	authed := middleware.RequireAuth

	route := func(pattern string, h middleware.Handler, checks ...middleware.Check) {
		mux.HandleFunc(pattern, middleware.WithLogging(p.Handle(h, checks...)))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Polls
	route("GET /api/polls", pollHandler.ListPolls, read)
	route("POST /api/polls", pollHandler.CreatePoll, authed, create)
	route("GET /api/polls/{id}", pollHandler.GetPoll, read)
	route("PUT /api/polls/{id}", pollHandler.UpdatePoll, authed)
	route("PATCH /api/polls/{id}", pollHandler.PatchPoll, authed)
	route("DELETE /api/polls/{id}", pollHandler.DeletePoll, authed)

	// Voting and results
	route("POST /api/polls/{id}/vote", votingHandler.CastVote, voting)
	route("GET /api/polls/{id}/results", resultsHandler.GetResults, read)

	// Options
	route("GET /api/polls/{id}/options", optionHandler.ListOptions, read)
	route("POST /api/polls/{id}/options", optionHandler.AddOption, authed)
	route("PATCH /api/options/{id}", optionHandler.RenameOption, authed)
	route("DELETE /api/options/{id}", optionHandler.DeleteOption, authed)

	// Accounts
	mux.HandleFunc("POST /api/auth/register", middleware.WithLogging(accountHandler.Register))
	mux.HandleFunc("POST /api/auth/token", middleware.WithLogging(accountHandler.Token))
	mux.HandleFunc("POST /api/auth/token/refresh", middleware.WithLogging(accountHandler.RefreshToken))
	mux.HandleFunc("POST /api/auth/token/verify", middleware.WithLogging(accountHandler.VerifyToken))
	route("GET /api/auth/me", profileHandler.GetMe, authed)
	route("GET /api/auth/me/polls", profileHandler.GetMyPolls, authed)

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pollbox API v1"))
	})

	return middleware.CORS(mux)
}
