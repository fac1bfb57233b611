// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/matchday-vote/cliparse"
	"github.com/danielhkuo/matchday-vote/handlers"
	"github.com/danielhkuo/matchday-vote/middleware"
)

const rootMessage = "Soccer Voting API is running"

func NewRouter(deps handlers.Deps, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	deps = deps.WithDefaults()
	voteHandler := handlers.NewVoteHandler(deps, cfg)
	m := deps.Metrics

	// Health check; ?deep=1 also pings the vote store
	mux.HandleFunc("GET /health", voteHandler.Health)

	// Votes
	mux.HandleFunc("POST /api/vote", middleware.WithLogging(m.Instrument("/api/vote", voteHandler.SubmitVote)))
	mux.HandleFunc("GET /api/votes", middleware.WithLogging(m.Instrument("/api/votes", voteHandler.GetTally)))

	// Live results; the upgrade needs the raw ResponseWriter
	if deps.Hub != nil {
		mux.HandleFunc("GET /api/votes/live", middleware.WithLogging(voteHandler.SubscribeTally))
	}

	mux.Handle("GET /metrics", m.Handler())

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rootMessage))
	})

	return mux
}
