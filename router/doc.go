// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the matchday voting API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(handlers.Deps{Votes: votes, Hub: hub}, cfg)

Optional dependencies left nil are replaced with disabled implementations.

# Endpoints

	GET  /health         - Health check (?deep=1 pings the vote store)
	GET  /               - Liveness text
	POST /api/vote       - Submit a vote
	GET  /api/votes      - Current tally
	GET  /api/votes/live - Tally updates over WebSocket (only with a Hub)
	GET  /metrics        - Prometheus metrics

The vote routes are logged and instrumented. The live route is only logged
because instrumentation would hide the connection from the upgrader.
*/
package router
