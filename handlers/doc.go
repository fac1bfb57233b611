// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the matchday voting API.

# VoteHandler

VoteHandler serves every vote route. It is built from Deps and Config:

	h := handlers.NewVoteHandler(handlers.Deps{Votes: votes}, cfg)

Only Deps.Votes is required. A nil Cache, Publisher or Metrics is replaced
with a disabled implementation; a nil Hub turns off live results.

# Submitting Votes

	POST /api/vote → SubmitVote

The team must be one of the two configured ids. Scores are optional whole
numbers between 0 and MaxScore. Validation failures return 400 with the
message in "error"; storage failures return 500. An empty or non-JSON body
is treated as a vote without a team.

After a vote is stored the tally cache is invalidated, a vote event is
published and live subscribers receive the new tally. None of these can
fail the request.

# Tallies

	GET /api/votes      → GetTally
	GET /api/votes/live → SubscribeTally

Tallies always contain both teams. They are read through the cache.

# Health

	GET /health         → Health
	GET /health?deep=1  → Health after pinging the vote store (503 on failure)
*/
package handlers
