// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

  - SubmitVoteRequest: team, homeScore, awayScore

# Response Types

  - SubmitVoteResponse: message
  - Tally: team id -> vote count, always holding both teams
  - ErrorResponse: error, message

# Domain Types

  - Teams: the two configured sides
  - Vote: one immutable vote record
  - VoteEvent: message published after a vote is stored

# Messages

	MessageVoteRegistered = "Vote registered"
	MessageInvalidTeam    = "Invalid team"
	MessageInvalidJSON    = "Invalid JSON"
*/
package models
