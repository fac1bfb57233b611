// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"time"
)

// Response messages
const (
	MessageVoteRegistered = "Vote registered"
	MessageInvalidTeam    = "Invalid team"
	MessageInvalidJSON    = "Invalid JSON"
)

// Teams is the closed pair of sides a vote can name
type Teams struct {
	Home string
	Away string
}

// Valid reports whether team is one of the two sides
func (t Teams) Valid(team string) bool {
	return team != "" && (team == t.Home || team == t.Away)
}

// EmptyTally returns a tally with both sides at zero
func (t Teams) EmptyTally() Tally {
	return Tally{t.Home: 0, t.Away: 0}
}

// Request types

// Team stays raw so a non-string team is an invalid team rather than
// invalid JSON. Scores decode as float64 so fractional values can be
// rejected with a validation error instead of a JSON error.
type SubmitVoteRequest struct {
	Team      json.RawMessage `json:"team,omitempty"`
	HomeScore *float64        `json:"homeScore,omitempty"`
	AwayScore *float64        `json:"awayScore,omitempty"`
}

// TeamName returns the team as a string, or false when it is absent or not a
// JSON string
func (r SubmitVoteRequest) TeamName() (string, bool) {
	var team string
	if err := json.Unmarshal(r.Team, &team); err != nil {
		return "", false
	}
	return team, true
}

// Response types

type SubmitVoteResponse struct {
	Message string `json:"message"`
}

// Tally maps team id -> number of votes
type Tally map[string]int64

// Domain types

type Vote struct {
	ID        string    `json:"id" bson:"_id"`
	Team      string    `json:"team" bson:"team"`
	HomeScore *int      `json:"homeScore,omitempty" bson:"homeScore,omitempty"`
	AwayScore *int      `json:"awayScore,omitempty" bson:"awayScore,omitempty"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	IPHash    string    `json:"-" bson:"ipHash,omitempty"`    // Never expose in JSON
	UserAgent string    `json:"-" bson:"userAgent,omitempty"` // Never expose in JSON
}

// VoteEvent is published for every accepted vote
type VoteEvent struct {
	VoteID    string    `json:"vote_id"`
	Team      string    `json:"team"`
	HomeScore *int      `json:"homeScore,omitempty"`
	AwayScore *int      `json:"awayScore,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
