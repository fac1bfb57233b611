// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/matchday-vote/cache"
	"github.com/danielhkuo/matchday-vote/cliparse"
	"github.com/danielhkuo/matchday-vote/events"
	"github.com/danielhkuo/matchday-vote/fingerprint"
	"github.com/danielhkuo/matchday-vote/live"
	"github.com/danielhkuo/matchday-vote/metrics"
	"github.com/danielhkuo/matchday-vote/middleware"
	"github.com/danielhkuo/matchday-vote/models"
	"github.com/danielhkuo/matchday-vote/store"
)

// Deps are the collaborators shared by the handlers. Only Votes is required.
type Deps struct {
	Votes     store.VoteStore
	Cache     cache.TallyCache
	Publisher events.Publisher
	Hub       *live.Hub // nil disables live results
	Metrics   *metrics.Metrics
}

// WithDefaults fills optional collaborators with disabled implementations
func (d Deps) WithDefaults() Deps {
	if d.Cache == nil {
		d.Cache = cache.NewTallyCache(nil, 0)
	}
	if d.Publisher == nil {
		d.Publisher = events.Nop{}
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	return d
}

type VoteHandler struct {
	deps  Deps
	cfg   cliparse.Config
	teams models.Teams
}

func NewVoteHandler(deps Deps, cfg cliparse.Config) *VoteHandler {
	return &VoteHandler{
		deps:  deps.WithDefaults(),
		cfg:   cfg,
		teams: models.Teams{Home: cfg.HomeTeam, Away: cfg.AwayTeam},
	}
}

// SubmitVote handles POST /api/vote
func (h *VoteHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	// A value of the wrong type is reported against its field once the team
	// has been checked; only malformed JSON is "Invalid JSON"
	var req models.SubmitVoteRequest
	var badField string
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			h.reject(w, "invalid_json", models.MessageInvalidJSON)
			return
		}
		badField = typeErr.Field
	}

	team, ok := req.TeamName()
	if !ok || !h.teams.Valid(team) {
		h.reject(w, "invalid_team", models.MessageInvalidTeam)
		return
	}

	homeScore, ok := h.parseScore(req.HomeScore)
	if !ok || badField == "homeScore" {
		h.reject(w, "invalid_score", "Invalid homeScore")
		return
	}
	awayScore, ok := h.parseScore(req.AwayScore)
	if !ok || badField == "awayScore" {
		h.reject(w, "invalid_score", "Invalid awayScore")
		return
	}

	vote := models.Vote{
		ID:        uuid.NewString(),
		Team:      team,
		HomeScore: homeScore,
		AwayScore: awayScore,
		Timestamp: time.Now().UTC(),
		IPHash:    fingerprint.HashIP(middleware.GetClientIP(r), h.cfg.VoterHashSalt),
		UserAgent: fingerprint.UserAgent(r),
	}

	if err := h.deps.Votes.InsertVote(r.Context(), vote); err != nil {
		slog.Error("failed to save vote", "error", err, "team", vote.Team)
		middleware.StorageError(w, err)
		return
	}

	h.deps.Metrics.VotesTotal.WithLabelValues(vote.Team).Inc()
	slog.Info("vote registered", "vote_id", vote.ID, "team", vote.Team)

	h.afterVote(r.Context(), vote)

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitVoteResponse{
		Message: models.MessageVoteRegistered,
	})
}

// GetTally handles GET /api/votes
// Always returns both teams, zero when nobody voted for them
func (h *VoteHandler) GetTally(w http.ResponseWriter, r *http.Request) {
	tally, err := h.currentTally(r.Context())
	if err != nil {
		slog.Error("failed to fetch votes", "error", err)
		middleware.StorageError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, tally)
}

func (h *VoteHandler) reject(w http.ResponseWriter, reason, message string) {
	h.deps.Metrics.RejectedVotes.WithLabelValues(reason).Inc()
	middleware.ErrorResponse(w, http.StatusBadRequest, message)
}

// parseScore accepts a missing score or a whole number in [0, MaxScore]
func (h *VoteHandler) parseScore(v *float64) (*int, bool) {
	if v == nil {
		return nil, true
	}
	f := *v
	if f < 0 || f > float64(h.cfg.MaxScore) || f != math.Trunc(f) {
		return nil, false
	}
	n := int(f)
	return &n, true
}

// afterVote runs the best-effort side effects of a stored vote. None of them
// can fail the request.
func (h *VoteHandler) afterVote(ctx context.Context, vote models.Vote) {
	// Must happen before the response so the voter's next read is fresh
	if err := h.deps.Cache.Invalidate(ctx); err != nil {
		slog.Warn("failed to invalidate tally cache", "error", err)
	}

	if err := h.deps.Publisher.PublishVote(ctx, events.NewEvent(vote)); err != nil {
		slog.Warn("failed to publish vote event", "error", err, "vote_id", vote.ID)
	}

	if h.deps.Hub == nil || h.deps.Hub.Clients() == 0 {
		return
	}
	tally, err := h.currentTally(ctx)
	if err != nil {
		slog.Warn("failed to compute tally for live update", "error", err)
		return
	}
	if data, err := marshalTally(tally); err == nil {
		h.deps.Hub.Broadcast(data)
	}
}

// currentTally reads through the cache to the store
func (h *VoteHandler) currentTally(ctx context.Context) (models.Tally, error) {
	cached, ok, err := h.deps.Cache.Get(ctx)
	if err != nil {
		slog.Warn("tally cache read failed", "error", err)
	}
	if ok {
		h.deps.Metrics.CacheHits.Inc()
		return h.normalize(cached), nil
	}
	h.deps.Metrics.CacheMisses.Inc()

	counts, err := h.deps.Votes.CountByTeam(ctx)
	if err != nil {
		return nil, err
	}
	tally := h.normalize(counts)

	if err := h.deps.Cache.Set(ctx, tally); err != nil {
		slog.Warn("tally cache write failed", "error", err)
	}
	return tally, nil
}

// normalize keeps exactly the two configured teams; unknown values are dropped
func (h *VoteHandler) normalize(counts map[string]int64) models.Tally {
	tally := h.teams.EmptyTally()
	for team := range tally {
		tally[team] = counts[team]
	}
	return tally
}
