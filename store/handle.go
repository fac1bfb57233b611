// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danielhkuo/matchday-vote/models"
)

const connectTimeout = 10 * time.Second

// Opener dials a backend and returns a ready store
type Opener func(ctx context.Context) (VoteStore, error)

// Handle owns the shared store connection. The first call opens it; a failed
// open is not remembered, so the next call tries again.
type Handle struct {
	open Opener

	mu      sync.Mutex // serializes opens
	current atomic.Pointer[storeRef]
}

type storeRef struct {
	vs VoteStore
}

// NewHandle returns a handle that opens its store with open on first use.
// A nil opener yields ErrNotConfigured on every call.
func NewHandle(open Opener) *Handle {
	return &Handle{open: open}
}

func (h *Handle) get(ctx context.Context) (VoteStore, error) {
	if ref := h.current.Load(); ref != nil {
		return ref.vs, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// Another request may have finished opening while we waited
	if ref := h.current.Load(); ref != nil {
		return ref.vs, nil
	}

	if h.open == nil {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	start := time.Now()
	vs, err := h.open(ctx)
	if err != nil {
		slog.Error("vote store connection failed", "error", err)
		return nil, err
	}

	h.current.Store(&storeRef{vs: vs})
	slog.Info("vote store connected", "duration_ms", time.Since(start).Milliseconds())
	return vs, nil
}

// Connected reports whether the store has been opened
func (h *Handle) Connected() bool {
	return h.current.Load() != nil
}

func (h *Handle) InsertVote(ctx context.Context, vote models.Vote) error {
	vs, err := h.get(ctx)
	if err != nil {
		return &StorageError{Op: "connect", Err: err}
	}
	if err := vs.InsertVote(ctx, vote); err != nil {
		return &StorageError{Op: "insert vote", Err: err}
	}
	return nil
}

func (h *Handle) CountByTeam(ctx context.Context) (map[string]int64, error) {
	vs, err := h.get(ctx)
	if err != nil {
		return nil, &StorageError{Op: "connect", Err: err}
	}
	counts, err := vs.CountByTeam(ctx)
	if err != nil {
		return nil, &StorageError{Op: "count votes", Err: err}
	}
	return counts, nil
}

func (h *Handle) Ping(ctx context.Context) error {
	vs, err := h.get(ctx)
	if err != nil {
		return &StorageError{Op: "connect", Err: err}
	}
	if err := vs.Ping(ctx); err != nil {
		return &StorageError{Op: "ping", Err: err}
	}
	return nil
}

// Close releases the store if it was ever opened
func (h *Handle) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	ref := h.current.Swap(nil)
	if ref == nil {
		return nil
	}
	return ref.vs.Close(ctx)
}
