// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielhkuo/matchday-vote/models"
)

// countingStore records calls without touching a real backend
type countingStore struct {
	mu     sync.Mutex
	votes  []models.Vote
	closed bool
}

func (s *countingStore) InsertVote(ctx context.Context, vote models.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votes = append(s.votes, vote)
	return nil
}

func (s *countingStore) CountByTeam(ctx context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int64)
	for _, v := range s.votes {
		counts[v.Team]++
	}
	return counts, nil
}

func (s *countingStore) Ping(ctx context.Context) error { return nil }

func (s *countingStore) Close(ctx context.Context) error {
	s.closed = true
	return nil
}

func TestHandle_NotConfigured(t *testing.T) {
	h := NewHandle(nil)
	ctx := context.Background()

	err := h.InsertVote(ctx, models.Vote{Team: "real"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured, got %v", err)
	}

	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("Expected *StorageError, got %T", err)
	}
	if storageErr.Op != "connect" {
		t.Errorf("Expected op connect, got %q", storageErr.Op)
	}

	if _, err := h.CountByTeam(ctx); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured from CountByTeam, got %v", err)
	}
	if h.Connected() {
		t.Error("Handle should not report connected")
	}
}

func TestHandle_ConcurrentFirstUseOpensOnce(t *testing.T) {
	var opens atomic.Int32
	backend := &countingStore{}

	h := NewHandle(func(ctx context.Context) (VoteStore, error) {
		opens.Add(1)
		time.Sleep(20 * time.Millisecond) // widen the race window
		return backend, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := h.InsertVote(context.Background(), models.Vote{Team: "real"}); err != nil {
				t.Errorf("InsertVote failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := opens.Load(); got != 1 {
		t.Errorf("Expected exactly 1 open, got %d", got)
	}

	counts, err := h.CountByTeam(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if counts["real"] != 20 {
		t.Errorf("Expected 20 votes, got %d", counts["real"])
	}
}

func TestHandle_RetriesAfterFailedOpen(t *testing.T) {
	var opens atomic.Int32
	backend := &countingStore{}

	h := NewHandle(func(ctx context.Context) (VoteStore, error) {
		if opens.Add(1) == 1 {
			return nil, errors.New("connection refused")
		}
		return backend, nil
	})

	if err := h.Ping(context.Background()); err == nil {
		t.Fatal("Expected first ping to fail")
	}
	if h.Connected() {
		t.Error("Failed open must not be cached")
	}

	if err := h.Ping(context.Background()); err != nil {
		t.Fatalf("Expected second ping to succeed, got %v", err)
	}
	if !h.Connected() {
		t.Error("Handle should be connected after successful open")
	}
	if got := opens.Load(); got != 2 {
		t.Errorf("Expected 2 opens, got %d", got)
	}
}

func TestHandle_Close(t *testing.T) {
	backend := &countingStore{}
	h := NewHandle(func(ctx context.Context) (VoteStore, error) {
		return backend, nil
	})

	// Closing an unopened handle is a no-op
	if err := h.Close(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := h.Ping(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := h.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !backend.closed {
		t.Error("Expected backend to be closed")
	}
	if h.Connected() {
		t.Error("Handle should not be connected after Close")
	}
}

func TestNewHandleFromConfig_EmptyURL(t *testing.T) {
	h := NewHandleFromConfig(testConfig(""))

	if err := h.Ping(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured, got %v", err)
	}
}

func TestNewHandleFromConfig_SQLite(t *testing.T) {
	cfg := testConfig(":memory:")
	cfg.DatabaseType = DriverSQLite

	h := NewHandleFromConfig(cfg)
	defer h.Close(context.Background())

	if err := h.InsertVote(context.Background(), models.Vote{ID: "v1", Team: "city", Timestamp: time.Now()}); err != nil {
		t.Fatal(err)
	}
	counts, err := h.CountByTeam(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if counts["city"] != 1 {
		t.Errorf("Expected city=1, got %v", counts)
	}
}
