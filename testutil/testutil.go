// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/matchday-vote/cliparse"
	"github.com/danielhkuo/matchday-vote/models"
	"github.com/danielhkuo/matchday-vote/store"
)

// ErrStorageDown is returned by FailingStore
var ErrStorageDown = errors.New("storage unavailable")

// SetupTestStore opens a fresh in-memory SQLite vote store
func SetupTestStore(t *testing.T) *store.SQLStore {
	t.Helper()

	s, err := store.OpenSQL(context.Background(), store.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close(context.Background()) })

	return s
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          3000,
		DatabaseType:  cliparse.DatabaseSQLite,
		DatabaseURL:   ":memory:",
		HomeTeam:      "real",
		AwayTeam:      "city",
		MaxScore:      20,
		VoterHashSalt: "test-ip-salt",
		TallyCacheTTL: time.Minute,
		AMQPQueue:     "votes",
	}
}

// InsertTestVote stores a vote directly, bypassing the API
func InsertTestVote(t *testing.T, s store.VoteStore, team string) models.Vote {
	t.Helper()

	vote := models.Vote{ID: uuid.NewString(), Team: team, Timestamp: time.Now().UTC()}
	if err := s.InsertVote(context.Background(), vote); err != nil {
		t.Fatalf("Failed to insert test vote: %v", err)
	}
	return vote
}

// FailingStore fails every operation
type FailingStore struct{}

func (FailingStore) InsertVote(ctx context.Context, vote models.Vote) error {
	return &store.StorageError{Op: "insert vote", Err: ErrStorageDown}
}

func (FailingStore) CountByTeam(ctx context.Context) (map[string]int64, error) {
	return nil, &store.StorageError{Op: "count votes", Err: ErrStorageDown}
}

func (FailingStore) Ping(ctx context.Context) error {
	return &store.StorageError{Op: "ping", Err: ErrStorageDown}
}

func (FailingStore) Close(ctx context.Context) error { return nil }

// MemoryCache is an in-process TallyCache without expiry
type MemoryCache struct {
	mu            sync.Mutex
	tally         models.Tally
	Invalidations int
}

func (c *MemoryCache) Get(ctx context.Context) (models.Tally, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tally == nil {
		return nil, false, nil
	}
	out := make(models.Tally, len(c.tally))
	for k, v := range c.tally {
		out[k] = v
	}
	return out, true, nil
}

func (c *MemoryCache) Set(ctx context.Context, tally models.Tally) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tally = tally
	return nil
}

func (c *MemoryCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tally = nil
	c.Invalidations++
	return nil
}

// RecordingPublisher keeps every published event
type RecordingPublisher struct {
	mu     sync.Mutex
	events []models.VoteEvent
	Err    error
}

func (p *RecordingPublisher) PublishVote(ctx context.Context, event models.VoteEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *RecordingPublisher) Events() []models.VoteEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.VoteEvent(nil), p.events...)
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

// AssertTally checks both team counts
func AssertTally(t *testing.T, got models.Tally, home, away int64) {
	t.Helper()
	if len(got) != 2 {
		t.Errorf("Expected exactly 2 teams in tally, got %v", got)
	}
	if got["real"] != home || got["city"] != away {
		t.Errorf("Expected tally {real:%d city:%d}, got %v", home, away, got)
	}
}
