// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/danielhkuo/matchday-vote/models"
	"github.com/danielhkuo/matchday-vote/store"
	"github.com/danielhkuo/matchday-vote/testutil"
)

func newTestHandler(t *testing.T) (*VoteHandler, *store.SQLStore) {
	t.Helper()
	s := testutil.SetupTestStore(t)
	return NewVoteHandler(Deps{Votes: s}, testutil.GetTestConfig()), s
}

func submit(h *VoteHandler, body interface{}) *httptest.ResponseRecorder {
	req := testutil.MakeRequest("POST", "/api/vote", body, nil)
	w := httptest.NewRecorder()
	h.SubmitVote(w, req)
	return w
}

func submitRaw(h *VoteHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/vote", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.SubmitVote(w, req)
	return w
}

func tally(t *testing.T, h *VoteHandler) models.Tally {
	t.Helper()
	req := testutil.MakeRequest("GET", "/api/votes", nil, nil)
	w := httptest.NewRecorder()
	h.GetTally(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var got models.Tally
	testutil.AssertJSON(t, w, &got)
	return got
}

func TestSubmitVote(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedError  string
	}{
		{"home team", `{"team":"real"}`, http.StatusCreated, ""},
		{"away team", `{"team":"city"}`, http.StatusCreated, ""},
		{"with prediction", `{"team":"real","homeScore":2,"awayScore":1}`, http.StatusCreated, ""},
		{"zero scores", `{"team":"city","homeScore":0,"awayScore":0}`, http.StatusCreated, ""},
		{"max score", `{"team":"city","homeScore":20}`, http.StatusCreated, ""},
		{"only away score", `{"team":"city","awayScore":3}`, http.StatusCreated, ""},
		{"unknown team", `{"team":"C"}`, http.StatusBadRequest, "Invalid team"},
		{"missing team", `{"homeScore":1}`, http.StatusBadRequest, "Invalid team"},
		{"empty team", `{"team":""}`, http.StatusBadRequest, "Invalid team"},
		{"team wrong case", `{"team":"Real"}`, http.StatusBadRequest, "Invalid team"},
		{"null body", `null`, http.StatusBadRequest, "Invalid team"},
		{"negative score", `{"team":"real","homeScore":-1}`, http.StatusBadRequest, "Invalid homeScore"},
		{"score above max", `{"team":"real","awayScore":21}`, http.StatusBadRequest, "Invalid awayScore"},
		{"fractional score", `{"team":"real","homeScore":1.5}`, http.StatusBadRequest, "Invalid homeScore"},
		{"string score", `{"team":"real","homeScore":"2"}`, http.StatusBadRequest, "Invalid homeScore"},
		{"boolean away score", `{"team":"real","awayScore":true}`, http.StatusBadRequest, "Invalid awayScore"},
		{"bad team wins over bad score", `{"team":"C","homeScore":"2"}`, http.StatusBadRequest, "Invalid team"},
		{"malformed JSON", `{team:real}`, http.StatusBadRequest, "Invalid JSON"},
		{"trailing data", `{"team":"real"} trailing-garbage`, http.StatusBadRequest, "Invalid JSON"},
		{"second JSON value", `{"team":"real"}{"team":"city"}`, http.StatusBadRequest, "Invalid JSON"},
		{"truncated JSON", `{"team":"real"`, http.StatusBadRequest, "Invalid JSON"},
		{"empty body", ``, http.StatusBadRequest, "Invalid team"},
		{"whitespace body", "  \n", http.StatusBadRequest, "Invalid team"},
		{"numeric team", `{"team":5}`, http.StatusBadRequest, "Invalid team"},
		{"null team", `{"team":null}`, http.StatusBadRequest, "Invalid team"},
		{"object team", `{"team":{"name":"real"}}`, http.StatusBadRequest, "Invalid team"},
		{"array body", `["real"]`, http.StatusBadRequest, "Invalid team"},
		{"string body", `"real"`, http.StatusBadRequest, "Invalid team"},
		{"trailing newline", "{\"team\":\"city\"}\n", http.StatusCreated, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t)

			w := submitRaw(h, tt.body)
			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus == http.StatusCreated {
				var resp models.SubmitVoteResponse
				testutil.AssertJSON(t, w, &resp)
				if resp.Message != "Vote registered" {
					t.Errorf("Expected message 'Vote registered', got '%s'", resp.Message)
				}
				return
			}

			var resp models.ErrorResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Error != tt.expectedError {
				t.Errorf("Expected error '%s', got '%s'", tt.expectedError, resp.Error)
			}

			// Rejected votes never reach the store
			testutil.AssertTally(t, tally(t, h), 0, 0)
		})
	}
}

func TestSubmitVote_NonJSONBody(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"form encoded", "application/x-www-form-urlencoded", "team=real"},
		{"plain text", "text/plain", `{"team":"real"}`},
		{"unparsable content type", "application/json; charset", `{"team":"real"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t)

			req := httptest.NewRequest("POST", "/api/vote", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			h.SubmitVote(w, req)

			testutil.AssertStatus(t, w, http.StatusBadRequest)
			var resp models.ErrorResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Error != "Invalid team" {
				t.Errorf("Expected error 'Invalid team', got '%s'", resp.Error)
			}
			testutil.AssertTally(t, tally(t, h), 0, 0)
		})
	}
}

func TestSubmitVote_JSONContentTypeVariants(t *testing.T) {
	for _, contentType := range []string{"", "application/json; charset=utf-8", "application/vnd.api+json"} {
		t.Run(contentType, func(t *testing.T) {
			h, _ := newTestHandler(t)

			req := httptest.NewRequest("POST", "/api/vote", strings.NewReader(`{"team":"city"}`))
			if contentType != "" {
				req.Header.Set("Content-Type", contentType)
			}
			w := httptest.NewRecorder()
			h.SubmitVote(w, req)

			testutil.AssertStatus(t, w, http.StatusCreated)
			testutil.AssertTally(t, tally(t, h), 0, 1)
		})
	}
}

func TestSubmitVote_StoresRecord(t *testing.T) {
	h, s := newTestHandler(t)

	req := testutil.MakeRequest("POST", "/api/vote", map[string]interface{}{
		"team": "real", "homeScore": 2, "awayScore": 1,
	}, map[string]string{"User-Agent": "vote-test/1.0", "X-Forwarded-For": "198.51.100.7"})
	w := httptest.NewRecorder()
	h.SubmitVote(w, req)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var team, ipHash, userAgent string
	var home, away int
	err := s.DB().QueryRow(`
		SELECT team, home_score, away_score, ip_hash, user_agent FROM votes
	`).Scan(&team, &home, &away, &ipHash, &userAgent)
	if err != nil {
		t.Fatalf("Failed to read stored vote: %v", err)
	}

	if team != "real" || home != 2 || away != 1 {
		t.Errorf("Unexpected stored vote %s %d-%d", team, home, away)
	}
	if userAgent != "vote-test/1.0" {
		t.Errorf("Expected user agent to be stored, got '%s'", userAgent)
	}
	if ipHash == "" || strings.Contains(ipHash, "198.51.100.7") {
		t.Errorf("Expected a hashed IP, got '%s'", ipHash)
	}
}

func TestGetTally_EmptyStore(t *testing.T) {
	h, _ := newTestHandler(t)

	testutil.AssertTally(t, tally(t, h), 0, 0)
}

func TestGetTally_ResponseShape(t *testing.T) {
	h, _ := newTestHandler(t)

	req := testutil.MakeRequest("GET", "/api/votes", nil, nil)
	w := httptest.NewRecorder()
	h.GetTally(w, req)

	if body := strings.TrimSpace(w.Body.String()); body != `{"city":0,"real":0}` {
		t.Errorf("Unexpected body %s", body)
	}
}

func TestVoteThenTally(t *testing.T) {
	for _, team := range []string{"real", "city"} {
		t.Run(team, func(t *testing.T) {
			h, _ := newTestHandler(t)

			before := tally(t, h)
			testutil.AssertStatus(t, submit(h, map[string]string{"team": team}), http.StatusCreated)
			after := tally(t, h)

			for _, other := range []string{"real", "city"} {
				want := before[other]
				if other == team {
					want++
				}
				if after[other] != want {
					t.Errorf("Team %s: expected %d, got %d", other, want, after[other])
				}
			}
		})
	}
}

func TestTallyScenarios(t *testing.T) {
	t.Run("one vote each", func(t *testing.T) {
		h, _ := newTestHandler(t)

		testutil.AssertStatus(t, submit(h, map[string]interface{}{"team": "real", "homeScore": 2, "awayScore": 1}), http.StatusCreated)
		testutil.AssertStatus(t, submit(h, map[string]interface{}{"team": "city"}), http.StatusCreated)

		testutil.AssertTally(t, tally(t, h), 1, 1)
	})

	t.Run("three for home", func(t *testing.T) {
		h, _ := newTestHandler(t)

		for i := 0; i < 3; i++ {
			testutil.AssertStatus(t, submit(h, map[string]interface{}{"team": "real"}), http.StatusCreated)
		}

		testutil.AssertTally(t, tally(t, h), 3, 0)
	})

	t.Run("rejected vote leaves tally unchanged", func(t *testing.T) {
		h, _ := newTestHandler(t)

		testutil.AssertStatus(t, submit(h, map[string]interface{}{"team": "real"}), http.StatusCreated)
		testutil.AssertStatus(t, submit(h, map[string]interface{}{"team": "C"}), http.StatusBadRequest)
		testutil.AssertStatus(t, submit(h, map[string]interface{}{"homeScore": 1}), http.StatusBadRequest)

		testutil.AssertTally(t, tally(t, h), 1, 0)
	})

	t.Run("repeated reads are identical", func(t *testing.T) {
		h, s := newTestHandler(t)
		testutil.InsertTestVote(t, s, "city")
		testutil.InsertTestVote(t, s, "real")
		testutil.InsertTestVote(t, s, "city")

		first := tally(t, h)
		second := tally(t, h)

		testutil.AssertTally(t, first, 1, 2)
		testutil.AssertTally(t, second, first["real"], first["city"])
	})

	t.Run("unknown stored teams are ignored", func(t *testing.T) {
		h, s := newTestHandler(t)
		testutil.InsertTestVote(t, s, "real")
		testutil.InsertTestVote(t, s, "legacy-team")

		testutil.AssertTally(t, tally(t, h), 1, 0)
	})
}

func TestStorageFailures(t *testing.T) {
	h := NewVoteHandler(Deps{Votes: testutil.FailingStore{}}, testutil.GetTestConfig())

	t.Run("submit", func(t *testing.T) {
		w := submit(h, map[string]string{"team": "real"})
		testutil.AssertStatus(t, w, http.StatusInternalServerError)

		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Error != "Internal Server Error" {
			t.Errorf("Expected generic error, got '%s'", resp.Error)
		}
		if !strings.Contains(resp.Message, "storage unavailable") {
			t.Errorf("Expected diagnostic detail, got '%s'", resp.Message)
		}
	})

	t.Run("tally", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/api/votes", nil, nil)
		w := httptest.NewRecorder()
		h.GetTally(w, req)
		testutil.AssertStatus(t, w, http.StatusInternalServerError)
	})

	t.Run("validation still wins over storage", func(t *testing.T) {
		w := submit(h, map[string]string{"team": "C"})
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestUnconfiguredStore(t *testing.T) {
	h := NewVoteHandler(Deps{Votes: store.NewHandle(nil)}, testutil.GetTestConfig())

	w := submit(h, map[string]string{"team": "real"})
	testutil.AssertStatus(t, w, http.StatusInternalServerError)

	var resp models.ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	if !strings.Contains(resp.Message, store.ErrNotConfigured.Error()) {
		t.Errorf("Expected explicit connection error, got '%s'", resp.Message)
	}
}

func TestTallyCache(t *testing.T) {
	s := testutil.SetupTestStore(t)
	cache := &testutil.MemoryCache{}
	h := NewVoteHandler(Deps{Votes: s, Cache: cache}, testutil.GetTestConfig())

	testutil.AssertTally(t, tally(t, h), 0, 0)

	// A write behind the API's back is hidden by the cached value
	testutil.InsertTestVote(t, s, "real")
	testutil.AssertTally(t, tally(t, h), 0, 0)

	if v := promtest.ToFloat64(h.deps.Metrics.CacheHits); v != 1 {
		t.Errorf("Expected 1 cache hit, got %v", v)
	}

	// A write through the API invalidates it
	testutil.AssertStatus(t, submit(h, map[string]string{"team": "city"}), http.StatusCreated)
	if cache.Invalidations != 1 {
		t.Errorf("Expected 1 invalidation, got %d", cache.Invalidations)
	}
	testutil.AssertTally(t, tally(t, h), 1, 1)
}

func TestVoteEvents(t *testing.T) {
	s := testutil.SetupTestStore(t)
	publisher := &testutil.RecordingPublisher{}
	h := NewVoteHandler(Deps{Votes: s, Publisher: publisher}, testutil.GetTestConfig())

	testutil.AssertStatus(t, submit(h, map[string]interface{}{"team": "real", "homeScore": 4}), http.StatusCreated)
	testutil.AssertStatus(t, submit(h, map[string]interface{}{"team": "nobody"}), http.StatusBadRequest)

	events := publisher.Events()
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Team != "real" || events[0].HomeScore == nil || *events[0].HomeScore != 4 {
		t.Errorf("Unexpected event %+v", events[0])
	}
	if events[0].VoteID == "" {
		t.Error("Expected event to carry the vote ID")
	}
}

func TestVoteEvents_PublishFailureIsNotFatal(t *testing.T) {
	s := testutil.SetupTestStore(t)
	publisher := &testutil.RecordingPublisher{Err: errors.New("broker down")}
	h := NewVoteHandler(Deps{Votes: s, Publisher: publisher}, testutil.GetTestConfig())

	testutil.AssertStatus(t, submit(h, map[string]string{"team": "city"}), http.StatusCreated)
	testutil.AssertTally(t, tally(t, h), 0, 1)
}

func TestVoteMetrics(t *testing.T) {
	h, _ := newTestHandler(t)

	submit(h, map[string]string{"team": "real"})
	submit(h, map[string]string{"team": "real"})
	submit(h, map[string]string{"team": "C"})

	if v := promtest.ToFloat64(h.deps.Metrics.VotesTotal.WithLabelValues("real")); v != 2 {
		t.Errorf("Expected 2 real votes counted, got %v", v)
	}
	if v := promtest.ToFloat64(h.deps.Metrics.RejectedVotes.WithLabelValues("invalid_team")); v != 1 {
		t.Errorf("Expected 1 rejected vote, got %v", v)
	}
}

func TestParseScore(t *testing.T) {
	h := NewVoteHandler(Deps{Votes: testutil.FailingStore{}}, testutil.GetTestConfig())

	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name  string
		in    *float64
		want  *int
		valid bool
	}{
		{"absent", nil, nil, true},
		{"zero", f(0), intPtr(0), true},
		{"max", f(20), intPtr(20), true},
		{"above max", f(21), nil, false},
		{"negative", f(-1), nil, false},
		{"fraction", f(0.5), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := h.parseScore(tt.in)
			if ok != tt.valid {
				t.Fatalf("valid = %v, want %v", ok, tt.valid)
			}
			if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func intPtr(v int) *int { return &v }
