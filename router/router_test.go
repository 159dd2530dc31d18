// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/pollbox/admission"
	"github.com/danielhkuo/pollbox/db"
	"github.com/danielhkuo/pollbox/models"
	"github.com/danielhkuo/pollbox/testutil"
	"github.com/danielhkuo/pollbox/throttle"
)

func newTestRouter(t *testing.T) (http.Handler, *db.Store) {
	t.Helper()

	store := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	budgets, err := throttle.BudgetsFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	gate := throttle.NewGate(throttle.NewMemoryStore(), budgets)
	engine := admission.NewEngine(store, admission.WithPollLocks())

	return NewRouter(store, gate, testutil.TestIssuer(), engine, cfg), store
}

func serve(h http.Handler, method, path, addr string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	req := testutil.MakeRequest(method, path, body, headers)
	if addr != "" {
		req.RemoteAddr = addr + ":40000"
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	mux, _ := newTestRouter(t)

	w := serve(mux, "GET", "/health", "", nil, nil)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	mux, _ := newTestRouter(t)

	w := serve(mux, "GET", "/", "", nil, nil)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	expected := "pollbox API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}

	w = serve(mux, "GET", "/nope", "", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown path, got %d", w.Code)
	}
}

func TestRouteExistence(t *testing.T) {
	mux, _ := newTestRouter(t)

	// 400, 401, 404 are all valid responses depending on handler logic
	testCases := []struct {
		method string
		path   string
	}{
		{"GET", "/api/polls"},
		{"POST", "/api/polls"},
		{"GET", "/api/polls/test-id"},
		{"PUT", "/api/polls/test-id"},
		{"PATCH", "/api/polls/test-id"},
		{"DELETE", "/api/polls/test-id"},
		{"POST", "/api/polls/test-id/vote"},
		{"GET", "/api/polls/test-id/results"},
		{"GET", "/api/polls/test-id/options"},
		{"POST", "/api/polls/test-id/options"},
		{"PATCH", "/api/options/test-id"},
		{"DELETE", "/api/options/test-id"},
		{"POST", "/api/auth/register"},
		{"POST", "/api/auth/token"},
		{"POST", "/api/auth/token/refresh"},
		{"POST", "/api/auth/token/verify"},
		{"GET", "/api/auth/me"},
		{"GET", "/api/auth/me/polls"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := serve(mux, tc.method, tc.path, "", nil, nil)

			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("Route %s %s returned 405, expected route handler to exist", tc.method, tc.path)
			}
		})
	}
}

func TestSpecificMethodRouting(t *testing.T) {
	mux, _ := newTestRouter(t)

	testCases := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"POST to health endpoint", "POST", "/health", http.StatusMethodNotAllowed},
		{"PUT to options endpoint", "PUT", "/api/polls/test-id/options", http.StatusMethodNotAllowed},
		{"GET to vote endpoint", "GET", "/api/polls/test-id/vote", http.StatusMethodNotAllowed},
		{"GET to token endpoint", "GET", "/api/auth/token", http.StatusMethodNotAllowed},
		{"preflight", "OPTIONS", "/api/polls", http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(mux, tc.method, tc.path, "", nil, nil)

			if w.Code != tc.expectedStatus {
				t.Errorf("Expected %d for %s %s, got %d", tc.expectedStatus, tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestPipelineGuards(t *testing.T) {
	mux, _ := newTestRouter(t)

	testCases := []struct {
		name           string
		method         string
		path           string
		headers        map[string]string
		expectedStatus int
		expectedCode   string
	}{
		{"invalid bearer on public read", "GET", "/api/polls", map[string]string{"Authorization": "Bearer junk"}, http.StatusUnauthorized, models.CodeInvalidToken},
		{"invalid bearer on vote", "POST", "/api/polls/test-id/vote", map[string]string{"Authorization": "Bearer stale"}, http.StatusUnauthorized, models.CodeInvalidToken},
		{"anonymous create", "POST", "/api/polls", nil, http.StatusUnauthorized, models.CodeUnauthorized},
		{"anonymous delete", "DELETE", "/api/polls/test-id", nil, http.StatusUnauthorized, models.CodeUnauthorized},
		{"anonymous profile", "GET", "/api/auth/me", nil, http.StatusUnauthorized, models.CodeUnauthorized},
		{"anonymous read", "GET", "/api/polls", nil, http.StatusOK, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(mux, tc.method, tc.path, "", nil, tc.headers)

			testutil.AssertStatus(t, w, tc.expectedStatus)
			if tc.expectedCode == "" {
				return
			}
			var resp models.ErrorResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Code != tc.expectedCode {
				t.Errorf("Expected code %s, got %s", tc.expectedCode, resp.Code)
			}
		})
	}
}

// TestVotingScenario drives a poll through the HTTP surface: two addresses
// vote, a repeat vote is refused and results split evenly.
func TestVotingScenario(t *testing.T) {
	mux, _ := newTestRouter(t)

	w := serve(mux, "POST", "/api/auth/register", "", models.RegisterRequest{
		Username: "U", Email: "u@example.com", Password: "pw",
	}, nil)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var reg models.RegisterResponse
	testutil.AssertJSON(t, w, &reg)
	bearer := map[string]string{"Authorization": "Bearer " + reg.Access}

	w = serve(mux, "POST", "/api/polls", "9.9.9.9", map[string]interface{}{
		"title":      "T",
		"options":    []string{"A", "B"},
		"expires_at": time.Now().Add(time.Hour),
	}, bearer)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var poll models.PollView
	testutil.AssertJSON(t, w, &poll)
	if len(poll.Options) != 2 {
		t.Fatalf("Expected 2 options, got %d", len(poll.Options))
	}
	optA, optB := poll.Options[0].ID, poll.Options[1].ID
	votePath := "/api/polls/" + poll.ID + "/vote"

	w = serve(mux, "POST", votePath, "1.2.3.4", models.CastVoteRequest{OptionID: optA}, nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = serve(mux, "POST", votePath, "1.2.3.4", models.CastVoteRequest{OptionID: optA}, nil)
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	var resp models.ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Code != models.CodeDuplicateVote {
		t.Errorf("Expected %s, got %s", models.CodeDuplicateVote, resp.Code)
	}

	w = serve(mux, "POST", votePath, "5.6.7.8", models.CastVoteRequest{OptionID: optB}, nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = serve(mux, "GET", "/api/polls/"+poll.ID+"/results", "", nil, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var results models.ResultsView
	testutil.AssertJSON(t, w, &results)
	if results.Total != 2 {
		t.Errorf("Expected total 2, got %d", results.Total)
	}
	for _, o := range results.Options {
		if o.Tally != 1 || o.Percentage != 50 {
			t.Errorf("Option %s: tally %d percentage %v, want 1 and 50", o.Text, o.Tally, o.Percentage)
		}
	}

	w = serve(mux, "GET", "/api/auth/me/polls", "", nil, bearer)
	testutil.AssertStatus(t, w, http.StatusOK)
	var mine models.MyPollsResponse
	testutil.AssertJSON(t, w, &mine)
	if len(mine.Polls) != 1 || mine.Polls[0].TotalVotes != 2 {
		t.Errorf("Unexpected my polls %+v", mine.Polls)
	}
}

func TestPollCreationThrottled(t *testing.T) {
	mux, store := newTestRouter(t)
	user := testutil.CreateTestUser(t, store, "creator")
	bearer := testutil.BearerFor(t, testutil.TestIssuer(), user)

	body := map[string]interface{}{
		"title":      "T",
		"options":    []string{"A"},
		"expires_at": time.Now().Add(time.Hour),
	}

	for i := 1; i <= 5; i++ {
		w := serve(mux, "POST", "/api/polls", "1.2.3.4", body, bearer)
		if w.Code != http.StatusCreated {
			t.Fatalf("Creation %d: expected 201, got %d - %s", i, w.Code, w.Body.String())
		}
	}

	w := serve(mux, "POST", "/api/polls", "1.2.3.4", body, bearer)
	testutil.AssertStatus(t, w, http.StatusTooManyRequests)
	if w.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}
	var resp models.ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Code != models.CodeRateLimited || resp.RetryAfter <= 0 {
		t.Errorf("Unexpected throttle body %+v", resp)
	}

	// Another address has its own budget
	w = serve(mux, "POST", "/api/polls", "5.6.7.8", body, bearer)
	testutil.AssertStatus(t, w, http.StatusCreated)

	polls, err := db.PollsByCreator(t.Context(), store.DB(), user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(polls) != 6 {
		t.Errorf("Expected 6 stored polls, got %d", len(polls))
	}
}

func TestVotingThrottled(t *testing.T) {
	mux, store := newTestRouter(t)
	owner := testutil.CreateTestUser(t, store, "owner")

	// Vote budget is 10/m per voter; each poll takes one vote from 1.2.3.4
	for i := 0; i < 10; i++ {
		poll, options := testutil.CreateTestPoll(t, store, owner.ID, time.Now().Add(time.Hour), "A")
		w := serve(mux, "POST", "/api/polls/"+poll.ID+"/vote", "1.2.3.4", models.CastVoteRequest{OptionID: options[0].ID}, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Vote %d: expected 200, got %d - %s", i+1, w.Code, w.Body.String())
		}
	}

	poll, options := testutil.CreateTestPoll(t, store, owner.ID, time.Now().Add(time.Hour), "A")
	w := serve(mux, "POST", "/api/polls/"+poll.ID+"/vote", "1.2.3.4", models.CastVoteRequest{OptionID: options[0].ID}, nil)
	testutil.AssertStatus(t, w, http.StatusTooManyRequests)

	// Rejected request did not touch the poll
	stored, err := db.OptionsByPoll(t.Context(), store.DB(), poll.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored[0].Tally != 0 {
		t.Errorf("Expected tally 0 after throttled vote, got %d", stored[0].Tally)
	}

	w = serve(mux, "POST", "/api/polls/"+poll.ID+"/vote", "4.3.2.1", models.CastVoteRequest{OptionID: options[0].ID}, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
}

func TestPathParameterExtraction(t *testing.T) {
	mux, store := newTestRouter(t)
	owner := testutil.CreateTestUser(t, store, "owner")
	poll, _ := testutil.CreateTestPoll(t, store, owner.ID, time.Now().Add(time.Hour), "A", "B")

	paths := []string{
		"/api/polls/" + poll.ID,
		"/api/polls/" + poll.ID + "/results",
		"/api/polls/" + poll.ID + "/options",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			w := serve(mux, "GET", path, "", nil, nil)
			if w.Code != http.StatusOK {
				t.Errorf("Expected 200, got %d. Body: %s", w.Code, w.Body.String())
			}
		})
	}

	w := serve(mux, "GET", fmt.Sprintf("/api/polls/%s-missing", poll.ID), "", nil, nil)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}
