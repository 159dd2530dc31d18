// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/pollbox/auth"
	"github.com/danielhkuo/pollbox/cliparse"
	"github.com/danielhkuo/pollbox/db"
	"github.com/danielhkuo/pollbox/models"
)

const (
	TestJWTSecret = "test-jwt-secret"
	TestPassword  = "password123"
)

// SetupTestDB creates a fresh SQLite database with the full schema in the
// test's temp dir. It is closed when the test ends.
func SetupTestDB(t *testing.T) *db.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pollbox_test.db")
	store, err := db.Open(context.Background(), cliparse.DatabaseSQLite, path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.CreateSchema(context.Background()); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return store
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            3318,
		DatabaseURL:     "test.db",
		DatabaseType:    cliparse.DatabaseSQLite,
		JWTSecret:       TestJWTSecret,
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		PollCreateRate:  "5/h",
		VoteRate:        "10/m",
		ReadRate:        "120/m",
		VoterIdentity:   cliparse.VoterByAddress,
		LogLevel:        "info",
	}
}

// TestIssuer returns a token issuer keyed with TestJWTSecret
func TestIssuer() *auth.Issuer {
	return auth.NewIssuer([]byte(TestJWTSecret), 15*time.Minute, 24*time.Hour)
}

// CreateTestUser registers a user whose password is TestPassword
func CreateTestUser(t *testing.T, store *db.Store, username string) models.User {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	u := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.InsertUser(context.Background(), store.DB(), u); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return u
}

// CreateTestPoll creates an active poll owned by creatorID with one option
// per label, in order.
func CreateTestPoll(t *testing.T, store *db.Store, creatorID string, expiresAt time.Time, labels ...string) (models.Poll, []models.PollOption) {
	t.Helper()

	p := models.Poll{
		ID:          uuid.NewString(),
		Title:       "Test Poll",
		Description: "A test poll",
		CreatorID:   creatorID,
		CreatedAt:   time.Now().UTC(),
		ExpiresAt:   expiresAt.UTC(),
		IsActive:    true,
	}

	options := make([]models.PollOption, len(labels))
	for i, label := range labels {
		options[i] = models.PollOption{
			ID:       uuid.NewString(),
			PollID:   p.ID,
			Text:     label,
			Position: i,
		}
	}

	if err := store.CreatePollWithOptions(context.Background(), p, options); err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}

	return p, options
}

// AddTestOption appends an option to a poll
func AddTestOption(t *testing.T, store *db.Store, pollID, text string) models.PollOption {
	t.Helper()

	ctx := context.Background()
	pos, err := db.NextOptionPosition(ctx, store.DB(), pollID)
	if err != nil {
		t.Fatalf("Failed to compute option position: %v", err)
	}

	o := models.PollOption{ID: uuid.NewString(), PollID: pollID, Text: text, Position: pos}
	if err := db.InsertOption(ctx, store.DB(), o); err != nil {
		t.Fatalf("Failed to create test option: %v", err)
	}

	return o
}

// CastTestVote writes a vote and its tally increment directly, bypassing
// admission checks.
func CastTestVote(t *testing.T, store *db.Store, pollID, optionID, voter string) string {
	t.Helper()

	ctx := context.Background()
	voteID := uuid.NewString()
	err := store.InTx(ctx, func(tx *sqlx.Tx) error {
		err := db.InsertVote(ctx, tx, models.Vote{
			ID:       voteID,
			PollID:   pollID,
			OptionID: optionID,
			Voter:    voter,
			VotedAt:  time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		_, err = db.IncrementTally(ctx, tx, pollID, optionID)
		return err
	})
	if err != nil {
		t.Fatalf("Failed to cast test vote: %v", err)
	}

	return voteID
}

// BearerFor returns request headers carrying an access token for u
func BearerFor(t *testing.T, issuer *auth.Issuer, u models.User) map[string]string {
	t.Helper()

	pair, err := issuer.IssuePair(auth.Principal{UserID: u.ID, Username: u.Username})
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}

	return map[string]string{"Authorization": "Bearer " + pair.Access}
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
