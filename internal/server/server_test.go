package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/mood-journal/internal/model"
	"github.com/sakif/mood-journal/internal/repository"
	"github.com/sakif/mood-journal/internal/repository/sqlite"
	"github.com/sakif/mood-journal/internal/sentiment"
)

// =========================================================================
// HELPERS
// =========================================================================

func testConfig() Config {
	return Config{
		Port:         0,
		ClientOrigin: "http://localhost:3000",
		JWTSecret:    "server-test-secret-0123",
		TokenTTL:     time.Hour,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMemoryStore(t *testing.T) repository.Store {
	t.Helper()
	db, err := sqlite.New(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestServer(t *testing.T, cfg Config, store repository.Store) *Server {
	t.Helper()
	s, err := New(cfg, store, sentiment.Default(), discardLogger())
	require.NoError(t, err)
	return s
}

func send(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// signUp registers and logs in, returning the bearer token.
func signUp(t *testing.T, h http.Handler, email string) string {
	t.Helper()
	rr := send(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "maya", "email": email, "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = send(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": "secret123",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

type pingFailStore struct {
	repository.Store
}

func (pingFailStore) Ping(context.Context) error { return errors.New("connection refused") }

type closeTrackingStore struct {
	repository.Store
	closed bool
}

func (s *closeTrackingStore) Close() error {
	s.closed = true
	return s.Store.Close()
}

// =========================================================================
// CONSTRUCTION TESTS
// =========================================================================

func TestNew_RejectsShortSecret(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "short"

	_, err := New(cfg, newMemoryStore(t), sentiment.Default(), discardLogger())
	assert.Error(t, err)
}

// =========================================================================
// ROUTE TESTS
// =========================================================================

func TestHealthz(t *testing.T) {
	s := newTestServer(t, testConfig(), newMemoryStore(t))

	rr := send(t, s.Handler(), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestHealthz_StoreDown(t *testing.T) {
	s := newTestServer(t, testConfig(), pingFailStore{Store: newMemoryStore(t)})

	rr := send(t, s.Handler(), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rr.Body.String())
}

func TestJournalFlow(t *testing.T) {
	s := newTestServer(t, testConfig(), newMemoryStore(t))
	h := s.Handler()
	token := signUp(t, h, "maya@example.com")

	rr := send(t, h, http.MethodPost, "/api/journal", token, map[string]string{
		"text": "I feel happy and grateful today", "selectedMood": "happy",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created struct {
		Message string             `json:"message"`
		Entry   model.JournalEntry `json:"entry"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "Journal saved.", created.Message)
	assert.Equal(t, sentiment.Positive, created.Entry.SentimentLabel)

	rr = send(t, h, http.MethodGet, "/api/journal/calendar", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var days []model.CalendarDay
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &days))
	require.Len(t, days, 1)
	assert.Equal(t, model.MoodHappy, days[0].Mood)

	rr = send(t, h, http.MethodGet, "/api/journal/trends", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var series []model.DailySentiment
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &series))
	require.Len(t, series, 1)
	assert.Equal(t, 1, series[0].Positive)

	// Another user cannot see the entry.
	other := signUp(t, h, "sam@example.com")
	rr = send(t, h, http.MethodGet, "/api/journal/"+created.Entry.ID, other, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newTestServer(t, testConfig(), newMemoryStore(t))

	for _, path := range []string{"/api/me", "/api/journal", "/api/journal/calendar", "/api/journal/trends"} {
		rr := send(t, s.Handler(), http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, testConfig(), newMemoryStore(t))
	h := s.Handler()
	token := signUp(t, h, "maya@example.com")

	rr := send(t, h, http.MethodPost, "/api/journal", token, map[string]string{
		"text": "terrible awful day", "selectedMood": "sad",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = send(t, h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `moodjournal_journal_entries_scored_total{label="negative"} 1`)
	assert.Contains(t, body, `moodjournal_http_requests_total{method="POST",route="/api/journal`)
}

func TestGitHubRoutes(t *testing.T) {
	t.Run("disabled without client id", func(t *testing.T) {
		s := newTestServer(t, testConfig(), newMemoryStore(t))
		rr := send(t, s.Handler(), http.MethodGet, "/auth/github/login", "", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("enabled with client id", func(t *testing.T) {
		cfg := testConfig()
		cfg.GitHubClientID = "client"
		cfg.GitHubClientSecret = "secret"
		cfg.GitHubCallbackURL = "http://localhost:5000/auth/github/callback"
		s := newTestServer(t, cfg, newMemoryStore(t))

		rr := send(t, s.Handler(), http.MethodGet, "/auth/github/login", "", nil)
		assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
		assert.True(t, strings.HasPrefix(rr.Header().Get("Location"), "https://github.com/login/oauth/authorize"))
	})
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, testConfig(), newMemoryStore(t))

	req := httptest.NewRequest(http.MethodOptions, "/api/journal", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/api/journal", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestWriteRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.WriteRateLimit = 0.001
	cfg.WriteRateBurst = 3
	s := newTestServer(t, cfg, newMemoryStore(t))
	h := s.Handler()

	// register + login spend two of the three anonymous tokens for this IP.
	token := signUp(t, h, "maya@example.com")

	entry := map[string]string{"text": "fine", "selectedMood": "neutral"}
	for i := 0; i < 3; i++ {
		rr := send(t, h, http.MethodPost, "/api/journal", token, entry)
		require.Equal(t, http.StatusCreated, rr.Code, "write %d", i)
	}

	rr := send(t, h, http.MethodPost, "/api/journal", token, entry)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	// Reads are not limited.
	rr = send(t, h, http.MethodGet, "/api/journal", token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

// =========================================================================
// LIFECYCLE TESTS
// =========================================================================

func TestRun_ShutsDownAndClosesStore(t *testing.T) {
	store := &closeTrackingStore{Store: newMemoryStore(t)}
	s := newTestServer(t, testConfig(), store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.True(t, store.closed)
}
