package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// echoUserID writes the authenticated ID so tests can see what reached the
// handler.
func echoUserID(w http.ResponseWriter, r *http.Request) {
	id, ok := UserIDFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	_, _ = w.Write([]byte(id))
}

func TestRequireAuth(t *testing.T) {
	ts, _ := newTestTokenService(t)
	good, _ := ts.Generate("user-42")
	expired, _ := ts.GenerateWithDuration("user-42", -1)

	tests := []struct {
		name     string
		setup    func(r *http.Request)
		wantCode int
		wantBody string
	}{
		{
			name:     "bearer header",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+good) },
			wantCode: http.StatusOK,
			wantBody: "user-42",
		},
		{
			name:     "lowercase scheme",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "bearer "+good) },
			wantCode: http.StatusOK,
			wantBody: "user-42",
		},
		{
			name:     "cookie",
			setup:    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: good}) },
			wantCode: http.StatusOK,
			wantBody: "user-42",
		},
		{
			name:     "no credentials",
			setup:    func(r *http.Request) {},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "basic scheme",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Basic "+good) },
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "expired token",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+expired) },
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "bad header wins over good cookie",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer nope")
				r.AddCookie(&http.Cookie{Name: CookieName, Value: good})
			},
			wantCode: http.StatusUnauthorized,
		},
	}

	handler := RequireAuth(ts)(http.HandlerFunc(echoUserID))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/journal", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusUnauthorized {
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
				assert.JSONEq(t, `{"error":"unauthorized","message":"valid authentication required"}`, rec.Body.String())
				return
			}
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestUserIDFromContext_EmptyIsAnonymous(t *testing.T) {
	_, ok := UserIDFromContext(WithUserID(httptest.NewRequest(http.MethodGet, "/", nil).Context(), ""))
	assert.False(t, ok)
}
