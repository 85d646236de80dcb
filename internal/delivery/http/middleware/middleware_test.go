package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nutrition-intake/config"
	"nutrition-intake/internal/ratelimit"
	"nutrition-intake/pkg/jwt"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticateScopesRequest(t *testing.T) {
	jwtService := jwt.NewJWTService(config.SessionConfig{Secret: "test-secret", Expiry: time.Hour})
	token, err := jwtService.GenerateSessionToken("sess-42", "returning", false, "abc-123-XYZ")
	require.NoError(t, err)

	var scope string
	var claims *jwt.Claims
	h := NewSessionMiddleware(jwtService).Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope = ratelimit.ScopeFromContext(r.Context())
		claims, _ = GetSessionClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "sess-42", scope)
	require.NotNil(t, claims)
	assert.Equal(t, "abc-123-XYZ", claims.ConfirmedUserID)
}

func TestAuthenticateRejects(t *testing.T) {
	jwtService := jwt.NewJWTService(config.SessionConfig{Secret: "test-secret", Expiry: time.Hour})
	h := NewSessionMiddleware(jwtService).Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	for _, header := range []string{"", "Token abc", "Bearer", "Bearer not-a-token"} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}
}

func TestRecoverHidesPanic(t *testing.T) {
	log, hook := test.NewNullLogger()
	m := NewLoggingMiddleware(log, time.Second)

	h := m.Handle(m.Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("database exploded")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "exploded")
	assert.Contains(t, rec.Body.String(), "Please try again later")

	require.Len(t, hook.AllEntries(), 2)
	assert.Equal(t, logrus.ErrorLevel, hook.AllEntries()[0].Level)
	assert.Equal(t, http.StatusInternalServerError, hook.LastEntry().Data["status"])
}

func TestHandleWarnsOnSlowRequest(t *testing.T) {
	log, hook := test.NewNullLogger()
	m := NewLoggingMiddleware(log, time.Nanosecond)

	h := m.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Millisecond)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "Slow request", hook.LastEntry().Message)
}
