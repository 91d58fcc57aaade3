package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Iyke200/doculuna/internal/util"
)

const testSecret = "test-signing-secret"

func authedRequest(t *testing.T, userID string, admin bool) *http.Request {
	t.Helper()
	token, err := util.IssueJWT(testSecret, userID, admin, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestAuthMiddlewareInjectsUser(t *testing.T) {
	var gotUser string
	var gotAdmin bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = UserID(r)
		gotAdmin, _ = r.Context().Value(AdminContextKey).(bool)
	})

	var ensured []string
	ensure := func(_ context.Context, userID string) error {
		ensured = append(ensured, userID)
		return nil
	}

	rec := httptest.NewRecorder()
	AuthMiddleware(testSecret, ensure, zerolog.Nop())(next).ServeHTTP(rec, authedRequest(t, "u1", true))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "u1", gotUser)
	require.True(t, gotAdmin)
	require.Equal(t, []string{"u1"}, ensured)
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	AuthMiddleware(testSecret, nil, zerolog.Nop())(dummyNext(t)).ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsMalformedHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Token abc")
	AuthMiddleware(testSecret, nil, zerolog.Nop())(dummyNext(t)).ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsWrongSecret(t *testing.T) {
	token, err := util.IssueJWT("other-secret", "u1", false, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	AuthMiddleware(testSecret, nil, zerolog.Nop())(dummyNext(t)).ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsExpiredToken(t *testing.T) {
	token, err := util.IssueJWT(testSecret, "u1", false, -time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	AuthMiddleware(testSecret, nil, zerolog.Nop())(dummyNext(t)).ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareFailsWhenEnsureFails(t *testing.T) {
	ensure := func(context.Context, string) error {
		return errors.New("db down")
	}
	rec := httptest.NewRecorder()
	AuthMiddleware(testSecret, ensure, zerolog.Nop())(dummyNext(t)).ServeHTTP(rec, authedRequest(t, "u1", false))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

// dummyNext fails the test if the middleware lets the request through.
func dummyNext(t *testing.T) http.Handler {
	return http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("request should not reach the handler")
	})
}
