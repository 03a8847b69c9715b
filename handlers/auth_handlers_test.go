package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse/api/middleware"
	"pulse/api/models"
)

func signup(t *testing.T, env *testEnv, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/signup", jsonBody(t, models.SignupRequest{Email: email, Password: password}))
	req.Header.Set("Content-Type", "application/json")
	return env.do(req)
}

func login(t *testing.T, env *testEnv, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/login", jsonBody(t, models.LoginRequest{Email: email, Password: password}))
	req.Header.Set("Content-Type", "application/json")
	return env.do(req)
}

func TestSignup(t *testing.T) {
	env := newTestEnv(t, nil)

	w := signup(t, env, "owner@example.com", "correct-horse")
	assert.Equal(t, http.StatusCreated, w.Code)

	w = signup(t, env, "owner@example.com", "correct-horse")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = signup(t, env, "not-an-email", "correct-horse")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = signup(t, env, "short@example.com", "short")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginIssuesCookieUsableForSites(t *testing.T) {
	env := newTestEnv(t, nil)
	require.Equal(t, http.StatusCreated, signup(t, env, "owner@example.com", "correct-horse").Code)

	w := login(t, env, "owner@example.com", "wrong-password")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = login(t, env, "nobody@example.com", "correct-horse")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = login(t, env, "owner@example.com", "correct-horse")
	require.Equal(t, http.StatusOK, w.Code)

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.AuthCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 3600, cookie.MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/api/sites", nil)
	req.AddCookie(cookie)
	assert.Equal(t, http.StatusOK, env.do(req).Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(httptest.NewRequest(http.MethodPost, "/api/logout", nil))
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.AuthCookieName, cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestEmailsMatchCaseInsensitively(t *testing.T) {
	env := newTestEnv(t, nil)
	require.Equal(t, http.StatusCreated, signup(t, env, "Owner@Example.com", "correct-horse").Code)

	assert.Equal(t, http.StatusConflict, signup(t, env, "owner@example.com", "correct-horse").Code)
	assert.Equal(t, http.StatusOK, login(t, env, "OWNER@example.COM", "correct-horse").Code)
}
