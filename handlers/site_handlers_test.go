package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse/api/middleware"
	"pulse/api/models"
)

func (e *testEnv) authed(t *testing.T, req *http.Request, userID int) *httptest.ResponseRecorder {
	t.Helper()
	token, err := e.jwt.GenerateJWT(&models.User{ID: userID, Email: "owner@example.com"})
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: middleware.AuthCookieName, Value: token})
	return e.do(req)
}

func TestSites_RequireAuth(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/sites", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSites_CreateListDelete(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/sites", jsonBody(t, models.CreateSiteRequest{Name: " Blog ", Domain: "blog.example.com"}))
	req.Header.Set("Content-Type", "application/json")
	w := env.authed(t, req, 2)
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Site
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Blog", created.Name)
	assert.Equal(t, 2, created.UserID)
	assert.True(t, strings.HasPrefix(created.APIKey, "pk_"))

	// The new key authenticates beacons right away.
	tw := env.track(t, `{"apiKey":"`+created.APIKey+`","type":"pageview","data":{}}`, "1.2.3.4", chromeOnWindows)
	require.Equal(t, http.StatusOK, tw.Code)

	w = env.authed(t, httptest.NewRequest(http.MethodGet, "/api/sites", nil), 2)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []models.SiteSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
	assert.Equal(t, models.SiteCounts{PageViews: 1}, listed[0].Counts)

	// Another user cannot delete it.
	w = env.authed(t, httptest.NewRequest(http.MethodDelete, "/api/sites/"+created.ID, nil), 3)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.authed(t, httptest.NewRequest(http.MethodDelete, "/api/sites/"+created.ID, nil), 2)
	assert.Equal(t, http.StatusNoContent, w.Code)

	_, err := env.mem.GetSiteByID(context.Background(), created.ID)
	var nf *models.NotFoundError
	assert.ErrorAs(t, err, &nf)

	env.clock.Advance(time.Minute)
	aw, _ := env.analytics(t, "?siteId="+created.ID)
	assert.Equal(t, http.StatusNotFound, aw.Code)
}

func TestSites_CreateValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/sites", strings.NewReader(`{"name":"Blog"}`))
	req.Header.Set("Content-Type", "application/json")
	w := env.authed(t, req, 2)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSites_ListEmpty(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.authed(t, httptest.NewRequest(http.MethodGet, "/api/sites", nil), 99)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}
