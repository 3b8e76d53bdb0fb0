package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfu/musify/internal/app/playback"
	"github.com/tfu/musify/internal/app/recommend"
	"github.com/tfu/musify/internal/domain/track"
	"github.com/tfu/musify/internal/infra/memory"
	"github.com/tfu/musify/internal/infra/metrics"
)

const testSecret = "test-secret"

type stubResolver struct{}

func (stubResolver) Resolve(ctx context.Context, trackID string) (string, bool) {
	return "https://cdn.example/high-bitrate/" + trackID, false
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog := memory.NewCatalog([]track.Track{
		{ID: "t1", Title: "One", Artist: "Queen", Genre: "rock"},
		{ID: "t2", Title: "Two", Artist: "Queen", Genre: "rock"},
		{ID: "t3", Title: "Three", Artist: "ABBA", Genre: "pop"},
	})

	orch := playback.NewOrchestrator(
		playback.NewSessionStore(),
		catalog,
		memory.NewHistoryStore(),
		stubResolver{},
		recommend.NewEngine(catalog, 5),
		metrics.NewRegistry(),
	)
	return NewRouter(NewHandler(orch, metrics.NewRegistry()), testSecret)
}

func signToken(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func doRequest(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuth_MissingToken(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/playback/status", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_InvalidToken(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/playback/status", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	wrongKey := signToken(t, "other-secret", "u1")
	rec = doRequest(t, router, http.MethodGet, "/api/playback/status", wrongKey, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealth_NoAuthRequired(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStart_ReturnsView(t *testing.T) {
	router := newTestRouter(t)
	token := signToken(t, testSecret, "u1")

	rec := doRequest(t, router, http.MethodPost, "/api/playback/start", token,
		gin.H{"trackId": "t1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var view playback.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "https://cdn.example/high-bitrate/t1", view.StreamURL)
	require.NotNil(t, view.Current)
	assert.Equal(t, "One", view.Current.Title)
	assert.NotEmpty(t, view.Recommendations)
}

func TestStart_MissingTrackID(t *testing.T) {
	router := newTestRouter(t)
	token := signToken(t, testSecret, "u1")

	rec := doRequest(t, router, http.MethodPost, "/api/playback/start", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNavigation_Flow(t *testing.T) {
	router := newTestRouter(t)
	token := signToken(t, testSecret, "u1")

	rec := doRequest(t, router, http.MethodPost, "/api/playback/start", token,
		gin.H{"trackId": "t1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/playback/next", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view playback.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.NotNil(t, view.Previous)
	assert.Equal(t, "t1", view.Previous.ID)

	rec = doRequest(t, router, http.MethodPost, "/api/playback/previous", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.NotNil(t, view.Current)
	assert.Equal(t, "t1", view.Current.ID)

	rec = doRequest(t, router, http.MethodPost, "/api/playback/previous", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "stack exhausted")
}

func TestPauseResumeStop(t *testing.T) {
	router := newTestRouter(t)
	token := signToken(t, testSecret, "u1")

	rec := doRequest(t, router, http.MethodPost, "/api/playback/pause", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "no session yet")

	doRequest(t, router, http.MethodPost, "/api/playback/start", token, gin.H{"trackId": "t1"})

	rec = doRequest(t, router, http.MethodPost, "/api/playback/pause", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/playback/status", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status playback.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Paused)
	assert.Equal(t, "t1", status.TrackID)
	assert.GreaterOrEqual(t, status.DurationSeconds, int64(0))
	assert.Contains(t, rec.Body.String(), `"durationSeconds"`)

	rec = doRequest(t, router, http.MethodPost, "/api/playback/resume", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/playback/resume", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "already playing")

	rec = doRequest(t, router, http.MethodPost, "/api/playback/stop", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/playback/status", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistory_Listing(t *testing.T) {
	router := newTestRouter(t)
	token := signToken(t, testSecret, "u1")

	doRequest(t, router, http.MethodPost, "/api/playback/start", token, gin.H{"trackId": "t1"})
	doRequest(t, router, http.MethodPost, "/api/playback/next", token, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/playback/history?limit=10", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data  []json.RawMessage `json:"data"`
		Limit int               `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, 10, resp.Limit)
}

func TestHistory_RangeFilter(t *testing.T) {
	router := newTestRouter(t)
	token := signToken(t, testSecret, "u1")

	doRequest(t, router, http.MethodPost, "/api/playback/start", token, gin.H{"trackId": "t1"})

	var resp struct {
		Data []json.RawMessage `json:"data"`
	}

	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	rec := doRequest(t, router, http.MethodGet, "/api/playback/history?from="+past, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)

	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	rec = doRequest(t, router, http.MethodGet, "/api/playback/history?from="+future, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp.Data = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data)

	rec = doRequest(t, router, http.MethodGet, "/api/playback/history?from=yesterday", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetrics_Endpoint(t *testing.T) {
	router := newTestRouter(t)
	token := signToken(t, testSecret, "u1")

	rec := doRequest(t, router, http.MethodGet, "/api/metrics", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap map[string]metrics.Stat
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
}

func TestUsers_AreIsolated(t *testing.T) {
	router := newTestRouter(t)
	alice := signToken(t, testSecret, "alice")
	bob := signToken(t, testSecret, "bob")

	doRequest(t, router, http.MethodPost, "/api/playback/start", alice, gin.H{"trackId": "t1"})

	rec := doRequest(t, router, http.MethodGet, "/api/playback/status", bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
