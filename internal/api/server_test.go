package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/hexcake/internal/config"
	"github.com/talgya/hexcake/internal/engine"
	"github.com/talgya/hexcake/internal/persistence"
)

func newTestServer(t *testing.T, withStore bool) (*Server, http.Handler) {
	t.Helper()
	t.Chdir(t.TempDir())
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Board.Rows, cfg.Board.Cols = 3, 3

	var db *persistence.DB
	if withStore {
		db, err = persistence.Open(filepath.Join(t.TempDir(), "levels.db"))
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
	}
	m, err := engine.NewManager(cfg, db)
	require.NoError(t, err)

	s := &Server{Levels: m, AdminKey: "secret"}
	return s, s.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestGetEndpoints_NoLevel(t *testing.T) {
	_, h := newTestServer(t, false)
	for _, path := range []string{"/api/v1/status", "/api/v1/level", "/api/v1/board", "/api/v1/mesh", "/api/v1/water", "/api/v1/height/0/0"} {
		rec := do(t, h, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}

	rec := do(t, h, http.MethodGet, "/api/v1/levels", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestGetEndpoints(t *testing.T) {
	s, h := newTestServer(t, false)
	_, err := s.Levels.Rebuild(t.Context(), 7)
	require.NoError(t, err)

	rec := do(t, h, http.MethodGet, "/api/v1/status", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	status := decode(t, rec)
	assert.Equal(t, float64(9), status["cells"])
	assert.Equal(t, float64(9), status["placements"])
	assert.Equal(t, float64(7), status["seed"])
	mesh := status["mesh"].(map[string]any)
	assert.Equal(t, float64(38), mesh["vertices"])
	assert.Equal(t, float64(36), mesh["triangles"])

	rec = do(t, h, http.MethodGet, "/api/v1/level", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var level struct {
		Placements []placementEntry `json:"placements"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &level))
	require.Len(t, level.Placements, 9)
	assert.Equal(t, 0, level.Placements[0].Row)
	assert.Equal(t, 1, level.Placements[1].Col)
	for _, p := range level.Placements {
		assert.Equal(t, 0, p.Q+p.R+p.S)
		assert.True(t, strings.HasPrefix(p.Color, "#"))
	}

	rec = do(t, h, http.MethodGet, "/api/v1/board", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	board := decode(t, rec)
	assert.Equal(t, []any{float64(1), float64(1)}, board["spawn"])
	assert.NotEqual(t, board["spawn"], board["bonus"])
	assert.Len(t, board["heights"], 3)

	rec = do(t, h, http.MethodGet, "/api/v1/mesh", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var m struct {
		Positions [][3]float32
		Indices   []uint32
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Len(t, m.Positions, 38)
	assert.Len(t, m.Indices, 108)

	rec = do(t, h, http.MethodGet, "/api/v1/water?t=1.5", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.5, decode(t, rec)["t"])

	rec = do(t, h, http.MethodGet, "/api/v1/height/1/2?lift=0.5", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	height := decode(t, rec)
	assert.InDelta(t, height["height"].(float64)+0.5, height["standing"].(float64), 1e-6)
}

func TestGetEndpoints_BadInput(t *testing.T) {
	s, h := newTestServer(t, false)
	_, err := s.Levels.Rebuild(t.Context(), 7)
	require.NoError(t, err)

	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/height/9/9", http.StatusNotFound},
		{"/api/v1/height/-1/0", http.StatusNotFound},
		{"/api/v1/height/a/0", http.StatusBadRequest},
		{"/api/v1/height/1", http.StatusBadRequest},
		{"/api/v1/height/1/1?lift=x", http.StatusBadRequest},
		{"/api/v1/water?t=soon", http.StatusBadRequest},
		{"/api/v1/water?t=NaN", http.StatusBadRequest},
		{"/api/v1/water?t=-Inf", http.StatusBadRequest},
		{"/api/v1/height/1/1?lift=Inf", http.StatusBadRequest},
		{"/api/v1/height/1/1?lift=nan", http.StatusBadRequest},
		{"/api/v1/levels?limit=0", http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := do(t, h, http.MethodGet, tt.path, "", "")
		assert.Equal(t, tt.want, rec.Code, tt.path)
	}

	rec := do(t, h, http.MethodPost, "/api/v1/status", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRebuild_Auth(t *testing.T) {
	s, h := newTestServer(t, false)

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/api/v1/rebuild", "", "secret").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/api/v1/rebuild", "", "wrong").Code)
	assert.Nil(t, s.Levels.Current())

	rec := do(t, h, http.MethodPost, "/api/v1/rebuild", `{"seed": 99}`, "secret")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(99), decode(t, rec)["seed"])
	require.NotNil(t, s.Levels.Current())

	rec = do(t, h, http.MethodPost, "/api/v1/rebuild", "", "secret")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotZero(t, decode(t, rec)["seed"])

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/rebuild", "{", "secret").Code)
}

func TestRebuild_Disabled(t *testing.T) {
	s, _ := newTestServer(t, false)
	s.AdminKey = ""
	rec := do(t, s.Handler(), http.MethodPost, "/api/v1/rebuild", "", "anything")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRebuild_RateLimited(t *testing.T) {
	s, _ := newTestServer(t, false)
	s.RebuildPerHour = 1
	h := s.Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/v1/rebuild", "", "secret").Code)
	rec := do(t, h, http.MethodPost, "/api/v1/rebuild", "", "secret")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestOpen(t *testing.T) {
	s, h := newTestServer(t, true)
	first, err := s.Levels.Rebuild(t.Context(), 1)
	require.NoError(t, err)
	_, err = s.Levels.Rebuild(t.Context(), 2)
	require.NoError(t, err)

	rec := do(t, h, http.MethodGet, "/api/v1/levels?limit=5", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var recs []persistence.LevelRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recs))
	assert.Len(t, recs, 2)

	rec = do(t, h, http.MethodPost, "/api/v1/open/"+first.Record.ID.String(), "", "secret")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first.Record.ID, s.Levels.Current().Record.ID)
	assert.Equal(t, first.Level.Board, s.Levels.Current().Level.Board)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/open/nope", "", "secret").Code)
	assert.Equal(t, http.StatusNotFound,
		do(t, h, http.MethodPost, "/api/v1/open/00000000-0000-0000-0000-000000000001", "", "secret").Code)
}

func TestCORS(t *testing.T) {
	_, h := newTestServer(t, false)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/status", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestDelete(t *testing.T) {
	s, h := newTestServer(t, true)
	old, err := s.Levels.Rebuild(t.Context(), 1)
	require.NoError(t, err)
	cur, err := s.Levels.Rebuild(t.Context(), 2)
	require.NoError(t, err)

	oldPath := "/api/v1/levels/" + old.Record.ID.String()
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodPost, oldPath, "", "secret").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodDelete, oldPath, "", "").Code)
	assert.Equal(t, http.StatusConflict,
		do(t, h, http.MethodDelete, "/api/v1/levels/"+cur.Record.ID.String(), "", "secret").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodDelete, "/api/v1/levels/nope", "", "secret").Code)

	rec := do(t, h, http.MethodDelete, oldPath, "", "secret")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "level deleted", decode(t, rec)["message"])
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, oldPath, "", "secret").Code)

	rec = do(t, h, http.MethodGet, "/api/v1/levels", "", "")
	var recs []persistence.LevelRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, cur.Record.ID, recs[0].ID)
}
