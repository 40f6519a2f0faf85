// Package api provides the HTTP API that hands the current level to a
// renderer: the shared tile mesh, one placement per cell and the board
// heights. GET endpoints are public; POST and DELETE endpoints require a
// bearer token.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/hexcake/internal/engine"
	"github.com/talgya/hexcake/internal/entropy"
	"github.com/talgya/hexcake/internal/persistence"
	"github.com/talgya/hexcake/internal/world"
)

// Server serves the current level over HTTP.
type Server struct {
	Levels   *engine.Manager
	Port     int
	AdminKey string // Bearer token for admin endpoints. Empty = admin disabled.

	// RebuildPerHour caps POST /api/v1/rebuild per client. 0 = 30.
	RebuildPerHour int
	// TrustProxy identifies clients by X-Forwarded-For. Only enable behind
	// a reverse proxy that overwrites the header.
	TrustProxy bool

	srv *http.Server
}

// Handler returns the API routes wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	perHour := s.RebuildPerHour
	if perHour <= 0 {
		perHour = 30
	}
	rebuildLimiter := NewRateLimiter(perHour, time.Hour)
	rebuildLimiter.TrustProxy = s.TrustProxy

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.withLevel(s.handleStatus))
	mux.HandleFunc("/api/v1/level", s.withLevel(s.handleLevel))
	mux.HandleFunc("/api/v1/board", s.withLevel(s.handleBoard))
	mux.HandleFunc("/api/v1/mesh", s.withLevel(s.handleMesh))
	mux.HandleFunc("/api/v1/water", s.withLevel(s.handleWater))
	mux.HandleFunc("/api/v1/height/", s.withLevel(s.handleHeight))
	mux.HandleFunc("/api/v1/levels", s.handleLevels)

	// Admin endpoints (require bearer token).
	mux.HandleFunc("/api/v1/rebuild", s.adminOnly(http.MethodPost, RateLimitMiddleware(rebuildLimiter, s.handleRebuild)))
	mux.HandleFunc("/api/v1/open/", s.adminOnly(http.MethodPost, s.handleOpen))
	mux.HandleFunc("/api/v1/levels/", s.adminOnly(http.MethodDelete, s.handleDelete))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops the server started by Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require method with bearer token auth.
func (s *Server) adminOnly(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no admin key set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// withLevel restricts a handler to GET and hands it the current level.
func (s *Server) withLevel(next func(http.ResponseWriter, *http.Request, *engine.Snapshot)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		snap := s.Levels.Current()
		if snap == nil {
			http.Error(w, "no level built yet", http.StatusServiceUnavailable)
			return
		}
		next(w, r, snap)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request, snap *engine.Snapshot) {
	lvl := snap.Level
	counts := lvl.CategoryCounts()

	writeJSON(w, map[string]any{
		"name":       "hexcake",
		"level_id":   snap.Record.ID,
		"seed":       snap.Record.Seed,
		"terrain":    snap.Record.Terrain,
		"rows":       lvl.Board.Rows,
		"cols":       lvl.Board.Cols,
		"cells":      lvl.Board.CellCount(),
		"placements": len(lvl.Placements),
		"categories": map[string]int{
			world.TileWater.String(): counts[world.TileWater],
			world.TileGrass.String(): counts[world.TileGrass],
			world.TileHill.String():  counts[world.TileHill],
		},
		"mesh": map[string]any{
			"vertices":  lvl.Mesh.VertexCount(),
			"triangles": lvl.Mesh.TriangleCount(),
			"size":      humanize.Bytes(lvl.Mesh.ByteSize()),
		},
		"built": humanize.Time(snap.Record.CreatedAt),
	})
}

// placementEntry is the wire form of a world.Placement.
type placementEntry struct {
	Q           int        `json:"q"`
	R           int        `json:"r"`
	S           int        `json:"s"`
	Row         int        `json:"row"`
	Col         int        `json:"col"`
	Position    [3]float32 `json:"position"`
	BevelHeight float32    `json:"bevel_height"`
	Category    string     `json:"category"`
	Color       string     `json:"color"`
	Water       bool       `json:"water"`
}

func newPlacementEntry(p world.Placement) placementEntry {
	return placementEntry{
		Q:           p.Coord.Q,
		R:           p.Coord.R,
		S:           p.Coord.S,
		Row:         p.Row,
		Col:         p.Col,
		Position:    p.Position,
		BevelHeight: p.BevelHeight,
		Category:    p.Category.String(),
		Color:       p.Color.Hex(),
		Water:       p.Water,
	}
}

// handleLevel returns every placement. All of them instance the mesh from
// GET /api/v1/mesh.
func (s *Server) handleLevel(w http.ResponseWriter, r *http.Request, snap *engine.Snapshot) {
	entries := make([]placementEntry, 0, len(snap.Level.Placements))
	for _, p := range snap.Level.Placements {
		entries = append(entries, newPlacementEntry(p))
	}
	writeJSON(w, map[string]any{
		"level_id":   snap.Record.ID,
		"mesh":       "/api/v1/mesh",
		"placements": entries,
	})
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request, snap *engine.Snapshot) {
	b := snap.Level.Board
	heights := make([][]float32, b.Rows)
	for i, row := range b.Cells {
		heights[i] = make([]float32, len(row))
		for j, c := range row {
			heights[i][j] = c.Height
		}
	}
	spawnRow, spawnCol := b.SpawnCell()
	// The first bonus cell is derived from the level seed, so every client
	// agrees on it.
	bonusRow, bonusCol := b.RandomCellExcluding(entropy.NewSeeded(snap.Record.Seed), spawnRow, spawnCol)
	writeJSON(w, map[string]any{
		"level_id": snap.Record.ID,
		"rows":     b.Rows,
		"cols":     b.Cols,
		"heights":  heights,
		"spawn":    [2]int{spawnRow, spawnCol},
		"bonus":    [2]int{bonusRow, bonusCol},
	})
}

func (s *Server) handleMesh(w http.ResponseWriter, r *http.Request, snap *engine.Snapshot) {
	writeJSON(w, snap.Level.Mesh)
}

// handleWater returns water placements displaced by the ripple at ?t= seconds.
func (s *Server) handleWater(w http.ResponseWriter, r *http.Request, snap *engine.Snapshot) {
	var t float64
	if v := r.URL.Query().Get("t"); v != "" {
		var err error
		if t, err = parseFinite(v); err != nil {
			http.Error(w, "invalid t", http.StatusBadRequest)
			return
		}
	}

	water := snap.Level.WaterPlacements()
	entries := make([]placementEntry, 0, len(water))
	for _, p := range water {
		e := newPlacementEntry(p)
		e.Position = world.ApplyRipple(p, float32(t))
		entries = append(entries, e)
	}
	writeJSON(w, map[string]any{
		"t":     t,
		"water": entries,
	})
}

// handleHeight answers GET /api/v1/height/:row/:col[?lift=0.2].
func (s *Server) handleHeight(w http.ResponseWriter, r *http.Request, snap *engine.Snapshot) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/height/"), "/"), "/")
	if len(parts) != 2 {
		http.Error(w, "usage: /api/v1/height/:row/:col", http.StatusBadRequest)
		return
	}
	row, err1 := strconv.Atoi(parts[0])
	col, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		http.Error(w, "invalid cell", http.StatusBadRequest)
		return
	}

	var lift float64
	if v := r.URL.Query().Get("lift"); v != "" {
		var err error
		if lift, err = parseFinite(v); err != nil {
			http.Error(w, "invalid lift", http.StatusBadRequest)
			return
		}
	}

	cell, ok := snap.Level.Board.At(row, col)
	if !ok {
		http.Error(w, "cell not found", http.StatusNotFound)
		return
	}
	standing, _ := snap.Level.Board.StandingHeight(row, col, float32(lift))
	writeJSON(w, map[string]any{
		"row":      row,
		"col":      col,
		"height":   cell.Height,
		"standing": standing,
	})
}

func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, 200)
	}

	recs, err := s.Levels.List(r.Context(), limit)
	if err != nil {
		slog.Error("list levels failed", "error", err)
		http.Error(w, "list levels failed", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []persistence.LevelRecord{}
	}
	writeJSON(w, recs)
}

// handleRebuild builds a fresh level. Body is optional: {"seed": 42}.
func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seed int64 `json:"seed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	snap, err := s.Levels.Rebuild(r.Context(), req.Seed)
	if err != nil {
		slog.Error("rebuild failed", "error", err)
		http.Error(w, "rebuild failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"level_id": snap.Record.ID,
		"seed":     snap.Record.Seed,
		"message":  "level rebuilt",
	})
}

// handleOpen makes a stored level current: POST /api/v1/open/:id.
func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/open/"), "/"))
	if err != nil {
		http.Error(w, "invalid level id", http.StatusBadRequest)
		return
	}

	snap, err := s.Levels.Open(r.Context(), id)
	switch {
	case errors.Is(err, persistence.ErrLevelNotFound):
		http.Error(w, "level not found", http.StatusNotFound)
		return
	case err != nil:
		slog.Error("open level failed", "id", id, "error", err)
		http.Error(w, "open level failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"level_id": snap.Record.ID,
		"seed":     snap.Record.Seed,
		"message":  "level opened",
	})
}

// parseFinite parses a float32 query value. NaN and Inf are rejected as
// encoding/json cannot write them.
func parseFinite(v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %q", v)
	}
	return f, nil
}

// handleDelete removes a stored level: DELETE /api/v1/levels/:id.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/levels/"), "/"))
	if err != nil {
		http.Error(w, "invalid level id", http.StatusBadRequest)
		return
	}

	err = s.Levels.Delete(r.Context(), id)
	switch {
	case errors.Is(err, persistence.ErrLevelNotFound):
		http.Error(w, "level not found", http.StatusNotFound)
		return
	case errors.Is(err, engine.ErrLevelCurrent):
		http.Error(w, "level is being served; open or rebuild another first", http.StatusConflict)
		return
	case err != nil:
		slog.Error("delete level failed", "id", id, "error", err)
		http.Error(w, "delete level failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"level_id": id,
		"message":  "level deleted",
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Debug("write response failed", "error", err)
	}
}
