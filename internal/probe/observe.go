// Package probe reads a running hexcake server back over HTTP and reports
// on the level it is serving.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// LevelSnapshot holds everything fetched during one observation.
type LevelSnapshot struct {
	Status     Status      `json:"status"`
	Board      BoardData   `json:"board"`
	Placements []Placement `json:"placements"`
}

// Status mirrors GET /api/v1/status.
type Status struct {
	Name       string         `json:"name"`
	LevelID    string         `json:"level_id"`
	Seed       int64          `json:"seed"`
	Terrain    string         `json:"terrain"`
	Rows       int            `json:"rows"`
	Cols       int            `json:"cols"`
	Cells      int            `json:"cells"`
	Placements int            `json:"placements"`
	Categories map[string]int `json:"categories"`
	Mesh       struct {
		Vertices  int    `json:"vertices"`
		Triangles int    `json:"triangles"`
		Size      string `json:"size"`
	} `json:"mesh"`
	Built string `json:"built"`
}

// BoardData mirrors GET /api/v1/board.
type BoardData struct {
	LevelID string      `json:"level_id"`
	Rows    int         `json:"rows"`
	Cols    int         `json:"cols"`
	Heights [][]float32 `json:"heights"`
	Spawn   [2]int      `json:"spawn"`
	Bonus   [2]int      `json:"bonus"`
}

// Placement mirrors items from GET /api/v1/level.
type Placement struct {
	Q        int        `json:"q"`
	R        int        `json:"r"`
	S        int        `json:"s"`
	Row      int        `json:"row"`
	Col      int        `json:"col"`
	Position [3]float32 `json:"position"`
	Category string     `json:"category"`
	Color    string     `json:"color"`
	Water    bool       `json:"water"`
}

// Observer fetches level state from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Observe fetches status, board and placements and returns a LevelSnapshot.
func (o *Observer) Observe(ctx context.Context) (*LevelSnapshot, error) {
	snap := &LevelSnapshot{}

	if err := o.fetchJSON(ctx, "/api/v1/status", &snap.Status); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	if err := o.fetchJSON(ctx, "/api/v1/board", &snap.Board); err != nil {
		return nil, fmt.Errorf("fetch board: %w", err)
	}
	var level struct {
		LevelID    string      `json:"level_id"`
		Placements []Placement `json:"placements"`
	}
	if err := o.fetchJSON(ctx, "/api/v1/level", &level); err != nil {
		return nil, fmt.Errorf("fetch level: %w", err)
	}
	snap.Placements = level.Placements

	// A rebuild between requests mixes two levels.
	if snap.Board.LevelID != snap.Status.LevelID || level.LevelID != snap.Status.LevelID {
		return nil, fmt.Errorf("level changed during observation (%s, %s, %s)",
			snap.Status.LevelID, snap.Board.LevelID, level.LevelID)
	}
	return snap, nil
}

// Ready reports whether the API is serving a level.
func (o *Observer) Ready(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+"/api/v1/status", nil)
	if err != nil {
		return false
	}
	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
