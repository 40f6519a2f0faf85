// Package engine owns the level currently being served: it builds levels
// from configuration, persists them and swaps them in atomically.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/hexcake/internal/config"
	"github.com/talgya/hexcake/internal/entropy"
	"github.com/talgya/hexcake/internal/persistence"
	"github.com/talgya/hexcake/internal/world"
)

// Snapshot is one built level together with its stored header.
// A snapshot is never mutated after it is published.
type Snapshot struct {
	Record persistence.LevelRecord
	Level  *world.Level
}

// Manager holds the current level. Safe for concurrent use.
type Manager struct {
	cfg      *config.Config
	levelCfg world.LevelConfig
	db       *persistence.DB // nil = levels are not persisted

	mu      sync.RWMutex
	current *Snapshot
}

// NewManager creates a manager for cfg. db may be nil.
func NewManager(cfg *config.Config, db *persistence.DB) (*Manager, error) {
	levelCfg, err := cfg.LevelConfig()
	if err != nil {
		return nil, err
	}
	if err := levelCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid board config: %w", err)
	}
	return &Manager{cfg: cfg, levelCfg: levelCfg, db: db}, nil
}

// Current returns the level being served, or nil before the first build.
func (m *Manager) Current() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// LevelConfig returns the build parameters for new levels.
func (m *Manager) LevelConfig() world.LevelConfig {
	return m.levelCfg
}

// Rebuild builds a new level from seed (0 = random), stores it and makes it
// current. The previous level stays current if storing fails.
func (m *Manager) Rebuild(ctx context.Context, seed int64) (*Snapshot, error) {
	seed = entropy.ResolveSeed(seed)

	start := time.Now()
	lvl := world.BuildLevel(m.levelCfg, m.cfg.NewSource(seed))
	snap := &Snapshot{
		Record: persistence.NewLevelRecord(m.levelCfg, seed, m.cfg.Terrain.Mode),
		Level:  lvl,
	}

	if m.db != nil {
		if err := m.db.SaveLevel(ctx, snap.Record, lvl); err != nil {
			return nil, fmt.Errorf("save level: %w", err)
		}
		if err := m.db.SetCurrentLevel(ctx, snap.Record.ID); err != nil {
			return nil, fmt.Errorf("mark current level: %w", err)
		}
	}

	m.publish(snap)
	logLevel("level built", snap, time.Since(start))
	return snap, nil
}

// Restore makes the level last marked current in the store current again.
// It reports false, with no error, when there is nothing to restore.
func (m *Manager) Restore(ctx context.Context) (bool, error) {
	if m.db == nil {
		return false, nil
	}
	id, err := m.db.CurrentLevel(ctx)
	if errors.Is(err, persistence.ErrLevelNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read current level: %w", err)
	}
	if _, err := m.Open(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// Open loads a stored level and makes it current.
func (m *Manager) Open(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	if m.db == nil {
		return nil, fmt.Errorf("open level %s: no level store", id)
	}
	rec, lvl, err := m.db.LoadLevel(ctx, id, m.levelCfg.Palette)
	if err != nil {
		return nil, fmt.Errorf("load level: %w", err)
	}
	snap := &Snapshot{Record: rec, Level: lvl}
	if err := m.db.SetCurrentLevel(ctx, id); err != nil {
		return nil, fmt.Errorf("mark current level: %w", err)
	}
	m.publish(snap)
	logLevel("level restored", snap, 0)
	return snap, nil
}

// ErrLevelCurrent is returned when deleting the level being served.
var ErrLevelCurrent = errors.New("level is current")

// Delete removes a stored level. The level being served cannot be deleted;
// open or rebuild another one first.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	if m.db == nil {
		return fmt.Errorf("delete level %s: no level store", id)
	}
	if cur := m.Current(); cur != nil && cur.Record.ID == id {
		return fmt.Errorf("delete level %s: %w", id, ErrLevelCurrent)
	}
	if err := m.db.DeleteLevel(ctx, id); err != nil {
		return fmt.Errorf("delete level: %w", err)
	}
	slog.Info("level deleted", "id", id)
	return nil
}

// List returns recently stored level headers, newest first.
func (m *Manager) List(ctx context.Context, limit int) ([]persistence.LevelRecord, error) {
	if m.db == nil {
		if cur := m.Current(); cur != nil {
			return []persistence.LevelRecord{cur.Record}, nil
		}
		return nil, nil
	}
	return m.db.ListLevels(ctx, limit)
}

func (m *Manager) publish(snap *Snapshot) {
	m.mu.Lock()
	m.current = snap
	m.mu.Unlock()
}

func logLevel(msg string, snap *Snapshot, took time.Duration) {
	counts := snap.Level.CategoryCounts()
	slog.Info(msg,
		"id", snap.Record.ID,
		"seed", snap.Record.Seed,
		"terrain", snap.Record.Terrain,
		"board", snap.Level.Board.String(),
		"water", counts[world.TileWater],
		"grass", counts[world.TileGrass],
		"hill", counts[world.TileHill],
		"mesh_size", humanize.Bytes(snap.Level.Mesh.ByteSize()),
		"took", took,
	)
}
