// Package persistence provides SQLite-based level storage.
// A saved level keeps its build parameters and the classification of every
// cell, which is enough to reassemble the board, mesh and placements exactly.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/hexcake/internal/world"
)

// ErrLevelNotFound is returned when no level has the requested ID.
var ErrLevelNotFound = errors.New("level not found")

// ErrCorruptLevel is returned when stored cells cannot form the level's board.
var ErrCorruptLevel = errors.New("corrupt level data")

// DB wraps a SQLite connection for level persistence.
type DB struct {
	conn *sqlx.DB
}

// LevelRecord is the stored header of one level build.
type LevelRecord struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Seed       int64     `db:"seed" json:"seed"`
	Terrain    string    `db:"terrain" json:"terrain"`
	Rows       int       `db:"row_count" json:"rows"`
	Cols       int       `db:"col_count" json:"cols"`
	Size       float32   `db:"size" json:"size"`
	MeshRadius float32   `db:"mesh_radius" json:"mesh_radius"`
	MeshHeight float32   `db:"mesh_height" json:"mesh_height"`
	Bevel      float32   `db:"bevel" json:"bevel"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// NewLevelRecord creates a record with a fresh ID for a level built from cfg.
func NewLevelRecord(cfg world.LevelConfig, seed int64, terrain string) LevelRecord {
	return LevelRecord{
		ID:         uuid.New(),
		Seed:       seed,
		Terrain:    terrain,
		Rows:       cfg.Rows,
		Cols:       cfg.Cols,
		Size:       cfg.Size,
		MeshRadius: cfg.MeshRadius,
		MeshHeight: cfg.MeshHeight,
		Bevel:      cfg.Bevel,
		CreatedAt:  time.Now().UTC(),
	}
}

// LevelConfig returns the build parameters of the record with palette p.
func (r LevelRecord) LevelConfig(p world.Palette) world.LevelConfig {
	return world.LevelConfig{
		Rows:       r.Rows,
		Cols:       r.Cols,
		Size:       r.Size,
		MeshRadius: r.MeshRadius,
		MeshHeight: r.MeshHeight,
		Bevel:      r.Bevel,
		Palette:    p,
	}
}

type cellRow struct {
	Row      int     `db:"row_idx"`
	Col      int     `db:"col_idx"`
	Height   float32 `db:"height"`
	Category uint8   `db:"category"`
	Water    bool    `db:"water"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS levels (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		terrain TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		col_count INTEGER NOT NULL,
		size REAL NOT NULL,
		mesh_radius REAL NOT NULL,
		mesh_height REAL NOT NULL,
		bevel REAL NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cells (
		level_id TEXT NOT NULL REFERENCES levels(id) ON DELETE CASCADE,
		row_idx INTEGER NOT NULL,
		col_idx INTEGER NOT NULL,
		height REAL NOT NULL,
		category INTEGER NOT NULL,
		water INTEGER NOT NULL,
		PRIMARY KEY (level_id, row_idx, col_idx)
	);

	CREATE TABLE IF NOT EXISTS level_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_levels_created ON levels(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveLevel writes a level header and all of its cells in one transaction.
func (db *DB) SaveLevel(ctx context.Context, rec LevelRecord, lvl *world.Level) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `INSERT INTO levels
		(id, seed, terrain, row_count, col_count, size, mesh_radius, mesh_height, bevel, created_at)
		VALUES (:id, :seed, :terrain, :row_count, :col_count, :size, :mesh_radius, :mesh_height, :bevel, :created_at)`,
		rec)
	if err != nil {
		return fmt.Errorf("insert level %s: %w", rec.ID, err)
	}

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO cells
		(level_id, row_idx, col_idx, height, category, water)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range lvl.Placements {
		cell := lvl.Board.Cells[p.Row][p.Col]
		if _, err := stmt.ExecContext(ctx, rec.ID, p.Row, p.Col, cell.Height, uint8(p.Category), p.Water); err != nil {
			return fmt.Errorf("insert cell (%d,%d): %w", p.Row, p.Col, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Debug("level saved", "id", rec.ID, "cells", len(lvl.Placements))
	return nil
}

// GetLevelRecord returns the header of level id.
func (db *DB) GetLevelRecord(ctx context.Context, id uuid.UUID) (LevelRecord, error) {
	var rec LevelRecord
	err := db.conn.GetContext(ctx, &rec, "SELECT * FROM levels WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("%w: %s", ErrLevelNotFound, id)
	}
	return rec, err
}

// LoadTiles returns the classification of every cell of level id, row-major.
func (db *DB) LoadTiles(ctx context.Context, id uuid.UUID) (LevelRecord, [][]world.Tile, error) {
	rec, err := db.GetLevelRecord(ctx, id)
	if err != nil {
		return rec, nil, err
	}

	var rows []cellRow
	err = db.conn.SelectContext(ctx, &rows,
		"SELECT row_idx, col_idx, height, category, water FROM cells WHERE level_id = ? ORDER BY row_idx, col_idx", id)
	if err != nil {
		return rec, nil, fmt.Errorf("select cells: %w", err)
	}
	if len(rows) != rec.Rows*rec.Cols {
		return rec, nil, fmt.Errorf("level %s: %w: %d cells, want %d", id, ErrCorruptLevel, len(rows), rec.Rows*rec.Cols)
	}

	tiles := make([][]world.Tile, rec.Rows)
	for i := range tiles {
		tiles[i] = make([]world.Tile, rec.Cols)
	}
	for _, c := range rows {
		if c.Row < 0 || c.Row >= rec.Rows || c.Col < 0 || c.Col >= rec.Cols {
			return rec, nil, fmt.Errorf("level %s: %w: cell (%d,%d) outside %dx%d board",
				id, ErrCorruptLevel, c.Row, c.Col, rec.Rows, rec.Cols)
		}
		if !world.TileCategory(c.Category).Valid() {
			return rec, nil, fmt.Errorf("level %s: %w: cell (%d,%d) has category %d",
				id, ErrCorruptLevel, c.Row, c.Col, c.Category)
		}
		tiles[c.Row][c.Col] = world.Tile{
			Category: world.TileCategory(c.Category),
			Height:   c.Height,
			Water:    c.Water,
		}
	}
	return rec, tiles, nil
}

// LoadLevel reassembles level id with palette p. Stored build parameters
// that fail validation are reported as ErrCorruptLevel.
func (db *DB) LoadLevel(ctx context.Context, id uuid.UUID, p world.Palette) (LevelRecord, *world.Level, error) {
	rec, tiles, err := db.LoadTiles(ctx, id)
	if err != nil {
		return rec, nil, err
	}
	cfg := rec.LevelConfig(p)
	if err := cfg.Validate(); err != nil {
		return rec, nil, fmt.Errorf("level %s: %w: %w", id, ErrCorruptLevel, err)
	}
	return rec, world.AssembleLevel(cfg, tiles), nil
}

// ListLevels returns the most recent level headers, newest first.
func (db *DB) ListLevels(ctx context.Context, limit int) ([]LevelRecord, error) {
	var recs []LevelRecord
	err := db.conn.SelectContext(ctx, &recs,
		"SELECT * FROM levels ORDER BY created_at DESC LIMIT ?", limit)
	return recs, err
}

// DeleteLevel removes level id and its cells. If id was the current level,
// no level is current afterwards.
func (db *DB) DeleteLevel(ctx context.Context, id uuid.UUID) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM cells WHERE level_id = ?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM levels WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrLevelNotFound, id)
	}
	// Forget it as the restart level too.
	if _, err := tx.ExecContext(ctx, "DELETE FROM level_meta WHERE key = ? AND value = ?",
		currentLevelKey, id.String()); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveMeta stores a key-value pair in level metadata.
func (db *DB) SaveMeta(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO level_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.GetContext(ctx, &value, "SELECT value FROM level_meta WHERE key = ?", key)
	return value, err
}

// currentLevelKey names the level the service was last serving.
const currentLevelKey = "current_level"

// SetCurrentLevel records id as the level to resume on restart.
func (db *DB) SetCurrentLevel(ctx context.Context, id uuid.UUID) error {
	return db.SaveMeta(ctx, currentLevelKey, id.String())
}

// CurrentLevel returns the level recorded by SetCurrentLevel.
func (db *DB) CurrentLevel(ctx context.Context) (uuid.UUID, error) {
	v, err := db.GetMeta(ctx, currentLevelKey)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, ErrLevelNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(v)
}
