// Package config loads hexcake settings from defaults, an optional YAML file
// and HEXCAKE_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/talgya/hexcake/internal/entropy"
	"github.com/talgya/hexcake/internal/world"
)

// Terrain modes select the draw source behind a level build.
const (
	TerrainUniform = "uniform"
	TerrainNoise   = "noise"
)

// MeshConfig holds the shared tile mesh parameters.
type MeshConfig struct {
	Radius float32 `mapstructure:"radius"`
	Height float32 `mapstructure:"height"`
	Bevel  float32 `mapstructure:"bevel"`
}

// BoardConfig holds the board layout.
type BoardConfig struct {
	Rows    int        `mapstructure:"rows"`
	Cols    int        `mapstructure:"cols"`
	Size    float32    `mapstructure:"size"`
	Mesh    MeshConfig `mapstructure:"mesh"`
	Palette []string   `mapstructure:"palette"`
}

// TerrainConfig selects and tunes the draw source.
type TerrainConfig struct {
	Mode        string  `mapstructure:"mode"`
	Seed        int64   `mapstructure:"seed"` // 0 = random
	Frequency   float64 `mapstructure:"frequency"`
	Octaves     int     `mapstructure:"octaves"`
	Persistence float64 `mapstructure:"persistence"`
}

// APIConfig holds HTTP API settings.
type APIConfig struct {
	Port           int    `mapstructure:"port"`
	AdminKey       string `mapstructure:"adminKey"` // Bearer token for admin endpoints. Empty = admin disabled.
	RebuildPerHour int    `mapstructure:"rebuildPerHour"`
	TrustProxy     bool   `mapstructure:"trustProxy"` // Honour X-Forwarded-For for rate limiting
}

// Config is the full hexcake configuration.
type Config struct {
	LogLevel string        `mapstructure:"logLevel"`
	DBPath   string        `mapstructure:"dbPath"`
	Board    BoardConfig   `mapstructure:"board"`
	Terrain  TerrainConfig `mapstructure:"terrain"`
	API      APIConfig     `mapstructure:"api"`
}

func setDefaults(v *viper.Viper) {
	lvl := world.DefaultLevelConfig()

	v.SetDefault("logLevel", "info")
	v.SetDefault("dbPath", "data/hexcake.db")

	v.SetDefault("board.rows", lvl.Rows)
	v.SetDefault("board.cols", lvl.Cols)
	v.SetDefault("board.size", lvl.Size)
	v.SetDefault("board.mesh.radius", lvl.MeshRadius)
	v.SetDefault("board.mesh.height", lvl.MeshHeight)
	v.SetDefault("board.mesh.bevel", lvl.Bevel)
	v.SetDefault("board.palette", append([]string(nil), world.DefaultPaletteHex[:]...))

	noise := entropy.DefaultNoiseConfig(lvl.Rows, lvl.Cols)
	v.SetDefault("terrain.mode", TerrainUniform)
	v.SetDefault("terrain.seed", 0)
	v.SetDefault("terrain.frequency", noise.Frequency)
	v.SetDefault("terrain.octaves", noise.Octaves)
	v.SetDefault("terrain.persistence", noise.Persistence)

	v.SetDefault("api.port", 8080)
	v.SetDefault("api.adminKey", "")
	v.SetDefault("api.rebuildPerHour", 30)
	v.SetDefault("api.trustProxy", false)
}

// Load reads configuration. If path is empty, hexcake.yaml is looked up in
// the working directory and may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("HEXCAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("hexcake")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that would otherwise fail deep inside a build.
func (c *Config) Validate() error {
	switch c.Terrain.Mode {
	case TerrainUniform, TerrainNoise:
	default:
		return fmt.Errorf("unknown terrain mode %q", c.Terrain.Mode)
	}
	lvl, err := c.LevelConfig()
	if err != nil {
		return err
	}
	if err := lvl.Validate(); err != nil {
		return fmt.Errorf("invalid board config: %w", err)
	}
	return nil
}

// LevelConfig converts the board settings into a world.LevelConfig.
func (c *Config) LevelConfig() (world.LevelConfig, error) {
	palette, err := world.ParsePalette(c.Board.Palette)
	if err != nil {
		return world.LevelConfig{}, fmt.Errorf("invalid board config: %w", err)
	}
	return world.LevelConfig{
		Rows:       c.Board.Rows,
		Cols:       c.Board.Cols,
		Size:       c.Board.Size,
		MeshRadius: c.Board.Mesh.Radius,
		MeshHeight: c.Board.Mesh.Height,
		Bevel:      c.Board.Mesh.Bevel,
		Palette:    palette,
	}, nil
}

// NewSource builds the draw source for one level with the given seed.
func (c *Config) NewSource(seed int64) world.Source {
	if c.Terrain.Mode == TerrainNoise {
		return entropy.NewNoiseSource(seed, entropy.NoiseConfig{
			Rows:        c.Board.Rows,
			Cols:        c.Board.Cols,
			Frequency:   c.Terrain.Frequency,
			Octaves:     c.Terrain.Octaves,
			Persistence: c.Terrain.Persistence,
		})
	}
	return entropy.NewSeeded(seed)
}
