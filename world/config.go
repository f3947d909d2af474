package world

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the world and server parameters. Fields missing from a YAML
// file keep their defaults.
type Config struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`

	// Objects is the number of random boxes generated per Regenerate.
	Objects int `yaml:"objects"`
	// Half extents of generated boxes, drawn uniformly from [min, max].
	MinHalfExtent int `yaml:"min_half_extent"`
	MaxHalfExtent int `yaml:"max_half_extent"`

	QueryHalfWidth  float64 `yaml:"query_half_width"`
	QueryHalfHeight float64 `yaml:"query_half_height"`

	// Seed for object generation; 0 picks a time based seed.
	Seed int64 `yaml:"seed"`

	Server ServerConfig `yaml:"server"`
	Viewer ViewerConfig `yaml:"viewer"`
}

type ServerConfig struct {
	Port              int           `yaml:"port"`
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`
	StatsInterval     time.Duration `yaml:"stats_interval"`
}

type ViewerConfig struct {
	FrameInterval time.Duration `yaml:"frame_interval"`
}

// DefaultConfig returns a 500x500 world with ten boxes and a 50x50 query box.
func DefaultConfig() Config {
	return Config{
		Width:           500,
		Height:          500,
		Objects:         10,
		MinHalfExtent:   2,
		MaxHalfExtent:   100,
		QueryHalfWidth:  25,
		QueryHalfHeight: 25,
		Server: ServerConfig{
			Port:              8080,
			BroadcastInterval: 220 * time.Millisecond,
			StatsInterval:     5 * time.Second,
		},
		Viewer: ViewerConfig{
			FrameInterval: time.Second / 60,
		},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig and validates the
// result.
func LoadConfig(filename string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("world: load %s: %w", filename, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("world: unmarshal %s: %w", filename, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("world: %s: %w", filename, err)
	}
	return cfg, nil
}

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// MaxWorldSize bounds Width and Height so box centers can be drawn as ints.
const MaxWorldSize = math.MaxInt32

func (c Config) Validate() error {
	switch {
	case !(c.Width > 0) || !(c.Height > 0) || c.Width > MaxWorldSize || c.Height > MaxWorldSize:
		return fmt.Errorf("%w: world size %vx%v", ErrInvalidConfig, c.Width, c.Height)
	case c.Objects < 0:
		return fmt.Errorf("%w: objects %d", ErrInvalidConfig, c.Objects)
	case c.MinHalfExtent <= 0 || c.MaxHalfExtent < c.MinHalfExtent:
		return fmt.Errorf("%w: half extent range [%d, %d]", ErrInvalidConfig, c.MinHalfExtent, c.MaxHalfExtent)
	case !(c.QueryHalfWidth > 0) || !(c.QueryHalfHeight > 0):
		return fmt.Errorf("%w: query half extents %vx%v", ErrInvalidConfig, c.QueryHalfWidth, c.QueryHalfHeight)
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return fmt.Errorf("%w: port %d", ErrInvalidConfig, c.Server.Port)
	case c.Server.BroadcastInterval <= 0 || c.Server.StatsInterval <= 0:
		return fmt.Errorf("%w: server intervals must be positive", ErrInvalidConfig)
	case c.Viewer.FrameInterval <= 0:
		return fmt.Errorf("%w: frame interval %v", ErrInvalidConfig, c.Viewer.FrameInterval)
	}
	return nil
}
