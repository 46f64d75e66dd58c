package sim

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config controls world population and simulation tuning. The zero value is
// not usable; start from DefaultConfig and override via a TOML file or flags.
type Config struct {
	MoverCount    int `toml:"mover_count"`
	ObstacleCount int `toml:"obstacle_count"`

	Bounds BoundsConfig `toml:"bounds"`

	// Mover speeds are drawn uniformly from [MinSpeed, MaxSpeed] at a random
	// heading.
	MinSpeed float32 `toml:"min_speed"`
	MaxSpeed float32 `toml:"max_speed"`

	// AvoidDistance is the obstacle interaction radius in world units; the
	// avoidance test compares squared distances against its square.
	AvoidDistance float32 `toml:"avoid_distance"`

	// Workers is the number of worker partitions for parallel systems.
	// 0 means use every core the scheduler's pool has.
	Workers int `toml:"workers"`

	Seed uint64 `toml:"seed"`
}

// BoundsConfig mirrors WorldBounds for TOML decoding.
type BoundsConfig struct {
	XMin float32 `toml:"x_min"`
	XMax float32 `toml:"x_max"`
	YMin float32 `toml:"y_min"`
	YMax float32 `toml:"y_max"`
}

// DefaultConfig returns the reference workload: 50000 movers, 100 obstacles,
// a 160x100 world.
func DefaultConfig() Config {
	return Config{
		MoverCount:    50000,
		ObstacleCount: 100,
		Bounds:        BoundsConfig{XMin: -80, XMax: 80, YMin: -50, YMax: 50},
		MinSpeed:      10,
		MaxSpeed:      20,
		AvoidDistance: 1.3,
	}
}

// LoadConfig reads a TOML file over the defaults. Unknown keys are rejected
// so typos fail loudly at startup.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the world cannot be populated from.
func (c Config) Validate() error {
	if c.MoverCount <= 0 {
		return fmt.Errorf("mover_count must be positive, got %d", c.MoverCount)
	}
	if c.ObstacleCount < 0 {
		return fmt.Errorf("obstacle_count must not be negative, got %d", c.ObstacleCount)
	}
	if c.Bounds.XMin >= c.Bounds.XMax || c.Bounds.YMin >= c.Bounds.YMax {
		return fmt.Errorf("bounds must span a non-empty area, got %+v", c.Bounds)
	}
	if c.MinSpeed < 0 || c.MaxSpeed < c.MinSpeed {
		return fmt.Errorf("speed range [%v, %v] is invalid", c.MinSpeed, c.MaxSpeed)
	}
	if c.AvoidDistance < 0 {
		return fmt.Errorf("avoid_distance must not be negative, got %v", c.AvoidDistance)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}
