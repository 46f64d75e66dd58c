package sim_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plus3/spritesim/sim"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, sim.DefaultConfig().Validate())
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
mover_count = 1000
avoid_distance = 2.5
seed = 99

[bounds]
x_min = -40.0
x_max = 40.0
y_min = -25.0
y_max = 25.0
`)

	cfg, err := sim.LoadConfig(path)
	assert.NoError(t, err)

	assert.Equal(t, 1000, cfg.MoverCount)
	assert.Equal(t, float32(2.5), cfg.AvoidDistance)
	assert.Equal(t, uint64(99), cfg.Seed)
	assert.Equal(t, float32(-40), cfg.Bounds.XMin)
	assert.Equal(t, float32(25), cfg.Bounds.YMax)

	// Keys the file doesn't mention keep their defaults.
	defaults := sim.DefaultConfig()
	assert.Equal(t, defaults.ObstacleCount, cfg.ObstacleCount)
	assert.Equal(t, defaults.MinSpeed, cfg.MinSpeed)
	assert.Equal(t, defaults.MaxSpeed, cfg.MaxSpeed)
}

func TestLoadConfigRejectsUnknownKey(t *testing.T) {
	path := writeConfigFile(t, `mover_cuont = 1000`)

	_, err := sim.LoadConfig(path)
	assert.ErrorContains(t, err, "unknown key")
	assert.ErrorContains(t, err, "mover_cuont")
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	path := writeConfigFile(t, `mover_count = -5`)

	_, err := sim.LoadConfig(path)
	assert.ErrorContains(t, err, "mover_count must be positive")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := sim.LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*sim.Config)
		wantErr string
	}{
		{
			name:    "zero movers",
			mutate:  func(c *sim.Config) { c.MoverCount = 0 },
			wantErr: "mover_count",
		},
		{
			name:    "negative obstacles",
			mutate:  func(c *sim.Config) { c.ObstacleCount = -1 },
			wantErr: "obstacle_count",
		},
		{
			name:    "empty bounds",
			mutate:  func(c *sim.Config) { c.Bounds.XMax = c.Bounds.XMin },
			wantErr: "bounds",
		},
		{
			name:    "inverted speed range",
			mutate:  func(c *sim.Config) { c.MinSpeed = 30 },
			wantErr: "speed range",
		},
		{
			name:    "negative speed",
			mutate:  func(c *sim.Config) { c.MinSpeed = -1; c.MaxSpeed = 5 },
			wantErr: "speed range",
		},
		{
			name:    "negative avoid distance",
			mutate:  func(c *sim.Config) { c.AvoidDistance = -0.1 },
			wantErr: "avoid_distance",
		},
		{
			name:    "negative workers",
			mutate:  func(c *sim.Config) { c.Workers = -2 },
			wantErr: "workers",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := sim.DefaultConfig()
			tc.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tc.wantErr)
		})
	}
}
