package sim_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plus3/spritesim/ecs"
	"github.com/plus3/spritesim/sim"
)

type moverView struct {
	Position *sim.Position `ecs:"readonly"`
	Move     *sim.Move     `ecs:"readonly"`
	Sprite   *sim.Sprite   `ecs:"readonly"`
	Avoid    *sim.Avoid    `ecs:"exclude"`
}

type obstacleView struct {
	Position *sim.Position `ecs:"readonly"`
	Sprite   *sim.Sprite   `ecs:"readonly"`
	Avoid    *sim.Avoid    `ecs:"readonly"`
}

func testConfig() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.MoverCount = 16
	cfg.ObstacleCount = 4
	cfg.Seed = 42
	return cfg
}

func TestNewWorldPopulation(t *testing.T) {
	cfg := testConfig()
	world, err := sim.NewWorld(cfg)
	assert.NoError(t, err)
	defer world.Close()

	assert.Equal(t, cfg.MoverCount, world.MoverCount())
	assert.Equal(t, cfg.ObstacleCount, world.ObstacleCount())

	bounds := world.Bounds()
	assert.Equal(t, cfg.Bounds.XMin, bounds.XMin)
	assert.Equal(t, cfg.Bounds.XMax, bounds.XMax)
	assert.Equal(t, cfg.Bounds.YMin, bounds.YMin)
	assert.Equal(t, cfg.Bounds.YMax, bounds.YMax)

	movers := ecs.NewQuery[moverView](world.Storage())
	movers.Execute()
	assert.Equal(t, cfg.MoverCount, movers.Len())
	for mover := range movers.Values() {
		assert.GreaterOrEqual(t, mover.Position.X, bounds.XMin)
		assert.LessOrEqual(t, mover.Position.X, bounds.XMax)
		assert.GreaterOrEqual(t, mover.Position.Y, bounds.YMin)
		assert.LessOrEqual(t, mover.Position.Y, bounds.YMax)

		speed := math.Hypot(float64(mover.Move.VelX), float64(mover.Move.VelY))
		assert.GreaterOrEqual(t, speed, float64(cfg.MinSpeed)-1e-4)
		assert.LessOrEqual(t, speed, float64(cfg.MaxSpeed)+1e-4)

		assert.Equal(t, float32(1), mover.Sprite.ColorR)
		assert.Equal(t, float32(0.5), mover.Sprite.Scale)
		assert.GreaterOrEqual(t, mover.Sprite.SpriteIndex, 0)
		assert.Less(t, mover.Sprite.SpriteIndex, 6)
	}

	obstacles := ecs.NewQuery[obstacleView](world.Storage())
	obstacles.Execute()
	assert.Equal(t, cfg.ObstacleCount, obstacles.Len())
	wantDistSq := cfg.AvoidDistance * cfg.AvoidDistance
	for obstacle := range obstacles.Values() {
		// Obstacles spawn clustered around the center.
		assert.LessOrEqual(t, math.Abs(float64(obstacle.Position.X)), float64(bounds.XMax)*0.2+1e-4)
		assert.LessOrEqual(t, math.Abs(float64(obstacle.Position.Y)), float64(bounds.YMax)*0.2+1e-4)

		assert.Equal(t, wantDistSq, obstacle.Avoid.DistanceSq)
		assert.Equal(t, 5, obstacle.Sprite.SpriteIndex)
		assert.Equal(t, float32(1), obstacle.Sprite.Scale)
	}
}

func TestNewWorldRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.MoverCount = 0
	_, err := sim.NewWorld(cfg)
	assert.ErrorContains(t, err, "invalid config")
}

func TestNewWorldSeedDeterminism(t *testing.T) {
	cfg := testConfig()

	collect := func(w *sim.World) ([]sim.Position, []sim.Move) {
		movers := ecs.NewQuery[moverView](w.Storage())
		movers.Execute()
		positions := make([]sim.Position, 0, movers.Len())
		velocities := make([]sim.Move, 0, movers.Len())
		for mover := range movers.Values() {
			positions = append(positions, *mover.Position)
			velocities = append(velocities, *mover.Move)
		}
		return positions, velocities
	}

	a, err := sim.NewWorld(cfg)
	assert.NoError(t, err)
	defer a.Close()
	b, err := sim.NewWorld(cfg)
	assert.NoError(t, err)
	defer b.Close()

	aPos, aVel := collect(a)
	bPos, bVel := collect(b)
	assert.Equal(t, aPos, bPos)
	assert.Equal(t, aVel, bVel)
}

func TestWorldSetMultithreaded(t *testing.T) {
	world, err := sim.NewWorld(testConfig())
	assert.NoError(t, err)
	defer world.Close()

	world.SetMultithreaded(false)
	assert.Equal(t, 1, world.Scheduler().Workers())

	world.SetMultithreaded(true)
	assert.Equal(t, world.Scheduler().PoolSize(), world.Scheduler().Workers())
}

func TestNewWorldExplicitWorkers(t *testing.T) {
	cfg := testConfig()
	cfg.Workers = 2
	world, err := sim.NewWorld(cfg)
	assert.NoError(t, err)
	defer world.Close()

	assert.Equal(t, 2, world.Scheduler().PoolSize())
	assert.Equal(t, 2, world.Scheduler().Workers())
}

func TestNewWorldZeroObstacles(t *testing.T) {
	cfg := testConfig()
	cfg.ObstacleCount = 0
	world, err := sim.NewWorld(cfg)
	assert.NoError(t, err)
	defer world.Close()

	assert.Equal(t, 0, world.ObstacleCount())

	// A frame with nothing to avoid still runs cleanly.
	world.Scheduler().Once(0.016)
}
