package sim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plus3/spritesim/ecs"
	"github.com/plus3/spritesim/sim"
)

type moverEdit struct {
	Position *sim.Position
	Move     *sim.Move
	Avoid    *sim.Avoid `ecs:"exclude"`
}

func TestDriverAdvanceEmitsMoversThenObstacles(t *testing.T) {
	cfg := testConfig()
	cfg.MoverCount = 4
	cfg.ObstacleCount = 2
	world, err := sim.NewWorld(cfg)
	assert.NoError(t, err)
	defer world.Close()

	driver := sim.NewDriver(world)
	assert.NoError(t, driver.Advance(0.016))

	assert.Equal(t, 6, driver.Count())
	instances := driver.Instances()
	assert.Len(t, instances, 6)

	// Movers first at half scale, then full-scale obstacles.
	for i := 0; i < 4; i++ {
		assert.Equal(t, float32(0.5)*sim.DrawScale, instances[i].Scale)
	}
	for i := 4; i < 6; i++ {
		assert.Equal(t, float32(1)*sim.DrawScale, instances[i].Scale)
		assert.Equal(t, 5, instances[i].SpriteIndex)
	}
}

func TestDriverInstancesMatchWorldPositions(t *testing.T) {
	cfg := testConfig()
	world, err := sim.NewWorld(cfg)
	assert.NoError(t, err)
	defer world.Close()

	driver := sim.NewDriver(world)
	assert.NoError(t, driver.Advance(0.016))

	movers := ecs.NewQuery[moverView](world.Storage())
	movers.Execute()
	assert.Equal(t, cfg.MoverCount, movers.Len())

	instances := driver.Instances()
	i := 0
	for mover := range movers.Values() {
		assert.Equal(t, mover.Position.X*sim.DrawScale, instances[i].PosX)
		assert.Equal(t, mover.Position.Y*sim.DrawScale, instances[i].PosY)
		assert.Equal(t, mover.Sprite.ColorR, instances[i].ColorR)
		assert.Equal(t, mover.Sprite.SpriteIndex, instances[i].SpriteIndex)
		i++
	}
}

func TestDriverAppliesSpeedFactorAndDrawScale(t *testing.T) {
	cfg := testConfig()
	cfg.MoverCount = 1
	cfg.ObstacleCount = 0
	world, err := sim.NewWorld(cfg)
	assert.NoError(t, err)
	defer world.Close()

	// Pin the single mover to a known state; population randomizes it.
	movers := ecs.NewQuery[moverEdit](world.Storage())
	movers.Execute()
	assert.Equal(t, 1, movers.Len())
	for mover := range movers.Values() {
		*mover.Position = sim.Position{}
		*mover.Move = sim.Move{VelX: 10, VelY: -10}
	}

	driver := sim.NewDriver(world)
	assert.NoError(t, driver.Advance(0.5))

	// 0.5s of wall clock is 1.5s of simulation time.
	instances := driver.Instances()
	assert.Len(t, instances, 1)
	assert.InDelta(t, 15*sim.DrawScale, instances[0].PosX, 1e-5)
	assert.InDelta(t, -15*sim.DrawScale, instances[0].PosY, 1e-5)
}

func TestDriverOverflow(t *testing.T) {
	cfg := testConfig()
	cfg.MoverCount = 2
	cfg.ObstacleCount = 1
	world, err := sim.NewWorld(cfg)
	assert.NoError(t, err)
	defer world.Close()

	driver := sim.NewDriver(world)
	assert.NoError(t, driver.Advance(0.016))

	// A drawable spawned behind the world's back breaks the population
	// contract the instance buffer was sized from.
	world.Storage().Spawn(sim.Position{}, sim.Move{}, sim.Sprite{Scale: 0.5})
	assert.ErrorIs(t, driver.Advance(0.016), sim.ErrDrawOverflow)
}

func TestDriverParallelMatchesSingleThreaded(t *testing.T) {
	cfg := testConfig()
	cfg.MoverCount = 200
	cfg.ObstacleCount = 8
	cfg.AvoidDistance = 5
	cfg.Seed = 7

	single, err := sim.NewWorld(cfg)
	assert.NoError(t, err)
	defer single.Close()
	single.SetMultithreaded(false)

	multi, err := sim.NewWorld(cfg)
	assert.NoError(t, err)
	defer multi.Close()
	multi.SetMultithreaded(true)

	singleDriver := sim.NewDriver(single)
	multiDriver := sim.NewDriver(multi)

	for frame := 0; frame < 10; frame++ {
		assert.NoError(t, singleDriver.Advance(0.016))
		assert.NoError(t, multiDriver.Advance(0.016))
	}

	assert.Equal(t, singleDriver.Instances(), multiDriver.Instances())
}
