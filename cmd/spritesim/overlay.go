package main

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/spritesim/ecs/debugui"
	"github.com/plus3/spritesim/sim"
)

// overlay renders the simulation controls window and the shared performance
// stats window. The threading checkbox mirrors the reference app: checked
// runs the avoidance system across the full worker pool, unchecked pins it
// to one.
type overlay struct {
	world  *sim.World
	driver *sim.Driver

	multithreaded bool
	stats         *debugui.PerformanceStats
	timer         *debugui.FrameTimer
}

func newOverlay(world *sim.World, driver *sim.Driver) *overlay {
	return &overlay{
		world:         world,
		driver:        driver,
		multithreaded: true,
		stats:         debugui.NewPerformanceStats(120),
		timer:         debugui.NewFrameTimer(),
	}
}

func (o *overlay) Render() {
	if imgui.Begin("Simulation") {
		if imgui.Checkbox("Threading", &o.multithreaded) {
			o.world.SetMultithreaded(o.multithreaded)
		}
		imgui.Text(fmt.Sprintf("Workers: %d / %d", o.world.Scheduler().Workers(), o.world.Scheduler().PoolSize()))
		imgui.Text(fmt.Sprintf("Movers: %d", o.world.MoverCount()))
		imgui.Text(fmt.Sprintf("Obstacles: %d", o.world.ObstacleCount()))
		imgui.Text(fmt.Sprintf("Draw Instances: %d", o.driver.Count()))
	}
	imgui.End()

	o.stats.Render(o.world.Storage(), o.world.Scheduler(), o.timer.GetDeltaTime())
}
