package sim

import (
	"errors"

	"github.com/plus3/spritesim/ecs"
)

// ErrDrawOverflow is returned when a frame would emit more draw instances
// than the world was populated with. It indicates a population contract
// violation and is fatal; the driver never silently truncates.
var ErrDrawOverflow = errors.New("sim: draw instance buffer overflow")

const (
	// SpeedFactor scales wall-clock delta time into simulation time.
	SpeedFactor = 3.0
	// DrawScale maps world units into the renderer's instance space.
	DrawScale = 0.05
)

// The extraction signatures: everything drawable has a position, velocity
// and sprite; the Avoid term splits movers from obstacles. The driver only
// reads.
type moverDrawView struct {
	Position *Position `ecs:"readonly"`
	Move     *Move     `ecs:"readonly"`
	Sprite   *Sprite   `ecs:"readonly"`
	Avoid    *Avoid    `ecs:"exclude"`
}

type obstacleDrawView struct {
	Position *Position `ecs:"readonly"`
	Move     *Move     `ecs:"readonly"`
	Sprite   *Sprite   `ecs:"readonly"`
	Avoid    *Avoid    `ecs:"readonly"`
}

// Driver advances the world one frame at a time and extracts the drawable
// instances for the renderer. It owns the instance buffer: fixed capacity,
// movers first, obstacles second, valid prefix reported by Count.
type Driver struct {
	world     *World
	movers    *ecs.Query[moverDrawView]
	obstacles *ecs.Query[obstacleDrawView]

	instances []DrawInstance
	count     int
}

// NewDriver builds a driver whose instance buffer is sized to the world's
// fixed population.
func NewDriver(w *World) *Driver {
	return &Driver{
		world:     w,
		movers:    ecs.NewQuery[moverDrawView](w.Storage()),
		obstacles: ecs.NewQuery[obstacleDrawView](w.Storage()),
		instances: make([]DrawInstance, w.MoverCount()+w.ObstacleCount()),
	}
}

// Advance runs one simulation frame with the given wall-clock delta time in
// seconds, then rebuilds the draw instance buffer. The previous frame's
// instances are invalid once Advance returns.
func (d *Driver) Advance(deltaTime float64) error {
	d.world.Scheduler().Once(deltaTime * SpeedFactor)

	d.count = 0

	d.movers.Execute()
	for item := range d.movers.Values() {
		if err := d.emit(item.Position, item.Sprite); err != nil {
			return err
		}
	}

	d.obstacles.Execute()
	for item := range d.obstacles.Values() {
		if err := d.emit(item.Position, item.Sprite); err != nil {
			return err
		}
	}

	return nil
}

func (d *Driver) emit(pos *Position, sprite *Sprite) error {
	if d.count >= len(d.instances) {
		return ErrDrawOverflow
	}
	d.instances[d.count] = DrawInstance{
		PosX:        pos.X * DrawScale,
		PosY:        pos.Y * DrawScale,
		Scale:       sprite.Scale * DrawScale,
		ColorR:      sprite.ColorR,
		ColorG:      sprite.ColorG,
		ColorB:      sprite.ColorB,
		SpriteIndex: sprite.SpriteIndex,
	}
	d.count++
	return nil
}

// Instances returns the draw records valid for the current frame, movers
// first, then obstacles. Read-only to the caller; re-read after every
// Advance.
func (d *Driver) Instances() []DrawInstance {
	return d.instances[:d.count]
}

// Count returns the number of valid instances this frame.
func (d *Driver) Count() int {
	return d.count
}

// World returns the simulated world.
func (d *Driver) World() *World {
	return d.world
}
