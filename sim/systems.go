package sim

import (
	"github.com/plus3/spritesim/ecs"
)

// MovementSystem integrates every entity with a position and velocity,
// movers and obstacles alike, and bounces it off the world bounds. Runs
// sequentially in the Update phase.
type MovementSystem struct {
	Entities ecs.Query[struct {
		*Position
		*Move
	}]
	Bounds ecs.Singleton[WorldBounds]
}

func (s *MovementSystem) Execute(frame *ecs.UpdateFrame) {
	bounds := s.Bounds.Get()
	dt := float32(frame.DeltaTime)

	for _, item := range s.Entities.Iter() {
		pos, move := item.Position, item.Move

		pos.X += move.VelX * dt
		pos.Y += move.VelY * dt

		// On a bounds violation, mirror the axis velocity and snap exactly
		// onto the bound. The axes are independent; a corner hit reflects
		// both in the same update.
		if pos.X < bounds.XMin {
			move.VelX = -move.VelX
			pos.X = bounds.XMin
		}
		if pos.X > bounds.XMax {
			move.VelX = -move.VelX
			pos.X = bounds.XMax
		}
		if pos.Y < bounds.YMin {
			move.VelY = -move.VelY
			pos.Y = bounds.YMin
		}
		if pos.Y > bounds.YMax {
			move.VelY = -move.VelY
			pos.Y = bounds.YMax
		}
	}
}

// AvoidanceSystem bounces movers off obstacles. The outer loop over movers is
// partitionable across workers: each mover is matched by exactly one
// partition, and the obstacle query is read-only, so concurrent partitions
// never write the same component slot. Runs in the PostUpdate phase.
//
// Every obstacle within range applies, in obstacle iteration order. A mover
// inside two obstacle radii has its velocity negated twice in one frame,
// restoring the original sign, and ends up with the last obstacle's color.
type AvoidanceSystem struct {
	Movers ecs.Query[struct {
		*Position
		*Move
		*Sprite
		Avoid *Avoid `ecs:"exclude"`
	}]
	Obstacles ecs.Query[struct {
		Position *Position `ecs:"readonly"`
		Sprite   *Sprite   `ecs:"readonly"`
		Avoid    *Avoid    `ecs:"readonly"`
	}]
}

// Partition marks the mover query as the axis the scheduler divides across
// workers.
func (s *AvoidanceSystem) Partition() ecs.Partitionable {
	return &s.Movers
}

func (s *AvoidanceSystem) Execute(frame *ecs.UpdateFrame) {
	s.ExecuteRange(frame, 0, s.Movers.Len())
}

func (s *AvoidanceSystem) ExecuteRange(frame *ecs.UpdateFrame, start, end int) {
	dt := float32(frame.DeltaTime)

	for _, mover := range s.Movers.IterRange(start, end) {
		for obstacle := range s.Obstacles.Values() {
			dx := mover.Position.X - obstacle.Position.X
			dy := mover.Position.Y - obstacle.Position.Y

			if dx*dx+dy*dy < obstacle.Avoid.DistanceSq {
				// Flip velocity and move out of collision by slightly more
				// than a frame's travel, so the next frame doesn't re-trigger
				// on the same obstacle.
				mover.Move.VelX = -mover.Move.VelX
				mover.Move.VelY = -mover.Move.VelY
				mover.Position.X += mover.Move.VelX * dt * 1.1
				mover.Position.Y += mover.Move.VelY * dt * 1.1

				mover.Sprite.ColorR = obstacle.Sprite.ColorR
				mover.Sprite.ColorG = obstacle.Sprite.ColorG
				mover.Sprite.ColorB = obstacle.Sprite.ColorB
			}
		}
	}
}
