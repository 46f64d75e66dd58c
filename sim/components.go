// Package sim implements the sprite-flock simulation: tens of thousands of
// bouncing sprites and a handful of obstacles they steer away from, built on
// the ecs package. The packages under cmd/ consume its per-frame DrawInstance
// output; nothing here touches a window or GPU.
package sim

// Position is an entity's world-space location.
type Position struct {
	X, Y float32
}

// Move is an entity's velocity in world units per second.
type Move struct {
	VelX, VelY float32
}

// Sprite holds an entity's render attributes.
type Sprite struct {
	ColorR, ColorG, ColorB float32
	SpriteIndex            int
	Scale                  float32
}

// Avoid marks an entity as an obstacle. Movers closer than DistanceSq
// (squared world units) bounce off it. Entities without Avoid are movers.
type Avoid struct {
	DistanceSq float32
}

// WorldBounds is the process-wide singleton bounding box all entities bounce
// inside. It is set once before any entity is created.
type WorldBounds struct {
	XMin, XMax, YMin, YMax float32
}

// DrawInstance is one drawable record handed to the renderer: position and
// scale already multiplied by the global draw scale. The renderer must treat
// the instance array as invalidated every frame.
type DrawInstance struct {
	PosX, PosY             float32
	Scale                  float32
	ColorR, ColorG, ColorB float32
	SpriteIndex            int
}
