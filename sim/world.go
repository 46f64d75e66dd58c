package sim

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/plus3/spritesim/ecs"
)

// ErrBoundsNotSet is returned when entity population is attempted before the
// WorldBounds singleton exists. The bounds must be in place before the first
// entity spawns.
var ErrBoundsNotSet = errors.New("sim: world bounds singleton not set")

const obstacleSpriteIndex = 5

// World owns the ECS storage, the scheduler with both simulation systems,
// and the fixed entity population. Entities are created once here and live
// for the process lifetime; the workload never destroys them.
type World struct {
	registry  *ecs.ComponentRegistry
	storage   *ecs.Storage
	scheduler *ecs.Scheduler
	cfg       Config

	moverCount    int
	obstacleCount int
}

// NewWorld builds and populates a world from the configuration. Setup errors
// are fatal to the caller: a world that fails to construct must not enter the
// frame loop.
func NewWorld(cfg Config) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sim: invalid config: %w", err)
	}

	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Move](registry)
	ecs.RegisterComponent[Sprite](registry)
	ecs.RegisterComponent[Avoid](registry)

	storage := ecs.NewStorage(registry)

	var scheduler *ecs.Scheduler
	if cfg.Workers > 0 {
		scheduler = ecs.NewSchedulerWithWorkers(storage, cfg.Workers)
	} else {
		scheduler = ecs.NewScheduler(storage)
	}

	w := &World{
		registry:  registry,
		storage:   storage,
		scheduler: scheduler,
		cfg:       cfg,
	}

	// Bounds exist before any entity. Population fails otherwise.
	storage.AddSingleton(WorldBounds{
		XMin: cfg.Bounds.XMin,
		XMax: cfg.Bounds.XMax,
		YMin: cfg.Bounds.YMin,
		YMax: cfg.Bounds.YMax,
	})

	if err := w.populate(); err != nil {
		scheduler.Stop()
		return nil, err
	}

	scheduler.Register(ecs.PhaseUpdate, &MovementSystem{})
	scheduler.RegisterParallel(ecs.PhasePostUpdate, &AvoidanceSystem{})

	return w, nil
}

func (w *World) populate() error {
	bounds := ecs.NewSingleton[WorldBounds](w.storage)
	if !bounds.Exists() {
		return ErrBoundsNotSet
	}
	b := *bounds.Get()

	var rng *rand.Rand
	if w.cfg.Seed != 0 {
		rng = rand.New(rand.NewPCG(w.cfg.Seed, w.cfg.Seed))
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	for i := 0; i < w.cfg.MoverCount; i++ {
		w.storage.Spawn(
			Position{
				X: randomRange(rng, b.XMin, b.XMax),
				Y: randomRange(rng, b.YMin, b.YMax),
			},
			randomMove(rng, w.cfg.MinSpeed, w.cfg.MaxSpeed),
			Sprite{
				ColorR:      1,
				ColorG:      1,
				ColorB:      1,
				SpriteIndex: rng.IntN(6),
				Scale:       0.5,
			},
		)
	}
	w.moverCount = w.cfg.MoverCount

	for i := 0; i < w.cfg.ObstacleCount; i++ {
		// Obstacles cluster toward the center of the world.
		w.storage.Spawn(
			Position{
				X: randomRange(rng, b.XMin, b.XMax) * 0.2,
				Y: randomRange(rng, b.YMin, b.YMax) * 0.2,
			},
			randomMove(rng, w.cfg.MinSpeed, w.cfg.MaxSpeed),
			Sprite{
				ColorR:      randomRange(rng, 0.5, 1),
				ColorG:      randomRange(rng, 0.5, 1),
				ColorB:      randomRange(rng, 0.5, 1),
				SpriteIndex: obstacleSpriteIndex,
				Scale:       1,
			},
			Avoid{DistanceSq: w.cfg.AvoidDistance * w.cfg.AvoidDistance},
		)
	}
	w.obstacleCount = w.cfg.ObstacleCount

	return nil
}

// randomMove picks a velocity at a uniformly random heading with speed in
// [minSpeed, maxSpeed].
func randomMove(rng *rand.Rand, minSpeed, maxSpeed float32) Move {
	angle := rng.Float64() * 2 * math.Pi
	speed := float64(randomRange(rng, minSpeed, maxSpeed))
	return Move{
		VelX: float32(math.Cos(angle) * speed),
		VelY: float32(math.Sin(angle) * speed),
	}
}

func randomRange(rng *rand.Rand, lo, hi float32) float32 {
	return lo + rng.Float32()*(hi-lo)
}

// Registry exposes the component registry so embedders (debug overlays,
// tooling) can register their own component types before spawning them.
func (w *World) Registry() *ecs.ComponentRegistry {
	return w.registry
}

// Storage exposes the underlying ECS storage.
func (w *World) Storage() *ecs.Storage {
	return w.storage
}

// Scheduler exposes the phase scheduler driving the simulation systems.
func (w *World) Scheduler() *ecs.Scheduler {
	return w.scheduler
}

// MoverCount returns the fixed number of movers, decided at population time.
// Renderers use it to size GPU-side buffers.
func (w *World) MoverCount() int {
	return w.moverCount
}

// ObstacleCount returns the fixed number of obstacles.
func (w *World) ObstacleCount() int {
	return w.obstacleCount
}

// Bounds returns the world bounds singleton value.
func (w *World) Bounds() WorldBounds {
	return *ecs.NewSingleton[WorldBounds](w.storage).Get()
}

// SetMultithreaded switches parallel systems between the full worker pool and
// single-threaded execution. Safe to call at any time between frames; the
// change applies from the next frame on.
func (w *World) SetMultithreaded(enabled bool) {
	if enabled {
		w.scheduler.SetWorkers(w.scheduler.PoolSize())
	} else {
		w.scheduler.SetWorkers(1)
	}
}

// Close stops the scheduler's worker pool.
func (w *World) Close() {
	w.scheduler.Stop()
}
