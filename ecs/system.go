package ecs

// System is a unit of per-frame logic. User-defined systems implement this
// interface and can include Query and Singleton fields, which the Scheduler
// initializes at registration, as well as custom state fields that persist
// between frames. Execute always runs on the frame goroutine.
type System interface {
	Execute(frame *UpdateFrame)
}

// ParallelSystem is a System whose per-entity pass may be split across the
// scheduler's worker pool. Partition names the query whose matched entities
// are divided among workers; ExecuteRange is invoked concurrently, once per
// disjoint position range of that query. Every other query the system holds
// must declare all its terms readonly, and singleton values must only be read
// while ExecuteRange runs.
//
// When the scheduler runs with a single worker it falls back to Execute,
// which for a ParallelSystem is conventionally ExecuteRange over the full
// range.
type ParallelSystem interface {
	System
	Partition() Partitionable
	ExecuteRange(frame *UpdateFrame, start, end int)
}

// Partitionable is the part of a Query the scheduler needs to divide its
// matched entities into worker ranges.
type Partitionable interface {
	Len() int
}
