package ecs

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

// Phase is an ordered stage of the per-frame schedule. All PhaseUpdate
// systems complete before any PhasePostUpdate system starts.
type Phase int

const (
	PhaseUpdate Phase = iota
	PhasePostUpdate

	phaseCount
)

func (p Phase) String() string {
	switch p {
	case PhaseUpdate:
		return "Update"
	case PhasePostUpdate:
		return "PostUpdate"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	SystemCount     int
	TotalExecutions int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	Phase          Phase
	Parallel       bool
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	name           string
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

// queryRunner is the scheduler's view of a system's Query fields: refresh the
// cache before the system runs, and report whether the query hands out
// writable pointers.
type queryRunner interface {
	Execute()
	writesComponents() bool
}

// systemEntry is one registered system with everything the scheduler needs to
// drive it each frame.
type systemEntry struct {
	system   System
	parallel ParallelSystem // nil for sequential systems
	queries  []queryRunner
	stats    *systemStatsInternal
}

// Scheduler executes systems phase by phase in registration order. Systems
// registered parallel have their partition query's matched entities divided
// across a fixed worker pool; everything else runs on the calling goroutine.
type Scheduler struct {
	storage *Storage
	phases  [phaseCount][]*systemEntry
	pool    *workerPool
	workers atomic.Int32
}

// NewScheduler creates a scheduler whose worker pool is sized by the number
// of CPU cores, discovered once here.
func NewScheduler(storage *Storage) *Scheduler {
	return NewSchedulerWithWorkers(storage, runtime.NumCPU())
}

// NewSchedulerWithWorkers creates a scheduler with an explicitly sized worker
// pool. The pool size is fixed for the scheduler's lifetime; SetWorkers can
// only lower the number of partitions used per frame, never raise it above
// the pool size.
func NewSchedulerWithWorkers(storage *Storage, workers int) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	s := &Scheduler{
		storage: storage,
		pool:    newWorkerPool(workers),
	}
	s.workers.Store(int32(workers))
	return s
}

// SetWorkers adjusts how many worker partitions parallel systems use. It is
// safe to call between frames from any goroutine; the value is read once at
// the start of each Once, so a change never repartitions a frame in flight.
// 1 makes every system run sequentially.
func (s *Scheduler) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	if n > s.pool.size {
		n = s.pool.size
	}
	s.workers.Store(int32(n))
}

// Workers returns the currently requested worker partition count.
func (s *Scheduler) Workers() int {
	return int(s.workers.Load())
}

// PoolSize returns the fixed size of the worker pool.
func (s *Scheduler) PoolSize() int {
	return s.pool.size
}

// Register adds a sequential system to the given phase and initializes its
// Query and Singleton fields.
func (s *Scheduler) Register(phase Phase, system System) {
	s.register(phase, system, nil)
}

// RegisterParallel adds a parallel-eligible system to the given phase. It
// validates at registration time that the system's Partition result is one of
// its own Query fields and that every other Query field declares all of its
// terms readonly, so concurrent partitions can only ever write components of
// entities matched by the partitioned query, which are disjoint across
// partitions by construction.
func (s *Scheduler) RegisterParallel(phase Phase, system ParallelSystem) {
	s.register(phase, system, system)
}

func (s *Scheduler) register(phase Phase, system System, parallel ParallelSystem) {
	if phase < 0 || phase >= phaseCount {
		panic(fmt.Sprintf("invalid phase %d", int(phase)))
	}

	queries := s.initializeFields(system)

	systemType := reflect.TypeOf(system)
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}

	if parallel != nil {
		validateParallelSystem(systemType.Name(), parallel, queries)
	}

	s.phases[phase] = append(s.phases[phase], &systemEntry{
		system:   system,
		parallel: parallel,
		queries:  queries,
		stats: &systemStatsInternal{
			name:        systemType.Name(),
			minDuration: time.Duration(1<<63 - 1),
		},
	})
}

// validateParallelSystem is the registration-time write-set check: apart from
// the partitioned query, a parallel system may only hold read-only queries.
func validateParallelSystem(name string, parallel ParallelSystem, queries []queryRunner) {
	partition := parallel.Partition()
	if partition == nil {
		panic("parallel system " + name + ": Partition returned nil")
	}

	found := false
	for _, q := range queries {
		if any(q) == any(partition) {
			found = true
			continue
		}
		if q.writesComponents() {
			panic("parallel system " + name + ": non-partitioned query has writable terms; tag its fields ecs:\"readonly\"")
		}
	}
	if !found {
		panic("parallel system " + name + ": Partition must return one of the system's Query fields")
	}
}

// initializeFields injects the storage into the system's Query and Singleton
// fields via reflection (they are identified by their generic type name) and
// returns the query handles for per-frame cache refresh.
func (s *Scheduler) initializeFields(system System) []queryRunner {
	systemValue := reflect.ValueOf(system)
	if systemValue.Kind() == reflect.Ptr {
		systemValue = systemValue.Elem()
	}

	if systemValue.Kind() != reflect.Struct {
		return nil
	}

	var queries []queryRunner
	systemType := systemValue.Type()

	for i := 0; i < systemValue.NumField(); i++ {
		field := systemValue.Field(i)
		fieldType := systemType.Field(i)

		if !field.CanSet() || field.Kind() != reflect.Struct {
			continue
		}

		typeName := field.Type().Name()

		if strings.HasPrefix(typeName, "Query[") {
			initMethod := field.Addr().MethodByName("Init")
			if !initMethod.IsValid() {
				panic("Init method not found on Query field: " + fieldType.Name)
			}
			initMethod.Call([]reflect.Value{reflect.ValueOf(s.storage)})

			runner, ok := field.Addr().Interface().(queryRunner)
			if !ok {
				panic("Query field does not implement the scheduler contract: " + fieldType.Name)
			}
			queries = append(queries, runner)
			continue
		}

		if strings.HasPrefix(typeName, "Singleton[") {
			initMethod := field.Addr().MethodByName("Init")
			if !initMethod.IsValid() {
				panic("Init method not found on Singleton field: " + fieldType.Name)
			}
			initMethod.Call([]reflect.Value{reflect.ValueOf(s.storage)})
			continue
		}
	}

	return queries
}

// Once executes one frame: every phase in order, every system within a phase
// in registration order. The worker toggle is sampled exactly once, here, so
// a mid-frame SetWorkers takes effect on the next run. Once returns only
// after every system, and every worker partition of every parallel system,
// has completed, then flushes deferred commands.
func (s *Scheduler) Once(dt float64) {
	workers := int(s.workers.Load())
	frame := newUpdateFrame(dt, s.storage)

	for phase := Phase(0); phase < phaseCount; phase++ {
		for _, entry := range s.phases[phase] {
			// Refresh caches so entities spawned since the last frame (or
			// flushed last frame) are visible to this system.
			for _, q := range entry.queries {
				q.Execute()
			}

			start := time.Now()
			if entry.parallel != nil && workers > 1 {
				s.runPartitioned(entry.parallel, frame, workers)
			} else {
				entry.system.Execute(frame)
			}
			duration := time.Since(start)

			stats := entry.stats
			stats.executionCount++
			stats.lastDuration = duration
			stats.totalDuration += duration
			if duration < stats.minDuration {
				stats.minDuration = duration
			}
			if duration > stats.maxDuration {
				stats.maxDuration = duration
			}
		}
	}

	frame.Commands.Flush(s.storage)
}

func (s *Scheduler) runPartitioned(system ParallelSystem, frame *UpdateFrame, workers int) {
	spans := partitionRanges(system.Partition().Len(), workers)
	if len(spans) == 0 {
		return
	}
	if len(spans) == 1 {
		system.ExecuteRange(frame, spans[0].Start, spans[0].End)
		return
	}

	tasks := make([]func(), len(spans))
	for i, sp := range spans {
		sp := sp
		tasks[i] = func() {
			system.ExecuteRange(frame, sp.Start, sp.End)
		}
	}
	s.pool.runBatch(tasks)
}

// Run executes frames repeatedly at the given interval until the context is
// cancelled.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			s.Once(dt)
		}
	}
}

// Stop terminates the worker pool. The scheduler must not run frames after
// Stop.
func (s *Scheduler) Stop() {
	s.pool.stop()
}

// GetStats returns statistics about system execution across all phases.
func (s *Scheduler) GetStats() *SchedulerStats {
	stats := &SchedulerStats{}

	var totalExecs int64
	for phase := Phase(0); phase < phaseCount; phase++ {
		for _, entry := range s.phases[phase] {
			internal := entry.stats

			avgDuration := time.Duration(0)
			if internal.executionCount > 0 {
				avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
			}

			stats.Systems = append(stats.Systems, SystemStats{
				Name:           internal.name,
				Phase:          phase,
				Parallel:       entry.parallel != nil,
				ExecutionCount: internal.executionCount,
				MinDuration:    internal.minDuration,
				MaxDuration:    internal.maxDuration,
				AvgDuration:    avgDuration,
				LastDuration:   internal.lastDuration,
				TotalDuration:  internal.totalDuration,
			})
			totalExecs += internal.executionCount
		}
	}

	stats.SystemCount = len(stats.Systems)
	stats.TotalExecutions = totalExecs
	return stats
}
