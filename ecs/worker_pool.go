package ecs

import (
	"fmt"
	"sync"
)

// workerPool is a fixed set of goroutines reused across frames. Submitting
// never spawns; each task is handed to an idle worker. A batch must not
// exceed the pool size.
type workerPool struct {
	size  int
	tasks chan func()
}

func newWorkerPool(size int) *workerPool {
	if size < 1 {
		size = 1
	}
	p := &workerPool{
		size:  size,
		tasks: make(chan func()),
	}
	for i := 0; i < size; i++ {
		go p.work()
	}
	return p
}

func (p *workerPool) work() {
	for task := range p.tasks {
		task()
	}
}

// runBatch executes all tasks on the pool and blocks until every one has
// returned. len(tasks) must be <= pool size or the submit loop would block on
// a frame thread with no idle worker.
func (p *workerPool) runBatch(tasks []func()) {
	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for _, task := range tasks {
		task := task
		p.tasks <- func() {
			defer wg.Done()
			task()
		}
	}
	wg.Wait()
}

// stop terminates the pool's goroutines. The pool must not be used afterward.
func (p *workerPool) stop() {
	close(p.tasks)
}

// span is a half-open index range [Start, End).
type span struct {
	Start, End int
}

// partitionRanges divides [0, total) into at most workers contiguous spans of
// near-equal size. The result is validated: spans are in order, disjoint, and
// cover the whole range exactly. A violation panics, since overlapping spans
// would let two workers write the same entity's components.
func partitionRanges(total, workers int) []span {
	if total <= 0 || workers <= 0 {
		return nil
	}
	if workers > total {
		workers = total
	}

	spans := make([]span, 0, workers)
	chunk, rem := total/workers, total%workers
	start := 0
	for i := 0; i < workers; i++ {
		size := chunk
		if i < rem {
			size++
		}
		spans = append(spans, span{Start: start, End: start + size})
		start += size
	}

	// Checked invariant, not an assumption: disjoint full coverage.
	prev := 0
	for _, s := range spans {
		if s.Start != prev || s.End < s.Start {
			panic(fmt.Sprintf("partitionRanges: invalid span %+v (previous end %d)", s, prev))
		}
		prev = s.End
	}
	if prev != total {
		panic(fmt.Sprintf("partitionRanges: spans cover %d of %d", prev, total))
	}

	return spans
}
