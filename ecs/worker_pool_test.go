package ecs

import (
	"sync/atomic"
	"testing"
)

func TestPartitionRanges(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		workers int
		want    []span
	}{
		{"even split", 8, 4, []span{{0, 2}, {2, 4}, {4, 6}, {6, 8}}},
		{"remainder spread over leading spans", 10, 3, []span{{0, 4}, {4, 7}, {7, 10}}},
		{"more workers than work", 2, 8, []span{{0, 1}, {1, 2}}},
		{"single worker", 5, 1, []span{{0, 5}}},
		{"one entity per worker", 7, 7, []span{{0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 5}, {5, 6}, {6, 7}}},
		{"no work", 0, 4, nil},
		{"no workers", 10, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := partitionRanges(tt.total, tt.workers)

			if len(got) != len(tt.want) {
				t.Fatalf("expected %d spans, got %d: %+v", len(tt.want), len(got), got)
			}
			for i, s := range got {
				if s != tt.want[i] {
					t.Errorf("span %d: expected %+v, got %+v", i, tt.want[i], s)
				}
			}
		})
	}
}

func TestPartitionRangesCoverage(t *testing.T) {
	// Every (total, workers) combination must produce in-order disjoint spans
	// that cover [0, total) exactly.
	for total := 1; total <= 64; total++ {
		for workers := 1; workers <= 16; workers++ {
			spans := partitionRanges(total, workers)

			prev := 0
			for _, s := range spans {
				if s.Start != prev {
					t.Fatalf("total=%d workers=%d: gap or overlap at %d: %+v", total, workers, prev, spans)
				}
				if s.End <= s.Start {
					t.Fatalf("total=%d workers=%d: empty span %+v", total, workers, s)
				}
				prev = s.End
			}
			if prev != total {
				t.Fatalf("total=%d workers=%d: spans cover %d of %d", total, workers, prev, total)
			}
			if len(spans) > workers {
				t.Fatalf("total=%d workers=%d: %d spans exceed worker count", total, workers, len(spans))
			}
		}
	}
}

func TestWorkerPoolRunBatch(t *testing.T) {
	pool := newWorkerPool(4)
	defer pool.stop()

	var counter atomic.Int32

	tasks := make([]func(), 4)
	for i := range tasks {
		tasks[i] = func() { counter.Add(1) }
	}

	pool.runBatch(tasks)
	if counter.Load() != 4 {
		t.Errorf("expected 4 tasks to run, got %d", counter.Load())
	}

	// Workers are reused across batches.
	pool.runBatch(tasks[:2])
	if counter.Load() != 6 {
		t.Errorf("expected 6 tasks total after second batch, got %d", counter.Load())
	}
}

func TestWorkerPoolMinimumSize(t *testing.T) {
	pool := newWorkerPool(0)
	defer pool.stop()

	if pool.size != 1 {
		t.Errorf("expected pool size clamped to 1, got %d", pool.size)
	}

	done := false
	pool.runBatch([]func(){func() { done = true }})
	if !done {
		t.Error("expected task to run on single-worker pool")
	}
}
