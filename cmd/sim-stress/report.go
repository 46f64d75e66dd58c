package main

import (
	"io"
	"runtime"
	"text/template"
	"time"

	"github.com/plus3/spritesim/ecs"
)

type Report struct {
	// Configuration
	Duration  time.Duration
	Movers    int
	Obstacles int
	Workers   int
	PoolSize  int

	// Results
	TotalFrames    int64
	TotalTime      time.Duration
	FrameTime      Stats
	Systems        []ecs.SystemStats
	GCPauseMetrics bool
	MemStatsStart  runtime.MemStats
	MemStatsEnd    runtime.MemStats
}

type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	Samples []time.Duration
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		if sample < s.Min {
			s.Min = sample
		}
		if sample > s.Max {
			s.Max = sample
		}
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))
}

func (r *Report) FPS() float64 {
	if r.TotalTime == 0 {
		return 0
	}
	return float64(r.TotalFrames) / r.TotalTime.Seconds()
}

// EntityUpdatesPerSecond counts one update per entity per frame.
func (r *Report) EntityUpdatesPerSecond() float64 {
	return r.FPS() * float64(r.Movers+r.Obstacles)
}

func (r *Report) GCPauseTotal() time.Duration {
	return time.Duration(r.MemStatsEnd.PauseTotalNs - r.MemStatsStart.PauseTotalNs)
}

func (r *Report) NumGC() uint32 {
	return r.MemStatsEnd.NumGC - r.MemStatsStart.NumGC
}

func (r *Report) HeapAllocMB() float64 {
	return float64(r.MemStatsEnd.HeapAlloc) / (1024 * 1024)
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# Sprite Simulation Stress Report

## Configuration
- **Run Duration:** {{.Duration}}
- **Movers:** {{.Movers}}
- **Obstacles:** {{.Obstacles}}
- **Workers:** {{.Workers}} (pool size {{.PoolSize}})

## Throughput
- **Frames:** {{.TotalFrames}} in {{.TotalTime}}
- **Frames/sec:** {{printf "%.1f" .FPS}}
- **Entity updates/sec:** {{printf "%.0f" .EntityUpdatesPerSecond}}

## Frame Time
- **Min:** {{.FrameTime.Min}}
- **Avg:** {{.FrameTime.Avg}}
- **Max:** {{.FrameTime.Max}}

## Systems
{{range .Systems}}- **{{.Name}}** ({{.Phase}}{{if .Parallel}}, parallel{{end}}): avg {{.AvgDuration}}, max {{.MaxDuration}}
{{end}}
## Memory
- **Heap Alloc:** {{printf "%.1f" .HeapAllocMB}} MB
- **GC Runs:** {{.NumGC}}
{{if .GCPauseMetrics}}- **GC Pause Total:** {{.GCPauseTotal}}
{{end}}`

	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return err
	}
	return tmpl.Execute(w, r)
}
