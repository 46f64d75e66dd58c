// Command sim-stress runs the sprite-flock simulation headless for a fixed
// duration and prints a timing report. Useful for comparing worker counts
// and population sizes without a window.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"go.uber.org/zap"

	"github.com/plus3/spritesim/sim"
)

func main() {
	duration := flag.Duration("duration", 10*time.Second, "how long to run the simulation")
	movers := flag.Int("movers", 0, "mover count (0 = config default)")
	obstacles := flag.Int("obstacles", 0, "obstacle count (0 = config default)")
	workers := flag.Int("workers", 0, "worker pool size (0 = all cores)")
	seed := flag.Uint64("seed", 1, "population seed (0 = random)")
	configPath := flag.String("config", "", "path to a TOML config file")
	cpuProfile := flag.Bool("cpuprofile", false, "write a CPU profile to the working directory")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "include GC pause metrics in the report")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := sim.DefaultConfig()
	if *configPath != "" {
		cfg, err = sim.LoadConfig(*configPath)
		if err != nil {
			logger.Fatal("config load failed", zap.Error(err))
		}
	}
	if *movers > 0 {
		cfg.MoverCount = *movers
	}
	if *obstacles > 0 {
		cfg.ObstacleCount = *obstacles
	}
	cfg.Workers = *workers
	cfg.Seed = *seed

	if *cpuProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	logger.Info("populating world",
		zap.Int("movers", cfg.MoverCount),
		zap.Int("obstacles", cfg.ObstacleCount),
	)

	world, err := sim.NewWorld(cfg)
	if err != nil {
		logger.Fatal("world construction failed", zap.Error(err))
	}
	defer world.Close()

	driver := sim.NewDriver(world)

	report := &Report{
		Duration:       *duration,
		Movers:         world.MoverCount(),
		Obstacles:      world.ObstacleCount(),
		Workers:        world.Scheduler().Workers(),
		PoolSize:       world.Scheduler().PoolSize(),
		GCPauseMetrics: *gcPauseMetrics,
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	logger.Info("running simulation",
		zap.Duration("duration", *duration),
		zap.Int("workers", report.Workers),
	)

	const frameDelta = 1.0 / 60.0
	startTime := time.Now()
	deadline := startTime.Add(*duration)

	for time.Now().Before(deadline) {
		frameStart := time.Now()
		if err := driver.Advance(frameDelta); err != nil {
			logger.Fatal("frame advance failed", zap.Error(err))
		}
		report.FrameTime.Samples = append(report.FrameTime.Samples, time.Since(frameStart))
		report.TotalFrames++
	}

	report.TotalTime = time.Since(startTime)
	report.FrameTime.Finalize()
	report.Systems = world.Scheduler().GetStats().Systems
	runtime.ReadMemStats(&report.MemStatsEnd)

	logger.Info("simulation finished", zap.Int64("frames", report.TotalFrames))

	if err := report.Generate(os.Stdout); err != nil {
		logger.Fatal("report generation failed", zap.Error(err))
	}
	fmt.Println()
}
