// Command spritesim runs the sprite-flock simulation in an Ebiten window
// with a Dear ImGui overlay: the threading checkbox from the reference
// workload plus storage and scheduler statistics.
package main

import (
	"errors"
	"flag"

	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/plus3/spritesim/ecs"
	"github.com/plus3/spritesim/ecs/debugui"
	debugui_ebiten "github.com/plus3/spritesim/ecs/debugui/ebiten"
	"github.com/plus3/spritesim/sim"
)

const (
	screenWidth  = 1280
	screenHeight = 800
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
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

	world, err := sim.NewWorld(cfg)
	if err != nil {
		logger.Fatal("world construction failed", zap.Error(err))
	}
	defer world.Close()

	driver := sim.NewDriver(world)

	logger.Info("world populated",
		zap.Int("movers", world.MoverCount()),
		zap.Int("obstacles", world.ObstacleCount()),
		zap.Int("workerPool", world.Scheduler().PoolSize()),
	)

	backend := ebitenbackend.NewEbitenBackend()
	backend.CreateWindow("spritesim", screenWidth, screenHeight)
	imgui.CurrentIO().SetIniFilename("")

	registry := world.Registry()
	ecs.RegisterComponent[debugui.ImguiItem](registry)

	storage := world.Storage()
	ecs.NewSingleton[debugui.ImguiInputState](storage, debugui.ImguiInputState{})
	ecs.NewSingleton[debugui_ebiten.ImguiBackend](storage, debugui_ebiten.ImguiBackend{
		EbitenBackend: backend,
	})

	overlay := newOverlay(world, driver)
	storage.Spawn(debugui.ImguiItem{Render: overlay.Render})

	// The overlay runs after both simulation phases so its numbers reflect
	// the frame that was just computed.
	world.Scheduler().Register(ecs.PhasePostUpdate, &debugui.ImguiSystem{})

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("spritesim")

	game := &Game{
		driver:  driver,
		backend: ecs.NewSingleton[debugui_ebiten.ImguiBackend](storage),
		logger:  logger,
	}

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		logger.Fatal("game loop failed", zap.Error(err))
	}
}
