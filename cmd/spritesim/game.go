package main

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"go.uber.org/zap"

	"github.com/plus3/spritesim/ecs"
	debugui_ebiten "github.com/plus3/spritesim/ecs/debugui/ebiten"
	"github.com/plus3/spritesim/sim"
)

// Game implements ebiten.Game: advance the driver once per tick, draw the
// driver's instances, overlay ImGui on top.
type Game struct {
	driver  *sim.Driver
	backend *ecs.Singleton[debugui_ebiten.ImguiBackend]
	logger  *zap.Logger
}

func (g *Game) Update() error {
	backend := g.backend.Get()
	backend.BeginFrame()
	err := g.driver.Advance(1.0 / float64(ebiten.TPS()))
	backend.EndFrame()
	if err != nil {
		g.logger.Error("frame advance failed", zap.Error(err))
		return err
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 5, G: 5, B: 5, A: 255})

	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	bounds := g.driver.World().Bounds()

	// Instances arrive pre-multiplied by the draw scale; fit that space to
	// the window.
	spanX := (bounds.XMax - bounds.XMin) * sim.DrawScale
	spanY := (bounds.YMax - bounds.YMin) * sim.DrawScale
	view := min(float32(w)/spanX, float32(h)/spanY)

	cx, cy := float32(w)/2, float32(h)/2
	for _, inst := range g.driver.Instances() {
		vector.DrawFilledCircle(screen,
			cx+inst.PosX*view,
			cy-inst.PosY*view,
			inst.Scale*view,
			color.RGBA{
				R: uint8(inst.ColorR * 255),
				G: uint8(inst.ColorG * 255),
				B: uint8(inst.ColorB * 255),
				A: 255,
			},
			true,
		)
	}

	g.backend.Get().Draw(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.backend.Get().Layout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}
