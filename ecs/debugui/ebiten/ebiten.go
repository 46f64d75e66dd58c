// Package ebiten provides Dear ImGui backend integration for the Ebiten game
// engine. The wrapper exists so the backend can be stored as an ECS singleton
// and reached from systems without importing the backend package everywhere.
package ebiten

import (
	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
)

// ImguiBackend wraps the Ebiten-specific Dear ImGui backend implementation.
type ImguiBackend struct {
	*ebitenbackend.EbitenBackend
}
