package implementations

import (
	"github.com/annel0/voxel-lighting/internal/light"
	"github.com/annel0/voxel-lighting/internal/world/block"
)

// GlassBehavior реализует поведение стекла — твёрдого, но полностью
// прозрачного для света блока
type GlassBehavior struct{}

func (b *GlassBehavior) ID() block.BlockID {
	return block.GlassBlockID
}

func (b *GlassBehavior) Name() string {
	return "Glass"
}

// Opacity — стекло не ослабляет свет
func (b *GlassBehavior) Opacity() uint8 {
	return 0
}

func (b *GlassBehavior) LightEmission() uint8 {
	return 0
}

func (b *GlassBehavior) ConditionallyOpaque() bool {
	return false
}

func (b *GlassBehavior) OccludesFace(face light.Direction) bool {
	return false
}
