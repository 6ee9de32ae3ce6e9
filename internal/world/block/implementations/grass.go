package implementations

import (
	"github.com/annel0/voxel-lighting/internal/light"
	"github.com/annel0/voxel-lighting/internal/world/block"
)

// GrassBehavior реализует поведение травяного блока
type GrassBehavior struct{}

func (b *GrassBehavior) ID() block.BlockID {
	return block.GrassBlockID
}

func (b *GrassBehavior) Name() string {
	return "Grass"
}

func (b *GrassBehavior) Opacity() uint8 {
	return 15
}

func (b *GrassBehavior) LightEmission() uint8 {
	return 0
}

func (b *GrassBehavior) ConditionallyOpaque() bool {
	return false
}

func (b *GrassBehavior) OccludesFace(face light.Direction) bool {
	return true
}
