package implementations

import (
	"github.com/annel0/voxel-lighting/internal/light"
	"github.com/annel0/voxel-lighting/internal/world/block"
)

// SandBehavior реализует поведение песка
type SandBehavior struct{}

func (b *SandBehavior) ID() block.BlockID {
	return block.SandBlockID
}

func (b *SandBehavior) Name() string {
	return "Sand"
}

func (b *SandBehavior) Opacity() uint8 {
	return 15
}

func (b *SandBehavior) LightEmission() uint8 {
	return 0
}

func (b *SandBehavior) ConditionallyOpaque() bool {
	return false
}

func (b *SandBehavior) OccludesFace(face light.Direction) bool {
	return true
}
