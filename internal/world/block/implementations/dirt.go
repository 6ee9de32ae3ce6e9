package implementations

import (
	"github.com/annel0/voxel-lighting/internal/light"
	"github.com/annel0/voxel-lighting/internal/world/block"
)

// DirtBehavior реализует поведение земли
type DirtBehavior struct{}

func (b *DirtBehavior) ID() block.BlockID {
	return block.DirtBlockID
}

func (b *DirtBehavior) Name() string {
	return "Dirt"
}

func (b *DirtBehavior) Opacity() uint8 {
	return 15
}

func (b *DirtBehavior) LightEmission() uint8 {
	return 0
}

func (b *DirtBehavior) ConditionallyOpaque() bool {
	return false
}

func (b *DirtBehavior) OccludesFace(face light.Direction) bool {
	return true
}
