package implementations

import (
	"github.com/annel0/voxel-lighting/internal/light"
	"github.com/annel0/voxel-lighting/internal/world/block"
)

// LogBehavior реализует поведение ствола дерева
type LogBehavior struct{}

func (b *LogBehavior) ID() block.BlockID {
	return block.LogBlockID
}

func (b *LogBehavior) Name() string {
	return "Log"
}

func (b *LogBehavior) Opacity() uint8 {
	return 15
}

func (b *LogBehavior) LightEmission() uint8 {
	return 0
}

func (b *LogBehavior) ConditionallyOpaque() bool {
	return false
}

func (b *LogBehavior) OccludesFace(face light.Direction) bool {
	return true
}
