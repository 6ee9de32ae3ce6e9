package implementations

import (
	"github.com/annel0/voxel-lighting/internal/light"
	"github.com/annel0/voxel-lighting/internal/world/block"
)

// AirBehavior реализует поведение воздуха — полностью прозрачного блока
type AirBehavior struct{}

// ID возвращает идентификатор блока
func (b *AirBehavior) ID() block.BlockID {
	return block.AirBlockID
}

// Name возвращает имя блока
func (b *AirBehavior) Name() string {
	return "Air"
}

// Opacity — воздух не ослабляет свет
func (b *AirBehavior) Opacity() uint8 {
	return 0
}

// LightEmission — воздух не излучает
func (b *AirBehavior) LightEmission() uint8 {
	return 0
}

// ConditionallyOpaque — форма воздуха не влияет на свет
func (b *AirBehavior) ConditionallyOpaque() bool {
	return false
}

// OccludesFace — ни одна грань не закрыта
func (b *AirBehavior) OccludesFace(face light.Direction) bool {
	return false
}
