package implementations

import (
	"github.com/annel0/voxel-lighting/internal/light"
	"github.com/annel0/voxel-lighting/internal/world/block"
)

// GlowstoneBehavior реализует поведение светокамня — непрозрачного
// блока с максимальным излучением
type GlowstoneBehavior struct{}

// ID возвращает идентификатор блока
func (b *GlowstoneBehavior) ID() block.BlockID {
	return block.GlowstoneBlockID
}

// Name возвращает имя блока
func (b *GlowstoneBehavior) Name() string {
	return "Glowstone"
}

// Opacity — светокамень непрозрачен для чужого света
func (b *GlowstoneBehavior) Opacity() uint8 {
	return 15
}

// LightEmission — максимальный уровень
func (b *GlowstoneBehavior) LightEmission() uint8 {
	return 15
}

// ConditionallyOpaque — форма не влияет на свет
func (b *GlowstoneBehavior) ConditionallyOpaque() bool {
	return false
}

// OccludesFace — все грани закрыты
func (b *GlowstoneBehavior) OccludesFace(face light.Direction) bool {
	return true
}
