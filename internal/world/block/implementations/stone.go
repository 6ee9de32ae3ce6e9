package implementations

import (
	"github.com/annel0/voxel-lighting/internal/light"
	"github.com/annel0/voxel-lighting/internal/world/block"
)

// StoneBehavior реализует поведение камня — полностью непрозрачного блока
type StoneBehavior struct{}

// ID возвращает идентификатор блока
func (b *StoneBehavior) ID() block.BlockID {
	return block.StoneBlockID
}

// Name возвращает имя блока
func (b *StoneBehavior) Name() string {
	return "Stone"
}

// Opacity — камень полностью блокирует свет
func (b *StoneBehavior) Opacity() uint8 {
	return 15
}

// LightEmission — камень не излучает
func (b *StoneBehavior) LightEmission() uint8 {
	return 0
}

// ConditionallyOpaque — камень непрозрачен со всех сторон
func (b *StoneBehavior) ConditionallyOpaque() bool {
	return false
}

// OccludesFace — все грани закрыты
func (b *StoneBehavior) OccludesFace(face light.Direction) bool {
	return true
}
