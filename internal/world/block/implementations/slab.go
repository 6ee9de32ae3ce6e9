package implementations

import (
	"github.com/annel0/voxel-lighting/internal/light"
	"github.com/annel0/voxel-lighting/internal/world/block"
)

// SlabBehavior реализует поведение нижней полуплиты. Это
// условно-непрозрачный блок: нижняя грань полностью закрыта и не
// пропускает свет, остальные грани открыты над плитой.
type SlabBehavior struct{}

// ID возвращает идентификатор блока
func (b *SlabBehavior) ID() block.BlockID {
	return block.SlabBlockID
}

// Name возвращает имя блока
func (b *SlabBehavior) Name() string {
	return "Slab"
}

// Opacity — базовое затухание в открытой части плиты
func (b *SlabBehavior) Opacity() uint8 {
	return 0
}

// LightEmission — плита не излучает
func (b *SlabBehavior) LightEmission() uint8 {
	return 0
}

// ConditionallyOpaque — пропускание зависит от грани
func (b *SlabBehavior) ConditionallyOpaque() bool {
	return true
}

// OccludesFace — нижняя грань заполнена, свет не проходит вниз;
// для горизонтальных граней закрыта нижняя половина, считаем их
// открытыми, так как верхняя половина пропускает свет
func (b *SlabBehavior) OccludesFace(face light.Direction) bool {
	return face == light.DirDown
}
