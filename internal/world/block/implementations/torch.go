package implementations

import (
	"github.com/annel0/voxel-lighting/internal/light"
	"github.com/annel0/voxel-lighting/internal/world/block"
)

// TorchBehavior реализует поведение факела — источника блочного света
type TorchBehavior struct{}

// ID возвращает идентификатор блока
func (b *TorchBehavior) ID() block.BlockID {
	return block.TorchBlockID
}

// Name возвращает имя блока
func (b *TorchBehavior) Name() string {
	return "Torch"
}

// Opacity — факел не мешает свету
func (b *TorchBehavior) Opacity() uint8 {
	return 0
}

// LightEmission — факел светит на уровень 14
func (b *TorchBehavior) LightEmission() uint8 {
	return 14
}

// ConditionallyOpaque — форма факела не влияет на свет
func (b *TorchBehavior) ConditionallyOpaque() bool {
	return false
}

// OccludesFace — ни одна грань не закрыта
func (b *TorchBehavior) OccludesFace(face light.Direction) bool {
	return false
}
