package implementations

import (
	"github.com/annel0/voxel-lighting/internal/light"
	"github.com/annel0/voxel-lighting/internal/world/block"
)

// WaterBehavior реализует поведение воды. Вода пропускает свет, но
// ослабляет его сильнее воздуха: каждый блок воды съедает два уровня.
type WaterBehavior struct{}

// ID возвращает идентификатор блока
func (b *WaterBehavior) ID() block.BlockID {
	return block.WaterBlockID
}

// Name возвращает имя блока
func (b *WaterBehavior) Name() string {
	return "Water"
}

// Opacity — вода ослабляет свет на 2 уровня за блок
func (b *WaterBehavior) Opacity() uint8 {
	return 2
}

// LightEmission — вода не излучает
func (b *WaterBehavior) LightEmission() uint8 {
	return 0
}

// ConditionallyOpaque — пропускание воды не зависит от грани
func (b *WaterBehavior) ConditionallyOpaque() bool {
	return false
}

// OccludesFace — грани воды не закрыты
func (b *WaterBehavior) OccludesFace(face light.Direction) bool {
	return false
}
