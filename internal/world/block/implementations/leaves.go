package implementations

import (
	"github.com/annel0/voxel-lighting/internal/light"
	"github.com/annel0/voxel-lighting/internal/world/block"
)

// LeavesBehavior реализует поведение листвы — частично прозрачного
// блока, ослабляющего свет на один уровень сверх обычного затухания
type LeavesBehavior struct{}

func (b *LeavesBehavior) ID() block.BlockID {
	return block.LeavesBlockID
}

func (b *LeavesBehavior) Name() string {
	return "Leaves"
}

// Opacity — листва съедает 1 уровень; итоговое затухание max(1, 1) = 1,
// но колонка листвы всё равно гасит прямой небесный свет, потому что
// блокирует столб (см. эвристику карты высот)
func (b *LeavesBehavior) Opacity() uint8 {
	return 1
}

func (b *LeavesBehavior) LightEmission() uint8 {
	return 0
}

func (b *LeavesBehavior) ConditionallyOpaque() bool {
	return false
}

func (b *LeavesBehavior) OccludesFace(face light.Direction) bool {
	return false
}
