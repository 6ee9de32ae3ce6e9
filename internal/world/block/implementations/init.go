package implementations

import "github.com/annel0/voxel-lighting/internal/world/block"

// Регистрируем все типы блоков при импорте пакета
func init() {
	// Базовые блоки
	block.Register(block.AirBlockID, &AirBehavior{})
	block.Register(block.StoneBlockID, &StoneBehavior{})
	block.Register(block.DirtBlockID, &DirtBehavior{})
	block.Register(block.GrassBlockID, &GrassBehavior{})
	block.Register(block.WaterBlockID, &WaterBehavior{})
	block.Register(block.SandBlockID, &SandBehavior{})

	// Прозрачные и частичные блоки
	block.Register(block.GlassBlockID, &GlassBehavior{})
	block.Register(block.LeavesBlockID, &LeavesBehavior{})
	block.Register(block.SlabBlockID, &SlabBehavior{})
	block.Register(block.LogBlockID, &LogBehavior{})

	// Источники света
	block.Register(block.TorchBlockID, &TorchBehavior{})
	block.Register(block.GlowstoneBlockID, &GlowstoneBehavior{})
}
