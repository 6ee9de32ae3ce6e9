package block

var registry = make(map[BlockID]BlockBehavior)

// Register добавляет поведение блока в регистр
func Register(id BlockID, behavior BlockBehavior) {
	registry[id] = behavior
}

// Get возвращает поведение для указанного ID
func Get(id BlockID) (BlockBehavior, bool) {
	behavior, exists := registry[id]
	return behavior, exists
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func IsValidBlockID(id BlockID) bool {
	_, exists := registry[id]
	return exists
}

// BlockID представляет идентификатор блока
type BlockID uint16

// Константы ID блоков
const (
	// Базовые типы блоков
	AirBlockID    BlockID = iota // 0
	StoneBlockID                 // 1
	DirtBlockID                  // 2
	GrassBlockID                 // 3
	WaterBlockID                 // 4
	SandBlockID                  // 5

	// Прозрачные и частичные блоки (начиная с 100)
	GlassBlockID  BlockID = 100 // Стекло
	LeavesBlockID BlockID = 101 // Листва
	SlabBlockID   BlockID = 102 // Нижняя полуплита
	LogBlockID    BlockID = 103 // Ствол дерева

	// Светоизлучающие блоки (начиная с 200)
	TorchBlockID     BlockID = 200 // Факел
	GlowstoneBlockID BlockID = 201 // Светокамень
)
