package world

import (
	"fmt"
	"sync"

	"github.com/annel0/voxel-lighting/internal/light"
	"github.com/annel0/voxel-lighting/internal/logging"
	"github.com/annel0/voxel-lighting/internal/vec"
	"github.com/annel0/voxel-lighting/internal/world/block"
)

// WorldManager управляет чанками мира и служит источником данных о
// блоках для движка освещения. Все методы чтения безопасны для
// конкурентного вызова из проходов распространения.
type WorldManager struct {
	mu     sync.RWMutex
	chunks map[vec.Vec2]*Chunk

	engine *light.Engine // подключается после создания движка
}

// NewWorldManager создаёт пустой менеджер мира
func NewWorldManager() *WorldManager {
	return &WorldManager{
		chunks: make(map[vec.Vec2]*Chunk),
	}
}

// AttachEngine подключает движок освещения. Мир и движок ссылаются друг
// на друга: мир отдаёт данные о блоках, движок получает уведомления об
// изменениях.
func (wm *WorldManager) AttachEngine(e *light.Engine) {
	wm.engine = e
}

// AddChunk регистрирует чанк и объявляет движку занятость его секций
func (wm *WorldManager) AddChunk(ch *Chunk) {
	wm.mu.Lock()
	wm.chunks[ch.Coords] = ch
	wm.mu.Unlock()

	if wm.engine == nil {
		return
	}
	for sy := 0; sy < SectionsPerChunk; sy++ {
		if !ch.SectionEmpty(sy) {
			sec := vec.Vec3{X: ch.Coords.X, Y: sy, Z: ch.Coords.Z}
			wm.engine.OnSectionOccupancyChanged(sec, false)
		}
	}
}

// GetChunk возвращает чанк по координатам, либо nil
func (wm *WorldManager) GetChunk(coords vec.Vec2) *Chunk {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	return wm.chunks[coords]
}

// Chunks возвращает координаты всех зарегистрированных чанков
func (wm *WorldManager) Chunks() []vec.Vec2 {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	out := make([]vec.Vec2, 0, len(wm.chunks))
	for coords := range wm.chunks {
		out = append(out, coords)
	}
	return out
}

// GetBlock возвращает ID блока по глобальной позиции. Позиции вне
// загруженных чанков считаются воздухом.
func (wm *WorldManager) GetBlock(pos vec.Vec3) block.BlockID {
	ch := wm.GetChunk(pos.Flatten().ToChunkCoords())
	if ch == nil {
		return block.AirBlockID
	}
	return ch.GetBlock(pos)
}

// SetBlock записывает блок и уведомляет движок освещения: сначала о
// переходе занятости секции (если он случился), затем об изменении
// блока. Порядок важен — инвариант близости должен быть восстановлен до
// пересчёта света.
func (wm *WorldManager) SetBlock(pos vec.Vec3, id block.BlockID) error {
	if !block.IsValidBlockID(id) {
		return fmt.Errorf("неизвестный ID блока: %d", id)
	}

	ch := wm.GetChunk(pos.Flatten().ToChunkCoords())
	if ch == nil {
		return fmt.Errorf("чанк %v не загружен", pos.Flatten().ToChunkCoords())
	}

	old, occupancyChanged := ch.SetBlock(pos, id)
	if old == id {
		return nil
	}

	if wm.engine != nil {
		if occupancyChanged {
			sec := pos.ToSectionCoords()
			wm.engine.OnSectionOccupancyChanged(sec, ch.SectionEmpty(sec.Y))
		}

		oldOpacity := opacityOf(old)
		newOpacity := opacityOf(id)
		wm.engine.OnBlockChanged(pos, oldOpacity, newOpacity)
	}

	logging.Trace("Блок %v: %d -> %d", pos, old, id)
	return nil
}

// opacityOf возвращает непрозрачность блока по ID; неизвестные блоки
// считаются непрозрачными
func opacityOf(id block.BlockID) uint8 {
	if behavior, exists := block.Get(id); exists {
		return behavior.Opacity()
	}
	return 15
}

//================ Реализация light.BlockSource =================//

// behaviorAt возвращает поведение блока в позиции; воздух для
// незагруженных чанков и неизвестных ID
func (wm *WorldManager) behaviorAt(pos vec.Vec3) block.BlockBehavior {
	id := wm.GetBlock(pos)
	if behavior, exists := block.Get(id); exists {
		return behavior
	}
	behavior, _ := block.Get(block.AirBlockID)
	return behavior
}

// Opacity возвращает непрозрачность блока [0,15]
func (wm *WorldManager) Opacity(pos vec.Vec3) uint8 {
	return wm.behaviorAt(pos).Opacity()
}

// IsConditionallyOpaque сообщает, зависит ли пропускание блока от грани
func (wm *WorldManager) IsConditionallyOpaque(pos vec.Vec3) bool {
	return wm.behaviorAt(pos).ConditionallyOpaque()
}

// OccludesFace выполняет тест формы блока для указанной грани
func (wm *WorldManager) OccludesFace(pos vec.Vec3, face light.Direction) bool {
	return wm.behaviorAt(pos).OccludesFace(face)
}

// Emission возвращает свечение блока [0,15]
func (wm *WorldManager) Emission(pos vec.Vec3) uint8 {
	return wm.behaviorAt(pos).LightEmission()
}

// SectionEmpty сообщает, пуста ли секция мира
func (wm *WorldManager) SectionEmpty(sec vec.Vec3) bool {
	ch := wm.GetChunk(vec.Vec2{X: sec.X, Z: sec.Z})
	if ch == nil {
		return true
	}
	return ch.SectionEmpty(sec.Y)
}

// EmissiveInChunk перечисляет светящиеся позиции чанка
func (wm *WorldManager) EmissiveInChunk(chCoords vec.Vec2) []vec.Vec3 {
	ch := wm.GetChunk(chCoords)
	if ch == nil {
		return nil
	}
	return ch.EmissiveBlocks()
}
