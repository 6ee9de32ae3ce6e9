package world

import (
	"sync"

	"github.com/annel0/voxel-lighting/internal/vec"
	"github.com/annel0/voxel-lighting/internal/world/block"
)

// SectionsPerChunk — число вертикальных секций в колонке чанка
const SectionsPerChunk = 16

// Chunk представляет колонку мира размером 16×16 блоков на всю высоту:
// 16 вертикальных секций по 16 блоков. Секции создаются лениво — колонка
// из воздуха не занимает памяти под блоки.
type Chunk struct {
	Coords vec.Vec2 // Координаты чанка в мире

	Sections [SectionsPerChunk]*BlockSection

	// Emissive — глобальные позиции светящихся блоков чанка и их уровни.
	// Поддерживается при каждой установке блока, чтобы сбор источников
	// не сканировал все 65536 позиций.
	Emissive map[vec.Vec3]uint8

	Mu sync.RWMutex // Мьютекс для безопасного доступа
}

// NewChunk создаёт новый чанк с указанными координатами
func NewChunk(coords vec.Vec2) *Chunk {
	return &Chunk{
		Coords:   coords,
		Emissive: make(map[vec.Vec3]uint8),
	}
}

// GetBlock возвращает ID блока по глобальной позиции внутри чанка
func (c *Chunk) GetBlock(pos vec.Vec3) block.BlockID {
	c.Mu.RLock()
	defer c.Mu.RUnlock()

	return c.getBlockLocked(pos)
}

func (c *Chunk) getBlockLocked(pos vec.Vec3) block.BlockID {
	sy := pos.Y >> 4
	if sy < 0 || sy >= SectionsPerChunk {
		return block.AirBlockID
	}
	sec := c.Sections[sy]
	if sec == nil {
		return block.AirBlockID
	}
	local := pos.LocalInSection()
	return sec.Get(local.X, local.Y, local.Z)
}

// SetBlock записывает блок по глобальной позиции и возвращает прежний ID
// вместе с флагом перехода занятости секции (пустая <-> непустая).
func (c *Chunk) SetBlock(pos vec.Vec3, id block.BlockID) (old block.BlockID, occupancyChanged bool) {
	c.Mu.Lock()
	defer c.Mu.Unlock()

	sy := pos.Y >> 4
	if sy < 0 || sy >= SectionsPerChunk {
		return block.AirBlockID, false
	}

	sec := c.Sections[sy]
	if sec == nil {
		if id == block.AirBlockID {
			return block.AirBlockID, false
		}
		sec = &BlockSection{}
		c.Sections[sy] = sec
	}

	wasEmpty := sec.Empty()
	local := pos.LocalInSection()
	old = sec.Set(local.X, local.Y, local.Z, id)

	// Учёт светящихся блоков
	if behavior, exists := block.Get(id); exists && behavior.LightEmission() > 0 {
		c.Emissive[pos] = behavior.LightEmission()
	} else {
		delete(c.Emissive, pos)
	}

	return old, wasEmpty != sec.Empty()
}

// SectionEmpty сообщает, пуста ли секция с вертикальным индексом sy
func (c *Chunk) SectionEmpty(sy int) bool {
	c.Mu.RLock()
	defer c.Mu.RUnlock()

	if sy < 0 || sy >= SectionsPerChunk {
		return true
	}
	sec := c.Sections[sy]
	return sec == nil || sec.Empty()
}

// EmissiveBlocks возвращает срез светящихся позиций чанка
func (c *Chunk) EmissiveBlocks() []vec.Vec3 {
	c.Mu.RLock()
	defer c.Mu.RUnlock()

	out := make([]vec.Vec3, 0, len(c.Emissive))
	for pos := range c.Emissive {
		out = append(out, pos)
	}
	return out
}
