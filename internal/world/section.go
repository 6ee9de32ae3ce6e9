package world

import (
	"github.com/annel0/voxel-lighting/internal/world/block"
)

// SectionSize — ребро кубической секции в блоках
const SectionSize = 16

// BlockSection хранит блоки одной секции 16×16×16. Счётчик непустых
// блоков поддерживается инкрементально, чтобы проверка пустоты была O(1).
type BlockSection struct {
	blocks [SectionSize * SectionSize * SectionSize]block.BlockID
	nonAir int
}

// blockIndex вычисляет индекс блока по локальным координатам [0..15]
func blockIndex(x, y, z int) int {
	return y<<8 | z<<4 | x
}

// Get возвращает ID блока по локальным координатам
func (s *BlockSection) Get(x, y, z int) block.BlockID {
	return s.blocks[blockIndex(x, y, z)]
}

// Set записывает блок и возвращает прежний ID
func (s *BlockSection) Set(x, y, z int, id block.BlockID) block.BlockID {
	idx := blockIndex(x, y, z)
	old := s.blocks[idx]
	if old == id {
		return old
	}

	s.blocks[idx] = id
	if old == block.AirBlockID {
		s.nonAir++
	}
	if id == block.AirBlockID {
		s.nonAir--
	}
	return old
}

// Empty сообщает, состоит ли секция только из воздуха
func (s *BlockSection) Empty() bool {
	return s.nonAir == 0
}

// NonAirCount возвращает число непустых блоков
func (s *BlockSection) NonAirCount() int {
	return s.nonAir
}
