package world

import (
	"math/rand"

	"github.com/annel0/voxel-lighting/internal/vec"
	"github.com/annel0/voxel-lighting/internal/world/block"
	"github.com/aquilax/go-perlin"
)

// Константы генерации ландшафта
const (
	SeaLevel     = 60 // Уровень воды
	BaseHeight   = 64 // Средняя высота поверхности
	HeightSwing  = 24 // Амплитуда рельефа
	DirtDepth    = 3  // Толщина слоя земли под поверхностью
	CaveLampOdds = 48 // Шанс светокамня в толще: 1 к N на колонку
	TorchOdds    = 96 // Шанс факела на поверхности: 1 к N на колонку
	TreeOdds     = 40 // Шанс дерева: 1 к N на колонку
)

// WorldGenerator генерирует ландшафт мира на основе шума Перлина
type WorldGenerator struct {
	Seed       int64   // Сид для генерации шума
	NoiseScale float64 // Масштаб основного шума (высота)
	noise      *perlin.Perlin
}

// NewWorldGenerator создаёт новый генератор мира
func NewWorldGenerator(seed int64) *WorldGenerator {
	return &WorldGenerator{
		Seed:       seed,
		NoiseScale: 0.02, // Настройка сглаженности ландшафта
		noise:      perlin.NewPerlin(2, 2, 3, seed),
	}
}

// SurfaceHeight возвращает высоту поверхности в мировой колонке (x,z)
func (wg *WorldGenerator) SurfaceHeight(x, z int) int {
	n := wg.noise.Noise2D(float64(x)*wg.NoiseScale, float64(z)*wg.NoiseScale)
	return BaseHeight + int(n*HeightSwing)
}

// GenerateChunk генерирует колонку чанка по её координатам
func (wg *WorldGenerator) GenerateChunk(coords vec.Vec2) *Chunk {
	chunk := NewChunk(coords)

	// Локальный генератор случайных чисел для детерминированности:
	// уникальный сид на основе глобального сида и координат чанка
	chunkSeed := wg.Seed + int64(coords.X)*31 + int64(coords.Z)*17
	rng := rand.New(rand.NewSource(chunkSeed))

	globalStartX := coords.X << 4
	globalStartZ := coords.Z << 4

	for lx := 0; lx < 16; lx++ {
		for lz := 0; lz < 16; lz++ {
			globalX := globalStartX + lx
			globalZ := globalStartZ + lz
			surface := wg.SurfaceHeight(globalX, globalZ)

			wg.fillColumn(chunk, globalX, globalZ, surface, rng)
		}
	}

	return chunk
}

// fillColumn заполняет одну мировую колонку: камень, земля, поверхность,
// вода до уровня моря, затем декорации
func (wg *WorldGenerator) fillColumn(chunk *Chunk, x, z, surface int, rng *rand.Rand) {
	set := func(y int, id block.BlockID) {
		chunk.SetBlock(vec.Vec3{X: x, Y: y, Z: z}, id)
	}

	for y := 0; y <= surface; y++ {
		switch {
		case y == surface && surface > SeaLevel:
			set(y, block.GrassBlockID)
		case y == surface:
			set(y, block.SandBlockID)
		case y >= surface-DirtDepth:
			set(y, block.DirtBlockID)
		default:
			set(y, block.StoneBlockID)
		}
	}

	// Вода до уровня моря
	for y := surface + 1; y <= SeaLevel; y++ {
		set(y, block.WaterBlockID)
	}

	if surface <= SeaLevel {
		return
	}

	// Светокамень в толще — подземные источники для проверки блочного света
	if rng.Intn(CaveLampOdds) == 0 && surface > DirtDepth+4 {
		depth := 2 + rng.Intn(surface-DirtDepth-4)
		set(depth, block.GlowstoneBlockID)
	}

	// Декорации поверхности
	switch {
	case rng.Intn(TreeOdds) == 0:
		wg.placeTree(chunk, x, z, surface+1, rng)
	case rng.Intn(TorchOdds) == 0:
		set(surface+1, block.TorchBlockID)
	}
}

// placeTree ставит простое дерево: ствол 3-5 блоков и крона из листвы
func (wg *WorldGenerator) placeTree(chunk *Chunk, x, z, base int, rng *rand.Rand) {
	trunk := 3 + rng.Intn(3)
	top := base + trunk

	for y := base; y < top; y++ {
		chunk.SetBlock(vec.Vec3{X: x, Y: y, Z: z}, block.LogBlockID)
	}

	// Крона 3×3×2 с обрезкой по границам чанка
	minX, maxX := chunk.Coords.X<<4, chunk.Coords.X<<4+15
	minZ, maxZ := chunk.Coords.Z<<4, chunk.Coords.Z<<4+15
	for dy := 0; dy < 2; dy++ {
		for dx := -1; dx <= 1; dx++ {
			for dz := -1; dz <= 1; dz++ {
				lx, lz := x+dx, z+dz
				if lx < minX || lx > maxX || lz < minZ || lz > maxZ {
					continue
				}
				pos := vec.Vec3{X: lx, Y: top + dy, Z: lz}
				if chunk.GetBlock(pos) == block.AirBlockID {
					chunk.SetBlock(pos, block.LeavesBlockID)
				}
			}
		}
	}
}
