package world

import (
	"testing"

	"github.com/annel0/voxel-lighting/internal/light"
	"github.com/annel0/voxel-lighting/internal/vec"
	"github.com/annel0/voxel-lighting/internal/world/block"
	_ "github.com/annel0/voxel-lighting/internal/world/block/implementations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_SetGetBlock(t *testing.T) {
	ch := NewChunk(vec.Vec2{X: 0, Z: 0})
	pos := vec.Vec3{X: 5, Y: 70, Z: 9}

	assert.Equal(t, block.AirBlockID, ch.GetBlock(pos), "Пустой чанк состоит из воздуха")

	old, occupancy := ch.SetBlock(pos, block.StoneBlockID)
	assert.Equal(t, block.AirBlockID, old)
	assert.True(t, occupancy, "Первый блок делает секцию непустой")
	assert.Equal(t, block.StoneBlockID, ch.GetBlock(pos))

	old, occupancy = ch.SetBlock(pos, block.AirBlockID)
	assert.Equal(t, block.StoneBlockID, old)
	assert.True(t, occupancy, "Удаление последнего блока опустошает секцию")
	assert.True(t, ch.SectionEmpty(pos.Y>>4))
}

func TestChunk_TracksEmissive(t *testing.T) {
	ch := NewChunk(vec.Vec2{X: 0, Z: 0})
	pos := vec.Vec3{X: 3, Y: 65, Z: 3}

	ch.SetBlock(pos, block.TorchBlockID)
	emissive := ch.EmissiveBlocks()
	require.Len(t, emissive, 1, "Факел учтён как источник")
	assert.Equal(t, pos, emissive[0])

	ch.SetBlock(pos, block.StoneBlockID)
	assert.Empty(t, ch.EmissiveBlocks(), "Замена факела убирает источник")
}

func TestWorldManager_BlockSource(t *testing.T) {
	wm := NewWorldManager()
	ch := NewChunk(vec.Vec2{X: 0, Z: 0})
	ch.SetBlock(vec.Vec3{X: 1, Y: 64, Z: 1}, block.StoneBlockID)
	ch.SetBlock(vec.Vec3{X: 2, Y: 64, Z: 1}, block.WaterBlockID)
	ch.SetBlock(vec.Vec3{X: 3, Y: 64, Z: 1}, block.GlowstoneBlockID)
	ch.SetBlock(vec.Vec3{X: 4, Y: 64, Z: 1}, block.SlabBlockID)
	wm.AddChunk(ch)

	assert.Equal(t, uint8(15), wm.Opacity(vec.Vec3{X: 1, Y: 64, Z: 1}), "Камень непрозрачен")
	assert.Equal(t, uint8(2), wm.Opacity(vec.Vec3{X: 2, Y: 64, Z: 1}), "Вода ослабляет на 2")
	assert.Equal(t, uint8(0), wm.Opacity(vec.Vec3{X: 9, Y: 64, Z: 1}), "Воздух прозрачен")
	assert.Equal(t, uint8(0), wm.Opacity(vec.Vec3{X: 900, Y: 64, Z: 1}), "Незагруженный чанк — воздух")

	assert.Equal(t, uint8(15), wm.Emission(vec.Vec3{X: 3, Y: 64, Z: 1}), "Светокамень светит на 15")

	slab := vec.Vec3{X: 4, Y: 64, Z: 1}
	assert.True(t, wm.IsConditionallyOpaque(slab), "Полуплита условно непрозрачна")
	assert.True(t, wm.OccludesFace(slab, light.DirDown), "Нижняя грань закрыта")
	assert.False(t, wm.OccludesFace(slab, light.DirUp), "Верхняя грань открыта")

	assert.False(t, wm.SectionEmpty(vec.Vec3{X: 0, Y: 4, Z: 0}), "Секция с блоками непуста")
	assert.True(t, wm.SectionEmpty(vec.Vec3{X: 0, Y: 0, Z: 0}), "Секция без блоков пуста")

	emissive := wm.EmissiveInChunk(vec.Vec2{X: 0, Z: 0})
	assert.Len(t, emissive, 1)
}

func TestWorldManager_SetBlockDrivesLighting(t *testing.T) {
	// Полный цикл: установка и удаление факела через менеджер мира
	wm := NewWorldManager()
	engine := light.NewEngine(wm, light.Options{Bounds: light.Bounds{MinY: 0, MaxY: 255}})
	wm.AttachEngine(engine)

	ch := NewChunk(vec.Vec2{X: 0, Z: 0})
	// Пол, делающий секцию 4 непустой
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			ch.SetBlock(vec.Vec3{X: x, Y: 64, Z: z}, block.StoneBlockID)
		}
	}
	wm.AddChunk(ch)
	require.NoError(t, engine.LightChunk(vec.Vec2{X: 0, Z: 0}))

	torch := vec.Vec3{X: 8, Y: 65, Z: 8}
	require.NoError(t, wm.SetBlock(torch, block.TorchBlockID))

	assert.Equal(t, uint8(14), engine.LightLevel(torch, light.KindBlock), "Факел зажжён")
	assert.Equal(t, uint8(11), engine.LightLevel(vec.Vec3{X: 11, Y: 65, Z: 8}, light.KindBlock))

	require.NoError(t, wm.SetBlock(torch, block.AirBlockID))
	assert.Equal(t, uint8(0), engine.LightLevel(torch, light.KindBlock), "Факел погашен")
	assert.Equal(t, uint8(0), engine.LightLevel(vec.Vec3{X: 11, Y: 65, Z: 8}, light.KindBlock))
}

func TestWorldManager_SetBlockValidation(t *testing.T) {
	wm := NewWorldManager()

	err := wm.SetBlock(vec.Vec3{X: 0, Y: 64, Z: 0}, block.BlockID(9999))
	assert.Error(t, err, "Неизвестный ID блока отклоняется")

	err = wm.SetBlock(vec.Vec3{X: 0, Y: 64, Z: 0}, block.StoneBlockID)
	assert.Error(t, err, "Запись в незагруженный чанк отклоняется")
}

func TestGenerator_Deterministic(t *testing.T) {
	a := NewWorldGenerator(42).GenerateChunk(vec.Vec2{X: 1, Z: -2})
	b := NewWorldGenerator(42).GenerateChunk(vec.Vec2{X: 1, Z: -2})

	for y := 0; y < 256; y += 7 {
		for x := 16; x < 32; x += 3 {
			pos := vec.Vec3{X: x, Y: y, Z: -32 + (x-16)%16}
			assert.Equal(t, a.GetBlock(pos), b.GetBlock(pos),
				"Генерация должна быть детерминированной")
		}
	}
}

func TestGenerator_TerrainShape(t *testing.T) {
	gen := NewWorldGenerator(7)
	ch := gen.GenerateChunk(vec.Vec2{X: 0, Z: 0})

	for lx := 0; lx < 16; lx++ {
		for lz := 0; lz < 16; lz++ {
			surface := gen.SurfaceHeight(lx, lz)
			assert.Equal(t, block.StoneBlockID, ch.GetBlock(vec.Vec3{X: lx, Y: 1, Z: lz}),
				"Глубина — камень")
			if surface > SeaLevel {
				got := ch.GetBlock(vec.Vec3{X: lx, Y: surface, Z: lz})
				assert.Equal(t, block.GrassBlockID, got, "Поверхность суши — трава")
			} else {
				assert.Equal(t, block.SandBlockID, ch.GetBlock(vec.Vec3{X: lx, Y: surface, Z: lz}),
					"Дно — песок")
				if surface < SeaLevel {
					assert.Equal(t, block.WaterBlockID, ch.GetBlock(vec.Vec3{X: lx, Y: SeaLevel, Z: lz}),
						"До уровня моря — вода")
				}
			}
		}
	}
}
