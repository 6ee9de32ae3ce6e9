package light

import (
	"testing"

	"github.com/annel0/voxel-lighting/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testWorld — управляемый источник блоков для тестов. Считает обращения
// к состоянию блоков, чтобы проверять контракт "сначала сравнение
// уровней, потом чтение блока".
type testWorld struct {
	opacity    map[vec.Vec3]uint8
	emission   map[vec.Vec3]uint8
	condOpaque map[vec.Vec3]uint8 // маска закрытых граней условно-непрозрачных блоков
	nonEmpty   map[vec.Vec3]bool  // занятость секций

	stateReads int
}

func newTestWorld() *testWorld {
	return &testWorld{
		opacity:    make(map[vec.Vec3]uint8),
		emission:   make(map[vec.Vec3]uint8),
		condOpaque: make(map[vec.Vec3]uint8),
		nonEmpty:   make(map[vec.Vec3]bool),
	}
}

func (w *testWorld) Opacity(pos vec.Vec3) uint8 {
	w.stateReads++
	return w.opacity[pos]
}

func (w *testWorld) IsConditionallyOpaque(pos vec.Vec3) bool {
	_, ok := w.condOpaque[pos]
	return ok
}

func (w *testWorld) OccludesFace(pos vec.Vec3, face Direction) bool {
	w.stateReads++
	return w.condOpaque[pos]&face.Mask() != 0
}

func (w *testWorld) Emission(pos vec.Vec3) uint8 {
	return w.emission[pos]
}

func (w *testWorld) SectionEmpty(sec vec.Vec3) bool {
	return !w.nonEmpty[sec]
}

func (w *testWorld) EmissiveInChunk(ch vec.Vec2) []vec.Vec3 {
	var out []vec.Vec3
	for pos := range w.emission {
		if pos.Flatten().ToChunkCoords() == ch {
			out = append(out, pos)
		}
	}
	return out
}

// ensureBox создаёт данные освещения для секций в указанном диапазоне
func ensureBox(store *Store, minSec, maxSec vec.Vec3) {
	for x := minSec.X; x <= maxSec.X; x++ {
		for y := minSec.Y; y <= maxSec.Y; y++ {
			for z := minSec.Z; z <= maxSec.Z; z++ {
				store.EnsureSection(vec.Vec3{X: x, Y: y, Z: z})
			}
		}
	}
}

// snapshot собирает значения света в кубе позиций
func snapshot(store *Store, kind Kind, min, max vec.Vec3) map[vec.Vec3]uint8 {
	out := make(map[vec.Vec3]uint8)
	for x := min.X; x <= max.X; x++ {
		for y := min.Y; y <= max.Y; y++ {
			for z := min.Z; z <= max.Z; z++ {
				pos := vec.Vec3{X: x, Y: y, Z: z}
				if v := store.Get(pos, kind); v > 0 {
					out[pos] = v
				}
			}
		}
	}
	return out
}

func newBlockProp(store *Store, w *testWorld) *Propagator {
	return NewPropagator(store, w, KindBlock, blockSourcePolicy{blocks: w}, Bounds{MinY: 0, MaxY: 255})
}

func TestIncrease_SpreadsInOpenAir(t *testing.T) {
	// Свет в пустом пространстве убывает на 1 за шаг по Манхэттену
	store := NewStore()
	w := newTestWorld()
	ensureBox(store, vec.Vec3{X: -1, Y: 0, Z: -1}, vec.Vec3{X: 1, Y: 1, Z: 1})

	prop := newBlockProp(store, w)
	center := vec.Vec3{X: 8, Y: 8, Z: 8}
	require.NoError(t, prop.Increase(center, 14))

	assert.Equal(t, uint8(14), store.Get(center, KindBlock), "Уровень в источнике")
	for _, dir := range Directions {
		n := center.Add(dir.Offset())
		assert.Equal(t, uint8(13), store.Get(n, KindBlock), "Соседи должны получить 13")
	}

	far := vec.Vec3{X: 8 + 5, Y: 8, Z: 8}
	assert.Equal(t, uint8(9), store.Get(far, KindBlock), "На расстоянии 5 уровень 14-5")

	diag := vec.Vec3{X: 8 + 3, Y: 8 + 2, Z: 8 + 1}
	assert.Equal(t, uint8(8), store.Get(diag, KindBlock), "Расстояние Манхэттена 6 -> уровень 8")

	// Свет гаснет на расстоянии 14
	gone := vec.Vec3{X: 8 + 14, Y: 8, Z: 8}
	assert.Equal(t, uint8(0), store.Get(gone, KindBlock), "За радиусом источника света нет")
}

func TestIncrease_RejectsOutOfRange(t *testing.T) {
	store := NewStore()
	w := newTestWorld()
	ensureBox(store, vec.Vec3{}, vec.Vec3{})

	prop := newBlockProp(store, w)
	err := prop.Increase(vec.Vec3{X: 1, Y: 1, Z: 1}, 16)
	assert.ErrorIs(t, err, ErrLevelOutOfRange, "Уровень 16 вне диапазона")
}

func TestIncrease_Idempotent(t *testing.T) {
	// Повторное повышение тем же значением не меняет поле
	store := NewStore()
	w := newTestWorld()
	ensureBox(store, vec.Vec3{X: -1, Y: 0, Z: -1}, vec.Vec3{X: 1, Y: 1, Z: 1})

	prop := newBlockProp(store, w)
	pos := vec.Vec3{X: 4, Y: 8, Z: 4}
	require.NoError(t, prop.Increase(pos, 12))

	min, max := vec.Vec3{X: -16, Y: 0, Z: -16}, vec.Vec3{X: 31, Y: 31, Z: 31}
	before := snapshot(store, KindBlock, min, max)

	reads := w.stateReads
	require.NoError(t, prop.Increase(pos, 12))

	assert.Equal(t, before, snapshot(store, KindBlock, min, max), "Поле не должно измениться")
	assert.Equal(t, reads, w.stateReads, "Повторное повышение не читает блоки")
}

func TestIncrease_OpacityAttenuates(t *testing.T) {
	// Непрозрачность 3 съедает 3 уровня при входе в блок
	store := NewStore()
	w := newTestWorld()
	ensureBox(store, vec.Vec3{X: 0, Y: 0, Z: 0}, vec.Vec3{X: 0, Y: 0, Z: 0})

	murky := vec.Vec3{X: 9, Y: 8, Z: 8}
	w.opacity[murky] = 3

	prop := newBlockProp(store, w)
	require.NoError(t, prop.Increase(vec.Vec3{X: 8, Y: 8, Z: 8}, 10))

	assert.Equal(t, uint8(7), store.Get(murky, KindBlock), "10 - max(1,3) = 7")
}

func TestIncrease_FullOpacityBlocks(t *testing.T) {
	// Стена непрозрачности 15 полностью гасит свет, но он обтекает её
	store := NewStore()
	w := newTestWorld()
	ensureBox(store, vec.Vec3{X: 0, Y: 0, Z: 0}, vec.Vec3{X: 0, Y: 0, Z: 0})

	src := vec.Vec3{X: 4, Y: 8, Z: 8}
	wall := vec.Vec3{X: 5, Y: 8, Z: 8}
	w.opacity[wall] = 15

	prop := newBlockProp(store, w)
	require.NoError(t, prop.Increase(src, 10))

	assert.Equal(t, uint8(0), store.Get(wall, KindBlock), "Стена не пропускает свет")
	// За стеной свет есть, но только обходным путём (длиннее на 2)
	behind := vec.Vec3{X: 6, Y: 8, Z: 8}
	assert.Equal(t, uint8(6), store.Get(behind, KindBlock), "Обход стены: расстояние 4 вместо 2")
}

func TestIncrease_ConditionalOpacity(t *testing.T) {
	// Блок с закрытой нижней гранью не выпускает свет вниз
	store := NewStore()
	w := newTestWorld()
	ensureBox(store, vec.Vec3{X: 0, Y: 0, Z: 0}, vec.Vec3{X: 0, Y: 0, Z: 0})

	slab := vec.Vec3{X: 8, Y: 8, Z: 8}
	w.condOpaque[slab] = DirDown.Mask()

	prop := newBlockProp(store, w)
	require.NoError(t, prop.Increase(slab, 10))

	below := vec.Vec3{X: 8, Y: 7, Z: 8}
	side := vec.Vec3{X: 9, Y: 8, Z: 8}
	assert.Equal(t, uint8(9), store.Get(side, KindBlock), "Вбок свет выходит")
	// Вниз — только обходным путём через соседнюю колонку: 10-3 = 7
	assert.Equal(t, uint8(7), store.Get(below, KindBlock), "Вниз напрямую свет не выходит")
}

func TestIncrease_EntryFaceShapeCheck(t *testing.T) {
	// Свет не входит в блок через закрытую грань
	store := NewStore()
	w := newTestWorld()
	ensureBox(store, vec.Vec3{X: 0, Y: 0, Z: 0}, vec.Vec3{X: 0, Y: 0, Z: 0})

	// Верхняя грань закрыта: свет сверху не входит
	shade := vec.Vec3{X: 8, Y: 8, Z: 8}
	w.condOpaque[shade] = DirUp.Mask()

	prop := newBlockProp(store, w)
	require.NoError(t, prop.Increase(vec.Vec3{X: 8, Y: 9, Z: 8}, 10))

	// Прямой путь вниз закрыт; обходной путь (вбок, вниз, внутрь) длиной 3
	assert.Equal(t, uint8(7), store.Get(shade, KindBlock),
		"Свет попадает в блок только через открытые грани")
}

func TestDecrease_RemovesIsolatedSource(t *testing.T) {
	// Удаление единственного источника гасит всё поле
	store := NewStore()
	w := newTestWorld()
	ensureBox(store, vec.Vec3{X: -1, Y: 0, Z: -1}, vec.Vec3{X: 1, Y: 1, Z: 1})

	prop := newBlockProp(store, w)
	src := vec.Vec3{X: 8, Y: 8, Z: 8}
	require.NoError(t, prop.Increase(src, 12))
	require.NoError(t, prop.Decrease(src, 12))

	field := snapshot(store, KindBlock, vec.Vec3{X: -16, Y: 0, Z: -16}, vec.Vec3{X: 31, Y: 31, Z: 31})
	assert.Empty(t, field, "После удаления источника свет должен исчезнуть полностью")
}

func TestDecrease_PreservesOtherSources(t *testing.T) {
	// Поле после удаления источника A равно полю, построенному только от B
	w := newTestWorld()
	a := vec.Vec3{X: 5, Y: 8, Z: 8}
	b := vec.Vec3{X: 11, Y: 8, Z: 8}
	w.emission[b] = 10

	min, max := vec.Vec3{X: -16, Y: 0, Z: -16}, vec.Vec3{X: 31, Y: 31, Z: 31}

	// Эталон: только источник B
	refStore := NewStore()
	ensureBox(refStore, vec.Vec3{X: -1, Y: 0, Z: -1}, vec.Vec3{X: 1, Y: 1, Z: 1})
	require.NoError(t, newBlockProp(refStore, w).Increase(b, 10))
	want := snapshot(refStore, KindBlock, min, max)

	// Оба источника, затем удаление A
	store := NewStore()
	ensureBox(store, vec.Vec3{X: -1, Y: 0, Z: -1}, vec.Vec3{X: 1, Y: 1, Z: 1})
	prop := newBlockProp(store, w)
	require.NoError(t, prop.Increase(a, 12))
	require.NoError(t, prop.Increase(b, 10))
	require.NoError(t, prop.Decrease(a, 12))

	assert.Equal(t, want, snapshot(store, KindBlock, min, max),
		"Поле должно сойтись к неподвижной точке источника B")
}

func TestIncrease_OrderIndependent(t *testing.T) {
	// Итоговое поле не зависит от порядка посадки источников
	w := newTestWorld()
	seeds := []struct {
		pos   vec.Vec3
		level uint8
	}{
		{vec.Vec3{X: 3, Y: 8, Z: 3}, 14},
		{vec.Vec3{X: 12, Y: 8, Z: 12}, 9},
		{vec.Vec3{X: 8, Y: 12, Z: 8}, 11},
	}

	min, max := vec.Vec3{X: -16, Y: 0, Z: -16}, vec.Vec3{X: 31, Y: 31, Z: 31}

	forward := NewStore()
	ensureBox(forward, vec.Vec3{X: -1, Y: 0, Z: -1}, vec.Vec3{X: 1, Y: 1, Z: 1})
	prop := newBlockProp(forward, w)
	for _, s := range seeds {
		require.NoError(t, prop.Increase(s.pos, s.level))
	}

	backward := NewStore()
	ensureBox(backward, vec.Vec3{X: -1, Y: 0, Z: -1}, vec.Vec3{X: 1, Y: 1, Z: 1})
	prop = newBlockProp(backward, w)
	for i := len(seeds) - 1; i >= 0; i-- {
		require.NoError(t, prop.Increase(seeds[i].pos, seeds[i].level))
	}

	assert.Equal(t,
		snapshot(forward, KindBlock, min, max),
		snapshot(backward, KindBlock, min, max),
		"Порядок источников не должен влиять на неподвижную точку")
}

func TestDecrease_InverseOfIncrease(t *testing.T) {
	// Повышение и последующее понижение возвращают исходное поле
	w := newTestWorld()
	base := vec.Vec3{X: 4, Y: 8, Z: 4}
	w.emission[base] = 8

	store := NewStore()
	ensureBox(store, vec.Vec3{X: -1, Y: 0, Z: -1}, vec.Vec3{X: 1, Y: 1, Z: 1})
	prop := newBlockProp(store, w)
	require.NoError(t, prop.Increase(base, 8))

	min, max := vec.Vec3{X: -16, Y: 0, Z: -16}, vec.Vec3{X: 31, Y: 31, Z: 31}
	before := snapshot(store, KindBlock, min, max)

	extra := vec.Vec3{X: 10, Y: 8, Z: 10}
	require.NoError(t, prop.Increase(extra, 13))
	require.NoError(t, prop.Decrease(extra, 13))

	assert.Equal(t, before, snapshot(store, KindBlock, min, max),
		"Понижение должно быть обратным к повышению")
}

func TestIncrease_SkipsLevelCheckBeforeBlockRead(t *testing.T) {
	// Сосед с уровнем >= level-1 не приводит к чтению состояния блока
	store := NewStore()
	w := newTestWorld()
	ensureBox(store, vec.Vec3{X: 0, Y: 0, Z: 0}, vec.Vec3{X: 0, Y: 0, Z: 0})

	prop := newBlockProp(store, w)
	require.NoError(t, prop.Increase(vec.Vec3{X: 8, Y: 8, Z: 8}, 14))

	// Поле заполнено; повышение слабого источника внутри уже освещённой
	// области завершается без единого чтения блоков
	reads := w.stateReads
	require.NoError(t, prop.Increase(vec.Vec3{X: 9, Y: 8, Z: 8}, 5))
	assert.Equal(t, reads, w.stateReads,
		"Для соседей с достаточным уровнем состояние блоков не читается")
}
