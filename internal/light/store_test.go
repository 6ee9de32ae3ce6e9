package light

import (
	"testing"

	"github.com/annel0/voxel-lighting/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SectionStates(t *testing.T) {
	store := NewStore()
	sec := vec.Vec3{X: 1, Y: 2, Z: 3}
	pos := vec.Vec3{X: 20, Y: 40, Z: 50} // внутри секции (1,2,3)

	assert.Equal(t, SectionAbsent, store.SectionState(sec), "Новая секция отсутствует")
	assert.Equal(t, uint8(0), store.Get(pos, KindBlock), "Чтение из Absent возвращает 0")

	err := store.Set(pos, KindBlock, 5)
	assert.ErrorIs(t, err, ErrSectionAbsent, "Запись в Absent — нарушение контракта")

	store.EnsureSection(sec)
	assert.Equal(t, SectionUninitialized, store.SectionState(sec), "EnsureSection переводит в Uninitialized")
	assert.Equal(t, uint8(0), store.Get(pos, KindBlock), "Uninitialized читается как 0")

	require.NoError(t, store.Set(pos, KindBlock, 5))
	assert.Equal(t, SectionInitialized, store.SectionState(sec), "Запись переводит в Initialized")
	assert.Equal(t, uint8(5), store.Get(pos, KindBlock))

	store.DiscardSection(sec)
	assert.Equal(t, SectionAbsent, store.SectionState(sec), "DiscardSection возвращает в Absent")
	assert.Equal(t, uint8(0), store.Get(pos, KindBlock))
}

func TestStore_KindsIndependent(t *testing.T) {
	store := NewStore()
	pos := vec.Vec3{X: 5, Y: 5, Z: 5}
	store.EnsureSection(pos.ToSectionCoords())

	require.NoError(t, store.Set(pos, KindBlock, 7))
	require.NoError(t, store.Set(pos, KindSky, 15))

	assert.Equal(t, uint8(7), store.Get(pos, KindBlock), "Блочный свет")
	assert.Equal(t, uint8(15), store.Get(pos, KindSky), "Небесный свет независим")
}

func TestStore_RejectsOutOfRange(t *testing.T) {
	store := NewStore()
	pos := vec.Vec3{X: 0, Y: 0, Z: 0}
	store.EnsureSection(pos.ToSectionCoords())

	err := store.Set(pos, KindBlock, 16)
	assert.ErrorIs(t, err, ErrLevelOutOfRange)
}

func TestStore_ExportImportRoundtrip(t *testing.T) {
	store := NewStore()
	sec := vec.Vec3{X: 0, Y: 0, Z: 0}
	store.EnsureSection(sec)

	positions := []vec.Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: 15, Y: 15, Z: 15},
		{X: 7, Y: 3, Z: 11},
	}
	for i, pos := range positions {
		require.NoError(t, store.Set(pos, KindBlock, uint8(i+1)))
		require.NoError(t, store.Set(pos, KindSky, uint8(15-i)))
	}

	state, blockBytes, skyBytes := store.ExportSection(sec)
	assert.Equal(t, SectionInitialized, state)

	restored := NewStore()
	restored.ImportSection(sec, state, blockBytes, skyBytes)

	for i, pos := range positions {
		assert.Equal(t, uint8(i+1), restored.Get(pos, KindBlock), "Блочный свет после импорта")
		assert.Equal(t, uint8(15-i), restored.Get(pos, KindSky), "Небесный свет после импорта")
	}
}

func TestNibbleCube_PackedPairs(t *testing.T) {
	// Соседние по X позиции делят один байт
	var cube NibbleCube
	cube.Set(0, 0, 0, 15)
	cube.Set(1, 0, 0, 7)

	assert.Equal(t, uint8(15), cube.Get(0, 0, 0))
	assert.Equal(t, uint8(7), cube.Get(1, 0, 0))

	cube.Set(0, 0, 0, 3)
	assert.Equal(t, uint8(3), cube.Get(0, 0, 0), "Перезапись младшего нибла")
	assert.Equal(t, uint8(7), cube.Get(1, 0, 0), "Старший нибл не затронут")
}

func TestFifo_Order(t *testing.T) {
	var q fifo
	for i := 0; i < 5; i++ {
		q.push(queueEntry{level: uint8(i)})
	}

	for i := 0; i < 5; i++ {
		assert.Equal(t, uint8(i), q.pop().level, "FIFO порядок")
	}
	assert.True(t, q.empty())
}
