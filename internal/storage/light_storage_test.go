package storage

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/annel0/voxel-lighting/internal/light"
	"github.com/annel0/voxel-lighting/internal/vec"
	"github.com/dgraph-io/badger/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *LightStorage {
	t.Helper()
	ls, err := NewLightStorage(t.TempDir())
	require.NoError(t, err, "Хранилище должно открыться")
	t.Cleanup(func() { _ = ls.Close() })
	return ls
}

func TestLightStorage_SaveLoadRoundtrip(t *testing.T) {
	ls := newTestStorage(t)
	bounds := light.Bounds{MinY: 0, MaxY: 255}

	store := light.NewStore()
	ch := vec.Vec2{X: 3, Z: -2}
	sec := vec.Vec3{X: 3, Y: 4, Z: -2}
	store.EnsureSection(sec)

	pos := vec.Vec3{X: 50, Y: 70, Z: -20} // внутри секции (3,4,-2)
	require.NoError(t, store.Set(pos, light.KindBlock, 12))
	require.NoError(t, store.Set(pos, light.KindSky, 15))

	require.NoError(t, ls.SaveChunkLight(ch, store, bounds))

	restored := light.NewStore()
	lit, err := ls.LoadChunkLight(ch, restored)
	require.NoError(t, err)
	assert.True(t, lit, "Сохранённый чанк помечен освещённым")

	assert.Equal(t, uint8(12), restored.Get(pos, light.KindBlock))
	assert.Equal(t, uint8(15), restored.Get(pos, light.KindSky))
	assert.Equal(t, light.SectionInitialized, restored.SectionState(sec))
}

func TestLightStorage_MissingChunkNeedsRelight(t *testing.T) {
	ls := newTestStorage(t)

	lit, err := ls.LoadChunkLight(vec.Vec2{X: 9, Z: 9}, light.NewStore())
	require.NoError(t, err)
	assert.False(t, lit, "Несохранённый чанк требует пересчёта")
}

func TestLightStorage_LegacyTagWithoutLit(t *testing.T) {
	// Тег старого формата: light_populated вместо lit
	ls := newTestStorage(t)
	ch := vec.Vec2{X: 1, Z: 1}

	legacy := map[string]interface{}{
		"coords":          ch,
		"light_populated": true,
		"sections":        map[int]SectionLightTag{},
	}
	data, err := json.Marshal(legacy)
	require.NoError(t, err)
	require.NoError(t, ls.db.Update(func(txn *badger.Txn) error {
		return txn.Set(chunkLightKey(ch), data)
	}))

	lit, err := ls.LoadChunkLight(ch, light.NewStore())
	require.NoError(t, err)
	assert.False(t, lit, "Тег без флага lit требует полного пересчёта")
}

func TestLightStorage_PendingSurvivesReopen(t *testing.T) {
	// Отложенные обновления долговременны: переживают закрытие базы
	dir := t.TempDir()
	ls, err := NewLightStorage(dir)
	require.NoError(t, err)

	region := vec.Vec2{X: 2, Z: 0}
	update := light.PendingUpdate{
		Pos:   vec.Vec3{X: 128, Y: 64, Z: 5},
		Kind:  light.KindBlock,
		Level: 13,
		Op:    light.OpIncrease,
	}
	require.NoError(t, ls.Defer(region, update))
	require.NoError(t, ls.Defer(region, update))
	assert.Equal(t, 2, ls.Count())
	require.NoError(t, ls.Close())

	ls, err = NewLightStorage(dir)
	require.NoError(t, err)
	defer ls.Close()

	assert.Equal(t, 2, ls.Count(), "Таблица пережила перезапуск")

	updates, err := ls.Drain(region)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, update, updates[0], "Обновление восстановлено без потерь")

	assert.Equal(t, 0, ls.Count(), "Дренаж опустошает таблицу региона")
	updates, err = ls.Drain(region)
	require.NoError(t, err)
	assert.Empty(t, updates, "Повторный дренаж пуст")
}

func TestLightStorage_TagRoundtripThroughColdStorage(t *testing.T) {
	// Горячий кеш ходит теми же ключами, что и BadgerDB: промах читает
	// тег через ColdStorage, write-behind доводит байты обратно
	ls := newTestStorage(t)
	bounds := light.Bounds{MinY: 0, MaxY: 255}
	ctx := context.Background()

	store := light.NewStore()
	ch := vec.Vec2{X: 4, Z: 7}
	store.EnsureSection(vec.Vec3{X: 4, Y: 2, Z: 7})
	pos := vec.Vec3{X: 70, Y: 40, Z: 115} // внутри секции (4,2,7)
	require.NoError(t, store.Set(pos, light.KindBlock, 9))
	require.NoError(t, ls.SaveChunkLight(ch, store, bounds))

	// Путь чтения кеша: Load по ключу чанка + DecodeChunkLight
	data, err := ls.Load(ctx, ChunkKey(ch))
	require.NoError(t, err)

	restored := light.NewStore()
	lit, err := ls.DecodeChunkLight(data, restored)
	require.NoError(t, err)
	assert.True(t, lit, "Тег из ColdStorage пригоден для импорта")
	assert.Equal(t, uint8(9), restored.Get(pos, light.KindBlock))

	// Путь записи кеша: EncodeChunkLight + Store тем же ключом
	store2 := light.NewStore()
	ch2 := vec.Vec2{X: -3, Z: 5}
	store2.EnsureSection(vec.Vec3{X: -3, Y: 1, Z: 5})
	pos2 := vec.Vec3{X: -40, Y: 20, Z: 85} // внутри секции (-3,1,5)
	require.NoError(t, store2.Set(pos2, light.KindSky, 12))

	encoded, err := ls.EncodeChunkLight(ch2, store2, bounds)
	require.NoError(t, err)
	require.NoError(t, ls.Store(ctx, ChunkKey(ch2), encoded))

	restored2 := light.NewStore()
	lit, err = ls.LoadChunkLight(ch2, restored2)
	require.NoError(t, err)
	assert.True(t, lit, "Тег, записанный через ColdStorage, читается обычным путём")
	assert.Equal(t, uint8(12), restored2.Get(pos2, light.KindSky))
}

func TestLightStorage_ColdStorage(t *testing.T) {
	ls := newTestStorage(t)
	ctx := context.Background()

	_, err := ls.Load(ctx, "chunk:0:0")
	assert.Error(t, err, "Отсутствующий ключ — ошибка")

	require.NoError(t, ls.Store(ctx, "chunk:0:0", []byte("tag")))
	val, err := ls.Load(ctx, "chunk:0:0")
	require.NoError(t, err)
	assert.Equal(t, []byte("tag"), val)
}
