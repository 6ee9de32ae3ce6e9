package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/annel0/voxel-lighting/internal/light"
	"github.com/annel0/voxel-lighting/internal/logging"
	"github.com/annel0/voxel-lighting/internal/vec"
	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"
)

// LightStorage — постоянное хранилище данных освещения на BadgerDB.
// Нибл-кубы секций сжимаются zstd перед записью: типичная секция с
// однородным светом ужимается на порядок. Хранилище также реализует
// долговременную таблицу отложенных пограничных обновлений
// (light.PendingStore) и cache.ColdStorage для горячего кеша.
type LightStorage struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool

	enc *zstd.Encoder
	dec *zstd.Decoder
}

// ChunkLightTag — сохраняемый тег освещения колонки чанка.
type ChunkLightTag struct {
	Coords vec.Vec2 `json:"coords"`

	// Lit — свет чанка вычислен и согласован. Теги без этого флага
	// (включая записи старого формата, где его не было) при загрузке
	// считаются неосвещёнными и требуют полного пересчёта.
	Lit bool `json:"lit"`

	// LightPopulated — флаг старого формата. При записи всегда false;
	// при чтении игнорируется, достоверен только Lit.
	LightPopulated bool `json:"light_populated,omitempty"`

	Sections map[int]SectionLightTag `json:"sections"`
}

// SectionLightTag — данные освещения одной секции.
type SectionLightTag struct {
	State light.SectionState `json:"state"`
	Block []byte             `json:"block,omitempty"` // zstd-сжатый нибл-куб
	Sky   []byte             `json:"sky,omitempty"`   // zstd-сжатый нибл-куб
}

// NewLightStorage создаёт хранилище освещения
func NewLightStorage(dataPath string) (*LightStorage, error) {
	dbPath := filepath.Join(dataPath, "light")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd decoder: %w", err)
	}

	return &LightStorage{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
		enc:     enc,
		dec:     dec,
	}, nil
}

// Close закрывает хранилище
func (ls *LightStorage) Close() error {
	ls.mutex.Lock()
	defer ls.mutex.Unlock()

	if !ls.isReady {
		return nil
	}

	ls.isReady = false
	ls.enc.Close()
	ls.dec.Close()
	return ls.db.Close()
}

// ChunkKey возвращает ключ тега освещения чанка. Тот же ключ используется
// горячим кешем: промах читается сквозь ColdStorage из той же записи.
func ChunkKey(ch vec.Vec2) string {
	return fmt.Sprintf("light:%d:%d", ch.X, ch.Z)
}

func chunkLightKey(ch vec.Vec2) []byte {
	return []byte(ChunkKey(ch))
}

func pendingKey(region vec.Vec2) []byte {
	return []byte(fmt.Sprintf("pending:%d:%d", region.X, region.Z))
}

// encodeChunkLight собирает и сериализует тег освещения чанка.
// Вызывается под мьютексом чтения.
func (ls *LightStorage) encodeChunkLight(ch vec.Vec2, store *light.Store, bounds light.Bounds) ([]byte, error) {
	tag := ChunkLightTag{
		Coords:   ch,
		Lit:      true,
		Sections: make(map[int]SectionLightTag),
	}

	minSec, maxSec := bounds.SectionRange()
	for sy := minSec; sy <= maxSec; sy++ {
		sec := vec.Vec3{X: ch.X, Y: sy, Z: ch.Z}
		state, blockBytes, skyBytes := store.ExportSection(sec)
		if state == light.SectionAbsent {
			continue
		}

		secTag := SectionLightTag{State: state}
		if len(blockBytes) > 0 {
			secTag.Block = ls.enc.EncodeAll(blockBytes, nil)
		}
		if len(skyBytes) > 0 {
			secTag.Sky = ls.enc.EncodeAll(skyBytes, nil)
		}
		tag.Sections[sy] = secTag
	}

	data, err := json.Marshal(tag)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации тега освещения: %w", err)
	}
	return data, nil
}

// EncodeChunkLight сериализует тег освещения чанка для записи через
// горячий кеш (write-behind доведёт байты до BadgerDB тем же ключом)
func (ls *LightStorage) EncodeChunkLight(ch vec.Vec2, store *light.Store, bounds light.Bounds) ([]byte, error) {
	ls.mutex.RLock()
	defer ls.mutex.RUnlock()

	if !ls.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}
	return ls.encodeChunkLight(ch, store, bounds)
}

// SaveChunkLight сохраняет тег освещения колонки чанка из хранилища света
func (ls *LightStorage) SaveChunkLight(ch vec.Vec2, store *light.Store, bounds light.Bounds) error {
	ls.mutex.RLock()
	defer ls.mutex.RUnlock()

	if !ls.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	data, err := ls.encodeChunkLight(ch, store, bounds)
	if err != nil {
		return err
	}

	err = ls.db.Update(func(txn *badger.Txn) error {
		return txn.Set(chunkLightKey(ch), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка записи тега освещения: %w", err)
	}

	logging.Trace("Сохранён тег освещения чанка %v", ch)
	return nil
}

// LoadChunkLight восстанавливает освещение колонки чанка. Возвращает
// true, если чанк был сохранён освещённым и данные импортированы;
// false — если тега нет или он старого формата без флага lit, и чанку
// нужен полный пересчёт света.
func (ls *LightStorage) LoadChunkLight(ch vec.Vec2, store *light.Store) (bool, error) {
	ls.mutex.RLock()
	defer ls.mutex.RUnlock()

	if !ls.isReady {
		return false, fmt.Errorf("хранилище не готово")
	}

	var data []byte
	err := ls.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(chunkLightKey(ch))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ошибка чтения тега освещения: %w", err)
	}

	return ls.decodeChunkLight(data, store)
}

// DecodeChunkLight импортирует сериализованный тег освещения —
// симметричен EncodeChunkLight для пути чтения через горячий кеш
func (ls *LightStorage) DecodeChunkLight(data []byte, store *light.Store) (bool, error) {
	ls.mutex.RLock()
	defer ls.mutex.RUnlock()

	if !ls.isReady {
		return false, fmt.Errorf("хранилище не готово")
	}
	return ls.decodeChunkLight(data, store)
}

// decodeChunkLight разбирает тег и импортирует секции в хранилище света.
// Вызывается под мьютексом чтения.
func (ls *LightStorage) decodeChunkLight(data []byte, store *light.Store) (bool, error) {
	var tag ChunkLightTag
	if err := json.Unmarshal(data, &tag); err != nil {
		return false, fmt.Errorf("ошибка разбора тега освещения: %w", err)
	}

	if !tag.Lit {
		// Тег старого формата: данные могли быть записаны до согласования
		// границ, доверять им нельзя
		logging.Debug("Чанк %v: тег без флага lit, требуется пересчёт", tag.Coords)
		return false, nil
	}

	for sy, secTag := range tag.Sections {
		sec := vec.Vec3{X: tag.Coords.X, Y: sy, Z: tag.Coords.Z}

		var blockBytes, skyBytes []byte
		var err error
		if len(secTag.Block) > 0 {
			if blockBytes, err = ls.dec.DecodeAll(secTag.Block, nil); err != nil {
				return false, fmt.Errorf("ошибка распаковки блочного света секции %v: %w", sec, err)
			}
		}
		if len(secTag.Sky) > 0 {
			if skyBytes, err = ls.dec.DecodeAll(secTag.Sky, nil); err != nil {
				return false, fmt.Errorf("ошибка распаковки небесного света секции %v: %w", sec, err)
			}
		}

		store.ImportSection(sec, secTag.State, blockBytes, skyBytes)
	}

	return true, nil
}

//================ Реализация light.PendingStore =================//

// Defer добавляет отложенное пограничное обновление в долговременную
// таблицу региона. Обновления переживают перезапуск сервера.
func (ls *LightStorage) Defer(region vec.Vec2, u light.PendingUpdate) error {
	ls.mutex.RLock()
	defer ls.mutex.RUnlock()

	if !ls.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	return ls.db.Update(func(txn *badger.Txn) error {
		var updates []light.PendingUpdate

		item, err := txn.Get(pendingKey(region))
		if err == nil {
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := json.Unmarshal(data, &updates); err != nil {
				return err
			}
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		updates = append(updates, u)
		data, err := json.Marshal(updates)
		if err != nil {
			return err
		}
		return txn.Set(pendingKey(region), data)
	})
}

// Drain возвращает и удаляет все отложенные обновления региона
func (ls *LightStorage) Drain(region vec.Vec2) ([]light.PendingUpdate, error) {
	ls.mutex.RLock()
	defer ls.mutex.RUnlock()

	if !ls.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	var updates []light.PendingUpdate
	err := ls.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(pendingKey(region))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		data, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &updates); err != nil {
			return err
		}
		return txn.Delete(pendingKey(region))
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка дренажа отложенных обновлений: %w", err)
	}

	return updates, nil
}

// Count возвращает общее число отложенных обновлений во всех регионах
func (ls *LightStorage) Count() int {
	ls.mutex.RLock()
	defer ls.mutex.RUnlock()

	if !ls.isReady {
		return 0
	}

	total := 0
	_ = ls.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("pending:")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var updates []light.PendingUpdate
				if err := json.Unmarshal(val, &updates); err == nil {
					total += len(updates)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return total
}

//================ Реализация cache.ColdStorage =================//

// Load читает запись по ключу. Ключи совпадают с ключами BadgerDB, поэтому
// промах горячего кеша по ключу ChunkKey читает сам тег освещения.
func (ls *LightStorage) Load(ctx context.Context, key string) ([]byte, error) {
	ls.mutex.RLock()
	defer ls.mutex.RUnlock()

	if !ls.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	var data []byte
	err := ls.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ключа %s: %w", key, err)
	}
	return data, nil
}

// Store сохраняет запись по ключу. Через этот метод write-behind очередь
// кеша доводит теги освещения до BadgerDB.
func (ls *LightStorage) Store(ctx context.Context, key string, value []byte) error {
	ls.mutex.RLock()
	defer ls.mutex.RUnlock()

	if !ls.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	return ls.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}
