package light

import (
	"sync"

	"github.com/annel0/voxel-lighting/internal/vec"
)

// Op — вид отложенного обновления границы
type Op uint8

const (
	// OpIncrease — в позицию должен прийти свет указанного уровня
	OpIncrease Op = iota
	// OpDecrease — из позиции должен уйти свет указанного уровня
	OpDecrease
)

// PendingUpdate описывает эффект распространения, который не был применён,
// потому что целевой регион не загружен. Level — уровень света в исходной
// позиции; затухание вычисляется при применении, когда блок станет читаем.
type PendingUpdate struct {
	Pos   vec.Vec3 `json:"pos"`
	Kind  Kind     `json:"kind"`
	Level uint8    `json:"level"`
	Op    Op       `json:"op"`
}

// PendingSink принимает отложенные пограничные обновления
type PendingSink interface {
	Defer(region vec.Vec2, u PendingUpdate) error
}

// PendingStore — долговременная таблица отложенных обновлений.
// Дренируется EdgeChecker при загрузке региона.
type PendingStore interface {
	PendingSink
	Drain(region vec.Vec2) ([]PendingUpdate, error)
	Count() int
}

// MemoryPending — реализация PendingStore в памяти. Используется в тестах
// и в одиночном режиме без персистентного хранилища.
type MemoryPending struct {
	mu      sync.Mutex
	updates map[vec.Vec2][]PendingUpdate
}

// NewMemoryPending создаёт пустую таблицу отложенных обновлений
func NewMemoryPending() *MemoryPending {
	return &MemoryPending{
		updates: make(map[vec.Vec2][]PendingUpdate),
	}
}

// Defer записывает отложенное обновление для региона
func (m *MemoryPending) Defer(region vec.Vec2, u PendingUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.updates[region] = append(m.updates[region], u)
	return nil
}

// Drain возвращает и удаляет все отложенные обновления региона
func (m *MemoryPending) Drain(region vec.Vec2) ([]PendingUpdate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.updates[region]
	delete(m.updates, region)
	return out, nil
}

// Count возвращает общее число отложенных обновлений
func (m *MemoryPending) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, us := range m.updates {
		n += len(us)
	}
	return n
}
