package light

import (
	"sync"

	"github.com/annel0/voxel-lighting/internal/vec"
)

// Lifecycle — менеджер жизненного цикла данных освещения секций.
// Поддерживает инвариант близости: данные секции существуют тогда и
// только тогда, когда секция непуста или находится на расстоянии
// Чебышёва 1 (в секциях) от непустой. Это не даёт инициализировать
// астрономически высокие пустые колонки. Значения света менеджер не
// вычисляет — только управляет допустимостью данных и сообщает движку
// о расширении через callback.
type Lifecycle struct {
	mu       sync.Mutex
	store    *Store
	bounds   Bounds
	nonEmpty map[vec.Vec3]struct{}
	onExpand func(sec vec.Vec3) // вызывается для секций, вышедших из Absent
}

// NewLifecycle создаёт менеджер жизненного цикла секций
func NewLifecycle(store *Store, bounds Bounds, onExpand func(sec vec.Vec3)) *Lifecycle {
	return &Lifecycle{
		store:    store,
		bounds:   bounds,
		nonEmpty: make(map[vec.Vec3]struct{}),
		onExpand: onExpand,
	}
}

// OnOccupancyChanged обрабатывает переход секции пустая <-> непустая.
// При появлении блоков сама секция и все соседи в окрестности Чебышёва 1
// получают как минимум Uninitialized; бывшие Absent планируются на
// пересвет. При опустошении данные сбрасываются у всех секций
// окрестности, которые инвариант больше не требует.
func (l *Lifecycle) OnOccupancyChanged(sec vec.Vec3, nowEmpty bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !nowEmpty {
		if _, exists := l.nonEmpty[sec]; exists {
			return
		}
		l.nonEmpty[sec] = struct{}{}

		var expanded []vec.Vec3
		l.forNeighborhood(sec, func(n vec.Vec3) {
			if l.store.SectionState(n) == SectionAbsent {
				l.store.EnsureSection(n)
				expanded = append(expanded, n)
			}
		})
		if l.onExpand != nil {
			for _, n := range expanded {
				l.onExpand(n)
			}
		}
		return
	}

	if _, exists := l.nonEmpty[sec]; !exists {
		return
	}
	delete(l.nonEmpty, sec)

	l.forNeighborhood(sec, func(n vec.Vec3) {
		if !l.requiredLocked(n) {
			l.store.DiscardSection(n)
		}
	})
}

// NonEmpty сообщает, числится ли секция непустой
func (l *Lifecycle) NonEmpty(sec vec.Vec3) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, exists := l.nonEmpty[sec]
	return exists
}

// Required сообщает, требует ли инвариант близости данных для секции
func (l *Lifecycle) Required(sec vec.Vec3) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.requiredLocked(sec)
}

// requiredLocked — проверка инварианта под мьютексом: есть ли непустая
// секция в окрестности Чебышёва 1
func (l *Lifecycle) requiredLocked(sec vec.Vec3) bool {
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				n := vec.Vec3{X: sec.X + dx, Y: sec.Y + dy, Z: sec.Z + dz}
				if _, exists := l.nonEmpty[n]; exists {
					return true
				}
			}
		}
	}
	return false
}

// forNeighborhood обходит окрестность Чебышёва 1 с учётом вертикальных
// границ мира
func (l *Lifecycle) forNeighborhood(sec vec.Vec3, fn func(n vec.Vec3)) {
	minSec, maxSec := l.bounds.SectionRange()
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				n := vec.Vec3{X: sec.X + dx, Y: sec.Y + dy, Z: sec.Z + dz}
				if n.Y < minSec || n.Y > maxSec {
					continue
				}
				fn(n)
			}
		}
	}
}
