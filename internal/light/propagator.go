package light

import (
	"time"

	"github.com/annel0/voxel-lighting/internal/vec"
)

// BlockSource — интерфейс внешнего мира, предоставляющий движку данные
// о блоках. Реализуется окружающим рантаймом (internal/world), ядро
// освещения собственных данных о блоках не хранит.
type BlockSource interface {
	// Opacity возвращает непрозрачность блока [0,15]
	Opacity(pos vec.Vec3) uint8

	// IsConditionallyOpaque сообщает, зависит ли непрозрачность блока
	// от направленного теста формы
	IsConditionallyOpaque(pos vec.Vec3) bool

	// OccludesFace выполняет тест формы: закрыта ли указанная грань блока.
	// Вызывается только для блоков с условной непрозрачностью.
	OccludesFace(pos vec.Vec3, face Direction) bool

	// Emission возвращает собственное свечение блока [0,15]
	Emission(pos vec.Vec3) uint8

	// SectionEmpty сообщает, пуста ли секция (нет блоков, влияющих на свет)
	SectionEmpty(sec vec.Vec3) bool

	// EmissiveInChunk перечисляет светящиеся позиции чанка
	EmissiveInChunk(ch vec.Vec2) []vec.Vec3
}

// SourcePolicy определяет локально объявленный уровень источника для
// позиции. Для блочного света это свечение блока, для небесного — 15 над
// картой высот. Один BFS-движок параметризуется политикой вместо
// дублирования алгоритма на каждый вид света.
type SourcePolicy interface {
	DeclaredLevel(pos vec.Vec3) uint8
}

// RegionGate сообщает движку, загружен ли регион позиции. Эффекты,
// пересекающие границу незагруженного региона, откладываются.
type RegionGate interface {
	Loaded(pos vec.Vec3) bool
	RegionOf(pos vec.Vec3) vec.Vec2
}

// Propagator — BFS-движок распространения света. Один и тот же цикл
// обслуживает повышение и понижение для обоих видов света. Каждый вызов
// синхронно доводит поле до неподвижной точки; собственного состояния
// между вызовами движок не несёт, кроме переиспользуемого буфера очереди.
type Propagator struct {
	store   *Store
	blocks  BlockSource
	kind    Kind
	policy  SourcePolicy
	bounds  Bounds
	gate    RegionGate  // nil — весь мир считается загруженным
	pending PendingSink // nil — пограничные эффекты отбрасываются
	metrics *Metrics
	queue   fifo
}

// NewPropagator создаёт движок распространения для указанного вида света
func NewPropagator(store *Store, blocks BlockSource, kind Kind, policy SourcePolicy, bounds Bounds) *Propagator {
	return &Propagator{
		store:  store,
		blocks: blocks,
		kind:   kind,
		policy: policy,
		bounds: bounds,
	}
}

// WithGate подключает контроль загруженности регионов и приёмник
// отложенных обновлений
func (p *Propagator) WithGate(gate RegionGate, pending PendingSink) *Propagator {
	p.gate = gate
	p.pending = pending
	return p
}

// WithMetrics подключает метрики
func (p *Propagator) WithMetrics(m *Metrics) *Propagator {
	p.metrics = m
	return p
}

// Increase повышает свет в позиции до value и распространяет его наружу
// до неподвижной точки. Значение вне [0,15] — нарушение контракта вызова.
// Значение, не превышающее текущее, ничего не меняет.
func (p *Propagator) Increase(pos vec.Vec3, value uint8) error {
	if value > MaxLevel {
		return ErrLevelOutOfRange
	}
	if value <= p.store.Get(pos, p.kind) {
		return nil
	}

	start := time.Now()
	if err := p.seed(pos, value); err != nil {
		return err
	}
	p.runIncrease()
	p.metrics.observePass(p.kind, "increase", start)
	return nil
}

// seed записывает значение и ставит позицию в очередь без запуска цикла.
// Используется SourceCollector для пакетной загрузки семян.
func (p *Propagator) seed(pos vec.Vec3, value uint8) error {
	if err := p.store.Set(pos, p.kind, value); err != nil {
		return err
	}
	p.metrics.incSet(p.kind)
	p.queue.push(queueEntry{
		pos:        pos,
		level:      value,
		shapeCheck: p.blocks.IsConditionallyOpaque(pos),
	})
	return nil
}

// flush доводит накопленные семена до неподвижной точки
func (p *Propagator) flush() {
	start := time.Now()
	p.runIncrease()
	p.metrics.observePass(p.kind, "increase", start)
}

// runIncrease — основной цикл повышения: извлекаем элемент, для каждого
// не исключённого соседа сначала сравниваем текущий уровень с level-1 и
// только при возможном улучшении читаем состояние блока.
func (p *Propagator) runIncrease() {
	for !p.queue.empty() {
		e := p.queue.pop()
		p.metrics.incPop(p.kind)

		for _, dir := range Directions {
			if e.exclude&dir.Mask() != 0 {
				continue
			}
			// Тест формы на выходе из исходной позиции
			if e.shapeCheck && p.blocks.OccludesFace(e.pos, dir) {
				continue
			}

			n := e.pos.Add(dir.Offset())
			if !p.bounds.Contains(n.Y) {
				continue
			}
			if p.gate != nil && !p.gate.Loaded(n) {
				p.deferUpdate(n, e.level, OpIncrease)
				continue
			}

			// Сосед на уровне >= level-1 не может быть улучшен этим
			// источником независимо от непрозрачности — блок не читаем.
			cur := p.store.Get(n, p.kind)
			if int(cur) >= int(e.level)-1 {
				continue
			}

			atten := p.attenuation(n, dir)
			target := int(e.level) - atten
			if target <= int(cur) {
				continue
			}

			if err := p.store.Set(n, p.kind, uint8(target)); err != nil {
				// Секция за пределами инварианта близости: свет туда не
				// доходит при корректной работе SectionLifecycleManager
				p.metrics.incSkippedSet()
				continue
			}
			p.metrics.incSet(p.kind)

			if target > 0 {
				p.queue.push(queueEntry{
					pos:        n,
					level:      uint8(target),
					exclude:    dir.Opposite().Mask(),
					shapeCheck: p.blocks.IsConditionallyOpaque(n),
				})
			}
		}
	}
}

// Decrease убирает свет уровня oldValue из позиции и восстанавливает
// поле от выживших источников. Два прохода: де-распространение обнуляет
// цепочку, которую поддерживал только этот источник, затем повторное
// повышение от уцелевших значений и локальных источников. Стоимость
// пропорциональна затронутой области, а не размеру мира.
func (p *Propagator) Decrease(pos vec.Vec3, oldValue uint8) error {
	if oldValue > MaxLevel {
		return ErrLevelOutOfRange
	}

	start := time.Now()
	if err := p.store.Set(pos, p.kind, 0); err != nil {
		return err
	}
	p.metrics.incSet(p.kind)

	cleared := []vec.Vec3{pos}
	survivors := make(map[vec.Vec3]uint8)

	p.queue.push(queueEntry{pos: pos, level: oldValue})

	// Проход 1: де-распространение. Обнуляем соседа только если его
	// текущее значение в точности выведено из этой цепочки; иначе его
	// поддерживает другой источник и он становится семенем восстановления.
	for !p.queue.empty() {
		e := p.queue.pop()
		p.metrics.incPop(p.kind)

		if e.level == 0 {
			continue
		}

		for _, dir := range Directions {
			if e.exclude&dir.Mask() != 0 {
				continue
			}

			n := e.pos.Add(dir.Offset())
			if !p.bounds.Contains(n.Y) {
				continue
			}
			if p.gate != nil && !p.gate.Loaded(n) {
				p.deferUpdate(n, e.level, OpDecrease)
				continue
			}

			cur := p.store.Get(n, p.kind)
			if cur == 0 {
				continue
			}

			expected := int(e.level) - p.attenuation(n, dir)
			if int(cur) == expected {
				if err := p.store.Set(n, p.kind, 0); err != nil {
					p.metrics.incSkippedSet()
					continue
				}
				p.metrics.incSet(p.kind)
				cleared = append(cleared, n)
				delete(survivors, n)
				p.queue.push(queueEntry{
					pos:     n,
					level:   cur,
					exclude: dir.Opposite().Mask(),
				})
			} else {
				survivors[n] = cur
			}
		}
	}

	// Проход 2: восстановление. Локально объявленные источники среди
	// обнулённых позиций и уцелевшие соседние значения заново
	// распространяются тем же циклом повышения.
	for _, c := range cleared {
		if decl := p.policy.DeclaredLevel(c); decl > 0 {
			if err := p.store.Set(c, p.kind, decl); err != nil {
				p.metrics.incSkippedSet()
				continue
			}
			p.metrics.incSet(p.kind)
			survivors[c] = decl
		}
	}
	for sp, lvl := range survivors {
		if lvl > 0 {
			p.queue.push(queueEntry{
				pos:        sp,
				level:      lvl,
				shapeCheck: p.blocks.IsConditionallyOpaque(sp),
			})
		}
	}
	p.runIncrease()

	p.metrics.observePass(p.kind, "decrease", start)
	return nil
}

// attenuation возвращает затухание при входе света в позицию в
// направлении dir: max(1, непрозрачность), с учётом теста формы
// входной грани для условно непрозрачных блоков.
func (p *Propagator) attenuation(pos vec.Vec3, travel Direction) int {
	opacity := p.blocks.Opacity(pos)
	if p.blocks.IsConditionallyOpaque(pos) {
		if p.blocks.OccludesFace(pos, travel.Opposite()) {
			opacity = MaxLevel
		}
	}
	if opacity < 1 {
		return 1
	}
	return int(opacity)
}

func (p *Propagator) deferUpdate(pos vec.Vec3, level uint8, op Op) {
	if p.pending == nil || p.gate == nil {
		return
	}
	_ = p.pending.Defer(p.gate.RegionOf(pos), PendingUpdate{
		Pos:   pos,
		Kind:  p.kind,
		Level: level,
		Op:    op,
	})
	p.metrics.incDeferred()
}
