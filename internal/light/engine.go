package light

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/annel0/voxel-lighting/internal/eventbus"
	"github.com/annel0/voxel-lighting/internal/logging"
	"github.com/annel0/voxel-lighting/internal/vec"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Типы событий, публикуемых движком освещения
const (
	EventChunkLit         = "LightChunkLit"
	EventRegionLoaded     = "LightRegionLoaded"
	EventRegionUnloaded   = "LightRegionUnloaded"
	EventSectionOccupancy = "LightSectionOccupancy"
)

// ChunkLitPayload — полезная нагрузка события EventChunkLit
type ChunkLitPayload struct {
	Chunk vec.Vec2 `json:"chunk"`
}

// RegionPayload — полезная нагрузка событий регионов
type RegionPayload struct {
	Region  vec.Vec2 `json:"region"`
	Pending int      `json:"pending,omitempty"`
}

// SectionOccupancyPayload — полезная нагрузка события занятости секции
type SectionOccupancyPayload struct {
	Section vec.Vec3 `json:"section"`
	Empty   bool     `json:"empty"`
}

// Options задаёт параметры движка освещения
type Options struct {
	Bounds     Bounds       // вертикальные границы мира (по умолчанию DefaultBounds)
	RegionBits uint         // размер региона в чанках = 1<<RegionBits (по умолчанию 4 чанка)
	Pending    PendingStore // таблица отложенных обновлений (по умолчанию в памяти)
	Metrics    *Metrics     // метрики Prometheus (опционально)
	Bus        eventbus.EventBus
}

// Engine — фасад движка освещения. Владеет хранилищем света, менеджером
// жизненного цикла секций, сборщиком источников и сверкой границ;
// обеспечивает дисциплину исключения: над одним регионом единовременно
// идёт не более одного прохода распространения.
type Engine struct {
	store      *Store
	blocks     BlockSource
	collector  *SourceCollector
	lifecycle  *Lifecycle
	edges      *EdgeChecker
	pending    PendingStore
	metrics    *Metrics
	bus        eventbus.EventBus
	tracer     trace.Tracer
	bounds     Bounds
	regionBits uint
	policies   [kindCount]SourcePolicy
	locks      regionLockTable

	regionMu sync.RWMutex
	gated    bool
	loaded   map[vec.Vec2]struct{}
}

// NewEngine создаёт движок освещения поверх внешнего источника блоков
func NewEngine(blocks BlockSource, opts Options) *Engine {
	bounds := opts.Bounds
	if bounds.MaxY == 0 && bounds.MinY == 0 {
		bounds = DefaultBounds
	}
	regionBits := opts.RegionBits
	if regionBits == 0 {
		regionBits = 2 // регион 4×4 чанка
	}
	pending := opts.Pending
	if pending == nil {
		pending = NewMemoryPending()
	}

	e := &Engine{
		store:      NewStore(),
		blocks:     blocks,
		pending:    pending,
		metrics:    opts.Metrics,
		bus:        opts.Bus,
		tracer:     otel.Tracer("voxel-lighting"),
		bounds:     bounds,
		regionBits: regionBits,
		loaded:     make(map[vec.Vec2]struct{}),
	}
	e.locks.locks = make(map[vec.Vec2]*sync.Mutex)
	e.collector = NewSourceCollector(e.store, blocks, bounds)
	e.policies[KindBlock] = blockSourcePolicy{blocks: blocks}
	e.policies[KindSky] = skySourcePolicy{collector: e.collector}
	e.lifecycle = NewLifecycle(e.store, bounds, e.relightSection)
	e.edges = NewEdgeChecker(e)
	return e
}

// Store возвращает хранилище света (для персистентности)
func (e *Engine) Store() *Store { return e.store }

// Collector возвращает сборщик источников
func (e *Engine) Collector() *SourceCollector { return e.collector }

// Bounds возвращает вертикальные границы мира движка
func (e *Engine) Bounds() Bounds { return e.bounds }

// propagator создаёт движок распространения указанного вида, подключённый
// к воротам регионов и таблице отложенных обновлений
func (e *Engine) propagator(kind Kind) *Propagator {
	return NewPropagator(e.store, e.blocks, kind, e.policies[kind], e.bounds).
		WithGate(e, e.pending).
		WithMetrics(e.metrics)
}

// RegionOf возвращает координаты региона позиции
func (e *Engine) RegionOf(pos vec.Vec3) vec.Vec2 {
	return pos.Flatten().ToChunkCoords().ToRegionCoords(e.regionBits)
}

// Loaded сообщает, загружен ли регион позиции. Пока ни один регион не
// был объявлен загруженным, движок работает без ворот — весь мир
// считается доступным.
func (e *Engine) Loaded(pos vec.Vec3) bool {
	e.regionMu.RLock()
	defer e.regionMu.RUnlock()

	if !e.gated {
		return true
	}
	_, ok := e.loaded[e.RegionOf(pos)]
	return ok
}

// regionLoaded проверяет загруженность региона по его координатам
func (e *Engine) regionLoaded(region vec.Vec2) bool {
	e.regionMu.RLock()
	defer e.regionMu.RUnlock()

	if !e.gated {
		return true
	}
	_, ok := e.loaded[region]
	return ok
}

// LightLevel возвращает уровень света в позиции. Для небесного света над
// картой высот значение 15 неявно даже там, где инвариант близости не
// допускает данных.
func (e *Engine) LightLevel(pos vec.Vec3, kind Kind) uint8 {
	if kind == KindSky && e.store.SectionState(pos.ToSectionCoords()) == SectionAbsent {
		if e.collector.AboveHeightmap(pos) {
			return MaxLevel
		}
	}
	return e.store.Get(pos, kind)
}

// OnBlockChanged обрабатывает изменение блока: приводит оба вида света в
// соответствие новой непрозрачности и свечению, запуская повышение или
// понижение по мере необходимости.
func (e *Engine) OnBlockChanged(pos vec.Vec3, oldOpacity, newOpacity uint8) {
	unlock := e.locks.lockNeighborhood(e.RegionOf(pos))
	defer unlock()

	_, span := e.tracer.Start(context.Background(), "light.OnBlockChanged")
	defer span.End()

	blockProp := e.propagator(KindBlock)
	skyProp := e.propagator(KindSky)

	// Вертикаль небесного света: колонку нужно пересчитывать, когда
	// меняется её прозрачность вверх
	if (oldOpacity == 0) != (newOpacity == 0) || e.blocks.IsConditionallyOpaque(pos) {
		if _, _, err := e.collector.UpdateColumn(pos.X, pos.Z, skyProp); err != nil {
			logging.Warn("Ошибка пересчёта колонки (%d,%d): %v", pos.X, pos.Z, err)
		}
	}

	e.reconcile(KindBlock, pos, blockProp)
	e.reconcile(KindSky, pos, skyProp)
}

// reconcile приводит позицию к неподвижной точке: сравнивает текущее
// значение с поддержкой от соседей и локального источника и запускает
// повышение либо понижение — та же логика, что при изменении блока.
func (e *Engine) reconcile(kind Kind, pos vec.Vec3, prop *Propagator) {
	if e.store.SectionState(pos.ToSectionCoords()) == SectionAbsent {
		return
	}

	support := int(e.policies[kind].DeclaredLevel(pos))
	for _, dir := range Directions {
		n := pos.Add(dir.Offset())
		if !e.bounds.Contains(n.Y) || !e.Loaded(n) {
			continue
		}
		// Тест формы на выходе из соседа: закрытая грань не отдаёт свет,
		// каким бы ни было значение за ней — как в цикле повышения
		if e.blocks.IsConditionallyOpaque(n) && e.blocks.OccludesFace(n, dir.Opposite()) {
			continue
		}
		v := int(e.store.Get(n, kind)) - prop.attenuation(pos, dir.Opposite())
		if v > support {
			support = v
		}
	}

	cur := int(e.store.Get(pos, kind))
	switch {
	case cur < support:
		if err := prop.Increase(pos, uint8(support)); err != nil {
			logging.Warn("Ошибка повышения %s света в %v: %v", kind, pos, err)
		}
	case cur > support:
		if err := prop.Decrease(pos, uint8(cur)); err != nil {
			logging.Warn("Ошибка понижения %s света в %v: %v", kind, pos, err)
		}
	}
}

// OnSectionOccupancyChanged обрабатывает переход секции пустая <-> непустая
func (e *Engine) OnSectionOccupancyChanged(sec vec.Vec3, nowEmpty bool) {
	anchor := vec.Vec3{X: sec.X << 4, Y: sec.Y << 4, Z: sec.Z << 4}
	unlock := e.locks.lockNeighborhood(e.RegionOf(anchor))
	defer unlock()

	e.lifecycle.OnOccupancyChanged(sec, nowEmpty)
	e.metrics.UpdateSectionGauges(e.store)
	e.publish(EventSectionOccupancy, SectionOccupancyPayload{Section: sec, Empty: nowEmpty})
}

// relightSection пересчитывает свет для секции, только что вышедшей из
// Absent: все её позиции считаются новыми получателями. Светящиеся блоки
// внутри повышаются, небесный свет над картой высот записывается напрямую,
// оболочка секции сверяется с соседями.
func (e *Engine) relightSection(sec vec.Vec3) {
	baseX, baseY, baseZ := sec.X<<4, sec.Y<<4, sec.Z<<4

	blockProp := e.propagator(KindBlock)
	skyProp := e.propagator(KindSky)

	// Светящиеся блоки внутри секции
	ch := vec.Vec2{X: baseX, Z: baseZ}.ToChunkCoords()
	for _, pos := range e.blocks.EmissiveInChunk(ch) {
		if pos.Y>>4 != sec.Y {
			continue
		}
		if err := blockProp.Increase(pos, e.blocks.Emission(pos)); err != nil {
			logging.Warn("Ошибка осеменения источника %v: %v", pos, err)
		}
	}

	// Прямой небесный свет над картой высот
	for lx := 0; lx < 16; lx++ {
		for lz := 0; lz < 16; lz++ {
			for ly := 0; ly < 16; ly++ {
				pos := vec.Vec3{X: baseX + lx, Y: baseY + ly, Z: baseZ + lz}
				if e.collector.AboveHeightmap(pos) {
					if err := e.store.Set(pos, KindSky, MaxLevel); err != nil {
						break
					}
				}
			}
		}
	}

	// Сверка оболочки секции с уже освещёнными соседями
	e.forSectionShell(sec, func(pos vec.Vec3) {
		e.reconcile(KindBlock, pos, blockProp)
		e.reconcile(KindSky, pos, skyProp)
	})
}

// forSectionShell обходит граничные позиции секции
func (e *Engine) forSectionShell(sec vec.Vec3, fn func(pos vec.Vec3)) {
	baseX, baseY, baseZ := sec.X<<4, sec.Y<<4, sec.Z<<4
	for a := 0; a < 16; a++ {
		for b := 0; b < 16; b++ {
			fn(vec.Vec3{X: baseX + a, Y: baseY + b, Z: baseZ})
			fn(vec.Vec3{X: baseX + a, Y: baseY + b, Z: baseZ + 15})
			fn(vec.Vec3{X: baseX, Y: baseY + a, Z: baseZ + b})
			fn(vec.Vec3{X: baseX + 15, Y: baseY + a, Z: baseZ + b})
			fn(vec.Vec3{X: baseX + a, Y: baseY, Z: baseZ + b})
			fn(vec.Vec3{X: baseX + a, Y: baseY + 15, Z: baseZ + b})
		}
	}
}

// LightChunk выполняет начальное освещение чанка: небесный свет через
// карту высот, затем блочные источники
func (e *Engine) LightChunk(ch vec.Vec2) error {
	anchor := vec.Vec3{X: ch.X << 4, Y: e.bounds.MinY, Z: ch.Z << 4}
	unlock := e.locks.lockNeighborhood(e.RegionOf(anchor))
	defer unlock()

	_, span := e.tracer.Start(context.Background(), "light.LightChunk")
	defer span.End()

	if err := e.collector.CollectSkyLight(ch, e.propagator(KindSky)); err != nil {
		return err
	}
	if err := e.collector.CollectBlockLight(ch, e.propagator(KindBlock)); err != nil {
		return err
	}

	e.publish(EventChunkLit, ChunkLitPayload{Chunk: ch})
	return nil
}

// OnRegionLoaded объявляет регион доступным: дренирует отложенные
// пограничные обновления и сверяет общие границы с загруженными соседями
func (e *Engine) OnRegionLoaded(region vec.Vec2) {
	e.regionMu.Lock()
	e.gated = true
	e.loaded[region] = struct{}{}
	e.regionMu.Unlock()

	unlock := e.locks.lockNeighborhood(region)
	defer unlock()

	_, span := e.tracer.Start(context.Background(), "light.OnRegionLoaded")
	defer span.End()

	applied := e.edges.OnRegionLoaded(region)
	e.publish(EventRegionLoaded, RegionPayload{Region: region, Pending: applied})
}

// OnRegionUnloaded объявляет регион недоступным: дальнейшие эффекты в его
// сторону будут откладываться в таблицу до следующей загрузки
func (e *Engine) OnRegionUnloaded(region vec.Vec2) {
	e.regionMu.Lock()
	e.gated = true
	delete(e.loaded, region)
	e.regionMu.Unlock()

	// Карты высот выгружаемых чанков больше не нужны
	for cx := region.X << e.regionBits; cx < (region.X+1)<<e.regionBits; cx++ {
		for cz := region.Z << e.regionBits; cz < (region.Z+1)<<e.regionBits; cz++ {
			e.collector.DropHeightmap(vec.Vec2{X: cx, Z: cz})
		}
	}

	e.publish(EventRegionUnloaded, RegionPayload{Region: region})
}

// publish отправляет событие в шину, если она подключена
func (e *Engine) publish(evType string, payload interface{}) {
	if e.bus == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ev := &eventbus.Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    "lighting",
		EventType: evType,
		Version:   1,
		Payload:   data,
	}
	if err := e.bus.Publish(ctx, ev); err != nil {
		logging.Warn("Не удалось опубликовать событие %s: %v", evType, err)
	}
}

// regionLockTable обеспечивает дисциплину исключения: проход над регионом
// захватывает мьютексы региона и его восьми соседей в каноническом
// порядке, что исключает одновременные проходы над пересекающимися
// областями и взаимные блокировки.
type regionLockTable struct {
	mu    sync.Mutex
	locks map[vec.Vec2]*sync.Mutex
}

func (t *regionLockTable) lockNeighborhood(region vec.Vec2) func() {
	keys := make([]vec.Vec2, 0, 9)
	for dx := -1; dx <= 1; dx++ {
		for dz := -1; dz <= 1; dz++ {
			keys = append(keys, vec.Vec2{X: region.X + dx, Z: region.Z + dz})
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].X != keys[j].X {
			return keys[i].X < keys[j].X
		}
		return keys[i].Z < keys[j].Z
	})

	ms := make([]*sync.Mutex, 0, len(keys))
	t.mu.Lock()
	for _, k := range keys {
		m, exists := t.locks[k]
		if !exists {
			m = &sync.Mutex{}
			t.locks[k] = m
		}
		ms = append(ms, m)
	}
	t.mu.Unlock()

	for _, m := range ms {
		m.Lock()
	}
	return func() {
		for i := len(ms) - 1; i >= 0; i-- {
			ms[i].Unlock()
		}
	}
}
