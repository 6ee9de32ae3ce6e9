package light

import (
	"sync"

	"github.com/annel0/voxel-lighting/internal/vec"
)

// columnBits — битовая карта колонки: бит установлен, если позиция
// прозрачна вверх (непрозрачность 0 и нет условного перекрытия верхней
// грани). Вычисляется только из состояния блоков, без чтения света.
type columnBits []uint64

func newColumnBits(height int) columnBits {
	return make(columnBits, (height+63)/64)
}

func (c columnBits) set(i int) {
	c[i>>6] |= 1 << uint(i&63)
}

func (c columnBits) get(i int) bool {
	return c[i>>6]&(1<<uint(i&63)) != 0
}

// ChunkHeightmap хранит по каждой колонке чанка высоту верхнего блока,
// перекрывающего прохождение небесного света. Значение minY-1 означает
// полностью прозрачную колонку.
type ChunkHeightmap struct {
	top [16][16]int
}

// Top возвращает высоту верхнего блокера колонки (локальные координаты)
func (h *ChunkHeightmap) Top(lx, lz int) int {
	return h.top[lx][lz]
}

// LightField — поле света с точки зрения сборщика источников.
// Реализуется Store; в тестах подменяется инструментированной обёрткой.
type LightField interface {
	Get(pos vec.Vec3, kind Kind) uint8
	Set(pos vec.Vec3, kind Kind, v uint8) error
	SectionState(sec vec.Vec3) SectionState
}

// SourceCollector формирует начальные семена распространения для каждого
// вида света: светящиеся блоки для блочного света и карту высот
// прозрачности для небесного. Карты высот кэшируются по чанкам и
// обновляются по одной колонке при изменении блока.
type SourceCollector struct {
	store  LightField
	blocks BlockSource
	bounds Bounds

	mu         sync.RWMutex
	heightmaps map[vec.Vec2]*ChunkHeightmap
}

// NewSourceCollector создаёт сборщик источников
func NewSourceCollector(store LightField, blocks BlockSource, bounds Bounds) *SourceCollector {
	return &SourceCollector{
		store:      store,
		blocks:     blocks,
		bounds:     bounds,
		heightmaps: make(map[vec.Vec2]*ChunkHeightmap),
	}
}

// CollectBlockLight сажает семена блочного света чанка: каждый
// светящийся блок повышается до своего уровня свечения. Порядок обхода
// не влияет на итоговое поле — правило обновления является монотонным
// поточечным максимумом.
func (sc *SourceCollector) CollectBlockLight(ch vec.Vec2, prop *Propagator) error {
	for _, pos := range sc.blocks.EmissiveInChunk(ch) {
		if err := prop.Increase(pos, sc.blocks.Emission(pos)); err != nil {
			return err
		}
	}
	return nil
}

// scanColumn строит битовую карту прозрачности колонки, читая только
// состояние блоков
func (sc *SourceCollector) scanColumn(x, z int) columnBits {
	bits := newColumnBits(sc.bounds.Height())
	for y := sc.bounds.MinY; y <= sc.bounds.MaxY; y++ {
		pos := vec.Vec3{X: x, Y: y, Z: z}
		if sc.blocks.Opacity(pos) != 0 {
			continue
		}
		if sc.blocks.IsConditionallyOpaque(pos) && sc.blocks.OccludesFace(pos, DirUp) {
			continue
		}
		bits.set(y - sc.bounds.MinY)
	}
	return bits
}

// topBlocker возвращает высоту верхней непрозрачной позиции колонки
// по её битовой карте; minY-1, если колонка прозрачна насквозь
func (sc *SourceCollector) topBlocker(bits columnBits) int {
	for y := sc.bounds.MaxY; y >= sc.bounds.MinY; y-- {
		if !bits.get(y - sc.bounds.MinY) {
			return y
		}
	}
	return sc.bounds.MinY - 1
}

// CollectSkyLight рассчитывает небесный свет чанка через карту высот.
// Все позиции строго выше верхнего блокера колонки получают уровень 15
// прямой записью — их значение доказуемо из карты высот, очередь не
// используется. В очередь попадают только позиции переходной зоны:
// столбы света рядом с более высокими соседними колонками, откуда свет
// может растечься в тень. Позиции глубоко под непрозрачной колонкой не
// пересчитываются вовсе.
func (sc *SourceCollector) CollectSkyLight(ch vec.Vec2, prop *Propagator) error {
	var tops [16][16]int
	baseX := ch.X << 4
	baseZ := ch.Z << 4

	for lx := 0; lx < 16; lx++ {
		for lz := 0; lz < 16; lz++ {
			bits := sc.scanColumn(baseX+lx, baseZ+lz)
			tops[lx][lz] = sc.topBlocker(bits)
		}
	}

	hm := &ChunkHeightmap{top: tops}
	sc.mu.Lock()
	sc.heightmaps[ch] = hm
	sc.mu.Unlock()

	// Прямая запись 15 над блокером — без участия очереди
	for lx := 0; lx < 16; lx++ {
		for lz := 0; lz < 16; lz++ {
			x, z := baseX+lx, baseZ+lz
			for y := tops[lx][lz] + 1; y <= sc.bounds.MaxY; y++ {
				pos := vec.Vec3{X: x, Y: y, Z: z}
				if sc.store.SectionState(pos.ToSectionCoords()) == SectionAbsent {
					// Выше инварианта близости данных нет: значение 15
					// остаётся неявным и отвечает за него карта высот
					break
				}
				if err := sc.store.Set(pos, KindSky, MaxLevel); err != nil {
					return err
				}
			}
		}
	}

	// Ограниченное осеменение переходной зоны: позиции столба света,
	// примыкающие к более высокой соседней колонке. Для граничных колонок
	// высота соседа берётся из соседнего чанка — из его кэшированной карты
	// высот либо прямым сканом колонки; иначе свет не перетёк бы через
	// границу чанков внутри региона.
	neighborTop := func(nx, nz int) int {
		if nx >= 0 && nx <= 15 && nz >= 0 && nz <= 15 {
			return tops[nx][nz]
		}
		gx, gz := baseX+nx, baseZ+nz
		nch := vec.Vec2{X: gx, Z: gz}.ToChunkCoords()

		sc.mu.RLock()
		hm, ok := sc.heightmaps[nch]
		sc.mu.RUnlock()
		if ok {
			local := vec.Vec2{X: gx, Z: gz}.LocalInChunk()
			return hm.top[local.X][local.Z]
		}
		return sc.topBlocker(sc.scanColumn(gx, gz))
	}

	for lx := 0; lx < 16; lx++ {
		for lz := 0; lz < 16; lz++ {
			own := tops[lx][lz]
			maxNeighbor := own
			for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				if nt := neighborTop(lx+d[0], lz+d[1]); nt > maxNeighbor {
					maxNeighbor = nt
				}
			}
			x, z := baseX+lx, baseZ+lz
			for y := own + 1; y <= maxNeighbor && y <= sc.bounds.MaxY; y++ {
				pos := vec.Vec3{X: x, Y: y, Z: z}
				if sc.store.SectionState(pos.ToSectionCoords()) == SectionAbsent {
					continue
				}
				if err := prop.seed(pos, MaxLevel); err != nil {
					return err
				}
			}
		}
	}
	prop.flush()
	return nil
}

// Heightmap возвращает кэшированную карту высот чанка, если она построена
func (sc *SourceCollector) Heightmap(ch vec.Vec2) (*ChunkHeightmap, bool) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	hm, ok := sc.heightmaps[ch]
	return hm, ok
}

// DropHeightmap удаляет карту высот выгружаемого чанка
func (sc *SourceCollector) DropHeightmap(ch vec.Vec2) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	delete(sc.heightmaps, ch)
}

// AboveHeightmap сообщает, находится ли позиция строго выше верхнего
// блокера своей колонки — то есть является ли объявленным источником
// небесного света уровня 15
func (sc *SourceCollector) AboveHeightmap(pos vec.Vec3) bool {
	ch := pos.Flatten().ToChunkCoords()

	sc.mu.RLock()
	hm, ok := sc.heightmaps[ch]
	sc.mu.RUnlock()

	if !ok {
		return false
	}
	local := pos.Flatten().LocalInChunk()
	return pos.Y > hm.top[local.X][local.Z]
}

// UpdateColumn пересчитывает колонку после изменения блока и приводит
// вертикальный небесный свет в соответствие: открытие колонки повышает
// освободившиеся позиции до 15, перекрытие понижает потерявшие прямой
// свет. Возвращает старую и новую высоту блокера.
func (sc *SourceCollector) UpdateColumn(x, z int, prop *Propagator) (oldTop, newTop int, err error) {
	ch := vec.Vec2{X: x, Z: z}.ToChunkCoords()
	local := vec.Vec2{X: x, Z: z}.LocalInChunk()

	sc.mu.Lock()
	hm, ok := sc.heightmaps[ch]
	if !ok {
		hm = &ChunkHeightmap{}
		for lx := 0; lx < 16; lx++ {
			for lz := 0; lz < 16; lz++ {
				hm.top[lx][lz] = sc.bounds.MaxY
			}
		}
		sc.heightmaps[ch] = hm
	}
	oldTop = hm.top[local.X][local.Z]
	bits := sc.scanColumn(x, z)
	newTop = sc.topBlocker(bits)
	hm.top[local.X][local.Z] = newTop
	sc.mu.Unlock()

	if newTop == oldTop {
		return oldTop, newTop, nil
	}

	if newTop < oldTop {
		// Колонка открылась: позиции (newTop, oldTop] получают прямой свет
		for y := newTop + 1; y <= oldTop && y <= sc.bounds.MaxY; y++ {
			pos := vec.Vec3{X: x, Y: y, Z: z}
			if sc.store.SectionState(pos.ToSectionCoords()) == SectionAbsent {
				continue
			}
			if err := prop.Increase(pos, MaxLevel); err != nil {
				return oldTop, newTop, err
			}
		}
		return oldTop, newTop, nil
	}

	// Колонка перекрылась: позиции (oldTop, newTop) теряют прямой свет
	for y := oldTop + 1; y < newTop && y >= sc.bounds.MinY; y++ {
		pos := vec.Vec3{X: x, Y: y, Z: z}
		if sc.store.SectionState(pos.ToSectionCoords()) == SectionAbsent {
			continue
		}
		if cur := sc.store.Get(pos, KindSky); cur > 0 {
			if err := prop.Decrease(pos, cur); err != nil {
				return oldTop, newTop, err
			}
		}
	}
	return oldTop, newTop, nil
}

// blockSourcePolicy — политика источников блочного света
type blockSourcePolicy struct {
	blocks BlockSource
}

// DeclaredLevel возвращает свечение блока
func (p blockSourcePolicy) DeclaredLevel(pos vec.Vec3) uint8 {
	return p.blocks.Emission(pos)
}

// skySourcePolicy — политика источников небесного света
type skySourcePolicy struct {
	collector *SourceCollector
}

// DeclaredLevel возвращает 15 для позиций под открытым небом
func (p skySourcePolicy) DeclaredLevel(pos vec.Vec3) uint8 {
	if p.collector.AboveHeightmap(pos) {
		return MaxLevel
	}
	return 0
}
