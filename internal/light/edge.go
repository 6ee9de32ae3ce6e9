package light

import (
	"github.com/annel0/voxel-lighting/internal/logging"
	"github.com/annel0/voxel-lighting/internal/vec"
)

// EdgeChecker выравнивает свет на границах независимо загруженных
// регионов. При появлении региона его граничные значения сверяются с
// тем, что подразумевают соседние регионы (та же формула неподвижной
// точки), и любое расхождение обрабатывается как изменение блока —
// повторным повышением или понижением из этой позиции. Так два
// независимо освещённых региона сходятся к единой глобальной
// неподвижной точке без полного пересчёта.
type EdgeChecker struct {
	engine *Engine
}

// NewEdgeChecker создаёт сверку границ для движка
func NewEdgeChecker(e *Engine) *EdgeChecker {
	return &EdgeChecker{engine: e}
}

// OnRegionLoaded дренирует отложенные обновления региона и сверяет его
// границы с загруженными соседями. Возвращает число применённых
// отложенных обновлений.
func (ec *EdgeChecker) OnRegionLoaded(region vec.Vec2) int {
	e := ec.engine

	updates, err := e.pending.Drain(region)
	if err != nil {
		logging.Error("Ошибка дренажа отложенных обновлений региона %v: %v", region, err)
	}
	for _, u := range updates {
		ec.applyPending(u)
	}

	// Сверка четырёх общих границ с загруженными соседями
	for _, d := range [4]Direction{DirWest, DirEast, DirNorth, DirSouth} {
		off := d.Offset()
		neighbor := vec.Vec2{X: region.X + off.X, Z: region.Z + off.Z}
		if !e.regionLoaded(neighbor) {
			continue
		}
		ec.reconcileBoundary(region, d)
	}

	if len(updates) > 0 {
		logging.Info("🔦 Регион %v: применено %d отложенных обновлений", region, len(updates))
	}
	return len(updates)
}

// applyPending применяет одно отложенное обновление: уровень источника
// был записан на границе, затухание вычисляется теперь, когда блок
// стал читаем
func (ec *EdgeChecker) applyPending(u PendingUpdate) {
	e := ec.engine
	prop := e.propagator(u.Kind)

	switch u.Op {
	case OpIncrease:
		atten := int(e.blocks.Opacity(u.Pos))
		if atten < 1 {
			atten = 1
		}
		target := int(u.Level) - atten
		if target > 0 && target > int(e.store.Get(u.Pos, u.Kind)) {
			if err := prop.Increase(u.Pos, uint8(target)); err != nil {
				logging.Warn("Отложенное повышение %v: %v", u.Pos, err)
			}
		}
	case OpDecrease:
		if cur := e.store.Get(u.Pos, u.Kind); cur > 0 {
			if err := prop.Decrease(u.Pos, cur); err != nil {
				logging.Warn("Отложенное понижение %v: %v", u.Pos, err)
			}
		}
	}
}

// reconcileBoundary сверяет обе колонки позиций вдоль указанной грани
// региона: внутреннюю и прилегающую колонку соседнего региона
func (ec *EdgeChecker) reconcileBoundary(region vec.Vec2, side Direction) {
	e := ec.engine
	span := 1 << (e.regionBits + 4) // размер региона в блоках
	x0 := region.X << (e.regionBits + 4)
	z0 := region.Z << (e.regionBits + 4)

	blockProp := e.propagator(KindBlock)
	skyProp := e.propagator(KindSky)

	check := func(pos vec.Vec3) {
		e.reconcile(KindBlock, pos, blockProp)
		e.reconcile(KindSky, pos, skyProp)
	}

	walk := func(inner, outer func(i, y int) vec.Vec3) {
		for i := 0; i < span; i++ {
			for y := e.bounds.MinY; y <= e.bounds.MaxY; y++ {
				check(inner(i, y))
				check(outer(i, y))
			}
		}
	}

	switch side {
	case DirWest:
		walk(
			func(i, y int) vec.Vec3 { return vec.Vec3{X: x0, Y: y, Z: z0 + i} },
			func(i, y int) vec.Vec3 { return vec.Vec3{X: x0 - 1, Y: y, Z: z0 + i} },
		)
	case DirEast:
		walk(
			func(i, y int) vec.Vec3 { return vec.Vec3{X: x0 + span - 1, Y: y, Z: z0 + i} },
			func(i, y int) vec.Vec3 { return vec.Vec3{X: x0 + span, Y: y, Z: z0 + i} },
		)
	case DirNorth:
		walk(
			func(i, y int) vec.Vec3 { return vec.Vec3{X: x0 + i, Y: y, Z: z0} },
			func(i, y int) vec.Vec3 { return vec.Vec3{X: x0 + i, Y: y, Z: z0 - 1} },
		)
	case DirSouth:
		walk(
			func(i, y int) vec.Vec3 { return vec.Vec3{X: x0 + i, Y: y, Z: z0 + span - 1} },
			func(i, y int) vec.Vec3 { return vec.Vec3{X: x0 + i, Y: y, Z: z0 + span} },
		)
	}
}
