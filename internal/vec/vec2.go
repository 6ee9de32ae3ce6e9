package vec

import "math"

// Vec2 представляет горизонтальные координаты (колонка X/Z)
type Vec2 struct {
	X, Z int
}

// ToChunkCoords преобразует глобальные координаты в координаты чанка
func (v Vec2) ToChunkCoords() Vec2 {
	return Vec2{X: v.X >> 4, Z: v.Z >> 4} // Деление на 16
}

// ToRegionCoords преобразует координаты чанка в координаты региона.
// Размер региона — степень двойки, задаётся количеством бит.
func (v Vec2) ToRegionCoords(regionBits uint) Vec2 {
	return Vec2{X: v.X >> regionBits, Z: v.Z >> regionBits}
}

// LocalInChunk возвращает локальные координаты внутри чанка
func (v Vec2) LocalInChunk() Vec2 {
	return Vec2{X: v.X & 0xF, Z: v.Z & 0xF} // Модуль 16
}

// Add складывает два вектора
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Z: v.Z + other.Z}
}

// Chebyshev возвращает расстояние Чебышёва до другой точки
func (v Vec2) Chebyshev(other Vec2) int {
	dx := abs(v.X - other.X)
	dz := abs(v.Z - other.Z)
	if dx > dz {
		return dx
	}
	return dz
}

// DistanceTo вычисляет евклидово расстояние до другой точки
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := float64(v.X - other.X)
	dz := float64(v.Z - other.Z)
	return math.Sqrt(dx*dx + dz*dz)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
