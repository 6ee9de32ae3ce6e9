package vec

// Vec3 представляет трехмерный вектор с целочисленными координатами.
// Ось Y направлена вверх.
type Vec3 struct {
	X int
	Y int
	Z int
}

// Flatten преобразует Vec3 в Vec2, игнорируя координату Y
func (v Vec3) Flatten() Vec2 {
	return Vec2{X: v.X, Z: v.Z}
}

// ToSectionCoords преобразует глобальные координаты в координаты секции (16³)
func (v Vec3) ToSectionCoords() Vec3 {
	return Vec3{X: v.X >> 4, Y: v.Y >> 4, Z: v.Z >> 4}
}

// LocalInSection возвращает локальные координаты внутри секции
func (v Vec3) LocalInSection() Vec3 {
	return Vec3{X: v.X & 0xF, Y: v.Y & 0xF, Z: v.Z & 0xF}
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Chebyshev возвращает расстояние Чебышёва до другого вектора:
// max(|dx|, |dy|, |dz|)
func (v Vec3) Chebyshev(other Vec3) int {
	d := abs(v.X - other.X)
	if dy := abs(v.Y - other.Y); dy > d {
		d = dy
	}
	if dz := abs(v.Z - other.Z); dz > d {
		d = dz
	}
	return d
}

// Manhattan возвращает манхэттенское расстояние до другого вектора
func (v Vec3) Manhattan(other Vec3) int {
	return abs(v.X-other.X) + abs(v.Y-other.Y) + abs(v.Z-other.Z)
}
