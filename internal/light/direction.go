package light

import "github.com/annel0/voxel-lighting/internal/vec"

// Direction — одно из шести осевых направлений распространения света
type Direction uint8

const (
	DirDown Direction = iota
	DirUp
	DirNorth // -Z
	DirSouth // +Z
	DirWest  // -X
	DirEast  // +X
)

// Directions перечисляет все шесть направлений
var Directions = [6]Direction{DirDown, DirUp, DirNorth, DirSouth, DirWest, DirEast}

var dirOffsets = [6]vec.Vec3{
	{X: 0, Y: -1, Z: 0},
	{X: 0, Y: 1, Z: 0},
	{X: 0, Y: 0, Z: -1},
	{X: 0, Y: 0, Z: 1},
	{X: -1, Y: 0, Z: 0},
	{X: 1, Y: 0, Z: 0},
}

var dirNames = [6]string{"down", "up", "north", "south", "west", "east"}

// Offset возвращает смещение соседа в данном направлении
func (d Direction) Offset() vec.Vec3 {
	return dirOffsets[d]
}

// Opposite возвращает противоположное направление
func (d Direction) Opposite() Direction {
	return d ^ 1
}

// Mask возвращает битовую маску направления для масок исключения
func (d Direction) Mask() uint8 {
	return 1 << d
}

// String возвращает строковое представление направления
func (d Direction) String() string {
	return dirNames[d]
}
