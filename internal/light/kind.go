package light

import "errors"

// MaxLevel — максимальный уровень света
const MaxLevel = 15

// Kind определяет вид света: блочный (от источников) или небесный
type Kind uint8

const (
	KindBlock Kind = iota // свет от светящихся блоков
	KindSky               // свет неба
	kindCount
)

// String возвращает строковое представление вида света
func (k Kind) String() string {
	switch k {
	case KindBlock:
		return "block"
	case KindSky:
		return "sky"
	default:
		return "unknown"
	}
}

// SectionState определяет состояние данных освещения секции
type SectionState uint8

const (
	// SectionAbsent — данных нет и они не нужны
	SectionAbsent SectionState = iota
	// SectionUninitialized — данные нужны, но ещё не вычислены (все значения 0)
	SectionUninitialized
	// SectionInitialized — данные вычислены и хранятся
	SectionInitialized
)

// String возвращает строковое представление состояния секции
func (s SectionState) String() string {
	switch s {
	case SectionAbsent:
		return "absent"
	case SectionUninitialized:
		return "uninitialized"
	case SectionInitialized:
		return "initialized"
	default:
		return "unknown"
	}
}

// Ошибки нарушения контракта вызова.
var (
	// ErrLevelOutOfRange — запрошенный уровень света вне диапазона [0,15]
	ErrLevelOutOfRange = errors.New("уровень света вне диапазона [0,15]")
	// ErrSectionAbsent — запись в секцию без данных освещения
	ErrSectionAbsent = errors.New("запись в секцию без данных освещения")
)

// Bounds задаёт вертикальные границы мира для распространения света
type Bounds struct {
	MinY int
	MaxY int
}

// DefaultBounds — границы мира по умолчанию (16 вертикальных секций)
var DefaultBounds = Bounds{MinY: 0, MaxY: 255}

// Contains проверяет, что высота находится в границах мира
func (b Bounds) Contains(y int) bool {
	return y >= b.MinY && y <= b.MaxY
}

// SectionRange возвращает диапазон индексов секций по вертикали
func (b Bounds) SectionRange() (minSec, maxSec int) {
	return b.MinY >> 4, b.MaxY >> 4
}

// Height возвращает высоту мира в блоках
func (b Bounds) Height() int {
	return b.MaxY - b.MinY + 1
}
