package block

import (
	"github.com/annel0/voxel-lighting/internal/light"
)

// BlockBehavior определяет поведение блока с точки зрения освещения.
// Все методы детерминированы и не имеют побочных эффектов: движок
// освещения опрашивает их многократно в горячих циклах распространения.
type BlockBehavior interface {
	ID() BlockID
	Name() string

	// Opacity возвращает, на сколько уровней блок ослабляет проходящий
	// свет. 0 — полностью прозрачный; 15 — непрозрачный.
	Opacity() uint8

	// LightEmission возвращает уровень излучаемого света [0..15].
	LightEmission() uint8

	// ConditionallyOpaque сообщает, зависит ли пропускание света от
	// грани (полуплиты, ступени). Для таких блоков движок дополнительно
	// опрашивает OccludesFace.
	ConditionallyOpaque() bool

	// OccludesFace возвращает true, если указанная грань блока
	// полностью закрыта и не пропускает свет. Имеет смысл только для
	// условно-непрозрачных блоков.
	OccludesFace(face light.Direction) bool
}
