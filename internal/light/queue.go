package light

import "github.com/annel0/voxel-lighting/internal/vec"

// queueEntry — элемент очереди распространения: позиция, уровень,
// маска направлений, которые не нужно перепроверять (откуда пришли),
// и флаг необходимости проверки формы при выходе из позиции.
type queueEntry struct {
	pos        vec.Vec3
	level      uint8
	exclude    uint8
	shapeCheck bool
}

// fifo — простая FIFO-очередь на срезе. Структурная замена очереди с
// отменяемыми элементами из старых реализаций: двухпроходное понижение
// делает отмену ненужной.
type fifo struct {
	entries []queueEntry
	head    int
}

func (q *fifo) push(e queueEntry) {
	q.entries = append(q.entries, e)
}

func (q *fifo) pop() queueEntry {
	e := q.entries[q.head]
	q.head++
	if q.head == len(q.entries) {
		// Очередь опустела — освобождаем память под следующий проход
		q.entries = q.entries[:0]
		q.head = 0
	}
	return e
}

func (q *fifo) empty() bool {
	return q.head >= len(q.entries)
}
