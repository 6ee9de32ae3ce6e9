package light

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/annel0/voxel-lighting/internal/logging"
	"github.com/annel0/voxel-lighting/internal/vec"
)

// Task — единица работы планировщика
type Task func()

// Scheduler распределяет работу освещения по воркерам с сериализацией по
// регионам: задачи одного региона выполняются строго по очереди одним
// воркером, задачи разных регионов — параллельно. Вместе с
// regionLockTable движка это реализует дисциплину "не более одного
// прохода над регионом".
type Scheduler struct {
	mu     sync.Mutex
	queues map[vec.Vec2][]Task
	active map[vec.Vec2]bool

	ready    chan vec.Vec2
	shutdown chan struct{}
	wg       sync.WaitGroup
	tasksWg  sync.WaitGroup

	executed atomic.Int64
}

// NewScheduler создаёт планировщик с указанным числом воркеров
func NewScheduler(workerCount int) *Scheduler {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}

	s := &Scheduler{
		queues:   make(map[vec.Vec2][]Task),
		active:   make(map[vec.Vec2]bool),
		ready:    make(chan vec.Vec2, workerCount*16),
		shutdown: make(chan struct{}),
	}

	for i := 0; i < workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	logging.Debug("Планировщик освещения запущен: %d воркеров", workerCount)
	return s
}

// Submit ставит задачу в очередь региона
func (s *Scheduler) Submit(region vec.Vec2, t Task) {
	s.tasksWg.Add(1)

	s.mu.Lock()
	s.queues[region] = append(s.queues[region], t)
	wake := !s.active[region]
	if wake {
		s.active[region] = true
	}
	s.mu.Unlock()

	if wake {
		s.ready <- region
	}
}

// worker обрабатывает регионы из канала готовности; взяв регион,
// выгребает его очередь до конца
func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.shutdown:
			return
		case region := <-s.ready:
			for {
				s.mu.Lock()
				q := s.queues[region]
				if len(q) == 0 {
					s.active[region] = false
					delete(s.queues, region)
					s.mu.Unlock()
					break
				}
				t := q[0]
				s.queues[region] = q[1:]
				s.mu.Unlock()

				t()
				s.executed.Add(1)
				s.tasksWg.Done()
			}
		}
	}
}

// Drain блокирует до завершения всех поставленных задач
func (s *Scheduler) Drain() {
	s.tasksWg.Wait()
}

// Stop останавливает воркеров. Задачи, не взятые в работу, не выполняются.
func (s *Scheduler) Stop() {
	close(s.shutdown)
	s.wg.Wait()
}

// Executed возвращает число выполненных задач
func (s *Scheduler) Executed() int64 {
	return s.executed.Load()
}
