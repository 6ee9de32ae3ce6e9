package light

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/annel0/voxel-lighting/internal/vec"
	"github.com/stretchr/testify/assert"
)

func TestScheduler_ExecutesAllTasks(t *testing.T) {
	s := NewScheduler(4)
	defer s.Stop()

	var counter atomic.Int64
	for i := 0; i < 100; i++ {
		region := vec.Vec2{X: i % 7, Z: i % 3}
		s.Submit(region, func() { counter.Add(1) })
	}
	s.Drain()

	assert.Equal(t, int64(100), counter.Load(), "Все задачи должны выполниться")
	assert.Equal(t, int64(100), s.Executed())
}

func TestScheduler_SerializesPerRegion(t *testing.T) {
	// Задачи одного региона выполняются строго по порядку постановки
	s := NewScheduler(8)
	defer s.Stop()

	region := vec.Vec2{X: 1, Z: 1}
	var mu sync.Mutex
	var order []int

	for i := 0; i < 50; i++ {
		i := i
		s.Submit(region, func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	s.Drain()

	for i, v := range order {
		assert.Equal(t, i, v, "Порядок задач региона должен сохраняться")
	}
}

func TestScheduler_RegionsRunIndependently(t *testing.T) {
	// Долгая задача одного региона не блокирует другой
	s := NewScheduler(2)
	defer s.Stop()

	slowStarted := make(chan struct{})
	release := make(chan struct{})
	fastDone := make(chan struct{})

	s.Submit(vec.Vec2{X: 0, Z: 0}, func() {
		close(slowStarted)
		<-release
	})
	<-slowStarted

	s.Submit(vec.Vec2{X: 5, Z: 5}, func() { close(fastDone) })

	<-fastDone // завершилась при занятом первом регионе
	close(release)
	s.Drain()

	assert.Equal(t, int64(2), s.Executed())
}
