package eventbus

import (
	"context"
	"sync"
	"time"
)

// Envelope описывает универсальный контейнер события.
// Все поля фиксированы для версиирования и трассировки.
type Envelope struct {
	ID            string            // Глобально уникальный идентификатор (UUID).
	Timestamp     time.Time         // Время создания события (UTC).
	Source        string            // Имя подсистемы-источника ("lighting").
	EventType     string            // Тип события (LightChunkLit, LightRegionLoaded…).
	Version       int               // Схема полезной нагрузки.
	CorrelationID string            // Для связывания цепочек.
	Payload       []byte            // Сериализованный JSON.
	Metadata      map[string]string // Произвольные метаданные.
}

// Filter позволяет подписаться только на нужные события.
type Filter struct {
	Types   []string // Если пусто — все типы.
	Sources []string // Если пусто — все источники.
}

// Subscription возвращается при подписке; позволяет отписаться.
type Subscription interface {
	Unsubscribe()
}

// Handler потребляет события.
type Handler func(ctx context.Context, ev *Envelope)

// Stats агрегированные метрики шины.
type Stats struct {
	Published uint64
	Consumed  uint64
	Dropped   uint64
	InFlight  int
}

// EventBus определяет абстракцию шины событий освещения.
// Реализации: in-memory для одиночного режима, JetStream для кластера.
type EventBus interface {
	Publish(ctx context.Context, ev *Envelope) error
	Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error)
	Metrics() Stats
}

//================ In-Memory implementation =================//

type memoryBus struct {
	mu          sync.RWMutex
	subscribers map[int]subscriber
	nextID      int
	stats       Stats
	buffer      chan *Envelope
	capacity    int
}

type subscriber struct {
	filter  Filter
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewMemoryBus создаёт in-memory шину с указанным буфером.
func NewMemoryBus(capacity int) EventBus {
	mb := &memoryBus{
		subscribers: make(map[int]subscriber),
		buffer:      make(chan *Envelope, capacity),
		capacity:    capacity,
	}
	go mb.dispatchLoop()
	return mb
}

func (mb *memoryBus) Publish(ctx context.Context, ev *Envelope) error {
	select {
	case mb.buffer <- ev:
		mb.mu.Lock()
		mb.stats.Published++
		mb.mu.Unlock()
		return nil
	default:
		// Буфер переполнен — событие отбрасываем, это телеметрия, не данные
		mb.mu.Lock()
		mb.stats.Dropped++
		mb.mu.Unlock()
		return nil
	}
}

func (mb *memoryBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	subCtx, cancel := context.WithCancel(ctx)

	mb.mu.Lock()
	id := mb.nextID
	mb.nextID++
	mb.subscribers[id] = subscriber{filter: f, handler: h, ctx: subCtx, cancel: cancel}
	mb.mu.Unlock()

	return &memorySub{bus: mb, id: id}, nil
}

func (mb *memoryBus) Metrics() Stats {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	st := mb.stats
	st.InFlight = len(mb.buffer)
	return st
}

func (mb *memoryBus) dispatchLoop() {
	for ev := range mb.buffer {
		mb.mu.RLock()
		subs := make([]subscriber, 0, len(mb.subscribers))
		for _, s := range mb.subscribers {
			if matches(s.filter, ev) {
				subs = append(subs, s)
			}
		}
		mb.mu.RUnlock()

		for _, s := range subs {
			if s.ctx.Err() != nil {
				continue
			}
			s.handler(s.ctx, ev)
			mb.mu.Lock()
			mb.stats.Consumed++
			mb.mu.Unlock()
		}
	}
}

func matches(f Filter, ev *Envelope) bool {
	if len(f.Types) > 0 && !contains(f.Types, ev.EventType) {
		return false
	}
	if len(f.Sources) > 0 && !contains(f.Sources, ev.Source) {
		return false
	}
	return true
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

type memorySub struct {
	bus *memoryBus
	id  int
}

func (ms *memorySub) Unsubscribe() {
	ms.bus.mu.Lock()
	defer ms.bus.mu.Unlock()
	if s, exists := ms.bus.subscribers[ms.id]; exists {
		s.cancel()
		delete(ms.bus.subscribers, ms.id)
	}
}
