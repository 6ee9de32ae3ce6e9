package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("условие не выполнилось за отведённое время")
}

func TestMemoryBus_PublishSubscribe(t *testing.T) {
	bus := NewMemoryBus(16)

	var mu sync.Mutex
	var received []*Envelope
	_, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		mu.Lock()
		received = append(received, ev)
		mu.Unlock()
	})
	require.NoError(t, err)

	ev := &Envelope{ID: "1", EventType: "LightChunkLit", Source: "lighting"}
	require.NoError(t, bus.Publish(context.Background(), ev))

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	})

	mu.Lock()
	assert.Equal(t, "LightChunkLit", received[0].EventType)
	mu.Unlock()

	stats := bus.Metrics()
	assert.Equal(t, uint64(1), stats.Published)
}

func TestMemoryBus_FilterByType(t *testing.T) {
	bus := NewMemoryBus(16)

	var mu sync.Mutex
	matched := 0
	_, err := bus.Subscribe(context.Background(),
		Filter{Types: []string{"LightRegionLoaded"}},
		func(ctx context.Context, ev *Envelope) {
			mu.Lock()
			matched++
			mu.Unlock()
		})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), &Envelope{ID: "1", EventType: "LightChunkLit"}))
	require.NoError(t, bus.Publish(context.Background(), &Envelope{ID: "2", EventType: "LightRegionLoaded"}))

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return matched == 1
	})

	// Чужой тип так и не доставлен
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, matched, "Фильтр пропускает только свой тип")
	mu.Unlock()
}

func TestMemoryBus_Unsubscribe(t *testing.T) {
	bus := NewMemoryBus(16)

	var mu sync.Mutex
	count := 0
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), &Envelope{ID: "1", EventType: "A"}))
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	})

	sub.Unsubscribe()
	require.NoError(t, bus.Publish(context.Background(), &Envelope{ID: "2", EventType: "A"}))

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, count, "После отписки события не доставляются")
	mu.Unlock()
}
