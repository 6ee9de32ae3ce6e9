package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/voxel-lighting/internal/logging"
	"github.com/go-redis/redis/v8"
)

// RedisCache реализует CacheRepo поверх Redis.
// Промах читается насквозь из Cold Storage; запись при включённом
// Write-Behind уходит в постоянное хранилище асинхронно.
type RedisCache struct {
	client      *redis.Client
	config      *CacheConfig
	coldStorage ColdStorage

	writeBehindQueue chan *writeItem
	writeBehindStop  chan struct{}
	writeBehindWg    sync.WaitGroup

	metrics      *CacheMetrics
	metricsMutex sync.RWMutex

	latencySum   int64 // в наносекундах
	latencyCount int64
	maxLatency   int64
}

// writeItem представляет элемент очереди Write-Behind.
type writeItem struct {
	Key   string
	Value []byte
}

// NewRedisCache создаёт Redis-кеш с опциональным Cold Storage (может
// быть nil — тогда кеш работает без fallback).
func NewRedisCache(config *CacheConfig, coldStorage ColdStorage) (*RedisCache, error) {
	if config.DefaultTTL == 0 {
		config.DefaultTTL = 30 * time.Second
	}
	if config.WriteBehindInterval == 0 {
		config.WriteBehindInterval = 5 * time.Second
	}
	if config.MaxConnections == 0 {
		config.MaxConnections = 10
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         config.RedisURL,
		Password:     config.RedisPassword,
		DB:           config.RedisDB,
		PoolSize:     config.MaxConnections,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("не удалось подключиться к Redis: %w", err)
	}

	cache := &RedisCache{
		client:      rdb,
		config:      config,
		coldStorage: coldStorage,
		metrics: &CacheMetrics{
			LastUpdate: time.Now(),
		},
	}

	if config.WriteBehindEnabled && coldStorage != nil {
		cache.writeBehindQueue = make(chan *writeItem, 256)
		cache.writeBehindStop = make(chan struct{})
		cache.startWriteBehind()
	}

	logging.Info("Redis кеш света инициализирован: %s (Write-Behind: %v)",
		config.RedisURL, config.WriteBehindEnabled)
	return cache, nil
}

// Get получает значение по ключу; при промахе читает из Cold Storage и
// прогревает кеш.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	defer r.recordLatency(start)

	atomic.AddInt64(&r.metrics.TotalRequests, 1)

	val, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		atomic.AddInt64(&r.metrics.CacheHits, 1)
		return val, nil
	}

	atomic.AddInt64(&r.metrics.CacheMisses, 1)

	if err != redis.Nil {
		return nil, fmt.Errorf("ошибка Redis Get: %w", err)
	}

	// Read-Through
	if r.coldStorage != nil {
		val, err := r.coldStorage.Load(ctx, key)
		if err == nil {
			go func() {
				warmCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = r.Set(warmCtx, key, val, r.config.DefaultTTL)
			}()
			return val, nil
		}
	}

	return nil, ErrCacheMiss
}

// Set сохраняет значение в Redis и, при включённом Write-Behind, ставит
// запись в очередь к постоянному хранилищу.
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	if ttl == 0 {
		ttl = r.config.DefaultTTL
	}

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("ошибка Redis Set: %w", err)
	}

	if r.writeBehindQueue != nil {
		select {
		case r.writeBehindQueue <- &writeItem{Key: key, Value: value}:
			atomic.AddInt64(&r.metrics.PendingWrites, 1)
		default:
			// Очередь переполнена — пишем синхронно, чтобы не потерять данные
			if err := r.coldStorage.Store(ctx, key, value); err != nil {
				logging.Error("Синхронная запись в Cold Storage не удалась: %v", err)
			}
		}
	}

	return nil
}

// Delete удаляет ключ из кеша.
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// Invalidate удаляет ключ; обновлённое значение подтянется из Cold
// Storage при следующем чтении.
func (r *RedisCache) Invalidate(ctx context.Context, key string) error {
	return r.Delete(ctx, key)
}

// Close останавливает Write-Behind и закрывает соединение.
func (r *RedisCache) Close() error {
	if r.writeBehindStop != nil {
		close(r.writeBehindStop)
		r.writeBehindWg.Wait()
	}
	return r.client.Close()
}

// GetMetrics возвращает снимок метрик кеша.
func (r *RedisCache) GetMetrics() *CacheMetrics {
	r.metricsMutex.RLock()
	defer r.metricsMutex.RUnlock()

	m := *r.metrics
	m.TotalRequests = atomic.LoadInt64(&r.metrics.TotalRequests)
	m.CacheHits = atomic.LoadInt64(&r.metrics.CacheHits)
	m.CacheMisses = atomic.LoadInt64(&r.metrics.CacheMisses)
	m.PendingWrites = atomic.LoadInt64(&r.metrics.PendingWrites)
	if m.TotalRequests > 0 {
		m.HitRatio = float64(m.CacheHits) / float64(m.TotalRequests)
	}
	if count := atomic.LoadInt64(&r.latencyCount); count > 0 {
		m.AvgLatencyMs = float64(atomic.LoadInt64(&r.latencySum)) / float64(count) / 1e6
	}
	m.MaxLatencyMs = float64(atomic.LoadInt64(&r.maxLatency)) / 1e6
	m.LastUpdate = time.Now()
	return &m
}

// startWriteBehind запускает фонового писателя в Cold Storage.
func (r *RedisCache) startWriteBehind() {
	r.writeBehindWg.Add(1)
	go func() {
		defer r.writeBehindWg.Done()

		ticker := time.NewTicker(r.config.WriteBehindInterval)
		defer ticker.Stop()

		pending := make(map[string][]byte)

		flush := func() {
			if len(pending) == 0 {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			for key, value := range pending {
				if err := r.coldStorage.Store(ctx, key, value); err != nil {
					logging.Error("Write-Behind: ошибка записи %s: %v", key, err)
					continue
				}
				atomic.AddInt64(&r.metrics.PendingWrites, -1)
				delete(pending, key)
			}
			cancel()
		}

		for {
			select {
			case item := <-r.writeBehindQueue:
				pending[item.Key] = item.Value
			case <-ticker.C:
				flush()
			case <-r.writeBehindStop:
				// Дренируем очередь перед выходом
				for {
					select {
					case item := <-r.writeBehindQueue:
						pending[item.Key] = item.Value
					default:
						flush()
						return
					}
				}
			}
		}
	}()
}

// recordLatency обновляет статистику задержек.
func (r *RedisCache) recordLatency(start time.Time) {
	elapsed := time.Since(start).Nanoseconds()
	atomic.AddInt64(&r.latencySum, elapsed)
	atomic.AddInt64(&r.latencyCount, 1)

	for {
		max := atomic.LoadInt64(&r.maxLatency)
		if elapsed <= max || atomic.CompareAndSwapInt64(&r.maxLatency, max, elapsed) {
			break
		}
	}
}
