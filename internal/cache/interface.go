package cache

import (
	"context"
	"time"
)

// CacheRepo определяет интерфейс горячего кеша световых тегов.
// Двухуровневая архитектура: Hot Cache (Redis) + Cold Storage (BadgerDB).
// Клиенты (рендер, сеть) читают освещение чанков через кеш, не трогая
// движок; движок инвалидирует ключи при пересчёте.
type CacheRepo interface {
	// Get получает значение по ключу из кеша.
	// Возвращает ErrCacheMiss если ключ не найден.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение в кеше с указанным TTL.
	// TTL = 0 означает отсутствие истечения.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete удаляет ключ из кеша.
	Delete(ctx context.Context, key string) error

	// Invalidate помечает ключ как недействительный.
	Invalidate(ctx context.Context, key string) error

	// Close закрывает соединение с кешем.
	Close() error

	// GetMetrics возвращает метрики кеша.
	GetMetrics() *CacheMetrics
}

// ColdStorage определяет интерфейс постоянного хранения. Используется
// как fallback при промахе горячего кеша (Read-Through) и как приёмник
// Write-Behind записи.
type ColdStorage interface {
	// Load загружает данные из постоянного хранилища.
	Load(ctx context.Context, key string) ([]byte, error)

	// Store сохраняет данные в постоянное хранилище.
	Store(ctx context.Context, key string, value []byte) error

	// Close закрывает соединение с хранилищем.
	Close() error
}

// CacheMetrics содержит метрики производительности кеша.
type CacheMetrics struct {
	TotalRequests int64   `json:"total_requests"`
	CacheHits     int64   `json:"cache_hits"`
	CacheMisses   int64   `json:"cache_misses"`
	HitRatio      float64 `json:"hit_ratio"`

	AvgLatencyMs float64 `json:"avg_latency_ms"`
	MaxLatencyMs float64 `json:"max_latency_ms"`

	PendingWrites int64 `json:"pending_writes"`

	LastUpdate time.Time `json:"last_update"`
}

// CacheConfig содержит конфигурацию кеша.
type CacheConfig struct {
	RedisURL      string `yaml:"redis_url"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	DefaultTTL time.Duration `yaml:"default_ttl"`

	WriteBehindEnabled  bool          `yaml:"write_behind_enabled"`
	WriteBehindInterval time.Duration `yaml:"write_behind_interval"`

	MaxConnections int `yaml:"max_connections"`
}

// Ошибки кеша
var (
	ErrCacheMiss  = NewCacheError("cache miss")
	ErrInvalidKey = NewCacheError("invalid key")
)

// CacheError представляет ошибку кеша.
type CacheError struct {
	Message string
}

func (e *CacheError) Error() string {
	return e.Message
}

func NewCacheError(message string) *CacheError {
	return &CacheError{Message: message}
}
