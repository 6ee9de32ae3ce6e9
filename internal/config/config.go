package config

import (
	"io/ioutil"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации сервиса освещения.

type Config struct {
	EventBus EventBusConfig `yaml:"eventbus"`
	Storage  StorageConfig  `yaml:"storage"`
	Cache    CacheConfig    `yaml:"cache"`
	World    WorldConfig    `yaml:"world"`
	Server   ServerConfig   `yaml:"server"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"` // пусто — in-memory шина
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

type StorageConfig struct {
	DataPath string `yaml:"data_path"`
}

type CacheConfig struct {
	RedisURL      string `yaml:"redis_url"` // пусто — без горячего кеша
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

type WorldConfig struct {
	Seed       int64 `yaml:"seed"`
	Radius     int   `yaml:"radius_chunks"` // радиус генерации вокруг начала координат
	RegionBits uint  `yaml:"region_bits"`   // регион = 1<<bits чанков по стороне
	Workers    int   `yaml:"workers"`       // воркеры планировщика освещения
}

type ServerConfig struct {
	MetricsPort int `yaml:"metrics_port"`
}

// GetDataPath возвращает путь хранилища с поддержкой fallback значений
func (s *StorageConfig) GetDataPath() string {
	if s.DataPath != "" {
		return s.DataPath
	}
	if envVal := os.Getenv("LIGHT_DATA_PATH"); envVal != "" {
		return envVal
	}
	return "data"
}

// GetSeed возвращает сид мира с приоритетом: config -> env -> default
func (w *WorldConfig) GetSeed() int64 {
	if w.Seed != 0 {
		return w.Seed
	}
	if envVal := os.Getenv("LIGHT_WORLD_SEED"); envVal != "" {
		if seed, err := strconv.ParseInt(envVal, 10, 64); err == nil {
			return seed
		}
	}
	return 1
}

// GetRadius возвращает радиус генерации в чанках
func (w *WorldConfig) GetRadius() int {
	if w.Radius > 0 {
		return w.Radius
	}
	return 4
}

// GetRegionBits возвращает размер региона в битах
func (w *WorldConfig) GetRegionBits() uint {
	if w.RegionBits > 0 {
		return w.RegionBits
	}
	return 2 // регион 4×4 чанка
}

// GetWorkers возвращает число воркеров планировщика (0 — по числу CPU)
func (w *WorldConfig) GetWorkers() int {
	return w.Workers
}

// GetMetricsPort возвращает порт Prometheus с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "LIGHT_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV LIGHT_CONFIG или возвращает nil, nil.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("LIGHT_CONFIG")
		if path == "" {
			return nil, nil // конфиг не задан — использовать дефолты
		}
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
