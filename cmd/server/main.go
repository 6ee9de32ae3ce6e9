package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/annel0/voxel-lighting/internal/cache"
	"github.com/annel0/voxel-lighting/internal/config"
	"github.com/annel0/voxel-lighting/internal/eventbus"
	"github.com/annel0/voxel-lighting/internal/light"
	"github.com/annel0/voxel-lighting/internal/logging"
	"github.com/annel0/voxel-lighting/internal/observability"
	"github.com/annel0/voxel-lighting/internal/storage"
	"github.com/annel0/voxel-lighting/internal/vec"
	"github.com/annel0/voxel-lighting/internal/world"
	_ "github.com/annel0/voxel-lighting/internal/world/block/implementations"
)

func main() {
	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("lighting"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.Info("💡 Запуск сервиса воксельного освещения...")

	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load("")
	if err != nil {
		logging.Error("❌ Ошибка чтения конфигурации: %v", err)
		log.Fatalf("❌ Ошибка чтения конфигурации: %v", err)
	}
	if cfg == nil {
		cfg = &config.Config{}
	}

	seed := cfg.World.GetSeed()
	radius := cfg.World.GetRadius()
	regionBits := cfg.World.GetRegionBits()
	metricsAddr := ":" + strconv.Itoa(cfg.Server.GetMetricsPort())

	logging.Info("📡 Конфигурация: seed=%d, radius=%d чанков, регион=%d чанков, metrics=%s",
		seed, radius, 1<<regionBits, metricsAddr)

	// === ТЕЛЕМЕТРИЯ ===
	ctx := context.Background()
	shutdownTelemetry, err := observability.InitTelemetry(ctx, "voxel-lighting")
	if err != nil {
		logging.Warn("OpenTelemetry недоступен: %v", err)
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	procMon, err := observability.NewProcessMonitor()
	if err != nil {
		logging.Warn("Мониторинг процесса недоступен: %v", err)
	} else {
		procMon.Start(15 * time.Second)
	}

	// === ХРАНИЛИЩЕ ===
	lightStorage, err := storage.NewLightStorage(cfg.Storage.GetDataPath())
	if err != nil {
		logging.Error("❌ Ошибка открытия хранилища освещения: %v", err)
		log.Fatalf("❌ Ошибка открытия хранилища освещения: %v", err)
	}

	// Горячий кеш световых тегов (опционально)
	var lightCache cache.CacheRepo
	if cfg.Cache.RedisURL != "" {
		lightCache, err = cache.NewRedisCache(&cache.CacheConfig{
			RedisURL:           cfg.Cache.RedisURL,
			RedisPassword:      cfg.Cache.RedisPassword,
			RedisDB:            cfg.Cache.RedisDB,
			WriteBehindEnabled: true,
		}, lightStorage)
		if err != nil {
			logging.Warn("Redis недоступен, работаем без горячего кеша: %v", err)
			lightCache = nil
		}
	}

	// === ШИНА СОБЫТИЙ ===
	var bus eventbus.EventBus
	if cfg.EventBus.URL != "" {
		jsBus, err := eventbus.NewJetStreamBus(cfg.EventBus.URL, cfg.EventBus.Stream,
			time.Duration(cfg.EventBus.Retention)*time.Hour)
		if err != nil {
			logging.Warn("NATS недоступен, используем in-memory шину: %v", err)
			bus = eventbus.NewMemoryBus(1024)
		} else {
			defer jsBus.Close()
			bus = jsBus
		}
	} else {
		bus = eventbus.NewMemoryBus(1024)
	}

	busMetrics := eventbus.NewMetricsExporter(bus)
	busMetrics.StartHTTP(metricsAddr)
	busMetrics.Start(10 * time.Second)

	// === МИР И ДВИЖОК ОСВЕЩЕНИЯ ===
	worldManager := world.NewWorldManager()
	engine := light.NewEngine(worldManager, light.Options{
		RegionBits: regionBits,
		Pending:    lightStorage,
		Metrics:    light.NewMetrics(),
		Bus:        bus,
	})
	worldManager.AttachEngine(engine)

	generator := world.NewWorldGenerator(seed)
	scheduler := light.NewScheduler(cfg.World.GetWorkers())

	// Генерируем чанки демо-мира
	logging.Info("🌍 Генерация мира радиусом %d чанков...", radius)
	for cx := -radius; cx <= radius; cx++ {
		for cz := -radius; cz <= radius; cz++ {
			worldManager.AddChunk(generator.GenerateChunk(vec.Vec2{X: cx, Z: cz}))
		}
	}

	// Объявляем регионы загруженными
	regionRadius := radius >> regionBits
	for rx := -regionRadius; rx <= regionRadius; rx++ {
		for rz := -regionRadius; rz <= regionRadius; rz++ {
			engine.OnRegionLoaded(vec.Vec2{X: rx, Z: rz})
		}
	}

	// Теги освещения ходят через горячий кеш, когда он доступен: чтение
	// сквозь Redis с прогревом из BadgerDB, запись через write-behind
	// очередь. Без кеша — напрямую в BadgerDB.
	loadChunkLight := func(ch vec.Vec2) (bool, error) {
		if lightCache != nil {
			data, err := lightCache.Get(ctx, storage.ChunkKey(ch))
			if err == nil {
				return lightStorage.DecodeChunkLight(data, engine.Store())
			}
			// Промах обоих уровней или сбой кеша — читаем напрямую
		}
		return lightStorage.LoadChunkLight(ch, engine.Store())
	}
	saveChunkLight := func(ch vec.Vec2) error {
		if lightCache != nil {
			data, err := lightStorage.EncodeChunkLight(ch, engine.Store(), engine.Bounds())
			if err != nil {
				return err
			}
			return lightCache.Set(ctx, storage.ChunkKey(ch), data, 0)
		}
		return lightStorage.SaveChunkLight(ch, engine.Store(), engine.Bounds())
	}

	// Начальное освещение: сохранённые теги импортируем, остальные чанки
	// освещаем с нуля; работа сериализуется по регионам
	start := time.Now()
	for _, coords := range worldManager.Chunks() {
		ch := coords
		scheduler.Submit(engine.RegionOf(vec.Vec3{X: ch.X << 4, Z: ch.Z << 4}), func() {
			lit, err := loadChunkLight(ch)
			if err != nil {
				logging.Warn("Ошибка загрузки освещения чанка %v: %v", ch, err)
			}
			if lit {
				return
			}
			if err := engine.LightChunk(ch); err != nil {
				logging.Error("Ошибка освещения чанка %v: %v", ch, err)
			}
		})
	}
	scheduler.Drain()
	logging.Info("✅ Начальное освещение завершено за %v (%d задач)",
		time.Since(start), scheduler.Executed())

	if lightCache != nil {
		logging.Info("🔥 Горячий кеш световых тегов активен")
	}
	logging.Info("📈 Метрики Prometheus: http://localhost%s/metrics", metricsAddr)

	// Канал для получения сигналов ОС
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logging.Info("📡 Получен сигнал %v, завершение работы...", sig)

	// === GRACEFUL SHUTDOWN ===
	scheduler.Drain()
	scheduler.Stop()

	logging.Info("💾 Сохранение освещения...")
	for _, coords := range worldManager.Chunks() {
		if err := saveChunkLight(coords); err != nil {
			logging.Error("Ошибка сохранения освещения чанка %v: %v", coords, err)
		}
	}

	busMetrics.Stop()
	if procMon != nil {
		procMon.Stop()
	}
	if lightCache != nil {
		// Close дожимает write-behind очередь в BadgerDB до закрытия базы
		_ = lightCache.Close()
	}
	if err := lightStorage.Close(); err != nil {
		logging.Error("Ошибка закрытия хранилища: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = shutdownTelemetry(shutdownCtx)

	logging.Info("👋 Сервис освещения остановлен")
}
