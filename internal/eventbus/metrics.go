package eventbus

import (
	"net/http"
	"time"

	"github.com/annel0/voxel-lighting/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsExporter инкапсулирует Prometheus-метрики шины событий и
// периодически обновляет их. Экспортер не делает предположений о
// конкретной реализации шины — он опирается исключительно на интерфейс
// EventBus.
type MetricsExporter struct {
	bus  EventBus
	quit chan struct{}
	done chan struct{}
	// Prometheus metrics
	published prometheus.Counter
	consumed  prometheus.Counter
	dropped   prometheus.Counter
	inflight  prometheus.Gauge
}

// NewMetricsExporter создаёт экспортер, но не запускает HTTP-сервер.
func NewMetricsExporter(bus EventBus) *MetricsExporter {
	me := &MetricsExporter{
		bus:  bus,
		quit: make(chan struct{}),
		done: make(chan struct{}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "light_bus",
			Name:      "messages_published_total",
			Help:      "Общее число опубликованных событий освещения.",
		}),
		consumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "light_bus",
			Name:      "messages_consumed_total",
			Help:      "Общее число доставленных событий подписчикам.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "light_bus",
			Name:      "messages_dropped_total",
			Help:      "Событий, отброшенных из-за back-pressure.",
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "light_bus",
			Name:      "messages_inflight",
			Help:      "Количество событий в очереди (не доставленных).",
		}),
	}

	prometheus.MustRegister(me.published, me.consumed, me.dropped, me.inflight)
	return me
}

// StartHTTP запускает HTTP-эндпоинт Prometheus на указанном адресе
// (например, ":2112"). Метод неблокирующий: HTTP-сервер стартует в
// отдельной горутине.
func (m *MetricsExporter) StartHTTP(addr string) {
	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(addr, nil); err != nil {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
}

// Start запускает периодическое обновление метрик из шины.
func (m *MetricsExporter) Start(interval time.Duration) {
	go func() {
		defer close(m.done)

		var last Stats
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-m.quit:
				return
			case <-ticker.C:
				st := m.bus.Metrics()
				m.published.Add(float64(st.Published - last.Published))
				m.consumed.Add(float64(st.Consumed - last.Consumed))
				m.dropped.Add(float64(st.Dropped - last.Dropped))
				m.inflight.Set(float64(st.InFlight))
				last = st
			}
		}
	}()
}

// Stop останавливает обновление метрик.
func (m *MetricsExporter) Stop() {
	close(m.quit)
	<-m.done
}
