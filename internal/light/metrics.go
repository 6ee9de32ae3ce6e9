package light

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics инкапсулирует Prometheus-метрики движка освещения.
// Все методы безопасны при nil-приёмнике: движок без метрик работает
// без накладных расходов.
type Metrics struct {
	queuePops    *prometheus.CounterVec
	sets         *prometheus.CounterVec
	passes       *prometheus.CounterVec
	passDuration *prometheus.HistogramVec
	deferred     prometheus.Counter
	skippedSets  prometheus.Counter
	sections     *prometheus.GaugeVec
}

// NewMetrics создаёт метрики и регистрирует их в глобальном регистре Prometheus
func NewMetrics() *Metrics {
	m := &Metrics{
		queuePops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lighting",
			Name:      "queue_pops_total",
			Help:      "Число извлечений из очереди распространения.",
		}, []string{"kind"}),
		sets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lighting",
			Name:      "light_sets_total",
			Help:      "Число записей значений света.",
		}, []string{"kind"}),
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lighting",
			Name:      "passes_total",
			Help:      "Число завершённых проходов распространения.",
		}, []string{"kind", "op"}),
		passDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lighting",
			Name:      "pass_duration_seconds",
			Help:      "Длительность прохода распространения до неподвижной точки.",
			Buckets:   []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"kind", "op"}),
		deferred: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lighting",
			Name:      "deferred_updates_total",
			Help:      "Число обновлений, отложенных из-за незагруженных регионов.",
		}),
		skippedSets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lighting",
			Name:      "skipped_sets_total",
			Help:      "Число записей, пропущенных из-за отсутствия данных секции.",
		}),
		sections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "lighting",
			Name:      "sections",
			Help:      "Количество секций с данными освещения по состояниям.",
		}, []string{"state"}),
	}

	prometheus.MustRegister(m.queuePops, m.sets, m.passes, m.passDuration,
		m.deferred, m.skippedSets, m.sections)
	return m
}

func (m *Metrics) incPop(kind Kind) {
	if m == nil {
		return
	}
	m.queuePops.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) incSet(kind Kind) {
	if m == nil {
		return
	}
	m.sets.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) observePass(kind Kind, op string, start time.Time) {
	if m == nil {
		return
	}
	m.passes.WithLabelValues(kind.String(), op).Inc()
	m.passDuration.WithLabelValues(kind.String(), op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) incDeferred() {
	if m == nil {
		return
	}
	m.deferred.Inc()
}

func (m *Metrics) incSkippedSet() {
	if m == nil {
		return
	}
	m.skippedSets.Inc()
}

// UpdateSectionGauges обновляет gauge-метрики состояний секций
func (m *Metrics) UpdateSectionGauges(store *Store) {
	if m == nil {
		return
	}
	m.sections.WithLabelValues(SectionUninitialized.String()).
		Set(float64(store.SectionCount(SectionUninitialized)))
	m.sections.WithLabelValues(SectionInitialized.String()).
		Set(float64(store.SectionCount(SectionInitialized)))
}
