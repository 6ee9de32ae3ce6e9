package observability

import (
	"os"
	"runtime"
	"time"

	"github.com/annel0/voxel-lighting/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessMonitor экспортирует ресурсные метрики процесса в Prometheus.
// Пересчёт света — фоновые всплески нагрузки; мониторинг CPU и памяти
// процесса помогает соотносить их с проходами распространения.
type ProcessMonitor struct {
	proc *process.Process
	quit chan struct{}
	done chan struct{}

	cpuPercent prometheus.Gauge
	residentMB prometheus.Gauge
	goroutines prometheus.Gauge
	uptime     prometheus.Gauge

	startTime time.Time
}

// NewProcessMonitor создаёт монитор текущего процесса
func NewProcessMonitor() (*ProcessMonitor, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}

	pm := &ProcessMonitor{
		proc:      proc,
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		startTime: time.Now(),
		cpuPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lighting",
			Subsystem: "process",
			Name:      "cpu_percent",
			Help:      "Загрузка CPU процессом, %.",
		}),
		residentMB: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lighting",
			Subsystem: "process",
			Name:      "resident_memory_mb",
			Help:      "Резидентная память процесса, МБ.",
		}),
		goroutines: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lighting",
			Subsystem: "process",
			Name:      "goroutines",
			Help:      "Число горутин.",
		}),
		uptime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lighting",
			Subsystem: "process",
			Name:      "uptime_seconds",
			Help:      "Время работы процесса, сек.",
		}),
	}

	prometheus.MustRegister(pm.cpuPercent, pm.residentMB, pm.goroutines, pm.uptime)
	return pm, nil
}

// Start запускает периодический сбор метрик
func (pm *ProcessMonitor) Start(interval time.Duration) {
	go func() {
		defer close(pm.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-pm.quit:
				return
			case <-ticker.C:
				pm.collect()
			}
		}
	}()
}

// Stop останавливает сбор метрик
func (pm *ProcessMonitor) Stop() {
	close(pm.quit)
	<-pm.done
}

func (pm *ProcessMonitor) collect() {
	if cpu, err := pm.proc.CPUPercent(); err == nil {
		pm.cpuPercent.Set(cpu)
	} else {
		logging.Trace("Не удалось прочитать CPU процесса: %v", err)
	}

	if mem, err := pm.proc.MemoryInfo(); err == nil {
		pm.residentMB.Set(float64(mem.RSS) / (1024 * 1024))
	}

	pm.goroutines.Set(float64(runtime.NumGoroutine()))
	pm.uptime.Set(time.Since(pm.startTime).Seconds())
}
