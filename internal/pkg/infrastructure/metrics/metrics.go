package metrics

import (
	"time"

	"github.com/iot-for-tillgenglighet/iot-telemetry-fixtures/internal/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "telemetry_fixtures"

//Metrics counts what generation runs produce
type Metrics struct {
	readings  *prometheus.CounterVec
	sensors   *prometheus.CounterVec
	anomalies *prometheus.CounterVec
	runs      prometheus.Counter
	duration  prometheus.Histogram
}

//New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_generated_total",
			Help:      "Sensor readings generated, by dataset class.",
		}, []string{"dataset"}),
		sensors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensors_generated_total",
			Help:      "Sensor series generated, by dataset class and final status.",
		}, []string{"dataset", "status"}),
		anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anomalies_injected_total",
			Help:      "Sensor series that received an anomaly profile, by category.",
		}, []string{"category"}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed generation runs.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a generation run.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}

	reg.MustRegister(m.readings, m.sensors, m.anomalies, m.runs, m.duration)

	return m
}

//SensorGenerated records a finished sensor series
func (m *Metrics) SensorGenerated(dataset models.Dataset, status models.Status, readings int) {
	m.sensors.WithLabelValues(string(dataset), string(status)).Inc()
	m.readings.WithLabelValues(string(dataset)).Add(float64(readings))
}

//AnomalyInjected records a sensor bound to an anomaly profile
func (m *Metrics) AnomalyInjected(category string) {
	m.anomalies.WithLabelValues(category).Inc()
}

//RunCompleted records the duration of a finished run
func (m *Metrics) RunCompleted(d time.Duration) {
	m.runs.Inc()
	m.duration.Observe(d.Seconds())
}
