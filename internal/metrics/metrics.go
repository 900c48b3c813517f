package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
)

// Store collects credential store write outcomes and hash latency.
type Store struct {
	writes       *prometheus.CounterVec
	hashDuration prometheus.Histogram
}

func NewStore(reg prometheus.Registerer) *Store {
	f := promauto.With(reg)
	return &Store{
		writes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "user_store_writes_total",
				Help: "Total number of credential store writes by operation and result code",
			},
			[]string{"op", "result"},
		),
		hashDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "user_store_hash_duration_seconds",
				Help:    "Time spent computing password hashes",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
		),
	}
}

// ObserveWrite records one write; result is "ok" or the domain error code.
func (m *Store) ObserveWrite(op string, err error) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues(op, result(err)).Inc()
}

func (m *Store) ObserveHash(seconds float64) {
	if m == nil {
		return
	}
	m.hashDuration.Observe(seconds)
}

// Seed collects per-run outcomes of the seeding pipeline.
type Seed struct {
	records  *prometheus.CounterVec
	lastRun  prometheus.Gauge
	duration prometheus.Gauge
}

func NewSeed(reg prometheus.Registerer) *Seed {
	f := promauto.With(reg)
	return &Seed{
		records: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "user_seed_records_total",
				Help: "Synthetic users processed by the seeder, by outcome",
			},
			[]string{"outcome"},
		),
		lastRun: f.NewGauge(prometheus.GaugeOpts{
			Name: "user_seed_last_run_timestamp_seconds",
			Help: "Unix time the last seed run finished",
		}),
		duration: f.NewGauge(prometheus.GaugeOpts{
			Name: "user_seed_last_run_duration_seconds",
			Help: "Wall-clock duration of the last seed run",
		}),
	}
}

// ObserveRecord records one draft; outcome is "created" or the error code.
func (m *Seed) ObserveRecord(err error) {
	if m == nil {
		return
	}
	if err == nil {
		m.records.WithLabelValues("created").Inc()
		return
	}
	m.records.WithLabelValues(domain.CodeOf(err)).Inc()
}

func (m *Seed) ObserveRun(seconds float64) {
	if m == nil {
		return
	}
	m.lastRun.SetToCurrentTime()
	m.duration.Set(seconds)
}

// Push sends everything in g to a Prometheus Pushgateway under job.
func Push(url, job string, g prometheus.Gatherer) error {
	return push.New(url, job).Gatherer(g).Push()
}

func result(err error) string {
	if err == nil {
		return "ok"
	}
	return domain.CodeOf(err)
}
