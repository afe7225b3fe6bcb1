package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Scenario outcomes.
const (
	OutcomeEvaluated  = "evaluated"
	OutcomeConfig     = "config_error"
	OutcomeDegenerate = "degenerate"
	OutcomeError      = "error"
)

// Recorder holds the service's Prometheus collectors.
type Recorder struct {
	scenarios  *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	persons    prometheus.Gauge
	households prometheus.Gauge
	lastUBI    *prometheus.GaugeVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		scenarios: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "funding_scenarios_total",
			Help: "Scenario evaluations by reform level and outcome.",
		}, []string{"level", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "funding_scenario_duration_seconds",
			Help:    "Time to simulate and compare one scenario.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"level"}),
		persons: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "funding_population_persons",
			Help: "Person rows in the loaded snapshot.",
		}),
		households: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "funding_population_households",
			Help: "SPM units in the loaded snapshot.",
		}),
		lastUBI: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "funding_last_ubi_amount",
			Help: "Annual UBI of the most recent evaluated scenario.",
		}, []string{"level"}),
	}
	reg.MustRegister(r.scenarios, r.duration, r.persons, r.households, r.lastUBI)
	return r
}

// ObserveScenario counts one evaluation.
func (r *Recorder) ObserveScenario(level, outcome string, d time.Duration) {
	if level == "" {
		level = "unknown"
	}
	r.scenarios.WithLabelValues(level, outcome).Inc()
	r.duration.WithLabelValues(level).Observe(d.Seconds())
}

func (r *Recorder) SetPopulation(persons, households int) {
	r.persons.Set(float64(persons))
	r.households.Set(float64(households))
}

func (r *Recorder) SetLastUBI(level string, ubi float64) {
	r.lastUBI.WithLabelValues(level).Set(ubi)
}
