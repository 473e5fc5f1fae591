package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers the score engine and the recompute path that feeds it.
type Metrics struct {
	CalculationDuration prometheus.Histogram
	CalculationsTotal   *prometheus.CounterVec
	RecomputesTotal     *prometheus.CounterVec
	BatchDuration       prometheus.Histogram
	CacheLookups        *prometheus.CounterVec
	RiskLevelTotal      *prometheus.CounterVec
}

// New creates a new Metrics instance with all scoring metrics registered.
func New() *Metrics {
	return &Metrics{
		CalculationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "talaty_score_calculation_duration_seconds",
			Help:    "Duration of a single read-compute-upsert cycle",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		CalculationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "talaty_score_calculations_total",
			Help: "Score calculations by outcome",
		}, []string{"outcome"}),
		RecomputesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "talaty_score_recomputes_total",
			Help: "Recompute commands by triggering cause and outcome",
		}, []string{"cause", "outcome"}),
		BatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "talaty_score_recalculate_all_duration_seconds",
			Help:    "Duration of a full recalculation batch",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "talaty_score_cache_lookups_total",
			Help: "Score cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
		RiskLevelTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "talaty_score_risk_level_total",
			Help: "Computed scores by resulting risk level",
		}, []string{"risk_level"}),
	}
}

// ObserveCalculation records the duration and outcome of CalculateScore.
func (m *Metrics) ObserveCalculation(start time.Time, err error) {
	m.CalculationDuration.Observe(time.Since(start).Seconds())
	m.CalculationsTotal.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) IncrementRecompute(cause string, err error) {
	m.RecomputesTotal.WithLabelValues(cause, outcome(err)).Inc()
}

func (m *Metrics) ObserveBatch(start time.Time) {
	m.BatchDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementCacheLookup(result string) {
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementRiskLevel(level string) {
	m.RiskLevelTotal.WithLabelValues(level).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
