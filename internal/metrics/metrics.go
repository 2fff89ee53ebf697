package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the generation pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Generation attempts by outcome: "ok", "empty", "failed"
	Generations *prometheus.CounterVec

	// Service calls by round ("primary", "fallback") and result
	ServiceCalls *prometheus.CounterVec

	CandidatesProduced prometheus.Counter
	SanitizerRejects   prometheus.Counter

	// Extension probes downgraded to unknown, by extension
	ProbeDegradations *prometheus.CounterVec

	GenerateLatency prometheus.Histogram
}

// New registers all pipeline metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Generations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "namesmith_generations_total",
			Help: "Total generation requests by outcome",
		}, []string{"outcome"}),

		ServiceCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "namesmith_service_calls_total",
			Help: "Calls to the text-generation service by round and result",
		}, []string{"round", "result"}),

		CandidatesProduced: f.NewCounter(prometheus.CounterOpts{
			Name: "namesmith_candidates_total",
			Help: "Candidates that survived sanitization",
		}),

		SanitizerRejects: f.NewCounter(prometheus.CounterOpts{
			Name: "namesmith_sanitizer_rejects_total",
			Help: "Generated lines rejected by the sanitizer",
		}),

		ProbeDegradations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "namesmith_probe_degradations_total",
			Help: "Domain probes that fell back to unknown, by extension",
		}, []string{"extension"}),

		GenerateLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "namesmith_generate_duration_seconds",
			Help:    "Duration of a full generation including domain probing",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
	}
}

// IncrementGeneration records the outcome of one pipeline run.
func (m *Metrics) IncrementGeneration(outcome string) {
	if m != nil {
		m.Generations.WithLabelValues(outcome).Inc()
	}
}

// IncrementServiceCall records one call to the generation service.
func (m *Metrics) IncrementServiceCall(round, result string) {
	if m != nil {
		m.ServiceCalls.WithLabelValues(round, result).Inc()
	}
}

// AddCandidates records surviving and rejected lines of one round.
func (m *Metrics) AddCandidates(accepted, rejected int) {
	if m != nil {
		m.CandidatesProduced.Add(float64(accepted))
		m.SanitizerRejects.Add(float64(rejected))
	}
}

// IncrementProbeDegradation records a probe that fell back to unknown.
func (m *Metrics) IncrementProbeDegradation(ext string) {
	if m != nil {
		m.ProbeDegradations.WithLabelValues(ext).Inc()
	}
}

// ObserveGenerateLatency records the total generation duration.
func (m *Metrics) ObserveGenerateLatency(d time.Duration) {
	if m != nil {
		m.GenerateLatency.Observe(d.Seconds())
	}
}
