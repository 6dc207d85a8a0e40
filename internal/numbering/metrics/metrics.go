package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the numbering module. Generation is the
// hot path; its duration distribution and the contention rate are the two
// numbers worth alerting on.
type Metrics struct {
	NumbersGenerated  *prometheus.CounterVec
	Reservations      prometheus.Counter
	Contentions       prometheus.Counter
	Collisions        prometheus.Counter
	GenerateDuration  prometheus.Histogram
	SequenceGapsFound prometheus.Counter
}

// New creates a Metrics instance with all numbering module metrics registered.
func New() *Metrics {
	return &Metrics{
		NumbersGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_numbers_generated_total",
			Help: "Total number of document numbers issued, by document type",
		}, []string{"type_code"}),
		Reservations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registrar_numbers_reserved_total",
			Help: "Total number of document numbers reserved ahead of their documents",
		}),
		Contentions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registrar_sequence_contentions_total",
			Help: "Total number of generations rejected because the counter lock wait expired",
		}),
		Collisions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registrar_number_collisions_total",
			Help: "Total number of generations rejected by the full-number uniqueness constraint",
		}),
		GenerateDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "registrar_generate_duration_seconds",
			Help:    "Duration of number generation including counter lock wait",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		SequenceGapsFound: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registrar_sequence_gaps_found_total",
			Help: "Total number of gaps reported by sequence verification",
		}),
	}
}

// IncrementGenerated records a successful generation for a document type.
func (m *Metrics) IncrementGenerated(typeCode string) {
	m.NumbersGenerated.WithLabelValues(typeCode).Inc()
}

// IncrementReservations records a successful reservation.
func (m *Metrics) IncrementReservations() { m.Reservations.Inc() }

// IncrementContentions records a generation lost to counter lock contention.
func (m *Metrics) IncrementContentions() { m.Contentions.Inc() }

// IncrementCollisions records a unique-violation on an issued number.
func (m *Metrics) IncrementCollisions() { m.Collisions.Inc() }

// ObserveGenerate records the duration of a Generate call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveGenerate(start time.Time) {
	m.GenerateDuration.Observe(time.Since(start).Seconds())
}

// AddSequenceGaps records gaps found by a verification walk.
func (m *Metrics) AddSequenceGaps(n int) {
	if n > 0 {
		m.SequenceGapsFound.Add(float64(n))
	}
}
