package observability

import (
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/proposer/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "proposer"

// Generation outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds the service collectors.
type Metrics struct {
	gatherer prometheus.Gatherer

	transitions      *prometheus.CounterVec
	validationErrors *prometheus.CounterVec
	generate         *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// Pass a *prometheus.Registry to get an isolated set, as tests do.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "proposal_transitions_total",
				Help:      "Proposal lifecycle transitions, by source and target state.",
			},
			[]string{"from", "to"},
		),
		validationErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_errors_total",
				Help:      "Field errors reported by request and proposal validation, by kind.",
			},
			[]string{"kind"},
		),
		generate: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generate_duration_seconds",
				Help:      "Duration of candidate generation, by strategy and outcome.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"strategy", "outcome"},
		),
	}
	reg.MustRegister(m.transitions, m.validationErrors, m.generate)
	return m
}

// ObserveTransition counts one lifecycle transition.
func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

// ObserveValidation counts the field errors carried by err, one per error,
// labelled with their kind. Errors without field errors are ignored.
func (m *Metrics) ObserveValidation(err error) {
	if m == nil {
		return
	}
	for _, fe := range domain.FieldErrors(err) {
		m.validationErrors.WithLabelValues(KindLabel(fe.Kind)).Inc()
	}
}

// ObserveGenerate records how long a strategy took and whether it succeeded.
func (m *Metrics) ObserveGenerate(strategy string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.generate.WithLabelValues(strategy, outcome).Observe(time.Since(started).Seconds())
}

// Handler serves the registered metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// KindLabel maps an error kind to its metric label.
func KindLabel(kind error) string {
	switch {
	case errors.Is(kind, domain.ErrStructural):
		return "structural"
	case errors.Is(kind, domain.ErrDomainViolation):
		return "domain_violation"
	case errors.Is(kind, domain.ErrIllegalFieldCombination):
		return "illegal_field_combination"
	default:
		return "unknown"
	}
}
