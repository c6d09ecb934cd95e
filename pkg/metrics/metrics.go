package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the prometheus instruments for the loan domain behind its
// own registry.
type Collector struct {
	registry         *prometheus.Registry
	loansCreated     prometheus.Counter
	loansApproved    prometheus.Counter
	loansRejected    prometheus.Counter
	loansDisbursed   prometheus.Counter
	paymentsRecorded prometheus.Counter
	creditScores     prometheus.Histogram
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		loansCreated: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "loans_created_total",
			Help: "Total number of loan applications accepted",
		}),
		loansApproved: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "loans_approved_total",
			Help: "Total number of loans approved",
		}),
		loansRejected: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "loans_rejected_total",
			Help: "Total number of loans rejected",
		}),
		loansDisbursed: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "loans_disbursed_total",
			Help: "Total number of loans disbursed",
		}),
		paymentsRecorded: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "payments_recorded_total",
			Help: "Total number of installments marked paid",
		}),
		creditScores: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "credit_score_distribution",
			Help:    "Distribution of recomputed credit scores",
			Buckets: []float64{300, 400, 500, 550, 650, 750, 850},
		}),
	}
}

func (c *Collector) LoanCreated()     { c.loansCreated.Inc() }
func (c *Collector) LoanApproved()    { c.loansApproved.Inc() }
func (c *Collector) LoanRejected()    { c.loansRejected.Inc() }
func (c *Collector) LoanDisbursed()   { c.loansDisbursed.Inc() }
func (c *Collector) PaymentRecorded() { c.paymentsRecorded.Inc() }

func (c *Collector) ObserveCreditScore(score int) {
	c.creditScores.Observe(float64(score))
}

// Handler exposes the registry for the /metrics route.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
