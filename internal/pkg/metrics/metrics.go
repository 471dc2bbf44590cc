// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder collects storefront business metrics
type Recorder struct {
	checkoutOutcomes *prometheus.CounterVec
	paymentIncidents *prometheus.CounterVec
	storeResolutions *prometheus.CounterVec
}

// NewRecorder creates the collectors and registers them with reg.
// A nil registry leaves the collectors unregistered, which is what tests want.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		checkoutOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "checkout_outcomes_total",
			Help:      "Terminal checkout outcomes by payment path and state.",
		}, []string{"path", "state"}),
		paymentIncidents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "payment_incidents_total",
			Help:      "Payment reconciliation incidents by kind.",
		}, []string{"kind"}),
		storeResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "store_resolutions_total",
			Help:      "Store context resolutions by result.",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(r.checkoutOutcomes, r.paymentIncidents, r.storeResolutions)
	}
	return r
}

// CheckoutOutcome counts a terminal checkout state
func (r *Recorder) CheckoutOutcome(path, state string) {
	if r == nil {
		return
	}
	r.checkoutOutcomes.WithLabelValues(path, state).Inc()
}

// PaymentIncident counts a reconciliation incident
func (r *Recorder) PaymentIncident(kind string) {
	if r == nil {
		return
	}
	r.paymentIncidents.WithLabelValues(kind).Inc()
}

// StoreResolution counts a resolver result: hit, not_found or unavailable
func (r *Recorder) StoreResolution(result string) {
	if r == nil {
		return
	}
	r.storeResolutions.WithLabelValues(result).Inc()
}
