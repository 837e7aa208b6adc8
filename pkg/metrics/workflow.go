package metrics

import "github.com/prometheus/client_golang/prometheus"

// WorkflowMetrics records counters for the request fulfillment pipeline.
type WorkflowMetrics struct {
	requestsCreated    *prometheus.CounterVec
	pledges            prometheus.Counter
	requestsFulfilled  prometheus.Counter
	arrivalAlerts      prometheus.Counter
	certificatesFailed prometheus.Counter
}

// NewWorkflowMetrics registers the workflow metrics on the provided registerer.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	requestsCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "blood_requests_created_total",
		Help: "Blood requests created, by urgency.",
	}, []string{"urgency"})
	pledges := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pledges_total",
		Help: "Donor pledges recorded.",
	})
	requestsFulfilled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blood_requests_fulfilled_total",
		Help: "Blood requests marked fulfilled.",
	})
	arrivalAlerts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arrival_alerts_total",
		Help: "Geofence arrival alerts emitted.",
	})
	certificatesFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "certificates_failed_total",
		Help: "Certificate generation failures swallowed during rewards.",
	})
	reg.MustRegister(requestsCreated, pledges, requestsFulfilled, arrivalAlerts, certificatesFailed)
	return &WorkflowMetrics{
		requestsCreated:    requestsCreated,
		pledges:            pledges,
		requestsFulfilled:  requestsFulfilled,
		arrivalAlerts:      arrivalAlerts,
		certificatesFailed: certificatesFailed,
	}
}

// IncRequestCreated increments the created counter for the given urgency label.
func (w *WorkflowMetrics) IncRequestCreated(emergency bool) {
	if w == nil || w.requestsCreated == nil {
		return
	}
	label := "standard"
	if emergency {
		label = "emergency"
	}
	w.requestsCreated.WithLabelValues(label).Inc()
}

// IncPledge increments the pledge counter.
func (w *WorkflowMetrics) IncPledge() {
	if w == nil || w.pledges == nil {
		return
	}
	w.pledges.Inc()
}

// IncRequestFulfilled increments the fulfilled counter.
func (w *WorkflowMetrics) IncRequestFulfilled() {
	if w == nil || w.requestsFulfilled == nil {
		return
	}
	w.requestsFulfilled.Inc()
}

// IncArrivalAlert increments the arrival alert counter.
func (w *WorkflowMetrics) IncArrivalAlert() {
	if w == nil || w.arrivalAlerts == nil {
		return
	}
	w.arrivalAlerts.Inc()
}

// IncCertificateFailed increments the certificate failure counter.
func (w *WorkflowMetrics) IncCertificateFailed() {
	if w == nil || w.certificatesFailed == nil {
		return
	}
	w.certificatesFailed.Inc()
}
