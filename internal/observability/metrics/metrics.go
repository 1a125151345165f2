package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulerMetrics exposes counters/gauges for booking, export and invoice flows.
type SchedulerMetrics struct {
	bookingsTotal  *prometheus.CounterVec
	exportsTotal   *prometheus.CounterVec
	invoicesTotal  *prometheus.CounterVec
	bookedSlots    prometheus.Gauge
	requestLatency *prometheus.HistogramVec
}

func NewSchedulerMetrics(reg prometheus.Registerer) *SchedulerMetrics {
	m := &SchedulerMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rehab",
			Subsystem: "scheduler",
			Name:      "booking_operations_total",
			Help:      "Book and cancel attempts by outcome",
		}, []string{"operation", "outcome"}),
		exportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rehab",
			Subsystem: "scheduler",
			Name:      "exports_total",
			Help:      "Schedule exports by sink and outcome",
		}, []string{"sink", "outcome"}),
		invoicesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rehab",
			Subsystem: "invoices",
			Name:      "operations_total",
			Help:      "Invoice operations by outcome",
		}, []string{"operation", "outcome"}),
		bookedSlots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rehab",
			Subsystem: "scheduler",
			Name:      "booked_slots",
			Help:      "Slots currently holding a booking",
		}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rehab",
			Subsystem: "scheduler",
			Name:      "operation_latency_seconds",
			Help:      "Latency of scheduler operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.exportsTotal, m.invoicesTotal, m.bookedSlots, m.requestLatency)
	return m
}

func (m *SchedulerMetrics) ObserveBooking(operation, outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *SchedulerMetrics) ObserveExport(sink, outcome string) {
	if m == nil {
		return
	}
	m.exportsTotal.WithLabelValues(sink, outcome).Inc()
}

func (m *SchedulerMetrics) ObserveInvoice(operation, outcome string) {
	if m == nil {
		return
	}
	m.invoicesTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *SchedulerMetrics) SetBookedSlots(n int) {
	if m == nil {
		return
	}
	m.bookedSlots.Set(float64(n))
}

func (m *SchedulerMetrics) ObserveLatency(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.requestLatency.WithLabelValues(operation).Observe(seconds)
}
