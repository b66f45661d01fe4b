package metrics

import (
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink implements Sink using the Prometheus client library.
// All methods are non-blocking and fire-and-forget. Registration errors are
// logged but never propagated, so a collector collision cannot stop
// notifications.
type PrometheusSink struct {
	notificationsTotal *prometheus.CounterVec
	deliveryDuration   prometheus.Histogram
	deliveriesTotal    *prometheus.CounterVec

	heartbeatsTotal      prometheus.Counter
	heartbeatErrorsTotal prometheus.Counter
}

// NewPrometheusSink creates a new Prometheus metrics sink registered on reg.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{}

	s.notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "slackrelay_notifications_total",
		Help: "Total number of notification calls per trigger and outcome.",
	}, []string{"trigger", "outcome"})

	s.deliveryDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "slackrelay_delivery_duration_seconds",
		Help:    "Webhook request latency in seconds.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	s.deliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "slackrelay_deliveries_total",
		Help: "Total number of webhook round trips per status class.",
	}, []string{"status_class"})

	s.heartbeatsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "slackrelay_heartbeats_total",
		Help: "Total number of heartbeat fires.",
	})
	s.heartbeatErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "slackrelay_heartbeat_errors_total",
		Help: "Total number of heartbeat fires that failed to deliver.",
	})

	s.register(reg, s.notificationsTotal, "slackrelay_notifications_total")
	s.register(reg, s.deliveryDuration, "slackrelay_delivery_duration_seconds")
	s.register(reg, s.deliveriesTotal, "slackrelay_deliveries_total")
	s.register(reg, s.heartbeatsTotal, "slackrelay_heartbeats_total")
	s.register(reg, s.heartbeatErrorsTotal, "slackrelay_heartbeat_errors_total")
	return s
}

// register attempts to register a collector, logging any errors without propagating them.
func (s *PrometheusSink) register(reg prometheus.Registerer, c prometheus.Collector, name string) {
	if err := reg.Register(c); err != nil {
		log.Printf("metrics: failed to register %s: %v", name, err)
	}
}

func (s *PrometheusSink) NotificationSent(trigger, outcome string) {
	s.notificationsTotal.WithLabelValues(trigger, outcome).Inc()
}

func (s *PrometheusSink) DeliveryCompleted(statusClass string, duration time.Duration) {
	s.deliveriesTotal.WithLabelValues(statusClass).Inc()
	s.deliveryDuration.Observe(duration.Seconds())
}

func (s *PrometheusSink) HeartbeatTick(err error) {
	s.heartbeatsTotal.Inc()
	if err != nil {
		s.heartbeatErrorsTotal.Inc()
	}
}
