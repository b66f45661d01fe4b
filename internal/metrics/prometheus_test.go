package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusSink_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewPrometheusSink(reg)

	sink.NotificationSent("failure", "delivered")
	sink.NotificationSent("failure", "delivered")
	sink.NotificationSent("success", "rejected")

	got := testutil.ToFloat64(sink.notificationsTotal.WithLabelValues("failure", "delivered"))
	if got != 2 {
		t.Errorf("notifications{failure,delivered} = %v, want 2", got)
	}
	got = testutil.ToFloat64(sink.notificationsTotal.WithLabelValues("success", "rejected"))
	if got != 1 {
		t.Errorf("notifications{success,rejected} = %v, want 1", got)
	}
}

func TestPrometheusSink_Deliveries(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewPrometheusSink(reg)

	sink.DeliveryCompleted("2xx", 120*time.Millisecond)
	sink.DeliveryCompleted("5xx", 80*time.Millisecond)
	sink.DeliveryCompleted("2xx", 200*time.Millisecond)

	if got := testutil.ToFloat64(sink.deliveriesTotal.WithLabelValues("2xx")); got != 2 {
		t.Errorf("deliveries{2xx} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(sink.deliveriesTotal.WithLabelValues("5xx")); got != 1 {
		t.Errorf("deliveries{5xx} = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(sink.deliveryDuration); got != 1 {
		t.Errorf("histogram series = %d, want 1", got)
	}
}

func TestPrometheusSink_Heartbeats(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewPrometheusSink(reg)

	sink.HeartbeatTick(nil)
	sink.HeartbeatTick(errors.New("send failed"))
	sink.HeartbeatTick(nil)

	if got := testutil.ToFloat64(sink.heartbeatsTotal); got != 3 {
		t.Errorf("heartbeats = %v, want 3", got)
	}
	if got := testutil.ToFloat64(sink.heartbeatErrorsTotal); got != 1 {
		t.Errorf("heartbeat errors = %v, want 1", got)
	}
}

func TestPrometheusSink_DuplicateRegistrationDoesNotPanic(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheusSink(reg)

	// Second sink on the same registry collides on every collector; it must
	// log and keep going, not panic.
	sink := NewPrometheusSink(reg)
	sink.NotificationSent("failure", "delivered")
	sink.DeliveryCompleted("2xx", time.Millisecond)
	sink.HeartbeatTick(nil)
}

func TestNoopSink(t *testing.T) {
	var sink Sink = NewNoopSink()

	sink.NotificationSent("failure", "delivered")
	sink.DeliveryCompleted("2xx", time.Second)
	sink.HeartbeatTick(errors.New("ignored"))
}
