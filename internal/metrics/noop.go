package metrics

import "time"

// NoopSink is a no-op implementation of Sink.
// Used when metrics are disabled to avoid nil checks.
type NoopSink struct{}

// NewNoopSink returns a no-op metrics sink.
func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (n *NoopSink) NotificationSent(trigger, outcome string)                   {}
func (n *NoopSink) DeliveryCompleted(statusClass string, duration time.Duration) {}
func (n *NoopSink) HeartbeatTick(err error)                                    {}
