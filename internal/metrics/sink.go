package metrics

import "time"

// Sink records operational metrics. All methods are fire-and-forget:
// implementations MUST NOT block or propagate errors. If the metrics
// backend is unavailable, implementations log warnings and continue.
type Sink interface {
	// NotificationSent counts one finished notification call per trigger
	// and outcome.
	NotificationSent(trigger, outcome string)

	// DeliveryCompleted records one webhook round trip. statusClass is one
	// of the dispatcher status classes (2xx, 4xx, 5xx, timeout,
	// connection_error, other_error).
	DeliveryCompleted(statusClass string, duration time.Duration)

	// HeartbeatTick counts a heartbeat fire; err non-nil counts it as failed.
	HeartbeatTick(err error)
}
