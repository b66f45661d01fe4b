package dispatcher

import (
	"strings"
	"time"
)

// Outcome classifies one delivery attempt. The host used to get a bare
// boolean; carrying the kind lets callers log and alert per failure class
// without matching on log text.
type Outcome string

const (
	// OutcomeDelivered: the endpoint answered 200.
	OutcomeDelivered Outcome = "delivered"
	// OutcomeEndpointNotFound: 404, which for incoming webhooks means the
	// URL itself is wrong. Permanent misconfiguration, not a blip.
	OutcomeEndpointNotFound Outcome = "endpoint_not_found"
	// OutcomeRejected: any other non-200 response.
	OutcomeRejected Outcome = "rejected"
	// OutcomeConfigError: the webhook URL could not be used at all.
	OutcomeConfigError Outcome = "config_error"
	// OutcomeTransportError: the request never completed (refused, reset,
	// timed out).
	OutcomeTransportError Outcome = "transport_error"
	// OutcomeSuppressed: the circuit breaker is open and the send was
	// skipped. Only produced by the notifier, never by the sender.
	OutcomeSuppressed Outcome = "suppressed"
)

// Result is the outcome of exactly one delivery attempt.
type Result struct {
	Outcome    Outcome
	StatusCode int
	Duration   time.Duration
	Err        error
}

// Delivered reports whether the endpoint accepted the notification.
func (r Result) Delivered() bool {
	return r.Outcome == OutcomeDelivered
}

// Status classes for metrics. Bounded cardinality: raw status codes and
// error strings must never become label values.
const (
	StatusClass2xx             = "2xx"
	StatusClass4xx             = "4xx"
	StatusClass5xx             = "5xx"
	StatusClassTimeout         = "timeout"
	StatusClassConnectionError = "connection_error"
	StatusClassOtherError      = "other_error"
)

// StatusClass maps the result to a metrics status class.
func (r Result) StatusClass() string {
	if r.Err != nil {
		msg := strings.ToLower(r.Err.Error())
		switch {
		case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
			return StatusClassTimeout
		case strings.Contains(msg, "connection refused") ||
			strings.Contains(msg, "no such host") ||
			strings.Contains(msg, "network is unreachable") ||
			strings.Contains(msg, "dial"):
			return StatusClassConnectionError
		default:
			return StatusClassOtherError
		}
	}

	switch {
	case r.StatusCode >= 200 && r.StatusCode < 300:
		return StatusClass2xx
	case r.StatusCode >= 400 && r.StatusCode < 500:
		return StatusClass4xx
	case r.StatusCode >= 500:
		return StatusClass5xx
	default:
		return StatusClassOtherError
	}
}
