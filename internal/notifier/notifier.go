// Package notifier ties the pipeline together: record in, document built,
// one delivery attempt out, outcome observed. It is safe for concurrent
// use; every call is independent and stateless.
package notifier

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/johnpaularthur/rundeck-slack-plugin/internal/dispatcher"
	"github.com/johnpaularthur/rundeck-slack-plugin/internal/domain"
	"github.com/johnpaularthur/rundeck-slack-plugin/internal/message"
)

type Sender interface {
	Send(ctx context.Context, req dispatcher.Request) dispatcher.Result
}

// Breaker guards the endpoint. Optional; nil means every send proceeds.
type Breaker interface {
	Allow(url string) error
	RecordSuccess(url string)
	RecordFailure(url string)
}

// MetricsSink mirrors metrics.Sink; declared here so the notifier depends
// on behavior, not the metrics package.
type MetricsSink interface {
	NotificationSent(trigger, outcome string)
	DeliveryCompleted(statusClass string, duration time.Duration)
}

// AnalyticsSink records per-trigger counters as a best-effort side effect.
type AnalyticsSink interface {
	Record(ctx context.Context, trigger, outcome string, at time.Time) error
}

type Notifier struct {
	url    string
	opts   message.Options
	sender Sender

	breaker   Breaker       // optional, nil = disabled
	metrics   MetricsSink   // optional, nil = disabled
	analytics AnalyticsSink // optional, nil = disabled

	// debug additionally logs the full payload on rejected deliveries.
	debug bool
}

func New(webhookURL string, opts message.Options, sender Sender) *Notifier {
	return &Notifier{
		url:    webhookURL,
		opts:   opts,
		sender: sender,
	}
}

func (n *Notifier) WithBreaker(b Breaker) *Notifier {
	n.breaker = b
	return n
}

func (n *Notifier) WithMetrics(m MetricsSink) *Notifier {
	n.metrics = m
	return n
}

func (n *Notifier) WithAnalytics(a AnalyticsSink) *Notifier {
	n.analytics = a
	return n
}

// WithDebug enables payload logging on rejected deliveries.
func (n *Notifier) WithDebug(debug bool) *Notifier {
	n.debug = debug
	return n
}

// Post is the boolean host contract: true means the endpoint accepted the
// notification, anything else is false. Callers that care why should use
// Notify.
func (n *Notifier) Post(ctx context.Context, trigger domain.Trigger, rec *domain.ExecutionRecord) bool {
	return n.Notify(ctx, trigger, rec).Delivered()
}

// Notify renders rec for the given trigger and makes exactly one delivery
// attempt. It never panics into the caller; every failure comes back as a
// classified Result.
func (n *Notifier) Notify(ctx context.Context, trigger domain.Trigger, rec *domain.ExecutionRecord) dispatcher.Result {
	if rec == nil {
		res := dispatcher.Result{Outcome: dispatcher.OutcomeConfigError, Err: fmt.Errorf("nil execution record")}
		n.observe(ctx, string(trigger), res)
		return res
	}
	payload := message.Build(trigger, rec, n.opts)
	doc, err := payload.Encode()
	if err != nil {
		res := dispatcher.Result{Outcome: dispatcher.OutcomeConfigError, Err: fmt.Errorf("encode payload: %w", err)}
		log.Printf("notifier: encode failed job=%s trigger=%s: %v", jobName(rec), trigger, err)
		n.observe(ctx, string(trigger), res)
		return res
	}
	return n.deliver(ctx, string(trigger), jobName(rec), doc)
}

// Heartbeat sends a minimal liveness message through the same delivery
// path, so operators can tell "no job events" from "relay down".
func (n *Notifier) Heartbeat(ctx context.Context) dispatcher.Result {
	loc := n.opts.Location
	if loc == nil {
		loc = time.Local
	}
	payload := message.Payload{
		Channel:   n.opts.Channel,
		Username:  n.opts.Username,
		IconEmoji: n.opts.IconEmoji,
		Attachments: []message.Attachment{{
			Title: "Notification relay heartbeat",
			Text:  "alive at " + time.Now().In(loc).Format(time.RFC3339),
			Color: message.ColorGood,
		}},
	}
	doc, err := payload.Encode()
	if err != nil {
		res := dispatcher.Result{Outcome: dispatcher.OutcomeConfigError, Err: fmt.Errorf("encode heartbeat: %w", err)}
		n.observe(ctx, "heartbeat", res)
		return res
	}
	return n.deliver(ctx, "heartbeat", "heartbeat", doc)
}

func (n *Notifier) deliver(ctx context.Context, trigger, job string, doc []byte) dispatcher.Result {
	if n.breaker != nil {
		if err := n.breaker.Allow(n.url); err != nil {
			res := dispatcher.Result{Outcome: dispatcher.OutcomeSuppressed, Err: err}
			log.Printf("notifier: suppressed job=%s trigger=%s: %v", job, trigger, err)
			n.observe(ctx, trigger, res)
			return res
		}
	}

	deliveryID := uuid.New().String()
	res := n.sender.Send(ctx, dispatcher.Request{
		URL:        n.url,
		DeliveryID: deliveryID,
		Document:   doc,
	})

	switch res.Outcome {
	case dispatcher.OutcomeDelivered:
		if n.breaker != nil {
			n.breaker.RecordSuccess(n.url)
		}
		log.Printf("notifier: delivered job=%s trigger=%s delivery=%s in %s", job, trigger, deliveryID, res.Duration)

	case dispatcher.OutcomeEndpointNotFound:
		// 404 means the webhook URL itself is wrong. Logged distinctly:
		// this needs an operator, not a retry.
		log.Printf("notifier: invalid webhook URL %s sending job=%s trigger=%s notification", n.url, job, trigger)

	case dispatcher.OutcomeRejected:
		log.Printf("notifier: delivery rejected job=%s trigger=%s status=%d delivery=%s", job, trigger, res.StatusCode, deliveryID)
		if n.debug {
			log.Printf("notifier: rejected payload delivery=%s: %s", deliveryID, doc)
		}
		if n.breaker != nil && res.StatusCode >= 500 {
			n.breaker.RecordFailure(n.url)
		}

	case dispatcher.OutcomeTransportError:
		log.Printf("notifier: transport error job=%s trigger=%s delivery=%s: %v", job, trigger, deliveryID, res.Err)
		if n.breaker != nil {
			n.breaker.RecordFailure(n.url)
		}

	case dispatcher.OutcomeConfigError:
		log.Printf("notifier: configuration error job=%s trigger=%s: %v", job, trigger, res.Err)
	}

	n.observe(ctx, trigger, res)
	return res
}

// observe records metrics and analytics. Both are fire-and-forget; an
// analytics failure is logged and otherwise ignored.
func (n *Notifier) observe(ctx context.Context, trigger string, res dispatcher.Result) {
	if n.metrics != nil {
		n.metrics.NotificationSent(trigger, string(res.Outcome))
		switch res.Outcome {
		case dispatcher.OutcomeDelivered, dispatcher.OutcomeEndpointNotFound,
			dispatcher.OutcomeRejected, dispatcher.OutcomeTransportError:
			n.metrics.DeliveryCompleted(res.StatusClass(), res.Duration)
		}
	}
	if n.analytics != nil {
		if err := n.analytics.Record(ctx, trigger, string(res.Outcome), time.Now()); err != nil {
			log.Printf("notifier: analytics record failed: %v", err)
		}
	}
}

func jobName(rec *domain.ExecutionRecord) string {
	if rec == nil || rec.Job == nil {
		return ""
	}
	return rec.Job.Name
}
