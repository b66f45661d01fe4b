package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/johnpaularthur/rundeck-slack-plugin/internal/dispatcher"
	"github.com/johnpaularthur/rundeck-slack-plugin/internal/domain"
	"github.com/johnpaularthur/rundeck-slack-plugin/internal/message"
	"github.com/johnpaularthur/rundeck-slack-plugin/internal/testutil"
)

type fakeSender struct {
	result dispatcher.Result
	calls  []dispatcher.Request
}

func (f *fakeSender) Send(_ context.Context, req dispatcher.Request) dispatcher.Result {
	f.calls = append(f.calls, req)
	return f.result
}

type fakeBreaker struct {
	allowErr  error
	successes int
	failures  int
}

func (f *fakeBreaker) Allow(string) error    { return f.allowErr }
func (f *fakeBreaker) RecordSuccess(string)  { f.successes++ }
func (f *fakeBreaker) RecordFailure(string)  { f.failures++ }

type fakeMetrics struct {
	sent       []string // "trigger/outcome"
	deliveries []string // status classes
}

func (f *fakeMetrics) NotificationSent(trigger, outcome string) {
	f.sent = append(f.sent, trigger+"/"+outcome)
}

func (f *fakeMetrics) DeliveryCompleted(statusClass string, _ time.Duration) {
	f.deliveries = append(f.deliveries, statusClass)
}

type fakeAnalytics struct {
	records []string
	err     error
}

func (f *fakeAnalytics) Record(_ context.Context, trigger, outcome string, _ time.Time) error {
	f.records = append(f.records, trigger+"/"+outcome)
	return f.err
}

func TestNotify_Delivered(t *testing.T) {
	ctx := testutil.TestContext(t)
	sender := &fakeSender{result: dispatcher.Result{Outcome: dispatcher.OutcomeDelivered, StatusCode: 200}}
	breaker := &fakeBreaker{}
	metrics := &fakeMetrics{}

	n := New("https://hooks.example.com/T000/B000", message.Options{Location: time.UTC}, sender).
		WithBreaker(breaker).
		WithMetrics(metrics)

	res := n.Notify(ctx, domain.TriggerSuccess, testutil.FailureRecord())

	if !res.Delivered() {
		t.Fatalf("result = %+v, want delivered", res)
	}
	if len(sender.calls) != 1 {
		t.Fatalf("sends = %d, want 1", len(sender.calls))
	}
	req := sender.calls[0]
	if req.URL != "https://hooks.example.com/T000/B000" {
		t.Errorf("url = %q", req.URL)
	}
	if req.DeliveryID == "" {
		t.Error("delivery id must be assigned")
	}
	if len(req.Document) == 0 || req.Document[0] != '{' {
		t.Errorf("document = %q, want a JSON object", req.Document)
	}
	if breaker.successes != 1 || breaker.failures != 0 {
		t.Errorf("breaker recorded %d successes, %d failures", breaker.successes, breaker.failures)
	}
	if len(metrics.sent) != 1 || metrics.sent[0] != "success/delivered" {
		t.Errorf("notification metric = %v", metrics.sent)
	}
	if len(metrics.deliveries) != 1 || metrics.deliveries[0] != dispatcher.StatusClass2xx {
		t.Errorf("delivery metric = %v", metrics.deliveries)
	}
}

func TestPost_BooleanContract(t *testing.T) {
	ctx := testutil.TestContext(t)
	rec := testutil.FailureRecord()

	tests := []struct {
		name   string
		result dispatcher.Result
		want   bool
	}{
		{"delivered", dispatcher.Result{Outcome: dispatcher.OutcomeDelivered, StatusCode: 200}, true},
		{"not found", dispatcher.Result{Outcome: dispatcher.OutcomeEndpointNotFound, StatusCode: 404}, false},
		{"rejected", dispatcher.Result{Outcome: dispatcher.OutcomeRejected, StatusCode: 500}, false},
		{"transport", dispatcher.Result{Outcome: dispatcher.OutcomeTransportError, Err: errors.New("boom")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New("https://hooks.example.com/x", message.Options{}, &fakeSender{result: tt.result})
			if got := n.Post(ctx, domain.TriggerFailure, rec); got != tt.want {
				t.Errorf("Post = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNotify_NilRecordIsConfigError(t *testing.T) {
	ctx := testutil.TestContext(t)
	sender := &fakeSender{}
	n := New("https://hooks.example.com/x", message.Options{}, sender)

	res := n.Notify(ctx, domain.TriggerFailure, nil)
	if res.Outcome != dispatcher.OutcomeConfigError {
		t.Errorf("outcome = %q, want config_error", res.Outcome)
	}
	if len(sender.calls) != 0 {
		t.Error("nil record must never reach the sender")
	}
}

func TestNotify_BreakerTripsOnTransportAnd5xxOnly(t *testing.T) {
	ctx := testutil.TestContext(t)
	rec := testutil.FailureRecord()

	tests := []struct {
		name         string
		result       dispatcher.Result
		wantFailures int
	}{
		{"transport error trips", dispatcher.Result{Outcome: dispatcher.OutcomeTransportError, Err: errors.New("refused")}, 1},
		{"5xx trips", dispatcher.Result{Outcome: dispatcher.OutcomeRejected, StatusCode: 503}, 1},
		{"4xx does not trip", dispatcher.Result{Outcome: dispatcher.OutcomeRejected, StatusCode: 400}, 0},
		{"404 does not trip", dispatcher.Result{Outcome: dispatcher.OutcomeEndpointNotFound, StatusCode: 404}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breaker := &fakeBreaker{}
			n := New("https://hooks.example.com/x", message.Options{}, &fakeSender{result: tt.result}).
				WithBreaker(breaker)

			n.Notify(ctx, domain.TriggerFailure, rec)
			if breaker.failures != tt.wantFailures {
				t.Errorf("failures = %d, want %d", breaker.failures, tt.wantFailures)
			}
			if breaker.successes != 0 {
				t.Errorf("successes = %d, want 0", breaker.successes)
			}
		})
	}
}

func TestNotify_OpenBreakerSuppresses(t *testing.T) {
	ctx := testutil.TestContext(t)
	sender := &fakeSender{result: dispatcher.Result{Outcome: dispatcher.OutcomeDelivered}}
	breaker := &fakeBreaker{allowErr: errors.New("circuit open")}
	metrics := &fakeMetrics{}

	n := New("https://hooks.example.com/x", message.Options{}, sender).
		WithBreaker(breaker).
		WithMetrics(metrics)

	res := n.Notify(ctx, domain.TriggerFailure, testutil.FailureRecord())
	if res.Outcome != dispatcher.OutcomeSuppressed {
		t.Fatalf("outcome = %q, want suppressed", res.Outcome)
	}
	if len(sender.calls) != 0 {
		t.Error("suppressed delivery must not hit the sender")
	}
	if len(metrics.sent) != 1 || metrics.sent[0] != "failure/suppressed" {
		t.Errorf("notification metric = %v", metrics.sent)
	}
	// No round trip happened, so no delivery duration either.
	if len(metrics.deliveries) != 0 {
		t.Errorf("delivery metrics = %v, want none", metrics.deliveries)
	}
}

func TestNotify_AnalyticsErrorDoesNotAffectResult(t *testing.T) {
	ctx := testutil.TestContext(t)
	analytics := &fakeAnalytics{err: errors.New("redis down")}

	n := New("https://hooks.example.com/x", message.Options{},
		&fakeSender{result: dispatcher.Result{Outcome: dispatcher.OutcomeDelivered, StatusCode: 200}}).
		WithAnalytics(analytics)

	res := n.Notify(ctx, domain.TriggerSuccess, testutil.FailureRecord())
	if !res.Delivered() {
		t.Errorf("analytics failure leaked into the result: %+v", res)
	}
	if len(analytics.records) != 1 || analytics.records[0] != "success/delivered" {
		t.Errorf("analytics records = %v", analytics.records)
	}
}

func TestHeartbeat(t *testing.T) {
	ctx := testutil.TestContext(t)
	sender := &fakeSender{result: dispatcher.Result{Outcome: dispatcher.OutcomeDelivered, StatusCode: 200}}
	metrics := &fakeMetrics{}

	n := New("https://hooks.example.com/x", message.Options{Location: time.UTC}, sender).
		WithMetrics(metrics)

	res := n.Heartbeat(ctx)
	if !res.Delivered() {
		t.Fatalf("heartbeat result = %+v", res)
	}
	if len(sender.calls) != 1 {
		t.Fatalf("sends = %d, want 1", len(sender.calls))
	}
	if len(metrics.sent) != 1 || metrics.sent[0] != "heartbeat/delivered" {
		t.Errorf("heartbeat metric = %v", metrics.sent)
	}
}
