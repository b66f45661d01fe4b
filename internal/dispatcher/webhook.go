// Package dispatcher performs the single-attempt webhook delivery. There is
// no retry, backoff or queueing here: one call, one POST, one classified
// result.
package dispatcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds a delivery when no timeout is configured, instead
// of relying on host-level socket defaults.
const DefaultTimeout = 30 * time.Second

// Sender posts notification documents to incoming-webhook endpoints.
type Sender struct {
	client  *http.Client
	timeout time.Duration
}

func NewSender(timeout time.Duration) *Sender {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Sender{
		client:  &http.Client{},
		timeout: timeout,
	}
}

// Request is one delivery: the destination and the already-assembled
// document. DeliveryID correlates logs and the outbound request.
type Request struct {
	URL        string
	DeliveryID string
	Document   []byte
}

// Send performs exactly one POST with body "payload={url-encoded document}",
// the wire format incoming webhooks accept, and classifies the outcome.
// The response body is closed on every path.
func (s *Sender) Send(ctx context.Context, req Request) Result {
	start := time.Now()

	u, err := url.Parse(req.URL)
	if err == nil && (!u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https")) {
		err = fmt.Errorf("webhook URL %q: not an absolute http(s) URL", req.URL)
	}
	if err != nil {
		return Result{Outcome: OutcomeConfigError, Err: err, Duration: time.Since(start)}
	}

	form := "payload=" + url.QueryEscape(string(req.Document))

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, strings.NewReader(form))
	if err != nil {
		return Result{Outcome: OutcomeConfigError, Err: fmt.Errorf("create request: %w", err), Duration: time.Since(start)}
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if req.DeliveryID != "" {
		httpReq.Header.Set("X-Delivery-ID", req.DeliveryID)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return Result{Outcome: OutcomeTransportError, Err: fmt.Errorf("send: %w", err), Duration: time.Since(start)}
	}
	defer resp.Body.Close()

	outcome := OutcomeRejected
	switch resp.StatusCode {
	case http.StatusOK:
		outcome = OutcomeDelivered
	case http.StatusNotFound:
		outcome = OutcomeEndpointNotFound
	}
	return Result{Outcome: outcome, StatusCode: resp.StatusCode, Duration: time.Since(start)}
}
