// Package heartbeat fires a periodic liveness notification on a cron
// schedule, so a silent webhook channel can be told apart from a dead relay.
package heartbeat

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/johnpaularthur/rundeck-slack-plugin/internal/dispatcher"
)

// Poster sends one heartbeat notification.
type Poster interface {
	Heartbeat(ctx context.Context) dispatcher.Result
}

type MetricsSink interface {
	HeartbeatTick(err error)
}

type Runner struct {
	poster  Poster
	sched   cron.Schedule
	loc     *time.Location
	metrics MetricsSink
}

// New parses a five-field cron expression in the given IANA timezone.
func New(expression, timezone string, poster Poster) (*Runner, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("parse heartbeat cron: %w", err)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	return &Runner{poster: poster, sched: sched, loc: loc}, nil
}

func (r *Runner) WithMetrics(m MetricsSink) *Runner {
	r.metrics = m
	return r
}

// Next returns the next fire time after t.
func (r *Runner) Next(t time.Time) time.Time {
	return r.sched.Next(t.In(r.loc))
}

// Run fires at each schedule boundary until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	for {
		now := time.Now()
		next := r.Next(now)

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			return
		case <-timer.C:
			r.fire(ctx)
		}
	}
}

func (r *Runner) fire(ctx context.Context) {
	res := r.poster.Heartbeat(ctx)

	var err error
	if !res.Delivered() {
		err = res.Err
		if err == nil {
			err = fmt.Errorf("heartbeat outcome %s (status %d)", res.Outcome, res.StatusCode)
		}
		log.Printf("heartbeat: delivery failed: %v", err)
	}
	if r.metrics != nil {
		r.metrics.HeartbeatTick(err)
	}
}
