// Package testutil provides shared test helpers for the relay.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/johnpaularthur/rundeck-slack-plugin/internal/domain"
)

// TestContext returns a context with a 5-second timeout.
// The context is cancelled when the test completes.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// Millis returns a pointer to an epoch-millisecond timestamp.
func Millis(v int64) *domain.Millis {
	m := domain.Millis(v)
	return &m
}

// FailureRecord builds the canonical failed-run record used across tests:
// one failed node, one succeeded node, a nested job group, and both
// plain and secure options.
func FailureRecord() *domain.ExecutionRecord {
	return &domain.ExecutionRecord{
		Status:              "failed",
		ID:                  "436",
		Project:             "Warehouse",
		Href:                "http://rundeck.local:4440/project/Warehouse/execution/show/436",
		User:                "admin",
		DateStartedUnixtime: Millis(1700000000000),
		DateEndedUnixtime:   Millis(1700000061000),
		Job: &domain.JobRef{
			Name:  "nightly-sync",
			Group: "ops/batch",
			Href:  "http://rundeck.local:4440/job/show/42",
		},
		Context: &domain.Context{
			Job: &domain.JobContext{ServerURL: "http://rundeck.local:4440/"},
			Options: domain.OptionList{
				{Name: "region", Value: "eu-west-1"},
				{Name: "dbPassword", Value: "hunter2"},
			},
			SecureOptions: map[string]string{"dbPassword": "hunter2"},
		},
		Nodes:             &domain.NodeStatus{Total: 2},
		SucceededNodeList: []string{"node2"},
		FailedNodeList:    []string{"node1"},
	}
}
