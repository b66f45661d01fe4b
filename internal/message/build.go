// Package message turns an execution record into a Slack webhook payload.
// The builders are pure: the same record and options always produce the
// same document, and nothing here touches the network.
package message

import (
	"fmt"
	"time"

	"github.com/johnpaularthur/rundeck-slack-plugin/internal/domain"
)

// redactedValue replaces every secure option value, whatever it was.
const redactedValue = "***********"

// Options are the per-instance rendering overrides. Zero values mean "use
// the webhook's defaults".
type Options struct {
	Channel         string
	Username        string
	IconEmoji       string
	EnvironmentName string

	// Location controls timestamp rendering; nil means host-local time.
	Location *time.Location
}

// ColorFor maps a trigger to the attachment color: start and success are
// good, everything else (failure, aborted, timedout, unknown) is danger.
func ColorFor(trigger domain.Trigger) string {
	if trigger == domain.TriggerSuccess || trigger == domain.TriggerStart {
		return ColorGood
	}
	return ColorDanger
}

// Build assembles the full notification document for one trigger event.
func Build(trigger domain.Trigger, rec *domain.ExecutionRecord, opts Options) Payload {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	color := ColorFor(trigger)

	summary := Attachment{
		Title:  buildTitle(rec),
		Text:   buildText(rec, loc),
		Color:  color,
		Fields: buildOptionFields(rec),
	}

	payload := Payload{
		Channel:     opts.Channel,
		Username:    opts.Username,
		IconEmoji:   opts.IconEmoji,
		Attachments: []Attachment{summary},
	}

	total := 0
	if rec.Nodes != nil {
		total = rec.Nodes.Total
	}
	if att, ok := buildNodeAttachment(rec.FailedNodeList, total, "Failed nodes", color, opts.EnvironmentName); ok {
		payload.Attachments = append(payload.Attachments, att)
	}
	if att, ok := buildNodeAttachment(rec.SucceededNodeList, total, "Succeeded nodes", color, opts.EnvironmentName); ok {
		payload.Attachments = append(payload.Attachments, att)
	}
	return payload
}

// buildOptionFields renders one field per job option in record order.
// Secure option values are replaced by the redaction marker regardless of
// the value the host supplied.
func buildOptionFields(rec *domain.ExecutionRecord) []Field {
	if rec.Context == nil || len(rec.Context.Options) == 0 {
		return nil
	}
	fields := make([]Field, 0, len(rec.Context.Options))
	for _, opt := range rec.Context.Options {
		value := opt.Value
		if rec.Context.SecureOption(opt.Name) {
			value = redactedValue
		}
		fields = append(fields, Field{Title: opt.Name, Value: value, Short: true})
	}
	return fields
}

// buildNodeAttachment renders the failed- or succeeded-nodes block. The
// block is omitted entirely unless the list is non-empty and the record
// reports a positive node total.
func buildNodeAttachment(nodes []string, total int, label, color, envName string) (Attachment, bool) {
	if len(nodes) == 0 || total <= 0 {
		return Attachment{}, false
	}
	fields := make([]Field, 0, len(nodes))
	for _, node := range nodes {
		fields = append(fields, Field{
			Title: fmt.Sprintf("%s(%s)", node, envName),
			Short: true,
		})
	}
	return Attachment{
		Fallback: label + " list",
		Text:     label + ":",
		Color:    color,
		Fields:   fields,
	}, true
}
