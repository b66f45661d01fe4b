package message

import "encoding/json"

// Slack attachment colors for the two notification moods.
const (
	ColorGood   = "good"
	ColorDanger = "danger"
)

// Payload is the document posted to the incoming-webhook endpoint.
// Marshaling through encoding/json is what guarantees every interpolated
// string (job names, option values, node names) is escaped correctly.
type Payload struct {
	Channel     string       `json:"channel,omitempty"`
	Username    string       `json:"username,omitempty"`
	IconEmoji   string       `json:"icon_emoji,omitempty"`
	Attachments []Attachment `json:"attachments"`
}

// Attachment is one block of the message: the summary first, then at most
// one failed-nodes and one succeeded-nodes block.
type Attachment struct {
	Fallback string  `json:"fallback,omitempty"`
	Title    string  `json:"title,omitempty"`
	Text     string  `json:"text"`
	Color    string  `json:"color"`
	Fields   []Field `json:"fields,omitempty"`
}

// Field is a short title/value pair rendered in two columns.
type Field struct {
	Title string `json:"title"`
	Value string `json:"value,omitempty"`
	Short bool   `json:"short"`
}

// Encode renders the payload as UTF-8 JSON.
func (p Payload) Encode() ([]byte, error) {
	return json.Marshal(p)
}
