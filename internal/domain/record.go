package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ExecutionRecord is one job run as reported by the orchestration host.
// It is decoded once at the boundary and treated as read-only afterwards;
// optional sub-structures stay nil when the host omitted them, and the
// formatter keys its section suppression off those nils.
type ExecutionRecord struct {
	Status  string  `json:"status"`
	ID      FlexID  `json:"id"`
	Project string  `json:"project"`
	Href    string  `json:"href"`
	User    string  `json:"user"`
	// AbortedBy is set when an operator killed the run.
	AbortedBy string `json:"abortedby"`

	DateStartedUnixtime *Millis `json:"dateStartedUnixtime"`
	DateEndedUnixtime   *Millis `json:"dateEndedUnixtime"`

	Job     *JobRef     `json:"job"`
	Context *Context    `json:"context"`
	Nodes   *NodeStatus `json:"nodestatus"`

	SucceededNodeList []string `json:"succeededNodeList"`
	FailedNodeList    []string `json:"failedNodeList"`
}

// JobRef identifies the job definition behind a run.
type JobRef struct {
	Name string `json:"name"`
	// Group is a slash-delimited hierarchy path, possibly empty.
	Group string `json:"group"`
	Href  string `json:"href"`
}

// Context carries the host-side execution context. Option order matters for
// rendering, so Options preserves the wire order of the "option" object.
type Context struct {
	Job *JobContext `json:"job"`
	// Options are the job options in document order.
	Options OptionList `json:"option"`
	// SecureOptions marks option names whose values must never be shown.
	// Only key membership matters; the values here are ignored.
	SecureOptions map[string]string `json:"secureOption"`
}

type JobContext struct {
	ServerURL string `json:"serverUrl"`
}

type NodeStatus struct {
	Total int `json:"total"`
}

// Option is a single job option.
type Option struct {
	Name  string
	Value string
}

// OptionList preserves the order options appear in the host JSON. A plain
// map would randomize field order in the rendered message.
type OptionList []Option

func (l *OptionList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*l = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("option: expected object, got %v", tok)
	}

	var opts OptionList
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("option: non-string key %v", keyTok)
		}
		var value FlexID
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("option %q: %w", key, err)
		}
		opts = append(opts, Option{Name: key, Value: string(value)})
	}

	*l = opts
	return nil
}

func (l OptionList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, opt := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(opt.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(opt.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the named option value and whether it exists.
func (l OptionList) Get(name string) (string, bool) {
	for _, opt := range l {
		if opt.Name == name {
			return opt.Value, true
		}
	}
	return "", false
}

// SecureOption reports whether the named option is marked secure.
func (c *Context) SecureOption(name string) bool {
	if c == nil {
		return false
	}
	_, ok := c.SecureOptions[name]
	return ok
}

// FlexID is a string that also accepts JSON numbers. Hosts are inconsistent
// about whether execution ids (and option values) arrive as strings.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	// Numbers and booleans keep their literal form.
	*f = FlexID(string(bytes.TrimSpace(data)))
	return nil
}

// Millis is an epoch-millisecond timestamp. Accepts number or string form.
type Millis int64

func (m *Millis) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	s := string(data)
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("unixtime: %w", err)
	}
	*m = Millis(v)
	return nil
}

// Normalize repairs the handful of inconsistencies hosts produce, once,
// so the formatter never has to re-check them:
//   - a negative node total counts as zero
//   - an end time earlier than the start time is dropped (the duration
//     suffix is suppressed rather than rendering a negative span)
func (r *ExecutionRecord) Normalize() {
	if r.Nodes != nil && r.Nodes.Total < 0 {
		r.Nodes.Total = 0
	}
	if r.DateStartedUnixtime != nil && r.DateEndedUnixtime != nil &&
		*r.DateEndedUnixtime < *r.DateStartedUnixtime {
		r.DateEndedUnixtime = nil
	}
}

// DecodeRecord parses a host-supplied execution record and normalizes it.
func DecodeRecord(data []byte) (*ExecutionRecord, error) {
	var rec ExecutionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode execution record: %w", err)
	}
	rec.Normalize()
	return &rec, nil
}
