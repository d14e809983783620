// Package event defines the wire-level event model of the query pipeline:
// the typed fragments a job emits and the payloads they carry. It lives
// outside internal/ so external consumers of pkg/client can name these types
// when reading a stream.
package event

import "encoding/json"

// Kind tags one unit of streamed output. The set is closed except for the
// structured-UI kinds, whose payloads pass through the pipeline as opaque
// JSON.
type Kind string

const (
	KindToolCall  Kind = "tool_call"
	KindText      Kind = "text"
	KindChart     Kind = "chart"
	KindTable     Kind = "table"
	KindCard      Kind = "card"
	KindCitations Kind = "citations"
	KindDone      Kind = "done"
	KindError     Kind = "error"
)

// Terminal reports whether k ends a job's event sequence.
func (k Kind) Terminal() bool { return k == KindDone || k == KindError }

// Structured reports whether k carries an opaque structured-UI payload.
func (k Kind) Structured() bool {
	return k == KindChart || k == KindTable || k == KindCard
}

func (k Kind) Valid() bool {
	switch k {
	case KindToolCall, KindText, KindChart, KindTable, KindCard,
		KindCitations, KindDone, KindError:
		return true
	}
	return false
}

// JobStatus is the lifecycle state of a submitted query.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether s is a final status.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Event is one typed unit of streamed output belonging to a job. Data is the
// kind-specific payload kept as raw JSON so structured-UI payloads are never
// interpreted by the core.
type Event struct {
	Kind Kind            `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type ToolCallPayload struct {
	Tool   string         `json:"tool"`
	Status string         `json:"status"`
	Args   map[string]any `json:"args,omitempty"`
}

// TextPayload carries an incremental content fragment. Fragments are appended
// by consumers, never replaced.
type TextPayload struct {
	Content string `json:"content"`
}

// UIPayload is an opaque structured-UI payload (chart, table or card).
type UIPayload struct {
	Kind Kind            `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Citation resolves one inline numeric marker in the answer text. The marker
// may be streamed before the citation that explains it arrives.
type Citation struct {
	Index   int    `json:"index"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Page    *int   `json:"page,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

type CitationsPayload struct {
	Citations []Citation `json:"citations"`
}

type DonePayload struct {
	Status JobStatus `json:"status"`
}

type ErrorPayload struct {
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func NewToolCall(tool, status string, args map[string]any) Event {
	return newEvent(KindToolCall, ToolCallPayload{Tool: tool, Status: status, Args: args})
}

func NewText(content string) Event {
	return newEvent(KindText, TextPayload{Content: content})
}

// NewUI wraps an already-encoded structured-UI payload. kind must be one of
// the structured kinds.
func NewUI(kind Kind, data json.RawMessage) Event {
	return Event{Kind: kind, Data: data}
}

func NewCitations(citations []Citation) Event {
	return newEvent(KindCitations, CitationsPayload{Citations: citations})
}

func NewDone(status JobStatus) Event {
	return newEvent(KindDone, DonePayload{Status: status})
}

func NewError(message string, retryable bool) Event {
	return newEvent(KindError, ErrorPayload{Message: message, Retryable: retryable})
}

func newEvent(kind Kind, payload any) Event {
	b, _ := json.Marshal(payload)
	return Event{Kind: kind, Data: b}
}

// ToolCall decodes the payload of a tool_call event.
func (e Event) ToolCall() (ToolCallPayload, error) {
	var p ToolCallPayload
	err := json.Unmarshal(e.Data, &p)
	return p, err
}

// Text decodes the payload of a text event.
func (e Event) Text() (TextPayload, error) {
	var p TextPayload
	err := json.Unmarshal(e.Data, &p)
	return p, err
}

// Citations decodes the payload of a citations event.
func (e Event) Citations() (CitationsPayload, error) {
	var p CitationsPayload
	err := json.Unmarshal(e.Data, &p)
	return p, err
}

// Done decodes the payload of a done event.
func (e Event) Done() (DonePayload, error) {
	var p DonePayload
	err := json.Unmarshal(e.Data, &p)
	return p, err
}

// Error decodes the payload of an error event.
func (e Event) Error() (ErrorPayload, error) {
	var p ErrorPayload
	err := json.Unmarshal(e.Data, &p)
	return p, err
}
