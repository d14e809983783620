package model

import (
	"encoding/json"

	"ai-search-stream/pkg/event"
)

// The wire event model lives in pkg/event so external consumers of
// pkg/client can name its types. The aliases below keep the domain
// packages on their established names.

type EventKind = event.Kind

const (
	EventToolCall  = event.KindToolCall
	EventText      = event.KindText
	EventChart     = event.KindChart
	EventTable     = event.KindTable
	EventCard      = event.KindCard
	EventCitations = event.KindCitations
	EventDone      = event.KindDone
	EventError     = event.KindError
)

type Event = event.Event

type (
	ToolCallPayload  = event.ToolCallPayload
	TextPayload      = event.TextPayload
	UIPayload        = event.UIPayload
	Citation         = event.Citation
	CitationsPayload = event.CitationsPayload
	DonePayload      = event.DonePayload
	ErrorPayload     = event.ErrorPayload
)

func NewToolCallEvent(tool, status string, args map[string]any) Event {
	return event.NewToolCall(tool, status, args)
}

func NewTextEvent(content string) Event {
	return event.NewText(content)
}

// NewUIEvent wraps an already-encoded structured-UI payload. kind must be one
// of the structured kinds.
func NewUIEvent(kind EventKind, data json.RawMessage) Event {
	return event.NewUI(kind, data)
}

func NewCitationsEvent(citations []Citation) Event {
	return event.NewCitations(citations)
}

func NewDoneEvent(status JobStatus) Event {
	return event.NewDone(status)
}

func NewErrorEvent(message string, retryable bool) Event {
	return event.NewError(message, retryable)
}
