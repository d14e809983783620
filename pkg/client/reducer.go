package client

import (
	"ai-search-stream/pkg/event"
)

// Message is the renderable state a consumer folds the event stream into.
// Because the stream replays deterministically, reducing the same channel
// twice yields the same Message.
type Message struct {
	// Content is the answer text accumulated so far. It may contain inline
	// numeric markers like [1] that resolve against Citations.
	Content string
	// Citations is keyed by marker index. A marker may appear in Content
	// before its citation arrives; it resolves when the batch lands.
	Citations map[int]event.Citation
	// Payloads are the structured UI blocks in arrival order.
	Payloads []event.UIPayload
	// ActiveTool is the most recent tool_call, cleared as soon as any other
	// event kind arrives. Nil means no tool is running.
	ActiveTool *event.ToolCallPayload
	// Complete is set only by the done event. A stream that ends in error
	// instead sets Err and never completes.
	Complete bool
	Err      *event.ErrorPayload
}

// Reducer folds events into a Message. The zero value is ready to use.
type Reducer struct {
	msg      Message
	terminal bool
}

// Apply folds one event. Events after the terminal one are ignored, as are
// events that fail to decode.
func (r *Reducer) Apply(ev event.Event) {
	if r.terminal {
		return
	}

	if ev.Kind != event.KindToolCall {
		r.msg.ActiveTool = nil
	}

	switch ev.Kind {
	case event.KindToolCall:
		p, err := ev.ToolCall()
		if err != nil {
			return
		}
		r.msg.ActiveTool = &p
	case event.KindText:
		p, err := ev.Text()
		if err != nil {
			return
		}
		r.msg.Content += p.Content
	case event.KindChart, event.KindTable, event.KindCard:
		data := make([]byte, len(ev.Data))
		copy(data, ev.Data)
		r.msg.Payloads = append(r.msg.Payloads, event.UIPayload{Kind: ev.Kind, Data: data})
	case event.KindCitations:
		p, err := ev.Citations()
		if err != nil {
			return
		}
		if r.msg.Citations == nil {
			r.msg.Citations = make(map[int]event.Citation)
		}
		for _, c := range p.Citations {
			r.msg.Citations[c.Index] = c
		}
	case event.KindDone:
		r.msg.Complete = true
		r.terminal = true
	case event.KindError:
		p, err := ev.Error()
		if err != nil {
			p = event.ErrorPayload{Message: "malformed error event"}
		}
		r.msg.Err = &p
		r.terminal = true
	}
}

// Message returns a copy of the current state. Maps and slices are copied so
// the caller can hold the snapshot across further Apply calls.
func (r *Reducer) Message() Message {
	out := r.msg
	if r.msg.Citations != nil {
		out.Citations = make(map[int]event.Citation, len(r.msg.Citations))
		for k, v := range r.msg.Citations {
			out.Citations[k] = v
		}
	}
	if r.msg.Payloads != nil {
		out.Payloads = append([]event.UIPayload(nil), r.msg.Payloads...)
	}
	if r.msg.ActiveTool != nil {
		tool := *r.msg.ActiveTool
		out.ActiveTool = &tool
	}
	if r.msg.Err != nil {
		e := *r.msg.Err
		out.Err = &e
	}
	return out
}
