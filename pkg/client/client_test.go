package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-search-stream/pkg/event"
)

func sseHandler(t *testing.T, events []event.Event) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		// Keep-alive comments must be ignored by the parser.
		fmt.Fprint(w, ": ping\n\n")
		for _, ev := range events {
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, ev.Data)
		}
	}
}

func TestStreamParsesFrames(t *testing.T) {
	events := []event.Event{
		event.NewToolCall("web_search", "Searching...", nil),
		event.NewText("hello"),
		event.NewDone(event.StatusCompleted),
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/queries/j1/stream" {
			http.NotFound(w, r)
			return
		}
		sseHandler(t, events)(w, r)
	}))
	defer ts.Close()

	c := New(ts.URL)
	var got []event.Event
	err := c.Stream(context.Background(), "j1", func(ev event.Event) error {
		got = append(got, ev)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(got) != len(events) {
		t.Fatalf("got %d events, want %d", len(got), len(events))
	}
	for i := range events {
		if got[i].Kind != events[i].Kind || string(got[i].Data) != string(events[i].Data) {
			t.Fatalf("event %d mismatch: %+v", i, got[i])
		}
	}
}

func TestStreamErrsWithoutTerminalEvent(t *testing.T) {
	ts := httptest.NewServer(sseHandler(t, []event.Event{
		event.NewText("cut off"),
	}))
	defer ts.Close()

	c := &Client{baseURL: ts.URL, httpc: ts.Client()}
	err := c.Stream(context.Background(), "j1", func(event.Event) error { return nil })
	if err == nil {
		t.Fatal("expected error when the stream ends before a terminal event")
	}
}

func TestStreamNotFound(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	c := New(ts.URL)
	if err := c.Stream(context.Background(), "nope", func(event.Event) error { return nil }); err == nil {
		t.Fatal("expected error for 404 stream")
	}
}

func TestRunReducesToMessage(t *testing.T) {
	events := []event.Event{
		event.NewToolCall("synthesize_answer", "Generating...", nil),
		event.NewText("Go is a language [1]."),
		event.NewCitations([]event.Citation{{Index: 1, Title: "go.dev", URL: "https://go.dev"}}),
		event.NewDone(event.StatusCompleted),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/queries", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprint(w, `{"id":"j1","status":"queued"}`)
	})
	mux.HandleFunc("GET /api/v1/queries/j1/stream", sseHandler(t, events))
	ts := httptest.NewServer(mux)
	defer ts.Close()

	msg, err := New(ts.URL).Run(context.Background(), "what is go")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !msg.Complete || msg.Err != nil {
		t.Fatalf("message = %+v", msg)
	}
	if msg.Content != "Go is a language [1]." {
		t.Fatalf("Content = %q", msg.Content)
	}
	if msg.Citations[1].URL != "https://go.dev" {
		t.Fatalf("Citations = %+v", msg.Citations)
	}
	if msg.ActiveTool != nil {
		t.Fatal("ActiveTool still set in final message")
	}
}
