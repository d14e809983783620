package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"ai-search-stream/internal/domain"
	"ai-search-stream/internal/domain/model"
	"ai-search-stream/internal/domain/ports/adapter"
)

// ---- Fakes ----

type fakeSearch struct {
	results []adapter.SearchResult
	err     error
	queries []string
}

func (f *fakeSearch) Search(ctx context.Context, query string, k int) ([]adapter.SearchResult, error) {
	f.queries = append(f.queries, query)
	return f.results, f.err
}

type fakeChat struct {
	deltas []string
	err    error
}

func (f *fakeChat) Stream(ctx context.Context, prompt string, emit func(delta string) error) error {
	for _, d := range f.deltas {
		if err := emit(d); err != nil {
			return err
		}
	}
	return f.err
}

func (f *fakeChat) EstimateTokens(text string) int { return len(text) / 4 }

func runProducer(t *testing.T, p *ResearchProducer, query string) ([]model.Event, error) {
	t.Helper()
	var events []model.Event
	err := p.Run(context.Background(), query, func(ev model.Event) error {
		events = append(events, ev)
		return nil
	})
	return events, err
}

func newTestProducer(search adapter.SearchClient, chat adapter.ChatStreamer) *ResearchProducer {
	logger := zerolog.Nop()
	return NewResearchProducer(search, chat, 3, "test", "test-model", &logger)
}

// ---- Tests ----

func TestResearchProducerOrdering(t *testing.T) {
	search := &fakeSearch{results: []adapter.SearchResult{
		{Title: "Source A", URL: "https://a.example", Snippet: "alpha"},
		{Title: "Source B", URL: "https://b.example", Snippet: "beta"},
	}}
	chat := &fakeChat{deltas: []string{"The answer ", "is blue [1]."}}
	p := newTestProducer(search, chat)

	events, err := runProducer(t, p, "why is the sky blue")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var kinds []model.EventKind
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	want := []model.EventKind{
		model.EventToolCall, // web_search
		model.EventToolCall, // synthesize_answer
		model.EventText,
		model.EventText,
		model.EventCitations,
	}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("event %d = %s, want %s", i, kinds[i], want[i])
		}
	}

	// Citations arrive after the text that references them, numbered from 1
	// in result order.
	cp, err := events[len(events)-1].Citations()
	if err != nil {
		t.Fatalf("Citations: %v", err)
	}
	if len(cp.Citations) != 2 || cp.Citations[0].Index != 1 || cp.Citations[1].URL != "https://b.example" {
		t.Fatalf("citations = %+v", cp.Citations)
	}

	tc, err := events[0].ToolCall()
	if err != nil {
		t.Fatalf("ToolCall: %v", err)
	}
	if tc.Tool != "web_search" {
		t.Fatalf("first tool = %q, want web_search", tc.Tool)
	}
}

func TestResearchProducerSkipsSearchForNonQuestions(t *testing.T) {
	search := &fakeSearch{}
	chat := &fakeChat{deltas: []string{"ok"}}
	p := newTestProducer(search, chat)

	events, err := runProducer(t, p, "summarize quantum computing")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(search.queries) != 0 {
		t.Fatalf("search invoked %d times for a non-question", len(search.queries))
	}
	// Only the synthesis tool call, no citations.
	if events[0].Kind != model.EventToolCall {
		t.Fatalf("first event = %s", events[0].Kind)
	}
	for _, ev := range events {
		if ev.Kind == model.EventCitations {
			t.Fatal("citations emitted without search results")
		}
	}
}

func TestResearchProducerSearchFailureIsBestEffort(t *testing.T) {
	search := &fakeSearch{err: errors.New("brave down")}
	chat := &fakeChat{deltas: []string{"answer without context"}}
	p := newTestProducer(search, chat)

	events, err := runProducer(t, p, "what is the latest go release")
	if err != nil {
		t.Fatalf("Run should tolerate a search failure, got %v", err)
	}
	sawText := false
	for _, ev := range events {
		if ev.Kind == model.EventText {
			sawText = true
		}
		if ev.Kind == model.EventCitations {
			t.Fatal("citations emitted despite failed search")
		}
	}
	if !sawText {
		t.Fatal("no answer text after search failure")
	}
}

func TestResearchProducerChatFailureIsRetryable(t *testing.T) {
	chat := &fakeChat{deltas: []string{"partial "}, err: errors.New("rate limited")}
	p := newTestProducer(nil, chat)

	events, err := runProducer(t, p, "anything")
	if err == nil {
		t.Fatal("expected error from failed chat stream")
	}
	if !domain.IsRetryable(err) {
		t.Fatalf("chat failure not retryable: %v", err)
	}
	// Partial text was still emitted before the failure.
	last := events[len(events)-1]
	if last.Kind != model.EventText {
		t.Fatalf("last event = %s, want text", last.Kind)
	}
}

func TestShouldSearch(t *testing.T) {
	cases := []struct {
		query string
		want  bool
	}{
		{"what is Go", true},
		{"How does SSE work", true},
		{"latest kubernetes news", true},
		{"summarize this paragraph", false},
		{"translate hello to french", false},
	}
	for _, c := range cases {
		if got := shouldSearch(c.query); got != c.want {
			t.Errorf("shouldSearch(%q) = %v, want %v", c.query, got, c.want)
		}
	}
}
