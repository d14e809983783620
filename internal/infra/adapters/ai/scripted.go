package ai

import (
	"context"
	"fmt"
	"time"

	"ai-search-stream/internal/domain/model"
	"ai-search-stream/internal/domain/ports/adapter"
)

var _ adapter.Producer = (*ScriptedProducer)(nil)

// ScriptedProducer replays a canned event sequence for a query. It exists so
// the full pipeline can be exercised without any provider credentials: demos,
// local development and end-to-end tests.
type ScriptedProducer struct {
	// Delay between emitted events. Zero means no pacing, which is what
	// tests want.
	Delay time.Duration
}

func NewScriptedProducer(delay time.Duration) *ScriptedProducer {
	return &ScriptedProducer{Delay: delay}
}

func (s *ScriptedProducer) Run(ctx context.Context, query string, emit adapter.EmitFunc) error {
	chunks := []string{
		fmt.Sprintf("Here is what I found about %q. ", query),
		"Recent coverage points to steady growth in the sector [1], ",
		"with analyst estimates putting adoption at roughly 40% of ",
		"surveyed teams [2].\n\n",
		"Revenue: 12.4M\n",
		"Growth Rate: 18%\n",
		"Headcount: 240\n",
	}

	events := []model.Event{
		model.NewToolCallEvent("web_search", "Searching the web...", map[string]any{"query": query}),
		model.NewToolCallEvent("synthesize_answer", "Generating answer...", nil),
	}
	for _, c := range chunks {
		events = append(events, model.NewTextEvent(c))
	}
	var full string
	for _, c := range chunks {
		full += c
	}
	events = append(events, ExtractStructured(full)...)
	events = append(events, model.NewCitationsEvent([]model.Citation{
		{Index: 1, Title: "Sector outlook 2026", URL: "https://example.com/outlook", Snippet: "Steady growth across the sector."},
		{Index: 2, Title: "Adoption survey", URL: "https://example.com/survey", Snippet: "40% of surveyed teams report adoption."},
	}))

	for _, ev := range events {
		if s.Delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.Delay):
			}
		}
		if err := emit(ev); err != nil {
			return err
		}
	}
	return nil
}
