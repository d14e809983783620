package adapter

import (
	"context"

	"ai-search-stream/internal/domain/model"
)

// EmitFunc appends one fragment to the owning job's event channel. Callers
// must invoke it sequentially; the order of emitted fragments is the delivery
// order seen by every stream reader.
type EmitFunc func(model.Event) error

// Producer is the port for the external reasoning/search pipeline. Run emits
// semantic fragments in order and returns nil when the sequence is exhausted,
// or an error on mid-sequence failure. Producers never emit the done or error
// kinds themselves; the worker owns terminal events.
type Producer interface {
	Run(ctx context.Context, query string, emit EmitFunc) error
}

// ChatStreamer is the port for a streaming LLM completion.
type ChatStreamer interface {
	// Stream sends prompt to the model and invokes emit once per text delta,
	// in generation order.
	Stream(ctx context.Context, prompt string, emit func(delta string) error) error

	// EstimateTokens returns a best-effort local token count for text.
	EstimateTokens(text string) int
}

// SearchResult is a single web search hit.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
}

// SearchClient is the port for the web search collaborator.
type SearchClient interface {
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)
}
