package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"ai-search-stream/internal/domain"
	"ai-search-stream/internal/domain/model"
	"ai-search-stream/internal/domain/ports/adapter"
	"ai-search-stream/internal/infra/metrics"
)

var _ adapter.Producer = (*ResearchProducer)(nil)

// ResearchProducer orchestrates one query end to end: an optional web search
// step narrated as a tool call, a streamed synthesis from the chat model, the
// structured payloads extracted from the accumulated answer, and finally the
// citations batch. Citations are deliberately emitted after the text that
// references them; consumers resolve the inline markers when the batch lands.
type ResearchProducer struct {
	search     adapter.SearchClient // nil disables the search step
	chat       adapter.ChatStreamer
	maxResults int
	provider   string
	model      string
	log        *zerolog.Logger
}

func NewResearchProducer(search adapter.SearchClient, chat adapter.ChatStreamer, maxResults int, provider, model string, logger *zerolog.Logger) *ResearchProducer {
	if maxResults <= 0 {
		maxResults = 3
	}
	return &ResearchProducer{
		search:     search,
		chat:       chat,
		maxResults: maxResults,
		provider:   provider,
		model:      model,
		log:        logger,
	}
}

func (r *ResearchProducer) Run(ctx context.Context, query string, emit adapter.EmitFunc) error {
	var contextParts []string
	var citations []model.Citation

	if r.search != nil && shouldSearch(query) {
		if err := emit(model.NewToolCallEvent("web_search", "Searching the web...", map[string]any{"query": query})); err != nil {
			return err
		}
		results, err := r.search.Search(ctx, query, r.maxResults)
		if err != nil {
			// Search is best effort: answer without context rather than fail.
			metrics.IncSearchCall("error")
			r.log.Warn().Err(err).Msg("web search failed, answering without context")
		} else {
			metrics.IncSearchCall("ok")
			for i, res := range results {
				citations = append(citations, model.Citation{
					Index:   i + 1,
					Title:   res.Title,
					URL:     res.URL,
					Snippet: truncate(res.Snippet, 200),
				})
			}
			contextParts = append(contextParts, formatSearchContext(query, results))
		}
	}

	if err := emit(model.NewToolCallEvent("synthesize_answer", "Generating answer...", nil)); err != nil {
		return err
	}

	prompt := buildPrompt(query, contextParts)
	var answer strings.Builder
	streamErr := r.chat.Stream(ctx, prompt, func(delta string) error {
		answer.WriteString(delta)
		return emit(model.NewTextEvent(delta))
	})
	if streamErr != nil {
		if errors.Is(streamErr, context.Canceled) || errors.Is(streamErr, context.DeadlineExceeded) {
			return streamErr
		}
		// Upstream chat failures (rate limits, transient 5xx) are worth a retry.
		return domain.Retryable(fmt.Errorf("chat stream: %w", streamErr))
	}
	metrics.ObserveChatTokens(r.provider, r.model,
		r.chat.EstimateTokens(prompt), r.chat.EstimateTokens(answer.String()))

	for _, ev := range ExtractStructured(answer.String()) {
		if err := emit(ev); err != nil {
			return err
		}
	}
	if len(citations) > 0 {
		if err := emit(model.NewCitationsEvent(citations)); err != nil {
			return err
		}
	}
	return nil
}

var questionWords = []string{
	"what", "who", "where", "when", "why", "how", "is", "are", "does", "do",
}

var searchKeywords = []string{
	"search", "find", "look up", "latest", "news", "current",
}

// shouldSearch is a cheap intent heuristic: questions and explicit search
// phrasing get a web search step, everything else goes straight to synthesis.
func shouldSearch(query string) bool {
	q := strings.ToLower(query)
	for _, w := range questionWords {
		if strings.HasPrefix(q, w+" ") || q == w {
			return true
		}
	}
	for _, kw := range searchKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

func formatSearchContext(query string, results []adapter.SearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search results for: %s\n", query)
	for i, res := range results {
		fmt.Fprintf(&b, "\n[%d] %s\nURL: %s\nContent: %s\n", i+1, res.Title, res.URL, res.Snippet)
	}
	return b.String()
}

func buildPrompt(query string, contextParts []string) string {
	if len(contextParts) == 0 {
		return query + dataFormatInstruction
	}
	return "Use the following context to answer the user's question. " +
		"Include numbered citations [1], [2], etc. when referencing sources." +
		dataFormatInstruction +
		"\n\nContext:\n" + strings.Join(contextParts, "\n\n---\n\n") +
		"\n\nQuestion: " + query
}

// dataFormatInstruction nudges the model toward line formats the structured
// extractor recognizes.
const dataFormatInstruction = `

When your response includes numerical comparisons or statistics, present series as "Label: Number" lines under a bold header, metrics as "Metric Name: value" lines, and tabular data as markdown tables.`

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
