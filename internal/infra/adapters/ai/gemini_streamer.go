package ai

import (
	"context"
	"errors"

	"google.golang.org/genai"

	"ai-search-stream/internal/domain/ports/adapter"
)

var _ adapter.ChatStreamer = (*GeminiStreamer)(nil)

// GeminiStreamer streams completions from the Gemini API using the official
// SDK.
type GeminiStreamer struct {
	client *genai.Client
	model  string
	maxOut int
}

func NewGeminiStreamer(ctx context.Context, apiKey, baseURL, model string, maxOut int) (*GeminiStreamer, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiStreamer{client: c, model: model, maxOut: maxOut}, nil
}

func (g *GeminiStreamer) Stream(ctx context.Context, prompt string, emit func(delta string) error) error {
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(g.maxOut),
	}
	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, genai.Text(prompt), cfg) {
		if err != nil {
			return err
		}
		if delta := resp.Text(); delta != "" {
			if err := emit(delta); err != nil {
				return err
			}
		}
	}
	return nil
}

// EstimateTokens approximates by character count. The SDK exposes an exact
// CountTokens call, but spending a network round trip per metrics sample is
// not worth it.
func (g *GeminiStreamer) EstimateTokens(text string) int {
	return len(text) / 4
}
