package ai

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/pkoukk/tiktoken-go"

	"ai-search-stream/internal/domain/ports/adapter"
)

var _ adapter.ChatStreamer = (*OpenAIStreamer)(nil)

// OpenAIStreamer streams completions from the Chat Completions API.
type OpenAIStreamer struct {
	client openai.Client
	model  string
	maxOut int
	enc    *tiktoken.Tiktoken
}

func NewOpenAIStreamer(apiKey, model string, maxOut int) (*OpenAIStreamer, error) {
	if apiKey == "" {
		return nil, errors.New("openai: empty api key")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Unknown model names still get a usable estimate.
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}
	return &OpenAIStreamer{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		maxOut: maxOut,
		enc:    enc,
	}, nil
}

func (o *OpenAIStreamer) Stream(ctx context.Context, prompt string, emit func(delta string) error) error {
	stream := o.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxTokens: openai.Int(int64(o.maxOut)),
	})
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			if err := emit(delta); err != nil {
				return err
			}
		}
	}
	return stream.Err()
}

func (o *OpenAIStreamer) EstimateTokens(text string) int {
	return len(o.enc.Encode(text, nil, nil))
}
