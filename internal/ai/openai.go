package ai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"
)

// maxCompletionTokens bounds the response length; prompts are bounded by
// Request.MaxTokens instead.
const maxCompletionTokens = 1000

// OpenAI generates recommendations through the chat completions API.
type OpenAI struct {
	client openai.Client
	model  string
	log    zerolog.Logger
}

// NewOpenAI builds the provider; the API key is required.
func NewOpenAI(apiKey, model string, log zerolog.Logger) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		log:    log.With().Str("ai", ProviderOpenAI).Logger(),
	}, nil
}

func (p *OpenAI) Name() string  { return ProviderOpenAI }
func (p *OpenAI) Model() string { return p.model }

func (p *OpenAI) Generate(ctx context.Context, req Request) (*Result, error) {
	prompt := req.Prompt()

	if req.MaxTokens > 0 {
		if in := approxTokens(prompt); in > int64(req.MaxTokens) {
			return nil, &ProviderError{
				Provider: ProviderOpenAI,
				Code:     "token_limit_exceeded",
				Message:  fmt.Sprintf("input prompt exceeds token limit: %d > %d", in, req.MaxTokens),
			}
		}
	}

	p.log.Info().Str("model", p.model).Msg("generating recommendations")
	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(maxCompletionTokens),
		Temperature: openai.Float(0.7),
	})
	if err != nil {
		p.log.Error().Err(err).Msg("chat completion failed")
		return nil, &ProviderError{Provider: ProviderOpenAI, Code: "api_error", Message: err.Error()}
	}
	if len(completion.Choices) == 0 {
		return nil, &ProviderError{Provider: ProviderOpenAI, Code: "empty_response", Message: "no choices returned"}
	}

	content := completion.Choices[0].Message.Content
	usage := Usage{
		InputTokens:  completion.Usage.PromptTokens,
		OutputTokens: completion.Usage.CompletionTokens,
		TotalTokens:  completion.Usage.TotalTokens,
	}
	p.log.Info().Int64("total_tokens", usage.TotalTokens).Msg("recommendations generated")

	return &Result{
		Recommendations: content,
		Summary:         req.Summary,
		Metrics:         req.Metrics,
		Usage:           usage,
		Model:           p.model,
		Provider:        ProviderOpenAI,
	}, nil
}
