package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Ollama generates recommendations against a local Ollama server. There is
// no maintained Go SDK; the /api/generate endpoint is a single JSON POST.
type Ollama struct {
	baseURL    string
	model      string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewOllama builds the provider. Generation is slow on local models, so the
// client allows 60 seconds per call.
func NewOllama(baseURL, model string, log zerolog.Logger) *Ollama {
	return &Ollama{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		log:        log.With().Str("ai", ProviderOllama).Logger(),
	}
}

func (p *Ollama) Name() string  { return ProviderOllama }
func (p *Ollama) Model() string { return p.model }

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response        string `json:"response"`
	PromptEvalCount int64  `json:"prompt_eval_count"`
	EvalCount       int64  `json:"eval_count"`
}

func (p *Ollama) Generate(ctx context.Context, req Request) (*Result, error) {
	prompt := req.Prompt()

	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  p.model,
		Prompt: prompt,
		Stream: false,
		Options: map[string]any{
			"temperature": 0.7,
			"num_predict": maxCompletionTokens,
		},
	})
	if err != nil {
		return nil, &ProviderError{Provider: ProviderOllama, Code: "encode_error", Message: err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{Provider: ProviderOllama, Code: "request_error", Message: err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	p.log.Info().Str("model", p.model).Msg("generating recommendations")
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		p.log.Error().Err(err).Msg("generate request failed")
		return nil, &ProviderError{Provider: ProviderOllama, Code: "api_error", Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: ProviderOllama, Code: "api_error", Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Provider: ProviderOllama,
			Code:     "api_error",
			Message:  fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))),
		}
	}

	var out ollamaGenerateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &ProviderError{Provider: ProviderOllama, Code: "decode_error", Message: err.Error()}
	}
	if out.Response == "" {
		return nil, &ProviderError{Provider: ProviderOllama, Code: "empty_response", Message: "empty response from ollama"}
	}

	usage := Usage{InputTokens: out.PromptEvalCount, OutputTokens: out.EvalCount}
	if usage.InputTokens == 0 {
		usage.InputTokens = approxTokens(prompt)
	}
	if usage.OutputTokens == 0 {
		usage.OutputTokens = approxTokens(out.Response)
	}
	usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	p.log.Info().Int64("total_tokens", usage.TotalTokens).Msg("recommendations generated")

	return &Result{
		Recommendations: out.Response,
		Summary:         req.Summary,
		Metrics:         req.Metrics,
		Usage:           usage,
		Model:           p.model,
		Provider:        ProviderOllama,
	}, nil
}
