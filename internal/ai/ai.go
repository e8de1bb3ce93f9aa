// Package ai generates training recommendations through a pluggable LLM
// provider.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sportyhq/sporty/internal/stats"
)

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Usage reports token consumption for one generation.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

// Request carries the performance data a weekly plan is generated from.
type Request struct {
	Summary    string
	Metrics    stats.Metrics
	Activities []stats.ActivityStats
	Context    string
	MaxTokens  int
}

// Result is the generated plan plus the inputs it was derived from.
type Result struct {
	Recommendations string        `json:"recommendations"`
	Summary         string        `json:"summary"`
	Metrics         stats.Metrics `json:"metrics"`
	Usage           Usage         `json:"token_usage"`
	Model           string        `json:"model_used"`
	Provider        string        `json:"provider"`
}

// Provider generates recommendations from performance data.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Result, error)
	Name() string
	Model() string
}

// ProviderError describes a failed generation with a stable error code for
// the response envelope.
type ProviderError struct {
	Provider string
	Code     string
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Code)
}

// Prompt renders the weekly-plan prompt for the request.
func (r Request) Prompt() string {
	activityJSON, err := json.Marshal(r.Activities)
	if err != nil {
		activityJSON = []byte("[]")
	}

	var b strings.Builder
	b.WriteString(`### Role
You are an advanced personal trainer and performance strategist for experienced athletes.
Your task is to create a scientifically balanced, performance-optimized weekly training schedule based on the athlete's latest workout history.

### Analysis Goals
1. Plan next-week workouts accordingly:
   - Balance between endurance, strength, and recovery
   - Increase challenge gradually where improvement is possible
   - Prioritize recovery when fatigue is detected

### Output Requirements
Provide a 7-Day Workout Schedule (detailed daily plan).

### Performance Summary
`)
	b.WriteString(r.Summary)
	b.WriteString("\n\n### Latest Activity Data\n")
	b.Write(activityJSON)
	if r.Context != "" {
		b.WriteString("\n\n### Additional Context\n")
		b.WriteString(r.Context)
	}
	return b.String()
}

// approxTokens estimates token count for providers that do not report usage.
// Rough word-based heuristic, same as the ~4/3 tokens-per-word rule.
func approxTokens(text string) int64 {
	words := len(strings.Fields(text))
	return int64(float64(words) * 1.3)
}
