package ai

import (
	"github.com/rs/zerolog"

	"github.com/sportyhq/sporty/internal/config"
)

// NewProvider selects the provider from configuration. Misconfiguration
// never fails startup: an unknown provider, or OpenAI without a key, warns
// and falls back to Ollama, mirroring the cache factory policy.
func NewProvider(cfg config.AIConfig, log zerolog.Logger) Provider {
	switch cfg.Provider {
	case ProviderOpenAI:
		p, err := NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, log)
		if err != nil {
			log.Warn().Err(err).Msg("openai provider unavailable, falling back to ollama")
			return NewOllama(cfg.OllamaURL, cfg.OllamaModel, log)
		}
		return p
	case "", ProviderOllama:
		return NewOllama(cfg.OllamaURL, cfg.OllamaModel, log)
	default:
		log.Warn().Str("provider", cfg.Provider).Msg("unknown ai provider, falling back to ollama")
		return NewOllama(cfg.OllamaURL, cfg.OllamaModel, log)
	}
}
