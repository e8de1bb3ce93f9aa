// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisAddr   string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	StateSecret string `env:"STATE_SECRET" envDefault:"dev-state-secret"`

	Strava StravaConfig
	Cache  CacheConfig
	AI     AIConfig
}

// StravaConfig holds the OAuth application credentials.
type StravaConfig struct {
	ClientID     string `env:"STRAVA_CLIENT_ID"`
	ClientSecret string `env:"STRAVA_CLIENT_SECRET"`
	RedirectURL  string `env:"STRAVA_REDIRECT_URL" envDefault:"http://localhost:3000/callback"`
}

// CacheConfig selects and tunes the cache backend.
type CacheConfig struct {
	Backend       string `env:"CACHE_BACKEND" envDefault:"memory"`
	RedisAddr     string `env:"CACHE_REDIS_ADDR"`
	RedisPassword string `env:"CACHE_REDIS_PASSWORD"`
	RedisDB       int    `env:"CACHE_REDIS_DB" envDefault:"0"`

	DefaultTTLSeconds int `env:"CACHE_DEFAULT_TTL_SECONDS" envDefault:"3600"`

	// Per-consumer TTLs; the cache core itself only knows the default.
	ActivityTTLSeconds       int `env:"CACHE_ACTIVITY_TTL_SECONDS" envDefault:"300"`
	RecommendationTTLSeconds int `env:"CACHE_RECOMMENDATION_TTL_SECONDS" envDefault:"3600"`
}

// AIConfig selects the recommendation provider.
type AIConfig struct {
	Provider string `env:"AI_PROVIDER" envDefault:"ollama"`

	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIModel  string `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`

	OllamaURL   string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OllamaModel string `env:"OLLAMA_MODEL" envDefault:"llama2"`
}

// Load reads configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// HasStrava returns true if the Strava OAuth app is configured.
func (c Config) HasStrava() bool {
	return c.Strava.ClientID != "" && c.Strava.ClientSecret != ""
}

// HasDatabase returns true if token/workout persistence is configured.
func (c Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// HasOpenAI returns true if the OpenAI provider can be constructed.
func (c Config) HasOpenAI() bool {
	return c.AI.OpenAIAPIKey != ""
}

// CacheRedisAddr returns the cache-specific Redis address, falling back to
// the shared one used by the job queue.
func (c Config) CacheRedisAddr() string {
	if c.Cache.RedisAddr != "" {
		return c.Cache.RedisAddr
	}
	return c.RedisAddr
}

// DefaultCacheTTL returns the service-wide default TTL.
func (c Config) DefaultCacheTTL() time.Duration {
	return time.Duration(c.Cache.DefaultTTLSeconds) * time.Second
}

// ActivityCacheTTL returns the TTL for cached activity responses.
func (c Config) ActivityCacheTTL() time.Duration {
	return time.Duration(c.Cache.ActivityTTLSeconds) * time.Second
}

// RecommendationCacheTTL returns the TTL for cached recommendations.
func (c Config) RecommendationCacheTTL() time.Duration {
	return time.Duration(c.Cache.RecommendationTTLSeconds) * time.Second
}

// Validate ensures configuration needed at startup is present.
func (c Config) Validate() error {
	if !c.HasStrava() {
		return fmt.Errorf("STRAVA_CLIENT_ID and STRAVA_CLIENT_SECRET must be set")
	}
	return nil
}
