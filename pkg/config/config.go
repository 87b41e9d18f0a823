// Package config loads pipeline configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the loan analysis pipeline.
// Values come from a YAML file with environment variable overrides;
// environment variables always win. Secrets (the OpenAI API key) must
// only come from environment variables.
type Config struct {
	// Provider selects the model backend: "ollama" or "openai".
	Provider string `yaml:"provider" env:"LLM_PROVIDER" env-default:"ollama"`

	Ollama   OllamaConfig   `yaml:"ollama"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Vector   VectorConfig   `yaml:"vector"`
	Analysis AnalysisConfig `yaml:"analysis"`
}

// OllamaConfig holds the local Ollama backend settings.
type OllamaConfig struct {
	Host            string        `yaml:"host" env:"OLLAMA_HOST" env-default:"http://localhost:11434"`
	GenerationModel string        `yaml:"generation_model" env:"OLLAMA_GENERATION_MODEL" env-default:"deepseek-r1:1.5b"`
	EmbeddingModel  string        `yaml:"embedding_model" env:"OLLAMA_EMBEDDING_MODEL" env-default:"nomic-embed-text"`
	Timeout         time.Duration `yaml:"timeout" env:"OLLAMA_TIMEOUT" env-default:"5m"`
}

// OpenAIConfig holds settings for an OpenAI-compatible backend.
type OpenAIConfig struct {
	Endpoint        string `yaml:"endpoint" env:"OPENAI_ENDPOINT" env-default:""`
	APIKey          string `yaml:"-" env:"OPENAI_API_KEY"` // Secret - not in YAML
	GenerationModel string `yaml:"generation_model" env:"OPENAI_GENERATION_MODEL" env-default:""`
	EmbeddingModel  string `yaml:"embedding_model" env:"OPENAI_EMBEDDING_MODEL" env-default:""`
}

// VectorConfig holds similarity store settings.
type VectorConfig struct {
	// Type selects the store: "qdrant", "memory", or "none".
	Type       string `yaml:"type" env:"VECTOR_STORE" env-default:"qdrant"`
	Host       string `yaml:"host" env:"QDRANT_HOST" env-default:"localhost"`
	Port       int    `yaml:"port" env:"QDRANT_PORT" env-default:"6334"`
	Collection string `yaml:"collection" env:"QDRANT_COLLECTION" env-default:"loan_embeddings"`
	Dimension  uint64 `yaml:"dimension" env:"QDRANT_DIMENSION" env-default:"768"`
}

// AnalysisConfig tunes the orchestrator.
type AnalysisConfig struct {
	TopK          int           `yaml:"top_k" env:"ANALYSIS_TOP_K" env-default:"3"`
	FeedbackK     int           `yaml:"feedback_k" env:"ANALYSIS_FEEDBACK_K" env-default:"5"`
	Temperature   float32       `yaml:"temperature" env:"ANALYSIS_TEMPERATURE" env-default:"0.3"`
	ContextWindow int           `yaml:"context_window" env:"ANALYSIS_CONTEXT_WINDOW" env-default:"4096"`
	MaxTokens     int           `yaml:"max_tokens" env:"ANALYSIS_MAX_TOKENS" env-default:"0"`
	CallTimeout   time.Duration `yaml:"call_timeout" env:"ANALYSIS_CALL_TIMEOUT" env-default:"2m"`
}

// Load reads configuration from the given YAML file with environment
// variable overrides. A missing file is not an error: configuration then
// comes from environment variables and defaults alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Provider {
	case "ollama":
	case "openai":
		if c.OpenAI.Endpoint == "" {
			return fmt.Errorf("openai provider requires an endpoint")
		}
		if c.OpenAI.GenerationModel == "" || c.OpenAI.EmbeddingModel == "" {
			return fmt.Errorf("openai provider requires generation and embedding models")
		}
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	switch c.Vector.Type {
	case "qdrant", "memory", "none":
	default:
		return fmt.Errorf("unknown vector store %q", c.Vector.Type)
	}

	if c.Analysis.TopK <= 0 {
		return fmt.Errorf("top_k must be positive")
	}
	return nil
}
