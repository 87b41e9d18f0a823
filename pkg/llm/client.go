package llm

import (
	"context"
)

// Client is the interface for interacting with the inference service.
// Generation and embedding are both blocking calls; callers impose
// timeouts through the context.
type Client interface {
	Generate(ctx context.Context, prompt string, config ModelConfig) (string, error)
	EmbedText(ctx context.Context, text string) ([]float32, error)
	Close() error
}

// ModelConfig holds per-call sampling and context-window parameters.
type ModelConfig struct {
	Temperature   float32
	ContextWindow int
	MaxTokens     int
}

// DefaultModelConfig returns the sampling configuration used for
// analysis generation.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Temperature:   0.3,
		ContextWindow: 4096,
	}
}

// DistillationConfig returns the low-temperature configuration used
// when summarizing feedback into actionable insights.
func DistillationConfig() ModelConfig {
	return ModelConfig{
		Temperature:   0.1,
		ContextWindow: 2048,
	}
}
