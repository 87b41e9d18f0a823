package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// Default local models. The generation model analyzes loans; the
// embedding model vectorizes them for similarity search.
const (
	DefaultGenerationModel = "deepseek-r1:1.5b"
	DefaultEmbeddingModel  = "nomic-embed-text"
	DefaultOllamaHost      = "http://localhost:11434"
)

var _ Client = (*OllamaClient)(nil)

// OllamaClient talks to a local Ollama server through its API client.
type OllamaClient struct {
	client          *api.Client
	generationModel string
	embeddingModel  string
	logger          *zap.Logger
}

// OllamaConfig configures an OllamaClient. Zero values fall back to the
// package defaults.
type OllamaConfig struct {
	Host            string
	GenerationModel string
	EmbeddingModel  string
	Timeout         time.Duration
}

// NewOllamaClient creates a client for a local Ollama server.
func NewOllamaClient(cfg OllamaConfig, logger *zap.Logger) (*OllamaClient, error) {
	host := cfg.Host
	if host == "" {
		host = DefaultOllamaHost
	}
	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama host %q: %w", host, err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	genModel := cfg.GenerationModel
	if genModel == "" {
		genModel = DefaultGenerationModel
	}
	embedModel := cfg.EmbeddingModel
	if embedModel == "" {
		embedModel = DefaultEmbeddingModel
	}

	return &OllamaClient{
		client:          api.NewClient(base, &http.Client{Timeout: timeout}),
		generationModel: genModel,
		embeddingModel:  embedModel,
		logger:          logger.Named("ollama"),
	}, nil
}

// VerifyModels checks that the configured models are available on the
// server and pulls any that are missing.
func (c *OllamaClient) VerifyModels(ctx context.Context) error {
	listed, err := c.client.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	available := make(map[string]bool, len(listed.Models))
	for _, m := range listed.Models {
		available[m.Name] = true
		available[m.Model] = true
	}

	for _, model := range []string{c.embeddingModel, c.generationModel} {
		if available[model] {
			continue
		}
		c.logger.Info("pulling model", zap.String("model", model))
		err := c.client.Pull(ctx, &api.PullRequest{Model: model}, func(api.ProgressResponse) error {
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to pull model %q: %w", model, err)
		}
	}
	return nil
}

// Generate runs a single prompt through the generation model and
// returns the full completion.
func (c *OllamaClient) Generate(ctx context.Context, prompt string, config ModelConfig) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:   c.generationModel,
		Prompt:  prompt,
		Stream:  &stream,
		Options: ollamaOptions(config),
	}

	start := time.Now()
	var response strings.Builder
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		response.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate failed: %w", err)
	}

	c.logger.Debug("generation completed",
		zap.String("model", c.generationModel),
		zap.Int("prompt_len", len(prompt)),
		zap.Duration("elapsed", time.Since(start)))

	return response.String(), nil
}

// EmbedText vectorizes a text with the embedding model.
func (c *OllamaClient) EmbedText(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.Embeddings(ctx, &api.EmbeddingRequest{
		Model:  c.embeddingModel,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embeddings failed: %w", err)
	}

	// Ollama returns float64; the similarity store works in float32.
	vector := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		vector[i] = float32(v)
	}
	return vector, nil
}

// Close cleans up any resources.
func (c *OllamaClient) Close() error {
	return nil
}

func ollamaOptions(config ModelConfig) map[string]any {
	opts := map[string]any{
		"temperature": config.Temperature,
	}
	if config.ContextWindow > 0 {
		opts["num_ctx"] = config.ContextWindow
	}
	if config.MaxTokens > 0 {
		opts["num_predict"] = config.MaxTokens
	}
	return opts
}
