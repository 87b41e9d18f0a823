package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient implements Client against any OpenAI-compatible endpoint
// (OpenAI itself, vLLM, LM Studio, an Ollama OpenAI shim). It is the
// alternative to OllamaClient for deployments that standardize on the
// OpenAI wire format.
type OpenAIClient struct {
	client          *openai.Client
	generationModel string
	embeddingModel  string
	logger          *zap.Logger
}

var _ Client = (*OpenAIClient)(nil)

// OpenAIConfig configures an OpenAIClient.
type OpenAIConfig struct {
	Endpoint        string // Base URL, e.g. "https://api.openai.com/v1"
	APIKey          string // Optional for local endpoints
	GenerationModel string
	EmbeddingModel  string
}

// NewOpenAIClient creates a client for an OpenAI-compatible endpoint.
func NewOpenAIClient(cfg OpenAIConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.GenerationModel == "" {
		return nil, fmt.Errorf("generation model is required")
	}
	if cfg.EmbeddingModel == "" {
		return nil, fmt.Errorf("embedding model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")
	}

	return &OpenAIClient{
		client:          openai.NewClientWithConfig(clientConfig),
		generationModel: cfg.GenerationModel,
		embeddingModel:  cfg.EmbeddingModel,
		logger:          logger.Named("openai"),
	}, nil
}

// Generate sends the prompt as a single user message and returns the
// completion text.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, config ModelConfig) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.generationModel,
		Temperature: config.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if config.MaxTokens > 0 {
		req.MaxTokens = config.MaxTokens
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	c.logger.Debug("generation completed",
		zap.String("model", c.generationModel),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	return resp.Choices[0].Message.Content, nil
}

// EmbedText vectorizes a text with the embedding model.
func (c *OpenAIClient) EmbedText(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.embeddingModel),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embedding in response")
	}
	return resp.Data[0].Embedding, nil
}

// Close cleans up any resources.
func (c *OpenAIClient) Close() error {
	return nil
}
