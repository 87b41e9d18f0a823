// Package setup wires the configured provider and similarity store into
// concrete clients. It is shared by the command-line binaries so they
// cannot drift apart on provider or store selection.
package setup

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/andrew/loan-rag/pkg/config"
	"github.com/andrew/loan-rag/pkg/llm"
	"github.com/andrew/loan-rag/pkg/vector"
)

// NewClient builds the model client selected by cfg.Provider. For the
// Ollama provider the configured models are verified (and pulled if
// missing) before the client is returned.
func NewClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (llm.Client, error) {
	switch cfg.Provider {
	case "openai":
		return llm.NewOpenAIClient(llm.OpenAIConfig{
			Endpoint:        cfg.OpenAI.Endpoint,
			APIKey:          cfg.OpenAI.APIKey,
			GenerationModel: cfg.OpenAI.GenerationModel,
			EmbeddingModel:  cfg.OpenAI.EmbeddingModel,
		}, logger)
	default:
		client, err := llm.NewOllamaClient(llm.OllamaConfig{
			Host:            cfg.Ollama.Host,
			GenerationModel: cfg.Ollama.GenerationModel,
			EmbeddingModel:  cfg.Ollama.EmbeddingModel,
			Timeout:         cfg.Ollama.Timeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		if err := client.VerifyModels(ctx); err != nil {
			return nil, fmt.Errorf("ollama models unavailable: %w. Is the server running?", err)
		}
		return client, nil
	}
}

// NewStore builds the similarity store selected by cfg.Vector.Type. A
// nil store with a nil error means the store is disabled.
func NewStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (vector.Store, error) {
	switch cfg.Vector.Type {
	case "none":
		logger.Info("similarity store disabled, every analysis will be basic")
		return nil, nil
	case "memory":
		return vector.NewMemoryStore(), nil
	default:
		return vector.NewQdrantStore(ctx, vector.Config{
			Host:       cfg.Vector.Host,
			Port:       cfg.Vector.Port,
			Collection: cfg.Vector.Collection,
			Dimension:  int(cfg.Vector.Dimension),
		}, logger)
	}
}

// NewPersistentStore is NewStore restricted to stores that outlive the
// process. The indexer and feedback binaries write records for a
// separately running analyzer to read, so an in-process or disabled
// store cannot serve them.
func NewPersistentStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (vector.Store, error) {
	if cfg.Vector.Type != "qdrant" {
		return nil, fmt.Errorf("the %q similarity store does not outlive this process; configure the qdrant store", cfg.Vector.Type)
	}
	return NewStore(ctx, cfg, logger)
}
