package setup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andrew/loan-rag/pkg/config"
	"github.com/andrew/loan-rag/pkg/llm"
	"github.com/andrew/loan-rag/pkg/vector"
)

func TestNewClientSelectsOpenAI(t *testing.T) {
	cfg := &config.Config{Provider: "openai"}
	cfg.OpenAI.Endpoint = "http://localhost:8080/v1"
	cfg.OpenAI.GenerationModel = "gpt-4o-mini"
	cfg.OpenAI.EmbeddingModel = "text-embedding-3-small"

	client, err := NewClient(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer client.Close()

	assert.IsType(t, (*llm.OpenAIClient)(nil), client)
}

func TestNewClientOpenAIRequiresModels(t *testing.T) {
	cfg := &config.Config{Provider: "openai"}
	cfg.OpenAI.Endpoint = "http://localhost:8080/v1"

	_, err := NewClient(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestNewStoreSelection(t *testing.T) {
	cfg := &config.Config{}

	cfg.Vector.Type = "none"
	store, err := NewStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, store)

	cfg.Vector.Type = "memory"
	store, err = NewStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, (*vector.MemoryStore)(nil), store)
}

func TestNewPersistentStoreRejectsEphemeral(t *testing.T) {
	cfg := &config.Config{}
	for _, storeType := range []string{"none", "memory"} {
		cfg.Vector.Type = storeType
		_, err := NewPersistentStore(context.Background(), cfg, zap.NewNop())
		assert.Error(t, err)
	}
}
