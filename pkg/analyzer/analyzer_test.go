package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andrew/loan-rag/pkg/llm"
	"github.com/andrew/loan-rag/pkg/models"
	"github.com/andrew/loan-rag/pkg/prompt"
	"github.com/andrew/loan-rag/pkg/vector"
)

const validResponse = `{"summary":"solid application","recommendation":"approve","rationale":["stable income"],"key_findings":["low debt"],"conditions":[]}`

func personalLoan(id string, amount float64) *models.LoanRecord {
	rec := &models.LoanRecord{}
	rec.CustomerInfo.Name = "Leila Gharbi"
	rec.LoanInfo.BasicInfo.LoanID = id
	rec.LoanInfo.BasicInfo.Product = "Credit Conso"
	rec.LoanInfo.Financials.LoanAmount = amount
	rec.LoanInfo.Financials.Currency = "TND"
	return rec
}

func workingClient() *llm.MockClient {
	return &llm.MockClient{
		GenerateFunc: func(context.Context, string, llm.ModelConfig) (string, error) {
			return validResponse, nil
		},
		EmbedTextFunc: func(context.Context, string) ([]float32, error) {
			return []float32{1, 0, 0}, nil
		},
	}
}

func seedNeighbor(t *testing.T, store vector.Store, id string) {
	t.Helper()
	doc := personalLoan(id, 40_000)
	doc.Analysis = &models.Analysis{Recommendation: models.RecommendationApprove}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, store.Upsert(context.Background(), models.SimilarityRecord{
		ID:        id,
		Embedding: []float32{1, 0.1, 0},
		Document:  string(raw),
		Metadata:  models.SimilarityMetadata{LoanID: id, AgentDecision: models.RecommendationApprove},
	}))
}

func TestAnalyzeEmptyStoreSkipsContextual(t *testing.T) {
	client := workingClient()
	store := vector.NewMemoryStore()
	a := New(client, store, Config{}, zap.NewNop())

	analysis, err := a.Analyze(context.Background(), personalLoan("L-1", 60_000))
	require.NoError(t, err)

	assert.Equal(t, models.AnalysisTypeBasic, analysis.AnalysisType)
	assert.Equal(t, models.LoanTypeStandard, analysis.LoanType)
	assert.Equal(t, models.RecommendationApprove, analysis.Recommendation)
	assert.Equal(t, 1, client.GenerateCalls)

	// The analyzed loan was persisted for future retrieval.
	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	stored, err := store.Get(context.Background(), "L-1")
	require.NoError(t, err)
	assert.False(t, stored.Metadata.HasFeedback)
	assert.Equal(t, models.AnalysisTypeBasic, stored.Metadata.AnalysisType)
	assert.Equal(t, models.RecommendationApprove, stored.Metadata.AgentDecision)
}

func TestAnalyzeEmbeddingFailureDemotesToBasic(t *testing.T) {
	client := workingClient()
	client.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}
	store := vector.NewMemoryStore()
	seedNeighbor(t, store, "L-old")

	a := New(client, store, Config{}, zap.NewNop())
	analysis, err := a.Analyze(context.Background(), personalLoan("L-2", 30_000))
	require.NoError(t, err)

	assert.Equal(t, models.AnalysisTypeBasic, analysis.AnalysisType)
	assert.Nil(t, analysis.RAGContext)
}

func TestAnalyzeDoubleFailureProducesFallback(t *testing.T) {
	client := &llm.MockClient{
		GenerateFunc: func(context.Context, string, llm.ModelConfig) (string, error) {
			return "", errors.New("model offline")
		},
		EmbedTextFunc: func(context.Context, string) ([]float32, error) {
			return nil, errors.New("embedding service down")
		},
	}
	store := vector.NewMemoryStore()
	seedNeighbor(t, store, "L-old")

	a := New(client, store, Config{}, zap.NewNop())
	analysis, err := a.Analyze(context.Background(), personalLoan("L-3", 30_000))
	require.NoError(t, err)

	assert.Equal(t, models.AnalysisTypeFallback, analysis.AnalysisType)
	assert.Equal(t, models.RecommendationReview, analysis.Recommendation)
	require.NotEmpty(t, analysis.Rationale)
	assert.Contains(t, analysis.Rationale[0], "model offline")
}

func TestAnalyzeContextualHappyPath(t *testing.T) {
	client := workingClient()
	store := vector.NewMemoryStore()
	seedNeighbor(t, store, "L-old")

	a := New(client, store, Config{}, zap.NewNop())
	analysis, err := a.Analyze(context.Background(), personalLoan("L-4", 45_000))
	require.NoError(t, err)

	assert.Equal(t, models.AnalysisTypeContextual, analysis.AnalysisType)
	assert.Equal(t, models.LoanTypePersonal, analysis.LoanType)
	require.NotNil(t, analysis.RAGContext)
	require.Len(t, analysis.RAGContext.SimilarCases, 1)
	assert.Equal(t, "Leila Gharbi", analysis.RAGContext.SimilarCases[0].Customer)

	// Contextual prompt cites the historical case.
	require.NotEmpty(t, client.Prompts)
	assert.Contains(t, client.Prompts[len(client.Prompts)-1], "HISTORICAL CONTEXT")

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestAnalyzeAppliesFeedbackContext(t *testing.T) {
	client := workingClient()
	store := vector.NewMemoryStore()

	doc := personalLoan("L-fb", 40_000)
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, store.Upsert(context.Background(), models.SimilarityRecord{
		ID:        "L-fb",
		Embedding: []float32{1, 0, 0},
		Document:  string(raw),
		Metadata: models.SimilarityMetadata{
			LoanID:        "L-fb",
			HasFeedback:   true,
			AgentDecision: models.RecommendationApprove,
			Feedback: &models.FeedbackEntry{
				LoanID:        "L-fb",
				HumanDecision: models.RecommendationDeny,
				Rating:        5,
				Comments:      "income documents were forged",
			},
		},
	}))

	a := New(client, store, Config{}, zap.NewNop())
	_, err = a.Analyze(context.Background(), personalLoan("L-5", 45_000))
	require.NoError(t, err)

	var analysisPrompt string
	for _, p := range client.Prompts {
		if len(p) > len(analysisPrompt) {
			analysisPrompt = p
		}
	}
	assert.Contains(t, analysisPrompt, "RELEVANT FEEDBACK FROM SIMILAR CASES")
	assert.Contains(t, analysisPrompt, "income documents were forged")
	assert.Contains(t, analysisPrompt, "RELIABLE GUIDANCE")
}

func TestAnalyzeSurfacesTemplateRenderError(t *testing.T) {
	prev := prompt.SetTemplate(models.LoanTypePersonal, "Amount: {loan_amount}\n{underwriting_notes}")
	t.Cleanup(func() { prompt.SetTemplate(models.LoanTypePersonal, prev) })

	t.Run("basic stage", func(t *testing.T) {
		client := workingClient()
		a := New(client, vector.NewMemoryStore(), Config{}, zap.NewNop())

		analysis, err := a.Analyze(context.Background(), personalLoan("L-8", 30_000))

		var renderErr *prompt.RenderError
		require.ErrorAs(t, err, &renderErr)
		assert.Equal(t, "underwriting_notes", renderErr.Placeholder)
		assert.Nil(t, analysis)
		assert.Zero(t, client.GenerateCalls)
	})

	t.Run("contextual stage", func(t *testing.T) {
		client := workingClient()
		store := vector.NewMemoryStore()
		seedNeighbor(t, store, "L-old")

		a := New(client, store, Config{}, zap.NewNop())
		analysis, err := a.Analyze(context.Background(), personalLoan("L-9", 30_000))

		var renderErr *prompt.RenderError
		require.ErrorAs(t, err, &renderErr)
		assert.Nil(t, analysis)
		assert.Zero(t, client.GenerateCalls)

		// A rendering failure never degrades and never persists.
		count, countErr := store.Count(context.Background())
		require.NoError(t, countErr)
		assert.Equal(t, uint64(1), count)
	})
}

// upsertFailingStore simulates a store whose writes fail after a
// successful analysis.
type upsertFailingStore struct {
	*vector.MemoryStore
}

func (s *upsertFailingStore) Upsert(context.Context, models.SimilarityRecord) error {
	return errors.New("storage quota exceeded")
}

func TestAnalyzePersistenceFailureDoesNotAffectResult(t *testing.T) {
	client := workingClient()
	store := &upsertFailingStore{vector.NewMemoryStore()}

	a := New(client, store, Config{}, zap.NewNop())
	analysis, err := a.Analyze(context.Background(), personalLoan("L-6", 25_000))
	require.NoError(t, err)

	assert.Equal(t, models.AnalysisTypeBasic, analysis.AnalysisType)
	assert.Equal(t, models.RecommendationApprove, analysis.Recommendation)
}

func TestAnalyzeWithoutStoreIsBasic(t *testing.T) {
	client := workingClient()
	a := New(client, nil, Config{}, zap.NewNop())

	analysis, err := a.Analyze(context.Background(), personalLoan("L-7", 250_000))
	require.NoError(t, err)

	assert.Equal(t, models.AnalysisTypeBasic, analysis.AnalysisType)
	assert.Equal(t, models.LoanTypeLargeCommercial, analysis.LoanType)
	assert.Zero(t, client.EmbedTextCalls)
}
