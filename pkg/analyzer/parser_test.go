package analyzer

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrew/loan-rag/pkg/models"
)

func TestParseResponseRoundTrip(t *testing.T) {
	raw := `noise {"summary":"ok","recommendation":"APPROVE","rationale":"r1","key_findings":[],"conditions":[]} trailing`

	analysis := ParseResponse(raw, nil)

	assert.Equal(t, "ok", analysis.Summary)
	assert.Equal(t, models.RecommendationApprove, analysis.Recommendation)
	assert.Equal(t, []string{"r1"}, analysis.Rationale)
	assert.Empty(t, analysis.KeyFindings)
	assert.Empty(t, analysis.Conditions)
	assert.Nil(t, analysis.RAGContext)
}

func TestParseResponseUnparsableNeverRaises(t *testing.T) {
	analysis := ParseResponse("not json at all", nil)

	assert.Equal(t, "not json at all", analysis.Summary)
	assert.Equal(t, models.RecommendationReview, analysis.Recommendation)
	assert.NotEmpty(t, analysis.Rationale)
}

func TestParseResponseTruncatesRawSummary(t *testing.T) {
	raw := strings.Repeat("x", 2000)
	analysis := ParseResponse(raw, nil)
	assert.Len(t, analysis.Summary, maxRawSummary)
}

func TestParseResponseTruncatesOnRuneBoundary(t *testing.T) {
	// A three-byte rune straddles the truncation offset; the cut must
	// back off instead of leaving a partial UTF-8 sequence.
	raw := strings.Repeat("x", maxRawSummary-1) + strings.Repeat("é", 600)
	analysis := ParseResponse(raw, nil)

	assert.True(t, utf8.ValidString(analysis.Summary))
	assert.LessOrEqual(t, len(analysis.Summary), maxRawSummary)
	assert.Equal(t, strings.Repeat("x", maxRawSummary-1), analysis.Summary)
}

func TestParseResponseDefaults(t *testing.T) {
	analysis := ParseResponse(`{}`, nil)

	assert.Equal(t, "No summary provided", analysis.Summary)
	assert.Equal(t, models.RecommendationReview, analysis.Recommendation)
	assert.Equal(t, []string{}, analysis.Rationale)
	assert.Equal(t, []string{}, analysis.KeyFindings)
	assert.Equal(t, []string{}, analysis.Conditions)
	assert.Nil(t, analysis.CommercialAnalysis)
}

func TestParseResponseStringifiesMixedLists(t *testing.T) {
	analysis := ParseResponse(`{"rationale":[1,"two",true]}`, nil)
	assert.Equal(t, []string{"1", "two", "true"}, analysis.Rationale)
}

func TestParseResponseExtensionFields(t *testing.T) {
	raw := `{"summary":"s","recommendation":"deny","commercial_analysis":["covenant needed"],"comparative_analysis":"single"}`
	analysis := ParseResponse(raw, nil)

	assert.Equal(t, []string{"covenant needed"}, analysis.CommercialAnalysis)
	assert.Equal(t, []string{"single"}, analysis.ComparativeAnalysis)
	assert.Nil(t, analysis.MortgageAnalysis)
}

func TestParseResponseBuildsRAGContext(t *testing.T) {
	goodDoc := models.LoanRecord{}
	goodDoc.CustomerInfo.Name = "Sami Trabelsi"
	goodDoc.LoanInfo.Financials.LoanAmount = 75_000
	goodDoc.RiskAssessment.TotalScore = 42
	goodDoc.Analysis = &models.Analysis{Recommendation: models.RecommendationDeny}
	doc, err := json.Marshal(goodDoc)
	require.NoError(t, err)

	neighbors := []models.SearchResult{
		{Document: string(doc), Distance: 0.2, Metadata: models.SimilarityMetadata{AgentDecision: "approve"}},
		{Document: "garbage", Distance: 0.1},
	}

	analysis := ParseResponse(`{"summary":"s"}`, neighbors)
	require.NotNil(t, analysis.RAGContext)
	require.Len(t, analysis.RAGContext.SimilarCases, 1)

	c := analysis.RAGContext.SimilarCases[0]
	assert.Equal(t, "Sami Trabelsi", c.Customer)
	assert.Equal(t, 75_000.0, c.Amount)
	assert.Equal(t, 42.0, c.Score)
	assert.Equal(t, models.RecommendationDeny, c.Decision)
	assert.InDelta(t, 0.8, c.Similarity, 1e-6)
}
