package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndicatorMapRoundTripPreservesOrder(t *testing.T) {
	raw := []byte(`{
		"zeta_factor": {"value": "1.2", "score": 20, "risk_level": "high"},
		"alpha_factor": {"value": "ok", "score": 5, "risk_level": "low"},
		"mid_factor": {"value": "0.5", "score": 10, "risk_level": "medium"}
	}`)

	var m IndicatorMap
	require.NoError(t, json.Unmarshal(raw, &m))
	require.Len(t, m, 3)
	assert.Equal(t, "zeta_factor", m[0].Factor)
	assert.Equal(t, "alpha_factor", m[1].Factor)
	assert.Equal(t, "mid_factor", m[2].Factor)
	assert.Equal(t, 20.0, m[0].Score)
	assert.Equal(t, "medium", m[2].RiskLevel)

	out, err := json.Marshal(m)
	require.NoError(t, err)

	var again IndicatorMap
	require.NoError(t, json.Unmarshal(out, &again))
	assert.Equal(t, m, again)
}

func TestIndicatorMapRejectsNonObject(t *testing.T) {
	var m IndicatorMap
	assert.Error(t, json.Unmarshal([]byte(`[1, 2]`), &m))
}

func TestIndicatorMapEmpty(t *testing.T) {
	out, err := json.Marshal(IndicatorMap{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))

	var m IndicatorMap
	require.NoError(t, json.Unmarshal([]byte(`{}`), &m))
	assert.Empty(t, m)
}

func TestLoanRecordID(t *testing.T) {
	var nilRec *LoanRecord
	assert.Equal(t, "unknown", nilRec.ID())
	assert.Equal(t, "unknown", (&LoanRecord{}).ID())

	rec := &LoanRecord{}
	rec.LoanInfo.BasicInfo.LoanID = "L-7"
	assert.Equal(t, "L-7", rec.ID())
}

func TestLoanRecordDocumentRoundTrip(t *testing.T) {
	rec := &LoanRecord{}
	rec.CustomerInfo.Name = "Sami Trabelsi"
	rec.LoanInfo.BasicInfo = BasicInfo{LoanID: "L-42", Product: "Credit Agricole", LoanTypeHint: LoanTypeAgricultural}
	rec.LoanInfo.Financials.LoanAmount = 75_000
	rec.RiskAssessment.Indicators = IndicatorMap{
		{Factor: "collateral", Value: "weak", Score: 25, RiskLevel: "high"},
	}
	rec.Analysis = &Analysis{
		Summary:        "ok",
		Recommendation: RecommendationReview,
		AnalysisType:   AnalysisTypeBasic,
	}

	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	var back LoanRecord
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, "L-42", back.ID())
	assert.Equal(t, LoanTypeAgricultural, back.LoanInfo.BasicInfo.LoanTypeHint)
	require.NotNil(t, back.Analysis)
	assert.Equal(t, RecommendationReview, back.Analysis.Recommendation)
	assert.Equal(t, "collateral", back.RiskAssessment.Indicators[0].Factor)
}
