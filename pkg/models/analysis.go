package models

// Recommendation values produced by the analysis.
const (
	RecommendationApprove = "approve"
	RecommendationDeny    = "deny"
	RecommendationReview  = "review"
)

// Analysis kinds, recording which stage of the degradation chain
// actually produced the result.
const (
	AnalysisTypeContextual = "contextual"
	AnalysisTypeBasic      = "basic"
	AnalysisTypeFallback   = "fallback"
)

// Analysis is the structured result of analyzing one loan application.
// The common fields are always populated; the type-specific insight
// slices are present only when the corresponding template was used, as
// recorded by LoanType. An Analysis is created once per analyze call
// and never mutated afterwards.
type Analysis struct {
	Summary        string   `json:"summary"`
	Recommendation string   `json:"recommendation"`
	Rationale      []string `json:"rationale"`
	KeyFindings    []string `json:"key_findings"`
	Conditions     []string `json:"conditions"`

	// Type-specific extension payload, keyed by LoanType.
	CommercialAnalysis   []string `json:"commercial_analysis,omitempty"`
	AgriculturalAnalysis []string `json:"agricultural_analysis,omitempty"`
	PersonalAnalysis     []string `json:"personal_analysis,omitempty"`
	MortgageAnalysis     []string `json:"mortgage_analysis,omitempty"`
	DataMismatches       []string `json:"data_mismatches,omitempty"`

	// Contextual-only comparative fields.
	ComparativeAnalysis []string `json:"comparative_analysis,omitempty"`
	LoanTypeInsights    []string `json:"loan_type_specific_insights,omitempty"`

	RAGContext *RAGContext `json:"rag_context,omitempty"`

	LoanType          LoanType `json:"loan_type,omitempty"`
	AnalysisType      string   `json:"analysis_type,omitempty"`
	ProcessingSeconds float64  `json:"processing_time,omitempty"`
}

// RAGContext surfaces the retrieval context an analysis was grounded on.
type RAGContext struct {
	SimilarCases []SimilarCase `json:"similar_cases"`
}

// SimilarCase is a compact view of one historical neighbor.
type SimilarCase struct {
	Customer   string  `json:"customer"`
	Amount     float64 `json:"amount"`
	Score      float64 `json:"score"`
	Decision   string  `json:"decision"`
	Similarity float32 `json:"similarity_score"`
}
