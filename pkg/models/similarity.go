package models

import "time"

// SimilarityMetadata is the metadata attached to a record in the
// similarity store. Feedback fields are appended post-hoc by the
// feedback-ingestion collaborator; the analysis path only ever writes
// has_feedback=false.
type SimilarityMetadata struct {
	LoanID            string         `json:"loan_id"`
	HasFeedback       bool           `json:"has_feedback"`
	Feedback          *FeedbackEntry `json:"feedback,omitempty"`
	AgentDecision     string         `json:"agent_decision,omitempty"`
	AnalysisType      string         `json:"analysis_type,omitempty"`
	ProcessingSeconds float64        `json:"processing_time,omitempty"`
	Timestamp         time.Time      `json:"timestamp,omitempty"`
}

// SimilarityRecord is the persisted tuple in the similarity store. At
// most one record exists per loan identifier; a later upsert for the
// same ID replaces embedding, document and metadata together.
type SimilarityRecord struct {
	ID        string             `json:"id"`
	Embedding []float32          `json:"-"`
	Document  string             `json:"document"`
	Metadata  SimilarityMetadata `json:"metadata"`
}

// SearchResult is one nearest neighbor returned by a similarity query.
// Results are ordered by ascending distance; similarity is 1 - distance.
type SearchResult struct {
	ID       string             `json:"id"`
	Document string             `json:"document"`
	Metadata SimilarityMetadata `json:"metadata"`
	Distance float32            `json:"distance"`
}

// Similarity converts the result's distance into a similarity score.
func (r SearchResult) Similarity() float32 {
	return 1 - r.Distance
}
