package vector

import (
	"context"
	"errors"

	"github.com/andrew/loan-rag/pkg/models"
)

// ErrNotFound is returned by Get when no record exists for the id.
var ErrNotFound = errors.New("vector: record not found")

// Filter narrows a similarity query by metadata predicate.
type Filter struct {
	// HasFeedback, when set, restricts results to records whose
	// has_feedback metadata matches.
	HasFeedback *bool
}

// WithFeedback is a ready-made filter for feedback-bearing records.
func WithFeedback() *Filter {
	t := true
	return &Filter{HasFeedback: &t}
}

// Store defines the interface for similarity store operations.
// Implementations must be safe for concurrent upsert and query.
type Store interface {
	// Count returns the number of stored records.
	Count(ctx context.Context) (uint64, error)

	// Query finds the records most similar to the given vector,
	// ordered by ascending distance.
	Query(ctx context.Context, vector []float32, limit int, filter *Filter) ([]models.SearchResult, error)

	// Upsert inserts a record, replacing any prior record with the
	// same ID atomically.
	Upsert(ctx context.Context, rec models.SimilarityRecord) error

	// Get fetches a single record by ID.
	Get(ctx context.Context, id string) (*models.SimilarityRecord, error)

	// Close releases resources used by the store.
	Close() error
}

// Config contains configuration for a similarity store.
type Config struct {
	Type       string // Type of store ("memory", "qdrant")
	Dimension  int    // Vector dimension size
	Host       string // Server host for remote stores
	Port       int    // Server gRPC port for remote stores
	Collection string // Collection name for remote stores
}
