package vector

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/andrew/loan-rag/pkg/models"
)

// MemoryStore is an exact-scan, in-process Store. It exists for tests
// and single-machine runs without a Qdrant server; semantics (cosine
// distance, upsert-by-id, metadata filtering) match QdrantStore.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.SimilarityRecord
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]models.SimilarityRecord)}
}

// Count returns the number of stored records.
func (s *MemoryStore) Count(ctx context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.records)), nil
}

// Query scans all records and returns the closest matches by cosine
// distance, ascending.
func (s *MemoryStore) Query(ctx context.Context, vector []float32, limit int, filter *Filter) ([]models.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []models.SearchResult
	for _, rec := range s.records {
		if filter != nil && filter.HasFeedback != nil && rec.Metadata.HasFeedback != *filter.HasFeedback {
			continue
		}
		results = append(results, models.SearchResult{
			ID:       rec.ID,
			Document: rec.Document,
			Metadata: rec.Metadata,
			Distance: 1 - cosineSimilarity(vector, rec.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Upsert replaces any prior record sharing the same ID.
func (s *MemoryStore) Upsert(ctx context.Context, rec models.SimilarityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	return nil
}

// Get fetches a record by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*models.SimilarityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
