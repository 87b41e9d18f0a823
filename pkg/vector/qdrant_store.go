package vector

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	qdrantclient "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/andrew/loan-rag/pkg/models"
)

var (
	enableTrue = true
	exactTrue  = true
)

var _ Store = (*QdrantStore)(nil)

// QdrantStore implements Store backed by a Qdrant server over gRPC.
type QdrantStore struct {
	conn        *grpc.ClientConn
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
	collection  string
	logger      *zap.Logger
}

// NewQdrantStore connects to a Qdrant server and ensures the configured
// collection exists with the given vector dimension.
func NewQdrantStore(ctx context.Context, cfg Config, logger *zap.Logger) (*QdrantStore, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant at %s: %w", addr, err)
	}

	s := &QdrantStore{
		conn:        conn,
		collections: qdrantclient.NewCollectionsClient(conn),
		points:      qdrantclient.NewPointsClient(conn),
		collection:  cfg.Collection,
		logger:      logger.Named("qdrant"),
	}

	if err := s.ensureCollection(ctx, cfg.Dimension); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *QdrantStore) ensureCollection(ctx context.Context, dimension int) error {
	resp, err := s.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	for _, col := range resp.GetCollections() {
		if col.GetName() == s.collection {
			return nil
		}
	}

	s.logger.Info("creating collection",
		zap.String("collection", s.collection),
		zap.Int("dimension", dimension))

	_, err = s.collections.Create(ctx, &qdrantclient.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &qdrantclient.VectorsConfig{
			Config: &qdrantclient.VectorsConfig_Params{
				Params: &qdrantclient.VectorParams{
					Size:     uint64(dimension),
					Distance: qdrantclient.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %q: %w", s.collection, err)
	}
	return nil
}

// Count returns the exact number of stored points.
func (s *QdrantStore) Count(ctx context.Context) (uint64, error) {
	resp, err := s.points.Count(ctx, &qdrantclient.CountPoints{
		CollectionName: s.collection,
		Exact:          &exactTrue,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return resp.GetResult().GetCount(), nil
}

// Query searches for the nearest neighbors of the given vector. Qdrant
// reports cosine similarity; results carry distance = 1 - similarity so
// they order by ascending distance.
func (s *QdrantStore) Query(ctx context.Context, vector []float32, limit int, filter *Filter) ([]models.SearchResult, error) {
	resp, err := s.points.Search(ctx, &qdrantclient.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(limit),
		Filter:         qdrantFilter(filter),
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: enableTrue},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]models.SearchResult, 0, len(resp.GetResult()))
	for _, pt := range resp.GetResult() {
		doc, meta := decodePayload(pt.GetPayload())
		results = append(results, models.SearchResult{
			ID:       meta.LoanID,
			Document: doc,
			Metadata: meta,
			Distance: 1 - pt.GetScore(),
		})
	}
	return results, nil
}

// Upsert writes a record, replacing any existing point for the same
// loan ID. The point UUID is derived deterministically from the record
// ID so repeated upserts converge on a single point.
func (s *QdrantStore) Upsert(ctx context.Context, rec models.SimilarityRecord) error {
	_, err := s.points.Upsert(ctx, &qdrantclient.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &enableTrue,
		Points: []*qdrantclient.PointStruct{
			{
				Id: pointID(rec.ID),
				Vectors: &qdrantclient.Vectors{
					VectorsOptions: &qdrantclient.Vectors_Vector{
						Vector: &qdrantclient.Vector{Data: rec.Embedding},
					},
				},
				Payload: encodePayload(rec),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point %q: %w", rec.ID, err)
	}
	return nil
}

// Get fetches a single record by loan ID.
func (s *QdrantStore) Get(ctx context.Context, id string) (*models.SimilarityRecord, error) {
	resp, err := s.points.Get(ctx, &qdrantclient.GetPoints{
		CollectionName: s.collection,
		Ids:            []*qdrantclient.PointId{pointID(id)},
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: enableTrue},
		},
		WithVectors: &qdrantclient.WithVectorsSelector{
			SelectorOptions: &qdrantclient.WithVectorsSelector_Enable{Enable: enableTrue},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get point %q: %w", id, err)
	}
	if len(resp.GetResult()) == 0 {
		return nil, ErrNotFound
	}

	pt := resp.GetResult()[0]
	doc, meta := decodePayload(pt.GetPayload())
	return &models.SimilarityRecord{
		ID:        id,
		Embedding: pt.GetVectors().GetVector().GetData(),
		Document:  doc,
		Metadata:  meta,
	}, nil
}

// Close tears down the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.conn.Close()
}

// pointID derives a stable UUID from a loan identifier.
func pointID(id string) *qdrantclient.PointId {
	u := uuid.NewSHA1(uuid.NameSpaceOID, []byte("loan_"+id))
	return &qdrantclient.PointId{
		PointIdOptions: &qdrantclient.PointId_Uuid{Uuid: u.String()},
	}
}

func qdrantFilter(f *Filter) *qdrantclient.Filter {
	if f == nil || f.HasFeedback == nil {
		return nil
	}
	return &qdrantclient.Filter{
		Must: []*qdrantclient.Condition{
			{
				ConditionOneOf: &qdrantclient.Condition_Field{
					Field: &qdrantclient.FieldCondition{
						Key: "has_feedback",
						Match: &qdrantclient.Match{
							MatchValue: &qdrantclient.Match_Boolean{Boolean: *f.HasFeedback},
						},
					},
				},
			},
		},
	}
}

func encodePayload(rec models.SimilarityRecord) map[string]*qdrantclient.Value {
	payload := map[string]*qdrantclient.Value{
		"loan_id":      strVal(rec.Metadata.LoanID),
		"document":     strVal(rec.Document),
		"has_feedback": boolVal(rec.Metadata.HasFeedback),
	}
	if rec.Metadata.AgentDecision != "" {
		payload["agent_decision"] = strVal(rec.Metadata.AgentDecision)
	}
	if rec.Metadata.AnalysisType != "" {
		payload["analysis_type"] = strVal(rec.Metadata.AnalysisType)
	}
	if rec.Metadata.ProcessingSeconds > 0 {
		payload["processing_time"] = doubleVal(rec.Metadata.ProcessingSeconds)
	}
	if !rec.Metadata.Timestamp.IsZero() {
		payload["timestamp"] = intVal(rec.Metadata.Timestamp.Unix())
	}
	if fb := rec.Metadata.Feedback; fb != nil {
		payload["feedback"] = &qdrantclient.Value{
			Kind: &qdrantclient.Value_StructValue{
				StructValue: &qdrantclient.Struct{
					Fields: map[string]*qdrantclient.Value{
						"loan_id":        strVal(fb.LoanID),
						"ai_decision":    strVal(fb.AIDecision),
						"human_decision": strVal(fb.HumanDecision),
						"rating":         intVal(int64(fb.Rating)),
						"comments":       strVal(fb.Comments),
						"analyst_id":     strVal(fb.AnalystID),
						"timestamp":      intVal(fb.Timestamp.Unix()),
					},
				},
			},
		}
	}
	return payload
}

func decodePayload(payload map[string]*qdrantclient.Value) (string, models.SimilarityMetadata) {
	meta := models.SimilarityMetadata{
		LoanID:            payload["loan_id"].GetStringValue(),
		HasFeedback:       payload["has_feedback"].GetBoolValue(),
		AgentDecision:     payload["agent_decision"].GetStringValue(),
		AnalysisType:      payload["analysis_type"].GetStringValue(),
		ProcessingSeconds: payload["processing_time"].GetDoubleValue(),
	}
	if ts := payload["timestamp"].GetIntegerValue(); ts > 0 {
		meta.Timestamp = time.Unix(ts, 0).UTC()
	}
	if fbFields := payload["feedback"].GetStructValue().GetFields(); fbFields != nil {
		fb := &models.FeedbackEntry{
			LoanID:        fbFields["loan_id"].GetStringValue(),
			AIDecision:    fbFields["ai_decision"].GetStringValue(),
			HumanDecision: fbFields["human_decision"].GetStringValue(),
			Rating:        int(fbFields["rating"].GetIntegerValue()),
			Comments:      fbFields["comments"].GetStringValue(),
			AnalystID:     fbFields["analyst_id"].GetStringValue(),
		}
		if ts := fbFields["timestamp"].GetIntegerValue(); ts > 0 {
			fb.Timestamp = time.Unix(ts, 0).UTC()
		}
		meta.Feedback = fb
	}
	return payload["document"].GetStringValue(), meta
}

func strVal(s string) *qdrantclient.Value {
	return &qdrantclient.Value{Kind: &qdrantclient.Value_StringValue{StringValue: s}}
}

func boolVal(b bool) *qdrantclient.Value {
	return &qdrantclient.Value{Kind: &qdrantclient.Value_BoolValue{BoolValue: b}}
}

func doubleVal(f float64) *qdrantclient.Value {
	return &qdrantclient.Value{Kind: &qdrantclient.Value_DoubleValue{DoubleValue: f}}
}

func intVal(i int64) *qdrantclient.Value {
	return &qdrantclient.Value{Kind: &qdrantclient.Value_IntegerValue{IntegerValue: i}}
}
