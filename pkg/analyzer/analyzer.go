// Package analyzer composes classification, retrieval, prompt assembly,
// generation and parsing into the end-to-end loan analysis pipeline.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/andrew/loan-rag/pkg/classify"
	"github.com/andrew/loan-rag/pkg/feedback"
	"github.com/andrew/loan-rag/pkg/llm"
	"github.com/andrew/loan-rag/pkg/models"
	"github.com/andrew/loan-rag/pkg/prompt"
	"github.com/andrew/loan-rag/pkg/vector"
)

// Stage failure reasons. They are carried into the fallback result's
// rationale, never surfaced to the caller.
var (
	// ErrRetrieval marks an embedding or similarity query failure.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrGeneration marks a model invocation failure.
	ErrGeneration = errors.New("generation failed")

	// errNoNeighbors signals an empty similarity result; it demotes the
	// chain to basic without counting as a stage failure.
	errNoNeighbors = errors.New("no similar loans found")
)

// Config tunes the analysis pipeline.
type Config struct {
	// TopK is the number of neighbors retrieved for the contextual
	// prompt's historical section.
	TopK int
	// FeedbackK is the number of feedback-bearing neighbors retrieved
	// for the feedback context.
	FeedbackK int
	// Generation is the sampling configuration for the analysis call.
	Generation llm.ModelConfig
	// CallTimeout bounds each external call independently, so a slow
	// embedding call cannot hold up a downstream fallback path.
	CallTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.TopK <= 0 {
		c.TopK = 3
	}
	if c.FeedbackK <= 0 {
		c.FeedbackK = 5
	}
	if c.Generation == (llm.ModelConfig{}) {
		c.Generation = llm.DefaultModelConfig()
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 2 * time.Minute
	}
	return c
}

// Analyzer runs the degradation chain CONTEXTUAL -> BASIC -> FALLBACK
// for one loan at a time. It holds no mutable state of its own, so
// concurrent Analyze calls for different loans are safe as long as the
// injected clients are.
type Analyzer struct {
	llm      llm.Client
	store    vector.Store // nil disables retrieval and persistence
	feedback *feedback.Builder
	cfg      Config
	logger   *zap.Logger
}

// New creates an Analyzer. store may be nil, in which case every
// analysis is basic and nothing is persisted.
func New(client llm.Client, store vector.Store, cfg Config, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		llm:      client,
		store:    store,
		feedback: feedback.NewBuilder(client, logger),
		cfg:      cfg.withDefaults(),
		logger:   logger.Named("analyzer"),
	}
}

// Analyze produces a structured analysis for the loan. The degradation
// chain moves strictly downward and never retries a failed stage; the
// returned error is non-nil only for a template rendering failure,
// every other failure mode degrades into a usable Analysis. On success
// the loan and its analysis are persisted back into the similarity
// store for future retrieval.
func (a *Analyzer) Analyze(ctx context.Context, rec *models.LoanRecord) (*models.Analysis, error) {
	start := time.Now()
	loanType := classify.Classify(rec, a.logger)

	var analysis *models.Analysis
	var contextualErr error

	if a.hasSimilarLoans(ctx) {
		analysis, contextualErr = a.contextual(ctx, rec, loanType)
		switch {
		case contextualErr == nil:
		case isRenderError(contextualErr):
			return nil, contextualErr
		case errors.Is(contextualErr, errNoNeighbors):
			a.logger.Info("no similar loans found, falling back to basic analysis",
				zap.String("loan_id", rec.ID()))
		default:
			a.logger.Warn("contextual analysis failed, falling back to basic",
				zap.String("loan_id", rec.ID()),
				zap.Error(contextualErr))
		}
	}

	if analysis == nil {
		var basicErr error
		analysis, basicErr = a.basic(ctx, rec, loanType)
		if basicErr != nil {
			if isRenderError(basicErr) {
				return nil, basicErr
			}
			a.logger.Error("basic analysis failed, producing fallback",
				zap.String("loan_id", rec.ID()),
				zap.Error(basicErr))
			analysis = fallbackAnalysis(basicErr)
		}
	}

	analysis.LoanType = loanType
	analysis.ProcessingSeconds = time.Since(start).Seconds()

	a.logger.Info("analysis completed",
		zap.String("loan_id", rec.ID()),
		zap.String("loan_type", string(loanType)),
		zap.String("analysis_type", analysis.AnalysisType),
		zap.Float64("seconds", analysis.ProcessingSeconds))

	a.persist(ctx, rec, analysis)
	return analysis, nil
}

// hasSimilarLoans reports whether the contextual stage should be
// attempted at all. A count failure disables retrieval rather than
// failing the analysis.
func (a *Analyzer) hasSimilarLoans(ctx context.Context) bool {
	if a.store == nil {
		return false
	}
	callCtx, cancel := a.callContext(ctx)
	defer cancel()
	count, err := a.store.Count(callCtx)
	if err != nil {
		a.logger.Warn("similarity store check failed", zap.Error(err))
		return false
	}
	return count > 0
}

func (a *Analyzer) contextual(ctx context.Context, rec *models.LoanRecord, t models.LoanType) (*models.Analysis, error) {
	vec, err := a.embed(ctx, rec)
	if err != nil {
		return nil, err
	}

	neighbors, err := a.query(ctx, vec, a.cfg.TopK, nil)
	if err != nil {
		return nil, err
	}
	if len(neighbors) == 0 {
		return nil, errNoNeighbors
	}

	p, err := prompt.BuildContextual(rec, t, neighbors)
	if err != nil {
		return nil, err
	}
	p = prompt.AppendFeedback(p, a.feedbackSection(ctx, vec))

	raw, err := a.generate(ctx, p)
	if err != nil {
		return nil, err
	}

	analysis := ParseResponse(raw, neighbors)
	analysis.AnalysisType = models.AnalysisTypeContextual
	return analysis, nil
}

func (a *Analyzer) basic(ctx context.Context, rec *models.LoanRecord, t models.LoanType) (*models.Analysis, error) {
	p, err := prompt.BuildBasic(rec, t)
	if err != nil {
		return nil, err
	}

	// Feedback from prior human reviews still applies without
	// historical neighbors; losing it is not a reason to degrade.
	if a.store != nil {
		if vec, embedErr := a.embed(ctx, rec); embedErr == nil {
			p = prompt.AppendFeedback(p, a.feedbackSection(ctx, vec))
		} else {
			a.logger.Warn("skipping feedback context", zap.Error(embedErr))
		}
	}

	raw, err := a.generate(ctx, p)
	if err != nil {
		return nil, err
	}

	analysis := ParseResponse(raw, nil)
	analysis.AnalysisType = models.AnalysisTypeBasic
	return analysis, nil
}

// feedbackSection queries feedback-bearing neighbors and renders their
// context block. Failures degrade to an empty section.
func (a *Analyzer) feedbackSection(ctx context.Context, vec []float32) string {
	neighbors, err := a.query(ctx, vec, a.cfg.FeedbackK, vector.WithFeedback())
	if err != nil {
		a.logger.Warn("feedback retrieval failed", zap.Error(err))
		return ""
	}
	return a.feedback.Build(ctx, neighbors)
}

func (a *Analyzer) embed(ctx context.Context, rec *models.LoanRecord) ([]float32, error) {
	doc, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: serializing loan: %w", ErrRetrieval, err)
	}
	callCtx, cancel := a.callContext(ctx)
	defer cancel()
	vec, err := a.llm.EmbedText(callCtx, string(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	return vec, nil
}

func (a *Analyzer) query(ctx context.Context, vec []float32, limit int, filter *vector.Filter) ([]models.SearchResult, error) {
	callCtx, cancel := a.callContext(ctx)
	defer cancel()
	neighbors, err := a.store.Query(callCtx, vec, limit, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	return neighbors, nil
}

func (a *Analyzer) generate(ctx context.Context, p string) (string, error) {
	callCtx, cancel := a.callContext(ctx)
	defer cancel()
	raw, err := a.llm.Generate(callCtx, p, a.cfg.Generation)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return raw, nil
}

// persist stores the analyzed loan back into the similarity store.
// Failure is logged and never affects the returned analysis.
func (a *Analyzer) persist(ctx context.Context, rec *models.LoanRecord, analysis *models.Analysis) {
	if a.store == nil {
		return
	}

	rec.Analysis = analysis
	doc, err := json.Marshal(rec)
	if err != nil {
		a.logger.Error("failed to serialize analyzed loan", zap.Error(err))
		return
	}

	vec, err := a.embed(ctx, rec)
	if err != nil {
		a.logger.Error("failed to embed analyzed loan", zap.Error(err))
		return
	}

	callCtx, cancel := a.callContext(ctx)
	defer cancel()
	err = a.store.Upsert(callCtx, models.SimilarityRecord{
		ID:        rec.ID(),
		Embedding: vec,
		Document:  string(doc),
		Metadata: models.SimilarityMetadata{
			LoanID:            rec.ID(),
			HasFeedback:       false,
			AgentDecision:     analysis.Recommendation,
			AnalysisType:      analysis.AnalysisType,
			ProcessingSeconds: analysis.ProcessingSeconds,
			Timestamp:         time.Now().UTC(),
		},
	})
	if err != nil {
		a.logger.Error("failed to store analyzed loan",
			zap.String("loan_id", rec.ID()),
			zap.Error(err))
		return
	}
	a.logger.Debug("stored analyzed loan", zap.String("loan_id", rec.ID()))
}

func (a *Analyzer) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.cfg.CallTimeout)
}

func isRenderError(err error) bool {
	var renderErr *prompt.RenderError
	return errors.As(err, &renderErr)
}

// fallbackAnalysis is the degenerate result produced when both the
// contextual and basic stages failed. It never raises.
func fallbackAnalysis(cause error) *models.Analysis {
	return &models.Analysis{
		Summary:        "Analysis failed due to system error",
		Recommendation: models.RecommendationReview,
		Rationale:      []string{cause.Error()},
		KeyFindings:    []string{"System error occurred during analysis"},
		Conditions:     []string{},
		AnalysisType:   models.AnalysisTypeFallback,
	}
}
