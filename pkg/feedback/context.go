// Package feedback turns human-reviewed neighbor cases into prompt
// context that biases future analyses.
package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/andrew/loan-rag/pkg/llm"
	"github.com/andrew/loan-rag/pkg/models"
)

// Rating thresholds for the editorial tags appended to a case block.
const (
	reliableRating = 4
	cautionRating  = 2
)

// Builder extracts and ranks human-feedback entries from neighbor
// search results and renders them into a context block. When a
// generation client is configured, the block is led by a distilled
// summary of the feedback.
type Builder struct {
	llm    llm.Client
	logger *zap.Logger
}

// NewBuilder creates a Builder. client may be nil, in which case the
// raw case blocks are returned without distillation.
func NewBuilder(client llm.Client, logger *zap.Logger) *Builder {
	return &Builder{llm: client, logger: logger.Named("feedback")}
}

// Build renders the feedback context for a set of neighbors. It returns
// the empty string when no neighbor carries usable feedback; callers
// treat empty as "omit this section", not as a failure.
func (b *Builder) Build(ctx context.Context, neighbors []models.SearchResult) string {
	entries := b.caseBlocks(neighbors)
	if len(entries) == 0 {
		return ""
	}

	joined := strings.Join(entries, "\n")
	if b.llm == nil {
		return joined
	}

	summary, err := b.distill(ctx, joined)
	if err != nil {
		b.logger.Warn("feedback distillation failed, using raw cases", zap.Error(err))
		return joined
	}
	return "FEEDBACK SUMMARY:\n" + summary + "\n\nDETAILED FEEDBACK CASES:\n" + joined
}

// caseBlocks renders one block per feedback-bearing neighbor. Neighbors
// without feedback, without comments, or with undecodable documents are
// skipped.
func (b *Builder) caseBlocks(neighbors []models.SearchResult) []string {
	var entries []string
	for i, n := range neighbors {
		fb := n.Metadata.Feedback
		if !n.Metadata.HasFeedback || fb == nil || fb.Comments == "" {
			continue
		}

		var doc models.LoanRecord
		if err := json.Unmarshal([]byte(n.Document), &doc); err != nil {
			b.logger.Warn("skipping feedback entry with undecodable document",
				zap.String("loan_id", n.Metadata.LoanID),
				zap.Error(err))
			continue
		}

		var block strings.Builder
		fmt.Fprintf(&block, "\n--- SIMILAR CASE %d (Similarity: %.2f) ---\n", i+1, n.Similarity())
		fmt.Fprintf(&block, "Customer: %s\n", valueOr(doc.CustomerInfo.Name, "Unknown"))
		fmt.Fprintf(&block, "Loan Amount: %g\n", doc.LoanInfo.Financials.LoanAmount)
		fmt.Fprintf(&block, "AI Recommendation: %s\n", valueOr(n.Metadata.AgentDecision, "N/A"))
		fmt.Fprintf(&block, "Human Decision: %s\n", valueOr(fb.HumanDecision, "N/A"))
		fmt.Fprintf(&block, "Feedback Rating: %d/5\n", fb.Rating)
		fmt.Fprintf(&block, "Key Feedback: %s\n", fb.Comments)

		switch {
		case fb.Rating >= reliableRating:
			block.WriteString("RELIABLE GUIDANCE: This feedback was highly rated - apply these insights\n")
		case fb.Rating <= cautionRating:
			block.WriteString("CAUTION: This feedback indicates issues with the AI analysis\n")
		}

		entries = append(entries, block.String())
	}
	return entries
}

// distill asks the generation model to compress the feedback cases into
// a handful of actionable insights at low temperature.
func (b *Builder) distill(ctx context.Context, cases string) (string, error) {
	prompt := "Based on the following feedback from similar loan cases, extract the most important " +
		"actionable insights and patterns that should be applied to future analyses:\n\n" +
		cases +
		"\n\nProvide 3-5 specific, actionable insights in bullet points:"

	return b.llm.Generate(ctx, prompt, llm.DistillationConfig())
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
