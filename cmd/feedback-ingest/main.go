package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/andrew/loan-rag/pkg/config"
	"github.com/andrew/loan-rag/pkg/models"
	"github.com/andrew/loan-rag/pkg/setup"
	"github.com/andrew/loan-rag/pkg/vector"
)

var (
	configPath = flag.String("config", "config.yaml", "Path to the configuration file")
	loanID     = flag.String("loan-id", "", "Loan identifier to attach feedback to (required)")
	decision   = flag.String("decision", "", "Human reviewer decision: approve, deny or review (required)")
	rating     = flag.Int("rating", 3, "Reviewer rating of the AI recommendation, 1-5")
	comments   = flag.String("comments", "", "Reviewer comments")
	analystID  = flag.String("analyst", "", "Identifier of the reviewing analyst")
)

func main() {
	flag.Parse()

	if *loanID == "" || *decision == "" {
		fmt.Fprintln(os.Stderr, "Usage: feedback-ingest -loan-id L-42 -decision deny [-rating 2] [-comments ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if !validDecision(*decision) {
		fmt.Fprintln(os.Stderr, "decision must be approve, deny or review")
		os.Exit(2)
	}
	if *rating < 1 || *rating > 5 {
		fmt.Fprintln(os.Stderr, "rating must be between 1 and 5")
		os.Exit(2)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(context.Background(), logger); err != nil {
		logger.Fatal("feedback ingestion failed", zap.Error(err))
	}
}

func run(ctx context.Context, logger *zap.Logger) error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	store, err := setup.NewPersistentStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Get(ctx, *loanID)
	if err != nil {
		if errors.Is(err, vector.ErrNotFound) {
			return fmt.Errorf("loan %q has not been analyzed yet", *loanID)
		}
		return err
	}

	// One feedback entry per loan; the first review wins.
	if rec.Metadata.HasFeedback {
		fmt.Printf("%s loan %s already has feedback, leaving it unchanged\n",
			color.YellowString("SKIPPED:"), *loanID)
		return nil
	}

	rec.Metadata.HasFeedback = true
	rec.Metadata.Feedback = &models.FeedbackEntry{
		LoanID:        *loanID,
		AIDecision:    rec.Metadata.AgentDecision,
		HumanDecision: strings.ToLower(*decision),
		Rating:        *rating,
		Comments:      *comments,
		AnalystID:     *analystID,
		Timestamp:     time.Now().UTC(),
	}

	if err := store.Upsert(ctx, *rec); err != nil {
		return fmt.Errorf("failed to store feedback: %w", err)
	}

	fmt.Printf("%s feedback recorded for loan %s (rating %d)\n",
		color.GreenString("OK:"), *loanID, *rating)
	return nil
}

// validDecision reports whether d is one of the recommendation values
// the analyzer emits; feedback decisions feed future prompt context and
// must stay within that vocabulary.
func validDecision(d string) bool {
	switch strings.ToLower(d) {
	case models.RecommendationApprove, models.RecommendationDeny, models.RecommendationReview:
		return true
	}
	return false
}
