package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/andrew/loan-rag/pkg/analyzer"
	"github.com/andrew/loan-rag/pkg/config"
	"github.com/andrew/loan-rag/pkg/llm"
	"github.com/andrew/loan-rag/pkg/models"
	"github.com/andrew/loan-rag/pkg/setup"
)

var (
	configPath = flag.String("config", "config.yaml", "Path to the configuration file")
	inputPath  = flag.String("input", "", "Path to the loan application JSON file (required)")
	outputPath = flag.String("output", "", "Write the full analysis JSON to this file instead of stdout")
	verbose    = flag.Bool("verbose", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: loan-analyzer -input loan.json [-config config.yaml]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	logger := newLogger(*verbose)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupts
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Println("\nShutting down...")
		cancel()
	}()

	if err := run(ctx, logger); err != nil {
		logger.Fatal("analysis failed", zap.Error(err))
	}
}

func run(ctx context.Context, logger *zap.Logger) error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	rec, err := readLoan(*inputPath)
	if err != nil {
		return err
	}

	client, err := setup.NewClient(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	store, err := setup.NewStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	a := analyzer.New(client, store, analyzer.Config{
		TopK:      cfg.Analysis.TopK,
		FeedbackK: cfg.Analysis.FeedbackK,
		Generation: llm.ModelConfig{
			Temperature:   cfg.Analysis.Temperature,
			ContextWindow: cfg.Analysis.ContextWindow,
			MaxTokens:     cfg.Analysis.MaxTokens,
		},
		CallTimeout: cfg.Analysis.CallTimeout,
	}, logger)

	analysis, err := a.Analyze(ctx, rec)
	if err != nil {
		return err
	}

	printSummary(rec, analysis)
	return writeAnalysis(analysis, *outputPath)
}

func newLogger(verbose bool) *zap.Logger {
	var logger *zap.Logger
	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func readLoan(path string) (*models.LoanRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read loan file: %w", err)
	}
	var rec models.LoanRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse loan file: %w", err)
	}
	return &rec, nil
}

func printSummary(rec *models.LoanRecord, analysis *models.Analysis) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Printf("\n%s %s\n", bold("Loan:"), rec.ID())
	fmt.Printf("%s %s (%s analysis)\n", bold("Type:"), analysis.LoanType, analysis.AnalysisType)
	fmt.Printf("%s %s\n", bold("Recommendation:"), colorRecommendation(analysis.Recommendation))
	fmt.Printf("%s %s\n", bold("Summary:"), analysis.Summary)

	if len(analysis.Rationale) > 0 {
		fmt.Println(bold("Rationale:"))
		for _, r := range analysis.Rationale {
			fmt.Printf("  - %s\n", r)
		}
	}
	if len(analysis.Conditions) > 0 {
		fmt.Println(bold("Conditions:"))
		for _, c := range analysis.Conditions {
			fmt.Printf("  - %s\n", c)
		}
	}
	if analysis.RAGContext != nil {
		fmt.Printf("%s %d similar historical cases considered\n",
			bold("Context:"), len(analysis.RAGContext.SimilarCases))
	}
	fmt.Printf("%s %.2fs\n\n", bold("Elapsed:"), analysis.ProcessingSeconds)
}

func colorRecommendation(rec string) string {
	switch strings.ToLower(rec) {
	case models.RecommendationApprove:
		return color.GreenString(strings.ToUpper(rec))
	case models.RecommendationDeny:
		return color.RedString(strings.ToUpper(rec))
	default:
		return color.YellowString(strings.ToUpper(rec))
	}
}

func writeAnalysis(analysis *models.Analysis, path string) error {
	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize analysis: %w", err)
	}
	if path == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write analysis: %w", err)
	}
	return nil
}
