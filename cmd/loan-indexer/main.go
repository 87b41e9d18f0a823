package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/andrew/loan-rag/pkg/config"
	"github.com/andrew/loan-rag/pkg/llm"
	"github.com/andrew/loan-rag/pkg/models"
	"github.com/andrew/loan-rag/pkg/setup"
	"github.com/andrew/loan-rag/pkg/vector"
)

var (
	configPath = flag.String("config", "config.yaml", "Path to the configuration file")
	loanDir    = flag.String("loan-dir", "", "Directory containing historical loan JSON files (required)")
	verbose    = flag.Bool("verbose", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	if *loanDir == "" {
		fmt.Fprintln(os.Stderr, "Usage: loan-indexer -loan-dir ./history [-config config.yaml]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(context.Background(), logger); err != nil {
		logger.Fatal("indexing failed", zap.Error(err))
	}
}

func run(ctx context.Context, logger *zap.Logger) error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	files, err := loanFiles(*loanDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no loan JSON files found under %s", *loanDir)
	}
	fmt.Printf("Indexing %d loan files into collection %q\n", len(files), cfg.Vector.Collection)

	// Indexed vectors must come from the same provider and land in the
	// same store the analyzer queries, or retrieval silently degrades.
	client, err := setup.NewClient(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	store, err := setup.NewPersistentStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	indexed := 0
	for i, path := range files {
		fmt.Printf("[%d/%d] %s\n", i+1, len(files), filepath.Base(path))
		if err := indexLoan(ctx, client, store, path, logger); err != nil {
			logger.Warn("skipping loan file", zap.String("path", path), zap.Error(err))
			continue
		}
		indexed++
	}

	fmt.Printf("%s indexed %d of %d loans\n", color.GreenString("Done:"), indexed, len(files))
	return nil
}

func indexLoan(ctx context.Context, client llm.Client, store vector.Store, path string, logger *zap.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var rec models.LoanRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("failed to parse loan: %w", err)
	}

	// Re-serialize so the stored document matches what the analyzer
	// persists, regardless of formatting in the source file.
	doc, err := json.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("failed to serialize loan: %w", err)
	}

	vec, err := client.EmbedText(ctx, string(doc))
	if err != nil {
		return fmt.Errorf("failed to embed loan: %w", err)
	}

	meta := models.SimilarityMetadata{
		LoanID:    rec.ID(),
		Timestamp: time.Now().UTC(),
	}
	if rec.Analysis != nil {
		meta.AgentDecision = rec.Analysis.Recommendation
		meta.AnalysisType = rec.Analysis.AnalysisType
		meta.ProcessingSeconds = rec.Analysis.ProcessingSeconds
	}

	if err := store.Upsert(ctx, models.SimilarityRecord{
		ID:        rec.ID(),
		Embedding: vec,
		Document:  string(doc),
		Metadata:  meta,
	}); err != nil {
		return fmt.Errorf("failed to store loan: %w", err)
	}

	logger.Debug("loan indexed", zap.String("loan_id", rec.ID()))
	return nil
}

func loanFiles(root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if filepath.Ext(path) == ".json" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
