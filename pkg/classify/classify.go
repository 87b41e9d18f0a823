// Package classify derives a loan type from product metadata and amount.
package classify

import (
	"strings"

	"go.uber.org/zap"

	"github.com/andrew/loan-rag/pkg/models"
)

// Amount thresholds in currency units.
const (
	largeCommercialThreshold = 100_000
	personalThreshold        = 50_000
)

// Product keywords checked before any amount rule. Domain signals in the
// product description are a stronger indicator than loan size alone.
var (
	agriculturalKeywords = []string{"agricol", "ziraati", "bovine", "ovine", "culture"}
	mortgageKeywords     = []string{"immobilier", "logement", "maison"}
)

// Classify derives the loan type for a record. Rules are evaluated in
// fixed priority order, first match wins:
//
//  1. agricultural product keyword
//  2. mortgage/housing product keyword
//  3. amount above the large-commercial threshold
//  4. amount at or below the personal threshold
//  5. standard
//
// A valid loan-type hint on the record short-circuits the rules. On a
// missing or malformed record, Classify logs and returns standard.
func Classify(rec *models.LoanRecord, logger *zap.Logger) models.LoanType {
	if rec == nil {
		logger.Warn("classify: nil loan record, defaulting to standard")
		return models.LoanTypeStandard
	}

	if hint := rec.LoanInfo.BasicInfo.LoanTypeHint; hint != "" {
		if hint.Valid() {
			return hint
		}
		logger.Warn("classify: ignoring unknown loan type hint",
			zap.String("loan_id", rec.ID()),
			zap.String("hint", string(hint)))
	}

	product := strings.ToLower(rec.LoanInfo.BasicInfo.Product)
	for _, kw := range agriculturalKeywords {
		if strings.Contains(product, kw) {
			return models.LoanTypeAgricultural
		}
	}
	for _, kw := range mortgageKeywords {
		if strings.Contains(product, kw) {
			return models.LoanTypeMortgage
		}
	}

	amount := rec.LoanInfo.Financials.LoanAmount
	if amount <= 0 {
		logger.Warn("classify: missing loan amount, defaulting to standard",
			zap.String("loan_id", rec.ID()))
		return models.LoanTypeStandard
	}
	if amount > largeCommercialThreshold {
		return models.LoanTypeLargeCommercial
	}
	if amount <= personalThreshold {
		return models.LoanTypePersonal
	}
	return models.LoanTypeStandard
}
