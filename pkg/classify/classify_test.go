package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/andrew/loan-rag/pkg/models"
)

func loanWith(product string, amount float64) *models.LoanRecord {
	rec := &models.LoanRecord{}
	rec.LoanInfo.BasicInfo.LoanID = "L-1"
	rec.LoanInfo.BasicInfo.Product = product
	rec.LoanInfo.Financials.LoanAmount = amount
	return rec
}

func TestClassify(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name    string
		product string
		amount  float64
		want    models.LoanType
	}{
		{"agricultural keyword beats large amount", "Credit Agricole Bovine", 500_000, models.LoanTypeAgricultural},
		{"agricultural keyword beats small amount", "culture maraichere", 1_000, models.LoanTypeAgricultural},
		{"mortgage keyword", "Credit Immobilier", 80_000, models.LoanTypeMortgage},
		{"mortgage keyword beats threshold", "Achat Maison", 250_000, models.LoanTypeMortgage},
		{"large commercial above threshold", "Credit Entreprise", 100_001, models.LoanTypeLargeCommercial},
		{"personal at threshold", "Credit Conso", 50_000, models.LoanTypePersonal},
		{"personal small amount", "Credit Conso", 12_000, models.LoanTypePersonal},
		{"standard in between", "Credit Equipement", 60_000, models.LoanTypeStandard},
		{"standard at commercial threshold", "Credit Equipement", 100_000, models.LoanTypeStandard},
		{"keyword match is case insensitive", "ZIRAATI", 60_000, models.LoanTypeAgricultural},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(loanWith(tt.product, tt.amount), logger)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyFailsSoft(t *testing.T) {
	logger := zap.NewNop()

	assert.Equal(t, models.LoanTypeStandard, Classify(nil, logger))

	// Missing amount and product should not panic or misclassify as personal.
	assert.Equal(t, models.LoanTypeStandard, Classify(&models.LoanRecord{}, logger))
}

func TestClassifyHint(t *testing.T) {
	logger := zap.NewNop()

	rec := loanWith("Credit Conso", 10_000)
	rec.LoanInfo.BasicInfo.LoanTypeHint = models.LoanTypeMortgage
	assert.Equal(t, models.LoanTypeMortgage, Classify(rec, logger))

	rec.LoanInfo.BasicInfo.LoanTypeHint = "boat"
	assert.Equal(t, models.LoanTypePersonal, Classify(rec, logger))
}
