// Package prompt renders loan-type-specialized analysis prompts.
package prompt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/andrew/loan-rag/pkg/models"
)

// historicalCaseLimit caps how many neighbors the contextual prompt cites.
const historicalCaseLimit = 3

// topRiskScore is the indicator score above which a factor is listed as
// a top risk in a historical case block.
const topRiskScore = 10

// RenderError reports a template placeholder with no bound value.
// Rendering is validated before any external call is made, so a
// RenderError always surfaces before the model is invoked.
type RenderError struct {
	LoanType    models.LoanType
	Placeholder string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("prompt: template for %q references unbound placeholder {%s}", e.LoanType, e.Placeholder)
}

// Fields carries the named values substituted into a template. All
// values are pre-formatted strings; FieldsFromRecord applies the
// defaults ("N/A" for demographics, 0 for numerics).
type Fields struct {
	CustomerName   string
	CustomerAge    string
	CustomerGender string
	MaritalStatus  string

	LoanAmount           string
	Currency             string
	PersonalContribution string
	MonthlyPayment       string
	AssetsTotal          string
	APR                  string
	InterestRate         string
	TermMonths           string

	TotalScore string
	RiskTable  string
	UDFData    string
}

func (f Fields) bindings() map[string]string {
	return map[string]string{
		"customer_name":         f.CustomerName,
		"customer_age":          f.CustomerAge,
		"customer_gender":       f.CustomerGender,
		"marital_status":        f.MaritalStatus,
		"loan_amount":           f.LoanAmount,
		"currency":              f.Currency,
		"personal_contribution": f.PersonalContribution,
		"monthly_payment":       f.MonthlyPayment,
		"assets_total":          f.AssetsTotal,
		"apr":                   f.APR,
		"interest_rate":         f.InterestRate,
		"term_months":           f.TermMonths,
		"total_score":           f.TotalScore,
		"risk_table":            f.RiskTable,
		"udf_data":              f.UDFData,
	}
}

var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// Render substitutes fields into the template for the given loan type.
// It fails if the template references a placeholder Fields does not bind.
func Render(t models.LoanType, fields Fields) (string, error) {
	return renderTemplate(t, Template(t), fields.bindings())
}

func renderTemplate(t models.LoanType, tmpl string, vars map[string]string) (string, error) {
	var missing string
	out := placeholderPattern.ReplaceAllStringFunc(tmpl, func(tok string) string {
		name := tok[1 : len(tok)-1]
		val, ok := vars[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return tok
		}
		return val
	})
	if missing != "" {
		return "", &RenderError{LoanType: t, Placeholder: missing}
	}
	return out, nil
}

// FieldsFromRecord extracts template fields from a loan record,
// applying the documented defaults for absent values.
func FieldsFromRecord(rec *models.LoanRecord) Fields {
	fin := rec.LoanInfo.Financials
	demo := rec.CustomerInfo.Demographics

	currency := fin.Currency
	if currency == "" {
		currency = "TND"
	}

	return Fields{
		CustomerName:   orNA(rec.CustomerInfo.Name),
		CustomerAge:    intOrNA(demo.Age),
		CustomerGender: orNA(demo.Gender),
		MaritalStatus:  orNA(demo.MaritalStatus),

		LoanAmount:           formatNumber(fin.LoanAmount),
		Currency:             currency,
		PersonalContribution: formatNumber(fin.PersonalContribution),
		MonthlyPayment:       formatNumber(fin.MonthlyPayment),
		AssetsTotal:          formatNumber(fin.AssetsTotal),
		APR:                  formatNumber(fin.APR),
		InterestRate:         formatNumber(fin.InterestRate),
		TermMonths:           strconv.Itoa(fin.TermMonths),

		TotalScore: formatNumber(rec.RiskAssessment.TotalScore),
		RiskTable:  riskTable(rec.RiskAssessment.Indicators),
		UDFData:    udfSection(rec.CustomerInfo.UDFGroups),
	}
}

// BuildBasic renders the base prompt for a loan without any historical
// context.
func BuildBasic(rec *models.LoanRecord, t models.LoanType) (string, error) {
	return Render(t, FieldsFromRecord(rec))
}

// BuildContextual renders the base prompt extended with a historical
// cases section and a loan-type-specific comparative-analysis section.
// Neighbors that fail to decode are skipped.
func BuildContextual(rec *models.LoanRecord, t models.LoanType, neighbors []models.SearchResult) (string, error) {
	base, err := BuildBasic(rec, t)
	if err != nil {
		return "", err
	}

	var cases []string
	for i, n := range neighbors {
		if len(cases) >= historicalCaseLimit {
			break
		}
		var doc models.LoanRecord
		if err := json.Unmarshal([]byte(n.Document), &doc); err != nil {
			continue
		}

		decision := "N/A"
		conditions := 0
		if doc.Analysis != nil {
			if doc.Analysis.Recommendation != "" {
				decision = strings.ToUpper(doc.Analysis.Recommendation)
			}
			conditions = len(doc.Analysis.Conditions)
		}

		var topRisks []string
		for _, ind := range doc.RiskAssessment.Indicators {
			if ind.Score > topRiskScore {
				topRisks = append(topRisks, fmt.Sprintf("%s (Score: %s)", ind.Factor, formatNumber(ind.Score)))
			}
		}
		risks := "None"
		if len(topRisks) > 0 {
			risks = strings.Join(topRisks, ", ")
		}

		cases = append(cases, fmt.Sprintf(
			"Case %d:\n"+
				"- Customer: %s\n"+
				"- Amount: %s (%s)\n"+
				"- Risk Score: %s\n"+
				"- Top Risks: %s\n"+
				"- Conditions Applied: %d",
			i+1,
			orNA(doc.CustomerInfo.Name),
			formatNumber(doc.LoanInfo.Financials.LoanAmount), decision,
			formatNumber(doc.RiskAssessment.TotalScore),
			risks,
			conditions,
		))
	}

	historical := "No sufficiently similar historical cases"
	if len(cases) > 0 {
		historical = strings.Join(cases, "\n")
	}

	instruction, ok := comparativeInstructions[t]
	if !ok {
		instruction = comparativeInstructions[models.LoanTypeStandard]
	}

	return fmt.Sprintf(`%s

=== HISTORICAL CONTEXT ===

Consider these similar historical cases in your analysis:
%s

=== %s SPECIFIC COMPARATIVE ANALYSIS ===

%s

1. Significant deviations from historical patterns (>20%% difference)
2. Emerging risks not present in historical cases
3. Improved risk factors compared to history
4. Consistency with past decision patterns for similar %s loans

=== UPDATED RESPONSE FORMAT ===
Add this field to your JSON response:
{
    "comparative_analysis": [
        "Key difference 1 with historical context",
        "Key difference 2 with trend analysis"
    ],
    "loan_type_specific_insights": [
        "Specialized insight 1 for %s loans",
        "Specialized insight 2 for %s loans"
    ]
}

Maintain all other fields from the basic analysis format.
`, base, historical, strings.ToUpper(string(t)), instruction, t, t, t), nil
}

// AppendFeedback extends a prompt with the feedback context produced by
// the feedback builder. An empty section returns the prompt unchanged.
func AppendFeedback(p, feedbackSection string) string {
	if feedbackSection == "" {
		return p
	}
	return p + "\n\n=== RELEVANT FEEDBACK FROM SIMILAR CASES ===\n" +
		feedbackSection +
		"\n\nPlease carefully apply these lessons to your current analysis. " +
		"Pay special attention to any inconsistencies or patterns mentioned in the feedback."
}

// riskTable renders the indicators as a fixed-column markdown table in
// insertion order.
func riskTable(indicators models.IndicatorMap) string {
	rows := []string{
		"| Risk Factor | Value | Score | Risk Level |",
		"|------------|-------|-------|------------|",
	}
	for _, ind := range indicators {
		rows = append(rows, fmt.Sprintf("| %s | %s | %s | %s |",
			titleCase(ind.Factor), orNA(ind.Value), formatNumber(ind.Score), orNA(ind.RiskLevel)))
	}
	return strings.Join(rows, "\n")
}

func udfSection(groups []models.UDFGroup) string {
	var b strings.Builder
	for _, g := range groups {
		if len(g.Fields) == 0 {
			continue
		}
		b.WriteString("\n" + g.GroupName + ":")
		for _, f := range g.Fields {
			name := f.FieldName
			if name == "" {
				name = "Unknown"
			}
			val := "N/A"
			if f.Value != nil {
				val = fmt.Sprint(f.Value)
			}
			b.WriteString("\n- " + name + ": " + val)
		}
	}
	if b.Len() == 0 {
		return "None"
	}
	return b.String()
}

// titleCase turns an indicator key like "debt_to_income" into
// "Debt To Income".
func titleCase(field string) string {
	words := strings.Split(strings.ReplaceAll(field, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func intOrNA(v int) string {
	if v == 0 {
		return "N/A"
	}
	return strconv.Itoa(v)
}
