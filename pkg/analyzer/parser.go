package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/andrew/loan-rag/pkg/models"
)

// maxRawSummary caps how much raw model output is carried into the
// summary of an unparseable response.
const maxRawSummary = 500

// ParseResponse extracts a structured analysis from raw model output.
// It takes the substring between the first '{' and the last '}' and is
// tolerant of anything the model wraps around it. Parsing never fails:
// malformed output degrades into an analysis that carries the raw text
// and asks for human review.
func ParseResponse(raw string, neighbors []models.SearchResult) *models.Analysis {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return unparsed(raw)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return unparsed(raw)
	}

	analysis := &models.Analysis{
		Summary:        stringField(payload, "summary", "No summary provided"),
		Recommendation: strings.ToLower(stringField(payload, "recommendation", models.RecommendationReview)),
		Rationale:      listField(payload, "rationale"),
		KeyFindings:    listField(payload, "key_findings"),
		Conditions:     listField(payload, "conditions"),

		CommercialAnalysis:   optionalListField(payload, "commercial_analysis"),
		AgriculturalAnalysis: optionalListField(payload, "agricultural_analysis"),
		PersonalAnalysis:     optionalListField(payload, "personal_analysis"),
		MortgageAnalysis:     optionalListField(payload, "mortgage_analysis"),
		DataMismatches:       optionalListField(payload, "data_mismatches"),
		ComparativeAnalysis:  optionalListField(payload, "comparative_analysis"),
		LoanTypeInsights:     optionalListField(payload, "loan_type_specific_insights"),
	}

	if len(neighbors) > 0 {
		analysis.RAGContext = &models.RAGContext{SimilarCases: similarCases(neighbors)}
	}
	return analysis
}

func unparsed(raw string) *models.Analysis {
	summary := raw
	if len(summary) > maxRawSummary {
		// Back off to a rune boundary so the cut never leaves a
		// partial UTF-8 sequence in the summary.
		cut := maxRawSummary
		for cut > 0 && !utf8.RuneStart(summary[cut]) {
			cut--
		}
		summary = summary[:cut]
	}
	return &models.Analysis{
		Summary:        summary,
		Recommendation: models.RecommendationReview,
		Rationale:      []string{"Could not parse model response"},
		KeyFindings:    []string{},
		Conditions:     []string{},
	}
}

// similarCases re-parses each neighbor document to surface a compact
// view of the historical case. Neighbors that fail to decode are
// skipped, not fatal.
func similarCases(neighbors []models.SearchResult) []models.SimilarCase {
	cases := make([]models.SimilarCase, 0, len(neighbors))
	for _, n := range neighbors {
		var doc models.LoanRecord
		if err := json.Unmarshal([]byte(n.Document), &doc); err != nil {
			continue
		}

		decision := n.Metadata.AgentDecision
		if doc.Analysis != nil && doc.Analysis.Recommendation != "" {
			decision = doc.Analysis.Recommendation
		}
		if decision == "" {
			decision = "N/A"
		}

		customer := doc.CustomerInfo.Name
		if customer == "" {
			customer = "Unknown"
		}

		cases = append(cases, models.SimilarCase{
			Customer:   customer,
			Amount:     doc.LoanInfo.Financials.LoanAmount,
			Score:      doc.RiskAssessment.TotalScore,
			Decision:   decision,
			Similarity: n.Similarity(),
		})
	}
	return cases
}

func stringField(payload map[string]any, key, fallback string) string {
	if v, ok := payload[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

// listField normalizes a scalar-or-list field: a single string becomes
// a one-element list, any other list has each element stringified, and
// an absent field defaults to empty.
func listField(payload map[string]any, key string) []string {
	v, ok := payload[key]
	if !ok || v == nil {
		return []string{}
	}
	switch val := v.(type) {
	case string:
		return []string{val}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprint(item))
			}
		}
		return out
	default:
		return []string{fmt.Sprint(val)}
	}
}

// optionalListField is listField for extension fields that should stay
// nil (and be omitted from JSON) when absent.
func optionalListField(payload map[string]any, key string) []string {
	if _, ok := payload[key]; !ok {
		return nil
	}
	return listField(payload, key)
}
