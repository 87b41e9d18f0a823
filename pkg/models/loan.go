package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// LoanType classifies a loan application and selects the specialized
// prompt template used to analyze it.
type LoanType string

const (
	LoanTypeLargeCommercial LoanType = "large_commercial"
	LoanTypeAgricultural    LoanType = "agricultural"
	LoanTypeMortgage        LoanType = "mortgage"
	LoanTypePersonal        LoanType = "personal"
	LoanTypeStandard        LoanType = "standard"
)

// Valid reports whether t is one of the known loan types.
func (t LoanType) Valid() bool {
	switch t {
	case LoanTypeLargeCommercial, LoanTypeAgricultural, LoanTypeMortgage,
		LoanTypePersonal, LoanTypeStandard:
		return true
	}
	return false
}

// LoanRecord is the immutable input to the analysis pipeline. The JSON
// shape matches the documents persisted in the similarity store, so a
// stored neighbor can be decoded back into a LoanRecord.
type LoanRecord struct {
	CustomerInfo   CustomerInfo   `json:"customer_info"`
	LoanInfo       LoanInfo       `json:"loan_info"`
	RiskAssessment RiskAssessment `json:"risk_assessment"`

	// Analysis is attached by the orchestrator after a successful run.
	// It is the only field the pipeline ever writes.
	Analysis *Analysis `json:"llm_analysis,omitempty"`
}

// ID returns the loan identifier, or "unknown" when absent.
func (r *LoanRecord) ID() string {
	if r == nil || r.LoanInfo.BasicInfo.LoanID == "" {
		return "unknown"
	}
	return r.LoanInfo.BasicInfo.LoanID
}

// CustomerInfo holds the applicant's identity and demographics.
type CustomerInfo struct {
	Name         string       `json:"name"`
	Demographics Demographics `json:"demographics"`
	UDFGroups    []UDFGroup   `json:"udf_data,omitempty"`
}

// Demographics are optional descriptive fields. A zero Age means the
// field was not provided.
type Demographics struct {
	Age           int    `json:"age,omitempty"`
	Gender        string `json:"gender,omitempty"`
	MaritalStatus string `json:"marital_status,omitempty"`
}

// UDFGroup is a named group of arbitrary user-defined fields carried
// through from the loan origination system.
type UDFGroup struct {
	GroupName string     `json:"userDefinedFieldGroupName"`
	Fields    []UDFField `json:"udfGroupeFieldsModels"`
}

// UDFField is a single user-defined field. Value may be any JSON scalar.
type UDFField struct {
	FieldName string `json:"fieldName"`
	Value     any    `json:"value"`
}

// LoanInfo groups the loan's product identity and financial terms.
type LoanInfo struct {
	BasicInfo  BasicInfo  `json:"basic_info"`
	Financials Financials `json:"financials"`
}

// BasicInfo identifies the loan and its product.
type BasicInfo struct {
	LoanID  string `json:"loan_id"`
	Product string `json:"product"`

	// LoanTypeHint optionally pins the classification. When set to a
	// valid LoanType it takes precedence over the derivation rules.
	LoanTypeHint LoanType `json:"loan_type,omitempty"`
}

// Financials are the loan's monetary terms.
type Financials struct {
	LoanAmount           float64 `json:"loan_amount"`
	Currency             string  `json:"currency"`
	PersonalContribution float64 `json:"personal_contribution"`
	MonthlyPayment       float64 `json:"monthly_payment"`
	AssetsTotal          float64 `json:"assets_total"`
	APR                  float64 `json:"apr"`
	InterestRate         float64 `json:"interest_rate"`
	TermMonths           int     `json:"term_months"`
}

// RiskAssessment holds the scored risk indicators for a loan.
type RiskAssessment struct {
	TotalScore float64      `json:"total_score"`
	Indicators IndicatorMap `json:"indicators,omitempty"`
}

// RiskIndicator is one scored risk factor.
type RiskIndicator struct {
	Factor    string  `json:"-"`
	Value     string  `json:"value"`
	Score     float64 `json:"score"`
	RiskLevel string  `json:"risk_level"`
}

// IndicatorMap is an ordered set of risk indicators. On the wire it is a
// JSON object keyed by factor name; insertion order is preserved so the
// rendered risk table matches the order the indicators were produced in.
type IndicatorMap []RiskIndicator

// MarshalJSON emits the indicators as a JSON object in slice order.
func (m IndicatorMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ind := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(ind.Factor)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(ind)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object while preserving key order.
func (m *IndicatorMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("indicators: expected JSON object, got %v", tok)
	}

	out := IndicatorMap{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("indicators: expected string key, got %v", keyTok)
		}
		var ind RiskIndicator
		if err := dec.Decode(&ind); err != nil {
			return fmt.Errorf("indicators: decoding %q: %w", key, err)
		}
		ind.Factor = key
		out = append(out, ind)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = out
	return nil
}

// FeedbackEntry is a human reviewer's correction of a prior AI
// recommendation. Created once, immutable afterwards, at most one per
// loan.
type FeedbackEntry struct {
	LoanID        string    `json:"loan_id"`
	AIDecision    string    `json:"ai_decision,omitempty"`
	HumanDecision string    `json:"human_decision"`
	Rating        int       `json:"rating"`
	Comments      string    `json:"comments"`
	AnalystID     string    `json:"analyst_id"`
	Timestamp     time.Time `json:"timestamp"`
}
