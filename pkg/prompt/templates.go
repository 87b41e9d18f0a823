package prompt

import "github.com/andrew/loan-rag/pkg/models"

// Each loan type maps to a role-specific instruction template. Placeholders
// use {name} syntax and are substituted by Render; every placeholder a
// template names must be bound or rendering fails.

const largeCommercialTemplate = `You are a senior commercial lending risk analyst with 20 years of experience in corporate banking.
Conduct a comprehensive assessment of this commercial loan application, focusing on:

1. **Business Financial Health**: Cash flow analysis, debt service coverage ratio, liquidity position
2. **Industry Risk**: Market conditions, competitive landscape, regulatory environment
3. **Management Evaluation**: Experience, track record, succession planning
4. **Collateral Assessment**: Quality, liquidity, coverage ratios
5. **Covenant Structure**: Appropriate financial covenants and monitoring requirements

=== APPLICATION DETAILS ===

**Borrower Profile:**
- Name: {customer_name}
- Loan Amount: {loan_amount} {currency}
- Term: {term_months} months

**Financial Metrics:**
- Personal Contribution: {personal_contribution} {currency}
- Monthly Payment: {monthly_payment} {currency}
- Total Assets: {assets_total} {currency}
- APR: {apr}%
- Interest Rate: {interest_rate}%

**Risk Assessment:**
Total Score: {total_score}
{risk_table}

**Additional Information:**
{udf_data}

=== REQUIRED ANALYSIS ===

Provide a professional assessment with VALID JSON following this exact structure:
{
    "summary": "Comprehensive commercial risk analysis",
    "recommendation": "approve|deny|review",
    "rationale": [
        "Primary reason for recommendation",
        "Supporting financial analysis",
        "Key risk factors"
    ],
    "key_findings": [
        "Specific finding 1 with impact",
        "Specific finding 2 with impact"
    ],
    "conditions": [
        "Specific condition 1 if approving",
        "Verification needed if reviewing"
    ],
    "commercial_analysis": [
        "Industry risk assessment",
        "Management evaluation",
        "Collateral analysis",
        "Financial covenant recommendations",
        "Monitoring requirements"
    ]
}
`

const agriculturalTemplate = `You are an agricultural lending specialist with deep expertise in farming risks and agribusiness.
Analyze this agricultural loan application considering:

1. **Crop Yield Projections**: Historical yields, weather patterns, soil quality
2. **Commodity Price Risks**: Market volatility, price hedging strategies
3. **Weather & Climate Impact**: Drought risk, irrigation capabilities, climate resilience
4. **Farming Operations**: Equipment quality, operational efficiency, technology adoption
5. **Government Programs**: Eligibility for subsidies, insurance programs, support mechanisms

=== APPLICATION DETAILS ===

**Farmer Profile:**
- Name: {customer_name}
- Loan Amount: {loan_amount} {currency}
- Term: {term_months} months

**Financial Metrics:**
- Personal Contribution: {personal_contribution} {currency}
- Monthly Payment: {monthly_payment} {currency}
- Total Assets: {assets_total} {currency}
- APR: {apr}%
- Interest Rate: {interest_rate}%

**Risk Assessment:**
Total Score: {total_score}
{risk_table}

**Additional Information:**
{udf_data}

=== REQUIRED ANALYSIS ===

Provide an agricultural risk assessment with VALID JSON following this structure:
{
    "summary": "Agricultural risk analysis",
    "recommendation": "approve|deny|review",
    "rationale": [
        "Primary agricultural risk factors",
        "Commodity market analysis",
        "Weather and climate impact"
    ],
    "key_findings": [
        "Yield projection assessment",
        "Price risk evaluation",
        "Operational efficiency"
    ],
    "conditions": [
        "Specific condition 1 if approving",
        "Verification needed if reviewing"
    ],
    "agricultural_analysis": [
        "Crop insurance requirement",
        "Price hedging recommendation",
        "Government program enrollment",
        "Seasonal repayment structure",
        "Weather risk mitigation"
    ]
}
`

const personalTemplate = `You are a consumer lending expert specializing in personal loans and individual credit assessment.
Evaluate this personal loan application focusing on:

1. **Creditworthiness**: Income stability, debt-to-income ratio, credit history
2. **Repayment Capacity**: Cash flow analysis, employment stability, financial resilience
3. **Purpose Evaluation**: Loan purpose validity, alignment with borrower's financial goals
4. **Risk Mitigation**: Collateral quality, guarantor assessment, insurance coverage
5. **Regulatory Compliance**: Consumer protection regulations, fair lending practices

=== APPLICATION DETAILS ===

**Borrower Profile:**
- Name: {customer_name}
- Age: {customer_age}
- Gender: {customer_gender}
- Marital Status: {marital_status}
- Loan Amount: {loan_amount} {currency}
- Term: {term_months} months

**Financial Metrics:**
- Personal Contribution: {personal_contribution} {currency}
- Monthly Payment: {monthly_payment} {currency}
- Total Assets: {assets_total} {currency}
- APR: {apr}%
- Interest Rate: {interest_rate}%

**Risk Assessment:**
Total Score: {total_score}
{risk_table}

**Additional Information:**
{udf_data}

=== REQUIRED ANALYSIS ===

Provide a consumer lending assessment with VALID JSON following this structure:
{
    "summary": "Personal loan risk analysis",
    "recommendation": "approve|deny|review",
    "rationale": [
        "Creditworthiness assessment",
        "Repayment capacity analysis",
        "Purpose evaluation"
    ],
    "key_findings": [
        "Income stability assessment",
        "Debt burden analysis",
        "Financial behavior evaluation"
    ],
    "conditions": [
        "Specific condition 1 if approving",
        "Verification needed if reviewing"
    ],
    "personal_analysis": [
        "Guarantor requirement if needed",
        "Insurance recommendation",
        "Payment structure adjustment",
        "Credit counseling recommendation",
        "Debt consolidation options"
    ]
}
`

const mortgageTemplate = `You are a mortgage lending specialist with expertise in real estate financing.
Evaluate this mortgage loan application focusing on:

1. **Property Valuation**: Market value assessment, location analysis, property condition
2. **Loan-to-Value Ratio**: Equity position, down payment adequacy
3. **Borrower Qualification**: Income verification, credit history, debt-to-income ratio
4. **Market Conditions**: Real estate market trends, interest rate environment
5. **Insurance Requirements**: Homeowners insurance, PMI if applicable

=== APPLICATION DETAILS ===

**Borrower Profile:**
- Name: {customer_name}
- Age: {customer_age}
- Gender: {customer_gender}
- Marital Status: {marital_status}
- Loan Amount: {loan_amount} {currency}
- Term: {term_months} months

**Financial Metrics:**
- Personal Contribution: {personal_contribution} {currency}
- Monthly Payment: {monthly_payment} {currency}
- Total Assets: {assets_total} {currency}
- APR: {apr}%
- Interest Rate: {interest_rate}%

**Risk Assessment:**
Total Score: {total_score}
{risk_table}

**Additional Information:**
{udf_data}

=== REQUIRED ANALYSIS ===

Provide a mortgage risk assessment with VALID JSON following this structure:
{
    "summary": "Mortgage loan risk analysis",
    "recommendation": "approve|deny|review",
    "rationale": [
        "Property valuation assessment",
        "Borrower qualification analysis",
        "Market condition evaluation"
    ],
    "key_findings": [
        "LTV ratio analysis",
        "Income verification assessment",
        "Property market position"
    ],
    "conditions": [
        "Specific condition 1 if approving",
        "Verification needed if reviewing"
    ],
    "mortgage_analysis": [
        "Property appraisal requirement",
        "Homeowners insurance requirement",
        "Title verification",
        "Flood insurance if applicable",
        "PMI requirement if LTV > 80%"
    ]
}
`

const standardTemplate = `You are a senior financial risk analyst with 15 years of experience in banking.
Conduct a professional assessment of this loan application, focusing on:

1. **Data Consistency**: Verification of provided information, red flags
2. **Financial Capacity**: Repayment ability, debt service coverage, liquidity
3. **Risk Factor Correlation**: Interrelationships between risk factors
4. **Profile-Purpose Alignment**: Consistency between borrower profile and loan purpose

=== APPLICATION DETAILS ===

**Customer Profile:**
- Name: {customer_name}
- Age: {customer_age}
- Gender: {customer_gender}
- Marital Status: {marital_status}

**Financial Details:**
- Loan Amount: {loan_amount} {currency}
- Personal Contribution: {personal_contribution} {currency}
- Monthly Payment: {monthly_payment} {currency}
- Assets Value: {assets_total} {currency}
- APR: {apr}%
- Interest Rate: {interest_rate}%
- Term: {term_months} months

**Risk Assessment:**
Total Score: {total_score}
{risk_table}

**Additional Information:**
{udf_data}

=== REQUIRED ANALYSIS ===

Provide a professional assessment with VALID JSON following this structure:
{
    "summary": "Comprehensive risk analysis",
    "recommendation": "approve|deny|review",
    "rationale": [
        "Primary reason for recommendation",
        "Supporting evidence from data",
        "Risk/benefit analysis"
    ],
    "key_findings": [
        "Specific finding 1 with impact analysis",
        "Specific finding 2 with impact analysis"
    ],
    "conditions": [
        "Specific condition 1 if approving",
        "Verification needed if reviewing"
    ],
    "data_mismatches": [
        "Notable inconsistency 1 between fields",
        "Notable inconsistency 2 between fields"
    ]
}
`

// catalog maps loan types to their instruction templates.
var catalog = map[models.LoanType]string{
	models.LoanTypeLargeCommercial: largeCommercialTemplate,
	models.LoanTypeAgricultural:    agriculturalTemplate,
	models.LoanTypePersonal:        personalTemplate,
	models.LoanTypeMortgage:        mortgageTemplate,
	models.LoanTypeStandard:        standardTemplate,
}

// comparativeInstructions steer the historical-comparison section of a
// contextual prompt per loan type.
var comparativeInstructions = map[models.LoanType]string{
	models.LoanTypeLargeCommercial: "Focus on industry trends, market position comparisons, and commercial risk patterns",
	models.LoanTypeAgricultural:    "Compare seasonal patterns, commodity price histories, and weather impact similarities",
	models.LoanTypePersonal:        "Analyze credit behavior patterns, income stability comparisons, and consumer risk trends",
	models.LoanTypeMortgage:        "Evaluate property market trends, location comparisons, and real estate risk patterns",
	models.LoanTypeStandard:        "Consider general risk patterns and decision consistency across similar profiles",
}

// Template returns the instruction template for a loan type, falling
// back to the standard template for unknown types.
func Template(t models.LoanType) string {
	if tmpl, ok := catalog[t]; ok {
		return tmpl
	}
	return standardTemplate
}

// SetTemplate replaces the template for a loan type, so deployments can
// tune prompt wording without rebuilding. Call it at startup, before
// any rendering; the catalog is not synchronized. The previous template
// is returned so callers can restore it.
func SetTemplate(t models.LoanType, tmpl string) string {
	prev := Template(t)
	catalog[t] = tmpl
	return prev
}
