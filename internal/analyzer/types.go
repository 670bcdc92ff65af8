package analyzer

import "encoding/json"

// All response types are partial: the backend omits fields freely and the
// decoder leaves them at their zero value. Callers read through the accessor
// methods below instead of re-implementing fallbacks inline.

// CategoryStat is one entry of the category breakdown map.
type CategoryStat struct {
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
	Count      int     `json:"count"`
}

// Suggestion holds the backend's savings advice for one category.
type Suggestion struct {
	PotentialSavings float64  `json:"potential_savings"`
	Priority         string   `json:"priority"`
	ConfidenceLevel  float64  `json:"confidence_level"`
	Suggestions      []string `json:"suggestions"`
}

// AnnuityYear is one row of the backend's annuity projection, keyed by horizon.
type AnnuityYear struct {
	TotalContributions float64 `json:"total_contributions"`
	FinalValue         float64 `json:"final_value"`
	InterestEarned     float64 `json:"interest_earned"`
	EffectiveReturn    float64 `json:"effective_return"`
	MonthlyPayment     float64 `json:"monthly_payment"`
}

// Transaction is a single parsed statement line. The backend tags debt
// payments so the debt view can expand the aggregate category.
type Transaction struct {
	Description   string  `json:"Description"`
	AmountZAR     float64 `json:"Amount (ZAR)"`
	IsDebtPayment bool    `json:"IsDebtPayment"`
	DebtName      string  `json:"DebtName"`
	DebtKind      string  `json:"DebtKind"`
}

// AnalysisResult is the parsed-statement output of the upload endpoints.
// Replaced wholesale on every upload, never mutated field by field.
type AnalysisResult struct {
	TotalIncome              float64                 `json:"total_income"`
	TotalExpenses            float64                 `json:"total_expenses"`
	AvailableIncome          float64                 `json:"available_income"`
	OptimizedAvailableIncome float64                 `json:"optimized_available_income"`
	TotalPotentialSavings    float64                 `json:"total_potential_savings"`
	CategoryBreakdown        map[string]CategoryStat `json:"category_breakdown"`
	Suggestions              map[string]Suggestion   `json:"suggestions"`
	EnhancedMode             bool                    `json:"enhanced_mode"`
	ProtectedCategories      []string                `json:"protected_categories"`
	ActionPlan               json.RawMessage         `json:"action_plan"`
	AnnuityProjection        map[string]AnnuityYear  `json:"annuity_projection"`
	Transactions             []Transaction           `json:"transactions"`
	DebtsCSVPath             string                  `json:"debts_csv_path"`
}

// AvailableMonthly returns the backend figure, or income minus expenses
// floored at zero when the backend omitted it.
func (r *AnalysisResult) AvailableMonthly() float64 {
	if r.AvailableIncome > 0 {
		return r.AvailableIncome
	}
	if d := r.TotalIncome - r.TotalExpenses; d > 0 {
		return d
	}
	return 0
}

// OptimizedAvailable returns the optimized figure, falling back to the
// plain available amount.
func (r *AnalysisResult) OptimizedAvailable() float64 {
	if r.OptimizedAvailableIncome > 0 {
		return r.OptimizedAvailableIncome
	}
	return r.AvailableMonthly()
}

// SavingsRate returns available income as a percentage of total income.
func (r *AnalysisResult) SavingsRate() float64 {
	if r.TotalIncome <= 0 {
		return 0
	}
	return r.AvailableIncome / r.TotalIncome * 100
}

// PotentialSavings sums the per-category savings suggestions. Falls back to
// the backend's own total when no suggestions map is present.
func (r *AnalysisResult) PotentialSavings() float64 {
	if len(r.Suggestions) == 0 {
		return r.TotalPotentialSavings
	}
	var sum float64
	for _, s := range r.Suggestions {
		sum += s.PotentialSavings
	}
	return sum
}

// TransactionCount sums per-category transaction counts.
func (r *AnalysisResult) TransactionCount() int {
	var n int
	for _, c := range r.CategoryBreakdown {
		n += c.Count
	}
	return n
}

// DebtStrategy holds one payoff plan from the debt optimizer.
type DebtStrategy struct {
	Strategy               string   `json:"strategy"`
	MonthsToDebtFree       float64  `json:"months_to_debt_free"`
	TotalInterestPaid      float64  `json:"total_interest_paid"`
	InterestSavedVsMinOnly *float64 `json:"interest_saved_vs_min_only"`
	PayoffOrder            []string `json:"payoff_order"`
}

// DebtAnalysis compares the avalanche and snowball strategies.
type DebtAnalysis struct {
	Avalanche      *DebtStrategy `json:"avalanche"`
	Snowball       *DebtStrategy `json:"snowball"`
	Recommendation string        `json:"recommendation"`
}

// Strategy returns the named strategy, falling back to the recommendation
// and then to whichever plan is present.
func (d *DebtAnalysis) Strategy(name string) *DebtStrategy {
	switch name {
	case "snowball":
		if d.Snowball != nil {
			return d.Snowball
		}
	case "avalanche":
		if d.Avalanche != nil {
			return d.Avalanche
		}
	}
	if d.Recommendation == "snowball" && d.Snowball != nil {
		return d.Snowball
	}
	if d.Avalanche != nil {
		return d.Avalanche
	}
	return d.Snowball
}

// InterestSaved returns the recommended strategy's direct savings figure.
// When the backend omits it, the absolute spread between the two plans'
// total interest is used as an approximation.
func (d *DebtAnalysis) InterestSaved() float64 {
	if s := d.Strategy(d.Recommendation); s != nil && s.InterestSavedVsMinOnly != nil {
		return *s.InterestSavedVsMinOnly
	}
	if d.Avalanche != nil && d.Snowball != nil {
		diff := d.Avalanche.TotalInterestPaid - d.Snowball.TotalInterestPaid
		if diff < 0 {
			diff = -diff
		}
		return diff
	}
	return 0
}

// RiskProfile describes one investment risk profile.
type RiskProfile struct {
	Name            string  `json:"name"`
	AvgReturn       float64 `json:"avg_return"`
	Volatility      float64 `json:"volatility"`
	EffectiveReturn float64 `json:"effective_return"`
	Description     string  `json:"description"`
}

// Projection is a single projected horizon for a profile.
type Projection struct {
	Years                   int     `json:"years"`
	EffectiveAnnualReturn   float64 `json:"effective_annual_return"`
	MonthlyContribution     float64 `json:"monthly_contribution"`
	EffectiveFutureValue    float64 `json:"effective_future_value"`
	TotalContributions      float64 `json:"total_contributions"`
	EffectiveInterestEarned float64 `json:"effective_interest_earned"`
}

// ProfileResult pairs a risk profile with its projections.
type ProfileResult struct {
	Profile     RiskProfile  `json:"profile"`
	Projections []Projection `json:"projections"`
}

// InvestmentAnalysis is the investment optimizer response.
type InvestmentAnalysis struct {
	MonthlySavings  float64                  `json:"monthly_savings"`
	Profiles        map[string]ProfileResult `json:"profiles"`
	Recommendations []string                 `json:"recommendations"`
}

// Features lists the capability flags advertised by the backend.
type Features struct {
	Features map[string]bool `json:"features"`
}

// Has reports whether a named capability is enabled.
func (f Features) Has(name string) bool {
	return f.Features[name]
}
