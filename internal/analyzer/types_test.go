package analyzer

import "testing"

func TestAnalysisResultFallbacks(t *testing.T) {
	tests := []struct {
		name          string
		result        AnalysisResult
		wantAvailable float64
		wantOptimized float64
	}{
		{
			name: "backend figures win",
			result: AnalysisResult{
				TotalIncome:              30000,
				TotalExpenses:            22000,
				AvailableIncome:          7500,
				OptimizedAvailableIncome: 9000,
			},
			wantAvailable: 7500,
			wantOptimized: 9000,
		},
		{
			name: "derived from income minus expenses",
			result: AnalysisResult{
				TotalIncome:   30000,
				TotalExpenses: 22000,
			},
			wantAvailable: 8000,
			wantOptimized: 8000,
		},
		{
			name: "overspending floors at zero",
			result: AnalysisResult{
				TotalIncome:   20000,
				TotalExpenses: 25000,
			},
			wantAvailable: 0,
			wantOptimized: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.AvailableMonthly(); got != tt.wantAvailable {
				t.Errorf("AvailableMonthly() = %v, want %v", got, tt.wantAvailable)
			}
			if got := tt.result.OptimizedAvailable(); got != tt.wantOptimized {
				t.Errorf("OptimizedAvailable() = %v, want %v", got, tt.wantOptimized)
			}
		})
	}
}

func TestSavingsRate(t *testing.T) {
	r := AnalysisResult{TotalIncome: 30000, AvailableIncome: 6000}
	if got := r.SavingsRate(); got != 20 {
		t.Errorf("SavingsRate() = %v, want 20", got)
	}

	zero := AnalysisResult{}
	if got := zero.SavingsRate(); got != 0 {
		t.Errorf("SavingsRate() on empty result = %v, want 0", got)
	}
}

func TestPotentialSavings(t *testing.T) {
	r := AnalysisResult{
		Suggestions: map[string]Suggestion{
			"Groceries":  {PotentialSavings: 300},
			"Dining Out": {PotentialSavings: 450},
		},
	}
	if got := r.PotentialSavings(); got != 750 {
		t.Errorf("PotentialSavings() = %v, want 750", got)
	}

	totalOnly := AnalysisResult{TotalPotentialSavings: 1200}
	if got := totalOnly.PotentialSavings(); got != 1200 {
		t.Errorf("PotentialSavings() without suggestions = %v, want 1200", got)
	}
}

func TestDebtAnalysisStrategyFallback(t *testing.T) {
	av := &DebtStrategy{Strategy: "avalanche", MonthsToDebtFree: 30}
	sb := &DebtStrategy{Strategy: "snowball", MonthsToDebtFree: 33}

	both := DebtAnalysis{Avalanche: av, Snowball: sb, Recommendation: "snowball"}
	if got := both.Strategy("avalanche"); got != av {
		t.Error("named avalanche should return the avalanche plan")
	}
	if got := both.Strategy(""); got != sb {
		t.Error("empty name should follow the recommendation")
	}

	onlySnowball := DebtAnalysis{Snowball: sb}
	if got := onlySnowball.Strategy("avalanche"); got != sb {
		t.Error("missing avalanche should fall back to snowball")
	}
}

func TestDebtAnalysisInterestSaved(t *testing.T) {
	saved := 1500.0
	direct := DebtAnalysis{
		Avalanche:      &DebtStrategy{InterestSavedVsMinOnly: &saved},
		Recommendation: "avalanche",
	}
	if got := direct.InterestSaved(); got != 1500 {
		t.Errorf("InterestSaved() = %v, want direct field 1500", got)
	}

	spread := DebtAnalysis{
		Avalanche: &DebtStrategy{TotalInterestPaid: 4200},
		Snowball:  &DebtStrategy{TotalInterestPaid: 5100},
	}
	if got := spread.InterestSaved(); got != 900 {
		t.Errorf("InterestSaved() = %v, want spread 900", got)
	}
}
