package core

import (
	"math"
	"testing"

	"finsight/internal/analyzer"
)

func TestFutureValue(t *testing.T) {
	// R1000/month for 10 years at 6.75% compounded monthly.
	got := FutureValue(1000, 10, 6.75)
	months := 120.0
	r := 6.75 / 100 / 12
	want := 1000 * (math.Pow(1+r, months) - 1) / r
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("FutureValue = %v, want %v", got, want)
	}
	if got <= 1000*months {
		t.Errorf("FutureValue %v should exceed plain contributions %v", got, 1000*months)
	}

	if got := FutureValue(1000, 5, 0); got != 60000 {
		t.Errorf("zero-rate FutureValue = %v, want 60000", got)
	}
}

func TestEffectiveReturn(t *testing.T) {
	tests := []struct {
		avg, vol, want float64
	}{
		{10.5, 18.0, 8.88},
		{8.5, 12.0, 7.78},
		{6.5, 6.0, 6.32},
	}
	for _, tt := range tests {
		if got := EffectiveReturn(tt.avg, tt.vol); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("EffectiveReturn(%v, %v) = %v, want %v", tt.avg, tt.vol, got, tt.want)
		}
	}
}

func TestCompoundGrowthZeroYears(t *testing.T) {
	got := CompoundGrowth(2000, 0, nil, 0)
	if got.TotalSaved != 0 || got.FinalValue != 0 || got.Interest != 0 {
		t.Errorf("zero-year growth = %+v, want zero money values", got)
	}
}

func TestCompoundGrowthBackendWins(t *testing.T) {
	annuity := map[string]analyzer.AnnuityYear{
		"10": {
			TotalContributions: 240000,
			FinalValue:         355123,
			InterestEarned:     115123,
			EffectiveReturn:    7.2,
			MonthlyPayment:     2000,
		},
	}

	// Within tolerance of the reference amount the backend row is used
	// verbatim even though the local formula would disagree.
	got := CompoundGrowth(2050, 10, annuity, 2000)
	if !got.FromBackend {
		t.Fatal("expected backend figures")
	}
	if got.FinalValue != 355123 || got.TotalSaved != 240000 || got.Interest != 115123 {
		t.Errorf("growth = %+v, want backend row verbatim", got)
	}
	if got.EffectiveReturn != 7.2 {
		t.Errorf("effective return = %v, want 7.2", got.EffectiveReturn)
	}
}

func TestCompoundGrowthLocalFallback(t *testing.T) {
	annuity := map[string]analyzer.AnnuityYear{
		"10": {FinalValue: 355123, MonthlyPayment: 2000},
	}

	t.Run("amount outside tolerance", func(t *testing.T) {
		got := CompoundGrowth(5000, 10, annuity, 2000)
		if got.FromBackend {
			t.Fatal("expected local formula for a diverging amount")
		}
		if got.TotalSaved != 600000 {
			t.Errorf("total saved = %v, want 600000", got.TotalSaved)
		}
		want := math.Round(FutureValue(5000, 10, DefaultAnnualReturnPct))
		if got.FinalValue != want {
			t.Errorf("final value = %v, want %v", got.FinalValue, want)
		}
		if got.EffectiveReturn != DefaultAnnualReturnPct {
			t.Errorf("effective return = %v, want %v", got.EffectiveReturn, DefaultAnnualReturnPct)
		}
	})

	t.Run("horizon missing from table", func(t *testing.T) {
		got := CompoundGrowth(2000, 7, annuity, 2000)
		if got.FromBackend {
			t.Fatal("expected local formula for a missing horizon")
		}
	})
}

func TestStrategiesFromProfiles(t *testing.T) {
	t.Run("empty falls back to defaults", func(t *testing.T) {
		got := StrategiesFromProfiles(nil)
		if len(got) != 3 {
			t.Fatalf("got %d strategies, want 3", len(got))
		}
		if got[0].Key != "aggressive" || got[1].Key != "moderate" || got[2].Key != "conservative" {
			t.Errorf("order = %v %v %v", got[0].Key, got[1].Key, got[2].Key)
		}
		if got[0].AvgReturn != 10.5 || got[0].Volatility != 18.0 {
			t.Errorf("aggressive = %+v", got[0])
		}
		if got[2].Allocation.Bonds != 60 {
			t.Errorf("conservative bonds = %v, want 60", got[2].Allocation.Bonds)
		}
	})

	t.Run("backend profiles mapped and ordered", func(t *testing.T) {
		profiles := map[string]analyzer.ProfileResult{
			"conservative": {Profile: analyzer.RiskProfile{Name: "Conservative", AvgReturn: 6.0, Volatility: 5.0, EffectiveReturn: 5.9}},
			"aggressive":   {Profile: analyzer.RiskProfile{Name: "Aggressive", AvgReturn: 11.0, Volatility: 19.0}},
		}
		got := StrategiesFromProfiles(profiles)
		if len(got) != 2 {
			t.Fatalf("got %d strategies, want 2", len(got))
		}
		if got[0].Key != "aggressive" {
			t.Errorf("first strategy = %v, want aggressive", got[0].Key)
		}
		wantEff := EffectiveReturn(11.0, 19.0)
		if math.Abs(got[0].EffectiveReturn-wantEff) > 1e-9 {
			t.Errorf("derived effective return = %v, want %v", got[0].EffectiveReturn, wantEff)
		}
		if got[1].EffectiveReturn != 5.9 {
			t.Errorf("backend effective return = %v, want 5.9 untouched", got[1].EffectiveReturn)
		}
	})
}

func TestProjectionTable(t *testing.T) {
	backend := []analyzer.Projection{{Years: 10, EffectiveFutureValue: 123}}
	s := Strategy{Key: "moderate", EffectiveReturn: 7.78, Projections: backend}
	if got := ProjectionTable(s, 2000); len(got) != 1 || got[0].EffectiveFutureValue != 123 {
		t.Fatalf("expected backend projections verbatim, got %+v", got)
	}

	s.Projections = nil
	got := ProjectionTable(s, 2000)
	if len(got) != len(ProjectionHorizons) {
		t.Fatalf("got %d rows, want %d", len(got), len(ProjectionHorizons))
	}
	for i, p := range got {
		if p.Years != ProjectionHorizons[i] {
			t.Errorf("row %d years = %d, want %d", i, p.Years, ProjectionHorizons[i])
		}
		if diff := p.EffectiveFutureValue - p.TotalContributions - p.EffectiveInterestEarned; math.Abs(diff) > 1e-6 {
			t.Errorf("row %d interest does not reconcile, diff %v", i, diff)
		}
	}
}

func TestGoalProgress(t *testing.T) {
	tests := []struct {
		goal Goal
		want float64
	}{
		{Goal{TargetAmount: 10000, CurrentAmount: 2500}, 25},
		{Goal{TargetAmount: 10000, CurrentAmount: 15000}, 100},
		{Goal{TargetAmount: 0, CurrentAmount: 500}, 0},
	}
	for _, tt := range tests {
		if got := tt.goal.Progress(); got != tt.want {
			t.Errorf("Progress(%+v) = %v, want %v", tt.goal, got, tt.want)
		}
	}
}
