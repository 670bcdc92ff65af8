package core

import (
	"math"
	"sort"
	"strconv"

	"finsight/internal/analyzer"
)

// DefaultAnnualReturnPct is the nominal annual return used for local
// compound-growth scenarios when no backend annuity data applies.
const DefaultAnnualReturnPct = 6.75

// AnnuityTolerance is the allowed gap between the scenario's monthly amount
// and the amount the backend annuity table was computed for. Within it the
// backend figures win over the local formula.
const AnnuityTolerance = 100

// ProjectionHorizons are the year marks rendered in scenario tables.
var ProjectionHorizons = []int{1, 5, 10, 15, 20, 25}

// Growth is one compound-growth scenario row.
type Growth struct {
	TotalSaved      float64
	FinalValue      float64
	Interest        float64
	EffectiveReturn float64
	FromBackend     bool
}

// FutureValue computes the future value of a monthly annuity at the given
// effective annual rate (percent), compounded monthly.
func FutureValue(monthly float64, years int, effRatePct float64) float64 {
	months := float64(years * 12)
	r := effRatePct / 100 / 12
	if r == 0 {
		return monthly * months
	}
	return monthly * (math.Pow(1+r, months) - 1) / r
}

// EffectiveReturn applies the variance-drag approximation to percent
// inputs: avg − volatility²/2 with both expressed as percentages.
func EffectiveReturn(avgReturnPct, volatilityPct float64) float64 {
	return avgReturnPct - volatilityPct*volatilityPct/200
}

// CompoundGrowth projects a monthly contribution over the horizon. When the
// backend annuity table has a row for the horizon and the contribution is
// within AnnuityTolerance of the amount the table was computed for
// (reference), the backend figures are used verbatim. Otherwise the local
// formula at DefaultAnnualReturnPct applies.
func CompoundGrowth(monthly float64, years int, annuity map[string]analyzer.AnnuityYear, reference float64) Growth {
	if row, ok := annuity[strconv.Itoa(years)]; ok && math.Abs(monthly-reference) < AnnuityTolerance {
		return Growth{
			TotalSaved:      math.Round(row.TotalContributions),
			FinalValue:      math.Round(row.FinalValue),
			Interest:        math.Round(row.InterestEarned),
			EffectiveReturn: row.EffectiveReturn,
			FromBackend:     true,
		}
	}

	saved := monthly * float64(years*12)
	final := FutureValue(monthly, years, DefaultAnnualReturnPct)
	return Growth{
		TotalSaved:      math.Round(saved),
		FinalValue:      math.Round(final),
		Interest:        math.Round(final - saved),
		EffectiveReturn: DefaultAnnualReturnPct,
	}
}

// Allocation is a percentage split across asset classes.
type Allocation struct {
	Stocks int
	Bonds  int
	Cash   int
}

// Strategy is a render-ready investment risk strategy.
type Strategy struct {
	Key             string
	Name            string
	AvgReturn       float64
	Volatility      float64
	EffectiveReturn float64
	Description     string
	Allocation      Allocation
	Projections     []analyzer.Projection
}

var defaultAllocations = map[string]Allocation{
	"aggressive":   {Stocks: 85, Bonds: 10, Cash: 5},
	"moderate":     {Stocks: 60, Bonds: 30, Cash: 10},
	"conservative": {Stocks: 30, Bonds: 60, Cash: 10},
}

// DefaultAllocation returns the canonical split for a strategy key,
// defaulting to the moderate one.
func DefaultAllocation(key string) Allocation {
	if a, ok := defaultAllocations[key]; ok {
		return a
	}
	return defaultAllocations["moderate"]
}

// DefaultStrategies returns the built-in profiles used when the backend has
// not supplied any.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{
			Key: "aggressive", Name: "Aggressive",
			AvgReturn: 10.5, Volatility: 18.0,
			EffectiveReturn: EffectiveReturn(10.5, 18.0),
			Description:     "High growth potential, high risk",
			Allocation:      DefaultAllocation("aggressive"),
		},
		{
			Key: "moderate", Name: "Moderate",
			AvgReturn: 8.5, Volatility: 12.0,
			EffectiveReturn: EffectiveReturn(8.5, 12.0),
			Description:     "Balanced growth and stability",
			Allocation:      DefaultAllocation("moderate"),
		},
		{
			Key: "conservative", Name: "Conservative",
			AvgReturn: 6.5, Volatility: 6.0,
			EffectiveReturn: EffectiveReturn(6.5, 6.0),
			Description:     "Capital preservation focus",
			Allocation:      DefaultAllocation("conservative"),
		},
	}
}

// StrategiesFromProfiles maps backend risk profiles into render-ready
// strategies, sorted by descending average return for a stable UI order.
// An effective return missing from the backend is derived from the
// variance-drag approximation.
func StrategiesFromProfiles(profiles map[string]analyzer.ProfileResult) []Strategy {
	if len(profiles) == 0 {
		return DefaultStrategies()
	}
	out := make([]Strategy, 0, len(profiles))
	for key, p := range profiles {
		eff := p.Profile.EffectiveReturn
		if eff == 0 && p.Profile.AvgReturn != 0 {
			eff = EffectiveReturn(p.Profile.AvgReturn, p.Profile.Volatility)
		}
		out = append(out, Strategy{
			Key:             key,
			Name:            p.Profile.Name,
			AvgReturn:       p.Profile.AvgReturn,
			Volatility:      p.Profile.Volatility,
			EffectiveReturn: eff,
			Description:     p.Profile.Description,
			Allocation:      DefaultAllocation(key),
			Projections:     p.Projections,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgReturn != out[j].AvgReturn {
			return out[i].AvgReturn > out[j].AvgReturn
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// FindStrategy returns the strategy with the given key, or nil.
func FindStrategy(strategies []Strategy, key string) *Strategy {
	for i := range strategies {
		if strategies[i].Key == key {
			return &strategies[i]
		}
	}
	return nil
}

// ProjectionTable returns the strategy's backend projections when present,
// otherwise a locally computed table over the standard horizons.
func ProjectionTable(s Strategy, monthly float64) []analyzer.Projection {
	if len(s.Projections) > 0 {
		return s.Projections
	}
	table := make([]analyzer.Projection, 0, len(ProjectionHorizons))
	for _, years := range ProjectionHorizons {
		fv := FutureValue(monthly, years, s.EffectiveReturn)
		saved := monthly * float64(years*12)
		table = append(table, analyzer.Projection{
			Years:                   years,
			EffectiveAnnualReturn:   s.EffectiveReturn,
			MonthlyContribution:     monthly,
			EffectiveFutureValue:    fv,
			TotalContributions:      saved,
			EffectiveInterestEarned: fv - saved,
		})
	}
	return table
}

// ProjectionAt returns the projection for an exact horizon, computing one
// locally when the table has no such row.
func ProjectionAt(s Strategy, monthly float64, years int) analyzer.Projection {
	for _, p := range s.Projections {
		if p.Years == years {
			return p
		}
	}
	fv := FutureValue(monthly, years, s.EffectiveReturn)
	saved := monthly * float64(years*12)
	return analyzer.Projection{
		Years:                   years,
		EffectiveAnnualReturn:   s.EffectiveReturn,
		MonthlyContribution:     monthly,
		EffectiveFutureValue:    fv,
		TotalContributions:      saved,
		EffectiveInterestEarned: fv - saved,
	}
}

// InvestmentEntry is a user-entered portfolio holding. Session-local only.
type InvestmentEntry struct {
	ID                  int64
	Name                string
	Type                string
	CurrentValue        float64
	Invested            float64
	MonthlyContribution float64
}

// Goal is a user-entered savings target. Session-local only.
type Goal struct {
	ID            int64
	Name          string
	Type          string
	TargetAmount  float64
	CurrentAmount float64
	TargetDate    string
	Priority      string
}

// Progress returns goal completion as a percentage, capped at 100.
func (g Goal) Progress() float64 {
	if g.TargetAmount <= 0 {
		return 0
	}
	p := g.CurrentAmount / g.TargetAmount * 100
	if p > 100 {
		return 100
	}
	return p
}
