package core

import (
	"fmt"

	"finsight/internal/analyzer"
)

// InsightLevel grades an insight for rendering.
type InsightLevel string

const (
	InsightOpportunity InsightLevel = "opportunity"
	InsightWarning     InsightLevel = "warning"
	InsightHealth      InsightLevel = "health"
)

// Insight is a single actionable observation derived from an analysis.
type Insight struct {
	Level    InsightLevel
	Category string
	Message  string
	// AnnualImpact is the detected monthly saving annualized, zero when
	// not applicable.
	AnnualImpact float64
}

// MaxInsights caps the insight list shown on the dashboard.
const MaxInsights = 5

const bigSavingThreshold = 500

// BuildInsights derives a capped, ordered insight list from the analysis.
// Large per-category savings come first, then the savings-rate health line.
func BuildInsights(a *analyzer.AnalysisResult) []Insight {
	if a == nil {
		return nil
	}
	out := make([]Insight, 0, MaxInsights)
	for _, c := range RankCategories(a.CategoryBreakdown, a.Suggestions) {
		if c.Savings <= 0 {
			continue
		}
		level := InsightWarning
		if c.Savings > bigSavingThreshold {
			level = InsightOpportunity
		}
		out = append(out, Insight{
			Level:    level,
			Category: c.Name,
			Message: fmt.Sprintf("Cutting back on %s could free up %s per month",
				c.Name, FormatRand(c.Savings)),
			AnnualImpact: c.Savings * 12,
		})
		if len(out) == MaxInsights-1 {
			break
		}
	}

	rate := a.SavingsRate()
	switch {
	case rate >= 20:
		out = append(out, Insight{
			Level:   InsightHealth,
			Message: fmt.Sprintf("Excellent savings rate of %.1f%%. You are on track.", rate),
		})
	case rate >= 10:
		out = append(out, Insight{
			Level:   InsightHealth,
			Message: fmt.Sprintf("Good savings rate of %.1f%%. Aim for 20%% or more.", rate),
		})
	case rate >= 0:
		out = append(out, Insight{
			Level:   InsightWarning,
			Message: fmt.Sprintf("Low savings rate of %.1f%%. Review the suggestions below.", rate),
		})
	default:
		out = append(out, Insight{
			Level:   InsightWarning,
			Message: "Expenses exceed income. Immediate budget attention needed.",
		})
	}
	return out
}
