// Package core holds the derived-view computations the tab screens render:
// category rankings, chart compaction, debt payoff estimates and investment
// projections. Everything here is pure; inputs come from analyzer results
// and session state, outputs are render-ready values.
package core

import (
	"math"
	"sort"

	"finsight/internal/analyzer"
)

// RankedCategory is one row of the spending breakdown list.
type RankedCategory struct {
	Name       string
	Amount     float64
	Percentage float64
	Count      int
	Savings    float64
}

// ChartSlice is one slice of the spending chart. Percentage is always
// computed against the chart's own total, never carried over from a
// different filtering of the data.
type ChartSlice struct {
	Name       string
	Amount     float64
	Percentage float64
}

// OtherSliceName labels the fold-up bucket appended by CompactForChart.
const OtherSliceName = "Other"

// debtCategoryName is the aggregate category the backend assigns to debt
// payments; ExpandDebtSlices replaces it with per-debt slices.
const debtCategoryName = "Debt Payments"

// RankCategories filters the breakdown to positive amounts, sorts it by
// descending amount and attaches each category's potential savings.
// Categories without a suggestion get zero savings.
func RankCategories(breakdown map[string]analyzer.CategoryStat, suggestions map[string]analyzer.Suggestion) []RankedCategory {
	ranked := make([]RankedCategory, 0, len(breakdown))
	for name, stat := range breakdown {
		if stat.Amount <= 0 {
			continue
		}
		ranked = append(ranked, RankedCategory{
			Name:       name,
			Amount:     stat.Amount,
			Percentage: stat.Percentage,
			Count:      stat.Count,
			Savings:    suggestions[name].PotentialSavings,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Amount != ranked[j].Amount {
			return ranked[i].Amount > ranked[j].Amount
		}
		return ranked[i].Name < ranked[j].Name
	})
	return ranked
}

// DefaultChartSlices is the number of named slices kept by CompactForChart.
const DefaultChartSlices = 6

// CompactForChart keeps the topN largest slices and folds the remainder
// into a trailing "Other" slice, appended only when its amount is positive.
// Every percentage is recomputed against the compacted total so the slices
// always sum to the same total as the input.
func CompactForChart(slices []ChartSlice, topN int) []ChartSlice {
	if topN <= 0 {
		topN = DefaultChartSlices
	}

	sorted := make([]ChartSlice, len(slices))
	copy(sorted, slices)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Amount != sorted[j].Amount {
			return sorted[i].Amount > sorted[j].Amount
		}
		return sorted[i].Name < sorted[j].Name
	})

	var out []ChartSlice
	if len(sorted) <= topN {
		out = sorted
	} else {
		out = sorted[:topN:topN]
		var rest float64
		for _, s := range sorted[topN:] {
			rest += s.Amount
		}
		if rest > 0 {
			out = append(out, ChartSlice{Name: OtherSliceName, Amount: rest})
		}
	}

	var total float64
	for _, s := range out {
		total += s.Amount
	}
	for i := range out {
		if total > 0 {
			out[i].Percentage = out[i].Amount / total * 100
		} else {
			out[i].Percentage = 0
		}
	}
	return out
}

// SlicesFromRanked converts a ranked category list into chart slices.
func SlicesFromRanked(ranked []RankedCategory) []ChartSlice {
	slices := make([]ChartSlice, len(ranked))
	for i, c := range ranked {
		slices[i] = ChartSlice{Name: c.Name, Amount: c.Amount, Percentage: c.Percentage}
	}
	return slices
}

// ExpandDebtSlices replaces the aggregate "Debt Payments" slice with one
// slice per distinct debt found among the tagged transactions, summing
// absolute payment amounts per debt name. When no tagged transactions
// exist the input is returned unchanged. Percentages are left for a later
// CompactForChart pass; only amounts are authoritative here.
func ExpandDebtSlices(slices []ChartSlice, transactions []analyzer.Transaction) []ChartSlice {
	perDebt := make(map[string]float64)
	var order []string
	for _, tx := range transactions {
		if !tx.IsDebtPayment || tx.DebtName == "" || tx.DebtKind == "" {
			continue
		}
		if _, seen := perDebt[tx.DebtName]; !seen {
			order = append(order, tx.DebtName)
		}
		perDebt[tx.DebtName] += math.Abs(tx.AmountZAR)
	}
	if len(perDebt) == 0 {
		return slices
	}

	out := make([]ChartSlice, 0, len(slices)+len(perDebt))
	replaced := false
	for _, s := range slices {
		if s.Name == debtCategoryName {
			replaced = true
			continue
		}
		out = append(out, s)
	}
	if !replaced {
		return slices
	}
	for _, name := range order {
		out = append(out, ChartSlice{Name: name, Amount: perDebt[name]})
	}
	return out
}
