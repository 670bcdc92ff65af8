package core

import (
	"math"
	"testing"

	"finsight/internal/analyzer"
)

func TestRankCategories(t *testing.T) {
	breakdown := map[string]analyzer.CategoryStat{
		"Groceries":     {Amount: 4200, Percentage: 42, Count: 12},
		"Entertainment": {Amount: 1800, Percentage: 18, Count: 5},
		"Transport":     {Amount: 1800, Percentage: 18, Count: 7},
		"Subscriptions": {Amount: 0},
		"Refunds":       {Amount: -300},
	}
	suggestions := map[string]analyzer.Suggestion{
		"Entertainment": {PotentialSavings: 600},
	}

	got := RankCategories(breakdown, suggestions)

	want := []RankedCategory{
		{Name: "Groceries", Amount: 4200, Percentage: 42, Count: 12},
		{Name: "Entertainment", Amount: 1800, Percentage: 18, Count: 5, Savings: 600},
		{Name: "Transport", Amount: 1800, Percentage: 18, Count: 7},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d categories, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("category %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestCompactForChart(t *testing.T) {
	slices := []ChartSlice{
		{Name: "A", Amount: 800},
		{Name: "B", Amount: 700},
		{Name: "C", Amount: 600},
		{Name: "D", Amount: 500},
		{Name: "E", Amount: 400},
		{Name: "F", Amount: 300},
		{Name: "G", Amount: 200},
		{Name: "H", Amount: 100},
	}

	got := CompactForChart(slices, DefaultChartSlices)

	if len(got) != DefaultChartSlices+1 {
		t.Fatalf("got %d slices, want %d", len(got), DefaultChartSlices+1)
	}

	last := got[len(got)-1]
	if last.Name != OtherSliceName {
		t.Fatalf("last slice = %q, want %q", last.Name, OtherSliceName)
	}
	if last.Amount != 300 {
		t.Errorf("Other amount = %v, want 300", last.Amount)
	}

	var total float64
	for _, s := range slices {
		total += s.Amount
	}
	var compacted, pct float64
	for _, s := range got {
		compacted += s.Amount
		pct += s.Percentage
	}
	if compacted != total {
		t.Errorf("compacted total = %v, want %v", compacted, total)
	}
	if math.Abs(pct-100) > 1e-9 {
		t.Errorf("percentages sum to %v, want 100", pct)
	}
}

func TestCompactForChartNoTail(t *testing.T) {
	slices := []ChartSlice{
		{Name: "A", Amount: 800},
		{Name: "B", Amount: 700},
	}
	got := CompactForChart(slices, DefaultChartSlices)
	for _, s := range got {
		if s.Name == OtherSliceName {
			t.Fatalf("unexpected %q slice for %d inputs", OtherSliceName, len(slices))
		}
	}
	if len(got) != 2 {
		t.Fatalf("got %d slices, want 2", len(got))
	}
}

func TestExpandDebtSlices(t *testing.T) {
	slices := []ChartSlice{
		{Name: "Groceries", Amount: 4000, Percentage: 40},
		{Name: "Debt Payments", Amount: 6000, Percentage: 60},
	}
	txns := []analyzer.Transaction{
		{Description: "VISA 4821 PAYMENT", AmountZAR: -3500, IsDebtPayment: true, DebtName: "Visa Credit Card", DebtKind: "credit_card"},
		{Description: "WESFIN VEHICLE", AmountZAR: -2500, IsDebtPayment: true, DebtName: "Car Finance", DebtKind: "car_loan"},
		{Description: "SUPERMARKET", AmountZAR: -900},
	}

	got := ExpandDebtSlices(slices, txns)

	if len(got) != 3 {
		t.Fatalf("got %d slices, want 3", len(got))
	}
	if got[0].Name != "Groceries" {
		t.Errorf("slice 0 = %q, want Groceries", got[0].Name)
	}
	if got[1].Name != "Visa Credit Card" || got[1].Amount != 3500 {
		t.Errorf("slice 1 = %+v, want Visa Credit Card 3500", got[1])
	}
	if got[2].Name != "Car Finance" || got[2].Amount != 2500 {
		t.Errorf("slice 2 = %+v, want Car Finance 2500", got[2])
	}

	var total float64
	for _, s := range got {
		total += s.Amount
	}
	if total != 10000 {
		t.Errorf("expanded total = %v, want 10000", total)
	}
}

func TestExpandDebtSlicesUnchanged(t *testing.T) {
	t.Run("no tagged transactions", func(t *testing.T) {
		slices := []ChartSlice{{Name: "Debt Payments", Amount: 6000}}
		got := ExpandDebtSlices(slices, []analyzer.Transaction{{Description: "SUPERMARKET", AmountZAR: -900}})
		if len(got) != 1 || got[0].Name != "Debt Payments" {
			t.Fatalf("expected slices unchanged, got %+v", got)
		}
	})
	t.Run("no aggregate slice", func(t *testing.T) {
		slices := []ChartSlice{{Name: "Groceries", Amount: 4000}}
		txns := []analyzer.Transaction{{AmountZAR: -100, IsDebtPayment: true, DebtName: "Visa", DebtKind: "credit_card"}}
		got := ExpandDebtSlices(slices, txns)
		if len(got) != 1 || got[0].Name != "Groceries" {
			t.Fatalf("expected slices unchanged, got %+v", got)
		}
	})
}
