package core

import (
	"math"
	"sort"
	"strings"

	"finsight/internal/analyzer"
)

// DebtKind enumerates the debt types the UI knows about.
type DebtKind string

const (
	CreditCard   DebtKind = "credit_card"
	PersonalLoan DebtKind = "personal_loan"
	HomeLoan     DebtKind = "home_loan"
	CarLoan      DebtKind = "car_loan"
	StudentLoan  DebtKind = "student_loan"
	StoreCard    DebtKind = "store_card"
	Overdraft    DebtKind = "overdraft"
)

// DebtEntry is a user-entered or detected debt obligation. Lives only in
// session state.
type DebtEntry struct {
	ID             int64
	Name           string
	Kind           DebtKind
	Balance        float64
	InterestRate   float64 // annual, percent
	MinimumPayment float64
	CurrentPayment float64
	Detected       bool
}

// DetectedPayment is a debt payment found among tagged transactions.
type DetectedPayment struct {
	Name        string
	Kind        DebtKind
	Payment     float64
	Description string
}

// PayoffStrategy selects the debt ordering.
type PayoffStrategy string

const (
	Avalanche PayoffStrategy = "avalanche" // highest rate first
	Snowball  PayoffStrategy = "snowball"  // lowest balance first
)

// Valid reports whether the strategy is one of the known orderings.
func (s PayoffStrategy) Valid() bool {
	return s == Avalanche || s == Snowball
}

// PayoffMonths solves the amortization closed form for the number of months
// to clear a balance. never is true when the payment does not cover the
// monthly interest, meaning the balance can never be repaid at this payment;
// callers must render that state explicitly rather than as a large number.
func PayoffMonths(balance, annualRatePct, payment float64) (months int, never bool) {
	if payment <= 0 || balance <= 0 {
		return 0, false
	}
	r := annualRatePct / 100 / 12
	if r == 0 {
		return int(math.Ceil(balance / payment)), false
	}
	denom := payment - balance*r
	if denom <= 0 {
		return 0, true
	}
	m := math.Log(payment/denom) / math.Log(1+r)
	if m < 0 {
		m = 0
	}
	return int(math.Ceil(m)), false
}

// DetectDebtPayments extracts tagged debt payments from the transaction
// list, one entry per transaction.
func DetectDebtPayments(transactions []analyzer.Transaction) []DetectedPayment {
	var out []DetectedPayment
	for _, tx := range transactions {
		if !tx.IsDebtPayment || tx.DebtName == "" || tx.DebtKind == "" {
			continue
		}
		out = append(out, DetectedPayment{
			Name:        tx.DebtName,
			Kind:        DebtKind(tx.DebtKind),
			Payment:     math.Abs(tx.AmountZAR),
			Description: tx.Description,
		})
	}
	return out
}

// SeedDebts builds initial debt entries from detected payments. Balance and
// rate start at zero; the user fills them in.
func SeedDebts(detected []DetectedPayment) []DebtEntry {
	debts := make([]DebtEntry, 0, len(detected))
	for i, d := range detected {
		debts = append(debts, DebtEntry{
			ID:             int64(i + 1),
			Name:           d.Name,
			Kind:           d.Kind,
			MinimumPayment: d.Payment,
			CurrentPayment: d.Payment,
			Detected:       true,
		})
	}
	return debts
}

// SortDebts orders a copy of the debts by the chosen strategy: avalanche by
// descending interest rate, snowball by ascending balance.
func SortDebts(debts []DebtEntry, strategy PayoffStrategy) []DebtEntry {
	sorted := make([]DebtEntry, len(debts))
	copy(sorted, debts)
	switch strategy {
	case Avalanche:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].InterestRate > sorted[j].InterestRate
		})
	case Snowball:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Balance < sorted[j].Balance
		})
	}
	return sorted
}

// MetricsSource identifies which data produced the debt summary.
type MetricsSource string

const (
	SourceUser      MetricsSource = "user"
	SourceEstimated MetricsSource = "estimated"
	SourceBackend   MetricsSource = "backend"
	SourceNone      MetricsSource = "none"
)

// DebtSummary aggregates the debt position for the overview panel.
type DebtSummary struct {
	TotalDebt           float64
	TotalMinimumPayment float64
	TotalCurrentPayment float64
	AverageInterestRate float64
	Source              MetricsSource
}

// Payment-to-balance assumptions behind the estimated source. Approximate
// business rules inherited from the product; not to be treated as exact.
const (
	estimatedBalanceMultiple = 20  // monthly payment assumed ~5% of balance
	typicalInterestRate      = 18  // typical unsecured rate, percent
	backendBalanceMultiple   = 3   // total interest assumed ~1/3 of balance
	backendMinPaymentRatio   = .05 // minimum payment as share of balance
)

// SummarizeDebts computes the overview metrics with three fallbacks:
// user-entered balances, then detected payments (estimated balance), then
// backend strategy figures, then zeros.
func SummarizeDebts(debts []DebtEntry, detected []DetectedPayment, strategy *analyzer.DebtStrategy) DebtSummary {
	var total, minPay, curPay, rateSum float64
	for _, d := range debts {
		total += d.Balance
		minPay += d.MinimumPayment
		if d.CurrentPayment > 0 {
			curPay += d.CurrentPayment
		} else {
			curPay += d.MinimumPayment
		}
		rateSum += d.InterestRate
	}

	if total > 0 {
		var avg float64
		if len(debts) > 0 {
			avg = rateSum / float64(len(debts))
		}
		return DebtSummary{
			TotalDebt:           total,
			TotalMinimumPayment: minPay,
			TotalCurrentPayment: curPay,
			AverageInterestRate: avg,
			Source:              SourceUser,
		}
	}

	if len(detected) > 0 {
		var payments float64
		for _, d := range detected {
			payments += d.Payment
		}
		return DebtSummary{
			TotalDebt:           payments * estimatedBalanceMultiple,
			TotalMinimumPayment: payments,
			TotalCurrentPayment: payments,
			AverageInterestRate: typicalInterestRate,
			Source:              SourceEstimated,
		}
	}

	if strategy != nil && strategy.TotalInterestPaid > 0 {
		estTotal := strategy.TotalInterestPaid * backendBalanceMultiple
		estPay := estTotal * backendMinPaymentRatio
		return DebtSummary{
			TotalDebt:           estTotal,
			TotalMinimumPayment: estPay,
			TotalCurrentPayment: estPay,
			AverageInterestRate: typicalInterestRate,
			Source:              SourceBackend,
		}
	}

	return DebtSummary{Source: SourceNone}
}

// DebtToIncomeRatio returns minimum payments as a percentage of monthly
// income, zero when income is unknown.
func DebtToIncomeRatio(totalMinimumPayment, monthlyIncome float64) float64 {
	if monthlyIncome <= 0 {
		return 0
	}
	return totalMinimumPayment / monthlyIncome * 100
}

// HealthStatus grades the debt-to-income ratio.
type HealthStatus string

const (
	HealthGood       HealthStatus = "Good"
	HealthManageable HealthStatus = "Manageable"
	HealthHighRisk   HealthStatus = "High Risk"
)

// DebtHealth grades a debt-to-income ratio: under 20% good, under 36%
// manageable, otherwise high risk.
func DebtHealth(ratioPct float64) HealthStatus {
	switch {
	case ratioPct < 20:
		return HealthGood
	case ratioPct < 36:
		return HealthManageable
	default:
		return HealthHighRisk
	}
}

// DebtKindFromName guesses a debt kind from free-form text.
func DebtKindFromName(name string) DebtKind {
	s := strings.ToLower(name)
	switch {
	case strings.Contains(s, "credit") || strings.Contains(s, "card"):
		return CreditCard
	case strings.Contains(s, "personal") || strings.Contains(s, "loan"):
		return PersonalLoan
	case strings.Contains(s, "store") || strings.Contains(s, "account"):
		return StoreCard
	case strings.Contains(s, "overdraft"):
		return Overdraft
	case strings.Contains(s, "home") || strings.Contains(s, "mortgage") || strings.Contains(s, "bond"):
		return HomeLoan
	case strings.Contains(s, "car") || strings.Contains(s, "vehicle") || strings.Contains(s, "auto"):
		return CarLoan
	case strings.Contains(s, "student") || strings.Contains(s, "education"):
		return StudentLoan
	default:
		return CreditCard
	}
}
