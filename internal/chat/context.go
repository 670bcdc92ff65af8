// Package chat backs the advisor chat panel: it builds a financial context
// from the current analysis, calls the Gemini API and degrades to canned
// data-aware responses when the API is unavailable.
package chat

import (
	"fmt"
	"sort"
	"strings"

	"finsight/internal/analyzer"
	"finsight/internal/core"
)

// UserProfile is the logged-in user's advisory profile.
type UserProfile struct {
	Name          string
	Status        string
	Age           int
	RiskTolerance string
}

// FinancialContext is the data summary injected into every prompt.
type FinancialContext struct {
	HasRealData       bool
	MonthlyIncome     float64
	MonthlyExpenses   float64
	AvailableIncome   float64
	SavingsRate       float64
	CategoryBreakdown string
	PotentialSavings  float64
	TransactionCount  int
}

// demoPotentialSavings is shown before any statement has been uploaded.
const demoPotentialSavings = 3500

// ContextFromAnalysis summarizes an analysis for prompting. A nil analysis
// yields the demo context so the chat stays usable before an upload.
func ContextFromAnalysis(a *analyzer.AnalysisResult, demo DemoFigures) FinancialContext {
	if a == nil || a.TotalIncome == 0 {
		rate := 0.0
		if demo.Income > 0 {
			rate = demo.Disposable / demo.Income * 100
		}
		return FinancialContext{
			MonthlyIncome:     demo.Income,
			MonthlyExpenses:   demo.Expenses,
			AvailableIncome:   demo.Disposable,
			SavingsRate:       rate,
			CategoryBreakdown: "Demo data - upload a statement for real analysis",
			PotentialSavings:  demoPotentialSavings,
		}
	}

	names := make([]string, 0, len(a.CategoryBreakdown))
	for name, stat := range a.CategoryBreakdown {
		if stat.Amount > 0 {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return a.CategoryBreakdown[names[i]].Amount > a.CategoryBreakdown[names[j]].Amount
	})
	parts := make([]string, len(names))
	for i, name := range names {
		stat := a.CategoryBreakdown[name]
		parts[i] = fmt.Sprintf("%s: %s (%.1f%%)", name, core.FormatRand(stat.Amount), stat.Percentage)
	}

	return FinancialContext{
		HasRealData:       true,
		MonthlyIncome:     a.TotalIncome,
		MonthlyExpenses:   a.TotalExpenses,
		AvailableIncome:   a.AvailableIncome,
		SavingsRate:       a.SavingsRate(),
		CategoryBreakdown: strings.Join(parts, ", "),
		PotentialSavings:  a.PotentialSavings(),
		TransactionCount:  a.TransactionCount(),
	}
}

// DemoFigures are the pre-upload placeholder amounts.
type DemoFigures struct {
	Income     float64
	Expenses   float64
	Disposable float64
}

func systemPrompt(profile UserProfile, ctx FinancialContext) string {
	var b strings.Builder
	b.WriteString("You are a professional South African financial advisor AI assistant. ")
	b.WriteString("You provide personalized, actionable financial advice based on the user's real financial data.\n\n")

	fmt.Fprintf(&b, "USER PROFILE:\n- Name: %s\n- Status: %s\n- Age: %d\n- Risk Tolerance: %s\n\n",
		profile.Name, profile.Status, profile.Age, profile.RiskTolerance)

	b.WriteString("CURRENT FINANCIAL DATA:\n")
	if ctx.HasRealData {
		b.WriteString("REAL DATA FROM USER'S BANK STATEMENT:\n")
	} else {
		b.WriteString("DEMO DATA (User needs to upload a statement for real analysis):\n")
	}
	fmt.Fprintf(&b, "- Monthly Income: %s\n", core.FormatRand(ctx.MonthlyIncome))
	fmt.Fprintf(&b, "- Monthly Expenses: %s\n", core.FormatRand(ctx.MonthlyExpenses))
	fmt.Fprintf(&b, "- Available Income: %s\n", core.FormatRand(ctx.AvailableIncome))
	fmt.Fprintf(&b, "- Savings Rate: %.1f%%\n", ctx.SavingsRate)
	fmt.Fprintf(&b, "- Spending Categories: %s\n", ctx.CategoryBreakdown)
	fmt.Fprintf(&b, "- Potential Monthly Savings: %s\n", core.FormatRand(ctx.PotentialSavings))
	if ctx.HasRealData {
		fmt.Fprintf(&b, "- Transactions Analyzed: %d\n", ctx.TransactionCount)
	}

	b.WriteString(`
SOUTH AFRICAN CONTEXT:
- Currency: South African Rand (ZAR)
- Consider local banks: FNB, Standard Bank, Nedbank, ABSA, Capitec
- Local stores: Shoprite, Pick n Pay, Checkers, Woolworths, Spar
- Local services: DSTV, Vodacom, MTN, Eskom

RESPONSE GUIDELINES:
1. Be conversational, friendly, and encouraging
2. Provide specific, actionable advice based on their actual data
3. Reference their real spending patterns and amounts
4. Keep responses concise (2-3 sentences max)
5. Use South African Rand (R) for all amounts
6. If using demo data, encourage them to upload their statement for personalized advice
`)
	return b.String()
}

// FallbackResponse returns a data-aware canned reply. The turn number picks
// the response so callers cycle through the set deterministically.
func FallbackResponse(ctx FinancialContext, turn int) string {
	source := "demo"
	if ctx.HasRealData {
		source = "real"
	}
	rateVerdict := "could be improved. Aim for at least 15-20%."
	if ctx.SavingsRate >= 15 {
		rateVerdict = "is excellent! Keep it up."
	}
	spendVerdict := "Demo data suggests"
	if ctx.HasRealData {
		spendVerdict = "Your real spending data shows"
	}

	responses := []string{
		fmt.Sprintf("Based on your %s data showing %s available monthly, consider increasing your emergency fund to cover 3-6 months of expenses.",
			source, core.FormatRand(ctx.AvailableIncome)),
		fmt.Sprintf("Your current savings rate of %.1f%% %s", ctx.SavingsRate, rateVerdict),
		fmt.Sprintf("With potential savings of %s/month, you could build substantial wealth through compound investing over time.",
			core.FormatRand(ctx.PotentialSavings)),
		fmt.Sprintf("%s opportunities to optimize your budget. Focus on the largest expense categories first.", spendVerdict),
	}
	if turn < 0 {
		turn = -turn
	}
	return responses[turn%len(responses)]
}

// SuggestedQuestions proposes up to three starter questions fitting the
// user's data.
func SuggestedQuestions(ctx FinancialContext) []string {
	var questions []string
	if ctx.HasRealData {
		if ctx.SavingsRate < 10 {
			questions = append(questions, "How can I improve my low savings rate?")
		}
		if ctx.PotentialSavings > 1000 {
			questions = append(questions, "What's the best way to invest my potential savings?")
		}
		questions = append(questions,
			"How can I optimize my largest spending categories?",
			"What emergency fund amount should I target?")
	} else {
		questions = append(questions,
			"How do I start building an emergency fund?",
			"What's a good savings rate to aim for?",
			"Should I focus on debt or savings first?")
	}
	if len(questions) > 3 {
		questions = questions[:3]
	}
	return questions
}
