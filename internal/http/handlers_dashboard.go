package http

import (
	"net/http"

	"finsight/internal/analyzer"
	"finsight/internal/core"
	"finsight/internal/session"
)

// chartRow is one rendered slice of the spending chart.
type chartRow struct {
	Name       string
	Amount     string
	Percentage string
	Width      int
}

func chartRows(slices []core.ChartSlice) []chartRow {
	var max float64
	for _, s := range slices {
		if s.Amount > max {
			max = s.Amount
		}
	}
	rows := make([]chartRow, len(slices))
	for i, s := range slices {
		rows[i] = chartRow{
			Name:       s.Name,
			Amount:     core.FormatRand(s.Amount),
			Percentage: core.FormatPercent(s.Percentage),
			Width:      barWidth(s.Amount, max),
		}
	}
	return rows
}

type dashboardView struct {
	HasData      bool
	SourceFile   string
	EnhancedMode bool

	Income      string
	Expenses    string
	Available   string
	SavingsRate string

	Chart        []chartRow
	Insights     []core.Insight
	Transactions int
}

func buildDashboardView(sess *session.Session) dashboardView {
	v := dashboardView{}
	a := sess.Analysis
	if a == nil {
		return v
	}

	v.HasData = true
	v.SourceFile = sess.SourceFile
	v.EnhancedMode = a.EnhancedMode
	v.Income = core.FormatRand(a.TotalIncome)
	v.Expenses = core.FormatRand(a.TotalExpenses)
	v.Available = core.FormatRand(a.AvailableMonthly())
	v.SavingsRate = core.FormatPercent(a.SavingsRate())
	v.Transactions = a.TransactionCount()
	v.Insights = core.BuildInsights(a)

	ranked := core.RankCategories(a.CategoryBreakdown, a.Suggestions)
	slices := core.ExpandDebtSlices(core.SlicesFromRanked(ranked), a.Transactions)
	v.Chart = chartRows(core.CompactForChart(slices, core.DefaultChartSlices))

	return v
}

func (s *Server) writeDashboard(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	s.render(w, r, "dashboard.html", buildDashboardView(sess))
}

func (s *Server) handleDashboardOverview(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFromRequest(r)
	if err != nil {
		SessionExpiredResponse().Write(w)
		return
	}
	s.writeDashboard(w, r, sess)
}

// analysisRow is one line of the per-category analysis table.
type analysisRow struct {
	Name        string
	Amount      string
	Percentage  string
	Count       int
	Savings     string
	HasSavings  bool
	Priority    string
	Confidence  string
	Suggestions []string
}

type analysisView struct {
	HasData          bool
	PotentialSavings string
	Optimized        string
	EnhancedMode     bool
	Protected        []string
	Rows             []analysisRow
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFromRequest(r)
	if err != nil {
		SessionExpiredResponse().Write(w)
		return
	}

	v := analysisView{}
	if a := sess.Analysis; a != nil {
		v.HasData = true
		v.PotentialSavings = core.FormatRand(a.PotentialSavings())
		v.Optimized = core.FormatRand(a.OptimizedAvailable())
		v.EnhancedMode = a.EnhancedMode
		v.Protected = a.ProtectedCategories

		for _, c := range core.RankCategories(a.CategoryBreakdown, a.Suggestions) {
			row := analysisRow{
				Name:       c.Name,
				Amount:     core.FormatRand(c.Amount),
				Percentage: core.FormatPercent(c.Percentage),
				Count:      c.Count,
				Savings:    core.FormatRand(c.Savings),
				HasSavings: c.Savings > 0,
			}
			if sg, ok := a.Suggestions[c.Name]; ok {
				row.Priority = sg.Priority
				row.Confidence = core.FormatPercent(sg.ConfidenceLevel)
				row.Suggestions = sg.Suggestions
			}
			v.Rows = append(v.Rows, row)
		}
	}

	s.render(w, r, "analysis.html", v)
}

// budgetRow compares a category's current spend with its optimized target.
type budgetRow struct {
	Name      string
	Current   string
	Target    string
	Cut       string
	HasCut    bool
	Protected bool
	Width     int
}

type budgetView struct {
	HasData          bool
	CurrentAvailable string
	Optimized        string
	PotentialSavings string
	AnnualSavings    string
	Rows             []budgetRow

	ShowGrowth      bool
	GrowthCurrent   growthScenario
	GrowthOptimized growthScenario
}

// growthRow is one horizon of a compound-growth scenario table.
type growthRow struct {
	Years       int
	Saved       string
	Final       string
	Interest    string
	Extra       string
	FromBackend bool
}

type growthScenario struct {
	Title   string
	Monthly string
	Rows    []growthRow
}

// buildGrowthScenarios projects the current and the optimized available
// amount over the standard horizons. The backend annuity table is keyed to
// the current available amount, so that is the reference for both runs;
// the optimized table carries the extra final value over the current one.
func buildGrowthScenarios(a *analyzer.AnalysisResult) (current, optimized growthScenario) {
	avail := a.AvailableMonthly()
	opt := a.OptimizedAvailable()

	current = growthScenario{Title: "Investing what you have today", Monthly: core.FormatRand(avail)}
	optimized = growthScenario{Title: "Investing with suggested cuts applied", Monthly: core.FormatRand(opt)}

	for _, years := range core.ProjectionHorizons {
		cg := core.CompoundGrowth(avail, years, a.AnnuityProjection, avail)
		og := core.CompoundGrowth(opt, years, a.AnnuityProjection, avail)
		current.Rows = append(current.Rows, growthRow{
			Years:       years,
			Saved:       core.FormatRand(cg.TotalSaved),
			Final:       core.FormatRand(cg.FinalValue),
			Interest:    core.FormatRand(cg.Interest),
			FromBackend: cg.FromBackend,
		})
		optimized.Rows = append(optimized.Rows, growthRow{
			Years:       years,
			Saved:       core.FormatRand(og.TotalSaved),
			Final:       core.FormatRand(og.FinalValue),
			Interest:    core.FormatRand(og.Interest),
			Extra:       core.FormatRand(og.FinalValue - cg.FinalValue),
			FromBackend: og.FromBackend,
		})
	}
	return current, optimized
}

// handleBudgetScenarios renders the current-vs-optimized spending plan:
// each category's spend next to the target left after applying the
// backend's suggested cut.
func (s *Server) handleBudgetScenarios(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFromRequest(r)
	if err != nil {
		SessionExpiredResponse().Write(w)
		return
	}

	v := budgetView{}
	if a := sess.Analysis; a != nil {
		v.HasData = true
		v.CurrentAvailable = core.FormatRand(a.AvailableMonthly())
		v.Optimized = core.FormatRand(a.OptimizedAvailable())
		v.PotentialSavings = core.FormatRand(a.PotentialSavings())
		v.AnnualSavings = core.FormatRand(a.PotentialSavings() * 12)

		if a.AvailableMonthly() > 0 {
			v.ShowGrowth = true
			v.GrowthCurrent, v.GrowthOptimized = buildGrowthScenarios(a)
		}

		protected := make(map[string]bool, len(a.ProtectedCategories))
		for _, p := range a.ProtectedCategories {
			protected[p] = true
		}

		ranked := core.RankCategories(a.CategoryBreakdown, a.Suggestions)
		var max float64
		for _, c := range ranked {
			if c.Amount > max {
				max = c.Amount
			}
		}
		for _, c := range ranked {
			target := c.Amount - c.Savings
			if target < 0 {
				target = 0
			}
			v.Rows = append(v.Rows, budgetRow{
				Name:      c.Name,
				Current:   core.FormatRand(c.Amount),
				Target:    core.FormatRand(target),
				Cut:       core.FormatRand(c.Savings),
				HasCut:    c.Savings > 0,
				Protected: protected[c.Name],
				Width:     barWidth(c.Amount, max),
			})
		}
	}

	s.render(w, r, "budget.html", v)
}
