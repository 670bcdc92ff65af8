package http

import (
	"log/slog"
	"net/http"

	"finsight/internal/core"
	"finsight/internal/session"
)

// strategyCard is one selectable risk strategy.
type strategyCard struct {
	Key             string
	Name            string
	Description     string
	AvgReturn       string
	Volatility      string
	EffectiveReturn string
	Allocation      core.Allocation
	Selected        bool
}

// projectionRow is one horizon of the compounding table.
type projectionRow struct {
	Years         int
	FutureValue   string
	Contributions string
	Interest      string
	Return        string
}

type investView struct {
	HasData bool
	Monthly string

	Strategies  []strategyCard
	SelectedKey string
	Projections []projectionRow

	Recommendations []string

	Portfolio portfolioView
}

func buildInvestView(sess *session.Session, selectedKey string) investView {
	var monthly float64
	if sess.Analysis != nil {
		monthly = sess.Analysis.AvailableMonthly()
	}

	strategies := core.DefaultStrategies()
	v := investView{
		HasData: sess.Investment != nil,
		Monthly: core.FormatRand(monthly),
	}
	if inv := sess.Investment; inv != nil {
		if inv.MonthlySavings > 0 {
			monthly = inv.MonthlySavings
			v.Monthly = core.FormatRand(monthly)
		}
		if len(inv.Profiles) > 0 {
			strategies = core.StrategiesFromProfiles(inv.Profiles)
		}
		v.Recommendations = inv.Recommendations
	}

	selected := core.FindStrategy(strategies, selectedKey)
	if selected == nil {
		selected = core.FindStrategy(strategies, "moderate")
	}
	if selected == nil && len(strategies) > 0 {
		selected = &strategies[0]
	}

	for _, st := range strategies {
		v.Strategies = append(v.Strategies, strategyCard{
			Key:             st.Key,
			Name:            st.Name,
			Description:     st.Description,
			AvgReturn:       core.FormatPercent(st.AvgReturn),
			Volatility:      core.FormatPercent(st.Volatility),
			EffectiveReturn: core.FormatPercent(st.EffectiveReturn),
			Allocation:      st.Allocation,
			Selected:        selected != nil && st.Key == selected.Key,
		})
	}

	if selected != nil {
		v.SelectedKey = selected.Key
		for _, p := range core.ProjectionTable(*selected, monthly) {
			v.Projections = append(v.Projections, projectionRow{
				Years:         p.Years,
				FutureValue:   core.FormatCompact(p.EffectiveFutureValue),
				Contributions: core.FormatCompact(p.TotalContributions),
				Interest:      core.FormatCompact(p.EffectiveInterestEarned),
				Return:        core.FormatPercent(p.EffectiveAnnualReturn),
			})
		}
	}

	v.Portfolio = buildPortfolioView(sess)
	return v
}

// handleInvestmentAnalysis loads the backend projections on demand. Without
// an uploaded statement the tab still renders with the default strategies.
func (s *Server) handleInvestmentAnalysis(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFromRequest(r)
	if err != nil {
		SessionExpiredResponse().Write(w)
		return
	}

	selectedKey := sanitizeInput(r.URL.Query().Get("strategy"))

	if sess.Analysis != nil {
		updated, err := s.advisor.LoadInvestmentAnalysis(r.Context(), sess.ID)
		if err != nil {
			slog.ErrorContext(r.Context(), "Investment analysis load failed",
				"session_id", sess.ID, "error", err)
			s.renderLoadError(w, r, "Could not load the investment analysis", "/ui/investment-analysis", "investment-analysis")
			return
		}
		sess = updated
	}

	s.render(w, r, "invest.html", buildInvestView(sess, selectedKey))
}

// holdingRow is one portfolio position.
type holdingRow struct {
	ID       int64
	Name     string
	Type     string
	Value    string
	Invested string
	Monthly  string
	Gain     string
	Positive bool
}

// goalRow is one savings goal with its progress.
type goalRow struct {
	ID       int64
	Name     string
	Type     string
	Target   string
	Current  string
	Date     string
	Priority string
	Progress int
}

type portfolioView struct {
	Holdings   []holdingRow
	TotalValue string
	TotalGain  string
	Positive   bool
	Goals      []goalRow
}

func buildPortfolioView(sess *session.Session) portfolioView {
	v := portfolioView{}

	var totalValue, totalGain float64
	for _, e := range sess.Investments {
		gain := e.CurrentValue - e.Invested
		totalValue += e.CurrentValue
		totalGain += gain
		v.Holdings = append(v.Holdings, holdingRow{
			ID:       e.ID,
			Name:     e.Name,
			Type:     e.Type,
			Value:    core.FormatRand(e.CurrentValue),
			Invested: core.FormatRand(e.Invested),
			Monthly:  core.FormatRand(e.MonthlyContribution),
			Gain:     core.FormatRand(gain),
			Positive: gain >= 0,
		})
	}
	v.TotalValue = core.FormatRand(totalValue)
	v.TotalGain = core.FormatRand(totalGain)
	v.Positive = totalGain >= 0

	for _, g := range sess.Goals {
		v.Goals = append(v.Goals, goalRow{
			ID:       g.ID,
			Name:     g.Name,
			Type:     g.Type,
			Target:   core.FormatRand(g.TargetAmount),
			Current:  core.FormatRand(g.CurrentAmount),
			Date:     g.TargetDate,
			Priority: g.Priority,
			Progress: int(g.Progress() + 0.5),
		})
	}

	return v
}

func (s *Server) writePortfolio(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	s.render(w, r, "portfolio.html", buildPortfolioView(sess))
}

func (s *Server) handleInvestmentCreate(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFromRequest(r)
	if err != nil {
		SessionExpiredResponse().Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	name := formField(r, "name")
	value, okValue := formFloat(r, "current_value")
	if name == "" || !okValue {
		UnprocessableEntityError("A holding needs a name and a current value").Write(w)
		return
	}

	entry := core.InvestmentEntry{
		Name:                name,
		Type:                formField(r, "type"),
		CurrentValue:        value,
		Invested:            formFloatDefault(r, "invested", value),
		MonthlyContribution: formFloatDefault(r, "monthly_contribution", 0),
	}

	updated, err := s.advisor.MutateSession(r.Context(), sess.ID, func(sess *session.Session) error {
		sess.AddInvestment(entry)
		return nil
	})
	if err != nil {
		InternalServerError("Could not save the holding").Write(w)
		return
	}

	NewHTMXResponse().TriggerPortfolioChanged().SetHeaders(w)
	s.writePortfolio(w, r, updated)
}

func (s *Server) handleInvestmentDelete(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFromRequest(r)
	if err != nil {
		SessionExpiredResponse().Write(w)
		return
	}
	id, ok := pathID(r)
	if !ok {
		BadRequestError("Invalid holding id").Write(w)
		return
	}

	removed := false
	updated, err := s.advisor.MutateSession(r.Context(), sess.ID, func(sess *session.Session) error {
		removed = sess.RemoveInvestment(id)
		return nil
	})
	if err != nil {
		InternalServerError("Could not remove the holding").Write(w)
		return
	}
	if !removed {
		ErrorResponse(http.StatusNotFound, "Holding not found").Write(w)
		return
	}

	NewHTMXResponse().TriggerPortfolioChanged().SetHeaders(w)
	s.writePortfolio(w, r, updated)
}

func (s *Server) handleGoalCreate(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFromRequest(r)
	if err != nil {
		SessionExpiredResponse().Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	name := formField(r, "name")
	target, okTarget := formFloat(r, "target_amount")
	if name == "" || !okTarget || target <= 0 {
		UnprocessableEntityError("A goal needs a name and a target amount").Write(w)
		return
	}

	goal := core.Goal{
		Name:          name,
		Type:          formField(r, "type"),
		TargetAmount:  target,
		CurrentAmount: formFloatDefault(r, "current_amount", 0),
		TargetDate:    formField(r, "target_date"),
		Priority:      formField(r, "priority"),
	}

	updated, err := s.advisor.MutateSession(r.Context(), sess.ID, func(sess *session.Session) error {
		sess.AddGoal(goal)
		return nil
	})
	if err != nil {
		InternalServerError("Could not save the goal").Write(w)
		return
	}

	NewHTMXResponse().TriggerPortfolioChanged().SetHeaders(w)
	s.writePortfolio(w, r, updated)
}

func (s *Server) handleGoalDelete(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFromRequest(r)
	if err != nil {
		SessionExpiredResponse().Write(w)
		return
	}
	id, ok := pathID(r)
	if !ok {
		BadRequestError("Invalid goal id").Write(w)
		return
	}

	removed := false
	updated, err := s.advisor.MutateSession(r.Context(), sess.ID, func(sess *session.Session) error {
		removed = sess.RemoveGoal(id)
		return nil
	})
	if err != nil {
		InternalServerError("Could not remove the goal").Write(w)
		return
	}
	if !removed {
		ErrorResponse(http.StatusNotFound, "Goal not found").Write(w)
		return
	}

	NewHTMXResponse().TriggerPortfolioChanged().SetHeaders(w)
	s.writePortfolio(w, r, updated)
}
