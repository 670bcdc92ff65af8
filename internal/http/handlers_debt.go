package http

import (
	"log/slog"
	"net/http"

	"finsight/internal/analyzer"
	"finsight/internal/core"
	"finsight/internal/session"
)

// debtRow is one rendered debt in payoff order.
type debtRow struct {
	ID             int64
	Name           string
	Kind           string
	Balance        string
	InterestRate   string
	MinimumPayment string
	CurrentPayment string
	Payoff         string
	Detected       bool
}

type debtListView struct {
	Strategy core.PayoffStrategy
	Debts    []debtRow
}

func buildDebtListView(sess *session.Session) debtListView {
	v := debtListView{Strategy: sess.Strategy}
	for _, d := range core.SortDebts(sess.Debts, sess.Strategy) {
		payment := d.CurrentPayment
		if payment <= 0 {
			payment = d.MinimumPayment
		}
		months, never := core.PayoffMonths(d.Balance, d.InterestRate, payment)
		v.Debts = append(v.Debts, debtRow{
			ID:             d.ID,
			Name:           d.Name,
			Kind:           string(d.Kind),
			Balance:        core.FormatRand(d.Balance),
			InterestRate:   core.FormatPercent(d.InterestRate),
			MinimumPayment: core.FormatRand(d.MinimumPayment),
			CurrentPayment: core.FormatRand(payment),
			Payoff:         core.FormatMonths(months, never),
			Detected:       d.Detected,
		})
	}
	return v
}

func (s *Server) writeDebtList(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	s.render(w, r, "debt_list.html", buildDebtListView(sess))
}

func (s *Server) handleDebtList(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFromRequest(r)
	if err != nil {
		SessionExpiredResponse().Write(w)
		return
	}
	s.writeDebtList(w, r, sess)
}

// strategyRow renders one payoff plan for the comparison panel.
type strategyRow struct {
	Key           string
	Name          string
	Months        string
	TotalInterest string
	PayoffOrder   []string
	Recommended   bool
	Selected      bool
}

type debtAnalysisView struct {
	HasData bool

	TotalDebt      string
	MinimumPayment string
	CurrentPayment string
	AverageRate    string
	Source         core.MetricsSource

	Ratio  string
	Health core.HealthStatus

	Strategies     []strategyRow
	InterestSaved  string
	Recommendation string
}

func buildDebtAnalysisView(sess *session.Session) debtAnalysisView {
	var detected []core.DetectedPayment
	if sess.Analysis != nil {
		detected = core.DetectDebtPayments(sess.Analysis.Transactions)
	}

	var recommended *analyzer.DebtStrategy
	if sess.Debt != nil {
		recommended = sess.Debt.Strategy(sess.Debt.Recommendation)
	}

	summary := core.SummarizeDebts(sess.Debts, detected, recommended)

	var income float64
	if sess.Analysis != nil {
		income = sess.Analysis.TotalIncome
	}
	ratio := core.DebtToIncomeRatio(summary.TotalMinimumPayment, income)

	v := debtAnalysisView{
		HasData:        sess.Debt != nil,
		TotalDebt:      core.FormatRand(summary.TotalDebt),
		MinimumPayment: core.FormatRand(summary.TotalMinimumPayment),
		CurrentPayment: core.FormatRand(summary.TotalCurrentPayment),
		AverageRate:    core.FormatPercent(summary.AverageInterestRate),
		Source:         summary.Source,
		Ratio:          core.FormatPercent(ratio),
		Health:         core.DebtHealth(ratio),
	}

	if d := sess.Debt; d != nil {
		v.Recommendation = d.Recommendation
		v.InterestSaved = core.FormatRand(d.InterestSaved())
		addPlan := func(key, name string, plan *analyzer.DebtStrategy) {
			if plan == nil {
				return
			}
			months := int(plan.MonthsToDebtFree + 0.5)
			v.Strategies = append(v.Strategies, strategyRow{
				Key:           key,
				Name:          name,
				Months:        core.FormatMonths(months, false),
				TotalInterest: core.FormatRand(plan.TotalInterestPaid),
				PayoffOrder:   plan.PayoffOrder,
				Recommended:   d.Recommendation == key,
				Selected:      string(sess.Strategy) == key,
			})
		}
		addPlan(string(core.Avalanche), "Avalanche (highest rate first)", d.Avalanche)
		addPlan(string(core.Snowball), "Snowball (smallest balance first)", d.Snowball)
	}

	return v
}

// handleDebtAnalysis loads the backend debt optimization on demand and
// renders the summary panel. An analyzer failure renders an inline error
// with a retry control instead of failing the page.
func (s *Server) handleDebtAnalysis(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFromRequest(r)
	if err != nil {
		SessionExpiredResponse().Write(w)
		return
	}

	updated, err := s.advisor.LoadDebtAnalysis(r.Context(), sess.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Debt analysis load failed",
			"session_id", sess.ID, "error", err)
		s.renderLoadError(w, r, "Could not load the debt analysis", "/ui/debt-analysis", "debt-analysis")
		return
	}

	s.render(w, r, "debt.html", buildDebtAnalysisView(updated))
}

func (s *Server) handleDebtCreate(w http.ResponseWriter, r *http.Request) {
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
	balance, okBalance := formFloat(r, "balance")
	if name == "" || !okBalance {
		UnprocessableEntityError("A debt needs a name and a balance").Write(w)
		return
	}

	entry := core.DebtEntry{
		Name:           name,
		Kind:           core.DebtKindFromName(name),
		Balance:        balance,
		InterestRate:   formFloatDefault(r, "interest_rate", 0),
		MinimumPayment: formFloatDefault(r, "minimum_payment", 0),
		CurrentPayment: formFloatDefault(r, "current_payment", 0),
	}
	if kind := formField(r, "kind"); kind != "" {
		entry.Kind = core.DebtKind(kind)
	}

	updated, err := s.advisor.MutateSession(r.Context(), sess.ID, func(sess *session.Session) error {
		sess.AddDebt(entry)
		return nil
	})
	if err != nil {
		InternalServerError("Could not save the debt").Write(w)
		return
	}

	NewHTMXResponse().TriggerDebtsChanged().SetHeaders(w)
	s.writeDebtList(w, r, updated)
}

func (s *Server) handleDebtUpdate(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFromRequest(r)
	if err != nil {
		SessionExpiredResponse().Write(w)
		return
	}
	id, ok := pathID(r)
	if !ok {
		BadRequestError("Invalid debt id").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	found := false
	updated, err := s.advisor.MutateSession(r.Context(), sess.ID, func(sess *session.Session) error {
		for _, d := range sess.Debts {
			if d.ID != id {
				continue
			}
			if name := formField(r, "name"); name != "" {
				d.Name = name
			}
			d.Balance = formFloatDefault(r, "balance", d.Balance)
			d.InterestRate = formFloatDefault(r, "interest_rate", d.InterestRate)
			d.MinimumPayment = formFloatDefault(r, "minimum_payment", d.MinimumPayment)
			d.CurrentPayment = formFloatDefault(r, "current_payment", d.CurrentPayment)
			found = sess.UpdateDebt(d)
			break
		}
		return nil
	})
	if err != nil {
		InternalServerError("Could not update the debt").Write(w)
		return
	}
	if !found {
		ErrorResponse(http.StatusNotFound, "Debt not found").Write(w)
		return
	}

	NewHTMXResponse().TriggerDebtsChanged().SetHeaders(w)
	s.writeDebtList(w, r, updated)
}

func (s *Server) handleDebtDelete(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFromRequest(r)
	if err != nil {
		SessionExpiredResponse().Write(w)
		return
	}
	id, ok := pathID(r)
	if !ok {
		BadRequestError("Invalid debt id").Write(w)
		return
	}

	removed := false
	updated, err := s.advisor.MutateSession(r.Context(), sess.ID, func(sess *session.Session) error {
		removed = sess.RemoveDebt(id)
		return nil
	})
	if err != nil {
		InternalServerError("Could not remove the debt").Write(w)
		return
	}
	if !removed {
		ErrorResponse(http.StatusNotFound, "Debt not found").Write(w)
		return
	}

	NewHTMXResponse().TriggerDebtsChanged().SetHeaders(w)
	s.writeDebtList(w, r, updated)
}

// handleDebtStrategy switches the payoff ordering for the session.
func (s *Server) handleDebtStrategy(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFromRequest(r)
	if err != nil {
		SessionExpiredResponse().Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	strategy := core.PayoffStrategy(formField(r, "strategy"))
	if !strategy.Valid() {
		UnprocessableEntityError("Unknown payoff strategy").Write(w)
		return
	}

	updated, err := s.advisor.MutateSession(r.Context(), sess.ID, func(sess *session.Session) error {
		sess.Strategy = strategy
		return nil
	})
	if err != nil {
		InternalServerError("Could not switch strategy").Write(w)
		return
	}

	NewHTMXResponse().TriggerDebtsChanged().SetHeaders(w)
	s.writeDebtList(w, r, updated)
}
