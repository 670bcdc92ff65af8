// Package session holds the per-login working state of the advisor app.
// Everything a user enters or uploads lives here and nowhere else; with
// the default memory store a reload of the server loses it, which is the
// intended lifecycle.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"finsight/internal/analyzer"
	"finsight/internal/chat"
	"finsight/internal/core"
)

// Message is one chat turn, kept so the panel can re-render history.
type Message struct {
	Sender string    `json:"sender"` // "user" or "ai"
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// Session is the complete working state for one login. It is replaced or
// mutated wholesale through Store.Update; nothing outside the store should
// retain a pointer across requests.
type Session struct {
	ID      string           `json:"id"`
	Profile chat.UserProfile `json:"profile"`

	Analysis   *analyzer.AnalysisResult     `json:"analysis,omitempty"`
	SourceFile string                       `json:"source_file,omitempty"`
	UploadedAt time.Time                    `json:"uploaded_at,omitempty"`
	Debt       *analyzer.DebtAnalysis       `json:"debt,omitempty"`
	Investment *analyzer.InvestmentAnalysis `json:"investment,omitempty"`

	Debts      []core.DebtEntry    `json:"debts,omitempty"`
	NextDebtID int64               `json:"next_debt_id,omitempty"`
	Strategy   core.PayoffStrategy `json:"strategy,omitempty"`

	Investments      []core.InvestmentEntry `json:"investments,omitempty"`
	NextInvestmentID int64                  `json:"next_investment_id,omitempty"`

	Goals      []core.Goal `json:"goals,omitempty"`
	NextGoalID int64       `json:"next_goal_id,omitempty"`

	Chat []Message `json:"chat,omitempty"`

	// Seq counts backend loads per section so a handler can tell whether
	// the response it holds is still the newest one for that section.
	Seq map[string]uint64 `json:"seq,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates an empty session for the given profile.
func New(profile chat.UserProfile) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        NewID(),
		Profile:   profile,
		Strategy:  core.Avalanche,
		Seq:       make(map[string]uint64),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a copy that is safe to read while the stored original
// keeps being mutated through Store.Update. The entry slices, chat log
// and seq map are copied; the analysis results are only ever replaced
// wholesale, never edited in place, so sharing those pointers is safe.
func (s *Session) Clone() *Session {
	c := *s
	if s.Debts != nil {
		c.Debts = append([]core.DebtEntry(nil), s.Debts...)
	}
	if s.Investments != nil {
		c.Investments = append([]core.InvestmentEntry(nil), s.Investments...)
	}
	if s.Goals != nil {
		c.Goals = append([]core.Goal(nil), s.Goals...)
	}
	if s.Chat != nil {
		c.Chat = append([]Message(nil), s.Chat...)
	}
	if s.Seq != nil {
		c.Seq = make(map[string]uint64, len(s.Seq))
		for k, v := range s.Seq {
			c.Seq[k] = v
		}
	}
	return &c
}

// NewID returns a 32-hex-char random session identifier.
func NewID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// BumpSeq advances the section counter and returns the new value. A load
// started at sequence n is stale once the counter has moved past n.
func (s *Session) BumpSeq(section string) uint64 {
	if s.Seq == nil {
		s.Seq = make(map[string]uint64)
	}
	s.Seq[section]++
	return s.Seq[section]
}

// CurrentSeq returns the section counter without advancing it.
func (s *Session) CurrentSeq(section string) uint64 {
	return s.Seq[section]
}

// AddDebt appends a debt entry, assigning the next session-local ID.
func (s *Session) AddDebt(d core.DebtEntry) core.DebtEntry {
	s.NextDebtID++
	d.ID = s.NextDebtID
	s.Debts = append(s.Debts, d)
	return d
}

// RemoveDebt deletes a debt by ID, reporting whether it existed.
func (s *Session) RemoveDebt(id int64) bool {
	for i, d := range s.Debts {
		if d.ID == id {
			s.Debts = append(s.Debts[:i], s.Debts[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateDebt replaces the debt with the same ID, reporting whether it existed.
func (s *Session) UpdateDebt(d core.DebtEntry) bool {
	for i := range s.Debts {
		if s.Debts[i].ID == d.ID {
			s.Debts[i] = d
			return true
		}
	}
	return false
}

// SeedDetectedDebts replaces the debt list with entries seeded from the
// latest analysis, keeping any debts the user entered by hand.
func (s *Session) SeedDetectedDebts(detected []core.DetectedPayment) {
	var manual []core.DebtEntry
	for _, d := range s.Debts {
		if !d.Detected {
			manual = append(manual, d)
		}
	}
	seeded := core.SeedDebts(detected)
	s.Debts = manual
	s.NextDebtID = 0
	for _, d := range manual {
		if d.ID > s.NextDebtID {
			s.NextDebtID = d.ID
		}
	}
	for _, d := range seeded {
		s.AddDebt(core.DebtEntry{
			Name:           d.Name,
			Kind:           d.Kind,
			MinimumPayment: d.MinimumPayment,
			CurrentPayment: d.CurrentPayment,
			Detected:       true,
		})
	}
}

// AddInvestment appends a holding, assigning the next session-local ID.
func (s *Session) AddInvestment(e core.InvestmentEntry) core.InvestmentEntry {
	s.NextInvestmentID++
	e.ID = s.NextInvestmentID
	s.Investments = append(s.Investments, e)
	return e
}

// RemoveInvestment deletes a holding by ID, reporting whether it existed.
func (s *Session) RemoveInvestment(id int64) bool {
	for i, e := range s.Investments {
		if e.ID == id {
			s.Investments = append(s.Investments[:i], s.Investments[i+1:]...)
			return true
		}
	}
	return false
}

// AddGoal appends a goal, assigning the next session-local ID.
func (s *Session) AddGoal(g core.Goal) core.Goal {
	s.NextGoalID++
	g.ID = s.NextGoalID
	s.Goals = append(s.Goals, g)
	return g
}

// RemoveGoal deletes a goal by ID, reporting whether it existed.
func (s *Session) RemoveGoal(id int64) bool {
	for i, g := range s.Goals {
		if g.ID == id {
			s.Goals = append(s.Goals[:i], s.Goals[i+1:]...)
			return true
		}
	}
	return false
}

// SetAnalysis replaces all analysis-derived state from a new upload. The
// previous result is discarded wholesale and detected debts are re-seeded.
func (s *Session) SetAnalysis(result *analyzer.AnalysisResult, sourceFile string) {
	s.Analysis = result
	s.SourceFile = sourceFile
	s.UploadedAt = time.Now().UTC()
	s.Debt = nil
	s.Investment = nil
	if result != nil {
		s.SeedDetectedDebts(core.DetectDebtPayments(result.Transactions))
	}
}

// ChatTurns counts user messages, used to rotate fallback replies.
func (s *Session) ChatTurns() int {
	n := 0
	for _, m := range s.Chat {
		if m.Sender == "user" {
			n++
		}
	}
	return n
}
