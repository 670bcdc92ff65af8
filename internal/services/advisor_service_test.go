package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finsight/internal/amqp"
	"finsight/internal/analyzer"
	"finsight/internal/chat"
	"finsight/internal/session"
)

type capturingPublisher struct {
	events []*amqp.AnalysisEvent
	err    error
}

func (p *capturingPublisher) PublishAnalysisEvent(_ context.Context, e *amqp.AnalysisEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

func newTestService(t *testing.T, backend http.Handler, publisher EventPublisher) (*AdvisorService, *session.Session) {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	store := session.NewMemoryStore(10, time.Minute)
	svc := NewAdvisorService(store,
		analyzer.NewClient(&analyzer.Config{BaseURL: srv.URL}),
		publisher, nil,
		chat.DemoFigures{Income: 25000, Expenses: 18000, Disposable: 7000})

	sess, err := svc.StartSession(context.Background(), chat.UserProfile{Name: "Thabo"})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	return svc, sess
}

func TestUploadStatement(t *testing.T) {
	ctx := context.Background()
	publisher := &capturingPublisher{}
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload-csv" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{
			"total_income": 20000,
			"total_expenses": 16000,
			"available_income": 4000,
			"enhanced_mode": true,
			"transactions": [
				{"Description": "VISA", "Amount (ZAR)": -1500, "IsDebtPayment": true, "DebtName": "Visa", "DebtKind": "credit_card"}
			]
		}`))
	})
	svc, sess := newTestService(t, backend, publisher)

	got, err := svc.UploadStatement(ctx, sess.ID, "march.csv", strings.NewReader("Date,Description,Amount"))
	if err != nil {
		t.Fatalf("UploadStatement: %v", err)
	}
	if got.Analysis == nil || got.Analysis.TotalIncome != 20000 {
		t.Fatalf("analysis = %+v", got.Analysis)
	}
	if got.SourceFile != "march.csv" {
		t.Errorf("source file = %q", got.SourceFile)
	}
	if len(got.Debts) != 1 || got.Debts[0].Name != "Visa" {
		t.Errorf("detected debts = %+v", got.Debts)
	}

	if len(publisher.events) != 1 {
		t.Fatalf("published %d events, want 1", len(publisher.events))
	}
	event := publisher.events[0]
	if event.SessionID != sess.ID || event.AvailableIncome != 4000 || !event.EnhancedMode {
		t.Errorf("event = %+v", event)
	}
}

func TestUploadStatementPublisherFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	publisher := &capturingPublisher{err: errors.New("broker down")}
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total_income": 20000}`))
	})
	svc, sess := newTestService(t, backend, publisher)

	got, err := svc.UploadStatement(ctx, sess.ID, "march.csv", strings.NewReader("data"))
	if err != nil {
		t.Fatalf("upload failed on publisher error: %v", err)
	}
	if got.Analysis == nil {
		t.Error("analysis not stored")
	}
}

func TestUploadStatementRejectsUnknownExtension(t *testing.T) {
	svc, sess := newTestService(t, http.NotFoundHandler(), nil)
	if _, err := svc.UploadStatement(context.Background(), sess.ID, "notes.txt", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for unsupported file type")
	}
}

func TestLoadDebtAnalysis(t *testing.T) {
	ctx := context.Background()
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/debt-analysis" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"recommendation": "avalanche", "avalanche": {"strategy": "avalanche", "months_to_debt_free": 18}}`))
	})
	svc, sess := newTestService(t, backend, nil)

	got, err := svc.LoadDebtAnalysis(ctx, sess.ID)
	if err != nil {
		t.Fatalf("LoadDebtAnalysis: %v", err)
	}
	if got.Debt == nil || got.Debt.Recommendation != "avalanche" {
		t.Fatalf("debt analysis = %+v", got.Debt)
	}
	if got.CurrentSeq(SectionDebt) != 1 {
		t.Errorf("debt seq = %d, want 1", got.CurrentSeq(SectionDebt))
	}
}

func TestLoadDebtAnalysisDiscardsStaleResponse(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(`{"recommendation": "snowball"}`))
	})
	svc, sess := newTestService(t, backend, nil)

	done := make(chan error, 1)
	go func() {
		_, err := svc.LoadDebtAnalysis(ctx, sess.ID)
		done <- err
	}()

	// A newer load starts while the first is blocked in the backend.
	if _, err := svc.store.Update(ctx, sess.ID, func(s *session.Session) error {
		s.BumpSeq(SectionDebt)
		return nil
	}); err != nil {
		t.Fatalf("bump seq: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("LoadDebtAnalysis: %v", err)
	}

	got, err := svc.Session(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if got.Debt != nil {
		t.Errorf("stale response stored: %+v", got.Debt)
	}
}

func TestLoadInvestmentAnalysis(t *testing.T) {
	ctx := context.Background()
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/investment-analysis" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"monthly_savings": 4000, "profiles": {"moderate": {"profile": {"name": "Moderate", "avg_return": 8.5}}}}`))
	})
	svc, sess := newTestService(t, backend, nil)

	got, err := svc.LoadInvestmentAnalysis(ctx, sess.ID)
	if err != nil {
		t.Fatalf("LoadInvestmentAnalysis: %v", err)
	}
	if got.Investment == nil || got.Investment.MonthlySavings != 4000 {
		t.Fatalf("investment analysis = %+v", got.Investment)
	}
}

func TestAskAdvisorFallsBackWithoutModel(t *testing.T) {
	ctx := context.Background()
	svc, sess := newTestService(t, http.NotFoundHandler(), nil)

	got, err := svc.AskAdvisor(ctx, sess.ID, "How do I save more?")
	if err != nil {
		t.Fatalf("AskAdvisor: %v", err)
	}
	if len(got.Chat) != 2 {
		t.Fatalf("chat = %+v, want question and reply", got.Chat)
	}
	if got.Chat[0].Sender != "user" || got.Chat[1].Sender != "ai" {
		t.Errorf("senders = %q, %q", got.Chat[0].Sender, got.Chat[1].Sender)
	}
	if got.Chat[1].Text == "" {
		t.Error("empty fallback reply")
	}

	// Replies rotate between turns.
	again, err := svc.AskAdvisor(ctx, sess.ID, "And then?")
	if err != nil {
		t.Fatalf("AskAdvisor: %v", err)
	}
	if again.Chat[3].Text == got.Chat[1].Text {
		t.Error("fallback reply did not rotate")
	}

	if _, err := svc.AskAdvisor(ctx, sess.ID, "   "); err == nil {
		t.Error("expected error for empty question")
	}
}

func TestInsightsAndSuggestedQuestions(t *testing.T) {
	svc, sess := newTestService(t, http.NotFoundHandler(), nil)

	if got := svc.Insights(sess); got != nil {
		t.Errorf("insights before upload = %+v, want none", got)
	}
	questions := svc.SuggestedQuestions(sess)
	if len(questions) != 3 {
		t.Errorf("questions = %+v, want 3 demo starters", questions)
	}
}
