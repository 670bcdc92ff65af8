// Package services orchestrates the advisor workflows: statement uploads,
// per-tab backend loads and the chat, tying the analyzer client, session
// store and event publishing together.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"finsight/internal/amqp"
	"finsight/internal/analyzer"
	"finsight/internal/chat"
	"finsight/internal/core"
	"finsight/internal/session"
)

// Seq sections guarding stale backend responses.
const (
	SectionDebt   = "debt"
	SectionInvest = "invest"
)

// Swapped in tests for deterministic chat timestamps.
var timeNow = func() time.Time { return time.Now().UTC() }

// EventPublisher publishes analysis events. Satisfied by *amqp.Client.
type EventPublisher interface {
	PublishAnalysisEvent(ctx context.Context, event *amqp.AnalysisEvent) error
	Close() error
}

// AdvisorService runs the advisor workflows against the analysis backend.
type AdvisorService struct {
	store     session.Store
	analyzer  *analyzer.Client
	publisher EventPublisher
	chat      *chat.Client
	demo      chat.DemoFigures
}

// NewAdvisorService wires the service. publisher and chatClient may be nil;
// uploads then skip event publishing and chat uses canned responses.
func NewAdvisorService(store session.Store, analyzerClient *analyzer.Client, publisher EventPublisher, chatClient *chat.Client, demo chat.DemoFigures) *AdvisorService {
	return &AdvisorService{
		store:     store,
		analyzer:  analyzerClient,
		publisher: publisher,
		chat:      chatClient,
		demo:      demo,
	}
}

// StartSession creates and stores a fresh session for the profile.
func (s *AdvisorService) StartSession(ctx context.Context, profile chat.UserProfile) (*session.Session, error) {
	sess := session.New(profile)
	if err := s.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}

// Session fetches the session for an ID.
func (s *AdvisorService) Session(ctx context.Context, id string) (*session.Session, error) {
	return s.store.Get(ctx, id)
}

// EndSession drops the session.
func (s *AdvisorService) EndSession(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// UploadStatement sends the file to the analyzer, picking the endpoint by
// extension, and replaces the session's analysis state with the result.
// The analysis event is published best effort; a broker failure never
// fails the upload.
func (s *AdvisorService) UploadStatement(ctx context.Context, sessionID, filename string, file io.Reader) (*session.Session, error) {
	var result *analyzer.AnalysisResult
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		result, err = s.analyzer.UploadPDF(ctx, filename, file)
	case ".csv":
		result, err = s.analyzer.UploadCSV(ctx, filename, file)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filename)
	}
	if err != nil {
		return nil, err
	}

	sess, err := s.store.Update(ctx, sessionID, func(sess *session.Session) error {
		sess.SetAnalysis(result, filename)
		sess.BumpSeq(SectionDebt)
		sess.BumpSeq(SectionInvest)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishAnalysisEvent(ctx, sess, result, filename)
	return sess, nil
}

func (s *AdvisorService) publishAnalysisEvent(ctx context.Context, sess *session.Session, result *analyzer.AnalysisResult, filename string) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not available, skipping analysis event")
		return
	}
	event := &amqp.AnalysisEvent{
		SessionID:       sess.ID,
		SourceFile:      filename,
		TotalIncome:     result.TotalIncome,
		TotalExpenses:   result.TotalExpenses,
		AvailableIncome: result.AvailableIncome,
		EnhancedMode:    result.EnhancedMode,
	}
	if err := s.publisher.PublishAnalysisEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish analysis event",
			"session_id", sess.ID, "error", err)
	}
}

// LoadDebtAnalysis fetches the debt optimization for the session's current
// data. The result is stored only if no newer load or upload superseded
// this one while the backend call was in flight.
func (s *AdvisorService) LoadDebtAnalysis(ctx context.Context, sessionID string) (*session.Session, error) {
	var seq uint64
	sess, err := s.store.Update(ctx, sessionID, func(sess *session.Session) error {
		seq = sess.BumpSeq(SectionDebt)
		return nil
	})
	if err != nil {
		return nil, err
	}

	req := analyzer.DebtAnalysisRequest{
		AvailableMonthly: availableMonthly(sess),
	}
	if sess.Analysis != nil {
		req.DebtsCSVPath = sess.Analysis.DebtsCSVPath
	}

	result, err := s.analyzer.DebtAnalysis(ctx, req)
	if err != nil {
		return nil, err
	}

	return s.store.Update(ctx, sessionID, func(sess *session.Session) error {
		if sess.CurrentSeq(SectionDebt) != seq {
			slog.DebugContext(ctx, "Discarding stale debt analysis",
				"session_id", sessionID, "seq", seq, "current", sess.CurrentSeq(SectionDebt))
			return nil
		}
		sess.Debt = result
		return nil
	})
}

// LoadInvestmentAnalysis fetches the investment projections, with the same
// stale-response guard as LoadDebtAnalysis.
func (s *AdvisorService) LoadInvestmentAnalysis(ctx context.Context, sessionID string) (*session.Session, error) {
	var seq uint64
	sess, err := s.store.Update(ctx, sessionID, func(sess *session.Session) error {
		seq = sess.BumpSeq(SectionInvest)
		return nil
	})
	if err != nil {
		return nil, err
	}

	result, err := s.analyzer.InvestmentAnalysis(ctx, availableMonthly(sess))
	if err != nil {
		return nil, err
	}

	return s.store.Update(ctx, sessionID, func(sess *session.Session) error {
		if sess.CurrentSeq(SectionInvest) != seq {
			slog.DebugContext(ctx, "Discarding stale investment analysis",
				"session_id", sessionID, "seq", seq, "current", sess.CurrentSeq(SectionInvest))
			return nil
		}
		sess.Investment = result
		return nil
	})
}

// ComprehensiveReport fetches the combined analysis for the session's
// current figures. The backend response is passed through verbatim.
func (s *AdvisorService) ComprehensiveReport(ctx context.Context, sessionID string) (json.RawMessage, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Analysis == nil {
		return nil, fmt.Errorf("no analysis uploaded")
	}
	return s.analyzer.ComprehensiveAnalysis(ctx,
		sess.Analysis.AvailableMonthly(), sess.Analysis.OptimizedAvailable())
}

// MutateSession applies fn to the stored session and returns the updated
// copy. Handlers use it for the session-local debt, investment and goal
// edits that never touch the backend.
func (s *AdvisorService) MutateSession(ctx context.Context, sessionID string, fn func(*session.Session) error) (*session.Session, error) {
	return s.store.Update(ctx, sessionID, fn)
}

// BackendStatus probes the analyzer's liveness and feature flags in
// parallel. A failed feature fetch degrades to an empty flag set rather
// than failing the probe.
func (s *AdvisorService) BackendStatus(ctx context.Context) (bool, analyzer.Features) {
	var (
		healthy  bool
		features analyzer.Features
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		healthy = s.analyzer.Health(gctx)
		return nil
	})
	g.Go(func() error {
		f, err := s.analyzer.Features(gctx)
		if err != nil {
			slog.DebugContext(gctx, "Feature probe failed", "error", err)
			return nil
		}
		features = f
		return nil
	})
	_ = g.Wait()
	return healthy, features
}

func availableMonthly(sess *session.Session) float64 {
	if sess.Analysis != nil {
		return sess.Analysis.AvailableMonthly()
	}
	return 0
}

// AskAdvisor records the user's question, gets a reply from the chat model
// and records it. Any model failure degrades to a data-aware canned reply;
// the chat never surfaces an error to the user.
func (s *AdvisorService) AskAdvisor(ctx context.Context, sessionID, question string) (*session.Session, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("empty question")
	}

	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	fc := chat.ContextFromAnalysis(sess.Analysis, s.demo)
	turn := sess.ChatTurns()

	var reply string
	if s.chat != nil && s.chat.Enabled() {
		reply, err = s.chat.Ask(ctx, sess.Profile, fc, question)
		if err != nil {
			slog.WarnContext(ctx, "Chat model unavailable, using fallback",
				"session_id", sessionID, "error", err)
			reply = chat.FallbackResponse(fc, turn)
		}
	} else {
		reply = chat.FallbackResponse(fc, turn)
	}

	return s.store.Update(ctx, sessionID, func(sess *session.Session) error {
		now := timeNow()
		sess.Chat = append(sess.Chat,
			session.Message{Sender: "user", Text: question, SentAt: now},
			session.Message{Sender: "ai", Text: reply, SentAt: now},
		)
		return nil
	})
}

// SuggestedQuestions proposes chat starters fitting the session's data.
func (s *AdvisorService) SuggestedQuestions(sess *session.Session) []string {
	return chat.SuggestedQuestions(chat.ContextFromAnalysis(sess.Analysis, s.demo))
}

// Insights derives the dashboard insight list for the session.
func (s *AdvisorService) Insights(sess *session.Session) []core.Insight {
	return core.BuildInsights(sess.Analysis)
}

// Close releases the store and publisher.
func (s *AdvisorService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close advisor service: %v", errs)
	}
	return nil
}
