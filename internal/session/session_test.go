package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"finsight/internal/analyzer"
	"finsight/internal/chat"
	"finsight/internal/core"
)

func TestSessionDebtCRUD(t *testing.T) {
	s := New(chat.UserProfile{Name: "Thabo"})

	a := s.AddDebt(core.DebtEntry{Name: "Card", Balance: 10000})
	b := s.AddDebt(core.DebtEntry{Name: "Car", Balance: 90000})
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("ids = %d, %d, want 1, 2", a.ID, b.ID)
	}

	b.Balance = 85000
	if !s.UpdateDebt(b) {
		t.Fatal("UpdateDebt reported missing")
	}
	if s.Debts[1].Balance != 85000 {
		t.Errorf("balance = %v after update", s.Debts[1].Balance)
	}

	if !s.RemoveDebt(a.ID) {
		t.Fatal("RemoveDebt reported missing")
	}
	if s.RemoveDebt(a.ID) {
		t.Fatal("RemoveDebt removed twice")
	}
	if len(s.Debts) != 1 || s.Debts[0].Name != "Car" {
		t.Errorf("debts = %+v", s.Debts)
	}

	// IDs never recycle within a session.
	c := s.AddDebt(core.DebtEntry{Name: "Store"})
	if c.ID != 3 {
		t.Errorf("next id = %d, want 3", c.ID)
	}
}

func TestSeedDetectedDebtsKeepsManualEntries(t *testing.T) {
	s := New(chat.UserProfile{})
	s.AddDebt(core.DebtEntry{Name: "Manual Loan", Balance: 50000})
	s.AddDebt(core.DebtEntry{Name: "Old Detected", Detected: true})

	s.SeedDetectedDebts([]core.DetectedPayment{
		{Name: "Visa", Kind: core.CreditCard, Payment: 1500},
	})

	if len(s.Debts) != 2 {
		t.Fatalf("debts = %+v, want manual + reseeded", s.Debts)
	}
	if s.Debts[0].Name != "Manual Loan" {
		t.Errorf("manual entry dropped: %+v", s.Debts)
	}
	if !s.Debts[1].Detected || s.Debts[1].Name != "Visa" {
		t.Errorf("reseeded entry = %+v", s.Debts[1])
	}
}

func TestSetAnalysisReplacesDerivedState(t *testing.T) {
	s := New(chat.UserProfile{})
	s.Debt = &analyzer.DebtAnalysis{Recommendation: "avalanche"}
	s.Investment = &analyzer.InvestmentAnalysis{MonthlySavings: 100}

	result := &analyzer.AnalysisResult{
		TotalIncome: 20000,
		Transactions: []analyzer.Transaction{
			{AmountZAR: -1500, IsDebtPayment: true, DebtName: "Visa", DebtKind: "credit_card"},
		},
	}
	s.SetAnalysis(result, "march.csv")

	if s.Analysis != result || s.SourceFile != "march.csv" {
		t.Error("analysis not replaced")
	}
	if s.Debt != nil || s.Investment != nil {
		t.Error("stale per-tab analyses survived a new upload")
	}
	if len(s.Debts) != 1 || s.Debts[0].Name != "Visa" {
		t.Errorf("detected debts = %+v", s.Debts)
	}
}

func TestBumpSeq(t *testing.T) {
	s := New(chat.UserProfile{})
	if got := s.BumpSeq("debt"); got != 1 {
		t.Errorf("first bump = %d", got)
	}
	if got := s.BumpSeq("debt"); got != 2 {
		t.Errorf("second bump = %d", got)
	}
	if got := s.CurrentSeq("invest"); got != 0 {
		t.Errorf("other section = %d, want 0", got)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10, time.Minute)
	defer store.Close()

	s := New(chat.UserProfile{Name: "Thabo"})
	if err := store.Put(ctx, s); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Profile.Name != "Thabo" {
		t.Errorf("profile = %+v", got.Profile)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing session error = %v, want ErrNotFound", err)
	}

	updated, err := store.Update(ctx, s.ID, func(s *Session) error {
		s.AddGoal(core.Goal{Name: "Emergency Fund", TargetAmount: 30000})
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(updated.Goals) != 1 {
		t.Errorf("goals = %+v", updated.Goals)
	}

	wantErr := errors.New("nope")
	if _, err := store.Update(ctx, s.ID, func(*Session) error { return wantErr }); !errors.Is(err, wantErr) {
		t.Errorf("Update error = %v, want fn error", err)
	}

	if err := store.Delete(ctx, s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted session error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreHandsOutCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10, time.Minute)
	defer store.Close()

	s := New(chat.UserProfile{Name: "Thabo"})
	if err := store.Put(ctx, s); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Mutating what Get returned must not leak into the store.
	got, err := store.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got.AddDebt(core.DebtEntry{Name: "Leak", Balance: 1})
	got.BumpSeq("debt")
	got.Chat = append(got.Chat, Message{Sender: "user", Text: "hi"})

	again, err := store.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(again.Debts) != 0 || len(again.Chat) != 0 {
		t.Errorf("stored session mutated through a returned copy: %+v", again)
	}
	if again.CurrentSeq("debt") != 0 {
		t.Errorf("seq = %d, want 0", again.CurrentSeq("debt"))
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10, time.Minute)
	defer store.Close()

	s := New(chat.UserProfile{})
	if err := store.Put(ctx, s); err != nil {
		t.Fatalf("Put: %v", err)
	}

	const writers, perWriter = 4, 25

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				_, err := store.Update(ctx, s.ID, func(s *Session) error {
					s.AddDebt(core.DebtEntry{Name: "Card", Balance: 1000})
					return nil
				})
				if err != nil {
					t.Errorf("Update: %v", err)
				}
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				got, err := store.Get(ctx, s.ID)
				if err != nil {
					t.Errorf("Get: %v", err)
					continue
				}
				for _, d := range got.Debts {
					_ = d.Balance
				}
			}
		}()
	}
	wg.Wait()

	final, err := store.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(final.Debts) != writers*perWriter {
		t.Errorf("debts = %d, want %d", len(final.Debts), writers*perWriter)
	}
}

func TestMemoryStoreEviction(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(2, time.Minute)
	defer store.Close()

	first := New(chat.UserProfile{})
	second := New(chat.UserProfile{})
	third := New(chat.UserProfile{})
	store.Put(ctx, first)
	store.Put(ctx, second)
	store.Put(ctx, third)

	if _, err := store.Get(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Error("oldest session not evicted at capacity")
	}
	if _, err := store.Get(ctx, third.ID); err != nil {
		t.Errorf("newest session evicted: %v", err)
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID()
		if len(id) != 32 {
			t.Fatalf("id length = %d, want 32", len(id))
		}
		if seen[id] {
			t.Fatal("duplicate id")
		}
		seen[id] = true
	}
}
