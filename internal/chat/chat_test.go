package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finsight/internal/analyzer"
)

var demoFigures = DemoFigures{Income: 25000, Expenses: 18000, Disposable: 7000}

func TestContextFromAnalysis(t *testing.T) {
	a := &analyzer.AnalysisResult{
		TotalIncome:     20000,
		TotalExpenses:   16000,
		AvailableIncome: 4000,
		CategoryBreakdown: map[string]analyzer.CategoryStat{
			"Groceries": {Amount: 5000, Percentage: 31.25, Count: 10},
			"Transport": {Amount: 2000, Percentage: 12.5, Count: 4},
			"Refunds":   {Amount: -100},
		},
		Suggestions: map[string]analyzer.Suggestion{
			"Groceries": {PotentialSavings: 700},
		},
	}

	got := ContextFromAnalysis(a, demoFigures)
	if !got.HasRealData {
		t.Fatal("expected real data context")
	}
	if got.SavingsRate != 20 {
		t.Errorf("savings rate = %v, want 20", got.SavingsRate)
	}
	if got.PotentialSavings != 700 {
		t.Errorf("potential savings = %v, want 700", got.PotentialSavings)
	}
	if got.TransactionCount != 14 {
		t.Errorf("transaction count = %v, want 14", got.TransactionCount)
	}
	// Sorted by amount descending, negatives excluded.
	if !strings.HasPrefix(got.CategoryBreakdown, "Groceries:") {
		t.Errorf("breakdown = %q, want Groceries first", got.CategoryBreakdown)
	}
	if strings.Contains(got.CategoryBreakdown, "Refunds") {
		t.Errorf("breakdown includes negative category: %q", got.CategoryBreakdown)
	}
}

func TestContextFromAnalysisDemo(t *testing.T) {
	got := ContextFromAnalysis(nil, demoFigures)
	if got.HasRealData {
		t.Fatal("expected demo context")
	}
	if got.MonthlyIncome != 25000 || got.AvailableIncome != 7000 {
		t.Errorf("demo figures = %+v", got)
	}
	if got.SavingsRate != 28 {
		t.Errorf("demo savings rate = %v, want 28", got.SavingsRate)
	}
	if got.PotentialSavings != demoPotentialSavings {
		t.Errorf("demo potential savings = %v", got.PotentialSavings)
	}
}

func TestFallbackResponseCycles(t *testing.T) {
	ctx := FinancialContext{HasRealData: true, AvailableIncome: 4000, SavingsRate: 20, PotentialSavings: 700}

	seen := map[string]bool{}
	for turn := 0; turn < 4; turn++ {
		seen[FallbackResponse(ctx, turn)] = true
	}
	if len(seen) != 4 {
		t.Errorf("4 turns produced %d distinct responses, want 4", len(seen))
	}
	if FallbackResponse(ctx, 0) != FallbackResponse(ctx, 4) {
		t.Error("rotation is not deterministic")
	}
	if !strings.Contains(FallbackResponse(ctx, 1), "excellent") {
		t.Error("20% savings rate should be graded excellent")
	}
}

func TestSuggestedQuestions(t *testing.T) {
	t.Run("demo", func(t *testing.T) {
		got := SuggestedQuestions(FinancialContext{})
		if len(got) != 3 {
			t.Fatalf("got %d questions, want 3", len(got))
		}
		if !strings.Contains(got[0], "emergency fund") {
			t.Errorf("first demo question = %q", got[0])
		}
	})
	t.Run("real data with low rate and big savings", func(t *testing.T) {
		got := SuggestedQuestions(FinancialContext{HasRealData: true, SavingsRate: 5, PotentialSavings: 2000})
		if len(got) != 3 {
			t.Fatalf("got %d questions, want 3", len(got))
		}
		if !strings.Contains(got[0], "savings rate") {
			t.Errorf("first question = %q, want savings-rate nudge", got[0])
		}
	})
}

func TestClientAsk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key = %q", r.URL.Query().Get("key"))
		}
		if !strings.Contains(r.URL.Path, "gemini-1.5-flash-latest") {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) != 1 {
			t.Fatalf("contents shape = %+v", req.Contents)
		}
		prompt := req.Contents[0].Parts[0].Text
		if !strings.Contains(prompt, "USER QUESTION: How do I save more?") {
			t.Errorf("prompt missing question: %q", prompt)
		}
		if !strings.Contains(prompt, "R4,000.00") {
			t.Errorf("prompt missing context amount: %q", prompt)
		}
		if req.GenerationConfig.MaxOutputTokens != 200 {
			t.Errorf("maxOutputTokens = %d", req.GenerationConfig.MaxOutputTokens)
		}
		if len(req.SafetySettings) != 4 {
			t.Errorf("safety settings = %d, want 4", len(req.SafetySettings))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Cut dining out by half."}]}}]}`))
	}))
	defer srv.Close()

	c := NewClient(&Config{APIKey: "test-key", BaseURL: srv.URL})
	fc := FinancialContext{HasRealData: true, AvailableIncome: 4000}
	got, err := c.Ask(context.Background(), UserProfile{Name: "Thabo"}, fc, "How do I save more?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if got != "Cut dining out by half." {
		t.Errorf("reply = %q", got)
	}
}

func TestClientAskErrors(t *testing.T) {
	t.Run("api status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := NewClient(&Config{APIKey: "k", BaseURL: srv.URL})
		_, err := c.Ask(context.Background(), UserProfile{}, FinancialContext{}, "hi")
		if err == nil {
			t.Fatal("expected error")
		}
		var ge *GeminiError
		if !errors.As(err, &ge) {
			t.Fatalf("error type = %T", err)
		}
	})
	t.Run("empty candidates", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"candidates":[]}`))
		}))
		defer srv.Close()

		c := NewClient(&Config{APIKey: "k", BaseURL: srv.URL})
		_, err := c.Ask(context.Background(), UserProfile{}, FinancialContext{}, "hi")
		if err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestClientEnabled(t *testing.T) {
	if NewClient(nil).Enabled() {
		t.Error("client without key reports enabled")
	}
	if !NewClient(&Config{APIKey: "k"}).Enabled() {
		t.Error("client with key reports disabled")
	}
}
