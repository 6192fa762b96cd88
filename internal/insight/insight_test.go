package insight

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/seenimoa/coinscope/internal/llm"
)

// fakeChat returns a fixed completion and records the prompt.
type fakeChat struct {
	reply  string
	prompt string
	calls  int
}

func (f *fakeChat) Name() string     { return "fake" }
func (f *fakeChat) Models() []string { return []string{"fake-model"} }

func (f *fakeChat) Chat(ctx context.Context, messages []llm.Message, opts *llm.ChatOptions) (*llm.Response, error) {
	f.calls++
	for _, m := range messages {
		if m.Role == llm.RoleUser {
			f.prompt = m.Content
		}
	}
	return &llm.Response{Content: f.reply, Model: "fake-model", Provider: "fake"}, nil
}

func (f *fakeChat) Ping(ctx context.Context) error { return nil }

func TestBullBearUnavailableWithoutRouter(t *testing.T) {
	g := NewGenerator(nil, nil, llm.ChatOptions{})
	if _, err := g.BullBear(context.Background(), "AAPL"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("BullBear: %v, want ErrUnavailable", err)
	}
}

func TestBullBearEmptySymbol(t *testing.T) {
	g := NewGenerator(llm.NewRouter(&fakeChat{reply: "x"}), nil, llm.ChatOptions{})
	if _, err := g.BullBear(context.Background(), "  "); err == nil {
		t.Fatal("BullBear accepted an empty symbol")
	}
}

func TestBullBearParsesSections(t *testing.T) {
	chat := &fakeChat{reply: "Bull case: Revenue is growing and margins are stable.\n\nBear case: Valuation is stretched and competition is rising."}
	g := NewGenerator(llm.NewRouter(chat), nil, llm.ChatOptions{})

	sum, err := g.BullBear(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("BullBear: %v", err)
	}
	if sum.Symbol != "AAPL" {
		t.Fatalf("symbol = %q, want AAPL", sum.Symbol)
	}
	if sum.BullCase != "Revenue is growing and margins are stable." {
		t.Fatalf("bull case = %q", sum.BullCase)
	}
	if sum.BearCase != "Valuation is stretched and competition is rising." {
		t.Fatalf("bear case = %q", sum.BearCase)
	}
	if sum.Model != "fake/fake-model" {
		t.Fatalf("model = %q", sum.Model)
	}
	if !strings.Contains(chat.prompt, "Asset: AAPL") {
		t.Fatalf("prompt = %q, missing asset line", chat.prompt)
	}
}

func TestBullBearCaches(t *testing.T) {
	chat := &fakeChat{reply: "Bull case: a.\nBear case: b."}
	g := NewGenerator(llm.NewRouter(chat), nil, llm.ChatOptions{})

	if _, err := g.BullBear(context.Background(), "AAPL"); err != nil {
		t.Fatalf("first BullBear: %v", err)
	}
	if _, err := g.BullBear(context.Background(), "aapl"); err != nil {
		t.Fatalf("second BullBear: %v", err)
	}
	if chat.calls != 1 {
		t.Fatalf("backend called %d times, want 1", chat.calls)
	}

	if _, err := g.BullBear(context.Background(), "MSFT"); err != nil {
		t.Fatalf("third BullBear: %v", err)
	}
	if chat.calls != 2 {
		t.Fatalf("backend called %d times, want 2", chat.calls)
	}
}

func TestParseSummaryMissingMarker(t *testing.T) {
	sum := parseSummary("BTC", &llm.Response{
		Content:  "The asset looks broadly healthy.",
		Model:    "m",
		Provider: "p",
	})
	if sum.BullCase != "The asset looks broadly healthy." {
		t.Fatalf("bull case = %q", sum.BullCase)
	}
	if sum.BearCase != "" {
		t.Fatalf("bear case = %q, want empty", sum.BearCase)
	}
}

func TestParseSummaryCaseInsensitiveMarker(t *testing.T) {
	sum := parseSummary("BTC", &llm.Response{
		Content: "Bull case: up.\nBEAR CASE: down.",
	})
	if sum.BullCase != "up." {
		t.Fatalf("bull case = %q", sum.BullCase)
	}
	// The marker itself survives when its casing differs from the canonical
	// prefix; the split point is what matters.
	if !strings.Contains(strings.ToLower(sum.BearCase), "down.") {
		t.Fatalf("bear case = %q", sum.BearCase)
	}
}
