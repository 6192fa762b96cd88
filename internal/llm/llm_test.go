package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// fakeProvider is a scripted LLMProvider for router tests.
type fakeProvider struct {
	name  string
	reply string
	err   error
	calls int
}

func (f *fakeProvider) Name() string     { return f.name }
func (f *fakeProvider) Models() []string { return []string{"fake-model"} }

func (f *fakeProvider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &Response{Content: f.reply, Provider: f.name}, nil
}

func (f *fakeProvider) Ping(ctx context.Context) error { return f.err }

func TestRouterUsesPrimary(t *testing.T) {
	primary := &fakeProvider{name: "primary", reply: "from primary"}
	backup := &fakeProvider{name: "backup", reply: "from backup"}
	r := NewRouter(primary, backup)

	resp, err := r.Chat(context.Background(), []Message{UserMessage("hi")}, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "from primary" {
		t.Fatalf("content = %q, want primary reply", resp.Content)
	}
	if backup.calls != 0 {
		t.Fatal("backup was called while the primary is healthy")
	}
}

func TestRouterFallsBack(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: fmt.Errorf("overloaded")}
	backup := &fakeProvider{name: "backup", reply: "from backup"}
	r := NewRouter(primary, backup)

	resp, err := r.Chat(context.Background(), []Message{UserMessage("hi")}, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "from backup" {
		t.Fatalf("content = %q, want backup reply", resp.Content)
	}
	if primary.calls != 1 || backup.calls != 1 {
		t.Fatalf("calls = %d/%d, want 1/1", primary.calls, backup.calls)
	}
}

func TestRouterAllFail(t *testing.T) {
	sentinel := fmt.Errorf("everything is down")
	r := NewRouter(
		&fakeProvider{name: "a", err: fmt.Errorf("a broke")},
		&fakeProvider{name: "b", err: sentinel},
	)

	_, err := r.Chat(context.Background(), []Message{UserMessage("hi")}, nil)
	if err == nil {
		t.Fatal("Chat succeeded with every provider failing")
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("Chat error %v does not wrap the last failure", err)
	}
}

func TestRouterNoProviders(t *testing.T) {
	r := NewRouter()
	if _, err := r.Chat(context.Background(), nil, nil); !errors.Is(err, ErrNoProviders) {
		t.Fatalf("Chat: %v, want ErrNoProviders", err)
	}
}

func TestRouterCancelledContext(t *testing.T) {
	p := &fakeProvider{name: "a", reply: "ok"}
	r := NewRouter(p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Chat(ctx, nil, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("Chat: %v, want context.Canceled", err)
	}
	if p.calls != 0 {
		t.Fatal("provider was called after cancellation")
	}
}

func TestRouterAdd(t *testing.T) {
	r := NewRouter(&fakeProvider{name: "a"})
	r.Add(&fakeProvider{name: "b"})

	names := r.Providers()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("Providers() = %v", names)
	}
}

func TestNewOpenAIProviderRequiresKey(t *testing.T) {
	if _, err := NewOpenAIProvider(""); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("NewOpenAIProvider: %v, want ErrNoAPIKey", err)
	}
}

func TestOpenAIChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization = %q", got)
		}
		w.Write([]byte(`{
			"id":"chatcmpl-1","model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":"Bull case: strong."},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":12,"completion_tokens":8,"total_tokens":20}
		}`))
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("sk-test", WithOpenAIBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}

	resp, err := p.Chat(context.Background(), []Message{
		SystemMessage("You are a market analyst."),
		UserMessage("Summarize AAPL."),
	}, &ChatOptions{Temperature: 0.4, MaxTokens: 256})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "Bull case: strong." {
		t.Fatalf("content = %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 20 {
		t.Fatalf("usage = %+v", resp.Usage)
	}
	if resp.Provider != ProviderOpenAI {
		t.Fatalf("provider = %q", resp.Provider)
	}
}

func TestOpenAIChatErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized,
			`{"error":{"message":"bad key","type":"invalid_request_error"}}`, ErrNoAPIKey},
		{"rate limited", http.StatusTooManyRequests,
			`{"error":{"message":"slow down","type":"rate_limit_error"}}`, ErrRateLimit},
		{"context length", http.StatusBadRequest,
			`{"error":{"message":"too long","code":"context_length_exceeded"}}`, ErrContextLength},
		{"unknown model", http.StatusBadRequest,
			`{"error":{"message":"no such model","code":"model_not_found"}}`, ErrInvalidModel},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			p, err := NewOpenAIProvider("sk-test", WithOpenAIBaseURL(srv.URL))
			if err != nil {
				t.Fatalf("NewOpenAIProvider: %v", err)
			}
			_, err = p.Chat(context.Background(), []Message{UserMessage("hi")}, nil)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Chat: %v, want %v", err, tc.want)
			}
		})
	}
}

func TestOllamaChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"message":{"role":"assistant","content":"Bear case: weak."},
			"done":true,"prompt_eval_count":10,"eval_count":6
		}`))
	}))
	defer srv.Close()

	p, err := NewOllamaProvider(srv.URL)
	if err != nil {
		t.Fatalf("NewOllamaProvider: %v", err)
	}

	resp, err := p.Chat(context.Background(), []Message{UserMessage("hi")}, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "Bear case: weak." {
		t.Fatalf("content = %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 16 {
		t.Fatalf("usage = %+v", resp.Usage)
	}
	if resp.Provider != ProviderOllama {
		t.Fatalf("provider = %q", resp.Provider)
	}
}

func TestOllamaPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	p, err := NewOllamaProvider(srv.URL)
	if err != nil {
		t.Fatalf("NewOllamaProvider: %v", err)
	}
	if err := p.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
