package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantType string
	}{
		{"ollama", "*llm.ollamaProvider"},
		{"lmstudio", "*llm.lmStudioProvider"},
		{"openrouter", "*llm.openRouterProvider"},
		{"openai", "*llm.openAIProvider"},
		{"anthropic", "*llm.anthropicProvider"},
		{"groq", "*llm.groqProvider"},
		{"xai", "*llm.xaiProvider"},
		{"gemini", "*llm.geminiProvider"},
		{"custom", "*llm.openAICompatProvider"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := Config{
				Provider: tt.provider,
				Model:    "test-model",
			}
			p, err := NewProvider(cfg)
			if err != nil {
				t.Fatalf("NewProvider(%q) returned error: %v", tt.provider, err)
			}
			gotType := fmt.Sprintf("%T", p)
			if gotType != tt.wantType {
				t.Errorf("NewProvider(%q) type = %s, want %s", tt.provider, gotType, tt.wantType)
			}
		})
	}
}

func TestNewProviderUnknown(t *testing.T) {
	cfg := Config{
		Provider: "doesnotexist",
		Model:    "test-model",
	}
	_, err := NewProvider(cfg)
	if err == nil {
		t.Fatal("expected error for unknown provider, got nil")
	}
	want := "unknown llm provider: doesnotexist"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestNewProviderEmpty(t *testing.T) {
	cfg := Config{
		Provider: "",
		Model:    "test-model",
	}
	_, err := NewProvider(cfg)
	if err == nil {
		t.Fatal("expected error for empty provider, got nil")
	}
	want := "llm provider not specified"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

// TestDefaultBaseURLs verifies that when BaseURL is empty in the config,
// each compat-based provider constructor sets the correct default.
func TestDefaultBaseURLs(t *testing.T) {
	tests := []struct {
		provider string
		wantURL  string
	}{
		{"ollama", "http://localhost:11434"},
		{"lmstudio", "http://localhost:1234"},
		{"openrouter", "https://openrouter.ai/api"},
		{"groq", "https://api.groq.com/openai"},
		{"xai", "https://api.x.ai"},
		{"gemini", "https://generativelanguage.googleapis.com/v1beta/openai"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := Config{
				Provider: tt.provider,
				Model:    "test-model",
				// BaseURL intentionally left empty.
			}
			p, err := NewProvider(cfg)
			if err != nil {
				t.Fatalf("NewProvider(%q): %v", tt.provider, err)
			}

			// Use reflection to reach base.cfg.BaseURL on the concrete type.
			v := reflect.ValueOf(p).Elem()
			base := v.FieldByName("base")
			cfgField := base.FieldByName("cfg")
			gotURL := cfgField.FieldByName("BaseURL").String()

			if gotURL != tt.wantURL {
				t.Errorf("default BaseURL for %q = %q, want %q", tt.provider, gotURL, tt.wantURL)
			}
		})
	}
}

// TestCustomProviderNoDefaultURL confirms the custom provider does not
// override an empty BaseURL with a default.
func TestCustomProviderNoDefaultURL(t *testing.T) {
	cfg := Config{
		Provider: "custom",
		Model:    "test-model",
		BaseURL:  "",
	}
	p, err := NewProvider(cfg)
	if err != nil {
		t.Fatalf("NewProvider(custom): %v", err)
	}

	v := reflect.ValueOf(p).Elem()
	base := v.FieldByName("base")
	cfgField := base.FieldByName("cfg")
	gotURL := cfgField.FieldByName("BaseURL").String()

	if gotURL != "" {
		t.Errorf("custom provider BaseURL = %q, want empty", gotURL)
	}
}

// TestExplicitBaseURLPreserved verifies that a user-supplied BaseURL
// is not overwritten by the default.
func TestExplicitBaseURLPreserved(t *testing.T) {
	customURL := "http://my-server:9999"

	tests := []string{"ollama", "lmstudio", "openrouter", "groq", "xai", "custom"}
	for _, provider := range tests {
		t.Run(provider, func(t *testing.T) {
			cfg := Config{
				Provider: provider,
				Model:    "test-model",
				BaseURL:  customURL,
			}
			p, err := NewProvider(cfg)
			if err != nil {
				t.Fatalf("NewProvider(%q): %v", provider, err)
			}

			v := reflect.ValueOf(p).Elem()
			base := v.FieldByName("base")
			cfgField := base.FieldByName("cfg")
			gotURL := cfgField.FieldByName("BaseURL").String()

			if gotURL != customURL {
				t.Errorf("provider %q BaseURL = %q, want %q", provider, gotURL, customURL)
			}
		})
	}
}

// TestAnthropicEmbedUnsupported confirms the chat-only provider refuses
// embedding requests with the sentinel error.
func TestAnthropicEmbedUnsupported(t *testing.T) {
	p := NewAnthropic(Config{APIKey: "test-key"})

	_, err := p.Embed(context.Background(), []string{"text"})
	if !errors.Is(err, ErrEmbeddingUnsupported) {
		t.Errorf("Embed() error = %v, want ErrEmbeddingUnsupported", err)
	}
}

// ---------------------------------------------------------------------------
// compat client wire format
// ---------------------------------------------------------------------------

func TestCompatChat(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		fmt.Fprint(w, `{
			"model": "test-model",
			"choices": [{"message": {"content": "hello back"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 5, "completion_tokens": 3, "total_tokens": 8}
		}`)
	}))
	defer ts.Close()

	p := NewOpenAICompat(Config{Provider: "custom", Model: "test-model", BaseURL: ts.URL})

	resp, err := p.Chat(context.Background(), ChatRequest{
		Messages: []Message{
			{Role: "system", Content: "be brief"},
			{Role: "user", Content: "hello"},
		},
	})
	if err != nil {
		t.Fatalf("Chat() error: %v", err)
	}

	if gotPath != "/v1/chat/completions" {
		t.Errorf("path = %q, want /v1/chat/completions", gotPath)
	}
	if gotBody["model"] != "test-model" {
		t.Errorf("request model = %v, want test-model", gotBody["model"])
	}
	if resp.Content != "hello back" {
		t.Errorf("Content = %q, want %q", resp.Content, "hello back")
	}
	if resp.FinishReason != "stop" {
		t.Errorf("FinishReason = %q, want stop", resp.FinishReason)
	}
	if resp.TotalTokens != 8 {
		t.Errorf("TotalTokens = %d, want 8", resp.TotalTokens)
	}
}

func TestCompatEmbedReordersByIndex(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Data intentionally out of order.
		fmt.Fprint(w, `{
			"data": [
				{"index": 1, "embedding": [0.2]},
				{"index": 0, "embedding": [0.1]}
			]
		}`)
	}))
	defer ts.Close()

	p := NewOpenAICompat(Config{Provider: "custom", Model: "emb", BaseURL: ts.URL})

	got, err := p.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0][0] != 0.1 || got[1][0] != 0.2 {
		t.Errorf("embeddings = %v, want index order restored", got)
	}
}

func TestCompatChatNonRetryableStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "bad key"}`, http.StatusUnauthorized)
	}))
	defer ts.Close()

	p := NewOpenAICompat(Config{Provider: "custom", Model: "m", BaseURL: ts.URL})

	_, err := p.Chat(context.Background(), ChatRequest{Messages: []Message{{Role: "user", Content: "x"}}})
	if err == nil {
		t.Fatal("Chat() with 401 response returned nil error")
	}
}
