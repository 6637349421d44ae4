package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
)

const testDraftJSON = `{"urgency":"high","category":"assault","address":"ул. Абая, д. 15"}`

func chatServer(t *testing.T, check func(r *http.Request, req openai.ChatCompletionRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if check != nil {
			check(r, req)
		}

		resp := openai.ChatCompletionResponse{
			ID:      "chatcmpl-123",
			Object:  "chat.completion",
			Created: 1677652288,
			Model:   req.Model,
			Choices: []openai.ChatCompletionChoice{
				{
					Index: 0,
					Message: openai.ChatCompletionMessage{
						Role:    "assistant",
						Content: "  " + testDraftJSON + "\n",
					},
					FinishReason: "stop",
				},
			},
			Usage: openai.Usage{
				TotalTokens: 100,
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOpenAIProvider_Draft_Success(t *testing.T) {
	server := chatServer(t, func(r *http.Request, req openai.ChatCompletionRequest) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}
		if len(req.Messages) != 2 {
			t.Fatalf("Expected 2 messages, got %d", len(req.Messages))
		}
		if req.Messages[0].Role != openai.ChatMessageRoleSystem || req.Messages[1].Content != "Драка во дворе" {
			t.Errorf("Unexpected messages: %+v", req.Messages)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
			t.Error("Expected JSON response format for openai")
		}
	})
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-4o-mini",
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Draft(context.Background(), DraftRequest{Transcript: "Драка во дворе"})
	if err != nil {
		t.Fatalf("Draft failed: %v", err)
	}

	if resp.Raw != testDraftJSON {
		t.Errorf("Unexpected raw draft: %s", resp.Raw)
	}
	if resp.Model != "gpt-4o-mini" || resp.TokensUsed != 100 {
		t.Errorf("Unexpected response metadata: %+v", resp)
	}
}

func TestOpenAIProvider_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIProvider(Config{}); err == nil {
		t.Error("Expected error without API key")
	}
	if _, err := NewDeepSeekProvider(Config{}); err == nil {
		t.Error("Expected error without DeepSeek API key")
	}
}

func TestOpenAIProvider_Draft_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "Internal Server Error", "type": "server_error"}}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.Draft(context.Background(), DraftRequest{Transcript: "Пожар"}); err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestOpenAIProvider_Draft_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "Rate limit exceeded", "type": "rate_limit_error"}}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.Draft(context.Background(), DraftRequest{Transcript: "Пожар"}); err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestOpenAIProvider_Draft_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{malformed json`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.Draft(context.Background(), DraftRequest{Transcript: "Пожар"}); err == nil {
		t.Fatal("Expected error for malformed JSON, got nil")
	}
}

func TestOpenAIProvider_Draft_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{ID: "empty"})
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.Draft(context.Background(), DraftRequest{Transcript: "Пожар"}); err == nil {
		t.Fatal("Expected error for empty choices, got nil")
	}
}

func TestOpenAIProvider_Draft_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 1})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	// The caller's deadline is shorter than the provider timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := provider.Draft(ctx, DraftRequest{Transcript: "Пожар"}); err == nil {
		t.Fatal("Expected timeout error, got nil")
	}
}

func TestOpenAIProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"data": [{"id": "gpt-4o-mini"}]}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be true")
	}

	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be false on error")
	}
}

func TestDeepSeekProvider_Defaults(t *testing.T) {
	server := chatServer(t, func(r *http.Request, req openai.ChatCompletionRequest) {
		if req.Model != "deepseek-chat" {
			t.Errorf("Expected model deepseek-chat, got %s", req.Model)
		}
		if req.ResponseFormat != nil {
			t.Error("Expected no response format for deepseek")
		}
	})
	defer server.Close()

	provider, err := NewDeepSeekProvider(Config{APIKey: "ds-key", BaseURL: server.URL + "/", Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	if provider.Name() != "deepseek" {
		t.Errorf("Expected name deepseek, got %s", provider.Name())
	}
	if _, err := provider.Draft(context.Background(), DraftRequest{Transcript: "Пожар"}); err != nil {
		t.Fatalf("Draft failed: %v", err)
	}

	noURL, err := NewDeepSeekProvider(Config{APIKey: "ds-key"})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	if noURL.config.BaseURL != deepSeekBaseURL {
		t.Errorf("Expected default base URL, got %s", noURL.config.BaseURL)
	}
}

func TestOllamaProvider_Defaults(t *testing.T) {
	server := chatServer(t, func(r *http.Request, req openai.ChatCompletionRequest) {
		if req.Model != "llama3" {
			t.Errorf("Expected model llama3, got %s", req.Model)
		}
	})
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	if provider.config.Timeout != 60 || provider.config.APIKey == "" {
		t.Errorf("Unexpected ollama defaults: %+v", provider.config)
	}
	if _, err := provider.Draft(context.Background(), DraftRequest{Transcript: "Пожар"}); err != nil {
		t.Fatalf("Draft failed: %v", err)
	}
}
