package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/intake/internal/util"
)

const (
	deepSeekBaseURL = "https://api.deepseek.com/v1"
	ollamaBaseURL   = "http://localhost:11434/v1"

	deepSeekModel = "deepseek-chat"
	ollamaModel   = "llama3"
)

// OpenAIProvider implements the Provider interface for OpenAI and
// OpenAI-compatible chat APIs (DeepSeek, Ollama)
type OpenAIProvider struct {
	name     string
	client   *openai.Client
	config   Config
	jsonMode bool
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if config.Model == "" {
		config.Model = openai.GPT4oMini
	}
	return newCompatProvider("openai", config, true), nil
}

// NewDeepSeekProvider creates a provider for the DeepSeek chat API
func NewDeepSeekProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("DeepSeek API key is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = deepSeekBaseURL
	}
	if config.Model == "" || config.Model == openai.GPT4oMini {
		config.Model = deepSeekModel
	}
	return newCompatProvider("deepseek", config, false), nil
}

// NewOllamaProvider creates a provider for a local Ollama server through its
// OpenAI-compatible endpoint
func NewOllamaProvider(config Config) (*OpenAIProvider, error) {
	if config.BaseURL == "" {
		config.BaseURL = ollamaBaseURL
	}
	if config.APIKey == "" {
		config.APIKey = "ollama" // ignored by the server, required by the client
	}
	if config.Model == "" || config.Model == openai.GPT4oMini {
		config.Model = ollamaModel
	}
	if config.Timeout == 0 {
		config.Timeout = 60 // local models can be slow
	}
	return newCompatProvider("ollama", config, false), nil
}

func newCompatProvider(name string, config Config, jsonMode bool) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	}
	clientConfig.HTTPClient = &http.Client{
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		},
	}

	return &OpenAIProvider{
		name:     name,
		client:   openai.NewClientWithConfig(clientConfig),
		config:   config,
		jsonMode: jsonMode,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.name
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	// Simple check: try to list models (lightweight API call)
	_, err := p.client.ListModels(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s API check failed: %v\n", p.name, err)
		return false
	}
	return true
}

// Draft requests a classification draft using the Chat Completions API
func (p *OpenAIProvider) Draft(ctx context.Context, req DraftRequest) (*DraftResponse, error) {
	prompt := req.Prompt
	if prompt == "" {
		prompt = BuildPrompt(p.config.Language, p.config.Lexicon)
	}

	model := req.Model
	if model == "" {
		model = p.config.Model
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 800
	}

	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: prompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Transcript,
			},
		},
		MaxTokens:   maxTokens,
		Temperature: p.config.Temperature,
	}
	if p.jsonMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", p.name, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from %s", p.name)
	}

	return &DraftResponse{
		Raw:        strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:      model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}
