package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/intake/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "deepseek":
		return NewDeepSeekProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "mock":
		return NewMockProvider(), nil

	case "":
		// No provider configured - return nil (LLM disabled)
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, deepseek, ollama, mock)", config.Provider)
	}
}

// ConfigFromModel converts the application config into llm.Config
func ConfigFromModel(llmConfig model.LLMConfig, httpConfig model.HTTPConfig) Config {
	return Config{
		Provider:    llmConfig.Provider,
		Model:       llmConfig.Model,
		APIKey:      llmConfig.APIKey,
		BaseURL:     llmConfig.BaseURL,
		Timeout:     llmConfig.Timeout,
		MaxTokens:   llmConfig.MaxTokens,
		Temperature: llmConfig.Temperature,
		Language:    llmConfig.Language,
		HTTPProxy:   httpConfig.HTTPProxy,
		HTTPSProxy:  httpConfig.HTTPSProxy,
		NoProxy:     httpConfig.NoProxy,
	}
}
