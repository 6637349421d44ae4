package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyTranscript is returned when there is nothing to draft from
var ErrEmptyTranscript = errors.New("empty transcript")

// Drafter wraps an optional provider. A Drafter with no provider is disabled
// and every call is a no-op.
type Drafter struct {
	provider Provider
	config   Config
}

// NewDrafter creates a drafter from config. An empty provider name yields a
// disabled drafter, not an error.
func NewDrafter(config Config) (*Drafter, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}
	return &Drafter{provider: provider, config: config}, nil
}

// NewDrafterWithProvider wraps an existing provider
func NewDrafterWithProvider(provider Provider, config Config) *Drafter {
	return &Drafter{provider: provider, config: config}
}

// IsEnabled reports whether a provider is configured
func (d *Drafter) IsEnabled() bool {
	return d != nil && d.provider != nil
}

// ProviderName returns the provider name, empty when disabled
func (d *Drafter) ProviderName() string {
	if !d.IsEnabled() {
		return ""
	}
	return d.provider.Name()
}

// Model returns the configured model name
func (d *Drafter) Model() string {
	if d == nil {
		return ""
	}
	return d.config.Model
}

// Language returns the prompt language
func (d *Drafter) Language() string {
	if d == nil {
		return ""
	}
	return d.config.Language
}

// Check verifies the provider is reachable
func (d *Drafter) Check(ctx context.Context) error {
	if !d.IsEnabled() {
		return nil
	}
	if !d.provider.IsAvailable(ctx) {
		return fmt.Errorf("LLM provider %s is not available", d.provider.Name())
	}
	return nil
}

// Draft asks the provider for a raw draft of the transcript. It returns
// nil, nil when the drafter is disabled.
func (d *Drafter) Draft(ctx context.Context, transcript string) (*DraftResponse, error) {
	if !d.IsEnabled() {
		return nil, nil
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, ErrEmptyTranscript
	}

	resp, err := d.provider.Draft(ctx, DraftRequest{
		Transcript: transcript,
		Prompt:     BuildPrompt(d.config.Language, d.config.Lexicon),
		MaxTokens:  d.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%s draft failed: %w", d.provider.Name(), err)
	}
	if resp == nil || strings.TrimSpace(resp.Raw) == "" {
		return nil, fmt.Errorf("%s returned an empty draft", d.provider.Name())
	}
	return resp, nil
}
