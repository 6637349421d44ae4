package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// MockProvider drafts with a few fixed keyword rules and no network. It is
// used for offline runs and demos.
type MockProvider struct{}

// NewMockProvider creates the offline provider
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Name returns the provider name
func (m *MockProvider) Name() string {
	return "mock"
}

// IsAvailable always reports true
func (m *MockProvider) IsAvailable(ctx context.Context) bool {
	return true
}

var mockCategoryRules = []struct {
	category string
	words    []string
}{
	{"theft", []string{"украл", "украли", "вор", "кража"}},
	{"assault", []string{"бьет", "избивает", "напал", "драка"}},
	{"domestic", []string{"муж", "жена", "семья", "домашний"}},
	{"noise", []string{"шум", "кричит", "громко"}},
}

// Draft returns a JSON draft derived from simple keyword rules
func (m *MockProvider) Draft(ctx context.Context, req DraftRequest) (*DraftResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("mock draft: %w", err)
	}

	lower := strings.ToLower(req.Transcript)

	urgency, danger := "low", false
	switch {
	case containsAny(lower, "кричит", "бьет", "оружие", "угрожает", "сейчас", "немедленно"):
		urgency, danger = "high", true
	case containsAny(lower, "украли", "украл", "грабеж", "напали"):
		urgency = "medium"
	}

	category := "other"
	for _, rule := range mockCategoryRules {
		if containsAny(lower, rule.words...) {
			category = rule.category
			break
		}
	}

	draft := map[string]interface{}{
		"urgency":                urgency,
		"category":               category,
		"address":                "не указан",
		"current_danger":         danger,
		"people_involved":        0,
		"weapons":                false,
		"recommended_department": "не указан",
		"summary":                "Гражданин сообщает об инциденте. Требуется проверка.",
	}

	raw, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("mock draft: %w", err)
	}

	return &DraftResponse{
		Raw:   string(raw),
		Model: "mock",
	}, nil
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
