package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/intake/internal/lexicon"
	"github.com/ppiankov/intake/internal/model"
)

// Provider defines the interface for generative draft providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Draft asks the model for a classification draft of a transcript.
	// The raw response is returned undecoded; the engine's boundary decoder
	// owns coercion.
	Draft(ctx context.Context, req DraftRequest) (*DraftResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// DraftRequest contains the input for a draft
type DraftRequest struct {
	// Transcript is the caller's speech-to-text output
	Transcript string

	// Prompt is an optional system prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// DraftResponse contains the model's draft output
type DraftResponse struct {
	// Raw is the response text, expected to hold one JSON object
	Raw string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "deepseek", "ollama", "mock", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/DeepSeek
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Temperature is kept low for consistent JSON
	Temperature float32

	// Language of the system prompt: ru, kk, en
	Language string

	// Lexicon supplies categories and departments for the prompt
	Lexicon *lexicon.Lexicon

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "", // Disabled by default
		Model:       "",
		Timeout:     30,
		MaxTokens:   800,
		Temperature: 0.1,
		Language:    "ru",
	}
}

var promptIntro = map[string]string{
	"ru": `Ты - автоматический помощник службы приема обращений (полиция, МЧС, скорая).
Твоя задача: извлечь факты из сообщения гражданина и заполнить JSON структуру.

ТВОИ ОГРАНИЧЕНИЯ:
- Не давай советов
- Не обещай помощи
- Не оценивай ситуацию как эксперт
- Не выражай эмоции`,
	"kk": `Сен - азаматтардың өтініштерін қабылдау қызметінің автоматты көмекшісісің.
Міндетің: хабарламадан фактілерді алып, JSON құрылымын толтыру.
Кеңес берме, көмек уәде етпе, эмоция білдірме.`,
	"en": `You are an automated intake assistant for emergency services (police, fire, ambulance).
Your task: extract facts from the caller's report and fill in the JSON structure.

CONSTRAINTS:
- Do not give advice
- Do not promise help
- Do not assess the situation as an expert
- Do not express emotions`,
}

// BuildPrompt constructs the default system prompt. Categories, urgencies and
// departments are taken from the lexicon so the model proposes values the
// engine accepts.
func BuildPrompt(language string, lex *lexicon.Lexicon) string {
	if lex == nil {
		lex = lexicon.Default()
	}
	intro, ok := promptIntro[strings.ToLower(language)]
	if !ok {
		intro = promptIntro["ru"]
	}

	var b strings.Builder
	b.WriteString(intro)
	b.WriteString("\n\nCATEGORIES:\n")

	departments := make([]string, 0)
	seen := make(map[string]bool)
	for _, e := range lex.Entries() {
		keywords := e.Keywords
		if len(keywords) > 4 {
			keywords = keywords[:4]
		}
		if len(keywords) > 0 {
			fmt.Fprintf(&b, "- %s: %s\n", e.Category, strings.Join(keywords, ", "))
		} else {
			fmt.Fprintf(&b, "- %s\n", e.Category)
		}
		if !seen[e.Department] {
			seen[e.Department] = true
			departments = append(departments, e.Department)
		}
	}

	b.WriteString(`
URGENCY:
- critical: immediate threat to life, active violence, armed attack
- high: serious incident in progress, potential danger
- medium: incident already happened, no immediate threat
- low: minor violations, informational reports

ALWAYS ANSWER WITH ONE JSON OBJECT ONLY:
{
  "urgency": "critical|high|medium|low",
`)
	fmt.Fprintf(&b, "  \"category\": \"%s\",\n", joinCategories(lex.Categories()))
	fmt.Fprintf(&b, "  \"address\": \"extracted address or '%s'\",\n", lex.Locale().Unspecified)
	b.WriteString(`  "current_danger": true/false,
  "people_involved": number,
  "weapons": true/false,
`)
	fmt.Fprintf(&b, "  \"recommended_department\": \"%s\",\n", strings.Join(departments, "|"))
	b.WriteString(`  "summary": "1-2 sentence description"
}`)

	return b.String()
}

func joinCategories(categories []model.Category) string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	return strings.Join(names, "|")
}
