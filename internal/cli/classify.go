package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/intake/internal/model"
	"github.com/ppiankov/intake/internal/pipeline"
	"github.com/ppiankov/intake/internal/validate"
)

var (
	draftArg    string
	outJSON     string
	outMD       string
	timeout     time.Duration
	useStore    bool
	noCache     bool
	noFooter    bool
	llmEnabled  bool
	llmProvider string
	llmModel    string
)

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify [text]",
	Short: "Classify a single citizen report",
	Long: `Classify reconciles a transcript with an optional draft and prints the
validated incident record as JSON:
- Detect the category from keywords when the draft has none
- Raise urgency to the category floor and on signs of current danger
- Extract address, people count, danger and weapon indicators
- Normalize enums, fill defaults and compute a confidence score

The transcript is read from the arguments, or from stdin when none are given
(or the single argument is "-").

Example:
  intake classify "Драка во дворе дома 15 по улице Абая, сейчас"
  intake classify "Пожар, горит квартира" --draft '{"urgency": "low"}'
  echo "У меня украли кошелек" | intake classify --llm --llm-provider deepseek
  intake classify --draft @draft.json --md incident.md --store < transcript.txt`,
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	// Input flags
	classifyCmd.Flags().StringVar(&draftArg, "draft", "", "draft as a JSON object, or @file to read it from a file")

	// Output flags
	classifyCmd.Flags().StringVar(&outJSON, "json", "", "write the record JSON to this path (default: stdout)")
	classifyCmd.Flags().StringVar(&outMD, "md", "", "write a Markdown card to this path (optional)")
	classifyCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown output")
	classifyCmd.Flags().BoolVar(&useStore, "store", false, "append the record to the record store")

	addDraftFlags(classifyCmd)
	classifyCmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "overall timeout, including the draft request")
}

// addDraftFlags registers the generative draft flags shared by classify and batch
func addDraftFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&llmEnabled, "llm", false, "ask an LLM provider for a draft when none is supplied")
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, deepseek, ollama, mock); default from config, else openai")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the draft cache (always ask the provider)")
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	text, err := readTranscript(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cfg, logger)
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}
	defer func() { _ = p.Close() }()

	draft, err := readDraft(draftArg, p.Engine().Normalizer())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Classifying %d characters\n", len([]rune(text)))
		if p.Drafter().IsEnabled() {
			fmt.Fprintf(os.Stderr, "Draft provider: %s\n", p.Drafter().ProviderName())
		}
		fmt.Fprintln(os.Stderr)
	}

	rec, err := p.Process(ctx, model.Input{Draft: draft, TranscriptText: text})
	if err != nil {
		return fmt.Errorf("classify failed: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	if err := writeRecord(renderer, rec, outJSON, outMD, cfg.Output.Verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	renderer.WriteSummary(os.Stderr, rec, cfg.Output.Verbose)
	if useStore {
		fmt.Fprintf(os.Stderr, "✓ Stored record %s\n", rec.ID)
	}

	return writeMetrics(cfg, p)
}

// buildConfig loads the configuration and applies the command flags
func buildConfig() (*model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if useStore {
		cfg.Store.Enabled = true
	}

	if !llmEnabled {
		cfg.LLM.Provider = ""
		return cfg, nil
	}

	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}

	cfg.LLM.APIKey = providerAPIKey(cfg.LLM.Provider, cfg.LLM.APIKey)
	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai", "deepseek":
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("%s API key not set (INTAKE_LLM_API_KEY or %s_API_KEY)", cfg.LLM.Provider, strings.ToUpper(cfg.LLM.Provider))
		}
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = strings.TrimSuffix(baseURL, "/") + "/v1"
		}
	}

	return cfg, nil
}

// readTranscript joins the arguments, or reads stdin when there are none
func readTranscript(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// readDraft decodes the --draft flag value; "@path" reads the draft from a file
func readDraft(arg string, n *validate.Normalizer) (model.Draft, error) {
	if strings.TrimSpace(arg) == "" {
		return model.Draft{}, nil
	}
	raw := []byte(arg)
	if strings.HasPrefix(arg, "@") {
		data, err := os.ReadFile(strings.TrimPrefix(arg, "@"))
		if err != nil {
			return model.Draft{}, fmt.Errorf("read draft: %w", err)
		}
		raw = data
	}
	return n.DecodeDraft(raw), nil
}

func writeRecord(renderer *pipeline.Renderer, rec *model.Record, jsonPath, mdPath string, verbose bool) error {
	data, err := renderer.JSON(rec.Incident)
	if err != nil {
		return err
	}
	if jsonPath == "" || jsonPath == "-" {
		if _, err := os.Stdout.Write(data); err != nil {
			return err
		}
	} else {
		if err := pipeline.WriteFile(jsonPath, data); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := pipeline.WriteFile(mdPath, []byte(renderer.Markdown(rec))); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}
	return nil
}

func writeMetrics(cfg *model.Config, p *pipeline.Pipeline) error {
	if cfg.Output.MetricsFile == "" || p.Metrics() == nil {
		return nil
	}
	if err := p.Metrics().WriteFile(cfg.Output.MetricsFile); err != nil {
		return err
	}
	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote metrics: %s\n", cfg.Output.MetricsFile)
	}
	return nil
}
