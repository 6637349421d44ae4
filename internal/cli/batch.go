package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/intake/internal/pipeline"
	"github.com/ppiankov/intake/internal/worker"
)

var (
	concurrency  int
	outputPath   string
	jsonlInput   bool
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Classify many reports from a file in parallel",
	Long: `Batch classifies many reports concurrently:
- Read transcripts from the input file (one per line, # comments, duplicates skipped)
- Or, with --jsonl, one input object per line:
    {"transcript_text": "...", "category": "...", "urgency": "...", ...}
- Process inputs in parallel with a configurable worker count
- Write one record per line (JSONL) in input order

Example:
  intake batch reports.txt
  intake batch inputs.jsonl --jsonl --output records.jsonl
  intake batch reports.txt --concurrency 8 --llm --llm-provider ollama --store`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().BoolVar(&jsonlInput, "jsonl", false, "input is JSONL with transcript_text and draft fields")
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().StringVar(&outputPath, "output", "", "output JSONL path (default: stdout)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&useStore, "store", false, "append every record to the record store")

	addDraftFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) (err error) {
	file := args[0]

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Intake Batch Classification\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	format := "text"
	if jsonlInput {
		format = "jsonl"
	}
	fmt.Fprintf(os.Stderr, "  Format:       %s\n", format)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	if cfg.LLM.Provider != "" {
		fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	}
	if cfg.Store.Enabled {
		fmt.Fprintf(os.Stderr, "  Store:        %s\n", cfg.Store.Path)
	}
	fmt.Fprintf(os.Stderr, "\n")

	p, err := pipeline.NewPipeline(cfg, logger)
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}
	defer func() { _ = p.Close() }()

	// Open output before doing any work
	out := os.Stdout
	if outputPath != "" && outputPath != "-" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close output: %w", closeErr)
			}
		}()
		out = f
	}

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers)
	if cfg.Output.Verbose {
		processor.OnResult = func(done, total int, r *worker.ClassifyResult) {
			fmt.Fprintf(os.Stderr, "  [%d/%d] input %d\n", done, total, r.Index+1)
		}
	}

	var decode worker.DraftDecoder
	if jsonlInput {
		decode = p.Engine().Normalizer().DecodeDraft
	}

	fmt.Fprintf(os.Stderr, "⚙️  Processing inputs with %d workers...\n", cfg.Concurrency.Workers)
	started := time.Now()
	results, err := processor.ProcessFile(ctx, file, decode)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "\n")

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	w := bufio.NewWriter(out)

	successCount := 0
	failureCount := 0
	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ input %d: %v\n", result.Index+1, result.Error)
			continue
		}
		successCount++

		data, err := renderer.CompactRecordJSON(result.Record)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write output: %w", err)
		}

		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "✓ %s\n", renderer.Summary(result.Record))
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d inputs\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Elapsed:   %v\n", time.Since(started).Round(time.Millisecond))
	if outputPath != "" && outputPath != "-" {
		fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputPath)
	}
	fmt.Fprintf(os.Stderr, "\n")

	return writeMetrics(cfg, p)
}
