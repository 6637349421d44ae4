package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/intake/internal/model"
)

// maxLineSize allows long JSONL lines (transcripts plus drafts)
const maxLineSize = 1 << 20

// Processor classifies one input
type Processor interface {
	Process(ctx context.Context, in model.Input) (*model.Record, error)
}

// DraftDecoder turns a raw JSON object into a draft, coercing what it can
type DraftDecoder func(raw []byte) model.Draft

// ClassifyJob represents one input of a batch
type ClassifyJob struct {
	Index     int
	Input     model.Input
	Processor Processor
}

// Execute executes the classify job
func (j *ClassifyJob) Execute(ctx context.Context) Result {
	record, err := j.Processor.Process(ctx, j.Input)
	if err != nil {
		return &ClassifyResult{
			Index: j.Index,
			Input: j.Input,
			Error: err,
		}
	}
	return &ClassifyResult{
		Index:  j.Index,
		Input:  j.Input,
		Record: record,
	}
}

// ClassifyResult represents the result of a classify job
type ClassifyResult struct {
	Index  int
	Input  model.Input
	Record *model.Record
	Error  error
}

// GetError returns the error from the classify result
func (r *ClassifyResult) GetError() error {
	return r.Error
}

// BatchProcessor classifies many inputs concurrently
type BatchProcessor struct {
	processor   Processor
	concurrency int

	// OnResult, when set, is called for each result as it completes
	OnResult func(done, total int, r *ClassifyResult)
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(processor Processor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		processor:   processor,
		concurrency: concurrency,
	}
}

// ProcessInputs classifies inputs concurrently. Results come back in input order.
func (b *BatchProcessor) ProcessInputs(ctx context.Context, inputs []model.Input) []*ClassifyResult {
	if len(inputs) == 0 {
		return []*ClassifyResult{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	go func() {
		for i, in := range inputs {
			if !pool.Submit(&ClassifyJob{Index: i, Input: in, Processor: b.processor}) {
				break
			}
		}
		pool.Close()
	}()

	results := make([]*ClassifyResult, 0, len(inputs))
	for r := range pool.Results() {
		cr := r.(*ClassifyResult)
		results = append(results, cr)
		if b.OnResult != nil {
			b.OnResult(len(results), len(inputs), cr)
		}
	}

	// inputs never submitted because ctx was cancelled
	if len(results) < len(inputs) {
		done := make(map[int]bool, len(results))
		for _, r := range results {
			done[r.Index] = true
		}
		for i, in := range inputs {
			if !done[i] {
				results = append(results, &ClassifyResult{Index: i, Input: in, Error: fmt.Errorf("not processed: %w", context.Cause(ctx))})
			}
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	return results
}

// ProcessTexts classifies plain transcripts with no drafts
func (b *BatchProcessor) ProcessTexts(ctx context.Context, texts []string) []*ClassifyResult {
	inputs := make([]model.Input, len(texts))
	for i, text := range texts {
		inputs[i] = model.Input{TranscriptText: text}
	}
	return b.ProcessInputs(ctx, inputs)
}

// ProcessFile reads transcripts (one per line) or JSONL inputs when decode is
// set, and classifies them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string, decode DraftDecoder) ([]*ClassifyResult, error) {
	if decode != nil {
		inputs, err := ReadInputsFromJSONL(filePath, decode)
		if err != nil {
			return nil, fmt.Errorf("read inputs: %w", err)
		}
		return b.ProcessInputs(ctx, inputs), nil
	}

	texts, err := ReadTranscriptsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read transcripts: %w", err)
	}
	return b.ProcessTexts(ctx, texts), nil
}

// ReadTranscriptsFromFile reads transcripts from a file (one per line),
// skipping blank lines, # comments and duplicates
func ReadTranscriptsFromFile(filePath string) ([]string, error) {
	var texts []string
	seen := make(map[string]bool)

	err := scanLines(filePath, func(_ int, line string) error {
		if strings.HasPrefix(line, "#") || seen[line] {
			return nil
		}
		seen[line] = true
		texts = append(texts, line)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return texts, nil
}

// ReadInputsFromJSONL reads one boundary input object per line:
// {"transcript_text": "...", "category": ..., "urgency": ..., ...}.
// Draft fields are coerced by decode; a line that is not a JSON object is an error.
func ReadInputsFromJSONL(filePath string, decode DraftDecoder) ([]model.Input, error) {
	var inputs []model.Input

	err := scanLines(filePath, func(n int, line string) error {
		if strings.HasPrefix(line, "#") {
			return nil
		}
		var head struct {
			TranscriptText string `json:"transcript_text"`
		}
		if err := json.Unmarshal([]byte(line), &head); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		inputs = append(inputs, model.Input{
			Draft:          decode([]byte(line)),
			TranscriptText: head.TranscriptText,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inputs, nil
}

func scanLines(filePath string, fn func(n int, line string) error) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan file: %w", err)
	}

	return nil
}
