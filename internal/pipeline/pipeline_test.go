package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	dto "github.com/prometheus/client_model/go"

	"github.com/ppiankov/intake/internal/cache"
	"github.com/ppiankov/intake/internal/lexicon"
	"github.com/ppiankov/intake/internal/llm"
	"github.com/ppiankov/intake/internal/logging"
	"github.com/ppiankov/intake/internal/model"
	"github.com/ppiankov/intake/internal/reconcile"
	"github.com/ppiankov/intake/internal/store"
	"github.com/ppiankov/intake/internal/validate"
	"github.com/ppiankov/intake/internal/worker"
)

const scenarioA = "Мужчина бьет женщину ножом во дворе дома 15 по улице Абая, сейчас"

// stubProvider implements llm.Provider
type stubProvider struct {
	raw   string
	err   error
	calls int32
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) IsAvailable(ctx context.Context) bool { return true }

func (s *stubProvider) Draft(ctx context.Context, req llm.DraftRequest) (*llm.DraftResponse, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	return &llm.DraftResponse{Raw: s.raw, Model: "stub-model", TokensUsed: 10}, nil
}

type failingStore struct{}

func (failingStore) Append(ctx context.Context, rec *model.Record) error {
	return errors.New("disk full")
}

// counterValue sums the counter samples of name whose labels include want
func counterValue(t *testing.T, m *Metrics, name string, want map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if hasLabels(metric, want) {
				total += metric.GetCounter().GetValue()
			}
		}
	}
	return total
}

func hasLabels(metric *dto.Metric, want map[string]string) bool {
	matched := 0
	for _, lp := range metric.GetLabel() {
		if v, ok := want[lp.GetName()]; ok && v == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}

func newTestPipeline(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return New(reconcile.NewEngine(lexicon.Default(), opts.Logger), opts)
}

func TestPipeline_RulesOnly(t *testing.T) {
	metrics := NewMetrics()
	p := newTestPipeline(Options{Metrics: metrics})

	rec, err := p.ProcessText(context.Background(), scenarioA)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if rec.ID == "" || rec.CreatedAt.IsZero() {
		t.Error("Expected ID and timestamp")
	}
	if rec.DraftSource != model.DraftSourceNone || rec.Provider != "" {
		t.Errorf("Expected rules-only record, got %s/%s", rec.DraftSource, rec.Provider)
	}
	if rec.Incident.Category != model.CategoryAssault || !rec.Incident.Weapons {
		t.Errorf("Unexpected incident: %+v", rec.Incident)
	}
	if rec.Transcript != scenarioA {
		t.Errorf("Expected transcript to be kept, got %q", rec.Transcript)
	}

	got := counterValue(t, metrics, "intake_records_total", map[string]string{"category": "assault", "urgency": string(rec.Incident.Urgency)})
	if got != 1 {
		t.Errorf("Expected 1 assault record counted, got %v", got)
	}
	if counterValue(t, metrics, "intake_drafts_total", map[string]string{"source": "none"}) != 1 {
		t.Error("Expected draft source none to be counted")
	}
}

func TestPipeline_RecordsPassSchemaCheck(t *testing.T) {
	pipelines := map[string]*Pipeline{
		"rules": newTestPipeline(Options{}),
		"mock":  newTestPipeline(Options{Drafter: llm.NewDrafterWithProvider(llm.NewMockProvider(), llm.Config{Language: "ru"})}),
	}
	texts := []string{
		"",
		scenarioA,
		"Пожар, горит квартира",
		"У меня украли кошелек в автобусе",
		"улица Абая возле дома 15",
		"Несколько человек шумят во дворе",
	}
	renderer := NewRenderer(false)

	for name, p := range pipelines {
		for _, text := range texts {
			rec, err := p.ProcessText(context.Background(), text)
			if err != nil {
				t.Fatalf("%s: Process(%q) failed: %v", name, text, err)
			}
			if errs := validate.CheckRecord(rec.Incident); len(errs) != 0 {
				t.Errorf("%s: record for %q fails schema check: %v", name, text, errs)
			}
			if strings.TrimSpace(rec.Incident.Summary) == "" {
				t.Errorf("%s: record for %q has no summary", name, text)
			}

			data, err := renderer.JSON(rec.Incident)
			if err != nil {
				t.Fatalf("%s: JSON failed: %v", name, err)
			}
			if errs := validate.CheckJSON(data); len(errs) != 0 {
				t.Errorf("%s: rendered record for %q fails schema check: %v", name, text, errs)
			}
		}
	}

	rec, err := pipelines["mock"].ProcessText(context.Background(), scenarioA)
	if err != nil {
		t.Fatal(err)
	}
	if rec.DraftSource != model.DraftSourceLLM {
		t.Errorf("Expected mock draft to be used, got %s", rec.DraftSource)
	}
}

func TestPipeline_InputDraft(t *testing.T) {
	stub := &stubProvider{raw: `{"category":"noise"}`}
	p := newTestPipeline(Options{Drafter: llm.NewDrafterWithProvider(stub, llm.Config{})})

	rec, err := p.Process(context.Background(), model.Input{
		Draft:          model.Draft{Urgency: "low"},
		TranscriptText: "Пожар, горит квартира",
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if rec.DraftSource != model.DraftSourceInput {
		t.Errorf("Expected draft source input, got %s", rec.DraftSource)
	}
	if rec.Incident.Urgency != model.UrgencyCritical {
		t.Errorf("Expected critical, got %s", rec.Incident.Urgency)
	}
	if atomic.LoadInt32(&stub.calls) != 0 {
		t.Error("Expected provider not to be called when a draft is supplied")
	}
}

func TestPipeline_LLMDraftAndCache(t *testing.T) {
	stub := &stubProvider{raw: "```json\n{\"category\":\"theft\",\"urgency\":\"medium\",\"summary\":\"Украли кошелек\"}\n```"}
	metrics := NewMetrics()
	p := newTestPipeline(Options{
		Drafter: llm.NewDrafterWithProvider(stub, llm.Config{Model: "stub-model"}),
		Cache:   cache.NewMemoryCache(0, 0),
		Limiter: worker.NewLimiter(0, 1),
		Metrics: metrics,
	})

	text := "У меня украли кошелек в автобусе"

	first, err := p.ProcessText(context.Background(), text)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if first.DraftSource != model.DraftSourceLLM || first.Provider != "stub" {
		t.Errorf("Expected llm draft from stub, got %s/%s", first.DraftSource, first.Provider)
	}
	if first.Incident.Summary != "Украли кошелек" || first.Incident.Category != model.CategoryTheft {
		t.Errorf("Expected draft values to be kept, got %+v", first.Incident)
	}

	second, err := p.ProcessText(context.Background(), "  "+text+"  ")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if second.DraftSource != model.DraftSourceCache {
		t.Errorf("Expected cached draft, got %s", second.DraftSource)
	}
	if second.Incident.Summary != first.Incident.Summary {
		t.Errorf("Expected cached draft to match, got %q", second.Incident.Summary)
	}
	if calls := atomic.LoadInt32(&stub.calls); calls != 1 {
		t.Errorf("Expected 1 provider call, got %d", calls)
	}
	if counterValue(t, metrics, "intake_drafts_total", map[string]string{"source": "cache"}) != 1 {
		t.Error("Expected cache draft to be counted")
	}
}

func TestPipeline_LLMFailureDegrades(t *testing.T) {
	stub := &stubProvider{err: errors.New("connection refused")}
	metrics := NewMetrics()
	p := newTestPipeline(Options{
		Drafter: llm.NewDrafterWithProvider(stub, llm.Config{}),
		Metrics: metrics,
	})

	rec, err := p.ProcessText(context.Background(), "Пожар, горит квартира")
	if err != nil {
		t.Fatalf("Expected graceful degradation, got %v", err)
	}
	if rec.DraftSource != model.DraftSourceNone {
		t.Errorf("Expected rules-only record, got %s", rec.DraftSource)
	}
	if rec.Incident.Category != model.CategoryFire || rec.Incident.Urgency != model.UrgencyCritical {
		t.Errorf("Unexpected incident: %+v", rec.Incident)
	}
	if counterValue(t, metrics, "intake_llm_errors_total", map[string]string{"provider": "stub"}) != 1 {
		t.Error("Expected LLM error to be counted")
	}
}

func TestPipeline_UnparseableDraft(t *testing.T) {
	stub := &stubProvider{raw: "Извините, я не могу помочь"}
	p := newTestPipeline(Options{Drafter: llm.NewDrafterWithProvider(stub, llm.Config{})})

	rec, err := p.ProcessText(context.Background(), "Пожар, горит квартира")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	want := lexicon.Default().Locale().Notes.UnparseableOutput
	if len(rec.Incident.ValidationNotes) == 0 || rec.Incident.ValidationNotes[0] != want {
		t.Errorf("Expected unparseable note first, got %v", rec.Incident.ValidationNotes)
	}
	if rec.Incident.Category != model.CategoryFire {
		t.Errorf("Expected rules to classify fire, got %s", rec.Incident.Category)
	}
}

func TestPipeline_Store(t *testing.T) {
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = st.Close() }()

	p := newTestPipeline(Options{Store: st})

	rec, err := p.ProcessText(context.Background(), scenarioA)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	got, err := st.Get(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("Expected record in store: %v", err)
	}
	if !got.Incident.Validated || got.Incident.ConfidenceScore != rec.Incident.ConfidenceScore {
		t.Errorf("Expected validated record with confidence %v, got %+v", rec.Incident.ConfidenceScore, got.Incident)
	}
	if got.Incident.Address != rec.Incident.Address {
		t.Errorf("Expected stored address %q, got %q", rec.Incident.Address, got.Incident.Address)
	}
}

func TestPipeline_StoreFailure(t *testing.T) {
	metrics := NewMetrics()
	p := newTestPipeline(Options{Store: failingStore{}, Metrics: metrics})

	rec, err := p.ProcessText(context.Background(), scenarioA)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Expected store error, got %v", err)
	}
	if rec == nil || !rec.Incident.Validated {
		t.Error("Expected finalized record alongside the store error")
	}
	if counterValue(t, metrics, "intake_store_errors_total", nil) != 1 {
		t.Error("Expected store error to be counted")
	}
}

func TestPipeline_Cancelled(t *testing.T) {
	p := newTestPipeline(Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.ProcessText(ctx, scenarioA); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestPipeline_Batch(t *testing.T) {
	p := newTestPipeline(Options{})
	batch := worker.NewBatchProcessor(p, 4)

	texts := []string{scenarioA, "Пожар, горит квартира", "", "Пропал ребенок"}
	results := batch.ProcessTexts(context.Background(), texts)

	if len(results) != len(texts) {
		t.Fatalf("Expected %d results, got %d", len(texts), len(results))
	}
	for i, res := range results {
		if res.Error != nil {
			t.Fatalf("Unexpected error: %v", res.Error)
		}
		if res.Record.Transcript != texts[i] {
			t.Errorf("Result %d out of order", i)
		}
	}
	if results[2].Record.Incident.Category != model.CategoryOther {
		t.Errorf("Expected empty transcript to classify as other, got %s", results[2].Record.Incident.Category)
	}
}

func TestNewPipeline_FromConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "mock"
	cfg.Cache.Dir = filepath.Join(dir, "cache")
	cfg.Store.Enabled = true
	cfg.Store.Path = filepath.Join(dir, "records.db")

	p, err := NewPipeline(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	defer func() { _ = p.Close() }()

	if p.Drafter().ProviderName() != "mock" {
		t.Errorf("Expected mock provider, got %q", p.Drafter().ProviderName())
	}

	rec, err := p.ProcessText(context.Background(), "У меня украли кошелек")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if rec.DraftSource != model.DraftSourceLLM {
		t.Errorf("Expected llm draft, got %s", rec.DraftSource)
	}
	if _, err := os.Stat(cfg.Store.Path); err != nil {
		t.Errorf("Expected store file: %v", err)
	}
}

func TestNewPipeline_BadProviderWarns(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "openai" // no API key
	cfg.Cache.Enabled = false

	p, err := NewPipeline(cfg, nil)
	if err != nil {
		t.Fatalf("Expected provider failure to be non-fatal, got %v", err)
	}
	if p.Drafter().IsEnabled() {
		t.Error("Expected drafting to be disabled")
	}
}

func TestNewPipeline_BadLexicon(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Engine.Language = "de"

	if _, err := NewPipeline(cfg, nil); err == nil {
		t.Error("Expected error for unsupported language")
	}
}

func TestMetrics_WriteFile(t *testing.T) {
	metrics := NewMetrics()
	p := newTestPipeline(Options{Metrics: metrics})
	if _, err := p.ProcessText(context.Background(), "Пожар, горит квартира"); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if got := counterValue(t, metrics, "intake_records_total", nil); got != 1 {
		t.Errorf("Expected 1 record counted, got %v", got)
	}

	path := filepath.Join(t.TempDir(), "intake.prom")
	if err := metrics.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `intake_records_total{category="fire",urgency="critical"} 1`) {
		t.Errorf("Unexpected metrics file:\n%s", data)
	}
}
