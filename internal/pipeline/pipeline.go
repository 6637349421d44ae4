// Package pipeline wires the classification engine to its optional outer
// adapters: the generative draft provider, the draft cache, the record store
// and metrics.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/intake/internal/cache"
	"github.com/ppiankov/intake/internal/lexicon"
	"github.com/ppiankov/intake/internal/llm"
	"github.com/ppiankov/intake/internal/logging"
	"github.com/ppiankov/intake/internal/model"
	"github.com/ppiankov/intake/internal/reconcile"
	"github.com/ppiankov/intake/internal/store"
	"github.com/ppiankov/intake/internal/worker"
)

// Appender persists finalized records
type Appender interface {
	Append(ctx context.Context, rec *model.Record) error
}

// Options holds the optional adapters of a pipeline. Nil fields are disabled.
type Options struct {
	Drafter *llm.Drafter
	Cache   cache.Cache
	Limiter *worker.Limiter
	Store   Appender
	Metrics *Metrics
	Logger  logging.Logger
}

// Pipeline orchestrates draft, reconciliation and persistence of one input
type Pipeline struct {
	engine  *reconcile.Engine
	drafter *llm.Drafter
	cache   cache.Cache
	limiter *worker.Limiter
	store   Appender
	metrics *Metrics
	logger  logging.Logger
	closers []io.Closer
}

// New creates a pipeline around an engine
func New(engine *reconcile.Engine, opts Options) *Pipeline {
	if engine == nil {
		engine = reconcile.NewEngine(nil, opts.Logger)
	}
	c := opts.Cache
	if c == nil {
		c = cache.NopCache{}
	}
	return &Pipeline{
		engine:  engine,
		drafter: opts.Drafter,
		cache:   c,
		limiter: opts.Limiter,
		store:   opts.Store,
		metrics: opts.Metrics,
		logger:  logging.OrNop(opts.Logger),
	}
}

// NewPipeline builds a pipeline from the application configuration. A provider
// that fails to initialize disables drafting with a warning; a store that
// fails to open is an error.
func NewPipeline(cfg *model.Config, logger logging.Logger) (*Pipeline, error) {
	logger = logging.OrNop(logger)

	lex, err := lexicon.FromConfig(cfg.Engine)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}

	opts := Options{
		Cache:   cache.New(cfg.Cache),
		Limiter: worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
		Metrics: NewMetrics(),
		Logger:  logger,
	}

	if cfg.LLM.Provider != "" {
		llmConfig := llm.ConfigFromModel(cfg.LLM, cfg.HTTP)
		llmConfig.Lexicon = lex
		drafter, err := llm.NewDrafter(llmConfig)
		if err != nil {
			logger.Warn("LLM provider disabled", logging.String("provider", cfg.LLM.Provider), logging.Error(err))
		} else {
			opts.Drafter = drafter
		}
	}

	var closers []io.Closer
	if cfg.Store.Enabled {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		opts.Store = st
		closers = append(closers, st)
	}

	p := New(reconcile.NewEngine(lex, logger), opts)
	p.closers = closers
	return p, nil
}

// Engine returns the classification engine
func (p *Pipeline) Engine() *reconcile.Engine {
	return p.engine
}

// Drafter returns the draft provider wrapper, nil when drafting is disabled
func (p *Pipeline) Drafter() *llm.Drafter {
	return p.drafter
}

// Metrics returns the pipeline metrics, nil when disabled
func (p *Pipeline) Metrics() *Metrics {
	return p.metrics
}

// Close releases the store
func (p *Pipeline) Close() error {
	var errs []error
	for _, c := range p.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Process classifies one input. A caller-supplied draft is used as is;
// otherwise the provider (if any) is asked for one, through the cache and the
// rate limiter. Provider failures degrade to rules-only classification. The
// finalized record is appended to the store when one is configured.
func (p *Pipeline) Process(ctx context.Context, in model.Input) (*model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	draft, source, provider := p.draft(ctx, in)
	incident := p.engine.Classify(model.Input{Draft: draft, TranscriptText: in.TranscriptText})

	rec := &model.Record{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		Transcript:  in.TranscriptText,
		DraftSource: source,
		Provider:    provider,
		Incident:    incident,
	}

	if p.store != nil {
		if err := p.store.Append(ctx, rec); err != nil {
			p.metrics.storeError()
			return rec, fmt.Errorf("store record: %w", err)
		}
	}

	p.metrics.observe(rec, time.Since(start).Seconds())
	p.logger.Debug("record finalized",
		logging.String("id", rec.ID),
		logging.String("category", string(incident.Category)),
		logging.String("urgency", string(incident.Urgency)),
		logging.String("draft_source", string(source)),
		logging.Float64("confidence", incident.ConfidenceScore),
	)

	return rec, nil
}

// ProcessText classifies a bare transcript
func (p *Pipeline) ProcessText(ctx context.Context, text string) (*model.Record, error) {
	return p.Process(ctx, model.Input{TranscriptText: text})
}

func (p *Pipeline) draft(ctx context.Context, in model.Input) (model.Draft, model.DraftSource, string) {
	if !in.Draft.IsZero() {
		return in.Draft, model.DraftSourceInput, ""
	}
	if !p.drafter.IsEnabled() || strings.TrimSpace(in.TranscriptText) == "" {
		return model.Draft{}, model.DraftSourceNone, ""
	}

	name := p.drafter.ProviderName()
	key := cache.DraftKey(name, p.drafter.Model(), p.drafter.Language(), in.TranscriptText)
	decode := p.engine.Normalizer().DecodeDraft

	if raw, ok := p.cache.Get(key); ok {
		p.logger.Debug("draft served from cache", logging.String("provider", name))
		return decode(raw), model.DraftSourceCache, name
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, name); err != nil {
			p.logger.Warn("draft skipped, rate limiter wait aborted", logging.String("provider", name), logging.Error(err))
			return model.Draft{}, model.DraftSourceNone, ""
		}
	}

	resp, err := p.drafter.Draft(ctx, in.TranscriptText)
	if err != nil {
		p.metrics.llmError(name)
		p.logger.Warn("LLM draft failed, classifying with rules only", logging.String("provider", name), logging.Error(err))
		return model.Draft{}, model.DraftSourceNone, ""
	}

	raw := []byte(resp.Raw)
	if err := p.cache.Set(key, raw, 0); err != nil {
		p.logger.Warn("failed to cache draft", logging.Error(err))
	}
	p.logger.Debug("draft generated",
		logging.String("provider", name),
		logging.String("model", resp.Model),
		logging.Int("tokens", resp.TokensUsed),
	)

	return decode(raw), model.DraftSourceLLM, name
}
