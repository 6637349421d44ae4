// Package reconcile merges an upstream draft with rule-based extraction and
// scoring into a finalized incident record.
package reconcile

import (
	"strings"

	"github.com/ppiankov/intake/internal/extract"
	"github.com/ppiankov/intake/internal/lexicon"
	"github.com/ppiankov/intake/internal/logging"
	"github.com/ppiankov/intake/internal/model"
	"github.com/ppiankov/intake/internal/score"
	"github.com/ppiankov/intake/internal/validate"
)

// Engine is the classification engine. It holds only read-only state and is
// safe for concurrent use.
type Engine struct {
	lex        *lexicon.Lexicon
	extractor  *extract.Extractor
	scorer     *score.Scorer
	normalizer *validate.Normalizer
	logger     logging.Logger
}

// NewEngine builds an engine over lex (the built-in lexicon when nil)
func NewEngine(lex *lexicon.Lexicon, logger logging.Logger) *Engine {
	if lex == nil {
		lex = lexicon.Default()
	}
	logger = logging.OrNop(logger)

	extractor := extract.NewExtractor(lex)
	scorer := score.NewScorer(lex, extractor)

	return &Engine{
		lex:        lex,
		extractor:  extractor,
		scorer:     scorer,
		normalizer: validate.NewNormalizer(lex, scorer, logger),
		logger:     logger,
	}
}

// Lexicon returns the lexicon the engine scores against
func (e *Engine) Lexicon() *lexicon.Lexicon { return e.lex }

// Scorer returns the engine's category scorer
func (e *Engine) Scorer() *score.Scorer { return e.scorer }

// Extractor returns the engine's entity extractor
func (e *Engine) Extractor() *extract.Extractor { return e.extractor }

// Normalizer returns the engine's schema normalizer
func (e *Engine) Normalizer() *validate.Normalizer { return e.normalizer }

// Reconcile checks every draft field against the text. Category is settled
// first because urgency floor and department depend on it. True flags are
// never cleared and urgency is never lowered.
func (e *Engine) Reconcile(d model.Draft, text string) model.Incident {
	inc := model.Incident{
		CurrentDanger:   d.CurrentDanger,
		Weapons:         d.Weapons,
		PeopleInvolved:  d.PeopleInvolved,
		Summary:         strings.TrimSpace(d.Summary),
		ValidationNotes: append([]string(nil), d.CoercionNotes...),
	}

	// 1. category
	if c, ok := model.ParseCategory(d.Category); ok {
		inc.Category = c
	} else {
		inc.Category = e.scorer.DetectCategory(text)
		e.logger.Debug("category resolved by scorer",
			logging.String("draft", d.Category),
			logging.String("category", string(inc.Category)))
	}

	// 2. urgency
	draftUrgency, _ := model.ParseUrgency(d.Urgency)
	floor := e.scorer.Floor(inc.Category)
	inc.Urgency = e.scorer.EscalateUrgency(draftUrgency, text, floor)
	if inc.Urgency != draftUrgency {
		e.logger.Debug("urgency escalated",
			logging.String("draft", d.Urgency),
			logging.String("floor", string(floor)),
			logging.String("urgency", string(inc.Urgency)))
	}

	// 3. current danger
	if !inc.CurrentDanger && e.extractor.HasImmediateDangerIndicator(text) {
		inc.CurrentDanger = true
		e.logger.Debug("current danger detected")
	}

	// 4. weapons
	if !inc.Weapons && e.extractor.HasWeaponIndicator(text) {
		inc.Weapons = true
		e.logger.Debug("weapon detected")
	}

	// 5. people involved
	if inc.PeopleInvolved <= 0 {
		inc.PeopleInvolved = e.extractor.ExtractPeopleCount(text)
		if inc.PeopleInvolved > 0 {
			e.logger.Debug("people count extracted", logging.Int("people", inc.PeopleInvolved))
		}
	}

	// 6. department
	inc.RecommendedDepartment = strings.TrimSpace(d.RecommendedDepartment)
	if e.lex.IsUnspecified(inc.RecommendedDepartment) {
		inc.RecommendedDepartment = e.lex.MustLookup(inc.Category).Department
	}

	// 7. address
	inc.Address = strings.TrimSpace(d.Address)
	if e.lex.IsUnspecified(inc.Address) {
		inc.Address = e.extractor.ExtractAddress(text)
		e.logger.Debug("address extracted", logging.String("address", inc.Address))
	}

	return inc
}

// Classify reconciles the draft against the transcript and normalizes the result
func (e *Engine) Classify(in model.Input) model.Incident {
	return e.normalizer.Normalize(e.Reconcile(in.Draft, in.TranscriptText))
}

// ClassifyText classifies text with no upstream draft
func (e *Engine) ClassifyText(text string) model.Incident {
	return e.Classify(model.Input{TranscriptText: text})
}
