// Package score picks a category for free text and decides urgency escalation.
package score

import (
	"fmt"

	"github.com/ppiankov/intake/internal/extract"
	"github.com/ppiankov/intake/internal/lexicon"
	"github.com/ppiankov/intake/internal/model"
)

// KeywordWeight is what each distinct matched keyword adds to a category score.
// Classic rule tables credited a match once and then again at half weight; the
// combined 1.5 is kept so scores stay comparable with those tables.
const KeywordWeight = 1.5

// CategoryScore is one line of the scoring breakdown
type CategoryScore struct {
	Category model.Category `json:"category"`
	Score    float64        `json:"score"`
	Matched  []string       `json:"matched,omitempty"`
}

// Result explains how a category was chosen
type Result struct {
	Category    model.Category  `json:"category"`
	Score       float64         `json:"score"`
	Tie         bool            `json:"tie,omitempty"`
	Breakdown   []CategoryScore `json:"breakdown"`
	Description string          `json:"description"`
	Formula     string          `json:"formula"`
}

// Scorer is safe for concurrent use once constructed
type Scorer struct {
	lex       *lexicon.Lexicon
	extractor *extract.Extractor
	order     []model.Category
	keywords  map[model.Category]*extract.KeywordSet
}

// NewScorer compiles the category keyword tables of lex. A nil extractor is
// built from the same lexicon.
func NewScorer(lex *lexicon.Lexicon, extractor *extract.Extractor) *Scorer {
	if lex == nil {
		lex = lexicon.Default()
	}
	if extractor == nil {
		extractor = extract.NewExtractor(lex)
	}

	s := &Scorer{
		lex:       lex,
		extractor: extractor,
		keywords:  make(map[model.Category]*extract.KeywordSet),
	}
	for _, e := range lex.Entries() {
		s.order = append(s.order, e.Category)
		s.keywords[e.Category] = extract.NewKeywordSet(e.Keywords, extract.WordPrefix)
	}
	return s
}

// Score computes every category score. The strictly highest score wins, ties go
// to the category declared first, and text without any keyword is "other".
func (s *Scorer) Score(text string) Result {
	normalized := extract.Normalize(text)

	result := Result{
		Category: model.CategoryOther,
		Formula:  fmt.Sprintf("distinct_matched_keywords * %.1f", KeywordWeight),
	}

	for _, c := range s.order {
		matched := s.keywords[c].Matches(normalized)
		score := float64(len(matched)) * KeywordWeight
		result.Breakdown = append(result.Breakdown, CategoryScore{
			Category: c,
			Score:    score,
			Matched:  matched,
		})

		switch {
		case score > result.Score:
			result.Category = c
			result.Score = score
			result.Tie = false
		case score > 0 && score == result.Score:
			result.Tie = true
		}
	}

	switch {
	case result.Score == 0:
		result.Description = "No category keywords matched"
	case result.Tie:
		result.Description = fmt.Sprintf("Tie at %.1f resolved by declaration order: %s", result.Score, result.Category)
	default:
		result.Description = fmt.Sprintf("Best match %s with %.1f", result.Category, result.Score)
	}

	return result
}

// DetectCategory returns the best-fit category for text
func (s *Scorer) DetectCategory(text string) model.Category {
	return s.Score(text).Category
}

// EscalateUrgency raises draft urgency on danger language and clamps it to the
// category floor. It never lowers a valid draft urgency. An empty or invalid
// draft counts as low.
func (s *Scorer) EscalateUrgency(draft model.Urgency, text string, floor model.Urgency) model.Urgency {
	urgency := draft
	if !urgency.Valid() {
		urgency = model.UrgencyLow
	}

	if urgency != model.UrgencyCritical && s.extractor.HasDangerIndicator(text) {
		urgency = model.MaxUrgency(urgency, model.UrgencyHigh)
	}

	if floor.Valid() {
		urgency = model.MaxUrgency(urgency, floor)
	}
	return urgency
}

// Floor returns the default urgency of category c
func (s *Scorer) Floor(c model.Category) model.Urgency {
	return s.lex.MustLookup(c).DefaultUrgency
}
