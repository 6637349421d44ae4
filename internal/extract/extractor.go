// Package extract pulls structured entities (danger and weapon flags, people
// count, address) out of free incident text. Nothing here fails: a miss is the
// documented zero value.
package extract

import (
	"github.com/ppiankov/intake/internal/lexicon"
)

// Extractor is built once per lexicon and shared; it holds only read-only state.
type Extractor struct {
	lex       *lexicon.Lexicon
	danger    *KeywordSet
	weapon    *KeywordSet
	immediacy *KeywordSet
}

// NewExtractor compiles the indicator sets of lex
func NewExtractor(lex *lexicon.Lexicon) *Extractor {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Extractor{
		lex:       lex,
		danger:    NewKeywordSet(lex.DangerTerms(), Substring),
		weapon:    NewKeywordSet(lex.WeaponTerms(), Substring),
		immediacy: NewKeywordSet(lex.ImmediacyTerms(), Substring),
	}
}

// Lexicon returns the lexicon the extractor was built from
func (e *Extractor) Lexicon() *lexicon.Lexicon {
	return e.lex
}

// HasDangerIndicator reports whether any danger term occurs in text
func (e *Extractor) HasDangerIndicator(text string) bool {
	return e.danger.Any(Normalize(text))
}

// HasImmediateDangerIndicator requires both an immediacy term and a danger
// term somewhere in the same text
func (e *Extractor) HasImmediateDangerIndicator(text string) bool {
	normalized := Normalize(text)
	return e.immediacy.Any(normalized) && e.danger.Any(normalized)
}

// HasWeaponIndicator reports whether any weapon term occurs in text
func (e *Extractor) HasWeaponIndicator(text string) bool {
	return e.weapon.Any(Normalize(text))
}

// Indicators lists every indicator term found in text, for diagnostics
type Indicators struct {
	Danger    []string `json:"danger,omitempty"`
	Weapon    []string `json:"weapon,omitempty"`
	Immediacy []string `json:"immediacy,omitempty"`
}

// FindIndicators returns all matched indicator terms
func (e *Extractor) FindIndicators(text string) Indicators {
	normalized := Normalize(text)
	return Indicators{
		Danger:    e.danger.Matches(normalized),
		Weapon:    e.weapon.Matches(normalized),
		Immediacy: e.immediacy.Matches(normalized),
	}
}
