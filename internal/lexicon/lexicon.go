// Package lexicon holds the read-only category, indicator and locale tables
// the classification engine scores text against.
package lexicon

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/intake/internal/model"
)

// ErrUnknownCategory is returned by Lookup for values outside the closed enum
var ErrUnknownCategory = errors.New("unknown category")

// Entry describes one category
type Entry struct {
	Category       model.Category
	Keywords       []string
	DefaultUrgency model.Urgency
	Department     string
}

// Notes holds the human-readable validation note texts
type Notes struct {
	ManualReview      string `yaml:"manual_review"`
	AddressMissing    string `yaml:"address_missing"`
	PeopleUnknown     string `yaml:"people_unknown"`
	CurrentDanger     string `yaml:"current_danger"`
	Weapons           string `yaml:"weapons"`
	CoercionFailure   string `yaml:"coercion_failure"`   // fmt: field, raw value
	UnparseableOutput string `yaml:"unparseable_output"` // whole draft was not JSON
}

// Locale holds language-specific output strings
type Locale struct {
	Language    string   `yaml:"language"`
	Unspecified string   `yaml:"unspecified"`
	Aliases     []string `yaml:"unspecified_aliases"` // other spellings accepted on input
	NearPrefix  string   `yaml:"near_prefix"`
	StreetForm  string   `yaml:"street_format"` // fmt: street, house
	HouseForm   string   `yaml:"house_format"`  // fmt: house (near a house without street)
	Summary     string   `yaml:"default_summary"`
	Notes       Notes    `yaml:"notes"`
}

// Lexicon is immutable after construction and safe for concurrent use
type Lexicon struct {
	entries   []Entry
	index     map[model.Category]int
	danger    []string
	weapon    []string
	immediacy []string
	locale    Locale
}

// New validates and builds a lexicon. Every category of the closed enum must be
// present exactly once.
func New(entries []Entry, danger, weapon, immediacy []string, locale Locale) (*Lexicon, error) {
	lex := &Lexicon{
		entries:   make([]Entry, 0, len(entries)),
		index:     make(map[model.Category]int, len(entries)),
		danger:    cleanTerms(danger),
		weapon:    cleanTerms(weapon),
		immediacy: cleanTerms(immediacy),
		locale:    locale,
	}

	for _, e := range entries {
		if !e.Category.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, e.Category)
		}
		if _, dup := lex.index[e.Category]; dup {
			return nil, fmt.Errorf("duplicate category %q", e.Category)
		}
		if !e.DefaultUrgency.Valid() {
			return nil, fmt.Errorf("category %q: invalid default urgency %q", e.Category, e.DefaultUrgency)
		}
		if strings.TrimSpace(e.Department) == "" {
			return nil, fmt.Errorf("category %q: department is required", e.Category)
		}
		e.Keywords = cleanTerms(e.Keywords)
		lex.index[e.Category] = len(lex.entries)
		lex.entries = append(lex.entries, e)
	}

	for _, c := range model.AllCategories() {
		if _, ok := lex.index[c]; !ok {
			return nil, fmt.Errorf("category %q missing from lexicon", c)
		}
	}

	if strings.TrimSpace(locale.Unspecified) == "" {
		return nil, fmt.Errorf("locale: unspecified sentinel is required")
	}
	if !strings.Contains(locale.StreetForm, "%s") {
		return nil, fmt.Errorf("locale: street_format must contain %%s placeholders")
	}

	return lex, nil
}

// Lookup returns the entry for a category
func (l *Lexicon) Lookup(c model.Category) (Entry, error) {
	i, ok := l.index[c]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}
	e := l.entries[i]
	e.Keywords = append([]string(nil), e.Keywords...)
	return e, nil
}

// MustLookup is Lookup for callers that already validated c. Unknown values
// resolve to the "other" entry.
func (l *Lexicon) MustLookup(c model.Category) Entry {
	e, err := l.Lookup(c)
	if err != nil {
		e, _ = l.Lookup(model.CategoryOther)
	}
	return e
}

// Categories returns categories in lexicon declaration order
func (l *Lexicon) Categories() []model.Category {
	out := make([]model.Category, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Category
	}
	return out
}

// Entries returns copies of all entries in declaration order
func (l *Lexicon) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		e.Keywords = append([]string(nil), e.Keywords...)
		out[i] = e
	}
	return out
}

// DangerTerms returns the danger indicator set
func (l *Lexicon) DangerTerms() []string { return append([]string(nil), l.danger...) }

// WeaponTerms returns the weapon indicator set
func (l *Lexicon) WeaponTerms() []string { return append([]string(nil), l.weapon...) }

// ImmediacyTerms returns the immediacy indicator set
func (l *Lexicon) ImmediacyTerms() []string { return append([]string(nil), l.immediacy...) }

// Locale returns the output strings
func (l *Lexicon) Locale() Locale {
	loc := l.locale
	loc.Aliases = append([]string(nil), l.locale.Aliases...)
	return loc
}

// IsUnspecified reports whether s is blank or any accepted "unspecified" spelling
func (l *Lexicon) IsUnspecified(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == strings.ToLower(l.locale.Unspecified) {
		return true
	}
	for _, alias := range l.locale.Aliases {
		if s == strings.ToLower(alias) {
			return true
		}
	}
	return false
}

func cleanTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
