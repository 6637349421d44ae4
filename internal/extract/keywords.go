package extract

import (
	"unicode/utf8"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// MatchMode controls where a keyword may occur in normalized text
type MatchMode int

const (
	// Substring matches a keyword anywhere
	Substring MatchMode = iota
	// WordPrefix matches a keyword at the start of a word. Keywords of two
	// runes or fewer must match a whole word.
	WordPrefix
)

const shortKeywordRunes = 2

// KeywordSet matches a fixed list of keywords in one Aho-Corasick pass.
// It is immutable and safe for concurrent use.
type KeywordSet struct {
	terms   []string // original terms, declaration order
	mode    MatchMode
	matcher *ahocorasick.Matcher
}

// NewKeywordSet compiles terms into a matcher
func NewKeywordSet(terms []string, mode MatchMode) *KeywordSet {
	ks := &KeywordSet{mode: mode}
	seen := make(map[string]bool, len(terms))
	patterns := make([]string, 0, len(terms))

	for _, term := range terms {
		normalized := Normalize(term)
		if normalized == "" {
			continue
		}
		pattern := normalized
		if mode == WordPrefix {
			pattern = " " + normalized
			if utf8.RuneCountInString(normalized) <= shortKeywordRunes {
				pattern += " "
			}
		}
		if seen[pattern] {
			continue
		}
		seen[pattern] = true

		ks.terms = append(ks.terms, term)
		patterns = append(patterns, pattern)
	}

	if len(patterns) > 0 {
		ks.matcher = ahocorasick.NewStringMatcher(patterns)
	}
	return ks
}

// Len returns the number of distinct keywords
func (k *KeywordSet) Len() int {
	return len(k.terms)
}

// Matches returns the distinct keywords found in already-normalized text, in
// declaration order
func (k *KeywordSet) Matches(normalized string) []string {
	if k.matcher == nil || normalized == "" {
		return nil
	}

	subject := normalized
	if k.mode == WordPrefix {
		subject = " " + normalized + " "
	}

	hits := k.matcher.MatchThreadSafe([]byte(subject))
	if len(hits) == 0 {
		return nil
	}

	found := make([]bool, len(k.terms))
	for _, h := range hits {
		if h >= 0 && h < len(found) {
			found[h] = true
		}
	}

	var out []string
	for i, ok := range found {
		if ok {
			out = append(out, k.terms[i])
		}
	}
	return out
}

// Any reports whether at least one keyword occurs in normalized text
func (k *KeywordSet) Any(normalized string) bool {
	return len(k.Matches(normalized)) > 0
}
