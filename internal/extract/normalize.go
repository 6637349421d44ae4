package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize prepares text for keyword matching: NFC, Russian lowercasing,
// ё folded to е, and every run of non-alphanumerics collapsed to one space.
func Normalize(text string) string {
	// Casers are stateful; one per call keeps Normalize safe for concurrent use.
	lower := cases.Lower(language.Russian)
	text = lower.String(norm.NFC.String(text))

	var b strings.Builder
	b.Grow(len(text))
	pendingSpace := false

	for _, r := range text {
		if r == 'ё' {
			r = 'е'
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}

	return b.String()
}

// Clean prepares text for address patterns: NFC, ё/Ё folded, any Unicode
// space mapped to ' '. Case and punctuation are kept.
func Clean(text string) string {
	text = norm.NFC.String(text)
	return strings.Map(func(r rune) rune {
		switch {
		case r == 'ё':
			return 'е'
		case r == 'Ё':
			return 'Е'
		case unicode.IsSpace(r):
			return ' '
		}
		return r
	}, text)
}
