// Package validate enforces the finalized record schema: default filling,
// confidence scoring, validation notes, boundary decoding of upstream drafts
// and schema checks of stored records.
package validate

import (
	"math"
	"strings"

	"github.com/ppiankov/intake/internal/lexicon"
	"github.com/ppiankov/intake/internal/logging"
	"github.com/ppiankov/intake/internal/model"
	"github.com/ppiankov/intake/internal/score"
)

// Confidence arithmetic
const (
	BaseConfidence   = 0.7
	StreetBonus      = 0.10
	PeopleBonus      = 0.05
	HazardBonus      = 0.05
	OtherPenalty     = 0.10
	MinConfidence    = 0.3
	MaxConfidence    = 1.0
	confidenceDigits = 100
)

// Normalizer is the final compliance pass over a reconciled incident
type Normalizer struct {
	lex    *lexicon.Lexicon
	scorer *score.Scorer
	logger logging.Logger
}

// NewNormalizer creates a normalizer. Nil arguments fall back to the built-in
// lexicon, a scorer over it, and a no-op logger.
func NewNormalizer(lex *lexicon.Lexicon, scorer *score.Scorer, logger logging.Logger) *Normalizer {
	if lex == nil {
		lex = lexicon.Default()
	}
	if scorer == nil {
		scorer = score.NewScorer(lex, nil)
	}
	return &Normalizer{
		lex:    lex,
		scorer: scorer,
		logger: logging.OrNop(logger),
	}
}

// Normalize fills defaults, computes confidence and notes, and marks the record
// validated. It never fails and applying it twice changes nothing.
func (n *Normalizer) Normalize(inc model.Incident) model.Incident {
	loc := n.lex.Locale()
	out := inc

	if !out.Category.Valid() {
		if c, ok := model.ParseCategory(string(out.Category)); ok {
			out.Category = c
		} else {
			out.Category = n.scorer.DetectCategory(out.Summary)
		}
		n.logger.Debug("category coerced",
			logging.String("from", string(inc.Category)),
			logging.String("to", string(out.Category)))
	}

	floor := n.scorer.Floor(out.Category)
	if u, ok := model.ParseUrgency(string(out.Urgency)); ok {
		out.Urgency = model.MaxUrgency(u, floor)
	} else {
		out.Urgency = floor
		n.logger.Debug("urgency coerced to category floor",
			logging.String("from", string(inc.Urgency)),
			logging.String("to", string(floor)))
	}

	if out.PeopleInvolved < 0 {
		out.PeopleInvolved = 0
	}

	out.Address = strings.TrimSpace(out.Address)
	if n.lex.IsUnspecified(out.Address) {
		out.Address = loc.Unspecified
	}

	out.RecommendedDepartment = strings.TrimSpace(out.RecommendedDepartment)
	if n.lex.IsUnspecified(out.RecommendedDepartment) {
		out.RecommendedDepartment = n.lex.MustLookup(out.Category).Department
	}

	out.Summary = strings.TrimSpace(out.Summary)
	if out.Summary == "" {
		out.Summary = loc.Summary
	}

	out.ConfidenceScore = n.Confidence(out)
	out.ValidationNotes = n.notes(out, loc)
	out.Validated = true

	return out
}

// Confidence scores how complete a record is, bounded to [0.3, 1.0]
func (n *Normalizer) Confidence(inc model.Incident) float64 {
	confidence := BaseConfidence

	if n.IsStreetAddress(inc.Address) {
		confidence += StreetBonus
	}
	if inc.PeopleInvolved > 0 {
		confidence += PeopleBonus
	}
	if inc.CurrentDanger || inc.Weapons {
		confidence += HazardBonus
	}
	if inc.Category == model.CategoryOther {
		confidence -= OtherPenalty
	}

	confidence = math.Max(MinConfidence, math.Min(MaxConfidence, confidence))
	return math.Round(confidence*confidenceDigits) / confidenceDigits
}

// IsStreetAddress reports whether address names a street: it carries the
// locale's street marker ("ул.") and is not a "near ..." fallback
func (n *Normalizer) IsStreetAddress(address string) bool {
	address = strings.TrimSpace(address)
	if n.lex.IsUnspecified(address) {
		return false
	}
	loc := n.lex.Locale()
	if loc.NearPrefix != "" && strings.HasPrefix(address, loc.NearPrefix) {
		return false
	}
	marker := streetMarker(loc.StreetForm)
	return marker != "" && strings.Contains(strings.ToLower(address), strings.ToLower(marker))
}

// streetMarker is the literal text of the street format before its first verb
func streetMarker(format string) string {
	if i := strings.Index(format, "%"); i >= 0 {
		format = format[:i]
	}
	return strings.TrimSpace(format)
}

// notes keeps carried notes (decoder coercion failures) first and rebuilds the
// generated ones after them
func (n *Normalizer) notes(inc model.Incident, loc lexicon.Locale) []string {
	generated := map[string]bool{
		loc.Notes.ManualReview:   true,
		loc.Notes.AddressMissing: true,
		loc.Notes.PeopleUnknown:  true,
		loc.Notes.CurrentDanger:  true,
		loc.Notes.Weapons:        true,
	}

	notes := make([]string, 0, len(inc.ValidationNotes)+5)
	seen := make(map[string]bool)
	for _, note := range inc.ValidationNotes {
		note = strings.TrimSpace(note)
		if note == "" || generated[note] || seen[note] {
			continue
		}
		seen[note] = true
		notes = append(notes, note)
	}

	if inc.Category == model.CategoryOther {
		notes = append(notes, loc.Notes.ManualReview)
	}
	if n.lex.IsUnspecified(inc.Address) {
		notes = append(notes, loc.Notes.AddressMissing)
	}
	if inc.PeopleInvolved == 0 {
		notes = append(notes, loc.Notes.PeopleUnknown)
	}
	if inc.CurrentDanger {
		notes = append(notes, loc.Notes.CurrentDanger)
	}
	if inc.Weapons {
		notes = append(notes, loc.Notes.Weapons)
	}

	return notes
}
