package model

import "strings"

// CategorySetVersion identifies the closed category enum below
const CategorySetVersion = "2024.1"

// Category is the incident category (closed, versioned enum)
type Category string

const (
	CategoryTheft         Category = "theft"
	CategoryAssault       Category = "assault"
	CategoryDomestic      Category = "domestic"
	CategoryNoise         Category = "noise"
	CategoryTraffic       Category = "traffic"
	CategoryPublicOrder   Category = "public_order"
	CategoryMissingPerson Category = "missing_person"
	CategoryVandalism     Category = "vandalism"
	CategoryFraud         Category = "fraud"
	CategoryFire          Category = "fire"
	CategoryMedical       Category = "medical"
	CategoryOther         Category = "other"
)

var allCategories = []Category{
	CategoryTheft,
	CategoryAssault,
	CategoryDomestic,
	CategoryNoise,
	CategoryTraffic,
	CategoryPublicOrder,
	CategoryMissingPerson,
	CategoryVandalism,
	CategoryFraud,
	CategoryFire,
	CategoryMedical,
	CategoryOther,
}

// AllCategories returns every category in declaration order
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// Valid reports whether c is a member of the closed enum
func (c Category) Valid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory trims and lowercases s and reports whether it names a known category
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	return c, c.Valid()
}

// Urgency is the response urgency tier
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyLow      Urgency = "low"
)

// Tier returns the numeric order of the urgency (critical=4 ... low=1), 0 if invalid
func (u Urgency) Tier() int {
	switch u {
	case UrgencyCritical:
		return 4
	case UrgencyHigh:
		return 3
	case UrgencyMedium:
		return 2
	case UrgencyLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether u is one of the four tiers
func (u Urgency) Valid() bool {
	return u.Tier() > 0
}

// ParseUrgency trims and lowercases s and reports whether it names a known tier
func ParseUrgency(s string) (Urgency, bool) {
	u := Urgency(strings.ToLower(strings.TrimSpace(s)))
	return u, u.Valid()
}

// MaxUrgency returns the higher of two tiers
func MaxUrgency(a, b Urgency) Urgency {
	if b.Tier() > a.Tier() {
		return b
	}
	return a
}

// Draft is an upstream classification proposal. Fields may be empty or invalid;
// a zero Draft means "no draft".
type Draft struct {
	Category              string `json:"category,omitempty"`
	Urgency               string `json:"urgency,omitempty"`
	Address               string `json:"address,omitempty"`
	CurrentDanger         bool   `json:"current_danger,omitempty"`
	PeopleInvolved        int    `json:"people_involved,omitempty"`
	Weapons               bool   `json:"weapons,omitempty"`
	RecommendedDepartment string `json:"recommended_department,omitempty"`
	Summary               string `json:"summary,omitempty"`

	// CoercionNotes records fields the boundary decoder could not coerce
	CoercionNotes []string `json:"-"`
}

// Input is one classification request
type Input struct {
	Draft          Draft  `json:"draft"`
	TranscriptText string `json:"transcript_text"`
}

// Incident is the working record during reconciliation and, once Validated,
// the finalized record handed to persistence.
type Incident struct {
	Urgency               Urgency  `json:"urgency"`
	Category              Category `json:"category"`
	Address               string   `json:"address"`
	CurrentDanger         bool     `json:"current_danger"`
	PeopleInvolved        int      `json:"people_involved"`
	Weapons               bool     `json:"weapons"`
	RecommendedDepartment string   `json:"recommended_department"`
	Summary               string   `json:"summary"`
	ConfidenceScore       float64  `json:"confidence_score"`
	Validated             bool     `json:"validated"`
	ValidationNotes       []string `json:"validation_notes"`
}

// Draft converts the record back into an upstream draft. Validation notes ride
// along as carried notes; the normalizer rebuilds its own notes on the next pass.
func (i Incident) Draft() Draft {
	return Draft{
		Category:              string(i.Category),
		Urgency:               string(i.Urgency),
		Address:               i.Address,
		CurrentDanger:         i.CurrentDanger,
		PeopleInvolved:        i.PeopleInvolved,
		Weapons:               i.Weapons,
		RecommendedDepartment: i.RecommendedDepartment,
		Summary:               i.Summary,
		CoercionNotes:         append([]string(nil), i.ValidationNotes...),
	}
}

// IsZero reports whether the draft carries no proposal at all
func (d Draft) IsZero() bool {
	return d.Category == "" && d.Urgency == "" && d.Address == "" &&
		!d.CurrentDanger && d.PeopleInvolved == 0 && !d.Weapons &&
		d.RecommendedDepartment == "" && d.Summary == "" && len(d.CoercionNotes) == 0
}
