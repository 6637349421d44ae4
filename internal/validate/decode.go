package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ppiankov/intake/internal/lexicon"
	"github.com/ppiankov/intake/internal/model"
)

// Draft field names as they appear on the wire
const (
	fieldCategory   = "category"
	fieldUrgency    = "urgency"
	fieldAddress    = "address"
	fieldDanger     = "current_danger"
	fieldPeople     = "people_involved"
	fieldWeapons    = "weapons"
	fieldDepartment = "recommended_department"
	fieldSummary    = "summary"
)

var trueWords = map[string]bool{"true": true, "yes": true, "да": true, "1": true, "y": true}
var falseWords = map[string]bool{"false": true, "no": true, "нет": true, "0": true, "n": true, "": true}

// number words a generative draft may use for people_involved
var countWords = map[string]int{
	"ноль": 0, "один": 1, "одна": 1, "два": 2, "две": 2, "двое": 2, "три": 3, "трое": 3,
	"четыре": 4, "четверо": 4, "пять": 5, "пятеро": 5, "шесть": 6, "семь": 7,
	"восемь": 8, "девять": 9, "десять": 10, "несколько": 3, "много": 5,
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "several": 3, "many": 5,
}

// DecodeDraft decodes a raw upstream draft with the built-in locale
func DecodeDraft(raw []byte) model.Draft {
	return decodeDraft(raw, lexicon.Default().Locale())
}

// DecodeDraft decodes a raw upstream draft, wording notes in the normalizer's locale
func (n *Normalizer) DecodeDraft(raw []byte) model.Draft {
	return decodeDraft(raw, n.lex.Locale())
}

// decodeDraft never fails. Markdown fences and prose around the JSON object are
// tolerated; each field that cannot be coerced is left zero and noted.
func decodeDraft(raw []byte, loc lexicon.Locale) model.Draft {
	if len(bytes.TrimSpace(raw)) == 0 {
		return model.Draft{}
	}
	body := extractJSONObject(raw)

	var fields map[string]json.RawMessage
	if body == nil || json.Unmarshal(body, &fields) != nil {
		return model.Draft{CoercionNotes: []string{loc.Notes.UnparseableOutput}}
	}

	var d model.Draft
	fail := func(field string, value json.RawMessage) {
		d.CoercionNotes = append(d.CoercionNotes, fmt.Sprintf(loc.Notes.CoercionFailure, field, compact(value)))
	}

	if v, ok := present(fields, fieldCategory); ok {
		if s, ok := firstString(v); ok {
			d.Category = s
		} else {
			fail(fieldCategory, v)
		}
	}
	decodeString(fields, fieldUrgency, &d.Urgency, fail)
	decodeString(fields, fieldAddress, &d.Address, fail)
	decodeBool(fields, fieldDanger, &d.CurrentDanger, fail)
	if v, ok := present(fields, fieldPeople); ok {
		if n, ok := asCount(v); ok {
			d.PeopleInvolved = n
		} else {
			fail(fieldPeople, v)
		}
	}
	decodeBool(fields, fieldWeapons, &d.Weapons, fail)
	decodeString(fields, fieldDepartment, &d.RecommendedDepartment, fail)
	decodeString(fields, fieldSummary, &d.Summary, fail)

	return d
}

// extractJSONObject strips ``` fences and surrounding prose, returning the
// outermost {...} span or nil
func extractJSONObject(raw []byte) []byte {
	text := strings.TrimSpace(string(raw))

	if start := strings.Index(text, "```"); start != -1 {
		inner := text[start+3:]
		inner = strings.TrimPrefix(inner, "json")
		inner = strings.TrimPrefix(inner, "JSON")
		if end := strings.Index(inner, "```"); end != -1 {
			text = strings.TrimSpace(inner[:end])
		}
	}

	open := strings.Index(text, "{")
	closing := strings.LastIndex(text, "}")
	if open == -1 || closing < open {
		return nil
	}
	return []byte(text[open : closing+1])
}

func decodeString(fields map[string]json.RawMessage, field string, dst *string, fail func(string, json.RawMessage)) {
	if v, ok := present(fields, field); ok {
		if s, ok := asString(v); ok {
			*dst = s
		} else {
			fail(field, v)
		}
	}
}

func decodeBool(fields map[string]json.RawMessage, field string, dst *bool, fail func(string, json.RawMessage)) {
	if v, ok := present(fields, field); ok {
		if b, ok := asBool(v); ok {
			*dst = b
		} else {
			fail(field, v)
		}
	}
}

func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	v, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil, false
	}
	return v, true
}

func asString(v json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return strings.TrimSpace(s), true
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}

// firstString accepts a string or a list whose first element is the primary value
func firstString(v json.RawMessage) (string, bool) {
	if s, ok := asString(v); ok {
		return s, true
	}
	var list []json.RawMessage
	if err := json.Unmarshal(v, &list); err != nil {
		return "", false
	}
	if len(list) == 0 {
		return "", true
	}
	return asString(list[0])
}

func asBool(v json.RawMessage) (bool, bool) {
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return b, true
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return f != 0, true
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		s = strings.ToLower(strings.TrimSpace(s))
		switch {
		case trueWords[s]:
			return true, true
		case falseWords[s]:
			return false, true
		}
	}
	return false, false
}

func asCount(v json.RawMessage) (int, bool) {
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int(f), true
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return 0, false
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, true
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f), true
	}
	if n, ok := countWords[s]; ok {
		return n, true
	}
	// "3 человека"
	if fields := strings.Fields(s); len(fields) > 0 {
		if n, err := strconv.Atoi(fields[0]); err == nil {
			return n, true
		}
		if n, ok := countWords[fields[0]]; ok {
			return n, true
		}
	}
	return 0, false
}

func compact(v json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		return string(v)
	}
	return buf.String()
}
