package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/intake/internal/model"
)

var (
	// ErrInvalidEnumValue marks a category or urgency outside the closed sets
	ErrInvalidEnumValue = errors.New("invalid enum value")
	// ErrSchemaViolation marks a missing, mistyped or out-of-range field
	ErrSchemaViolation = errors.New("schema violation")
)

// recordFields lists every field of a finalized record
var recordFields = []string{
	"urgency", "category", "address", "current_danger", "people_involved", "weapons",
	"recommended_department", "summary", "confidence_score", "validated", "validation_notes",
}

// CheckRecord reports every schema violation of a finalized record. An empty
// result means the record is valid.
func CheckRecord(inc model.Incident) []error {
	var errs []error

	if !inc.Category.Valid() {
		errs = append(errs, fmt.Errorf("%w: category %q", ErrInvalidEnumValue, inc.Category))
	}
	if !inc.Urgency.Valid() {
		errs = append(errs, fmt.Errorf("%w: urgency %q", ErrInvalidEnumValue, inc.Urgency))
	}
	if strings.TrimSpace(inc.Address) == "" {
		errs = append(errs, fmt.Errorf("%w: address is empty", ErrSchemaViolation))
	}
	if inc.PeopleInvolved < 0 {
		errs = append(errs, fmt.Errorf("%w: people_involved %d is negative", ErrSchemaViolation, inc.PeopleInvolved))
	}
	if inc.ConfidenceScore < MinConfidence || inc.ConfidenceScore > MaxConfidence {
		errs = append(errs, fmt.Errorf("%w: confidence_score %.2f outside [%.1f, %.1f]",
			ErrSchemaViolation, inc.ConfidenceScore, MinConfidence, MaxConfidence))
	}
	if !inc.Validated {
		errs = append(errs, fmt.Errorf("%w: validated is false", ErrSchemaViolation))
	}

	return errs
}

// CheckJSON checks a serialized record: all fields present with the right JSON
// types, then the same rules as CheckRecord.
func CheckJSON(raw []byte) []error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return []error{fmt.Errorf("%w: not a JSON object: %v", ErrSchemaViolation, err)}
	}

	var errs []error
	for _, name := range recordFields {
		v, ok := fields[name]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: missing field %s", ErrSchemaViolation, name))
			continue
		}
		if want := jsonKind(name); want != "" && kindOf(v) != want {
			errs = append(errs, fmt.Errorf("%w: %s must be %s, got %s", ErrSchemaViolation, name, want, kindOf(v)))
		}
	}
	if len(errs) > 0 {
		return errs
	}

	var inc model.Incident
	if err := json.Unmarshal(raw, &inc); err != nil {
		return []error{fmt.Errorf("%w: %v", ErrSchemaViolation, err)}
	}
	return CheckRecord(inc)
}

func jsonKind(field string) string {
	switch field {
	case "current_danger", "weapons", "validated":
		return "boolean"
	case "people_involved", "confidence_score":
		return "number"
	case "validation_notes":
		return "array"
	default:
		return "string"
	}
}

func kindOf(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return "empty"
	}
	switch v[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
