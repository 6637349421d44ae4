package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/intake/internal/model"
)

// Renderer formats finalized records
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// JSON encodes the record itself (the eleven record fields), indented
func (r *Renderer) JSON(inc model.Incident) ([]byte, error) {
	if inc.ValidationNotes == nil {
		inc.ValidationNotes = []string{}
	}
	data, err := json.MarshalIndent(inc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return append(data, '\n'), nil
}

// RecordJSON encodes the record with its persistence envelope
func (r *Renderer) RecordJSON(rec *model.Record) ([]byte, error) {
	out := *rec
	if out.Incident.ValidationNotes == nil {
		out.Incident.ValidationNotes = []string{}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return append(data, '\n'), nil
}

// CompactRecordJSON encodes the record with its envelope on a single line (JSONL)
func (r *Renderer) CompactRecordJSON(rec *model.Record) ([]byte, error) {
	out := *rec
	if out.Incident.ValidationNotes == nil {
		out.Incident.ValidationNotes = []string{}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return append(data, '\n'), nil
}

// Markdown renders a human-readable card of the record
func (r *Renderer) Markdown(rec *model.Record) string {
	inc := rec.Incident
	var b strings.Builder

	fmt.Fprintf(&b, "# Incident: %s\n\n", inc.Category)
	if rec.ID != "" {
		fmt.Fprintf(&b, "**ID:** `%s`  \n", rec.ID)
	}
	if !rec.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "**Received:** %s  \n", rec.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(&b, "**Draft:** %s", rec.DraftSource)
	if rec.Provider != "" {
		fmt.Fprintf(&b, " (%s)", rec.Provider)
	}
	b.WriteString("\n\n")

	b.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Urgency | %s |\n", inc.Urgency)
	fmt.Fprintf(&b, "| Category | %s |\n", inc.Category)
	fmt.Fprintf(&b, "| Address | %s |\n", escapeCell(inc.Address))
	fmt.Fprintf(&b, "| Current danger | %s |\n", yesNo(inc.CurrentDanger))
	fmt.Fprintf(&b, "| People involved | %d |\n", inc.PeopleInvolved)
	fmt.Fprintf(&b, "| Weapons | %s |\n", yesNo(inc.Weapons))
	fmt.Fprintf(&b, "| Department | %s |\n", escapeCell(inc.RecommendedDepartment))
	fmt.Fprintf(&b, "| Confidence | %.2f |\n", inc.ConfidenceScore)

	fmt.Fprintf(&b, "\n## Summary\n\n%s\n", inc.Summary)

	if rec.Transcript != "" {
		fmt.Fprintf(&b, "\n## Transcript\n\n> %s\n", strings.ReplaceAll(strings.TrimSpace(rec.Transcript), "\n", "\n> "))
	}

	if len(inc.ValidationNotes) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, note := range inc.ValidationNotes {
			fmt.Fprintf(&b, "- %s\n", note)
		}
	}

	if r.includeFooter {
		b.WriteString("\n---\n\n*Generated by intake. Urgency and category are decision support for the operator, not a dispatch decision.*\n")
	}

	return b.String()
}

// Summary returns a one-line summary of the record
func (r *Renderer) Summary(rec *model.Record) string {
	inc := rec.Incident
	var flags []string
	if inc.CurrentDanger {
		flags = append(flags, "danger")
	}
	if inc.Weapons {
		flags = append(flags, "weapons")
	}
	line := fmt.Sprintf("[%s] %s | %s | people=%d | confidence=%.2f",
		strings.ToUpper(string(inc.Urgency)), inc.Category, inc.Address, inc.PeopleInvolved, inc.ConfidenceScore)
	if len(flags) > 0 {
		line += " | " + strings.Join(flags, ",")
	}
	return line
}

// WriteSummary prints the one-line summary followed by the notes
func (r *Renderer) WriteSummary(w io.Writer, rec *model.Record, verbose bool) {
	fmt.Fprintln(w, r.Summary(rec))
	if verbose {
		for _, note := range rec.Incident.ValidationNotes {
			fmt.Fprintf(w, "  - %s\n", note)
		}
	}
}

// WriteFile writes data to path, creating parent directories
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
