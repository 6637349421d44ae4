package lexicon

import (
	"fmt"
	"os"

	"github.com/ppiankov/intake/internal/model"
	"gopkg.in/yaml.v3"
)

// File is the YAML representation of a lexicon
type File struct {
	Version    string          `yaml:"version"`
	Locale     Locale          `yaml:"locale"`
	Categories []CategoryEntry `yaml:"categories"`
	Danger     []string        `yaml:"danger"`
	Weapon     []string        `yaml:"weapon"`
	Immediacy  []string        `yaml:"immediacy"`
}

// CategoryEntry is one category in a lexicon file
type CategoryEntry struct {
	Name           string   `yaml:"name"`
	Keywords       []string `yaml:"keywords"`
	DefaultUrgency string   `yaml:"default_urgency"`
	Department     string   `yaml:"department"`
}

// Load reads a lexicon from a YAML file
func Load(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	lex, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("lexicon %s: %w", path, err)
	}
	return lex, nil
}

// Parse builds a lexicon from YAML bytes
func Parse(data []byte) (*Lexicon, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if f.Version != "" && f.Version != model.CategorySetVersion {
		return nil, fmt.Errorf("category set version %q does not match %q", f.Version, model.CategorySetVersion)
	}

	entries := make([]Entry, 0, len(f.Categories))
	for _, c := range f.Categories {
		entries = append(entries, Entry{
			Category:       model.Category(c.Name),
			Keywords:       c.Keywords,
			DefaultUrgency: model.Urgency(c.DefaultUrgency),
			Department:     c.Department,
		})
	}

	return New(entries, f.Danger, f.Weapon, f.Immediacy, f.Locale)
}

// Export converts a lexicon back into its file form (used by `intake categories --yaml`)
func Export(l *Lexicon) File {
	f := File{
		Version:   model.CategorySetVersion,
		Locale:    l.Locale(),
		Danger:    l.DangerTerms(),
		Weapon:    l.WeaponTerms(),
		Immediacy: l.ImmediacyTerms(),
	}
	for _, e := range l.Entries() {
		f.Categories = append(f.Categories, CategoryEntry{
			Name:           string(e.Category),
			Keywords:       e.Keywords,
			DefaultUrgency: string(e.DefaultUrgency),
			Department:     e.Department,
		})
	}
	return f
}

// FromConfig returns the lexicon selected by the engine configuration
func FromConfig(cfg model.EngineConfig) (*Lexicon, error) {
	if cfg.LexiconPath != "" {
		return Load(cfg.LexiconPath)
	}
	if cfg.Language != "" && cfg.Language != "ru" {
		return nil, fmt.Errorf("no built-in lexicon for language %q (set engine.lexicon_path)", cfg.Language)
	}
	return Default(), nil
}
