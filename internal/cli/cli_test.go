package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/intake/internal/lexicon"
	"github.com/ppiankov/intake/internal/validate"
)

func TestReadTranscript(t *testing.T) {
	got, err := readTranscript([]string{"Пожар,", "горит", "квартира"}, strings.NewReader("ignored"))
	if err != nil || got != "Пожар, горит квартира" {
		t.Errorf("readTranscript(args) = %q, %v", got, err)
	}

	got, err = readTranscript(nil, strings.NewReader("  Драка во дворе\n"))
	if err != nil || got != "Драка во дворе" {
		t.Errorf("readTranscript(stdin) = %q, %v", got, err)
	}

	got, err = readTranscript([]string{"-"}, strings.NewReader("Пропал ребенок"))
	if err != nil || got != "Пропал ребенок" {
		t.Errorf("readTranscript(-) = %q, %v", got, err)
	}
}

func TestReadDraft(t *testing.T) {
	n := validate.NewNormalizer(lexicon.Default(), nil, nil)

	d, err := readDraft("", n)
	if err != nil || !d.IsZero() {
		t.Errorf("Expected zero draft for empty flag, got %+v, %v", d, err)
	}

	d, err = readDraft(`{"urgency": "low", "people_involved": "2"}`, n)
	if err != nil {
		t.Fatal(err)
	}
	if d.Urgency != "low" || d.PeopleInvolved != 2 {
		t.Errorf("Unexpected inline draft: %+v", d)
	}

	path := filepath.Join(t.TempDir(), "draft.json")
	if err := os.WriteFile(path, []byte("```json\n{\"category\": \"fire\"}\n```"), 0644); err != nil {
		t.Fatal(err)
	}
	d, err = readDraft("@"+path, n)
	if err != nil || d.Category != "fire" {
		t.Errorf("Unexpected file draft: %+v, %v", d, err)
	}

	if _, err := readDraft("@/no/such/draft.json", n); err == nil {
		t.Error("Expected error for missing draft file")
	}
}

func TestBuildConfig_LLMFlags(t *testing.T) {
	defer func() {
		llmEnabled, llmProvider, llmModel, noCache, useStore = false, "", "", false, false
	}()

	llmEnabled = false
	cfg, err := buildConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.Provider != "" {
		t.Errorf("Expected drafting disabled without --llm, got %q", cfg.LLM.Provider)
	}

	llmEnabled, llmProvider, llmModel = true, "mock", "tiny"
	noCache, useStore = true, true
	cfg, err = buildConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.Provider != "mock" || cfg.LLM.Model != "tiny" {
		t.Errorf("Unexpected LLM config: %+v", cfg.LLM)
	}
	if cfg.Cache.Enabled || !cfg.Store.Enabled {
		t.Errorf("Expected cache off and store on, got %+v %+v", cfg.Cache, cfg.Store)
	}

	t.Setenv("DEEPSEEK_API_KEY", "")
	llmProvider = "deepseek"
	if _, err := buildConfig(); err == nil {
		t.Error("Expected error for deepseek without API key")
	}

	t.Setenv("DEEPSEEK_API_KEY", "ds-key")
	cfg, err = buildConfig()
	if err != nil || cfg.LLM.APIKey != "ds-key" {
		t.Errorf("Expected API key from DEEPSEEK_API_KEY, got %q, %v", cfg.LLM.APIKey, err)
	}
}

func TestRunCheck(t *testing.T) {
	dir := t.TempDir()

	valid := `{
  "urgency": "critical",
  "category": "fire",
  "address": "не указан",
  "current_danger": false,
  "people_involved": 0,
  "weapons": false,
  "recommended_department": "МЧС",
  "summary": "Пожар",
  "confidence_score": 0.6,
  "validated": true,
  "validation_notes": []
}`
	validPath := filepath.Join(dir, "valid.json")
	if err := os.WriteFile(validPath, []byte(valid), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	checkCmd.SetOut(&out)
	if err := runCheck(checkCmd, []string{validPath}); err != nil {
		t.Errorf("Expected valid record, got %v\n%s", err, out.String())
	}

	invalidPath := filepath.Join(dir, "invalid.json")
	invalid := strings.Replace(valid, `"fire"`, `"arson"`, 1)
	if err := os.WriteFile(invalidPath, []byte(invalid), 0644); err != nil {
		t.Fatal(err)
	}

	out.Reset()
	if err := runCheck(checkCmd, []string{invalidPath}); err == nil {
		t.Error("Expected schema violation")
	}
	if !strings.Contains(out.String(), "arson") {
		t.Errorf("Expected output to name the bad value, got %q", out.String())
	}
}
