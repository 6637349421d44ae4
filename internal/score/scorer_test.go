package score

import (
	"testing"

	"github.com/ppiankov/intake/internal/model"
)

func TestScorer_DetectCategory(t *testing.T) {
	scorer := NewScorer(nil, nil)

	tests := []struct {
		name string
		text string
		want model.Category
	}{
		{"empty", "", model.CategoryOther},
		{"no keywords", "Здравствуйте, у меня вопрос", model.CategoryOther},
		{"fire", "Пожар, горит квартира", model.CategoryFire},
		{"theft", "У меня украли телефон", model.CategoryTheft},
		{"traffic", "ДТП на перекрестке, водитель скрылся", model.CategoryTraffic},
		{"noise", "Соседи громко включили музыку", model.CategoryNoise},
		{"missing person", "Сын не вернулся из школы", model.CategoryMissingPerson},
		{"medical", "Человеку плохо с сердцем, нужен врач", model.CategoryMedical},
		{"fraud", "Мошенник снял деньги с карты", model.CategoryFraud},
		// assault and domestic tie at 1.5; assault is declared first
		{"scenario A tie", "Мужчина бьет женщину ножом во дворе дома 15 по улице Абая, сейчас", model.CategoryAssault},
		{"domestic wins with more keywords", "Муж бьет жену, семейный скандал", model.CategoryDomestic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scorer.DetectCategory(tt.text); got != tt.want {
				t.Errorf("DetectCategory(%q) = %s, want %s\n%+v", tt.text, got, tt.want, scorer.Score(tt.text).Breakdown)
			}
		})
	}
}

func TestScorer_ScoreBreakdown(t *testing.T) {
	scorer := NewScorer(nil, nil)

	result := scorer.Score("Пожар! Горит квартира, пожар, дым")

	if result.Category != model.CategoryFire {
		t.Fatalf("Expected fire, got %s", result.Category)
	}
	// пожар counted once despite repeating
	if result.Score != 3*KeywordWeight {
		t.Errorf("Expected score %.1f, got %.1f", 3*KeywordWeight, result.Score)
	}
	if result.Tie {
		t.Error("Expected no tie")
	}
	if len(result.Breakdown) != len(model.AllCategories()) {
		t.Errorf("Expected %d breakdown lines, got %d", len(model.AllCategories()), len(result.Breakdown))
	}
	for i, c := range model.AllCategories() {
		if result.Breakdown[i].Category != c {
			t.Errorf("Breakdown[%d] = %s, want %s", i, result.Breakdown[i].Category, c)
		}
	}
	if result.Formula == "" || result.Description == "" {
		t.Error("Expected formula and description to be set")
	}
}

func TestScorer_ScoreTie(t *testing.T) {
	scorer := NewScorer(nil, nil)

	result := scorer.Score("драка и пожар")
	if result.Category != model.CategoryAssault {
		t.Errorf("Expected assault on tie, got %s", result.Category)
	}
	if !result.Tie {
		t.Error("Expected tie to be reported")
	}
}

func TestScorer_EscalateUrgency(t *testing.T) {
	scorer := NewScorer(nil, nil)

	tests := []struct {
		name  string
		draft model.Urgency
		text  string
		floor model.Urgency
		want  model.Urgency
	}{
		{"empty draft takes floor", "", "", model.UrgencyLow, model.UrgencyLow},
		{"invalid draft counts as low", "urgent", "", model.UrgencyMedium, model.UrgencyMedium},
		{"floor raises", model.UrgencyLow, "Пожар", model.UrgencyCritical, model.UrgencyCritical},
		{"never lowers", model.UrgencyCritical, "", model.UrgencyLow, model.UrgencyCritical},
		{"danger raises to high", model.UrgencyLow, "У него нож", model.UrgencyLow, model.UrgencyHigh},
		{"danger keeps critical", model.UrgencyCritical, "угроза", model.UrgencyLow, model.UrgencyCritical},
		{"danger with higher floor", model.UrgencyMedium, "угрожает", model.UrgencyCritical, model.UrgencyCritical},
		{"invalid floor ignored", model.UrgencyMedium, "", "bogus", model.UrgencyMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.EscalateUrgency(tt.draft, tt.text, tt.floor)
			if got != tt.want {
				t.Errorf("EscalateUrgency(%q, %q, %q) = %s, want %s", tt.draft, tt.text, tt.floor, got, tt.want)
			}
			if tt.floor.Valid() && got.Tier() < tt.floor.Tier() {
				t.Errorf("Result %s is below floor %s", got, tt.floor)
			}
		})
	}
}

func TestScorer_Floor(t *testing.T) {
	scorer := NewScorer(nil, nil)

	if got := scorer.Floor(model.CategoryFire); got != model.UrgencyCritical {
		t.Errorf("Floor(fire) = %s, want critical", got)
	}
	if got := scorer.Floor("bogus"); got != model.UrgencyLow {
		t.Errorf("Floor(bogus) = %s, want other's low", got)
	}
}
