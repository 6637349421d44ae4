package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// maxPeopleCount caps numeric captures; anything larger is treated as noise
const maxPeopleCount = 10000

// Numeric patterns run on normalized text and are tried in order.
var peopleCountPatterns = []*regexp.Regexp{
	// "3 человека", "10 людей", "2 чел"
	regexp.MustCompile(`(?:^|\s)(\d+)\s?(?:человек|людей|люди|чел)`),
	// "2 мужчин", "3 женщины", "4 детей"
	regexp.MustCompile(`(?:^|\s)(\d+)\s?(?:мужчин|женщин|детей|ребен|подрост)`),
	// "около 20 человек"
	regexp.MustCompile(`около\s(\d+)\s?(?:человек|людей)`),
}

// peopleWordCounts are checked only when no numeric pattern matched, in order.
var peopleWordCounts = []struct {
	words []string
	count int
}{
	{[]string{"один", "одна", "одного", "одной", "одну"}, 1},
	{[]string{"два", "две", "двое", "пара", "пару", "пары", "парочка"}, 2},
	{[]string{"несколько", "нескольких", "несколькими"}, 3},
	{[]string{"много", "толпа", "толпу", "толпой", "толпы", "множество"}, 5},
}

// ExtractPeopleCount returns the number of people mentioned in text, 0 if unknown
func (e *Extractor) ExtractPeopleCount(text string) int {
	normalized := Normalize(text)
	if normalized == "" {
		return 0
	}

	for _, pattern := range peopleCountPatterns {
		m := pattern.FindStringSubmatch(normalized)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 || n > maxPeopleCount {
			continue
		}
		return n
	}

	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(normalized) {
		tokens[tok] = true
	}
	for _, group := range peopleWordCounts {
		for _, w := range group.words {
			if tokens[w] {
				return group.count
			}
		}
	}

	return 0
}
