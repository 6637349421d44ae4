package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// AddressKind tells how specific an extracted address is
type AddressKind int

const (
	AddressUnspecified AddressKind = iota
	AddressStreet
	AddressNear
)

func (k AddressKind) String() string {
	switch k {
	case AddressStreet:
		return "street"
	case AddressNear:
		return "near"
	default:
		return "unspecified"
	}
}

// Address is the structured result of FindAddress. Text is the canonical form
// written into records.
type Address struct {
	Kind     AddressKind
	Street   string
	House    string
	Location string
	Text     string
}

// Go's \b is ASCII-only, so Cyrillic words are anchored with an explicit guard.
const (
	wordStart   = `(?:^|[^\p{L}\p{N}])`
	streetWords = `(?P<street>\p{L}[\p{L}\-]*(?:\s+\p{L}[\p{L}\-]*){0,2})`
	streetWord  = `(?P<street>\p{L}[\p{L}\-]{2,})`
	houseNumber = `(?P<house>\d+[\p{L}]?(?:\s*/\s*\d+)?)`
	houseWord   = `(?:дом[а-я]*|д\.?)`
	streetNoun  = `(?:улиц[аеуы]|ул\.)`
	location    = `(?P<location>\p{L}[\p{L}\p{N}\-]*(?:\s+\p{L}[\p{L}\p{N}\-]*)?)`
)

// Street and house in either order; first match wins.
var streetPatterns = []*regexp.Regexp{
	// "улица Абая, дом 15"
	regexp.MustCompile(`(?i)` + wordStart + `улиц[аеуы]\s+` + streetWords + `\s*,?\s*` + houseWord + `\s*№?\s*` + houseNumber),
	// "ул. Абая, 15", "ул Абая д. 15"
	regexp.MustCompile(`(?i)` + wordStart + `ул(?:\.\s*|\s+)` + streetWords + `\s*,?\s*(?:` + houseWord + `\s*)?№?\s*` + houseNumber),
	// "Абая улица, дом 15"
	regexp.MustCompile(`(?i)` + wordStart + streetWord + `\s+улиц[аеуы]\s*,?\s*` + houseWord + `\s*№?\s*` + houseNumber),
	// "дом 15 по улице Абая", "дома № 15 на ул. Абая"
	regexp.MustCompile(`(?i)` + wordStart + `(?:дом[а-я]*|д\.)\s*(?:№\s*|номер\s+)?` + houseNumber + `\s+(?:по|на)\s+` + streetNoun + `\s*` + streetWord),
	// "15 дом на Абая"
	regexp.MustCompile(`(?i)` + wordStart + houseNumber + `\s*дом\s+на\s+` + streetWord),
}

var (
	// "на улице Абая"
	nearStreetPattern = regexp.MustCompile(`(?i)` + wordStart + `на\s+` + streetNoun + `\s*` + streetWord)
	// "в доме 15"
	nearHousePattern = regexp.MustCompile(`(?i)` + wordStart + `в\s+доме\s+(?:№\s*)?` + houseNumber)
	// "возле магазина", "около школы", "рядом с парком"
	nearPlacePattern = regexp.MustCompile(`(?i)` + wordStart + `(?:возле|около|рядом\s+с(?:о)?)\s+` + location)
)

// FindAddress extracts the most specific address it can recognise in text
func (e *Extractor) FindAddress(text string) Address {
	loc := e.lex.Locale()
	unspecified := Address{Kind: AddressUnspecified, Text: loc.Unspecified}

	cleaned := strings.TrimSpace(Clean(text))
	if cleaned == "" {
		return unspecified
	}

	var nearStreet string
	for _, pattern := range streetPatterns {
		m := pattern.FindStringSubmatch(cleaned)
		if m == nil {
			continue
		}
		street, ok := trimStreet(group(pattern, m, "street"))
		if !ok {
			// "улица Абая возле дома 15": the house is not on the street
			if nearStreet == "" {
				nearStreet = street
			}
			continue
		}
		street = titleWords(street)
		house := compactHouse(group(pattern, m, "house"))
		if street == "" || house == "" {
			continue
		}
		return Address{
			Kind:   AddressStreet,
			Street: street,
			House:  house,
			Text:   fmt.Sprintf(loc.StreetForm, street, house),
		}
	}

	if nearStreet != "" {
		street := titleWords(nearStreet)
		location := "ул. " + street
		return Address{Kind: AddressNear, Street: street, Location: location, Text: loc.NearPrefix + location}
	}
	if m := nearStreetPattern.FindStringSubmatch(cleaned); m != nil {
		street := titleWords(group(nearStreetPattern, m, "street"))
		location := "ул. " + street
		return Address{Kind: AddressNear, Street: street, Location: location, Text: loc.NearPrefix + location}
	}
	if m := nearHousePattern.FindStringSubmatch(cleaned); m != nil {
		house := compactHouse(group(nearHousePattern, m, "house"))
		location := fmt.Sprintf(loc.HouseForm, house)
		return Address{Kind: AddressNear, House: house, Location: location, Text: loc.NearPrefix + location}
	}
	if m := nearPlacePattern.FindStringSubmatch(cleaned); m != nil {
		location := strings.TrimSpace(group(nearPlacePattern, m, "location"))
		if location != "" {
			return Address{Kind: AddressNear, Location: location, Text: loc.NearPrefix + location}
		}
	}

	return unspecified
}

// ExtractAddress returns the canonical address string, or the unspecified
// sentinel when nothing matched
func (e *Extractor) ExtractAddress(text string) string {
	return e.FindAddress(text).Text
}

// streetStopWords never belong to a street name; a multi-word street capture
// that runs into one of them has swallowed the rest of the sentence
var streetStopWords = map[string]bool{
	"возле": true, "около": true, "рядом": true, "напротив": true, "у": true,
	"в": true, "во": true, "на": true, "по": true, "с": true, "со": true,
	"к": true, "за": true, "под": true, "над": true, "между": true, "и": true,
}

// trimStreet cuts a captured street before a trailing house word ("Абая дома"
// → "Абая"). It reports false, with the words before the stop word, when the
// capture runs into a preposition.
func trimStreet(street string) (string, bool) {
	words := strings.Fields(street)
	for i, w := range words {
		lw := strings.ToLower(w)
		if streetStopWords[lw] {
			return strings.Join(words[:i], " "), false
		}
		if strings.HasPrefix(lw, "дом") || lw == "д" {
			if i == 0 {
				return "", false
			}
			return strings.Join(words[:i], " "), true
		}
	}
	return strings.Join(words, " "), true
}

func group(re *regexp.Regexp, match []string, name string) string {
	i := re.SubexpIndex(name)
	if i < 0 || i >= len(match) {
		return ""
	}
	return strings.TrimSpace(match[i])
}

// titleWords upper-cases the first letter of every word and keeps the rest as written
func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func compactHouse(s string) string {
	return strings.Join(strings.Fields(s), "")
}
