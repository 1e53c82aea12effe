package location

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// alias maps a folded spelling to the canonical display name of a place.
type alias struct {
	from string
	to   string
}

// aliasTable lists known spellings in Russian and Kyrgyz Cyrillic plus Latin variants.
// Later entries override earlier ones with the same folded spelling.
var aliasTable = []alias{
	// russian
	{"нарын", "Naryn"},
	{"бишкек", "Bishkek"},
	{"ош", "Osh"},
	{"каракол", "Karakol"},
	{"балыкчы", "Balykchy"},
	{"чолпон-ата", "Cholpon-Ata"},
	{"джалал-абад", "Jalal-Abad"},
	{"джалал абад", "Jalal-Abad"},
	{"манас", "Manas"},
	{"талас", "Talas"},
	{"баткен", "Batken"},

	// kyrgyz
	{"нарын", "Naryn"},
	{"бишкек", "Bishkek"},
	{"ош", "Osh"},
	{"каракол", "Karakol"},
	{"балыкчы", "Balykchy"},
	{"чолпон-ата", "Cholpon-Ata"},
	{"жалал-абад", "Jalal-Abad"},
	{"талас", "Talas"},
	{"баткен", "Batken"},
	{"манас", "Manas"},

	// latin
	{"naryn", "Naryn"},
	{"bishkek", "Bishkek"},
	{"osh", "Osh"},
	{"karakol", "Karakol"},
	{"balykchy", "Balykchy"},
	{"cholpon-ata", "Cholpon-Ata"},
	{"jalal-abad", "Jalal-Abad"},
	{"manas", "Manas"},
	{"talas", "Talas"},
	{"batken", "Batken"},
	{"issykkul", "Issyk-Kul"},
	{"issyk-kul", "Issyk-Kul"},
	{"ыссык-кол", "Issyk-Kul"},
	{"ысык-көл", "Issyk-Kul"},
}

var aliases = buildAliases(aliasTable)

func buildAliases(table []alias) map[string]string {
	out := make(map[string]string, len(table))
	for _, a := range table {
		out[fold(a.from)] = a.to
	}
	return out
}

// fold trims, collapses inner whitespace and lower-cases s for lookups.
// A Caser keeps state, so a fresh one is used per call.
func fold(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return cases.Lower(language.Und).String(s)
}

// Normalize returns the canonical display name for a place, or the trimmed input
// when the place is not a known alias. Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return trimmed
	}
	if canonical, ok := aliases[fold(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

// Key is the comparison form of a place: normalized, then folded.
// Stored locations are compared against keys, never against raw text.
func Key(raw string) string {
	return fold(Normalize(raw))
}
