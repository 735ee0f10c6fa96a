package matcher

import (
	"strings"
	"unicode"
)

// titleTokens is the closed set of honorific and role tokens stripped from
// speaker labels before matching.
var titleTokens = map[string]bool{
	"PRESIDENTE": true,
	"ON":         true,
	"ONOREVOLE":  true,
	"SENATORE":   true,
	"DEPUTATO":   true,
	"MINISTRO":   true,
	"MINISTRA":   true,
}

// Normalize folds a speaker label into the canonical form used as an index key:
// uppercase, honorific tokens dropped, punctuation removed, whitespace collapsed.
// Normalize is idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(name string) string {
	fields := strings.Fields(stripPunctuation(strings.ToUpper(name)))
	kept := fields[:0]
	for _, field := range fields {
		if titleTokens[field] {
			continue
		}
		kept = append(kept, field)
	}
	return strings.Join(kept, " ")
}

// Fold applies the same folding as Normalize but keeps honorific tokens. It backs
// placeholder identifiers for labels that consist only of a role title, such as a
// bare "PRESIDENTE".
func Fold(name string) string {
	return strings.Join(strings.Fields(stripPunctuation(strings.ToUpper(name))), " ")
}

func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '_' {
			return r
		}
		return -1
	}, s)
}
