package metadata

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Subject maps a canonical subject name to the keywords that identify it in
// folder names, filenames and user queries. Adding a subject is a table edit.
type Subject struct {
	Canonical string
	Keywords  []string
}

// Subjects is the canonical subject table for the corpus.
var Subjects = []Subject{
	{
		Canonical: "Probabilidad y estadistica",
		Keywords:  []string{"probabilidad", "estadistica", "pye"},
	},
	{
		Canonical: "Sistemas de Inteligencia Artificial",
		Keywords:  []string{"sia", "inteligencia artificial", "sistemas de inteligencia"},
	},
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases s and strips diacritics, so "Estadística" and "estadistica"
// compare equal.
func Fold(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// CanonicalSubject resolves a folder name, filename fragment or user-typed
// subject to its canonical table entry. The second return reports whether a
// table entry matched.
func CanonicalSubject(name string) (string, bool) {
	folded := Fold(name)
	for _, s := range Subjects {
		if folded == Fold(s.Canonical) {
			return s.Canonical, true
		}
		for _, kw := range s.Keywords {
			if strings.Contains(folded, kw) {
				return s.Canonical, true
			}
		}
	}
	return name, false
}
