// Package textnorm normaliza texto para búsquedas: minúsculas, sin tildes y con espacios colapsados.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold devuelve la forma de búsqueda de s ("Café  Molido" → "cafe molido").
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = cases.Fold().String(out)
	return strings.Join(strings.Fields(out), " ")
}

// Title capitaliza cada palabra según las reglas del español.
func Title(s string) string {
	return cases.Title(language.Spanish).String(strings.Join(strings.Fields(s), " "))
}
