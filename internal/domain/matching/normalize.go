// Package matching decide si un lote del ledger satisface un (tipo, subtipo) solicitado
// cuando los nombres no son idénticos byte a byte (texto libre, plurales, acentos, nombres parciales).
package matching

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize minúsculas, sin diacríticos, espacios colapsados y sin una "s" final (plural ingenuo).
func Normalize(s string) string {
	s = strings.ToLower(stripDiacritics(s))
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 1 && strings.HasSuffix(s, "s") {
		s = s[:len(s)-1]
	}
	return s
}

// stripDiacritics descompone (NFD), elimina marcas no espaciadoras y recompone (NFC).
// El transformer guarda estado, por eso se crea uno por llamada.
func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
