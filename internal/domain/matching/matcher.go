package matching

import "strings"

// genericEgg forma normalizada del huevo genérico ("ovo"/"ovos").
const genericEgg = "ovo"

// minSignificantWord longitud mínima (exclusiva) de una palabra significativa.
const minSignificantWord = 2

// fertileMarkers marcas de huevo fértil / de incubación sobre texto normalizado.
var fertileMarkers = []string{"fertil", "fertei", "galado", "galada", "incubavel", "incubaveis", "incubacao"}

// Matcher capacidad que usa el motor de asignación; intercambiable sin tocar la lógica FIFO.
type Matcher interface {
	Matches(target, candidate string) bool
}

// FuzzyMatcher reglas de equivalencia difusa del almacén.
type FuzzyMatcher struct{}

// NewFuzzyMatcher construye el matcher por defecto.
func NewFuzzyMatcher() FuzzyMatcher { return FuzzyMatcher{} }

// Matches aplica, en orden: separación fértil/no fértil, huevo genérico, igualdad,
// prefijo en cualquier sentido y solapamiento de palabras significativas.
func (FuzzyMatcher) Matches(target, candidate string) bool {
	return Matches(target, candidate)
}

// ExactMatcher solo acepta subtipos iguales tras normalizar.
type ExactMatcher struct{}

// Matches igualdad normalizada.
func (ExactMatcher) Matches(target, candidate string) bool {
	t := Normalize(target)
	return t != "" && t == Normalize(candidate)
}

// Matches implementa las reglas difusas sobre dos nombres crudos.
func Matches(target, candidate string) bool {
	t, c := Normalize(target), Normalize(candidate)
	if t == "" || c == "" {
		return false
	}

	// Huevo fértil solo con fértil, y viceversa: evita que una venta genérica consuma huevos de incubación.
	if IsFertile(t) != IsFertile(c) {
		return false
	}

	if t == genericEgg {
		return strings.Contains(c, genericEgg)
	}

	if t == c {
		return true
	}
	if strings.HasPrefix(c, t) || strings.HasPrefix(t, c) {
		return true
	}

	words := significantWords(t)
	if len(words) == 0 {
		return strings.Contains(c, t) || strings.Contains(t, c)
	}
	for _, w := range words {
		if strings.Contains(c, w) || strings.Contains(w, c) {
			return true
		}
	}
	return false
}

// IsFertile indica si un nombre normalizado lleva alguna marca de huevo fértil.
func IsFertile(normalized string) bool {
	for _, m := range fertileMarkers {
		if strings.Contains(normalized, m) {
			return true
		}
	}
	return false
}

func significantWords(normalized string) []string {
	var out []string
	for _, w := range strings.Fields(normalized) {
		if len(w) > minSignificantWord && w != genericEgg && w != genericEgg+"s" {
			out = append(out, w)
		}
	}
	return out
}
