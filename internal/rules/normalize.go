package rules

import "strings"

// Separator символ-разделитель, который убирается из идентификатора тендера
const Separator = "-"

// Normalize возвращает ключ поиска тендера: идентификатор без разделителей.
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(identifier string) string {
	return strings.ReplaceAll(identifier, Separator, "")
}
