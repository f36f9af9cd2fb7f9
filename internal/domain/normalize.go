package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// CleanText prepares raw input for annotation:
//   - composes to NFC so "a" + combining diaeresis equals "ä"
//   - trims leading/trailing whitespace
//   - collapses every run of Unicode whitespace into one space
//
// Case is preserved; German capitalization carries POS information.
func CleanText(text string) string {
	text = norm.NFC.String(text)
	return strings.Join(strings.FieldsFunc(text, unicode.IsSpace), " ")
}

// NormalizeLemma produces the comparison form of a lemma: NFC, trimmed,
// lower-cased with German rules. Internal whitespace is compressed.
func NormalizeLemma(lemma string) string {
	lemma = CleanText(lemma)
	if lemma == "" {
		return ""
	}
	// Casers carry state and must not be shared across goroutines.
	return cases.Lower(language.German).String(lemma)
}

// NormalizeTagName trims, lower-cases and compresses a tag name.
func NormalizeTagName(name string) string {
	return NormalizeLemma(name)
}

// NormalizeTagNames normalizes names, drops empties and duplicates, and keeps
// first-occurrence order. It returns a non-nil slice.
func NormalizeTagNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = NormalizeTagName(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// SplitTagList parses a comma-separated tag list as typed by a user.
func SplitTagList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	return NormalizeTagNames(strings.Split(raw, ","))
}
