// Package text holds the normalization primitives shared by the analyzer,
// the catalog and the linking engine.
package text

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var punctuation = strings.NewReplacer(
	".", " ", ",", " ", "،", " ", "؛", " ", "!", " ", "?", " ",
)

// Set is a string set.
type Set map[string]struct{}

// NewSet builds a Set from items.
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Fold applies NFC composition and Unicode lower-casing.
func Fold(s string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(s))
}

// Normalize folds s, replaces punctuation with spaces and collapses whitespace.
func Normalize(s string) string {
	return strings.Join(strings.Fields(punctuation.Replace(Fold(s))), " ")
}

// StripPunctuation removes punctuation without inserting spaces.
func StripPunctuation(word string) string {
	return strings.NewReplacer(".", "", ",", "", "،", "", "؛", "", "!", "", "?", "").Replace(word)
}

// Keywords returns the normalized words longer than 3 runes that are not in stop.
// stop may be nil.
func Keywords(s string, stop Set) []string {
	words := strings.Fields(Normalize(s))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if RuneLen(w) > 3 && !stop.Has(w) {
			out = append(out, w)
		}
	}
	return out
}

// Fingerprint is the sorted, de-duplicated keyword list joined by "|".
// It does not depend on keyword order.
func Fingerprint(s string, stop Set) string {
	return FingerprintOf(Keywords(s, stop))
}

// FingerprintOf fingerprints an already extracted keyword list.
func FingerprintOf(keywords []string) string {
	seen := make(Set, len(keywords))
	uniq := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if seen.Has(k) {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, k)
	}
	sort.Strings(uniq)
	return strings.Join(uniq, "|")
}

// RuneLen counts runes.
func RuneLen(s string) int { return utf8.RuneCountInString(s) }

// Prefix returns the first n runes of s.
func Prefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// ContainsAny reports whether s contains any non-empty marker.
func ContainsAny(s string, markers ...string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// HasDigit reports whether s contains a decimal digit (ASCII or Arabic-Indic).
func HasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

// HasArabic reports whether s contains Arabic script.
func HasArabic(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return unicode.Is(unicode.Arabic, r) }) >= 0
}
