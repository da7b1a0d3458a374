// Package names canonicalizes venue names and scores them for likely-same-place.
package names

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// facilitySuffixes lists trailing facility-type words stripped during
// normalization. Order matters: only the first match is removed.
var facilitySuffixes = []string{
	" courts",
	" court",
	" gym",
	" gymnasium",
	" field",
	" fields",
	" playground",
	" park",
	" recreation center",
	" rec center",
}

var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "at": {}, "in": {}, "and": {}, "&": {},
}

// Normalize canonicalizes a venue name for comparison by:
//  1. Lower-casing
//  2. Trimming and collapsing whitespace runs to one space
//  3. Removing the first matching facility suffix (" courts", " gym", ...)
//
// An empty name normalizes to "".
func Normalize(name string) string {
	if name == "" {
		return ""
	}

	// cases.Caser is not safe for concurrent use.
	name = cases.Lower(language.Und).String(name)
	name = strings.Join(strings.Fields(name), " ")

	for _, suffix := range facilitySuffixes {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}
	return name
}

// TokenSet is an unordered set of name tokens.
type TokenSet map[string]struct{}

// Has reports whether tok is in the set.
func (s TokenSet) Has(tok string) bool {
	_, ok := s[tok]
	return ok
}

// Tokenize normalizes name and returns its whitespace-delimited tokens minus
// stopwords.
func Tokenize(name string) TokenSet {
	words := strings.Fields(Normalize(name))
	set := make(TokenSet, len(words))
	for _, w := range words {
		if _, stop := stopwords[w]; stop {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}
