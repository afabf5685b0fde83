package search

import (
	"strings"

	"github.com/surgebase/porter2"
)

// DefaultStemMinLength is the shortest word the stemmer will touch. Short
// clinical abbreviations (MI, GAD, SSRI) are left alone.
const DefaultStemMinLength = 4

// Stemmer normalizes words to their porter2 stem so "stimulants" matches the
// keyword "stimulant"
type Stemmer struct {
	enabled    bool
	minLength  int
	exclusions map[string]bool // words to never stem
}

// NewStemmer creates a stemmer. A negative minLength falls back to
// DefaultStemMinLength.
func NewStemmer(enabled bool, minLength int, exclusions ...string) *Stemmer {
	if minLength < 0 {
		minLength = DefaultStemMinLength
	}
	s := &Stemmer{
		enabled:    enabled,
		minLength:  minLength,
		exclusions: make(map[string]bool, len(exclusions)),
	}
	for _, word := range exclusions {
		s.exclusions[strings.ToLower(word)] = true
	}
	return s
}

// IsEnabled checks if stemming is enabled
func (s *Stemmer) IsEnabled() bool {
	return s != nil && s.enabled
}

// Stem returns the stem of a lower-case word, or the word itself if stemming
// is disabled, the word is excluded or shorter than the minimum length
func (s *Stemmer) Stem(word string) string {
	if !s.IsEnabled() {
		return word
	}
	if s.exclusions[word] || len(word) < s.minLength {
		return word
	}
	return porter2.Stem(word)
}

// StemSet stems every whitespace-separated word of every phrase
func (s *Stemmer) StemSet(phrases []string) map[string]bool {
	set := make(map[string]bool)
	for _, phrase := range phrases {
		for _, word := range strings.Fields(phrase) {
			set[s.Stem(word)] = true
		}
	}
	return set
}
