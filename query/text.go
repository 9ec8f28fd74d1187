package query

import "strings"

// Stop words to filter out of expanded queries and term lists
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "what": true, "how": true, "which": true,
	"can": true, "i": true, "me": true, "my": true,
}

// IsStopWord reports whether the lowercased word carries no retrieval signal.
func IsStopWord(word string) bool {
	return stopWords[strings.ToLower(word)]
}

// Tokenize splits text into words, lowercases, and trims punctuation.
// Stop words are kept; callers filter when they need to.
func Tokenize(text string) []string {
	words := strings.Fields(text)
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if cleaned != "" {
			tokens = append(tokens, cleaned)
		}
	}
	return tokens
}

// TokenizeAndFilter tokenizes and drops stop words.
func TokenizeAndFilter(text string) []string {
	tokens := Tokenize(text)
	filtered := tokens[:0]
	for _, token := range tokens {
		if !stopWords[token] {
			filtered = append(filtered, token)
		}
	}
	return filtered
}

// rawWords splits text on whitespace and trims punctuation while preserving
// the original casing, for matching against schema identifiers.
func rawWords(text string) []string {
	words := strings.Fields(text)
	out := make([]string, 0, len(words))
	for _, word := range words {
		cleaned := strings.Trim(word, ".,!?;:'\"-()[]{}")
		if cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}
