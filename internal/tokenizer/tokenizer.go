// Package tokenizer splits raw text into the exact word sequence that gets
// indexed. It never folds case or stems: "Go" and "go" stay distinct words.
package tokenizer

import (
	"strings"
	"unicode"
)

// Token is a single word and its position in the sequence.
type Token struct {
	Term     string
	Position int
}

// Split breaks text on whitespace and trims leading and trailing punctuation
// from each field. Fields that are pure punctuation are dropped.
func Split(text string) []string {
	fields := strings.FieldsFunc(text, unicode.IsSpace)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, isEdgePunct)
		if w == "" {
			continue
		}
		words = append(words, w)
	}
	return words
}

// Tokenize is Split with positions attached. Positions are contiguous and
// count only the words that survived trimming.
func Tokenize(text string) []Token {
	words := Split(text)
	tokens := make([]Token, len(words))
	for i, w := range words {
		tokens[i] = Token{Term: w, Position: i}
	}
	return tokens
}

func isEdgePunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}
