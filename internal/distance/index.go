// Package distance builds a positional index over a fixed word sequence and
// answers shortest-distance queries between two words by merging their
// occurrence lists.
package distance

import (
	"sort"
)

// Occurrences is the ascending list of positions at which a word appears.
type Occurrences []int

// Index maps each word of a sequence to its occurrence list. It is built once
// and never mutated, so it can be shared by any number of readers.
type Index struct {
	positions map[string]Occurrences
	length    int
}

// Build indexes words in a single pass. Positions are appended in scan order,
// which keeps every occurrence list strictly increasing.
func Build(words []string) *Index {
	positions := make(map[string]Occurrences)
	for pos, word := range words {
		positions[word] = append(positions[word], pos)
	}
	return &Index{
		positions: positions,
		length:    len(words),
	}
}

// ShortestDistance returns the minimum |i-j| over every position i of word1
// and every position j of word2. A word missing from the index yields a
// *NotFoundError. When both words are the same, positions are only compared
// against other occurrences of that word.
func (x *Index) ShortestDistance(word1, word2 string) (int, error) {
	first, err := x.lookup(word1)
	if err != nil {
		return 0, err
	}
	second, err := x.lookup(word2)
	if err != nil {
		return 0, err
	}
	if word1 == word2 {
		return minGap(first), nil
	}
	return mergeDistance(first, second), nil
}

// Positions returns a copy of the occurrence list for word.
func (x *Index) Positions(word string) (Occurrences, bool) {
	occ, ok := x.positions[word]
	if !ok {
		return nil, false
	}
	out := make(Occurrences, len(occ))
	copy(out, occ)
	return out, true
}

// Contains reports whether word occurs at least once.
func (x *Index) Contains(word string) bool {
	_, ok := x.positions[word]
	return ok
}

// Len returns the length of the indexed sequence.
func (x *Index) Len() int {
	return x.length
}

// WordCount returns the number of distinct words.
func (x *Index) WordCount() int {
	return len(x.positions)
}

// Words returns the distinct words in lexical order.
func (x *Index) Words() []string {
	words := make([]string, 0, len(x.positions))
	for w := range x.positions {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

func (x *Index) lookup(word string) (Occurrences, error) {
	occ, ok := x.positions[word]
	if !ok || len(occ) == 0 {
		return nil, &NotFoundError{Word: word}
	}
	return occ, nil
}

// mergeDistance walks both ascending lists with one cursor each. The cursor
// sitting on the smaller position is advanced: every later position in the
// other list is at least as large, so that position cannot improve.
func mergeDistance(a, b Occurrences) int {
	i, j := 0, 0
	best := -1
	for i < len(a) && j < len(b) {
		pa, pb := a[i], b[j]
		d := pa - pb
		if d < 0 {
			d = -d
		}
		if best < 0 || d < best {
			best = d
		}
		if pa < pb {
			i++
		} else {
			j++
		}
	}
	return best
}

// minGap is the smallest difference between two distinct occurrences. A
// single occurrence can only pair with itself, which gives 0.
func minGap(occ Occurrences) int {
	if len(occ) < 2 {
		return 0
	}
	best := occ[1] - occ[0]
	for k := 2; k < len(occ); k++ {
		if d := occ[k] - occ[k-1]; d < best {
			best = d
		}
	}
	return best
}
