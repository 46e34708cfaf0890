// Package vectorizer converts text into fixed-length bag-of-words count vectors.
package vectorizer

import (
	"errors"
	"slices"
	"sort"

	"github.com/amethystkombucha/chatbot/internal/textutil"
)

// ErrAlreadyFitted is returned when Fit is called on a vectorizer that already
// holds a vocabulary. Build a new BagOfWords instead.
var ErrAlreadyFitted = errors.New("vectorizer: vocabulary already fitted")

// BagOfWords converts text to raw token count vectors over a sorted vocabulary.
type BagOfWords struct {
	vocabulary []string
	index      map[string]int
}

// New creates an empty, unfitted BagOfWords.
func New() *BagOfWords {
	return &BagOfWords{}
}

// Fit builds the vocabulary from a corpus. Tokens are deduplicated and sorted
// ascending, so the result does not depend on corpus order.
func (bw *BagOfWords) Fit(corpus []string) error {
	if bw.fitted() {
		return ErrAlreadyFitted
	}

	seen := make(map[string]bool)
	for _, doc := range corpus {
		for _, tok := range textutil.Preprocess(doc) {
			seen[tok] = true
		}
	}

	terms := make([]string, 0, len(seen))
	for term := range seen {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	bw.vocabulary = terms
	bw.index = make(map[string]int, len(terms))
	for i, term := range terms {
		bw.index[term] = i
	}
	return nil
}

// FitTransform fits the vocabulary and transforms the corpus.
func (bw *BagOfWords) FitTransform(corpus []string) ([][]float64, error) {
	if err := bw.Fit(corpus); err != nil {
		return nil, err
	}
	result := make([][]float64, len(corpus))
	for i, doc := range corpus {
		result[i] = bw.Transform(doc)
	}
	return result, nil
}

// Transform converts a single document to a dense count vector whose length is
// the vocabulary size. Out-of-vocabulary tokens are dropped.
func (bw *BagOfWords) Transform(text string) []float64 {
	vec := make([]float64, len(bw.vocabulary))
	for _, tok := range textutil.Preprocess(text) {
		if idx := bw.indexOf(tok); idx >= 0 {
			vec[idx]++
		}
	}
	return vec
}

func (bw *BagOfWords) fitted() bool {
	return bw.index != nil
}

// VocabSize returns the vocabulary size.
func (bw *BagOfWords) VocabSize() int {
	return len(bw.vocabulary)
}

// Vocabulary returns a copy of the sorted vocabulary.
func (bw *BagOfWords) Vocabulary() []string {
	out := make([]string, len(bw.vocabulary))
	copy(out, bw.vocabulary)
	return out
}

// indexOf returns the vocabulary position of token, or -1.
func (bw *BagOfWords) indexOf(token string) int {
	if idx, ok := bw.index[token]; ok {
		return idx
	}
	return -1
}

// FromVocabulary rebuilds a fitted vectorizer from a saved vocabulary. The
// terms are sorted and deduplicated, matching what Fit would have produced.
func FromVocabulary(vocabulary []string) *BagOfWords {
	terms := append([]string(nil), vocabulary...)
	sort.Strings(terms)
	terms = slices.Compact(terms)

	bw := &BagOfWords{vocabulary: terms, index: make(map[string]int, len(terms))}
	for i, term := range terms {
		bw.index[term] = i
	}
	return bw
}
