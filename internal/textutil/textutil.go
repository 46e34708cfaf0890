// Package textutil provides text processing utilities for intent classification.
package textutil

import (
	"regexp"
	"strings"
)

// MinTokenLength is the shortest token kept by Preprocess.
const MinTokenLength = 3

var nonWordRe = regexp.MustCompile(`[^\w\s]+`)

// Preprocess lowercases text, replaces punctuation runs with a space, splits on
// whitespace and drops tokens shorter than MinTokenLength.
//
// \w is ASCII-only ([0-9A-Za-z_]), so letters outside that range act as separators.
func Preprocess(text string) []string {
	text = nonWordRe.ReplaceAllString(strings.ToLower(text), " ")
	fields := strings.Fields(text)
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) >= MinTokenLength {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

var (
	newlineRe    = regexp.MustCompile(`[\n\r]`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
)

// NormalizeWhitespaces replaces newlines and multiple whitespace with a single space.
func NormalizeWhitespaces(text string) string {
	text = newlineRe.ReplaceAllString(text, " ")
	return multiSpaceRe.ReplaceAllString(text, " ")
}

// Normalize lowercases text and normalizes whitespace.
func Normalize(text string) string {
	return strings.TrimSpace(NormalizeWhitespaces(strings.ToLower(text)))
}
