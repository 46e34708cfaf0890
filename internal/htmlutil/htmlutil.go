// Package htmlutil provides helpers for loading and reading storefront HTML.
package htmlutil

import (
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/amethystkombucha/chatbot/internal/textutil"
)

// LoadHTML parses HTML bytes into a goquery Document.
func LoadHTML(r io.Reader) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(r)
}

// Text returns the whitespace-normalized text of the selection.
func Text(s *goquery.Selection) string {
	return strings.TrimSpace(textutil.NormalizeWhitespaces(s.Text()))
}

// Texts returns the normalized text of every element matching selector under s.
// Empty texts are skipped.
func Texts(s *goquery.Selection, selector string) []string {
	var out []string
	s.Find(selector).Each(func(_ int, el *goquery.Selection) {
		if t := Text(el); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// AttrOrText returns the attribute value when present and non-empty, otherwise
// the text of the first element matching selector.
func AttrOrText(s *goquery.Selection, attr, selector string) string {
	if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return Text(s.Find(selector).First())
}

// ParseInt reads an integer that may be formatted with currency symbols and
// thousands separators ("Rp 55.000" → 55000). Returns 0 when no digits exist.
func ParseInt(s string) int {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return n
}
