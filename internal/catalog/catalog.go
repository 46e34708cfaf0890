// Package catalog holds the storefront data the chatbot answers from: products,
// general benefits and customer testimonials.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultYAML []byte

// Product is a kombucha variant sold in the shop.
type Product struct {
	ID          int      `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Price       int      `yaml:"price" json:"price"`
	Description string   `yaml:"description" json:"description"`
	Benefits    []string `yaml:"benefits" json:"benefits"`
}

// Benefit is a general health benefit of kombucha.
type Benefit struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

// Testimonial is a customer quote.
type Testimonial struct {
	Name    string `yaml:"name" json:"name"`
	Content string `yaml:"content" json:"content"`
}

// Catalog is the full knowledge base.
type Catalog struct {
	Products     []Product     `yaml:"products" json:"products"`
	Benefits     []Benefit     `yaml:"benefits" json:"benefits"`
	Testimonials []Testimonial `yaml:"testimonials" json:"testimonials"`
}

// Parse decodes a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return &c, nil
}

// Default returns the catalog bundled with the binary.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// FindMentioned returns the products whose name, with or without its first
// space, appears in message (case-insensitive).
func (c *Catalog) FindMentioned(message string) []Product {
	lower := strings.ToLower(message)
	var out []Product
	for _, p := range c.Products {
		name := strings.ToLower(p.Name)
		if strings.Contains(lower, name) || strings.Contains(lower, strings.Replace(name, " ", "", 1)) {
			out = append(out, p)
		}
	}
	return out
}

// ByPrice returns a copy of the products sorted by ascending price.
func (c *Catalog) ByPrice() []Product {
	out := make([]Product, len(c.Products))
	copy(out, c.Products)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out
}

// BenefitTitles returns the titles of the general benefits.
func (c *Catalog) BenefitTitles() []string {
	out := make([]string, len(c.Benefits))
	for i, b := range c.Benefits {
		out[i] = b.Title
	}
	return out
}

// FormatPrice renders an amount in rupiah with dot thousands separators.
func FormatPrice(amount int) string {
	s := strconv.Itoa(amount)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "Rp -" + b.String()
	}
	return "Rp " + b.String()
}
