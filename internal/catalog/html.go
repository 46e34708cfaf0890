package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/amethystkombucha/chatbot/internal/htmlutil"
)

// ProductSelector matches product cards on the storefront page.
const ProductSelector = "[data-product]"

// ParseHTML extracts the product cards of a storefront page. Benefits and
// testimonials are taken from the bundled catalog, since the product grid is
// the only part of the shop that changes.
//
//	<div data-product="1" data-name="Teh Hijau" data-price="48000">
//	  <p class="description">…</p>
//	  <li class="benefit">…</li>
//	</div>
func ParseHTML(r io.Reader) (*Catalog, error) {
	doc, err := htmlutil.LoadHTML(r)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	base := Default()
	c := &Catalog{Benefits: base.Benefits, Testimonials: base.Testimonials}
	doc.Find(ProductSelector).Each(func(i int, card *goquery.Selection) {
		p := Product{
			ID:          htmlutil.ParseInt(card.AttrOr("data-product", "")),
			Name:        htmlutil.AttrOrText(card, "data-name", ".name"),
			Price:       htmlutil.ParseInt(htmlutil.AttrOrText(card, "data-price", ".price")),
			Description: htmlutil.Text(card.Find(".description").First()),
			Benefits:    htmlutil.Texts(card, ".benefit"),
		}
		if p.ID == 0 {
			p.ID = i + 1
		}
		if p.Name == "" {
			slog.Debug("Skipping product card without name", "index", i)
			return
		}
		c.Products = append(c.Products, p)
	})

	if len(c.Products) == 0 {
		return nil, fmt.Errorf("catalog: no product cards matching %s", ProductSelector)
	}
	return c, nil
}

// Fetch loads the storefront page at url and parses its product cards. With
// render set, the page is rendered in headless Chrome first.
func Fetch(ctx context.Context, url string, render bool) (*Catalog, error) {
	var (
		html string
		err  error
	)
	if render {
		html, err = htmlutil.Render(ctx, url)
	} else {
		client, cerr := htmlutil.NewClient()
		if cerr != nil {
			return nil, fmt.Errorf("catalog: %w", cerr)
		}
		html, err = htmlutil.Fetch(ctx, client, url)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return ParseHTML(strings.NewReader(html))
}
