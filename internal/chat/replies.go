package chat

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/samber/lo"

	"github.com/amethystkombucha/chatbot/internal/catalog"
)

// FallbackReply answers messages the classifier is not confident about.
const FallbackReply = "Maaf, saya belum memahami pertanyaan Anda. Bisa dijelaskan lebih detail? " +
	"Anda dapat bertanya tentang produk, harga, atau manfaat kombucha kami."

// CatalogReply builds an answer from catalog data. It reports false when the
// message and intent give nothing specific to answer from.
func CatalogReply(cat *catalog.Catalog, message, intent string) (string, bool) {
	lower := strings.ToLower(message)

	if mentioned := cat.FindMentioned(message); len(mentioned) > 0 {
		p := mentioned[0]
		price := catalog.FormatPrice(p.Price)
		switch {
		case strings.Contains(lower, "harga") || strings.Contains(lower, "berapa"):
			return fmt.Sprintf("%s dijual dengan harga %s. %s Manfaat utamanya: %s. Apakah ada yang ingin Anda ketahui lebih lanjut?",
				p.Name, price, p.Description, strings.Join(firstN(p.Benefits, 2), " dan ")), true
		case strings.Contains(lower, "manfaat"):
			return fmt.Sprintf("Manfaat %s: %s. %s Harga: %s. Tertarik untuk mencoba?",
				p.Name, strings.Join(p.Benefits, ", "), p.Description, price), true
		default:
			return fmt.Sprintf("%s Harga %s: %s. Manfaat utama: %s. Ada yang ingin ditanyakan lebih lanjut?",
				p.Description, p.Name, price, strings.Join(firstN(p.Benefits, 3), ", ")), true
		}
	}

	switch intent {
	case "product":
		list := lo.Map(cat.ByPrice(), func(p catalog.Product, _ int) string {
			return fmt.Sprintf("%s (%s)", p.Name, catalog.FormatPrice(p.Price))
		})
		return fmt.Sprintf("Kami memiliki %d varian kombucha premium: %s. Setiap varian memiliki manfaat kesehatan yang unik. Varian mana yang ingin Anda ketahui lebih detail?",
			len(list), strings.Join(list, ", ")), true
	case "benefits":
		return fmt.Sprintf("Kombucha Amethyst memiliki manfaat: %s. Setiap varian juga memiliki manfaat spesifik. Ingin tahu manfaat varian tertentu?",
			strings.Join(cat.BenefitTitles(), ", ")), true
	}

	if (strings.Contains(lower, "testimoni") || strings.Contains(lower, "review")) && len(cat.Testimonials) > 0 {
		t := cat.Testimonials[rand.IntN(len(cat.Testimonials))]
		return fmt.Sprintf("Berikut salah satu testimoni pelanggan kami - %s: %q Banyak pelanggan lain juga merasakan manfaat serupa. Ingin mencoba produk kami?",
			t.Name, t.Content), true
	}
	return "", false
}

// TemplateReply returns the canned answer for intent, or FallbackReply for an
// intent without a template.
func TemplateReply(cat *catalog.Catalog, intent string) string {
	switch intent {
	case "greeting":
		return "Halo! Saya adalah asisten virtual Amethyst Kombucha. Ada yang bisa saya bantu mengenai produk kombucha kami?"
	case "faq":
		if cheapest := cat.ByPrice(); len(cheapest) > 0 {
			return fmt.Sprintf("Harga kombucha kami mulai dari %s per botol dan dapat dipesan langsung melalui website ini. Ada pertanyaan lain yang bisa saya bantu?",
				catalog.FormatPrice(cheapest[0].Price))
		}
		return "Kombucha kami dapat dipesan langsung melalui website ini. Ada pertanyaan lain yang bisa saya bantu?"
	case "general":
		return "Terima kasih sudah menghubungi Amethyst Kombucha! Ada lagi yang ingin Anda ketahui tentang produk kami?"
	case "product", "benefits":
		reply, _ := CatalogReply(cat, "", intent)
		return reply
	}
	return FallbackReply
}

func firstN(s []string, n int) []string {
	return s[:min(n, len(s))]
}
