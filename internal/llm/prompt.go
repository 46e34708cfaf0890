package llm

import (
	"fmt"
	"strings"

	"github.com/amethystkombucha/chatbot/internal/catalog"
)

const instructions = `INSTRUKSI KHUSUS:
1. Gunakan informasi produk, manfaat, dan testimoni di atas untuk memberikan jawaban yang akurat
2. Jika ditanya tentang produk spesifik, berikan detail lengkap termasuk harga dan manfaat
3. Jika ditanya tentang manfaat, kombinasikan manfaat umum kombucha dengan manfaat spesifik produk
4. Jika ditanya tentang review, gunakan testimoni pelanggan yang relevan
5. Jawab dalam bahasa Indonesia yang ramah dan informatif
6. Maksimal 200 kata per response
7. Jika tidak yakin, sarankan produk yang paling sesuai dengan kebutuhan pelanggan`

const intentPrompt = `Klasifikasikan intent dari pesan berikut ke dalam salah satu kategori:
- product: Pertanyaan tentang produk kombucha spesifik
- faq: Pertanyaan umum (harga, cara beli, efek samping)
- benefits: Pertanyaan tentang manfaat kesehatan
- greeting: Sapaan atau percakapan pembuka
- general: Percakapan umum atau di luar topik

Pesan: "%s"

Jawab dengan format: [INTENT]|[CONFIDENCE_0_TO_1]
Contoh: product|0.85`

const recommendationPrompt = `Berdasarkan preferensi pelanggan: %s

Rekomendasikan produk kombucha Amethyst yang paling sesuai dari pilihan:
%s

Berikan rekomendasi singkat dengan alasan yang jelas.`

// BuildPrompt assembles the knowledge-base prompt for a customer message. Only
// the catalog sections relevant to the message and intent are included.
func BuildPrompt(cat *catalog.Catalog, message, intent string) string {
	lower := strings.ToLower(message)
	var ctx strings.Builder

	mentioned := cat.FindMentioned(message)
	if len(mentioned) > 0 {
		ctx.WriteString("\nPRODUK YANG DISEBUTKAN:\n")
		for _, p := range mentioned {
			fmt.Fprintf(&ctx, "- %s: %s\n", p.Name, p.Description)
			fmt.Fprintf(&ctx, "  Harga: %s\n", catalog.FormatPrice(p.Price))
			fmt.Fprintf(&ctx, "  Manfaat: %s\n", strings.Join(p.Benefits, ", "))
		}
	}

	if intent == "product" && len(mentioned) == 0 {
		ctx.WriteString("\nDAFTAR PRODUK KOMBUCHA AMETHYST:\n")
		for _, p := range cat.Products {
			fmt.Fprintf(&ctx, "- %s: %s\n", p.Name, catalog.FormatPrice(p.Price))
			fmt.Fprintf(&ctx, "  %s\n", p.Description)
		}
	}

	if intent == "benefits" || strings.Contains(lower, "manfaat") {
		ctx.WriteString("\nMANFAAT KOMBUCHA:\n")
		for _, b := range cat.Benefits {
			fmt.Fprintf(&ctx, "- %s: %s\n", b.Title, b.Description)
		}
	}

	if containsAny(lower, "review", "testimoni", "pendapat") {
		ctx.WriteString("\nTESTIMONI PELANGGAN:\n")
		for _, t := range cat.Testimonials {
			fmt.Fprintf(&ctx, "- %s: %q\n", t.Name, t.Content)
		}
	}

	return fmt.Sprintf(
		"Anda adalah asisten AI untuk Amethyst Kombucha, sebuah brand produk kombucha premium di Indonesia.\n%s\n%s\n\nPERTANYAAN PELANGGAN: %s\n\nJAWABAN:",
		ctx.String(), instructions, message)
}

// IntentPrompt asks the model to label message with one of the five intents.
func IntentPrompt(message string) string {
	return fmt.Sprintf(intentPrompt, message)
}

// RecommendationPrompt asks for a product suggestion matching preferences.
func RecommendationPrompt(cat *catalog.Catalog, preferences []string) string {
	names := make([]string, len(cat.Products))
	for i, p := range cat.Products {
		names[i] = p.Name
	}
	return fmt.Sprintf(recommendationPrompt, strings.Join(preferences, ", "), strings.Join(names, ", "))
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
