// Package corpus provides the intent training data: the hand-written base
// dataset, examples generated from the product catalog, and JSON import and
// export.
package corpus

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/amethystkombucha/chatbot/classifier"
	"github.com/amethystkombucha/chatbot/internal/catalog"
)

// Intents used by the bundled corpus.
const (
	IntentProduct  = "product"
	IntentFAQ      = "faq"
	IntentBenefits = "benefits"
	IntentGreeting = "greeting"
	IntentGeneral  = "general"
)

func ex(input, intent string, confidence float64) classifier.TrainingExample {
	return classifier.TrainingExample{
		Input:  input,
		Output: classifier.Label{Intent: intent, Confidence: confidence},
	}
}

// Base returns the hand-written examples. The last five double as the
// holdout set of the testing page.
func Base() []classifier.TrainingExample {
	return []classifier.TrainingExample{
		ex("apa saja produk kombucha yang ada", IntentProduct, 0.95),
		ex("kombucha teh hijau seperti apa", IntentProduct, 0.92),
		ex("ada kombucha rasa kopi tidak", IntentProduct, 0.90),
		ex("perbedaan kombucha teh hitam dan hijau", IntentProduct, 0.88),
		ex("kombucha bunga telang manfaatnya apa", IntentProduct, 0.85),

		ex("berapa harga kombucha per botol", IntentFAQ, 0.95),
		ex("dimana bisa beli kombucha amethyst", IntentFAQ, 0.93),
		ex("cara minum kombucha yang benar", IntentFAQ, 0.90),
		ex("efek samping minum kombucha", IntentFAQ, 0.87),
		ex("kombucha aman untuk ibu hamil", IntentFAQ, 0.85),

		ex("manfaat kombucha untuk kesehatan", IntentBenefits, 0.95),
		ex("kombucha bagus untuk pencernaan", IntentBenefits, 0.92),
		ex("probiotik dalam kombucha", IntentBenefits, 0.90),
		ex("kombucha bisa menurunkan berat badan", IntentBenefits, 0.85),

		ex("halo", IntentGreeting, 0.98),
		ex("hai selamat pagi", IntentGreeting, 0.95),
		ex("hello", IntentGreeting, 0.90),

		ex("terima kasih", IntentGeneral, 0.90),
		ex("sampai jumpa", IntentGeneral, 0.85),
		ex("bagaimana cuaca hari ini", IntentGeneral, 0.30),
	}
}

// FromCatalog generates question templates for every product and benefit of
// cat, followed by a few fixed storefront questions.
func FromCatalog(cat *catalog.Catalog) []classifier.TrainingExample {
	var out []classifier.TrainingExample
	for _, p := range cat.Products {
		name := strings.ToLower(p.Name)
		out = append(out,
			ex("apa itu "+name, IntentProduct, 0.9),
			ex("berapa harga "+name, IntentFAQ, 0.95),
			ex("manfaat "+name, IntentBenefits, 0.9),
			ex(name+" bagus tidak", IntentProduct, 0.85),
		)
	}
	for _, b := range cat.Benefits {
		out = append(out, ex(strings.ToLower(b.Title), IntentBenefits, 0.9))
	}
	return append(out,
		ex("produk apa saja yang tersedia", IntentProduct, 0.95),
		ex("ada diskon tidak", IntentFAQ, 0.9),
		ex("bagaimana cara pesan", IntentFAQ, 0.95),
		ex("testimoni pelanggan", IntentGeneral, 0.8),
	)
}

// Default is Base followed by FromCatalog(cat).
func Default(cat *catalog.Catalog) []classifier.TrainingExample {
	return append(Base(), FromCatalog(cat)...)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every example: input and intent are required and the
// confidence must lie in [0, 1]. The error names the first offending index.
func Validate(examples []classifier.TrainingExample) error {
	for i, e := range examples {
		if strings.TrimSpace(e.Input) == "" {
			return fmt.Errorf("corpus: example %d: input is blank", i)
		}
		if err := validate.Struct(e); err != nil {
			return fmt.Errorf("corpus: example %d: %w", i, err)
		}
	}
	return nil
}

// Holdout returns the last n examples, or all of them when n exceeds the
// corpus size.
func Holdout(examples []classifier.TrainingExample, n int) []classifier.TrainingExample {
	if n <= 0 {
		return nil
	}
	if n > len(examples) {
		n = len(examples)
	}
	return examples[len(examples)-n:]
}

// Distribution counts examples per intent.
func Distribution(examples []classifier.TrainingExample) map[string]int {
	return lo.CountValuesBy(examples, func(e classifier.TrainingExample) string {
		return e.Output.Intent
	})
}
