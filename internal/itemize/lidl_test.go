package itemize

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/spesti-app/receipts-core/internal/entity"
)

func TestItemize(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Itemize Suite")
}

const lidlReceipt = `ЛИДЛ БЪЛГАРИЯ ЕООД
СОФИЯ БУЛ ЕВРОПА 5
2.000 × 7.49
СЛАДОЛЕД МИНИ КЛАСИК   14.98
ХЛЯБ ПЪЛНОЗЪРНЕСТ   2.35 Б
ОБЩА СУМА 17.33
В БРОЙ 20.00
РЕСТО 2.67`

var _ = Describe("LIDL strategy", func() {
	var (
		s     *LIDL
		draft entity.ReceiptDraft
	)

	BeforeEach(func() {
		s = NewLIDL(nil)
		draft = entity.ReceiptDraft{}
	})

	Describe("Detect", func() {
		It("recognizes the chain in Cyrillic and Latin", func() {
			Expect(s.Detect("ЛИДЛ БЪЛГАРИЯ")).To(BeTrue())
			Expect(s.Detect("lidl bulgaria")).To(BeTrue())
			Expect(s.Detect("БИЛЛА СОФИЯ")).To(BeFalse())
		})
	})

	Describe("ExtractPairs", func() {
		It("records quantity and unit price per line index", func() {
			pairs := s.ExtractPairs([]string{"2.000 × 7.49", "ХЛЯБ 2.35"})
			Expect(pairs).To(HaveLen(1))
			Expect(pairs[0].Quantity.Equal(decimal.NewFromInt(2))).To(BeTrue())
			Expect(pairs[0].UnitPrice.Equal(decimal.RequireFromString("7.49"))).To(BeTrue())
		})

		It("accepts x, х and * as multiplication signs", func() {
			pairs := s.ExtractPairs([]string{"3 x 1.20", "2 х 0.99", "4 * 2.50"})
			Expect(pairs).To(HaveLen(3))
		})
	})

	Describe("Itemize", func() {
		It("pairs a quantity line with the product line below it", func() {
			items := s.Itemize(lidlReceipt, &draft)
			Expect(items).To(HaveLen(2))

			ice := items[0]
			Expect(ice.Name).To(Equal("Сладолед мини класик"))
			Expect(ice.Quantity.Equal(decimal.NewFromInt(2))).To(BeTrue())
			Expect(ice.UnitPrice.Equal(decimal.RequireFromString("7.49"))).To(BeTrue())
			// printed total, never quantity × unit price
			Expect(ice.TotalPrice.Equal(decimal.RequireFromString("14.98"))).To(BeTrue())
		})

		It("treats unpaired lines as single-unit purchases", func() {
			items := s.Itemize(lidlReceipt, &draft)
			bread := items[1]
			Expect(bread.Name).To(Equal("Хляб пълнозърнест"))
			Expect(bread.Quantity.Equal(decimal.NewFromInt(1))).To(BeTrue())
			Expect(bread.UnitPrice.Equal(decimal.RequireFromString("2.35"))).To(BeTrue())
			Expect(bread.TotalPrice.Equal(decimal.RequireFromString("2.35"))).To(BeTrue())
		})

		It("skips totals, payment and metadata lines", func() {
			items := s.Itemize(lidlReceipt, &draft)
			for _, it := range items {
				Expect(it.Name).NotTo(ContainSubstring("сума"))
				Expect(it.Name).NotTo(ContainSubstring("брой"))
				Expect(it.Name).NotTo(ContainSubstring("ресто"))
			}
		})

		It("skips names already present in the draft, case-insensitively", func() {
			draft.Items = []entity.LineItem{{Name: "СЛАДОЛЕД МИНИ КЛАСИК"}}
			items := s.Itemize(lidlReceipt, &draft)
			Expect(items).To(HaveLen(1))
			Expect(items[0].Name).To(Equal("Хляб пълнозърнест"))
		})

		It("takes the printed line total even when it disagrees with the pair", func() {
			raw := "LIDL\n3.000 × 2.00\nБИСКВИТИ ЗАКУСКА   5.99"
			items := s.Itemize(raw, &draft)
			Expect(items).To(HaveLen(1))
			Expect(items[0].TotalPrice.Equal(decimal.RequireFromString("5.99"))).To(BeTrue())
		})

		It("ignores non-Cyrillic and numeric-only lines", func() {
			raw := "LIDL\n1234567890\nPROMO -1.00\nКАФЕ 3В1   4.50"
			items := s.Itemize(raw, &draft)
			Expect(items).To(HaveLen(1))
			Expect(items[0].Name).To(Equal("Кафе 3в1"))
		})
	})
})
