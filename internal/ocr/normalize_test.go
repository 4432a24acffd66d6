package ocr

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestOCR(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "OCR Suite")
}

var _ = Describe("Normalize", func() {
	It("converts CRLF to LF", func() {
		Expect(Normalize("ЛИДЛ\r\nХляб  2.35")).To(Equal("ЛИДЛ\nХляб  2.35"))
	})

	It("strips separator-line artifacts", func() {
		in := "ЛИДЛ\n----------\nХляб  2.35"
		Expect(Normalize(in)).To(Equal("ЛИДЛ\n\nХляб  2.35"))
	})

	It("collapses runs of blank lines to a single blank line", func() {
		in := "ЛИДЛ\n\n\n\n\nХляб  2.35"
		Expect(Normalize(in)).To(Equal("ЛИДЛ\n\nХляб  2.35"))
	})

	It("keeps the price column attached to its line", func() {
		in := "Хляб пълнозърнест\t2.35\n"
		Expect(Normalize(in)).To(Equal("Хляб пълнозърнест  2.35"))
	})

	It("trims trailing spaces per line and the surrounding whitespace", func() {
		Expect(Normalize("  ЛИДЛ   \nХляб  2.35   \n\n")).To(Equal("ЛИДЛ\nХляб  2.35"))
	})

	It("passes empty input through", func() {
		Expect(Normalize("")).To(Equal(""))
	})
})

var _ = Describe("Lines", func() {
	It("drops empty lines and trims the rest", func() {
		Expect(Lines("ЛИДЛ\n\n  Хляб  2.35  \n")).To(Equal([]string{"ЛИДЛ", "Хляб  2.35"}))
	})
})

var _ = Describe("heuristicConfidence", func() {
	It("scores a full receipt high", func() {
		txt := `ЛИДЛ БЪЛГАРИЯ ЕООД
Хляб пълнозърнест  2.35
Сладолед мини класик  14.98
ОБЩА СУМА  17.33 лв
01.03.2024 14:22
Благодарим Ви за покупката`
		Expect(heuristicConfidence(txt)).To(BeNumerically(">=", 0.9))
	})

	It("scores garbage low", func() {
		Expect(heuristicConfidence("qq w ee")).To(BeNumerically("<=", 0.2))
	})

	It("credits лв currency marks", func() {
		with := heuristicConfidence("17.33 лв")
		without := heuristicConfidence("17.33 xx")
		Expect(with).To(BeNumerically(">", without))
	})

	It("never exceeds 1.0", func() {
		txt := "обща сума 17.33 лв 01.03.2024 " +
			"покупка покупка покупка покупка покупка покупка покупка покупка покупка покупка покупка покупка"
		Expect(heuristicConfidence(txt)).To(BeNumerically("<=", 1.0))
	})
})
