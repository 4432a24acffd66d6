package reconcile

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/spesti-app/receipts-core/internal/entity"
)

func TestReconcile(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Reconcile Suite")
}

var _ = Describe("Reconciler", func() {
	var (
		r     *Reconciler
		draft entity.ReceiptDraft
	)

	BeforeEach(func() {
		r = New(nil)
		draft = entity.ReceiptDraft{
			Retailer: "ЛИДЛ",
			Total:    decimal.RequireFromString("40.00"),
			Date:     time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
			Items:    []entity.LineItem{{Name: "Хляб"}},
		}
	})

	Describe("total reconciliation", func() {
		It("overwrites the draft total when a keyword pattern disagrees", func() {
			out := r.Enhance("ЛИДЛ БЪЛГАРИЯ\nОБЩА СУМА: 45.20\n", draft)
			Expect(out.Total.Equal(decimal.RequireFromString("45.20"))).To(BeTrue())
			Expect(out.Reconciled).To(BeTrue())
		})

		It("keeps the draft total when the text agrees within tolerance", func() {
			out := r.Enhance("ВСИЧКО 40.05", draft)
			Expect(out.Total.Equal(decimal.RequireFromString("40.00"))).To(BeTrue())
		})

		It("honors keyword priority over line order", func() {
			raw := "К ПЛАЩАНЕ 12.00\nОБЩА СУМА 45.20"
			out := r.Enhance(raw, draft)
			Expect(out.Total.Equal(decimal.RequireFromString("45.20"))).To(BeTrue())
		})

		It("falls back to the largest plausible amount without keywords", func() {
			raw := "ХЛЯБ 2.30\nМЛЯКО 3.80\n52.60\n"
			out := r.Enhance(raw, draft)
			Expect(out.Total.Equal(decimal.RequireFromString("52.60"))).To(BeTrue())
		})

		It("reads the amount after OCR glyphs whose uppercase widens in bytes", func() {
			// ɐ (2 bytes) uppercases to Ɐ (3 bytes), shifting offsets
			out := r.Enhance("ɐɐɐ ОБЩА СУМА 45.20", draft)
			Expect(out.Total.Equal(decimal.RequireFromString("45.20"))).To(BeTrue())
		})

		It("ignores fallback amounts outside the plausible window", func() {
			raw := "ХЛЯБ 2.30\nЕИК 12345678.00"
			out := r.Enhance(raw, draft)
			Expect(out.Total.Equal(decimal.RequireFromString("40.00"))).To(BeTrue())
		})
	})

	Describe("retailer reconciliation", func() {
		It("overwrites with the canonical name when more complete", func() {
			out := r.Enhance("LIDL BULGARIA\nОБЩА СУМА 40.00", draft)
			Expect(out.Retailer).To(Equal("ЛИДЛ БЪЛГАРИЯ"))
		})

		It("only scans the receipt header", func() {
			lines := make([]string, 0, 12)
			for i := 0; i < 11; i++ {
				lines = append(lines, "ред без значение 1.00")
			}
			lines = append(lines, "KAUFLAND")
			out := r.Enhance(joinLines(lines), draft)
			Expect(out.Retailer).To(Equal("ЛИДЛ"))
		})
	})

	Describe("date reconciliation", func() {
		It("always prefers a structurally valid text date", func() {
			out := r.Enhance("ОБЩА СУМА 40.00\n21.06.2025 18:33", draft)
			Expect(out.Date).To(Equal(time.Date(2025, 6, 21, 0, 0, 0, 0, time.UTC)))
			Expect(out.DateConfirmed).To(BeTrue())
		})

		It("normalizes two-digit years with a 50-year pivot", func() {
			out := r.Enhance("14/03/25", draft)
			Expect(out.Date.Year()).To(Equal(2025))
		})

		It("rejects impossible calendar dates", func() {
			r.now = func() time.Time {
				return time.Date(2026, 8, 29, 15, 4, 5, 0, time.UTC)
			}
			out := r.Enhance("31.02.2025", draft)
			Expect(out.Date).To(Equal(time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)))
			Expect(out.DateConfirmed).To(BeFalse())
		})

		It("rejects years outside the plausible range", func() {
			r.now = func() time.Time {
				return time.Date(2026, 8, 29, 15, 4, 5, 0, time.UTC)
			}
			out := r.Enhance("21.06.2019", draft)
			Expect(out.Date).To(Equal(time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)))
			Expect(out.DateConfirmed).To(BeFalse())
		})

		It("defaults a missing date to today, unconfirmed", func() {
			draft.Date = time.Time{}
			r.now = func() time.Time {
				return time.Date(2026, 8, 29, 15, 4, 5, 0, time.UTC)
			}
			out := r.Enhance("ОБЩА СУМА 40.00", draft)
			Expect(out.Date).To(Equal(time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)))
			Expect(out.DateConfirmed).To(BeFalse())
		})

		It("overrides a model-supplied date with today when the text has none", func() {
			r.now = func() time.Time {
				return time.Date(2026, 8, 29, 15, 4, 5, 0, time.UTC)
			}
			out := r.Enhance("ОБЩА СУМА 40.00\nБЕЗ ДАТА НА БОНА", draft)
			Expect(out.Date).To(Equal(time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)))
			Expect(out.DateConfirmed).To(BeFalse())
		})
	})

	It("returns the draft unchanged for empty raw text", func() {
		out := r.Enhance("   ", draft)
		Expect(out).To(Equal(draft))
	})
})

func joinLines(lines []string) string {
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return out
}
