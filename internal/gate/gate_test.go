package gate

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/spesti-app/receipts-core/internal/entity"
)

func TestGate(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Gate Suite")
}

func validDraft() entity.ReceiptDraft {
	return entity.ReceiptDraft{
		Retailer: "ЛИДЛ БЪЛГАРИЯ",
		Total:    decimal.RequireFromString("17.33"),
		Date:     time.Date(2025, 6, 21, 0, 0, 0, 0, time.UTC),
		Items: []entity.LineItem{
			{
				Name:       "Сладолед мини класик",
				TotalPrice: decimal.RequireFromString("14.98"),
				Quantity:   decimal.NewFromInt(2),
				UnitPrice:  decimal.RequireFromString("7.49"),
			},
			{
				Name:       "Хляб пълнозърнест",
				TotalPrice: decimal.RequireFromString("2.35"),
				Quantity:   decimal.NewFromInt(1),
				UnitPrice:  decimal.RequireFromString("2.35"),
			},
		},
	}
}

var _ = Describe("Check", func() {
	It("accepts a plausible draft", func() {
		res := Check(validDraft())
		Expect(res.Accepted).To(BeTrue())
		Expect(res.Failures).To(BeEmpty())
	})

	It("rejects a zero total regardless of otherwise-valid items", func() {
		d := validDraft()
		d.Total = decimal.Zero
		res := Check(d)
		Expect(res.Accepted).To(BeFalse())
		Expect(reasons(res)).To(ContainElement(ReasonTotalRange))
	})

	It("rejects totals above the plausibility bound", func() {
		d := validDraft()
		d.Total = decimal.RequireFromString("10000.01")
		Expect(Check(d).Accepted).To(BeFalse())
	})

	It("rejects a short retailer name", func() {
		d := validDraft()
		d.Retailer = "ЛД"
		res := Check(d)
		Expect(res.Accepted).To(BeFalse())
		Expect(reasons(res)).To(ContainElement(ReasonRetailerShort))
	})

	It("rejects a missing date", func() {
		d := validDraft()
		d.Date = time.Time{}
		Expect(reasons(Check(d))).To(ContainElement(ReasonDateInvalid))
	})

	It("rejects an empty item list", func() {
		d := validDraft()
		d.Items = nil
		Expect(reasons(Check(d))).To(ContainElement(ReasonNoItems))
	})

	It("rejects noise-token item names", func() {
		d := validDraft()
		d.Items[0].Name = "ОБЩА СУМА"
		Expect(reasons(Check(d))).To(ContainElement(ReasonItemName))
	})

	It("rejects item prices outside the single-item bound", func() {
		d := validDraft()
		d.Items[1].TotalPrice = decimal.RequireFromString("100.01")
		Expect(reasons(Check(d))).To(ContainElement(ReasonItemPrice))
	})

	It("keeps the boundary values", func() {
		d := validDraft()
		d.Total = decimal.NewFromInt(10000)
		d.Items[1].TotalPrice = decimal.NewFromInt(100)
		Expect(Check(d).Accepted).To(BeTrue())
	})

	It("collects every failure, not just the first", func() {
		d := validDraft()
		d.Total = decimal.Zero
		d.Retailer = ""
		d.Items = nil
		res := Check(d)
		Expect(res.Failures).To(HaveLen(3))
		Expect(res.Error()).To(ContainSubstring("TOTAL_RANGE"))
	})
})

func reasons(res Result) []Reason {
	out := make([]Reason, 0, len(res.Failures))
	for _, f := range res.Failures {
		out = append(out, f.Reason)
	}
	return out
}
