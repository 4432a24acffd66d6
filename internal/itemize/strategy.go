package itemize

import (
	"github.com/shopspring/decimal"

	"github.com/spesti-app/receipts-core/internal/entity"
)

// QtyPrice is a recovered "quantity × unit price" pair printed on its own
// receipt line.
type QtyPrice struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// Strategy recovers line items a draft missed, for one retailer layout.
// Layout quirks stay inside the strategy; new retailer formats are added as
// new implementations rather than branching logic.
type Strategy interface {
	// Detect reports whether this strategy applies to the raw receipt text.
	Detect(rawText string) bool
	// ExtractPairs maps line index -> quantity/unit-price pair for every line
	// matching the retailer's pair notation.
	ExtractPairs(lines []string) map[int]QtyPrice
	// Itemize returns additional items found in the raw text that are not
	// already present in the draft.
	Itemize(rawText string, draft *entity.ReceiptDraft) []entity.LineItem
}

// ForReceipt picks the first strategy whose Detect matches. Nil when no
// retailer layout is recognized.
func ForReceipt(strategies []Strategy, rawText string) Strategy {
	for _, s := range strategies {
		if s.Detect(rawText) {
			return s
		}
	}
	return nil
}
