package gate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/spesti-app/receipts-core/constants"
	"github.com/spesti-app/receipts-core/internal/entity"
)

// Reason identifies which invariant a draft violated.
type Reason string

const (
	ReasonTotalRange    Reason = "TOTAL_RANGE"     // total must be in (0, 10000]
	ReasonRetailerShort Reason = "RETAILER_SHORT"  // retailer name length >= 3
	ReasonDateInvalid   Reason = "DATE_INVALID"    // date must be a valid calendar date
	ReasonNoItems       Reason = "NO_ITEMS"        // at least one line item
	ReasonItemName      Reason = "ITEM_NAME"       // item name length >= 3, not noise
	ReasonItemPrice     Reason = "ITEM_PRICE"      // item total in (0, 100]
)

type Failure struct {
	Reason Reason `json:"reason"`
	Detail string `json:"detail"`
}

// Result is the terminal verdict of one attempt: Accepted or Rejected with
// the full failure list. Retry policy belongs to the caller.
type Result struct {
	Accepted bool      `json:"accepted"`
	Failures []Failure `json:"failures,omitempty"`
}

func (r Result) Error() string {
	if r.Accepted {
		return ""
	}
	msgs := make([]string, len(r.Failures))
	for i, f := range r.Failures {
		msgs[i] = fmt.Sprintf("%s: %s", f.Reason, f.Detail)
	}
	return strings.Join(msgs, "; ")
}

var (
	maxTotal     = decimal.NewFromInt(10000)
	maxItemPrice = decimal.NewFromInt(100)
)

// Check runs every invariant over the draft. Fail-closed: any failing check
// rejects the whole draft; partial data must never reach persistence.
func Check(d entity.ReceiptDraft) Result {
	var failures []Failure

	if !d.Total.IsPositive() || d.Total.GreaterThan(maxTotal) {
		failures = append(failures, Failure{
			Reason: ReasonTotalRange,
			Detail: fmt.Sprintf("total %s outside (0, 10000]", d.Total),
		})
	}
	if utf8.RuneCountInString(strings.TrimSpace(d.Retailer)) < 3 {
		failures = append(failures, Failure{
			Reason: ReasonRetailerShort,
			Detail: fmt.Sprintf("retailer %q too short", d.Retailer),
		})
	}
	if d.Date.IsZero() {
		failures = append(failures, Failure{
			Reason: ReasonDateInvalid,
			Detail: "date missing",
		})
	}
	if len(d.Items) == 0 {
		failures = append(failures, Failure{
			Reason: ReasonNoItems,
			Detail: "draft has no line items",
		})
	}
	for i, it := range d.Items {
		if utf8.RuneCountInString(strings.TrimSpace(it.Name)) < 3 || constants.IsNoiseLine(it.Name) {
			failures = append(failures, Failure{
				Reason: ReasonItemName,
				Detail: fmt.Sprintf("item %d name %q implausible", i, it.Name),
			})
		}
		if !it.TotalPrice.IsPositive() || it.TotalPrice.GreaterThan(maxItemPrice) {
			failures = append(failures, Failure{
				Reason: ReasonItemPrice,
				Detail: fmt.Sprintf("item %d price %s outside (0, 100]", i, it.TotalPrice),
			})
		}
	}
	return Result{Accepted: len(failures) == 0, Failures: failures}
}
