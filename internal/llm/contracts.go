package llm

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spesti-app/receipts-core/internal/entity"
)

// DraftRequest carries everything the vision model needs for one attempt.
// OCRText is optional context; when present it is appended to the prompt so
// the model can cross-check its own reading of the image.
type DraftRequest struct {
	Image         []byte
	MIMEType      string
	OCRText       string
	OCRConfidence float32
	RetailerHints []string // canonical retailer names, prompt guidance only
}

// DraftFields is the wire shape we require from the model. Money fields are
// decimal strings per the JSON schema; ToDraft converts them.
type DraftFields struct {
	Retailer string       `json:"retailer"`
	Date     string       `json:"date"` // YYYY-MM-DD
	Total    string       `json:"total"`
	Items    []ItemFields `json:"items"`
}

type ItemFields struct {
	Name       string `json:"name"`
	TotalPrice string `json:"total_price"`
	Quantity   string `json:"quantity,omitempty"`
	UnitPrice  string `json:"unit_price,omitempty"`
}

// DraftGenerator is Stage 2: image (+ optional OCR text) -> draft.
// Implementations must return raw model output alongside the decoded fields
// so failures can be persisted for diagnosis.
type DraftGenerator interface {
	GenerateDraft(ctx context.Context, req DraftRequest) (DraftFields, []byte /*rawJSON*/, error)
}

// ToDraft converts validated wire fields into the domain draft. Unparsable
// numerics become zero values; the quality gate rejects those downstream.
func (f DraftFields) ToDraft() entity.ReceiptDraft {
	d := entity.ReceiptDraft{
		ID:              uuid.New(),
		Retailer:        f.Retailer,
		UsedVisionModel: true,
	}
	if t, err := decimal.NewFromString(f.Total); err == nil {
		d.Total = t
	}
	if ts, err := time.Parse("2006-01-02", f.Date); err == nil {
		d.Date = ts
		d.DateConfirmed = true
	}
	for _, it := range f.Items {
		li := entity.LineItem{Name: it.Name}
		if v, err := decimal.NewFromString(it.TotalPrice); err == nil {
			li.TotalPrice = v
		}
		if v, err := decimal.NewFromString(it.Quantity); err == nil && v.IsPositive() {
			li.Quantity = v
		} else {
			li.Quantity = decimal.NewFromInt(1)
		}
		if v, err := decimal.NewFromString(it.UnitPrice); err == nil && v.IsPositive() {
			li.UnitPrice = v
		} else {
			li.UnitPrice = li.TotalPrice
		}
		d.Items = append(d.Items, li)
	}
	return d
}
