package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiptDraft is the in-progress receipt record produced by the vision model
// and refined by reconciliation. It is unvalidated until it passes the
// quality gate.
type ReceiptDraft struct {
	ID         uuid.UUID       `json:"id"`
	Retailer   string          `json:"retailer"`
	Total      decimal.Decimal `json:"total"` // BGN
	Date       time.Time       `json:"date"`
	Items      []LineItem      `json:"items"`
	Confidence int             `json:"confidence"` // 0..100

	// provenance
	UsedRawText     bool `json:"used_raw_text"`
	UsedVisionModel bool `json:"used_vision_model"`
	Reconciled      bool `json:"reconciled"`
	DateConfirmed   bool `json:"date_confirmed"`
}

// LineItem is a single purchased item on a receipt.
type LineItem struct {
	Name       string          `json:"name"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Confidence float32         `json:"confidence"`

	Category *CategoryAssignment `json:"category,omitempty"`
}

// HasItemNamed reports whether the draft already carries an item with the
// given name (case-insensitive). Used by itemizers to avoid duplicates.
func (d *ReceiptDraft) HasItemNamed(name string) bool {
	for _, it := range d.Items {
		if equalFoldTrim(it.Name, name) {
			return true
		}
	}
	return false
}
