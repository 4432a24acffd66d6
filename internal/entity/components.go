package entity

import "github.com/shopspring/decimal"

// ProductComponents is the structured decomposition of a raw OCR product
// string. Stateless intermediate of the name normalizer; also exposed to
// advanced callers that want individual fields.
type ProductComponents struct {
	BaseProduct   string          `json:"base_product"`
	Brand         string          `json:"brand,omitempty"`
	Type          string          `json:"type,omitempty"`
	KeyAttributes []string        `json:"key_attributes,omitempty"` // ordered, e.g. "3.6%", "био"
	Size          decimal.Decimal `json:"size,omitempty"`
	Unit          string          `json:"unit,omitempty"` // л, мл, г, кг, бр
}

// HasSize reports whether a size+unit was extracted.
func (c ProductComponents) HasSize() bool {
	return c.Unit != "" && c.Size.IsPositive()
}
